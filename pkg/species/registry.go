package species

import (
	"fmt"
	"sort"
)

var premade = map[string]func() (*Species, error){
	"honda": func() (*Species, error) { return Honda(DefaultHondaParams()) },
}

// Lookup returns a freshly built premade species.
func Lookup(name string) (*Species, error) {
	build, ok := premade[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSpecies, name)
	}
	return build()
}

// Names lists the premade species.
func Names() []string {
	names := make([]string, 0, len(premade))
	for n := range premade {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
