package species

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/aretw0/arbor/pkg/grammar"
	"github.com/aretw0/arbor/pkg/turtle"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// KindHonda selects the premade Honda model; Params override its defaults.
const KindHonda = "honda"

// Document is the on-disk form of a species.
//
// A document either names a premade kind and tunes its parameters, or
// declares its own alphabet, axiom and textual rules:
//
//	name: weed
//	alphabet: {A: 1}
//	params: {ratio: 0.5}
//	axiom: "A(10)"
//	rules:
//	  - "A(s) -> F(s) [ R(0, 0, 30) A(s * ratio) ] A(s * ratio)"
type Document struct {
	Name       string         `yaml:"name" json:"name" toml:"name"`
	Kind       string         `yaml:"kind,omitempty" json:"kind,omitempty" toml:"kind"`
	Iterations int            `yaml:"iterations,omitempty" json:"iterations,omitempty" toml:"iterations"`
	Params     map[string]any `yaml:"params,omitempty" json:"params,omitempty" toml:"params"`
	Alphabet   map[string]int `yaml:"alphabet,omitempty" json:"alphabet,omitempty" toml:"alphabet"`
	Axiom      string         `yaml:"axiom,omitempty" json:"axiom,omitempty" toml:"axiom"`
	Rules      []string       `yaml:"rules,omitempty" json:"rules,omitempty" toml:"rules"`
	Root       *RootDocument  `yaml:"root,omitempty" json:"root,omitempty" toml:"root"`
}

// RootDocument places the root node.
type RootDocument struct {
	Position []float64 `yaml:"position,omitempty" json:"position,omitempty" toml:"position"`
	Diameter float64   `yaml:"diameter,omitempty" json:"diameter,omitempty" toml:"diameter"`
}

// Load reads a species file. The format is chosen by extension:
// .json is JSON, .toml is TOML, anything else is YAML.
func Load(path string) (*Species, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read species file: %w", err)
	}

	format := "yaml"
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		format = "json"
	case ".toml":
		format = "toml"
	}

	sp, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sp, nil
}

// Parse decodes a species document in the given format ("yaml", "json" or "toml").
func Parse(data []byte, format string) (*Species, error) {
	var doc Document
	switch format {
	case "json":
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse json: %w", err)
		}
	case "toml":
		if err := toml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse toml: %w", err)
		}
	case "yaml", "yml", "":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse yaml: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported species format %q", format)
	}
	return doc.Build()
}

// Build compiles the document into a species.
func (d Document) Build() (*Species, error) {
	var (
		sp  *Species
		err error
	)
	switch d.Kind {
	case KindHonda:
		sp, err = d.buildHonda()
	case "":
		sp, err = d.buildCustom()
	default:
		return nil, fmt.Errorf("%w: kind %q", ErrUnknownSpecies, d.Kind)
	}
	if err != nil {
		return nil, err
	}

	if d.Name != "" {
		sp.Name = d.Name
	}
	if d.Iterations < 0 {
		return nil, fmt.Errorf("species %q: iterations must be non-negative", sp.Name)
	}
	if d.Iterations > 0 {
		sp.Iterations = d.Iterations
	}
	if d.Root != nil {
		if err := d.Root.apply(&sp.Root); err != nil {
			return nil, fmt.Errorf("species %q root: %w", sp.Name, err)
		}
	}
	return sp, nil
}

func (d Document) buildHonda() (*Species, error) {
	if len(d.Rules) > 0 || d.Axiom != "" || len(d.Alphabet) > 0 {
		return nil, fmt.Errorf("species kind %q takes params only", KindHonda)
	}

	p := DefaultHondaParams()
	if err := decodeParams(d.Params, &p); err != nil {
		return nil, err
	}
	return Honda(p)
}

func (d Document) buildCustom() (*Species, error) {
	if d.Name == "" {
		return nil, fmt.Errorf("species without kind must have a name")
	}
	if d.Axiom == "" {
		return nil, fmt.Errorf("species %q: missing axiom", d.Name)
	}

	params := grammar.Env{}
	if err := decodeParams(d.Params, &params); err != nil {
		return nil, fmt.Errorf("species %q: %w", d.Name, err)
	}

	alphabet, err := turtle.Alphabet.Merge(d.Alphabet)
	if err != nil {
		return nil, fmt.Errorf("species %q: %w", d.Name, err)
	}

	g, err := grammar.Compile(alphabet, params, d.Rules...)
	if err != nil {
		return nil, fmt.Errorf("species %q: %w", d.Name, err)
	}

	axiom, err := grammar.ParseSequence(alphabet, params, d.Axiom)
	if err != nil {
		return nil, fmt.Errorf("species %q axiom: %w", d.Name, err)
	}

	return New(d.Name, g, axiom, turtle.Node{Diameter: 1})
}

// decodeParams accepts numbers written as ints, floats or numeric strings.
// Unknown keys are rejected when decoding into a struct.
func decodeParams(in map[string]any, out any) error {
	if len(in) == 0 {
		return nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(in); err != nil {
		return fmt.Errorf("invalid params: %w", err)
	}
	return nil
}

func (r RootDocument) apply(n *turtle.Node) error {
	switch len(r.Position) {
	case 0:
	case 3:
		n.Position = mgl64.Vec3{r.Position[0], r.Position[1], r.Position[2]}
	default:
		return fmt.Errorf("position needs 3 coordinates, got %d", len(r.Position))
	}
	if r.Diameter < 0 {
		return fmt.Errorf("negative diameter %v", r.Diameter)
	}
	if r.Diameter > 0 {
		n.Diameter = r.Diameter
	}
	return nil
}
