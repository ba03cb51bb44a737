package species

import (
	"math"
	"strconv"

	"github.com/aretw0/arbor/pkg/grammar"
	"github.com/aretw0/arbor/pkg/turtle"
)

// TagApex is the growing tip of a Honda tree: A(length, diameter).
const TagApex = "A"

// HondaParams are the constants of Honda's monopodial tree model.
type HondaParams struct {
	InternodeScale1      float64 `mapstructure:"internode_scale_factor_1" yaml:"internode_scale_factor_1" json:"internode_scale_factor_1"`
	InternodeScale2      float64 `mapstructure:"internode_scale_factor_2" yaml:"internode_scale_factor_2" json:"internode_scale_factor_2"`
	BranchYaw1           float64 `mapstructure:"branch_yaw_1" yaml:"branch_yaw_1" json:"branch_yaw_1"`
	BranchYaw2           float64 `mapstructure:"branch_yaw_2" yaml:"branch_yaw_2" json:"branch_yaw_2"`
	BranchPitch1         float64 `mapstructure:"branch_pitch_1" yaml:"branch_pitch_1" json:"branch_pitch_1"`
	BranchPitch2         float64 `mapstructure:"branch_pitch_2" yaml:"branch_pitch_2" json:"branch_pitch_2"`
	DiameterFactor       float64 `mapstructure:"branch_differential_diameter_factor" yaml:"branch_differential_diameter_factor" json:"branch_differential_diameter_factor"`
	DiameterConservation float64 `mapstructure:"branch_diameter_conservation_factor" yaml:"branch_diameter_conservation_factor" json:"branch_diameter_conservation_factor"`
	RootDiameter         float64 `mapstructure:"root_diameter" yaml:"root_diameter" json:"root_diameter"`
	RootLength           float64 `mapstructure:"root_length" yaml:"root_length" json:"root_length"`
}

// DefaultHondaParams returns a balanced, broad-crowned parameter set.
func DefaultHondaParams() HondaParams {
	return HondaParams{
		InternodeScale1:      0.60,
		InternodeScale2:      0.85,
		BranchYaw1:           25,
		BranchYaw2:           -15,
		BranchPitch1:         180,
		BranchPitch2:         180,
		DiameterFactor:       0.45,
		DiameterConservation: 0.50,
		RootDiameter:         10,
		RootLength:           100,
	}
}

// Env exposes the parameters under their configuration names.
func (p HondaParams) Env() grammar.Env {
	return grammar.Env{
		"internode_scale_factor_1":            p.InternodeScale1,
		"internode_scale_factor_2":            p.InternodeScale2,
		"branch_yaw_1":                        p.BranchYaw1,
		"branch_yaw_2":                        p.BranchYaw2,
		"branch_pitch_1":                      p.BranchPitch1,
		"branch_pitch_2":                      p.BranchPitch2,
		"branch_differential_diameter_factor": p.DiameterFactor,
		"branch_diameter_conservation_factor": p.DiameterConservation,
		"root_diameter":                       p.RootDiameter,
		"root_length":                         p.RootLength,
	}
}

// Honda builds the monopodial tree
//
//	A(s, w) -> W(w) F(s)
//	           [ R(0, pitch1, yaw1) A(s * r1, w * q) ]
//	           [ R(0, pitch2, yaw2) A(s * r2, w * q) ]
//
// with q = diameter_factor ** conservation, from the axiom A(root_length, root_diameter).
func Honda(p HondaParams) (*Species, error) {
	alphabet, err := turtle.Alphabet.Merge(grammar.Alphabet{TagApex: 2})
	if err != nil {
		return nil, err
	}

	thinning := math.Pow(p.DiameterFactor, p.DiameterConservation)
	scaled := func(factor float64) grammar.Expr {
		return grammar.Calc(func(e grammar.Env) float64 { return e["s"] * factor }, "s").
			Describe("s * " + strconv.FormatFloat(factor, 'g', -1, 64))
	}
	thinned := grammar.Calc(func(e grammar.Env) float64 { return e["w"] * thinning }, "w").
		Describe("w * " + strconv.FormatFloat(thinning, 'g', -1, 64))
	branch := func(pitch, yaw, scale float64) []grammar.Production {
		return []grammar.Production{
			grammar.Emit(turtle.TagPush),
			grammar.Emit(turtle.TagRotate, grammar.Const(0), grammar.Const(pitch), grammar.Const(yaw)),
			grammar.Emit(TagApex, scaled(scale), thinned),
			grammar.Emit(turtle.TagPop),
		}
	}

	produce := []grammar.Production{
		grammar.Emit(turtle.TagDiameter, grammar.Var("w")),
		grammar.Emit(turtle.TagForward, grammar.Var("s")),
	}
	produce = append(produce, branch(p.BranchPitch1, p.BranchYaw1, p.InternodeScale1)...)
	produce = append(produce, branch(p.BranchPitch2, p.BranchYaw2, p.InternodeScale2)...)

	g, err := grammar.New(alphabet, p.Env(), grammar.Rule{
		Name:    "apex",
		Focus:   grammar.Match(TagApex, "s", "w"),
		Produce: produce,
	})
	if err != nil {
		return nil, err
	}

	axiom := []grammar.Symbol{grammar.NewSymbol(TagApex, p.RootLength, p.RootDiameter)}
	sp, err := New("honda", g, axiom, turtle.Node{Diameter: p.RootDiameter})
	if err != nil {
		return nil, err
	}
	sp.Iterations = 3
	return sp, nil
}
