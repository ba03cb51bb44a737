package grammar

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// punctTags are single-character tags accepted without an identifier, as in
// classic turtle notation.
const punctTags = "[]+-&^\\/|!"

type rawSymbol struct {
	Tag  string
	Args []string
	Pos  int
}

// Compile parses rule texts and builds a Grammar in one step.
func Compile(alphabet Alphabet, params Env, texts ...string) (*Grammar, error) {
	rules, err := ParseRules(params, texts...)
	if err != nil {
		return nil, err
	}
	return New(alphabet, params, rules...)
}

// ParseRules parses each text with ParseRule, naming rules after their position.
func ParseRules(params Env, texts ...string) ([]Rule, error) {
	rules := make([]Rule, 0, len(texts))
	for i, text := range texts {
		r, err := ParseRule(params, fmt.Sprintf("rule %d", i), text)
		if err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	return rules, nil
}

// ParseRule parses one rule of the form
//
//	[left... <] Focus(vars) [> right...] [: guard] -> replacement...
//
// for example
//
//	A(a) < A(x) > B(b, c) : a + b + c < 10 -> B(a + b, a + c) A(x + a + b + c)
//
// Pattern arguments are variable names ("_" matches anything). The guard and
// replacement arguments are expressions over the bound variables and params;
// "**" raises to a power.
// Tags and arities are checked later, by New.
func ParseRule(params Env, name, text string) (Rule, error) {
	lhs, rhs, arrow, ok := splitTop(text, "->")
	if !ok {
		return Rule{}, &SyntaxError{Input: text, Pos: len(text), Reason: "missing '->'"}
	}

	patterns, guardSrc, hasGuard := lhs, "", false
	if before, after, _, found := splitTop(lhs, ":"); found {
		patterns, guardSrc, hasGuard = before, after, true
	}

	rule := Rule{Name: name}

	focusText, focusPos := patterns, 0
	if before, after, at, found := splitTop(patterns, "<"); found {
		left, err := parseSymbols(before, 0, text)
		if err != nil {
			return Rule{}, err
		}
		if rule.Left, err = toPatterns(left, text); err != nil {
			return Rule{}, err
		}
		focusText, focusPos = after, at+1
	}
	if before, after, at, found := splitTop(focusText, ">"); found {
		right, err := parseSymbols(after, focusPos+at+1, text)
		if err != nil {
			return Rule{}, err
		}
		if rule.Right, err = toPatterns(right, text); err != nil {
			return Rule{}, err
		}
		focusText = before
	}

	focus, err := parseSymbols(focusText, focusPos, text)
	if err != nil {
		return Rule{}, err
	}
	if len(focus) != 1 {
		return Rule{}, &SyntaxError{Input: text, Pos: focusPos, Reason: fmt.Sprintf("expected exactly one focus symbol, found %d", len(focus))}
	}
	focusPatterns, err := toPatterns(focus, text)
	if err != nil {
		return Rule{}, err
	}
	rule.Focus = focusPatterns[0]

	names := scopeNames(params, rule)

	if hasGuard {
		src := strings.TrimSpace(guardSrc)
		if src == "" {
			return Rule{}, &SyntaxError{Input: text, Pos: len(lhs), Reason: "empty guard"}
		}
		if rule.Guard, err = compileGuard(src, names); err != nil {
			return Rule{}, &MalformedError{Rule: name, Index: -1, Reason: err.Error()}
		}
	}

	replacement, err := parseSymbols(rhs, arrow+2, text)
	if err != nil {
		return Rule{}, err
	}
	for _, rs := range replacement {
		p := Production{Tag: rs.Tag, Args: make([]Expr, len(rs.Args))}
		for i, src := range rs.Args {
			if p.Args[i], err = compileExpr(src, names); err != nil {
				return Rule{}, &MalformedError{Rule: name, Index: -1, Reason: err.Error()}
			}
		}
		rule.Produce = append(rule.Produce, p)
	}

	return rule, nil
}

// ParseSequence parses a space separated list of symbols whose arguments are
// constant expressions over params, such as an axiom "A(root_length, 10)".
func ParseSequence(alphabet Alphabet, params Env, text string) ([]Symbol, error) {
	raw, err := parseSymbols(text, 0, text)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(params))
	for n := range params {
		names = append(names, n)
	}

	seq := make([]Symbol, 0, len(raw))
	for idx, rs := range raw {
		s := Symbol{Tag: rs.Tag}
		if len(rs.Args) > 0 {
			s.Params = make([]float64, len(rs.Args))
		}
		for i, src := range rs.Args {
			e, err := compileExpr(src, names)
			if err != nil {
				return nil, &MalformedError{Rule: "sequence", Index: idx, Reason: err.Error()}
			}
			s.Params[i] = e.Eval(params)
		}
		seq = append(seq, s)
	}

	if err := alphabet.Check(seq); err != nil {
		return nil, err
	}
	return seq, nil
}

func toPatterns(raw []rawSymbol, input string) ([]Pattern, error) {
	out := make([]Pattern, len(raw))
	for i, rs := range raw {
		out[i] = Pattern{Tag: rs.Tag, Vars: make([]string, len(rs.Args))}
		for j, arg := range rs.Args {
			v := strings.TrimSpace(arg)
			if !isIdent(v) {
				return nil, &SyntaxError{Input: input, Pos: rs.Pos, Reason: fmt.Sprintf("pattern argument %q is not a variable name", v)}
			}
			out[i].Vars[j] = v
		}
	}
	return out, nil
}

// scopeNames lists every name visible to a rule's expressions.
func scopeNames(params Env, r Rule) []string {
	seen := make(map[string]bool, len(params))
	for n := range params {
		seen[n] = true
	}
	for _, p := range append(append(append([]Pattern{}, r.Left...), r.Focus), r.Right...) {
		for _, v := range p.Vars {
			if v != "_" {
				seen[v] = true
			}
		}
	}
	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func typedEnv(names []string) map[string]any {
	env := make(map[string]any, len(names))
	for _, n := range names {
		env[n] = 0.0
	}
	return env
}

func runtimeEnv(e Env) map[string]any {
	out := make(map[string]any, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}

func compileExpr(src string, names []string) (Expr, error) {
	src = strings.TrimSpace(src)
	if src == "" {
		return Expr{}, fmt.Errorf("empty expression")
	}
	program, err := expr.Compile(src, expr.Env(typedEnv(names)), expr.AsFloat64())
	if err != nil {
		return Expr{}, fmt.Errorf("expression %q: %w", src, err)
	}
	return Expr{
		Source: src,
		Eval:   func(e Env) float64 { return runFloat(program, e) },
	}, nil
}

func compileGuard(src string, names []string) (Guard, error) {
	program, err := expr.Compile(src, expr.Env(typedEnv(names)), expr.AsBool())
	if err != nil {
		return Guard{}, fmt.Errorf("guard %q: %w", src, err)
	}
	return Guard{
		Source: src,
		Test: func(e Env) bool {
			out, err := expr.Run(program, runtimeEnv(e))
			if err != nil {
				return false
			}
			b, _ := out.(bool)
			return b
		},
	}, nil
}

// runFloat evaluates a compiled expression. Names are type-checked at compile
// time, so a runtime failure only comes from arithmetic and yields NaN.
func runFloat(program *vm.Program, e Env) float64 {
	out, err := expr.Run(program, runtimeEnv(e))
	if err != nil {
		return math.NaN()
	}
	f, ok := out.(float64)
	if !ok {
		return math.NaN()
	}
	return f
}

// splitTop splits s around the first occurrence of sep outside parentheses.
func splitTop(s, sep string) (before, after string, at int, found bool) {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
		}
		if depth == 0 && strings.HasPrefix(s[i:], sep) {
			return s[:i], s[i+len(sep):], i, true
		}
	}
	return s, "", -1, false
}

func parseSymbols(input string, base int, full string) ([]rawSymbol, error) {
	var out []rawSymbol
	i := 0
	for i < len(input) {
		c := input[i]
		if isSpace(c) {
			i++
			continue
		}

		start := i
		var tag string
		switch {
		case isIdentStart(c):
			j := i + 1
			for j < len(input) && isIdentPart(input[j]) {
				j++
			}
			tag, i = input[i:j], j
		case strings.IndexByte(punctTags, c) >= 0:
			tag, i = string(c), i+1
		default:
			return nil, &SyntaxError{Input: full, Pos: base + i, Reason: fmt.Sprintf("unexpected %q", c)}
		}

		k := i
		for k < len(input) && isSpace(input[k]) {
			k++
		}

		var args []string
		if k < len(input) && input[k] == '(' {
			depth, argStart, j := 1, k+1, k+1
			for ; j < len(input) && depth > 0; j++ {
				switch input[j] {
				case '(':
					depth++
				case ')':
					depth--
					if depth == 0 {
						args = append(args, input[argStart:j])
					}
				case ',':
					if depth == 1 {
						args = append(args, input[argStart:j])
						argStart = j + 1
					}
				}
			}
			if depth != 0 {
				return nil, &SyntaxError{Input: full, Pos: base + k, Reason: "unclosed '('"}
			}
			if len(args) == 1 && strings.TrimSpace(args[0]) == "" {
				args = nil
			}
			for _, a := range args {
				if strings.TrimSpace(a) == "" {
					return nil, &SyntaxError{Input: full, Pos: base + k, Reason: fmt.Sprintf("empty argument in %s(...)", tag)}
				}
			}
			i = j
		}

		out = append(out, rawSymbol{Tag: tag, Args: args, Pos: base + start})
	}
	return out, nil
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

func isIdent(s string) bool {
	if s == "" || !isIdentStart(s[0]) {
		return false
	}
	for i := 1; i < len(s); i++ {
		if !isIdentPart(s[i]) {
			return false
		}
	}
	return true
}
