// Package formula evaluates dice formulas such as "2d6+@proficiency" or
// "@{prof}d8cs>=6".
//
// A formula is scanned once: dice terms and @variables are lifted out into
// placeholders and the remaining arithmetic is compiled with expr. The same
// compiled program serves both the closed-form expectation (placeholders bound
// to term means) and live rolls (placeholders bound to rolled values).
package formula

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/KirkDiggler/dh-automation/internal/dice"
	dherr "github.com/KirkDiggler/dh-automation/internal/errors"
)

// Vars resolves @name references
type Vars map[string]float64

// functions is the closed set of callable builtins
var functions = []string{"floor", "ceil", "round", "min", "max", "abs"}

// ParseError describes malformed formula text
type ParseError struct {
	Formula string
	Pos     int
	Reason  string
}

func (e *ParseError) Error() string {
	if e.Pos >= 0 {
		return fmt.Sprintf("formula %q: %s at position %d", e.Formula, e.Reason, e.Pos)
	}
	return fmt.Sprintf("formula %q: %s", e.Formula, e.Reason)
}

func parseError(src string, pos int, format string, args ...any) error {
	return dherr.WrapWithCode(&ParseError{Formula: src, Pos: pos, Reason: fmt.Sprintf(format, args...)},
		dherr.CodeAuthoring, "invalid formula").WithMeta("formula", src)
}

// Formula is a parsed, compiled formula
type Formula struct {
	src     string
	terms   []*DiceTerm
	vars    []string // placeholder index -> variable name
	program *vm.Program
}

// Source returns the original text
func (f *Formula) Source() string {
	return f.src
}

// Terms returns the dice terms in order of appearance
func (f *Formula) Terms() []*DiceTerm {
	return f.terms
}

// Variables returns the referenced variable names in order of appearance
func (f *Formula) Variables() []string {
	return f.vars
}

// HasDice reports whether evaluating the formula rolls anything
func (f *Formula) HasDice() bool {
	return len(f.terms) > 0
}

// Parse scans and compiles a formula
func Parse(src string) (*Formula, error) {
	text := strings.TrimSpace(src)
	if text == "" {
		return nil, parseError(src, -1, "empty formula")
	}

	s := &scanner{src: text}
	rewritten, err := s.scan()
	if err != nil {
		return nil, err
	}

	env := placeholderEnv(len(s.terms), len(s.vars), 1)
	opts := []expr.Option{expr.Env(env), expr.DisableAllBuiltins()}
	for _, fn := range functions {
		opts = append(opts, expr.EnableBuiltin(fn))
	}
	program, err := expr.Compile(rewritten, opts...)
	if err != nil {
		return nil, parseError(src, -1, "%s", compileMessage(err))
	}

	f := &Formula{src: text, terms: s.terms, vars: s.vars, program: program}

	// A dry run rejects programs that compile but do not produce a number.
	out, err := expr.Run(program, env)
	if err != nil {
		return nil, parseError(src, -1, "%s", compileMessage(err))
	}
	switch out.(type) {
	case float64, int:
	default:
		return nil, parseError(src, -1, "result is %T, not a number", out)
	}
	return f, nil
}

// MustParse is Parse for formulas known at compile time
func MustParse(src string) *Formula {
	f, err := Parse(src)
	if err != nil {
		panic(err)
	}
	return f
}

// Expectation returns the closed-form mean of the formula.
// Non-linear functions are applied to term means.
func (f *Formula) Expectation(vars Vars) (float64, error) {
	values, err := f.resolveVars(vars)
	if err != nil {
		return 0, err
	}

	env := placeholderEnv(0, 0, 0)
	for i, term := range f.terms {
		count, err := term.resolveCount(vars)
		if err != nil {
			return 0, err
		}
		env[termName(i)] = term.Mean(count)
	}
	for i, v := range values {
		env[varName(i)] = v
	}
	return f.run(env)
}

// TermResult is one rolled dice term
type TermResult struct {
	Term      string `json:"term"`
	Rolls     []int  `json:"rolls"`
	Successes int    `json:"successes,omitempty"`
	Value     int    `json:"value"`
}

// Result is a rolled formula
type Result struct {
	Formula string       `json:"formula"`
	Terms   []TermResult `json:"terms,omitempty"`
	Value   float64      `json:"value"`
	Total   int          `json:"total"`
}

// Roll rolls every dice term and evaluates the arithmetic. Total is floored.
func (f *Formula) Roll(roller dice.Roller, vars Vars) (*Result, error) {
	values, err := f.resolveVars(vars)
	if err != nil {
		return nil, err
	}

	env := placeholderEnv(0, 0, 0)
	result := &Result{Formula: f.src, Terms: make([]TermResult, 0, len(f.terms))}
	for i, term := range f.terms {
		count, err := term.resolveCount(vars)
		if err != nil {
			return nil, err
		}
		tr, err := term.roll(roller, count)
		if err != nil {
			return nil, dherr.Wrapf(err, "failed to roll %s", term)
		}
		result.Terms = append(result.Terms, tr)
		env[termName(i)] = float64(tr.Value)
	}
	for i, v := range values {
		env[varName(i)] = v
	}

	value, err := f.run(env)
	if err != nil {
		return nil, err
	}
	result.Value = value
	result.Total = int(math.Floor(value))
	return result, nil
}

// Evaluate parses and rolls in one step
func Evaluate(src string, roller dice.Roller, vars Vars) (*Result, error) {
	f, err := Parse(src)
	if err != nil {
		return nil, err
	}
	return f.Roll(roller, vars)
}

// Expect parses and computes the expectation in one step
func Expect(src string, vars Vars) (float64, error) {
	f, err := Parse(src)
	if err != nil {
		return 0, err
	}
	return f.Expectation(vars)
}

func (f *Formula) resolveVars(vars Vars) ([]float64, error) {
	values := make([]float64, len(f.vars))
	for i, name := range f.vars {
		v, ok := vars[name]
		if !ok {
			return nil, dherr.Authoringf("formula %q references unknown variable @%s", f.src, name).
				WithMeta("variable", name)
		}
		values[i] = v
	}
	return values, nil
}

func (f *Formula) run(env map[string]any) (float64, error) {
	out, err := expr.Run(f.program, env)
	if err != nil {
		return 0, dherr.WrapWithCode(err, dherr.CodeAuthoring, fmt.Sprintf("failed to evaluate formula %q", f.src))
	}
	switch v := out.(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, dherr.Authoringf("formula %q does not produce a finite number", f.src)
		}
		return v, nil
	case int:
		return float64(v), nil
	default:
		return 0, parseError(f.src, -1, "result is %T, not a number", out)
	}
}

func termName(i int) string { return "__d" + strconv.Itoa(i) }
func varName(i int) string  { return "__v" + strconv.Itoa(i) }

func placeholderEnv(terms, vars int, zero float64) map[string]any {
	env := make(map[string]any, terms+vars)
	for i := 0; i < terms; i++ {
		env[termName(i)] = zero
	}
	for i := 0; i < vars; i++ {
		env[varName(i)] = zero
	}
	return env
}

func compileMessage(err error) string {
	msg := err.Error()
	if idx := strings.IndexByte(msg, '\n'); idx >= 0 {
		msg = msg[:idx]
	}
	return msg
}
