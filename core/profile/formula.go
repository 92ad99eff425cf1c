package profile

import (
	"errors"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"math"
	"slices"
	"strconv"

	"github.com/huangsam/streamscore/core/curve"
	"github.com/huangsam/streamscore/schema"
)

// Formula is a parsed, checked arithmetic expression.
type Formula struct {
	src  string
	root ast.Expr
	vars []string
}

type mathFunc struct {
	arity int // -1 for variadic, at least one argument
	fn    func(args []float64) float64
}

var mathFuncs = map[string]mathFunc{
	"min":   {-1, func(a []float64) float64 { return slices.Min(a) }},
	"max":   {-1, func(a []float64) float64 { return slices.Max(a) }},
	"abs":   {1, func(a []float64) float64 { return math.Abs(a[0]) }},
	"sqrt":  {1, func(a []float64) float64 { return math.Sqrt(a[0]) }},
	"pow":   {2, func(a []float64) float64 { return math.Pow(a[0], a[1]) }},
	"ln":    {1, func(a []float64) float64 { return math.Log(a[0]) }},
	"log10": {1, func(a []float64) float64 { return math.Log10(a[0]) }},
	"exp":   {1, func(a []float64) float64 { return math.Exp(a[0]) }},
}

// ParseFormula parses src and rejects anything beyond arithmetic over identifiers,
// numeric literals and the supported math functions.
func ParseFormula(src string) (*Formula, error) {
	root, err := parser.ParseExpr(src)
	if err != nil {
		return nil, &schema.EvaluationError{Subject: "formula " + strconv.Quote(src), Reason: "cannot parse", Err: err}
	}
	f := &Formula{src: src, root: root}
	if err := f.check(root); err != nil {
		return nil, &schema.EvaluationError{Subject: "formula " + strconv.Quote(src), Reason: err.Error()}
	}
	slices.Sort(f.vars)
	f.vars = slices.Compact(f.vars)
	return f, nil
}

// Vars lists the variables the expression references, sorted.
func (f *Formula) Vars() []string {
	return slices.Clone(f.vars)
}

func (f *Formula) check(e ast.Expr) error {
	switch n := e.(type) {
	case *ast.BasicLit:
		if n.Kind != token.INT && n.Kind != token.FLOAT {
			return fmt.Errorf("unsupported literal %s", n.Value)
		}
		if _, err := strconv.ParseFloat(n.Value, 64); err != nil {
			return fmt.Errorf("unsupported literal %s", n.Value)
		}
		return nil
	case *ast.Ident:
		f.vars = append(f.vars, n.Name)
		return nil
	case *ast.ParenExpr:
		return f.check(n.X)
	case *ast.UnaryExpr:
		if n.Op != token.ADD && n.Op != token.SUB {
			return fmt.Errorf("unsupported operator %s", n.Op)
		}
		return f.check(n.X)
	case *ast.BinaryExpr:
		switch n.Op {
		case token.ADD, token.SUB, token.MUL, token.QUO:
		default:
			return fmt.Errorf("unsupported operator %s", n.Op)
		}
		if err := f.check(n.X); err != nil {
			return err
		}
		return f.check(n.Y)
	case *ast.CallExpr:
		id, ok := n.Fun.(*ast.Ident)
		if !ok {
			return errors.New("unsupported call")
		}
		mf, ok := mathFuncs[id.Name]
		if !ok {
			return fmt.Errorf("unknown function %s", id.Name)
		}
		if n.Ellipsis.IsValid() {
			return fmt.Errorf("unsupported variadic call to %s", id.Name)
		}
		if (mf.arity < 0 && len(n.Args) == 0) || (mf.arity >= 0 && len(n.Args) != mf.arity) {
			return fmt.Errorf("%s called with %d arguments", id.Name, len(n.Args))
		}
		for _, a := range n.Args {
			if err := f.check(a); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("unsupported expression %T", e)
	}
}

// Eval evaluates the formula. A referenced variable missing from vars is an EvaluationError.
func (f *Formula) Eval(vars map[string]float64) (float64, error) {
	return f.eval(f.root, vars)
}

func (f *Formula) eval(e ast.Expr, vars map[string]float64) (float64, error) {
	switch n := e.(type) {
	case *ast.BasicLit:
		return strconv.ParseFloat(n.Value, 64)
	case *ast.Ident:
		v, ok := vars[n.Name]
		if !ok {
			return 0, &schema.EvaluationError{Subject: "formula " + strconv.Quote(f.src), Reason: fmt.Sprintf("undefined variable %q", n.Name)}
		}
		return v, nil
	case *ast.ParenExpr:
		return f.eval(n.X, vars)
	case *ast.UnaryExpr:
		v, err := f.eval(n.X, vars)
		if err != nil {
			return 0, err
		}
		if n.Op == token.SUB {
			return -v, nil
		}
		return v, nil
	case *ast.BinaryExpr:
		x, err := f.eval(n.X, vars)
		if err != nil {
			return 0, err
		}
		y, err := f.eval(n.Y, vars)
		if err != nil {
			return 0, err
		}
		switch n.Op {
		case token.ADD:
			return x + y, nil
		case token.SUB:
			return x - y, nil
		case token.MUL:
			return x * y, nil
		default:
			return x / y, nil
		}
	case *ast.CallExpr:
		id := n.Fun.(*ast.Ident)
		args := make([]float64, len(n.Args))
		for i, a := range n.Args {
			v, err := f.eval(a, vars)
			if err != nil {
				return 0, err
			}
			args[i] = v
		}
		return mathFuncs[id.Name].fn(args), nil
	}
	return 0, &schema.EvaluationError{Subject: "formula " + strconv.Quote(f.src), Reason: fmt.Sprintf("unsupported expression %T", e)}
}

// formulaVars binds an observation to the rubric's variables. A bare number binds
// to the only declared variable; declared defaults fill whatever was not observed.
func formulaVars(r *schema.FormulaRubric, obs schema.Observation) map[string]float64 {
	vars := make(map[string]float64, len(r.Defaults)+len(obs.Vars))
	for k, v := range r.Defaults {
		vars[k] = v
	}
	if len(r.Variables) == 1 {
		if v, ok := obs.Number(); ok {
			vars[r.Variables[0]] = v
		}
	}
	for k, v := range obs.Vars {
		vars[k] = v
	}
	return vars
}

func evalFormula(r *schema.FormulaRubric, obs schema.Observation, env Env) (float64, schema.Explanation, error) {
	if r == nil {
		return 0, schema.Explanation{}, missingRubric(schema.FormulaScoring)
	}
	f, err := ParseFormula(r.Expression)
	if err != nil {
		return 0, schema.Explanation{}, err
	}
	expl := schema.Explanation{Rule: r.Expression}
	if len(r.Variables) > 0 {
		for _, v := range f.vars {
			if !slices.Contains(r.Variables, v) {
				return 0, expl, &schema.EvaluationError{Subject: "formula " + strconv.Quote(r.Expression), Reason: fmt.Sprintf("undefined variable %q", v)}
			}
		}
	}
	if _, ok := obs.Number(); !ok && len(obs.Vars) == 0 {
		return 0, expl, schema.Insufficient("formula "+strconv.Quote(r.Expression), "observation %q supplies no variables", obs.String())
	}
	raw, err := f.Eval(formulaVars(r, obs))
	if err != nil {
		return 0, expl, err
	}
	if math.IsNaN(raw) || math.IsInf(raw, 0) {
		return 0, expl, schema.Insufficient("formula "+strconv.Quote(r.Expression), "result is not finite")
	}
	expl.Detail = "raw " + strconv.FormatFloat(raw, 'g', 6, 64)
	score, err := mapOutput(r.Output, raw, env, &expl)
	if err != nil {
		return 0, expl, err
	}
	return score, expl, nil
}

func mapOutput(m *schema.OutputMapping, raw float64, env Env, expl *schema.Explanation) (float64, error) {
	if m == nil {
		return raw, nil
	}
	switch m.Type {
	case schema.LinearMapping:
		if m.Max == m.Min {
			return 0, &schema.EvaluationError{Subject: "formula output", Reason: "linear mapping has an empty range"}
		}
		return (raw - m.Min) / (m.Max - m.Min), nil
	case schema.CurveMapping:
		c, err := resolveCurve(env, []string{m.CurveID}, m.CurveID)
		if err != nil {
			return 0, err
		}
		cm, err := curve.Explain(c, env.LayerID, schema.NumberObservation(raw))
		if err != nil {
			return 0, err
		}
		expl.Curve = &cm
		return cm.Score, nil
	case schema.BandsMapping:
		i, ok := findBand(m.Bands, raw)
		if !ok {
			return 0, schema.Insufficient("formula output", "%g is outside every band", raw)
		}
		expl.Detail += ", " + bandName(m.Bands[i], i)
		return bandScore(m.Bands, i, schema.Increasing, "", env)
	default:
		return 0, &schema.EvaluationError{Subject: "formula output", Reason: fmt.Sprintf("unknown mapping %q", m.Type)}
	}
}
