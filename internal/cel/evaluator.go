package cel

import (
	"fmt"
	"math"
	"strings"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	celext "github.com/google/cel-go/ext"

	"github.com/oakwood-commons/gridx/pkg/grid"
)

// ColumnsVar is the variable a width expression reads the column count from.
const ColumnsVar = "columns"

// Evaluator compiles and evaluates CEL expressions for column widths and
// record filters.
type Evaluator struct {
	env *cel.Env
}

// NewEvaluator creates a new CEL evaluator with standard library functions.
func NewEvaluator() (*Evaluator, error) {
	env, err := newStandardCELEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}
	return &Evaluator{env: env}, nil
}

// GetEnvironment returns the CEL environment for introspection
func (e *Evaluator) GetEnvironment() *cel.Env {
	return e.env
}

// newStandardCELEnv creates a standard CEL environment with common extensions.
// Additional options can be provided to extend the environment (e.g., custom functions).
func newStandardCELEnv(opts ...cel.EnvOption) (*cel.Env, error) {
	allOpts := make([]cel.EnvOption, 0, 6+len(opts))
	allOpts = append(allOpts,
		cel.Variable("_", cel.DynType),
		cel.Variable(ColumnsVar, cel.IntType),
		celext.Strings(),
		celext.Encoders(),
		celext.Lists(),
		celext.Math(),
	)
	allOpts = append(allOpts, opts...)
	return cel.NewEnv(allOpts...)
}

func (e *Evaluator) compile(expr string) (cel.Program, *types.Type, error) {
	ast, issues := e.env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, nil, fmt.Errorf("compilation error: %w", issues.Err())
	}
	prg, err := e.env.Program(ast)
	if err != nil {
		return nil, nil, fmt.Errorf("program error: %w", err)
	}
	return prg, ast.OutputType(), nil
}

// Evaluate evaluates a CEL expression against data bound to "_".
// Example: "_.age > 30" or "_.name.startsWith('a')"
func (e *Evaluator) Evaluate(expr string, data interface{}) (interface{}, error) {
	prg, _, err := e.compile(expr)
	if err != nil {
		return nil, err
	}
	result, _, err := prg.Eval(map[string]interface{}{"_": data})
	if err != nil {
		return nil, fmt.Errorf("eval error: %w", err)
	}
	return ToGo(result), nil
}

// CompileWidth turns an expression over "columns" into a width function,
// e.g. "120 / columns" or "math.greatest(8, 90 / columns)". The expression must yield
// a number; it is trial-run for a single column so obvious failures surface
// when the table definition is loaded. A run that fails later yields zero.
func (e *Evaluator) CompileWidth(expr string) (grid.WidthFunc, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, fmt.Errorf("empty width expression")
	}
	prg, out, err := e.compile(expr)
	if err != nil {
		return nil, err
	}
	switch out.Kind() {
	case types.IntKind, types.UintKind, types.DoubleKind, types.DynKind:
	default:
		return nil, fmt.Errorf("width expression must be numeric, got %s", out)
	}

	eval := func(columnCount int) (float64, error) {
		result, _, err := prg.Eval(map[string]interface{}{ColumnsVar: int64(columnCount)})
		if err != nil {
			return 0, err
		}
		w, ok := toFloat(result)
		if !ok {
			return 0, fmt.Errorf("width expression returned %v", result.Type())
		}
		return w, nil
	}
	if w, err := eval(1); err != nil {
		return nil, fmt.Errorf("eval error: %w", err)
	} else if math.IsNaN(w) || math.IsInf(w, 0) {
		return nil, fmt.Errorf("width expression is not finite for one column")
	}

	return func(columnCount int) float64 {
		w, err := eval(columnCount)
		if err != nil {
			return 0
		}
		return w
	}, nil
}

// Filter keeps the records for which expr, with the record bound to "_",
// evaluates to true.
func (e *Evaluator) Filter(expr string, records []grid.Record) ([]grid.Record, error) {
	prg, out, err := e.compile(expr)
	if err != nil {
		return nil, err
	}
	if k := out.Kind(); k != types.BoolKind && k != types.DynKind {
		return nil, fmt.Errorf("filter expression must be boolean, got %s", out)
	}
	kept := make([]grid.Record, 0, len(records))
	for i, rec := range records {
		data := make(map[string]interface{}, len(rec))
		for k, v := range rec {
			data[string(k)] = v
		}
		result, _, err := prg.Eval(map[string]interface{}{"_": data})
		if err != nil {
			return nil, fmt.Errorf("eval error on row %d: %w", i+1, err)
		}
		if b, ok := result.(types.Bool); ok && bool(b) {
			kept = append(kept, rec)
		}
	}
	return kept, nil
}

func toFloat(val ref.Val) (float64, bool) {
	switch v := val.(type) {
	case types.Int:
		return float64(v), true
	case types.Uint:
		return float64(v), true
	case types.Double:
		return float64(v), true
	}
	return 0, false
}

// ToGo converts CEL types to Go native types recursively.
func ToGo(val ref.Val) interface{} {
	if val == nil {
		return nil
	}

	switch v := val.(type) {
	case types.Bool:
		return bool(v)
	case types.Int:
		return int64(v)
	case types.Uint:
		return uint64(v)
	case types.Double:
		return float64(v)
	case types.String:
		return string(v)
	case types.Bytes:
		return []byte(v)
	}

	if valuer, ok := val.(interface{ Value() interface{} }); ok {
		innerVal := valuer.Value()
		if refSlice, ok := innerVal.([]ref.Val); ok {
			result := make([]interface{}, len(refSlice))
			for i, elem := range refSlice {
				result[i] = ToGo(elem)
			}
			return result
		}
		return innerVal
	}
	return val
}
