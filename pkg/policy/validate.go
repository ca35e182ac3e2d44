package policy

import (
	"fmt"
)

// Validate checks the invariants of a raw, wire-shaped policy and returns a
// Policy with canonicalized restrictions, or the first Error/
// UnsupportedRestrictionError encountered. The analyzer refuses to run
// against anything that fails here.
func Validate(raw RawPolicy) (*Policy, error) {
	pol := &Policy{}
	for _, rt := range raw.Tables {
		if rt.TableName == "" {
			return nil, newError("", "", "", "policy table has an empty name")
		}
		if len(rt.Columns) == 0 {
			return nil, newError(rt.TableName, "", "", fmt.Sprintf("table %q has an empty column list", rt.TableName))
		}

		table := Table{Name: rt.TableName, Columns: rt.Columns}

		for _, rr := range rt.Restrictions {
			restriction, err := validateRestriction(rt.TableName, table, rr)
			if err != nil {
				return nil, err
			}
			table.Restrictions = append(table.Restrictions, restriction)
		}

		pol.Tables = append(pol.Tables, table)
	}
	return pol, nil
}

func validateRestriction(tableName string, table Table, rr RawRestriction) (Restriction, error) {
	if !table.HasColumn(rr.Column) {
		return Restriction{}, newError(tableName, rr.Column, rr.Operation,
			fmt.Sprintf("table %q: restriction column %q is not in the allowed column list", tableName, rr.Column))
	}

	op := Op(rr.Operation)
	switch op {
	case OpEq, OpLt, OpGt, OpLe, OpGe:
		if rr.Value == nil || len(rr.Values) != 0 {
			return Restriction{}, newError(tableName, rr.Column, rr.Operation,
				fmt.Sprintf("table %q column %q: operation %q requires exactly one value", tableName, rr.Column, rr.Operation))
		}
		if op != OpEq && !isNumeric(rr.Value) {
			return Restriction{}, newError(tableName, rr.Column, rr.Operation,
				fmt.Sprintf("table %q column %q: operation %q requires a numeric value", tableName, rr.Column, rr.Operation))
		}
		return Restriction{Column: rr.Column, Op: op, Value: rr.Value}, nil

	case OpBetween:
		if len(rr.Values) != 2 {
			return Restriction{}, newError(tableName, rr.Column, rr.Operation,
				fmt.Sprintf("table %q column %q: BETWEEN requires exactly two values", tableName, rr.Column))
		}
		lo, hi := rr.Values[0], rr.Values[1]
		if !isNumeric(lo) || !isNumeric(hi) {
			return Restriction{}, newError(tableName, rr.Column, rr.Operation,
				fmt.Sprintf("table %q column %q: BETWEEN values must be numeric", tableName, rr.Column))
		}
		if !(numericLess(lo, hi)) {
			return Restriction{}, newError(tableName, rr.Column, rr.Operation,
				fmt.Sprintf("table %q column %q: BETWEEN requires values[0] < values[1]", tableName, rr.Column))
		}
		return Restriction{Column: rr.Column, Op: op, Low: lo, High: hi}, nil

	case OpIn:
		if len(rr.Values) == 0 {
			return Restriction{}, newError(tableName, rr.Column, rr.Operation,
				fmt.Sprintf("table %q column %q: IN requires a non-empty value list", tableName, rr.Column))
		}
		if !sharesPrimitiveType(rr.Values) {
			return Restriction{}, newError(tableName, rr.Column, rr.Operation,
				fmt.Sprintf("table %q column %q: IN values must share a single primitive type", tableName, rr.Column))
		}
		return Restriction{Column: rr.Column, Op: op, Values: rr.Values}, nil

	default:
		return Restriction{}, &UnsupportedRestrictionError{Table: tableName, Column: rr.Column, Operation: rr.Operation}
	}
}

func isNumeric(v any) bool {
	switch v.(type) {
	case int, int32, int64, float32, float64:
		return true
	default:
		return false
	}
}

func numericLess(a, b any) bool {
	return toFloat(a) < toFloat(b)
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case float32:
		return float64(n)
	case float64:
		return n
	default:
		return 0
	}
}

// sharesPrimitiveType reports whether every value is an integer, every value
// is a float, or every value is a string — IN does not allow mixed kinds.
func sharesPrimitiveType(values []any) bool {
	kindOf := func(v any) int {
		switch v.(type) {
		case int, int32, int64:
			return 0
		case float32, float64:
			return 1
		case string:
			return 2
		default:
			return -1
		}
	}
	first := kindOf(values[0])
	if first == -1 {
		return false
	}
	for _, v := range values[1:] {
		if kindOf(v) != first {
			return false
		}
	}
	return true
}
