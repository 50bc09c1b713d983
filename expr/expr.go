// Package expr evaluates predicate trees over decoded records: typed
// constants, attribute references, and boolean/comparison operators.
package expr

import (
	"github.com/pkg/errors"

	"github.com/arvinmehra/pagedb/recordmgr"
	"github.com/arvinmehra/pagedb/rmerrors"
)

// OpKind names a boolean or comparison operator.
type OpKind int

const (
	BoolNot OpKind = iota
	BoolAnd
	BoolOr
	CompEqual
	CompSmaller
)

// Expr is a node in a predicate tree. Eval produces a freshly allocated
// recordmgr.Value, never sharing storage with its operands.
type Expr interface {
	Eval(rec *recordmgr.Record, schema *recordmgr.Schema) (recordmgr.Value, error)
}

// Const evaluates to a fixed Value, independent of the record.
type Const struct {
	Value recordmgr.Value
}

func (c Const) Eval(*recordmgr.Record, *recordmgr.Schema) (recordmgr.Value, error) {
	v := c.Value
	if v.Str != nil {
		v.Str = append([]byte(nil), v.Str...)
	}
	return v, nil
}

// AttrRef evaluates by decoding one attribute of the current record.
type AttrRef struct {
	AttrIndex int
}

func (a AttrRef) Eval(rec *recordmgr.Record, schema *recordmgr.Schema) (recordmgr.Value, error) {
	return rec.GetAttr(a.AttrIndex)
}

// Op applies an operator to its evaluated arguments.
type Op struct {
	Kind OpKind
	Args []Expr
}

func (o Op) Eval(rec *recordmgr.Record, schema *recordmgr.Schema) (recordmgr.Value, error) {
	args := make([]recordmgr.Value, len(o.Args))
	for i, a := range o.Args {
		v, err := a.Eval(rec, schema)
		if err != nil {
			return recordmgr.Value{}, err
		}
		args[i] = v
	}

	switch o.Kind {
	case BoolNot:
		if len(args) != 1 {
			return recordmgr.Value{}, errors.Wrap(rmerrors.ErrUnknownOperator, "BoolNot takes exactly one argument")
		}
		if args[0].DT != recordmgr.TypeBool {
			return recordmgr.Value{}, errors.Wrap(rmerrors.ErrBooleanExprArgNotBool, "BoolNot")
		}
		return recordmgr.NewBool(!args[0].Bool), nil

	case BoolAnd, BoolOr:
		if len(args) != 2 {
			return recordmgr.Value{}, errors.Wrap(rmerrors.ErrUnknownOperator, "boolean op takes exactly two arguments")
		}
		if args[0].DT != recordmgr.TypeBool || args[1].DT != recordmgr.TypeBool {
			return recordmgr.Value{}, errors.Wrap(rmerrors.ErrBooleanExprArgNotBool, "boolean op")
		}
		if o.Kind == BoolAnd {
			return recordmgr.NewBool(args[0].Bool && args[1].Bool), nil
		}
		return recordmgr.NewBool(args[0].Bool || args[1].Bool), nil

	case CompEqual, CompSmaller:
		if len(args) != 2 {
			return recordmgr.Value{}, errors.Wrap(rmerrors.ErrUnknownOperator, "comparison takes exactly two arguments")
		}
		cmp, err := recordmgr.Compare(args[0], args[1])
		if err != nil {
			return recordmgr.Value{}, err
		}
		if o.Kind == CompEqual {
			return recordmgr.NewBool(cmp == 0), nil
		}
		return recordmgr.NewBool(cmp < 0), nil

	default:
		return recordmgr.Value{}, errors.Wrapf(rmerrors.ErrUnknownOperator, "op kind %d", o.Kind)
	}
}

// EvalAsBool evaluates e and requires the result to be a Bool,
// returning rmerrors.ErrExprNotBoolean otherwise. This is the entry
// point the scan engine uses to turn an Expr into a recordmgr.Predicate.
func EvalAsBool(e Expr, rec *recordmgr.Record, schema *recordmgr.Schema) (bool, error) {
	v, err := e.Eval(rec, schema)
	if err != nil {
		return false, err
	}
	if v.DT != recordmgr.TypeBool {
		return false, rmerrors.ErrExprNotBoolean
	}
	return v.Bool, nil
}

// AsPredicate adapts e into a recordmgr.Predicate bound to schema.
func AsPredicate(e Expr, schema *recordmgr.Schema) recordmgr.Predicate {
	if e == nil {
		return nil
	}
	return func(rec *recordmgr.Record) (bool, error) {
		return EvalAsBool(e, rec, schema)
	}
}
