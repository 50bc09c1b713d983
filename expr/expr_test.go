package expr

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arvinmehra/pagedb/config"
	"github.com/arvinmehra/pagedb/recordmgr"
	"github.com/arvinmehra/pagedb/rmerrors"
)

func testSchema(t *testing.T) *recordmgr.Schema {
	t.Helper()
	s, err := recordmgr.NewSchema([]recordmgr.AttrInfo{
		{Name: "age", DT: recordmgr.TypeInt},
		{Name: "active", DT: recordmgr.TypeBool},
	}, nil)
	require.NoError(t, err)
	return s
}

func testRecord(t *testing.T, s *recordmgr.Schema, age int32, active bool) *recordmgr.Record {
	t.Helper()
	r := recordmgr.NewRecord(s)
	require.NoError(t, r.SetAttr(0, recordmgr.NewInt(age)))
	require.NoError(t, r.SetAttr(1, recordmgr.NewBool(active)))
	return r
}

func TestConstEval(t *testing.T) {
	s := testSchema(t)
	rec := testRecord(t, s, 10, true)

	v, err := Const{Value: recordmgr.NewInt(7)}.Eval(rec, s)
	require.NoError(t, err)
	require.Equal(t, int32(7), v.Int)
}

func TestAttrRefEval(t *testing.T) {
	s := testSchema(t)
	rec := testRecord(t, s, 21, false)

	v, err := AttrRef{AttrIndex: 0}.Eval(rec, s)
	require.NoError(t, err)
	require.Equal(t, int32(21), v.Int)
}

func TestCompSmallerAndEqual(t *testing.T) {
	s := testSchema(t)
	rec := testRecord(t, s, 21, false)

	e := Op{Kind: CompSmaller, Args: []Expr{AttrRef{AttrIndex: 0}, Const{Value: recordmgr.NewInt(30)}}}
	ok, err := EvalAsBool(e, rec, s)
	require.NoError(t, err)
	require.True(t, ok)

	e2 := Op{Kind: CompEqual, Args: []Expr{AttrRef{AttrIndex: 0}, Const{Value: recordmgr.NewInt(21)}}}
	ok2, err := EvalAsBool(e2, rec, s)
	require.NoError(t, err)
	require.True(t, ok2)
}

func TestBoolAndOrNot(t *testing.T) {
	s := testSchema(t)
	rec := testRecord(t, s, 21, true)

	notExpr := Op{Kind: BoolNot, Args: []Expr{AttrRef{AttrIndex: 1}}}
	ok, err := EvalAsBool(notExpr, rec, s)
	require.NoError(t, err)
	require.False(t, ok)

	andExpr := Op{Kind: BoolAnd, Args: []Expr{
		AttrRef{AttrIndex: 1},
		Const{Value: recordmgr.NewBool(true)},
	}}
	ok, err = EvalAsBool(andExpr, rec, s)
	require.NoError(t, err)
	require.True(t, ok)

	orExpr := Op{Kind: BoolOr, Args: []Expr{
		Const{Value: recordmgr.NewBool(false)},
		Const{Value: recordmgr.NewBool(false)},
	}}
	ok, err = EvalAsBool(orExpr, rec, s)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestTypeMismatchOnComparison(t *testing.T) {
	s := testSchema(t)
	rec := testRecord(t, s, 21, true)

	e := Op{Kind: CompEqual, Args: []Expr{AttrRef{AttrIndex: 0}, AttrRef{AttrIndex: 1}}}
	_, err := e.Eval(rec, s)
	require.ErrorIs(t, err, rmerrors.ErrCompareDifferentTypes)
}

func TestBooleanOpRejectsNonBool(t *testing.T) {
	s := testSchema(t)
	rec := testRecord(t, s, 21, true)

	e := Op{Kind: BoolNot, Args: []Expr{AttrRef{AttrIndex: 0}}}
	_, err := e.Eval(rec, s)
	require.ErrorIs(t, err, rmerrors.ErrBooleanExprArgNotBool)
}

func TestEvalAsBoolRejectsNonBoolResult(t *testing.T) {
	s := testSchema(t)
	rec := testRecord(t, s, 21, true)

	_, err := EvalAsBool(AttrRef{AttrIndex: 0}, rec, s)
	require.ErrorIs(t, err, rmerrors.ErrExprNotBoolean)
}

func TestAsPredicateNilExpr(t *testing.T) {
	s := testSchema(t)
	require.Nil(t, AsPredicate(nil, s))
}

func TestScanSurfacesMismatchedPredicateTypes(t *testing.T) {
	s := testSchema(t)
	tbl, err := recordmgr.OpenEphemeral(t.Name(), s, config.Config{BufferPoolCap: 10})
	require.NoError(t, err)
	defer tbl.CloseTable()

	_, err = tbl.InsertRecord(testRecord(t, s, 1, true))
	require.NoError(t, err)

	bad := Op{Kind: CompEqual, Args: []Expr{
		Const{Value: recordmgr.NewInt(3)},
		Const{Value: recordmgr.NewString("x")},
	}}
	scan := recordmgr.StartScan(tbl, AsPredicate(bad, s))
	defer scan.Close()

	_, _, err = scan.Next()
	require.ErrorIs(t, err, rmerrors.ErrCompareDifferentTypes)
}
