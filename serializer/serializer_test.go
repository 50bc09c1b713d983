package serializer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arvinmehra/pagedb/recordmgr"
)

func testSchema(t *testing.T) *recordmgr.Schema {
	t.Helper()
	s, err := recordmgr.NewSchema([]recordmgr.AttrInfo{
		{Name: "a", DT: recordmgr.TypeInt},
		{Name: "b", DT: recordmgr.TypeString, TypeLength: 5},
	}, []int{0})
	require.NoError(t, err)
	return s
}

func TestSerializeSchema(t *testing.T) {
	s := testSchema(t)
	require.Equal(t, "Attributes[2]: a: INT, b: STRING(5) | Keys: a", SerializeSchema(s))
}

func TestSerializeRecord(t *testing.T) {
	s := testSchema(t)
	rec := recordmgr.NewRecord(s)
	require.NoError(t, rec.SetAttr(0, recordmgr.NewInt(3)))
	require.NoError(t, rec.SetAttr(1, recordmgr.NewString("hey")))

	rec.ID = recordmgr.RID{Page: 1, Slot: 2}

	got, err := SerializeRecord(rec, s)
	require.NoError(t, err)
	require.Equal(t, "RID(1,2) [a: 3, b: 'hey']", got)
}

func TestSerializeValueFormatting(t *testing.T) {
	require.Equal(t, "42", SerializeValue(recordmgr.NewInt(42)))
	require.Equal(t, "3.140000", SerializeValue(recordmgr.NewFloat(3.14)))
	require.Equal(t, "true", SerializeValue(recordmgr.NewBool(true)))
	require.Equal(t, "hello", SerializeValue(recordmgr.NewString("hello")))
}

func TestSerializeTableInfo(t *testing.T) {
	s := testSchema(t)
	info := TableInfo{Name: "people", Schema: s, NumTuples: 3}
	got := SerializeTableInfo(info)
	require.Equal(t, "TABLE people\nSchema: Attributes[2]: a: INT, b: STRING(5) | Keys: a\nTotal Tuples: 3\n", got)
}

func TestValueFromString(t *testing.T) {
	v, ok := ValueFromString("i42")
	require.True(t, ok)
	require.Equal(t, int32(42), v.Int)

	v, ok = ValueFromString("f1.5")
	require.True(t, ok)
	require.Equal(t, float32(1.5), v.Flt)

	v, ok = ValueFromString("shello")
	require.True(t, ok)
	require.Equal(t, "hello", v.StringValue())

	v, ok = ValueFromString("bt")
	require.True(t, ok)
	require.True(t, v.Bool)

	v, ok = ValueFromString("bno")
	require.True(t, ok)
	require.False(t, v.Bool)

	_, ok = ValueFromString("zunknown")
	require.False(t, ok)

	_, ok = ValueFromString("")
	require.False(t, ok)
}
