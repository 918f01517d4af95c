package table

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithColumn_AppendsWithoutMutating(t *testing.T) {
	tb := New("a", "b")
	require.NoError(t, tb.Append(Text("1"), Text("2")))
	require.NoError(t, tb.Append(Text("3"), Null()))

	out, err := tb.WithColumn("c", []Cell{Text("x"), Null()})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, tb.Columns)
	assert.Len(t, tb.Rows[0], 2)
	assert.Equal(t, []string{"a", "b", "c"}, out.Columns)
	assert.Equal(t, Text("x"), out.Rows[0][2])
	assert.False(t, out.Rows[1][2].Valid)
}

func TestWithColumn_ReplacesExisting(t *testing.T) {
	tb := New("a")
	require.NoError(t, tb.Append(Text("1")))
	out, err := tb.WithColumn("a", []Cell{Text("2")})
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, out.Columns)
	assert.Equal(t, "2", out.Rows[0][0].Value)
	assert.Equal(t, "1", tb.Rows[0][0].Value)
}

func TestWithColumn_LengthMismatch(t *testing.T) {
	tb := New("a")
	require.NoError(t, tb.Append(Text("1")))
	_, err := tb.WithColumn("b", nil)
	assert.Error(t, err)
}

func TestColumn_Missing(t *testing.T) {
	_, err := New("a").Column("nope")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoColumn))
}

func TestAppend_WrongWidth(t *testing.T) {
	assert.Error(t, New("a", "b").Append(Text("1")))
}

func TestCSV_NullsAndQuoting(t *testing.T) {
	in := "id,Assessment\n1,\"Pt stable, afebrile\"\n2,\n"
	tb, err := ReadCSV(strings.NewReader(in))
	require.NoError(t, err)
	require.Equal(t, 2, tb.Len())
	assert.Equal(t, Text("Pt stable, afebrile"), tb.Rows[0][1])
	assert.False(t, tb.Rows[1][1].Valid)

	var buf bytes.Buffer
	require.NoError(t, tb.WriteCSV(&buf))
	assert.Equal(t, in, buf.String())
}

func TestCSV_Empty(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""))
	assert.Error(t, err)
}
