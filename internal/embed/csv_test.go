package embed

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestWriteCSV(t *testing.T) {
	m := mat.NewDense(2, 2, []float64{0.5, -1, 2, 0.125})
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, m, []string{"a", "b"}))
	assert.Equal(t, "id,dim_0,dim_1\na,0.5,-1\nb,2,0.125\n", buf.String())

	buf.Reset()
	require.NoError(t, WriteCSV(&buf, m, nil))
	assert.Equal(t, "dim_0,dim_1\n0.5,-1\n2,0.125\n", buf.String())
}

func TestWriteCSV_Nil(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil, nil))
	assert.Equal(t, "\n", buf.String())
}
