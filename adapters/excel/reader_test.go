package excel

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeTempCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scores.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadMatrix_CSV(t *testing.T) {
	path := writeTempCSV(t, "pre,post,delta\n1.5,2.5,1\n2,4,2\n3,9,6\n")

	matrix, err := NewDataReader(path).ReadMatrix()
	require.NoError(t, err)

	require.Equal(t, 3, matrix.NumVariables())
	require.Equal(t, 3, matrix.NumRows())
	require.Equal(t, "pre", string(matrix.Variables[0]))
	require.Equal(t, []float64{1.5, 2, 3}, matrix.Column(0))
	require.Equal(t, []float64{2.5, 4, 9}, matrix.Column(1))
}

func TestReadMatrix_BlankAndJunkCellsBecomeNaN(t *testing.T) {
	path := writeTempCSV(t, "a,b\n1,\nxyz,2\n\"1,234\",5\n")

	matrix, err := NewDataReader(path).ReadMatrix()
	require.NoError(t, err)

	require.True(t, math.IsNaN(matrix.Rows[0][1]))
	require.True(t, math.IsNaN(matrix.Rows[1][0]))
	// Thousands separators are tolerated.
	require.Equal(t, 1234.0, matrix.Rows[2][0])
}

func TestReadMatrix_ShortRowsPadWithNaN(t *testing.T) {
	path := writeTempCSV(t, "a,b,c\n1,2\n")

	matrix, err := NewDataReader(path).ReadMatrix()
	require.NoError(t, err)
	require.True(t, math.IsNaN(matrix.Rows[0][2]))
}

func TestReadMatrix_HeaderOnlyFails(t *testing.T) {
	path := writeTempCSV(t, "a,b\n")
	_, err := NewDataReader(path).ReadMatrix()
	require.Error(t, err)
}

func TestReadMatrix_MissingFile(t *testing.T) {
	_, err := NewDataReader(filepath.Join(t.TempDir(), "nope.csv")).ReadMatrix()
	require.Error(t, err)
}

func TestReadMatrix_UnnamedColumnsGetPlaceholders(t *testing.T) {
	path := writeTempCSV(t, "a,,c\n1,2,3\n")
	matrix, err := NewDataReader(path).ReadMatrix()
	require.NoError(t, err)
	require.Equal(t, "column_2", string(matrix.Variables[1]))
}
