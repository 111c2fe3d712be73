package excel

import (
	"goposthoc/domain/core"
)

// MatrixData is a numeric score matrix read from a spreadsheet or CSV:
// one named column per variable, one row per observation. Unparseable or
// blank cells are NaN.
type MatrixData struct {
	Variables []core.VariableKey
	Rows      [][]float64
	Source    string
}

// NumRows returns the observation count.
func (m *MatrixData) NumRows() int {
	return len(m.Rows)
}

// NumVariables returns the variable count.
func (m *MatrixData) NumVariables() int {
	return len(m.Variables)
}

// Column returns the values of one variable by index.
func (m *MatrixData) Column(idx int) []float64 {
	col := make([]float64, len(m.Rows))
	for i, row := range m.Rows {
		col[i] = row[idx]
	}
	return col
}
