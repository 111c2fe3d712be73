package excel

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"goposthoc/domain/core"
	"goposthoc/internal"

	"github.com/xuri/excelize/v2"
)

var logger = internal.NewDefaultLogger("DataReader")

// DataReader handles reading Excel and CSV score matrices
type DataReader struct {
	filePath string
	fileType string // "xlsx" or "csv"
}

// NewDataReader creates a new data reader that handles both Excel and CSV files
func NewDataReader(filePath string) *DataReader {
	ext := strings.ToLower(filepath.Ext(filePath))
	fileType := "xlsx"
	if ext == ".csv" {
		fileType = "csv"
	}
	return &DataReader{filePath: filePath, fileType: fileType}
}

// ReadMatrix reads the score matrix from the configured file
func (r *DataReader) ReadMatrix() (*MatrixData, error) {
	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s file not found: %s", strings.ToUpper(r.fileType), r.filePath)
	}

	switch r.fileType {
	case "csv":
		return r.readCSV()
	case "xlsx":
		return r.readExcel()
	default:
		return nil, fmt.Errorf("unsupported file type: %s", r.fileType)
	}
}

// readExcel reads Sheet1 into a score matrix
func (r *DataReader) readExcel() (*MatrixData, error) {
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	// Always use Sheet1
	rows, err := f.GetRows("Sheet1")
	if err != nil {
		return nil, fmt.Errorf("failed to read Sheet1: %w", err)
	}
	logger.Info("read %d rows from %s", len(rows), r.filePath)

	return r.processRows(rows)
}

// readCSV reads CSV data into a score matrix
func (r *DataReader) readCSV() (*MatrixData, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file: %w", err)
	}
	logger.Info("read %d rows from %s", len(rows), r.filePath)

	return r.processRows(rows)
}

// processRows converts raw string rows into the numeric matrix
func (r *DataReader) processRows(rows [][]string) (*MatrixData, error) {
	if len(rows) < 2 {
		return nil, fmt.Errorf("file must have a header row and at least one data row")
	}

	headerRow := rows[0]
	variables := make([]core.VariableKey, 0, len(headerRow))
	for i, header := range headerRow {
		name := strings.TrimSpace(header)
		if name == "" {
			name = fmt.Sprintf("column_%d", i+1)
		}
		variables = append(variables, core.VariableKey(name))
	}

	data := make([][]float64, 0, len(rows)-1)
	for _, raw := range rows[1:] {
		row := make([]float64, len(variables))
		for j := range variables {
			row[j] = parseCell(raw, j)
		}
		data = append(data, row)
	}

	return &MatrixData{
		Variables: variables,
		Rows:      data,
		Source:    r.filePath,
	}, nil
}

// parseCell parses one cell to float64; blanks and non-numeric cells
// become NaN so downstream quality checks can count them as missing.
func parseCell(raw []string, idx int) float64 {
	if idx >= len(raw) {
		return math.NaN()
	}
	cell := strings.TrimSpace(raw[idx])
	if cell == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(cell, ",", ""), 64)
	if err != nil {
		return math.NaN()
	}
	return v
}
