// Package matrixio reads and writes matrices, solver results and resume
// checkpoints for the nearcorr command.
//
// Formats are chosen by file extension:
//
//	.json       {"rows": [[...], ...]}
//	.yaml .yml  rows: [[...], ...]
//	.csv        one matrix row per line, no header
package matrixio

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/katalvlaran/nearcorr/matrix"
)

// Format identifies an on-disk encoding.
type Format string

// Supported formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatCSV  Format = "csv"
)

var (
	// ErrUnknownFormat is returned for an unrecognized file extension.
	ErrUnknownFormat = errors.New("matrixio: unknown format")

	// ErrEmpty is returned when a document holds no rows.
	ErrEmpty = errors.New("matrixio: no rows")
)

// FormatOf maps a path's extension to a Format.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".csv":
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("%q: %w", path, ErrUnknownFormat)
	}
}

// document is the JSON/YAML shape of a matrix. Null entries decode to nil.
type document struct {
	Rows [][]*float64 `json:"rows" yaml:"rows"`
}

// ReadMatrix loads a finite matrix from path.
func ReadMatrix(path string) (*matrix.Dense, error) {
	f, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("matrixio: %w", err)
	}

	return DecodeMatrix(bytes.NewReader(data), f)
}

// DecodeMatrix reads a finite matrix. Missing values are rejected.
func DecodeMatrix(r io.Reader, f Format) (*matrix.Dense, error) {
	rows, err := decodeRows(r, f)
	if err != nil {
		return nil, err
	}
	m, err := matrix.NewDenseFromRows(rows)
	if err != nil {
		return nil, fmt.Errorf("matrixio: %w", err)
	}

	return m, nil
}

// ReadSamples loads an observation table from path. Missing values (JSON
// null, empty or "NA" CSV fields, NaN) are kept as NaN for
// matrix.PairwiseCorrelation.
func ReadSamples(path string) (*matrix.Dense, error) {
	f, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("matrixio: %w", err)
	}

	return DecodeSamples(bytes.NewReader(data), f)
}

// DecodeSamples is ReadSamples over a reader.
func DecodeSamples(r io.Reader, f Format) (*matrix.Dense, error) {
	rows, err := decodeRows(r, f)
	if err != nil {
		return nil, err
	}
	m, err := matrix.NewDenseFromRows(rows, matrix.WithNoValidateNaNInf())
	if err != nil {
		return nil, fmt.Errorf("matrixio: %w", err)
	}

	return m, nil
}

func decodeRows(r io.Reader, f Format) ([][]float64, error) {
	switch f {
	case FormatJSON:
		var doc document
		if err := json.NewDecoder(r).Decode(&doc); err != nil {
			return nil, fmt.Errorf("matrixio: json: %w", err)
		}

		return fromDocument(doc)
	case FormatYAML:
		var doc document
		if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
			if errors.Is(err, io.EOF) {
				return nil, ErrEmpty
			}

			return nil, fmt.Errorf("matrixio: yaml: %w", err)
		}

		return fromDocument(doc)
	case FormatCSV:
		return decodeCSV(r)
	default:
		return nil, fmt.Errorf("%q: %w", f, ErrUnknownFormat)
	}
}

func fromDocument(doc document) ([][]float64, error) {
	if len(doc.Rows) == 0 {
		return nil, ErrEmpty
	}
	rows := make([][]float64, len(doc.Rows))
	for i, row := range doc.Rows {
		rows[i] = make([]float64, len(row))
		for j, v := range row {
			if v == nil {
				rows[i][j] = math.NaN()
				continue
			}
			rows[i][j] = *v
		}
	}

	return rows, nil
}

func decodeCSV(r io.Reader) ([][]float64, error) {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1 // ragged rows are reported by matrix.NewDenseFromRows

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("matrixio: csv: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrEmpty
	}

	rows := make([][]float64, len(records))
	for i, rec := range records {
		rows[i] = make([]float64, len(rec))
		for j, field := range rec {
			field = strings.TrimSpace(field)
			if field == "" || strings.EqualFold(field, "na") {
				rows[i][j] = math.NaN()
				continue
			}
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("matrixio: csv line %d field %d: %w", i+1, j+1, err)
			}
			rows[i][j] = v
		}
	}

	return rows, nil
}

// Result is the on-disk form of a converged solve.
type Result struct {
	Iterations int         `json:"iterations" yaml:"iterations"`
	Rows       [][]float64 `json:"rows" yaml:"rows"`
}

// WriteResult writes res to path in the format implied by its extension.
func WriteResult(path string, res Result) error {
	f, err := FormatOf(path)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err = EncodeResult(&buf, res, f); err != nil {
		return err
	}
	if err = os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("matrixio: %w", err)
	}

	return nil
}

// EncodeResult writes res to w. CSV output carries only the matrix rows.
func EncodeResult(w io.Writer, res Result, f Format) error {
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			return fmt.Errorf("matrixio: json: %w", err)
		}
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(res); err != nil {
			return fmt.Errorf("matrixio: yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("matrixio: yaml: %w", err)
		}
	case FormatCSV:
		cw := csv.NewWriter(w)
		for _, row := range res.Rows {
			rec := make([]string, len(row))
			for j, v := range row {
				rec[j] = strconv.FormatFloat(v, 'g', -1, 64)
			}
			if err := cw.Write(rec); err != nil {
				return fmt.Errorf("matrixio: csv: %w", err)
			}
		}
		cw.Flush()
		if err := cw.Error(); err != nil {
			return fmt.Errorf("matrixio: csv: %w", err)
		}
	default:
		return fmt.Errorf("%q: %w", f, ErrUnknownFormat)
	}

	return nil
}
