package rac

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"math"
	"strconv"

	apperrors "github.com/turtacn/RAC-Descriptors/pkg/errors"
	"github.com/turtacn/RAC-Descriptors/pkg/types/descriptor"
)

// IDColumn is the first CSV column.
const IDColumn = "molecule_id"

// Failure records a molecule dropped from a skip-and-report batch.
type Failure struct {
	Index      int
	MoleculeID string
	Err        error
}

// Table is a batch of descriptor vectors: one row per molecule, one column per
// feature label. Columns are the union of labels in first-seen order; a cell
// whose label a molecule did not produce is NaN.
type Table struct {
	Columns     []string
	MoleculeIDs []string
	Rows        [][]float64
	Failures    []Failure

	colIndex map[string]int
}

// NewTable assembles vectors into a table. ids[i] names vectors[i].
func NewTable(ids []string, vectors []FeatureVector) *Table {
	t := &Table{colIndex: make(map[string]int)}
	for _, v := range vectors {
		for _, l := range v.Labels {
			if _, ok := t.colIndex[l]; !ok {
				t.colIndex[l] = len(t.Columns)
				t.Columns = append(t.Columns, l)
			}
		}
	}
	t.Rows = make([][]float64, len(vectors))
	t.MoleculeIDs = make([]string, len(vectors))
	for i, v := range vectors {
		row := make([]float64, len(t.Columns))
		for j := range row {
			row[j] = math.NaN()
		}
		for k, l := range v.Labels {
			row[t.colIndex[l]] = v.Values[k]
		}
		t.Rows[i] = row
		if i < len(ids) {
			t.MoleculeIDs[i] = ids[i]
		}
	}
	return t
}

func (t *Table) index() map[string]int {
	if t.colIndex == nil || len(t.colIndex) != len(t.Columns) {
		t.colIndex = make(map[string]int, len(t.Columns))
		for i, c := range t.Columns {
			t.colIndex[c] = i
		}
	}
	return t.colIndex
}

// NumRows returns the number of molecules.
func (t *Table) NumRows() int { return len(t.Rows) }

// Value returns the cell at row for column label.
func (t *Table) Value(row int, label string) (float64, bool) {
	j, ok := t.index()[label]
	if !ok || row < 0 || row >= len(t.Rows) {
		return math.NaN(), false
	}
	return t.Rows[row][j], true
}

// Column returns a copy of one column.
func (t *Table) Column(label string) ([]float64, bool) {
	j, ok := t.index()[label]
	if !ok {
		return nil, false
	}
	out := make([]float64, len(t.Rows))
	for i, row := range t.Rows {
		out[i] = row[j]
	}
	return out, true
}

// NaNColumns lists, in column order, every column holding at least one NaN.
func (t *Table) NaNColumns() []string {
	var out []string
	for j, c := range t.Columns {
		for _, row := range t.Rows {
			if math.IsNaN(row[j]) {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

// WriteCSV writes a header row (molecule_id, columns...) and one record per
// molecule. NaN cells are empty.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	header := append([]string{IDColumn}, t.Columns...)
	if err := cw.Write(header); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeSerialization, "write csv header")
	}
	record := make([]string, len(header))
	for i, row := range t.Rows {
		record[0] = t.MoleculeIDs[i]
		for j, v := range row {
			if math.IsNaN(v) {
				record[j+1] = ""
				continue
			}
			record[j+1] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		if err := cw.Write(record); err != nil {
			return apperrors.Wrap(err, apperrors.ErrCodeSerialization, "write csv record")
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeSerialization, "flush csv")
	}
	return nil
}

// ReadCSV parses a table written by WriteCSV.
func ReadCSV(r io.Reader) (*Table, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeSerialization, "read csv")
	}
	if len(records) == 0 || len(records[0]) == 0 || records[0][0] != IDColumn {
		return nil, apperrors.New(apperrors.ErrCodeSerialization, "csv table must start with a molecule_id header")
	}
	t := &Table{Columns: append([]string(nil), records[0][1:]...)}
	for _, rec := range records[1:] {
		row := make([]float64, len(t.Columns))
		for j := range row {
			cell := rec[j+1]
			if cell == "" {
				row[j] = math.NaN()
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, apperrors.Wrap(err, apperrors.ErrCodeSerialization, "parse csv cell")
			}
			row[j] = v
		}
		t.MoleculeIDs = append(t.MoleculeIDs, rec[0])
		t.Rows = append(t.Rows, row)
	}
	t.index()
	return t, nil
}

type tableJSON struct {
	Columns     []string                  `json:"columns"`
	MoleculeIDs []string                  `json:"molecule_ids"`
	Rows        [][]*float64              `json:"rows"`
	Failures    []descriptor.BatchFailure `json:"failures,omitempty"`
}

// WriteJSON encodes the table with NaN cells as null.
func (t *Table) WriteJSON(w io.Writer) error {
	doc := tableJSON{
		Columns:     t.Columns,
		MoleculeIDs: t.MoleculeIDs,
		Rows:        make([][]*float64, len(t.Rows)),
		Failures:    t.BatchFailures(),
	}
	for i, row := range t.Rows {
		doc.Rows[i] = descriptor.NullableFloats(row)
	}
	if err := json.NewEncoder(w).Encode(doc); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeSerialization, "encode table")
	}
	return nil
}

// ReadJSON decodes a table written by WriteJSON. Failure causes come back as
// plain messages.
func ReadJSON(r io.Reader) (*Table, error) {
	var doc tableJSON
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeSerialization, "decode table")
	}
	t := &Table{Columns: doc.Columns, MoleculeIDs: doc.MoleculeIDs}
	for _, cells := range doc.Rows {
		row := make([]float64, len(doc.Columns))
		for j := range row {
			if j < len(cells) && cells[j] != nil {
				row[j] = *cells[j]
			} else {
				row[j] = math.NaN()
			}
		}
		t.Rows = append(t.Rows, row)
	}
	for _, f := range doc.Failures {
		t.Failures = append(t.Failures, Failure{
			Index:      f.Index,
			MoleculeID: f.MoleculeID,
			Err:        apperrors.New(apperrors.ErrorCode(f.Code), f.Error),
		})
	}
	t.index()
	return t, nil
}

// BatchFailures renders Failures in wire form.
func (t *Table) BatchFailures() []descriptor.BatchFailure {
	if len(t.Failures) == 0 {
		return nil
	}
	out := make([]descriptor.BatchFailure, len(t.Failures))
	for i, f := range t.Failures {
		out[i] = descriptor.BatchFailure{
			Index:      f.Index,
			MoleculeID: f.MoleculeID,
			Code:       string(apperrors.GetCode(f.Err)),
			Error:      f.Err.Error(),
		}
	}
	return out
}

// NullableRows returns the rows with NaN cells as nil.
func (t *Table) NullableRows() [][]*float64 {
	out := make([][]*float64, len(t.Rows))
	for i, row := range t.Rows {
		out[i] = descriptor.NullableFloats(row)
	}
	return out
}
