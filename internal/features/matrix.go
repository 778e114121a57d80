package features

import (
	"fmt"
	"sort"

	"radex/internal/featurefilter"
)

// Matrix is a dense numeric feature matrix with named columns, one row per
// input in the order the records were given.
type Matrix struct {
	Columns []string
	Rows    [][]float64
}

// ToMatrix flattens feature records into a Matrix. Columns are the sorted
// keys of the first record; every record must carry a numeric value for each
// column. Non-numeric feature values (extractor diagnostics and the like)
// should be filtered out before conversion.
func ToMatrix(records []featurefilter.Record) (*Matrix, error) {
	if len(records) == 0 {
		return &Matrix{}, nil
	}

	columns := make([]string, 0, len(records[0]))
	for key := range records[0] {
		columns = append(columns, key)
	}
	sort.Strings(columns)

	rows := make([][]float64, len(records))
	for i, record := range records {
		row := make([]float64, len(columns))
		for j, column := range columns {
			value, ok := record[column]
			if !ok {
				return nil, fmt.Errorf("record %d missing feature %q", i, column)
			}
			number, ok := value.(float64)
			if !ok {
				return nil, fmt.Errorf("record %d feature %q is %T, want float64", i, column, value)
			}
			row[j] = number
		}
		rows[i] = row
	}
	return &Matrix{Columns: columns, Rows: rows}, nil
}

// NumericOnly drops non-numeric fields from each record, returning records
// that convert cleanly with ToMatrix.
func NumericOnly(records []featurefilter.Record) []featurefilter.Record {
	out := make([]featurefilter.Record, len(records))
	for i, record := range records {
		kept := featurefilter.Record{}
		for key, value := range record {
			if _, ok := value.(float64); ok {
				kept[key] = value
			}
		}
		out[i] = kept
	}
	return out
}
