package cohort

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"radex/internal/logging"
)

// LoadOptions controls CSV parsing and annotation file naming.
type LoadOptions struct {
	// FileEnding is appended to scan names that do not already carry it.
	FileEnding string
	// AnnotationSuffix names the annotation file next to each scan.
	AnnotationSuffix string
	// SkipInvalid logs and skips malformed rows instead of aborting the load.
	SkipInvalid bool
}

var lowercase = cases.Lower(language.Und)

// FromCSV loads a collection from a CSV listing. Each row is
// <scan>,<primary-label>[,<secondary-label>]: the primary label is a
// case-insensitive token mapped to the pcr boolean, the secondary label is
// an optional integer nar grade that defaults to null when absent or
// unparseable. Scan paths resolve relative to the CSV's directory.
func FromCSV(path string, opts LoadOptions, logger *slog.Logger) (*Collection, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "cohort")

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse dataset: %w", err)
	}

	baseDir := filepath.Dir(path)
	items := make([]*Case, 0, len(records))
	for line, fields := range records {
		item, err := caseFromRow(fields, baseDir, opts)
		if err != nil {
			if opts.SkipInvalid {
				logger.Warn("skipping invalid dataset row",
					logging.Int("line", line+1),
					logging.Error(err))
				continue
			}
			return nil, fmt.Errorf("dataset row %d: %w", line+1, err)
		}
		items = append(items, item)
	}
	return NewCollection(items), nil
}

func caseFromRow(fields []string, baseDir string, opts LoadOptions) (*Case, error) {
	if len(fields) < 2 {
		return nil, fmt.Errorf("expected at least 2 fields, got %d", len(fields))
	}

	scanName := strings.TrimSpace(fields[0])
	if scanName == "" {
		return nil, fmt.Errorf("empty scan name")
	}
	if !strings.HasSuffix(scanName, opts.FileEnding) {
		scanName += opts.FileEnding
	}
	scanPath := filepath.Join(baseDir, scanName)

	scan, err := NewImageRef(scanPath)
	if err != nil {
		return nil, err
	}
	anno, err := NewImageRef(AnnotationPath(scanPath, opts.AnnotationSuffix, opts.FileEnding))
	if err != nil {
		return nil, err
	}

	labels := map[string]int{}
	if lowercase.String(strings.TrimSpace(fields[1])) == MetricPCR {
		labels[MetricPCR] = 1
	} else {
		labels[MetricPCR] = 0
	}
	if len(fields) > 2 {
		// A secondary label that does not parse stays null rather than
		// failing the row.
		if grade, err := strconv.Atoi(strings.TrimSpace(fields[2])); err == nil {
			labels[MetricNAR] = grade
		}
	}

	return NewCase(scan, anno, labels), nil
}
