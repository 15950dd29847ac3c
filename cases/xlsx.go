package cases

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Column headers recognized in the dataset sheet. Matching is
// case-insensitive; unknown columns are ignored.
const (
	colCase       = "case"
	colDialogue   = "dialogue"
	colEHR        = "ehr"
	colReasoning  = "reasoning"
	colConclusion = "conclusion"
)

// LoadXLSX reads a tabular case dataset from an Excel workbook. The first
// sheet is used; the first row must be a header row containing at least a
// "case" column. Rows without a case name are skipped.
func LoadXLSX(path string) (*StaticLoader, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset %s: %w", path, err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("dataset %s: no sheets", path)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read dataset %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("dataset %s: empty sheet %s", path, sheet)
	}

	// Map header names to column positions.
	cols := make(map[string]int)
	for i, h := range rows[0] {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	nameCol, ok := cols[colCase]
	if !ok {
		return nil, fmt.Errorf("dataset %s: missing %q column", path, colCase)
	}

	cell := func(row []string, col string) string {
		i, ok := cols[col]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	records := make(map[string]*Record)
	for _, row := range rows[1:] {
		if nameCol >= len(row) {
			continue
		}
		name := strings.TrimSpace(row[nameCol])
		if name == "" {
			continue
		}
		records[name] = &Record{
			Name:       name,
			Dialogue:   cell(row, colDialogue),
			EHR:        cell(row, colEHR),
			Reasoning:  cell(row, colReasoning),
			Conclusion: cell(row, colConclusion),
		}
	}

	return NewStaticLoader(records), nil
}
