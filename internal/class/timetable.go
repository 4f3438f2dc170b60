package class

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/imayankmani/attendance-management-system/internal/model"
)

// ImportReport summarizes a bulk timetable import.
type ImportReport struct {
	Created []model.Class `json:"created"`
	Errors  []string      `json:"errors"`
}

// ImportTimetable bulk-creates classes from a spreadsheet. The first sheet is
// read with a header row of Name, Date, Start Time, End Time. Rows that fail
// validation are collected as errors; valid rows are still applied.
func (s *Service) ImportTimetable(ctx context.Context, r io.Reader) (ImportReport, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return ImportReport{}, fmt.Errorf("%w: not a readable spreadsheet", model.ErrInvalid)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return ImportReport{}, fmt.Errorf("%w: spreadsheet has no sheets", model.ErrInvalid)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return ImportReport{}, err
	}
	if len(rows) < 2 {
		return ImportReport{}, fmt.Errorf("%w: spreadsheet has no data rows", model.ErrInvalid)
	}

	report := ImportReport{Errors: []string{}, Created: []model.Class{}}
	for i, row := range rows[1:] {
		rowNum := i + 2
		if isBlankRow(row) {
			continue
		}
		if len(row) < 4 {
			report.Errors = append(report.Errors, fmt.Sprintf("row %d: expected 4 columns (name, date, start, end)", rowNum))
			continue
		}
		cl, err := s.Create(ctx, strings.TrimSpace(row[0]), strings.TrimSpace(row[1]),
			strings.TrimSpace(row[2]), strings.TrimSpace(row[3]))
		if err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("row %d: %v", rowNum, err))
			continue
		}
		report.Created = append(report.Created, cl)
	}
	return report, nil
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
