package report

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
)

// ExportContentType is the MIME type for the spreadsheet download.
const ExportContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var exportHeaders = []string{"Date", "Class", "Start", "End", "Student ID", "Name", "Status", "Marked At"}

// Export serializes the report for [start, end] into an xlsx workbook and
// returns the file bytes plus a dated download filename.
func (s *Service) Export(ctx context.Context, start, end string) ([]byte, string, error) {
	rows, err := s.Rows(ctx, start, end, "")
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()
	const sheet = "Attendance"
	f.SetSheetName("Sheet1", sheet)

	for i, header := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return nil, "", err
		}
	}
	for i, r := range rows {
		values := []any{r.ClassDate, r.ClassName, r.StartTime, r.EndTime,
			r.StudentID, r.Name, r.Status, r.MarkedAt.Local().Format("2006-01-02 15:04:05")}
		for j, v := range values {
			cell, _ := excelize.CoordinatesToCellName(j+1, i+2)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, "", err
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, "", err
	}
	filename := fmt.Sprintf("attendance_%s.xlsx", time.Now().Local().Format("20060102"))
	return buf.Bytes(), filename, nil
}
