package admin

import (
	"io"
	"time"

	"Sparkle/internal/repo"

	"github.com/xuri/excelize/v2"
)

var now = time.Now

const dateLayout = "02 Jan 2006 15:04"

type sheetLayout struct {
	name    string
	headers []string
	row     func(l repo.Lead) []any
}

var sheetLayouts = []sheetLayout{
	{
		name:    "Consultancy",
		headers: []string{"ID", "Date", "Name", "Phone", "Email", "Location", "Requirement", "Status"},
		row: func(l repo.Lead) []any {
			return []any{l.ID, l.CreatedAt.Format(dateLayout), l.Name, l.PhoneNumber, l.Email, l.Location, l.Details, l.Status}
		},
	},
	{
		name:    "Partners",
		headers: []string{"ID", "Date", "Name", "Company", "Phone", "Email", "Location", "Business details", "Status"},
		row: func(l repo.Lead) []any {
			return []any{l.ID, l.CreatedAt.Format(dateLayout), l.Name, l.CompanyName, l.PhoneNumber, l.Email, l.Location, l.Details, l.Status}
		},
	},
	{
		name:    "AMC",
		headers: []string{"ID", "Date", "Client name", "Phone", "Email", "Location", "System details", "Status"},
		row: func(l repo.Lead) []any {
			return []any{l.ID, l.CreatedAt.Format(dateLayout), l.Name, l.PhoneNumber, l.Email, l.Location, l.Details, l.Status}
		},
	},
}

func workbookName() string {
	return "submissions-" + now().Format("20060102") + ".xlsx"
}

// WriteWorkbook renders one sheet per lead kind, in the same order as the dashboard.
func WriteWorkbook(w io.Writer, s Submissions) error {
	f := excelize.NewFile()
	defer f.Close()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	lists := [][]repo.Lead{s.Consultancy, s.Partner, s.AMC}
	for i, layout := range sheetLayouts {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", layout.name); err != nil {
				return err
			}
		} else if _, err := f.NewSheet(layout.name); err != nil {
			return err
		}

		header := make([]any, len(layout.headers))
		for j, h := range layout.headers {
			header[j] = h
		}
		if err := f.SetSheetRow(layout.name, "A1", &header); err != nil {
			return err
		}
		if err := f.SetRowStyle(layout.name, 1, 1, bold); err != nil {
			return err
		}

		for j, l := range lists[i] {
			cell, err := excelize.CoordinatesToCellName(1, j+2)
			if err != nil {
				return err
			}
			row := layout.row(l)
			if err := f.SetSheetRow(layout.name, cell, &row); err != nil {
				return err
			}
		}
	}
	f.SetActiveSheet(0)
	return f.Write(w)
}
