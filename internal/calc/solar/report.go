package solar

import (
	"fmt"
	"io"
	"strings"
	"time"

	"Sparkle/internal/money"

	"github.com/phpdave11/gofpdf"
)

type ReportRequest struct {
	Customer   string       `json:"customer"`
	Location   string       `json:"location"`
	Calculator PartialInput `json:"calculator"`
}

var now = time.Now

// WriteReport renders a one-page quote with the numbers and the assumptions behind them.
func WriteReport(w io.Writer, req ReportRequest, res Result) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, "Solar System Estimate")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 11)
	if req.Customer != "" {
		pdf.Cell(0, 6, fmt.Sprintf("Prepared for: %s", req.Customer))
		pdf.Ln(6)
	}
	if req.Location != "" {
		pdf.Cell(0, 6, fmt.Sprintf("Location: %s", req.Location))
		pdf.Ln(6)
	}
	pdf.Cell(0, 6, fmt.Sprintf("Date: %s", now().Format("2006-01-02")))
	pdf.Ln(10)

	in := req.Calculator.Input()
	rows := [][2]string{
		{"Property type", string(in.PropertyType)},
		{"Monthly bill", rupees(in.MonthlyBill)},
		{"Recommended system", fmt.Sprintf("%.1f kW", res.FeasibleSystemSize)},
		{"Consumption-ideal system", fmt.Sprintf("%.1f kW", res.IdealSystemSize)},
		{"Estimated cost", rupees(res.EstimatedCost)},
		{"Annual savings", rupees(res.AnnualSavings)},
		{"Payback period", payback(res.PaybackPeriod)},
		{"CO2 reduction", fmt.Sprintf("%.1f tons/year", res.CO2Reduction)},
	}
	table(pdf, rows)

	if res.RoofLimitMessage != nil {
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "I", 10)
		pdf.MultiCell(0, 5, *res.RoofLimitMessage, "", "L", false)
	}

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Calculation Assumptions")
	pdf.Ln(9)
	pdf.SetFont("Helvetica", "", 11)
	a := res.Assumptions
	table(pdf, [][2]string{
		{"Electricity tariff", fmt.Sprintf("Rs. %g/kWh", a.ElectricityTariff)},
		{"Annual generation", fmt.Sprintf("%g kWh/kW", a.AnnualGenerationPerKW)},
		{"Space required", fmt.Sprintf("%g sq ft/kW", a.SqftPerKW)},
		{"Installed cost", rupees(a.CostPerKW) + "/kW"},
		{"Self-consumption", fmt.Sprintf("%.0f%%", a.SelfConsumptionRate*100)},
		{"Grid emission factor", fmt.Sprintf("%g kg CO2/kWh", a.CO2PerKWh)},
	})

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "", 9)
	pdf.MultiCell(0, 5, "These estimates are based on typical Indian solar installations and average conditions. "+
		"Actual results may vary based on location, weather, and system quality.", "", "L", false)

	return pdf.Output(w)
}

func table(pdf *gofpdf.Fpdf, rows [][2]string) {
	for _, row := range rows {
		pdf.CellFormat(70, 7, row[0], "1", 0, "L", false, 0, "")
		pdf.CellFormat(0, 7, row[1], "1", 1, "L", false, 0, "")
	}
}

// Core PDF fonts are cp1252, so the rupee sign is spelled out.
func rupees(v float64) string {
	return strings.Replace(money.FormatINR(v), "₹", "Rs. ", 1)
}

func payback(y Years) string {
	if y.IsInf() {
		return "Not reached"
	}
	return fmt.Sprintf("%.1f years", float64(y))
}
