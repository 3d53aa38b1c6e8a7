package main

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"text/tabwriter"

	"Sparkle/internal/calc/solar"
	"Sparkle/internal/money"
	"Sparkle/internal/repo"
)

func printValidationErrors(w io.Writer, errs solar.ValidationErrors) {
	fmt.Fprintf(w, "ERRORS (%d):\n", len(errs))
	for _, e := range errs {
		fmt.Fprintf(w, "  [%s] %s\n", e.Field, e.Message)
	}
}

func kw(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64) + " kW"
}

// rupees adds the short lakh/crore form to amounts of a lakh or more.
func rupees(v float64) string {
	full, short := money.FormatINR(v), money.FormatINRCompact(v)
	if full == short {
		return full
	}
	return full + " (" + short + ")"
}

func printEstimate(w io.Writer, r solar.Result) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Ideal system size:\t%s\n", kw(r.IdealSystemSize))
	fmt.Fprintf(tw, "Recommended size:\t%s\n", kw(r.FeasibleSystemSize))
	fmt.Fprintf(tw, "Estimated cost:\t%s\n", rupees(r.EstimatedCost))
	fmt.Fprintf(tw, "Annual savings:\t%s\n", money.FormatINR(r.AnnualSavings))
	if r.PaybackPeriod.IsInf() {
		fmt.Fprintf(tw, "Payback period:\tnot reached\n")
	} else {
		fmt.Fprintf(tw, "Payback period:\t%.1f years\n", float64(r.PaybackPeriod))
	}
	fmt.Fprintf(tw, "Annual generation:\t%s kWh\n",
		money.FormatNumber(math.Round(r.FeasibleSystemSize*r.Assumptions.AnnualGenerationPerKW)))
	fmt.Fprintf(tw, "CO2 reduction:\t%.1f tonnes/year\n", r.CO2Reduction)
	tw.Flush()

	if r.RoofLimitMessage != nil {
		fmt.Fprintf(w, "\nNOTE: %s\n", *r.RoofLimitMessage)
	}
	a := r.Assumptions
	fmt.Fprintf(w, "\nAssumes ₹%g/kWh, %g kWh per kW per year, %g sq ft per kW, %s per kW, %g%% self-consumption.\n",
		a.ElectricityTariff, a.AnnualGenerationPerKW, a.SqftPerKW, money.FormatINR(a.CostPerKW), a.SelfConsumptionRate*100)
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > n {
		return string(r[:n-1]) + "…"
	}
	return s
}

func printLeads(w io.Writer, leads []repo.Lead) error {
	if len(leads) == 0 {
		_, err := fmt.Fprintln(w, "no leads")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tSTATUS\tNAME\tPHONE\tLOCATION\tEXPORT\tDETAILS")
	for _, l := range leads {
		name := l.Name
		if l.CompanyName != "" {
			name += " (" + l.CompanyName + ")"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			l.ID, l.CreatedAt.Format("2006-01-02 15:04"), l.Status, name, l.PhoneNumber, l.Location,
			l.ExportStatus, truncate(l.Details, 40))
	}
	return tw.Flush()
}
