package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"Sparkle/internal/calc/solar"
	"Sparkle/internal/repo"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEstimateCommand(t *testing.T) {
	cmd := estimateCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--bill", "5000", "--roof", "200"})
	require.NoError(t, cmd.Execute())

	s := out.String()
	assert.Contains(t, s, "5.7 kW")
	assert.Contains(t, s, "2.0 kW")
	assert.Contains(t, s, "₹1,00,000 (₹1.00L)")
	assert.Contains(t, s, "2,800 kWh")
	assert.Contains(t, s, "₹15,750\n")
	assert.Contains(t, s, "6.3 years")
	assert.Contains(t, s, "NOTE: Your roof area (200 sq ft)")
}

func TestEstimateCommandRejectsBadInput(t *testing.T) {
	cmd := estimateCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	cmd.SetArgs([]string{"--type", "farm"})

	require.Error(t, cmd.Execute())
	assert.Contains(t, errOut.String(), "ERRORS (2):")
	assert.Contains(t, errOut.String(), "[monthlyBill]")
	assert.Contains(t, errOut.String(), "[propertyType]")
	assert.Empty(t, out.String())
}

func TestEstimateCommandJSON(t *testing.T) {
	cmd := estimateCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"-b", "5000", "-t", "industrial", "--json"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), `"estimated_cost": 256500`)
}

func TestPrintEstimateInfinitePayback(t *testing.T) {
	var out bytes.Buffer
	res := solar.Estimate(solar.Input{MonthlyBill: 0, PropertyType: solar.Residential})
	printEstimate(&out, res)
	assert.Contains(t, out.String(), "not reached")
}

func TestPrintLeads(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, printLeads(&out, nil))
	assert.Equal(t, "no leads\n", out.String())

	out.Reset()
	require.NoError(t, printLeads(&out, []repo.Lead{{
		ID:           3,
		Status:       "new",
		Name:         "Ravi",
		CompanyName:  "Sun Co",
		PhoneNumber:  "9999999999",
		Location:     "Pune",
		ExportStatus: repo.ExportOK,
		Details:      strings.Repeat("installer ", 10),
		CreatedAt:    time.Date(2026, 2, 11, 9, 30, 0, 0, time.UTC),
	}}))
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "ID"))
	assert.Contains(t, lines[1], "Ravi (Sun Co)")
	assert.Contains(t, lines[1], "2026-02-11 09:30")
	assert.True(t, strings.HasSuffix(lines[1], "…"))
}

func TestLeadsStatusRejectsLongStatus(t *testing.T) {
	cmd := leadsStatusCmd()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SilenceUsage = true
	cmd.SetArgs([]string{"1", strings.Repeat("x", repo.MaxStatusLen+1)})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 to 32 characters")
}
