package solar

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fields(errs ValidationErrors) []string {
	out := make([]string, 0, len(errs))
	for _, e := range errs {
		out = append(out, e.Field)
	}
	return out
}

func TestValidateAccumulatesEveryField(t *testing.T) {
	errs := Validate(PartialInput{MonthlyBill: ptr(-5.0), RoofArea: ptr(-1.0)})

	require.Len(t, errs, 3)
	assert.ElementsMatch(t, []string{"monthlyBill", "propertyType", "roofArea"}, fields(errs))
}

func TestValidateClean(t *testing.T) {
	pt := Commercial
	errs := Validate(PartialInput{MonthlyBill: ptr(5000.0), PropertyType: &pt})
	assert.Empty(t, errs)

	errs = Validate(PartialInput{MonthlyBill: ptr(5000.0), PropertyType: &pt, RoofArea: ptr(0.0)})
	assert.Empty(t, errs)
}

func TestValidateMonthlyBill(t *testing.T) {
	pt := Residential
	cases := []struct {
		name string
		bill *float64
		want int
	}{
		{"missing", nil, 1},
		{"zero", ptr(0.0), 1},
		{"negative", ptr(-1.0), 1},
		{"nan", ptr(math.NaN()), 1},
		{"ceiling", ptr(1_000_000.0), 0},
		{"above ceiling", ptr(1_000_001.0), 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			errs := Validate(PartialInput{MonthlyBill: tc.bill, PropertyType: &pt})
			assert.Len(t, errs, tc.want)
			for _, e := range errs {
				assert.Equal(t, "monthlyBill", e.Field)
			}
		})
	}
}

func TestValidateHighBillMessage(t *testing.T) {
	pt := Industrial
	errs := Validate(PartialInput{MonthlyBill: ptr(2_000_000.0), PropertyType: &pt})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Message, "verify")
}

func TestPartialInputRejectsUnknownPropertyType(t *testing.T) {
	var in PartialInput
	require.NoError(t, json.Unmarshal([]byte(`{"monthly_bill": 5000, "property_type": "castle"}`), &in))

	assert.Nil(t, in.PropertyType)
	assert.Equal(t, []string{"propertyType"}, fields(Validate(in)))
}

func TestPartialInputParsesCaseInsensitive(t *testing.T) {
	var in PartialInput
	require.NoError(t, json.Unmarshal([]byte(`{"monthly_bill": 5000, "property_type": "Industrial", "roof_area": 250}`), &in))

	require.NotNil(t, in.PropertyType)
	assert.Equal(t, Industrial, *in.PropertyType)
	assert.Equal(t, 250.0, *in.RoofArea)
}

func TestCalculateRefusesInvalidInput(t *testing.T) {
	res, errs := Calculate(PartialInput{MonthlyBill: ptr(0.0)})
	assert.Len(t, errs, 2)
	assert.Equal(t, Result{}, res)
}

func TestValidationErrorsError(t *testing.T) {
	errs := ValidationErrors{{Field: "a", Message: "x"}, {Field: "b", Message: "y"}}
	assert.Equal(t, "a: x; b: y", errs.Error())
}
