package solar

import (
	"encoding/json"
	"strings"
)

// PartialInput is calculator input as it arrives from a form; any field may be missing.
type PartialInput struct {
	MonthlyBill  *float64      `json:"monthly_bill"`
	PropertyType *PropertyType `json:"property_type"`
	RoofArea     *float64      `json:"roof_area"`
}

// UnmarshalJSON drops property types outside the closed set so Validate reports them.
func (p *PartialInput) UnmarshalJSON(b []byte) error {
	var raw struct {
		MonthlyBill  *float64 `json:"monthly_bill"`
		PropertyType *string  `json:"property_type"`
		RoofArea     *float64 `json:"roof_area"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	p.MonthlyBill = raw.MonthlyBill
	p.RoofArea = raw.RoofArea
	p.PropertyType = nil
	if raw.PropertyType != nil {
		if pt, ok := ParsePropertyType(*raw.PropertyType); ok {
			p.PropertyType = &pt
		}
	}
	return nil
}

// Input converts validated partial input. Callers must run Validate first.
func (p PartialInput) Input() Input {
	in := Input{RoofArea: p.RoofArea}
	if p.MonthlyBill != nil {
		in.MonthlyBill = *p.MonthlyBill
	}
	if p.PropertyType != nil {
		in.PropertyType = *p.PropertyType
	}
	return in
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	msgs := make([]string, 0, len(v))
	for _, e := range v {
		msgs = append(msgs, e.Field+": "+e.Message)
	}
	return strings.Join(msgs, "; ")
}

// Validate checks every rule independently and returns all violations.
func Validate(in PartialInput) ValidationErrors {
	var errs ValidationErrors

	if in.MonthlyBill == nil || !(*in.MonthlyBill > 0) {
		errs = append(errs, ValidationError{
			Field:   "monthlyBill",
			Message: "Please enter a valid monthly electricity bill amount",
		})
	}
	if in.MonthlyBill != nil && *in.MonthlyBill > MaxMonthlyBill {
		errs = append(errs, ValidationError{
			Field:   "monthlyBill",
			Message: "Monthly bill seems unusually high. Please verify the amount",
		})
	}
	if in.PropertyType == nil {
		errs = append(errs, ValidationError{
			Field:   "propertyType",
			Message: "Please select a property type",
		})
	} else if _, ok := ParsePropertyType(string(*in.PropertyType)); !ok {
		errs = append(errs, ValidationError{
			Field:   "propertyType",
			Message: "Please select a property type",
		})
	}
	if in.RoofArea != nil && *in.RoofArea < 0 {
		errs = append(errs, ValidationError{
			Field:   "roofArea",
			Message: "Roof area cannot be negative",
		})
	}
	return errs
}
