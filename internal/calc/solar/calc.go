package solar

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

type Input struct {
	MonthlyBill  float64      `json:"monthly_bill"` // INR
	PropertyType PropertyType `json:"property_type"`
	RoofArea     *float64     `json:"roof_area,omitempty"` // sq ft, nil means unconstrained
}

type Result struct {
	IdealSystemSize    float64     `json:"ideal_system_size"`    // kW
	FeasibleSystemSize float64     `json:"feasible_system_size"` // kW
	IsRoofLimited      bool        `json:"is_roof_limited"`
	RoofLimitMessage   *string     `json:"roof_limit_message,omitempty"`
	EstimatedCost      float64     `json:"estimated_cost"`  // INR
	AnnualSavings      float64     `json:"annual_savings"`  // INR
	PaybackPeriod      Years       `json:"payback_period"`  // years
	CO2Reduction       float64     `json:"co2_reduction"`   // tons per year
	Assumptions        Assumptions `json:"assumptions"`
}

// Years is a duration in years. An infinite value is encoded as the JSON string "Infinity".
type Years float64

func (y Years) IsInf() bool { return math.IsInf(float64(y), 1) }

func (y Years) MarshalJSON() ([]byte, error) {
	if y.IsInf() {
		return []byte(`"Infinity"`), nil
	}
	return json.Marshal(float64(y))
}

func (y *Years) UnmarshalJSON(b []byte) error {
	if string(b) == `"Infinity"` {
		*y = Years(math.Inf(1))
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return fmt.Errorf("payback period: %w", err)
	}
	*y = Years(f)
	return nil
}

// Estimate sizes a system from the monthly bill and optional roof area.
// Sizes are rounded to one decimal before they feed cost, savings and generation.
// Money and payback are rounded only on output; payback divides the unrounded savings.
func Estimate(in Input) Result {
	a := AssumptionsFor(in.PropertyType)

	annualBill := in.MonthlyBill * 12
	annualConsumption := annualBill / a.ElectricityTariff // kWh
	ideal := annualConsumption / a.AnnualGenerationPerKW

	feasible := ideal
	limited := false
	var msg *string
	if in.RoofArea != nil && *in.RoofArea > 0 {
		maxFromRoof := *in.RoofArea / a.SqftPerKW
		if maxFromRoof < ideal {
			feasible = maxFromRoof
			limited = true
			s := roofLimitMessage(*in.RoofArea, round(maxFromRoof, 1), round(ideal, 1))
			msg = &s
		}
	}

	roundedIdeal := round(ideal, 1)
	roundedFeasible := round(feasible, 1)

	cost := roundedFeasible * a.CostPerKW
	generation := roundedFeasible * a.AnnualGenerationPerKW
	savings := math.Min(generation*a.ElectricityTariff*a.SelfConsumptionRate, annualBill)

	// Whole-rupee rounding must not lift savings above the current annual spend.
	roundedSavings := round(savings, 0)
	if roundedSavings > annualBill {
		roundedSavings = math.Floor(annualBill)
	}

	payback := math.Inf(1)
	if savings > 0 && roundedSavings > 0 {
		payback = round(cost/savings, 1)
	}

	return Result{
		IdealSystemSize:    roundedIdeal,
		FeasibleSystemSize: roundedFeasible,
		IsRoofLimited:      limited,
		RoofLimitMessage:   msg,
		EstimatedCost:      round(cost, 0),
		AnnualSavings:      roundedSavings,
		PaybackPeriod:      Years(payback),
		CO2Reduction:       round(generation*a.CO2PerKWh/1000, 1),
		Assumptions:        a,
	}
}

// Calculate validates raw input and only estimates when it is clean.
func Calculate(in PartialInput) (Result, ValidationErrors) {
	if errs := Validate(in); len(errs) > 0 {
		return Result{}, errs
	}
	return Estimate(in.Input()), nil
}

func roofLimitMessage(roofArea, maxKW, idealKW float64) string {
	return fmt.Sprintf(
		"Your roof area (%s sq ft) can accommodate up to %.1f kW. The ideal system size for your consumption would be %.1f kW, but we've adjusted the recommendation to fit your available space.",
		strconv.FormatFloat(roofArea, 'f', -1, 64), maxKW, idealKW,
	)
}

// round is half-up at the given number of decimals: floor(v*10^d + 0.5) / 10^d.
func round(v float64, decimals int) float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return v
	}
	m := math.Pow(10, float64(decimals))
	return math.Floor(v*m+0.5) / m
}
