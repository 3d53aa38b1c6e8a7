package solar

import "strings"

type PropertyType string

const (
	Residential PropertyType = "residential"
	Commercial  PropertyType = "commercial"
	Industrial  PropertyType = "industrial"
)

// PropertyTypes lists the closed category set in display order.
var PropertyTypes = []PropertyType{Residential, Commercial, Industrial}

func ParsePropertyType(s string) (PropertyType, bool) {
	switch PropertyType(strings.ToLower(strings.TrimSpace(s))) {
	case Residential:
		return Residential, true
	case Commercial:
		return Commercial, true
	case Industrial:
		return Industrial, true
	}
	return "", false
}

type Assumptions struct {
	ElectricityTariff     float64 `json:"electricity_tariff"`        // INR per kWh
	AnnualGenerationPerKW float64 `json:"annual_generation_per_kw"` // kWh per kW per year
	SqftPerKW             float64 `json:"sqft_per_kw"`
	CostPerKW             float64 `json:"cost_per_kw"` // INR per kW
	SelfConsumptionRate   float64 `json:"self_consumption_rate"`
	CO2PerKWh             float64 `json:"co2_per_kwh"` // kg
}

// Indian grid averages, shared by every property type.
const (
	electricityTariff     = 7.5
	annualGenerationPerKW = 1400
	sqftPerKW             = 100
	selfConsumptionRate   = 0.75
	co2PerKWh             = 0.82

	// MaxMonthlyBill is the implausibility ceiling applied by Validate.
	MaxMonthlyBill = 1_000_000
)

// costPerKW is the installed cost baseline; larger sites get better economies of scale.
func costPerKW(p PropertyType) float64 {
	switch p {
	case Commercial:
		return 48000
	case Industrial:
		return 45000
	default:
		return 50000
	}
}

func AssumptionsFor(p PropertyType) Assumptions {
	return Assumptions{
		ElectricityTariff:     electricityTariff,
		AnnualGenerationPerKW: annualGenerationPerKW,
		SqftPerKW:             sqftPerKW,
		CostPerKW:             costPerKW(p),
		SelfConsumptionRate:   selfConsumptionRate,
		CO2PerKWh:             co2PerKWh,
	}
}
