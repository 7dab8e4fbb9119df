// internal/insights/insights.go
package insights

import (
	"fmt"
	"strings"
	"time"

	apperrors "car-price-predictor/internal/common/errors"
)

// Price category labels, ordered from most to least expensive.
const (
	CategoryPremium  = "Premium Vehicle"
	CategoryMidRange = "Mid-Range Vehicle"
	CategoryBudget   = "Budget-Friendly Vehicle"
)

// Environmental impact ratings.
const (
	EnvironmentalExcellent = "Excellent"
	EnvironmentalGood      = "Good"
	EnvironmentalAverage   = "Average"
)

// Market position labels derived from age and mileage together.
const (
	PositionPremium        = "Premium"
	PositionGoodValue      = "Good Value"
	PositionBudgetFriendly = "Budget Friendly"
)

var popularModels = map[string]struct{}{
	"Focus":  {},
	"Fiesta": {},
	"Kuga":   {},
	"Mondeo": {},
}

// Vehicle carries the subset of prediction inputs the analyzer reads.
type Vehicle struct {
	Year       int
	Mileage    float64
	Tax        float64
	MPG        float64
	EngineSize float64
	Model      string
	FuelType   string
}

// VehicleFromInputs extracts a Vehicle from validated raw prediction inputs.
// Numeric values arrive as float64 after JSON decoding and as strings from
// form posts; the validation layer has already rejected anything unparsable.
func VehicleFromInputs(raw map[string]interface{}) (Vehicle, error) {
	v := Vehicle{}

	year, err := numericInput(raw, "year")
	if err != nil {
		return v, err
	}
	v.Year = int(year)

	if v.Mileage, err = numericInput(raw, "mileage"); err != nil {
		return v, err
	}
	if v.Tax, err = numericInput(raw, "tax"); err != nil {
		return v, err
	}
	if v.MPG, err = numericInput(raw, "mpg"); err != nil {
		return v, err
	}
	if v.EngineSize, err = numericInput(raw, "engineSize"); err != nil {
		return v, err
	}

	var ok bool
	if v.Model, ok = raw["model"].(string); !ok {
		return v, apperrors.NewMissingFeatureError("model")
	}
	if v.FuelType, ok = raw["fuelType"].(string); !ok {
		return v, apperrors.NewMissingFeatureError("fuelType")
	}

	return v, nil
}

func numericInput(raw map[string]interface{}, key string) (float64, error) {
	switch n := raw[key].(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	default:
		return 0, apperrors.NewMissingFeatureError(key)
	}
}

// Insights is the qualitative analysis attached to a prediction.
type Insights struct {
	PriceCategory    string   `json:"priceCategory"`
	MarketComparison string   `json:"marketComparison"`
	ValueFactors     []string `json:"valueFactors"`
	Considerations   []string `json:"considerations"`
	Environmental    string   `json:"environmental"`
	MarketPosition   string   `json:"marketPosition"`
	PopularChoice    bool     `json:"popularChoice"`
	CarAge           int      `json:"carAge"`
}

// Analyzer classifies predictions against configured market reference
// values. The clock is injectable so age-based rules are testable.
type Analyzer struct {
	marketAverage  float64
	comparisonBand float64
	now            func() time.Time
}

func NewAnalyzer(marketAverage, comparisonBand float64) *Analyzer {
	return &Analyzer{
		marketAverage:  marketAverage,
		comparisonBand: comparisonBand,
		now:            time.Now,
	}
}

// WithClock overrides the analyzer's clock.
func (a *Analyzer) WithClock(now func() time.Time) *Analyzer {
	a.now = now
	return a
}

// Analyze derives all insight fields for a predicted price. It never fails:
// every rule has a defined outcome for any finite price and vehicle.
func (a *Analyzer) Analyze(price float64, v Vehicle) Insights {
	age := a.now().Year() - v.Year
	if age < 0 {
		age = 0
	}

	return Insights{
		PriceCategory:    a.priceCategory(price),
		MarketComparison: a.marketComparison(price),
		ValueFactors:     valueFactors(age, v),
		Considerations:   considerations(age, v),
		Environmental:    environmental(v),
		MarketPosition:   marketPosition(age, v),
		PopularChoice:    isPopular(v.Model),
		CarAge:           age,
	}
}

func (a *Analyzer) priceCategory(price float64) string {
	switch {
	case price > 30000:
		return CategoryPremium
	case price > 15000:
		return CategoryMidRange
	default:
		return CategoryBudget
	}
}

func (a *Analyzer) marketComparison(price float64) string {
	diff := price - a.marketAverage
	switch {
	case diff > a.comparisonBand:
		return fmt.Sprintf("Above market average by £%s", formatThousands(diff))
	case diff > -a.comparisonBand:
		return "Around market average"
	default:
		return fmt.Sprintf("Below market average by £%s", formatThousands(-diff))
	}
}

func valueFactors(age int, v Vehicle) []string {
	var factors []string
	if age < 5 {
		factors = append(factors, "Recent model year")
	}
	if v.Mileage < 50000 {
		factors = append(factors, "Low mileage")
	}
	if v.MPG > 40 {
		factors = append(factors, "Fuel efficient")
	}
	if v.FuelType == "Electric" || v.FuelType == "Hybrid" {
		factors = append(factors, "Eco-friendly")
	}
	if len(factors) == 0 {
		factors = append(factors, "Solid, reliable vehicle")
	}
	return factors
}

func considerations(age int, v Vehicle) []string {
	var notes []string
	if age > 10 {
		notes = append(notes, "Vehicle age affects value")
	}
	if v.Mileage > 100000 {
		notes = append(notes, "High mileage impacts price")
	}
	if v.Tax > 300 {
		notes = append(notes, "Higher tax bracket")
	}
	if len(notes) == 0 {
		notes = append(notes, "Great overall condition")
	}
	return notes
}

func environmental(v Vehicle) string {
	switch {
	case v.FuelType == "Electric":
		return EnvironmentalExcellent
	case v.FuelType == "Hybrid":
		return EnvironmentalGood
	case v.MPG > 50:
		return EnvironmentalGood
	default:
		return EnvironmentalAverage
	}
}

func marketPosition(age int, v Vehicle) string {
	switch {
	case age < 3 && v.Mileage < 30000:
		return PositionPremium
	case age < 7 && v.Mileage < 80000:
		return PositionGoodValue
	default:
		return PositionBudgetFriendly
	}
}

func isPopular(model string) bool {
	_, ok := popularModels[model]
	return ok
}

// formatThousands renders a positive amount with comma separators and no
// decimal places, matching the display format used across the service.
func formatThousands(amount float64) string {
	n := int64(amount + 0.5)
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}

	var parts []string
	for n >= 1000 {
		parts = append([]string{fmt.Sprintf("%03d", n%1000)}, parts...)
		n /= 1000
	}
	return fmt.Sprintf("%d,%s", n, strings.Join(parts, ","))
}
