// internal/insights/insights_test.go
package insights

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(year int) func() time.Time {
	return func() time.Time {
		return time.Date(year, time.June, 1, 12, 0, 0, 0, time.UTC)
	}
}

func createAnalyzer() *Analyzer {
	return NewAnalyzer(18000, 5000).WithClock(fixedClock(2025))
}

func createVehicle() Vehicle {
	return Vehicle{
		Year:       2018,
		Mileage:    30000,
		Tax:        150,
		MPG:        50,
		EngineSize: 1.6,
		Model:      "Fiesta",
		FuelType:   "Petrol",
	}
}

func TestPriceCategory(t *testing.T) {
	a := createAnalyzer()

	tests := []struct {
		name  string
		price float64
		want  string
	}{
		{name: "premium above 30000", price: 30001, want: CategoryPremium},
		{name: "mid-range at 30000", price: 30000, want: CategoryMidRange},
		{name: "mid-range above 15000", price: 15001, want: CategoryMidRange},
		{name: "budget at 15000", price: 15000, want: CategoryBudget},
		{name: "budget for negatives", price: -500, want: CategoryBudget},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := a.Analyze(tt.price, createVehicle())
			assert.Equal(t, tt.want, got.PriceCategory)
		})
	}
}

func TestMarketComparison(t *testing.T) {
	a := createAnalyzer()

	tests := []struct {
		name  string
		price float64
		want  string
	}{
		{name: "above band", price: 25000, want: "Above market average by £7,000"},
		{name: "inside band high", price: 22000, want: "Around market average"},
		{name: "inside band low", price: 14000, want: "Around market average"},
		{name: "below band", price: 10000, want: "Below market average by £8,000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := a.Analyze(tt.price, createVehicle())
			assert.Equal(t, tt.want, got.MarketComparison)
		})
	}
}

func TestValueFactors(t *testing.T) {
	a := createAnalyzer()

	t.Run("all factors present", func(t *testing.T) {
		v := createVehicle()
		v.Year = 2023
		v.Mileage = 10000
		v.MPG = 60
		v.FuelType = "Hybrid"

		got := a.Analyze(20000, v)
		assert.Equal(t, []string{
			"Recent model year",
			"Low mileage",
			"Fuel efficient",
			"Eco-friendly",
		}, got.ValueFactors)
	})

	t.Run("fallback when nothing applies", func(t *testing.T) {
		v := createVehicle()
		v.Year = 2010
		v.Mileage = 120000
		v.MPG = 35

		got := a.Analyze(20000, v)
		assert.Equal(t, []string{"Solid, reliable vehicle"}, got.ValueFactors)
	})
}

func TestConsiderations(t *testing.T) {
	a := createAnalyzer()

	t.Run("old high-mileage high-tax car", func(t *testing.T) {
		v := createVehicle()
		v.Year = 2010
		v.Mileage = 150000
		v.Tax = 400

		got := a.Analyze(8000, v)
		assert.Equal(t, []string{
			"Vehicle age affects value",
			"High mileage impacts price",
			"Higher tax bracket",
		}, got.Considerations)
	})

	t.Run("fallback when nothing applies", func(t *testing.T) {
		got := a.Analyze(20000, createVehicle())
		assert.Equal(t, []string{"Great overall condition"}, got.Considerations)
	})
}

func TestEnvironmental(t *testing.T) {
	a := createAnalyzer()

	tests := []struct {
		name string
		fuel string
		mpg  float64
		want string
	}{
		{name: "electric", fuel: "Electric", mpg: 0, want: EnvironmentalExcellent},
		{name: "hybrid", fuel: "Hybrid", mpg: 0, want: EnvironmentalGood},
		{name: "efficient petrol", fuel: "Petrol", mpg: 55, want: EnvironmentalGood},
		{name: "thirsty diesel", fuel: "Diesel", mpg: 35, want: EnvironmentalAverage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := createVehicle()
			v.FuelType = tt.fuel
			v.MPG = tt.mpg

			got := a.Analyze(20000, v)
			assert.Equal(t, tt.want, got.Environmental)
		})
	}
}

func TestMarketPosition(t *testing.T) {
	a := createAnalyzer()

	tests := []struct {
		name    string
		year    int
		mileage float64
		want    string
	}{
		{name: "new low mileage", year: 2024, mileage: 10000, want: PositionPremium},
		{name: "mid age mid mileage", year: 2020, mileage: 60000, want: PositionGoodValue},
		{name: "old car", year: 2012, mileage: 60000, want: PositionBudgetFriendly},
		{name: "new but heavily driven", year: 2024, mileage: 90000, want: PositionBudgetFriendly},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := createVehicle()
			v.Year = tt.year
			v.Mileage = tt.mileage

			got := a.Analyze(20000, v)
			assert.Equal(t, tt.want, got.MarketPosition)
		})
	}
}

func TestPopularChoice(t *testing.T) {
	a := createAnalyzer()

	for _, model := range []string{"Focus", "Fiesta", "Kuga", "Mondeo"} {
		v := createVehicle()
		v.Model = model
		assert.True(t, a.Analyze(20000, v).PopularChoice, model)
	}

	v := createVehicle()
	v.Model = "Puma"
	assert.False(t, a.Analyze(20000, v).PopularChoice)
}

func TestCarAge(t *testing.T) {
	a := createAnalyzer()

	got := a.Analyze(20000, createVehicle())
	assert.Equal(t, 7, got.CarAge)

	// Registration year in the future clamps to zero rather than going
	// negative.
	future := createVehicle()
	future.Year = 2030
	assert.Equal(t, 0, a.Analyze(20000, future).CarAge)
}

func TestVehicleFromInputs(t *testing.T) {
	raw := map[string]interface{}{
		"year":         2018.0,
		"mileage":      30000.0,
		"tax":          150.0,
		"mpg":          50.0,
		"engineSize":   1.6,
		"model":        "Fiesta",
		"transmission": "Manual",
		"fuelType":     "Petrol",
	}

	v, err := VehicleFromInputs(raw)
	require.NoError(t, err)
	assert.Equal(t, 2018, v.Year)
	assert.Equal(t, 30000.0, v.Mileage)
	assert.Equal(t, "Fiesta", v.Model)
	assert.Equal(t, "Petrol", v.FuelType)

	delete(raw, "mpg")
	_, err = VehicleFromInputs(raw)
	assert.Error(t, err)
}
