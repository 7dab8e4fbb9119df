// internal/server/templates.go
package server

import (
	"html/template"
	"io"

	"car-price-predictor/internal/history"
	"car-price-predictor/internal/insights"
)

// FormView is the data passed to the index template.
type FormView struct {
	Models        []string
	Transmissions []string
	FuelTypes     []string
	Values        map[string]string
	Errors        map[string]string
	Result        *ResultView
	Recent        []history.Record
}

// ResultView is the rendered prediction block.
type ResultView struct {
	FormattedPrice string
	OutOfRange     bool
	Warning        string
	Cached         bool
	Insights       insights.Insights
}

const indexTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <title>Car Price Predictor</title>
  <style>
    body { font-family: sans-serif; max-width: 720px; margin: 2rem auto; padding: 0 1rem; }
    .field { margin-bottom: 0.75rem; }
    .field label { display: inline-block; width: 10rem; }
    .error { color: #b00020; font-size: 0.85rem; margin-left: 0.5rem; }
    .price { font-size: 1.6rem; font-weight: bold; margin: 1rem 0; }
    .warning { color: #b00020; }
    .insights { background: #f4f6f8; padding: 1rem; border-radius: 6px; }
    .insights ul { margin: 0.25rem 0 0.75rem 1.25rem; }
    table { border-collapse: collapse; width: 100%; margin-top: 1rem; }
    th, td { border: 1px solid #ddd; padding: 0.4rem 0.6rem; text-align: left; }
  </style>
</head>
<body>
  <h1>Car Price Predictor</h1>
  <form method="post" action="/predict">
    <div class="field">
      <label for="model">Model</label>
      <select name="model" id="model">
        {{- range .Models}}
        <option value="{{.}}"{{if eq . $.Values.model}} selected{{end}}>{{.}}</option>
        {{- end}}
      </select>
      {{with .Errors.model}}<span class="error">{{.}}</span>{{end}}
    </div>
    <div class="field">
      <label for="year">Registration Year</label>
      <input type="number" name="year" id="year" min="1990" max="2025" value="{{.Values.year}}">
      {{with .Errors.year}}<span class="error">{{.}}</span>{{end}}
    </div>
    <div class="field">
      <label for="mileage">Mileage</label>
      <input type="number" name="mileage" id="mileage" min="0" max="300000" value="{{.Values.mileage}}">
      {{with .Errors.mileage}}<span class="error">{{.}}</span>{{end}}
    </div>
    <div class="field">
      <label for="transmission">Transmission</label>
      <select name="transmission" id="transmission">
        {{- range .Transmissions}}
        <option value="{{.}}"{{if eq . $.Values.transmission}} selected{{end}}>{{.}}</option>
        {{- end}}
      </select>
      {{with .Errors.transmission}}<span class="error">{{.}}</span>{{end}}
    </div>
    <div class="field">
      <label for="fuelType">Fuel Type</label>
      <select name="fuelType" id="fuelType">
        {{- range .FuelTypes}}
        <option value="{{.}}"{{if eq . $.Values.fuelType}} selected{{end}}>{{.}}</option>
        {{- end}}
      </select>
      {{with .Errors.fuelType}}<span class="error">{{.}}</span>{{end}}
    </div>
    <div class="field">
      <label for="tax">Annual Tax (£)</label>
      <input type="number" name="tax" id="tax" min="0" max="1000" value="{{.Values.tax}}">
      {{with .Errors.tax}}<span class="error">{{.}}</span>{{end}}
    </div>
    <div class="field">
      <label for="mpg">Miles per Gallon</label>
      <input type="number" name="mpg" id="mpg" min="0" max="150" step="0.1" value="{{.Values.mpg}}">
      {{with .Errors.mpg}}<span class="error">{{.}}</span>{{end}}
    </div>
    <div class="field">
      <label for="engineSize">Engine Size (L)</label>
      <input type="number" name="engineSize" id="engineSize" min="0.5" max="6" step="0.1" value="{{.Values.engineSize}}">
      {{with .Errors.engineSize}}<span class="error">{{.}}</span>{{end}}
    </div>
    <button type="submit">Predict Price</button>
  </form>

  {{with .Result}}
  <div class="result">
    <div class="price">Estimated Value: {{.FormattedPrice}}</div>
    {{if .OutOfRange}}<p class="warning">{{.Warning}}</p>{{end}}
    {{if .Cached}}<p><em>Served from cache</em></p>{{end}}
    <div class="insights">
      <p><strong>{{.Insights.PriceCategory}}</strong> ({{.Insights.MarketPosition}}{{if .Insights.PopularChoice}}, Popular Choice{{end}})</p>
      <p>{{.Insights.MarketComparison}}</p>
      <p>Environmental Impact: {{.Insights.Environmental}}</p>
      <p>Factors Boosting Value:</p>
      <ul>{{range .Insights.ValueFactors}}<li>{{.}}</li>{{end}}</ul>
      <p>Consider:</p>
      <ul>{{range .Insights.Considerations}}<li>{{.}}</li>{{end}}</ul>
    </div>
  </div>
  {{end}}

  {{with .Recent}}
  <h2>Recent Predictions</h2>
  <table>
    <tr><th>Model</th><th>Year</th><th>Price</th><th>Category</th></tr>
    {{- range .}}
    <tr>
      <td>{{index .Inputs "model"}}</td>
      <td>{{index .Inputs "year"}}</td>
      <td>£{{printf "%.0f" .Price}}</td>
      <td>{{.PriceCategory}}</td>
    </tr>
    {{- end}}
  </table>
  {{end}}

  <p><small>Estimates are for guidance only. Actual prices may vary based on condition, location, and market factors.</small></p>
</body>
</html>
`

var indexPage = template.Must(template.New("index").Parse(indexTemplate))

func renderIndex(w io.Writer, view *FormView) error {
	return indexPage.Execute(w, view)
}

// defaultFormValues mirrors the trained data's typical vehicle, used to
// pre-fill the form on first load.
func defaultFormValues() map[string]string {
	return map[string]string{
		"model":        "Fiesta",
		"year":         "2018",
		"mileage":      "30000",
		"transmission": "Manual",
		"fuelType":     "Petrol",
		"tax":          "150",
		"mpg":          "50",
		"engineSize":   "1.6",
	}
}
