// cmd/tools/artifact-inspector/main.go
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"sort"

	"car-price-predictor/internal/artifact"
)

// artifact-inspector validates a model artifact and prints what the service
// would derive from it: the feature layout, the categorical domains, and an
// optional sample prediction.
func main() {
	inspectCmd := flag.NewFlagSet("inspect", flag.ExitOnError)
	inspectPath := inspectCmd.String("path", "artifacts/model_car.json", "Path to the model artifact")

	evalCmd := flag.NewFlagSet("eval", flag.ExitOnError)
	evalPath := evalCmd.String("path", "artifacts/model_car.json", "Path to the model artifact")
	evalInputs := evalCmd.String("inputs", "", "Raw inputs as a JSON object")

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "inspect":
		inspectCmd.Parse(os.Args[2:])
		if err := inspect(*inspectPath); err != nil {
			fmt.Printf("Error inspecting artifact: %v\n", err)
			os.Exit(1)
		}

	case "eval":
		evalCmd.Parse(os.Args[2:])
		if *evalInputs == "" {
			fmt.Println("Error: --inputs is required for eval.")
			evalCmd.Usage()
			os.Exit(1)
		}
		if err := eval(*evalPath, *evalInputs); err != nil {
			fmt.Printf("Error evaluating artifact: %v\n", err)
			os.Exit(1)
		}

	default:
		help()
		os.Exit(1)
	}
}

func inspect(path string) error {
	model, err := artifact.Load(path)
	if err != nil {
		return err
	}

	fmt.Printf("Artifact: %s\n", path)
	fmt.Printf("Columns: %d\n", model.Dimensions())
	fmt.Printf("Intercept: %.4f\n", model.Intercept)

	fmt.Println("\nNumeric features (standard-scaled):")
	for _, feature := range model.NumericFeatures() {
		fmt.Printf("  %s\n", feature)
	}

	fmt.Println("\nCategorical features:")
	categorical := model.CategoricalFeatures()
	sort.Strings(categorical)
	for _, feature := range categorical {
		values := model.Categories(feature)
		fmt.Printf("  %s (%d values): %v\n", feature, len(values), values)
	}

	return nil
}

func eval(path, inputsJSON string) error {
	model, err := artifact.Load(path)
	if err != nil {
		return err
	}

	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(inputsJSON), &raw); err != nil {
		return fmt.Errorf("parse inputs: %w", err)
	}

	vector := make([]float64, model.Dimensions())
	for _, feature := range model.NumericFeatures() {
		v, ok := raw[feature].(float64)
		if !ok {
			return fmt.Errorf("numeric feature %q missing or not a number", feature)
		}
		idx, _ := model.ColumnIndex(feature)
		vector[idx] = model.ScaleValue(feature, v)
	}
	for _, feature := range model.CategoricalFeatures() {
		v, ok := raw[feature].(string)
		if !ok {
			return fmt.Errorf("categorical feature %q missing", feature)
		}
		idx, ok := model.ResolveCategoryColumn(feature, v)
		if !ok {
			return fmt.Errorf("unknown %s value %q (known: %v)", feature, v, model.Categories(feature))
		}
		vector[idx] = 1
	}

	price, err := model.Evaluate(vector)
	if err != nil {
		return err
	}

	fmt.Printf("Predicted price: £%.2f\n", price)
	if price < 0 {
		fmt.Println("Warning: prediction is negative; inputs are far outside the training distribution.")
	}
	return nil
}

func help() {
	fmt.Println("Usage: artifact-inspector <command> [options]")
	fmt.Println("Commands:")
	fmt.Println("  inspect --path <artifact>              Validate and describe an artifact")
	fmt.Println("  eval --path <artifact> --inputs <json> Run one prediction against an artifact")
}
