// Package measurement reads hyperfine --export-json output files.
//
// Each file holds a Set whose first Measurement summarises one benchmark
// command run on one branch. Files are discovered by extension and parsed
// strictly: every field hyperfine always writes must be present.
package measurement

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Measurement is one benchmark sample summary. All durations are seconds.
type Measurement struct {
	Command string    `json:"command"`
	Mean    float64   `json:"mean"`
	Stddev  float64   `json:"stddev"`
	Median  float64   `json:"median"`
	User    float64   `json:"user"`
	System  float64   `json:"system"`
	Min     float64   `json:"min"`
	Max     float64   `json:"max"`
	Times   []float64 `json:"times"`
}

// Set is the top-level object hyperfine writes.
type Set struct {
	Results []Measurement `json:"results"`
}

// File pairs a discovered path with its parsed contents.
type File struct {
	Path string
	Set  Set
}

// rawMeasurement mirrors Measurement with pointer fields so that missing
// keys can be told apart from zero values.
type rawMeasurement struct {
	Command *string    `json:"command" validate:"required"`
	Mean    *float64   `json:"mean" validate:"required,gte=0"`
	Stddev  *float64   `json:"stddev" validate:"required,gte=0"`
	Median  *float64   `json:"median" validate:"required,gte=0"`
	User    *float64   `json:"user" validate:"required,gte=0"`
	System  *float64   `json:"system" validate:"required,gte=0"`
	Min     *float64   `json:"min" validate:"required,gte=0"`
	Max     *float64   `json:"max" validate:"required,gte=0"`
	Times   *[]float64 `json:"times" validate:"required"`
}

type rawSet struct {
	Results *[]rawMeasurement `json:"results" validate:"required,dive"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Parse decodes and validates the contents of one measurement file.
// Unknown keys (exit_codes, parameters) are ignored.
func Parse(data []byte) (Set, error) {
	var raw rawSet
	if err := json.Unmarshal(data, &raw); err != nil {
		return Set{}, err
	}
	if err := validate.Struct(raw); err != nil {
		return Set{}, fmt.Errorf("measurement schema: %w", err)
	}

	set := Set{Results: make([]Measurement, 0, len(*raw.Results))}
	for _, r := range *raw.Results {
		times := *r.Times
		if times == nil {
			times = []float64{}
		}
		set.Results = append(set.Results, Measurement{
			Command: *r.Command,
			Mean:    *r.Mean,
			Stddev:  *r.Stddev,
			Median:  *r.Median,
			User:    *r.User,
			System:  *r.System,
			Min:     *r.Min,
			Max:     *r.Max,
			Times:   times,
		})
	}
	return set, nil
}
