package domain

import (
	"fmt"
	"math"
)

// Columns is the classifier's training schema, in order. The trailing space
// in "Age " is part of the trained model and must be kept.
var Columns = [11]string{
	"Age ", "Gender", "Height", "Weight", "ap_hi", "ap_lo",
	"Cholesterol", "Gluc", "Smoke", "Alco", "Active",
}

// Gender codes
const (
	GenderMale   = 1
	GenderFemale = 2
)

// Category levels for cholesterol and glucose
const (
	LevelNormal          = 1
	LevelAboveNormal     = 2
	LevelWellAboveNormal = 3
)

// ClinicalInput is the raw JSON object submitted to /predict.
// Values are json.Number, string, bool, nil or nested JSON.
type ClinicalInput map[string]interface{}

// FeatureVector is one classifier input row.
type FeatureVector struct {
	Age         int
	Gender      int
	Height      int
	Weight      float64
	APHi        int
	APLo        int
	Cholesterol int
	Gluc        int
	Smoke       int
	Alco        int
	Active      int
}

// Row returns the vector as float64 values in Columns order.
func (v FeatureVector) Row() []float64 {
	return []float64{
		float64(v.Age),
		float64(v.Gender),
		float64(v.Height),
		v.Weight,
		float64(v.APHi),
		float64(v.APLo),
		float64(v.Cholesterol),
		float64(v.Gluc),
		float64(v.Smoke),
		float64(v.Alco),
		float64(v.Active),
	}
}

// Values returns the vector in Columns order keeping integer columns as ints,
// for JSON transports that care about the distinction.
func (v FeatureVector) Values() []interface{} {
	return []interface{}{
		v.Age, v.Gender, v.Height, v.Weight, v.APHi, v.APLo,
		v.Cholesterol, v.Gluc, v.Smoke, v.Alco, v.Active,
	}
}

// Prediction is the /predict response
type Prediction struct {
	Prediction  int     `json:"prediction"`
	Probability float64 `json:"probability"`
}

// NewPrediction converts a positive-class probability in [0,1] into a
// percentage rounded half away from zero to two decimals.
func NewPrediction(class int, p1 float64) Prediction {
	return Prediction{
		Prediction:  class,
		Probability: math.Round(p1*100*100) / 100,
	}
}

// FieldError reports a clinical input value that cannot be encoded.
type FieldError struct {
	Key    string
	Value  interface{}
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("invalid value for %q: %v (%s)", e.Key, e.Value, e.Reason)
}
