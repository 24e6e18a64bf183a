// Package encoder maps raw clinical inputs onto the classifier's feature vector.
//
// Missing numeric inputs (absent key or JSON null) encode as 0. That keeps the
// historical behavior but zero is not a clinically valid height, weight or
// pressure, so Encode also reports which columns were defaulted.
package encoder

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/cardiolens/cardiolens-backend/internal/risk/domain"
)

// Cholesterol maps mg/dL to 1 (<200), 2 (200-239) or 3 (>=240).
func Cholesterol(mgdl int) int {
	switch {
	case mgdl < 200:
		return domain.LevelNormal
	case mgdl < 240:
		return domain.LevelAboveNormal
	default:
		return domain.LevelWellAboveNormal
	}
}

// Glucose maps mg/dL to 1 (<100), 2 (100-125) or 3 (>=126).
func Glucose(mgdl int) int {
	switch {
	case mgdl < 100:
		return domain.LevelNormal
	case mgdl < 126:
		return domain.LevelAboveNormal
	default:
		return domain.LevelWellAboveNormal
	}
}

// Gender is 2 for exactly "female", 1 for anything else.
func Gender(v interface{}) int {
	if s, ok := v.(string); ok && s == "female" {
		return domain.GenderFemale
	}
	return domain.GenderMale
}

// Flag is 1 for exactly "yes", 0 for anything else.
func Flag(v interface{}) int {
	if s, ok := v.(string); ok && s == "yes" {
		return 1
	}
	return 0
}

// Encode builds the feature vector. The second return value lists the
// columns whose input was missing and defaulted to 0.
func Encode(in domain.ClinicalInput) (domain.FeatureVector, []string, error) {
	var (
		v         domain.FeatureVector
		defaulted []string
		err       error
	)

	integer := func(key, column string) int {
		if err != nil {
			return 0
		}
		n, missing, e := intValue(in, key)
		if e != nil {
			err = e
			return 0
		}
		if missing {
			defaulted = append(defaulted, column)
		}
		return n
	}

	v.Age = integer("age", "Age ")
	v.Height = integer("height", "Height")

	weight, missing, e := floatValue(in, "weight")
	if e != nil && err == nil {
		err = e
	}
	if missing {
		defaulted = append(defaulted, "Weight")
	}
	v.Weight = weight

	v.APHi = integer("ap_hi", "ap_hi")
	v.APLo = integer("ap_lo", "ap_lo")
	v.Cholesterol = Cholesterol(integer("cholesterol", "Cholesterol"))
	v.Gluc = Glucose(integer(glucoseKey(in), "Gluc"))

	if err != nil {
		return domain.FeatureVector{}, nil, err
	}

	v.Gender = Gender(in["gender"])
	v.Smoke = Flag(in["smoke"])
	v.Alco = Flag(in["alco"])
	v.Active = Flag(in["active"])

	return v, defaulted, nil
}

// glucoseKey prefers "gluc" and falls back to "glucose", the name the
// extraction endpoint uses.
func glucoseKey(in domain.ClinicalInput) string {
	if v, ok := in["gluc"]; ok && v != nil {
		return "gluc"
	}
	if v, ok := in["glucose"]; ok && v != nil {
		return "glucose"
	}
	return "gluc"
}

// intValue accepts JSON numbers (truncated toward zero) and decimal integer
// strings with surrounding whitespace.
func intValue(in domain.ClinicalInput, key string) (int, bool, error) {
	raw, ok := in[key]
	if !ok || raw == nil {
		return 0, true, nil
	}

	switch x := raw.(type) {
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return int(n), false, nil
		}
		f, err := x.Float64()
		if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
			return 0, false, &domain.FieldError{Key: key, Value: raw, Reason: "not a number"}
		}
		return int(math.Trunc(f)), false, nil
	case float64:
		if math.IsInf(x, 0) || math.IsNaN(x) {
			return 0, false, &domain.FieldError{Key: key, Value: raw, Reason: "not a finite number"}
		}
		return int(math.Trunc(x)), false, nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(x))
		if err != nil {
			return 0, false, &domain.FieldError{Key: key, Value: raw, Reason: "expected a whole number"}
		}
		return n, false, nil
	default:
		return 0, false, &domain.FieldError{Key: key, Value: raw, Reason: "expected a number"}
	}
}

// floatValue accepts JSON numbers and numeric strings.
func floatValue(in domain.ClinicalInput, key string) (float64, bool, error) {
	raw, ok := in[key]
	if !ok || raw == nil {
		return 0, true, nil
	}

	var (
		f   float64
		err error
	)
	switch x := raw.(type) {
	case json.Number:
		f, err = x.Float64()
	case float64:
		f = x
	case string:
		f, err = strconv.ParseFloat(strings.TrimSpace(x), 64)
	default:
		return 0, false, &domain.FieldError{Key: key, Value: raw, Reason: "expected a number"}
	}
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false, &domain.FieldError{Key: key, Value: raw, Reason: "not a finite number"}
	}
	return f, false, nil
}
