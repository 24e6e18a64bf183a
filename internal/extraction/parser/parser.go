// Package parser pulls clinical measurements out of free OCR text.
//
// Each field has its own extractor. Extractors are independent, run in a fixed
// order, and only the first (leftmost) occurrence of a pattern counts. Values
// are not range checked: "Age: 999" yields 999.
package parser

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/cardiolens/cardiolens-backend/internal/extraction/domain"
)

type extractor struct {
	name    string
	pattern *regexp.Regexp
	apply   func(m []string, f *domain.Fields)
}

// All patterns are case-insensitive and let . cross line breaks.
var extractors = []extractor{
	{
		name:    "age",
		pattern: regexp.MustCompile(`(?is)(age|years old|yrs|yr)[^\d]*(\d{1,3})`),
		apply:   func(m []string, f *domain.Fields) { f.Age = number(m[2]) },
	},
	{
		name:    "gender",
		pattern: regexp.MustCompile(`(?is)(gender|sex)[^\w]*(male|female|m|f)`),
		apply: func(m []string, f *domain.Fields) {
			switch strings.ToLower(m[2])[0] {
			case 'm':
				f.Gender = domain.GenderMale
			case 'f':
				f.Gender = domain.GenderFemale
			}
		},
	},
	{
		name:    "height",
		pattern: regexp.MustCompile(`(?is)(height|ht)[^\d]*(\d{2,3})`),
		apply:   func(m []string, f *domain.Fields) { f.Height = number(m[2]) },
	},
	{
		name:    "weight",
		pattern: regexp.MustCompile(`(?is)(weight|wt)[^\d]*(\d{2,3})`),
		apply:   func(m []string, f *domain.Fields) { f.Weight = number(m[2]) },
	},
	{
		name:    "cholesterol",
		pattern: regexp.MustCompile(`(?is)(cholesterol|chol)[^\d]*(\d{2,3})`),
		apply:   func(m []string, f *domain.Fields) { f.Cholesterol = number(m[2]) },
	},
	{
		name:    "glucose",
		pattern: regexp.MustCompile(`(?is)(glucose|gluc)[^\d]*(\d{2,3})`),
		apply:   func(m []string, f *domain.Fields) { f.Glucose = number(m[2]) },
	},
	{
		// Diastolic is optional: "BP: 140" sets ap_hi only.
		name:    "blood_pressure",
		pattern: regexp.MustCompile(`(?is)(bp|blood pressure)[^\d:]*\s*[:]?\s*(\d{2,3})(?:\s*/\s*(\d{2,3}))?`),
		apply: func(m []string, f *domain.Fields) {
			f.APHi = number(m[2])
			if m[3] != "" {
				f.APLo = number(m[3])
			}
		},
	},
}

// Parse runs every extractor over text and collects what matched.
func Parse(text string) domain.Fields {
	var fields domain.Fields
	for _, e := range extractors {
		if m := e.pattern.FindStringSubmatch(text); m != nil {
			e.apply(m, &fields)
		}
	}
	return fields
}

// Extractors lists the extractor names in evaluation order.
func Extractors() []string {
	names := make([]string, len(extractors))
	for i, e := range extractors {
		names[i] = e.name
	}
	return names
}

// number converts a captured run of 1-3 digits.
func number(s string) *int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &n
}
