package domain

import (
	"path/filepath"
	"strings"
)

// DocumentKind tells the extraction pipeline how to get text out of an upload
type DocumentKind string

const (
	DocumentKindImage DocumentKind = "image"
	DocumentKindPDF   DocumentKind = "pdf"
)

// KindOf classifies an upload by its file extension. Anything that is not
// a .pdf is treated as an image.
func KindOf(filename string) DocumentKind {
	if strings.EqualFold(filepath.Ext(filename), ".pdf") {
		return DocumentKindPDF
	}
	return DocumentKindImage
}

// Gender values produced by the parser
const (
	GenderMale   = "Male"
	GenderFemale = "Female"
)

// Fields is the partial set of measurements found in a document.
// Nil or empty means the field was not found; JSON key order follows
// the struct order.
type Fields struct {
	Age         *int   `json:"age,omitempty"`
	Gender      string `json:"gender,omitempty"`
	Height      *int   `json:"height,omitempty"`
	Weight      *int   `json:"weight,omitempty"`
	Cholesterol *int   `json:"cholesterol,omitempty"`
	Glucose     *int   `json:"glucose,omitempty"`
	APHi        *int   `json:"ap_hi,omitempty"`
	APLo        *int   `json:"ap_lo,omitempty"`
}

// Names returns the JSON names of the fields that were found, in output order.
func (f Fields) Names() []string {
	names := make([]string, 0, 8)
	add := func(present bool, name string) {
		if present {
			names = append(names, name)
		}
	}
	add(f.Age != nil, "age")
	add(f.Gender != "", "gender")
	add(f.Height != nil, "height")
	add(f.Weight != nil, "weight")
	add(f.Cholesterol != nil, "cholesterol")
	add(f.Glucose != nil, "glucose")
	add(f.APHi != nil, "ap_hi")
	add(f.APLo != nil, "ap_lo")
	return names
}

// Text is the raw OCR output of a document
type Text struct {
	Kind  DocumentKind
	Pages int
	Body  string
}

// Result is what one extraction request produces
type Result struct {
	Kind   DocumentKind
	Pages  int
	Fields Fields
}
