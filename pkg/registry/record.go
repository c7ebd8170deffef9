package registry

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Significance is a clinical-significance field. The registry serves it either
// as an object carrying a description or as a bare string.
type Significance struct {
	text    string
	present bool
}

// NewSignificance builds a string-shaped value, mostly for tests and fakes.
func NewSignificance(s string) Significance {
	return Significance{text: s, present: true}
}

type significanceObject struct {
	Description *string `json:"description"`
}

// UnmarshalJSON accepts either shape. Null, numbers and arrays leave the value absent.
func (s *Significance) UnmarshalJSON(b []byte) error {
	*s = Significance{}
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return nil
	}

	switch b[0] {
	case '"':
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = NewSignificance(v)
	case '{':
		var o significanceObject
		if err := json.Unmarshal(b, &o); err != nil {
			return err
		}
		if o.Description != nil {
			*s = NewSignificance(*o.Description)
		}
	}
	return nil
}

// MarshalJSON writes the string shape.
func (s Significance) MarshalJSON() ([]byte, error) {
	if !s.present {
		return []byte("null"), nil
	}
	return json.Marshal(s.text)
}

// Text returns the significance string and whether it is usable (non-empty).
func (s Significance) Text() (string, bool) {
	t := strings.TrimSpace(s.text)
	return t, s.present && t != ""
}

// Record is one registry summary document.
type Record struct {
	UID                    string       `json:"uid"`
	Accession              string       `json:"accession"`
	Title                  string       `json:"title"`
	ClinicalSignificance   Significance `json:"clinical_significance"`
	GermlineClassification Significance `json:"germline_classification"`
}
