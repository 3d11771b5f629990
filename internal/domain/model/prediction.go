package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"sort"
)

// Prediction parsing errors.
var (
	ErrEmptyPrediction   = errors.New("empty prediction body")
	ErrInvalidPrediction = errors.New("prediction body is not valid JSON")
)

// Prediction is the backend's answer for a pairing. The body is kept exactly
// as received; the accessors only read well known keys when present.
type Prediction struct {
	raw    json.RawMessage
	fields map[string]json.RawMessage
}

// ParsePrediction validates data as JSON and wraps it. Objects additionally
// expose their top-level keys through Field.
func ParsePrediction(data []byte) (Prediction, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return Prediction{}, ErrEmptyPrediction
	}
	if !json.Valid(trimmed) {
		return Prediction{}, ErrInvalidPrediction
	}
	p := Prediction{raw: append(json.RawMessage(nil), trimmed...)}
	if trimmed[0] == '{' {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &fields); err != nil {
			return Prediction{}, err
		}
		p.fields = fields
	}
	return p, nil
}

// MustParsePrediction is ParsePrediction for literals in tests and fixtures.
func MustParsePrediction(data string) Prediction {
	p, err := ParsePrediction([]byte(data))
	if err != nil {
		panic(err)
	}
	return p
}

// IsZero reports whether no body was stored.
func (p Prediction) IsZero() bool { return len(p.raw) == 0 }

// Raw returns the body as received.
func (p Prediction) Raw() json.RawMessage { return p.raw }

// Field returns a top-level key of an object body.
func (p Prediction) Field(key string) (json.RawMessage, bool) {
	v, ok := p.fields[key]
	return v, ok
}

// Keys lists the top-level keys of an object body, sorted.
func (p Prediction) Keys() []string {
	keys := make([]string, 0, len(p.fields))
	for k := range p.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// HomeTeam reads home_team as a string or as an object's name.
func (p Prediction) HomeTeam() string { return p.teamName("home_team") }

// AwayTeam reads away_team as a string or as an object's name.
func (p Prediction) AwayTeam() string { return p.teamName("away_team") }

// Outcome reads the prediction key. Strings are returned unquoted, any other
// JSON value is returned as its text.
func (p Prediction) Outcome() string {
	v, ok := p.fields["prediction"]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s
	}
	return string(v)
}

// Pretty returns the body indented for display.
func (p Prediction) Pretty() string {
	if p.IsZero() {
		return ""
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, p.raw, "", "  "); err != nil {
		return string(p.raw)
	}
	return buf.String()
}

func (p Prediction) teamName(key string) string {
	v, ok := p.fields[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s
	}
	var obj struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(v, &obj); err == nil {
		return obj.Name
	}
	return ""
}

// MarshalJSON writes the stored body unchanged.
func (p Prediction) MarshalJSON() ([]byte, error) {
	if p.IsZero() {
		return []byte("null"), nil
	}
	return p.raw, nil
}

// UnmarshalJSON stores a copy of data.
func (p *Prediction) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*p = Prediction{}
		return nil
	}
	parsed, err := ParsePrediction(data)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
