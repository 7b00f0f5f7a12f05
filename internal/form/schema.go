// Package form describes the patient wizard: which fields exist, how each
// one is entered and validated, and how they are grouped into steps.
package form

import (
	"errors"
	"fmt"
	"math"

	"github.com/irfndi/heartguard-ai-go/internal/models"
)

// ErrUnknownField is returned when a field has no configuration.
var ErrUnknownField = errors.New("unknown form field")

// ValidationError reports a value that a field does not accept.
type ValidationError struct {
	Field   models.Field
	Value   float64
	Message string
}

// Error returns the error message string.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Kind is the input variant of a field. The set of implementations is
// closed: Slider, Toggle and Select.
type Kind interface {
	kind() string
}

// Option is a selectable code with its display text.
type Option struct {
	Value       float64 `json:"value"`
	Label       string  `json:"label"`
	Description string  `json:"description,omitempty"`
}

// Range is an inclusive [Low, High] interval.
type Range struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// Zones colour a slider track. Any zone may be empty.
type Zones struct {
	Green  Range `json:"green"`
	Orange Range `json:"orange"`
	Red    Range `json:"red"`
}

// Slider is a continuous value within [Min, Max].
type Slider struct {
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Step  float64 `json:"step"` // input granularity only; Validate checks the bounds
	Unit  string  `json:"unit"`
	Zones *Zones  `json:"zones,omitempty"`
}

// Toggle is a yes/no flag.
type Toggle struct {
	Options [2]Option `json:"options"`
}

// Select is a choice among enumerated codes.
type Select struct {
	Options []Option `json:"options"`
}

func (Slider) kind() string { return "slider" }
func (Toggle) kind() string { return "toggle" }
func (Select) kind() string { return "select" }

// KindName returns the wire name of a field kind.
func KindName(k Kind) string {
	if k == nil {
		return ""
	}
	return k.kind()
}

// Config describes one wizard input.
type Config struct {
	Field        models.Field
	Label        string
	Description  string
	Kind         Kind
	DefaultValue float64
}

// Validate checks that value is acceptable for the field.
func (c Config) Validate(value float64) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return &ValidationError{Field: c.Field, Value: value, Message: "value must be a finite number"}
	}

	switch k := c.Kind.(type) {
	case Slider:
		if value < k.Min || value > k.Max {
			return &ValidationError{
				Field:   c.Field,
				Value:   value,
				Message: fmt.Sprintf("value %g outside [%g, %g]", value, k.Min, k.Max),
			}
		}
		return nil
	case Toggle:
		return validateOption(c.Field, value, k.Options[:])
	case Select:
		return validateOption(c.Field, value, k.Options)
	default:
		return fmt.Errorf("field %s has unsupported kind %T", c.Field, c.Kind)
	}
}

// Options returns the selectable codes of a toggle or select field; nil for
// sliders.
func (c Config) Options() []Option {
	switch k := c.Kind.(type) {
	case Slider:
		return nil
	case Toggle:
		return k.Options[:]
	case Select:
		return k.Options
	default:
		return nil
	}
}

// OptionLabel returns the display text of a code, or "" when the field has
// no such option.
func (c Config) OptionLabel(value float64) string {
	for _, o := range c.Options() {
		if o.Value == value {
			return o.Label
		}
	}
	return ""
}

func validateOption(field models.Field, value float64, options []Option) error {
	for _, o := range options {
		if o.Value == value {
			return nil
		}
	}
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: fmt.Sprintf("value %g is not an accepted code", value),
	}
}

// Lookup returns the configuration of a field.
func Lookup(field models.Field) (Config, error) {
	for _, c := range Fields {
		if c.Field == field {
			return c, nil
		}
	}
	return Config{}, fmt.Errorf("%w: %s", ErrUnknownField, field)
}

// Validate checks a single field value against its configuration.
func Validate(field models.Field, value float64) error {
	c, err := Lookup(field)
	if err != nil {
		return err
	}
	return c.Validate(value)
}

// ValidateRecord checks every field of a record and returns the first error.
func ValidateRecord(p models.PatientRecord) error {
	for _, f := range models.AllFields {
		v, _ := p.Get(f)
		if err := Validate(f, v); err != nil {
			return err
		}
	}
	return nil
}
