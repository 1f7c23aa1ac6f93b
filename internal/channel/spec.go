package channel

import (
	"fmt"
	"math"
	"time"
)

// GapMarkerOffset is how far after the last real sample a gap marker is
// placed when a dropout is detected.
const GapMarkerOffset = time.Second

// Transform names how a channel's value is derived from a row.
type Transform string

const (
	Passthrough Transform = "passthrough" // field value as-is
	Scale       Transform = "scale"       // field value times Scale
	Delta       Transform = "delta"       // per-second rate of change of a field, times Scale
	// RMS is the root mean square, sqrt(sum of squares / len(Fields)), times
	// Scale. Use Magnitude for the plain root of the sum of squares.
	RMS       Transform = "rms"
	Magnitude Transform = "magnitude" // sqrt(sum of squares) of the fields, times Scale
)

func (t Transform) needsPrevious() bool { return t == Delta }

// Layout describes the row columns shared by every channel.
type Layout struct {
	TimeField int           `mapstructure:"timeField"`
	TimeUnit  time.Duration `mapstructure:"timeUnit"` // duration of one unit of the time column
}

func (l Layout) unitMillis() float64 {
	if l.TimeUnit <= 0 {
		return 1000
	}
	return float64(l.TimeUnit) / float64(time.Millisecond)
}

// Spec declares one output channel.
type Spec struct {
	Name             string        `mapstructure:"name"`
	Units            string        `mapstructure:"units"`
	Label            string        `mapstructure:"label"`
	DisplayFormat    string        `mapstructure:"displayFormat"` // e.g. "d", ".1f", ",.1f"
	Transform        Transform     `mapstructure:"transform"`
	Fields           []int         `mapstructure:"fields"` // source column indexes
	Scale            float64       `mapstructure:"scale"`  // 0 means 1
	GapThreshold     time.Duration `mapstructure:"gapThreshold"`
	InitiallyVisible bool          `mapstructure:"initiallyVisible"`
	Rollup           bool          `mapstructure:"rollup"` // build rollup levels for display
}

func (s Spec) factor() float64 {
	if s.Scale == 0 {
		return 1
	}
	return s.Scale
}

// Validate checks that the spec can be built.
func (s Spec) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("%w: channel name is empty", ErrInvalidSpec)
	}
	switch s.Transform {
	case Passthrough, Scale, Delta:
		if len(s.Fields) != 1 {
			return fmt.Errorf("%w: %s: transform %q needs exactly one field, got %d", ErrInvalidSpec, s.Name, s.Transform, len(s.Fields))
		}
	case RMS, Magnitude:
		if len(s.Fields) == 0 {
			return fmt.Errorf("%w: %s: transform %q needs at least one field", ErrInvalidSpec, s.Name, s.Transform)
		}
	default:
		return fmt.Errorf("%w: %s: unknown transform %q", ErrInvalidSpec, s.Name, s.Transform)
	}
	for _, f := range s.Fields {
		if f < 0 {
			return fmt.Errorf("%w: %s: negative field index %d", ErrInvalidSpec, s.Name, f)
		}
	}
	if s.Transform == Passthrough && s.Scale != 0 && s.Scale != 1 {
		return fmt.Errorf("%w: %s: passthrough does not scale, use %q", ErrInvalidSpec, s.Name, Scale)
	}
	if math.IsNaN(s.Scale) || math.IsInf(s.Scale, 0) {
		return fmt.Errorf("%w: %s: scale must be finite", ErrInvalidSpec, s.Name)
	}
	if s.GapThreshold < 0 {
		return fmt.Errorf("%w: %s: negative gap threshold", ErrInvalidSpec, s.Name)
	}
	return nil
}

// ValidateAll validates every spec and rejects duplicate names.
func ValidateAll(specs []Spec) error {
	seen := make(map[string]struct{}, len(specs))
	for _, s := range specs {
		if err := s.Validate(); err != nil {
			return err
		}
		if _, dup := seen[s.Name]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateChannel, s.Name)
		}
		seen[s.Name] = struct{}{}
	}
	return nil
}
