// Package trace replays recorded scroll sessions against an engine and
// reports every event it emits.
package trace

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Trace is a list of host interactions with an engine. JSON traces load as
// well, being valid YAML.
type Trace struct {
	Name    string  `json:"name" yaml:"name"`
	Items   int     `json:"items" yaml:"items"`
	Options Options `json:"options" yaml:"options"`
	Steps   []Step  `json:"steps" yaml:"steps"`
}

type Options struct {
	FixedExtent     float64 `json:"fixed_extent,omitempty" yaml:"fixed_extent,omitempty"`
	EstimatedExtent float64 `json:"estimated_extent,omitempty" yaml:"estimated_extent,omitempty"`
	Gap             float64 `json:"gap,omitempty" yaml:"gap,omitempty"`
	Overscan        *int    `json:"overscan,omitempty" yaml:"overscan,omitempty"`
	Threshold       float64 `json:"threshold,omitempty" yaml:"threshold,omitempty"`
	SettleMS        int     `json:"settle_ms,omitempty" yaml:"settle_ms,omitempty"`
	Tolerance       float64 `json:"tolerance,omitempty" yaml:"tolerance,omitempty"`
	Columns         int     `json:"columns,omitempty" yaml:"columns,omitempty"`
	Container       float64 `json:"container,omitempty" yaml:"container,omitempty"`
}

// Step is one interaction. Exactly one field is set.
type Step struct {
	Resize          *float64  `json:"resize,omitempty" yaml:"resize,omitempty"`
	Scroll          *float64  `json:"scroll,omitempty" yaml:"scroll,omitempty"`
	ScrollTo        *ScrollTo `json:"scroll_to,omitempty" yaml:"scroll_to,omitempty"`
	Measure         *Measure  `json:"measure,omitempty" yaml:"measure,omitempty"`
	MeasureRendered *float64  `json:"measure_rendered,omitempty" yaml:"measure_rendered,omitempty"`
	Count           *int      `json:"count,omitempty" yaml:"count,omitempty"`
	Reset           *int      `json:"reset,omitempty" yaml:"reset,omitempty"`
	Columns         *int      `json:"columns,omitempty" yaml:"columns,omitempty"`
	AdvanceMS       *int      `json:"advance_ms,omitempty" yaml:"advance_ms,omitempty"`
}

type ScrollTo struct {
	Index int    `json:"index" yaml:"index"`
	Align string `json:"align,omitempty" yaml:"align,omitempty"`
}

type Measure struct {
	Index  int     `json:"index" yaml:"index"`
	Extent float64 `json:"extent" yaml:"extent"`
}

var errEmptyStep = errors.New("step sets no action")

func (s Step) count() int {
	n := 0
	for _, set := range []bool{
		s.Resize != nil, s.Scroll != nil, s.ScrollTo != nil, s.Measure != nil,
		s.MeasureRendered != nil, s.Count != nil, s.Reset != nil, s.Columns != nil,
		s.AdvanceMS != nil,
	} {
		if set {
			n++
		}
	}
	return n
}

// String describes the step.
func (s Step) String() string {
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	switch {
	case s.Resize != nil:
		return "resize " + f(*s.Resize)
	case s.Scroll != nil:
		return "scroll " + f(*s.Scroll)
	case s.ScrollTo != nil:
		align := s.ScrollTo.Align
		if align == "" {
			align = "start"
		}
		return fmt.Sprintf("scroll_to %d %s", s.ScrollTo.Index, align)
	case s.Measure != nil:
		return fmt.Sprintf("measure %d %s", s.Measure.Index, f(s.Measure.Extent))
	case s.MeasureRendered != nil:
		return "measure_rendered " + f(*s.MeasureRendered)
	case s.Count != nil:
		return fmt.Sprintf("count %d", *s.Count)
	case s.Reset != nil:
		return fmt.Sprintf("reset %d", *s.Reset)
	case s.Columns != nil:
		return fmt.Sprintf("columns %d", *s.Columns)
	case s.AdvanceMS != nil:
		return fmt.Sprintf("advance %dms", *s.AdvanceMS)
	}
	return "empty"
}

// Validate checks that every step sets exactly one action.
func (t Trace) Validate() error {
	if t.Items < 0 {
		return fmt.Errorf("invalid item count: %d", t.Items)
	}
	for i, s := range t.Steps {
		switch s.count() {
		case 0:
			return fmt.Errorf("step %d: %w", i+1, errEmptyStep)
		case 1:
		default:
			return fmt.Errorf("step %d: sets more than one action", i+1)
		}
	}
	return nil
}

// Parse decodes a YAML or JSON trace.
func Parse(data []byte) (Trace, error) {
	var t Trace
	if err := yaml.Unmarshal(data, &t); err != nil {
		return Trace{}, fmt.Errorf("failed to parse trace: %w", err)
	}
	if err := t.Validate(); err != nil {
		return Trace{}, err
	}
	return t, nil
}

// Load reads and parses the trace at path.
func Load(path string) (Trace, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Trace{}, fmt.Errorf("failed to read trace: %w", err)
	}
	return Parse(data)
}
