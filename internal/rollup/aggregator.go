package rollup

import (
	"fmt"
	"strings"
)

// Aggregator reduces the valid values that fell into one window to a single
// value. Aggregate is never called with an empty slice.
type Aggregator interface {
	Name() string
	Aggregate(values []float64) float64
}

type aggregatorFunc struct {
	name string
	fn   func(values []float64) float64
}

func (a aggregatorFunc) Name() string                       { return a.name }
func (a aggregatorFunc) Aggregate(values []float64) float64 { return a.fn(values) }

// Built-in aggregators.
var (
	Avg   Aggregator = aggregatorFunc{name: "avg", fn: avg}
	Min   Aggregator = aggregatorFunc{name: "min", fn: minimum}
	Max   Aggregator = aggregatorFunc{name: "max", fn: maximum}
	Sum   Aggregator = aggregatorFunc{name: "sum", fn: sum}
	Count Aggregator = aggregatorFunc{name: "count", fn: func(values []float64) float64 { return float64(len(values)) }}
)

var builtins = map[string]Aggregator{
	Avg.Name():   Avg,
	Min.Name():   Min,
	Max.Name():   Max,
	Sum.Name():   Sum,
	Count.Name(): Count,
}

// ByName looks up a built-in aggregator. Names are case-insensitive.
func ByName(name string) (Aggregator, error) {
	agg, ok := builtins[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAggregator, name)
	}
	return agg, nil
}

func sum(values []float64) float64 {
	var total float64
	for _, v := range values {
		total += v
	}
	return total
}

func avg(values []float64) float64 {
	return sum(values) / float64(len(values))
}

func minimum(values []float64) float64 {
	m := values[0]
	for _, v := range values[1:] {
		m = min(m, v)
	}
	return m
}

func maximum(values []float64) float64 {
	m := values[0]
	for _, v := range values[1:] {
		m = max(m, v)
	}
	return m
}
