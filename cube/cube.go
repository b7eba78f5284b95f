package cube

import (
	"fmt"
	"time"
)

// ScenarioCube is the read-only valuation cube produced upstream: one value
// per (id, date, sample) plus a time-0 column per id. Ids are trade ids for
// a trade-level cube or netting-set ids for a pre-netted cube. The sample
// axis pairs across dates: index k on date j and index k on date j+1 belong
// to the same simulated path.
type ScenarioCube struct {
	ids     []string
	dates   []time.Time
	samples int
	t0      []float64
	// values[i][j][k], i over ids, j over dates, k over samples
	values [][][]float64
}

// NewScenarioCube validates dimensions and wraps the supplied storage.
// The cube takes ownership of the slices; callers must not mutate them.
func NewScenarioCube(ids []string, dates []time.Time, samples int, t0 []float64, values [][][]float64) (*ScenarioCube, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("NewScenarioCube: no ids")
	}
	if samples <= 0 {
		return nil, fmt.Errorf("NewScenarioCube: samples must be positive, got %d", samples)
	}
	if len(t0) != len(ids) {
		return nil, fmt.Errorf("NewScenarioCube: t0 length %d does not match %d ids", len(t0), len(ids))
	}
	if len(values) != len(ids) {
		return nil, fmt.Errorf("NewScenarioCube: values length %d does not match %d ids", len(values), len(ids))
	}
	for i := range values {
		if len(values[i]) != len(dates) {
			return nil, fmt.Errorf("NewScenarioCube: id %s has %d date rows, want %d", ids[i], len(values[i]), len(dates))
		}
		for j := range values[i] {
			if len(values[i][j]) != samples {
				return nil, fmt.Errorf("NewScenarioCube: id %s date %d has %d samples, want %d",
					ids[i], j, len(values[i][j]), samples)
			}
		}
	}
	for j := 1; j < len(dates); j++ {
		if !dates[j].After(dates[j-1]) {
			return nil, fmt.Errorf("NewScenarioCube: dates not strictly increasing at index %d", j)
		}
	}
	return &ScenarioCube{ids: ids, dates: dates, samples: samples, t0: t0, values: values}, nil
}

// IDs returns the cube's id axis in storage order.
func (c *ScenarioCube) IDs() []string { return c.ids }

// Dates returns the ordered future evaluation dates.
func (c *ScenarioCube) Dates() []time.Time { return c.dates }

// Samples returns the number of Monte-Carlo paths.
func (c *ScenarioCube) Samples() int { return c.samples }

// T0 returns the time-0 value for id index i.
func (c *ScenarioCube) T0(i int) float64 { return c.t0[i] }

// Get returns the value for (id i, date j, sample k).
func (c *ScenarioCube) Get(i, j, k int) float64 { return c.values[i][j][k] }

// Row returns the [date][sample] matrix for id index i.
func (c *ScenarioCube) Row(i int) [][]float64 { return c.values[i] }
