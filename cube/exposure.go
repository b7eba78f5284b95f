package cube

import (
	"fmt"
	"time"
)

// Exposure measure slots within an ExposureCube.
const (
	MeasureEPE          = 0
	MeasureENE          = 1
	MeasureAllocatedEPE = 2
	MeasureAllocatedENE = 3
)

// ExposureCube stores exposure contributions per (id, date, sample,
// measure) plus a time-0 value per (id, measure). Netting-set cubes carry
// two measures (EPE, ENE); trade cubes carry four (plus the allocated
// slots). When built single-path, the sample axis is collapsed and
// sample-averaged values live at sample index 0; this is a construction
// time choice, fixed for the cube's lifetime.
type ExposureCube struct {
	ids      []string
	index    map[string]int
	dates    []time.Time
	samples  int
	measures int
	t0       [][]float64
	// values[i][j][k][m]
	values [][][][]float64
}

// NewExposureCube allocates a zeroed exposure cube.
func NewExposureCube(ids []string, dates []time.Time, samples, measures int) *ExposureCube {
	c := &ExposureCube{
		ids:      ids,
		index:    make(map[string]int, len(ids)),
		dates:    dates,
		samples:  samples,
		measures: measures,
		t0:       make([][]float64, len(ids)),
		values:   make([][][][]float64, len(ids)),
	}
	for i, id := range ids {
		c.index[id] = i
		c.t0[i] = make([]float64, measures)
		c.values[i] = make([][][]float64, len(dates))
		for j := range c.values[i] {
			c.values[i][j] = make([][]float64, samples)
			for k := range c.values[i][j] {
				c.values[i][j][k] = make([]float64, measures)
			}
		}
	}
	return c
}

// IDs returns the id axis in storage order.
func (c *ExposureCube) IDs() []string { return c.ids }

// Dates returns the date axis.
func (c *ExposureCube) Dates() []time.Time { return c.dates }

// Samples returns the sample axis length (1 for single-path cubes).
func (c *ExposureCube) Samples() int { return c.samples }

// SetT0 stores the time-0 value for (id index i, measure m).
func (c *ExposureCube) SetT0(v float64, i, m int) { c.t0[i][m] = v }

// T0 returns the time-0 value for (id index i, measure m).
func (c *ExposureCube) T0(i, m int) float64 { return c.t0[i][m] }

// Set stores v at (id index i, date j, sample k, measure m).
func (c *ExposureCube) Set(v float64, i, j, k, m int) { c.values[i][j][k][m] = v }

// Get returns the value at (id index i, date j, sample k, measure m).
func (c *ExposureCube) Get(i, j, k, m int) float64 { return c.values[i][j][k][m] }

// Index resolves an id to its storage index.
func (c *ExposureCube) Index(id string) (int, error) {
	i, ok := c.index[id]
	if !ok {
		return 0, fmt.Errorf("exposure cube: unknown id %q", id)
	}
	return i, nil
}

// MeanExposure returns the sample-averaged series of measure m for id,
// one value per cube date.
func (c *ExposureCube) MeanExposure(id string, m int) ([]float64, error) {
	i, err := c.Index(id)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(c.dates))
	for j := range c.dates {
		sum := 0.0
		for k := 0; k < c.samples; k++ {
			sum += c.values[i][j][k][m]
		}
		out[j] = sum / float64(c.samples)
	}
	return out, nil
}
