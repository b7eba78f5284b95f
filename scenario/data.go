package scenario

import (
	"errors"
	"fmt"
)

// DataType classifies a simulated market data series.
type DataType int

const (
	// FXSpot series are keyed by currency pair, e.g. "EURUSD".
	FXSpot DataType = iota
	// IndexFixing series are keyed by index name, e.g. "EUR-EONIA".
	IndexFixing
)

func (t DataType) String() string {
	switch t {
	case FXSpot:
		return "FXSpot"
	case IndexFixing:
		return "IndexFixing"
	default:
		return fmt.Sprintf("DataType(%d)", int(t))
	}
}

// ErrMissingSeries is returned when a required scenario series is absent.
// Per the engine's error taxonomy this is a fatal precondition failure.
var ErrMissingSeries = errors.New("scenario data series missing")

// Data supplies simulated market data aligned with the scenario cube:
// one value per (date index, sample index) for each (type, key) series.
type Data interface {
	Has(t DataType, key string) bool
	Get(j, k int, t DataType, key string) (float64, error)
}

type seriesKey struct {
	t   DataType
	key string
}

// MapData is a map-backed Data implementation holding dense
// [date][sample] matrices per series.
type MapData struct {
	series map[seriesKey][][]float64
}

// NewMapData returns an empty scenario data container.
func NewMapData() *MapData {
	return &MapData{series: make(map[seriesKey][][]float64)}
}

// Add registers a [date][sample] matrix for (t, key).
func (d *MapData) Add(t DataType, key string, values [][]float64) {
	d.series[seriesKey{t, key}] = values
}

// Has reports whether the series (t, key) is available.
func (d *MapData) Has(t DataType, key string) bool {
	_, ok := d.series[seriesKey{t, key}]
	return ok
}

// Get returns the value at (date j, sample k) for series (t, key).
func (d *MapData) Get(j, k int, t DataType, key string) (float64, error) {
	m, ok := d.series[seriesKey{t, key}]
	if !ok {
		return 0, fmt.Errorf("%w: %s %q", ErrMissingSeries, t, key)
	}
	if j < 0 || j >= len(m) || k < 0 || k >= len(m[j]) {
		return 0, fmt.Errorf("%w: %s %q has no entry for date %d sample %d", ErrMissingSeries, t, key, j, k)
	}
	return m[j][k], nil
}
