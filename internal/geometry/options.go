package geometry

import "github.com/metaflame/pkg/model"

// Default bucket counts.
const (
	DefaultOverviewBuckets  = 5
	DefaultInspectorBuckets = 1
)

// Options are the settings of one rendered view.
type Options struct {
	Metric     model.Metric    `json:"metric"`
	Axis       model.Axis      `json:"axis"`
	NumBuckets int             `json:"num_buckets"`
	NumThreads int             `json:"num_threads"`
	Range      model.TimeRange `json:"range"`
	BarSpacing bool            `json:"bar_spacing"`
	// MinFraction drops overview cuboids narrower than this share of the tallest bucket.
	MinFraction float64 `json:"min_fraction"`
}

// NewOverviewOptions covers the whole trace in DefaultOverviewBuckets time buckets.
func NewOverviewOptions(info model.TraceInfo) Options {
	return Options{
		Metric:     model.MetricDuration,
		Axis:       model.AxisTime,
		NumBuckets: DefaultOverviewBuckets,
		NumThreads: info.NumThreads,
		Range:      info.Range(),
	}
}

// NewInspectorOptions shows the first fifth of the trace in a single bucket.
func NewInspectorOptions(info model.TraceInfo) Options {
	r := info.Range()
	return Options{
		Metric:     model.MetricDuration,
		Axis:       model.AxisTime,
		NumBuckets: DefaultInspectorBuckets,
		NumThreads: info.NumThreads,
		Range:      model.TimeRange{Start: r.Start, End: r.Start + r.Len()/DefaultOverviewBuckets},
	}
}

// Divisions returns the number of breadth slots: buckets on the time axis, threads on
// the thread axis.
func (o Options) Divisions() int {
	if o.Axis == model.AxisThread {
		return o.NumThreads
	}
	return o.NumBuckets
}
