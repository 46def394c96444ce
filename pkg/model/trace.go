// Package model defines the core data structures used throughout the application.
package model

import (
	"fmt"
	"strings"
)

// StackFrame is one frame of a recorded call stack.
type StackFrame struct {
	Name string `json:"name"`
}

// Trace is a single timed execution event as emitted by the profiler.
// Stack is ordered innermost frame first.
type Trace struct {
	ID    int          `json:"id"`
	Name  string       `json:"name"`
	Stack []StackFrame `json:"stack"`
	Start uint64       `json:"start"`
	Dur   uint64       `json:"dur"`
	Value uint64       `json:"value"`
	TID   int          `json:"tid"`
}

// End returns the exclusive end timestamp of the trace.
func (t *Trace) End() uint64 {
	return t.Start + t.Dur
}

// TimeRange is a half-open interval [Start, End).
type TimeRange struct {
	Start uint64 `json:"start"`
	End   uint64 `json:"end"`
}

// Len returns the width of the range, or 0 if End is not after Start.
func (r TimeRange) Len() uint64 {
	if r.End <= r.Start {
		return 0
	}
	return r.End - r.Start
}

// String returns the range formatted as [start,end).
func (r TimeRange) String() string {
	return fmt.Sprintf("[%d,%d)", r.Start, r.End)
}

// Metric selects which aggregated quantity is drawn.
type Metric int

const (
	MetricDuration Metric = 0 // time spent
	MetricValue    Metric = 1 // secondary per-trace value
)

// String returns the string representation of Metric.
func (m Metric) String() string {
	switch m {
	case MetricDuration:
		return "duration"
	case MetricValue:
		return "value"
	default:
		return "unknown"
	}
}

// ParseMetric parses a metric name.
func ParseMetric(s string) (Metric, error) {
	switch strings.ToLower(s) {
	case "duration", "dur", "0":
		return MetricDuration, nil
	case "value", "val", "1":
		return MetricValue, nil
	default:
		return 0, fmt.Errorf("unknown metric: %s", s)
	}
}

// Axis selects what the overview spreads buckets across.
type Axis int

const (
	AxisTime   Axis = 0
	AxisThread Axis = 1
)

// String returns the string representation of Axis.
func (a Axis) String() string {
	switch a {
	case AxisTime:
		return "time"
	case AxisThread:
		return "thread"
	default:
		return "unknown"
	}
}

// ParseAxis parses an axis name.
func ParseAxis(s string) (Axis, error) {
	switch strings.ToLower(s) {
	case "time", "0":
		return AxisTime, nil
	case "thread", "threads", "1":
		return AxisThread, nil
	default:
		return 0, fmt.Errorf("unknown axis: %s", s)
	}
}

// TraceInfo summarizes a batch of traces.
type TraceInfo struct {
	MaxDepth   int    `json:"max_depth"`
	NumThreads int    `json:"num_threads"`
	Start      uint64 `json:"start"`
	End        uint64 `json:"end"`
	Nodes      uint64 `json:"nodes"`
}

// Range returns the full time span covered by the traces.
func (i TraceInfo) Range() TimeRange {
	return TimeRange{Start: i.Start, End: i.End}
}

// ComputeInfo gathers depth, thread count and time bounds from traces.
// An empty batch yields NumThreads 1, matching a single implicit thread 0.
func ComputeInfo(traces []Trace) TraceInfo {
	info := TraceInfo{Nodes: uint64(len(traces))}
	maxTID := 0
	for i := range traces {
		t := &traces[i]
		if len(t.Stack) > info.MaxDepth {
			info.MaxDepth = len(t.Stack)
		}
		if t.TID > maxTID {
			maxTID = t.TID
		}
		if i == 0 || t.Start < info.Start {
			info.Start = t.Start
		}
		if t.End() > info.End {
			info.End = t.End()
		}
	}
	info.NumThreads = maxTID + 1
	return info
}
