package calltree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metaflame/pkg/model"
)

func nodeWith(samples ...Sample) *Node {
	n := newNode("n", nil)
	n.Samples = samples
	return n
}

func TestTimeOverlaps(t *testing.T) {
	tests := []struct {
		name     string
		samples  []Sample
		buckets  int
		r        model.TimeRange
		expected []Aggregate
		ok       bool
	}{
		{
			name:     "SingleBucketFullCover",
			samples:  []Sample{{Start: 0, Dur: 10, Value: 7}},
			buckets:  1,
			r:        model.TimeRange{Start: 0, End: 10},
			expected: []Aggregate{{Dur: 10, Value: 7}},
			ok:       true,
		},
		{
			name:     "SplitAcrossBuckets",
			samples:  []Sample{{Start: 5, Dur: 10, Value: 100}},
			buckets:  2,
			r:        model.TimeRange{Start: 0, End: 20},
			expected: []Aggregate{{Dur: 5, Value: 0}, {Dur: 5, Value: 0}},
			ok:       true,
		},
		{
			name: "ZeroDurationIgnored",
			samples: []Sample{
				{Start: 2, Dur: 0, Value: 50},
				{Start: 0, Dur: 4, Value: 3},
			},
			buckets:  1,
			r:        model.TimeRange{Start: 0, End: 4},
			expected: []Aggregate{{Dur: 4, Value: 3}},
			ok:       true,
		},
		{
			name:    "NoOverlap",
			samples: []Sample{{Start: 100, Dur: 10, Value: 1}},
			buckets: 3,
			r:       model.TimeRange{Start: 0, End: 30},
			ok:      false,
		},
		{
			name:    "ZeroBuckets",
			samples: []Sample{{Start: 0, Dur: 10, Value: 1}},
			buckets: 0,
			r:       model.TimeRange{Start: 0, End: 10},
			ok:      false,
		},
		{
			name:    "InvertedRange",
			samples: []Sample{{Start: 0, Dur: 10, Value: 1}},
			buckets: 1,
			r:       model.TimeRange{Start: 10, End: 0},
			ok:      false,
		},
		{
			name:    "BucketWidthTruncatesToZero",
			samples: []Sample{{Start: 0, Dur: 10, Value: 1}},
			buckets: 5,
			r:       model.TimeRange{Start: 0, End: 4},
			ok:      false,
		},
		{
			name:     "EndIsExclusive",
			samples:  []Sample{{Start: 10, Dur: 5, Value: 1}},
			buckets:  2,
			r:        model.TimeRange{Start: 0, End: 20},
			expected: []Aggregate{{}, {Dur: 5, Value: 1}},
			ok:       true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := nodeWith(tt.samples...).TimeOverlaps(tt.buckets, tt.r)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.expected, got)
			} else {
				assert.Nil(t, got)
			}
		})
	}
}

func TestTimeOverlaps_Conservation(t *testing.T) {
	tree := buildSimple(t)
	r := model.TimeRange{Start: 0, End: 250}

	for _, buckets := range []int{1, 2, 5, 10, 25} {
		got, ok := tree.Root.TimeOverlaps(buckets, r)
		require.True(t, ok)

		var sum uint64
		for _, a := range got {
			sum += a.Dur
		}
		assert.Equal(t, uint64(250), sum, "buckets=%d", buckets)
	}
}

func TestTimeOverlaps_IntegerTruncation(t *testing.T) {
	// Half of a sample falls in each bucket, so (5/10)*value is zero in integer arithmetic.
	n := nodeWith(Sample{Start: 0, Dur: 10, Value: 1000})

	got, ok := n.TimeOverlaps(2, model.TimeRange{Start: 0, End: 10})
	require.True(t, ok)
	assert.Equal(t, []Aggregate{{Dur: 5}, {Dur: 5}}, got)

	got, ok = n.TimeOverlapsMode(2, model.TimeRange{Start: 0, End: 10}, ValueProportional)
	require.True(t, ok)
	assert.Equal(t, []Aggregate{{Dur: 5, Value: 500}, {Dur: 5, Value: 500}}, got)
}

func TestTimeOverlapsMode_ProportionalRoundsDown(t *testing.T) {
	n := nodeWith(Sample{Start: 0, Dur: 3, Value: 10})
	got, ok := n.TimeOverlapsMode(3, model.TimeRange{Start: 0, End: 3}, ValueProportional)
	require.True(t, ok)
	for _, a := range got {
		assert.Equal(t, Aggregate{Dur: 1, Value: 3}, a)
	}
}

func TestTimeOverlapsMode_LargeValuesDoNotOverflow(t *testing.T) {
	const big = uint64(1) << 62
	n := nodeWith(Sample{Start: 0, Dur: 4, Value: big})
	got, ok := n.TimeOverlapsMode(2, model.TimeRange{Start: 0, End: 4}, ValueProportional)
	require.True(t, ok)
	assert.Equal(t, big/2, got[0].Value)
}

func TestThreadOverlaps(t *testing.T) {
	tree := buildSimple(t)

	got := tree.Root.ThreadOverlaps(3)
	assert.Equal(t, []Aggregate{{Dur: 150, Value: 15}, {Dur: 100, Value: 20}, {}}, got)

	assert.Empty(t, tree.Root.ThreadOverlaps(0))
	assert.Empty(t, tree.Root.ThreadOverlaps(-1))

	io := tree.Find("io")[0]
	assert.Equal(t, []Aggregate{{Dur: 50, Value: 5}, {}}, io.ThreadOverlaps(2))
}

func TestSingleThreadOverlap(t *testing.T) {
	tree := buildSimple(t)

	assert.Equal(t, []Aggregate{{Dur: 100, Value: 20}}, tree.Root.SingleThreadOverlap(1))
	assert.Equal(t, []Aggregate{{}}, tree.Root.SingleThreadOverlap(42))
}

func TestOverlaps_Dispatch(t *testing.T) {
	tree := buildSimple(t)
	r := model.TimeRange{Start: 0, End: 250}

	byThread, ok := tree.Root.Overlaps(model.AxisThread, 5, 2, r, ValueTruncate)
	assert.True(t, ok)
	assert.Len(t, byThread, 2)

	byTime, ok := tree.Root.Overlaps(model.AxisTime, 5, 2, r, ValueTruncate)
	assert.True(t, ok)
	assert.Len(t, byTime, 5)
}

func TestAggregate_OfAndAdd(t *testing.T) {
	a := Aggregate{Dur: 3, Value: 4}
	assert.Equal(t, uint64(3), a.Of(model.MetricDuration))
	assert.Equal(t, uint64(4), a.Of(model.MetricValue))
	assert.Equal(t, Aggregate{Dur: 4, Value: 6}, a.Add(Aggregate{Dur: 1, Value: 2}))
}
