package testutil

import (
	"encoding/json"
	"math"
	"reflect"
	"testing"
)

// AssertJSONEqual asserts that two JSON documents are semantically equal.
func AssertJSONEqual(t *testing.T, expected, actual string) {
	t.Helper()

	var expectedJSON, actualJSON interface{}

	if err := json.Unmarshal([]byte(expected), &expectedJSON); err != nil {
		t.Fatalf("failed to parse expected JSON: %v", err)
	}

	if err := json.Unmarshal([]byte(actual), &actualJSON); err != nil {
		t.Fatalf("failed to parse actual JSON: %v", err)
	}

	if !reflect.DeepEqual(expectedJSON, actualJSON) {
		expectedPretty, _ := json.MarshalIndent(expectedJSON, "", "  ")
		actualPretty, _ := json.MarshalIndent(actualJSON, "", "  ")
		t.Errorf("JSON not equal:\nExpected:\n%s\n\nActual:\n%s", expectedPretty, actualPretty)
	}
}

// AssertFloat32sInDelta asserts element-wise closeness of two float32 slices.
func AssertFloat32sInDelta(t *testing.T, expected, actual []float32, delta float64) {
	t.Helper()
	if len(expected) != len(actual) {
		t.Errorf("expected length %d but got %d", len(expected), len(actual))
		return
	}
	for i := range expected {
		if math.Abs(float64(expected[i])-float64(actual[i])) > delta {
			t.Errorf("element %d: expected %v but got %v (delta %v)", i, expected[i], actual[i], delta)
		}
	}
}
