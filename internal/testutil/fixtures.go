// Package testutil provides trace fixtures and helpers for testing.
package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/metaflame/pkg/model"
)

// NewTrace builds a trace record. stack is given innermost frame first, the order the
// profiler emits it.
func NewTrace(name string, start, dur, value uint64, tid int, stack ...string) model.Trace {
	frames := make([]model.StackFrame, len(stack))
	for i, s := range stack {
		frames[i] = model.StackFrame{Name: s}
	}
	return model.Trace{Name: name, Stack: frames, Start: start, Dur: dur, Value: value, TID: tid}
}

// SimpleTraces returns a small batch over [0,250) on two threads:
//
//	root
//	└── main
//	    ├── work
//	    │   ├── leaf_a  [0,100)   tid 0 value 10
//	    │   └── leaf_b  [100,200) tid 1 value 20
//	    └── io          [200,250) tid 0 value 5
func SimpleTraces() []model.Trace {
	traces := []model.Trace{
		NewTrace("leaf_a", 0, 100, 10, 0, "work", "main"),
		NewTrace("leaf_b", 100, 100, 20, 1, "work", "main"),
		NewTrace("io", 200, 50, 5, 0, "main"),
	}
	for i := range traces {
		traces[i].ID = i
	}
	return traces
}

// SimpleTracesJSON returns SimpleTraces encoded as a JSON array.
func SimpleTracesJSON(t *testing.T) []byte {
	t.Helper()
	data, err := json.Marshal(SimpleTraces())
	if err != nil {
		t.Fatalf("failed to encode traces: %v", err)
	}
	return data
}

// GetTestDataPath returns the absolute path to a file in the testdata directory.
// It searches for testdata in the caller's directory and parent directories.
func GetTestDataPath(t *testing.T, filename string) string {
	t.Helper()

	_, callerFile, _, ok := runtime.Caller(1)
	if !ok {
		t.Fatal("failed to get caller file path")
	}

	dir := filepath.Dir(callerFile)
	for i := 0; i < 5; i++ {
		testdataPath := filepath.Join(dir, "testdata", filename)
		if _, err := os.Stat(testdataPath); err == nil {
			return testdataPath
		}
		dir = filepath.Dir(dir)
	}

	return filepath.Join("testdata", filename)
}

// LoadFixture loads a test fixture file and returns its contents.
func LoadFixture(t *testing.T, filename string) []byte {
	t.Helper()
	path := GetTestDataPath(t, filename)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to load fixture %s: %v", filename, err)
	}
	return data
}

// LoadFixtureReader loads a test fixture file and returns an io.Reader.
func LoadFixtureReader(t *testing.T, filename string) io.Reader {
	return bytes.NewReader(LoadFixture(t, filename))
}

// WriteFile writes content to a file in the given directory.
func WriteFile(t *testing.T, dir, filename string, content []byte) string {
	t.Helper()
	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	return path
}
