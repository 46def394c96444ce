package webui

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metaflame/internal/colorscheme"
	"github.com/metaflame/internal/geometry"
	"github.com/metaflame/internal/mock"
	"github.com/metaflame/internal/session"
	"github.com/metaflame/internal/testutil"
	"github.com/metaflame/pkg/model"
	"github.com/metaflame/pkg/writer"
)

func newTestServer(t *testing.T, opts ...Option) (*Server, *session.Session) {
	t.Helper()
	sess, err := session.New(context.Background(), testutil.SimpleTraces())
	require.NoError(t, err)
	return NewServer(sess, "127.0.0.1:0", nil, opts...), sess
}

func do(t *testing.T, s *Server, method, target string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHandleInfo(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/api/info", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	resp := decode[InfoResponse](t, rec)
	assert.Equal(t, uint64(250), resp.Info.End)
	assert.Equal(t, "rainbow", resp.Scheme)
	require.Len(t, resp.Settings, 3)
	assert.Equal(t, geometry.DefaultOverviewBuckets, resp.Settings[session.ViewLeft].NumBuckets)
}

func TestHandleMesh(t *testing.T) {
	s, sess := newTestServer(t)

	t.Run("JSON", func(t *testing.T) {
		rec := do(t, s, http.MethodGet, "/api/mesh?view=left", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		resp := decode[MeshResponse](t, rec)
		assert.Equal(t, "left", resp.View)
		assert.Len(t, resp.Vertices, sess.Mesh(session.ViewLeft).Len())
		assert.Len(t, resp.Colors, sess.Mesh(session.ViewLeft).Len())
	})

	t.Run("Binary", func(t *testing.T) {
		rec := do(t, s, http.MethodGet, "/api/mesh?view=inspector&format=bin", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/octet-stream", rec.Header().Get("Content-Type"))

		mesh := sess.Mesh(session.ViewInspector)
		assert.Equal(t, "18", rec.Header().Get("X-Vertex-Count"))
		floats, err := writer.ReadFloat32s(rec.Body)
		require.NoError(t, err)
		assert.Equal(t, mesh.Buffer(), floats)
	})

	t.Run("UnknownView", func(t *testing.T) {
		rec := do(t, s, http.MethodGet, "/api/mesh?view=top", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		resp := decode[errorResponse](t, rec)
		assert.Equal(t, "INVALID_INPUT", resp.Code)
	})
}

func TestHandleInspectorTree(t *testing.T) {
	s, sess := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/api/inspector/tree", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"name":"leaf_a"`)

	want, err := json.Marshal(sess.InspectorTree())
	require.NoError(t, err)
	testutil.AssertJSONEqual(t, string(want), rec.Body.String())
}

func TestHandleView(t *testing.T) {
	s, sess := newTestServer(t)

	axis := "thread"
	rec := do(t, s, http.MethodPost, "/api/view", ViewRequest{View: "left", Axis: &axis})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	st := sess.Settings(session.ViewLeft)
	assert.Equal(t, model.AxisThread, st.Axis)
	assert.Equal(t, geometry.DefaultOverviewBuckets, st.NumBuckets, "untouched fields keep their value")
	assert.Equal(t, 7*geometry.VertsPerCuboid, sess.Mesh(session.ViewLeft).Len())

	t.Run("Invalid", func(t *testing.T) {
		negative := -3
		metric := "latency"
		for _, req := range []ViewRequest{
			{View: "left", Buckets: &negative},
			{View: "left", Metric: &metric},
			{View: "middle"},
		} {
			rec := do(t, s, http.MethodPost, "/api/view", req)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		}
	})

	t.Run("TooManyDivisions", func(t *testing.T) {
		huge := 1 << 62
		for _, req := range []ViewRequest{
			{View: "left", Axis: &axis, Threads: &huge},
			{View: "right", Buckets: &huge},
			{View: "inspector", Thread: &huge},
		} {
			rec := do(t, s, http.MethodPost, "/api/view", req)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			assert.Equal(t, "INVALID_INPUT", decode[errorResponse](t, rec).Code)
		}
		assert.Equal(t, 7*geometry.VertsPerCuboid, sess.Mesh(session.ViewLeft).Len())
	})

	t.Run("UnknownField", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/view", strings.NewReader(`{"view":"left","zoom":2}`))
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandleSelect(t *testing.T) {
	s, sess := newTestServer(t)

	t.Run("Bucket", func(t *testing.T) {
		bucket := 2
		rec := do(t, s, http.MethodPost, "/api/select", SelectRequest{View: "left", Bucket: &bucket})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, model.TimeRange{Start: 100, End: 150}, sess.Settings(session.ViewInspector).Range)
	})

	t.Run("Pointer", func(t *testing.T) {
		x, y := float32(50), float32(250)
		rec := do(t, s, http.MethodPost, "/api/select",
			SelectRequest{View: "right", X: &x, Y: &y, Width: 500, Height: 500})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, model.TimeRange{Start: 0, End: 50}, sess.Settings(session.ViewInspector).Range)
	})

	t.Run("Missing", func(t *testing.T) {
		rec := do(t, s, http.MethodPost, "/api/select", SelectRequest{View: "left"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("OutOfRange", func(t *testing.T) {
		bucket := 9
		rec := do(t, s, http.MethodPost, "/api/select", SelectRequest{View: "left", Bucket: &bucket})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandleRecolorAndScheme(t *testing.T) {
	s, sess := newTestServer(t)
	red := colorscheme.RGBA{1, 0, 0, 1}

	rec := do(t, s, http.MethodPost, "/api/recolor", RecolorRequest{Name: "io", Color: red})
	require.Equal(t, http.StatusOK, rec.Code)
	c, _ := sess.ColorOf("io")
	assert.Equal(t, red, c)

	rec = do(t, s, http.MethodPost, "/api/recolor", RecolorRequest{Name: "nope", Color: red})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	scheme := "flame"
	salt := uint32(4)
	rec = do(t, s, http.MethodPost, "/api/scheme", SchemeRequest{Scheme: &scheme, Salt: &salt})
	require.Equal(t, http.StatusOK, rec.Code)
	got, gotSalt := sess.Scheme()
	assert.Equal(t, colorscheme.Flame, got)
	assert.Equal(t, uint32(4), gotSalt)

	bad := "sepia"
	rec = do(t, s, http.MethodPost, "/api/scheme", SchemeRequest{Scheme: &bad})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = do(t, s, http.MethodPost, "/api/scheme", SchemeRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleLookup(t *testing.T) {
	s, _ := newTestServer(t)

	// The bottom row of an 800x600 viewport is the first flamegraph level.
	rec := do(t, s, http.MethodGet, "/api/lookup?x=200&y=590&w=800&h=600", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[LookupResponse](t, rec)
	require.True(t, resp.Hit)
	assert.Equal(t, "main", resp.Node.Name)
	assert.Empty(t, resp.Node.Children)
	assert.InDelta(t, 100, resp.Percent, 1e-9)

	rec = do(t, s, http.MethodGet, "/api/lookup?x=400&y=1&w=800&h=600", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[LookupResponse](t, rec).Hit)

	rec = do(t, s, http.MethodGet, "/api/lookup?x=abc&y=1&w=800&h=600", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleHighlight(t *testing.T) {
	s, _ := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/api/highlight?name=io&mode=darken", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[map[string]*geometry.Mesh](t, rec)
	assert.Contains(t, resp, "left")
	assert.Contains(t, resp, "right")

	rec = do(t, s, http.MethodGet, "/api/highlight?name=nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = do(t, s, http.MethodGet, "/api/highlight?name=io&mode=blur", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleListExports(t *testing.T) {
	t.Run("Disabled", func(t *testing.T) {
		s, _ := newTestServer(t)
		rec := do(t, s, http.MethodGet, "/api/exports", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("Enabled", func(t *testing.T) {
		repo := new(mock.MockExportRepository)
		repo.ExpectList("job.json", 10, []*model.Export{{ID: 1, Dataset: "job.json", View: "left"}}, nil)
		s, _ := newTestServer(t, WithExports(repo))

		rec := do(t, s, http.MethodGet, "/api/exports?dataset=job.json&limit=10", nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		resp := decode[[]model.Export](t, rec)
		require.Len(t, resp, 1)
		assert.Equal(t, "left", resp[0].View)
		repo.AssertExpectations(t)
	})

	t.Run("BadLimit", func(t *testing.T) {
		s, _ := newTestServer(t, WithExports(new(mock.MockExportRepository)))
		rec := do(t, s, http.MethodGet, "/api/exports?limit=-1", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestMethodNotAllowed(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s, http.MethodDelete, "/api/info", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestShutdown_BeforeStart(t *testing.T) {
	s, _ := newTestServer(t)
	assert.NoError(t, s.Shutdown(context.Background()))
}

func TestStart_AfterShutdown(t *testing.T) {
	s, _ := newTestServer(t)
	require.NoError(t, s.Shutdown(context.Background()))
	assert.NoError(t, s.Start())
}
