package webui

import (
	"net/http"
	"strconv"

	"gioui.org/f32"

	"github.com/metaflame/internal/colorscheme"
	"github.com/metaflame/internal/geometry"
	"github.com/metaflame/internal/picking"
	"github.com/metaflame/internal/session"
	"github.com/metaflame/internal/viewtree"
	"github.com/metaflame/pkg/compression"
	apperrors "github.com/metaflame/pkg/errors"
	"github.com/metaflame/pkg/model"
	"github.com/metaflame/pkg/writer"
)

// InfoResponse describes the loaded trace and every view's settings.
type InfoResponse struct {
	Info     model.TraceInfo                   `json:"info"`
	Scheme   string                            `json:"scheme"`
	Salt     uint32                            `json:"salt"`
	Settings map[session.View]session.Settings `json:"settings"`
}

// MeshResponse is one view's vertex and color buffers.
type MeshResponse struct {
	View string `json:"view"`
	*geometry.Mesh
}

// ViewRequest patches a view's settings. Absent fields keep their current value.
type ViewRequest struct {
	View        string   `json:"view"`
	Metric      *string  `json:"metric,omitempty"`
	Axis        *string  `json:"axis,omitempty"`
	Buckets     *int     `json:"buckets,omitempty"`
	Threads     *int     `json:"threads,omitempty"`
	Start       *uint64  `json:"start,omitempty"`
	End         *uint64  `json:"end,omitempty"`
	Spacing     *bool    `json:"spacing,omitempty"`
	MinFraction *float64 `json:"min_fraction,omitempty"`
	Thread      *int     `json:"thread,omitempty"`
}

// SelectRequest picks an overview slice either by bucket or by pointer position in a
// viewport.
type SelectRequest struct {
	View   string   `json:"view"`
	Bucket *int     `json:"bucket,omitempty"`
	X      *float32 `json:"x,omitempty"`
	Y      *float32 `json:"y,omitempty"`
	Width  float32  `json:"w,omitempty"`
	Height float32  `json:"h,omitempty"`
}

// RecolorRequest assigns a color to every node with Name.
type RecolorRequest struct {
	Name  string           `json:"name"`
	Color colorscheme.RGBA `json:"color"`
}

// SchemeRequest changes the active scheme, the salt, or both.
type SchemeRequest struct {
	Scheme *string `json:"scheme,omitempty"`
	Salt   *uint32 `json:"salt,omitempty"`
}

// LookupResponse reports the inspector node under a pointer.
type LookupResponse struct {
	Hit     bool           `json:"hit"`
	Node    *viewtree.Node `json:"node,omitempty"`
	Percent float64        `json:"percent,omitempty"`
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	scheme, salt := s.session.Scheme()
	settings := make(map[session.View]session.Settings, len(session.AllViews))
	for _, v := range session.AllViews {
		settings[v] = s.session.Settings(v)
	}
	s.writeJSON(w, http.StatusOK, InfoResponse{
		Info:     s.session.Info(),
		Scheme:   scheme.String(),
		Salt:     salt,
		Settings: settings,
	})
}

func (s *Server) handleMesh(w http.ResponseWriter, r *http.Request) {
	v, err := session.ParseView(r.URL.Query().Get("view"))
	if err != nil {
		s.writeError(w, apperrors.Wrap(apperrors.CodeInvalidInput, "invalid view", err))
		return
	}
	mesh := s.session.Mesh(v)

	if r.URL.Query().Get("format") == "bin" {
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("X-Vertex-Count", strconv.Itoa(len(mesh.Vertices)))
		if _, err := writer.NewBufferWriter(compression.TypeNone).Write(mesh.Buffer(), w); err != nil {
			s.logger.Error("Failed to write mesh buffer: %v", err)
		}
		return
	}
	s.writeJSON(w, http.StatusOK, MeshResponse{View: string(v), Mesh: mesh})
}

func (s *Server) handleInspectorTree(w http.ResponseWriter, r *http.Request) {
	vt := s.session.InspectorTree()
	if vt == nil {
		s.writeError(w, apperrors.New(apperrors.CodeNotFound, "inspector has not been rendered"))
		return
	}
	s.writeJSON(w, http.StatusOK, vt)
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	var req ViewRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	v, err := session.ParseView(req.View)
	if err != nil {
		s.writeError(w, apperrors.Wrap(apperrors.CodeInvalidInput, "invalid view", err))
		return
	}

	st := s.session.Settings(v)
	if err := req.apply(&st); err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.session.SetSettings(r.Context(), v, st); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.session.Settings(v))
}

func (req *ViewRequest) apply(st *session.Settings) error {
	if req.Metric != nil {
		m, err := model.ParseMetric(*req.Metric)
		if err != nil {
			return apperrors.Wrap(apperrors.CodeInvalidInput, "invalid metric", err)
		}
		st.Metric = m
	}
	if req.Axis != nil {
		a, err := model.ParseAxis(*req.Axis)
		if err != nil {
			return apperrors.Wrap(apperrors.CodeInvalidInput, "invalid axis", err)
		}
		st.Axis = a
	}
	if req.Buckets != nil {
		st.NumBuckets = *req.Buckets
	}
	if req.Threads != nil {
		st.NumThreads = *req.Threads
	}
	if req.Start != nil {
		st.Range.Start = *req.Start
	}
	if req.End != nil {
		st.Range.End = *req.End
	}
	if req.Spacing != nil {
		st.BarSpacing = *req.Spacing
	}
	if req.MinFraction != nil {
		st.MinFraction = *req.MinFraction
	}
	if req.Thread != nil {
		st.Thread = *req.Thread
	}
	return nil
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req SelectRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	v, err := session.ParseView(req.View)
	if err != nil {
		s.writeError(w, apperrors.Wrap(apperrors.CodeInvalidInput, "invalid view", err))
		return
	}

	var bucket int
	switch {
	case req.Bucket != nil:
		bucket = *req.Bucket
	case req.X != nil && req.Y != nil:
		rect := picking.Rect{Max: f32.Pt(req.Width, req.Height)}
		b, ok := s.session.PickSlice(v, rect, f32.Pt(*req.X, *req.Y))
		if !ok {
			s.writeJSON(w, http.StatusOK, map[string]interface{}{"selected": false})
			return
		}
		bucket = b
	default:
		s.writeError(w, apperrors.New(apperrors.CodeInvalidInput, "either bucket or x and y are required"))
		return
	}

	if err := s.session.SelectSlice(r.Context(), v, bucket); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"selected": true,
		"bucket":   bucket,
		"settings": s.session.Settings(session.ViewInspector),
	})
}

func (s *Server) handleRecolor(w http.ResponseWriter, r *http.Request) {
	var req RecolorRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if req.Name == "" {
		s.writeError(w, apperrors.New(apperrors.CodeInvalidInput, "name is required"))
		return
	}
	if err := s.session.Recolor(r.Context(), req.Name, req.Color); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"name": req.Name, "color": req.Color})
}

func (s *Server) handleScheme(w http.ResponseWriter, r *http.Request) {
	var req SchemeRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if req.Scheme == nil && req.Salt == nil {
		s.writeError(w, apperrors.New(apperrors.CodeInvalidInput, "scheme or salt is required"))
		return
	}
	if req.Scheme != nil {
		scheme, err := colorscheme.ParseScheme(*req.Scheme)
		if err != nil {
			s.writeError(w, apperrors.Wrap(apperrors.CodeInvalidInput, "invalid scheme", err))
			return
		}
		if err := s.session.SetScheme(r.Context(), scheme); err != nil {
			s.writeError(w, err)
			return
		}
	}
	if req.Salt != nil {
		if err := s.session.SetSalt(r.Context(), *req.Salt); err != nil {
			s.writeError(w, err)
			return
		}
	}
	scheme, salt := s.session.Scheme()
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"scheme": scheme.String(), "salt": salt})
}

func (s *Server) handleLookup(w http.ResponseWriter, r *http.Request) {
	var coords [4]float32
	for i, key := range []string{"x", "y", "w", "h"} {
		f, err := queryFloat(r, key)
		if err != nil {
			s.writeError(w, err)
			return
		}
		coords[i] = f
	}

	rect := picking.Rect{Max: f32.Pt(coords[2], coords[3])}
	node, ok := s.session.Lookup(rect, f32.Pt(coords[0], coords[1]))
	if !ok {
		s.writeJSON(w, http.StatusOK, LookupResponse{})
		return
	}

	resp := LookupResponse{Hit: true, Node: shallow(node)}
	if vt := s.session.InspectorTree(); vt != nil {
		resp.Percent = node.Percent(s.session.Settings(session.ViewInspector).Metric, vt.Root)
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// shallow drops children so lookups don't serialize whole subtrees.
func shallow(n *viewtree.Node) *viewtree.Node {
	c := *n
	c.Children = nil
	return &c
}

func (s *Server) handleHighlight(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		s.writeError(w, apperrors.New(apperrors.CodeInvalidInput, "name is required"))
		return
	}
	mode, err := session.ParseHighlightMode(r.URL.Query().Get("mode"))
	if err != nil {
		s.writeError(w, apperrors.Wrap(apperrors.CodeInvalidInput, "invalid highlight mode", err))
		return
	}
	meshes, err := s.session.Highlight(name, mode)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, meshes)
}

func (s *Server) handleListExports(w http.ResponseWriter, r *http.Request) {
	if s.exports == nil {
		s.writeError(w, apperrors.New(apperrors.CodeNotFound, "export history is not enabled"))
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			s.writeError(w, apperrors.Newf(apperrors.CodeInvalidInput, "invalid limit %q", raw))
			return
		}
		limit = n
	}
	exports, err := s.exports.List(r.Context(), r.URL.Query().Get("dataset"), limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if exports == nil {
		exports = []*model.Export{}
	}
	s.writeJSON(w, http.StatusOK, exports)
}
