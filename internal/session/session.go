// Package session hosts one dataset: its aggregate tree and the rendered left overview,
// right overview and inspector views.
//
// The tree is guarded by a read/write lock. Views are rebuilt concurrently under the read
// lock; recoloring takes the write lock. Settings and rendered meshes sit behind a second
// mutex and are replaced wholesale, never mutated in place.
package session

import (
	"context"
	"sync"

	"gioui.org/f32"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/metaflame/internal/calltree"
	"github.com/metaflame/internal/colorscheme"
	"github.com/metaflame/internal/geometry"
	"github.com/metaflame/internal/picking"
	"github.com/metaflame/internal/viewtree"
	apperrors "github.com/metaflame/pkg/errors"
	"github.com/metaflame/pkg/model"
	"github.com/metaflame/pkg/telemetry"
	"github.com/metaflame/pkg/utils"
)

// Session owns a dataset and its views.
type Session struct {
	treeMu sync.RWMutex
	tree   *calltree.Tree

	info            model.TraceInfo
	logger          utils.Logger
	clock           utils.Clock
	inspectorHeight float32

	mu        sync.Mutex
	rev       uint64
	settings  map[View]Settings
	rendered  map[View]rendered
	inspector *viewtree.Tree
}

type rendered struct {
	rev      uint64
	settings Settings
	mesh     *geometry.Mesh
	tree     *viewtree.Tree
}

// MaxDivisions bounds the bucket count, the thread count and the inspector thread.
const MaxDivisions = 1 << 16

// Option configures a Session.
type Option func(*config)

type config struct {
	logger          utils.Logger
	clock           utils.Clock
	inspectorHeight float32
	treeOpts        []calltree.Option
	overview        func(*Settings)
}

// WithLogger sets the session logger.
func WithLogger(logger utils.Logger) Option {
	return func(c *config) { c.logger = logger }
}

// WithClock sets the clock used to time regenerations.
func WithClock(clock utils.Clock) Option {
	return func(c *config) { c.clock = clock }
}

// WithInspectorHeight sets the number of flamegraph levels the inspector viewport shows.
func WithInspectorHeight(h float32) Option {
	return func(c *config) { c.inspectorHeight = h }
}

// WithTreeOptions passes options to the aggregate tree build.
func WithTreeOptions(opts ...calltree.Option) Option {
	return func(c *config) { c.treeOpts = append(c.treeOpts, opts...) }
}

// WithOverviewDefaults adjusts the initial settings of both overviews.
func WithOverviewDefaults(fn func(*Settings)) Option {
	return func(c *config) { c.overview = fn }
}

// New builds the aggregate tree from traces and renders every view.
func New(ctx context.Context, traces []model.Trace, opts ...Option) (*Session, error) {
	cfg := &config{
		logger:          &utils.NullLogger{},
		clock:           utils.NewRealClock(),
		inspectorHeight: picking.DefaultInspectorHeight,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	ctx, span := telemetry.StartSpan(ctx, "session.New", attribute.Int("traces", len(traces)))
	defer span.End()

	tree, err := calltree.Build(ctx, traces, cfg.treeOpts...)
	if err != nil {
		return nil, telemetry.RecordError(span, err)
	}
	info := model.ComputeInfo(traces)

	overview := Settings{Options: geometry.NewOverviewOptions(info)}
	overview.NumThreads = min(overview.NumThreads, MaxDivisions)
	if cfg.overview != nil {
		cfg.overview(&overview)
	}
	if err := validateSettings(overview); err != nil {
		return nil, telemetry.RecordError(span, err)
	}
	inspector := Settings{Options: geometry.NewInspectorOptions(info)}
	inspector.NumThreads = min(inspector.NumThreads, MaxDivisions)
	inspector.Metric = overview.Metric

	s := &Session{
		tree:            tree,
		info:            info,
		logger:          cfg.logger,
		clock:           cfg.clock,
		inspectorHeight: cfg.inspectorHeight,
		settings: map[View]Settings{
			ViewLeft:      overview,
			ViewRight:     overview,
			ViewInspector: inspector,
		},
		rendered: make(map[View]rendered, len(AllViews)),
	}
	s.logger.Info("Loaded %d traces: %d nodes, %d threads, range %s",
		len(traces), tree.NodeCount(), info.NumThreads, info.Range())

	if err := s.Regenerate(ctx, AllViews...); err != nil {
		return nil, err
	}
	return s, nil
}

// Info returns the trace summary.
func (s *Session) Info() model.TraceInfo {
	return s.info
}

// Settings returns the current settings of v.
func (s *Session) Settings(v View) Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings[v]
}

// Mesh returns the last rendered mesh of v. Meshes are never mutated after rendering.
func (s *Session) Mesh(v View) *geometry.Mesh {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.rendered[v]; ok {
		return r.mesh
	}
	return &geometry.Mesh{}
}

// Snapshot returns a mesh of v together with the settings it was rendered from.
func (s *Session) Snapshot(v View) (Settings, *geometry.Mesh) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.rendered[v]; ok {
		return r.settings, r.mesh
	}
	return s.settings[v], &geometry.Mesh{}
}

// InspectorTree returns the view tree behind the inspector mesh.
func (s *Session) InspectorTree() *viewtree.Tree {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inspector
}

// InspectorHeight returns the number of flamegraph levels the inspector shows.
func (s *Session) InspectorHeight() float32 {
	return s.inspectorHeight
}

// Regenerate rebuilds views concurrently from the current tree and settings.
func (s *Session) Regenerate(ctx context.Context, views ...View) error {
	if len(views) == 0 {
		return nil
	}
	ctx, span := telemetry.StartSpan(ctx, "session.Regenerate", attribute.Int("views", len(views)))
	defer span.End()

	start := s.clock.Now()

	s.treeMu.RLock()
	defer s.treeMu.RUnlock()

	s.mu.Lock()
	rev := s.rev
	snapshot := make([]Settings, len(views))
	for i, v := range views {
		snapshot[i] = s.settings[v]
	}
	s.mu.Unlock()

	results := make([]rendered, len(views))
	g, gctx := errgroup.WithContext(ctx)
	for i, v := range views {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = s.render(v, snapshot[i])
			results[i].rev = rev
			results[i].settings = snapshot[i]
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return telemetry.RecordError(span, err)
	}

	s.mu.Lock()
	for i, v := range views {
		if cur, ok := s.rendered[v]; ok && cur.rev > rev {
			continue
		}
		s.rendered[v] = results[i]
		if v == ViewInspector {
			s.inspector = results[i].tree
		}
	}
	s.mu.Unlock()

	s.logger.WithField("views", views).Debug("Regenerated in %s", s.clock.Since(start))
	return nil
}

// render must be called with the tree read lock held.
func (s *Session) render(v View, st Settings) rendered {
	if v != ViewInspector {
		return rendered{mesh: geometry.Overview(s.tree, st.Options)}
	}

	var vt *viewtree.Tree
	if st.Axis == model.AxisThread {
		vt = viewtree.BuildThread(s.tree, st.Thread)
	} else {
		vt = viewtree.BuildTime(s.tree, st.Range)
	}
	return rendered{mesh: geometry.Flamegraph(vt, st.Metric), tree: vt}
}

// SetSettings replaces the settings of v and rerenders it.
func (s *Session) SetSettings(ctx context.Context, v View, st Settings) error {
	if err := s.validate(v, st); err != nil {
		return err
	}
	s.mu.Lock()
	s.rev++
	s.settings[v] = st
	s.mu.Unlock()
	return s.Regenerate(ctx, v)
}

func (s *Session) validate(v View, st Settings) error {
	if _, err := ParseView(string(v)); err != nil {
		return apperrors.Wrap(apperrors.CodeInvalidInput, "invalid view", err)
	}
	return validateSettings(st)
}

func validateSettings(st Settings) error {
	if st.Metric != model.MetricDuration && st.Metric != model.MetricValue {
		return apperrors.Newf(apperrors.CodeInvalidInput, "invalid metric: %d", st.Metric)
	}
	if st.Axis != model.AxisTime && st.Axis != model.AxisThread {
		return apperrors.Newf(apperrors.CodeInvalidInput, "invalid axis: %d", st.Axis)
	}
	if st.NumBuckets < 0 || st.NumThreads < 0 || st.Thread < 0 {
		return apperrors.New(apperrors.CodeInvalidInput, "bucket, thread and thread count must not be negative")
	}
	if st.NumBuckets > MaxDivisions || st.NumThreads > MaxDivisions || st.Thread > MaxDivisions {
		return apperrors.Newf(apperrors.CodeInvalidInput, "bucket, thread and thread count must not exceed %d", MaxDivisions)
	}
	if st.MinFraction < 0 || st.MinFraction >= 1 {
		return apperrors.Newf(apperrors.CodeInvalidInput, "min fraction must be in [0,1): %g", st.MinFraction)
	}
	return nil
}

// SelectSlice points the inspector at bucket of overview v. On the time axis the
// inspector shows the bucket's sub-range; on the thread axis it shows thread bucket.
func (s *Session) SelectSlice(ctx context.Context, v View, bucket int) error {
	if !v.IsOverview() {
		return apperrors.Newf(apperrors.CodeInvalidInput, "view %q has no slices", v)
	}

	s.mu.Lock()
	src := s.settings[v]
	if bucket < 0 || bucket >= src.Divisions() {
		s.mu.Unlock()
		return apperrors.Newf(apperrors.CodeInvalidInput, "bucket %d out of range [0,%d)", bucket, src.Divisions())
	}
	insp := s.settings[ViewInspector]
	insp.Metric = src.Metric
	insp.Axis = src.Axis
	if src.Axis == model.AxisThread {
		insp.Thread = bucket
	} else {
		insp.Range = picking.SliceRange(src.Range, src.NumBuckets, bucket)
	}
	s.rev++
	s.settings[ViewInspector] = insp
	s.mu.Unlock()

	s.logger.Debug("Selected slice %d of %s view", bucket, v)
	return s.Regenerate(ctx, ViewInspector)
}

// PickSlice returns the overview bucket under pos in a viewport r.
func (s *Session) PickSlice(v View, r picking.Rect, pos f32.Point) (int, bool) {
	if !v.IsOverview() {
		return 0, false
	}
	return picking.Overview(s.Settings(v).Divisions(), r, pos)
}

// Recolor assigns color to every node named name and rerenders every view.
func (s *Session) Recolor(ctx context.Context, name string, color colorscheme.RGBA) error {
	return s.mutateTree(ctx, func(t *calltree.Tree) error {
		if len(t.Find(name)) == 0 {
			return apperrors.Newf(apperrors.CodeNotFound, "frame not found: %s", name)
		}
		t.ModifyColor(name, color)
		return nil
	})
}

// SetScheme switches the color scheme and rerenders every view.
func (s *Session) SetScheme(ctx context.Context, scheme colorscheme.Scheme) error {
	return s.mutateTree(ctx, func(t *calltree.Tree) error {
		t.SetScheme(scheme)
		return nil
	})
}

// SetSalt reseeds the color hash and rerenders every view.
func (s *Session) SetSalt(ctx context.Context, salt uint32) error {
	return s.mutateTree(ctx, func(t *calltree.Tree) error {
		t.SetSalt(salt)
		return nil
	})
}

// Scheme returns the current color scheme and salt.
func (s *Session) Scheme() (colorscheme.Scheme, uint32) {
	s.treeMu.RLock()
	defer s.treeMu.RUnlock()
	return s.tree.Scheme, s.tree.Salt
}

func (s *Session) mutateTree(ctx context.Context, fn func(*calltree.Tree) error) error {
	s.treeMu.Lock()
	err := fn(s.tree)
	if err == nil {
		s.mu.Lock()
		s.rev++
		s.mu.Unlock()
	}
	s.treeMu.Unlock()
	if err != nil {
		return err
	}
	return s.Regenerate(ctx, AllViews...)
}

// ColorOf returns the color of the first node named name.
func (s *Session) ColorOf(name string) (colorscheme.RGBA, bool) {
	s.treeMu.RLock()
	defer s.treeMu.RUnlock()
	for _, n := range s.tree.Find(name) {
		if n.Color != nil {
			return *n.Color, true
		}
	}
	return colorscheme.RGBA{}, false
}

// Highlight returns copies of both overview meshes with every node not colored like
// name hidden or darkened. Matching is by color, so distinct frames that share a color
// stay highlighted together.
func (s *Session) Highlight(name string, mode HighlightMode) (map[View]*geometry.Mesh, error) {
	color, ok := s.ColorOf(name)
	if !ok {
		return nil, apperrors.Newf(apperrors.CodeNotFound, "frame not found: %s", name)
	}

	apply := geometry.HideOthers
	if mode == HighlightDarken {
		apply = geometry.DarkenOthers
	}

	out := make(map[View]*geometry.Mesh, 2)
	for _, v := range []View{ViewLeft, ViewRight} {
		out[v] = apply(s.Mesh(v), color)
	}
	return out, nil
}

// Lookup returns the inspector node under pos in a viewport r.
func (s *Session) Lookup(r picking.Rect, pos f32.Point) (*viewtree.Node, bool) {
	s.mu.Lock()
	mesh := s.rendered[ViewInspector].mesh
	vt := s.inspector
	s.mu.Unlock()
	if vt == nil {
		return nil, false
	}

	_, n, ok := picking.Inspector(mesh, vt, r, pos, picking.InspectorTransform(s.inspectorHeight))
	return n, ok
}
