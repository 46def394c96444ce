// Package exporter renders session views and uploads them to object storage.
package exporter

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/metaflame/internal/geometry"
	"github.com/metaflame/internal/repository"
	"github.com/metaflame/internal/session"
	"github.com/metaflame/internal/storage"
	"github.com/metaflame/pkg/compression"
	apperrors "github.com/metaflame/pkg/errors"
	"github.com/metaflame/pkg/model"
	"github.com/metaflame/pkg/telemetry"
	"github.com/metaflame/pkg/utils"
	"github.com/metaflame/pkg/writer"
)

// Format is the encoding of an exported mesh.
type Format string

const (
	// FormatJSON writes {view, settings, vertices, colors}.
	FormatJSON Format = "json"
	// FormatBinary writes the little-endian float32 buffer: xyz triples, then rgba.
	FormatBinary Format = "bin"
)

// ParseFormat parses an export format name.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "json", "":
		return FormatJSON, nil
	case "bin", "binary", "buffer":
		return FormatBinary, nil
	default:
		return "", fmt.Errorf("unknown export format: %s", s)
	}
}

// Request selects what to export.
type Request struct {
	Dataset     string
	Views       []session.View
	Format      Format
	Compression compression.Type
}

// Document is the JSON export of one view.
type Document struct {
	Dataset  string           `json:"dataset"`
	View     session.View     `json:"view"`
	Settings session.Settings `json:"settings"`
	*geometry.Mesh
}

// Exporter uploads rendered views and records them in the export ledger.
type Exporter struct {
	storage storage.Storage
	exports repository.ExportRepository
	logger  utils.Logger
	clock   utils.Clock
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithRepository records every upload through repo.
func WithRepository(repo repository.ExportRepository) Option {
	return func(e *Exporter) { e.exports = repo }
}

// WithLogger sets the logger.
func WithLogger(logger utils.Logger) Option {
	return func(e *Exporter) { e.logger = logger }
}

// WithClock sets the clock used for phase timing.
func WithClock(clock utils.Clock) Option {
	return func(e *Exporter) { e.clock = clock }
}

// New creates an Exporter writing to store.
func New(store storage.Storage, opts ...Option) *Exporter {
	e := &Exporter{
		storage: store,
		logger:  &utils.NullLogger{},
		clock:   utils.NewRealClock(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Export uploads every requested view concurrently. Results are in request order.
func (e *Exporter) Export(ctx context.Context, sess *session.Session, req Request) ([]*model.Export, error) {
	if sess == nil {
		return nil, apperrors.New(apperrors.CodeInvalidInput, "session is required")
	}
	views := req.Views
	if len(views) == 0 {
		views = session.AllViews
	}
	if req.Format == "" {
		req.Format = FormatJSON
	}

	ctx, span := telemetry.StartSpan(ctx, "exporter.Export",
		attribute.String("dataset", req.Dataset),
		attribute.String("format", string(req.Format)),
		attribute.Int("views", len(views)),
	)
	defer span.End()

	timer := utils.NewTimer("export", utils.WithLogger(e.logger), utils.WithClock(e.clock))
	out := make([]*model.Export, len(views))

	g, gctx := errgroup.WithContext(ctx)
	for i, v := range views {
		g.Go(func() error {
			pt := timer.Start(string(v))
			defer pt.Stop()
			exp, err := e.exportView(gctx, sess, req, v)
			if err != nil {
				return fmt.Errorf("export %s: %w", v, err)
			}
			out[i] = exp
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, telemetry.RecordError(span, err)
	}

	e.logger.Info("Exported %d views of %s in %s", len(views), req.Dataset, timer.Total())
	return out, nil
}

func (e *Exporter) exportView(ctx context.Context, sess *session.Session, req Request, v session.View) (*model.Export, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	st, mesh := sess.Snapshot(v)

	var buf bytes.Buffer
	var res *writer.WriteResult
	var err error
	switch req.Format {
	case FormatJSON:
		doc := Document{Dataset: req.Dataset, View: v, Settings: st, Mesh: mesh}
		res, err = writer.NewCompressedWriter[Document](req.Compression).Write(doc, &buf)
	case FormatBinary:
		res, err = writer.NewBufferWriter(req.Compression).Write(mesh.Buffer(), &buf)
	default:
		return nil, apperrors.Newf(apperrors.CodeInvalidInput, "unsupported export format: %s", req.Format)
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeUnknown, "failed to encode mesh", err)
	}

	ext := string(req.Format) + req.Compression.Ext()
	key := storage.ExportKey(req.Dataset, string(v), ext)
	if err := e.storage.Upload(ctx, key, &buf, storage.ContentTypeFor(ext)); err != nil {
		return nil, err
	}

	exp := &model.Export{
		Dataset:  req.Dataset,
		View:     string(v),
		Format:   ext,
		Metric:   st.Metric,
		Axis:     st.Axis,
		Buckets:  st.Divisions(),
		Vertices: mesh.Len(),
		Key:      key,
		URL:      e.storage.GetURL(key),
		Size:     res.CompressedSize,
	}
	if e.exports != nil {
		if err := e.exports.Create(ctx, exp); err != nil {
			return nil, err
		}
	}

	e.logger.WithFields(map[string]interface{}{
		"view": v,
		"key":  key,
	}).Debug("Uploaded %d bytes (%.1f%% of %d raw)", res.CompressedSize, res.CompressionPct, res.RawSize)
	return exp, nil
}
