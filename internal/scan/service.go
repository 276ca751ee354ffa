// Package scan runs uploaded files through extraction, matching and
// per-file aggregation.
package scan

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fyrsmithlabs/docguard/internal/extract"
	"github.com/fyrsmithlabs/docguard/internal/keywords"
	"github.com/fyrsmithlabs/docguard/internal/logging"
	"github.com/fyrsmithlabs/docguard/internal/matcher"
)

// Publisher receives every finished file result.
type Publisher interface {
	Publish(ctx context.Context, result FileResult) error
}

// Scrubber redacts sensitive text from context phrases.
type Scrubber interface {
	Scrub(text string) string
}

// Option configures a Service.
type Option func(*Service)

// WithWorkers scans up to n files concurrently. n <= 1 scans sequentially.
func WithWorkers(n int) Option {
	return func(s *Service) {
		s.workers = max(n, 1)
	}
}

// WithContextWindow sets the context phrase window in characters.
func WithContextWindow(n int) Option {
	return func(s *Service) {
		s.window = n
	}
}

// WithLogger sets the service logger.
func WithLogger(l *logging.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithTracer sets the tracer used for per-file spans.
func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		if t != nil {
			s.tracer = t
		}
	}
}

// WithMetrics records Prometheus scan metrics.
func WithMetrics(m *Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithPublisher hands finished results to p.
func WithPublisher(p Publisher) Option {
	return func(s *Service) {
		s.publisher = p
	}
}

// WithScrubber passes every context phrase through sc.
func WithScrubber(sc Scrubber) Option {
	return func(s *Service) {
		s.scrubber = sc
	}
}

// Service scans batches of files against the current keyword registry.
// It is safe for concurrent use.
type Service struct {
	store      *keywords.Store
	extractors *extract.Registry
	matchers   *matcher.Cache

	workers   int
	window    int
	logger    *logging.Logger
	tracer    trace.Tracer
	metrics   *Metrics
	publisher Publisher
	scrubber  Scrubber
}

// NewService creates a scan service.
func NewService(store *keywords.Store, extractors *extract.Registry, opts ...Option) *Service {
	s := &Service{
		store:      store,
		extractors: extractors,
		workers:    1,
		logger:     logging.NewNop(),
		tracer:     otel.Tracer("github.com/fyrsmithlabs/docguard/internal/scan"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.extractors == nil {
		s.extractors = extract.NewRegistry()
	}
	s.matchers = matcher.NewCache(matcher.WithContextWindow(s.window))
	return s
}

// Scan scans files against one registry snapshot and returns one result per
// file in input order. A failure in one file never affects another.
func (s *Service) Scan(ctx context.Context, files []File) []FileResult {
	if logging.BatchIDFromContext(ctx) == "" {
		ctx = logging.WithBatchID(ctx, uuid.NewString())
	}

	reg := s.store.Snapshot()
	m := s.matchers.For(reg)
	s.metrics.observeBatch(reg.Len())

	s.logger.Debug(ctx, "scanning batch",
		zap.Int("files", len(files)),
		zap.Int("keywords", reg.Len()),
		zap.Int("workers", s.workers),
	)

	results := make([]FileResult, len(files))
	if s.workers <= 1 || len(files) < 2 {
		for i, f := range files {
			results[i] = s.scanFile(ctx, reg, m, f)
		}
	} else {
		var g errgroup.Group
		g.SetLimit(s.workers)
		for i, f := range files {
			g.Go(func() error {
				results[i] = s.scanFile(ctx, reg, m, f)
				return nil
			})
		}
		_ = g.Wait()
	}

	if s.publisher != nil {
		for _, res := range results {
			if err := s.publisher.Publish(ctx, res); err != nil {
				s.logger.Warn(ctx, "failed to publish scan result",
					zap.String("file.name", res.Filename),
					zap.Error(err),
				)
			}
		}
	}
	return results
}

func (s *Service) scanFile(ctx context.Context, reg *keywords.Registry, m *matcher.Matcher, f File) (res FileResult) {
	ctx = logging.WithFilename(ctx, f.Name)
	ctx, span := s.tracer.Start(ctx, "scan.file", trace.WithAttributes(
		attribute.String("file.name", f.Name),
		attribute.Int("file.size", len(f.Data)),
	))
	start := time.Now()
	pages := 0
	defer func() {
		span.SetAttributes(
			attribute.String("scan.status", string(res.Status)),
			attribute.Int("scan.pages", pages),
			attribute.Int("scan.matches", len(res.FoundInstances)),
		)
		span.End()
		s.metrics.observeFile(res, pages, time.Since(start))
	}()

	src, err := s.extractors.For(f.Name)
	if err != nil {
		s.logger.Info(ctx, "unsupported file type")
		span.SetStatus(codes.Error, UnsupportedMessage)
		return unsupported(f.Name)
	}

	t := newTally(reg)
	var instances []matcher.MatchInstance

	pages, err = s.matchPages(ctx, src, f.Data, m, t, &instances)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.Warn(ctx, "file scan failed",
			zap.Int("pages", pages),
			zap.Bool("no_pages", errors.Is(err, extract.ErrNoPages)),
			zap.Error(err),
		)
		return t.errorResult(f.Name, instances, err)
	}

	res = t.result(f.Name, instances)
	s.logResult(ctx, res)
	return res
}

// matchPages streams pages from src into the tally. Instances from pages
// matched before an error are kept. A panic is returned as an error.
func (s *Service) matchPages(
	ctx context.Context,
	src extract.PageSource,
	data []byte,
	m *matcher.Matcher,
	t *tally,
	instances *[]matcher.MatchInstance,
) (pages int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()

	if err := ctx.Err(); err != nil {
		return 0, err
	}

	for page, err := range src.Pages(ctx, data) {
		if err != nil {
			return pages, err
		}
		pages++

		found, hits := m.MatchPage(page.Number, page.Text)
		for i, hit := range hits {
			t.record(hit, page.Number)
			if s.scrubber != nil {
				found[i].ContextPhrase = s.scrubber.Scrub(found[i].ContextPhrase)
			}
		}
		*instances = append(*instances, found...)

		s.logger.Trace(ctx, "page matched",
			zap.Int("page", page.Number),
			zap.Int("matches", len(found)),
		)
	}
	return pages, nil
}

func (s *Service) logResult(ctx context.Context, res FileResult) {
	for _, item := range res.FailSummary {
		s.logger.Info(ctx, fmt.Sprintf("%s was found %d times", item.Keyword, item.Count),
			zap.String("keyword", item.Keyword),
			zap.Int("count", item.Count),
			zap.Ints("pages", item.Pages),
		)
	}
	s.logger.Info(ctx, "file scanned",
		zap.String("status", string(res.Status)),
		zap.Int("instances", len(res.FoundInstances)),
	)
}
