// Package service hosts the Diagnostician: the component that takes a
// device snapshot through signal collection and the diagnosis engine,
// stamps and caches the resulting report, and records metrics. Both the
// HTTP API and the MCP tool surface call into it.
package service

import (
	"context"
	"crypto/sha256"
	"fmt"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/stridelabs/sleuth/internal/collect"
	"github.com/stridelabs/sleuth/internal/config"
	"github.com/stridelabs/sleuth/internal/diagnosis"
	"github.com/stridelabs/sleuth/internal/issue"
	"github.com/stridelabs/sleuth/internal/logging"
)

// DefaultCacheSize is the per-process report cache capacity when none is
// configured.
const DefaultCacheSize = 256

// Options configures a Diagnostician.
type Options struct {
	// MinAppVersion rejects snapshots from older app builds; empty
	// disables the gate.
	MinAppVersion string

	// CacheSize caps the recent-report LRU cache (defaults to
	// DefaultCacheSize).
	CacheSize int

	// CollectorsPath, when set, enables hot reload of collector settings
	// from this file while the service runs.
	CollectorsPath string

	// Registerer receives the service metrics. Nil falls back to a
	// throwaway registry, for one-shot CLI use.
	Registerer prometheus.Registerer

	// Tracer for diagnosis spans. Nil falls back to the global provider.
	Tracer trace.Tracer
}

// Diagnostician wires collection and the engine behind one call.
type Diagnostician struct {
	runner  *collect.Runner
	engine  *diagnosis.Engine
	cache   *lru.Cache[string, *diagnosis.Report]
	metrics *Metrics
	logger  *logging.Logger
	tracer  trace.Tracer
	watcher *config.CollectorsWatcher
	opts    Options
	ready   atomic.Bool
}

// NewDiagnostician creates the service around an existing runner.
func NewDiagnostician(runner *collect.Runner, opts Options) (*Diagnostician, error) {
	if runner == nil {
		return nil, fmt.Errorf("runner cannot be nil")
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = DefaultCacheSize
	}
	if opts.Registerer == nil {
		opts.Registerer = prometheus.NewRegistry()
	}
	if opts.Tracer == nil {
		opts.Tracer = otel.GetTracerProvider().Tracer("sleuth.service")
	}

	cache, err := lru.New[string, *diagnosis.Report](opts.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create report cache: %w", err)
	}

	d := &Diagnostician{
		runner:  runner,
		engine:  diagnosis.NewEngine(),
		cache:   cache,
		metrics: NewMetrics(opts.Registerer),
		logger:  logging.GetLogger("service"),
		tracer:  opts.Tracer,
		opts:    opts,
	}

	runner.SetFailureHook(func(collector string, err error) {
		d.metrics.CollectorFailures.WithLabelValues(collector).Inc()
	})

	return d, nil
}

// Diagnose validates the snapshot, collects issues as of the reference time
// (zero means now), runs the diagnosis engine, and returns the stamped
// report. The report is cached per user for LastReport.
func (d *Diagnostician) Diagnose(ctx context.Context, userID string, snap collect.Snapshot, at time.Time) (*diagnosis.Report, error) {
	ctx, span := d.tracer.Start(ctx, "diagnose.run")
	defer span.End()
	start := time.Now()

	if userID == "" {
		d.metrics.FailuresTotal.Inc()
		return nil, collect.NewValidationError("user_id is required")
	}

	if err := collect.ValidateSnapshot(snap); err != nil {
		d.failRun(span, "snapshot validation failed", err)
		return nil, err
	}

	if err := collect.CheckAppVersion(snap, d.opts.MinAppVersion); err != nil {
		d.failRun(span, "app version gate failed", err)
		return nil, err
	}

	issues, err := d.runner.CollectAt(ctx, snap, at)
	if err != nil {
		d.failRun(span, "signal collection failed", err)
		return nil, fmt.Errorf("signal collection failed: %w", err)
	}

	report := d.engine.Run(issues, issue.ParsePlatform(snap.Platform))
	report.UserID = userID

	d.cache.Add(userID, &report)

	primary := primaryKindLabel(&report)
	d.metrics.RunsTotal.Inc()
	d.metrics.RunDuration.Observe(time.Since(start).Seconds())
	d.metrics.IssuesPerRun.Observe(float64(report.Metadata.IssuesEvaluated))
	d.metrics.OverallConfidence.Observe(report.OverallConfidence)
	d.metrics.PrimaryKind.WithLabelValues(primary).Inc()

	span.SetAttributes(
		attribute.Int("diagnosis.issues", report.Metadata.IssuesEvaluated),
		attribute.Int("diagnosis.links", report.Metadata.LinksFound),
		attribute.String("diagnosis.primary_kind", primary),
		attribute.Float64("diagnosis.overall_confidence", report.OverallConfidence),
	)

	d.logger.Info("Diagnosis complete: user=%s issues=%d links=%d primary=%s confidence=%.3f",
		hashUserID(userID), report.Metadata.IssuesEvaluated, report.Metadata.LinksFound,
		primary, report.OverallConfidence)

	return &report, nil
}

// LastReport returns the most recent report produced for the user, if any.
func (d *Diagnostician) LastReport(userID string) (*diagnosis.Report, bool) {
	return d.cache.Get(userID)
}

// failRun records a rejected or aborted run on metrics and the span.
func (d *Diagnostician) failRun(span trace.Span, msg string, err error) {
	d.metrics.FailuresTotal.Inc()
	span.RecordError(err)
	span.SetStatus(codes.Error, msg)
	d.logger.Warn("%s: %v", msg, err)
}

// Start implements lifecycle.Component. With a collectors path configured
// it loads the file, applies it to the runner, and begins watching it for
// changes.
func (d *Diagnostician) Start(ctx context.Context) error {
	if d.opts.CollectorsPath != "" {
		watcher, err := config.NewCollectorsWatcher(config.CollectorsWatcherConfig{
			FilePath: d.opts.CollectorsPath,
		}, d.runner.ApplyConfig)
		if err != nil {
			return fmt.Errorf("failed to create collectors watcher: %w", err)
		}
		if err := watcher.Start(ctx); err != nil {
			return fmt.Errorf("failed to start collectors watcher: %w", err)
		}
		d.watcher = watcher
	}

	d.ready.Store(true)
	d.logger.Info("Diagnostician started (cache=%d, min_app_version=%q)",
		d.opts.CacheSize, d.opts.MinAppVersion)
	return nil
}

// Stop implements lifecycle.Component.
func (d *Diagnostician) Stop(ctx context.Context) error {
	d.ready.Store(false)
	if d.watcher != nil {
		if err := d.watcher.Stop(); err != nil {
			return err
		}
	}
	d.logger.Info("Diagnostician stopped")
	return nil
}

// IsReady reports whether the service has started and can take requests.
func (d *Diagnostician) IsReady() bool {
	return d.ready.Load()
}

// Name implements lifecycle.Component.
func (d *Diagnostician) Name() string {
	return "diagnostician"
}

// primaryKindLabel is the metrics label for a report's primary issue.
func primaryKindLabel(r *diagnosis.Report) string {
	if r.Primary == nil {
		return "none"
	}
	return string(r.Primary.Kind)
}

// hashUserID shortens and de-identifies user ids for log lines.
func hashUserID(userID string) string {
	sum := sha256.Sum256([]byte(userID))
	return fmt.Sprintf("%x", sum[:4])
}
