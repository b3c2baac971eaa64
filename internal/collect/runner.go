package collect

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/stridelabs/sleuth/internal/config"
	"github.com/stridelabs/sleuth/internal/issue"
	"github.com/stridelabs/sleuth/internal/logging"
)

// collectTimeout bounds one collection pass across all collectors.
const collectTimeout = 10 * time.Second

// Runner executes the collector set over a snapshot. Enablement and params
// can be swapped at runtime (config hot reload); a collection pass reads a
// consistent view of both.
type Runner struct {
	collectors []Collector
	logger     *logging.Logger

	mu      sync.RWMutex
	params  Params
	enabled map[string]bool

	// failureHook, when set, observes collector failures (metrics).
	failureHook func(collector string, err error)
}

// NewRunner builds a runner with the full collector set enabled and default
// params.
func NewRunner() *Runner {
	r := &Runner{
		collectors: defaultCollectors(),
		logger:     logging.GetLogger("collect"),
		params:     DefaultParams(),
		enabled:    make(map[string]bool),
	}
	for _, c := range r.collectors {
		r.enabled[c.Name()] = true
	}
	return r
}

// SetFailureHook registers a callback invoked for every collector failure.
func (r *Runner) SetFailureHook(hook func(collector string, err error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failureHook = hook
}

// SetParams replaces the shared tunables.
func (r *Runner) SetParams(p Params) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.params = p
}

// Params returns the current tunables.
func (r *Runner) Params() Params {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.params
}

// SetEnabled toggles one collector. Unknown names are an error.
func (r *Runner) SetEnabled(name string, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.enabled[name]; !ok {
		return fmt.Errorf("unknown collector %q", name)
	}
	r.enabled[name] = enabled
	return nil
}

// EnabledCollectors returns the names of currently enabled collectors in
// registration order.
func (r *Runner) EnabledCollectors() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var names []string
	for _, c := range r.collectors {
		if r.enabled[c.Name()] {
			names = append(names, c.Name())
		}
	}
	return names
}

// ApplyConfig applies a collectors config file: enablement toggles and
// per-collector settings. The whole file is validated before anything is
// applied, so a bad file leaves the runner untouched.
func (r *Runner) ApplyConfig(f *config.CollectorsFile) error {
	known := make(map[string]bool, len(r.collectors))
	for _, c := range r.collectors {
		known[c.Name()] = true
	}
	for _, entry := range f.Collectors {
		if !known[entry.Name] {
			return fmt.Errorf("unknown collector %q in config", entry.Name)
		}
	}

	params := r.Params()
	if err := applySettings(&params, f); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.params = params
	for name, enabled := range f.Enablement() {
		r.enabled[name] = enabled
		r.logger.Info("Collector %s %s by config", name, enabledWord(enabled))
	}
	return nil
}

func enabledWord(enabled bool) string {
	if enabled {
		return "enabled"
	}
	return "disabled"
}

// applySettings folds recognized per-collector settings into params.
func applySettings(params *Params, f *config.CollectorsFile) error {
	if s := f.SettingsFor("staleness"); s != nil {
		if raw, ok := s["threshold"]; ok {
			d, err := durationSetting(raw)
			if err != nil {
				return fmt.Errorf("staleness.threshold: %w", err)
			}
			params.StalenessThreshold = d
		}
	}

	if s := f.SettingsFor("integrity"); s != nil {
		if raw, ok := s["tolerance"]; ok {
			v, err := floatSetting(raw)
			if err != nil {
				return fmt.Errorf("integrity.tolerance: %w", err)
			}
			if v < 0 || v > 1 {
				return fmt.Errorf("integrity.tolerance: must be in [0,1], got %v", v)
			}
			params.CountTolerance = v
		}
	}

	if s := f.SettingsFor("sources"); s != nil {
		if raw, ok := s["manual_entry_min"]; ok {
			v, err := intSetting(raw)
			if err != nil {
				return fmt.Errorf("sources.manual_entry_min: %w", err)
			}
			if v < 1 {
				return fmt.Errorf("sources.manual_entry_min: must be at least 1, got %d", v)
			}
			params.ManualEntryMin = v
		}
	}

	return nil
}

func durationSetting(raw interface{}) (time.Duration, error) {
	s, ok := raw.(string)
	if !ok {
		return 0, fmt.Errorf("expected duration string (e.g. \"24h\"), got %T", raw)
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("must be positive, got %s", d)
	}
	return d, nil
}

func floatSetting(raw interface{}) (float64, error) {
	switch v := raw.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	default:
		return 0, fmt.Errorf("expected number, got %T", raw)
	}
}

func intSetting(raw interface{}) (int, error) {
	switch v := raw.(type) {
	case int:
		return v, nil
	case float64:
		return int(v), nil
	default:
		return 0, fmt.Errorf("expected integer, got %T", raw)
	}
}

// Collect runs all enabled collectors concurrently and returns their issues
// flattened in registration order, so the combined list is deterministic
// regardless of which collector finished first. A failing collector is
// logged and skipped; it never aborts the pass.
func (r *Runner) Collect(ctx context.Context, snap Snapshot) ([]issue.Issue, error) {
	return r.CollectAt(ctx, snap, time.Time{})
}

// CollectAt is Collect with an explicit reference time, for replaying a
// captured snapshot against a past moment. A zero at keeps the configured
// reference (normally the current time).
func (r *Runner) CollectAt(ctx context.Context, snap Snapshot, at time.Time) ([]issue.Issue, error) {
	r.mu.RLock()
	params := r.params
	if !at.IsZero() {
		params.ReferenceTime = at
	}
	hook := r.failureHook
	active := make([]Collector, 0, len(r.collectors))
	for _, c := range r.collectors {
		if r.enabled[c.Name()] {
			active = append(active, c)
		}
	}
	r.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, collectTimeout)
	defer cancel()

	// One result slot per collector keeps output order independent of
	// completion order.
	slots := make([][]issue.Issue, len(active))

	g, gctx := errgroup.WithContext(ctx)
	for i, c := range active {
		g.Go(func() error {
			found, err := c.Collect(gctx, snap, params)
			if err != nil {
				r.logger.Warn("Collector %s failed: %v", c.Name(), err)
				if hook != nil {
					hook(c.Name(), err)
				}
				return nil
			}
			slots[i] = found
			return nil
		})
	}

	// Collector errors are swallowed above, so the only failure left is a
	// cancelled or expired context.
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	issues := []issue.Issue{}
	for _, found := range slots {
		issues = append(issues, issue.NormalizeAll(found)...)
	}

	r.logger.Debug("Collection pass finished: %d collector(s), %d issue(s)", len(active), len(issues))
	return issues, nil
}

// AllChecks flattens the fixed collector catalogue's check descriptions in
// registration order. Enablement does not change the catalogue.
func AllChecks() []string {
	var checks []string
	for _, c := range defaultCollectors() {
		checks = append(checks, c.Checks()...)
	}
	return checks
}
