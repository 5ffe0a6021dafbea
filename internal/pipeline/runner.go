package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"mdm-migrate/internal/bundle"
	"mdm-migrate/internal/discover"
	"mdm-migrate/internal/mapping"
	"mdm-migrate/internal/resolve"
	"mdm-migrate/internal/rewrite"
	"mdm-migrate/internal/validate"
)

// Typed run failures. The report, when non-nil, is still fully populated.
var (
	// ErrConfigInvalid - the mapping configuration failed validation.
	ErrConfigInvalid = errors.New("mapping configuration invalid")
	// ErrValidationBlocked - the validation report carries blocking concerns.
	ErrValidationBlocked = errors.New("validation blocked the migration")
	// ErrProbeFailed - strict run with unreachable collections.
	ErrProbeFailed = errors.New("reachability probe failed")
)

// Request describes one bundle migration.
type Request struct {
	// Ref is the bundle reference handed to the store.
	Ref string
	// Mapping is the mapping configuration for this run. Explicit per
	// request: concurrent runs may use different mappings.
	Mapping *mapping.Config
	// Strict blocks the run on any unmapped or ambiguous binding and on
	// probe failures.
	Strict bool
	// Force commits the rewritten bundle even when validation blocked.
	Force bool
	// ProbeTimeout bounds each reachability probe (zero = default).
	ProbeTimeout time.Duration
}

// Runner owns the collaborators of the pipeline and executes runs.
type Runner struct {
	store BundleStore
	probe validate.Probe
	log   *zap.Logger
}

// NewRunner creates a Runner. A nil logger disables logging.
func NewRunner(store BundleStore, probe validate.Probe, log *zap.Logger) *Runner {
	if log == nil {
		log = zap.NewNop()
	}

	if probe == nil {
		probe = validate.NopProbe
	}

	return &Runner{store: store, probe: probe, log: log}
}

// Run executes one migration: fetch → load → discover → resolve → rewrite →
// validate → commit. The rewritten bundle is handed to the store only after
// validation passes, or when the request forces the commit.
//
// On loader failure no report is produced. Every later failure returns the
// report alongside the error.
func (r *Runner) Run(ctx context.Context, req Request) (*Report, error) {
	runID := uuid.NewString()
	log := r.log.With(zap.String("runId", runID), zap.String("ref", req.Ref))

	findings := mapping.Validate(req.Mapping)
	if findings.HasErrors() {
		return nil, fmt.Errorf("%w: %v", ErrConfigInvalid, findings.Error())
	}

	data, err := r.store.Fetch(ctx, req.Ref)
	if err != nil {
		return nil, err
	}

	b, err := bundle.Parse(data)
	if err != nil {
		return nil, err
	}

	log.Info("bundle loaded",
		zap.String("appId", b.AppID),
		zap.String("version", b.Version),
		zap.Int("forms", len(b.Forms)))

	rep := &Report{
		RunID:   runID,
		Ref:     req.Ref,
		AppID:   b.AppID,
		Version: b.Version,
	}

	rep.Findings.Merge(*findings)

	graph := discover.Discover(b)
	rep.Findings.Merge(graph.Findings)

	for _, n := range graph.Nodes {
		if n.Kind.ReferencesCollection() {
			rep.TotalBindings++
		}
	}

	log.Debug("bindings discovered",
		zap.Int("bindings", rep.TotalBindings),
		zap.Int("findings", len(graph.Findings.Errors)))

	rs := resolve.Resolve(graph, req.Mapping)
	rep.Findings.Merge(rs.Findings)
	rep.Resolved, rep.Unmapped, rep.Ambiguous, rep.WeakConfidence = rs.Counts()

	rewritten, changeLog := rewrite.Rewrite(b, rs)
	rep.ChangeLog = changeLog

	log.Debug("bundle rewritten",
		zap.Int("applied", len(changeLog.Entries)),
		zap.Int("skipped", len(changeLog.Skipped)))

	vr, err := validate.Run(ctx, b, rewritten, rs, r.probe, validate.Options{
		ProbeTimeout: req.ProbeTimeout,
		MaxFlagged:   maxFlagged(req),
	})
	if err != nil {
		return rep, err
	}

	rep.Validation = vr

	if !vr.Passed() && !req.Force {
		log.Warn("validation blocked the run", zap.Int("flagged", rep.Unmapped+rep.Ambiguous))
		return rep, ErrValidationBlocked
	}

	if req.Strict && !vr.ProbesHealthy() && !req.Force {
		log.Warn("probe failures blocked the run", zap.Int("timedOut", vr.TimedOut))
		return rep, ErrProbeFailed
	}

	out, err := bundle.Marshal(rewritten)
	if err != nil {
		return rep, err
	}

	ref, err := r.store.Store(ctx, out)
	if err != nil {
		return rep, err
	}

	rep.Committed = true
	rep.OutputRef = ref

	log.Info("rewritten bundle committed", zap.String("outputRef", ref))

	return rep, nil
}

// maxFlagged derives the validator threshold from the request policy.
func maxFlagged(req Request) int {
	if req.Strict {
		return 0
	}

	return -1
}

// RunAll executes several independent migrations in parallel worker tasks.
// Each run owns its bundle model; no coordination is needed beyond bounding
// the concurrency. Reports come back in request order; the error joins all
// per-run failures.
func (r *Runner) RunAll(ctx context.Context, reqs []Request, parallelism int) ([]*Report, error) {
	if parallelism <= 0 {
		parallelism = 1
	}

	reports := make([]*Report, len(reqs))
	errs := make([]error, len(reqs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)

	for i, req := range reqs {
		i, req := i, req
		g.Go(func() error {
			reports[i], errs[i] = r.Run(ctx, req)
			// Failures are collected per run; one bundle's problem must
			// not cancel its siblings.
			return nil
		})
	}

	_ = g.Wait()

	return reports, errors.Join(errs...)
}
