package uflp

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang/glog"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Report summarizes a generation run.
type Report struct {
	RunID     string
	Requested int
	Written   int
	Skipped   int
	// Failures holds the errors of skipped samples, in sample order.
	Failures []error
	Started  time.Time
	Finished time.Time
}

type sampleResult struct {
	index  int
	sample *Sample
	err    error
}

// generation carries the state shared by the samplers and the writer of a
// single run.
type generation struct {
	cfg    Config
	writer *DatasetWriter
	report *Report
}

// Generate appends cfg.NumSamples labeled samples to cfg.OutputPath.
func Generate(ctx context.Context, cfg Config) (report *Report, err error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	report = &Report{
		RunID:     uuid.NewString(),
		Requested: cfg.NumSamples,
		Started:   time.Now(),
	}
	defer func() {
		report.Finished = time.Now()
		if ferr := finishRun(cfg, report, err); err == nil {
			err = ferr
		}
	}()

	writer, err := OpenDataset(cfg.OutputPath)
	if err != nil {
		return report, fmt.Errorf("open dataset: %w", err)
	}
	defer func() {
		if cerr := writer.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("close dataset: %w", cerr)
		}
	}()

	glog.Infof("run %s: %d samples of %d clients and %d facilities, oracle %s, %d workers, appending to %s",
		report.RunID, cfg.NumSamples, cfg.NumClient, cfg.NumFacility, cfg.OracleName, cfg.Workers, cfg.OutputPath)

	run := &generation{cfg: cfg, writer: writer, report: report}
	if cfg.Workers == 1 || cfg.NumSamples <= 1 {
		err = run.sequential(ctx)
	} else {
		err = run.parallel(ctx)
	}
	if err != nil {
		glog.Errorf("run %s stopped after %d records: %v", report.RunID, report.Written, err)
		return report, err
	}
	glog.Infof("run %s: %d written, %d skipped", report.RunID, report.Written, report.Skipped)
	return report, nil
}

// finishRun writes the optional metrics and manifest files.
func finishRun(cfg Config, report *Report, runErr error) error {
	var errs []error
	if cfg.MetricsPath != "" {
		if err := WriteMetrics(cfg.MetricsPath); err != nil {
			errs = append(errs, fmt.Errorf("write metrics: %w", err))
		}
	}
	if cfg.ManifestPath != "" {
		if err := WriteManifest(cfg.ManifestPath, NewManifest(cfg, report, runErr)); err != nil {
			errs = append(errs, fmt.Errorf("write manifest: %w", err))
		}
	}
	return errors.Join(errs...)
}

func (run *generation) sampler(session Session, index int) *Sampler {
	return &Sampler{
		Rand:       newRand(deriveSeed(run.cfg.Seed, uint64(index))),
		Costs:      run.cfg.Costs,
		Session:    session,
		Timeout:    run.cfg.SolveTimeout,
		OracleName: run.cfg.OracleName,
	}
}

func (run *generation) sample(ctx context.Context, session Session, index int) sampleResult {
	sample, err := run.sampler(session, index).Sample(ctx, run.cfg.NumClient, run.cfg.NumFacility)
	if err != nil {
		var sampleErr *SampleError
		if errors.As(err, &sampleErr) {
			sampleErr.Index = index
		} else {
			err = &SampleError{Index: index, Stage: StageSolve, Err: err}
		}
	}
	return sampleResult{index: index, sample: sample, err: err}
}

// record applies the failure policy to one result and appends the sample.
// A non-nil return stops the run.
func (run *generation) record(res sampleResult) error {
	if res.err != nil {
		if run.cfg.OnFailure == FailSkip && skippable(res.err) {
			run.report.Skipped++
			run.report.Failures = append(run.report.Failures, res.err)
			Samples.WithLabelValues("skipped").Inc()
			glog.Warningf("run %s: skipping %v", run.report.RunID, res.err)
			return nil
		}
		Samples.WithLabelValues("failed").Inc()
		return res.err
	}
	if err := run.writer.Write(res.sample); err != nil {
		Samples.WithLabelValues("failed").Inc()
		return &SampleError{Index: res.index, Stage: StageWrite, Err: err}
	}
	run.report.Written++
	Samples.WithLabelValues("written").Inc()
	if glog.V(1) {
		glog.Infof("run %s: sample %d written, %d open facilities, objective %.6g",
			run.report.RunID, res.index, res.sample.Decision.NumOpen(), res.sample.Decision.Objective)
	}
	return nil
}

// skippable reports whether err came from the oracle. Cancellation of the
// whole run is never skipped.
func skippable(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	return errors.Is(err, ErrOracle) || errors.Is(err, ErrMalformedDecision)
}

func openSession(oracle Oracle) (Session, error) {
	session, err := oracle.Open()
	if err != nil {
		return nil, NewOracleError(ReasonSolverError, fmt.Errorf("open session: %w", err))
	}
	return session, nil
}

func closeSession(session Session) {
	if err := session.Close(); err != nil {
		glog.Warningf("close oracle session: %v", err)
	}
}

func (run *generation) sequential(ctx context.Context) error {
	if run.cfg.NumSamples == 0 {
		return nil
	}
	session, err := openSession(run.cfg.Oracle)
	if err != nil {
		return err
	}
	defer closeSession(session)

	for i := range run.cfg.NumSamples {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := run.record(run.sample(ctx, session, i)); err != nil {
			return err
		}
	}
	return nil
}

// parallel hands sample indices to cfg.Workers goroutines, each with its own
// session, and appends the results in index order from a single writer.
func (run *generation) parallel(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	indices := make(chan int)
	results := make(chan sampleResult, run.cfg.Workers)

	g.Go(func() error {
		defer close(indices)
		for i := range run.cfg.NumSamples {
			select {
			case indices <- i:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	var workers sync.WaitGroup
	for range run.cfg.Workers {
		workers.Add(1)
		g.Go(func() error {
			defer workers.Done()
			session, err := openSession(run.cfg.Oracle)
			if err != nil {
				return err
			}
			defer closeSession(session)
			for i := range indices {
				select {
				case results <- run.sample(gctx, session, i):
				case <-gctx.Done():
					return gctx.Err()
				}
			}
			return nil
		})
	}
	go func() {
		workers.Wait()
		close(results)
	}()

	g.Go(func() error {
		pending := make(map[int]sampleResult)
		next := 0
		for res := range results {
			pending[res.index] = res
			for {
				r, ok := pending[next]
				if !ok {
					break
				}
				delete(pending, next)
				if err := run.record(r); err != nil {
					return err
				}
				next++
			}
		}
		return nil
	})
	return g.Wait()
}
