package uflp

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) Config {
	t.Helper()
	cfg := DefaultConfig()
	cfg.NumClient = 3
	cfg.NumFacility = 4
	cfg.NumSamples = 5
	cfg.Seed = 11
	cfg.OutputPath = filepath.Join(t.TempDir(), "data.txt")
	return cfg
}

func readBlocks(t *testing.T, path string) [][]string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	if len(data) == 0 {
		return nil
	}
	return recordBlocks(t, string(data))
}

// failingOn solves with branch and bound except for the failAt-th call,
// counted from zero. It is only meant for sequential runs.
func failingOn(failAt int, failure error) (Oracle, *int) {
	calls := 0
	bnb := &bbSession{}
	return OracleFunc(func(ctx context.Context, form *Formulation) (*Decision, error) {
		defer func() { calls++ }()
		if calls == failAt {
			return nil, failure
		}
		return bnb.Solve(ctx, form)
	}), &calls
}

func TestGenerate(t *testing.T) {
	cfg := testConfig(t)
	report, err := Generate(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, 5, report.Requested)
	assert.Equal(t, 5, report.Written)
	assert.Zero(t, report.Skipped)
	assert.NotEmpty(t, report.RunID)
	assert.False(t, report.Finished.Before(report.Started))

	blocks := readBlocks(t, cfg.OutputPath)
	require.Len(t, blocks, 5)
	for _, b := range blocks {
		checkWellFormed(t, b, cfg.NumClient, cfg.NumFacility)
	}

	samples, err := LoadDataset(cfg.OutputPath)
	require.NoError(t, err)
	for _, s := range samples {
		form, err := s.Instance.Formulation()
		require.NoError(t, err)
		require.NoError(t, form.CheckFeasible(s.Decision))
		assert.InDelta(t, bruteForce(form), s.Decision.Objective, 1e-4)
		for f := range cfg.NumFacility {
			assert.Equal(t, DefaultOpenCost, s.Instance.OpenCosts.AtVec(f))
		}
	}
}

func TestGenerateDeterministic(t *testing.T) {
	first := testConfig(t)
	_, err := Generate(context.Background(), first)
	require.NoError(t, err)

	second := testConfig(t)
	_, err = Generate(context.Background(), second)
	require.NoError(t, err)

	other := testConfig(t)
	other.Seed = 12
	_, err = Generate(context.Background(), other)
	require.NoError(t, err)

	a, err := os.ReadFile(first.OutputPath)
	require.NoError(t, err)
	b, err := os.ReadFile(second.OutputPath)
	require.NoError(t, err)
	c, err := os.ReadFile(other.OutputPath)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
	assert.NotEqual(t, string(a), string(c))
}

func TestGenerateParallelMatchesSequential(t *testing.T) {
	sequential := testConfig(t)
	sequential.NumSamples = 12
	_, err := Generate(context.Background(), sequential)
	require.NoError(t, err)

	parallel := testConfig(t)
	parallel.NumSamples = 12
	parallel.Workers = 4
	report, err := Generate(context.Background(), parallel)
	require.NoError(t, err)
	assert.Equal(t, 12, report.Written)

	want, err := os.ReadFile(sequential.OutputPath)
	require.NoError(t, err)
	got, err := os.ReadFile(parallel.OutputPath)
	require.NoError(t, err)
	assert.Equal(t, string(want), string(got))
}

func TestGenerateAppends(t *testing.T) {
	cfg := testConfig(t)
	cfg.NumSamples = 2
	_, err := Generate(context.Background(), cfg)
	require.NoError(t, err)
	cfg.NumSamples = 3
	_, err = Generate(context.Background(), cfg)
	require.NoError(t, err)
	assert.Len(t, readBlocks(t, cfg.OutputPath), 2+3)
}

func TestGenerateZeroSamples(t *testing.T) {
	cfg := testConfig(t)
	cfg.NumSamples = 0
	report, err := Generate(context.Background(), cfg)
	require.NoError(t, err)
	assert.Zero(t, report.Written)

	data, err := os.ReadFile(cfg.OutputPath)
	require.NoError(t, err)
	assert.Empty(t, data)

	require.NoError(t, AppendSample(cfg.OutputPath, fixedSample()))
	_, err = Generate(context.Background(), cfg)
	require.NoError(t, err)
	data, err = os.ReadFile(cfg.OutputPath)
	require.NoError(t, err)
	assert.Equal(t, fixedRecord, string(data))
}

func TestGenerateInvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.NumFacility = 0
	oracle, calls := failingOn(-1, nil)
	cfg.Oracle = oracle

	report, err := Generate(context.Background(), cfg)
	assert.ErrorIs(t, err, ErrInvalidParameter)
	assert.Nil(t, report)
	assert.Zero(t, *calls)
	_, err = os.Stat(cfg.OutputPath)
	assert.True(t, os.IsNotExist(err))
}

func TestGenerateSmallestInstances(t *testing.T) {
	tests := []struct {
		numClient int
		wantServe string
	}{
		{1, "1"},
		{2, "1"},
	}
	for _, tt := range tests {
		cfg := testConfig(t)
		cfg.NumClient, cfg.NumFacility = tt.numClient, 1
		_, err := Generate(context.Background(), cfg)
		require.NoError(t, err)
		for _, b := range readBlocks(t, cfg.OutputPath) {
			checkWellFormed(t, b, tt.numClient, 1)
			assert.Equal(t, labelOpen+" 1", b[5])
			for _, row := range b[7:] {
				assert.Equal(t, tt.wantServe, row)
			}
		}
	}
}

func TestGenerateAbortOnFailure(t *testing.T) {
	cfg := testConfig(t)
	oracle, _ := failingOn(2, NewOracleError(ReasonInfeasible, errors.New("no solution")))
	cfg.Oracle = oracle

	report, err := Generate(context.Background(), cfg)
	require.Error(t, err)
	var sampleErr *SampleError
	require.ErrorAs(t, err, &sampleErr)
	assert.Equal(t, 2, sampleErr.Index)
	assert.Equal(t, StageSolve, sampleErr.Stage)
	assert.ErrorIs(t, err, ErrOracle)
	var oracleErr *OracleError
	require.ErrorAs(t, err, &oracleErr)
	assert.Equal(t, ReasonInfeasible, oracleErr.Reason)

	require.NotNil(t, report)
	assert.Equal(t, 2, report.Written)
	assert.Len(t, readBlocks(t, cfg.OutputPath), 2)
}

func TestGenerateSkipOnFailure(t *testing.T) {
	full := testConfig(t)
	_, err := Generate(context.Background(), full)
	require.NoError(t, err)
	want := readBlocks(t, full.OutputPath)

	cfg := testConfig(t)
	cfg.OnFailure = FailSkip
	oracle, _ := failingOn(2, NewOracleError(ReasonSolverError, errors.New("crashed")))
	cfg.Oracle = oracle

	report, err := Generate(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, 4, report.Written)
	assert.Equal(t, 1, report.Skipped)
	require.Len(t, report.Failures, 1)
	var sampleErr *SampleError
	require.ErrorAs(t, report.Failures[0], &sampleErr)
	assert.Equal(t, 2, sampleErr.Index)

	// Later samples do not depend on the skipped one.
	assert.Equal(t, slices.Delete(want, 2, 3), readBlocks(t, cfg.OutputPath))
}

func TestGenerateSkipsMalformedDecision(t *testing.T) {
	cfg := testConfig(t)
	cfg.OnFailure = FailSkip
	cfg.Oracle = OracleFunc(func(ctx context.Context, form *Formulation) (*Decision, error) {
		return &Decision{OpenFacility: make([]int, form.NumFacilities())}, nil
	})

	report, err := Generate(context.Background(), cfg)
	require.NoError(t, err)
	assert.Zero(t, report.Written)
	assert.Equal(t, 5, report.Skipped)
	for _, f := range report.Failures {
		assert.ErrorIs(t, f, ErrMalformedDecision)
	}
}

func TestGenerateSolveTimeout(t *testing.T) {
	cfg := testConfig(t)
	cfg.NumSamples = 3
	cfg.Workers = 2
	cfg.OnFailure = FailSkip
	cfg.SolveTimeout = 10 * time.Millisecond
	cfg.Oracle = OracleFunc(func(ctx context.Context, form *Formulation) (*Decision, error) {
		<-ctx.Done()
		return nil, NewOracleError(ReasonSolverError, ctx.Err())
	})

	report, err := Generate(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Skipped)
	for _, f := range report.Failures {
		var oracleErr *OracleError
		require.ErrorAs(t, f, &oracleErr)
		assert.Equal(t, ReasonTimeout, oracleErr.Reason)
	}
}

func TestGenerateParallelAbort(t *testing.T) {
	cfg := testConfig(t)
	cfg.NumSamples = 20
	cfg.Workers = 3
	cfg.Oracle = OracleFunc(func(ctx context.Context, form *Formulation) (*Decision, error) {
		return nil, NewOracleError(ReasonInfeasible, errors.New("no solution"))
	})

	report, err := Generate(context.Background(), cfg)
	var sampleErr *SampleError
	require.ErrorAs(t, err, &sampleErr)
	assert.Equal(t, 0, sampleErr.Index)
	assert.Zero(t, report.Written)
	assert.Empty(t, readBlocks(t, cfg.OutputPath))
}

func TestGenerateCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := testConfig(t)
	cfg.OnFailure = FailSkip
	_, err := Generate(ctx, cfg)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGenerateMetricsAndManifest(t *testing.T) {
	cfg := testConfig(t)
	dir := t.TempDir()
	cfg.MetricsPath = filepath.Join(dir, "uflp.prom")
	cfg.ManifestPath = filepath.Join(dir, "manifest.yaml")

	written := testutil.ToFloat64(Samples.WithLabelValues("written"))
	report, err := Generate(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, written+5, testutil.ToFloat64(Samples.WithLabelValues("written")))

	metrics, err := os.ReadFile(cfg.MetricsPath)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(metrics), "uflp_samples_total"))
	assert.True(t, strings.Contains(string(metrics), `uflp_oracle_solve_seconds_count{oracle="bnb"}`))

	m, err := ReadManifest(cfg.ManifestPath)
	require.NoError(t, err)
	assert.Equal(t, report.RunID, m.RunID)
	assert.Equal(t, 5, m.Requested)
	assert.Equal(t, 5, m.Written)
	assert.Equal(t, cfg.NumClient, m.Config.NumClient)
	assert.Equal(t, cfg.OutputPath, m.Config.OutputPath)
	assert.Empty(t, m.Error)
}

func TestGenerateManifestRecordsFailure(t *testing.T) {
	cfg := testConfig(t)
	cfg.ManifestPath = filepath.Join(t.TempDir(), "manifest.yaml")
	oracle, _ := failingOn(0, NewOracleError(ReasonInfeasible, errors.New("no solution")))
	cfg.Oracle = oracle

	_, err := Generate(context.Background(), cfg)
	require.Error(t, err)

	m, err := ReadManifest(cfg.ManifestPath)
	require.NoError(t, err)
	assert.Zero(t, m.Written)
	assert.Contains(t, m.Error, "sample 0")
}
