package deploc

import (
	"context"
	"errors"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/deploc/internal/linecount"
	"github.com/jward/deploc/internal/progress"
	"github.com/jward/deploc/internal/store"
)

func fixtureDir(t *testing.T) string {
	t.Helper()
	dir, err := filepath.Abs(filepath.Join("testdata", "fake-test-app"))
	require.NoError(t, err)
	return dir
}

// constCounter reports one JavaScript file with code lines per package.
type constCounter struct {
	code  int
	calls atomic.Int32
	err   error
}

func (c *constCounter) Count(_ context.Context, req linecount.Request) (FileCounts, error) {
	c.calls.Add(1)
	if c.err != nil {
		return nil, c.err
	}
	return FileCounts{
		filepath.Join(req.Dir, "index.js"): {Language: "JavaScript", Code: c.code},
	}, nil
}

// =============================================================================
// Analyze
// =============================================================================

func TestAnalyze_FixtureWithBuiltinCounter(t *testing.T) {
	t.Parallel()
	e := New()

	root, err := e.Analyze(context.Background(), fixtureDir(t))
	require.NoError(t, err)
	assert.Len(t, root.Nodes(), 9)
	assert.Equal(t, "fake-test-app", root.Name)

	rep, err := e.Report(root)
	require.NoError(t, err)
	assert.Equal(t, Aggregate{Blank: 1, Comment: 1, Code: 5, NumFiles: 2}, rep.Application)
	assert.Equal(t, Aggregate{Blank: 0, Comment: 1, Code: 11, NumFiles: 9}, rep.Dependencies)
}

func TestAnalyze_WalksUpToAppRoot(t *testing.T) {
	t.Parallel()
	e := New(WithCounter("const", &constCounter{code: 1}))

	fromSubdir, err := e.Analyze(context.Background(), filepath.Join(fixtureDir(t), "lib"))
	require.NoError(t, err)
	assert.Equal(t, "fake-test-app", fromSubdir.Name)

	fromFile, err := e.Analyze(context.Background(), filepath.Join(fixtureDir(t), "index.js"))
	require.NoError(t, err)
	assert.Equal(t, fromSubdir.TreeString(), fromFile.TreeString())
}

func TestAnalyze_NoAppRoot(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	_, err := New().Analyze(context.Background(), dir)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoAppRoot)
	assert.Contains(t, err.Error(), "tried to traverse up (from '"+dir+"')")
}

func TestAnalyze_CounterErrorIsFatal(t *testing.T) {
	t.Parallel()
	boom := errors.New("cloc exited with code 2")
	e := New(WithCounter("const", &constCounter{err: boom}))

	_, err := e.Analyze(context.Background(), fixtureDir(t))
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestAnalyze_ReportsProgress(t *testing.T) {
	t.Parallel()
	var updates atomic.Int32
	est := progress.NewEstimator(func(float64) { updates.Add(1) })
	counter := &constCounter{code: 1}
	e := New(WithCounter("const", counter), WithProgress(est))

	_, err := e.Analyze(context.Background(), fixtureDir(t))
	require.NoError(t, err)
	assert.Equal(t, 100.0, est.Percent())
	assert.Equal(t, int32(9), counter.calls.Load())
	// discovery + total + one per node
	assert.Equal(t, int32(11), updates.Load())
}

// =============================================================================
// Report
// =============================================================================

func TestReport_FirstPartyPredicate(t *testing.T) {
	t.Parallel()
	e := New(
		WithCounter("const", &constCounter{code: 10}),
		WithFirstParty(func(n *Node) (bool, error) { return n.Name == "aModule", nil }),
	)
	root, err := e.Analyze(context.Background(), fixtureDir(t))
	require.NoError(t, err)

	rep, err := e.Report(root)
	require.NoError(t, err)
	assert.Equal(t, 30, rep.Application.Code)
	assert.Equal(t, 60, rep.Dependencies.Code)
}

func TestReport_LanguageAllowlist(t *testing.T) {
	t.Parallel()
	e := New(WithLanguages("C"))
	root, err := e.Analyze(context.Background(), fixtureDir(t))
	require.NoError(t, err)

	rep, err := e.Report(root)
	require.NoError(t, err)
	assert.Equal(t, 0, rep.Application.Code)
	assert.Equal(t, Aggregate{Comment: 1, Code: 3, NumFiles: 1}, rep.Dependencies)
}

// =============================================================================
// Run
// =============================================================================

func TestRun_StoresHistory(t *testing.T) {
	t.Parallel()
	s, err := store.NewStore(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	require.NoError(t, s.Migrate())
	t.Cleanup(func() { s.Close() })

	e := New(WithCounter("const", &constCounter{code: 2}), WithHistory(s))
	res, err := e.Run(context.Background(), fixtureDir(t))
	require.NoError(t, err)
	require.Positive(t, res.ScanID)
	assert.Equal(t, 2, res.Report.Application.Code)
	assert.Equal(t, 16, res.Report.Dependencies.Code)

	scan, err := s.ScanByID(res.ScanID)
	require.NoError(t, err)
	require.NotNil(t, scan)
	assert.Equal(t, "const", scan.Counter)
	assert.Equal(t, res.Root.Path, scan.Root)
	assert.Equal(t, res.Report.Dependencies, scan.Dependencies)
	assert.Equal(t, 9, scan.Packages)

	pkgs, err := s.PackagesByScan(res.ScanID)
	require.NoError(t, err)
	require.Len(t, pkgs, 9)
	assert.Equal(t, "fake-test-app", pkgs[0].Name)
}

func TestRun_WithoutHistory(t *testing.T) {
	t.Parallel()
	res, err := New(WithCounter("const", &constCounter{code: 1})).Run(context.Background(), fixtureDir(t))
	require.NoError(t, err)
	assert.Zero(t, res.ScanID)
	assert.Equal(t, "11.11", res.Report.ApplicationPercent())
}

func TestScan_LeavesCountsEmpty(t *testing.T) {
	t.Parallel()
	counter := &constCounter{code: 1}
	root, err := New(WithCounter("const", counter)).Scan(context.Background(), fixtureDir(t))
	require.NoError(t, err)
	assert.Len(t, root.Nodes(), 9)
	assert.Zero(t, counter.calls.Load())
	assert.Nil(t, root.LineCounts)
}
