package service

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gilchrisn/signed-louvain/backend/config"
	"github.com/gilchrisn/signed-louvain/backend/metrics"
	"github.com/gilchrisn/signed-louvain/backend/models"
	"github.com/gilchrisn/signed-louvain/pkg/signed"
)

const bridgeEdges = "# two pairs joined by a negative edge\n1 2 1\n3 4 1\n2 3 -1\n"

type fixture struct {
	dir        string
	metrics    *metrics.Registry
	datasets   *DatasetService
	jobs       *JobService
	clustering *ClusteringService
}

func newFixture(t *testing.T, workers int) *fixture {
	t.Helper()
	f := &fixture{dir: t.TempDir(), metrics: metrics.NewRegistry()}
	f.datasets = NewDatasetService(f.dir, f.metrics)
	f.jobs = NewJobService(f.datasets, config.JobConfig{
		MaxWorkers:      workers,
		JobTimeout:      time.Minute,
		CleanupInterval: time.Hour,
		ResultTTL:       time.Hour,
	}, f.metrics, "disabled")
	f.clustering = NewClusteringService(f.datasets, f.jobs)
	t.Cleanup(f.jobs.Close)
	return f
}

func (f *fixture) upload(t *testing.T, edges string) *models.Dataset {
	t.Helper()
	dataset, err := f.datasets.Upload("bridge", strings.NewReader(edges), models.LoadOptions{})
	require.NoError(t, err)
	return dataset
}

func (f *fixture) finished(t *testing.T, jobID string) *models.Job {
	t.Helper()
	require.Eventually(t, func() bool {
		job, err := f.jobs.Get(jobID)
		return err == nil && job.Status.Finished()
	}, 5*time.Second, 5*time.Millisecond)

	job, err := f.jobs.Get(jobID)
	require.NoError(t, err)
	return job
}

func (f *fixture) completedJob(t *testing.T, datasetID string) string {
	t.Helper()
	job, err := f.jobs.Submit(datasetID, models.JobParameters{})
	require.NoError(t, err)
	require.Equal(t, models.JobStatusCompleted, f.finished(t, job.ID).Status)
	return job.ID
}

func weight(t *testing.T, g *signed.Graph, u, v signed.NodeID) float64 {
	t.Helper()
	w, ok := g.Weight(u, v)
	require.True(t, ok, "edge %d-%d", u, v)
	return w
}

func TestDatasetUpload(t *testing.T) {
	f := newFixture(t, 1)
	dataset := f.upload(t, bridgeEdges)

	assert.Equal(t, "bridge", dataset.Name)
	assert.Equal(t, models.DatasetStatusReady, dataset.Status)
	assert.Equal(t, 4, dataset.Metadata.Graph.Nodes)
	assert.Equal(t, 3, dataset.Metadata.Graph.Edges)
	assert.Equal(t, 1, dataset.Metadata.Graph.NegativeEdges)
	assert.Equal(t, int64(len(bridgeEdges)), dataset.Metadata.FileSize)
	assert.FileExists(t, dataset.File)

	got, err := f.datasets.Get(dataset.ID)
	require.NoError(t, err)
	assert.Equal(t, dataset, got)

	g, err := f.datasets.Graph(dataset.ID)
	require.NoError(t, err)
	assert.Equal(t, -1.0, weight(t, g, 2, 3))

	assert.Len(t, f.datasets.List(), 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.DatasetsTotal))
}

func TestDatasetUploadOptions(t *testing.T) {
	f := newFixture(t, 1)
	dataset, err := f.datasets.Upload("csv", strings.NewReader("a,b,w\n1,2,4\n2,3,-2\n"), models.LoadOptions{
		Separator:        ",",
		SkipRows:         1,
		NormalizerFactor: 2,
	})
	require.NoError(t, err)

	g, err := f.datasets.Graph(dataset.ID)
	require.NoError(t, err)
	assert.Equal(t, 2.0, weight(t, g, 1, 2))
	assert.Equal(t, -1.0, weight(t, g, 2, 3))
}

func TestDatasetUploadDirected(t *testing.T) {
	f := newFixture(t, 1)
	dataset, err := f.datasets.Upload("arcs", strings.NewReader("1 2 1\n2 1 1\n3 4 1\n4 3 1\n2 3 -1\n"), models.LoadOptions{Directed: true})
	require.NoError(t, err)
	assert.True(t, dataset.Metadata.Graph.Directed)
	assert.Equal(t, 5, dataset.Metadata.Graph.Edges)

	g, err := f.datasets.Graph(dataset.ID)
	require.NoError(t, err)
	assert.False(t, g.Directed())
	assert.Equal(t, 2.0, weight(t, g, 1, 2))

	job, err := f.jobs.Submit(dataset.ID, models.JobParameters{})
	require.NoError(t, err)
	done := f.finished(t, job.ID)
	require.Equal(t, models.JobStatusCompleted, done.Status, done.Error)
	assert.Equal(t, 2, done.Result.NumCommunities)
}

func TestDatasetUploadRejected(t *testing.T) {
	f := newFixture(t, 1)

	_, err := f.datasets.Upload("bad", strings.NewReader("1 2 heavy\n"), models.LoadOptions{})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.datasets.Upload("bad", strings.NewReader(bridgeEdges), models.LoadOptions{SkipRows: -1})
	assert.ErrorIs(t, err, ErrInvalidInput)

	entries, err := os.ReadDir(f.dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Empty(t, f.datasets.List())
}

func TestDatasetDelete(t *testing.T) {
	f := newFixture(t, 1)
	dataset := f.upload(t, bridgeEdges)

	require.NoError(t, f.datasets.Delete(dataset.ID))
	assert.NoFileExists(t, dataset.File)

	_, err := f.datasets.Get(dataset.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, f.datasets.Delete(dataset.ID), ErrNotFound)
	assert.Equal(t, 0.0, testutil.ToFloat64(f.metrics.DatasetsTotal))
}

func TestJobCompletes(t *testing.T) {
	f := newFixture(t, 2)
	dataset := f.upload(t, bridgeEdges)

	resolution := 1.0
	job, err := f.jobs.Submit(dataset.ID, models.JobParameters{Resolution: &resolution})
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusQueued, job.Status)

	done := f.finished(t, job.ID)
	require.Equal(t, models.JobStatusCompleted, done.Status, done.Error)
	require.NotNil(t, done.Result)
	assert.InDelta(t, 0.5, done.Result.Objective, 1e-12)
	assert.Equal(t, 2, done.Result.NumCommunities)
	assert.Equal(t, 1, done.Result.NumLevels)
	assert.Equal(t, 100, done.Progress.Percentage)
	assert.NotNil(t, done.StartedAt)

	result, err := f.jobs.GetResult(job.ID)
	require.NoError(t, err)
	assert.Equal(t, signed.Partition{1: 0, 2: 0, 3: 1, 4: 1}, result.Partition)

	assert.Len(t, f.jobs.List(dataset.ID), 1)
	assert.Empty(t, f.jobs.List("other"))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.JobsTotal.WithLabelValues("completed")))
}

func TestJobSubmitErrors(t *testing.T) {
	f := newFixture(t, 1)
	dataset := f.upload(t, bridgeEdges)

	negative := -1.0
	_, err := f.jobs.Submit(dataset.ID, models.JobParameters{Resolution: &negative})
	assert.ErrorIs(t, err, ErrInvalidInput)

	passes := -2
	_, err = f.jobs.Submit(dataset.ID, models.JobParameters{MaxPasses: &passes})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.jobs.Submit("missing", models.JobParameters{})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.jobs.Get("missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, f.jobs.Cancel("missing"), ErrNotFound)
}

func TestJobCancelWhileQueued(t *testing.T) {
	f := newFixture(t, 1)
	dataset := f.upload(t, bridgeEdges)

	// Hold the only worker slot so the job stays queued.
	f.jobs.workers <- struct{}{}

	job, err := f.jobs.Submit(dataset.ID, models.JobParameters{})
	require.NoError(t, err)
	require.NoError(t, f.jobs.Cancel(job.ID))

	<-f.jobs.workers

	done := f.finished(t, job.ID)
	assert.Equal(t, models.JobStatusCancelled, done.Status)
	assert.Nil(t, done.Result)

	_, err = f.jobs.GetResult(job.ID)
	assert.ErrorIs(t, err, ErrJobNotFinished)

	// Cancelling again is a no-op.
	assert.NoError(t, f.jobs.Cancel(job.ID))
}

func TestJobCleanup(t *testing.T) {
	f := newFixture(t, 1)
	dataset := f.upload(t, bridgeEdges)
	jobID := f.completedJob(t, dataset.ID)

	assert.Equal(t, 0, f.jobs.cleanup(time.Now()))
	assert.Equal(t, 1, f.jobs.cleanup(time.Now().Add(2*time.Hour)))

	_, err := f.jobs.Get(jobID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.jobs.GetResult(jobID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClusteringQueries(t *testing.T) {
	f := newFixture(t, 1)
	dataset := f.upload(t, bridgeEdges)
	jobID := f.completedJob(t, dataset.ID)

	hierarchy, err := f.clustering.Hierarchy(dataset.ID, jobID)
	require.NoError(t, err)
	require.Len(t, hierarchy.Hierarchy.Levels, 1)
	assert.Equal(t, 2, hierarchy.Hierarchy.Levels[0].Communities)

	level, err := f.clustering.Level(dataset.ID, jobID, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, level.Communities)
	assert.Equal(t, signed.Partition{1: 0, 2: 0, 3: 1, 4: 1}, level.Partition)

	_, err = f.clustering.Level(dataset.ID, jobID, 3)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.clustering.Hierarchy("other-dataset", jobID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClusteringCommunity(t *testing.T) {
	f := newFixture(t, 1)
	dataset := f.upload(t, bridgeEdges)
	jobID := f.completedJob(t, dataset.ID)

	for _, id := range []string{"1", "c0_l1_1"} {
		com, err := f.clustering.Community(dataset.ID, jobID, 0, id)
		require.NoError(t, err)
		assert.Equal(t, "c0_l1_1", com.CommunityID)
		assert.Equal(t, []signed.NodeID{3, 4}, com.Members)
	}

	_, err := f.clustering.Community(dataset.ID, jobID, 0, "7")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.clustering.Community(dataset.ID, jobID, 0, "c0_l2_1")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestClusteringEvaluateAndCompare(t *testing.T) {
	f := newFixture(t, 2)
	dataset := f.upload(t, bridgeEdges)
	first := f.completedJob(t, dataset.ID)
	second := f.completedJob(t, dataset.ID)

	eval, err := f.clustering.Evaluate(dataset.ID, first, -1)
	require.NoError(t, err)
	assert.Equal(t, 0, eval.Level)
	assert.InDelta(t, 0.5, eval.Report.SignedModularity, 1e-12)
	assert.Equal(t, 0.0, eval.Report.Frustration.Total)

	comparison, err := f.clustering.Compare(first, second)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, comparison.NMI, 1e-12)

	other := f.upload(t, "1 2 1\n")
	third := f.completedJob(t, other.ID)
	_, err = f.clustering.Compare(first, third)
	assert.ErrorIs(t, err, ErrInvalidInput)
}
