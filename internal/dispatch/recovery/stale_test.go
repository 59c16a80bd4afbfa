package recovery

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RocketHubAI/rocket-dispatch/internal/domain/models"
)

type fakeExecStore struct {
	stuck    []models.TaskExecution
	stuckErr error
	marked   map[uuid.UUID]string
	markErr  error
}

func (f *fakeExecStore) FindStuckRunning(context.Context, time.Duration) ([]models.TaskExecution, error) {
	return f.stuck, f.stuckErr
}

func (f *fakeExecStore) MarkFailed(_ context.Context, id uuid.UUID, msg string) error {
	if f.markErr != nil {
		return f.markErr
	}
	if f.marked == nil {
		f.marked = map[uuid.UUID]string{}
	}
	f.marked[id] = msg
	return nil
}

type fakeReleaser struct {
	released []uuid.UUID
}

func (f *fakeReleaser) ReleaseClaim(_ context.Context, id uuid.UUID) error {
	f.released = append(f.released, id)
	return nil
}

func stuckExec() models.TaskExecution {
	return models.TaskExecution{
		ID:        uuid.New(),
		TaskID:    uuid.New(),
		Status:    models.ExecutionStatusRunning,
		StartedAt: time.Now().UTC().Add(-time.Hour),
	}
}

func TestSweepRecoversStuckExecutions(t *testing.T) {
	e1, e2 := stuckExec(), stuckExec()
	execs := &fakeExecStore{stuck: []models.TaskExecution{e1, e2}}
	rel := &fakeReleaser{}

	s := NewStaleSweeper(execs, rel, 10*time.Minute, zerolog.Nop())
	res, err := s.Sweep(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, res.Recovered)
	assert.Zero(t, res.Failed)
	assert.Contains(t, execs.marked, e1.ID)
	assert.Contains(t, execs.marked, e2.ID)
	assert.ElementsMatch(t, []uuid.UUID{e1.TaskID, e2.TaskID}, rel.released)
}

func TestSweepNothingStuck(t *testing.T) {
	s := NewStaleSweeper(&fakeExecStore{}, &fakeReleaser{}, 10*time.Minute, zerolog.Nop())
	res, err := s.Sweep(context.Background())

	require.NoError(t, err)
	assert.Zero(t, res.Recovered)
}

func TestSweepMarkFailureCountsAsFailed(t *testing.T) {
	execs := &fakeExecStore{stuck: []models.TaskExecution{stuckExec()}, markErr: errors.New("db down")}
	rel := &fakeReleaser{}

	s := NewStaleSweeper(execs, rel, 10*time.Minute, zerolog.Nop())
	res, err := s.Sweep(context.Background())

	require.NoError(t, err)
	assert.Zero(t, res.Recovered)
	assert.Equal(t, 1, res.Failed)
	assert.Empty(t, rel.released)
}

func TestSweepSelectionFailure(t *testing.T) {
	execs := &fakeExecStore{stuckErr: errors.New("db down")}
	s := NewStaleSweeper(execs, &fakeReleaser{}, 10*time.Minute, zerolog.Nop())

	res, err := s.Sweep(context.Background())
	assert.Error(t, err)
	assert.Nil(t, res)
}

type fakeRetention struct {
	deleted int64
	err     error
	cutoff  time.Time
}

func (f *fakeRetention) DeleteTerminalBefore(_ context.Context, cutoff time.Time) (int64, error) {
	f.cutoff = cutoff
	return f.deleted, f.err
}

func TestCleanDeletesBeforeRetentionWindow(t *testing.T) {
	ret := &fakeRetention{deleted: 12}
	c := NewCleaner(ret, 30, zerolog.Nop())

	n, err := c.Clean(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(12), n)

	wantCutoff := time.Now().UTC().AddDate(0, 0, -30)
	assert.WithinDuration(t, wantCutoff, ret.cutoff, time.Minute)
}

func TestCleanPropagatesError(t *testing.T) {
	c := NewCleaner(&fakeRetention{err: errors.New("db down")}, 30, zerolog.Nop())
	_, err := c.Clean(context.Background())
	assert.Error(t, err)
}
