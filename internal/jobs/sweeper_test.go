package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeShifts struct {
	calls []time.Time
	n     int
	err   error
}

func (f *fakeShifts) MarkNoShows(_ context.Context, asOf time.Time) (int, error) {
	f.calls = append(f.calls, asOf)
	return f.n, f.err
}

type fakeCheckIns struct {
	calls int
	err   error
}

func (f *fakeCheckIns) CountOpen(context.Context) (int, error) {
	f.calls++
	return 3, f.err
}

func TestNewSweeperRejectsBadSpec(t *testing.T) {
	_, err := NewSweeper("every tuesday", &fakeShifts{}, &fakeCheckIns{}, zap.NewNop())
	require.Error(t, err)
}

func TestSweepMarksAndCounts(t *testing.T) {
	shifts := &fakeShifts{n: 2}
	checkIns := &fakeCheckIns{}
	s, err := NewSweeper("*/15 * * * *", shifts, checkIns, nil)
	require.NoError(t, err)

	fixed := time.Date(2024, 12, 23, 18, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	s.Sweep(context.Background())

	require.Len(t, shifts.calls, 1)
	assert.Equal(t, fixed, shifts.calls[0])
	assert.Equal(t, 1, checkIns.calls)
}

func TestSweepCountsEvenWhenMarkingFails(t *testing.T) {
	shifts := &fakeShifts{err: errors.New("db down")}
	checkIns := &fakeCheckIns{}
	s, err := NewSweeper("@hourly", shifts, checkIns, zap.NewNop())
	require.NoError(t, err)

	s.Sweep(context.Background())

	assert.Equal(t, 1, checkIns.calls)
}

func TestStartStop(t *testing.T) {
	s, err := NewSweeper("@every 1h", &fakeShifts{}, &fakeCheckIns{}, zap.NewNop())
	require.NoError(t, err)

	s.Start()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
}
