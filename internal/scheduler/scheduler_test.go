package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingJob struct {
	name  string
	runs  atomic.Int32
	err   error
	block bool
}

func (j *countingJob) Name() string { return j.name }

func (j *countingJob) Run(ctx context.Context) error {
	j.runs.Add(1)
	if j.block {
		<-ctx.Done()
		return ctx.Err()
	}
	return j.err
}

func TestJobsRunImmediatelyOnStart(t *testing.T) {
	weather := &countingJob{name: "weather"}
	report := &countingJob{name: "report"}

	s := New(time.Hour, zerolog.Nop(), weather, report)
	require.NoError(t, s.Start())
	defer s.Stop()

	assert.Eventually(t, func() bool {
		return weather.runs.Load() == 1 && report.runs.Load() == 1
	}, time.Second, 10*time.Millisecond)
}

func TestJobsRepeatOnInterval(t *testing.T) {
	job := &countingJob{name: "weather"}

	s := New(time.Second, zerolog.Nop(), job)
	require.NoError(t, s.Start())
	defer s.Stop()

	assert.Eventually(t, func() bool {
		return job.runs.Load() >= 2
	}, 3*time.Second, 20*time.Millisecond)
}

func TestFailingJobDoesNotAffectOthers(t *testing.T) {
	failing := &countingJob{name: "weather", err: errors.New("location denied")}
	hung := &countingJob{name: "hung", block: true}
	ok := &countingJob{name: "report"}

	s := New(time.Hour, zerolog.Nop(), failing, hung, ok)
	require.NoError(t, s.Start())

	assert.Eventually(t, func() bool {
		return failing.runs.Load() == 1 && ok.runs.Load() == 1 && hung.runs.Load() == 1
	}, time.Second, 10*time.Millisecond)

	// stop unblocks the hung cycle
	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("stop did not return")
	}
}

func TestStartWithoutJobs(t *testing.T) {
	s := New(time.Minute, zerolog.Nop())
	assert.NoError(t, s.Start())
	s.Stop()
}

func TestStartRejectsZeroInterval(t *testing.T) {
	s := New(0, zerolog.Nop(), &countingJob{name: "x"})
	assert.Error(t, s.Start())
	s.Stop()
}
