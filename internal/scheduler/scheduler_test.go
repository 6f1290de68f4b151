package scheduler

import (
	"context"
	"errors"
	"testing"

	"github.com/mathurkanhaiya/star-rewards-hub-sub000/internal/model"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeJobs struct {
	distributed int
	reloaded    int
	verified    int
	err         error
}

func (f *fakeJobs) DistributeDue(context.Context) (int, error) {
	f.distributed++
	return 1, f.err
}

func (f *fakeJobs) Reload(context.Context) error {
	f.reloaded++
	return f.err
}

func (f *fakeJobs) VerifyLedger(context.Context) ([]model.LedgerMismatch, error) {
	f.verified++
	return []model.LedgerMismatch{{}}, f.err
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func TestNewRegistersConfiguredJobs(t *testing.T) {
	jobs := &fakeJobs{}
	s, err := New(Specs{Contests: "@every 5m", Settings: "@every 1m"}, jobs, jobs, jobs, quietLogger())
	require.NoError(t, err)
	assert.Equal(t, 2, s.Jobs())

	_, err = New(Specs{Contests: "every now and then"}, jobs, jobs, jobs, quietLogger())
	assert.Error(t, err)
}

func TestWrapRunsJob(t *testing.T) {
	jobs := &fakeJobs{}
	s, err := New(Specs{}, jobs, jobs, jobs, quietLogger())
	require.NoError(t, err)

	s.wrap("reload_settings", jobs.Reload)()
	assert.Equal(t, 1, jobs.reloaded)

	jobs.err = errors.New("db down")
	assert.NotPanics(t, s.wrap("reload_settings", jobs.Reload))
	assert.Equal(t, 2, jobs.reloaded)
}

func TestStartStop(t *testing.T) {
	jobs := &fakeJobs{}
	s, err := New(Specs{Ledger: "@daily"}, jobs, jobs, jobs, quietLogger())
	require.NoError(t, err)

	s.Start()
	s.Stop(context.Background())
	assert.Zero(t, jobs.verified)
}
