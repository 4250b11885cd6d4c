package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeReconciler struct {
	fixed int
	err   error
}

func (f fakeReconciler) ReconcileUsage(context.Context) (int, error) { return f.fixed, f.err }

func TestReferralUsageJob(t *testing.T) {
	job, err := NewReferralUsageJob(fakeReconciler{fixed: 4})
	require.NoError(t, err)
	assert.Equal(t, ReferralUsageJobName, job.Name())

	result, err := job.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, result.Affected)

	job, err = NewReferralUsageJob(fakeReconciler{fixed: 1, err: errors.New("partial")})
	require.NoError(t, err)
	result, err = job.Run(context.Background())
	assert.Error(t, err)
	assert.Equal(t, 1, result.Affected, "partial progress is still reported")

	_, err = NewReferralUsageJob(nil)
	assert.Error(t, err)
}

type fakePruner struct {
	cutoff time.Time
	err    error
}

func (f *fakePruner) DeletePublishedBefore(_ *gorm.DB, cutoff time.Time) (int64, error) {
	f.cutoff = cutoff
	if f.err != nil {
		return 0, f.err
	}
	return 7, nil
}

type passthroughTx struct{}

func (passthroughTx) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func TestOutboxRetentionJob(t *testing.T) {
	now := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	pruner := &fakePruner{}
	iface, err := NewOutboxRetentionJob(OutboxRetentionJobParams{DB: passthroughTx{}, Repository: pruner})
	require.NoError(t, err)
	job := iface.(*outboxRetentionJob)
	job.now = func() time.Time { return now }

	result, err := job.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, result.Affected)
	assert.Equal(t, now.Add(-30*24*time.Hour), pruner.cutoff)

	pruner.err = errors.New("boom")
	_, err = job.Run(context.Background())
	assert.Error(t, err)
}
