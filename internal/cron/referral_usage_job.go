package cron

import (
	"context"
	"errors"
)

const ReferralUsageJobName = "referral-usage-reconcile"

type usageReconciler interface {
	ReconcileUsage(ctx context.Context) (int, error)
}

// NewReferralUsageJob repairs referral code counters that drifted from their
// referral rows.
func NewReferralUsageJob(reconciler usageReconciler) (Job, error) {
	if reconciler == nil {
		return nil, errors.New("referral reconciler required")
	}
	return &referralUsageJob{reconciler: reconciler}, nil
}

type referralUsageJob struct {
	reconciler usageReconciler
}

func (j *referralUsageJob) Name() string { return ReferralUsageJobName }

func (j *referralUsageJob) Run(ctx context.Context) (Result, error) {
	fixed, err := j.reconciler.ReconcileUsage(ctx)
	return Result{Affected: fixed}, err
}
