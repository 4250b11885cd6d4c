package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/weglobalmusic/wgme-backend/pkg/db"
)

const (
	OutboxRetentionJobName     = "outbox-retention"
	defaultOutboxRetentionDays = 30
)

type outboxPruner interface {
	DeletePublishedBefore(tx *gorm.DB, cutoff time.Time) (int64, error)
}

type OutboxRetentionJobParams struct {
	DB            db.Transactor
	Repository    outboxPruner
	RetentionDays int
}

func NewOutboxRetentionJob(params OutboxRetentionJobParams) (Job, error) {
	if params.DB == nil {
		return nil, errors.New("db runner required")
	}
	if params.Repository == nil {
		return nil, errors.New("outbox repository required")
	}
	days := params.RetentionDays
	if days <= 0 {
		days = defaultOutboxRetentionDays
	}
	return &outboxRetentionJob{
		db:        params.DB,
		repo:      params.Repository,
		retention: time.Duration(days) * 24 * time.Hour,
		now:       time.Now,
	}, nil
}

// outboxRetentionJob prunes published events once they age past retention.
type outboxRetentionJob struct {
	db        db.Transactor
	repo      outboxPruner
	retention time.Duration
	now       func() time.Time
}

func (j *outboxRetentionJob) Name() string { return OutboxRetentionJobName }

func (j *outboxRetentionJob) Run(ctx context.Context) (Result, error) {
	cutoff := j.now().UTC().Add(-j.retention)
	var deleted int64
	err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		n, err := j.repo.DeletePublishedBefore(tx, cutoff)
		deleted = n
		return err
	})
	if err != nil {
		return Result{}, fmt.Errorf("prune outbox before %s: %w", cutoff.Format(time.RFC3339), err)
	}
	return Result{Affected: int(deleted)}, nil
}
