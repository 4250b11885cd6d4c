package outbox

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/weglobalmusic/wgme-backend/pkg/config"
	"github.com/weglobalmusic/wgme-backend/pkg/db/dbtest"
	"github.com/weglobalmusic/wgme-backend/pkg/db/models"
	"github.com/weglobalmusic/wgme-backend/pkg/enums"
	"github.com/weglobalmusic/wgme-backend/pkg/outbox/payloads"
)

func TestEmitWritesEnvelopeInsideTransaction(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	svc := NewService(repo, nil)

	referralID := uuid.New()
	err := conn.Transaction(func(tx *gorm.DB) error {
		return svc.Emit(context.Background(), tx, DomainEvent{
			EventType:     enums.EventReferralRecorded,
			AggregateType: enums.AggregateReferral,
			AggregateID:   referralID,
			Data:          payloads.ReferralRecordedEvent{ReferralID: referralID, Status: enums.ReferralStatusPending},
		})
	})
	require.NoError(t, err)

	var rows []models.OutboxEvent
	require.NoError(t, conn.Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, referralID, rows[0].AggregateID)

	env, err := DecodeEnvelope(rows[0].Payload)
	require.NoError(t, err)
	assert.Equal(t, 1, env.Version)
	assert.NotEmpty(t, env.EventID)
	assert.Contains(t, string(env.Data), referralID.String())
}

func TestEmitRequiresTransactionAndKnownTypes(t *testing.T) {
	conn := dbtest.Open(t)
	svc := NewService(NewRepository(conn), nil)

	err := svc.Emit(context.Background(), nil, DomainEvent{EventType: enums.EventReferralRecorded, AggregateType: enums.AggregateReferral})
	assert.Error(t, err)

	err = conn.Transaction(func(tx *gorm.DB) error {
		return svc.Emit(context.Background(), tx, DomainEvent{EventType: "bogus", AggregateType: enums.AggregateReferral})
	})
	assert.Error(t, err)
}

func TestRepositoryPublishLifecycle(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)

	first := models.OutboxEvent{EventType: enums.EventReferralRecorded, AggregateType: enums.AggregateReferral, AggregateID: uuid.New(), Payload: []byte(`{}`)}
	second := models.OutboxEvent{EventType: enums.EventReferralCodeIssued, AggregateType: enums.AggregateReferralCode, AggregateID: uuid.New(), Payload: []byte(`{}`)}
	require.NoError(t, repo.Insert(conn, first))
	require.NoError(t, repo.Insert(conn, second))

	var pending []models.OutboxEvent
	require.NoError(t, conn.Transaction(func(tx *gorm.DB) error {
		var err error
		pending, err = repo.FetchUnpublishedForPublish(tx, 10, 3)
		return err
	}))
	require.Len(t, pending, 2)

	require.NoError(t, repo.MarkPublishedTx(conn, pending[0].ID))
	require.NoError(t, repo.MarkFailedTx(conn, pending[1].ID, errors.New("unavailable")))

	var failed models.OutboxEvent
	require.NoError(t, conn.First(&failed, "id = ?", pending[1].ID).Error)
	assert.Equal(t, 1, failed.AttemptCount)
	require.NotNil(t, failed.LastError)
	assert.Equal(t, "unavailable", *failed.LastError)

	require.NoError(t, repo.MarkTerminalTx(conn, failed.ID, errors.New("gave up"), 3))
	rows, err := repo.FetchUnpublishedForPublish(conn, 10, 3)
	require.NoError(t, err)
	assert.Empty(t, rows, "published and terminal rows must not be fetched again")
}

func TestDeletePublishedBefore(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	now := time.Now().UTC()
	old := now.Add(-40 * 24 * time.Hour)
	recent := now.Add(-time.Hour)

	event := func(published *time.Time) models.OutboxEvent {
		return models.OutboxEvent{
			EventType:     enums.EventReferralRecorded,
			AggregateType: enums.AggregateReferral,
			AggregateID:   uuid.New(),
			Payload:       []byte(`{}`),
			PublishedAt:   published,
		}
	}
	require.NoError(t, repo.Insert(conn, event(&old)))
	require.NoError(t, repo.Insert(conn, event(&recent)))
	require.NoError(t, repo.Insert(conn, event(nil)))

	deleted, err := repo.DeletePublishedBefore(conn, now.Add(-30*24*time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 1, deleted)

	var remaining int64
	require.NoError(t, conn.Model(&models.OutboxEvent{}).Count(&remaining).Error)
	assert.EqualValues(t, 2, remaining)
}

func TestTopicRouter(t *testing.T) {
	_, err := NewTopicRouter(config.PubSubConfig{})
	require.Error(t, err)

	router, err := NewTopicRouter(config.PubSubConfig{ReferralTopic: "referrals"})
	require.NoError(t, err)

	resolved, err := router.Resolve(models.OutboxEvent{EventType: enums.EventReferralRecorded, Payload: []byte(`{"version":1,"eventId":"e1","data":{}}`)})
	require.NoError(t, err)
	assert.Equal(t, "referrals", resolved.Topic)
	assert.Equal(t, "e1", resolved.Envelope.EventID)

	_, err = router.Resolve(models.OutboxEvent{EventType: "unknown"})
	var nonRetry NonRetryableError
	assert.True(t, errors.As(err, &nonRetry))

	_, err = router.Resolve(models.OutboxEvent{EventType: enums.EventReferralRecorded, Payload: []byte(`not json`)})
	assert.True(t, errors.As(err, &nonRetry))
}
