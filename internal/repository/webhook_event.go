package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"shopify-tally-integration/internal/model"
)

const (
	WebhookProcessed = "processed"
	WebhookFailed    = "failed"
)

type WebhookEventRepository interface {
	Exists(ctx context.Context, eventID string) (bool, error)
	MarkProcessed(ctx context.Context, eventID, topic, shopifyOrderID string) error
	MarkFailed(ctx context.Context, eventID, topic, shopifyOrderID string, cause error) error
}

type webhookEventRepositoryImpl struct {
	db *gorm.DB
}

func NewWebhookEventRepository(db *gorm.DB) WebhookEventRepository {
	return &webhookEventRepositoryImpl{db: db}
}

// Exists reports whether the delivery was already processed successfully.
// Failed deliveries may be retried by the sender.
func (r *webhookEventRepositoryImpl) Exists(ctx context.Context, eventID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.WebhookEvent{}).
		Where("event_id = ?", eventID).
		Where("status = ?", WebhookProcessed).
		Count(&count).Error

	return count > 0, err
}

func (r *webhookEventRepositoryImpl) MarkProcessed(ctx context.Context, eventID, topic, shopifyOrderID string) error {
	return r.save(ctx, &model.WebhookEvent{
		EventID:        eventID,
		Topic:          topic,
		ShopifyOrderID: shopifyOrderID,
		Status:         WebhookProcessed,
		ProcessedAt:    time.Now(),
	})
}

func (r *webhookEventRepositoryImpl) MarkFailed(ctx context.Context, eventID, topic, shopifyOrderID string, cause error) error {
	msg := cause.Error()
	if len(msg) > 1024 {
		msg = msg[:1024]
	}
	return r.save(ctx, &model.WebhookEvent{
		EventID:        eventID,
		Topic:          topic,
		ShopifyOrderID: shopifyOrderID,
		Status:         WebhookFailed,
		Error:          msg,
		ProcessedAt:    time.Now(),
	})
}

func (r *webhookEventRepositoryImpl) save(ctx context.Context, event *model.WebhookEvent) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "event_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"topic", "shopify_order_id", "status", "error", "processed_at"}),
	}).Create(event).Error
}
