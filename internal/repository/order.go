package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"shopify-tally-integration/internal/model"
)

// Columns rewritten when an order is delivered again. Manual overrides and
// created_at are left as stored.
var orderUpsertColumns = []string{
	"order_number",
	"order_date",
	"customer_name",
	"customer_email",
	"customer_phone",
	"currency",
	"local_currency",
	"exchange_rate",
	"total_amount",
	"taxable_amount",
	"shipping_charge",
	"shipping_tax",
	"tax_policy",
	"payment_method",
	"delivery_channel",
	"voucher_type",
	"source",
	"raw_payload",
	"updated_at",
}

type ClassificationUpdate struct {
	PaymentMethod   string
	DeliveryChannel string
	VoucherType     string
	RawPayload      datatypes.JSON // written only when non-empty
}

type ManualOverride struct {
	Payment     string
	Channel     string
	VoucherType string
}

// MergeFunc folds the stored row into an incoming order before it is
// written. stored carries only the manual override columns.
type MergeFunc func(order, stored *model.Order)

type OrderRepository interface {
	ReplaceWithItems(ctx context.Context, order *model.Order, items []model.OrderItem, merge MergeFunc) error
	FindByShopifyID(ctx context.Context, shopifyOrderID string) (*model.Order, error)
	FindByOrderNumber(ctx context.Context, orderNumber string) (*model.Order, error)
	ListByDateRange(ctx context.Context, from, to string) ([]*model.Order, error)
	ListByChannel(ctx context.Context, channel string) ([]*model.Order, error)
	UpdateClassification(ctx context.Context, shopifyOrderID string, upd ClassificationUpdate) error
	SetManualOverride(ctx context.Context, shopifyOrderID string, o ManualOverride) error
}

type orderRepoImpl struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepoImpl{
		db: db,
	}
}

// ReplaceWithItems upserts order by its Shopify id and swaps its whole item
// set, all in one transaction. Calling it again with the same id converges on
// a single order with exactly the given items. When the order already exists,
// merge sees its row locked so an override cannot land between the read and
// the write.
func (r *orderRepoImpl) ReplaceWithItems(ctx context.Context, order *model.Order, items []model.OrderItem, merge MergeFunc) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if merge != nil {
			var stored model.Order
			err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Select("shopify_order_id", "manual_payment", "manual_channel").
				Where("shopify_order_id = ?", order.ShopifyOrderID).
				Take(&stored).Error
			switch {
			case err == nil:
				merge(order, &stored)
			case !errors.Is(err, gorm.ErrRecordNotFound):
				return err
			}
		}

		err := tx.Omit(clause.Associations).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "shopify_order_id"}},
				DoUpdates: clause.AssignmentColumns(orderUpsertColumns),
			}).
			Create(order).Error
		if err != nil {
			return err
		}

		if err := tx.Where("shopify_order_id = ?", order.ShopifyOrderID).
			Delete(&model.OrderItem{}).Error; err != nil {
			return err
		}

		if len(items) == 0 {
			return nil
		}
		for i := range items {
			items[i].ID = 0
			items[i].ShopifyOrderID = order.ShopifyOrderID
		}
		return tx.Create(&items).Error
	})
}

func (r *orderRepoImpl) FindByShopifyID(ctx context.Context, shopifyOrderID string) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).
		Preload("Items", orderedItems).
		Where("shopify_order_id = ?", shopifyOrderID).
		First(&order).Error
	if err != nil {
		return nil, err
	}

	return &order, nil
}

func (r *orderRepoImpl) FindByOrderNumber(ctx context.Context, orderNumber string) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).
		Preload("Items", orderedItems).
		Where("order_number = ?", orderNumber).
		Order("shopify_order_id").
		First(&order).Error
	if err != nil {
		return nil, err
	}

	return &order, nil
}

// ListByDateRange returns orders dated within [from, to], both inclusive,
// ascending by date.
func (r *orderRepoImpl) ListByDateRange(ctx context.Context, from, to string) ([]*model.Order, error) {
	var orders []*model.Order
	err := r.db.WithContext(ctx).
		Preload("Items", orderedItems).
		Where("order_date BETWEEN ? AND ?", from, to).
		Order("order_date, shopify_order_id").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}

	return orders, nil
}

// ListByChannel returns orders carrying the given derived channel and no
// manual channel override.
func (r *orderRepoImpl) ListByChannel(ctx context.Context, channel string) ([]*model.Order, error) {
	var orders []*model.Order
	err := r.db.WithContext(ctx).
		Where("delivery_channel = ?", channel).
		Where("COALESCE(manual_channel, '') = ''").
		Order("order_date, shopify_order_id").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}

	return orders, nil
}

func (r *orderRepoImpl) UpdateClassification(ctx context.Context, shopifyOrderID string, upd ClassificationUpdate) error {
	values := map[string]interface{}{
		"payment_method":   upd.PaymentMethod,
		"delivery_channel": upd.DeliveryChannel,
		"voucher_type":     upd.VoucherType,
		"updated_at":       time.Now(),
	}
	if len(upd.RawPayload) > 0 {
		values["raw_payload"] = upd.RawPayload
	}

	result := r.db.WithContext(ctx).
		Model(&model.Order{}).
		Where("shopify_order_id = ?", shopifyOrderID).
		Updates(values)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *orderRepoImpl) SetManualOverride(ctx context.Context, shopifyOrderID string, o ManualOverride) error {
	result := r.db.WithContext(ctx).
		Model(&model.Order{}).
		Where("shopify_order_id = ?", shopifyOrderID).
		Updates(map[string]interface{}{
			"manual_payment": o.Payment,
			"manual_channel": o.Channel,
			"voucher_type":   o.VoucherType,
			"updated_at":     time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func orderedItems(db *gorm.DB) *gorm.DB {
	return db.Order("position")
}
