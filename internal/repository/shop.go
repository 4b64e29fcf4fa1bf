package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"shopify-tally-integration/internal/model"
)

type ShopRepository interface {
	SaveState(ctx context.Context, domain, state string) error
	SaveToken(ctx context.Context, domain, accessToken, scope string) error
	Get(ctx context.Context, domain string) (*model.Shop, error)
}

type shopRepoImpl struct {
	db *gorm.DB
}

func NewShopRepository(db *gorm.DB) ShopRepository {
	return &shopRepoImpl{
		db: db,
	}
}

// SaveState records the OAuth nonce for a pending install without touching
// any token already stored.
func (r *shopRepoImpl) SaveState(ctx context.Context, domain, state string) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "domain"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"state":      state,
			"updated_at": time.Now(),
		}),
	}).Create(&model.Shop{Domain: domain, State: state}).Error
}

// SaveToken stores the access token and consumes the pending nonce.
func (r *shopRepoImpl) SaveToken(ctx context.Context, domain, accessToken, scope string) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "domain"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"access_token": accessToken,
			"scope":        scope,
			"state":        "",
			"updated_at":   time.Now(),
		}),
	}).Create(&model.Shop{Domain: domain, AccessToken: accessToken, Scope: scope}).Error
}

func (r *shopRepoImpl) Get(ctx context.Context, domain string) (*model.Shop, error) {
	var shop model.Shop
	err := r.db.WithContext(ctx).
		Where("domain = ?", domain).
		First(&shop).Error
	if err != nil {
		return nil, err
	}

	return &shop, nil
}
