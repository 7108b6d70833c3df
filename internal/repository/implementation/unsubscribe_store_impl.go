package implementation

import (
	"context"
	"errors"

	"linkchat-be/internal/model"
	"linkchat-be/internal/repository/contract"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UnsubscribeStoreImpl struct {
	db *gorm.DB
}

func NewUnsubscribeStore(db *gorm.DB) contract.UnsubscribeStore {
	return &UnsubscribeStoreImpl{db: db}
}

func (r *UnsubscribeStoreImpl) Unsubscribe(ctx context.Context, address string) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.MailUnsubscribe{Address: address}).Error
}

func (r *UnsubscribeStoreImpl) Resubscribe(ctx context.Context, address string) error {
	return r.db.WithContext(ctx).
		Where("address = ?", address).
		Delete(&model.MailUnsubscribe{}).Error
}

func (r *UnsubscribeStoreImpl) IsUnsubscribed(ctx context.Context, address string) (bool, error) {
	var m model.MailUnsubscribe
	err := r.db.WithContext(ctx).Where("address = ?", address).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
