package repository

import (
	"context"
	"errors"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"gorm.io/gorm"
)

type DeliveryPartnerGormRepository struct {
	db *gorm.DB
}

func NewDeliveryPartnerGormRepository(db *gorm.DB) *DeliveryPartnerGormRepository {
	return &DeliveryPartnerGormRepository{db: db}
}

func (r *DeliveryPartnerGormRepository) Create(ctx context.Context, p model.DeliveryPartner) error {
	return r.db.WithContext(ctx).Create(&p).Error
}

func (r *DeliveryPartnerGormRepository) FindByID(ctx context.Context, partnerID string) (model.DeliveryPartner, error) {
	var p model.DeliveryPartner
	err := r.db.WithContext(ctx).Where("id = ?", partnerID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.DeliveryPartner{}, repo.ErrNotFound
	}
	if err != nil {
		return model.DeliveryPartner{}, err
	}
	return p, nil
}

func (r *DeliveryPartnerGormRepository) FindByUserID(ctx context.Context, userID string) (model.DeliveryPartner, error) {
	var p model.DeliveryPartner
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.DeliveryPartner{}, repo.ErrNotFound
	}
	if err != nil {
		return model.DeliveryPartner{}, err
	}
	return p, nil
}

// 現在statusがfromのときだけtoへ。0行更新ならfalse
func (r *DeliveryPartnerGormRepository) SetStatusIf(ctx context.Context, partnerID string, from model.PartnerStatus, to model.PartnerStatus) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.DeliveryPartner{}).
		Where("id = ? AND status = ?", partnerID, from).
		Update("status", to)

	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	return true, nil
}
