package repository

import (
	"context"

	"app/internal/domain/model"
)

type DeliveryPartnerRepository interface {
	Create(ctx context.Context, p model.DeliveryPartner) error
	FindByID(ctx context.Context, partnerID string) (model.DeliveryPartner, error)
	FindByUserID(ctx context.Context, userID string) (model.DeliveryPartner, error)

	// 現在statusがfromのときだけtoへ更新する。
	// accept（AVAILABLE→BUSY）と終端遷移（BUSY→AVAILABLE）の2経路だけが呼ぶ
	SetStatusIf(ctx context.Context, partnerID string, from model.PartnerStatus, to model.PartnerStatus) (bool, error)
}
