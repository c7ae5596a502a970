package auth

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"
)

var (
	// 入力が不正
	ErrInvalidEmailFormat = errors.New("invalid email format")
	ErrPasswordTooShort   = errors.New("password too short")
	ErrInvalidInput       = errors.New("invalid input")

	// 競合
	ErrEmailAlreadyExists = errors.New("email already exists")
)

// UUID 等のIDを作る約束
type IDGenerator interface {
	NewID() string
}

// 現在の時間
type Clock interface {
	Now() time.Time
}

// 会員登録の入力。roleに応じて顧客かパートナーのプロフィールも作る
type RegisterInput struct {
	Email    string
	Password string
	Name     string
	Phone    string
	Role     model.Role
	City     model.City

	// CUSTOMER用
	Address string

	// DELIVERY_PARTNER用
	VehicleType string
}

type RegisterOutput struct {
	UserID string
	Role   model.Role
}

type RegisterUsecase struct {
	tx     repo.TransactionManager
	hasher PasswordHasher
	idGen  IDGenerator
	clock  Clock
}

// DI
func NewRegisterUsecase(
	tx repo.TransactionManager,
	hasher PasswordHasher,
	idGen IDGenerator,
	clock Clock,
) *RegisterUsecase {
	return &RegisterUsecase{
		tx:     tx,
		hasher: hasher,
		idGen:  idGen,
		clock:  clock,
	}
}

// 会員登録実行
func (u *RegisterUsecase) Execute(ctx context.Context, in RegisterInput) (RegisterOutput, error) {
	var out RegisterOutput

	email := strings.TrimSpace(in.Email)

	// emailの形式チェック
	if !isValidEmailFormat(email) {
		return out, ErrInvalidEmailFormat
	}

	// password の長さチェック（最小8文字）
	if len(in.Password) < 8 {
		return out, ErrPasswordTooShort
	}

	if strings.TrimSpace(in.Name) == "" {
		return out, ErrInvalidInput
	}
	if in.Role != model.RoleCustomer && in.Role != model.RoleDeliveryPartner {
		return out, ErrInvalidInput
	}
	if !model.IsValidCity(in.City) {
		return out, ErrInvalidInput
	}

	hash, err := u.hasher.Hash(in.Password)
	if err != nil {
		return out, err
	}

	now := u.clock.Now()

	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		// email重複チェック
		existing, err := r.Users().FindByEmail(ctx, email)
		if err == nil && existing != nil {
			return ErrEmailAlreadyExists
		}
		if err != nil && !errors.Is(err, repo.ErrUserNotFound) {
			return err
		}

		user := model.User{
			ID:           u.idGen.NewID(),
			Email:        email,
			PasswordHash: hash,
			Name:         strings.TrimSpace(in.Name),
			Phone:        strings.TrimSpace(in.Phone),
			Role:         in.Role,
			IsActive:     true,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := r.Users().Create(ctx, &user); err != nil {
			return err
		}

		//ユーザーとロールプロフィールは同一トランザクションで作る
		switch in.Role {
		case model.RoleCustomer:
			if err := r.Customers().Create(ctx, model.Customer{
				ID:        u.idGen.NewID(),
				UserID:    user.ID,
				City:      in.City,
				Address:   strings.TrimSpace(in.Address),
				CreatedAt: now,
				UpdatedAt: now,
			}); err != nil {
				return err
			}
		case model.RoleDeliveryPartner:
			//パートナーはAVAILABLEで生まれる
			if err := r.DeliveryPartners().Create(ctx, model.DeliveryPartner{
				ID:          u.idGen.NewID(),
				UserID:      user.ID,
				City:        in.City,
				VehicleType: strings.TrimSpace(in.VehicleType),
				Status:      model.PartnerStatusAvailable,
				CreatedAt:   now,
				UpdatedAt:   now,
			}); err != nil {
				return err
			}
		}

		out = RegisterOutput{UserID: user.ID, Role: user.Role}
		return nil
	})

	if err != nil {
		return RegisterOutput{}, err
	}
	return out, nil
}

func isValidEmailFormat(s string) bool {
	if s == "" {
		return false
	}
	_, err := mail.ParseAddress(s)
	return err == nil
}
