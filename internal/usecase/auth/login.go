package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

// アクセストークンの発行の約束。cityはパートナーの担当都市（顧客は居住都市）
type TokenIssuer interface {
	Issue(userID string, role model.Role, city model.City, now time.Time) (string, time.Time, error)
}

type LoginInput struct {
	Email    string
	Password string
}

type LoginOutput struct {
	Token     string
	ExpiresAt time.Time
	UserID    string
	Role      model.Role
	City      model.City
}

type LoginUsecase struct {
	users     repo.UserRepository
	customers repo.CustomerRepository
	partners  repo.DeliveryPartnerRepository
	verifier  PasswordVerifier
	issuer    TokenIssuer
	clock     Clock
}

// DI
func NewLoginUsecase(
	users repo.UserRepository,
	customers repo.CustomerRepository,
	partners repo.DeliveryPartnerRepository,
	verifier PasswordVerifier,
	issuer TokenIssuer,
	clock Clock,
) *LoginUsecase {
	return &LoginUsecase{
		users:     users,
		customers: customers,
		partners:  partners,
		verifier:  verifier,
		issuer:    issuer,
		clock:     clock,
	}
}

// ログイン実行
func (u *LoginUsecase) Execute(ctx context.Context, in LoginInput) (LoginOutput, error) {
	email := strings.TrimSpace(in.Email)
	if email == "" || in.Password == "" {
		return LoginOutput{}, ErrInvalidCredentials
	}

	user, err := u.users.FindByEmail(ctx, email)
	if err != nil {
		//存在しないユーザーも同じエラーにする（列挙防止）
		return LoginOutput{}, ErrInvalidCredentials
	}
	if !user.IsActive {
		return LoginOutput{}, ErrInvalidCredentials
	}

	if !u.verifier.Verify(user.PasswordHash, in.Password) {
		return LoginOutput{}, ErrInvalidCredentials
	}

	//ロールプロフィールから都市をclaimに入れる
	var city model.City
	switch user.Role {
	case model.RoleCustomer:
		c, err := u.customers.FindByUserID(ctx, user.ID)
		if err != nil {
			return LoginOutput{}, ErrInvalidCredentials
		}
		city = c.City
	case model.RoleDeliveryPartner:
		p, err := u.partners.FindByUserID(ctx, user.ID)
		if err != nil {
			return LoginOutput{}, ErrInvalidCredentials
		}
		city = p.City
	}

	now := u.clock.Now()
	token, expiresAt, err := u.issuer.Issue(user.ID, user.Role, city, now)
	if err != nil {
		return LoginOutput{}, err
	}

	return LoginOutput{
		Token:     token,
		ExpiresAt: expiresAt,
		UserID:    user.ID,
		Role:      user.Role,
		City:      city,
	}, nil
}
