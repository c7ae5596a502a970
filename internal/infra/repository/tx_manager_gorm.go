package repository

import (
	"context"

	repo "app/internal/repository"

	"gorm.io/gorm"
)

type txReposGorm struct {
	orders        repo.OrderRepository
	orderItems    repo.OrderItemRepository
	statusHistory repo.OrderStatusHistoryRepository
	products      repo.ProductRepository
	partners      repo.DeliveryPartnerRepository
	customers     repo.CustomerRepository
	users         repo.UserRepository
}

func (r *txReposGorm) Orders() repo.OrderRepository                     { return r.orders }
func (r *txReposGorm) OrderItems() repo.OrderItemRepository             { return r.orderItems }
func (r *txReposGorm) StatusHistory() repo.OrderStatusHistoryRepository { return r.statusHistory }
func (r *txReposGorm) Products() repo.ProductRepository                 { return r.products }
func (r *txReposGorm) DeliveryPartners() repo.DeliveryPartnerRepository { return r.partners }
func (r *txReposGorm) Customers() repo.CustomerRepository               { return r.customers }
func (r *txReposGorm) Users() repo.UserRepository                       { return r.users }

type TxManagerGorm struct {
	db *gorm.DB
}

func NewTxManagerGorm(db *gorm.DB) *TxManagerGorm {
	return &TxManagerGorm{db: db}
}

func (tm *TxManagerGorm) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	return tm.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		//repoはtxを持ったDBで作り直す
		r := &txReposGorm{
			orders:        NewOrderGormRepository(tx),
			orderItems:    NewOrderItemGormRepository(tx),
			statusHistory: NewOrderStatusHistoryGormRepository(tx),
			products:      NewProductGormRepository(tx),
			partners:      NewDeliveryPartnerGormRepository(tx),
			customers:     NewCustomerGormRepository(tx),
			users:         NewUserRepository(tx),
		}
		return fn(r)
	})
}
