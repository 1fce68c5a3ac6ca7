package restaurants

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/andresouza-dev/pratoexpress-backend/pkg/db/models"
	"github.com/andresouza-dev/pratoexpress-backend/pkg/enums"
)

// DishSales is one row of the top-sellers report.
type DishSales struct {
	DishID  uuid.UUID `json:"dish_id"`
	Name    string    `json:"name"`
	QtySold int64     `json:"qty_sold"`
}

// Repository exposes restaurant and menu reads, the owner's menu and profile
// writes, and the admin surface.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	ListApproved(ctx context.Context) ([]models.Restaurant, error)
	ListAll(ctx context.Context) ([]models.Restaurant, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Restaurant, error)
	FindByOwner(ctx context.Context, ownerID uuid.UUID) (*models.Restaurant, error)
	UpdateProfile(ctx context.Context, restaurantID uuid.UUID, updates map[string]any) (int64, error)
	ListDishes(ctx context.Context, restaurantID uuid.UUID) ([]models.Dish, error)
	ListAllDishes(ctx context.Context, restaurantID uuid.UUID) ([]models.Dish, error)
	CreateDish(ctx context.Context, dish *models.Dish) error
	UpdateDish(ctx context.Context, restaurantID, dishID uuid.UUID, updates map[string]any) (int64, error)
	DeleteDish(ctx context.Context, restaurantID, dishID uuid.UUID) (int64, error)
	DeliveredAggregates(ctx context.Context, restaurantID uuid.UUID) (revenueCents int64, orderCount int64, err error)
	TopSellingDishes(ctx context.Context, restaurantID uuid.UUID, limit int) ([]DishSales, error)
	SetApproved(ctx context.Context, id uuid.UUID, approved bool) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a restaurants repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) ListApproved(ctx context.Context) ([]models.Restaurant, error) {
	var restaurants []models.Restaurant
	err := r.db.WithContext(ctx).
		Where("approved = ?", true).
		Order("name ASC").
		Find(&restaurants).Error
	if err != nil {
		return nil, err
	}
	return restaurants, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Restaurant, error) {
	var restaurant models.Restaurant
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&restaurant).Error
	if err != nil {
		return nil, err
	}
	return &restaurant, nil
}

func (r *repository) FindByOwner(ctx context.Context, ownerID uuid.UUID) (*models.Restaurant, error) {
	var restaurant models.Restaurant
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		First(&restaurant).Error
	if err != nil {
		return nil, err
	}
	return &restaurant, nil
}

func (r *repository) ListDishes(ctx context.Context, restaurantID uuid.UUID) ([]models.Dish, error) {
	var dishes []models.Dish
	err := r.db.WithContext(ctx).
		Where("restaurant_id = ? AND available = ?", restaurantID, true).
		Order("name ASC").
		Find(&dishes).Error
	if err != nil {
		return nil, err
	}
	return dishes, nil
}

func (r *repository) ListAll(ctx context.Context) ([]models.Restaurant, error) {
	var restaurants []models.Restaurant
	err := r.db.WithContext(ctx).
		Order("created_at ASC").
		Find(&restaurants).Error
	if err != nil {
		return nil, err
	}
	return restaurants, nil
}

func (r *repository) UpdateProfile(ctx context.Context, restaurantID uuid.UUID, updates map[string]any) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Restaurant{}).
		Where("id = ?", restaurantID).
		Updates(updates)
	return res.RowsAffected, res.Error
}

// ListAllDishes is the owner's management view; unlike ListDishes it keeps
// unavailable entries visible.
func (r *repository) ListAllDishes(ctx context.Context, restaurantID uuid.UUID) ([]models.Dish, error) {
	var dishes []models.Dish
	err := r.db.WithContext(ctx).
		Where("restaurant_id = ?", restaurantID).
		Order("name ASC").
		Find(&dishes).Error
	if err != nil {
		return nil, err
	}
	return dishes, nil
}

func (r *repository) CreateDish(ctx context.Context, dish *models.Dish) error {
	return r.db.WithContext(ctx).Create(dish).Error
}

func (r *repository) UpdateDish(ctx context.Context, restaurantID, dishID uuid.UUID, updates map[string]any) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Dish{}).
		Where("id = ? AND restaurant_id = ?", dishID, restaurantID).
		Updates(updates)
	return res.RowsAffected, res.Error
}

func (r *repository) DeleteDish(ctx context.Context, restaurantID, dishID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND restaurant_id = ?", dishID, restaurantID).
		Delete(&models.Dish{})
	return res.RowsAffected, res.Error
}

func (r *repository) DeliveredAggregates(ctx context.Context, restaurantID uuid.UUID) (int64, int64, error) {
	var row struct {
		RevenueCents int64
		OrderCount   int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("COALESCE(SUM(total_cents), 0) AS revenue_cents, COUNT(*) AS order_count").
		Where("restaurant_id = ? AND status = ?", restaurantID, enums.OrderStatusDelivered).
		Scan(&row).Error
	if err != nil {
		return 0, 0, err
	}
	return row.RevenueCents, row.OrderCount, nil
}

func (r *repository) TopSellingDishes(ctx context.Context, restaurantID uuid.UUID, limit int) ([]DishSales, error) {
	var rows []DishSales
	err := r.db.WithContext(ctx).
		Model(&models.OrderItem{}).
		Select("order_items.dish_id AS dish_id, dishes.name AS name, SUM(order_items.qty) AS qty_sold").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Joins("JOIN dishes ON dishes.id = order_items.dish_id").
		Where("orders.restaurant_id = ? AND orders.status = ?", restaurantID, enums.OrderStatusDelivered).
		Group("order_items.dish_id, dishes.name").
		Order("qty_sold DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) SetApproved(ctx context.Context, id uuid.UUID, approved bool) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Restaurant{}).
		Where("id = ?", id).
		Update("approved", approved)
	return res.RowsAffected, res.Error
}
