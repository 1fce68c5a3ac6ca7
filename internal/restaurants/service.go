package restaurants

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/andresouza-dev/pratoexpress-backend/pkg/db/models"
	pkgerrors "github.com/andresouza-dev/pratoexpress-backend/pkg/errors"
)

// CreateDishInput is the owner's new menu entry.
type CreateDishInput struct {
	Name        string
	Description *string
	PriceCents  int64
}

// UpdateDishInput carries partial dish edits; nil fields stay untouched.
type UpdateDishInput struct {
	Name        *string
	Description *string
	PriceCents  *int64
	Available   *bool
}

// UpdateProfileInput carries partial profile edits; nil fields stay
// untouched. Approval and balance are never editable here.
type UpdateProfileInput struct {
	Name    *string
	Address *string
}

// SalesSummary is the owner's dashboard report over delivered orders.
type SalesSummary struct {
	TotalRevenueCents   int64       `json:"total_revenue_cents"`
	DeliveredOrders     int64       `json:"delivered_orders"`
	CurrentBalanceCents int64       `json:"current_balance_cents"`
	TopSellingDishes    []DishSales `json:"top_selling_dishes"`
}

const topDishesLimit = 5

// Service is the public restaurant surface, the owner's profile and menu
// management, and the admin side.
type Service interface {
	ListApproved(ctx context.Context) ([]models.Restaurant, error)
	GetMenu(ctx context.Context, restaurantID uuid.UUID) ([]models.Dish, error)
	FindByOwner(ctx context.Context, ownerID uuid.UUID) (*models.Restaurant, error)
	UpdateProfile(ctx context.Context, ownerID uuid.UUID, input UpdateProfileInput) (*models.Restaurant, error)
	ListOwnDishes(ctx context.Context, ownerID uuid.UUID) ([]models.Dish, error)
	CreateDish(ctx context.Context, ownerID uuid.UUID, input CreateDishInput) (*models.Dish, error)
	UpdateDish(ctx context.Context, ownerID, dishID uuid.UUID, input UpdateDishInput) error
	DeleteDish(ctx context.Context, ownerID, dishID uuid.UUID) error
	SalesSummary(ctx context.Context, ownerID uuid.UUID) (*SalesSummary, error)
	ListAll(ctx context.Context) ([]models.Restaurant, error)
	SetApproved(ctx context.Context, restaurantID uuid.UUID, approved bool) error
}

type service struct {
	repo Repository
}

// NewService builds the restaurants service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("restaurants repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) ListApproved(ctx context.Context) ([]models.Restaurant, error) {
	restaurants, err := s.repo.ListApproved(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to list restaurants")
	}
	return restaurants, nil
}

func (s *service) GetMenu(ctx context.Context, restaurantID uuid.UUID) ([]models.Dish, error) {
	if restaurantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "restaurant id required")
	}
	restaurant, err := s.repo.FindByID(ctx, restaurantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "restaurant not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load restaurant")
	}
	// Unapproved restaurants stay invisible to the public surface.
	if !restaurant.Approved {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "restaurant not found")
	}
	dishes, err := s.repo.ListDishes(ctx, restaurantID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to list dishes")
	}
	return dishes, nil
}

func (s *service) FindByOwner(ctx context.Context, ownerID uuid.UUID) (*models.Restaurant, error) {
	if ownerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	restaurant, err := s.repo.FindByOwner(ctx, ownerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "restaurant not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load restaurant")
	}
	return restaurant, nil
}

func (s *service) UpdateProfile(ctx context.Context, ownerID uuid.UUID, input UpdateProfileInput) (*models.Restaurant, error) {
	restaurant, err := s.FindByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	updates := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "restaurant name cannot be empty")
		}
		updates["name"] = name
	}
	if input.Address != nil {
		address := strings.TrimSpace(*input.Address)
		if address == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "restaurant address cannot be empty")
		}
		updates["address"] = address
	}
	if len(updates) == 0 {
		return restaurant, nil
	}
	if _, err := s.repo.UpdateProfile(ctx, restaurant.ID, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to update restaurant profile")
	}
	updated, err := s.repo.FindByID(ctx, restaurant.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to reload restaurant")
	}
	return updated, nil
}

func (s *service) ListOwnDishes(ctx context.Context, ownerID uuid.UUID) ([]models.Dish, error) {
	restaurant, err := s.FindByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	dishes, err := s.repo.ListAllDishes(ctx, restaurant.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to list dishes")
	}
	return dishes, nil
}

func (s *service) CreateDish(ctx context.Context, ownerID uuid.UUID, input CreateDishInput) (*models.Dish, error) {
	restaurant, err := s.FindByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "dish name required")
	}
	if input.PriceCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "dish price must be positive")
	}
	dish := &models.Dish{
		RestaurantID: restaurant.ID,
		Name:         name,
		Description:  input.Description,
		PriceCents:   input.PriceCents,
		Available:    true,
	}
	if err := s.repo.CreateDish(ctx, dish); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to create dish")
	}
	return dish, nil
}

func (s *service) UpdateDish(ctx context.Context, ownerID, dishID uuid.UUID, input UpdateDishInput) error {
	restaurant, err := s.FindByOwner(ctx, ownerID)
	if err != nil {
		return err
	}
	if dishID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "dish id required")
	}
	updates := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "dish name cannot be empty")
		}
		updates["name"] = name
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.PriceCents != nil {
		// Price edits never touch placed orders; items capture their own
		// unit price.
		if *input.PriceCents <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "dish price must be positive")
		}
		updates["price_cents"] = *input.PriceCents
	}
	if input.Available != nil {
		updates["available"] = *input.Available
	}
	if len(updates) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "no dish fields to update")
	}
	rows, err := s.repo.UpdateDish(ctx, restaurant.ID, dishID, updates)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to update dish")
	}
	if rows == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "dish not found")
	}
	return nil
}

func (s *service) DeleteDish(ctx context.Context, ownerID, dishID uuid.UUID) error {
	restaurant, err := s.FindByOwner(ctx, ownerID)
	if err != nil {
		return err
	}
	if dishID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "dish id required")
	}
	rows, err := s.repo.DeleteDish(ctx, restaurant.ID, dishID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to delete dish")
	}
	if rows == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "dish not found")
	}
	return nil
}

func (s *service) SalesSummary(ctx context.Context, ownerID uuid.UUID) (*SalesSummary, error) {
	restaurant, err := s.FindByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	revenue, count, err := s.repo.DeliveredAggregates(ctx, restaurant.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to aggregate delivered orders")
	}
	top, err := s.repo.TopSellingDishes(ctx, restaurant.ID, topDishesLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to rank dishes")
	}
	return &SalesSummary{
		TotalRevenueCents:   revenue,
		DeliveredOrders:     count,
		CurrentBalanceCents: restaurant.BalanceCents,
		TopSellingDishes:    top,
	}, nil
}

func (s *service) ListAll(ctx context.Context) ([]models.Restaurant, error) {
	restaurants, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to list restaurants")
	}
	return restaurants, nil
}

func (s *service) SetApproved(ctx context.Context, restaurantID uuid.UUID, approved bool) error {
	if restaurantID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "restaurant id required")
	}
	rows, err := s.repo.SetApproved(ctx, restaurantID, approved)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to update approval")
	}
	if rows == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "restaurant not found")
	}
	return nil
}
