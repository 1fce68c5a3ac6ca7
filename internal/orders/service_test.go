package orders

import (
	"context"
	"regexp"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/andresouza-dev/pratoexpress-backend/pkg/db/models"
	"github.com/andresouza-dev/pratoexpress-backend/pkg/enums"
	pkgerrors "github.com/andresouza-dev/pratoexpress-backend/pkg/errors"
	"github.com/andresouza-dev/pratoexpress-backend/pkg/payment"
)

type fakeRepository struct {
	createOrderFn    func(ctx context.Context, order *models.Order) error
	findByIDFn       func(ctx context.Context, id uuid.UUID) (*models.Order, error)
	findDishesFn     func(ctx context.Context, ids []uuid.UUID) ([]models.Dish, error)
	listActiveFn     func(ctx context.Context, restaurantID uuid.UUID) ([]models.Order, error)
	updateStatusFn   func(ctx context.Context, orderID uuid.UUID, from, to enums.OrderStatus) (int64, error)
	setPaymentRefFn  func(ctx context.Context, orderID uuid.UUID, ref string) error
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepository) CreateOrder(ctx context.Context, order *models.Order) error {
	if f.createOrderFn != nil {
		return f.createOrderFn(ctx, order)
	}
	order.ID = uuid.New()
	return nil
}

func (f *fakeRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	if f.findByIDFn != nil {
		return f.findByIDFn(ctx, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) FindDishes(ctx context.Context, ids []uuid.UUID) ([]models.Dish, error) {
	if f.findDishesFn != nil {
		return f.findDishesFn(ctx, ids)
	}
	return nil, nil
}

func (f *fakeRepository) ListActiveByRestaurant(ctx context.Context, restaurantID uuid.UUID) ([]models.Order, error) {
	if f.listActiveFn != nil {
		return f.listActiveFn(ctx, restaurantID)
	}
	return nil, nil
}

func (f *fakeRepository) UpdateStatus(ctx context.Context, orderID uuid.UUID, from, to enums.OrderStatus) (int64, error) {
	if f.updateStatusFn != nil {
		return f.updateStatusFn(ctx, orderID, from, to)
	}
	return 1, nil
}

func (f *fakeRepository) SetPaymentRef(ctx context.Context, orderID uuid.UUID, ref string) error {
	if f.setPaymentRefFn != nil {
		return f.setPaymentRefFn(ctx, orderID, ref)
	}
	return nil
}

type fakeDirectory struct {
	byID    map[uuid.UUID]*models.Restaurant
	byOwner map[uuid.UUID]*models.Restaurant
}

func (f *fakeDirectory) FindByID(ctx context.Context, id uuid.UUID) (*models.Restaurant, error) {
	if r, ok := f.byID[id]; ok {
		return r, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeDirectory) FindByOwner(ctx context.Context, ownerID uuid.UUID) (*models.Restaurant, error) {
	if r, ok := f.byOwner[ownerID]; ok {
		return r, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type fakeCharger struct {
	fn    func(ctx context.Context, input payment.CreateChargeInput) (*payment.PixCharge, error)
	calls []payment.CreateChargeInput
}

func (f *fakeCharger) CreatePixCharge(ctx context.Context, input payment.CreateChargeInput) (*payment.PixCharge, error) {
	f.calls = append(f.calls, input)
	if f.fn != nil {
		return f.fn(ctx, input)
	}
	return &payment.PixCharge{PaymentID: "pay-1", CopyPaste: "copy-paste"}, nil
}

func approvedRestaurant() *models.Restaurant {
	return &models.Restaurant{ID: uuid.New(), OwnerID: uuid.New(), Name: "Cantina da Praça", Approved: true}
}

func expectCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with code %s, got nil", code)
	}
	appErr := pkgerrors.As(err)
	if appErr == nil {
		t.Fatalf("expected app error, got %v", err)
	}
	if appErr.Code() != code {
		t.Fatalf("expected code %s, got %s (%v)", code, appErr.Code(), err)
	}
}

func TestCreateComputesTotalServerSide(t *testing.T) {
	restaurant := approvedRestaurant()
	dishA := models.Dish{ID: uuid.New(), RestaurantID: restaurant.ID, Name: "Feijoada", PriceCents: 3500, Available: true}
	dishB := models.Dish{ID: uuid.New(), RestaurantID: restaurant.ID, Name: "Guaraná", PriceCents: 700, Available: true}

	var persisted *models.Order
	repo := &fakeRepository{
		findDishesFn: func(ctx context.Context, ids []uuid.UUID) ([]models.Dish, error) {
			return []models.Dish{dishA, dishB}, nil
		},
		createOrderFn: func(ctx context.Context, order *models.Order) error {
			order.ID = uuid.New()
			persisted = order
			return nil
		},
	}
	charger := &fakeCharger{}
	svc, err := NewService(repo, &fakeDirectory{byID: map[uuid.UUID]*models.Restaurant{restaurant.ID: restaurant}}, charger)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	result, err := svc.Create(context.Background(), CreateOrderInput{
		CustomerID:      uuid.New(),
		RestaurantID:    restaurant.ID,
		DeliveryAddress: "Rua das Flores 100",
		Items: []OrderItemInput{
			{DishID: dishA.ID, Qty: 2},
			{DishID: dishB.ID, Qty: 3},
		},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if want := int64(2*3500 + 3*700); result.Order.TotalCents != want {
		t.Fatalf("expected total %d, got %d", want, result.Order.TotalCents)
	}
	if persisted == nil || persisted.Status != enums.OrderStatusCreated {
		t.Fatalf("expected persisted order in created status, got %+v", persisted)
	}
	if !regexp.MustCompile(`^\d{4}$`).MatchString(result.Order.ConfirmationCode) {
		t.Fatalf("expected 4-digit confirmation code, got %q", result.Order.ConfirmationCode)
	}
	if len(charger.calls) != 1 || charger.calls[0].OrderID != result.Order.ID {
		t.Fatalf("expected one charge carrying the order id, got %+v", charger.calls)
	}
	if result.Order.PaymentRef == nil || *result.Order.PaymentRef != "pay-1" {
		t.Fatalf("expected payment ref pay-1, got %v", result.Order.PaymentRef)
	}
}

func TestCreateRejectsForeignAndUnavailableDishes(t *testing.T) {
	restaurant := approvedRestaurant()
	foreign := models.Dish{ID: uuid.New(), RestaurantID: uuid.New(), Name: "Sushi", PriceCents: 5000, Available: true}
	offMenu := models.Dish{ID: uuid.New(), RestaurantID: restaurant.ID, Name: "Moqueca", PriceCents: 4200, Available: false}

	repo := &fakeRepository{
		findDishesFn: func(ctx context.Context, ids []uuid.UUID) ([]models.Dish, error) {
			return []models.Dish{foreign, offMenu}, nil
		},
	}
	svc, err := NewService(repo, &fakeDirectory{byID: map[uuid.UUID]*models.Restaurant{restaurant.ID: restaurant}}, &fakeCharger{})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	base := CreateOrderInput{
		CustomerID:      uuid.New(),
		RestaurantID:    restaurant.ID,
		DeliveryAddress: "Av. Central 5",
	}

	base.Items = []OrderItemInput{{DishID: foreign.ID, Qty: 1}}
	_, err = svc.Create(context.Background(), base)
	expectCode(t, err, pkgerrors.CodeValidation)

	base.Items = []OrderItemInput{{DishID: offMenu.ID, Qty: 1}}
	_, err = svc.Create(context.Background(), base)
	expectCode(t, err, pkgerrors.CodeValidation)
}

func TestCreateHidesUnapprovedRestaurants(t *testing.T) {
	restaurant := approvedRestaurant()
	restaurant.Approved = false
	svc, err := NewService(&fakeRepository{}, &fakeDirectory{byID: map[uuid.UUID]*models.Restaurant{restaurant.ID: restaurant}}, &fakeCharger{})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	_, err = svc.Create(context.Background(), CreateOrderInput{
		CustomerID:      uuid.New(),
		RestaurantID:    restaurant.ID,
		DeliveryAddress: "Rua A 1",
		Items:           []OrderItemInput{{DishID: uuid.New(), Qty: 1}},
	})
	expectCode(t, err, pkgerrors.CodeNotFound)
}

func TestCreateKeepsOrderWhenGatewayFails(t *testing.T) {
	restaurant := approvedRestaurant()
	dish := models.Dish{ID: uuid.New(), RestaurantID: restaurant.ID, Name: "Pastel", PriceCents: 900, Available: true}

	created := false
	refSet := false
	repo := &fakeRepository{
		findDishesFn: func(ctx context.Context, ids []uuid.UUID) ([]models.Dish, error) {
			return []models.Dish{dish}, nil
		},
		createOrderFn: func(ctx context.Context, order *models.Order) error {
			order.ID = uuid.New()
			created = true
			return nil
		},
		setPaymentRefFn: func(ctx context.Context, orderID uuid.UUID, ref string) error {
			refSet = true
			return nil
		},
	}
	charger := &fakeCharger{fn: func(ctx context.Context, input payment.CreateChargeInput) (*payment.PixCharge, error) {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "gateway down")
	}}
	svc, err := NewService(repo, &fakeDirectory{byID: map[uuid.UUID]*models.Restaurant{restaurant.ID: restaurant}}, charger)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	_, err = svc.Create(context.Background(), CreateOrderInput{
		CustomerID:      uuid.New(),
		RestaurantID:    restaurant.ID,
		DeliveryAddress: "Rua B 2",
		Items:           []OrderItemInput{{DishID: dish.ID, Qty: 1}},
	})
	expectCode(t, err, pkgerrors.CodeDependency)
	if !created {
		t.Fatal("expected order to be persisted before the gateway call")
	}
	if refSet {
		t.Fatal("payment ref must not be stored when the gateway fails")
	}
}

func TestGetEnforcesAccess(t *testing.T) {
	customerID := uuid.New()
	courierID := uuid.New()
	order := &models.Order{
		ID:         uuid.New(),
		CustomerID: customerID,
		CourierID:  &courierID,
		Status:     enums.OrderStatusInTransit,
	}
	repo := &fakeRepository{findByIDFn: func(ctx context.Context, id uuid.UUID) (*models.Order, error) {
		return order, nil
	}}
	svc, err := NewService(repo, &fakeDirectory{}, &fakeCharger{})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	if _, err := svc.Get(context.Background(), order.ID, customerID, enums.UserRoleCustomer); err != nil {
		t.Fatalf("customer access: %v", err)
	}
	if _, err := svc.Get(context.Background(), order.ID, courierID, enums.UserRoleCourier); err != nil {
		t.Fatalf("assigned courier access: %v", err)
	}
	if _, err := svc.Get(context.Background(), order.ID, uuid.New(), enums.UserRoleAdmin); err != nil {
		t.Fatalf("admin access: %v", err)
	}
	_, err = svc.Get(context.Background(), order.ID, uuid.New(), enums.UserRoleCustomer)
	expectCode(t, err, pkgerrors.CodeNotFound)
}

func TestUpdateStatusByRestaurant(t *testing.T) {
	restaurant := approvedRestaurant()
	dir := &fakeDirectory{byOwner: map[uuid.UUID]*models.Restaurant{restaurant.OwnerID: restaurant}}

	order := &models.Order{ID: uuid.New(), RestaurantID: restaurant.ID, Status: enums.OrderStatusPaid}
	var recorded struct {
		from, to enums.OrderStatus
	}
	repo := &fakeRepository{
		findByIDFn: func(ctx context.Context, id uuid.UUID) (*models.Order, error) {
			return order, nil
		},
		updateStatusFn: func(ctx context.Context, orderID uuid.UUID, from, to enums.OrderStatus) (int64, error) {
			recorded.from, recorded.to = from, to
			return 1, nil
		},
	}
	svc, err := NewService(repo, dir, &fakeCharger{})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	if err := svc.UpdateStatusByRestaurant(context.Background(), restaurant.OwnerID, order.ID, enums.OrderStatusPreparing); err != nil {
		t.Fatalf("paid -> preparing: %v", err)
	}
	if recorded.from != enums.OrderStatusPaid || recorded.to != enums.OrderStatusPreparing {
		t.Fatalf("expected conditional update paid -> preparing, got %s -> %s", recorded.from, recorded.to)
	}

	err = svc.UpdateStatusByRestaurant(context.Background(), restaurant.OwnerID, order.ID, enums.OrderStatusDelivered)
	expectCode(t, err, pkgerrors.CodeForbidden)

	order.Status = enums.OrderStatusCreated
	err = svc.UpdateStatusByRestaurant(context.Background(), restaurant.OwnerID, order.ID, enums.OrderStatusPreparing)
	expectCode(t, err, pkgerrors.CodeStateConflict)

	order.Status = enums.OrderStatusPaid
	order.RestaurantID = uuid.New()
	err = svc.UpdateStatusByRestaurant(context.Background(), restaurant.OwnerID, order.ID, enums.OrderStatusPreparing)
	expectCode(t, err, pkgerrors.CodeNotFound)
}

func TestUpdateStatusConcurrentChange(t *testing.T) {
	restaurant := approvedRestaurant()
	order := &models.Order{ID: uuid.New(), RestaurantID: restaurant.ID, Status: enums.OrderStatusPaid}
	repo := &fakeRepository{
		findByIDFn: func(ctx context.Context, id uuid.UUID) (*models.Order, error) {
			return order, nil
		},
		updateStatusFn: func(ctx context.Context, orderID uuid.UUID, from, to enums.OrderStatus) (int64, error) {
			return 0, nil
		},
	}
	svc, err := NewService(repo, &fakeDirectory{byOwner: map[uuid.UUID]*models.Restaurant{restaurant.OwnerID: restaurant}}, &fakeCharger{})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	err = svc.UpdateStatusByRestaurant(context.Background(), restaurant.OwnerID, order.ID, enums.OrderStatusCancelled)
	expectCode(t, err, pkgerrors.CodeStateConflict)
}
