package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/andresouza-dev/pratoexpress-backend/api/controllers"
	"github.com/andresouza-dev/pratoexpress-backend/api/middleware"
	"github.com/andresouza-dev/pratoexpress-backend/internal/cashouts"
	"github.com/andresouza-dev/pratoexpress-backend/internal/deliveries"
	"github.com/andresouza-dev/pratoexpress-backend/internal/orders"
	"github.com/andresouza-dev/pratoexpress-backend/internal/restaurants"
	"github.com/andresouza-dev/pratoexpress-backend/internal/settlement"
	"github.com/andresouza-dev/pratoexpress-backend/internal/users"
	"github.com/andresouza-dev/pratoexpress-backend/pkg/config"
	"github.com/andresouza-dev/pratoexpress-backend/pkg/enums"
	"github.com/andresouza-dev/pratoexpress-backend/pkg/logger"
	"github.com/andresouza-dev/pratoexpress-backend/pkg/metrics"
	"github.com/andresouza-dev/pratoexpress-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	flow *metrics.MoneyFlowMetrics,
	webhookGuard *redis.EventGuard,
	restaurantService restaurants.Service,
	orderService orders.Service,
	deliveryService deliveries.Service,
	cashoutService cashouts.Service,
	userService users.Service,
	settlementService settlement.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/payment", controllers.PaymentWebhook(settlementService, webhookGuard, flow, logg))
	})

	// Browsing the catalog requires no account.
	r.Route("/api/public/v1", func(r chi.Router) {
		r.Get("/restaurants", controllers.RestaurantList(restaurantService, logg))
		r.Get("/restaurants/{restaurantID}/menu", controllers.RestaurantMenu(restaurantService, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Get("/users/me", controllers.UserMe(userService, logg))
		r.Put("/users/me/pix-key", controllers.UserPixKeyUpdate(userService, logg))
		r.Put("/users/me/push-token", controllers.UserPushTokenUpdate(userService, logg))

		r.Route("/orders", func(r chi.Router) {
			r.With(middleware.RequireRole(string(enums.UserRoleCustomer), logg)).
				Post("/", controllers.OrderCreate(orderService, logg))
			r.Get("/{orderID}", controllers.OrderGet(orderService, logg))
		})

		r.Route("/restaurant", func(r chi.Router) {
			r.Use(middleware.RequireRole(string(enums.UserRoleRestaurantOwner), logg))

			r.Get("/profile", controllers.RestaurantProfileGet(restaurantService, logg))
			r.Put("/profile", controllers.RestaurantProfileUpdate(restaurantService, logg))

			r.Route("/dishes", func(r chi.Router) {
				r.Get("/", controllers.DishList(restaurantService, logg))
				r.Post("/", controllers.DishCreate(restaurantService, logg))
				r.Put("/{dishID}", controllers.DishUpdate(restaurantService, logg))
				r.Delete("/{dishID}", controllers.DishDelete(restaurantService, logg))
			})

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.RestaurantOrderQueue(orderService, logg))
				r.Patch("/{orderID}/status", controllers.RestaurantOrderStatusUpdate(orderService, logg))
			})

			r.Get("/reports/summary", controllers.RestaurantSalesSummary(restaurantService, logg))
		})

		r.Route("/deliveries", func(r chi.Router) {
			r.Use(middleware.RequireRole(string(enums.UserRoleCourier), logg))
			r.Get("/available", controllers.DeliveryList(deliveryService, logg))
			r.Post("/{orderID}/accept", controllers.DeliveryAccept(deliveryService, logg))
			r.Post("/{orderID}/confirm", controllers.DeliveryConfirm(deliveryService, logg))
			r.Patch("/{orderID}/status", controllers.DeliveryStatusUpdate(deliveryService, logg))
		})

		r.Route("/wallet", func(r chi.Router) {
			r.Use(middleware.RequireAnyRole(logg,
				string(enums.UserRoleCourier),
				string(enums.UserRoleRestaurantOwner),
			))
			r.Get("/balance", controllers.BalanceGet(cashoutService, logg))
			r.Post("/cashouts", controllers.CashoutCreate(cashoutService, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole(string(enums.UserRoleAdmin), logg))
		r.Get("/users", controllers.AdminUserList(userService, logg))
		r.Get("/restaurants", controllers.AdminRestaurantList(restaurantService, logg))
		r.Post("/restaurants/{restaurantID}/approve", controllers.AdminApproveRestaurant(restaurantService, logg))
		r.Post("/couriers/{courierID}/approve", controllers.AdminApproveCourier(userService, logg))
		r.Post("/notifications/broadcast", controllers.AdminBroadcast(userService, logg))
		r.Get("/stats", controllers.AdminStats(userService, logg))
	})

	return r
}
