// Package http exposes the storefront and admin REST API.
package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/peixeshop/internal/cart"
	"github.com/fjod/peixeshop/internal/domain"
	"github.com/fjod/peixeshop/internal/querycache"
	"github.com/fjod/peixeshop/internal/session"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

type Catalog interface {
	GetProducts(ctx context.Context) ([]domain.Product, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	GetProductsByCategory(ctx context.Context, category string) ([]domain.Product, error)
	CreateProduct(ctx context.Context, input domain.ProductInput) (string, error)
	UpdateProduct(ctx context.Context, id string, input domain.ProductInput) error
	DeleteProduct(ctx context.Context, id string) error
	UpdateStock(ctx context.Context, id string, stock int) error
	BatchUpdateStock(ctx context.Context, updates []domain.StockUpdate) error
	BatchUpdateProducts(ctx context.Context, updates []domain.ProductUpdate) error
	DashboardStats(ctx context.Context) (domain.DashboardStats, error)
	Categories(ctx context.Context) ([]domain.CategoryStats, error)
}

type Orders interface {
	GetUserOrders(ctx context.Context, userID string, limit int) ([]domain.Order, error)
}

type Checkout interface {
	Checkout(ctx context.Context, userID string, c *cart.Store, customer domain.Customer) (*domain.Order, error)
}

type Accounts interface {
	SignInAnonymous(ctx context.Context) (*domain.User, error)
	SignUp(ctx context.Context, email, password string) (*domain.User, error)
	SignIn(ctx context.Context, email, password string) (*domain.User, error)
	User(ctx context.Context, id string) (*domain.User, error)
	IsAdmin(user *domain.User) bool
}

// CacheAdmin is the query cache as seen by the admin API.
type CacheAdmin interface {
	Stats() querycache.Stats
	TTL() time.Duration
	InvalidateAll()
}

type Deps struct {
	Catalog        Catalog
	Orders         Orders
	Checkout       Checkout
	Accounts       Accounts
	Sessions       *session.Manager
	Cache          CacheAdmin
	Log            logrus.FieldLogger
	RequestTimeout time.Duration
}

func NewRouter(d Deps) http.Handler {
	if d.RequestTimeout <= 0 {
		d.RequestTimeout = 15 * time.Second
	}

	products := NewProductHandler(d.Catalog, d.Log)
	carts := NewCartHandler(d.Catalog, d.Sessions, d.Log)
	checkout := NewCheckoutHandler(d.Checkout, d.Sessions, d.Log)
	orders := NewOrdersHandler(d.Orders, d.Log)
	accounts := NewAuthHandler(d.Accounts, d.Sessions, d.Log)
	admin := NewAdminHandler(d.Catalog, d.Cache, d.Log)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(RequestLogger(d.Log))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(d.RequestTimeout))
	r.Use(middleware.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(SessionMiddleware)
		r.Use(UserMiddleware(d.Sessions, d.Accounts, d.Log))

		r.Route("/products", func(r chi.Router) {
			r.Get("/", products.List)
			r.Get("/{id}", products.Get)
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", carts.GetCart)
			r.Delete("/", carts.ClearCart)
			r.Post("/items", carts.AddItem)
			r.Put("/items/{product_id}", carts.UpdateQuantity)
			r.Delete("/items/{product_id}", carts.RemoveItem)
		})

		r.With(RequireUser).Post("/checkout", checkout.Checkout)
		r.With(RequireUser).Get("/orders", orders.List)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/anonymous", accounts.SignInAnonymous)
			r.Post("/signup", accounts.SignUp)
			r.Post("/signin", accounts.SignIn)
			r.Post("/signout", accounts.SignOut)
			r.With(RequireUser).Get("/me", accounts.Me)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(RequireAdmin(d.Accounts))

			r.Get("/stats", admin.Stats)
			r.Get("/categories", admin.Categories)
			r.Post("/products", admin.CreateProduct)
			r.Post("/products/batch", admin.BatchUpdateProducts)
			r.Post("/products/batch-stock", admin.BatchUpdateStock)
			r.Put("/products/{id}", admin.UpdateProduct)
			r.Delete("/products/{id}", admin.DeleteProduct)
			r.Put("/products/{id}/stock", admin.UpdateStock)
			r.Get("/cache", admin.CacheStats)
			r.Post("/cache/invalidate", admin.InvalidateCache)
		})
	})

	return r
}
