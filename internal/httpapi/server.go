// Package httpapi — REST-граница витрины: каталог, корзина, оформление заказа и админка.
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"

	"github.com/Dasieloski/dasieloski-store/internal/auth"
	"github.com/Dasieloski/dasieloski-store/internal/cart"
	"github.com/Dasieloski/dasieloski-store/internal/catalog"
	"github.com/Dasieloski/dasieloski-store/internal/checkout"
	"github.com/Dasieloski/dasieloski-store/internal/domain"
	"github.com/Dasieloski/dasieloski-store/internal/metrics"
)

const (
	defaultRequestTimeout = 30 * time.Second
	defaultIdempotencyTTL = 24 * time.Hour
)

// Server собирает обработчики HTTP API.
type Server struct {
	catalog  *catalog.Service
	carts    *cart.Service
	checkout *checkout.Service
	auth     auth.Authenticator

	idempotency    domain.IdempotencyRepository
	idempotencyTTL time.Duration

	metrics        *metrics.StoreMetrics
	logger         *log.Entry
	sessionTTL     time.Duration
	secureCookies  bool
	requestTimeout time.Duration
	now            func() time.Time
}

// Option настраивает Server.
type Option func(*Server)

// WithIdempotency включает обработку заголовка Idempotency-Key на административных POST.
func WithIdempotency(repo domain.IdempotencyRepository, ttl time.Duration) Option {
	return func(s *Server) {
		s.idempotency = repo
		if ttl > 0 {
			s.idempotencyTTL = ttl
		}
	}
}

// WithMetrics задаёт HTTP-метрики.
func WithMetrics(m *metrics.StoreMetrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithLogger задаёт logger.
func WithLogger(logger *log.Entry) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithSessionTTL задаёт срок жизни cookie сессии покупателя.
func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Server) {
		s.sessionTTL = ttl
	}
}

// WithSecureCookies выставляет флаг Secure у cookie сессии.
func WithSecureCookies(secure bool) Option {
	return func(s *Server) {
		s.secureCookies = secure
	}
}

// WithRequestTimeout ограничивает время обработки запроса.
func WithRequestTimeout(timeout time.Duration) Option {
	return func(s *Server) {
		if timeout > 0 {
			s.requestTimeout = timeout
		}
	}
}

// NewServer создаёт набор обработчиков.
func NewServer(
	catalogSvc *catalog.Service,
	carts *cart.Service,
	checkoutSvc *checkout.Service,
	authenticator auth.Authenticator,
	opts ...Option,
) *Server {
	s := &Server{
		catalog:        catalogSvc,
		carts:          carts,
		checkout:       checkoutSvc,
		auth:           authenticator,
		idempotencyTTL: defaultIdempotencyTTL,
		logger:         log.WithField("component", "http"),
		sessionTTL:     24 * time.Hour,
		requestTimeout: defaultRequestTimeout,
		now:            func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Routes возвращает chi-роутер со всеми маршрутами API.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.requestTimeout))

	r.Route("/api", func(r chi.Router) {
		r.Route("/categories", func(r chi.Router) {
			r.Get("/", s.listCategories)
			r.Get("/{id}", s.getCategory)
			r.Group(func(r chi.Router) {
				r.Use(s.requireAdmin)
				r.With(s.idempotent).Post("/", s.createCategory)
				r.Put("/{id}", s.updateCategory)
				r.Delete("/{id}", s.deleteCategory)
			})
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", s.listProducts)
			r.Get("/{id}", s.getProduct)
			r.Group(func(r chi.Router) {
				r.Use(s.requireAdmin)
				r.With(s.idempotent).Post("/", s.createProduct)
				r.Put("/{id}", s.updateProduct)
				r.Delete("/{id}", s.deleteProduct)
			})
		})

		r.Route("/currencies", func(r chi.Router) {
			r.Get("/", s.listCurrencies)
			r.Group(func(r chi.Router) {
				r.Use(s.requireAdmin)
				r.With(s.idempotent).Post("/", s.createCurrency)
				r.Put("/{id}", s.updateCurrency)
				r.Delete("/{id}", s.deleteCurrency)
				r.Post("/{id}/default", s.setDefaultCurrency)
			})
		})

		r.Get("/storefront/categories", s.storefrontCategories)

		r.Group(func(r chi.Router) {
			r.Use(s.withSession)
			r.Get("/cart", s.getCart)
			r.Delete("/cart", s.clearCart)
			r.Post("/cart/items", s.addCartItem)
			r.Delete("/cart/items/{productId}", s.removeCartItem)
			r.Get("/checkout", s.previewCheckout)
			r.Post("/checkout", s.placeOrder)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Post("/login", s.login)
			r.Post("/logout", s.logout)
			r.With(s.requireAdmin).Get("/session", s.adminSession)
		})
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeErrorCode(w, http.StatusNotFound, CodeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeErrorCode(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	})

	return r
}
