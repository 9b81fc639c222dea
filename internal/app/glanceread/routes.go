package glanceread

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
	"golang.org/x/time/rate"

	_ "github.com/magabrotheeeer/glanceread/docs"
	"github.com/magabrotheeeer/glanceread/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/glanceread/internal/http/handlers/auth/me"
	"github.com/magabrotheeeer/glanceread/internal/http/handlers/auth/register"
	"github.com/magabrotheeeer/glanceread/internal/http/handlers/auth/savebook"
	"github.com/magabrotheeeer/glanceread/internal/http/handlers/book/affiliateclick"
	"github.com/magabrotheeeer/glanceread/internal/http/handlers/book/analytics"
	bookcreate "github.com/magabrotheeeer/glanceread/internal/http/handlers/book/create"
	booklist "github.com/magabrotheeeer/glanceread/internal/http/handlers/book/list"
	bookread "github.com/magabrotheeeer/glanceread/internal/http/handlers/book/read"
	bookremove "github.com/magabrotheeeer/glanceread/internal/http/handlers/book/remove"
	bookupdate "github.com/magabrotheeeer/glanceread/internal/http/handlers/book/update"
	"github.com/magabrotheeeer/glanceread/internal/http/handlers/health"
	"github.com/magabrotheeeer/glanceread/internal/http/handlers/payment/order"
	"github.com/magabrotheeeer/glanceread/internal/http/handlers/payment/verify"
	productclick "github.com/magabrotheeeer/glanceread/internal/http/handlers/product/click"
	productcreate "github.com/magabrotheeeer/glanceread/internal/http/handlers/product/create"
	productlist "github.com/magabrotheeeer/glanceread/internal/http/handlers/product/list"
	productremove "github.com/magabrotheeeer/glanceread/internal/http/handlers/product/remove"
	productupdate "github.com/magabrotheeeer/glanceread/internal/http/handlers/product/update"
	userlist "github.com/magabrotheeeer/glanceread/internal/http/handlers/user/list"
	userpayment "github.com/magabrotheeeer/glanceread/internal/http/handlers/user/payment"
	"github.com/magabrotheeeer/glanceread/internal/http/handlers/user/profile"
	"github.com/magabrotheeeer/glanceread/internal/http/handlers/user/progress"
	userremove "github.com/magabrotheeeer/glanceread/internal/http/handlers/user/remove"
	usersubscription "github.com/magabrotheeeer/glanceread/internal/http/handlers/user/subscription"
	"github.com/magabrotheeeer/glanceread/internal/http/handlers/user/transaction"
	"github.com/magabrotheeeer/glanceread/internal/http/middlewarectx"
	affiliateservice "github.com/magabrotheeeer/glanceread/internal/services/affiliate"
	authservice "github.com/magabrotheeeer/glanceread/internal/services/auth"
	bookservice "github.com/magabrotheeeer/glanceread/internal/services/book"
	paymentservice "github.com/magabrotheeeer/glanceread/internal/services/payment"
	productservice "github.com/magabrotheeeer/glanceread/internal/services/product"
	subservice "github.com/magabrotheeeer/glanceread/internal/services/subscription"
	userservice "github.com/magabrotheeeer/glanceread/internal/services/user"
)

// MetricsHandler отдаёт метрики и оборачивает запросы счётчиками.
type MetricsHandler interface {
	Handler() http.Handler
	Middleware(next http.Handler) http.Handler
}

// Deps всё, что нужно маршрутам.
type Deps struct {
	Logger       *slog.Logger
	Metrics      MetricsHandler
	Tokens       middlewarectx.TokenParser
	Users        middlewarectx.UserLoader
	Health       health.Checker
	ClickLimiter *rate.Limiter

	Auth         *authservice.AuthService
	Subscription *subservice.SubscriptionService
	Books        *bookservice.BookService
	Affiliate    *affiliateservice.AffiliateService
	Account      *userservice.UserService
	Payment      *paymentservice.PaymentService
	Products     *productservice.ProductService
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, d Deps) {
	logger := d.Logger

	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
		d.Metrics.Middleware,
	)

	// Пользователь из токена сразу проходит ленивую проверку срока подписки.
	authenticated := chi.Chain(
		middlewarectx.JWTMiddleware(d.Tokens, d.Users, logger),
		middlewarectx.SubscriptionRefreshMiddleware(d.Subscription, logger),
	)
	optional := chi.Chain(
		middlewarectx.OptionalJWTMiddleware(d.Tokens, d.Users, logger),
		middlewarectx.SubscriptionRefreshMiddleware(d.Subscription, logger),
	)
	admin := chi.Chain(
		middlewarectx.JWTMiddleware(d.Tokens, d.Users, logger),
		middlewarectx.SubscriptionRefreshMiddleware(d.Subscription, logger),
		middlewarectx.AdminOnly(logger),
	)
	limited := middlewarectx.RateLimitMiddleware(d.ClickLimiter, logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", health.New(logger, d.Health).ServeHTTP)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", register.New(logger, d.Auth).ServeHTTP)
			r.Post("/login", login.New(logger, d.Auth).ServeHTTP)

			r.Group(func(r chi.Router) {
				r.Use(authenticated...)
				r.Get("/user", me.New(logger, d.Auth).ServeHTTP)
				save := savebook.New(logger, d.Account)
				r.Put("/save/{bookID}", save.ServeHTTP)
				r.Delete("/save/{bookID}", save.ServeHTTP)
			})
		})

		r.Route("/books", func(r chi.Router) {
			r.Get("/", booklist.New(logger, d.Books).ServeHTTP)

			r.Group(func(r chi.Router) {
				r.Use(optional...)
				r.Get("/{id}", bookread.New(logger, d.Books).ServeHTTP)
				r.With(limited).Post("/{id}/affiliate-click", affiliateclick.New(logger, d.Affiliate).ServeHTTP)
			})

			r.Group(func(r chi.Router) {
				r.Use(admin...)
				r.Post("/", bookcreate.New(logger, d.Books).ServeHTTP)
				r.Put("/{id}", bookupdate.New(logger, d.Books).ServeHTTP)
				r.Delete("/{id}", bookremove.New(logger, d.Books).ServeHTTP)
				r.Get("/{id}/affiliate-analytics", analytics.New(logger, d.Affiliate).ServeHTTP)
			})
		})

		r.Route("/users", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(authenticated...)
				r.Put("/progress", progress.New(logger, d.Account).ServeHTTP)
				r.Put("/transaction", transaction.New(logger, d.Account).ServeHTTP)
				r.Put("/profile", profile.New(logger, d.Account).ServeHTTP)
			})

			r.Group(func(r chi.Router) {
				r.Use(admin...)
				r.Get("/", userlist.New(logger, d.Account).ServeHTTP)
				r.Delete("/{id}", userremove.New(logger, d.Account).ServeHTTP)
				r.Put("/{id}/subscription", usersubscription.New(logger, d.Subscription).ServeHTTP)
				r.Put("/{id}/payment", userpayment.New(logger, d.Subscription).ServeHTTP)
			})
		})

		r.Route("/payment", func(r chi.Router) {
			r.Use(authenticated...)
			r.Post("/orders", order.New(logger, d.Payment).ServeHTTP)
			r.Post("/verify", verify.New(logger, d.Payment).ServeHTTP)
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", productlist.New(logger, d.Products).ServeHTTP)
			r.With(limited).Post("/{id}/click", productclick.New(logger, d.Products).ServeHTTP)

			r.Group(func(r chi.Router) {
				r.Use(admin...)
				r.Post("/", productcreate.New(logger, d.Products).ServeHTTP)
				r.Put("/{id}", productupdate.New(logger, d.Products).ServeHTTP)
				r.Delete("/{id}", productremove.New(logger, d.Products).ServeHTTP)
			})
		})
	})

	r.Handle("/metrics", d.Metrics.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
