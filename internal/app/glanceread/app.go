// Package glanceread собирает HTTP API: хранилище, кеш, брокер, шлюз оплаты,
// хранилище изображений, сервисы и маршруты.
package glanceread

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/glanceread/internal/cache"
	"github.com/magabrotheeeer/glanceread/internal/config"
	"github.com/magabrotheeeer/glanceread/internal/imagestore"
	"github.com/magabrotheeeer/glanceread/internal/lib/jwt"
	"github.com/magabrotheeeer/glanceread/internal/lib/password"
	"github.com/magabrotheeeer/glanceread/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/glanceread/internal/lib/sl"
	"github.com/magabrotheeeer/glanceread/internal/metrics"
	"github.com/magabrotheeeer/glanceread/internal/migrations"
	"github.com/magabrotheeeer/glanceread/internal/paymentprovider"
	affiliateservice "github.com/magabrotheeeer/glanceread/internal/services/affiliate"
	authservice "github.com/magabrotheeeer/glanceread/internal/services/auth"
	bookservice "github.com/magabrotheeeer/glanceread/internal/services/book"
	paymentservice "github.com/magabrotheeeer/glanceread/internal/services/payment"
	productservice "github.com/magabrotheeeer/glanceread/internal/services/product"
	subservice "github.com/magabrotheeeer/glanceread/internal/services/subscription"
	userservice "github.com/magabrotheeeer/glanceread/internal/services/user"
	"github.com/magabrotheeeer/glanceread/internal/storage/repository"
)

const shutdownTimeout = 15 * time.Second

// App HTTP-приложение со всеми открытыми ресурсами.
type App struct {
	server *http.Server
	logger *slog.Logger
	db     *repository.Storage
	cache  *cache.Cache
	conn   *amqp.Connection
	ch     *amqp.Channel
}

// New открывает подключения, накатывает миграции и собирает маршруты.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(ctx, cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	version, err := migrations.Run(db.DB, cfg.MigrationsPath)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	logger.Info("database schema is up to date", slog.Uint64("version", uint64(version)))

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	images, err := imagestore.New(cfg.ObjectStorage)
	if err != nil {
		_ = cacheRedis.Close()
		_ = db.Close()
		return nil, err
	}

	conn, err := rabbitmq.Connect(ctx, cfg.RabbitMQ.URL, cfg.RabbitMQ.MaxRetries, cfg.RabbitMQ.RetryDelay)
	if err != nil {
		_ = cacheRedis.Close()
		_ = db.Close()
		return nil, err
	}
	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.NotificationQueues())
	if err != nil {
		_ = conn.Close()
		_ = cacheRedis.Close()
		_ = db.Close()
		return nil, err
	}

	m := metrics.New()
	jwtMaker := jwt.NewJWTMaker(cfg.JWTToken.JWTSecretKey, cfg.JWTToken.TokenTTL)
	hasher := password.NewHasher(bcrypt.DefaultCost)

	deps := Deps{
		Logger:       logger,
		Metrics:      m,
		Tokens:       jwtMaker,
		Users:        db,
		Health:       db,
		ClickLimiter: rate.NewLimiter(rate.Limit(cfg.HTTPServer.RateLimit), cfg.HTTPServer.RateBurst),

		Auth:         authservice.NewAuthService(db, hasher, jwtMaker, rabbitmq.NewPublisher(ch), logger),
		Subscription: subservice.NewSubscriptionService(db, logger),
		Books:        bookservice.NewBookService(db, cacheRedis, images, m, cfg.RedisConnection.BookTTL, logger),
		Affiliate:    affiliateservice.NewAffiliateService(db, m, logger),
		Account:      userservice.NewUserService(db, hasher, images, logger),
		Payment:      paymentservice.New(paymentprovider.NewClient(cfg.Razorpay), db, logger),
		Products:     productservice.NewProductService(db, m, logger),
	}

	router := chi.NewRouter()
	RegisterRoutes(router, deps)

	srv := &http.Server{
		Addr:         cfg.HTTPServer.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.TimeoutHTTP,
		WriteTimeout: cfg.HTTPServer.TimeoutHTTP,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		db:     db,
		cache:  cacheRedis,
		conn:   conn,
		ch:     ch,
	}, nil
}

// Run обслуживает запросы до отмены ctx, затем плавно останавливает сервер и закрывает ресурсы.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	var err error
	select {
	case err = <-errCh:
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err = a.server.Shutdown(timeoutCtx)
	}

	a.close()
	return err
}

func (a *App) close() {
	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", sl.Err(err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", sl.Err(err))
	}
	if err := a.cache.Close(); err != nil {
		a.logger.Error("failed to close cache", sl.Err(err))
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close database", sl.Err(err))
	}
}
