// Пакет coursehub содержит HTTP API сервиса блочных документов: редактирование и отрисовку документов
// курсов, мероприятий и писем, загрузку видео и проверку ссылок встраиваемого контента.
//
// Основные возможности:
//   - Настройка echo: CORS, ограничение размера тела, сжатие, метрики Prometheus.
//   - Аутентификация по JWT для API редактора.
//   - Прокси воспроизведения видео с перенаправлением на хранилище или CDN.
//   - Отдельный сервер метрик и корректное завершение работы по контексту.
package coursehub

// @title CourseHub API
// @version 1.0
// @description API блочных документов курсов, мероприятий и писем.
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
// @BasePath /

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aisa-it/coursehub/internal/coursehub/business"
	"github.com/aisa-it/coursehub/internal/coursehub/config"
	_ "github.com/aisa-it/coursehub/internal/coursehub/docs"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	echoSwagger "github.com/swaggo/echo-swagger"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

//go:generate go run github.com/swaggo/swag/cmd/swag@v1.16.5 init -ot go --generalInfo /http.go --parseInternal --propertyStrategy snakecase --dir ./ --output docs --parseDependency 1

const shutdownTimeout = 10 * time.Second

type Services struct {
	db       *gorm.DB
	business *business.Business
	cfg      *config.Config
	version  string
}

func NewServices(db *gorm.DB, bl *business.Business, cfg *config.Config, version string) *Services {
	return &Services{
		db:       db,
		business: bl,
		cfg:      cfg,
		version:  version,
	}
}

// ServerHeader middleware adds a `Server` header to the response.
func ServerHeader(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Set(echo.HeaderServer, "CourseHub")
		return next(c)
	}
}

// NewEcho собирает HTTP сервер со всеми маршрутами. Метрики запросов регистрируются в reg.
func (s *Services) NewEcho(reg prometheus.Registerer) (*echo.Echo, error) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		code := http.StatusInternalServerError
		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
		}

		// Ignore 404
		if code == http.StatusNotFound {
			c.NoContent(http.StatusNotFound)
			return
		}
		slog.Error("Unhandled error in endpoint", "url", c.Request().URL, "err", err)
		EErrorMsgStatus(c, nil, code)
	}

	// Global middlewares
	e.Use(ServerHeader)
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowCredentials: true,
	}))
	e.Use(middleware.BodyLimitWithConfig(middleware.BodyLimitConfig{
		Limit: "5M",
	}))
	e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Level:     9,
		MinLength: 2048,
		Skipper: func(c echo.Context) bool {
			return strings.HasPrefix(c.Request().URL.Path, "/api/media/") ||
				strings.Contains(c.Request().URL.Path, "swagger")
		},
	}))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "coursehub",
		Registerer: reg,
	}))
	e.Pre(middleware.AddTrailingSlashWithConfig(middleware.TrailingSlashConfig{
		Skipper: func(c echo.Context) bool {
			return strings.Contains(c.Request().URL.Path, "swagger")
		},
	}))

	rv, err := NewRequestValidator(s.business.Registry())
	if err != nil {
		return nil, err
	}
	e.Validator = rv

	apiGroup := e.Group("/api/")
	authGroup := apiGroup.Group("auth/",
		AuthMiddleware(AuthConfig{
			Secret: []byte(s.cfg.SecretKey),
			DB:     s.db,
		}),
	)

	s.AddDocumentServices(authGroup)

	// services without auth
	s.AddMediaServices(apiGroup)

	if s.cfg.SwaggerEnable {
		apiGroup.GET("swagger/*", echoSwagger.WrapHandler)
	}

	// Version endpoint
	apiGroup.GET("version/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"version":     s.version,
			"block_types": s.business.Registry().Types(),
		})
	})

	// Health endpoint
	apiGroup.GET("_health/", func(c echo.Context) error {
		sqlDB, err := s.db.DB()
		if err != nil {
			return EErrorMsgStatus(c, err, http.StatusServiceUnavailable)
		}
		if err := sqlDB.PingContext(c.Request().Context()); err != nil {
			return EErrorMsgStatus(c, err, http.StatusServiceUnavailable)
		}
		return c.NoContent(http.StatusOK)
	})

	return e, nil
}

// Server запускает API и сервер метрик и останавливает их при отмене ctx.
func Server(ctx context.Context, s *Services) error {
	bootTimeGauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "coursehub",
		Name:      "boot_time",
		Help:      "Server startup time",
	})
	bootTimeGauge.Set(float64(time.Now().UnixMilli()))
	if err := prometheus.Register(bootTimeGauge); err != nil {
		return err
	}

	e, err := s.NewEcho(prometheus.DefaultRegisterer)
	if err != nil {
		return err
	}

	metrics := echo.New()
	metrics.HideBanner = true
	metrics.HidePort = true
	metrics.GET("/metrics", echoprometheus.NewHandler())

	eg, gctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		slog.Info("Metrics server start", "addr", s.cfg.MetricsAddr)
		if err := metrics.Start(s.cfg.MetricsAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Metrics server fail", "err", err)
			return err
		}
		return nil
	})
	eg.Go(func() error {
		slog.Info("Server start", "addr", s.cfg.ListenAddr, "version", s.version)
		if err := e.Start(s.cfg.ListenAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server fail", "err", err)
			return err
		}
		return nil
	})
	eg.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		slog.Info("Server shutdown")
		return errors.Join(e.Shutdown(shutdownCtx), metrics.Shutdown(shutdownCtx))
	})
	return eg.Wait()
}
