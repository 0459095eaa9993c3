// Пакет server — HTTP-сервер Protocolo Module с graceful shutdown.
// Без TLS — HTTP внутри кластера, TLS termination на API Gateway.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/crea-to/protocolo-module/internal/api/handlers"
	"github.com/crea-to/protocolo-module/internal/api/middleware"
	"github.com/crea-to/protocolo-module/internal/config"
	"github.com/crea-to/protocolo-module/internal/domain/rbac"
)

// Server — HTTP-сервер Protocolo Module.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	cfg        *config.Config
}

// New создаёт новый HTTP-сервер с настроенными routes и middleware.
// jwtAuth — JWT middleware (может быть nil для тестирования без auth).
//
// Разграничение доступа по ролям:
//   - viewer — чтение протоколов, документов и каталога типов
//   - editor — создание и редактирование протоколов и документов
//   - publisher — ручная повторная отправка в SITAC
//   - admin — удаление протоколов, управление каталогом типов
func New(cfg *config.Config, logger *slog.Logger, handler *handlers.APIHandler, jwtAuth *middleware.JWTAuth) *Server {
	router := chi.NewRouter()

	// Глобальные middleware (применяются ко ВСЕМ маршрутам)
	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.RequestLogger(logger))

	// Публичные endpoints: health проверяется Kubernetes напрямую,
	// metrics забирает Prometheus — без API Gateway и без JWT.
	router.Get("/health/live", handler.HealthLive)
	router.Get("/health/ready", handler.HealthReady)
	router.Get("/metrics", handler.GetMetrics)

	// API endpoints за JWT-аутентификацией
	router.Route("/api/v1", func(api chi.Router) {
		if jwtAuth != nil {
			api.Use(jwtAuth.Middleware())
		}

		api.Route("/protocolos", func(r chi.Router) {
			r.With(middleware.RequireRole(rbac.RoleViewer)).Get("/", handler.ListProtocolos)
			r.With(middleware.RequireRole(rbac.RoleViewer)).Get("/{id}", handler.GetProtocolo)
			r.With(middleware.RequireRole(rbac.RoleViewer)).Get("/{id}/documentos", handler.ListDocumentos)

			r.With(middleware.RequireRole(rbac.RoleEditor)).Post("/", handler.CreateProtocolo)
			r.With(middleware.RequireRole(rbac.RoleEditor)).Put("/{id}", handler.UpdateProtocolo)
			r.With(middleware.RequireRole(rbac.RoleEditor)).Post("/{id}/documentos", handler.AddDocumento)

			r.With(middleware.RequireRole(rbac.RolePublisher)).Post("/{id}/sitac-submit", handler.ResubmitProtocolo)

			r.With(middleware.RequireRole(rbac.RoleAdmin)).Delete("/{id}", handler.DeleteProtocolo)
		})

		api.Route("/documentos", func(r chi.Router) {
			r.With(middleware.RequireRole(rbac.RoleEditor)).Delete("/{id}", handler.DeleteDocumento)
		})

		api.Route("/role-overrides", func(r chi.Router) {
			r.Use(middleware.RequireRole(rbac.RoleAdmin))
			r.Get("/", handler.ListRoleOverrides)
			r.Put("/", handler.SetRoleOverride)
			r.Get("/{userID}", handler.GetRoleOverride)
			r.Delete("/{userID}", handler.DeleteRoleOverride)
		})

		api.Route("/tipos-documento", func(r chi.Router) {
			r.With(middleware.RequireRole(rbac.RoleViewer)).Get("/", handler.ListTiposDocumento)
			r.With(middleware.RequireRole(rbac.RoleViewer)).Get("/{id}", handler.GetTipoDocumento)

			r.With(middleware.RequireRole(rbac.RoleAdmin)).Post("/", handler.CreateTipoDocumento)
			r.With(middleware.RequireRole(rbac.RoleAdmin)).Put("/{id}", handler.UpdateTipoDocumento)
			r.With(middleware.RequireRole(rbac.RoleAdmin)).Delete("/{id}", handler.DeleteTipoDocumento)
		})
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return &Server{
		httpServer: srv,
		logger:     logger,
		cfg:        cfg,
	}
}

// Run запускает сервер и ожидает сигнала завершения (SIGINT, SIGTERM).
// При получении сигнала выполняется graceful shutdown.
func (s *Server) Run() error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("HTTP-сервер запущен",
			slog.String("addr", s.httpServer.Addr),
		)

		err := s.httpServer.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	// Ожидание сигнала завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		s.logger.Info("Получен сигнал завершения", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("ошибка HTTP-сервера: %w", err)
		}
	}

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	s.logger.Info("Выполняется graceful shutdown...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("ошибка при graceful shutdown: %w", err)
	}

	s.logger.Info("HTTP-сервер остановлен")
	return nil
}
