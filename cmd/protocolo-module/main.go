// Точка входа Protocolo Module — реестр физических протоколов CREA-TO
// с синхронизацией в SITAC.
// Загружает конфигурацию, подключается к PostgreSQL, применяет миграции,
// создаёт SITAC-клиент и сервисный слой, запускает мониторинг зависимостей
// (topologymetrics) и HTTP-сервер с JWT middleware и graceful shutdown.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/stdlib"

	"github.com/crea-to/protocolo-module/internal/api/handlers"
	"github.com/crea-to/protocolo-module/internal/api/middleware"
	"github.com/crea-to/protocolo-module/internal/config"
	"github.com/crea-to/protocolo-module/internal/database"
	"github.com/crea-to/protocolo-module/internal/domain/rbac"
	"github.com/crea-to/protocolo-module/internal/repository"
	"github.com/crea-to/protocolo-module/internal/server"
	"github.com/crea-to/protocolo-module/internal/service"
	"github.com/crea-to/protocolo-module/internal/sitac"
)

func main() {
	// 1. Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Ошибка загрузки конфигурации", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 2. Настройка логирования
	logger := config.SetupLogger(cfg)
	logger.Info("Protocolo Module запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
	)

	if os.Getenv("PM_DEPHEALTH_GROUP") == "" {
		logger.Warn("PM_DEPHEALTH_GROUP не задана, используется значение по умолчанию",
			slog.String("default", cfg.DephealthGroup),
		)
	}

	// 3. Применение миграций БД
	logger.Info("Применение миграций БД...")
	if err := database.Migrate(cfg, logger); err != nil {
		logger.Error("Ошибка миграций БД", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Подключение к PostgreSQL (pgxpool)
	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		logger.Error("Ошибка подключения к PostgreSQL", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	// 4.1 Адаптер pgxpool → *sql.DB для topologymetrics (connection pool mode).
	// Проверка здоровья PostgreSQL будет идти через существующий пул соединений,
	// что позволяет обнаружить его исчерпание.
	pgDB := stdlib.OpenDBFromPool(pool)
	defer pgDB.Close()

	// 5. Repositories
	protocoloRepo := repository.NewProtocoloRepository(pool)
	documentoRepo := repository.NewDocumentoRepository(pool)
	tipoRepo := repository.NewTipoDocumentoRepository(pool)
	roleRepo := repository.NewRoleOverrideRepository(pool)

	// 6. SITAC-клиент с in-memory кэшем токенов
	sitacClient := sitac.New(
		cfg.SITACBaseURL,
		cfg.SITACUsername,
		cfg.SITACPassword,
		nil, // MemoryTokenCache по умолчанию
		logger,
	)
	if sitacClient.Configured() {
		logger.Info("SITAC клиент создан", slog.String("base_url", cfg.SITACBaseURL))
	} else {
		logger.Warn("SITAC credentials не заданы: протоколы будут создаваться без синхронизации",
			slog.String("base_url", cfg.SITACBaseURL),
		)
	}

	// 7. Services
	syncSvc := service.NewSITACSyncService(sitacClient, protocoloRepo, documentoRepo, logger)
	protocoloSvc := service.NewProtocoloService(protocoloRepo, documentoRepo, tipoRepo, syncSvc, logger)
	tipoSvc := service.NewTipoDocumentoService(tipoRepo, logger)
	roleSvc := service.NewRoleOverrideService(roleRepo, logger)

	// 8. Readiness checkers (PostgreSQL + Keycloak)
	pgChecker := database.NewReadinessChecker(pool)
	kcChecker, err := middleware.NewKeycloakReadinessChecker(cfg.JWTJWKSURL, "", cfg.KeycloakReadinessTimeout)
	if err != nil {
		logger.Error("Ошибка создания Keycloak readiness checker", slog.String("error", err.Error()))
		os.Exit(1)
	}
	healthHandler := handlers.NewHealthHandler(pgChecker, kcChecker)

	// 9. API handler
	apiHandler := handlers.NewAPIHandler(healthHandler, protocoloSvc, tipoSvc, roleSvc, logger)

	// 10. JWT middleware
	// Адаптер RoleOverrideRepository → middleware.RoleOverrideProvider
	roleProvider := &roleOverrideAdapter{repo: roleRepo}

	groupMapping := rbac.GroupMapping{
		AdminGroups:     cfg.RoleAdminGroups,
		PublisherGroups: cfg.RolePublisherGroups,
		EditorGroups:    cfg.RoleEditorGroups,
		ViewerGroups:    cfg.RoleViewerGroups,
	}

	jwtAuth, err := middleware.NewJWTAuth(
		cfg.JWTJWKSURL,
		"", // кастомный CA не используется: TLS termination на API Gateway
		cfg.JWTIssuer,
		roleProvider,
		groupMapping,
		cfg.JWKSClientTimeout,
		cfg.JWKSRefreshInterval,
		cfg.JWTLeeway,
		logger,
	)
	if err != nil {
		logger.Error("Ошибка создания JWT middleware", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer jwtAuth.Close()
	logger.Info("JWT middleware инициализирован",
		slog.String("jwks_url", cfg.JWTJWKSURL),
		slog.String("issuer", cfg.JWTIssuer),
	)

	// 11. topologymetrics — мониторинг зависимостей (PostgreSQL + Keycloak + SITAC)
	sitacBaseURL := ""
	if cfg.SITACConfigured() {
		sitacBaseURL = cfg.SITACBaseURL
	}
	dephealthSvc, dephealthErr := service.NewDephealthService(
		"protocolo-module",
		cfg.DephealthGroup,
		pgDB,
		cfg.DatabaseURL(),
		cfg.JWTJWKSURL,
		sitacBaseURL,
		cfg.DephealthCheckInterval,
		logger,
	)
	if dephealthErr != nil {
		logger.Warn("topologymetrics недоступен, запуск без мониторинга зависимостей",
			slog.String("error", dephealthErr.Error()),
		)
		dephealthSvc = nil
	} else {
		if startErr := dephealthSvc.Start(ctx); startErr != nil {
			logger.Warn("Ошибка запуска topologymetrics",
				slog.String("error", startErr.Error()),
			)
		} else {
			logger.Info("topologymetrics запущен",
				slog.String("group", cfg.DephealthGroup),
				slog.String("check_interval", cfg.DephealthCheckInterval.String()),
			)
		}
	}

	// 12. Создание и запуск HTTP-сервера
	srv := server.New(cfg, logger, apiHandler, jwtAuth)
	if err := srv.Run(); err != nil {
		logger.Error("Ошибка сервера", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 13. Graceful shutdown фоновых задач
	if dephealthSvc != nil {
		dephealthSvc.Stop()
	}

	logger.Info("Protocolo Module остановлен")
}

// roleOverrideAdapter — адаптер RoleOverrideRepository → middleware.RoleOverrideProvider.
// Преобразует *model.RoleOverride в *string (additional_role).
type roleOverrideAdapter struct {
	repo repository.RoleOverrideRepository
}

// GetRoleOverride возвращает дополнительную роль для пользователя.
// Если override не найден — возвращает nil, nil.
func (a *roleOverrideAdapter) GetRoleOverride(ctx context.Context, userID string) (*string, error) {
	ro, err := a.repo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if ro == nil {
		return nil, nil
	}
	return &ro.AdditionalRole, nil
}
