// Пакет config — загрузка и валидация конфигурации Protocolo Module
// из переменных окружения.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// Config содержит все параметры конфигурации Protocolo Module.
type Config struct {
	// --- Сервер ---

	// Порт HTTP-сервера (диапазон 8000-8009)
	Port int
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string

	// --- PostgreSQL ---

	// Хост PostgreSQL
	DBHost string
	// Порт PostgreSQL
	DBPort int
	// Имя базы данных
	DBName string
	// Имя пользователя PostgreSQL
	DBUser string
	// Пароль пользователя PostgreSQL
	DBPassword string
	// Режим SSL: disable, require, verify-ca, verify-full
	DBSSLMode string

	// --- Keycloak / JWT ---

	// URL Keycloak (например, https://keycloak.crea-to.gov.br)
	KeycloakURL string
	// Имя realm в Keycloak
	KeycloakRealm string
	// Issuer JWT (авто-вычисляется из KeycloakURL, если не задан)
	JWTIssuer string
	// URL JWKS endpoint (авто-вычисляется из KeycloakURL, если не задан)
	JWTJWKSURL string
	// Допустимое отклонение времени при проверке JWT
	JWTLeeway time.Duration
	// Таймаут HTTP-клиента JWKS
	JWKSClientTimeout time.Duration
	// Интервал фонового обновления JWKS-ключей
	JWKSRefreshInterval time.Duration
	// Таймаут readiness-проверки Keycloak
	KeycloakReadinessTimeout time.Duration

	// --- Маппинг групп → ролей ---

	// Группы IdP, дающие роль admin (через запятую)
	RoleAdminGroups []string
	// Группы IdP, дающие роль publisher
	RolePublisherGroups []string
	// Группы IdP, дающие роль editor
	RoleEditorGroups []string
	// Группы IdP, дающие роль viewer
	RoleViewerGroups []string

	// --- SITAC ---

	// Базовый URL вебсервисов SITAC
	SITACBaseURL string
	// Имя пользователя SITAC (пусто — синхронизация отключена)
	SITACUsername string
	// Пароль SITAC (пусто — синхронизация отключена)
	SITACPassword string

	// --- Мониторинг зависимостей ---

	// Имя группы topologymetrics
	DephealthGroup string
	// Интервал проверки зависимостей topologymetrics
	DephealthCheckInterval time.Duration

	// --- Graceful shutdown ---

	// Таймаут graceful shutdown HTTP-сервера
	ShutdownTimeout time.Duration
}

// Load загружает конфигурацию из переменных окружения, валидирует
// обязательные поля и возвращает Config или ошибку.
func Load() (*Config, error) {
	cfg := &Config{}
	var err error

	// --- Сервер ---

	// PM_PORT — порт HTTP-сервера (по умолчанию 8000)
	cfg.Port, err = getEnvInt("PM_PORT", 8000)
	if err != nil {
		return nil, fmt.Errorf("PM_PORT: %w", err)
	}
	if cfg.Port < 8000 || cfg.Port > 8009 {
		return nil, fmt.Errorf("PM_PORT: значение %d вне допустимого диапазона 8000-8009", cfg.Port)
	}

	// PM_LOG_LEVEL — уровень логирования (по умолчанию info)
	cfg.LogLevel, err = parseLogLevel(getEnvDefault("PM_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("PM_LOG_LEVEL: %w", err)
	}

	// PM_LOG_FORMAT — формат логов (по умолчанию json)
	cfg.LogFormat = getEnvDefault("PM_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("PM_LOG_FORMAT: недопустимое значение %q, допустимые: json, text", cfg.LogFormat)
	}

	// --- PostgreSQL ---

	// PM_DB_HOST — обязательный
	cfg.DBHost, err = getEnvRequired("PM_DB_HOST")
	if err != nil {
		return nil, err
	}

	// PM_DB_PORT — порт PostgreSQL (по умолчанию 5432)
	cfg.DBPort, err = getEnvInt("PM_DB_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("PM_DB_PORT: %w", err)
	}

	// PM_DB_NAME — обязательный
	cfg.DBName, err = getEnvRequired("PM_DB_NAME")
	if err != nil {
		return nil, err
	}

	// PM_DB_USER — обязательный
	cfg.DBUser, err = getEnvRequired("PM_DB_USER")
	if err != nil {
		return nil, err
	}

	// PM_DB_PASSWORD — обязательный
	cfg.DBPassword, err = getEnvRequired("PM_DB_PASSWORD")
	if err != nil {
		return nil, err
	}

	// PM_DB_SSL_MODE — режим SSL (по умолчанию disable)
	cfg.DBSSLMode = getEnvDefault("PM_DB_SSL_MODE", "disable")
	validSSLModes := map[string]bool{
		"disable": true, "require": true, "verify-ca": true, "verify-full": true,
	}
	if !validSSLModes[cfg.DBSSLMode] {
		return nil, fmt.Errorf("PM_DB_SSL_MODE: недопустимое значение %q, допустимые: disable, require, verify-ca, verify-full", cfg.DBSSLMode)
	}

	// --- Keycloak / JWT ---

	// PM_KEYCLOAK_URL — обязательный
	cfg.KeycloakURL, err = getEnvRequired("PM_KEYCLOAK_URL")
	if err != nil {
		return nil, err
	}
	// Убираем trailing slash
	cfg.KeycloakURL = strings.TrimRight(cfg.KeycloakURL, "/")

	// PM_KEYCLOAK_REALM — realm (по умолчанию crea-to)
	cfg.KeycloakRealm = getEnvDefault("PM_KEYCLOAK_REALM", "crea-to")

	// PM_JWT_ISSUER — авто-вычисляется из KeycloakURL, если не задан
	cfg.JWTIssuer = getEnvDefault("PM_JWT_ISSUER",
		fmt.Sprintf("%s/realms/%s", cfg.KeycloakURL, cfg.KeycloakRealm))

	// PM_JWT_JWKS_URL — авто-вычисляется из KeycloakURL, если не задан
	cfg.JWTJWKSURL = getEnvDefault("PM_JWT_JWKS_URL",
		fmt.Sprintf("%s/realms/%s/protocol/openid-connect/certs", cfg.KeycloakURL, cfg.KeycloakRealm))

	// PM_JWT_LEEWAY — допустимое отклонение времени (по умолчанию 30s)
	cfg.JWTLeeway, err = getEnvDuration("PM_JWT_LEEWAY", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("PM_JWT_LEEWAY: %w", err)
	}

	// PM_JWKS_CLIENT_TIMEOUT — таймаут HTTP-клиента JWKS (по умолчанию 10s)
	cfg.JWKSClientTimeout, err = getEnvDuration("PM_JWKS_CLIENT_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("PM_JWKS_CLIENT_TIMEOUT: %w", err)
	}

	// PM_JWKS_REFRESH_INTERVAL — интервал обновления JWKS-ключей (по умолчанию 1h)
	cfg.JWKSRefreshInterval, err = getEnvDuration("PM_JWKS_REFRESH_INTERVAL", time.Hour)
	if err != nil {
		return nil, fmt.Errorf("PM_JWKS_REFRESH_INTERVAL: %w", err)
	}

	// PM_KEYCLOAK_READINESS_TIMEOUT — таймаут readiness-проверки (по умолчанию 5s)
	cfg.KeycloakReadinessTimeout, err = getEnvDuration("PM_KEYCLOAK_READINESS_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("PM_KEYCLOAK_READINESS_TIMEOUT: %w", err)
	}

	// --- Маппинг групп → ролей ---

	// PM_ROLE_ADMIN_GROUPS — группы для роли admin (по умолчанию "crea-admins")
	cfg.RoleAdminGroups = parseCSV(getEnvDefault("PM_ROLE_ADMIN_GROUPS", "crea-admins"))

	// PM_ROLE_PUBLISHER_GROUPS — группы для роли publisher (по умолчанию "crea-publishers")
	cfg.RolePublisherGroups = parseCSV(getEnvDefault("PM_ROLE_PUBLISHER_GROUPS", "crea-publishers"))

	// PM_ROLE_EDITOR_GROUPS — группы для роли editor (по умолчанию "crea-editors")
	cfg.RoleEditorGroups = parseCSV(getEnvDefault("PM_ROLE_EDITOR_GROUPS", "crea-editors"))

	// PM_ROLE_VIEWER_GROUPS — группы для роли viewer (по умолчанию "crea-viewers")
	cfg.RoleViewerGroups = parseCSV(getEnvDefault("PM_ROLE_VIEWER_GROUPS", "crea-viewers"))

	// --- SITAC ---

	// PM_SITAC_BASE_URL — базовый URL вебсервисов SITAC
	cfg.SITACBaseURL = strings.TrimRight(
		getEnvDefault("PM_SITAC_BASE_URL", "https://crea-to.sitac.com.br/app/webservices"), "/")

	// PM_SITAC_USERNAME / PM_SITAC_PASSWORD — опциональные.
	// Если не заданы, протоколы создаются без синхронизации с SITAC.
	cfg.SITACUsername = getEnvDefault("PM_SITAC_USERNAME", "")
	cfg.SITACPassword = getEnvDefault("PM_SITAC_PASSWORD", "")

	// --- Мониторинг зависимостей ---

	// PM_DEPHEALTH_GROUP — группа topologymetrics (по умолчанию "protocolo")
	cfg.DephealthGroup = getEnvDefault("PM_DEPHEALTH_GROUP", "protocolo")

	// PM_DEPHEALTH_CHECK_INTERVAL — интервал проверки зависимостей (по умолчанию 15s)
	cfg.DephealthCheckInterval, err = getEnvDuration("PM_DEPHEALTH_CHECK_INTERVAL", 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("PM_DEPHEALTH_CHECK_INTERVAL: %w", err)
	}

	// --- Graceful shutdown ---

	// PM_SHUTDOWN_TIMEOUT — таймаут graceful shutdown (по умолчанию 5s)
	cfg.ShutdownTimeout, err = getEnvDuration("PM_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("PM_SHUTDOWN_TIMEOUT: %w", err)
	}

	return cfg, nil
}

// SITACConfigured возвращает true, если заданы credentials SITAC.
// Без них оркестратор пропускает синхронизацию.
func (c *Config) SITACConfigured() bool {
	return c.SITACUsername != "" && c.SITACPassword != ""
}

// DatabaseDSN возвращает строку подключения к PostgreSQL.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBName, c.DBUser, c.DBPassword, c.DBSSLMode,
	)
}

// DatabaseURL возвращает URL подключения к PostgreSQL
// (для topologymetrics и golang-migrate).
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}

// SetupLogger настраивает глобальный slog-логгер на основе конфигурации.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// --- Вспомогательные функции ---

// getEnvRequired возвращает значение переменной окружения или ошибку, если она не задана.
func getEnvRequired(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("%s: обязательная переменная окружения не задана", key)
	}
	return val, nil
}

// getEnvDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getEnvInt возвращает целочисленное значение переменной окружения или значение по умолчанию.
func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvDuration возвращает time.Duration из переменной окружения или значение по умолчанию.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 30s, 1h, 15m)", val)
	}
	return d, nil
}

// parseLogLevel преобразует строку уровня логирования в slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("недопустимый уровень %q, допустимые: debug, info, warn, error", level)
	}
}

// parseCSV разбирает строку, разделённую запятыми, на срез строк.
// Пробелы вокруг элементов убираются, пустые элементы игнорируются.
func parseCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
