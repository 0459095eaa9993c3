// handler.go — основной обработчик API Protocolo Module.
// Объединяет доменные обработчики и делегирует запросы в сервисный слой.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/crea-to/protocolo-module/internal/service"
)

// APIHandler — основной обработчик API Protocolo Module.
type APIHandler struct {
	health     *HealthHandler
	protocolos *service.ProtocoloService
	tipos      *service.TipoDocumentoService
	roles      *service.RoleOverrideService
	logger     *slog.Logger
}

// NewAPIHandler создаёт основной обработчик API.
func NewAPIHandler(
	health *HealthHandler,
	protocolos *service.ProtocoloService,
	tipos *service.TipoDocumentoService,
	roles *service.RoleOverrideService,
	logger *slog.Logger,
) *APIHandler {
	return &APIHandler{
		health:     health,
		protocolos: protocolos,
		tipos:      tipos,
		roles:      roles,
		logger:     logger.With(slog.String("component", "api_handler")),
	}
}

// HealthLive — liveness probe (делегируется в HealthHandler).
func (h *APIHandler) HealthLive(w http.ResponseWriter, r *http.Request) {
	h.health.HealthLive(w, r)
}

// HealthReady — readiness probe (делегируется в HealthHandler).
func (h *APIHandler) HealthReady(w http.ResponseWriter, r *http.Request) {
	h.health.HealthReady(w, r)
}

// GetMetrics — Prometheus метрики (делегируется в HealthHandler).
func (h *APIHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	h.health.GetMetrics(w, r)
}

// --- Вспомогательные функции ---

// writeJSON записывает JSON-ответ с указанным статусом.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// paginationParams извлекает limit и offset из query string.
// limit по умолчанию 50, максимум 100; offset по умолчанию 0.
func paginationParams(query url.Values) (int, int) {
	l := 50
	o := 0

	if raw := query.Get("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			l = v
			if l < 1 {
				l = 1
			}
			if l > 100 {
				l = 100
			}
		}
	}

	if raw := query.Get("offset"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v >= 0 {
			o = v
		}
	}

	return l, o
}

// optionalQueryParam возвращает указатель на значение query-параметра
// или nil, если параметр отсутствует или пуст.
func optionalQueryParam(query url.Values, name string) *string {
	v := query.Get(name)
	if v == "" {
		return nil
	}
	return &v
}
