// role_overrides.go — обработчики /api/v1/role-overrides endpoints.
// Локальные повышения ролей, доступны только администраторам.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/crea-to/protocolo-module/internal/api/errors"
	"github.com/crea-to/protocolo-module/internal/api/middleware"
	"github.com/crea-to/protocolo-module/internal/domain/model"
	"github.com/crea-to/protocolo-module/internal/service"
)

// roleOverrideRequest — тело запроса установки override.
type roleOverrideRequest struct {
	UserID         string `json:"user_id"`
	Username       string `json:"username,omitempty"`
	AdditionalRole string `json:"additional_role"`
}

// roleOverrideResponse — представление override в API.
type roleOverrideResponse struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	Username       string    `json:"username,omitempty"`
	AdditionalRole string    `json:"additional_role"`
	CreatedBy      string    `json:"created_by,omitempty"`
	CriadoEm       time.Time `json:"criado_em"`
	AtualizadoEm   time.Time `json:"atualizado_em"`
}

// roleOverrideListResponse — страница overrides.
type roleOverrideListResponse struct {
	Items   []roleOverrideResponse `json:"items"`
	Total   int                    `json:"total"`
	Limit   int                    `json:"limit"`
	Offset  int                    `json:"offset"`
	HasMore bool                   `json:"has_more"`
}

// SetRoleOverride — PUT /api/v1/role-overrides.
// Создаёт или обновляет повышение роли пользователя.
// Доступ: admin.
func (h *APIHandler) SetRoleOverride(w http.ResponseWriter, r *http.Request) {
	var req roleOverrideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ValidationError(w, "Некорректный JSON: "+err.Error())
		return
	}

	ro, err := h.roles.Set(r.Context(), service.RoleOverrideInput{
		UserID:         req.UserID,
		Username:       req.Username,
		AdditionalRole: req.AdditionalRole,
		CreatedBy:      middleware.SubjectFromContext(r.Context()),
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation), errors.Is(err, service.ErrInvalidRole):
			apierrors.ValidationError(w, err.Error())
		default:
			h.logger.Error("Ошибка установки role override", "user_id", req.UserID, "error", err)
			apierrors.InternalError(w, "Ошибка установки role override")
		}
		return
	}

	writeJSON(w, http.StatusOK, mapRoleOverride(ro))
}

// ListRoleOverrides — GET /api/v1/role-overrides.
// Доступ: admin.
func (h *APIHandler) ListRoleOverrides(w http.ResponseWriter, r *http.Request) {
	limit, offset := paginationParams(r.URL.Query())

	list, total, err := h.roles.List(r.Context(), limit, offset)
	if err != nil {
		h.logger.Error("Ошибка получения списка role overrides", "error", err)
		apierrors.InternalError(w, "Ошибка получения списка role overrides")
		return
	}

	items := make([]roleOverrideResponse, len(list))
	for i, ro := range list {
		items[i] = mapRoleOverride(ro)
	}

	writeJSON(w, http.StatusOK, roleOverrideListResponse{
		Items:   items,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
		HasMore: offset+limit < total,
	})
}

// GetRoleOverride — GET /api/v1/role-overrides/{userID}.
// Доступ: admin.
func (h *APIHandler) GetRoleOverride(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	ro, err := h.roles.Get(r.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			apierrors.NotFound(w, "Role override не найден")
			return
		}
		h.logger.Error("Ошибка получения role override", "user_id", userID, "error", err)
		apierrors.InternalError(w, "Ошибка получения role override")
		return
	}

	writeJSON(w, http.StatusOK, mapRoleOverride(ro))
}

// DeleteRoleOverride — DELETE /api/v1/role-overrides/{userID}.
// Доступ: admin.
func (h *APIHandler) DeleteRoleOverride(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	if err := h.roles.Delete(r.Context(), userID); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			apierrors.NotFound(w, "Role override не найден")
			return
		}
		h.logger.Error("Ошибка удаления role override", "user_id", userID, "error", err)
		apierrors.InternalError(w, "Ошибка удаления role override")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// mapRoleOverride конвертирует доменную модель override в API-представление.
func mapRoleOverride(ro *model.RoleOverride) roleOverrideResponse {
	return roleOverrideResponse{
		ID:             ro.ID,
		UserID:         ro.UserID,
		Username:       ro.Username,
		AdditionalRole: ro.AdditionalRole,
		CreatedBy:      ro.CreatedBy,
		CriadoEm:       ro.CriadoEm,
		AtualizadoEm:   ro.AtualizadoEm,
	}
}
