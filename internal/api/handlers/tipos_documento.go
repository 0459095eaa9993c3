// tipos_documento.go — обработчики /api/v1/tipos-documento endpoints.
// Каталог типов документов по категориям процессов.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/crea-to/protocolo-module/internal/api/errors"
	"github.com/crea-to/protocolo-module/internal/domain/model"
	"github.com/crea-to/protocolo-module/internal/service"
)

// tipoDocumentoRequest — тело запроса создания/обновления типа документа.
type tipoDocumentoRequest struct {
	Categoria string `json:"categoria"`
	Nome      string `json:"nome"`
	Ativo     *bool  `json:"ativo,omitempty"`
}

// tipoDocumentoResponse — представление типа документа в API.
type tipoDocumentoResponse struct {
	ID           string    `json:"id"`
	Categoria    string    `json:"categoria"`
	Nome         string    `json:"nome"`
	Ativo        bool      `json:"ativo"`
	CriadoEm     time.Time `json:"criado_em"`
	AtualizadoEm time.Time `json:"atualizado_em"`
}

// tipoDocumentoListResponse — каталог типов документов.
type tipoDocumentoListResponse struct {
	Items []tipoDocumentoResponse `json:"items"`
	Total int                     `json:"total"`
}

// CreateTipoDocumento — POST /api/v1/tipos-documento.
// Доступ: admin.
func (h *APIHandler) CreateTipoDocumento(w http.ResponseWriter, r *http.Request) {
	var req tipoDocumentoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ValidationError(w, "Некорректный JSON: "+err.Error())
		return
	}

	// Новые типы активны, если не указано иное
	ativo := true
	if req.Ativo != nil {
		ativo = *req.Ativo
	}

	td, err := h.tipos.Create(r.Context(), service.TipoDocumentoInput{
		Categoria: req.Categoria,
		Nome:      req.Nome,
		Ativo:     ativo,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			apierrors.ValidationError(w, err.Error())
		case errors.Is(err, service.ErrConflict):
			apierrors.Conflict(w, err.Error())
		default:
			h.logger.Error("Ошибка создания типа документа", "nome", req.Nome, "error", err)
			apierrors.InternalError(w, "Ошибка создания типа документа")
		}
		return
	}

	writeJSON(w, http.StatusCreated, mapTipoDocumento(td))
}

// ListTiposDocumento — GET /api/v1/tipos-documento.
// Фильтры: categoria, ativo=true (только активные).
// Доступ: viewer и выше.
func (h *APIHandler) ListTiposDocumento(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	categoria := optionalQueryParam(query, "categoria")
	somenteAtivos := query.Get("ativo") == "true"

	list, err := h.tipos.List(r.Context(), categoria, somenteAtivos)
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			apierrors.ValidationError(w, err.Error())
			return
		}
		h.logger.Error("Ошибка получения каталога типов документов", "error", err)
		apierrors.InternalError(w, "Ошибка получения каталога типов документов")
		return
	}

	items := make([]tipoDocumentoResponse, len(list))
	for i, td := range list {
		items[i] = mapTipoDocumento(td)
	}

	writeJSON(w, http.StatusOK, tipoDocumentoListResponse{Items: items, Total: len(items)})
}

// GetTipoDocumento — GET /api/v1/tipos-documento/{id}.
// Доступ: viewer и выше.
func (h *APIHandler) GetTipoDocumento(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	td, err := h.tipos.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			apierrors.NotFound(w, "Тип документа не найден")
			return
		}
		h.logger.Error("Ошибка получения типа документа", "id", id, "error", err)
		apierrors.InternalError(w, "Ошибка получения типа документа")
		return
	}

	writeJSON(w, http.StatusOK, mapTipoDocumento(td))
}

// UpdateTipoDocumento — PUT /api/v1/tipos-documento/{id}.
// Доступ: admin.
func (h *APIHandler) UpdateTipoDocumento(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req tipoDocumentoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ValidationError(w, "Некорректный JSON: "+err.Error())
		return
	}

	ativo := true
	if req.Ativo != nil {
		ativo = *req.Ativo
	}

	td, err := h.tipos.Update(r.Context(), id, service.TipoDocumentoInput{
		Categoria: req.Categoria,
		Nome:      req.Nome,
		Ativo:     ativo,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			apierrors.NotFound(w, "Тип документа не найден")
		case errors.Is(err, service.ErrValidation):
			apierrors.ValidationError(w, err.Error())
		case errors.Is(err, service.ErrConflict):
			apierrors.Conflict(w, err.Error())
		default:
			h.logger.Error("Ошибка обновления типа документа", "id", id, "error", err)
			apierrors.InternalError(w, "Ошибка обновления типа документа")
		}
		return
	}

	writeJSON(w, http.StatusOK, mapTipoDocumento(td))
}

// DeleteTipoDocumento — DELETE /api/v1/tipos-documento/{id}.
// Тип, на который ссылаются документы, удалить нельзя — только деактивировать.
// Доступ: admin.
func (h *APIHandler) DeleteTipoDocumento(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.tipos.Delete(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			apierrors.NotFound(w, "Тип документа не найден")
		case errors.Is(err, service.ErrConflict):
			apierrors.Conflict(w, err.Error())
		default:
			h.logger.Error("Ошибка удаления типа документа", "id", id, "error", err)
			apierrors.InternalError(w, "Ошибка удаления типа документа")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// mapTipoDocumento конвертирует доменную модель типа документа в API-представление.
func mapTipoDocumento(td *model.TipoDocumento) tipoDocumentoResponse {
	return tipoDocumentoResponse{
		ID:           td.ID,
		Categoria:    td.Categoria,
		Nome:         td.Nome,
		Ativo:        td.Ativo,
		CriadoEm:     td.CriadoEm,
		AtualizadoEm: td.AtualizadoEm,
	}
}
