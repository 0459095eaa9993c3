// documentos.go — обработчики документов протоколов.
// POST/GET /api/v1/protocolos/{id}/documentos, DELETE /api/v1/documentos/{id}.
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

// documentoRequest — тело запроса прикрепления документа.
type documentoRequest struct {
	TipoDocumentoID string `json:"tipo_documento_id"`
	Observacoes     string `json:"observacoes,omitempty"`
}

// documentoResponse — представление документа в API.
type documentoResponse struct {
	ID                string    `json:"id"`
	ProtocoloID       string    `json:"protocolo_id"`
	TipoDocumentoID   string    `json:"tipo_documento_id"`
	TipoDocumentoNome string    `json:"tipo_documento_nome"`
	Observacoes       string    `json:"observacoes,omitempty"`
	CriadoEm          time.Time `json:"criado_em"`
	AtualizadoEm      time.Time `json:"atualizado_em"`
}

// documentoListResponse — список документов протокола.
type documentoListResponse struct {
	Items []documentoResponse `json:"items"`
	Total int                 `json:"total"`
}

// AddDocumento — POST /api/v1/protocolos/{id}/documentos.
// Прикладывает документ каталожного типа к протоколу.
// Доступ: editor и выше.
func (h *APIHandler) AddDocumento(w http.ResponseWriter, r *http.Request) {
	protocoloID := chi.URLParam(r, "id")

	var req documentoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ValidationError(w, "Некорректный JSON: "+err.Error())
		return
	}

	if req.TipoDocumentoID == "" {
		apierrors.ValidationError(w, "tipo_documento_id обязателен")
		return
	}

	d, err := h.protocolos.AddDocumento(r.Context(), protocoloID, service.AddDocumentoInput{
		TipoDocumentoID: req.TipoDocumentoID,
		Observacoes:     req.Observacoes,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			apierrors.NotFound(w, "Протокол не найден")
		case errors.Is(err, service.ErrValidation):
			apierrors.ValidationError(w, err.Error())
		default:
			h.logger.Error("Ошибка прикрепления документа", "protocolo_id", protocoloID, "error", err)
			apierrors.InternalError(w, "Ошибка прикрепления документа")
		}
		return
	}

	writeJSON(w, http.StatusCreated, mapDocumento(d))
}

// ListDocumentos — GET /api/v1/protocolos/{id}/documentos.
// Доступ: viewer и выше.
func (h *APIHandler) ListDocumentos(w http.ResponseWriter, r *http.Request) {
	protocoloID := chi.URLParam(r, "id")

	docs, err := h.protocolos.ListDocumentos(r.Context(), protocoloID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			apierrors.NotFound(w, "Протокол не найден")
			return
		}
		h.logger.Error("Ошибка получения документов", "protocolo_id", protocoloID, "error", err)
		apierrors.InternalError(w, "Ошибка получения документов протокола")
		return
	}

	items := make([]documentoResponse, len(docs))
	for i, d := range docs {
		items[i] = mapDocumento(d)
	}

	writeJSON(w, http.StatusOK, documentoListResponse{Items: items, Total: len(items)})
}

// DeleteDocumento — DELETE /api/v1/documentos/{id}.
// Доступ: editor и выше.
func (h *APIHandler) DeleteDocumento(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.protocolos.DeleteDocumento(r.Context(), id); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			apierrors.NotFound(w, "Документ не найден")
			return
		}
		h.logger.Error("Ошибка удаления документа", "id", id, "error", err)
		apierrors.InternalError(w, "Ошибка удаления документа")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// mapDocumento конвертирует доменную модель документа в API-представление.
func mapDocumento(d *model.Documento) documentoResponse {
	return documentoResponse{
		ID:                d.ID,
		ProtocoloID:       d.ProtocoloID,
		TipoDocumentoID:   d.TipoDocumentoID,
		TipoDocumentoNome: d.TipoDocumentoNome,
		Observacoes:       d.Observacoes,
		CriadoEm:          d.CriadoEm,
		AtualizadoEm:      d.AtualizadoEm,
	}
}
