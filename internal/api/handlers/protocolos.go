// protocolos.go — обработчики /api/v1/protocolos endpoints.
// CRUD протоколов, документы протокола, ручная отправка в SITAC.
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
	"github.com/crea-to/protocolo-module/internal/repository"
	"github.com/crea-to/protocolo-module/internal/service"
)

// dataEmissaoLayout — формат поля data_emissao в API (только дата).
const dataEmissaoLayout = "2006-01-02"

// protocoloRequest — тело запроса создания/обновления протокола.
type protocoloRequest struct {
	Numero      string  `json:"numero"`
	Tipo        string  `json:"tipo"`
	CPFCNPJ     *string `json:"cpf_cnpj,omitempty"`
	Armario     string  `json:"armario,omitempty"`
	Prateleira  string  `json:"prateleira,omitempty"`
	Caixa       string  `json:"caixa,omitempty"`
	UnidadeCrea string  `json:"unidade_crea,omitempty"`
	Observacoes string  `json:"observacoes,omitempty"`
}

// protocoloResponse — представление протокола в API.
type protocoloResponse struct {
	ID             string    `json:"id"`
	Numero         string    `json:"numero"`
	Tipo           string    `json:"tipo"`
	CPFCNPJ        *string   `json:"cpf_cnpj,omitempty"`
	Armario        string    `json:"armario,omitempty"`
	Prateleira     string    `json:"prateleira,omitempty"`
	Caixa          string    `json:"caixa,omitempty"`
	UnidadeCrea    string    `json:"unidade_crea"`
	Observacoes    string    `json:"observacoes,omitempty"`
	DataEmissao    string    `json:"data_emissao"`
	ProtocoloSITAC *string   `json:"protocolo_sitac,omitempty"`
	CriadoPor      string    `json:"criado_por,omitempty"`
	CriadoEm       time.Time `json:"criado_em"`
	AtualizadoEm   time.Time `json:"atualizado_em"`
}

// protocoloListResponse — страница протоколов.
type protocoloListResponse struct {
	Items   []protocoloResponse `json:"items"`
	Total   int                 `json:"total"`
	Limit   int                 `json:"limit"`
	Offset  int                 `json:"offset"`
	HasMore bool                `json:"has_more"`
}

// syncResultResponse — итог попытки синхронизации с SITAC.
type syncResultResponse struct {
	ProtocoloID    string    `json:"protocolo_id"`
	Submitted      bool      `json:"submitted"`
	Skipped        string    `json:"skipped,omitempty"`
	Success        bool      `json:"success"`
	ProtocoloSITAC string    `json:"protocolo_sitac,omitempty"`
	StartedAt      time.Time `json:"started_at"`
	CompletedAt    time.Time `json:"completed_at"`
}

// CreateProtocolo — POST /api/v1/protocolos.
// Регистрирует протокол и синхронно отправляет финалистические процессы в SITAC.
// Исход синхронизации не влияет на код ответа: протокол создаётся в любом случае.
// Доступ: editor и выше.
func (h *APIHandler) CreateProtocolo(w http.ResponseWriter, r *http.Request) {
	var req protocoloRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ValidationError(w, "Некорректный JSON: "+err.Error())
		return
	}

	input := service.CreateProtocoloInput{
		Numero:      req.Numero,
		Tipo:        req.Tipo,
		CPFCNPJ:     req.CPFCNPJ,
		Armario:     req.Armario,
		Prateleira:  req.Prateleira,
		Caixa:       req.Caixa,
		UnidadeCrea: req.UnidadeCrea,
		Observacoes: req.Observacoes,
		CriadoPor:   middleware.SubjectFromContext(r.Context()),
	}

	p, err := h.protocolos.Create(r.Context(), input)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			apierrors.ValidationError(w, err.Error())
		case errors.Is(err, service.ErrConflict):
			apierrors.Conflict(w, err.Error())
		default:
			h.logger.Error("Ошибка создания протокола", "numero", req.Numero, "error", err)
			apierrors.InternalError(w, "Ошибка создания протокола")
		}
		return
	}

	writeJSON(w, http.StatusCreated, mapProtocolo(p))
}

// ListProtocolos — GET /api/v1/protocolos.
// Фильтры: tipo, unidade_crea, q (поиск по номеру или CPF/CNPJ).
// Доступ: viewer и выше.
func (h *APIHandler) ListProtocolos(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	if tipo := query.Get("tipo"); tipo != "" && !model.IsValidTipo(tipo) {
		apierrors.ValidationError(w, "Недопустимый тип процесса: "+tipo)
		return
	}
	if unidade := query.Get("unidade_crea"); unidade != "" && !model.IsValidUnidade(unidade) {
		apierrors.ValidationError(w, "Недопустимое подразделение: "+unidade)
		return
	}

	filter := repository.ProtocoloFilter{
		Tipo:        optionalQueryParam(query, "tipo"),
		UnidadeCrea: optionalQueryParam(query, "unidade_crea"),
		Query:       optionalQueryParam(query, "q"),
	}
	limit, offset := paginationParams(query)

	list, total, err := h.protocolos.List(r.Context(), filter, limit, offset)
	if err != nil {
		h.logger.Error("Ошибка получения списка протоколов", "error", err)
		apierrors.InternalError(w, "Ошибка получения списка протоколов")
		return
	}

	items := make([]protocoloResponse, len(list))
	for i, p := range list {
		items[i] = mapProtocolo(p)
	}

	writeJSON(w, http.StatusOK, protocoloListResponse{
		Items:   items,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
		HasMore: offset+limit < total,
	})
}

// GetProtocolo — GET /api/v1/protocolos/{id}.
// Доступ: viewer и выше.
func (h *APIHandler) GetProtocolo(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	p, err := h.protocolos.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			apierrors.NotFound(w, "Протокол не найден")
			return
		}
		h.logger.Error("Ошибка получения протокола", "id", id, "error", err)
		apierrors.InternalError(w, "Ошибка получения протокола")
		return
	}

	writeJSON(w, http.StatusOK, mapProtocolo(p))
}

// UpdateProtocolo — PUT /api/v1/protocolos/{id}.
// Обновляет данные протокола. Повторная отправка в SITAC не выполняется.
// Доступ: editor и выше.
func (h *APIHandler) UpdateProtocolo(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req protocoloRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ValidationError(w, "Некорректный JSON: "+err.Error())
		return
	}

	input := service.UpdateProtocoloInput{
		Numero:      req.Numero,
		Tipo:        req.Tipo,
		CPFCNPJ:     req.CPFCNPJ,
		Armario:     req.Armario,
		Prateleira:  req.Prateleira,
		Caixa:       req.Caixa,
		UnidadeCrea: req.UnidadeCrea,
		Observacoes: req.Observacoes,
	}

	p, err := h.protocolos.Update(r.Context(), id, input)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			apierrors.NotFound(w, "Протокол не найден")
		case errors.Is(err, service.ErrValidation):
			apierrors.ValidationError(w, err.Error())
		case errors.Is(err, service.ErrConflict):
			apierrors.Conflict(w, err.Error())
		default:
			h.logger.Error("Ошибка обновления протокола", "id", id, "error", err)
			apierrors.InternalError(w, "Ошибка обновления протокола")
		}
		return
	}

	writeJSON(w, http.StatusOK, mapProtocolo(p))
}

// DeleteProtocolo — DELETE /api/v1/protocolos/{id}.
// Удаляет протокол вместе с приложенными документами.
// Доступ: admin.
func (h *APIHandler) DeleteProtocolo(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.protocolos.Delete(r.Context(), id); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			apierrors.NotFound(w, "Протокол не найден")
			return
		}
		h.logger.Error("Ошибка удаления протокола", "id", id, "error", err)
		apierrors.InternalError(w, "Ошибка удаления протокола")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ResubmitProtocolo — POST /api/v1/protocolos/{id}/sitac-submit.
// Ручная повторная отправка протокола в SITAC.
// Доступ: publisher и выше.
func (h *APIHandler) ResubmitProtocolo(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	result, err := h.protocolos.Resubmit(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			apierrors.NotFound(w, "Протокол не найден")
		case errors.Is(err, service.ErrNaoFinalistico):
			apierrors.ValidationError(w, err.Error())
		case errors.Is(err, service.ErrSITACNaoConfigurado):
			apierrors.SITACUnavailable(w, err.Error())
		default:
			h.logger.Error("Ошибка повторной отправки в SITAC", "id", id, "error", err)
			apierrors.InternalError(w, "Ошибка повторной отправки в SITAC")
		}
		return
	}

	writeJSON(w, http.StatusOK, mapSyncResult(result))
}

// --- Маппинг domain → API ---

// mapProtocolo конвертирует доменную модель протокола в API-представление.
func mapProtocolo(p *model.Protocolo) protocoloResponse {
	return protocoloResponse{
		ID:             p.ID,
		Numero:         p.Numero,
		Tipo:           p.Tipo,
		CPFCNPJ:        p.CPFCNPJ,
		Armario:        p.Armario,
		Prateleira:     p.Prateleira,
		Caixa:          p.Caixa,
		UnidadeCrea:    p.UnidadeCrea,
		Observacoes:    p.Observacoes,
		DataEmissao:    p.DataEmissao.Format(dataEmissaoLayout),
		ProtocoloSITAC: p.ProtocoloSITAC,
		CriadoPor:      p.CriadoPor,
		CriadoEm:       p.CriadoEm,
		AtualizadoEm:   p.AtualizadoEm,
	}
}

// mapSyncResult конвертирует итог синхронизации в API-представление.
func mapSyncResult(r *model.SyncResult) syncResultResponse {
	return syncResultResponse{
		ProtocoloID:    r.ProtocoloID,
		Submitted:      r.Submitted,
		Skipped:        r.Skipped,
		Success:        r.Success,
		ProtocoloSITAC: r.ProtocoloSITAC,
		StartedAt:      r.StartedAt,
		CompletedAt:    r.CompletedAt,
	}
}
