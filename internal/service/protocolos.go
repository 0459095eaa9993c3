// protocolos.go — бизнес-логика реестра протоколов.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/crea-to/protocolo-module/internal/domain/model"
	"github.com/crea-to/protocolo-module/internal/repository"
)

// ProtocoloService — сервис управления протоколами.
// После успешного создания вызывает оркестратор SITAC; результат
// синхронизации логируется и не влияет на исход создания.
type ProtocoloService struct {
	protocolos repository.ProtocoloRepository
	documentos repository.DocumentoRepository
	tipos      repository.TipoDocumentoRepository
	sync       *SITACSyncService
	logger     *slog.Logger
}

// NewProtocoloService создаёт сервис протоколов.
func NewProtocoloService(
	protocolos repository.ProtocoloRepository,
	documentos repository.DocumentoRepository,
	tipos repository.TipoDocumentoRepository,
	sync *SITACSyncService,
	logger *slog.Logger,
) *ProtocoloService {
	return &ProtocoloService{
		protocolos: protocolos,
		documentos: documentos,
		tipos:      tipos,
		sync:       sync,
		logger:     logger.With(slog.String("component", "protocolo_service")),
	}
}

// CreateProtocoloInput — входные данные создания протокола.
type CreateProtocoloInput struct {
	Numero      string
	Tipo        string
	CPFCNPJ     *string
	Armario     string
	Prateleira  string
	Caixa       string
	UnidadeCrea string
	Observacoes string
	CriadoPor   string
}

// Create создаёт протокол и синхронно отправляет его в SITAC.
// data_emissao устанавливается текущей датой и далее не меняется.
func (s *ProtocoloService) Create(ctx context.Context, input CreateProtocoloInput) (*model.Protocolo, error) {
	unidade := input.UnidadeCrea
	if unidade == "" {
		unidade = model.UnidadeSedePalmas
	}

	p := &model.Protocolo{
		ID:          uuid.New().String(),
		Numero:      input.Numero,
		Tipo:        input.Tipo,
		CPFCNPJ:     input.CPFCNPJ,
		Armario:     input.Armario,
		Prateleira:  input.Prateleira,
		Caixa:       input.Caixa,
		UnidadeCrea: unidade,
		Observacoes: input.Observacoes,
		DataEmissao: time.Now(),
		CriadoPor:   input.CriadoPor,
	}

	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrValidation, err.Error())
	}

	if err := s.protocolos.Create(ctx, p); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, fmt.Errorf("%w: номер %s уже зарегистрирован", ErrConflict, p.Numero)
		}
		return nil, err
	}

	s.logger.Info("Протокол создан",
		slog.String("id", p.ID),
		slog.String("numero", p.Numero),
		slog.String("tipo", p.Tipo),
	)

	// Синхронизация выполняется после коммита создания; её исход
	// не возвращается пользователю.
	result := s.sync.SubmitOnCreate(ctx, p)
	if result.Success && result.ProtocoloSITAC != "" {
		p.ProtocoloSITAC = &result.ProtocoloSITAC
	}

	return p, nil
}

// Get возвращает протокол по UUID.
func (s *ProtocoloService) Get(ctx context.Context, id string) (*model.Protocolo, error) {
	p, err := s.protocolos.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

// List возвращает страницу протоколов и общее количество.
func (s *ProtocoloService) List(ctx context.Context, filter repository.ProtocoloFilter, limit, offset int) ([]*model.Protocolo, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	list, err := s.protocolos.List(ctx, filter, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	count, err := s.protocolos.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return list, count, nil
}

// UpdateProtocoloInput — входные данные обновления протокола.
type UpdateProtocoloInput struct {
	Numero      string
	Tipo        string
	CPFCNPJ     *string
	Armario     string
	Prateleira  string
	Caixa       string
	UnidadeCrea string
	Observacoes string
}

// Update обновляет протокол. Повторная отправка в SITAC не выполняется:
// синхронизация привязана только к созданию.
func (s *ProtocoloService) Update(ctx context.Context, id string, input UpdateProtocoloInput) (*model.Protocolo, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	p.Numero = input.Numero
	p.Tipo = input.Tipo
	p.CPFCNPJ = input.CPFCNPJ
	p.Armario = input.Armario
	p.Prateleira = input.Prateleira
	p.Caixa = input.Caixa
	if input.UnidadeCrea != "" {
		p.UnidadeCrea = input.UnidadeCrea
	}
	p.Observacoes = input.Observacoes

	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrValidation, err.Error())
	}

	if err := s.protocolos.Update(ctx, p); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrNotFound
		case errors.Is(err, repository.ErrConflict):
			return nil, fmt.Errorf("%w: номер %s уже зарегистрирован", ErrConflict, p.Numero)
		}
		return nil, err
	}

	s.logger.Info("Протокол обновлён", slog.String("id", p.ID), slog.String("numero", p.Numero))
	return p, nil
}

// Delete удаляет протокол вместе с документами.
func (s *ProtocoloService) Delete(ctx context.Context, id string) error {
	if err := s.protocolos.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	s.logger.Info("Протокол удалён", slog.String("id", id))
	return nil
}

// Resubmit — ручная повторная отправка протокола в SITAC (publisher).
func (s *ProtocoloService) Resubmit(ctx context.Context, id string) (*model.SyncResult, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.sync.Resubmit(ctx, p)
}

// AddDocumentoInput — входные данные прикрепления документа.
type AddDocumentoInput struct {
	TipoDocumentoID string
	Observacoes     string
}

// AddDocumento прикладывает документ к протоколу.
// Тип документа должен существовать в каталоге и быть активным.
func (s *ProtocoloService) AddDocumento(ctx context.Context, protocoloID string, input AddDocumentoInput) (*model.Documento, error) {
	if _, err := s.Get(ctx, protocoloID); err != nil {
		return nil, err
	}

	td, err := s.tipos.GetByID(ctx, input.TipoDocumentoID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: тип документа не найден", ErrValidation)
		}
		return nil, err
	}
	if !td.Ativo {
		return nil, fmt.Errorf("%w: тип документа %q деактивирован", ErrValidation, td.Nome)
	}

	d := &model.Documento{
		ID:              uuid.New().String(),
		ProtocoloID:     protocoloID,
		TipoDocumentoID: td.ID,
		Observacoes:     input.Observacoes,
	}
	if err := s.documentos.Create(ctx, d); err != nil {
		return nil, err
	}
	d.TipoDocumentoNome = td.Nome

	s.logger.Info("Документ приложен к протоколу",
		slog.String("protocolo_id", protocoloID),
		slog.String("tipo", td.Nome),
	)
	return d, nil
}

// ListDocumentos возвращает документы протокола.
func (s *ProtocoloService) ListDocumentos(ctx context.Context, protocoloID string) ([]*model.Documento, error) {
	if _, err := s.Get(ctx, protocoloID); err != nil {
		return nil, err
	}
	return s.documentos.ListByProtocolo(ctx, protocoloID)
}

// DeleteDocumento удаляет документ.
func (s *ProtocoloService) DeleteDocumento(ctx context.Context, id string) error {
	if err := s.documentos.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}
