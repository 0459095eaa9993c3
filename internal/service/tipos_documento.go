// tipos_documento.go — бизнес-логика каталога типов документов.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/crea-to/protocolo-module/internal/domain/model"
	"github.com/crea-to/protocolo-module/internal/repository"
)

// TipoDocumentoService — сервис каталога типов документов.
type TipoDocumentoService struct {
	repo   repository.TipoDocumentoRepository
	logger *slog.Logger
}

// NewTipoDocumentoService создаёт сервис каталога типов документов.
func NewTipoDocumentoService(repo repository.TipoDocumentoRepository, logger *slog.Logger) *TipoDocumentoService {
	return &TipoDocumentoService{
		repo:   repo,
		logger: logger.With(slog.String("component", "tipo_documento_service")),
	}
}

// TipoDocumentoInput — входные данные создания/обновления типа документа.
type TipoDocumentoInput struct {
	Categoria string
	Nome      string
	Ativo     bool
}

func (i TipoDocumentoInput) validate() error {
	if !model.IsValidTipo(i.Categoria) {
		return fmt.Errorf("%w: недопустимая категория %q", ErrValidation, i.Categoria)
	}
	if i.Nome == "" {
		return fmt.Errorf("%w: название типа документа обязательно", ErrValidation)
	}
	return nil
}

// Create создаёт тип документа.
func (s *TipoDocumentoService) Create(ctx context.Context, input TipoDocumentoInput) (*model.TipoDocumento, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	td := &model.TipoDocumento{
		ID:        uuid.New().String(),
		Categoria: input.Categoria,
		Nome:      input.Nome,
		Ativo:     input.Ativo,
	}
	if err := s.repo.Create(ctx, td); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, fmt.Errorf("%w: %s уже есть в категории %s", ErrConflict, input.Nome, input.Categoria)
		}
		return nil, err
	}

	s.logger.Info("Тип документа создан",
		slog.String("categoria", td.Categoria),
		slog.String("nome", td.Nome),
	)
	return td, nil
}

// Get возвращает тип документа по UUID.
func (s *TipoDocumentoService) Get(ctx context.Context, id string) (*model.TipoDocumento, error) {
	td, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return td, nil
}

// List возвращает каталог типов документов.
func (s *TipoDocumentoService) List(ctx context.Context, categoria *string, somenteAtivos bool) ([]*model.TipoDocumento, error) {
	if categoria != nil && !model.IsValidTipo(*categoria) {
		return nil, fmt.Errorf("%w: недопустимая категория %q", ErrValidation, *categoria)
	}
	return s.repo.List(ctx, categoria, somenteAtivos)
}

// Update обновляет тип документа.
func (s *TipoDocumentoService) Update(ctx context.Context, id string, input TipoDocumentoInput) (*model.TipoDocumento, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	td, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	td.Categoria = input.Categoria
	td.Nome = input.Nome
	td.Ativo = input.Ativo

	if err := s.repo.Update(ctx, td); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrNotFound
		case errors.Is(err, repository.ErrConflict):
			return nil, fmt.Errorf("%w: %s уже есть в категории %s", ErrConflict, input.Nome, input.Categoria)
		}
		return nil, err
	}
	return td, nil
}

// Delete удаляет тип документа. Тип, на который ссылаются документы,
// удалить нельзя — деактивируйте его.
func (s *TipoDocumentoService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return ErrNotFound
		case errors.Is(err, repository.ErrConflict):
			return fmt.Errorf("%w: на тип ссылаются документы, деактивируйте его", ErrConflict)
		}
		return err
	}
	return nil
}
