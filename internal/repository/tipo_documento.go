package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/crea-to/protocolo-module/internal/domain/model"
)

// TipoDocumentoRepository — интерфейс CRUD для каталога типов документов.
type TipoDocumentoRepository interface {
	// Create создаёт тип документа. Пара (categoria, nome) уникальна.
	Create(ctx context.Context, td *model.TipoDocumento) error
	// GetByID возвращает тип документа по UUID.
	GetByID(ctx context.Context, id string) (*model.TipoDocumento, error)
	// List возвращает каталог с фильтрацией по категории и флагу ativo.
	List(ctx context.Context, categoria *string, somenteAtivos bool) ([]*model.TipoDocumento, error)
	// Update обновляет тип документа.
	Update(ctx context.Context, td *model.TipoDocumento) error
	// Delete удаляет тип документа.
	// Возвращает ErrConflict, если на тип ссылаются документы.
	Delete(ctx context.Context, id string) error
}

// tipoDocumentoRepo — реализация TipoDocumentoRepository.
type tipoDocumentoRepo struct {
	db DBTX
}

// NewTipoDocumentoRepository создаёт репозиторий каталога типов документов.
func NewTipoDocumentoRepository(db DBTX) TipoDocumentoRepository {
	return &tipoDocumentoRepo{db: db}
}

const tipoDocumentoColumns = `id, categoria, nome, ativo, criado_em, atualizado_em`

func (r *tipoDocumentoRepo) Create(ctx context.Context, td *model.TipoDocumento) error {
	query := `
		INSERT INTO tipos_documento (id, categoria, nome, ativo)
		VALUES ($1, $2, $3, $4)
		RETURNING criado_em, atualizado_em`

	err := r.db.QueryRow(ctx, query,
		td.ID, td.Categoria, td.Nome, td.Ativo,
	).Scan(&td.CriadoEm, &td.AtualizadoEm)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: тип документа с таким названием уже есть в категории", ErrConflict)
		}
		return fmt.Errorf("ошибка создания типа документа: %w", err)
	}
	return nil
}

func (r *tipoDocumentoRepo) GetByID(ctx context.Context, id string) (*model.TipoDocumento, error) {
	query := fmt.Sprintf(`SELECT %s FROM tipos_documento WHERE id = $1`, tipoDocumentoColumns)

	td := &model.TipoDocumento{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&td.ID, &td.Categoria, &td.Nome, &td.Ativo, &td.CriadoEm, &td.AtualizadoEm,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения типа документа: %w", err)
	}
	return td, nil
}

func (r *tipoDocumentoRepo) List(ctx context.Context, categoria *string, somenteAtivos bool) ([]*model.TipoDocumento, error) {
	var conditions []string
	var args []any
	argNum := 1

	if categoria != nil {
		conditions = append(conditions, fmt.Sprintf("categoria = $%d", argNum))
		args = append(args, *categoria)
		argNum++
	}
	if somenteAtivos {
		conditions = append(conditions, "ativo = TRUE")
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM tipos_documento
		%s
		ORDER BY categoria, nome`, tipoDocumentoColumns, where)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения каталога типов документов: %w", err)
	}
	defer rows.Close()

	var result []*model.TipoDocumento
	for rows.Next() {
		td := &model.TipoDocumento{}
		if err := rows.Scan(
			&td.ID, &td.Categoria, &td.Nome, &td.Ativo, &td.CriadoEm, &td.AtualizadoEm,
		); err != nil {
			return nil, fmt.Errorf("ошибка сканирования типа документа: %w", err)
		}
		result = append(result, td)
	}
	return result, rows.Err()
}

func (r *tipoDocumentoRepo) Update(ctx context.Context, td *model.TipoDocumento) error {
	query := `
		UPDATE tipos_documento
		SET categoria = $2, nome = $3, ativo = $4, atualizado_em = NOW()
		WHERE id = $1
		RETURNING atualizado_em`

	err := r.db.QueryRow(ctx, query,
		td.ID, td.Categoria, td.Nome, td.Ativo,
	).Scan(&td.AtualizadoEm)
	if err != nil {
		if err == pgx.ErrNoRows {
			return ErrNotFound
		}
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: тип документа с таким названием уже есть в категории", ErrConflict)
		}
		return fmt.Errorf("ошибка обновления типа документа: %w", err)
	}
	return nil
}

func (r *tipoDocumentoRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM tipos_documento WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: на тип документа ссылаются документы", ErrConflict)
		}
		return fmt.Errorf("ошибка удаления типа документа: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
