package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/crea-to/protocolo-module/internal/domain/model"
)

// DocumentoRepository — интерфейс доступа к таблице documentos.
type DocumentoRepository interface {
	// Create прикладывает документ к протоколу.
	Create(ctx context.Context, d *model.Documento) error
	// GetByID возвращает документ по UUID (с названием типа).
	GetByID(ctx context.Context, id string) (*model.Documento, error)
	// ListByProtocolo возвращает все документы протокола
	// с названием типа из каталога.
	ListByProtocolo(ctx context.Context, protocoloID string) ([]*model.Documento, error)
	// Delete удаляет документ.
	Delete(ctx context.Context, id string) error
}

// documentoRepo — реализация DocumentoRepository.
type documentoRepo struct {
	db DBTX
}

// NewDocumentoRepository создаёт репозиторий документов.
func NewDocumentoRepository(db DBTX) DocumentoRepository {
	return &documentoRepo{db: db}
}

func (r *documentoRepo) Create(ctx context.Context, d *model.Documento) error {
	query := `
		INSERT INTO documentos (id, protocolo_id, tipo_documento_id, observacoes)
		VALUES ($1, $2, $3, $4)
		RETURNING criado_em, atualizado_em`

	err := r.db.QueryRow(ctx, query,
		d.ID, d.ProtocoloID, d.TipoDocumentoID, d.Observacoes,
	).Scan(&d.CriadoEm, &d.AtualizadoEm)
	if err != nil {
		return fmt.Errorf("ошибка создания документа: %w", err)
	}
	return nil
}

func (r *documentoRepo) GetByID(ctx context.Context, id string) (*model.Documento, error) {
	query := `
		SELECT d.id, d.protocolo_id, d.tipo_documento_id, td.nome,
			d.observacoes, d.criado_em, d.atualizado_em
		FROM documentos d
		JOIN tipos_documento td ON td.id = d.tipo_documento_id
		WHERE d.id = $1`

	d := &model.Documento{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&d.ID, &d.ProtocoloID, &d.TipoDocumentoID, &d.TipoDocumentoNome,
		&d.Observacoes, &d.CriadoEm, &d.AtualizadoEm,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения документа: %w", err)
	}
	return d, nil
}

func (r *documentoRepo) ListByProtocolo(ctx context.Context, protocoloID string) ([]*model.Documento, error) {
	query := `
		SELECT d.id, d.protocolo_id, d.tipo_documento_id, td.nome,
			d.observacoes, d.criado_em, d.atualizado_em
		FROM documentos d
		JOIN tipos_documento td ON td.id = d.tipo_documento_id
		WHERE d.protocolo_id = $1
		ORDER BY d.criado_em`

	rows, err := r.db.Query(ctx, query, protocoloID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения документов протокола: %w", err)
	}
	defer rows.Close()

	var result []*model.Documento
	for rows.Next() {
		d := &model.Documento{}
		if err := rows.Scan(
			&d.ID, &d.ProtocoloID, &d.TipoDocumentoID, &d.TipoDocumentoNome,
			&d.Observacoes, &d.CriadoEm, &d.AtualizadoEm,
		); err != nil {
			return nil, fmt.Errorf("ошибка сканирования документа: %w", err)
		}
		result = append(result, d)
	}
	return result, rows.Err()
}

func (r *documentoRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM documentos WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("ошибка удаления документа: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
