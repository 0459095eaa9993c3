package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/crea-to/protocolo-module/internal/domain/model"
)

// ProtocoloRepository — интерфейс CRUD для таблицы protocolos.
type ProtocoloRepository interface {
	// Create создаёт новый протокол.
	Create(ctx context.Context, p *model.Protocolo) error
	// GetByID возвращает протокол по UUID.
	GetByID(ctx context.Context, id string) (*model.Protocolo, error)
	// GetByNumero возвращает протокол по человекочитаемому номеру.
	GetByNumero(ctx context.Context, numero string) (*model.Protocolo, error)
	// List возвращает список протоколов с фильтрацией по tipo и unidade_crea
	// и поиском по номеру/CPF-CNPJ.
	List(ctx context.Context, filter ProtocoloFilter, limit, offset int) ([]*model.Protocolo, error)
	// Update обновляет изменяемые поля протокола.
	// data_emissao и protocolo_sitac через Update не меняются.
	Update(ctx context.Context, p *model.Protocolo) error
	// Delete удаляет протокол (documentos удаляются каскадно).
	Delete(ctx context.Context, id string) error
	// Count возвращает количество протоколов с фильтрацией.
	Count(ctx context.Context, filter ProtocoloFilter) (int, error)
	// SetProtocoloSITAC — точечное обновление единственного поля
	// protocolo_sitac после успешной синхронизации. Остальные поля
	// не затрагиваются.
	SetProtocoloSITAC(ctx context.Context, id, protocoloSITAC string) error
}

// ProtocoloFilter — параметры фильтрации списка протоколов.
type ProtocoloFilter struct {
	// Tipo — фильтр по типу процесса (nil — все)
	Tipo *string
	// UnidadeCrea — фильтр по подразделению (nil — все)
	UnidadeCrea *string
	// Query — подстрочный поиск по numero и cpf_cnpj (nil — без поиска)
	Query *string
}

// protocoloRepo — реализация ProtocoloRepository.
type protocoloRepo struct {
	db DBTX
}

// NewProtocoloRepository создаёт репозиторий протоколов.
func NewProtocoloRepository(db DBTX) ProtocoloRepository {
	return &protocoloRepo{db: db}
}

const protocoloColumns = `id, numero, tipo, cpf_cnpj, armario, prateleira, caixa,
	unidade_crea, observacoes, data_emissao, protocolo_sitac, criado_por,
	criado_em, atualizado_em`

func scanProtocolo(row pgx.Row) (*model.Protocolo, error) {
	p := &model.Protocolo{}
	err := row.Scan(
		&p.ID, &p.Numero, &p.Tipo, &p.CPFCNPJ, &p.Armario, &p.Prateleira, &p.Caixa,
		&p.UnidadeCrea, &p.Observacoes, &p.DataEmissao, &p.ProtocoloSITAC, &p.CriadoPor,
		&p.CriadoEm, &p.AtualizadoEm,
	)
	return p, err
}

func (r *protocoloRepo) Create(ctx context.Context, p *model.Protocolo) error {
	query := `
		INSERT INTO protocolos (id, numero, tipo, cpf_cnpj, armario, prateleira,
			caixa, unidade_crea, observacoes, data_emissao, criado_por)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING criado_em, atualizado_em`

	err := r.db.QueryRow(ctx, query,
		p.ID, p.Numero, p.Tipo, p.CPFCNPJ, p.Armario, p.Prateleira,
		p.Caixa, p.UnidadeCrea, p.Observacoes, p.DataEmissao, p.CriadoPor,
	).Scan(&p.CriadoEm, &p.AtualizadoEm)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: номер протокола уже зарегистрирован", ErrConflict)
		}
		return fmt.Errorf("ошибка создания протокола: %w", err)
	}
	return nil
}

func (r *protocoloRepo) GetByID(ctx context.Context, id string) (*model.Protocolo, error) {
	query := fmt.Sprintf(`SELECT %s FROM protocolos WHERE id = $1`, protocoloColumns)

	p, err := scanProtocolo(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения протокола: %w", err)
	}
	return p, nil
}

func (r *protocoloRepo) GetByNumero(ctx context.Context, numero string) (*model.Protocolo, error) {
	query := fmt.Sprintf(`SELECT %s FROM protocolos WHERE numero = $1`, protocoloColumns)

	p, err := scanProtocolo(r.db.QueryRow(ctx, query, numero))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения протокола по номеру: %w", err)
	}
	return p, nil
}

// buildWhere строит WHERE-условия и аргументы из фильтра.
func (f ProtocoloFilter) buildWhere() (string, []any) {
	var conditions []string
	var args []any
	argNum := 1

	if f.Tipo != nil {
		conditions = append(conditions, fmt.Sprintf("tipo = $%d", argNum))
		args = append(args, *f.Tipo)
		argNum++
	}
	if f.UnidadeCrea != nil {
		conditions = append(conditions, fmt.Sprintf("unidade_crea = $%d", argNum))
		args = append(args, *f.UnidadeCrea)
		argNum++
	}
	if f.Query != nil {
		conditions = append(conditions,
			fmt.Sprintf("(numero ILIKE $%d OR cpf_cnpj ILIKE $%d)", argNum, argNum))
		args = append(args, "%"+*f.Query+"%")
		argNum++
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}
	return where, args
}

func (r *protocoloRepo) List(ctx context.Context, filter ProtocoloFilter, limit, offset int) ([]*model.Protocolo, error) {
	where, args := filter.buildWhere()
	argNum := len(args) + 1

	query := fmt.Sprintf(`
		SELECT %s
		FROM protocolos
		%s
		ORDER BY criado_em DESC
		LIMIT $%d OFFSET $%d`, protocoloColumns, where, argNum, argNum+1)

	args = append(args, limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка протоколов: %w", err)
	}
	defer rows.Close()

	var result []*model.Protocolo
	for rows.Next() {
		p, err := scanProtocolo(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования протокола: %w", err)
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

func (r *protocoloRepo) Update(ctx context.Context, p *model.Protocolo) error {
	query := `
		UPDATE protocolos
		SET numero = $2, tipo = $3, cpf_cnpj = $4, armario = $5, prateleira = $6,
			caixa = $7, unidade_crea = $8, observacoes = $9, atualizado_em = NOW()
		WHERE id = $1
		RETURNING atualizado_em`

	err := r.db.QueryRow(ctx, query,
		p.ID, p.Numero, p.Tipo, p.CPFCNPJ, p.Armario, p.Prateleira,
		p.Caixa, p.UnidadeCrea, p.Observacoes,
	).Scan(&p.AtualizadoEm)
	if err != nil {
		if err == pgx.ErrNoRows {
			return ErrNotFound
		}
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: номер протокола уже зарегистрирован", ErrConflict)
		}
		return fmt.Errorf("ошибка обновления протокола: %w", err)
	}
	return nil
}

func (r *protocoloRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM protocolos WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("ошибка удаления протокола: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *protocoloRepo) Count(ctx context.Context, filter ProtocoloFilter) (int, error) {
	where, args := filter.buildWhere()
	query := fmt.Sprintf(`SELECT COUNT(*) FROM protocolos %s`, where)

	var count int
	if err := r.db.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("ошибка подсчёта протоколов: %w", err)
	}
	return count, nil
}

func (r *protocoloRepo) SetProtocoloSITAC(ctx context.Context, id, protocoloSITAC string) error {
	query := `
		UPDATE protocolos
		SET protocolo_sitac = $2, atualizado_em = NOW()
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id, protocoloSITAC)
	if err != nil {
		return fmt.Errorf("ошибка сохранения номера SITAC: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
