package model

import "time"

// TipoDocumento — тип документа из каталога, привязан к категории процесса.
// Хранится в таблице tipos_documento, уникален по (categoria, nome).
type TipoDocumento struct {
	// ID — UUID записи
	ID string
	// Categoria — категория процесса (finalistico_pf, finalistico_pj, administrativo)
	Categoria string
	// Nome — название типа документа
	Nome string
	// Ativo — доступен ли тип для выбора
	Ativo bool
	// CriadoEm — время создания записи
	CriadoEm time.Time
	// AtualizadoEm — время последнего обновления
	AtualizadoEm time.Time
}

// Documento — документ, приложенный к протоколу.
// Хранится в таблице documentos, удаляется каскадно вместе с протоколом.
type Documento struct {
	// ID — UUID записи
	ID string
	// ProtocoloID — UUID протокола-владельца
	ProtocoloID string
	// TipoDocumentoID — UUID типа документа из каталога
	TipoDocumentoID string
	// TipoDocumentoNome — название типа (JOIN tipos_documento, только при чтении)
	TipoDocumentoNome string
	// Observacoes — свободный текст о документе
	Observacoes string
	// CriadoEm — время создания записи
	CriadoEm time.Time
	// AtualizadoEm — время последнего обновления
	AtualizadoEm time.Time
}
