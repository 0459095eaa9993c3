package model

import "time"

// Причины пропуска синхронизации с SITAC.
const (
	// SkipAdministrativo — административные протоколы не синхронизируются.
	SkipAdministrativo = "administrativo"
	// SkipSemCredenciais — не заданы SITAC username/password.
	SkipSemCredenciais = "credenciais_nao_configuradas"
)

// SyncResult — итог одной попытки синхронизации протокола с SITAC.
// Возвращается оркестратором вызывающему коду; тот может залогировать
// или проигнорировать результат — создание протокола от него не зависит.
type SyncResult struct {
	// ProtocoloID — UUID локального протокола
	ProtocoloID string
	// Submitted — была ли выполнена попытка отправки в SITAC
	Submitted bool
	// Skipped — причина пропуска (пусто, если отправка выполнялась)
	Skipped string
	// Success — получен ли успешный ответ SITAC
	Success bool
	// ProtocoloSITAC — номер, присвоенный SITAC (пусто при неуспехе
	// или при ответе без поля protocolo)
	ProtocoloSITAC string
	// StartedAt — начало попытки
	StartedAt time.Time
	// CompletedAt — окончание попытки
	CompletedAt time.Time
}
