package model

import "time"

// RoleOverride — локальное повышение роли пользователя.
// Хранится в таблице role_overrides; результат workflow одобрения:
// новый сотрудник получает viewer из IdP, администратор локально
// повышает роль до editor/publisher/admin.
type RoleOverride struct {
	// ID — UUID записи
	ID string
	// UserID — идентификатор пользователя в IdP (sub из JWT)
	UserID string
	// Username — кэшированное имя пользователя
	Username string
	// AdditionalRole — дополнительная роль (viewer, editor, publisher, admin)
	AdditionalRole string
	// CreatedBy — кто одобрил повышение (username администратора)
	CreatedBy string
	// CriadoEm — время создания записи
	CriadoEm time.Time
	// AtualizadoEm — время последнего обновления
	AtualizadoEm time.Time
}
