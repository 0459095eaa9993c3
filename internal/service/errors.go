// errors.go — ошибки бизнес-логики сервисного слоя.
package service

import "errors"

var (
	// ErrNotFound — ресурс не найден.
	ErrNotFound = errors.New("ресурс не найден")
	// ErrConflict — конфликт (дублирующийся ресурс).
	ErrConflict = errors.New("конфликт — ресурс уже существует")
	// ErrInvalidRole — некорректная роль.
	ErrInvalidRole = errors.New("некорректная роль: допустимые значения — viewer, editor, publisher, admin")
	// ErrValidation — ошибка валидации входных данных.
	ErrValidation = errors.New("ошибка валидации")
	// ErrSITACNaoConfigurado — credentials SITAC не заданы.
	ErrSITACNaoConfigurado = errors.New("интеграция с SITAC не сконфигурирована")
	// ErrNaoFinalistico — операция применима только к финалистическим протоколам.
	ErrNaoFinalistico = errors.New("административные протоколы не отправляются в SITAC")
)
