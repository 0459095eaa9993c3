// role_overrides.go — бизнес-логика локальных повышений ролей.
// Override хранится в БД модуля и только повышает роль, вычисленную
// из групп IdP; понижение через override невозможно.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/crea-to/protocolo-module/internal/domain/model"
	"github.com/crea-to/protocolo-module/internal/domain/rbac"
	"github.com/crea-to/protocolo-module/internal/repository"
)

// RoleOverrideService — сервис управления role overrides.
type RoleOverrideService struct {
	repo   repository.RoleOverrideRepository
	logger *slog.Logger
}

// NewRoleOverrideService создаёт сервис role overrides.
func NewRoleOverrideService(repo repository.RoleOverrideRepository, logger *slog.Logger) *RoleOverrideService {
	return &RoleOverrideService{
		repo:   repo,
		logger: logger.With(slog.String("component", "role_override_service")),
	}
}

// RoleOverrideInput — входные данные установки override.
type RoleOverrideInput struct {
	UserID         string
	Username       string
	AdditionalRole string
	CreatedBy      string
}

// Set создаёт или обновляет override для пользователя.
func (s *RoleOverrideService) Set(ctx context.Context, input RoleOverrideInput) (*model.RoleOverride, error) {
	if input.UserID == "" {
		return nil, fmt.Errorf("%w: user_id обязателен", ErrValidation)
	}
	if !rbac.IsValidRole(input.AdditionalRole) {
		return nil, ErrInvalidRole
	}

	ro := &model.RoleOverride{
		UserID:         input.UserID,
		Username:       input.Username,
		AdditionalRole: input.AdditionalRole,
		CreatedBy:      input.CreatedBy,
	}
	if err := s.repo.Upsert(ctx, ro); err != nil {
		return nil, err
	}

	s.logger.Info("Role override установлен",
		slog.String("user_id", ro.UserID),
		slog.String("additional_role", ro.AdditionalRole),
		slog.String("created_by", ro.CreatedBy),
	)
	return ro, nil
}

// Get возвращает override пользователя.
func (s *RoleOverrideService) Get(ctx context.Context, userID string) (*model.RoleOverride, error) {
	ro, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return ro, nil
}

// List возвращает страницу overrides и общее количество.
func (s *RoleOverrideService) List(ctx context.Context, limit, offset int) ([]*model.RoleOverride, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	list, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	count, err := s.repo.Count(ctx)
	if err != nil {
		return nil, 0, err
	}
	return list, count, nil
}

// Delete удаляет override пользователя.
func (s *RoleOverrideService) Delete(ctx context.Context, userID string) error {
	if err := s.repo.Delete(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	s.logger.Info("Role override удалён", slog.String("user_id", userID))
	return nil
}
