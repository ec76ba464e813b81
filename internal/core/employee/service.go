package employee

import (
	"context"
	"math"
	"strings"
)

// Service は社員に関するユースケースをまとめます。
type Service struct {
	repo Repository
}

// UseCase は社員ユースケースの公開インターフェースです。
type UseCase interface {
	CreateEmployee(ctx context.Context, in CreateEmployeeInput) (*Employee, error)
	UpdateEmployee(ctx context.Context, in UpdateEmployeeInput) (*Employee, error)
	GetEmployee(ctx context.Context, in GetEmployeeInput) (*Employee, error)
	ListEmployees(ctx context.Context, in ListEmployeesInput) ([]*Employee, error)
	FindByTelegramID(ctx context.Context, telegramID string) (*Employee, error)
}

// NewService は Service を生成します。
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CreateEmployeeInput は社員作成時の入力です。
type CreateEmployeeInput struct {
	FullName    string
	Position    *string
	BasePremium *float64
	TelegramID  string
}

// UpdateEmployeeInput は社員更新時の入力です。nil のフィールドは変更しません。
type UpdateEmployeeInput struct {
	ID          string
	FullName    *string
	Position    *string
	BasePremium *float64
	IsActive    *bool
	TelegramID  *string
}

// GetEmployeeInput は社員取得時の入力です。
type GetEmployeeInput struct {
	ID string
}

// ListEmployeesInput は一覧取得時の入力です。
type ListEmployeesInput struct {
	ActiveOnly bool
}

// CreateEmployee は新しい社員を作成します。
func (s *Service) CreateEmployee(ctx context.Context, in CreateEmployeeInput) (*Employee, error) {
	fullName, err := normalizeFullName(in.FullName)
	if err != nil {
		return nil, err
	}

	position := DefaultPosition
	if in.Position != nil {
		position = normalizePosition(*in.Position)
	}

	var premium float64
	if in.BasePremium != nil {
		if premium, err = normalizeBasePremium(*in.BasePremium); err != nil {
			return nil, err
		}
	}

	return s.repo.Create(ctx, &Employee{
		FullName:    fullName,
		Position:    position,
		BasePremium: premium,
		IsActive:    true,
		TelegramID:  strings.TrimSpace(in.TelegramID),
	})
}

// UpdateEmployee は社員情報を更新します。
func (s *Service) UpdateEmployee(ctx context.Context, in UpdateEmployeeInput) (*Employee, error) {
	id, err := normalizeID(in.ID)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.FullName != nil {
		name, err := normalizeFullName(*in.FullName)
		if err != nil {
			return nil, err
		}
		existing.FullName = name
	}

	if in.Position != nil {
		existing.Position = normalizePosition(*in.Position)
	}

	if in.BasePremium != nil {
		premium, err := normalizeBasePremium(*in.BasePremium)
		if err != nil {
			return nil, err
		}
		existing.BasePremium = premium
	}

	if in.IsActive != nil {
		existing.IsActive = *in.IsActive
	}

	if in.TelegramID != nil {
		existing.TelegramID = strings.TrimSpace(*in.TelegramID)
	}

	return s.repo.Update(ctx, existing)
}

// GetEmployee は社員を取得します。
func (s *Service) GetEmployee(ctx context.Context, in GetEmployeeInput) (*Employee, error) {
	id, err := normalizeID(in.ID)
	if err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, id)
}

// ListEmployees は社員の一覧をストア順で取得します。
func (s *Service) ListEmployees(ctx context.Context, in ListEmployeesInput) ([]*Employee, error) {
	return s.repo.List(ctx, ListEmployeesFilter{ActiveOnly: in.ActiveOnly})
}

// FindByTelegramID は Telegram のユーザー ID に紐づく社員を取得します。
func (s *Service) FindByTelegramID(ctx context.Context, telegramID string) (*Employee, error) {
	id := strings.TrimSpace(telegramID)
	if id == "" {
		return nil, ErrEmployeeNotFound
	}

	found, err := s.repo.List(ctx, ListEmployeesFilter{TelegramID: id})
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, ErrEmployeeNotFound
	}
	return found[0], nil
}

func normalizeID(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ErrInvalidID
	}
	return trimmed, nil
}

func normalizeFullName(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ErrInvalidFullName
	}
	return trimmed, nil
}

func normalizePosition(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return DefaultPosition
	}
	return trimmed
}

func normalizeBasePremium(v float64) (float64, error) {
	if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, ErrInvalidBasePremium
	}
	return v, nil
}
