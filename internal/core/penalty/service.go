package penalty

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Clock は現在時刻を提供します。
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now().UTC()
}

// Service は懲戒に関するユースケースをまとめます。
type Service struct {
	repo  Repository
	clock Clock
}

// UseCase は懲戒ユースケースの公開インターフェースです。
type UseCase interface {
	CreatePenalty(ctx context.Context, in CreatePenaltyInput) (*Penalty, error)
	DeletePenalty(ctx context.Context, in DeletePenaltyInput) error
	ListPenalties(ctx context.Context, in ListPenaltiesInput) ([]*Penalty, error)
}

// NewService は Service を生成します。
func NewService(repo Repository, clock Clock) *Service {
	if clock == nil {
		clock = realClock{}
	}
	return &Service{repo: repo, clock: clock}
}

// CreatePenaltyInput は懲戒作成時の入力です。
type CreatePenaltyInput struct {
	CatalogEntryID string
	EmployeeID     string
	Comment        string
}

// DeletePenaltyInput は懲戒削除時の入力です。
type DeletePenaltyInput struct {
	ID string
}

// ListPenaltiesInput は一覧取得時の入力です。
type ListPenaltiesInput struct {
	EmployeeID string
}

// CreatePenalty はテンプレートのラベルと重大度を刻印して懲戒を作成します。
func (s *Service) CreatePenalty(ctx context.Context, in CreatePenaltyInput) (*Penalty, error) {
	employeeID := strings.TrimSpace(in.EmployeeID)
	if employeeID == "" {
		return nil, ErrInvalidEmployeeID
	}

	entry, ok := CatalogByID(strings.TrimSpace(in.CatalogEntryID))
	if !ok {
		return nil, ErrUnknownCatalogEntry
	}

	return s.repo.Create(ctx, &Penalty{
		Title:      entry.Label,
		Type:       entry.Severity.Label(),
		Comment:    strings.TrimSpace(in.Comment),
		CreatedAt:  s.clock.Now(),
		EmployeeID: employeeID,
	})
}

// DeletePenalty は懲戒を削除します。既に存在しない場合も成功として扱います。
func (s *Service) DeletePenalty(ctx context.Context, in DeletePenaltyInput) error {
	id := strings.TrimSpace(in.ID)
	if id == "" {
		return ErrInvalidID
	}

	if err := s.repo.Delete(ctx, id); err != nil && !errors.Is(err, ErrPenaltyNotFound) {
		return err
	}
	return nil
}

// ListPenalties は懲戒の一覧をストア順で取得します。
func (s *Service) ListPenalties(ctx context.Context, in ListPenaltiesInput) ([]*Penalty, error) {
	return s.repo.List(ctx, ListPenaltiesFilter{EmployeeID: strings.TrimSpace(in.EmployeeID)})
}
