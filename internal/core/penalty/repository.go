package penalty

import "context"

// Repository は懲戒永続化の抽象です。
type Repository interface {
	Create(ctx context.Context, penalty *Penalty) (*Penalty, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter ListPenaltiesFilter) ([]*Penalty, error)
}

// ListPenaltiesFilter は一覧取得用フィルタです。
type ListPenaltiesFilter struct {
	EmployeeID string
}
