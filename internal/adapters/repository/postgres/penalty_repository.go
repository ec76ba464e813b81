package postgres

import (
	"context"

	"github.com/google/uuid"

	"github.com/ogurasousui/taskvault/internal/core/penalty"
	pgdb "github.com/ogurasousui/taskvault/internal/platform/db/postgres"
)

// PenaltyRepository は PostgreSQL を利用した懲戒永続化の実装です。
type PenaltyRepository struct {
	docs collection
}

// NewPenaltyRepository は PenaltyRepository を生成します。
func NewPenaltyRepository(pool pgdb.Queryer, opts ...Option) *PenaltyRepository {
	return &PenaltyRepository{docs: newCollection(penalty.Collection, pool, opts)}
}

// Create は懲戒を新規作成します。
func (r *PenaltyRepository) Create(ctx context.Context, p *penalty.Penalty) (*penalty.Penalty, error) {
	employeeID := flexString(p.EmployeeID)
	createdAt := p.CreatedAt.UTC()

	doc, err := r.docs.insert(ctx, uuid.NewString(), p.CreatedAt, penaltyDocument{
		Title:      ptr(p.Title),
		Type:       ptr(p.Type),
		Comment:    ptr(p.Comment),
		CreatedAt:  &createdAt,
		EmployeeID: &employeeID,
	})
	if err != nil {
		return nil, translatePgError(err, penalty.ErrPenaltyNotFound)
	}
	return fromPenaltyDocument(doc)
}

// Delete は懲戒を削除します。
func (r *PenaltyRepository) Delete(ctx context.Context, id string) error {
	deleted, err := r.docs.remove(ctx, id)
	if err != nil {
		return translatePgError(err, penalty.ErrPenaltyNotFound)
	}
	if !deleted {
		return penalty.ErrPenaltyNotFound
	}
	return nil
}

// List は懲戒の一覧を作成順で取得します。
func (r *PenaltyRepository) List(ctx context.Context, filter penalty.ListPenaltiesFilter) ([]*penalty.Penalty, error) {
	var w where
	if filter.EmployeeID != "" {
		w.fieldEquals("employeeId", filter.EmployeeID)
	}

	docs, err := r.docs.list(ctx, w)
	if err != nil {
		return nil, translatePgError(err, penalty.ErrPenaltyNotFound)
	}

	return decodeList(r.docs, docs, fromPenaltyDocument), nil
}

func fromPenaltyDocument(doc document) (*penalty.Penalty, error) {
	var d penaltyDocument
	if err := decodeDocument(penalty.Collection, doc, &d); err != nil {
		return nil, err
	}

	createdAt := doc.CreatedAt
	if d.CreatedAt != nil {
		createdAt = *d.CreatedAt
	}

	return &penalty.Penalty{
		ID:         doc.ID,
		Title:      stringOr(d.Title, ""),
		Type:       stringOr(d.Type, ""),
		Comment:    stringOr(d.Comment, ""),
		CreatedAt:  createdAt,
		EmployeeID: flexStringOr(d.EmployeeID, ""),
	}, nil
}
