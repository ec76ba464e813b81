package postgres

import (
	"context"
	"strings"

	"github.com/ogurasousui/taskvault/internal/core/role"
	pgdb "github.com/ogurasousui/taskvault/internal/platform/db/postgres"
)

// RoleRepository は users コレクションにロールレコードを保存します。
// ドキュメント ID は呼び出し元 ID です。
type RoleRepository struct {
	docs collection
}

// NewRoleRepository は RoleRepository を生成します。
func NewRoleRepository(pool pgdb.Queryer, opts ...Option) *RoleRepository {
	return &RoleRepository{docs: newCollection(role.Collection, pool, opts)}
}

// FindByID は呼び出し元 ID でロールレコードを取得します。
// 保存されたロールはそのまま返し、検証は呼び出し側で行います。
func (r *RoleRepository) FindByID(ctx context.Context, callerID string) (*role.Record, error) {
	doc, err := r.docs.get(ctx, callerID)
	if err != nil {
		return nil, translatePgError(err, role.ErrRecordNotFound)
	}

	var d roleDocument
	if err := decodeDocument(role.Collection, doc, &d); err != nil {
		return nil, err
	}

	rec := &role.Record{
		CallerID: doc.ID,
		Role:     role.Role(strings.ToUpper(strings.TrimSpace(stringOr(d.Role, "")))),
	}
	if d.LastSeen != nil {
		rec.LastSeen = *d.LastSeen
	}
	return rec, nil
}

// CreateIfAbsent はレコードが無い場合のみ作成します。同時に作成された場合は先着が残ります。
func (r *RoleRepository) CreateIfAbsent(ctx context.Context, rec *role.Record) (bool, error) {
	d := roleDocument{Role: ptr(string(rec.Role))}
	if !rec.LastSeen.IsZero() {
		lastSeen := rec.LastSeen.UTC()
		d.LastSeen = &lastSeen
	}

	created, err := r.docs.insertIfAbsent(ctx, rec.CallerID, rec.LastSeen, d)
	if err != nil {
		return false, translatePgError(err, role.ErrRecordNotFound)
	}
	return created, nil
}
