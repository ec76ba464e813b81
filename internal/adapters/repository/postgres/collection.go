package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/ogurasousui/taskvault/internal/core/apperr"
	pgdb "github.com/ogurasousui/taskvault/internal/platform/db/postgres"
)

// document は JSONB で保存された 1 件のドキュメントです。
type document struct {
	ID        string
	Data      []byte
	CreatedAt time.Time
}

// collection は id / data / created_at の 3 列を持つテーブルを
// ドキュメントコレクションとして扱います。
type collection struct {
	table  string
	pool   pgdb.Queryer
	logger *zap.Logger
}

// Option はリポジトリの任意設定です。
type Option func(*collection)

// WithLogger は読み飛ばしたドキュメントの記録先を設定します。
func WithLogger(l *zap.Logger) Option {
	return func(c *collection) {
		if l != nil {
			c.logger = l
		}
	}
}

func newCollection(table string, pool pgdb.Queryer, opts []Option) collection {
	c := collection{table: table, pool: pool, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// decodeList は一覧の各ドキュメントを変換します。
// 壊れたドキュメントは警告を記録して読み飛ばし、残りの一覧を返します。
func decodeList[T any](c collection, docs []document, decode func(document) (*T, error)) []*T {
	out := make([]*T, 0, len(docs))
	for _, doc := range docs {
		item, err := decode(doc)
		if err != nil {
			c.logger.Warn("skipping malformed document",
				zap.String("collection", c.table),
				zap.String("id", doc.ID),
				zap.Error(err),
			)
			continue
		}
		out = append(out, item)
	}
	return out
}

// where は一覧取得の条件を組み立てます。
type where struct {
	conds []string
	args  []any
}

func (w *where) placeholder(v any) string {
	w.args = append(w.args, v)
	return "$" + strconv.Itoa(len(w.args))
}

// fieldEquals は data の文字列フィールドが value と一致する条件を追加します。
func (w *where) fieldEquals(field, value string) {
	w.conds = append(w.conds, "data ->> '"+field+"' = "+w.placeholder(value))
}

func (w *where) createdFrom(t time.Time) {
	w.conds = append(w.conds, "created_at >= "+w.placeholder(t))
}

func (w *where) createdBefore(t time.Time) {
	w.conds = append(w.conds, "created_at < "+w.placeholder(t))
}

func (w *where) raw(cond string) {
	w.conds = append(w.conds, cond)
}

func (w *where) clause() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

func (c collection) insert(ctx context.Context, id string, createdAt time.Time, data any) (document, error) {
	body, err := json.Marshal(data)
	if err != nil {
		return document{}, fmt.Errorf("postgres: encode %s: %w", c.table, err)
	}

	exec := pgdb.QueryerFromContext(ctx, c.pool)
	row := exec.QueryRow(ctx, `
        INSERT INTO `+c.table+` (id, data, created_at)
        VALUES ($1, $2::jsonb, COALESCE($3::timestamptz, now()))
        RETURNING id, data, created_at
    `, id, body, nullableTime(createdAt))

	return scanDocument(row)
}

// insertIfAbsent は id が未登録の場合のみ挿入し、挿入したかどうかを返します。
func (c collection) insertIfAbsent(ctx context.Context, id string, createdAt time.Time, data any) (bool, error) {
	body, err := json.Marshal(data)
	if err != nil {
		return false, fmt.Errorf("postgres: encode %s: %w", c.table, err)
	}

	exec := pgdb.QueryerFromContext(ctx, c.pool)
	tag, err := exec.Exec(ctx, `
        INSERT INTO `+c.table+` (id, data, created_at)
        VALUES ($1, $2::jsonb, COALESCE($3::timestamptz, now()))
        ON CONFLICT (id) DO NOTHING
    `, id, body, nullableTime(createdAt))
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// patch は data に fields を上書きマージします。指定しなかったフィールドは保持されます。
func (c collection) patch(ctx context.Context, id string, fields any) (document, error) {
	body, err := json.Marshal(fields)
	if err != nil {
		return document{}, fmt.Errorf("postgres: encode %s: %w", c.table, err)
	}

	exec := pgdb.QueryerFromContext(ctx, c.pool)
	row := exec.QueryRow(ctx, `
        UPDATE `+c.table+`
           SET data = data || $2::jsonb
         WHERE id = $1
        RETURNING id, data, created_at
    `, id, body)

	return scanDocument(row)
}

// remove は id のドキュメントを削除し、削除したかどうかを返します。
func (c collection) remove(ctx context.Context, id string) (bool, error) {
	exec := pgdb.QueryerFromContext(ctx, c.pool)
	tag, err := exec.Exec(ctx, `DELETE FROM `+c.table+` WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (c collection) get(ctx context.Context, id string) (document, error) {
	exec := pgdb.QueryerFromContext(ctx, c.pool)
	row := exec.QueryRow(ctx, `
        SELECT id, data, created_at
          FROM `+c.table+`
         WHERE id = $1
         LIMIT 1
    `, id)
	return scanDocument(row)
}

// list は条件に一致するドキュメントを作成順で返します。
func (c collection) list(ctx context.Context, w where) ([]document, error) {
	query := `
        SELECT id, data, created_at
          FROM ` + c.table + w.clause() + `
         ORDER BY created_at, id
    `

	exec := pgdb.QueryerFromContext(ctx, c.pool)
	rows, err := exec.Query(ctx, query, w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return docs, nil
}

func scanDocument(row pgx.Row) (document, error) {
	var doc document
	if err := row.Scan(&doc.ID, &doc.Data, &doc.CreatedAt); err != nil {
		return document{}, err
	}
	return doc, nil
}

// translatePgError はドライバのエラーをアプリケーションのエラー分類へ変換します。
func translatePgError(err, notFound error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return notFound
	}
	if errors.Is(err, apperr.ErrDecode) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return fmt.Errorf("%w: postgres %s: %s", apperr.ErrStoreUnavailable, pgErr.Code, pgErr.Message)
	}
	return fmt.Errorf("%w: %v", apperr.ErrStoreUnavailable, err)
}

func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC()
}
