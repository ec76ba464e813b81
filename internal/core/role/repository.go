package role

import "context"

// Repository はロールレコード永続化の抽象です。レコードの削除は提供しません。
type Repository interface {
	FindByID(ctx context.Context, callerID string) (*Record, error)
	// CreateIfAbsent はレコードが存在しない場合のみ作成し、作成したかどうかを返します。
	CreateIfAbsent(ctx context.Context, record *Record) (bool, error)
}

// Cache は解決済みロールのキャッシュです。
type Cache interface {
	GetRole(ctx context.Context, callerID string) (Role, bool)
	SetRole(ctx context.Context, callerID string, r Role)
}
