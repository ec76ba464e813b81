// Package apperr はアプリケーション全体で共有するエラー分類を定義します。
// 各ドメインパッケージのセンチネルエラーはここで定義した分類をラップし、
// アダプタ層は errors.Is で分類ごとの扱いを決定します。
package apperr

import "errors"

var (
	// ErrValidation は必須入力の欠落や不正値を表します。操作は実行されません。
	ErrValidation = errors.New("validation error")
	// ErrNotFound は対象ドキュメントが存在しないことを表します。
	ErrNotFound = errors.New("not found")
	// ErrDecode はディープリンクトークンの復号失敗を表します。
	ErrDecode = errors.New("decode error")
	// ErrStoreUnavailable はストアへの到達失敗を表します。自動リトライは行いません。
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrRoleResolution はロール解決の失敗を表します。呼び出し側へは伝播しません。
	ErrRoleResolution = errors.New("role resolution error")
	// ErrForbidden は現在のロールで許可されていない操作を表します。
	ErrForbidden = errors.New("forbidden")
)

