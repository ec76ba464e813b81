package identity

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/ogurasousui/taskvault/internal/core/apperr"
)

var (
	// ErrEmptyToken は空のトークンが渡された場合に返却されます。
	ErrEmptyToken = fmt.Errorf("identity: empty token: %w", apperr.ErrDecode)
	// ErrInvalidToken は base64 として復号できない、または復号結果が UTF-8 でないトークンの場合に返却されます。
	ErrInvalidToken = fmt.Errorf("identity: invalid token: %w", apperr.ErrDecode)
)

// Encode はグループ識別子をディープリンク用のトークンへ変換します。
// startapp パラメータでは '=' が使えないためパディングを除去します。
func Encode(rawID string) string {
	return strings.ReplaceAll(base64.StdEncoding.EncodeToString([]byte(rawID)), "=", "")
}

// Decode はトークンをグループ識別子へ復元します。
// URL セーフな文字は標準アルファベットへ戻し、パディングを補ってから復号します。
func Decode(token string) (string, error) {
	normalized := strings.TrimSpace(token)
	if normalized == "" {
		return "", ErrEmptyToken
	}

	// クエリ文字列として復号された場合 '+' は空白になっているため戻す。
	normalized = strings.NewReplacer(" ", "+", "-", "+", "_", "/").Replace(normalized)
	normalized = strings.TrimRight(normalized, "=")
	if normalized == "" {
		return "", ErrInvalidToken
	}
	if rem := len(normalized) % 4; rem != 0 {
		normalized += strings.Repeat("=", 4-rem)
	}

	decoded, err := base64.StdEncoding.DecodeString(normalized)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !utf8.Valid(decoded) {
		return "", fmt.Errorf("%w: not utf-8", ErrInvalidToken)
	}
	return string(decoded), nil
}

// DeepLink はボットが提示する Mini App の URL を組み立てます。
func DeepLink(baseURL, rawID string) string {
	base := strings.TrimSpace(baseURL)
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "https://" + base
	}

	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + StartParamKey + "=" + url.QueryEscape(Encode(rawID))
}
