package identity

import (
	"errors"
	"net/url"
	"strings"
)

// StartParamKey はボットが発行する URL のクエリキーです。
const StartParamKey = "startapp"

// hostStartParamKey はホスト側が URL に付与する起動パラメータのキーです。
const hostStartParamKey = "tgWebAppStartParam"

// ErrNoToken はどのソースにもトークンが存在しない場合に返却されます。
// 不正なトークン (ErrInvalidToken) とは別の状態として扱います。
var ErrNoToken = errors.New("identity: no token")

// Sources はトークンの取得元です。
type Sources struct {
	// LaunchParam はホスト統合が直接渡す起動パラメータです。
	LaunchParam string
	// Location は現在のページ URL です。クエリとフラグメントの両方を参照します。
	Location string
}

// Candidate は優先順位に従って最初に見つかった空でないトークンを返します。
func (s Sources) Candidate() (string, bool) {
	if v := strings.TrimSpace(s.LaunchParam); v != "" {
		return v, true
	}

	loc, err := url.Parse(strings.TrimSpace(s.Location))
	if err != nil || loc == nil {
		return "", false
	}

	if v := firstValue(loc.Query(), StartParamKey, hostStartParamKey); v != "" {
		return v, true
	}

	fragment := loc.Fragment
	if idx := strings.Index(fragment, "?"); idx >= 0 {
		fragment = fragment[idx+1:]
	}
	// ParseQuery はエラー時も解析できた値を返すため、それを利用する。
	values, _ := url.ParseQuery(fragment)
	if v := firstValue(values, hostStartParamKey, StartParamKey); v != "" {
		return v, true
	}

	return "", false
}

// Resolve はソースからトークンを選び、グループ識別子へ復号します。
func Resolve(s Sources) (string, error) {
	token, ok := s.Candidate()
	if !ok {
		return "", ErrNoToken
	}
	return Decode(token)
}

func firstValue(values url.Values, keys ...string) string {
	for _, key := range keys {
		if v := strings.TrimSpace(values.Get(key)); v != "" {
			return v
		}
	}
	return ""
}
