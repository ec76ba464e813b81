package identity

import (
	"errors"
	"testing"
)

func TestResolve_Priority(t *testing.T) {
	t.Parallel()

	launch := Encode("launch")
	query := Encode("query")
	fragment := Encode("fragment")

	cases := []struct {
		name string
		in   Sources
		want string
	}{
		{
			name: "launch param wins",
			in: Sources{
				LaunchParam: launch,
				Location:    "https://app.local/?startapp=" + query + "#tgWebAppStartParam=" + fragment,
			},
			want: "launch",
		},
		{
			name: "query before fragment",
			in:   Sources{Location: "https://app.local/?startapp=" + query + "#tgWebAppStartParam=" + fragment},
			want: "query",
		},
		{
			name: "host query key",
			in:   Sources{Location: "https://app.local/?tgWebAppStartParam=" + query},
			want: "query",
		},
		{
			name: "fragment only",
			in:   Sources{Location: "https://app.local/#tgWebAppData=abc&tgWebAppStartParam=" + fragment},
			want: "fragment",
		},
		{
			name: "fragment with route prefix",
			in:   Sources{Location: "https://app.local/#/board?tgWebAppStartParam=" + fragment},
			want: "fragment",
		},
		{
			name: "blank launch param falls through",
			in:   Sources{LaunchParam: "  ", Location: "https://app.local/?startapp=" + query},
			want: "query",
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := Resolve(tc.in)
			if err != nil {
				t.Fatalf("Resolve returned error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("want %q got %q", tc.want, got)
			}
		})
	}
}

func TestResolve_NoToken(t *testing.T) {
	t.Parallel()

	for _, in := range []Sources{
		{},
		{Location: "https://app.local/"},
		{Location: "https://app.local/?startapp=#tgWebAppStartParam="},
		{Location: "::not a url"},
	} {
		if _, err := Resolve(in); !errors.Is(err, ErrNoToken) {
			t.Fatalf("Resolve(%+v): expected ErrNoToken, got %v", in, err)
		}
	}
}

func TestResolve_InvalidTokenIsDistinct(t *testing.T) {
	t.Parallel()

	_, err := Resolve(Sources{LaunchParam: "%%%"})
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
	if errors.Is(err, ErrNoToken) {
		t.Fatalf("invalid token must not be reported as missing")
	}
}

func TestResolve_PlusSignSurvivesQueryDecoding(t *testing.T) {
	t.Parallel()

	raw := "??>>~~"
	token := Encode(raw) // 標準アルファベットの '+' を含む
	got, err := Resolve(Sources{Location: "https://app.local/?startapp=" + token})
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if got != raw {
		t.Fatalf("want %q got %q", raw, got)
	}
}

func TestResolve_TrimsLaunchParam(t *testing.T) {
	t.Parallel()

	got, err := Resolve(Sources{LaunchParam: "  " + Encode("-100200300") + "  "})
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if got != "-100200300" {
		t.Fatalf("want %q got %q", "-100200300", got)
	}
}
