package version

import "testing"

func TestInfoString(t *testing.T) {
	t.Parallel()

	cases := []struct {
		info Info
		want string
	}{
		{Info{Version: "dev"}, "ryzenmon dev"},
		{Info{Version: "v1.0.0", Commit: "abc123"}, "ryzenmon v1.0.0 (abc123)"},
		{Info{Version: "v1.0.0", Commit: "abc123", BuildTime: "2024-01-02", GoVersion: "go1.25.1"}, "ryzenmon v1.0.0 (abc123, built 2024-01-02, go1.25.1)"},
	}
	for _, tc := range cases {
		if got := tc.info.String(); got != tc.want {
			t.Fatalf("String() = %q, want %q", got, tc.want)
		}
	}
}

func TestSetFillsDefaults(t *testing.T) {
	Set(Info{})
	got := Current()
	if got.Version != "dev" {
		t.Fatalf("expected dev version, got %q", got.Version)
	}
	if got.GoVersion == "" {
		t.Fatalf("expected go version to be filled in")
	}
}
