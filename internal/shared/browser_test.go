package shared

import (
	"errors"
	"slices"
	"testing"
)

func TestBrowserCommand(t *testing.T) {
	const authorize = "https://accounts.spotify.com/authorize?state=extension"

	tests := []struct {
		name     string
		goos     string
		browser  string
		wantName string
		wantArgs []string
	}{
		{"macOS", "darwin", "", "open", []string{authorize}},
		{"Linux", "linux", "", "xdg-open", []string{authorize}},
		{"Windows", "windows", "", "rundll32", []string{"url.dll,FileProtocolHandler", authorize}},
		{"BROWSER Overrides", "linux", "firefox --new-tab", "firefox", []string{"--new-tab", authorize}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name, args, err := browserCommand(tt.goos, tt.browser, authorize)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if name != tt.wantName || !slices.Equal(args, tt.wantArgs) {
				t.Errorf("got %s %v, want %s %v", name, args, tt.wantName, tt.wantArgs)
			}
		})
	}

	t.Run("Rejects Non-Web URLs", func(t *testing.T) {
		for _, u := range []string{"file:///etc/passwd", "javascript:alert(1)", "not a url", "https://"} {
			if _, _, err := browserCommand("linux", "", u); !errors.Is(err, ErrInvalidArgument) {
				t.Errorf("%q: expected ErrInvalidArgument, got %v", u, err)
			}
		}
	})

	t.Run("Unsupported Platform", func(t *testing.T) {
		if _, _, err := browserCommand("plan9", "", authorize); err == nil {
			t.Error("expected an error")
		}
	})
}
