package browser

import (
	"errors"
	"testing"
)

func TestCheck(t *testing.T) {
	tests := []struct {
		url string
		ok  bool
	}{
		{"https://haven.app/privacy", true},
		{"http://videos.example.com/7", true},
		{"file:///etc/passwd", false},
		{"javascript:alert(1)", false},
		{"haven.app", false},
		{"https://", false},
		{"", false},
	}
	for _, tt := range tests {
		err := Check(tt.url)
		if tt.ok && err != nil {
			t.Errorf("Check(%q) = %v, want nil", tt.url, err)
		}
		if !tt.ok && !errors.Is(err, ErrUnsupportedURL) {
			t.Errorf("Check(%q) = %v, want ErrUnsupportedURL", tt.url, err)
		}
	}
}

func TestOpenRejectsBeforeSpawning(t *testing.T) {
	if err := Open("file:///tmp/x"); !errors.Is(err, ErrUnsupportedURL) {
		t.Errorf("Open(file) = %v, want ErrUnsupportedURL", err)
	}
}

func TestCommand(t *testing.T) {
	for goos, want := range map[string]string{"darwin": "open", "linux": "xdg-open", "windows": "rundll32"} {
		cmd, err := command(goos, "https://haven.app")
		if err != nil {
			t.Fatalf("command(%q): %v", goos, err)
		}
		if cmd.Args[0] != want {
			t.Errorf("command(%q) runs %q, want %q", goos, cmd.Args[0], want)
		}
		if last := cmd.Args[len(cmd.Args)-1]; last != "https://haven.app" {
			t.Errorf("command(%q) link arg = %q", goos, last)
		}
	}
	if _, err := command("plan9", "https://haven.app"); err == nil {
		t.Error("expected an error for an unsupported OS")
	}
}
