// Package browser hands links to the desktop's default browser.
package browser

import (
	"errors"
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
)

// ErrUnsupportedURL is returned for anything that is not an absolute
// http or https link. Content links come from the backend and are never
// passed to the opener unchecked.
var ErrUnsupportedURL = errors.New("browser: only http and https links can be opened")

// Check reports whether raw is a link Open will accept.
func Check(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnsupportedURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrUnsupportedURL, raw)
	}
	return nil
}

// Open opens raw in the user's default browser.
func Open(raw string) error {
	if err := Check(raw); err != nil {
		return err
	}
	cmd, err := command(runtime.GOOS, raw)
	if err != nil {
		return err
	}
	return cmd.Start()
}

func command(goos, link string) (*exec.Cmd, error) {
	switch goos {
	case "darwin":
		return exec.Command("open", link), nil
	case "linux", "freebsd", "openbsd":
		return exec.Command("xdg-open", link), nil
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", link), nil
	}
	return nil, fmt.Errorf("browser: unsupported OS: %s", goos)
}
