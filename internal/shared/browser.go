package shared

import (
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// OpenBrowser starts the user's browser on an http(s) URL without waiting for it.
//
// $BROWSER wins over the platform opener when set.
func OpenBrowser(rawURL string) error {
	name, args, err := browserCommand(runtime.GOOS, os.Getenv("BROWSER"), rawURL)
	if err != nil {
		return err
	}

	if err := exec.Command(name, args...).Start(); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}
	return nil
}

func browserCommand(goos, browser, rawURL string) (string, []string, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", nil, fmt.Errorf("%w: not a web URL: %q", ErrInvalidArgument, rawURL)
	}

	if fields := strings.Fields(browser); len(fields) > 0 {
		return fields[0], append(fields[1:], rawURL), nil
	}

	switch goos {
	case "darwin":
		return "open", []string{rawURL}, nil
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", rawURL}, nil
	case "linux", "freebsd", "openbsd", "netbsd":
		return "xdg-open", []string{rawURL}, nil
	default:
		return "", nil, fmt.Errorf("unsupported platform: %s", goos)
	}
}
