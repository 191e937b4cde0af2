// Package browser opens URLs and local files with the system default
// application.
package browser

import (
	"fmt"
	"net/url"
	"os/exec"
	"path/filepath"
	"runtime"
)

// commandFor returns the launcher command line for a platform. Unsupported
// platforms get an empty slice.
func commandFor(goos, target string) []string {
	switch goos {
	case "darwin":
		return []string{"open", target}
	case "windows":
		return []string{"rundll32", "url.dll,FileProtocolHandler", target}
	case "linux":
		return []string{"xdg-open", target}
	default:
		return nil
	}
}

// Open launches the default handler for target (an http(s) or file URL).
// It does not wait for the handler to exit.
func Open(target string) error {
	argv := commandFor(runtime.GOOS, target)
	if len(argv) == 0 {
		return fmt.Errorf("opening a browser is not supported on %s", runtime.GOOS)
	}
	cmd := exec.Command(argv[0], argv[1:]...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("launch %s: %w", argv[0], err)
	}
	// The handler keeps running after we return; reap it in the background
	// so it never becomes a zombie.
	go func() { _ = cmd.Wait() }()
	return nil
}

// FileURL converts a local path into a file:// URL, absolutizing it first.
func FileURL(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", path, err)
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
	return u.String(), nil
}

// OpenFile opens a local file with the system default application.
func OpenFile(path string) error {
	u, err := FileURL(path)
	if err != nil {
		return err
	}
	return Open(u)
}
