// Package browser hands URLs (terms, privacy, password reset, support) off
// to the desktop's default browser.
package browser

import (
	"fmt"
	"os/exec"
	"runtime"
)

// Open launches url in the default browser. The opener is started and not
// waited on, so the terminal stays with the CLI.
func Open(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		return fmt.Errorf("no browser opener for %s", runtime.GOOS)
	}
	return cmd.Start()
}
