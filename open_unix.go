//go:build !windows

package docfold

import (
	"os/exec"
	"runtime"
)

// openFile opens a file with the platform's default handler.
func openFile(path string) error {
	cmd := "xdg-open"
	if runtime.GOOS == "darwin" {
		cmd = "open"
	}
	return exec.Command(cmd, path).Start()
}
