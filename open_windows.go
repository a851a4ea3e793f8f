//go:build windows

package docfold

import "os/exec"

// openFile opens a file with the platform's default handler.
func openFile(path string) error {
	return exec.Command("cmd", "/c", "start", "", path).Start()
}
