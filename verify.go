package docfold

import (
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// verifyArtifact validates the written PDF's structure and reads its page
// count. Catches truncated or corrupt output before it reaches the user.
func verifyArtifact(path string) (Artifact, error) {
	if err := api.ValidateFile(path, nil); err != nil {
		return Artifact{}, fmt.Errorf("validating %s: %w", path, err)
	}
	pages, err := api.PageCountFile(path)
	if err != nil {
		return Artifact{}, fmt.Errorf("counting pages in %s: %w", path, err)
	}
	return Artifact{Path: path, Pages: pages}, nil
}
