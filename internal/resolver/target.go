package resolver

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/eliteGoblin/closurebatch/internal/domain"
)

// TargetPath re-roots source from inputDir under outputDir.
// With a non-empty version the file name gets "-<version>" inserted before
// its ext suffix: a/one.js becomes a/one-1.0.0.js. Directory names are
// never rewritten.
// A source that is not inside inputDir yields domain.ErrOutsideInputRoot.
func TargetPath(inputDir, outputDir, source, ext, version string) (string, error) {
	rel, err := filepath.Rel(filepath.Clean(inputDir), filepath.Clean(source))
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s is not under %s", domain.ErrOutsideInputRoot, source, inputDir)
	}

	if version != "" && ext != "" {
		dir, base := filepath.Split(rel)
		if strings.HasSuffix(base, ext) {
			rel = dir + strings.TrimSuffix(base, ext) + "-" + version + ext
		}
	}
	return filepath.Join(outputDir, rel), nil
}
