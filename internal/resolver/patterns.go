package resolver

import (
	"regexp"

	"go.uber.org/zap"

	"github.com/eliteGoblin/closurebatch/internal/domain"
)

// PatternSet is an ordered list of compiled exclude patterns.
type PatternSet []*regexp.Regexp

// CompilePatterns compiles raw exclude patterns in order.
// The first invalid pattern aborts with a *domain.PatternError and no partial set.
// A nil list means nothing was configured and every file passes.
func (r *Resolver) CompilePatterns(raw []string) (PatternSet, error) {
	if raw == nil {
		r.logger.Warn("no exclude pattern defined")
		return PatternSet{}, nil
	}

	patterns := make(PatternSet, 0, len(raw))
	for _, p := range raw {
		re, err := regexp.Compile(p)
		if err != nil {
			r.logger.Error("invalid exclude pattern, aborting compilation",
				zap.String("pattern", p),
				zap.Error(err))
			return nil, &domain.PatternError{Pattern: p, Err: err}
		}
		r.logger.Info("excluding", zap.String("pattern", p))
		patterns = append(patterns, re)
	}
	return patterns, nil
}

// IsExcluded reports whether any pattern matches somewhere in path.
// Matching is unanchored; the first match is logged.
func (r *Resolver) IsExcluded(path string, patterns PatternSet) bool {
	for _, re := range patterns {
		if re.MatchString(path) {
			r.logger.Info("ignoring file",
				zap.String("path", path),
				zap.String("pattern", re.String()))
			return true
		}
	}
	return false
}
