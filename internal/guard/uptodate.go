package guard

import (
	"go.uber.org/zap"

	"github.com/eliteGoblin/closurebatch/internal/domain"
)

// UpToDate decides whether a request needs the compiler at all.
// When in doubt it says yes.
type UpToDate struct {
	fs     domain.FileSystemManager
	stamps domain.StampStore
	logger *zap.Logger
}

// NewUpToDate creates a checker. A nil store disables skipping.
func NewUpToDate(fs domain.FileSystemManager, stamps domain.StampStore, logger *zap.Logger) *UpToDate {
	return &UpToDate{fs: fs, stamps: stamps, logger: logger}
}

// ShouldRun is false only when the target exists, is not older than the
// source, and was built from the same source content at the same level.
func (u *UpToDate) ShouldRun(req domain.CompilationRequest) bool {
	if u.stamps == nil {
		return true
	}

	targetTime, err := u.fs.ModTime(req.Target)
	if err != nil {
		return true
	}
	sourceTime, err := u.fs.ModTime(req.Source)
	if err != nil || targetTime.Before(sourceTime) {
		return true
	}

	stamp, err := u.stamps.Get(req.Target)
	if err != nil {
		u.logger.Warn("failed to read stamp", zap.String("target", req.Target), zap.Error(err))
		return true
	}
	if stamp == nil || stamp.Source != req.Source || stamp.Level != req.Level {
		return true
	}

	digest, err := u.fs.Digest(req.Source)
	if err != nil {
		return true
	}
	return digest != stamp.SourceDigest
}

// Record stores the parameters req was just compiled with.
func (u *UpToDate) Record(req domain.CompilationRequest) error {
	if u.stamps == nil {
		return nil
	}
	digest, err := u.fs.Digest(req.Source)
	if err != nil {
		return err
	}
	return u.stamps.Put(domain.Stamp{
		Target:       req.Target,
		Source:       req.Source,
		SourceDigest: digest,
		Level:        req.Level,
	})
}

// Forget drops the stamp of a target that failed to build.
func (u *UpToDate) Forget(req domain.CompilationRequest) error {
	if u.stamps == nil {
		return nil
	}
	return u.stamps.Delete(req.Target)
}
