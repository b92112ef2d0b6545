package organizer

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"fileorg/internal/logging"
	"fileorg/internal/preflight"
	"fileorg/internal/services"
)

type scanResult struct {
	files   []string
	folders int
}

// scan lists regular files under job.SourceRoot in WalkDir order. Symlinked
// files are included, symlinked directories are not followed, and a
// destination nested inside the source is skipped. Unreadable directories
// below the root are logged and skipped.
func (r *run) scan(ctx context.Context) (scanResult, error) {
	logger := logging.WithContext(services.WithStage(ctx, "scan"), r.logger)
	root := r.job.SourceRoot
	dirs := make(map[string]struct{})
	var files []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := r.checkCancelled(ctx); err != nil {
			return err
		}
		if walkErr != nil {
			if path == root {
				return services.Wrap(services.ErrValidation, "scan", "read source", fmt.Sprintf("Cannot read %s", root), walkErr)
			}
			r.skipUnreadable(logger, path, walkErr)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path != root && preflight.IsWithin(path, r.job.DestRoot) {
				logger.Debug("skipping destination inside source", logging.String("path", path))
				return fs.SkipDir
			}
			return nil
		}

		mode := d.Type()
		if mode&fs.ModeSymlink != 0 {
			info, err := os.Stat(path)
			if err != nil {
				r.skipUnreadable(logger, path, err)
				return nil
			}
			if !info.Mode().IsRegular() {
				return nil
			}
		} else if !mode.IsRegular() {
			return nil
		}

		files = append(files, path)
		dirs[filepath.Dir(path)] = struct{}{}
		return nil
	})
	return scanResult{files: files, folders: len(dirs)}, err
}

func (r *run) skipUnreadable(logger *slog.Logger, path string, err error) {
	logging.WarnWithContext(logger, "skipping unreadable path", "scan_skip",
		logging.String("path", path),
		logging.Error(err),
		logging.String(logging.FieldImpact, "files below this path are not organized"),
		logging.String(logging.FieldErrorHint, "check permissions on the source tree"),
	)
	r.emitLog(SeverityWarning, fmt.Sprintf("Skipped unreadable %s", path), path)
}
