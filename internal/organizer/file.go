package organizer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"fileorg/internal/fileutil"
	"fileorg/internal/logging"
	"fileorg/internal/metadata"
	"fileorg/internal/naming"
	"fileorg/internal/services"
	"fileorg/internal/signature"
)

type outcome struct {
	class  signature.Result
	record metadata.Record
	target string
	size   int64
	err    error
}

// handle organizes one file and folds the outcome into the run counters.
func (r *run) handle(ctx context.Context, path string) {
	ctx = services.WithFile(services.WithStage(ctx, "organize"), path)
	out := r.organizeFile(ctx, path)

	logger := logging.WithContext(ctx, r.logger)
	var entry Entry
	if out.err != nil {
		logging.WarnWithContext(logger, "file not organized", "file_failed",
			logging.String("kind", out.class.Kind.String()),
			logging.Error(out.err),
			logging.String(logging.FieldImpact, "file left in source"),
			logging.String(logging.FieldErrorHint, "check destination space and permissions"),
		)
		entry = Entry{Severity: SeverityError, Message: fmt.Sprintf("Failed %s: %v", filepath.Base(path), out.err), Path: path}
	} else {
		rel := out.target
		if relPath, err := filepath.Rel(r.job.DestRoot, out.target); err == nil {
			rel = relPath
		}
		logger.Info("file organized",
			logging.String("kind", out.class.Kind.String()),
			logging.String("method", string(out.class.Method)),
			logging.String("target", out.target),
		)
		entry = Entry{Severity: SeveritySuccess, Message: fmt.Sprintf("%s -> %s", filepath.Base(path), rel), Path: path}
	}
	r.record(ctx, path, out)

	r.mu.Lock()
	defer r.mu.Unlock()
	if out.err != nil {
		r.stats.Failed++
		r.failures = append(r.failures, Failure{Path: path, Message: out.err.Error()})
	} else {
		r.stats.Succeeded++
		r.stats.PerCategory[out.class.Category]++
	}
	entry.Time = timeNow()
	r.sink.Log(entry)
	// The last file is reported by the terminal snapshot from finish.
	if processed := r.stats.Processed(); processed < r.stats.Scanned && r.sampler.ShouldEmit(processed, r.stats.Scanned) {
		r.sink.Progress(r.snapshotLocked(path, out.class.Category))
	}
}

// organizeFile runs classify, extract, resolve, and transfer for path.
func (r *run) organizeFile(ctx context.Context, path string) outcome {
	logger := logging.WithContext(ctx, r.logger)
	if rel, err := filepath.Rel(r.job.SourceRoot, filepath.Dir(path)); err == nil && rel != "." {
		logger.Debug("processing nested file", logging.String("subfolder", rel))
	}

	var out outcome
	out.class = r.matcher.Classify(path)

	if r.job.EnrichFilenames {
		extracted, err := r.registry.Inspect(ctx, path, out.class)
		if err != nil {
			out.err = err
			return out
		}
		if extracted.Failed {
			r.emitLog(SeverityWarning, fmt.Sprintf("No metadata for %s", filepath.Base(path)), path)
		}
		out.record = extracted.Record
	}

	stem, ext := naming.SplitName(filepath.Base(path))
	if r.cfg.Organize.RestoreMissingExtension {
		ext = naming.RestoreExtension(ext, out.class.Kind)
	}
	name := naming.Decorate(stem, out.record) + ext

	dir, err := naming.TargetDir(r.job.DestRoot, out.class.Category, r.job.ByCategory)
	if err != nil {
		out.err = err
		return out
	}
	res, err := r.resolver.Reserve(dir, name)
	if err != nil {
		out.err = err
		return out
	}

	size, err := r.transfer(ctx, path, res)
	if err != nil {
		if abandonErr := res.Abandon(); abandonErr != nil {
			logger.Warn("failed to remove placeholder", logging.String("path", res.Path), logging.Error(abandonErr))
		}
		out.err = err
		return out
	}
	out.target = res.Path
	out.size = size
	return out
}

// preserveAttributes is swapped in tests to simulate filesystems that reject
// chmod or chtimes.
var preserveAttributes = fileutil.PreserveAttributes

// transfer fills the reservation from src by copy or move. Attributes are
// carried over where the destination allows it; a refusal only warns.
func (r *run) transfer(ctx context.Context, src string, res *naming.Reservation) (int64, error) {
	verify := r.cfg.Organize.VerifyCopies
	linfo, err := os.Lstat(src)
	if err != nil {
		return 0, services.Wrap(services.ErrTransfer, "transfer", "stat source", "Source disappeared", err)
	}
	info := linfo
	if linfo.Mode()&fs.ModeSymlink != 0 {
		if info, err = os.Stat(src); err != nil {
			return 0, services.Wrap(services.ErrTransfer, "transfer", "stat source", "Cannot resolve symlink", err)
		}
	}

	if r.job.Move && linfo.Mode()&fs.ModeSymlink == 0 {
		if err := fileutil.MoveInto(src, res.Path, res.File, verify); err != nil {
			return 0, services.Wrap(services.ErrTransfer, "transfer", "move file", filepath.Base(src), err)
		}
		if err := res.Commit(); err != nil {
			return 0, err
		}
		return info.Size(), nil
	}

	written, err := fileutil.CopyInto(src, res.File, verify)
	if err != nil {
		return written, services.Wrap(services.ErrTransfer, "transfer", "copy file", filepath.Base(src), err)
	}
	if err := res.Commit(); err != nil {
		return written, err
	}
	if err := preserveAttributes(res.Path, src, info); err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, r.logger), "attributes not preserved", "attributes_not_preserved",
			logging.String("target", res.Path),
			logging.Error(err),
			logging.String(logging.FieldImpact, "copy keeps default permissions and timestamps"),
			logging.String(logging.FieldErrorHint, "destination filesystem may not support chmod or chtimes"),
		)
		r.emitLog(SeverityWarning, fmt.Sprintf("Timestamps not preserved for %s", filepath.Base(src)), src)
	}
	if r.job.Move {
		if err := os.Remove(src); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return written, services.Wrap(services.ErrTransfer, "transfer", "remove source", filepath.Base(src), err)
		}
	}
	return written, nil
}
