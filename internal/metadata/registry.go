package metadata

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"sync"
	"time"

	"fileorg/internal/logging"
	"fileorg/internal/media/ffprobe"
	"fileorg/internal/services"
	"fileorg/internal/signature"
)

// Extractor produces a Record for one file. A nil Record with a nil error
// means the kind carries no metadata; errUnparsed means a parser ran and
// rejected the file.
type Extractor func(ctx context.Context, path string, kind signature.FileKind) (Record, error)

// errUnparsed marks a recognised file whose metadata could not be read. It
// never leaves the package.
var errUnparsed = errors.New("metadata unparsed")

// Outcome is the result of one extraction. Failed is set only when a parser
// was attempted and rejected the file.
type Outcome struct {
	Record Record
	Failed bool
}

// inspectMedia is swapped in tests to avoid depending on a real ffprobe.
var inspectMedia = ffprobe.Inspect

// Options configures a Registry.
type Options struct {
	FFprobeBinary string
	ProbeTimeout  time.Duration
	Logger        *slog.Logger
}

// Registry is a fixed dispatch table keyed by category. Archives,
// Executables and Other have no extractor.
type Registry struct {
	extractors   map[signature.Category]Extractor
	ffprobe      string
	probeTimeout time.Duration
	logger       *slog.Logger
	missingProbe sync.Once
}

// NewRegistry builds the registry with the built-in extractors.
func NewRegistry(opts Options) *Registry {
	r := &Registry{
		ffprobe:      opts.FFprobeBinary,
		probeTimeout: opts.ProbeTimeout,
		logger:       logging.NewComponentLogger(opts.Logger, "metadata"),
	}
	if r.probeTimeout <= 0 {
		r.probeTimeout = 30 * time.Second
	}
	r.extractors = map[signature.Category]Extractor{
		signature.Images:    r.extractImage,
		signature.Documents: r.extractDocument,
		signature.Videos:    r.extractVideo,
		signature.Audio:     r.extractAudio,
	}
	return r
}

// Extract dispatches to the extractor for result's category and returns
// (nil, nil) when none is registered or the metadata is absent.
func (r *Registry) Extract(ctx context.Context, path string, result signature.Result) (Record, error) {
	out, err := r.Inspect(ctx, path, result)
	return out.Record, err
}

// Inspect is Extract that also reports whether a parse was attempted and
// failed, so callers can tell corrupt files from kinds without metadata.
func (r *Registry) Inspect(ctx context.Context, path string, result signature.Result) (Outcome, error) {
	extract, ok := r.extractors[result.Category]
	if !ok {
		return Outcome{}, nil
	}
	rec, err := extract(ctx, path, result.Kind)
	if errors.Is(err, errUnparsed) {
		return Outcome{Failed: true}, nil
	}
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Record: rec}, nil
}

// Has reports whether category has an extractor.
func (r *Registry) Has(category signature.Category) bool {
	_, ok := r.extractors[category]
	return ok
}

func openForExtraction(path string) (*os.File, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, 0, services.Wrap(services.ErrExtraction, "extract", "open file", "Cannot open file for metadata", err)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, 0, services.Wrap(services.ErrExtraction, "extract", "stat file", "Cannot stat file for metadata", err)
	}
	return file, info.Size(), nil
}

// absent logs why metadata could not be read and reports it as unparsed.
func (r *Registry) absent(ctx context.Context, kind signature.FileKind, reason error) (Record, error) {
	logging.WarnWithContext(logging.WithContext(ctx, r.logger), "metadata unavailable", "metadata_absent",
		logging.String("kind", kind.String()),
		logging.Error(reason),
		logging.String(logging.FieldImpact, "file organized without metadata token"),
		logging.String(logging.FieldErrorHint, "file may be corrupted, encrypted, or truncated"),
	)
	return nil, errUnparsed
}

// probeExternal runs ffprobe. A missing binary is reported once at warn
// level and then reported as errProbeMissing so callers can fall back.
func (r *Registry) probeExternal(ctx context.Context, path string) (ffprobe.Result, error) {
	probeCtx, cancel := context.WithTimeout(ctx, r.probeTimeout)
	defer cancel()

	result, err := inspectMedia(probeCtx, r.ffprobe, path)
	if err == nil {
		return result, nil
	}
	if errors.Is(err, ffprobe.ErrNotInstalled) {
		r.missingProbe.Do(func() {
			logging.WarnWithContext(r.logger, "ffprobe not found; media metadata limited to native parsers", "ffprobe_missing",
				logging.String("binary", r.ffprobe),
				logging.String(logging.FieldImpact, "some video and audio files get no metadata token"),
				logging.String(logging.FieldErrorHint, "install ffmpeg or set media.ffprobe_binary"),
			)
		})
		return ffprobe.Result{}, errProbeMissing
	}
	return ffprobe.Result{}, fmt.Errorf("ffprobe: %w", err)
}

var errProbeMissing = errors.New("ffprobe not installed")

func roundUint32(v float64) uint32 {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	if v >= math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(math.Round(v))
}

func roundUint64(v float64) uint64 {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	return uint64(math.Round(v))
}
