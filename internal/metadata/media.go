package metadata

import (
	"context"
	"errors"
	"io"

	"fileorg/internal/logging"
	"fileorg/internal/media/probe"
	"fileorg/internal/signature"
)

type videoParser func(io.ReaderAt, int64) (probe.Video, error)

type audioParser func(io.ReaderAt, int64) (probe.Audio, error)

var nativeVideo = map[signature.FileKind]videoParser{
	signature.MP4: probe.MP4Video,
	signature.MOV: probe.MP4Video,
	signature.AVI: probe.AVI,
}

var nativeAudio = map[signature.FileKind]audioParser{
	signature.WAV:  probe.WAV,
	signature.FLAC: probe.FLAC,
	signature.MP3:  probe.MP3,
	signature.M4A:  probe.MP4Audio,
}

func (r *Registry) extractVideo(ctx context.Context, path string, kind signature.FileKind) (Record, error) {
	file, size, err := openForExtraction(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var nativeErr error
	if parse, ok := nativeVideo[kind]; ok {
		v, err := parse(file, size)
		if err == nil && v.Width > 0 && v.Height > 0 {
			return Video{Width: v.Width, Height: v.Height, FPS: roundUint32(v.FPS)}, nil
		}
		nativeErr = err
		if nativeErr == nil {
			nativeErr = errors.New("no video dimensions in header")
		}
	}

	result, err := r.probeExternal(ctx, path)
	if err != nil {
		return r.fallbackAbsent(ctx, kind, nativeErr, err)
	}
	stream, ok := result.FirstVideo()
	if !ok || stream.Width <= 0 || stream.Height <= 0 {
		return r.absent(ctx, kind, errors.New("ffprobe reported no video stream"))
	}
	return Video{
		Width:  uint32(stream.Width),
		Height: uint32(stream.Height),
		FPS:    roundUint32(stream.FrameRate()),
	}, nil
}

func (r *Registry) extractAudio(ctx context.Context, path string, kind signature.FileKind) (Record, error) {
	file, size, err := openForExtraction(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var nativeErr error
	if parse, ok := nativeAudio[kind]; ok {
		a, err := parse(file, size)
		if err == nil {
			return Audio{DurationSeconds: roundUint64(a.Duration), BitrateKbps: roundUint32(a.Bitrate / 1000)}, nil
		}
		nativeErr = err
	}

	result, err := r.probeExternal(ctx, path)
	if err != nil {
		return r.fallbackAbsent(ctx, kind, nativeErr, err)
	}
	if _, ok := result.FirstAudio(); !ok {
		return r.absent(ctx, kind, errors.New("ffprobe reported no audio stream"))
	}
	return Audio{
		DurationSeconds: roundUint64(result.DurationSeconds()),
		BitrateKbps:     roundUint32(float64(result.BitRate()) / 1000),
	}, nil
}

// fallbackAbsent resolves a failed ffprobe fallback. Without ffprobe, only a
// native parser that already rejected the file counts as a parse failure;
// kinds with no native parser simply carry no metadata.
func (r *Registry) fallbackAbsent(ctx context.Context, kind signature.FileKind, nativeErr, probeErr error) (Record, error) {
	if errors.Is(probeErr, errProbeMissing) {
		if nativeErr == nil {
			logging.WithContext(ctx, r.logger).Debug("metadata skipped without ffprobe", logging.String("kind", kind.String()))
			return nil, nil
		}
		return r.absent(ctx, kind, nativeErr)
	}
	return r.absent(ctx, kind, probeErr)
}
