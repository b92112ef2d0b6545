package probe

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

var (
	// ErrMalformed reports a header that does not parse as the expected format.
	ErrMalformed = errors.New("malformed header")
	// ErrNoStream reports a well-formed container without the requested stream.
	ErrNoStream = errors.New("no matching stream")
)

// Video describes the primary video track.
type Video struct {
	Width  uint32
	Height uint32
	FPS    float64
}

// Audio describes an audio stream. Duration is in seconds and Bitrate in
// bits per second.
type Audio struct {
	Duration float64
	Bitrate  float64
}

// Image describes still image dimensions.
type Image struct {
	Width  uint32
	Height uint32
}

func readAt(r io.ReaderAt, off int64, n int) ([]byte, error) {
	buf := make([]byte, n)
	read, err := r.ReadAt(buf, off)
	if read == n {
		return buf, nil
	}
	if err == nil || errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: short read at %d", ErrMalformed, off)
	}
	return nil, err
}

var (
	be = binary.BigEndian
	le = binary.LittleEndian
)
