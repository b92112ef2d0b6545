package probe

import (
	"fmt"
	"io"
)

const maxChunks = 256

type chunk struct {
	id     string
	offset int64 // payload start
	size   int64
}

// walkChunks visits RIFF chunks between start and end. fn returns false to stop.
func walkChunks(r io.ReaderAt, start, end int64, fn func(chunk) (bool, error)) error {
	pos := start
	for i := 0; i < maxChunks && pos+8 <= end; i++ {
		hdr, err := readAt(r, pos, 8)
		if err != nil {
			return err
		}
		c := chunk{id: string(hdr[:4]), offset: pos + 8, size: int64(le.Uint32(hdr[4:8]))}
		if c.offset+c.size > end {
			c.size = end - c.offset
		}
		cont, err := fn(c)
		if err != nil || !cont {
			return err
		}
		pos = c.offset + c.size + c.size%2
	}
	return nil
}

func riffForm(r io.ReaderAt, size int64, form string) (int64, error) {
	hdr, err := readAt(r, 0, 12)
	if err != nil {
		return 0, err
	}
	if string(hdr[:4]) != "RIFF" || string(hdr[8:12]) != form {
		return 0, fmt.Errorf("%w: not a RIFF %q file", ErrMalformed, form)
	}
	end := int64(le.Uint32(hdr[4:8])) + 8
	if end > size {
		end = size
	}
	return end, nil
}

// WAV reads duration and bitrate from the fmt and data chunks.
func WAV(r io.ReaderAt, size int64) (Audio, error) {
	end, err := riffForm(r, size, "WAVE")
	if err != nil {
		return Audio{}, err
	}

	var byteRate uint32
	var dataSize int64 = -1
	err = walkChunks(r, 12, end, func(c chunk) (bool, error) {
		switch c.id {
		case "fmt ":
			if c.size < 16 {
				return false, fmt.Errorf("%w: fmt chunk too small", ErrMalformed)
			}
			fmtChunk, err := readAt(r, c.offset, 16)
			if err != nil {
				return false, err
			}
			byteRate = le.Uint32(fmtChunk[8:12])
		case "data":
			dataSize = c.size
		}
		return byteRate == 0 || dataSize < 0, nil
	})
	if err != nil {
		return Audio{}, err
	}
	if byteRate == 0 || dataSize < 0 {
		return Audio{}, fmt.Errorf("%w: missing fmt or data chunk", ErrMalformed)
	}
	return Audio{
		Duration: float64(dataSize) / float64(byteRate),
		Bitrate:  float64(byteRate) * 8,
	}, nil
}

// AVI reads frame size and rate from the main avih header.
func AVI(r io.ReaderAt, size int64) (Video, error) {
	end, err := riffForm(r, size, "AVI ")
	if err != nil {
		return Video{}, err
	}

	var video Video
	found := false
	err = walkChunks(r, 12, end, func(c chunk) (bool, error) {
		if c.id != "LIST" || c.size < 4 {
			return true, nil
		}
		listType, err := readAt(r, c.offset, 4)
		if err != nil {
			return false, err
		}
		if string(listType) != "hdrl" {
			return true, nil
		}
		err = walkChunks(r, c.offset+4, c.offset+c.size, func(sub chunk) (bool, error) {
			if sub.id != "avih" {
				return true, nil
			}
			if sub.size < 40 {
				return false, fmt.Errorf("%w: avih too small", ErrMalformed)
			}
			avih, err := readAt(r, sub.offset, 40)
			if err != nil {
				return false, err
			}
			usPerFrame := le.Uint32(avih[0:4])
			video.Width = le.Uint32(avih[32:36])
			video.Height = le.Uint32(avih[36:40])
			if usPerFrame > 0 {
				video.FPS = 1e6 / float64(usPerFrame)
			}
			found = true
			return false, nil
		})
		return false, err
	})
	if err != nil {
		return Video{}, err
	}
	if !found {
		return Video{}, fmt.Errorf("%w: avih header", ErrNoStream)
	}
	return video, nil
}
