package probe

import (
	"fmt"
	"io"
)

// FLAC reads STREAMINFO and derives the average bitrate from the size of the
// audio frames that follow the metadata blocks.
func FLAC(r io.ReaderAt, size int64) (Audio, error) {
	magic, err := readAt(r, 0, 4)
	if err != nil {
		return Audio{}, err
	}
	if string(magic) != "fLaC" {
		return Audio{}, fmt.Errorf("%w: missing fLaC marker", ErrMalformed)
	}

	var sampleRate, totalSamples uint64
	pos := int64(4)
	for i := 0; i < maxChunks; i++ {
		hdr, err := readAt(r, pos, 4)
		if err != nil {
			return Audio{}, err
		}
		last := hdr[0]&0x80 != 0
		blockType := hdr[0] & 0x7F
		length := int64(hdr[1])<<16 | int64(hdr[2])<<8 | int64(hdr[3])
		if blockType == 0 {
			if length < 34 {
				return Audio{}, fmt.Errorf("%w: short STREAMINFO", ErrMalformed)
			}
			info, err := readAt(r, pos+4, 18)
			if err != nil {
				return Audio{}, err
			}
			sampleRate = uint64(info[10])<<12 | uint64(info[11])<<4 | uint64(info[12])>>4
			totalSamples = uint64(info[13]&0x0F)<<32 | uint64(be.Uint32(info[14:18]))
		}
		pos += 4 + length
		if last {
			break
		}
	}
	if sampleRate == 0 {
		return Audio{}, fmt.Errorf("%w: STREAMINFO sample rate", ErrMalformed)
	}

	audio := Audio{Duration: float64(totalSamples) / float64(sampleRate)}
	if audio.Duration > 0 && size > pos {
		audio.Bitrate = float64(size-pos) * 8 / audio.Duration
	}
	return audio, nil
}
