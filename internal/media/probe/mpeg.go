package probe

import (
	"fmt"
	"io"
)

const mpegScanLimit = 64 << 10

var mpegBitrates = [5][16]int{
	{0, 32, 64, 96, 128, 160, 192, 224, 256, 288, 320, 352, 384, 416, 448, -1}, // MPEG-1 layer I
	{0, 32, 48, 56, 64, 80, 96, 112, 128, 160, 192, 224, 256, 320, 384, -1},    // MPEG-1 layer II
	{0, 32, 40, 48, 56, 64, 80, 96, 112, 128, 160, 192, 224, 256, 320, -1},     // MPEG-1 layer III
	{0, 32, 48, 56, 64, 80, 96, 112, 128, 144, 160, 176, 192, 224, 256, -1},    // MPEG-2 layer I
	{0, 8, 16, 24, 32, 40, 48, 56, 64, 80, 96, 112, 128, 144, 160, -1},         // MPEG-2 layers II and III
}

var mpegSampleRates = map[int][3]int{
	3: {44100, 48000, 32000}, // MPEG-1
	2: {22050, 24000, 16000}, // MPEG-2
	0: {11025, 12000, 8000},  // MPEG-2.5
}

type mpegFrame struct {
	version    int // 3 = MPEG-1, 2 = MPEG-2, 0 = MPEG-2.5
	layer      int // 1, 2, 3
	bitrate    int // kbps
	sampleRate int
	mono       bool
}

func parseMPEGHeader(h []byte) (mpegFrame, bool) {
	if len(h) < 4 || h[0] != 0xFF || h[1]&0xE0 != 0xE0 {
		return mpegFrame{}, false
	}
	version := int(h[1]>>3) & 0x03
	layerBits := int(h[1]>>1) & 0x03
	if version == 1 || layerBits == 0 {
		return mpegFrame{}, false
	}
	layer := 4 - layerBits
	rates, ok := mpegSampleRates[version]
	srIndex := int(h[2]>>2) & 0x03
	if !ok || srIndex == 3 {
		return mpegFrame{}, false
	}
	var table int
	switch {
	case version == 3:
		table = layer - 1
	case layer == 1:
		table = 3
	default:
		table = 4
	}
	bitrate := mpegBitrates[table][h[2]>>4]
	if bitrate <= 0 {
		return mpegFrame{}, false
	}
	return mpegFrame{
		version:    version,
		layer:      layer,
		bitrate:    bitrate,
		sampleRate: rates[srIndex],
		mono:       h[3]>>6 == 3,
	}, true
}

func (f mpegFrame) samplesPerFrame() int {
	switch {
	case f.layer == 1:
		return 384
	case f.layer == 3 && f.version != 3:
		return 576
	default:
		return 1152
	}
}

// sideInfoSize is the distance from the end of the 4-byte frame header to a
// Xing or Info tag.
func (f mpegFrame) sideInfoSize() int {
	switch {
	case f.version == 3 && f.mono:
		return 17
	case f.version == 3:
		return 32
	case f.mono:
		return 9
	default:
		return 17
	}
}

func id3v2Size(r io.ReaderAt) int64 {
	hdr, err := readAt(r, 0, 10)
	if err != nil || string(hdr[:3]) != "ID3" {
		return 0
	}
	size := int64(hdr[6]&0x7F)<<21 | int64(hdr[7]&0x7F)<<14 | int64(hdr[8]&0x7F)<<7 | int64(hdr[9]&0x7F)
	size += 10
	if hdr[5]&0x10 != 0 {
		size += 10
	}
	return size
}

// MP3 locates the first MPEG audio frame after any ID3v2 tag. A Xing, Info
// or VBRI tag yields exact duration for VBR files; otherwise the stream is
// treated as constant bitrate.
func MP3(r io.ReaderAt, size int64) (Audio, error) {
	start := id3v2Size(r)
	if start >= size {
		return Audio{}, fmt.Errorf("%w: no audio after ID3 tag", ErrMalformed)
	}
	audioEnd := size
	if size >= 128 {
		if tag, err := readAt(r, size-128, 3); err == nil && string(tag) == "TAG" {
			audioEnd -= 128
		}
	}

	scan := int64(mpegScanLimit)
	if start+scan > size {
		scan = size - start
	}
	window, err := readAt(r, start, int(scan))
	if err != nil {
		return Audio{}, err
	}

	for i := 0; i+4 <= len(window); i++ {
		frame, ok := parseMPEGHeader(window[i:])
		if !ok {
			continue
		}
		frameStart := start + int64(i)
		audioBytes := audioEnd - frameStart
		if audio, ok := vbrInfo(r, frameStart, frame, audioBytes); ok {
			return audio, nil
		}
		bitrate := float64(frame.bitrate) * 1000
		return Audio{
			Duration: float64(audioBytes) * 8 / bitrate,
			Bitrate:  bitrate,
		}, nil
	}
	return Audio{}, fmt.Errorf("%w: no MPEG frame sync", ErrMalformed)
}

func vbrInfo(r io.ReaderAt, frameStart int64, frame mpegFrame, audioBytes int64) (Audio, bool) {
	var frames, bytes uint32

	xingAt := frameStart + 4 + int64(frame.sideInfoSize())
	if tag, err := readAt(r, xingAt, 16); err == nil && (string(tag[:4]) == "Xing" || string(tag[:4]) == "Info") {
		flags := be.Uint32(tag[4:8])
		next := 8
		if flags&0x1 != 0 {
			frames = be.Uint32(tag[next : next+4])
			next += 4
		}
		if flags&0x2 != 0 {
			bytes = be.Uint32(tag[next : next+4])
		}
	} else if tag, err := readAt(r, frameStart+36, 18); err == nil && string(tag[:4]) == "VBRI" {
		bytes = be.Uint32(tag[10:14])
		frames = be.Uint32(tag[14:18])
	}
	if frames == 0 {
		return Audio{}, false
	}

	duration := float64(frames) * float64(frame.samplesPerFrame()) / float64(frame.sampleRate)
	if bytes == 0 {
		bytes = uint32(min(audioBytes, int64(^uint32(0))))
	}
	return Audio{Duration: duration, Bitrate: float64(bytes) * 8 / duration}, true
}
