package probe

import (
	"fmt"
	"io"
)

const maxBoxDepth = 8

type box struct {
	typ    string
	offset int64 // payload start
	size   int64 // payload size
}

// walkBoxes visits ISO-BMFF boxes between start and end. fn returns false to stop.
func walkBoxes(r io.ReaderAt, start, end int64, fn func(box) (bool, error)) error {
	pos := start
	for i := 0; i < 4096 && pos+8 <= end; i++ {
		hdr, err := readAt(r, pos, 8)
		if err != nil {
			return err
		}
		size := int64(be.Uint32(hdr[:4]))
		header := int64(8)
		switch size {
		case 0:
			size = end - pos
		case 1:
			large, err := readAt(r, pos+8, 8)
			if err != nil {
				return err
			}
			size = int64(be.Uint64(large))
			header = 16
		}
		if size < header {
			return fmt.Errorf("%w: box %q size %d", ErrMalformed, hdr[4:8], size)
		}
		if pos+size > end {
			size = end - pos
		}
		cont, err := fn(box{typ: string(hdr[4:8]), offset: pos + header, size: size - header})
		if err != nil || !cont {
			return err
		}
		pos += size
	}
	return nil
}

type track struct {
	handler     string
	width       uint32
	height      uint32
	timescale   uint32
	duration    uint64
	sampleCount uint32
}

type movie struct {
	tracks    []track
	mdatBytes int64
	hasFtyp   bool
}

func parseMovie(r io.ReaderAt, size int64) (movie, error) {
	var m movie
	err := walkBoxes(r, 0, size, func(b box) (bool, error) {
		switch b.typ {
		case "ftyp":
			m.hasFtyp = true
		case "mdat":
			m.mdatBytes += b.size
		case "moov":
			err := walkBoxes(r, b.offset, b.offset+b.size, func(child box) (bool, error) {
				if child.typ != "trak" {
					return true, nil
				}
				t, err := parseTrack(r, child, 1)
				if err != nil {
					return false, err
				}
				m.tracks = append(m.tracks, t)
				return true, nil
			})
			if err != nil {
				return false, err
			}
		}
		return true, nil
	})
	if err != nil {
		return movie{}, err
	}
	if len(m.tracks) == 0 {
		return movie{}, fmt.Errorf("%w: no moov tracks", ErrNoStream)
	}
	return m, nil
}

func parseTrack(r io.ReaderAt, b box, depth int) (track, error) {
	var t track
	var visit func(b box, depth int) error
	visit = func(b box, depth int) error {
		if depth > maxBoxDepth {
			return fmt.Errorf("%w: boxes nested too deeply", ErrMalformed)
		}
		return walkBoxes(r, b.offset, b.offset+b.size, func(child box) (bool, error) {
			var err error
			switch child.typ {
			case "mdia", "minf", "stbl":
				err = visit(child, depth+1)
			case "tkhd":
				err = t.readTkhd(r, child)
			case "mdhd":
				err = t.readMdhd(r, child)
			case "hdlr":
				var hdr []byte
				if hdr, err = readAt(r, child.offset+8, 4); err == nil {
					t.handler = string(hdr)
				}
			case "stsz":
				var hdr []byte
				if hdr, err = readAt(r, child.offset+8, 4); err == nil {
					t.sampleCount = be.Uint32(hdr)
				}
			}
			return err == nil, err
		})
	}
	return t, visit(b, depth)
}

func (t *track) readTkhd(r io.ReaderAt, b box) error {
	version, err := readAt(r, b.offset, 1)
	if err != nil {
		return err
	}
	// width and height are the final two 16.16 fixed-point fields
	dimsAt := b.offset + 76
	if version[0] == 1 {
		dimsAt = b.offset + 88
	}
	dims, err := readAt(r, dimsAt, 8)
	if err != nil {
		return err
	}
	t.width = be.Uint32(dims[0:4]) >> 16
	t.height = be.Uint32(dims[4:8]) >> 16
	return nil
}

func (t *track) readMdhd(r io.ReaderAt, b box) error {
	version, err := readAt(r, b.offset, 1)
	if err != nil {
		return err
	}
	if version[0] == 1 {
		fields, err := readAt(r, b.offset+20, 12)
		if err != nil {
			return err
		}
		t.timescale = be.Uint32(fields[0:4])
		t.duration = be.Uint64(fields[4:12])
		return nil
	}
	fields, err := readAt(r, b.offset+12, 8)
	if err != nil {
		return err
	}
	t.timescale = be.Uint32(fields[0:4])
	t.duration = uint64(be.Uint32(fields[4:8]))
	return nil
}

func (t track) seconds() float64 {
	if t.timescale == 0 {
		return 0
	}
	return float64(t.duration) / float64(t.timescale)
}

func (m movie) first(handler string) (track, bool) {
	for _, t := range m.tracks {
		if t.handler == handler {
			return t, true
		}
	}
	return track{}, false
}

// MP4Video reads the first video track of an MP4 or QuickTime file.
func MP4Video(r io.ReaderAt, size int64) (Video, error) {
	m, err := parseMovie(r, size)
	if err != nil {
		return Video{}, err
	}
	t, ok := m.first("vide")
	if !ok {
		return Video{}, fmt.Errorf("%w: video track", ErrNoStream)
	}
	video := Video{Width: t.width, Height: t.height}
	if secs := t.seconds(); secs > 0 {
		video.FPS = float64(t.sampleCount) / secs
	}
	return video, nil
}

// MP4Audio reads the first sound track of an MP4/M4A file. The bitrate is the
// media data size over the track duration.
func MP4Audio(r io.ReaderAt, size int64) (Audio, error) {
	m, err := parseMovie(r, size)
	if err != nil {
		return Audio{}, err
	}
	t, ok := m.first("soun")
	if !ok {
		return Audio{}, fmt.Errorf("%w: sound track", ErrNoStream)
	}
	audio := Audio{Duration: t.seconds()}
	if audio.Duration > 0 {
		audio.Bitrate = float64(m.mdatBytes) * 8 / audio.Duration
	}
	return audio, nil
}

// HEIC returns the largest image spatial extent (ispe) declared in the item
// property container, which is the primary image rather than a thumbnail.
func HEIC(r io.ReaderAt, size int64) (Image, error) {
	var img Image
	err := walkBoxes(r, 0, size, func(b box) (bool, error) {
		if b.typ != "meta" {
			return true, nil
		}
		// meta is a full box: skip version and flags
		err := walkBoxes(r, b.offset+4, b.offset+b.size, func(child box) (bool, error) {
			if child.typ != "iprp" {
				return true, nil
			}
			return false, walkBoxes(r, child.offset, child.offset+child.size, func(ipco box) (bool, error) {
				if ipco.typ != "ipco" {
					return true, nil
				}
				return false, walkBoxes(r, ipco.offset, ipco.offset+ipco.size, func(prop box) (bool, error) {
					if prop.typ != "ispe" {
						return true, nil
					}
					dims, err := readAt(r, prop.offset+4, 8)
					if err != nil {
						return false, err
					}
					w, h := be.Uint32(dims[0:4]), be.Uint32(dims[4:8])
					if uint64(w)*uint64(h) > uint64(img.Width)*uint64(img.Height) {
						img = Image{Width: w, Height: h}
					}
					return true, nil
				})
			})
		})
		return false, err
	})
	if err != nil {
		return Image{}, err
	}
	if img.Width == 0 && img.Height == 0 {
		return Image{}, fmt.Errorf("%w: ispe property", ErrNoStream)
	}
	return img, nil
}
