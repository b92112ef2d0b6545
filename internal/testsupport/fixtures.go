package testsupport

import (
	"archive/zip"
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Put writes data to path, creating parent directories.
func Put(t testing.TB, path string, data []byte) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func solid(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	fill := color.RGBA{R: 0x30, G: 0x80, B: 0xC0, A: 0xFF}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, fill)
		}
	}
	return img
}

// PNG encodes a solid w x h PNG.
func PNG(t testing.TB, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, solid(w, h)); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

// JPEG encodes a solid w x h baseline JPEG.
func JPEG(t testing.TB, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, solid(w, h), &jpeg.Options{Quality: 50}); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}
	return buf.Bytes()
}

// JPEGExifOnly returns a JPEG whose frame header is missing but whose EXIF
// block records PixelXDimension and PixelYDimension.
func JPEGExifOnly(w, h uint32) []byte {
	le := binary.LittleEndian
	entry := func(b []byte, tag uint16, value uint32) []byte {
		b = le.AppendUint16(b, tag)
		b = le.AppendUint16(b, 4) // LONG
		b = le.AppendUint32(b, 1)
		return le.AppendUint32(b, value)
	}

	tiff := []byte("II*\x00")
	tiff = le.AppendUint32(tiff, 8)
	tiff = le.AppendUint16(tiff, 1)
	tiff = entry(tiff, 0x8769, 26) // Exif IFD pointer
	tiff = le.AppendUint32(tiff, 0)
	tiff = le.AppendUint16(tiff, 2)
	tiff = entry(tiff, 0xA002, w)
	tiff = entry(tiff, 0xA003, h)
	tiff = le.AppendUint32(tiff, 0)

	payload := append([]byte("Exif\x00\x00"), tiff...)
	out := []byte{0xFF, 0xD8, 0xFF, 0xE1}
	out = binary.BigEndian.AppendUint16(out, uint16(len(payload)+2))
	out = append(out, payload...)
	return append(out, 0xFF, 0xD9)
}

// PDF returns a minimal well-formed PDF with the given number of pages.
func PDF(pages int) []byte {
	var buf bytes.Buffer
	var offsets []int
	obj := func(body string) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", len(offsets), body)
	}

	buf.WriteString("%PDF-1.4\n")
	obj("<< /Type /Catalog /Pages 2 0 R >>")
	kids := make([]string, pages)
	for i := range kids {
		kids[i] = fmt.Sprintf("%d 0 R", i+3)
	}
	obj(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), pages))
	for i := 0; i < pages; i++ {
		obj("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << >> >>")
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(offsets)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xref)
	return buf.Bytes()
}

// CorruptPDF returns bytes with a valid PDF signature and nothing parseable.
func CorruptPDF() []byte {
	return []byte("%PDF-1.7\n\x00\x01garbage without objects or trailer\n")
}

type zipEntry struct {
	name string
	body string
}

func buildZip(t testing.TB, entries []zipEntry) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		w, err := zw.CreateHeader(&zip.FileHeader{Name: e.name, Method: zip.Store})
		if err != nil {
			t.Fatalf("zip create %s: %v", e.name, err)
		}
		if _, err := w.Write([]byte(e.body)); err != nil {
			t.Fatalf("zip write %s: %v", e.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}

const contentTypes = `<?xml version="1.0" encoding="UTF-8"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"></Types>`

// DOCX returns a Word package whose body holds n paragraphs.
func DOCX(t testing.TB, paragraphs int) []byte {
	return DOCXWithTable(t, paragraphs, 0, 0)
}

// DOCXWithTable returns a word package whose body holds the given paragraphs
// followed by a rows x cols table with one paragraph per cell.
func DOCXWithTable(t testing.TB, paragraphs, rows, cols int) []byte {
	var body strings.Builder
	body.WriteString(`<?xml version="1.0" encoding="UTF-8"?><w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)
	for i := 0; i < paragraphs; i++ {
		fmt.Fprintf(&body, `<w:p><w:pPr><w:jc w:val="left"/></w:pPr><w:r><w:t>Paragraph %d</w:t></w:r></w:p>`, i+1)
	}
	if rows > 0 && cols > 0 {
		body.WriteString(`<w:tbl><w:tblPr/>`)
		for r := 0; r < rows; r++ {
			body.WriteString(`<w:tr>`)
			for c := 0; c < cols; c++ {
				fmt.Fprintf(&body, `<w:tc><w:tcPr/><w:p><w:r><w:t>Cell %d.%d</w:t></w:r></w:p></w:tc>`, r+1, c+1)
			}
			body.WriteString(`</w:tr>`)
		}
		body.WriteString(`</w:tbl>`)
	}
	body.WriteString(`<w:sectPr/></w:body></w:document>`)
	return buildZip(t, []zipEntry{
		{"[Content_Types].xml", contentTypes},
		{"_rels/.rels", "<Relationships/>"},
		{"word/document.xml", body.String()},
	})
}

// PPTX returns a presentation package with n slides.
func PPTX(t testing.TB, slides int) []byte {
	entries := []zipEntry{
		{"[Content_Types].xml", contentTypes},
		{"ppt/presentation.xml", "<p:presentation/>"},
	}
	for i := 1; i <= slides; i++ {
		entries = append(entries,
			zipEntry{fmt.Sprintf("ppt/slides/slide%d.xml", i), "<p:sld/>"},
			zipEntry{fmt.Sprintf("ppt/slides/_rels/slide%d.xml.rels", i), "<Relationships/>"},
		)
	}
	return buildZip(t, entries)
}

// Zip returns a plain archive holding a single text file.
func Zip(t testing.TB) []byte {
	return buildZip(t, []zipEntry{{"notes/readme.txt", "archived\n"}})
}

// WAV returns 8-bit mono PCM of the given length.
func WAV(seconds, sampleRate int) []byte {
	data := seconds * sampleRate
	le := binary.LittleEndian
	var buf bytes.Buffer
	buf.WriteString("RIFF")
	binary.Write(&buf, le, uint32(36+data))
	buf.WriteString("WAVEfmt ")
	binary.Write(&buf, le, uint32(16))
	binary.Write(&buf, le, uint16(1))
	binary.Write(&buf, le, uint16(1))
	binary.Write(&buf, le, uint32(sampleRate))
	binary.Write(&buf, le, uint32(sampleRate))
	binary.Write(&buf, le, uint16(1))
	binary.Write(&buf, le, uint16(8))
	buf.WriteString("data")
	binary.Write(&buf, le, uint32(data))
	buf.Write(make([]byte, data))
	return buf.Bytes()
}

// AVI returns a RIFF AVI header describing a w x h stream at fps.
func AVI(w, h uint32, fps int) []byte {
	le := binary.LittleEndian
	avih := make([]byte, 56)
	le.PutUint32(avih[0:4], uint32(1_000_000/fps))
	le.PutUint32(avih[16:20], 10)
	le.PutUint32(avih[24:28], 1)
	le.PutUint32(avih[32:36], w)
	le.PutUint32(avih[36:40], h)

	var hdrl bytes.Buffer
	hdrl.WriteString("hdrl")
	hdrl.WriteString("avih")
	binary.Write(&hdrl, le, uint32(len(avih)))
	hdrl.Write(avih)

	var body bytes.Buffer
	body.WriteString("AVI ")
	body.WriteString("LIST")
	binary.Write(&body, le, uint32(hdrl.Len()))
	body.Write(hdrl.Bytes())
	body.WriteString("LIST")
	binary.Write(&body, le, uint32(4))
	body.WriteString("movi")

	var buf bytes.Buffer
	buf.WriteString("RIFF")
	binary.Write(&buf, le, uint32(body.Len()))
	buf.Write(body.Bytes())
	return buf.Bytes()
}

// FLAC returns a STREAMINFO-only stream followed by audioBytes of frame data.
func FLAC(sampleRate uint32, totalSamples uint64, audioBytes int) []byte {
	info := make([]byte, 34)
	channels, bps := uint32(2), uint32(16)
	info[10] = byte(sampleRate >> 12)
	info[11] = byte(sampleRate >> 4)
	info[12] = byte(sampleRate&0x0F)<<4 | byte(channels-1)<<1 | byte((bps-1)>>4)
	info[13] = byte((bps-1)&0x0F)<<4 | byte(totalSamples>>32)&0x0F
	binary.BigEndian.PutUint32(info[14:18], uint32(totalSamples))

	var buf bytes.Buffer
	buf.WriteString("fLaC")
	buf.Write([]byte{0x80, 0, 0, 34})
	buf.Write(info)
	buf.Write(make([]byte, audioBytes))
	return buf.Bytes()
}

// MP3 returns a 128 kbps 44.1 kHz MPEG-1 layer III stream of roughly the
// given duration, optionally prefixed with an empty ID3v2 tag.
func MP3(seconds int, withID3 bool) []byte {
	var buf bytes.Buffer
	if withID3 {
		buf.WriteString("ID3\x03\x00\x00")
		buf.Write([]byte{0, 0, 0, 0x10})
		buf.Write(make([]byte, 0x10))
	}
	audio := make([]byte, seconds*16000)
	copy(audio, []byte{0xFF, 0xFB, 0x90, 0x00})
	buf.Write(audio)
	return buf.Bytes()
}

// MP3Xing returns a VBR stream whose Xing tag declares frames and bytes.
func MP3Xing(frames, streamBytes uint32) []byte {
	frame := make([]byte, 417)
	copy(frame, []byte{0xFF, 0xFB, 0x90, 0x00})
	copy(frame[36:], "Xing")
	binary.BigEndian.PutUint32(frame[40:44], 0x3)
	binary.BigEndian.PutUint32(frame[44:48], frames)
	binary.BigEndian.PutUint32(frame[48:52], streamBytes)
	return append(frame, make([]byte, 2048)...)
}

func isoBox(typ string, payload ...[]byte) []byte {
	size := 8
	for _, p := range payload {
		size += len(p)
	}
	out := make([]byte, 8, size)
	binary.BigEndian.PutUint32(out[:4], uint32(size))
	copy(out[4:], typ)
	for _, p := range payload {
		out = append(out, p...)
	}
	return out
}

func u32(v uint32) []byte {
	return binary.BigEndian.AppendUint32(nil, v)
}

func isoTrack(handler string, w, h, timescale, duration, samples uint32) []byte {
	tkhd := make([]byte, 84)
	binary.BigEndian.PutUint32(tkhd[76:80], w<<16)
	binary.BigEndian.PutUint32(tkhd[80:84], h<<16)

	mdhd := make([]byte, 24)
	binary.BigEndian.PutUint32(mdhd[12:16], timescale)
	binary.BigEndian.PutUint32(mdhd[16:20], duration)

	hdlr := make([]byte, 25)
	copy(hdlr[8:12], handler)

	stsz := append(u32(0), u32(1024)...)
	stsz = append(stsz, u32(samples)...)

	return isoBox("trak",
		isoBox("tkhd", tkhd),
		isoBox("mdia",
			isoBox("mdhd", mdhd),
			isoBox("hdlr", hdlr),
			isoBox("minf", isoBox("stbl", isoBox("stsz", stsz))),
		),
	)
}

// MP4 returns an ISO-BMFF movie with one video track.
func MP4(w, h uint32, fps, seconds uint32) []byte {
	ftyp := isoBox("ftyp", []byte("isom"), u32(512), []byte("isomiso2mp41"))
	moov := isoBox("moov", isoTrack("vide", w, h, 1000, seconds*1000, fps*seconds))
	return append(append(ftyp, moov...), isoBox("mdat", make([]byte, 256))...)
}

// M4A returns an ISO-BMFF audio file whose mdat makes the average bitrate
// kbps over the given duration.
func M4A(seconds, kbps uint32) []byte {
	ftyp := isoBox("ftyp", []byte("M4A "), u32(0), []byte("M4A isom"))
	moov := isoBox("moov", isoTrack("soun", 0, 0, 44100, seconds*44100, seconds*43))
	mdat := isoBox("mdat", make([]byte, seconds*kbps*125))
	return append(append(ftyp, moov...), mdat...)
}

// HEIC returns an HEIF container declaring a primary image and a thumbnail.
func HEIC(w, h uint32) []byte {
	return heifImage("heic", w, h)
}

// AVIF returns the AV1 flavour of the HEIF container built by HEIC.
func AVIF(w, h uint32) []byte {
	return heifImage("avif", w, h)
}

func heifImage(brand string, w, h uint32) []byte {
	ispe := func(w, h uint32) []byte {
		return isoBox("ispe", u32(0), u32(w), u32(h))
	}
	ftyp := isoBox("ftyp", []byte(brand), u32(0), []byte("mif1"+brand))
	meta := isoBox("meta", u32(0),
		isoBox("hdlr", make([]byte, 25)),
		isoBox("iprp", isoBox("ipco", ispe(320, 240), ispe(w, h))),
	)
	return append(ftyp, meta...)
}
