package signature_test

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"fileorg/internal/signature"
)

func pad(prefix string) []byte {
	buf := make([]byte, signature.HeaderSize)
	copy(buf, prefix)
	return buf
}

func withAt(base []byte, offset int, magic string) []byte {
	copy(base[offset:], magic)
	return base
}

func TestClassifyHeaderSignatures(t *testing.T) {
	m := signature.Default()
	tests := []struct {
		name   string
		file   string
		header []byte
		want   signature.FileKind
	}{
		{"jpeg", "img.bin", pad("\xFF\xD8\xFF\xE0"), signature.JPEG},
		{"png", "img", pad("\x89PNG\r\n\x1a\n"), signature.PNG},
		{"gif89", "x.dat", pad("GIF89a"), signature.GIF},
		{"bmp", "pic.txt", pad("BM\x36\x00\x0c\x00"), signature.BMP},
		{"tiff le", "scan", pad("II*\x00"), signature.TIFF},
		{"webp", "a", withAt(pad("RIFF\x10\x00\x00\x00"), 8, "WEBP"), signature.WebP},
		{"wav", "a", withAt(pad("RIFF\x10\x00\x00\x00"), 8, "WAVE"), signature.WAV},
		{"avi", "a", withAt(pad("RIFF\x10\x00\x00\x00"), 8, "AVI "), signature.AVI},
		{"heic", "a", withAt(pad("\x00\x00\x00\x18"), 4, "ftypheic"), signature.HEIC},
		{"mov", "a", withAt(pad("\x00\x00\x00\x14"), 4, "ftypqt  "), signature.MOV},
		{"m4a", "a", withAt(pad("\x00\x00\x00\x20"), 4, "ftypM4A "), signature.M4A},
		{"mp4", "a", withAt(pad("\x00\x00\x00\x20"), 4, "ftypisom"), signature.MP4},
		{"pdf", "report.docx", pad("%PDF-1.7"), signature.PDF},
		{"epub", "book", withAt(pad("PK\x03\x04"), 30, "mimetypeapplication/epub+zip"), signature.EPUB},
		{"ooxml", "doc", withAt(pad("PK\x03\x04"), 30, "[Content_Types].xml"), signature.OfficeOpenXML},
		{"zip", "backup.bin", pad("PK\x03\x04\x14\x00"), signature.ZIP},
		{"ole", "legacy", pad("\xD0\xCF\x11\xE0\xA1\xB1\x1A\xE1"), signature.CompoundDocument},
		{"mkv", "movie", pad("\x1A\x45\xDF\xA3"), signature.MKV},
		{"flv", "clip", pad("FLV\x01"), signature.FLV},
		{"mp3 id3", "song", pad("ID3\x03\x00"), signature.MP3},
		{"mp3 frame", "song", pad("\xFF\xFB\x90\x00"), signature.MP3},
		{"aac", "song", pad("\xFF\xF1\x50\x80"), signature.AAC},
		{"flac", "song", pad("fLaC"), signature.FLAC},
		{"ogg", "song", pad("OggS"), signature.OGG},
		{"rar", "a", pad("Rar!\x1A\x07\x00"), signature.RAR},
		{"7z", "a", pad("7z\xBC\xAF\x27\x1C"), signature.SevenZip},
		{"gzip", "a", pad("\x1F\x8B\x08"), signature.GZIP},
		{"bzip2", "a", pad("BZh91AY"), signature.BZIP2},
		{"xz", "a", pad("\xFD7zXZ\x00"), signature.XZ},
		{"exe", "setup.jpg", pad("MZ\x90\x00"), signature.EXE},
		{"elf", "tool", pad("\x7FELF\x02\x01"), signature.ELF},
		{"deb", "pkg", pad("!<arch>\ndebian-binary   "), signature.DEB},
		{"rpm", "pkg", pad("\xED\xAB\xEE\xDB"), signature.RPM},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := m.ClassifyHeader(tt.file, tt.header)
			if got.Kind != tt.want {
				t.Fatalf("kind = %s, want %s", got.Kind, tt.want)
			}
			if got.Method != signature.MethodSignature {
				t.Fatalf("method = %s, want signature", got.Method)
			}
			if got.Category != tt.want.Category() {
				t.Fatalf("category = %s, want %s", got.Category, tt.want.Category())
			}
		})
	}
}

func TestSignatureBeatsExtension(t *testing.T) {
	got := signature.Default().ClassifyHeader("holiday.jpg", pad("%PDF-1.4"))
	if got.Kind != signature.PDF || got.Category != signature.Documents {
		t.Fatalf("expected PDF/Documents, got %+v", got)
	}
}

func TestBMPRequiresReservedZeros(t *testing.T) {
	got := signature.Default().ClassifyHeader("notes.txt", pad("BMW is a car brand"))
	if got.Kind != signature.TXT || got.Method != signature.MethodExtension {
		t.Fatalf("expected text via extension, got %+v", got)
	}
}

func TestContainerRefinementByExtension(t *testing.T) {
	m := signature.Default()
	ooxml := withAt(pad("PK\x03\x04"), 30, "[Content_Types].xml")
	tests := []struct {
		name   string
		file   string
		header []byte
		want   signature.FileKind
	}{
		{"plain zip named docx", "report.DOCX", pad("PK\x03\x04\x14\x00"), signature.DOCX},
		{"ooxml named pptx", "deck.pptx", ooxml, signature.PPTX},
		{"ooxml named xlsx", "sheet.xlsx", ooxml, signature.XLSX},
		{"ole named msi", "setup.msi", pad("\xD0\xCF\x11\xE0\xA1\xB1\x1A\xE1"), signature.MSI},
		{"ole named ppt", "talk.ppt", pad("\xD0\xCF\x11\xE0\xA1\xB1\x1A\xE1"), signature.PPT},
		{"mp4 named m4a", "song.m4a", withAt(pad("\x00\x00\x00\x20"), 4, "ftypisom"), signature.M4A},
		{"mkv named webm", "clip.webm", pad("\x1A\x45\xDF\xA3"), signature.WebM},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := m.ClassifyHeader(tt.file, tt.header)
			if got.Kind != tt.want || got.Method != signature.MethodSignature {
				t.Fatalf("got %+v, want %s via signature", got, tt.want)
			}
		})
	}
}

func TestRefinementNeverLeavesFamily(t *testing.T) {
	m := signature.Default()
	tests := []struct {
		name   string
		file   string
		header []byte
		want   signature.FileKind
	}{
		{"zip named mp3", "archive.mp3", pad("PK\x03\x04\x14\x00"), signature.ZIP},
		{"wav named avi", "song.avi", withAt(pad("RIFF\x10\x00\x00\x00"), 8, "WAVE"), signature.WAV},
		{"webp named wav", "webp.wav", withAt(pad("RIFF\x10\x00\x00\x00"), 8, "WEBP"), signature.WebP},
		{"avi named webp", "clip.webp", withAt(pad("RIFF\x10\x00\x00\x00"), 8, "AVI "), signature.AVI},
		{"heic named mp4", "photo.mp4", withAt(pad("\x00\x00\x00\x18"), 4, "ftypheic"), signature.HEIC},
		{"m4a named mov", "voice.mov", withAt(pad("\x00\x00\x00\x20"), 4, "ftypM4A "), signature.M4A},
		{"mov named mp4", "clip.mp4", withAt(pad("\x00\x00\x00\x14"), 4, "ftypqt  "), signature.MOV},
		{"ooxml named zip", "report.zip", withAt(pad("PK\x03\x04"), 30, "[Content_Types].xml"), signature.OfficeOpenXML},
		{"epub named zip", "book.zip", withAt(pad("PK\x03\x04"), 30, "mimetypeapplication/epub+zip"), signature.EPUB},
		{"epub named docx", "book.docx", withAt(pad("PK\x03\x04"), 30, "mimetypeapplication/epub+zip"), signature.EPUB},
		{"ooxml named epub", "deck.epub", withAt(pad("PK\x03\x04"), 30, "[Content_Types].xml"), signature.OfficeOpenXML},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := m.ClassifyHeader(tt.file, tt.header)
			if got.Kind != tt.want || got.Category != tt.want.Category() || got.Method != signature.MethodSignature {
				t.Fatalf("got %+v, want %s/%s via signature", got, tt.want, tt.want.Category())
			}
		})
	}
}

func TestAVIFIsAnImage(t *testing.T) {
	for _, brand := range []string{"ftypavif", "ftypavis"} {
		got := signature.Default().ClassifyHeader("still.mp4", withAt(pad("\x00\x00\x00\x1c"), 4, brand))
		if got.Kind != signature.AVIF || got.Category != signature.Images {
			t.Fatalf("%s: expected AVIF/Images, got %+v", brand, got)
		}
	}
}

func TestExtensionFallbackAndUnknown(t *testing.T) {
	m := signature.Default()
	got := m.ClassifyHeader("readme.TXT", []byte("hello world\n"))
	if got.Kind != signature.TXT || got.Method != signature.MethodExtension {
		t.Fatalf("expected TXT via extension, got %+v", got)
	}
	got = m.ClassifyHeader("backup.tar", pad("some-file-name.txt"))
	if got.Kind != signature.TAR || got.Category != signature.Archives {
		t.Fatalf("expected TAR via extension, got %+v", got)
	}
	got = m.ClassifyHeader("mystery.qqq", []byte("just words"))
	if got.Kind != signature.Unknown || got.Category != signature.Other || got.Method != signature.MethodUnknown {
		t.Fatalf("expected unknown, got %+v", got)
	}
}

func TestEmptyHeaderUsesExtension(t *testing.T) {
	m := signature.Default()
	if got := m.ClassifyHeader("empty.pdf", nil); got.Kind != signature.PDF || got.Method != signature.MethodExtension {
		t.Fatalf("expected PDF via extension, got %+v", got)
	}
	if got := m.ClassifyHeader("empty", nil); got.Kind != signature.Unknown {
		t.Fatalf("expected Unknown, got %+v", got)
	}
}

func TestClassifyReadsFiles(t *testing.T) {
	dir := t.TempDir()
	pngPath := filepath.Join(dir, "no-extension")
	if err := os.WriteFile(pngPath, append(pad("\x89PNG\r\n\x1a\n"), make([]byte, 4096)...), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if got := signature.Default().Classify(pngPath); got.Kind != signature.PNG {
		t.Fatalf("expected PNG, got %+v", got)
	}

	emptyPath := filepath.Join(dir, "zero.mp3")
	if err := os.WriteFile(emptyPath, nil, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if got := signature.Default().Classify(emptyPath); got.Kind != signature.MP3 || got.Method != signature.MethodExtension {
		t.Fatalf("expected MP3 via extension, got %+v", got)
	}

	missing := signature.Default().Classify(filepath.Join(dir, "gone.gif"))
	if missing.Kind != signature.GIF || missing.Method != signature.MethodExtension {
		t.Fatalf("expected GIF via extension for unreadable file, got %+v", missing)
	}
}

func TestReadHeaderCapsAtHeaderSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "big.bin")
	if err := os.WriteFile(path, []byte(strings.Repeat("x", 10000)), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	header, err := signature.ReadHeader(path)
	if err != nil {
		t.Fatalf("ReadHeader: %v", err)
	}
	if len(header) != signature.HeaderSize {
		t.Fatalf("len = %d, want %d", len(header), signature.HeaderSize)
	}
}

func TestConcurrentClassification(t *testing.T) {
	m := signature.Default()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if got := m.ClassifyHeader("a.bin", pad("%PDF-1.7")); got.Kind != signature.PDF {
					t.Errorf("unexpected kind %s", got.Kind)
					return
				}
			}
		}()
	}
	wg.Wait()
}
