package signature

import (
	"errors"
	"fmt"
	"slices"
)

// HeaderSize is the maximum number of leading bytes inspected per file.
const HeaderSize = 64

// Segment is a magic byte sequence expected at a fixed offset.
type Segment struct {
	Offset int
	Magic  []byte
}

// SignatureRule implies Kind when every segment matches.
type SignatureRule struct {
	Kind     FileKind
	Segments []Segment
}

func rule(kind FileKind, magic string) SignatureRule {
	return SignatureRule{Kind: kind, Segments: []Segment{{Offset: 0, Magic: []byte(magic)}}}
}

func ruleAt(kind FileKind, segments ...Segment) SignatureRule {
	return SignatureRule{Kind: kind, Segments: segments}
}

func at(offset int, magic string) Segment {
	return Segment{Offset: offset, Magic: []byte(magic)}
}

// Specificity is the total number of magic bytes the rule checks.
func (r SignatureRule) Specificity() int {
	total := 0
	for _, seg := range r.Segments {
		total += len(seg.Magic)
	}
	return total
}

// Matches reports whether header satisfies every segment.
func (r SignatureRule) Matches(header []byte) bool {
	if len(r.Segments) == 0 {
		return false
	}
	for _, seg := range r.Segments {
		end := seg.Offset + len(seg.Magic)
		if seg.Offset < 0 || end > len(header) {
			return false
		}
		if string(header[seg.Offset:end]) != string(seg.Magic) {
			return false
		}
	}
	return true
}

func (r SignatureRule) validate() error {
	if r.Kind == Unknown || r.Kind >= kindCount || r.Kind < 0 {
		return fmt.Errorf("rule for %s: invalid kind", r.Kind)
	}
	if len(r.Segments) == 0 {
		return fmt.Errorf("rule for %s: no segments", r.Kind)
	}
	for _, seg := range r.Segments {
		if len(seg.Magic) == 0 {
			return fmt.Errorf("rule for %s: empty magic", r.Kind)
		}
		if seg.Offset < 0 || seg.Offset+len(seg.Magic) > HeaderSize {
			return fmt.Errorf("rule for %s: segment at %d exceeds %d byte header", r.Kind, seg.Offset, HeaderSize)
		}
	}
	return nil
}

// sortRules orders rules by specificity, most specific first, keeping
// declaration order among equals.
func sortRules(rules []SignatureRule) ([]SignatureRule, error) {
	out := make([]SignatureRule, 0, len(rules))
	var errs []error
	for _, r := range rules {
		if err := r.validate(); err != nil {
			errs = append(errs, err)
			continue
		}
		segs := make([]Segment, len(r.Segments))
		for i, seg := range r.Segments {
			segs[i] = Segment{Offset: seg.Offset, Magic: slices.Clone(seg.Magic)}
		}
		out = append(out, SignatureRule{Kind: r.Kind, Segments: segs})
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	slices.SortStableFunc(out, func(a, b SignatureRule) int {
		return b.Specificity() - a.Specificity()
	})
	return out, nil
}

// DefaultRules returns the built-in signature set in declaration order.
func DefaultRules() []SignatureRule {
	return []SignatureRule{
		// Images
		rule(JPEG, "\xFF\xD8\xFF"),
		rule(PNG, "\x89PNG\r\n\x1a\n"),
		rule(GIF, "GIF87a"),
		rule(GIF, "GIF89a"),
		ruleAt(BMP, at(0, "BM"), at(6, "\x00\x00\x00\x00")),
		rule(TIFF, "II*\x00"),
		rule(TIFF, "MM\x00*"),
		ruleAt(WebP, at(0, "RIFF"), at(8, "WEBP")),
		ruleAt(HEIC, at(4, "ftypheic")),
		ruleAt(HEIC, at(4, "ftypheix")),
		ruleAt(HEIC, at(4, "ftyphevc")),
		ruleAt(HEIC, at(4, "ftypheim")),
		ruleAt(HEIC, at(4, "ftypheis")),
		ruleAt(HEIC, at(4, "ftypmif1")),
		ruleAt(HEIC, at(4, "ftypmsf1")),
		ruleAt(AVIF, at(4, "ftypavif")),
		ruleAt(AVIF, at(4, "ftypavis")),

		// Documents
		rule(PDF, "%PDF-"),
		rule(RTF, "{\\rtf"),
		ruleAt(EPUB, at(0, "PK\x03\x04"), at(30, "mimetypeapplication/epub+zip")),
		ruleAt(OfficeOpenXML, at(0, "PK\x03\x04"), at(30, "[Content_Types].xml")),
		ruleAt(OfficeOpenXML, at(0, "PK\x03\x04"), at(30, "_rels/.rels")),
		rule(CompoundDocument, "\xD0\xCF\x11\xE0\xA1\xB1\x1A\xE1"),

		// Videos
		ruleAt(MOV, at(4, "ftypqt  ")),
		ruleAt(MP4, at(4, "ftypisom")),
		ruleAt(MP4, at(4, "ftypiso2")),
		ruleAt(MP4, at(4, "ftypmp41")),
		ruleAt(MP4, at(4, "ftypmp42")),
		ruleAt(MP4, at(4, "ftypavc1")),
		ruleAt(MP4, at(4, "ftypM4V ")),
		ruleAt(MP4, at(4, "ftypdash")),
		ruleAt(MP4, at(4, "ftyp")),
		ruleAt(MOV, at(4, "moov")),
		ruleAt(MOV, at(4, "mdat")),
		ruleAt(MOV, at(4, "wide")),
		ruleAt(AVI, at(0, "RIFF"), at(8, "AVI ")),
		rule(MKV, "\x1A\x45\xDF\xA3"),
		rule(WMV, "\x30\x26\xB2\x75\x8E\x66\xCF\x11\xA6\xD9\x00\xAA\x00\x62\xCE\x6C"),
		rule(FLV, "FLV\x01"),

		// Audio
		rule(MP3, "ID3"),
		rule(MP3, "\xFF\xFB"),
		rule(MP3, "\xFF\xFA"),
		rule(MP3, "\xFF\xF3"),
		rule(MP3, "\xFF\xF2"),
		rule(FLAC, "fLaC"),
		ruleAt(WAV, at(0, "RIFF"), at(8, "WAVE")),
		rule(OGG, "OggS"),
		ruleAt(M4A, at(4, "ftypM4A ")),
		ruleAt(M4A, at(4, "ftypM4B ")),
		rule(AAC, "\xFF\xF1"),
		rule(AAC, "\xFF\xF9"),

		// Archives
		rule(ZIP, "PK\x03\x04"),
		rule(ZIP, "PK\x05\x06"),
		rule(ZIP, "PK\x07\x08"),
		rule(RAR, "Rar!\x1A\x07"),
		rule(SevenZip, "7z\xBC\xAF\x27\x1C"),
		rule(GZIP, "\x1F\x8B"),
		rule(BZIP2, "BZh"),
		rule(XZ, "\xFD7zXZ\x00"),

		// Executables
		rule(EXE, "MZ"),
		rule(ELF, "\x7FELF"),
		rule(DEB, "!<arch>\ndebian-binary"),
		rule(RPM, "\xED\xAB\xEE\xDB"),
	}
}
