package signature

import "strings"

// Category is the top-level grouping of file kinds. Its String form is the
// destination folder name.
type Category int

const (
	Other Category = iota
	Images
	Documents
	Videos
	Audio
	Archives
	Executables
)

var categoryNames = [...]string{
	Other:       "Other",
	Images:      "Images",
	Documents:   "Documents",
	Videos:      "Videos",
	Audio:       "Audio",
	Archives:    "Archives",
	Executables: "Executables",
}

func (c Category) String() string {
	if c < 0 || int(c) >= len(categoryNames) {
		return categoryNames[Other]
	}
	return categoryNames[c]
}

// Categories lists every category in display order.
func Categories() []Category {
	return []Category{Images, Documents, Videos, Audio, Archives, Executables, Other}
}

// ParseCategory resolves a folder name (case-insensitive) to a Category.
func ParseCategory(name string) (Category, bool) {
	for i, n := range categoryNames {
		if strings.EqualFold(n, strings.TrimSpace(name)) {
			return Category(i), true
		}
	}
	return Other, false
}

// Family groups kinds that share a container layout. Only a generic container
// match is ever narrowed, and only to a sibling kind of its family.
type Family string

const (
	FamilyNone    Family = ""
	FamilyZIP     Family = "zip"
	FamilyOLE     Family = "ole"
	FamilyISOBMFF Family = "isobmff"
	FamilyRIFF    Family = "riff"
	FamilyEBML    Family = "ebml"
)

// FileKind identifies a concrete file format.
type FileKind int

const (
	Unknown FileKind = iota

	JPEG
	PNG
	GIF
	BMP
	TIFF
	WebP
	HEIC
	AVIF

	PDF
	DOCX
	DOC
	PPTX
	PPT
	XLSX
	TXT
	RTF
	EPUB
	OfficeOpenXML
	CompoundDocument

	MP4
	MOV
	AVI
	MKV
	WebM
	WMV
	FLV

	MP3
	FLAC
	WAV
	OGG
	M4A
	AAC

	ZIP
	RAR
	SevenZip
	TAR
	GZIP
	BZIP2
	XZ

	EXE
	ELF
	MSI
	DMG
	DEB
	RPM

	kindCount
)

type kindInfo struct {
	name      string
	category  Category
	extension string
	family    Family
}

var kinds = [kindCount]kindInfo{
	Unknown: {"Unknown", Other, "", FamilyNone},

	JPEG: {"JPEG", Images, ".jpg", FamilyNone},
	PNG:  {"PNG", Images, ".png", FamilyNone},
	GIF:  {"GIF", Images, ".gif", FamilyNone},
	BMP:  {"BMP", Images, ".bmp", FamilyNone},
	TIFF: {"TIFF", Images, ".tiff", FamilyNone},
	WebP: {"WebP", Images, ".webp", FamilyRIFF},
	HEIC: {"HEIC", Images, ".heic", FamilyISOBMFF},
	AVIF: {"AVIF", Images, ".avif", FamilyISOBMFF},

	PDF:              {"PDF", Documents, ".pdf", FamilyNone},
	DOCX:             {"DOCX", Documents, ".docx", FamilyZIP},
	DOC:              {"DOC", Documents, ".doc", FamilyOLE},
	PPTX:             {"PPTX", Documents, ".pptx", FamilyZIP},
	PPT:              {"PPT", Documents, ".ppt", FamilyOLE},
	XLSX:             {"XLSX", Documents, ".xlsx", FamilyZIP},
	TXT:              {"TXT", Documents, ".txt", FamilyNone},
	RTF:              {"RTF", Documents, ".rtf", FamilyNone},
	EPUB:             {"EPUB", Documents, ".epub", FamilyZIP},
	OfficeOpenXML:    {"OfficeOpenXML", Documents, ".docx", FamilyZIP},
	CompoundDocument: {"CompoundDocument", Documents, ".doc", FamilyOLE},

	MP4:  {"MP4", Videos, ".mp4", FamilyISOBMFF},
	MOV:  {"MOV", Videos, ".mov", FamilyISOBMFF},
	AVI:  {"AVI", Videos, ".avi", FamilyRIFF},
	MKV:  {"MKV", Videos, ".mkv", FamilyEBML},
	WebM: {"WebM", Videos, ".webm", FamilyEBML},
	WMV:  {"WMV", Videos, ".wmv", FamilyNone},
	FLV:  {"FLV", Videos, ".flv", FamilyNone},

	MP3:  {"MP3", Audio, ".mp3", FamilyNone},
	FLAC: {"FLAC", Audio, ".flac", FamilyNone},
	WAV:  {"WAV", Audio, ".wav", FamilyRIFF},
	OGG:  {"OGG", Audio, ".ogg", FamilyNone},
	M4A:  {"M4A", Audio, ".m4a", FamilyISOBMFF},
	AAC:  {"AAC", Audio, ".aac", FamilyNone},

	ZIP:      {"ZIP", Archives, ".zip", FamilyZIP},
	RAR:      {"RAR", Archives, ".rar", FamilyNone},
	SevenZip: {"7Z", Archives, ".7z", FamilyNone},
	TAR:      {"TAR", Archives, ".tar", FamilyNone},
	GZIP:     {"GZIP", Archives, ".gz", FamilyNone},
	BZIP2:    {"BZIP2", Archives, ".bz2", FamilyNone},
	XZ:       {"XZ", Archives, ".xz", FamilyNone},

	EXE: {"EXE", Executables, ".exe", FamilyNone},
	ELF: {"ELF", Executables, "", FamilyNone},
	MSI: {"MSI", Executables, ".msi", FamilyOLE},
	DMG: {"DMG", Executables, ".dmg", FamilyNone},
	DEB: {"DEB", Executables, ".deb", FamilyNone},
	RPM: {"RPM", Executables, ".rpm", FamilyNone},
}

func (k FileKind) info() kindInfo {
	if k < 0 || k >= kindCount {
		return kinds[Unknown]
	}
	return kinds[k]
}

func (k FileKind) String() string { return k.info().name }

// Category returns the single category this kind belongs to.
func (k FileKind) Category() Category { return k.info().category }

// Extension returns the lowercase canonical extension including the dot, or
// "" when the format has no conventional extension.
func (k FileKind) Extension() string { return k.info().extension }

// Family returns the container family, or FamilyNone.
func (k FileKind) Family() Family { return k.info().family }

// Kinds returns every declared kind except Unknown.
func Kinds() []FileKind {
	out := make([]FileKind, 0, kindCount-1)
	for k := Unknown + 1; k < kindCount; k++ {
		out = append(out, k)
	}
	return out
}

// ParseKind resolves a kind name (case-insensitive), as stored in history.
func ParseKind(name string) (FileKind, bool) {
	name = strings.TrimSpace(name)
	for k := Unknown; k < kindCount; k++ {
		if strings.EqualFold(kinds[k].name, name) {
			return k, true
		}
	}
	return Unknown, false
}
