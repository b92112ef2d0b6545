package signature

import "strings"

var defaultExtensions = map[string]FileKind{
	".jpg":  JPEG,
	".jpeg": JPEG,
	".jpe":  JPEG,
	".png":  PNG,
	".gif":  GIF,
	".bmp":  BMP,
	".tif":  TIFF,
	".tiff": TIFF,
	".webp": WebP,
	".heic": HEIC,
	".heif": HEIC,
	".avif": AVIF,

	".pdf":  PDF,
	".docx": DOCX,
	".doc":  DOC,
	".pptx": PPTX,
	".ppt":  PPT,
	".xlsx": XLSX,
	".txt":  TXT,
	".rtf":  RTF,
	".epub": EPUB,

	".mp4":  MP4,
	".m4v":  MP4,
	".mov":  MOV,
	".avi":  AVI,
	".mkv":  MKV,
	".webm": WebM,
	".wmv":  WMV,
	".flv":  FLV,

	".mp3":  MP3,
	".flac": FLAC,
	".wav":  WAV,
	".ogg":  OGG,
	".oga":  OGG,
	".m4a":  M4A,
	".m4b":  M4A,
	".aac":  AAC,

	".zip": ZIP,
	".rar": RAR,
	".7z":  SevenZip,
	".tar": TAR,
	".gz":  GZIP,
	".tgz": GZIP,
	".bz2": BZIP2,
	".xz":  XZ,

	".exe": EXE,
	".msi": MSI,
	".dmg": DMG,
	".deb": DEB,
	".rpm": RPM,
}

// KindForExtension looks up ext (with or without the leading dot, any case).
func KindForExtension(ext string) (FileKind, bool) {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext == "" {
		return Unknown, false
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	kind, ok := defaultExtensions[ext]
	return kind, ok
}

// Extensions returns the extensions that map to kind, sorted by the caller.
func Extensions(kind FileKind) []string {
	var out []string
	for ext, k := range defaultExtensions {
		if k == kind {
			out = append(out, ext)
		}
	}
	return out
}
