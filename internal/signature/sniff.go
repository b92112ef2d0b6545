package signature

import "github.com/gabriel-vasile/mimetype"

// binaryMIME maps mimetype results to kinds. Text types are deliberately
// absent so plain text stays governed by the extension table.
var binaryMIME = map[string]FileKind{
	"image/jpeg": JPEG,
	"image/png":  PNG,
	"image/gif":  GIF,
	"image/bmp":  BMP,
	"image/tiff": TIFF,
	"image/webp": WebP,
	"image/heic": HEIC,
	"image/heif": HEIC,
	"image/avif": AVIF,

	"application/pdf":    PDF,
	"application/msword": DOC,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document":   DOCX,
	"application/vnd.openxmlformats-officedocument.presentationml.presentation": PPTX,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":         XLSX,
	"application/vnd.ms-powerpoint":                                             PPT,
	"application/epub+zip":                                                      EPUB,
	"application/x-ole-storage":                                                 CompoundDocument,

	"video/mp4":        MP4,
	"video/quicktime":  MOV,
	"video/x-msvideo":  AVI,
	"video/x-matroska": MKV,
	"video/webm":       WebM,
	"video/x-ms-asf":   WMV,
	"video/x-flv":      FLV,

	"audio/mpeg":      MP3,
	"audio/flac":      FLAC,
	"audio/wav":       WAV,
	"audio/ogg":       OGG,
	"application/ogg": OGG,
	"audio/x-m4a":     M4A,
	"audio/aac":       AAC,

	"application/zip":              ZIP,
	"application/x-rar-compressed": RAR,
	"application/x-7z-compressed":  SevenZip,
	"application/x-tar":            TAR,
	"application/gzip":             GZIP,
	"application/x-bzip2":          BZIP2,
	"application/x-xz":             XZ,

	"application/vnd.microsoft.portable-executable": EXE,
	"application/x-elf":                             ELF,
	"application/x-ms-installer":                    MSI,
	"application/vnd.debian.binary-package":         DEB,
	"application/x-rpm":                             RPM,
}

// sniffKind asks mimetype about header and walks up the MIME hierarchy until
// a binary type from the table is found.
func sniffKind(header []byte) (FileKind, bool) {
	for mt := mimetype.Detect(header); mt != nil; mt = mt.Parent() {
		if kind, ok := binaryMIME[mt.String()]; ok {
			return kind, true
		}
	}
	return Unknown, false
}

// DetectMIME returns mimetype's answer for header, for display purposes.
func DetectMIME(header []byte) string {
	return mimetype.Detect(header).String()
}
