package metadata

import (
	"archive/zip"
	"bufio"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"

	"github.com/ledongthuc/pdf"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"fileorg/internal/signature"
)

const wordprocessingNS = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

var slidePattern = regexp.MustCompile(`^ppt/slides/slide[0-9]+\.xml$`)

func (r *Registry) extractDocument(ctx context.Context, path string, kind signature.FileKind) (Record, error) {
	switch kind {
	case signature.PDF, signature.DOCX, signature.PPTX, signature.OfficeOpenXML, signature.TXT:
	default:
		return nil, nil
	}

	file, size, err := openForExtraction(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var rec Record
	switch kind {
	case signature.PDF:
		rec, err = pdfPages(file, size)
	case signature.DOCX:
		rec, err = officeRecord(file, size, signature.DOCX)
	case signature.PPTX:
		rec, err = officeRecord(file, size, signature.PPTX)
	case signature.OfficeOpenXML:
		rec, err = officeRecord(file, size, signature.OfficeOpenXML)
	case signature.TXT:
		rec, err = textLines(file)
	}
	if err != nil {
		return r.absent(ctx, kind, err)
	}
	return rec, nil
}

// pdfPages counts pages through the document catalog. The parser panics on
// some malformed inputs, which is reported as an error.
func pdfPages(file *os.File, size int64) (rec Record, err error) {
	defer func() {
		if p := recover(); p != nil {
			rec, err = nil, fmt.Errorf("pdf parse panic: %v", p)
		}
	}()
	reader, err := pdf.NewReader(file, size)
	if err != nil {
		return nil, fmt.Errorf("pdf open: %w", err)
	}
	pages := reader.NumPage()
	if pages < 0 {
		return nil, errors.New("pdf: negative page count")
	}
	return PDF{Pages: uint32(pages)}, nil
}

// officeRecord inspects the zip directory. OfficeOpenXML containers are
// routed by the parts they carry.
func officeRecord(file *os.File, size int64, kind signature.FileKind) (Record, error) {
	archive, err := zip.NewReader(file, size)
	if err != nil {
		return nil, fmt.Errorf("zip open: %w", err)
	}

	var document *zip.File
	slides := 0
	for _, entry := range archive.File {
		switch {
		case entry.Name == "word/document.xml":
			document = entry
		case slidePattern.MatchString(entry.Name):
			slides++
		}
	}

	switch {
	case kind == signature.PPTX || (kind == signature.OfficeOpenXML && document == nil && slides > 0):
		if slides == 0 {
			return nil, errors.New("presentation has no slides directory")
		}
		return Slides{Slides: uint32(slides)}, nil
	case document != nil:
		paragraphs, err := countParagraphs(document)
		if err != nil {
			return nil, err
		}
		return Word{Paragraphs: paragraphs}, nil
	case kind == signature.DOCX:
		return nil, errors.New("word/document.xml not found")
	default:
		return nil, nil
	}
}

// countParagraphs counts w:p elements that are direct children of w:body.
// Paragraphs nested in tables, text boxes or section content do not count.
func countParagraphs(entry *zip.File) (uint32, error) {
	rc, err := entry.Open()
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", entry.Name, err)
	}
	defer rc.Close()

	decoder := xml.NewDecoder(rc)
	var (
		count uint32
		stack []xml.Name
	)
	for {
		tok, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			return count, nil
		}
		if err != nil {
			return 0, fmt.Errorf("parse %s: %w", entry.Name, err)
		}
		switch el := tok.(type) {
		case xml.StartElement:
			if isWordElement(el.Name, "p") && len(stack) > 0 && isWordElement(stack[len(stack)-1], "body") {
				count++
			}
			stack = append(stack, el.Name)
		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		}
	}
}

func isWordElement(name xml.Name, local string) bool {
	return name.Local == local && name.Space == wordprocessingNS
}

// textLines counts newline-terminated lines plus a trailing unterminated
// line. A UTF-8 or UTF-16 byte order mark selects the decoding.
func textLines(rd io.Reader) (Record, error) {
	decoded := transform.NewReader(rd, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	buf := bufio.NewReaderSize(decoded, 32*1024)

	var lines uint64
	var last byte
	seen := false
	chunk := make([]byte, 32*1024)
	for {
		n, err := buf.Read(chunk)
		for _, b := range chunk[:n] {
			if b == '\n' {
				lines++
			}
		}
		if n > 0 {
			last = chunk[n-1]
			seen = true
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read text: %w", err)
		}
	}
	if seen && last != '\n' {
		lines++
	}
	return Text{Lines: lines}, nil
}
