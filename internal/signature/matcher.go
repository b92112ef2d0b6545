package signature

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"slices"
	"sync"
)

// Method records which stage produced a classification.
type Method string

const (
	MethodSignature Method = "signature"
	MethodExtension Method = "extension"
	MethodUnknown   Method = "unknown"
)

// Result is the outcome of classifying one file.
type Result struct {
	Kind     FileKind
	Category Category
	Method   Method
}

func newResult(kind FileKind, method Method) Result {
	return Result{Kind: kind, Category: kind.Category(), Method: method}
}

// Matcher classifies files. It is immutable after construction and safe for
// concurrent use.
type Matcher struct {
	rules []SignatureRule
	sniff bool
}

// Option customizes a Matcher.
type Option func(*Matcher)

// WithoutSniff disables the mimetype refinement and secondary sniff so only
// declared rules and the extension table apply.
func WithoutSniff() Option {
	return func(m *Matcher) { m.sniff = false }
}

// NewMatcher validates and orders rules. Rules whose segments reach past
// HeaderSize, carry empty magic, or imply Unknown are rejected.
func NewMatcher(rules []SignatureRule, opts ...Option) (*Matcher, error) {
	sorted, err := sortRules(rules)
	if err != nil {
		return nil, err
	}
	m := &Matcher{rules: sorted, sniff: true}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

var defaultMatcher = sync.OnceValue(func() *Matcher {
	m, err := NewMatcher(DefaultRules())
	if err != nil {
		panic("signature: invalid built-in rules: " + err.Error())
	}
	return m
})

// Default returns the shared matcher built from DefaultRules.
func Default() *Matcher {
	return defaultMatcher()
}

// Rules returns a copy of the ordered rule set.
func (m *Matcher) Rules() []SignatureRule {
	return append([]SignatureRule(nil), m.rules...)
}

// Classify reads at most HeaderSize bytes from path and classifies them.
// Open or read failures degrade to extension-only classification.
func (m *Matcher) Classify(path string) Result {
	header, _ := ReadHeader(path)
	return m.ClassifyHeader(filepath.Base(path), header)
}

// ReadHeader returns up to HeaderSize leading bytes of path.
func ReadHeader(path string) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	buf := make([]byte, HeaderSize)
	n, err := io.ReadFull(file, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return buf[:n], nil
}

// ClassifyHeader classifies already-read header bytes. name supplies the
// extension for refinement and fallback; only its final extension is used.
func (m *Matcher) ClassifyHeader(name string, header []byte) Result {
	if len(header) > HeaderSize {
		header = header[:HeaderSize]
	}
	extKind, extOK := KindForExtension(filepath.Ext(name))

	if len(header) > 0 {
		for _, r := range m.rules {
			if !r.Matches(header) {
				continue
			}
			return newResult(m.refine(r.Kind, extKind, extOK, header), MethodSignature)
		}
		if m.sniff {
			if kind, ok := sniffKind(header); ok {
				return newResult(m.refine(kind, extKind, extOK, header), MethodSignature)
			}
		}
	}

	if extOK {
		return newResult(extKind, MethodExtension)
	}
	return newResult(Unknown, MethodUnknown)
}

// narrowable lists, for each generic container match, the specific kinds the
// extension or the mimetype sniff may narrow it to. Kinds backed by their own
// signature rule (WAV, AVI, WebP, HEIC, AVIF, M4A, MOV, EPUB) are absent and
// therefore never replaced.
var narrowable = map[FileKind][]FileKind{
	ZIP:              {DOCX, PPTX, XLSX, EPUB},
	OfficeOpenXML:    {DOCX, PPTX, XLSX},
	CompoundDocument: {DOC, PPT, MSI},
	MP4:              {MOV, M4A},
	MKV:              {WebM},
}

// refine narrows a generic container match to a more specific kind named by
// the extension or, failing that, by the mimetype sniff. Specific matches are
// returned unchanged.
func (m *Matcher) refine(kind, extKind FileKind, extOK bool, header []byte) FileKind {
	targets, ok := narrowable[kind]
	if !ok {
		return kind
	}
	if extOK && slices.Contains(targets, extKind) {
		return extKind
	}
	if m.sniff {
		if sniffed, ok := sniffKind(header); ok && slices.Contains(targets, sniffed) {
			return sniffed
		}
	}
	return kind
}
