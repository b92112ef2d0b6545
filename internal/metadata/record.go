package metadata

import "fmt"

// Record is one of the closed set of metadata variants. Token renders the
// filename decoration without the leading separator.
type Record interface {
	Token() string
	record()
}

// Image holds pixel dimensions and the decoded format name (upper case).
type Image struct {
	Width  uint32
	Height uint32
	Format string
}

// PDF holds the page count.
type PDF struct {
	Pages uint32
}

// Word holds the paragraph count of a word processing document.
type Word struct {
	Paragraphs uint32
}

// Slides holds the slide count of a presentation.
type Slides struct {
	Slides uint32
}

// Text holds the line count of a plain text file.
type Text struct {
	Lines uint64
}

// Video holds frame dimensions and the rounded frame rate.
type Video struct {
	Width  uint32
	Height uint32
	FPS    uint32
}

// Audio holds the rounded duration and bitrate.
type Audio struct {
	DurationSeconds uint64
	BitrateKbps     uint32
}

func (r Image) Token() string  { return fmt.Sprintf("%dx%d_%s", r.Width, r.Height, r.Format) }
func (r PDF) Token() string    { return fmt.Sprintf("%dpages", r.Pages) }
func (r Word) Token() string   { return fmt.Sprintf("%dparagraphs", r.Paragraphs) }
func (r Slides) Token() string { return fmt.Sprintf("%dslides", r.Slides) }
func (r Text) Token() string   { return fmt.Sprintf("%dlines", r.Lines) }
func (r Video) Token() string  { return fmt.Sprintf("%dx%d_%dfps", r.Width, r.Height, r.FPS) }
func (r Audio) Token() string  { return fmt.Sprintf("%ds_%dkbps", r.DurationSeconds, r.BitrateKbps) }

func (Image) record()  {}
func (PDF) record()    {}
func (Word) record()   {}
func (Slides) record() {}
func (Text) record()   {}
func (Video) record()  {}
func (Audio) record()  {}
