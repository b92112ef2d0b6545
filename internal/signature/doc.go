// Package signature determines a file's true format from its leading bytes.
//
// A Matcher holds an immutable, specificity-ordered rule set built once and
// shared by every classification. Classification reads at most HeaderSize
// bytes, tries the declared magic numbers first, refines container formats
// (ZIP, OLE, ISO-BMFF, RIFF, EBML) by extension or by a mimetype sniff of the
// same bytes, and finally falls back to the file extension. It never returns
// an error: anything unrecognized is Unknown in the Other category.
package signature
