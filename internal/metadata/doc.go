// Package metadata extracts descriptive properties used to decorate
// destination filenames.
//
// Registry dispatches on signature.Category to one extractor per category.
// Extractors open files read-only, read only the headers they need, and
// return a nil Record when a recognized file cannot be parsed. An error is
// returned only when the file cannot be opened at all.
package metadata
