// Package deps reports on the optional external binaries fileorg can use.
// Only ffprobe is consulted today; it widens metadata coverage to containers
// without a native parser.
package deps
