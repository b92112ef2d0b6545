// Package fileutil holds the byte-moving primitives behind an organize run:
// verified copies into an already reserved destination, attribute
// preservation, and moves that fall back to copy-and-delete across devices.
package fileutil
