// Package naming turns a source filename plus optional metadata into a
// destination path that is guaranteed not to overwrite anything.
//
// Reservations are made with exclusive create, so concurrent runs and
// parallel workers can never be handed the same path. A reservation that is
// not committed must be abandoned, which removes its placeholder.
package naming
