// Package history persists a log of organize runs and the individual file
// transfers they performed in a SQLite database under the state directory.
//
// The store is optional. Runs proceed without it when history is disabled in
// configuration, and a failure to record a transfer never fails the file.
package history
