// Package preflight holds the checks that must pass before an organize run
// touches any file, plus the environment report shown by "fileorg doctor".
//
// CheckSource and CheckDestination return run-fatal errors tagged with
// services markers. RunAll returns informational Results for the doctor
// command and never fails.
package preflight
