// Package source enumerates candidate recordings and fetches their bytes
// into scratch.
//
// Two implementations exist: a local directory walker and an rclone-backed
// remote adapter. Listing is metadata-only; file contents are only moved by
// a Fetcher, one file at a time, under the scratch lifecycle's control.
package source
