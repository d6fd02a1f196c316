// Package library enumerates and edits the media library on disk.
//
// The library root contains one level of category folders; each category
// holds video and image files directly (no recursion). Besides listing,
// the package renames and deletes files, keeping the history ledger and the
// thumbnail cache in step with the file system. Renames and deletes go
// through the locked-resource retry in the filesystem package, so a file
// held open by a player is retried before the caller sees
// filesystem.ErrResourceLocked.
package library
