// Package mediatypes classifies library files by extension.
//
// It has no dependencies beyond the standard library so that the library,
// compress and handlers packages can all share it without import cycles.
//
//	switch mediatypes.Classify("clip.MKV") {
//	case mediatypes.FileTypeVideo:
//	    // candidate for compression and thumbnails
//	case mediatypes.FileTypeImage:
//	    // listed, served as-is
//	}
package mediatypes
