// Package handlers provides HTTP request handlers for the media library API.
//
// It includes handlers for:
//   - Library root selection and category listings
//   - Renaming, deleting and serving media files
//   - Cached video thumbnails
//   - Compression runs and their history
//   - Health checks and version information
package handlers
