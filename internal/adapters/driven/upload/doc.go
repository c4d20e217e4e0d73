// Package upload provides a local-filesystem upload endpoint and image prober.
//
// Uploads are size-limited, sniffed for an accepted image type and decoded
// far enough to read their dimensions before anything is written. Files are
// stored under a random UUID name keeping the detected extension.
//
// Accepted types: image/jpeg, image/png, image/gif.
package upload
