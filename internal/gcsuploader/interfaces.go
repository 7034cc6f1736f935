// Package gcsuploader archives raw uploaded tables to Cloud Storage and reads
// them back by gs:// URI.
package gcsuploader

import "context"

// Archiver stores the raw bytes of an upload and returns their gs:// URI.
type Archiver interface {
	Archive(ctx context.Context, userID, uploadID, filename string, data []byte) (string, error)
}

