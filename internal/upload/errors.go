package upload

import "errors"

var (
	// ErrUploadSession wraps gateway-reported multipart failures.
	ErrUploadSession = errors.New("upload session error")
	// ErrInvalidChunkCount rejects multipart sessions with no parts.
	ErrInvalidChunkCount = errors.New("invalid chunk count")
)
