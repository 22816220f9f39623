package file

import "errors"

var (
	ErrInvalidPath = errors.New("invalid path")

	ErrEmptyFile       = errors.New("no file uploaded")
	ErrFileTooLarge    = errors.New("file size exceeds maximum allowed size")
	ErrNotAnImage      = errors.New("only image files are allowed")
	ErrFileNotFound    = errors.New("file not found")
	ErrUnknownStorage  = errors.New("unknown file storage backend")
	ErrInvalidConfig   = errors.New("invalid configuration")
	ErrUploadFailed    = errors.New("failed to upload file")
	ErrFailedToDelete  = errors.New("failed to delete file")
	ErrFailedToLoadAWS = errors.New("failed to load AWS config")

	// S3 classification
	ErrBucketNotFound     = errors.New("bucket not found")
	ErrAccessDenied       = errors.New("access denied")
	ErrServiceUnavailable = errors.New("service temporarily unavailable")
	ErrOperationTimeout   = errors.New("operation timed out")
	ErrOperationCanceled  = errors.New("operation canceled")
)
