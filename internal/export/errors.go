package export

import "errors"

var (
	ErrEmptyContent       = errors.New("qr content cannot be empty")
	ErrQRCodeFailed       = errors.New("failed to generate QR code")
	ErrRenderFailed       = errors.New("failed to render PDF")
	ErrInvalidConfig      = errors.New("invalid storage configuration")
	ErrLoadConfig         = errors.New("failed to load AWS configuration")
	ErrAccessDenied       = errors.New("storage access denied")
	ErrBucketNotFound     = errors.New("storage bucket not found")
	ErrOperationTimeout   = errors.New("storage operation timed out")
	ErrServiceUnavailable = errors.New("storage service unavailable")
)
