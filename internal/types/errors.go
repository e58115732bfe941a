package types

import (
	"errors"
	"net/http"
)

// ErrorKind classifies upload and health-check failures.
type ErrorKind string

const (
	KindNoFileProvided        ErrorKind = "NoFileProvided"
	KindProviderNotConfigured ErrorKind = "ProviderNotConfigured"
	KindProviderQuotaExceeded ErrorKind = "ProviderQuotaExceeded"
	KindNetworkUnreachable    ErrorKind = "NetworkUnreachable"
	KindTimeout               ErrorKind = "Timeout"
	KindInvalidFileType       ErrorKind = "InvalidFileType"
	KindFileTooLarge          ErrorKind = "FileTooLarge"
	KindUnknown               ErrorKind = "Unknown"
)

// HTTPStatus is the status the backend answers with for this kind.
func (k ErrorKind) HTTPStatus() int {
	switch k {
	case KindNoFileProvided, KindInvalidFileType, KindFileTooLarge:
		return http.StatusBadRequest
	case KindProviderQuotaExceeded:
		return http.StatusTooManyRequests
	case KindNetworkUnreachable, KindTimeout:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Category is the user-facing label shown by clients.
func (k ErrorKind) Category() string {
	switch k {
	case KindTimeout:
		return "Timeout"
	case KindNetworkUnreachable:
		return "Unreachable"
	case KindProviderQuotaExceeded:
		return "QuotaExceeded"
	case KindProviderNotConfigured:
		return "ServiceUnavailable"
	default:
		return "Unknown"
	}
}

// UserMessage is a readable explanation suitable for display.
func (k ErrorKind) UserMessage() string {
	switch k {
	case KindNoFileProvided:
		return "No file was provided."
	case KindProviderNotConfigured:
		return "The upload service is not configured. Please try again later."
	case KindProviderQuotaExceeded:
		return "The upload quota has been exceeded. Please try again later."
	case KindNetworkUnreachable:
		return "The upload service cannot be reached. Check your connection."
	case KindTimeout:
		return "The upload timed out. Please try again with a smaller file."
	case KindInvalidFileType:
		return "This file type is not supported."
	case KindFileTooLarge:
		return "The file is too large."
	default:
		return "The upload failed for an unknown reason."
	}
}

// UploadError carries a classified failure. Message is shown verbatim to users.
type UploadError struct {
	Kind       ErrorKind
	Message    string
	StatusCode int
	Err        error
}

// NewUploadError builds an UploadError; an empty message uses the kind's default.
func NewUploadError(kind ErrorKind, message string, err error) *UploadError {
	if message == "" {
		message = kind.UserMessage()
	}
	return &UploadError{Kind: kind, Message: message, Err: err}
}

func (e *UploadError) Error() string {
	return e.Message
}

func (e *UploadError) Unwrap() error {
	return e.Err
}

// KindOf extracts the kind of err, KindUnknown when it is not an UploadError.
func KindOf(err error) ErrorKind {
	var ue *UploadError
	if errors.As(err, &ue) {
		return ue.Kind
	}
	return KindUnknown
}

// IsKind reports whether err is an UploadError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}
