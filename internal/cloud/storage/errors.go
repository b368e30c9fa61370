// Package storage classifies failures of hosted uploads and media
// downloads so callers can give the user an actionable message.
package storage

import (
	"errors"
	"strings"
)

var (
	// ErrInsufficientSpace indicates the local disk filled up during a download.
	ErrInsufficientSpace = errors.New("insufficient disk space")
	// ErrRemoteChanged indicates the hosted file changed between resumed reads.
	ErrRemoteChanged = errors.New("remote file changed during download")
	// ErrEmptyFile is returned when a zero-byte file is offered for upload.
	ErrEmptyFile = errors.New("file is empty")
)

func containsAny(err error, indicators ...string) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	for _, indicator := range indicators {
		if strings.Contains(errStr, indicator) {
			return true
		}
	}
	return false
}

// IsDiskFullError checks if an error is likely caused by running out of disk space.
func IsDiskFullError(err error) bool {
	if errors.Is(err, ErrInsufficientSpace) {
		return true
	}
	return containsAny(err,
		"no space left on device", // Linux/Unix
		"disk full",
		"out of disk space",       // Windows
		"insufficient disk space", // Windows
		"not enough space",
		"enospc",
		"disk quota exceeded",
	)
}

// IsNetworkError checks if an error is network-related.
func IsNetworkError(err error) bool {
	return containsAny(err,
		"connection",
		"timeout",
		"network",
		"eof",
		"broken pipe",
		"tls handshake",
	)
}

// IsCredentialError checks if the storage service rejected our credentials,
// an unsigned preset or an expired SAS token.
func IsCredentialError(err error) bool {
	return containsAny(err,
		"403",
		"401",
		"unauthorized",
		"forbidden",
		"expired",
		"invalid token",
		"invalidaccesskeyid",
		"signaturedoesnotmatch",
		"authenticationfailed",
		"upload preset",
	)
}

// Hint returns a short user-facing explanation for err, or "".
func Hint(err error) string {
	switch {
	case err == nil:
		return ""
	case IsDiskFullError(err):
		return "the destination disk is full"
	case IsCredentialError(err):
		return "the storage service rejected the credentials; check the [upload] settings"
	case IsNetworkError(err):
		return "network problem; check connectivity and proxy settings"
	}
	return ""
}
