// Package common defines shared constants and sentinel errors used across
// client and server layers. Callers should use errors.Is to match these.
package common

import "errors"

var (
	// repository-level errors
	ErrorNotFound = errors.New("not found")

	// service-level errors
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// auth errors
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	// ErrEmptySnapshotRejected is returned by the snapshot store when a
	// save would replace existing non-empty data with an all-empty
	// snapshot. The client adopts the server copy instead of retrying.
	ErrEmptySnapshotRejected = errors.New("empty_snapshot_rejected")
)
