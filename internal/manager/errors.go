package manager

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"go.klb.dev/clipmgr/internal/clip"
)

// ErrEmpty is returned by Get and GetCurrentClip when the call succeeded but
// the daemon had no data to return. It is never wrapped in a status error.
var ErrEmpty = errors.New("no clip data")

// The error types below wrap a failed remote call. Err is the transport
// failure (usually a gRPC status error); the remaining fields are the
// request parameters of the failed call.

// GetError is returned when Get fails in transport.
type GetError struct {
	ID  uint64
	Err error
}

func (e *GetError) Error() string { return fmt.Sprintf("get clip %d: %v", e.ID, e.Err) }
func (e *GetError) Unwrap() error { return e.Err }

// GetCurrentClipError is returned when GetCurrentClip fails in transport.
type GetCurrentClipError struct {
	Mode clip.Mode
	Err  error
}

func (e *GetCurrentClipError) Error() string {
	return fmt.Sprintf("get current %s clip: %v", e.Mode, e.Err)
}
func (e *GetCurrentClipError) Unwrap() error { return e.Err }

// UpdateError is returned when Update fails in transport.
type UpdateError struct {
	ID  uint64
	Err error
}

func (e *UpdateError) Error() string { return fmt.Sprintf("update clip %d: %v", e.ID, e.Err) }
func (e *UpdateError) Unwrap() error { return e.Err }

// MarkError is returned when Mark fails in transport.
type MarkError struct {
	ID   uint64
	Mode clip.Mode
	Err  error
}

func (e *MarkError) Error() string {
	return fmt.Sprintf("mark clip %d as %s: %v", e.ID, e.Mode, e.Err)
}
func (e *MarkError) Unwrap() error { return e.Err }

// InsertError is returned when Insert fails in transport.
type InsertError struct {
	Mode clip.Mode
	Err  error
}

func (e *InsertError) Error() string { return fmt.Sprintf("insert %s clip: %v", e.Mode, e.Err) }
func (e *InsertError) Unwrap() error { return e.Err }

// LengthError is returned when Length fails in transport.
type LengthError struct {
	Err error
}

func (e *LengthError) Error() string { return fmt.Sprintf("get history length: %v", e.Err) }
func (e *LengthError) Unwrap() error { return e.Err }

// ListError is returned when List fails in transport.
type ListError struct {
	Err error
}

func (e *ListError) Error() string { return fmt.Sprintf("list clips: %v", e.Err) }
func (e *ListError) Unwrap() error { return e.Err }

// RemoveError is returned when Remove fails in transport.
type RemoveError struct {
	ID  uint64
	Err error
}

func (e *RemoveError) Error() string { return fmt.Sprintf("remove clip %d: %v", e.ID, e.Err) }
func (e *RemoveError) Unwrap() error { return e.Err }

// BatchRemoveError is returned when BatchRemove fails in transport.
type BatchRemoveError struct {
	IDs []uint64
	Err error
}

func (e *BatchRemoveError) Error() string {
	return fmt.Sprintf("remove %d clips: %v", len(e.IDs), e.Err)
}
func (e *BatchRemoveError) Unwrap() error { return e.Err }

// ClearError is returned when Clear fails in transport.
type ClearError struct {
	Err error
}

func (e *ClearError) Error() string { return fmt.Sprintf("clear clips: %v", e.Err) }
func (e *ClearError) Unwrap() error { return e.Err }

// Code returns the gRPC status code carried by err. It is codes.OK for nil,
// codes.NotFound for ErrEmpty and codes.Unknown for errors without a status.
func Code(err error) codes.Code {
	switch {
	case err == nil:
		return codes.OK
	case errors.Is(err, ErrEmpty):
		return codes.NotFound
	}
	if s, ok := status.FromError(err); ok {
		return s.Code()
	}
	return codes.Unknown
}

// Temporary reports whether err is a transport failure that a caller-level
// retry policy may reasonably retry. ErrEmpty is a definitive answer and is
// never temporary.
func Temporary(err error) bool {
	if err == nil || errors.Is(err, ErrEmpty) {
		return false
	}
	switch Code(err) {
	case codes.Unavailable, codes.DeadlineExceeded, codes.ResourceExhausted, codes.Aborted:
		return true
	}
	return false
}
