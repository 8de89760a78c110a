package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownFormat is returned for an export format that has no serializer.
	ErrUnknownFormat = errors.New("unknown export format")
	// ErrBillNotFound is returned when a stored bill cannot be loaded.
	ErrBillNotFound = errors.New("bill not found")
	// ErrNoBillSheet is returned by the workbook importer when the item sheet is missing.
	ErrNoBillSheet = errors.New("workbook has no \"Bill Quantity\" sheet")
)

// Problem is a single validation failure. Item is the 1-based position of the
// offending line item, or 0 for header fields and bill-wide rules.
type Problem struct {
	Item    int    `json:"item,omitempty"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (p Problem) String() string {
	if p.Item > 0 {
		return fmt.Sprintf("item %d: %s", p.Item, p.Message)
	}
	return p.Message
}

// ValidationError rejects a whole bill before any computation is attempted.
type ValidationError struct {
	Problems []Problem `json:"problems"`
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		msgs[i] = p.String()
	}
	return "invalid bill: " + strings.Join(msgs, "; ")
}

// ItemIndexes returns the 1-based indexes of items named in the problems.
func (e *ValidationError) ItemIndexes() []int {
	var idx []int
	seen := make(map[int]bool)
	for _, p := range e.Problems {
		if p.Item > 0 && !seen[p.Item] {
			seen[p.Item] = true
			idx = append(idx, p.Item)
		}
	}
	return idx
}

// SerializationError reports that one format's writer failed.
type SerializationError struct {
	Format Format
	Err    error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("serialize %s: %v", e.Format, e.Err)
}

func (e *SerializationError) Unwrap() error { return e.Err }

// TransportError reports a failed call to the remote PDF renderer.
type TransportError struct {
	StatusCode int // 0 when no response was received
	Attempts   int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("pdf renderer returned %d after %d attempt(s): %v", e.StatusCode, e.Attempts, e.Err)
	}
	return fmt.Sprintf("pdf renderer unreachable after %d attempt(s): %v", e.Attempts, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// DownloadError reports that generated bytes could not be delivered to their
// destination (HTTP response or file on disk).
type DownloadError struct {
	FileName string
	Err      error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("deliver %s: %v", e.FileName, e.Err)
}

func (e *DownloadError) Unwrap() error { return e.Err }
