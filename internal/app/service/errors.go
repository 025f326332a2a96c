package service

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/mrops-br/hardware-storefront/internal/blob"
	"github.com/mrops-br/hardware-storefront/internal/domain"
)

// GenericErrorMessage is shown when an error carries no readable reason.
const GenericErrorMessage = "An unexpected error occurred. Please try again."

// ReadFileMessage is shown when a selected local file cannot be read.
const ReadFileMessage = "The selected file could not be read. Please choose it again."

var (
	ErrSessionClosed    = errors.New("edit session is closed")
	ErrSubmitInProgress = errors.New("a submit is already in progress")
)

var rejectReason = regexp.MustCompile(`Reject text: (.+)`)

// ValidationError is a local input problem detected before any backend call.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string { return e.Err.Error() }

func (e *ValidationError) Unwrap() error { return e.Err }

func invalid(err error) error {
	return &ValidationError{Err: err}
}

// BulkError reports the item that stopped a bulk create. Items before it
// stay created.
type BulkError struct {
	// Item is the 1-based position of the failed input.
	Item    int
	Total   int
	Name    string
	Created int
	Err     error
}

func (e *BulkError) Error() string {
	return fmt.Sprintf("failed to create item %d of %d (%q): %s", e.Item, e.Total, e.Name, UserMessage(e.Err))
}

func (e *BulkError) Unwrap() error { return e.Err }

// UserMessage turns err into a single line fit for display.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var be *BulkError
	if errors.As(err, &be) {
		return be.Error()
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Error()
	}

	if m := rejectReason.FindStringSubmatch(err.Error()); m != nil {
		if reason := strings.TrimSpace(m[1]); reason != "" {
			return reason
		}
	}

	switch {
	case errors.Is(err, domain.ErrProductNotFound):
		return "Product not found"
	case errors.Is(err, domain.ErrUnauthorized):
		return "You are not authorized to perform this action"
	case errors.Is(err, blob.ErrReadFile):
		return ReadFileMessage
	case errors.Is(err, ErrSessionClosed), errors.Is(err, ErrSubmitInProgress):
		return err.Error()
	}
	return GenericErrorMessage
}
