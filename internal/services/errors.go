package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrFetchFailed         = errors.New("fetch failed")
	ErrNotFound            = errors.New("not found")
	ErrTranscriptionFailed = errors.New("transcription failed")
	ErrStoreUnavailable    = errors.New("store unavailable")
	ErrConfiguration       = errors.New("configuration error")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrConfiguration
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

var kindLabels = []struct {
	marker error
	label  string
}{
	{ErrInvalidInput, "invalid_input"},
	{ErrFetchFailed, "fetch_failed"},
	{ErrNotFound, "not_found"},
	{ErrTranscriptionFailed, "transcription_failed"},
	{ErrStoreUnavailable, "store_unavailable"},
	{ErrConfiguration, "configuration"},
}

// Kind returns a short machine-readable label for the outermost marker
// carried by err. A marker added while wrapping wins over one in the cause.
func Kind(err error) string {
	if err == nil {
		return ""
	}
	if marker := outermostMarker(err); marker != nil {
		for _, k := range kindLabels {
			if k.marker == marker {
				return k.label
			}
		}
	}
	return "internal"
}

// outermostMarker walks the error tree depth first, in wrap order.
func outermostMarker(err error) error {
	if err == nil {
		return nil
	}
	for _, k := range kindLabels {
		if err == k.marker {
			return err
		}
	}
	switch x := err.(type) {
	case interface{ Unwrap() []error }:
		for _, inner := range x.Unwrap() {
			if marker := outermostMarker(inner); marker != nil {
				return marker
			}
		}
	case interface{ Unwrap() error }:
		return outermostMarker(x.Unwrap())
	}
	return nil
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
