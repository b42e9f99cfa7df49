package svm

import "fmt"

// DimensionError reports inputs whose shape cannot be fitted or evaluated:
// mismatched row and label counts, a single-class label vector, or a
// feature count that differs from the fitted one.
type DimensionError struct {
	Reason string
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("dimension error: %s", e.Reason)
}

func dimErrorf(format string, v ...interface{}) error {
	return &DimensionError{Reason: fmt.Sprintf(format, v...)}
}
