package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrQueryTimeout marks a single retrieval path that exceeded its deadline.
	ErrQueryTimeout = errors.New("query timeout")
	// ErrQueryFailure marks any other single-path fault (bad filter, lost connection).
	ErrQueryFailure = errors.New("query failure")
	// ErrBothPathsFailed is raised only when structured and semantic retrieval both failed.
	ErrBothPathsFailed = errors.New("both retrieval paths failed")
	// ErrUnclassifiableIntent means no domain matched the question and no hints were given.
	ErrUnclassifiableIntent = errors.New("unclassifiable intent")

	ErrDocumentNotFound = errors.New("document not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrTemporary        = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
