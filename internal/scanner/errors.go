package scanner

import (
	"errors"
	"fmt"
	"strings"
)

// Per-key estimation failures. Both are absorbed by the pipeline: the
// candidate is dropped, the skip counter bumped, and the scan goes on.
var (
	// ErrUnsupportedType marks a key whose value type the estimator
	// does not know how to size (module types and the like).
	ErrUnsupportedType = errors.New("unsupported key type")

	// ErrKeyExpired marks a key that vanished between discovery and
	// estimation.
	ErrKeyExpired = errors.New("key expired before estimation")
)

// ScanError is a node-scoped failure. Transient errors are retried
// against a fresh connection with backoff; fatal ones end that node's
// pipeline while the rest of the run continues.
type ScanError struct {
	Node      string
	Transient bool
	Err       error
}

func (e *ScanError) Error() string {
	kind := "fatal"
	if e.Transient {
		kind = "transient"
	}
	return fmt.Sprintf("scan error on %s (%s): %v", e.Node, kind, e.Err)
}

func (e *ScanError) Unwrap() error {
	return e.Err
}

// classifyScanError wraps a store error for one node. Most network
// failures, including timeouts, are worth retrying from the same
// cursor; authentication and cursor-state failures are not.
func classifyScanError(node string, err error) *ScanError {
	return &ScanError{Node: node, Transient: !isFatalStoreError(err), Err: err}
}

// isFatalStoreError reports store replies that no amount of retrying
// will fix.
func isFatalStoreError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, marker := range []string{"NOAUTH", "WRONGPASS", "NOPERM", "invalid cursor"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
