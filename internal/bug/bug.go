// Package bug reports violations of internal contracts, the kind of failure
// that only a programming error can produce.
package bug

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrContractViolation is matched by every error produced by Errorf.
var ErrContractViolation = errors.New("BUG")

// Based on: https://stackoverflow.com/a/58945030
func isInTests() bool {
	for _, arg := range os.Args {
		if strings.HasPrefix(arg, "-test.") {
			return true
		}
	}
	return false
}

// Errorf returns an error describing a contract violation. It panics when run
// under `go test` so violations cannot go unnoticed there.
func Errorf(format string, args ...any) error {
	err := fmt.Errorf("%w: %s", ErrContractViolation, fmt.Sprintf(format, args...))
	if isInTests() {
		panic(err.Error())
	}
	return err
}
