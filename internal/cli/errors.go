package cli

import (
	"errors"
	"fmt"

	"github.com/mark3labs/restgen/internal/spec"
)

var ErrUsage = errors.New("cli usage error")

type usageError struct {
	msg string
}

func newUsageError(msg string) error {
	return usageError{msg: msg}
}

func (e usageError) Error() string {
	return e.msg
}

func (e usageError) Is(target error) bool {
	return target == ErrUsage
}

// specUsageError turns ingestion failures the user can fix into usage errors
// that name the offending file. Other errors pass through unchanged.
func specUsageError(err error) error {
	var se *spec.SpecError
	if !errors.As(err, &se) {
		return err
	}
	msg := fmt.Sprintf("spec: %s", se.Message)
	if se.Location != "" {
		msg = fmt.Sprintf("%s\nLocation: %s", msg, se.Location)
	}
	switch se.Code {
	case spec.MissingPrerequisite:
		msg += "\nHint: --root must point at a rest-api-spec tree containing Core/_common.json."
	case spec.IntegrityError:
		msg += "\nHint: every endpoint key must be defined by exactly one file."
	}
	return newUsageError(msg)
}
