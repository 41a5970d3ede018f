package cli

import "errors"

// ErrUsage marks command-line misuse of apidoc2openapi: missing or
// contradictory flags, bad config files, unknown API variants. main
// exits nonzero either way; the sentinel lets tests and callers tell
// operator mistakes apart from conversion failures.
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
