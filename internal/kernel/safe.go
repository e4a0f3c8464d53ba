package kernel

import (
	"fmt"
)

// runSafely executes fn at a goroutine or lifecycle boundary, converting both
// returned errors and panics into scope-tagged errors so a misbehaving module
// or driver cannot take the process down.
func runSafely(scope string, fn func() error) (err error) {
	defer func() {
		recovered := recover()
		if recovered == nil {
			return
		}
		err = fmt.Errorf("%s: recovered from panic: %v", scope, recovered)
	}()

	if err := fn(); err != nil {
		return fmt.Errorf("%s: %w", scope, err)
	}

	return nil
}
