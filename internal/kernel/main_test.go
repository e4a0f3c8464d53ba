package kernel

import (
	"testing"

	"go.uber.org/goleak"
)

// TestMain fails the package when event bus or driver workers outlive their tests.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
