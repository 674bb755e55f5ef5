package generator

import (
	"testing"

	"go.uber.org/goleak"
)

// TestMain ensures the errgroup fan-out across (builder, binary) pairs
// never leaves a goroutine running past the generate call that spawned it.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
