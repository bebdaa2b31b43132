package cli

import (
	"testing"

	"go.uber.org/goleak"
)

// TestMain runs goleak verification for the entire package
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		// signal.Notify starts a receiver that lives for the process
		goleak.IgnoreTopFunction("os/signal.signal_recv"),
		goleak.IgnoreTopFunction("os/signal.loop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
	)
}
