package output

import (
	"context"
	"io"
)

// Invocation describes one child process to spawn
type Invocation struct {
	Argv []string
	Dir  string
	Env  []string
}

// ProcessSpawner starts a child attached to a terminal-like channel
type ProcessSpawner interface {
	Spawn(ctx context.Context, inv Invocation) (ProcessSession, error)
}

// ProcessSession is a running child.
// Output yields chunks in emission order and is closed once the stream is
// fully drained. Wait blocks until the child terminates and returns its
// exit code; callers drain Output before relying on the result.
type ProcessSession interface {
	Output() <-chan []byte
	Wait() (exitCode int, err error)
	io.Closer
}
