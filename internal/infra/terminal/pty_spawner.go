package terminal

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/creack/pty"

	"github.com/YoshitsuguKoike/evolve/internal/application/port/output"
)

const (
	DefaultTermName     = "xterm-color"
	DefaultCols         = 80
	DefaultRows         = 30
	DefaultDrainTimeout = 2 * time.Second

	readBufferSize = 4096
)

// PTYSpawner starts children attached to a pseudo-terminal.
// stdout and stderr share the terminal, so their interleaving is preserved.
type PTYSpawner struct {
	TermName     string
	Cols         uint16
	Rows         uint16
	DrainTimeout time.Duration
	// SizeFrom, when it is a terminal, overrides Cols/Rows with its size
	SizeFrom *os.File
}

// NewPTYSpawner creates a spawner with default terminal settings
func NewPTYSpawner() *PTYSpawner {
	return &PTYSpawner{
		TermName:     DefaultTermName,
		Cols:         DefaultCols,
		Rows:         DefaultRows,
		DrainTimeout: DefaultDrainTimeout,
	}
}

// Spawn implements output.ProcessSpawner
func (s *PTYSpawner) Spawn(ctx context.Context, inv output.Invocation) (output.ProcessSession, error) {
	if len(inv.Argv) == 0 {
		return nil, errors.New("empty command")
	}

	cmd := exec.CommandContext(ctx, inv.Argv[0], inv.Argv[1:]...)
	cmd.Dir = inv.Dir
	env := inv.Env
	if env == nil {
		env = os.Environ()
	}
	cmd.Env = append(env, "TERM="+s.termName())

	ptmx, err := pty.StartWithSize(cmd, s.winsize())
	if err != nil {
		return nil, err
	}

	sess := &ptySession{
		cmd:          cmd,
		ptmx:         ptmx,
		drainTimeout: s.drainTimeout(),
		raw:          make(chan []byte, 16),
		out:          make(chan []byte),
		exited:       make(chan struct{}),
		stop:         make(chan struct{}),
	}
	go sess.wait()
	go sess.pump()
	go sess.forward()
	return sess, nil
}

func (s *PTYSpawner) termName() string {
	if s.TermName == "" {
		return DefaultTermName
	}
	return s.TermName
}

func (s *PTYSpawner) drainTimeout() time.Duration {
	if s.DrainTimeout <= 0 {
		return DefaultDrainTimeout
	}
	return s.DrainTimeout
}

func (s *PTYSpawner) winsize() *pty.Winsize {
	cols, rows := s.Cols, s.Rows
	if s.SizeFrom != nil {
		if c, r, ok := Size(s.SizeFrom); ok {
			cols, rows = c, r
		}
	}
	if cols == 0 {
		cols = DefaultCols
	}
	if rows == 0 {
		rows = DefaultRows
	}
	return &pty.Winsize{Cols: cols, Rows: rows}
}

// ptySession owns three goroutines:
//   - wait reaps the child and records its exit code
//   - pump reads the pty master until EOF/EIO
//   - forward relays chunks to out and closes it once the stream is drained,
//     or once the drain timeout passes after the child exited
type ptySession struct {
	cmd          *exec.Cmd
	ptmx         *os.File
	drainTimeout time.Duration

	raw    chan []byte
	out    chan []byte
	exited chan struct{}
	stop   chan struct{}

	exitCode int
	waitErr  error

	closeOnce sync.Once
}

func (p *ptySession) Output() <-chan []byte {
	return p.out
}

func (p *ptySession) Wait() (int, error) {
	<-p.exited
	return p.exitCode, p.waitErr
}

func (p *ptySession) Close() error {
	var err error
	p.closeOnce.Do(func() {
		err = p.ptmx.Close()
	})
	return err
}

func (p *ptySession) wait() {
	defer close(p.exited)
	err := p.cmd.Wait()
	if err == nil {
		p.exitCode = 0
		return
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		// -1 when terminated by a signal
		p.exitCode = exitErr.ExitCode()
		return
	}
	p.exitCode = -1
	p.waitErr = fmt.Errorf("wait: %w", err)
}

func (p *ptySession) pump() {
	defer close(p.raw)
	buf := make([]byte, readBufferSize)
	for {
		n, err := p.ptmx.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			select {
			case p.raw <- chunk:
			case <-p.stop:
				return
			}
		}
		if err != nil {
			// EIO once the slave side is gone
			return
		}
	}
}

func (p *ptySession) forward() {
	defer close(p.out)
	defer close(p.stop)

	exited := p.exited
	var deadline <-chan time.Time
	for {
		select {
		case chunk, ok := <-p.raw:
			if !ok {
				return
			}
			p.out <- chunk
		case <-exited:
			exited = nil
			timer := time.NewTimer(p.drainTimeout)
			defer timer.Stop()
			deadline = timer.C
		case <-deadline:
			// A grandchild may still hold the slave open
			p.Close()
			return
		}
	}
}
