//go:build darwin

package pspawn

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"strings"
	"syscall"
)

// reuse os/exec error types so callers can match on them regardless of
// which implementation spawned the process
type Error = exec.Error
type ExitError = exec.ExitError

var ErrNotFound = exec.ErrNotFound

// Cmd mirrors the exec.Cmd surface we use, but spawns through posix_spawn
// (see process_darwin.go) and accepts PspawnAttr.
type Cmd struct {
	Path string
	Args []string
	Env  []string
	Dir  string

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	ExtraFiles []*os.File

	SysProcAttr *syscall.SysProcAttr
	PspawnAttr  *PspawnAttr

	Process      *os.Process
	ProcessState *os.ProcessState

	// LookPath error deferred to Start, like os/exec
	Err error

	ctx context.Context

	// child-side fds we must close once the child owns them
	postStartClose []io.Closer
	// everything to close if Start fails before the copiers run
	abortClose []io.Closer
	copiers    []func() error
	copyErrCh  chan error
	waitDone   chan struct{}
}

func Command(name string, arg ...string) *Cmd {
	cmd := &Cmd{
		Path: name,
		Args: append([]string{name}, arg...),
	}
	if !strings.Contains(name, "/") {
		path, err := exec.LookPath(name)
		if err != nil {
			cmd.Err = err
		} else {
			cmd.Path = path
		}
	}
	return cmd
}

func CommandContext(ctx context.Context, name string, arg ...string) *Cmd {
	if ctx == nil {
		panic("pspawn: nil Context")
	}
	cmd := Command(name, arg...)
	cmd.ctx = ctx
	return cmd
}

// SetDisclaim marks cmd to disclaim TCC responsibility on start.
func SetDisclaim(cmd *Cmd, disclaim bool) {
	if cmd.PspawnAttr == nil {
		if !disclaim {
			return
		}
		cmd.PspawnAttr = &PspawnAttr{}
	}
	cmd.PspawnAttr.DisclaimTCCResponsibility = disclaim
}

func interfaceEqual(a, b any) bool {
	defer func() {
		_ = recover()
	}()
	return a != nil && a == b
}

func (c *Cmd) childStdin() (*os.File, error) {
	if c.Stdin == nil {
		f, err := os.Open(os.DevNull)
		if err != nil {
			return nil, err
		}
		c.postStartClose = append(c.postStartClose, f)
		return f, nil
	}

	if f, ok := c.Stdin.(*os.File); ok {
		return f, nil
	}

	pr, pw, err := os.Pipe()
	if err != nil {
		return nil, err
	}
	c.postStartClose = append(c.postStartClose, pr)
	c.abortClose = append(c.abortClose, pw)
	c.copiers = append(c.copiers, func() error {
		_, err := io.Copy(pw, c.Stdin)
		if errors.Is(err, syscall.EPIPE) {
			// child stopped reading
			err = nil
		}
		if err1 := pw.Close(); err == nil {
			err = err1
		}
		return err
	})
	return pr, nil
}

func (c *Cmd) childOutput(w io.Writer) (*os.File, error) {
	if w == nil {
		f, err := os.OpenFile(os.DevNull, os.O_WRONLY, 0)
		if err != nil {
			return nil, err
		}
		c.postStartClose = append(c.postStartClose, f)
		return f, nil
	}

	if f, ok := w.(*os.File); ok {
		return f, nil
	}

	pr, pw, err := os.Pipe()
	if err != nil {
		return nil, err
	}
	c.postStartClose = append(c.postStartClose, pw)
	c.abortClose = append(c.abortClose, pr)
	c.copiers = append(c.copiers, func() error {
		_, err := io.Copy(w, pr)
		pr.Close()
		return err
	})
	return pw, nil
}

func (c *Cmd) closeAfterAbort() {
	for _, f := range c.postStartClose {
		f.Close()
	}
	for _, f := range c.abortClose {
		f.Close()
	}
	c.postStartClose = nil
	c.abortClose = nil
	c.copiers = nil
}

func (c *Cmd) Start() error {
	if c.Err != nil {
		return c.Err
	}
	if c.Process != nil {
		return errors.New("pspawn: already started")
	}
	if c.ctx != nil {
		if err := c.ctx.Err(); err != nil {
			return err
		}
	}

	stdin, err := c.childStdin()
	if err != nil {
		c.closeAfterAbort()
		return err
	}
	stdout, err := c.childOutput(c.Stdout)
	if err != nil {
		c.closeAfterAbort()
		return err
	}
	stderr := stdout
	if !interfaceEqual(c.Stderr, c.Stdout) {
		stderr, err = c.childOutput(c.Stderr)
		if err != nil {
			c.closeAfterAbort()
			return err
		}
	}

	files := []*os.File{stdin, stdout, stderr}
	files = append(files, c.ExtraFiles...)

	env := c.Env
	if env == nil {
		env = os.Environ()
	}

	c.Process, err = StartProcess(c.Path, c.Args, &os.ProcAttr{
		Dir:   c.Dir,
		Env:   env,
		Files: files,
		Sys:   c.SysProcAttr,
	}, c.PspawnAttr)
	if err != nil {
		c.closeAfterAbort()
		return err
	}

	// the child owns its dup'd fds now
	for _, f := range c.postStartClose {
		f.Close()
	}
	c.postStartClose = nil
	c.abortClose = nil

	if len(c.copiers) > 0 {
		c.copyErrCh = make(chan error, len(c.copiers))
		for _, fn := range c.copiers {
			go func(fn func() error) {
				c.copyErrCh <- fn()
			}(fn)
		}
	}

	if c.ctx != nil {
		c.waitDone = make(chan struct{})
		go func() {
			select {
			case <-c.ctx.Done():
				_ = c.Process.Kill()
			case <-c.waitDone:
			}
		}()
	}

	return nil
}

func (c *Cmd) Wait() error {
	if c.Process == nil {
		return errors.New("pspawn: not started")
	}
	if c.ProcessState != nil {
		return errors.New("pspawn: Wait was already called")
	}

	state, waitErr := c.Process.Wait()
	if c.waitDone != nil {
		close(c.waitDone)
	}
	c.ProcessState = state

	var copyErr error
	for range c.copiers {
		if err := <-c.copyErrCh; err != nil && copyErr == nil {
			copyErr = err
		}
	}
	c.copiers = nil

	if waitErr != nil {
		return waitErr
	}
	if !state.Success() {
		return &ExitError{ProcessState: state}
	}
	return copyErr
}

func (c *Cmd) Run() error {
	if err := c.Start(); err != nil {
		return err
	}
	return c.Wait()
}

func (c *Cmd) Output() ([]byte, error) {
	if c.Stdout != nil {
		return nil, errors.New("pspawn: Stdout already set")
	}
	var stdout bytes.Buffer
	c.Stdout = &stdout

	captureErr := c.Stderr == nil
	var stderr bytes.Buffer
	if captureErr {
		c.Stderr = &stderr
	}

	err := c.Run()
	if err != nil && captureErr {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			exitErr.Stderr = stderr.Bytes()
		}
	}
	return stdout.Bytes(), err
}

func (c *Cmd) CombinedOutput() ([]byte, error) {
	if c.Stdout != nil {
		return nil, errors.New("pspawn: Stdout already set")
	}
	if c.Stderr != nil {
		return nil, errors.New("pspawn: Stderr already set")
	}
	var buf bytes.Buffer
	c.Stdout = &buf
	c.Stderr = &buf
	err := c.Run()
	return buf.Bytes(), err
}
