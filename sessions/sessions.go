package sessions

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"
	"github.com/spawnkit/spawnkit/syncx"
	"github.com/spawnkit/spawnkit/util"
	"github.com/spawnkit/spawnkit/util/pspawn"
	"golang.org/x/sync/errgroup"
)

var ErrNotFound = errors.New("session not found")

type LaunchRequest struct {
	Args []string `json:"args"`
	Dir  string   `json:"dir,omitempty"`
	// extra KEY=VALUE pairs on top of the daemon's environment
	Env []string `json:"env,omitempty"`
	// nil = daemon default
	Disclaim *bool `json:"disclaim,omitempty"`
	// write combined output to a per-session log file
	CaptureOutput bool `json:"capture_output,omitempty"`
}

type Info struct {
	ID        string    `json:"id"`
	Args      []string  `json:"args"`
	Pid       int       `json:"pid"`
	Disclaim  bool      `json:"disclaim"`
	StartedAt time.Time `json:"started_at"`
	Running   bool      `json:"running"`

	// valid once Running is false
	ExitCode   int       `json:"exit_code"`
	ExitSignal string    `json:"exit_signal,omitempty"`
	ExitedAt   time.Time `json:"exited_at,omitempty"`

	LogFile string `json:"log_file,omitempty"`
}

type session struct {
	info    Info
	cmd     *pspawn.Cmd
	logFile *os.File
	doneCh  chan struct{}
}

// Registry tracks daemon-launched processes: running ones in a map, exited
// ones in a bounded history.
type Registry struct {
	mu      syncx.Mutex
	running map[string]*session
	exited  *lru.Cache[string, Info]

	defaultDisclaim func() bool
	logDir          string
}

func NewRegistry(historySize int, defaultDisclaim func() bool, logDir string) (*Registry, error) {
	exited, err := lru.New[string, Info](historySize)
	if err != nil {
		return nil, err
	}

	if logDir != "" {
		err := util.SetBackupExclude(logDir, true)
		if err != nil {
			logrus.WithError(err).Warn("failed to exclude session logs from backups")
		}
	}

	return &Registry{
		running:         make(map[string]*session),
		exited:          exited,
		defaultDisclaim: defaultDisclaim,
		logDir:          logDir,
	}, nil
}

func (r *Registry) Launch(req *LaunchRequest) (*Info, error) {
	if len(req.Args) == 0 {
		return nil, errors.New("empty args")
	}

	disclaim := r.defaultDisclaim()
	if req.Disclaim != nil {
		disclaim = *req.Disclaim
	}

	cmd := pspawn.Command(req.Args[0], req.Args[1:]...)
	cmd.Dir = req.Dir
	cmd.Env = append(os.Environ(), req.Env...)
	cmd.SysProcAttr = &syscall.SysProcAttr{
		// own session, no controlling tty
		Setsid: true,
	}
	pspawn.SetDisclaim(cmd, disclaim)

	sess := &session{
		cmd:    cmd,
		doneCh: make(chan struct{}),
	}
	sess.info = Info{
		ID:       uuid.NewString(),
		Args:     req.Args,
		Disclaim: disclaim,
		Running:  true,
	}

	if req.CaptureOutput {
		logFile, err := os.Create(r.logDir + "/" + sess.info.ID + ".log")
		if err != nil {
			return nil, fmt.Errorf("create session log: %w", err)
		}
		cmd.Stdout = logFile
		cmd.Stderr = logFile
		sess.logFile = logFile
		sess.info.LogFile = logFile.Name()
	}

	err := cmd.Start()
	if err != nil {
		if sess.logFile != nil {
			sess.logFile.Close()
			os.Remove(sess.logFile.Name())
		}
		return nil, err
	}
	sess.info.Pid = cmd.Process.Pid
	sess.info.StartedAt = time.Now()

	r.mu.Lock()
	r.running[sess.info.ID] = sess
	r.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"id":       sess.info.ID,
		"pid":      sess.info.Pid,
		"disclaim": disclaim,
	}).Info("session launched")

	go r.reap(sess)

	info := sess.info
	return &info, nil
}

func (r *Registry) reap(sess *session) {
	err := sess.cmd.Wait()

	info := sess.info
	info.Running = false
	info.ExitedAt = time.Now()
	if state := sess.cmd.ProcessState; state != nil {
		info.ExitCode = state.ExitCode()
		if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
			info.ExitSignal = ws.Signal().String()
		}
	} else if err != nil {
		info.ExitCode = -1
	}

	if sess.logFile != nil {
		sess.logFile.Close()
	}

	r.mu.Lock()
	delete(r.running, info.ID)
	r.exited.Add(info.ID, info)
	sess.info = info
	r.mu.Unlock()

	close(sess.doneCh)

	logrus.WithFields(logrus.Fields{
		"id":   info.ID,
		"code": info.ExitCode,
	}).Debug("session exited")
}

// resolveID resolves an exact session ID or a unique ID prefix.
// Caller must hold r.mu.
func (r *Registry) resolveID(id string) (string, error) {
	if id == "" {
		return "", fmt.Errorf("%w: empty id", ErrNotFound)
	}
	if _, ok := r.running[id]; ok {
		return id, nil
	}
	if r.exited.Contains(id) {
		return id, nil
	}

	match := ""
	for full := range r.running {
		if strings.HasPrefix(full, id) {
			if match != "" {
				return "", fmt.Errorf("ambiguous session id prefix: %s", id)
			}
			match = full
		}
	}
	for _, full := range r.exited.Keys() {
		if strings.HasPrefix(full, id) {
			if match != "" {
				return "", fmt.Errorf("ambiguous session id prefix: %s", id)
			}
			match = full
		}
	}
	if match == "" {
		return "", fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	return match, nil
}

// Wait blocks until the session exits and returns its final state.
func (r *Registry) Wait(id string) (*Info, error) {
	r.mu.Lock()
	id, err := r.resolveID(id)
	if err != nil {
		r.mu.Unlock()
		return nil, err
	}
	sess, ok := r.running[id]
	if !ok {
		// exited already
		info, _ := r.exited.Get(id)
		r.mu.Unlock()
		return &info, nil
	}
	r.mu.Unlock()

	<-sess.doneCh

	r.mu.Lock()
	defer r.mu.Unlock()
	info := sess.info
	return &info, nil
}

func (r *Registry) Signal(id string, sig os.Signal) error {
	r.mu.Lock()
	id, err := r.resolveID(id)
	if err != nil {
		r.mu.Unlock()
		return err
	}
	sess, ok := r.running[id]
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("session not running: %s", id)
	}

	return sess.cmd.Process.Signal(sig)
}

func (r *Registry) Get(id string) (*Info, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, err := r.resolveID(id)
	if err != nil {
		return nil, err
	}
	if sess, ok := r.running[id]; ok {
		info := sess.info
		return &info, nil
	}
	info, _ := r.exited.Get(id)
	return &info, nil
}

// List returns running sessions first, then exited history (oldest first).
func (r *Registry) List() []Info {
	r.mu.Lock()
	defer r.mu.Unlock()

	infos := make([]Info, 0, len(r.running)+r.exited.Len())
	for _, sess := range r.running {
		infos = append(infos, sess.info)
	}
	for _, id := range r.exited.Keys() {
		if info, ok := r.exited.Peek(id); ok {
			infos = append(infos, info)
		}
	}
	return infos
}

// SetHistorySize resizes the exited-session history, evicting oldest first.
func (r *Registry) SetHistorySize(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.exited.Resize(n)
}

// Shutdown TERMs every running session, then KILLs stragglers after grace.
func (r *Registry) Shutdown(grace time.Duration) {
	r.mu.Lock()
	sessions := make([]*session, 0, len(r.running))
	for _, sess := range r.running {
		sessions = append(sessions, sess)
	}
	r.mu.Unlock()

	var eg errgroup.Group
	for _, sess := range sessions {
		sess := sess
		eg.Go(func() error {
			_ = sess.cmd.Process.Signal(syscall.SIGTERM)
			// each session gets its own timer: time.After is one-shot, so a
			// shared channel would only ever escalate one straggler
			timer := time.NewTimer(grace)
			defer timer.Stop()
			select {
			case <-sess.doneCh:
			case <-timer.C:
				_ = sess.cmd.Process.Kill()
				<-sess.doneCh
			}
			return nil
		})
	}
	_ = eg.Wait()
}
