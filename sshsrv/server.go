//go:build unix

package sshsrv

import (
	"encoding/json"
	"errors"
	"io"
	"net"
	"os"
	"path/filepath"
	"syscall"

	"github.com/creack/pty"
	"github.com/gliderlabs/ssh"
	"github.com/sirupsen/logrus"
	"github.com/spawnkit/spawnkit/sshsrv/sshtypes"
	"github.com/spawnkit/spawnkit/sshsrv/termios"
	"github.com/spawnkit/spawnkit/util/envutil"
	"github.com/spawnkit/spawnkit/util/pspawn"
	"github.com/spawnkit/spawnkit/util/userutil"
	"golang.org/x/sys/unix"
)

var (
	sshSigMap = map[ssh.Signal]os.Signal{
		ssh.SIGABRT: unix.SIGABRT,
		ssh.SIGALRM: unix.SIGALRM,
		ssh.SIGFPE:  unix.SIGFPE,
		ssh.SIGHUP:  unix.SIGHUP,
		ssh.SIGILL:  unix.SIGILL,
		ssh.SIGINT:  unix.SIGINT,
		ssh.SIGKILL: unix.SIGKILL,
		ssh.SIGPIPE: unix.SIGPIPE,
		ssh.SIGQUIT: unix.SIGQUIT,
		ssh.SIGSEGV: unix.SIGSEGV,
		ssh.SIGTERM: unix.SIGTERM,
		ssh.SIGUSR1: unix.SIGUSR1,
		ssh.SIGUSR2: unix.SIGUSR2,
	}

	defaultMeta = sshtypes.SessionMeta{
		RawCommand: false,
		PtyStdin:   true,
		PtyStdout:  true,
		PtyStderr:  true,
	}
)

const (
	fdStdin  = 0
	fdStdout = 1
	fdStderr = 2
)

type Server struct {
	hostKeyPath string
	// daemon config default for sessions that don't say
	defaultDisclaim func() bool
}

func New(hostKeyPath string, defaultDisclaim func() bool) *Server {
	return &Server{
		hostKeyPath:     hostKeyPath,
		defaultDisclaim: defaultDisclaim,
	}
}

func strp(s *string) string {
	if s == nil {
		return ""
	}

	return *s
}

func (srv *Server) handleConn(s ssh.Session) error {
	ptyReq, winCh, isPty := s.Pty()

	// new env based on ours as a starting point (this is a copy)
	env := envutil.ToMap(os.Environ())

	// add everything from client
	var meta sshtypes.SessionMeta
	for _, kv := range s.Environ() {
		env.SetPair(kv)
	}
	if metaStr, ok := env[sshtypes.KeyMeta]; ok {
		err := json.Unmarshal([]byte(metaStr), &meta)
		if err != nil {
			return err
		}
		delete(env, sshtypes.KeyMeta)
	} else {
		meta = defaultMeta
	}

	disclaim := srv.defaultDisclaim()
	if meta.Disclaim != nil {
		disclaim = *meta.Disclaim
	}

	logrus.WithFields(logrus.Fields{
		"pty":      isPty,
		"user":     s.User(),
		"cmd":      s.RawCommand(),
		"disclaim": disclaim,
		"argv0":    strp(meta.Argv0),
	}).Debug("SSH connection")

	// pwd
	var err error
	pwd := meta.Pwd
	if pwd == "" {
		pwd, err = os.UserHomeDir()
		if err != nil {
			return err
		}
	}
	// make sure pwd is valid, or exec will fail
	if err := unix.Access(pwd, unix.X_OK); err != nil {
		// reset to / if not
		pwd = "/"
	}

	// set basic conn-specific envs
	if isPty {
		env["TERM"] = ptyReq.Term
	}
	env["PWD"] = pwd
	env["SSH_CONNECTION"] = "::1 0 ::1 22"

	var combinedArgs []string
	argv0 := meta.Argv0
	if meta.RawCommand {
		// raw command (JSON)
		err = json.Unmarshal([]byte(s.RawCommand()), &combinedArgs)
		if err != nil {
			return err
		}
	} else {
		// get shell in case it changed
		shell, err := userutil.GetShell()
		if err != nil {
			return err
		}
		combinedArgs = []string{shell}
		if s.RawCommand() != "" {
			combinedArgs = append(combinedArgs, "-c", s.RawCommand())
		}
		// force login shell
		base := filepath.Base(shell)
		loginArgv0 := "-" + base
		if argv0 == nil {
			argv0 = &loginArgv0
		}
	}

	cmd := pspawn.CommandContext(s.Context(), combinedArgs[0], combinedArgs[1:]...)
	if argv0 != nil {
		cmd.Args[0] = *argv0
	}
	cmd.Env = env.ToPairs()
	cmd.Dir = pwd
	pspawn.SetDisclaim(cmd, disclaim)

	if isPty {
		ptyF, ttyF, err := pty.Open()
		if err != nil {
			return err
		}
		defer ptyF.Close()
		defer ttyF.Close()

		// set size
		err = pty.Setsize(ptyF, &pty.Winsize{
			Rows: uint16(ptyReq.Window.Height),
			Cols: uint16(ptyReq.Window.Width),
		})
		if err != nil {
			return err
		}

		// set term modes
		tflags, err := termios.GetTermios(ptyF.Fd())
		if err != nil {
			return err
		}
		termios.ApplySSHToTermios(ptyReq.TerminalModes, tflags)
		err = termios.SetTermiosNow(ptyF.Fd(), tflags)
		if err != nil {
			return err
		}

		go func() {
			for win := range winCh {
				err := pty.Setsize(ptyF, &pty.Winsize{
					Rows: uint16(win.Height),
					Cols: uint16(win.Width),
				})
				if err != nil {
					logrus.WithError(err).Error("pty resize failed")
				}
			}
		}()

		// which ones are pipes and which ones are ptys?
		cttyFd := -1
		if meta.PtyStdin {
			cmd.Stdin = ttyF
			go io.Copy(ptyF, s)
			cttyFd = fdStdin
		} else {
			stdin, err := sessionStdin(s)
			if err != nil {
				return err
			}
			defer stdin.Close()
			cmd.Stdin = stdin
		}

		if meta.PtyStdout {
			cmd.Stdout = ttyF
			cttyFd = fdStdout
		} else {
			cmd.Stdout = s
		}
		if meta.PtyStderr {
			cmd.Stderr = ttyF
			cttyFd = fdStderr
		} else {
			cmd.Stderr = s.Stderr()
		}
		if meta.PtyStdout || meta.PtyStderr {
			go io.Copy(s, ptyF)
		}

		// hook up controlling tty and session
		cmd.SysProcAttr = &syscall.SysProcAttr{
			Setsid:  true,
			Setctty: true,
			Ctty:    cttyFd, // must always be tty
		}
	} else {
		stdin, err := sessionStdin(s)
		if err != nil {
			return err
		}
		defer stdin.Close()
		cmd.Stdin = stdin
		cmd.Stdout = s
		cmd.Stderr = s.Stderr()
	}

	err = cmd.Start()
	if err != nil {
		return err
	}

	// forward signals
	fwdSigChan := make(chan ssh.Signal, 1)
	// on stop, unregister the channel first, then close it
	// sends are protected by the session mutex, so sends to the old channel
	// are not possible after this
	defer close(fwdSigChan)
	defer s.Signals(nil)
	s.Signals(fwdSigChan)
	go func() {
		for sshSig := range fwdSigChan {
			sig := sshSigMap[sshSig]
			if sig == nil {
				logrus.WithField("sig", sshSig).Error("unknown SSH signal")
				return
			}

			err := cmd.Process.Signal(sig)
			if err != nil {
				if errors.Is(err, os.ErrProcessDone) {
					return
				} else {
					logrus.Error("SSH signal forward failed: ", err)
				}
			}
		}
	}()

	// stdin is always a pipe we own, so this only waits for the child and
	// for output to flush
	return cmd.Wait()
}

// sessionStdin bridges the session reader into a real pipe. The copy is
// deliberately not joined on exit: it may stay blocked on a client that
// keeps stdin open after the child is gone.
func sessionStdin(s io.Reader) (*os.File, error) {
	pr, pw, err := os.Pipe()
	if err != nil {
		return nil, err
	}

	go func() {
		io.Copy(pw, s)
		pw.Close()
	}()

	return pr, nil
}

func (srv *Server) handler(s ssh.Session) {
	defer s.Close()

	err := srv.handleConn(s)
	if err != nil {
		if exitErr, ok := err.(*pspawn.ExitError); ok {
			// all ok, just exit
			s.Exit(exitErr.ExitCode())
			return
		}

		logrus.Error("SSH error: ", err)
		s.Stderr().Write([]byte(err.Error() + "\r\n"))
		s.Exit(1)
		return
	}

	s.Exit(0)
}

// Serve runs the SSH server on l. It blocks until the listener closes.
func (srv *Server) Serve(l net.Listener) error {
	hostKey, err := loadHostKey(srv.hostKeyPath)
	if err != nil {
		return err
	}

	err = ssh.Serve(l, srv.handler, ssh.HostKeyPEM(hostKey))
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
		return err
	}
	return nil
}

// Listen starts the server on the loopback launch port in the background.
func (srv *Server) Listen(addr string) (net.Listener, error) {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	go func() {
		err := srv.Serve(l)
		if err != nil {
			logrus.Error("sshsrv: Serve() =", err)
		}
	}()

	return l, nil
}
