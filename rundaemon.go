package main

import (
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"
	"github.com/spawnkit/spawnkit/buildid"
	"github.com/spawnkit/spawnkit/conf"
	"github.com/spawnkit/spawnkit/conf/appver"
	"github.com/spawnkit/spawnkit/conf/sentryconf"
	"github.com/spawnkit/spawnkit/ctlclient"
	"github.com/spawnkit/spawnkit/flock"
	"github.com/spawnkit/spawnkit/launchcfg"
	"github.com/spawnkit/spawnkit/logutil"
	"github.com/spawnkit/spawnkit/osver"
	"github.com/spawnkit/spawnkit/profiles"
	"github.com/spawnkit/spawnkit/sessions"
	"github.com/spawnkit/spawnkit/sshsrv"
	"github.com/spawnkit/spawnkit/types"
	"github.com/spawnkit/spawnkit/util"
	"github.com/spawnkit/spawnkit/util/errorx"
	"golang.org/x/sys/unix"
)

const (
	handoffWaitLockTimeout = 10 * time.Second
	// sessions get SIGTERM, then SIGKILL after this
	shutdownGraceTimeout   = 10 * time.Second
	deferredCleanupTimeout = 15 * time.Second // in case of deadlock
)

type StopDeadlockError struct {
	stack string
}

func (e StopDeadlockError) Error() string {
	return "stop deadlock: " + e.stack
}

func enforceStopDeadline() {
	go func() {
		time.Sleep(deferredCleanupTimeout)
		logrus.Error("deferred cleanup timed out, exiting")

		// dump goroutine stacks
		buf := make([]byte, 65536)
		n := runtime.Stack(buf, true)
		err := StopDeadlockError{string(buf[:n])}
		fmt.Fprintln(os.Stderr, err.Error())

		// try to report to sentry
		_ = util.WithTimeout0(func() {
			sentry.CaptureException(err)
			sentry.Flush(sentryconf.FlushTimeout)
		}, sentryconf.FlushTimeout)

		os.Exit(1)
	}()
}

func runOne(what string, fn func() error) {
	err := fn()
	if err != nil {
		logrus.WithError(err).Error(what + " failed")
	}
}

// watchConfig applies config changes: it starts and stops the SSH launch
// surface and resizes the session history.
func watchConfig(doneCh <-chan struct{}, registry *sessions.Registry) {
	srv := sshsrv.New(conf.SSHHostKeyFile(), func() bool {
		return launchcfg.Get().DisclaimByDefault
	})

	var listener net.Listener
	set := func(cfg *launchcfg.Config) {
		if cfg.SSHServer && listener == nil {
			addr := "127.0.0.1:" + strconv.Itoa(cfg.SSHPort)
			l, err := srv.Listen(addr)
			if err != nil {
				logrus.WithError(err).Error("ssh server listen failed")
				return
			}
			logrus.WithField("addr", addr).Info("ssh server started")
			listener = l
		} else if !cfg.SSHServer && listener != nil {
			_ = listener.Close()
			listener = nil
			logrus.Info("ssh server stopped")
		}
	}

	// subscribe before reading the initial state so no change is lost
	diffCh := launchcfg.SubscribeDiff()
	defer launchcfg.UnsubscribeDiff(diffCh)
	set(launchcfg.Get())

	for {
		select {
		case change := <-diffCh:
			if change.New.HistorySize != change.Old.HistorySize {
				registry.SetHistorySize(change.New.HistorySize)
			}
			// port changes require a restart of the listener
			if listener != nil && change.New.SSHPort != change.Old.SSHPort {
				_ = listener.Close()
				listener = nil
			}
			set(change.New)
		case <-doneCh:
			if listener != nil {
				_ = listener.Close()
			}
			return
		}
	}
}

func runDaemon() {
	// propagate stop reason via exit code
	var lastStopReason types.StopReason
	defer func() {
		if code := lastStopReason.ExitCode(); code != -1 {
			os.Exit(code)
		}
	}()

	if conf.Debug() {
		logrus.SetLevel(logrus.DebugLevel)
	}
	logPrefix := color.New(color.FgGreen, color.Bold).Sprint("🚀 spawnd | ")
	logrus.SetFormatter(logutil.NewPrefixFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "01-02 15:04:05",
	}, logPrefix))

	if !conf.Debug() {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:     sentryconf.DSN,
			Release: appver.Get().Short,
		})
		if err != nil {
			logrus.WithError(err).Error("failed to init Sentry")
		}

		defer sentry.Flush(sentryconf.FlushTimeout)
	}
	// sentry.Recover() suppresses panic
	defer func() {
		if err := recover(); err != nil {
			hub := sentry.CurrentHub()
			hub.Recover(err)

			panic(err)
		}
	}()
	// recover from fatal-log panic:
	// before sentry, so we don't report dummy CLI panic error to sentry
	defer errorx.RecoverCLI()

	// responsibility_spawnattrs_setdisclaim needs 10.14+
	if !osver.IsAtLeast("v10.14") {
		errorx.Fatalf("macOS too old - min 10.14")
	}

	// done signal for shutdown process
	// must close this after all cleanup so next start works (incl. closing
	// listeners)
	doneCh := make(chan struct{})
	// close OK: signal select loop
	defer close(doneCh)

	// parse args
	var buildID string
	var waitLock bool
	flag.StringVar(&buildID, "build-id", "", "")
	flag.BoolVar(&waitLock, "handoff", false, "")
	if len(os.Args) > 2 {
		err := flag.CommandLine.Parse(os.Args[2:])
		check(err)
	}

	// ensure it's not running
	if ctlclient.IsRunning() {
		errorx.Fatalf("spawnd is already running (socket)")
	}

	// take the lock
	lockFile, err := flock.Open(conf.DaemonLockFile())
	check(err)
	if waitLock {
		// wait lock for spawn-daemon handoff
		err = util.WithTimeout1(func() error {
			return flock.WaitLock(lockFile)
		}, handoffWaitLockTimeout)
		if err != nil {
			errorx.Fatalf("spawnd is already running (wait lock): %w", err)
		}
	} else {
		err = flock.Lock(lockFile)
		if err != nil {
			errorx.Fatalf("spawnd is already running (lock): %w", err)
		}
	}
	// for max safety, we never release flock. it'll be released on process
	// exit, so keep fd open
	defer runtime.KeepAlive(lockFile)

	// remove everything in run, sockets and pid
	_ = os.RemoveAll(conf.RunDir())
	// then recreate because RunDir only ensures once
	err = os.MkdirAll(conf.RunDir(), 0755)
	check(err)

	// write build ID
	if buildID == "" {
		buildID, err = buildid.CalculateCurrent()
		check(err)
	}
	err = os.WriteFile(conf.DaemonVersionFile(), []byte(buildID), 0644)
	check(err)

	stopCh := make(chan types.StopRequest, 1)

	// session registry
	registry, err := sessions.NewRegistry(launchcfg.Get().HistorySize, func() bool {
		return launchcfg.Get().DisclaimByDefault
	}, conf.SessionLogDir())
	check(err)

	// launch profiles
	profileStore, err := profiles.NewStore(conf.ProfilesFile())
	check(err)
	closeWatch, err := profileStore.Watch()
	if err != nil {
		logrus.WithError(err).Error("profile watch failed")
	} else {
		defer runOne("close profile watch", closeWatch)
	}

	// listen for signals
	go func() {
		signalCh := make(chan os.Signal, 1)
		signal.Notify(signalCh, unix.SIGTERM, unix.SIGINT, unix.SIGQUIT)

		sigints := 0
		for {
			sig := <-signalCh
			if sig == unix.SIGINT {
				sigints++
			} else {
				sigints = 0
			}

			if sigints >= 2 {
				// two SIGINT = force stop
				logrus.Info("Received SIGINT twice, forcing stop")
				stopCh <- types.StopRequest{Type: types.StopTypeForce, Reason: types.StopReasonSignal}
			} else {
				logrus.Info("Received signal, requesting stop")
				stopCh <- types.StopRequest{Type: types.StopTypeGraceful, Reason: types.StopReasonSignal}
			}
		}
	}()

	// control server
	logrus.Info("starting control server")
	controlServer := ControlServer{
		buildID:  buildID,
		doneCh:   doneCh,
		stopCh:   stopCh,
		registry: registry,
		profiles: profileStore,
	}
	controlCleanup, err := controlServer.Serve()
	check(err)
	defer runOne("control cleanup", controlCleanup)

	// apply config changes (SSH surface, history size)
	go watchConfig(doneCh, registry)

	// the last defer: deadlock breaker
	defer enforceStopDeadline()

	logrus.WithField("buildID", buildID).Info("spawnd ready")
	stopReq := <-stopCh
	logrus.WithField("reason", stopReq.Reason).Info("stop requested")
	lastStopReason = stopReq.Reason

	switch stopReq.Type {
	case types.StopTypeForce:
		registry.Shutdown(0)
	case types.StopTypeGraceful:
		registry.Shutdown(shutdownGraceTimeout)
	}
}
