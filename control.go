package main

import (
	"context"
	"fmt"
	"math"
	"net"
	"net/http"
	"os"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/handler"
	"github.com/creachadair/jrpc2/jhttp"
	"github.com/sirupsen/logrus"
	"github.com/spawnkit/spawnkit/conf"
	"github.com/spawnkit/spawnkit/conf/appver"
	"github.com/spawnkit/spawnkit/conf/ports"
	"github.com/spawnkit/spawnkit/ctlclient/ctltypes"
	"github.com/spawnkit/spawnkit/launchcfg"
	"github.com/spawnkit/spawnkit/osver"
	"github.com/spawnkit/spawnkit/profiles"
	"github.com/spawnkit/spawnkit/sessions"
	"github.com/spawnkit/spawnkit/types"
	"github.com/spawnkit/spawnkit/util/envutil"
	"github.com/spawnkit/spawnkit/util/pspawn"

	_ "net/http/pprof"
)

type ControlServer struct {
	buildID  string
	doneCh   chan struct{}
	stopCh   chan<- types.StopRequest
	registry *sessions.Registry
	profiles *profiles.Store
}

func (s *ControlServer) Ping(ctx context.Context) error {
	return nil
}

func (s *ControlServer) Info(ctx context.Context) (*ctltypes.DaemonInfo, error) {
	return &ctltypes.DaemonInfo{
		Version:           appver.Get().Short,
		BuildID:           s.buildID,
		Pid:               os.Getpid(),
		OSVersion:         osver.Get(),
		DisclaimSupported: pspawn.DisclaimSupported(),
	}, nil
}

func (s *ControlServer) Stop(ctx context.Context) error {
	// signal stop
	s.stopCh <- types.StopRequest{Type: types.StopTypeGraceful, Reason: types.StopReasonAPI}

	// wait for main loop to exit
	<-s.doneCh
	return nil
}

func (s *ControlServer) ForceStop(ctx context.Context) error {
	// signal stop
	s.stopCh <- types.StopRequest{Type: types.StopTypeForce, Reason: types.StopReasonAPI}

	// wait for main loop to exit
	<-s.doneCh
	return nil
}

func (s *ControlServer) Launch(ctx context.Context, req sessions.LaunchRequest) (*sessions.Info, error) {
	return s.registry.Launch(&req)
}

func (s *ControlServer) Wait(ctx context.Context, req ctltypes.SessionRequest) (*sessions.Info, error) {
	return s.registry.Wait(req.ID)
}

func (s *ControlServer) Signal(ctx context.Context, req ctltypes.SignalRequest) error {
	sig, err := sessions.ParseSignal(req.Signal)
	if err != nil {
		return err
	}

	return s.registry.Signal(req.ID, sig)
}

func (s *ControlServer) ListSessions(ctx context.Context) ([]sessions.Info, error) {
	return s.registry.List(), nil
}

func (s *ControlServer) GetSession(ctx context.Context, req ctltypes.SessionRequest) (*sessions.Info, error) {
	return s.registry.Get(req.ID)
}

func (s *ControlServer) GetConfig(ctx context.Context) (*launchcfg.Config, error) {
	return launchcfg.Get(), nil
}

func (s *ControlServer) SetConfig(ctx context.Context, newConfig *launchcfg.Config) error {
	return launchcfg.Update(func(c *launchcfg.Config) {
		*c = *newConfig
	})
}

func (s *ControlServer) ResetConfig(ctx context.Context) error {
	return launchcfg.Reset()
}

func (s *ControlServer) ListProfiles(ctx context.Context) (map[string]profiles.Profile, error) {
	return s.profiles.All(), nil
}

func (s *ControlServer) LaunchProfile(ctx context.Context, req ctltypes.LaunchProfileRequest) (*sessions.Info, error) {
	profile, err := s.profiles.Get(req.Name)
	if err != nil {
		return nil, err
	}

	launchReq := &sessions.LaunchRequest{
		Args:          append(append([]string{}, profile.Args...), req.ExtraArgs...),
		Dir:           profile.Dir,
		Disclaim:      profile.Disclaim,
		CaptureOutput: true,
	}
	for k, v := range profile.Env {
		launchReq.Env = append(launchReq.Env, k+"="+v)
	}
	launchReq.Env = envutil.Dedupe(launchReq.Env)

	return s.registry.Launch(launchReq)
}

func (s *ControlServer) Serve() (func() error, error) {
	bridge := jhttp.NewBridge(handler.Map{
		"Ping": handler.New(s.Ping),
		"Info": handler.New(s.Info),

		"Stop":      handler.New(s.Stop),
		"ForceStop": handler.New(s.ForceStop),

		"Launch":       handler.New(s.Launch),
		"Wait":         handler.New(s.Wait),
		"Signal":       handler.New(s.Signal),
		"ListSessions": handler.New(s.ListSessions),
		"GetSession":   handler.New(s.GetSession),

		"GetConfig":   handler.New(s.GetConfig),
		"SetConfig":   handler.New(s.SetConfig),
		"ResetConfig": handler.New(s.ResetConfig),

		"ListProfiles":  handler.New(s.ListProfiles),
		"LaunchProfile": handler.New(s.LaunchProfile),
	}, &jhttp.BridgeOptions{
		Server: &jrpc2.ServerOptions{
			// Wait blocks for the session lifetime, so never limit concurrency
			Concurrency: math.MaxInt,
		},
	})

	mux := http.NewServeMux()
	mux.Handle("/", bridge)

	// pprof server
	if conf.Debug() {
		go func() {
			err := http.ListenAndServe(fmt.Sprintf("localhost:%d", ports.DebugPprof), nil)
			if err != nil {
				logrus.Error("pprof: ListenAndServe() =", err)
			}
		}()
	}

	server := &http.Server{
		Handler: mux,
	}

	listenerUnix, err := net.Listen("unix", conf.ControlSocket())
	if err != nil {
		return nil, fmt.Errorf("listen control: %w", err)
	}
	go func() { _ = server.Serve(listenerUnix) }()

	return func() error {
		// to prevent race, leave open conns open until process exit, like
		// flock. just close listeners. Go already sets SO_REUSEADDR
		_ = listenerUnix.Close()
		return nil
	}, nil
}
