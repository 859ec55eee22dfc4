package cmd

import (
	"os"
	"strings"
	"testing"

	"github.com/spawnkit/spawnkit/util/pspawn"
)

func resetRunFlags() {
	flagWorkdir = ""
	flagUseShell = false
	flagNoDisclaim = false
	flagForcePty = false
	FlagWantHelp = false
}

func TestRunPtyClosesTTYOnStartError(t *testing.T) {
	// fd numbers are allocated lowest-first, so a leaked tty fd per failed
	// launch would push this baseline up
	nextFd := func() uintptr {
		f, err := os.Open(os.DevNull)
		if err != nil {
			t.Fatal(err)
		}
		defer f.Close()
		return f.Fd()
	}
	baseline := nextFd()

	for i := 0; i < 8; i++ {
		cmd := pspawn.Command("/nonexistent/spawnkit-test-binary")
		if _, err := runPty(cmd); err == nil {
			t.Fatal("expected start error")
		}
	}

	if fd := nextFd(); fd > baseline+3 {
		t.Errorf("fd watermark grew from %d to %d, tty fds leaked", baseline, fd)
	}
}

func TestParseRunFlags(t *testing.T) {
	tests := map[string]struct {
		help       bool
		shell      bool
		noDisclaim bool
		pty        bool
		workdir    string
		rem        string
		err        bool
	}{
		"":            {rem: ""},
		"-h":          {help: true},
		"-s":          {shell: true},
		"-D":          {noDisclaim: true},
		"-t":          {pty: true},
		"-w":          {err: true},
		"-w /tmp":     {workdir: "/tmp"},
		"--workdir=/": {workdir: "/"},
		"-w -tmp":     {workdir: "-tmp"},
		"-x":          {err: true},

		"ls -l":               {rem: "ls -l"},
		"-h ls -l":            {help: true, rem: "ls -l"},
		"-s -D ls -l":         {shell: true, noDisclaim: true, rem: "ls -l"},
		"-w /tmp -t ls -l":    {workdir: "/tmp", pty: true, rem: "ls -l"},
		"cmd -w /tmp":         {rem: "cmd -w /tmp"},
		"cmd -h":              {rem: "cmd -h"},
		"--shell=false ls":    {rem: "ls"},
		"--pty=true -w / ls":  {pty: true, workdir: "/", rem: "ls"},
		"-w / -w /tmp ls -l":  {workdir: "/tmp", rem: "ls -l"},
		"-D screencapture -x": {noDisclaim: true, rem: "screencapture -x"},
	}

	for argStr, tt := range tests {
		t.Run(argStr, func(t *testing.T) {
			resetRunFlags()

			var args []string
			if argStr != "" {
				args = strings.Split(argStr, " ")
			}
			rem, err := ParseRunFlags(args)
			if tt.err {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}

			if FlagWantHelp != tt.help {
				t.Errorf("help = %v, want %v", FlagWantHelp, tt.help)
			}
			if flagUseShell != tt.shell {
				t.Errorf("shell = %v, want %v", flagUseShell, tt.shell)
			}
			if flagNoDisclaim != tt.noDisclaim {
				t.Errorf("noDisclaim = %v, want %v", flagNoDisclaim, tt.noDisclaim)
			}
			if flagForcePty != tt.pty {
				t.Errorf("pty = %v, want %v", flagForcePty, tt.pty)
			}
			if flagWorkdir != tt.workdir {
				t.Errorf("workdir = %q, want %q", flagWorkdir, tt.workdir)
			}
			if got := strings.Join(rem, " "); got != tt.rem {
				t.Errorf("rem = %q, want %q", got, tt.rem)
			}
		})
	}
}
