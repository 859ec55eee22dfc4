package cmd

import (
	"errors"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/creack/pty"
	"github.com/sirupsen/logrus"
	"github.com/spawnkit/spawnkit/conf/appid"
	"github.com/spawnkit/spawnkit/launchcfg"
	"github.com/spawnkit/spawnkit/util/pspawn"
	"github.com/spawnkit/spawnkit/util/userutil"
	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

var (
	flagWorkdir    string
	flagUseShell   bool
	flagNoDisclaim bool
	flagForcePty   bool
	FlagWantHelp   bool
)

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVarP(&flagWorkdir, "workdir", "w", "", "Set the working directory")
	runCmd.Flags().BoolVarP(&flagUseShell, "shell", "s", false, "Run through the login shell")
	runCmd.Flags().BoolVarP(&flagNoDisclaim, "no-disclaim", "D", false, "Keep this process responsible for the child's permissions")
	runCmd.Flags().BoolVarP(&flagForcePty, "pty", "t", false, "Allocate a pty even if stdin is not a terminal")
}

func ParseRunFlags(args []string) ([]string, error) {
	inFlag := false
	lastI := -1 // deal with empty case
	var lastStringFlag *string
	var arg string
	for lastI, arg = range args {
		if inFlag {
			// we're in a flag. this is the value
			// highest priority for cases like "--workdir -tmp" where workdir = "-tmp"
			*lastStringFlag = arg
			inFlag = false
		} else if strings.HasPrefix(arg, "-") {
			// this is a flag. either bool, beginning of a key-value, or a
			// key-value pair

			// 1. simple case: if this is a bool flag, set it and continue
			switch arg {
			case "-s", "--shell", "-shell":
				flagUseShell = true
				continue
			case "-D", "--no-disclaim", "-no-disclaim":
				flagNoDisclaim = true
				continue
			case "-t", "--pty", "-pty":
				flagForcePty = true
				continue
			case "-h", "--help", "-help":
				FlagWantHelp = true
				continue
			}

			// 2. look for a pair
			keyPart, valuePart, ok := strings.Cut(arg, "=")
			// if we have a pair, we can also set it and continue
			if ok {
				switch keyPart {
				case "-w", "--workdir", "-workdir":
					flagWorkdir = valuePart
				// bools: allow true/false
				case "-s", "--shell", "-shell":
					flagUseShell = valuePart == "true"
				case "-D", "--no-disclaim", "-no-disclaim":
					flagNoDisclaim = valuePart == "true"
				case "-t", "--pty", "-pty":
					flagForcePty = valuePart == "true"
				}
				continue
			}

			// 3. we're at the beginning of a key-value pair. set the flag
			// and wait for the value
			switch keyPart {
			case "-w", "--workdir", "-workdir":
				lastStringFlag = &flagWorkdir
			// don't allow two-part bool
			default:
				return nil, errors.New("unknown flag " + arg)
			}
			inFlag = true
		} else {
			// we've encountered an argument that's not a flag or a flag
			// value. this is the end of the flags, so we can stop parsing
			lastI -= 1 // not consumed
			break
		}
	}

	if inFlag {
		// we're in a flag, but we've reached the end of the args.
		// this is an error
		return nil, errors.New("missing value for flag " + args[lastI])
	}

	// skip the flags and value we got
	return args[lastI+1:], nil
}

var runCmd = &cobra.Command{
	Use:     "run [flags] -- [COMMAND] [ARGS]...",
	Aliases: []string{"exec"},
	GroupID: groupSessions,
	Short:   "Run a command, disclaimed",
	Long: `Run a command in the foreground as its own responsible process.

The child no longer inherits this terminal's permission identity: permission
prompts (screen recording, microphone, files) name the command itself.

If no arguments are provided, an interactive shell is started.

You can also prefix commands with "` + appid.ShortCmd + `" to run them disclaimed. For example:
    ` + appid.ShortCmd + ` screencapture out.png
is equivalent to: ` + appid.ShortCtl + ` run screencapture out.png
`,
	Example: "  " + appid.ShortCmd + " run screencapture out.png",
	Args:    cobra.ArbitraryArgs,

	// custom flag parsing - so we don't rely on --
	DisableFlagParsing: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		// parse flags
		var err error
		args, err = ParseRunFlags(args)
		if err != nil {
			return err
		}
		if FlagWantHelp {
			cmd.Help()
			return nil
		}

		exitCode, err := runLocal(args)
		if err != nil {
			checkCLI(err)
		}

		os.Exit(exitCode)
		return nil
	},
}

func buildArgs(args []string) ([]string, *string, error) {
	if len(args) > 0 && !flagUseShell {
		return args, nil, nil
	}

	shell, err := userutil.GetShell()
	if err != nil {
		return nil, nil, err
	}

	combined := []string{shell}
	if len(args) > 0 {
		combined = append(combined, "-c", strings.Join(args, " "))
	}
	// force login shell
	loginArgv0 := "-" + filepath.Base(shell)
	return combined, &loginArgv0, nil
}

func runLocal(args []string) (int, error) {
	combined, argv0, err := buildArgs(args)
	if err != nil {
		return 0, err
	}

	disclaim := launchcfg.Get().DisclaimByDefault && !flagNoDisclaim
	usePty := flagForcePty || (len(args) == 0 && term.IsTerminal(int(os.Stdin.Fd())))

	cmd := pspawn.Command(combined[0], combined[1:]...)
	if argv0 != nil {
		cmd.Args[0] = *argv0
	}
	cmd.Env = os.Environ()
	cmd.Dir = flagWorkdir
	pspawn.SetDisclaim(cmd, disclaim)

	if usePty {
		return runPty(cmd)
	}

	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	err = cmd.Start()
	if err != nil {
		return 0, err
	}

	// forward termination; the terminal delivers SIGINT to the group
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, unix.SIGTERM, unix.SIGHUP)
	defer signal.Stop(sigCh)
	go func() {
		for sig := range sigCh {
			_ = cmd.Process.Signal(sig)
		}
	}()

	return waitExitCode(cmd)
}

func runPty(cmd *pspawn.Cmd) (int, error) {
	ptyF, ttyF, err := pty.Open()
	if err != nil {
		return 0, err
	}
	defer ptyF.Close()
	// covers the error returns before Start; the explicit Close below must
	// still run right after Start so reads from ptyF end with the child
	defer ttyF.Close()

	// child gets the tty as its controlling terminal
	cmd.Stdin = ttyF
	cmd.Stdout = ttyF
	cmd.Stderr = ttyF
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setsid:  true,
		Setctty: true,
	}

	stdinFd := int(os.Stdin.Fd())
	if term.IsTerminal(stdinFd) {
		_ = pty.InheritSize(os.Stdin, ptyF)

		state, err := term.MakeRaw(stdinFd)
		if err != nil {
			return 0, err
		}
		defer term.Restore(stdinFd, state)
	}

	// track window size
	winchCh := make(chan os.Signal, 1)
	signal.Notify(winchCh, unix.SIGWINCH)
	defer signal.Stop(winchCh)
	go func() {
		for range winchCh {
			err := pty.InheritSize(os.Stdin, ptyF)
			if err != nil {
				logrus.WithError(err).Debug("pty resize failed")
			}
		}
	}()

	err = cmd.Start()
	ttyF.Close()
	if err != nil {
		return 0, err
	}

	go io.Copy(ptyF, os.Stdin)
	// ends with EIO once the child side is gone
	outDone := make(chan struct{})
	go func() {
		io.Copy(os.Stdout, ptyF)
		close(outDone)
	}()

	code, err := waitExitCode(cmd)
	<-outDone
	return code, err
}

func waitExitCode(cmd *pspawn.Cmd) (int, error) {
	err := cmd.Wait()
	if err != nil {
		var exitErr *pspawn.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.ExitCode(), nil
		}
		return 0, err
	}

	return 0, nil
}
