package main

import (
	"fmt"
	"os"
	"path"

	"github.com/fatih/color"
	"github.com/spawnkit/spawnkit/cmd/skctl/cmd"
	"github.com/spawnkit/spawnkit/conf/appid"
)

func main() {
	defer cmd.RecoverCLI()

	switch path.Base(os.Args[0]) {
	// control-only command mode
	case appid.ShortCtl:
		runCtl(false)
	// control or run, depending on args
	default:
		runCtl(true)
	}
}

func printShortHelp() {
	bold := color.New(color.Bold, color.FgHiBlue).SprintFunc()
	fmt.Printf(`The short "`+appid.ShortCmd+`" command has 3 usages:

%s
   Just run "`+appid.ShortCmd+`" with no arguments.
   Usage: `+appid.ShortCmd+`

%s
   Prefix any command with "`+appid.ShortCmd+`" to run it disclaimed.
   Usage: `+appid.ShortCmd+` [flags] <command> [args...]
   Example: `+appid.ShortCmd+` screencapture out.png

   The child takes responsibility for its own permission prompts instead
   of inheriting this terminal's.

   Use "`+appid.ShortCtl+` run --help" for a list of flags.

%s
   For convenience, you can use `+appid.ShortCtl+` subcommands with this command.
   Usage: `+appid.ShortCmd+` <subcommand> [args...]

   Use "`+appid.ShortCtl+` --help" for a list of subcommands.
`, bold("1. Start a disclaimed shell."), bold(`2. Run commands disclaimed, like "`+appid.ShortCtl+` run".`), bold(`3. Control the daemon, like "`+appid.ShortCtl+`".`))
	os.Exit(0)
}

func shouldAliasToRun(args []string) bool {
	// empty = shell
	if len(args) == 0 {
		return true
	}

	// handled by ctl
	if cmd.HasCommand(args) {
		return false
	}

	// special cases: help, --help, -h
	// use run's arg parsing logic
	remArgs, parseErr := cmd.ParseRunFlags(args)
	if parseErr != nil {
		// let run handle the help
		return true
	}

	// is this help command or -h/--help flag? if so, print our help instead
	if cmd.FlagWantHelp || (len(remArgs) > 0 && remArgs[0] == "help") {
		printShortHelp()
	}

	return true
}

func runCtl(fallbackToRun bool) {
	if fallbackToRun && shouldAliasToRun(os.Args[1:]) {
		// alias to run - so we borrow its arg parsing logic
		os.Args = append([]string{os.Args[0], "run"}, os.Args[1:]...)
	}

	err := cmd.Execute()
	if err != nil {
		// cobra already printed it
		os.Exit(1)
	}
}
