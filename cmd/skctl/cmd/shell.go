package cmd

import (
	"os"

	"github.com/spawnkit/spawnkit/cmd/skctl/shell"
	"github.com/spawnkit/spawnkit/conf/appid"
	"github.com/spawnkit/spawnkit/util/envutil"
	"github.com/spf13/cobra"
)

var (
	flagShellWorkdir    string
	flagShellEnv        []string
	flagShellNoDisclaim bool
	flagShellUseShell   bool
)

func init() {
	rootCmd.AddCommand(shellCmd)
	shellCmd.Flags().StringVarP(&flagShellWorkdir, "workdir", "w", "", "Set the working directory")
	shellCmd.Flags().StringArrayVarP(&flagShellEnv, "env", "e", nil, "Set extra environment variables (KEY=VALUE)")
	shellCmd.Flags().BoolVarP(&flagShellNoDisclaim, "no-disclaim", "D", false, "Keep the daemon responsible for the child's permissions")
	shellCmd.Flags().BoolVarP(&flagShellUseShell, "shell", "s", false, "Run the command through the login shell")
}

var shellCmd = &cobra.Command{
	Use:     "shell [COMMAND...]",
	Aliases: []string{"sh"},
	Short:   "Run an interactive command under the daemon",
	Long: `Run a command as a child of the ` + appid.UserAppName + ` daemon, attached to this
terminal. With no arguments, starts a login shell.

Unlike "` + appid.ShortCtl + ` run", the process is spawned by the daemon, so it survives
independently of your login session's responsible process.
`,
	Example: "  " + appid.ShortCtl + ` shell
  ` + appid.ShortCtl + " shell codesign -v ./MyApp.app",
	GroupID: groupSessions,
	Args:    cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		extraEnv := make(map[string]string, len(flagShellEnv))
		for _, kv := range flagShellEnv {
			envutil.EnvMap(extraEnv).SetPair(kv)
		}

		opts := shell.CommandOpts{
			CombinedArgs: args,
			UseShell:     flagShellUseShell,
			ExtraEnv:     extraEnv,
		}
		if flagShellWorkdir != "" {
			opts.Dir = &flagShellWorkdir
		}
		if flagShellNoDisclaim {
			disclaim := false
			opts.Disclaim = &disclaim
		}

		code, err := shell.RunSSH(opts)
		checkCLI(err)
		os.Exit(code)
		return nil
	},
}
