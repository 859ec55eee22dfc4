package cmd

import (
	"os"

	"github.com/spawnkit/spawnkit/conf/appid"
	"github.com/spawnkit/spawnkit/ctlclient"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(waitCmd)
}

var waitCmd = &cobra.Command{
	Use:     "wait ID",
	GroupID: groupSessions,
	Short:   "Wait for a session to exit",
	Long: `Block until the specified session exits, then exit with its code.
`,
	Example: "  " + appid.ShortCmd + " wait 4cfe81a2",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		info, err := ctlclient.Client().Wait(args[0])
		checkCLI(err)

		code := info.ExitCode
		if info.ExitSignal != "" {
			cmd.PrintErrln("killed by", info.ExitSignal)
			code = 1
		}
		os.Exit(code)
		return nil
	},
}
