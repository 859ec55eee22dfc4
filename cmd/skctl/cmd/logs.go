package cmd

import (
	"fmt"
	"os"

	"github.com/spawnkit/spawnkit/conf/appid"
	"github.com/spawnkit/spawnkit/ctlclient"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(logsCmd)
}

var logsCmd = &cobra.Command{
	Use:     "logs ID",
	Aliases: []string{"log"},
	GroupID: groupSessions,
	Short:   "Show captured output for a session",
	Long: `Print the captured output of a session that was launched with --capture.
`,
	Example: "  " + appid.ShortCtl + " logs 4cfe81a2",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		info, err := ctlclient.Client().GetSession(args[0])
		checkCLI(err)

		if info.LogFile == "" {
			cmd.PrintErrln("session has no log file (launch with --capture)")
			os.Exit(1)
		}

		data, err := os.ReadFile(info.LogFile)
		checkCLI(err)

		fmt.Print(string(data))
		return nil
	},
}
