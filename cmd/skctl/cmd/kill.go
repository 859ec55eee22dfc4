package cmd

import (
	"github.com/spawnkit/spawnkit/conf/appid"
	"github.com/spawnkit/spawnkit/ctlclient"
	"github.com/spf13/cobra"
)

var (
	flagKillSignal string
)

func init() {
	rootCmd.AddCommand(killCmd)
	killCmd.Flags().StringVarP(&flagKillSignal, "signal", "s", "TERM", "Signal to send (name or number)")
}

var killCmd = &cobra.Command{
	Use:     "kill [flags] ID...",
	Aliases: []string{"signal"},
	GroupID: groupSessions,
	Short:   "Signal a running session",
	Long: `Send a signal to the specified running session(s).
`,
	Example: "  " + appid.ShortCmd + " kill -s KILL 4cfe81a2",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, id := range args {
			err := ctlclient.Client().Signal(id, flagKillSignal)
			checkCLI(err)
		}
		return nil
	},
}
