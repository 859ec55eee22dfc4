package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"text/tabwriter"

	"github.com/alessio/shellescape"
	"github.com/spawnkit/spawnkit/conf/appid"
	"github.com/spawnkit/spawnkit/ctlclient"
	"github.com/spawnkit/spawnkit/sessions"
	"github.com/spf13/cobra"
)

var (
	flagPsRunning bool
	flagPsQuiet   bool
	flagPsFormat  string
)

func init() {
	rootCmd.AddCommand(psCmd)
	psCmd.Flags().BoolVarP(&flagPsRunning, "running", "r", false, "only show running sessions")
	psCmd.Flags().BoolVarP(&flagPsQuiet, "quiet", "q", false, "only show session IDs")
	psCmd.Flags().StringVarP(&flagPsFormat, "format", "f", "", "output format (json)")
}

func sessionState(info *sessions.Info) string {
	if info.Running {
		return "running"
	}
	if info.ExitSignal != "" {
		return info.ExitSignal
	}
	return fmt.Sprintf("exit %d", info.ExitCode)
}

var psCmd = &cobra.Command{
	Use:     "ps",
	Aliases: []string{"list", "ls"},
	GroupID: groupSessions,
	Short:   "List sessions",
	Long: `List daemon-managed sessions: running ones and recent history.
`,
	Example: "  " + appid.ShortCmd + " ps",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		infos, err := ctlclient.Client().ListSessions()
		checkCLI(err)

		if flagPsRunning {
			infos = slices.DeleteFunc(infos, func(info sessions.Info) bool {
				return !info.Running
			})
		}

		if flagPsQuiet {
			for _, info := range infos {
				fmt.Println(info.ID)
			}
			return nil
		}

		if flagPsFormat == "json" {
			// don't print "null" for empty array
			if infos == nil {
				infos = []sessions.Info{}
			}
			data, err := json.MarshalIndent(infos, "", "  ")
			checkCLI(err)
			fmt.Println(string(data))
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 2, 8, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tPID\tSTATE\tDISCLAIM\tCOMMAND")
		for _, info := range infos {
			fmt.Fprintf(w, "%s\t%d\t%s\t%v\t%s\n",
				info.ID, info.Pid, sessionState(&info), info.Disclaim, shellescape.QuoteCommand(info.Args))
		}
		return w.Flush()
	},
}
