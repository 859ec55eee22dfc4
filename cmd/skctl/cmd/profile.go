package cmd

import (
	"fmt"
	"slices"
	"text/tabwriter"

	"github.com/alessio/shellescape"
	"github.com/spawnkit/spawnkit/conf/appid"
	"github.com/spawnkit/spawnkit/ctlclient"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.AddCommand(profileListCmd)
	profileCmd.AddCommand(profileRunCmd)
}

var profileCmd = &cobra.Command{
	Use:     "profile",
	Short:   "Launch sessions from saved profiles",
	Long:    `Launch sessions from profiles defined in the profiles file.`,
	GroupID: groupSessions,
}

var profileListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List available profiles",
	Example: "  " + appid.ShortCtl + " profile list",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		all, err := ctlclient.Client().ListProfiles()
		checkCLI(err)

		names := make([]string, 0, len(all))
		for name := range all {
			names = append(names, name)
		}
		slices.Sort(names)

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 2, 8, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tDISCLAIM\tCOMMAND")
		for _, name := range names {
			p := all[name]
			disclaim := "default"
			if p.Disclaim != nil {
				disclaim = fmt.Sprint(*p.Disclaim)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", name, disclaim, shellescape.QuoteCommand(p.Args))
		}
		return w.Flush()
	},
}

var profileRunCmd = &cobra.Command{
	Use:   "run NAME [ARGS...]",
	Short: "Launch a session from a profile",
	Long: `Launch a background session from a named profile. Extra arguments are
appended to the profile's command.
`,
	Example: "  " + appid.ShortCtl + " profile run backup --dry-run",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		info, err := ctlclient.Client().LaunchProfile(args[0], args[1:])
		checkCLI(err)

		cmd.Println(info.ID)
		return nil
	},
}
