package cmd

import (
	"fmt"

	"github.com/spawnkit/spawnkit/conf/appid"
	"github.com/spawnkit/spawnkit/conf/appver"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show " + appid.UserAppName + " version",
	Long: `Show ` + appid.UserAppName + ` version information.
`,
	Example: "  " + appid.ShortCtl + " version",
	GroupID: groupGeneral,
	Args:    cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ver := appver.Get()
		fmt.Printf("Version: %s\n", ver.Short)
		if ver.GitCommit != "" {
			fmt.Printf("Commit: %s (%s)\n", ver.GitCommit, ver.GitDescribe)
		}

		return nil
	},
}
