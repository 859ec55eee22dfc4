package cmd

import (
	"os"
	"path/filepath"

	"github.com/spawnkit/spawnkit/conf/appid"
	"github.com/spf13/cobra"
)

const groupSessions = "sessions"
const groupGeneral = "general"

func init() {
	rootCmd.AddGroup(&cobra.Group{
		ID:    groupSessions,
		Title: "Sessions:",
	}, &cobra.Group{
		ID:    groupGeneral,
		Title: "General:",
	})
}

func use() string {
	if filepath.Base(os.Args[0]) == appid.ShortCmd {
		return appid.ShortCmd
	}

	return appid.ShortCtl
}

var rootCmd = &cobra.Command{
	Use:   use(),
	Short: "Launch and manage disclaimed processes with " + appid.UserAppName,
	Long: `Launch processes that take responsibility for their own permissions, and
manage the ` + appid.UserAppName + ` daemon.

The listed commands can be used with either "` + appid.ShortCtl + `" or "` + appid.ShortCmd + `".

You can also prefix any command with "` + appid.ShortCmd + `" to launch it disclaimed. For example:
    ` + appid.ShortCmd + ` screencapture out.png
is equivalent to:
    ` + appid.ShortCtl + ` run screencapture out.png`,
}

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func HasCommand(args []string) bool {
	// search only by first argument
	// if it's a flag (e.g. -p) we want to keep it as a flag to "run"
	targetCmd, _, err := rootCmd.Find(args[:1])
	if err != nil {
		return false
	}

	return targetCmd != rootCmd
}
