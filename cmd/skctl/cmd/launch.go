package cmd

import (
	"fmt"

	"github.com/spawnkit/spawnkit/conf/appid"
	"github.com/spawnkit/spawnkit/ctlclient"
	"github.com/spawnkit/spawnkit/sessions"
	"github.com/spf13/cobra"
)

var (
	flagLaunchDir     string
	flagLaunchEnv     []string
	flagLaunchNoDisc  bool
	flagLaunchCapture bool
)

func init() {
	rootCmd.AddCommand(launchCmd)
	launchCmd.Flags().StringVarP(&flagLaunchDir, "workdir", "w", "", "Set the working directory")
	launchCmd.Flags().StringArrayVarP(&flagLaunchEnv, "env", "e", nil, "Extra environment variables (KEY=VALUE)")
	launchCmd.Flags().BoolVarP(&flagLaunchNoDisc, "no-disclaim", "D", false, "Keep the daemon responsible for the child's permissions")
	launchCmd.Flags().BoolVarP(&flagLaunchCapture, "capture", "c", false, "Capture output to a session log file")
}

var launchCmd = &cobra.Command{
	Use:     "launch [flags] -- COMMAND [ARGS]...",
	GroupID: groupSessions,
	Short:   "Launch a background session via the daemon",
	Long: `Launch a command in the background as a daemon-managed session.

The session outlives this terminal. Use "` + appid.ShortCtl + ` ps" to list
sessions and "` + appid.ShortCtl + ` wait" to collect the exit code.
`,
	Example: "  " + appid.ShortCmd + " launch -c -- ffmpeg -i in.mov out.mp4",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := &sessions.LaunchRequest{
			Args:          args,
			Dir:           flagLaunchDir,
			Env:           flagLaunchEnv,
			CaptureOutput: flagLaunchCapture,
		}
		if flagLaunchNoDisc {
			disclaim := false
			req.Disclaim = &disclaim
		}

		info, err := ctlclient.Client().Launch(req)
		checkCLI(err)

		fmt.Println(info.ID)
		return nil
	},
}
