package cmd

import (
	"fmt"

	"github.com/spawnkit/spawnkit/cmd/skctl/spinutil"
	"github.com/spawnkit/spawnkit/conf/appid"
	"github.com/spawnkit/spawnkit/ctlclient"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(daemonCmd)
	daemonCmd.AddCommand(daemonStartCmd)
	daemonCmd.AddCommand(daemonStopCmd)
	daemonCmd.AddCommand(daemonStatusCmd)
}

var daemonCmd = &cobra.Command{
	Use:     "daemon",
	GroupID: groupGeneral,
	Short:   "Manage the " + appid.DaemonName + " daemon",
}

var daemonStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the daemon",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if ctlclient.IsRunning() {
			cmd.PrintErrln(appid.DaemonName + " is already running")
			return nil
		}

		spin := spinutil.Start("green", "Starting "+appid.DaemonName)
		err := ctlclient.EnsureDaemon()
		spin.Stop()
		checkCLI(err)

		return nil
	},
}

var daemonStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the daemon",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !ctlclient.IsRunning() {
			cmd.PrintErrln(appid.DaemonName + " is not running")
			return nil
		}

		client, err := ctlclient.NewClient()
		checkCLI(err)
		defer client.Close()

		spin := spinutil.Start("red", "Stopping "+appid.DaemonName)
		err = client.SyntheticStopOrKill()
		spin.Stop()
		checkCLI(err)

		return nil
	},
}

var daemonStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon status",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !ctlclient.IsRunning() {
			cmd.PrintErrln(appid.DaemonName + " is not running")
			return nil
		}

		client, err := ctlclient.NewClient()
		checkCLI(err)
		defer client.Close()

		info, err := client.Info()
		checkCLI(err)

		fmt.Printf("Running: pid %d\n", info.Pid)
		fmt.Printf("Version: %s (%s)\n", info.Version, info.BuildID)
		fmt.Printf("OS: %s\n", info.OSVersion)
		fmt.Printf("Disclaim supported: %v\n", info.DisclaimSupported)
		return nil
	},
}
