package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"strconv"

	"github.com/spawnkit/spawnkit/conf/appid"
	"github.com/spawnkit/spawnkit/ctlclient"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configResetCmd)
}

var configCmd = &cobra.Command{
	Use:     "config",
	Short:   "Change daemon settings",
	Long:    `Change daemon settings.`,
	GroupID: groupGeneral,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Show the current daemon configuration.
`,
	Example: "  " + appid.ShortCtl + " config show",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := ctlclient.Client().GetConfig()
		checkCLI(err)

		// round-trip through json to get the wire key names
		jsonData, err := json.Marshal(config)
		checkCLI(err)
		var configMap map[string]any
		err = json.Unmarshal(jsonData, &configMap)
		checkCLI(err)

		// print keys in sorted order
		lines := make([]string, 0, len(configMap))
		for key, value := range configMap {
			lines = append(lines, fmt.Sprintf("%s: %v", key, value))
		}
		slices.Sort(lines)
		for _, line := range lines {
			cmd.Println(line)
		}

		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set KEY VALUE",
	Short: "Set a configuration option",
	Long: `Set a single daemon configuration option.

See "` + appid.ShortCtl + ` config show" for a list of options.
`,
	Example: "  " + appid.ShortCtl + " config set disclaim_by_default false",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := ctlclient.Client().GetConfig()
		checkCLI(err)

		key := args[0]
		value := args[1]
		switch key {
		case "disclaim_by_default":
			val, err := strconv.ParseBool(value)
			checkCLI(err)
			config.DisclaimByDefault = val
		case "ssh_server":
			val, err := strconv.ParseBool(value)
			checkCLI(err)
			config.SSHServer = val
		case "ssh_port":
			val, err := strconv.Atoi(value)
			checkCLI(err)
			config.SSHPort = val
		case "history_size":
			val, err := strconv.Atoi(value)
			checkCLI(err)
			config.HistorySize = val
		default:
			cmd.PrintErrln("Unknown configuration key:", key)
			os.Exit(1)
		}

		err = config.Validate()
		checkCLI(err)
		err = ctlclient.Client().SetConfig(config)
		checkCLI(err)

		return nil
	},
}

var configResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset config to defaults",
	Long: `Reset all daemon configuration options to their default values.
`,
	Example: "  " + appid.ShortCtl + " config reset",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		err := ctlclient.Client().ResetConfig()
		checkCLI(err)

		return nil
	},
}
