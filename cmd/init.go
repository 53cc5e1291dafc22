package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/webchat/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize webchat configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to configure the webchat gateway and writes a .webchat.yml file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.RunWizard(cfgFile)
		if err != nil {
			return err
		}
		fmt.Fprintln(os.Stderr, "Start the gateway with `webchat server`.")
		if cfg.DevMode {
			fmt.Fprintf(os.Stderr, "Dev mode is on: open http://localhost:%d/ to try the widget.\n", cfg.Server.Port)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
