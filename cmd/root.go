package cmd

import (
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "webchat",
	Short: "Embeddable chat widget and gateway",
	Long: `Webchat serves an embeddable chat widget and the gateway behind it.
Each widget connects over a websocket; bot replies are typed out one
character at a time and every message renders strictly in order.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", ".webchat.yml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
