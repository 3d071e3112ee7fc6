package cmd

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "aanet",
	Short: "Arts & Aging Network event coordination service",
	Long: `Coordinates scheduled events between the network and its partner
facilities: event requests and their review, capacity-safe RSVPs,
time-gated check-in, and notification fan-out for every transition.`,
	Run: func(cmd *cobra.Command, args []string) {
		err := cmd.Help()
		if err != nil {
			log.Error().Err(err).Msg("Failed to display help")
		}
	},
}

// Execute executes the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize()
}
