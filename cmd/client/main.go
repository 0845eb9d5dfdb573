package main

import (
	logging "github.com/ipfs/go-log/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var log = logging.Logger("client")

const shortDescription = `
sizetracker client - Trigger samples and plots on a sizetracker service
`

const longDescription = `
The sizetracker client asks a running sizetracker service to sample its bucket
or to render the size plot, and prints the JSON result.

By default, it talks to a service on http://localhost:8080.
`

var (
	logLevel string

	rootCmd = &cobra.Command{
		Use:   "sizetracker-client",
		Short: shortDescription,
		Long:  longDescription,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			ll, err := logging.LevelFromString(logLevel)
			if err != nil {
				return err
			}
			logging.SetAllLoggers(ll)
			return nil
		},
	}
)

func init() {
	viper.AutomaticEnv()
	viper.SetEnvPrefix("SIZETRACKER")

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "logging level")

	rootCmd.PersistentFlags().String(
		"service-url",
		"http://localhost:8080",
		"Base URL of the sizetracker service",
	)
	cobra.CheckErr(viper.BindPFlag("service_url", rootCmd.PersistentFlags().Lookup("service-url")))

	rootCmd.PersistentFlags().Duration(
		"timeout",
		0,
		"Request timeout, 0 waits for as long as the service takes",
	)
	cobra.CheckErr(viper.BindPFlag("timeout", rootCmd.PersistentFlags().Lookup("timeout")))

	// register all commands and their subcommands
	rootCmd.AddCommand(sampleCmd)
	rootCmd.AddCommand(plotCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
