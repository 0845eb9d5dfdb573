package main

import (
	logging "github.com/ipfs/go-log/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var log = logging.Logger("sizetracker")

const shortDescription = `
sizetracker - Bucket size history and plots
`

const longDescription = `
sizetracker samples the total size and object count of a bucket into a DynamoDB
history table and renders the recent history, against the largest size ever
recorded, as a chart stored back into the bucket.
`

var (
	cfgFile string

	logLevel string

	rootCmd = &cobra.Command{
		Use:   "sizetracker",
		Short: shortDescription,
		Long:  longDescription,
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "logging level")

	rootCmd.PersistentFlags().String("bucket-name", "", "Name of the bucket to track")
	cobra.CheckErr(viper.BindPFlag("bucket_name", rootCmd.PersistentFlags().Lookup("bucket-name")))

	rootCmd.PersistentFlags().String("table-name", "", "Name of the DynamoDB table holding the size history")
	cobra.CheckErr(viper.BindPFlag("table_name", rootCmd.PersistentFlags().Lookup("table-name")))

	rootCmd.PersistentFlags().Int("recent-window-seconds", 60, "Length in seconds of the window plotted")
	cobra.CheckErr(viper.BindPFlag("recent_window_seconds", rootCmd.PersistentFlags().Lookup("recent-window-seconds")))

	rootCmd.PersistentFlags().String("empty-window-policy", "synthetic-zero-point", "What to plot when the window is empty: fail or synthetic-zero-point")
	cobra.CheckErr(viper.BindPFlag("empty_window_policy", rootCmd.PersistentFlags().Lookup("empty-window-policy")))

	rootCmd.PersistentFlags().String("object-store", "s3", "Object store backend: s3 or minio")
	cobra.CheckErr(viper.BindPFlag("object_store", rootCmd.PersistentFlags().Lookup("object-store")))

	// register all commands and their subcommands
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(sampleCmd)
	rootCmd.AddCommand(plotCmd)
	rootCmd.AddCommand(lambdaCmd)
}

func initConfig() {
	viper.AutomaticEnv()
	viper.SetEnvPrefix("SIZETRACKER")

	if logLevel != "" {
		ll, err := logging.LevelFromString(logLevel)
		cobra.CheckErr(err)
		logging.SetAllLoggers(ll)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		cobra.CheckErr(viper.ReadInConfig())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
