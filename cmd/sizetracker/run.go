package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/storacha/sizetracker/internal/sampler"
)

var sampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Record one size sample of the bucket and print it",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := buildComponents(cmd.Context())
		if err != nil {
			return err
		}

		sample, err := c.sampler.Sample(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(sampler.NewResult(sample))
	},
}

var plotCmd = &cobra.Command{
	Use:   "plot",
	Short: "Render the plot once, upload it and print the result",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := buildComponents(cmd.Context())
		if err != nil {
			return err
		}

		res, err := c.generator.RenderPlot(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(res)
	},
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
