package main

import (
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/spf13/cobra"

	"github.com/storacha/sizetracker/internal/invoke"
)

var lambdaCmd = &cobra.Command{
	Use:   "lambda",
	Short: "Run as an AWS Lambda function",
}

var lambdaSamplerCmd = &cobra.Command{
	Use:   "sampler",
	Short: "Sample the bucket on object created and removed notifications",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := lambdaHandlers(cmd)
		if err != nil {
			return err
		}
		lambda.Start(h.SamplerFunction())
		return nil
	},
}

var lambdaPlotterCmd = &cobra.Command{
	Use:   "plotter",
	Short: "Render the plot for API Gateway requests",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := lambdaHandlers(cmd)
		if err != nil {
			return err
		}
		lambda.Start(h.PlotterFunction())
		return nil
	},
}

var lambdaScheduledPlotterCmd = &cobra.Command{
	Use:   "scheduled-plotter",
	Short: "Render the plot on a scheduled rule",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := lambdaHandlers(cmd)
		if err != nil {
			return err
		}
		lambda.Start(h.ScheduledPlotterFunction())
		return nil
	},
}

func init() {
	lambdaCmd.AddCommand(lambdaSamplerCmd)
	lambdaCmd.AddCommand(lambdaPlotterCmd)
	lambdaCmd.AddCommand(lambdaScheduledPlotterCmd)
}

func lambdaHandlers(cmd *cobra.Command) (*invoke.Handlers, error) {
	c, err := buildComponents(cmd.Context())
	if err != nil {
		return nil, err
	}
	return invoke.New(c.sampler, c.generator), nil
}
