package main

import (
	"time"

	"github.com/spf13/cobra"
)

const defaultURL = "http://localhost:8000"

func newRootCommand() *cobra.Command {
	var urlFlag string
	var timeoutFlag time.Duration
	var jsonFlag bool

	cl := &client{}

	rootCmd := &cobra.Command{
		Use:           "podscriptctl",
		Short:         "Podscript transcript worker control",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return cl.init(urlFlag, timeoutFlag)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&urlFlag, "url", defaultURL, "Admin endpoint of the podscript worker")
	rootCmd.PersistentFlags().DurationVar(&timeoutFlag, "timeout", time.Hour, "Request timeout")
	rootCmd.PersistentFlags().BoolVar(&jsonFlag, "json", false, "Print raw JSON")

	rootCmd.AddCommand(newRunCommand(cl, &jsonFlag))
	rootCmd.AddCommand(newEnqueueCommand(cl))
	rootCmd.AddCommand(newStatusCommand(cl))

	return rootCmd
}
