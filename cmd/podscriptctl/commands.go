package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRunCommand(cl *client, jsonOut *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "run <job>",
		Short: "Run a job now and wait for its summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, raw, err := cl.run(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if *jsonOut {
				fmt.Fprintln(cmd.OutOrStdout(), string(raw))
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderSummary(s))
			if len(s.FailedByCategory) > 0 {
				fmt.Fprintln(cmd.OutOrStdout(), renderCategories(s.FailedByCategory))
			}
			return nil
		},
	}
}

func newEnqueueCommand(cl *client) *cobra.Command {
	return &cobra.Command{
		Use:   "enqueue <job>",
		Short: "Put a job into the run queue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := cl.enqueue(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Enqueued %s: %s\n", r.Job, r.ID)
			return nil
		},
	}
}

func newStatusCommand(cl *client) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show worker state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := cl.status(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), st)
			return nil
		},
	}
}
