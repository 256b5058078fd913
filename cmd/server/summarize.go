package main

import (
	"cardash/internal/engine"
	"os"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize",
	Short: "Load the source table once and print the dashboard datasets as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		pipeline, err := newPipeline(engine.NewStore())
		if err != nil {
			return err
		}
		data, err := pipeline.Run(cmd.Context())
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	},
}
