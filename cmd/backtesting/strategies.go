package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var strategiesCmd = &cobra.Command{
	Use:   "strategies",
	Short: "List available strategies",
	RunE:  runStrategies,
}

func init() {
	rootCmd.AddCommand(strategiesCmd)
}

func runStrategies(cmd *cobra.Command, args []string) error {
	log, cfg, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	registry, err := buildRegistry(cfg)
	if err != nil {
		return err
	}

	for _, s := range registry.GetAll() {
		fmt.Printf("%-14s %s (warmup %d bars)\n", s.Name(), s.Description(), s.WarmupBars())
	}
	return nil
}
