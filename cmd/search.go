package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/mohammad-safakhou/vigia/config"
	"github.com/mohammad-safakhou/vigia/internal/search"
)

func searchCMD() *cobra.Command {
	var cfgPath string
	var daysBack int
	var agents []string

	var cmd = &cobra.Command{
		Use:   "search [company name]",
		Short: "Run a one-shot fan-out search and print the raw results",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(cfgPath)
			if err != nil {
				return err
			}
			logger := log.New(os.Stderr, "[ORCH] ", log.LstdFlags)
			orch := search.NewOrchestrator(cfg.Sources, nil, logger, nil)
			q := search.Query{Text: args[0], DaysBack: daysBack}

			results := orch.SearchAll(context.Background(), q, agents)
			out, err := json.MarshalIndent(results, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}
	cmd.Flags().IntVar(&daysBack, "days-back", 7, "search window when dates are not given")
	cmd.Flags().StringSliceVar(&agents, "agents", nil, "agents to query (default all)")
	cmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default is .)")

	return cmd
}
