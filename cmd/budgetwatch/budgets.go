package main

import (
	"context"
	"fmt"

	"github.com/budgetwatch/budgetwatch-go/pkg/budgetwatch"
	"github.com/spf13/cobra"
)

var budgetsCmd = &cobra.Command{
	Use:   "budgets",
	Short: "List the budgets available to the configured token",
	Long:  "Lists budget ids and names so setup can pick a budget_id for the config file.",
	RunE:  runBudgets,
}

func init() {
	rootCmd.AddCommand(budgetsCmd)
}

func runBudgets(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(flagConfig)
	if err != nil {
		return err
	}

	logger := newLogger(flagVerbose)

	client, err := budgetwatch.NewClient(&budgetwatch.ClientOptions{
		Token:    cfg.AccessToken,
		Logger:   logger,
		Trackers: trackers,
	})
	if err != nil {
		return err
	}

	budgets, err := client.GetBudgets(context.Background())
	if err != nil {
		return err
	}

	if len(budgets) == 0 {
		fmt.Println("No budgets found for this token.")
		return nil
	}

	for _, b := range budgets {
		fmt.Printf("%s  %s\n", b.ID, b.Name)
	}

	quota := client.Quota()
	fmt.Printf("\nRequests this hour: %d (estimated remaining: %d)\n", quota.RequestsThisHour, quota.EstimatedRemaining)
	return nil
}
