package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/budgetwatch/budgetwatch-go/internal/store"
	"github.com/budgetwatch/budgetwatch-go/pkg/budgetwatch"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the polling loop until interrupted",
	RunE:  runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(flagConfig)
	if err != nil {
		return err
	}
	if cfg.BudgetID == "" {
		return fmt.Errorf("config %s: budget_id is required to run", flagConfig)
	}

	logger := newLogger(flagVerbose)

	db, err := store.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	client, err := budgetwatch.NewClient(&budgetwatch.ClientOptions{
		Token:     cfg.AccessToken,
		Logger:    logger,
		Trackers:  trackers,
		SentryDSN: cfg.SentryDSN,
	})
	if err != nil {
		return err
	}

	edits := budgetwatch.NewUserEditStore(db, cfg.InstanceID, logger)
	if err := edits.Load(); err != nil {
		return err
	}

	snapshots := budgetwatch.NewSnapshotStore(db, cfg.InstanceID, logger)

	budgetName := budgetwatch.SanitizeBudgetName(cfg.BudgetName)
	engine := budgetwatch.NewRefreshEngine(client, edits, snapshots, budgetwatch.EngineConfig{
		BudgetID:                cfg.BudgetID,
		BudgetName:              budgetName,
		SelectedAccounts:        cfg.SelectedAccounts,
		SelectedCategories:      cfg.SelectedCategories,
		IncludeClosedAccounts:   cfg.IncludeClosedAccounts,
		IncludeHiddenCategories: cfg.IncludeHiddenCategories,
	}, logger)

	// Serve last-known-good data to subscribers before the first cycle.
	engine.LoadCached()

	symbol := budgetwatch.CurrencySymbol(cfg.Currency)
	engine.Subscribe(func(snap *budgetwatch.BudgetSnapshot) {
		logger.Debug("Snapshot published",
			"budget", snap.BudgetName,
			"status", snap.APIStatus.Status,
			"accounts", len(snap.Accounts),
			"currency", symbol,
			"last_successful_poll", snap.LastSuccessfulPoll,
		)
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler := budgetwatch.NewScheduler(engine, cfg.pollInterval(), logger)
	logger.Info("Starting scheduler", "budget", budgetName, "interval", scheduler.Interval())
	scheduler.Start(ctx)

	<-ctx.Done()
	logger.Info("Shutting down")
	scheduler.Stop()
	return nil
}

// trackers is the process-wide quota registry: every client in this process
// sharing a credential shares one quota view through it.
var trackers = budgetwatch.NewTrackerRegistry()
