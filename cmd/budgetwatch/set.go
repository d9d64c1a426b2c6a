package main

import (
	"fmt"
	"strconv"

	"github.com/budgetwatch/budgetwatch-go/internal/store"
	"github.com/budgetwatch/budgetwatch-go/pkg/budgetwatch"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var setCmd = &cobra.Command{
	Use:   "set",
	Short: "Edit per-account user values",
}

var setCreditLimitCmd = &cobra.Command{
	Use:   "credit-limit <account-id> <amount>",
	Short: "Set the credit limit for an account",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		value, err := decimal.NewFromString(args[1])
		if err != nil {
			return fmt.Errorf("invalid amount %q: %w", args[1], err)
		}
		return withEditStore(func(edits *budgetwatch.UserEditStore) error {
			return edits.SetCreditLimit(args[0], value)
		})
	},
}

var setAPRCmd = &cobra.Command{
	Use:   "apr <account-id> <percentage>",
	Short: "Set the APR for an account",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		value, err := decimal.NewFromString(args[1])
		if err != nil {
			return fmt.Errorf("invalid percentage %q: %w", args[1], err)
		}
		return withEditStore(func(edits *budgetwatch.UserEditStore) error {
			return edits.SetAPR(args[0], value)
		})
	},
}

var setDueDayCmd = &cobra.Command{
	Use:   "due-day <account-id> <day>",
	Short: "Set the statement due day (1-31) for an account",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		day, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid day %q: %w", args[1], err)
		}
		return withEditStore(func(edits *budgetwatch.UserEditStore) error {
			return edits.SetDueDay(args[0], day)
		})
	},
}

func init() {
	setCmd.AddCommand(setCreditLimitCmd, setAPRCmd, setDueDayCmd)
	rootCmd.AddCommand(setCmd)
}

// withEditStore opens the durable store, loads the edit record, applies one
// mutation, and reports the result. A running daemon picks the change up on
// its next load; the daemon's own mutation path republishes immediately.
func withEditStore(fn func(*budgetwatch.UserEditStore) error) error {
	cfg, err := loadConfig(flagConfig)
	if err != nil {
		return err
	}

	logger := newLogger(flagVerbose)

	db, err := store.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	edits := budgetwatch.NewUserEditStore(db, cfg.InstanceID, logger)
	if err := edits.Load(); err != nil {
		return err
	}

	if err := fn(edits); err != nil {
		return err
	}

	fmt.Println("Saved.")
	return nil
}
