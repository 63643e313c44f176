package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/fatih/color"
	"github.com/goodtune/appwatch/internal/config"
	"github.com/goodtune/appwatch/internal/storage"
	"github.com/spf13/cobra"
)

var (
	limitDaily  int
	limitHourly int
)

var limitsCmd = &cobra.Command{
	Use:   "limits",
	Short: "Manage per-app usage limits",
	Long:  `Set, show, and clear the daily and hourly usage limits the monitor enforces.`,
}

var limitsSetCmd = &cobra.Command{
	Use:   "set APP_ID",
	Short: "Set usage limits for an app",
	Example: `  appwatch limits set com.google.android.youtube --daily 90
  appwatch limits set com.google.android.youtube --daily 90 --hourly 30`,
	Args: cobra.ExactArgs(1),
	RunE: runLimitsSet,
}

var limitsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show all configured limits",
	Args:  cobra.NoArgs,
	RunE:  runLimitsShow,
}

var limitsClearCmd = &cobra.Command{
	Use:   "clear APP_ID",
	Short: "Remove both limits for an app",
	Args:  cobra.ExactArgs(1),
	RunE:  runLimitsClear,
}

func init() {
	limitsSetCmd.Flags().IntVar(&limitDaily, "daily", 0, "Daily limit in minutes")
	limitsSetCmd.Flags().IntVar(&limitHourly, "hourly", 0, "Hourly limit in minutes")

	limitsCmd.AddCommand(limitsSetCmd)
	limitsCmd.AddCommand(limitsShowCmd)
	limitsCmd.AddCommand(limitsClearCmd)
	rootCmd.AddCommand(limitsCmd)
}

func runLimitsSet(cmd *cobra.Command, args []string) error {
	appID := args[0]

	if limitDaily == 0 && limitHourly == 0 {
		return fmt.Errorf("at least one of --daily or --hourly is required")
	}
	if limitDaily != 0 && (limitDaily < 1 || limitDaily > storage.MaxDailyLimitMinutes) {
		return fmt.Errorf("daily limit must be between 1 and %d minutes", storage.MaxDailyLimitMinutes)
	}
	if limitHourly != 0 && (limitHourly < 1 || limitHourly > 60) {
		return fmt.Errorf("hourly limit must be between 1 and 60 minutes")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	store, err := openStorage(cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()

	limits := store.Limits()
	green := color.New(color.FgGreen)

	if limitDaily != 0 {
		if err := limits.SetDaily(cmd.Context(), appID, limitDaily); err != nil {
			return fmt.Errorf("failed to set daily limit: %w", err)
		}
		green.Printf("✅ Daily limit for %s set to %d minutes\n", appID, limitDaily)
	}

	if limitHourly != 0 {
		if err := limits.SetHourly(cmd.Context(), appID, limitHourly); err != nil {
			return fmt.Errorf("failed to set hourly limit: %w", err)
		}
		green.Printf("✅ Hourly limit for %s set to %d minutes\n", appID, limitHourly)
	}

	return nil
}

func runLimitsShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	store, err := openStorage(cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()

	records, err := store.Limits().List(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list limits: %w", err)
	}

	if len(records) == 0 {
		fmt.Println("No limits configured.")
		return nil
	}

	cyan := color.New(color.FgCyan, color.Bold)

	fmt.Println()
	cyan.Printf("%-44s%10s%10s\n", "APP", "DAILY", "HOURLY")
	for _, rec := range records {
		fmt.Fprintf(os.Stdout, "%-44s%10s%10s\n",
			rec.AppID,
			formatLimit(rec.DailyMinutes),
			formatLimit(rec.HourlyMinutes))
	}
	fmt.Println()

	return nil
}

func runLimitsClear(cmd *cobra.Command, args []string) error {
	appID := args[0]

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	store, err := openStorage(cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()

	if err := store.Limits().Clear(cmd.Context(), appID); err != nil {
		return fmt.Errorf("failed to clear limits: %w", err)
	}

	color.New(color.FgGreen).Printf("✅ Limits cleared for %s\n", appID)
	return nil
}

func formatLimit(minutes *int) string {
	if minutes == nil {
		return "-"
	}
	return strconv.Itoa(*minutes) + "m"
}
