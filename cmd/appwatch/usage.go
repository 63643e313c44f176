package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/goodtune/appwatch/internal/config"
	"github.com/goodtune/appwatch/internal/usage"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	usageApp    string
	usageWeekly bool
	usageWatch  bool
)

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Show per-app screen time",
	Long: `Show per-app foreground time for the current day, reconstructed from
the collector's event journal. With --app, show one app's total
including its currently open session; with --weekly, show the last
seven days bucketed per weekday.`,
	Example: `  appwatch usage
  appwatch usage --watch
  appwatch usage --app com.google.android.youtube
  appwatch usage --app com.google.android.youtube --weekly`,
	RunE: runUsage,
}

func init() {
	usageCmd.Flags().StringVar(&usageApp, "app", "", "Show usage for a single app identifier")
	usageCmd.Flags().BoolVar(&usageWeekly, "weekly", false, "Show the last 7 days bucketed per weekday (requires --app)")
	usageCmd.Flags().BoolVar(&usageWatch, "watch", false, "Refresh the view on the display interval")
	rootCmd.AddCommand(usageCmd)
}

func runUsage(cmd *cobra.Command, args []string) error {
	if usageWeekly && usageApp == "" {
		return fmt.Errorf("--weekly requires --app")
	}

	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Create a quiet logger for display mode
	logger := zerolog.New(os.Stderr).Level(zerolog.ErrorLevel).With().Timestamp().Logger()

	queries, err := buildQueries(cfg, logger)
	if err != nil {
		return err
	}

	render := func() error {
		switch {
		case usageWeekly:
			return printWeekly(cmd, queries)
		case usageApp != "":
			return printAppToday(cmd, queries)
		default:
			return printDaySoFar(cmd, queries)
		}
	}

	if !usageWatch {
		return render()
	}

	// Watch mode: redraw on the display refresh interval until
	// interrupted.
	interval := parseDuration(cfg.Display.RefreshInterval, 50*time.Second)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := render(); err != nil {
			return err
		}

		select {
		case <-cmd.Context().Done():
			return nil
		case <-ticker.C:
		}
	}
}

func printDaySoFar(cmd *cobra.Command, queries *usage.Queries) error {
	now := time.Now()

	totals, err := queries.DaySoFar(cmd.Context(), now)
	if err != nil {
		return fmt.Errorf("failed to compute usage: %w", err)
	}

	cyan := color.New(color.FgCyan, color.Bold)
	green := color.New(color.FgGreen)

	fmt.Println()
	cyan.Printf("SCREEN TIME — %s\n", now.Format("Monday, 02 Jan 2006"))
	cyan.Println(strings.Repeat("━", 50))

	if len(totals) == 0 {
		fmt.Println("No usage above the one-minute floor yet today.")
		fmt.Println()
		return nil
	}

	var total time.Duration
	for _, t := range totals {
		green.Printf("%-36s", t.AppName)
		fmt.Printf("%14s\n", formatUsage(t.Duration))
		total += t.Duration
	}

	cyan.Println(strings.Repeat("─", 50))
	cyan.Printf("%-36s", "Total")
	cyan.Printf("%14s\n", formatUsage(total))
	fmt.Println()

	return nil
}

func printAppToday(cmd *cobra.Command, queries *usage.Queries) error {
	now := time.Now()

	d, err := queries.AppUsageToday(cmd.Context(), usageApp, now)
	if err != nil {
		return fmt.Errorf("failed to compute usage for %s: %w", usageApp, err)
	}

	cyan := color.New(color.FgCyan, color.Bold)

	fmt.Println()
	cyan.Printf("%s\n", usageApp)
	fmt.Printf("Today so far: %s\n", formatUsage(d))
	fmt.Println()

	return nil
}

func printWeekly(cmd *cobra.Command, queries *usage.Queries) error {
	now := time.Now()

	buckets, err := queries.WeeklyBuckets(cmd.Context(), usageApp, now)
	if err != nil {
		return fmt.Errorf("failed to compute weekly usage for %s: %w", usageApp, err)
	}

	cyan := color.New(color.FgCyan, color.Bold)
	green := color.New(color.FgGreen)

	// Scale bars to the busiest day
	max := 0
	for _, b := range buckets {
		if b.Minutes > max {
			max = b.Minutes
		}
	}

	fmt.Println()
	cyan.Printf("LAST 7 DAYS — %s\n", usageApp)
	cyan.Println(strings.Repeat("━", 50))

	const barWidth = 30
	for _, b := range buckets {
		bar := 0
		if max > 0 {
			bar = b.Minutes * barWidth / max
		}
		fmt.Printf("%-4s", b.Label)
		green.Printf("%-*s", barWidth+1, strings.Repeat("█", bar))
		fmt.Printf("%4d min\n", b.Minutes)
	}
	fmt.Println()

	return nil
}

// formatUsage renders a duration as "1h 24m" with minute precision.
func formatUsage(d time.Duration) string {
	minutes := int(d.Minutes())
	if minutes < 60 {
		return fmt.Sprintf("%dm", minutes)
	}
	return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
}
