package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/plantcare/internal/status"
	"github.com/spf13/cobra"
)

func newDashboardCmd(root *rootOptions) *cobra.Command {
	var (
		email    string
		password string
		date     string
	)
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Print a user's care summary for one day",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(date) == "" {
				date = time.Now().Format(status.DateLayout)
			}

			backend, cleanup, err := openBackend(root)
			if err != nil {
				return err
			}
			defer cleanup()

			ctx := cmd.Context()
			login, err := backend.Auth.Login(ctx, email, password)
			if err != nil {
				return err
			}
			summary, err := backend.Plants.Dashboard(ctx, login.User.ID, date)
			if err != nil {
				return err
			}

			printSummary(cmd, login.User.Email, summary)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", defaultUserEmail, "login email")
	cmd.Flags().StringVar(&password, "password", defaultUserPassword, "login password")
	cmd.Flags().StringVar(&date, "date", "", "day to summarise (YYYY-MM-DD, default today)")
	return cmd
}

func printSummary(cmd *cobra.Command, email string, s status.Summary) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s @ %s\n", email, s.Date)
	fmt.Fprintf(out, "  total plants:     %d\n", s.TotalPlants)
	fmt.Fprintf(out, "  watered today:    %d (need watering: %d)\n", s.WateredToday, s.NeedWatering)
	fmt.Fprintf(out, "  fertilized today: %d (need fertilizing: %d)\n", s.FertilizedToday, s.NeedFertilizing)
	fmt.Fprintf(out, "  harvested today:  %d\n", s.HarvestedToday)
	fmt.Fprintf(out, "  ready to harvest: %d\n", s.ReadyToHarvest)
}

