package main

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/mr1hm/cuya-bot/internal/models"
	"github.com/mr1hm/cuya-bot/internal/repository"
)

var (
	reportsLimit  int
	reportsOffset int
)

// reportsCmd groups report management subcommands
var reportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "List or delete stored reports",
}

var reportsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List reports, newest first",
	Args:  cobra.NoArgs,
	RunE:  runReportsList,
}

var reportsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a report by id (no error if it does not exist)",
	Args:  cobra.ExactArgs(1),
	RunE:  runReportsDelete,
}

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

func runReportsList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	reports, err := db.ListReports(ctx, repository.Filter{Limit: reportsLimit, Offset: reportsOffset})
	if err != nil {
		return err
	}

	if len(reports) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No reports.")
		return nil
	}

	fmt.Fprintln(cmd.OutOrStdout(), renderReports(reports))
	return nil
}

func renderReports(reports []models.Report) string {
	rows := make([][]string, 0, len(reports))
	for _, r := range reports {
		rows = append(rows, []string{strconv.FormatInt(r.ID, 10), r.Timestamp, r.EmergencyType, r.Location})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers("ID", "TIME", "EMERGENCY", "LOCATION").
		Rows(rows...)

	return t.String()
}

func runReportsDelete(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id < 1 {
		return fmt.Errorf("invalid report id %q", args[0])
	}

	ctx := cmd.Context()
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Delete(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted report %d\n", id)
	return nil
}

func init() {
	reportsListCmd.Flags().IntVar(&reportsLimit, "limit", 0, "Maximum number of reports (0 = all)")
	reportsListCmd.Flags().IntVar(&reportsOffset, "offset", 0, "Number of newest reports to skip")

	reportsCmd.AddCommand(reportsListCmd)
	reportsCmd.AddCommand(reportsDeleteCmd)
	rootCmd.AddCommand(reportsCmd)
}
