package main

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/shiftdesk/workforce-api/pkg/conflicts"
	"github.com/shiftdesk/workforce-api/pkg/models"
	"github.com/shiftdesk/workforce-api/pkg/urgency"
)

func conflictsCmd() *cobra.Command {
	var (
		file     string
		timezone string
	)

	cmd := &cobra.Command{
		Use:   "conflicts",
		Short: "Detect overlaps, short rests, overtime and availability violations in a roster",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var roster rosterFile
			if err := loadYAML(file, &roster); err != nil {
				return err
			}

			if timezone == "" {
				timezone = roster.Timezone
			}
			loc, err := loadLocation(timezone)
			if err != nil {
				return err
			}

			avail, err := roster.availability()
			if err != nil {
				return err
			}

			found := conflicts.Detect(roster.shifts(), avail, loc)
			printConflicts(cmd.OutOrStdout(), found)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Roster YAML file (required)")
	cmd.Flags().StringVar(&timezone, "tz", "", "IANA timezone for local days, overrides the file (default UTC)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func urgencyCmd() *cobra.Command {
	var (
		file string
		at   string
	)

	cmd := &cobra.Command{
		Use:   "urgency",
		Short: "Rank pending tasks by urgency",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var snapshot tasksFile
			if err := loadYAML(file, &snapshot); err != nil {
				return err
			}

			now := time.Now()
			if snapshot.Now != nil {
				now = *snapshot.Now
			}
			if at != "" {
				parsed, err := time.Parse(time.RFC3339, at)
				if err != nil {
					return fmt.Errorf("--now must be an RFC 3339 timestamp: %w", err)
				}
				now = parsed
			}

			tasks := snapshot.tasks()
			printUrgency(cmd.OutOrStdout(), urgency.Rank(tasks, now), tasks, now)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Tasks YAML file (required)")
	cmd.Flags().StringVar(&at, "now", "", "Evaluate at this RFC 3339 instant instead of the file's or the clock's")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func loadLocation(name string) (*time.Location, error) {
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("unknown timezone %q: %w", name, err)
	}
	return loc, nil
}

func printConflicts(w io.Writer, found map[string][]models.Conflict) {
	employees := make([]string, 0, len(found))
	total := 0
	for employeeID, list := range found {
		if len(list) == 0 {
			continue
		}
		employees = append(employees, employeeID)
		total += len(list)
	}
	if total == 0 {
		fmt.Fprintln(w, "No conflicts found.")
		return
	}
	sort.Strings(employees)

	fmt.Fprintf(w, "Found %d conflicts for %d employees:\n", total, len(employees))
	for _, employeeID := range employees {
		fmt.Fprintf(w, "\n%s\n", employeeID)
		for _, c := range found[employeeID] {
			fmt.Fprintf(w, "  - [%s] %s %v\n", c.Kind, c.Message, c.ShiftIDs)
		}
	}
}

func printUrgency(w io.Writer, ranked []models.UrgencyResult, tasks []models.Task, now time.Time) {
	if len(ranked) == 0 {
		fmt.Fprintln(w, "No pending tasks.")
		return
	}

	byID := make(map[string]models.Task, len(tasks))
	for _, t := range tasks {
		byID[t.ID] = t
	}

	fmt.Fprintf(w, "Urgency at %s\n\n", now.Format(time.RFC3339))
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TASK\tLEVEL\tSCORE\tDUE\tTITLE")
	for _, r := range ranked {
		t := byID[r.TaskID]
		fmt.Fprintf(tw, "%s\t%s\t%.2f\t%s\t%s\n", r.TaskID, r.Level, r.Score, t.DueAt.Format(time.RFC3339), t.Title)
	}
	_ = tw.Flush()
}
