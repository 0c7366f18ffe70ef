// Command admin runs operator tasks against the complaints store.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"complaints/backend/internal/bootstrap"
	"complaints/backend/internal/complaint"
	"complaints/backend/internal/config"
	"complaints/backend/internal/gamification"
	"complaints/backend/internal/logging"
	"complaints/backend/internal/models"
	"complaints/backend/internal/storage"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// opener returns an initialized store and a function releasing it.
type opener func(ctx context.Context) (*storage.Store, func(), error)

func main() {
	if err := rootCmd(openFromConfig).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func openFromConfig(ctx context.Context) (*storage.Store, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	logger := logging.New(cfg.LogLevel)
	infra, err := bootstrap.Open(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	if err := infra.Store.Initialize(ctx); err != nil {
		infra.Close()
		return nil, nil, err
	}
	return infra.Store, func() { infra.Close() }, nil
}

func rootCmd(open opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "admin",
		Short:         "Operator tasks for the complaints store",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(snapshotCmd(open), statusCmd(open), awardCmd(open), seedCheckCmd(open))
	return cmd
}

// withStore opens the store for the duration of fn.
func withStore(cmd *cobra.Command, open opener, fn func(ctx context.Context, s *storage.Store) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	s, release, err := open(ctx)
	if err != nil {
		return err
	}
	defer release()
	return fn(ctx, s)
}

func snapshotCmd(open opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Export or import the persisted snapshot",
	}

	var out string
	export := &cobra.Command{
		Use:   "export",
		Short: "Write the current snapshot to a file or stdout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, open, func(ctx context.Context, s *storage.Store) error {
				encoded, err := s.Snapshot(ctx)
				if err != nil {
					return err
				}
				if out == "" || out == "-" {
					_, err = fmt.Fprintln(cmd.OutOrStdout(), encoded)
					return err
				}
				return os.WriteFile(out, []byte(encoded), 0o600)
			})
		},
	}
	export.Flags().StringVarP(&out, "out", "o", "", "Output file (default stdout)")

	importCmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Replace the store with a previously exported snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			return withStore(cmd, open, func(ctx context.Context, s *storage.Store) error {
				if err := s.Restore(ctx, strings.TrimSpace(string(raw))); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Snapshot %s restored.\n", args[0])
				return nil
			})
		},
	}

	cmd.AddCommand(export, importCmd)
	return cmd
}

func statusCmd(open opener) *cobra.Command {
	var by string
	cmd := &cobra.Command{
		Use:   "status <complaint_id> <status>",
		Short: "Move a complaint to another status (" + strings.Join(models.Statuses, ", ") + ")",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, open, func(ctx context.Context, s *storage.Store) error {
				svc := complaint.NewLocal(s, nil, quietLogger())
				c, err := svc.UpdateComplaintStatus(ctx, args[0], args[1], by)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Complaint %s is now %s.\n", c.ID, c.Status)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&by, "by", "admin", "Recorded as the author of the change")
	return cmd
}

func awardCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "award <user_id> <points> <reason>",
		Short: "Grant transparency points to a user",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			points, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid points %q: provide an integer", args[1])
			}
			reason := strings.Join(args[2:], " ")
			return withStore(cmd, open, func(ctx context.Context, s *storage.Store) error {
				svc := gamification.NewLocal(s, nil, quietLogger())
				u, err := svc.AwardPoints(ctx, args[0], points, reason)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "User %s has %d points (level %d).\n", u.ID, u.TransparencyPoints, u.Level)
				return nil
			})
		},
	}
}

// seedCounts are the tables reported by seed-check.
var seedCounts = []string{"users", "categories", "complaints", "comments", "notifications", "badges", "achievements"}

func seedCheckCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "seed-check",
		Short: "Print row counts of every table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, open, func(ctx context.Context, s *storage.Store) error {
				return printCounts(ctx, cmd.OutOrStdout(), s)
			})
		},
	}
}

func printCounts(ctx context.Context, w io.Writer, s *storage.Store) error {
	for _, table := range seedCounts {
		rows, err := s.Query(ctx, "SELECT COUNT(*) AS n FROM "+table)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%-14s %v\n", table, rows[0]["n"])
	}
	return nil
}

func quietLogger() *logrus.Logger {
	return logging.New("warn")
}
