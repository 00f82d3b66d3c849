package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"jobmirror/internal/ats/registry"
	"jobmirror/internal/domain"
	"jobmirror/internal/pipeline"
	"jobmirror/internal/runlock"
	"jobmirror/internal/secrets"
	"jobmirror/internal/seed"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "jobmirror",
		Short:         "Mirror ATS career sites into a job table",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		scrapeCmd(), migrateCmd(), seedCmd(),
		lastRunCmd(), showJobCmd(),
		storePasswordCmd(), forgetPasswordCmd(),
	)
	return root
}

// scrapeCmd runs the pipeline once. Only operator errors (bad config,
// unknown ATS) fail the process; run failures are logged.
func scrapeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scrape <ats>",
		Short: "Run one scrape for an ATS (" + strings.Join(registry.Labels(), ", ") + ")",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.close()

			conn, err := registry.New(args[0], a.connectorOptions())
			if err != nil {
				return err
			}
			log := a.log.With(zap.String("ats", conn.ATS()))

			lock, err := runlock.Acquire(a.cfg.LockDir, conn.ATS())
			if err != nil {
				log.Error("run not started", zap.Error(err))
				return nil
			}
			defer func() { _ = lock.Release() }()

			db, err := a.openStore()
			if err != nil {
				log.Error("store unreachable, run not started", zap.Error(err))
				return nil
			}
			defer db.Close()

			runner := pipeline.NewRunner(db,
				pipeline.WithDelayPolicy(pipeline.FixedDelays(a.cfg.Pacing.ListingDelay, a.cfg.Pacing.DetailDelay)),
				pipeline.WithLogger(a.log),
			)
			if _, err := runner.Run(cmd.Context(), conn); err != nil {
				log.Error("run ended early", zap.Error(err))
			}
			return nil
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the companies, jobs and scrape_runs tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.close()

			db, err := a.openStore()
			if err != nil {
				return err
			}
			defer db.Close()

			if err := db.Migrate(cmd.Context()); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			a.log.Info("schema ready", zap.String("driver", a.cfg.Store.Driver))
			return nil
		},
	}
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed <companies.csv>",
		Short: "Load companies from a CSV with company,ats,career_site columns",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.close()

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			companies, err := seed.ReadCompanies(f)
			if err != nil {
				return err
			}

			db, err := a.openStore()
			if err != nil {
				return err
			}
			defer db.Close()

			if err := db.Migrate(cmd.Context()); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			added, err := db.InsertCompanies(cmd.Context(), companies)
			if err != nil {
				return err
			}
			a.log.Info("companies seeded",
				zap.String("file", args[0]),
				zap.Int("read", len(companies)),
				zap.Int("added", added),
			)
			return nil
		},
	}
}

func lastRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "last-run <ats>",
		Short: "Print the summary of the latest recorded run for an ATS",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.close()

			conn, err := registry.New(args[0], a.connectorOptions())
			if err != nil {
				return err
			}
			db, err := a.openStore()
			if err != nil {
				return err
			}
			defer db.Close()

			run, err := db.LastRun(cmd.Context(), conn.ATS())
			if err != nil {
				return err
			}
			s := run.Stats
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "run %s (%s)\n", run.ID, run.ATS)
			fmt.Fprintf(out, "  started   %s\n  ended     %s\n",
				run.StartedAt.Format(domain.TimeLayout), run.EndedAt.Format(domain.TimeLayout))
			fmt.Fprintf(out, "  companies %d (skipped %d, failed %d)\n", s.Companies, s.CompaniesSkipped, s.CompaniesFailed)
			fmt.Fprintf(out, "  postings  %d seen, %d rejected\n", s.PostingsSeen, s.PostingsRejected)
			fmt.Fprintf(out, "  added %d, updated %d, deactivated %d\n", s.Added, s.Updated, s.Deactivated)
			fmt.Fprintf(out, "  detail failures %d, write failures %d\n", s.DetailFailures, s.WriteFailures)
			return nil
		},
	}
}

func showJobCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show-job <id>",
		Short: "Print one mirrored posting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.close()

			db, err := a.openStore()
			if err != nil {
				return err
			}
			defer db.Close()

			j, err := db.GetJob(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			inactive := "-"
			if j.ScrapeInactiveRunID != nil {
				inactive = *j.ScrapeInactiveRunID
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s\n  %s\n", j.Title, j.URL)
			fmt.Fprintf(out, "  id %s, company %s\n", j.ID, j.CompanyID)
			fmt.Fprintf(out, "  location %q, remote %s, salary %q\n", j.Location, j.Remote, j.Salary)
			fmt.Fprintf(out, "  active %t, inserted %s by run %s, deactivated by run %s\n",
				j.Active, j.InsertTimestamp, j.ScrapeInsertRunID, inactive)
			return nil
		},
	}
}

// storePasswordCmd saves the postgres password (read from stdin) in the OS
// keychain under the configured user, host and database.
func storePasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "store-password",
		Short: "Save the postgres password from stdin in the OS keychain",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.close()

			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && line == "" {
				return fmt.Errorf("read password: %w", err)
			}
			account := a.keyringAccount()
			if err := secrets.SetStorePassword(account, strings.TrimRight(line, "\r\n")); err != nil {
				return err
			}
			a.log.Info("password stored", zap.String("account", account))
			return nil
		},
	}
}

func forgetPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "forget-password",
		Short: "Remove the stored postgres password from the OS keychain",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.close()

			account := a.keyringAccount()
			if err := secrets.DeleteStorePassword(account); err != nil {
				return fmt.Errorf("forget password for %s: %w", account, err)
			}
			a.log.Info("password removed", zap.String("account", account))
			return nil
		},
	}
}
