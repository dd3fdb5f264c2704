package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"jobward/internal/config"
	"jobward/internal/logger"
	"jobward/internal/worker"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var execCmd = &cobra.Command{
	Use:   "exec <job-id>",
	Short: "Execute a single job and exit (worker entry point)",
	Long: `Run one job to completion inside this process. The supervisor spawns
'jobward exec <job-id>' for every dispatched job; the command records
this process's pid on the job, runs the handler named by the job, and
writes the terminal status back to the store before exiting.`,
	Hidden: true,
	Args:   cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		jobID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid job id %q: %w", args[0], err)
		}

		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		log := logger.New(cfg.LogLevel).With("job_id", jobID, "pid", os.Getpid())

		// The supervisor kills workers with SIGTERM on shutdown; cancel the
		// handler context so child commands get torn down with us.
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		handlers := worker.NewRegistry()
		worker.RegisterBuiltins(handlers)

		performer := worker.NewPerformer(st, handlers, log)
		return performer.Perform(ctx, jobID, os.Getpid())
	},
}

func init() {
	rootCmd.AddCommand(execCmd)
}
