package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"jobward/internal/config"
	"jobward/internal/store"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
)

var enqueueCmd = &cobra.Command{
	Use:   "enqueue",
	Short: "Add a job to the queue",
	Long: `Insert a new queued job. The supervisor picks it up on the next poll
once its scheduled time has passed.

Example:
  jobward enqueue --name shell --payload '{"command":["echo","hello"]}'
  jobward enqueue --name shell --payload '{"command":["backup.sh"]}' --at 2026-09-01T03:00:00Z
  jobward enqueue --name shell --payload '{"command":["backup.sh"]}' --cron "0 3 * * *"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		name, _ := flags.GetString("name")
		payload, _ := flags.GetString("payload")
		at, _ := flags.GetString("at")
		cronSpec, _ := flags.GetString("cron")

		if name == "" {
			return fmt.Errorf("--name is required")
		}
		if payload != "" && !json.Valid([]byte(payload)) {
			return fmt.Errorf("--payload must be valid JSON")
		}

		scheduledAt := time.Now().UTC()
		if at != "" {
			t, err := time.Parse(time.RFC3339, at)
			if err != nil {
				return fmt.Errorf("invalid --at time %q: %w", at, err)
			}
			scheduledAt = t.UTC()
		}

		if cronSpec != "" {
			if _, err := cron.ParseStandard(cronSpec); err != nil {
				return fmt.Errorf("invalid --cron expression %q: %w", cronSpec, err)
			}
		}

		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		st, err := openStore(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		job := &store.Job{
			ID:          uuid.New(),
			Name:        name,
			Status:      store.StatusQueued,
			ScheduledAt: scheduledAt,
		}
		if payload != "" {
			job.Payload = json.RawMessage(payload)
		}
		if cronSpec != "" {
			job.CronSpec = &cronSpec
		}

		if err := st.Create(cmd.Context(), job); err != nil {
			return fmt.Errorf("enqueue job: %w", err)
		}

		cmd.Printf("Job enqueued!\nID: %s\nScheduled at: %s\n", job.ID, scheduledAt.Format(time.RFC3339))
		return nil
	},
}

func init() {
	flags := enqueueCmd.Flags()
	flags.StringP("name", "n", "", "Handler name for the job (required)")
	flags.StringP("payload", "p", "", "JSON payload passed to the handler")
	flags.String("at", "", "Scheduled time, RFC3339 (default: now)")
	flags.String("cron", "", "Cron expression for recurring jobs (standard 5-field)")

	rootCmd.AddCommand(enqueueCmd)
}
