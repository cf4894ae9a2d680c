package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/soyeahso/tripdesk/internal/checkpoint"
	"github.com/soyeahso/tripdesk/internal/config"
	"github.com/soyeahso/tripdesk/internal/domain"
	"github.com/soyeahso/tripdesk/internal/intent"
	"github.com/soyeahso/tripdesk/internal/orchestrator"
	"github.com/soyeahso/tripdesk/internal/travel"
	"github.com/soyeahso/tripdesk/internal/workflow"
)

func newChatCmd() *cobra.Command {
	var passengerID string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with the assistant from the terminal",
		Long:  "Runs a local conversation loop against the booking database, without the gateway. Sensitive operations prompt for confirmation inline.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(paths.Config)
			if err != nil {
				return err
			}
			if cfg.OpenAI.APIKey == "" {
				return errors.New("openai.apiKey is not configured")
			}

			if err := paths.EnsureDirs(); err != nil {
				return err
			}

			registry := workflow.Default()
			if err := registry.Validate(); err != nil {
				return err
			}

			dbPath := cfg.Database.Path
			if dbPath == "" {
				dbPath = filepath.Join(paths.Data, "tripdesk.db")
			}
			store, err := travel.Open(dbPath, log)
			if err != nil {
				return fmt.Errorf("opening booking database: %w", err)
			}
			defer store.Close()

			producer := intent.NewOpenAIProducer(cfg.OpenAI.APIKey, cfg.OpenAI.Model, registry, log)
			orch := orchestrator.New(registry, producer, travel.NewExecutor(store, log), checkpoint.NewMemoryStore(), log)

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			threadID := uuid.New().String()
			user := domain.UserContext{PassengerID: passengerID}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Connected. Type a message, or /quit to exit.")

			scanner := bufio.NewScanner(cmd.InOrStdin())
			for {
				fmt.Fprint(out, "> ")
				if !scanner.Scan() {
					return scanner.Err()
				}
				line := strings.TrimSpace(scanner.Text())
				if line == "" {
					continue
				}
				if line == "/quit" || line == "/exit" {
					return nil
				}

				res, err := orch.Message(ctx, threadID, user, line)
				if err != nil {
					if res != nil {
						fmt.Fprintln(out, res.Reply)
						continue
					}
					return err
				}

				res, err = resolveApprovals(ctx, orch, threadID, res, scanner, out)
				if err != nil {
					return err
				}
				if res.Reply != "" {
					fmt.Fprintln(out, res.Reply)
				}
			}
		},
	}

	cmd.Flags().StringVar(&passengerID, "passenger", "", "passenger ID for booking lookups")

	return cmd
}

// resolveApprovals prompts for each pending sensitive operation until the
// turn is no longer suspended.
func resolveApprovals(ctx context.Context, orch *orchestrator.Orchestrator, threadID string, res *orchestrator.TurnResult, scanner *bufio.Scanner, out io.Writer) (*orchestrator.TurnResult, error) {
	for res.Suspended && res.Pending != nil {
		if res.Reply != "" {
			fmt.Fprintln(out, res.Reply)
		}
		fmt.Fprintf(out, "The assistant wants to run %s with arguments %s.\nApprove? [y/N] ",
			res.Pending.Call.Name, string(res.Pending.Call.Arguments))
		if !scanner.Scan() {
			return res, scanner.Err()
		}
		answer := strings.ToLower(strings.TrimSpace(scanner.Text()))

		var err error
		if answer == "y" || answer == "yes" {
			res, err = orch.Approve(ctx, threadID)
		} else {
			res, err = orch.Deny(ctx, threadID, "")
		}
		if err != nil {
			if res != nil {
				return res, nil
			}
			return nil, err
		}
	}
	return res, nil
}
