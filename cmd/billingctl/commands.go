package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/dpyhq/cryptobill/lib/service"
	"github.com/dpyhq/cryptobill/rabbitmq"
	"github.com/spf13/cobra"
)

const sentryFlushTimeout = 2 * time.Second

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "billingctl",
		Short:         "Operator tools for crypto invoice payments",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(verifyCmd(a))
	rootCmd.AddCommand(reconcileCmd(a))
	rootCmd.AddCommand(sweepOverdueCmd(a))
	rootCmd.AddCommand(checkConfirmationsCmd(a))
	rootCmd.AddCommand(pollingLogsCmd(a))
	rootCmd.AddCommand(setConfigCmd(a))
	rootCmd.AddCommand(tailEventsCmd(a))

	return rootCmd
}

func parseInvoiceID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid invoice id %q", s)
	}
	return id, nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func verifyCmd(a *app) *cobra.Command {
	var verifiedBy string
	cmd := &cobra.Command{
		Use:   "verify <invoice-id> <txid>",
		Short: "Mark an invoice paid by the transaction that paid it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			invoiceID, err := parseInvoiceID(args[0])
			if err != nil {
				return err
			}
			if verifiedBy == "" {
				return fmt.Errorf("--by is required")
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), service.ManualVerificationTimeout)
			defer cancel()
			if err := a.openPoller(ctx); err != nil {
				return err
			}

			result := a.poller.ManualPaymentVerification(ctx, invoiceID, args[1], verifiedBy)
			if err := printJSON(cmd.OutOrStdout(), result); err != nil {
				return err
			}
			if !result.Success {
				return fmt.Errorf("verification failed: %s", result.ErrorCode)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&verifiedBy, "by", os.Getenv("USER"), "Operator recorded as verifier")
	return cmd
}

func reconcileCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Run a single detection cycle over all pending invoices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.openPoller(cmd.Context()); err != nil {
				return err
			}
			result := a.poller.RunCycle(cmd.Context())
			return printJSON(cmd.OutOrStdout(), struct {
				InvoicesChecked  int     `json:"invoices_checked"`
				PaymentsDetected int     `json:"payments_detected"`
				Errors           int     `json:"errors"`
				DurationSeconds  float64 `json:"duration_seconds"`
			}{
				InvoicesChecked:  result.InvoicesChecked,
				PaymentsDetected: result.PaymentsDetected,
				Errors:           result.Errors,
				DurationSeconds:  result.Duration.Seconds(),
			})
		},
	}
}

func sweepOverdueCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep-overdue",
		Short: "Move pending invoices past their grace period to overdue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.openPoller(cmd.Context()); err != nil {
				return err
			}
			count, err := a.poller.CheckOverdueInvoices(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d invoices marked overdue\n", count)
			return nil
		},
	}
}

func checkConfirmationsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check-confirmations",
		Short: "Refresh confirmation counts of detected payments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.openPoller(cmd.Context()); err != nil {
				return err
			}
			count, err := a.poller.CheckConfirmationsUpdate(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d payments updated\n", count)
			return nil
		},
	}
}

func pollingLogsCmd(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "logs <invoice-id>",
		Short: "Show the latest polling log entries of an invoice",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			invoiceID, err := parseInvoiceID(args[0])
			if err != nil {
				return err
			}
			if err := a.openStore(); err != nil {
				return err
			}
			logs, err := a.store.GetPollingLogs(cmd.Context(), invoiceID, limit)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), logs)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum entries")
	return cmd
}

func setConfigCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "set-config <key> <value>",
		Short: "Change a runtime setting such as overdue_days",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if args[0] == "overdue_days" {
				if days, err := strconv.Atoi(args[1]); err != nil || days < 0 {
					return fmt.Errorf("overdue_days must be a non-negative integer")
				}
			}
			if err := a.openStore(); err != nil {
				return err
			}
			return a.store.SetConfig(cmd.Context(), args[0], args[1])
		},
	}
}

func tailEventsCmd(a *app) *cobra.Command {
	var queue string
	cmd := &cobra.Command{
		Use:   "tail-events",
		Short: "Print payment events published to RabbitMQ",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.loadConfig(); err != nil {
				return err
			}
			if a.config.RabbitMQUri == "" {
				return fmt.Errorf("RABBITMQ_URI is not set")
			}
			amqpClient, err := rabbitmq.DialAMQP(a.config.RabbitMQUri, rabbitmq.WithAmqpLogger(a.logger))
			if err != nil {
				return err
			}
			a.closers = append(a.closers, amqpClient.Close)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			err = rabbitmq.Tail(ctx, amqpClient, a.config.RabbitMQPaymentExchange, queue, func(event service.PaymentEvent) error {
				return printJSON(cmd.OutOrStdout(), event)
			})
			if ctx.Err() != nil {
				return nil
			}
			return err
		},
	}
	cmd.Flags().StringVar(&queue, "queue", "", "Queue name, a temporary queue when empty")
	return cmd
}
