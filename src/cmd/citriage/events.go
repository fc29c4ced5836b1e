package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"

	"github.com/spf13/cobra"

	"citriage/src/broker"
	"citriage/src/contracts"
	"citriage/src/logger"
)

const defaultEventsGroup = "citriage-events"

var eventsOpts struct {
	topics []string
	group  string
	raw    bool
}

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Stream plan and report events from the configured broker",
	Long: `Follows the lifecycle events other citriage processes publish to the
brokers listed under events.brokers, one line per event, until interrupted.

Example:
  citriage events --topic citriage.reports.completed --raw`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		a, err := newApp(ctx, cmd, logger.NewConsoleLogger(verbose))
		if err != nil {
			return err
		}
		defer a.close()

		if len(a.cfg.Events.Brokers) == 0 {
			return errors.New("events.brokers is not configured; events only leave the process through Redpanda")
		}
		return streamEvents(ctx, a.bus, eventsOpts.group, eventsOpts.topics, eventsOpts.raw, cmd.OutOrStdout())
	},
}

func init() {
	eventsCmd.Flags().StringSliceVar(&eventsOpts.topics, "topic",
		[]string{contracts.TopicPlansCreated, contracts.TopicReportsCompleted}, "topics to follow")
	eventsCmd.Flags().StringVar(&eventsOpts.group, "group", defaultEventsGroup, "consumer group")
	eventsCmd.Flags().BoolVar(&eventsOpts.raw, "raw", false, "print event JSON unchanged")
}

// streamEvents writes one line per message on topics until ctx ends or
// every subscription closes.
func streamEvents(ctx context.Context, b broker.Broker, group string, topics []string, raw bool, out io.Writer) error {
	merged := make(chan broker.Message)
	var wg sync.WaitGroup
	for _, topic := range topics {
		ch, err := b.Subscribe(ctx, topic, group)
		if err != nil {
			return fmt.Errorf("failed to subscribe to %s: %w", topic, err)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			for msg := range ch {
				select {
				case merged <- msg:
				case <-ctx.Done():
					return
				}
			}
		}()
	}
	go func() {
		wg.Wait()
		close(merged)
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-merged:
			if !ok {
				return nil
			}
			if raw {
				fmt.Fprintln(out, string(msg.Value))
				continue
			}
			fmt.Fprintln(out, describeEvent(msg))
		}
	}
}

// describeEvent renders a message as a one-line summary.
func describeEvent(msg broker.Message) string {
	switch msg.Topic {
	case contracts.TopicPlansCreated:
		var ev contracts.PlanCreated
		if err := json.Unmarshal(msg.Value, &ev); err == nil {
			return fmt.Sprintf("%s plan %s  %s@%s  %d failed job(s), %d eligible, est $%.4f",
				ev.OccurredAt.Local().Format("15:04:05"), ev.PlanID, ev.Repository, ev.Branch,
				ev.FailedJobs, ev.EligibleJobs, ev.EstimatedCost)
		}
	case contracts.TopicReportsCompleted:
		var ev contracts.ReportCompleted
		if err := json.Unmarshal(msg.Value, &ev); err == nil {
			return fmt.Sprintf("%s report %s  %s  gate=%s  %d AI call(s), $%.4f",
				ev.OccurredAt.Local().Format("15:04:05"), ev.PlanID, ev.ReportPath,
				ev.GatePath, ev.AICalls, ev.ActualCost)
		}
	}
	return fmt.Sprintf("%s %s %s", msg.Topic, msg.Key, msg.Value)
}
