package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/frahmantamala/campaign-portal/internal/core/events"
	"github.com/frahmantamala/campaign-portal/pkg/logger"
	"github.com/spf13/cobra"
)

// domainEvents are the event types the portal publishes.
var domainEvents = []string{
	events.EventTypePaymentSessionCreated,
	events.EventTypePaymentSucceeded,
	events.EventTypePaymentFailed,
	events.EventTypePaymentProcessing,
	events.EventTypeExpenseSaved,
	events.EventTypeExpenseUploadFailed,
	events.EventTypeExpenseFilesUploaded,
}

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Event management commands",
	Long:  `Inspect the domain events published on the in-process event bus`,
}

var listEventsCmd = &cobra.Command{
	Use:   "list",
	Short: "List the domain event types",
	Run: func(cmd *cobra.Command, args []string) {
		for _, t := range domainEvents {
			fmt.Println(t)
		}
	},
}

var publishEventCmd = &cobra.Command{
	Use:   "publish [event-type]",
	Short: "Publish a sample event",
	Long:  `Publish a sample domain event through the audit log subscriber, to check its log format`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return publishSampleEvent(cmd.Context(), args[0])
	},
}

var eventSlug string

// subscribeAuditLog logs every domain event at info level.
func subscribeAuditLog(bus *events.EventBus, lg *slog.Logger) {
	for _, t := range domainEvents {
		bus.Subscribe(t, func(ctx context.Context, event events.Event) error {
			lg.InfoContext(ctx, "domain event",
				"event_id", event.EventID(),
				"event_type", event.EventType(),
				"occurred_at", event.OccurredAt(),
				"payload", event.Payload())
			return nil
		})
	}
}

func sampleEvent(eventType string) (events.Event, error) {
	switch eventType {
	case events.EventTypePaymentSessionCreated, events.EventTypePaymentProcessing:
		return events.NewPaymentIntentEvent(eventType, "pi_sample", eventSlug, 2500, "BGN", "pending"), nil
	case events.EventTypePaymentSucceeded:
		return events.NewPaymentIntentEvent(eventType, "pi_sample", eventSlug, 2500, "BGN", "succeeded"), nil
	case events.EventTypePaymentFailed:
		return events.NewPaymentIntentEvent(eventType, "pi_sample", eventSlug, 2500, "BGN", "failed"), nil
	case events.EventTypeExpenseSaved, events.EventTypeExpenseUploadFailed, events.EventTypeExpenseFilesUploaded:
		return events.NewExpenseEvent(eventType, "sample-expense", eventSlug, "create", 1), nil
	default:
		return nil, fmt.Errorf("unknown event type %q, see `event list`", eventType)
	}
}

func publishSampleEvent(ctx context.Context, eventType string) error {
	lg := logger.LoggerWrapper()

	event, err := sampleEvent(eventType)
	if err != nil {
		return err
	}

	bus := events.NewEventBus(lg)
	subscribeAuditLog(bus, lg)

	lg.Info("publishing sample event", "event_type", eventType, "event_id", event.EventID())

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return bus.PublishSync(ctx, event)
}

func init() {
	publishEventCmd.Flags().StringVar(&eventSlug, "slug", "sample-campaign", "campaign slug carried by the event")

	eventCmd.AddCommand(listEventsCmd)
	eventCmd.AddCommand(publishEventCmd)

	rootCmd.AddCommand(eventCmd)
}
