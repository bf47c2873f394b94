package events

import (
	"context"
	"fmt"

	"roombook/pkg/kafka"
	"roombook/pkg/logger"
	"roombook/pkg/model"
)

var knownEventTypes = map[string]struct{}{
	model.EventBookingCreated:   {},
	model.EventBookingUpdated:   {},
	model.EventBookingCancelled: {},
}

// AuditHandler writes one structured log line per booking event. Events it
// cannot decode or does not recognise fail permanently, and events that break
// a booking rule fail as business errors; both go to the DLQ. A message
// interrupted by shutdown is left uncommitted.
func AuditHandler(log *logger.Logger) kafka.MessageHandler {
	return func(ctx context.Context, msg kafka.Message) error {
		if err := ctx.Err(); err != nil {
			return kafka.NewTransientError("audit interrupted", err)
		}

		if v, ok := msg.GetHeader(kafka.HeaderSchemaVersion); ok && v != SchemaVersion {
			return kafka.NewPermanentError("unsupported booking event schema", fmt.Errorf("version %q", v))
		}

		var event model.BookingEvent
		if err := msg.DecodeValue(&event); err != nil {
			return err
		}

		if _, ok := knownEventTypes[event.Type]; !ok {
			return kafka.NewPermanentError("unknown booking event type", fmt.Errorf("%q", event.Type))
		}
		if header := msg.GetEventType(); header != "" && header != event.Type {
			return kafka.NewPermanentError("event type header does not match payload",
				fmt.Errorf("header %q, payload %q", header, event.Type))
		}
		if event.BookingID == "" || event.RoomID == "" {
			return kafka.NewPermanentError("booking event without ids", nil)
		}
		if msg.Key != "" && msg.Key != event.RoomID {
			return kafka.NewBusinessError("booking event keyed to another room",
				fmt.Errorf("key %q, room %q", msg.Key, event.RoomID))
		}
		if !event.StartTime.Before(event.EndTime) {
			return kafka.NewBusinessError("booking event with an empty interval",
				fmt.Errorf("start %s, end %s", event.StartTime, event.EndTime))
		}

		source, _ := msg.GetHeader(kafka.HeaderSource)

		log.Info("Booking event",
			"event_id", msg.GetEventID(),
			"event_type", event.Type,
			"booking_id", event.BookingID,
			"room_id", event.RoomID,
			"user_id", event.UserID,
			"start_time", event.StartTime,
			"end_time", event.EndTime,
			"status", event.Status,
			"occurred_at", event.OccurredAt,
			"correlation_id", msg.GetCorrelationID(),
			"source", source,
			"partition", msg.Partition,
			"offset", msg.Offset,
		)
		return nil
	}
}
