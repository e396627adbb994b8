// Package alerts triggers guardian alert dispatch on the collaborator
// and surfaces the result. The collaborator owns delivery; this side
// only requests it and reports what came back.
package alerts

import (
	"context"
	"fmt"

	"github.com/edurisk/atrisk-tracker/internal/domain/shared"
	"github.com/edurisk/atrisk-tracker/internal/infrastructure/external/trackerapi"
	"github.com/edurisk/atrisk-tracker/pkg/logger"
)

// Sender is the slice of the tracker client the dispatcher consumes.
type Sender interface {
	SendNotifications(ctx context.Context, req trackerapi.DispatchRequest) (trackerapi.DispatchResponse, error)
}

// Notifier surfaces the dispatch result to the operator.
type Notifier interface {
	Success(message string)
	Warning(message string)
	Error(message string)
}

// DispatchedEvent fires after the collaborator reports a dispatch result.
type DispatchedEvent struct {
	shared.BaseEvent
	Sent       int
	Successful int
	Failed     int
}

// Dispatcher requests guardian alert delivery from the collaborator.
type Dispatcher struct {
	sender    Sender
	notifier  Notifier
	publisher shared.EventPublisher
	logger    *logger.Logger
}

func NewDispatcher(sender Sender, notifier Notifier, publisher shared.EventPublisher, log *logger.Logger) *Dispatcher {
	if log == nil {
		log = logger.Discard()
	}
	return &Dispatcher{
		sender:    sender,
		notifier:  notifier,
		publisher: publisher,
		logger:    log.With(logger.Component("alerts")),
	}
}

// Dispatch asks the collaborator to notify the targeted guardians and
// reports the outcome on the notification bus and the event bus.
func (d *Dispatcher) Dispatch(ctx context.Context, req trackerapi.DispatchRequest) (trackerapi.DispatchResponse, error) {
	resp, err := d.sender.SendNotifications(ctx, req)
	if err != nil {
		d.logger.Warn("alert dispatch failed", logger.Err(err))
		if d.notifier != nil {
			d.notifier.Error("Failed to send alerts")
		}
		return trackerapi.DispatchResponse{}, err
	}

	if d.publisher != nil {
		event := &DispatchedEvent{
			BaseEvent:  shared.NewBaseEvent(shared.EventAlertsDispatched, "alerts"),
			Sent:       resp.Sent,
			Successful: resp.Successful,
			Failed:     resp.Failed,
		}
		if pubErr := d.publisher.Publish(event); pubErr != nil {
			d.logger.Warn("dispatch event publish failed", logger.Err(pubErr))
		}
	}

	d.logger.Info("alerts dispatched",
		logger.Int("sent", resp.Sent),
		logger.Int("successful", resp.Successful),
		logger.Int("failed", resp.Failed))

	if d.notifier != nil {
		switch {
		case resp.Failed == 0:
			d.notifier.Success(fmt.Sprintf("Alerts sent to %d guardian(s)", resp.Successful))
		case resp.Successful == 0:
			d.notifier.Error(fmt.Sprintf("All %d alert(s) failed to send", resp.Failed))
		default:
			d.notifier.Warning(fmt.Sprintf("Sent %d alert(s), %d failed", resp.Successful, resp.Failed))
		}
	}
	return resp, nil
}
