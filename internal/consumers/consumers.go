package consumers

import (
	"context"
	"encoding/json"
	"fmt"

	"expohall/internal/external"
	"expohall/internal/logger"
	"expohall/internal/messaging"
	"expohall/internal/models"
	"expohall/internal/repository"

	"github.com/nats-io/stan.go"
)

const queueGroup = "expohall-consumers"

// Service consumes the workflow's domain events and drives the side
// effects that must not block the API: exhibitor notifications and
// invoice document rendering. Durable queue subscriptions give
// at-least-once delivery across restarts.
type Service struct {
	nats     *messaging.NATSClient
	users    *repository.UserRepository
	notify   *external.NotifyClient
	renderer *external.RendererClient

	subs []stan.Subscription
}

func New(nats *messaging.NATSClient, users *repository.UserRepository,
	notify *external.NotifyClient, renderer *external.RendererClient) *Service {
	return &Service{
		nats:     nats,
		users:    users,
		notify:   notify,
		renderer: renderer,
	}
}

// Start subscribes to every handled subject. Handlers never return the
// message unacked on business failures; a notification that cannot be
// delivered is logged and dropped rather than redelivered forever.
func (s *Service) Start() error {
	subscriptions := []struct {
		subject string
		handler stan.MsgHandler
	}{
		{models.EventRegistrationApproved, s.handleReviewed},
		{models.EventRegistrationRejected, s.handleReviewed},
		{models.EventRegistrationCancelled, s.handleCancelled},
		{models.EventInvoiceGenerated, s.handleInvoiceGenerated},
	}

	for _, sub := range subscriptions {
		subscription, err := s.nats.SubscribeQueue(sub.subject, queueGroup, sub.handler)
		if err != nil {
			s.Stop()
			return fmt.Errorf("failed to subscribe to %s: %w", sub.subject, err)
		}
		s.subs = append(s.subs, subscription)
	}

	return nil
}

// Stop unsubscribes without deleting the durable state.
func (s *Service) Stop() {
	for _, sub := range s.subs {
		if err := sub.Close(); err != nil {
			logger.Get().Error("Failed to close subscription", "error", err)
		}
	}
	s.subs = nil
}

func (s *Service) handleReviewed(msg *stan.Msg) {
	var event models.RegistrationReviewedEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		logger.Get().Error("Failed to unmarshal reviewed event", "error", err)
		return
	}

	email, err := s.exhibitorEmail(event.ExhibitorID)
	if err != nil {
		logger.Get().Error("Failed to resolve exhibitor for notification",
			"error", err,
			"registration_id", event.RegistrationID)
		return
	}

	notifyCtx := map[string]string{
		"registration_id": fmt.Sprintf("%d", event.RegistrationID),
		"event_id":        fmt.Sprintf("%d", event.EventID),
	}

	if event.Decision == models.RegistrationApproved {
		err = s.notify.NotifyApproved(email, notifyCtx)
	} else {
		notifyCtx["reason"] = event.Reason
		err = s.notify.NotifyRejected(email, notifyCtx)
	}
	if err != nil {
		logger.Get().Error("Failed to send review notification",
			"error", err,
			"registration_id", event.RegistrationID,
			"decision", event.Decision)
		return
	}

	logger.Get().Info("Review notification sent",
		"registration_id", event.RegistrationID,
		"decision", event.Decision)
}

func (s *Service) handleCancelled(msg *stan.Msg) {
	var event models.RegistrationCancelledEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		logger.Get().Error("Failed to unmarshal cancelled event", "error", err)
		return
	}

	email, err := s.exhibitorEmail(event.ExhibitorID)
	if err != nil {
		logger.Get().Error("Failed to resolve exhibitor for notification",
			"error", err,
			"registration_id", event.RegistrationID)
		return
	}

	notifyCtx := map[string]string{
		"registration_id": fmt.Sprintf("%d", event.RegistrationID),
		"event_id":        fmt.Sprintf("%d", event.EventID),
		"cancelled_role":  event.Role,
	}
	if event.Reason != "" {
		notifyCtx["reason"] = event.Reason
	}

	if err := s.notify.NotifyCancelled(email, notifyCtx); err != nil {
		logger.Get().Error("Failed to send cancellation notification",
			"error", err,
			"registration_id", event.RegistrationID)
		return
	}

	logger.Get().Info("Cancellation notification sent",
		"registration_id", event.RegistrationID)
}

func (s *Service) handleInvoiceGenerated(msg *stan.Msg) {
	var event models.InvoiceGeneratedEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		logger.Get().Error("Failed to unmarshal invoice event", "error", err)
		return
	}

	path, err := s.renderer.RenderInvoice(event.InvoiceID, event.InvoiceNumber)
	if err != nil {
		logger.Get().Error("Failed to render invoice document",
			"error", err,
			"invoice_id", event.InvoiceID)
		return
	}

	logger.Get().Info("Invoice document rendered",
		"invoice_id", event.InvoiceID,
		"invoice_number", event.InvoiceNumber,
		"document_path", path)
}

func (s *Service) exhibitorEmail(exhibitorID int64) (string, error) {
	user, err := s.users.GetByID(context.Background(), exhibitorID)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", fmt.Errorf("user %d not found", exhibitorID)
	}
	return user.Email, nil
}
