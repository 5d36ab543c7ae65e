package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"tradocs/database/repository"
	documentRepo "tradocs/database/repository/document"
	"tradocs/models"
	"tradocs/utils"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
	"go.uber.org/zap"
)

type Environment string

const (
	EnvTest Environment = "test"
	EnvLive Environment = "live"
)

// DetectEnvironment reads livemode from the event payload. When the payload
// cannot be decoded it falls back to the kind of secret key configured.
func DetectEnvironment(payload []byte, secretKey string) Environment {
	var envelope struct {
		Livemode *bool `json:"livemode"`
	}
	if err := json.Unmarshal(payload, &envelope); err == nil && envelope.Livemode != nil {
		if *envelope.Livemode {
			return EnvLive
		}
		return EnvTest
	}
	if strings.HasPrefix(secretKey, "sk_live_") {
		return EnvLive
	}
	return EnvTest
}

func (s *DefaultPaymentService) webhookSecret(env Environment) string {
	if env == EnvLive {
		return s.Settings.WebhookSecretLive
	}
	return s.Settings.WebhookSecretTest
}

// HandleWebhook verifies a Stripe event and applies it. Replayed events are no-ops.
func (s *DefaultPaymentService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	env := DetectEnvironment(payload, s.Settings.SecretKey)
	secret := s.webhookSecret(env)
	if secret == "" {
		return fmt.Errorf("%w for %s mode", ErrMissingSecret, env)
	}
	event, err := webhook.ConstructEventWithOptions(payload, signature, secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		utils.GetLogger().Warn("HandleWebhook: signature verification failed", zap.String("env", string(env)), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	logger := utils.GetLogger().With(zap.String("eventID", event.ID), zap.String("type", string(event.Type)), zap.String("env", string(env)))
	logger.Info("Stripe event received")

	switch string(event.Type) {
	case "checkout.session.completed":
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return fmt.Errorf("failed to decode checkout session: %w", err)
		}
		return s.completeCheckout(ctx, &sess)
	case "checkout.session.expired":
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return fmt.Errorf("failed to decode checkout session: %w", err)
		}
		p, err := s.findPayment(ctx, sess.Metadata[MetaPaymentID], sess.ID, "")
		if err != nil {
			return s.ignoreUnknown(logger, err)
		}
		return s.fail(ctx, p, "checkout session expired")
	case "payment_intent.payment_failed":
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			return fmt.Errorf("failed to decode payment intent: %w", err)
		}
		p, err := s.findPayment(ctx, pi.Metadata[MetaPaymentID], "", pi.ID)
		if err != nil {
			return s.ignoreUnknown(logger, err)
		}
		reason := "payment failed"
		if pi.LastPaymentError != nil && pi.LastPaymentError.Msg != "" {
			reason = pi.LastPaymentError.Msg
		}
		if p.StripePaymentIntentID == "" {
			p.StripePaymentIntentID = pi.ID
		}
		return s.fail(ctx, p, reason)
	case "charge.refunded":
		var ch stripe.Charge
		if err := json.Unmarshal(event.Data.Raw, &ch); err != nil {
			return fmt.Errorf("failed to decode charge: %w", err)
		}
		intentID := ""
		if ch.PaymentIntent != nil {
			intentID = ch.PaymentIntent.ID
		}
		p, err := s.findPayment(ctx, ch.Metadata[MetaPaymentID], "", intentID)
		if err != nil {
			return s.ignoreUnknown(logger, err)
		}
		if p.Status == models.PaymentRefunded {
			return nil
		}
		return s.markRefunded(ctx, p)
	default:
		logger.Debug("Stripe event ignored")
		return nil
	}
}

func (s *DefaultPaymentService) ignoreUnknown(logger *zap.Logger, err error) error {
	if errors.Is(err, ErrNotFound) {
		logger.Warn("Stripe event refers to an unknown payment")
		return nil
	}
	return err
}

// findPayment looks a payment up by our id, then by session, then by payment intent.
func (s *DefaultPaymentService) findPayment(ctx context.Context, paymentID, sessionID, intentID string) (*models.Payment, error) {
	lookups := []struct {
		key string
		get func(context.Context, string) (*models.Payment, error)
	}{
		{paymentID, s.Payments.GetByID},
		{sessionID, s.Payments.GetBySessionID},
		{intentID, s.Payments.GetByPaymentIntentID},
	}
	for _, l := range lookups {
		if l.key == "" {
			continue
		}
		p, err := l.get(ctx, l.key)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
	}
	return nil, ErrNotFound
}

func (s *DefaultPaymentService) completeCheckout(ctx context.Context, sess *stripe.CheckoutSession) error {
	p, err := s.findPayment(ctx, sess.Metadata[MetaPaymentID], sess.ID, "")
	if err != nil {
		return s.ignoreUnknown(utils.GetLogger().With(zap.String("sessionID", sess.ID)), err)
	}
	if p.Status == models.PaymentCompleted || p.Status == models.PaymentRefunded {
		return nil
	}

	now := time.Now()
	p.Status = models.PaymentCompleted
	p.PaidAt = &now
	p.Livemode = sess.Livemode
	p.FailureReason = ""
	if sess.PaymentIntent != nil {
		p.StripePaymentIntentID = sess.PaymentIntent.ID
	}
	if s.Affiliates != nil {
		if err := s.Affiliates.Attribute(ctx, p); err != nil {
			utils.GetLogger().Warn("completeCheckout: commission attribution failed", zap.String("paymentID", p.ID), zap.Error(err))
		}
	}
	conflicts, err := s.claimedElsewhere(ctx, p)
	if err != nil {
		return err
	}
	p.ConflictingDocumentIDs = conflicts
	if err := s.Payments.Update(ctx, p); err != nil {
		return fmt.Errorf("failed to complete payment: %w", err)
	}
	if len(conflicts) > 0 && len(conflicts) == len(p.DocumentIDs) {
		return s.refundDuplicate(ctx, p)
	}
	if len(conflicts) > 0 {
		utils.GetLogger().Error("completeCheckout: payment overlaps another payment, needs review",
			zap.String("paymentID", p.ID), zap.Strings("documentIDs", conflicts))
	}
	if s.Documents != nil {
		if err := s.Documents.MarkPaid(ctx, p.DocumentIDs, p.ID); err != nil {
			return fmt.Errorf("failed to mark documents paid: %w", err)
		}
	}

	utils.GetLogger().Info("Payment completed", zap.String("paymentID", p.ID), zap.String("amount", p.Amount.StringFixed(2)))
	s.notify(ctx, p.UserID, models.NotificationPaymentConfirmed, "Payment confirmed",
		fmt.Sprintf("We received your payment of %s %s. Your documents are now in the translation queue.",
			p.Amount.StringFixed(2), strings.ToUpper(p.Currency)),
		map[string]string{"paymentId": p.ID})
	return nil
}

// claimedElsewhere returns the payment's documents that another payment already covers.
func (s *DefaultPaymentService) claimedElsewhere(ctx context.Context, p *models.Payment) ([]string, error) {
	if s.Docs == nil || len(p.DocumentIDs) == 0 {
		return nil, nil
	}
	docs, err := s.Docs.List(ctx, documentRepo.DocumentFilter{IDs: p.DocumentIDs})
	if err != nil {
		return nil, fmt.Errorf("failed to load paid documents: %w", err)
	}
	var ids []string
	for _, d := range docs {
		if d.PaymentID != "" && d.PaymentID != p.ID {
			ids = append(ids, d.ID)
		}
	}
	return ids, nil
}

// refundDuplicate returns the money for a payment whose documents were all
// paid through another checkout.
func (s *DefaultPaymentService) refundDuplicate(ctx context.Context, p *models.Payment) error {
	logger := utils.GetLogger().With(zap.String("paymentID", p.ID))
	if p.StripePaymentIntentID == "" {
		logger.Error("duplicate payment has no payment intent, refund it manually")
		return nil
	}
	if _, err := s.Gateway.NewRefund(&stripe.RefundParams{PaymentIntent: stripe.String(p.StripePaymentIntentID)}); err != nil {
		logger.Error("failed to refund duplicate payment", zap.Error(err))
		return fmt.Errorf("failed to refund duplicate payment: %w", err)
	}
	if err := s.markRefunded(ctx, p); err != nil {
		return err
	}
	logger.Info("Duplicate payment refunded")
	s.notify(ctx, p.UserID, models.NotificationPaymentRefunded, "Duplicate payment refunded",
		fmt.Sprintf("These documents were already paid for, so %s %s has been refunded.",
			p.Amount.StringFixed(2), strings.ToUpper(p.Currency)),
		map[string]string{"paymentId": p.ID})
	return nil
}

func (s *DefaultPaymentService) fail(ctx context.Context, p *models.Payment, reason string) error {
	if p.Status != models.PaymentPending {
		return nil
	}
	p.Status = models.PaymentFailed
	p.FailureReason = reason
	if err := s.Payments.Update(ctx, p); err != nil {
		return fmt.Errorf("failed to mark payment failed: %w", err)
	}
	utils.GetLogger().Info("Payment failed", zap.String("paymentID", p.ID), zap.String("reason", reason))
	s.notify(ctx, p.UserID, models.NotificationPaymentFailed, "Payment not completed",
		"Your payment could not be completed. Your documents are still saved as drafts.",
		map[string]string{"paymentId": p.ID, "reason": reason})
	return nil
}

func (s *DefaultPaymentService) notify(ctx context.Context, userID, typ, title, message string, data map[string]string) {
	if s.Notifier == nil {
		return
	}
	if _, err := s.Notifier.Notify(ctx, userID, typ, title, message, data); err != nil {
		utils.GetLogger().Warn("failed to notify", zap.String("userID", userID), zap.Error(err))
	}
}
