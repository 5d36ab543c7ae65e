package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"tradocs/database/repository"
	documentRepo "tradocs/database/repository/document"
	paymentRepo "tradocs/database/repository/payment"
	"tradocs/models"
	"tradocs/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v76"
	"go.uber.org/zap"
)

// Metadata keys written on checkout sessions and their payment intents.
const (
	MetaUserID      = "user_id"
	MetaDocumentIDs = "document_ids"
	MetaPaymentID   = "payment_id"
)

var hundred = decimal.NewFromInt(100)

// CreateCheckout opens a Stripe Checkout Session for a batch of the user's drafts
// and records one pending payment covering all of them.
func (s *DefaultPaymentService) CreateCheckout(ctx context.Context, userID string, docIDs []string, affiliateCode string) (*CheckoutResult, error) {
	docIDs = dedupe(docIDs)
	if len(docIDs) == 0 {
		return nil, ErrNoDocuments
	}
	docs, err := s.Docs.List(ctx, documentRepo.DocumentFilter{UserID: userID, IDs: docIDs})
	if err != nil {
		return nil, fmt.Errorf("failed to load documents: %w", err)
	}
	if len(docs) != len(docIDs) {
		return nil, fmt.Errorf("%w: some documents were not found", ErrNotDraft)
	}

	byID := make(map[string]*models.Document, len(docs))
	for i := range docs {
		byID[docs[i].ID] = &docs[i]
	}

	currency := strings.ToLower(s.Settings.Currency)
	total := decimal.Zero
	items := make([]*stripe.CheckoutSessionLineItemParams, 0, len(docs))
	for _, id := range docIDs {
		doc := byID[id]
		if doc.Status != models.DocumentStatusDraft || doc.PaymentID != "" {
			return nil, fmt.Errorf("%w: %s", ErrNotDraft, doc.Filename)
		}
		total = total.Add(doc.TotalCost)
		items = append(items, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(currency),
				UnitAmount: stripe.Int64(doc.TotalCost.Mul(hundred).Round(0).IntPart()),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(fmt.Sprintf("%s translation: %s", doc.TranslationType, doc.Filename)),
				},
			},
			Quantity: stripe.Int64(1),
		})
	}

	now := time.Now()
	if err := s.supersedeOpenCheckouts(ctx, docIDs, now); err != nil {
		return nil, err
	}

	p := &models.Payment{
		ID:            uuid.New().String(),
		UserID:        userID,
		DocumentIDs:   docIDs,
		Amount:        total,
		Currency:      currency,
		Status:        models.PaymentPending,
		AffiliateCode: strings.ToUpper(strings.TrimSpace(affiliateCode)),
		CreatedAt:     now,
	}

	meta := map[string]string{
		MetaUserID:      userID,
		MetaDocumentIDs: strings.Join(docIDs, ","),
		MetaPaymentID:   p.ID,
	}
	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems:         items,
		SuccessURL:        stripe.String(s.Settings.SuccessURL),
		CancelURL:         stripe.String(s.Settings.CancelURL),
		ClientReferenceID: stripe.String(userID),
		// Stripe caps session expiry at 24h; keep a margin for clock skew
		ExpiresAt:         stripe.Int64(now.Add(models.CheckoutTTL - 5*time.Minute).Unix()),
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{Metadata: meta},
	}
	for k, v := range meta {
		params.AddMetadata(k, v)
	}
	if s.Profiles != nil {
		if profile, err := s.Profiles.GetByID(ctx, userID); err == nil && profile.Email != "" {
			params.CustomerEmail = stripe.String(profile.Email)
		}
	}

	sess, err := s.Gateway.NewCheckoutSession(params)
	if err != nil {
		utils.GetLogger().Error("CreateCheckout: stripe session failed", zap.String("userID", userID), zap.Error(err))
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}
	p.StripeSessionID = sess.ID
	p.Livemode = sess.Livemode
	if err := s.Payments.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to record payment: %w", err)
	}

	utils.GetLogger().Info("Checkout session created",
		zap.String("paymentID", p.ID), zap.String("sessionID", sess.ID), zap.Int("documents", len(docIDs)), zap.String("amount", total.StringFixed(2)))
	return &CheckoutResult{PaymentID: p.ID, SessionID: sess.ID, URL: sess.URL}, nil
}

// supersedeOpenCheckouts expires earlier checkouts that still cover any of
// docIDs so a document is never payable through two sessions at once. A
// session Stripe refuses to expire may already be paid, so the new checkout
// is rejected.
func (s *DefaultPaymentService) supersedeOpenCheckouts(ctx context.Context, docIDs []string, now time.Time) error {
	pending, err := s.Payments.List(ctx, paymentRepo.PaymentFilter{
		DocumentIDs: docIDs,
		Statuses:    []string{models.PaymentPending},
		From:        now.Add(-models.CheckoutTTL),
	})
	if err != nil {
		return fmt.Errorf("failed to check open checkouts: %w", err)
	}
	for i := range pending {
		p := &pending[i]
		if !p.IsOpenCheckout(now) {
			continue
		}
		if p.StripeSessionID != "" {
			if _, err := s.Gateway.ExpireCheckoutSession(p.StripeSessionID); err != nil {
				utils.GetLogger().Warn("CreateCheckout: could not expire earlier session",
					zap.String("paymentID", p.ID), zap.String("sessionID", p.StripeSessionID), zap.Error(err))
				return fmt.Errorf("%w: payment %s", ErrCheckoutOpen, p.ID)
			}
		}
		p.Status = models.PaymentFailed
		p.FailureReason = "superseded by a new checkout"
		if err := s.Payments.Update(ctx, p); err != nil {
			return fmt.Errorf("failed to supersede payment %s: %w", p.ID, err)
		}
	}
	return nil
}

// Refund refunds a completed payment through Stripe and cancels its unfinished documents.
func (s *DefaultPaymentService) Refund(ctx context.Context, actorID, paymentID string) (*models.Payment, error) {
	p, err := s.Payments.GetByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if p.Status != models.PaymentCompleted {
		return nil, ErrNotRefundable
	}
	if p.StripePaymentIntentID == "" {
		return nil, fmt.Errorf("%w: payment has no payment intent", ErrNotRefundable)
	}
	if _, err := s.Gateway.NewRefund(&stripe.RefundParams{PaymentIntent: stripe.String(p.StripePaymentIntentID)}); err != nil {
		utils.GetLogger().Error("Refund: stripe refund failed", zap.String("paymentID", p.ID), zap.Error(err))
		return nil, fmt.Errorf("failed to refund payment: %w", err)
	}
	if err := s.markRefunded(ctx, p); err != nil {
		return nil, err
	}
	utils.GetLogger().Info("Payment refunded", zap.String("paymentID", p.ID), zap.String("actor", actorID))
	return p, nil
}

func (s *DefaultPaymentService) markRefunded(ctx context.Context, p *models.Payment) error {
	now := time.Now()
	p.Status = models.PaymentRefunded
	p.RefundedAt = &now
	if err := s.Payments.Update(ctx, p); err != nil {
		return fmt.Errorf("failed to mark payment refunded: %w", err)
	}
	if s.Documents != nil {
		if err := s.Documents.CancelForPayment(ctx, p.DocumentIDs, p.ID); err != nil {
			utils.GetLogger().Warn("refund: failed to cancel documents", zap.String("paymentID", p.ID), zap.Error(err))
		}
	}
	return nil
}

func (s *DefaultPaymentService) ListPayments(ctx context.Context, filter paymentRepo.PaymentFilter) ([]models.Payment, error) {
	return s.Payments.List(ctx, filter)
}

func (s *DefaultPaymentService) ListUserPayments(ctx context.Context, userID string) ([]models.Payment, error) {
	return s.Payments.List(ctx, paymentRepo.PaymentFilter{UserID: userID})
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
