package finance

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	documentRepo "tradocs/database/repository/document"
	paymentRepo "tradocs/database/repository/payment"
	verificationRepo "tradocs/database/repository/verification"
	withdrawalRepo "tradocs/database/repository/withdrawal"
	"tradocs/models"
	"tradocs/services/daterange"
	"tradocs/services/status"
	"tradocs/utils"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func (s *DefaultFinanceService) loc() *time.Location {
	if s.Location == nil {
		return time.UTC
	}
	return s.Location
}

// reconciled loads the documents created in r for userID (all users when empty)
// and applies the status rule to each.
func (s *DefaultFinanceService) reconciled(ctx context.Context, userID string, r daterange.Range) ([]status.Reconciled, error) {
	docs, err := s.Docs.List(ctx, documentRepo.DocumentFilter{UserID: userID, From: r.Start, To: r.End})
	if err != nil {
		return nil, fmt.Errorf("failed to load documents: %w", err)
	}
	if len(docs) == 0 {
		return nil, nil
	}
	verifs, err := s.Verifications.List(ctx, verificationRepo.VerificationFilter{UserID: userID})
	if err != nil {
		return nil, fmt.Errorf("failed to load verifications: %w", err)
	}
	trans, err := s.Translations.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load translations: %w", err)
	}
	return status.ReconcileAll(docs, verifs, trans), nil
}

// StatsCards computes the dashboard cards for r, served from cache for StatsTTL.
func (s *DefaultFinanceService) StatsCards(ctx context.Context, r daterange.Range) (*StatsCards, error) {
	key := r.CacheKey()
	if s.Cache != nil {
		if raw, ok, err := s.Cache.Get(ctx, key); err != nil {
			utils.GetLogger().Warn("StatsCards: cache read failed", zap.Error(err))
		} else if ok {
			var cards StatsCards
			if err := json.Unmarshal(raw, &cards); err == nil {
				return &cards, nil
			}
		}
	}

	rows, err := s.reconciled(ctx, "", r)
	if err != nil {
		return nil, err
	}
	payments, err := s.Payments.List(ctx, paymentRepo.PaymentFilter{From: r.Start, To: r.End})
	if err != nil {
		return nil, fmt.Errorf("failed to load payments: %w", err)
	}
	pending, err := s.Withdrawals.List(ctx, withdrawalRepo.WithdrawalFilter{Statuses: []string{models.WithdrawalPending}})
	if err != nil {
		return nil, fmt.Errorf("failed to load withdrawals: %w", err)
	}

	counts := status.Summarize(rows)
	cards := &StatsCards{
		Range:              r,
		Documents:          counts,
		InProgress:         counts.InProgress(),
		TotalRevenue:       decimal.Zero,
		RefundedTotal:      decimal.Zero,
		AverageOrderValue:  decimal.Zero,
		CommissionTotal:    decimal.Zero,
		PendingWithdrawals: decimal.Zero,
		GeneratedAt:        time.Now(),
	}
	for _, p := range payments {
		switch p.Status {
		case models.PaymentCompleted:
			cards.TotalRevenue = cards.TotalRevenue.Add(p.Amount)
			cards.CommissionTotal = cards.CommissionTotal.Add(p.Commission)
			cards.CompletedPayments++
		case models.PaymentRefunded:
			cards.RefundedTotal = cards.RefundedTotal.Add(p.Amount)
		}
	}
	if cards.CompletedPayments > 0 {
		cards.AverageOrderValue = cards.TotalRevenue.Div(decimal.NewFromInt(int64(cards.CompletedPayments))).Round(2)
	}
	for _, w := range pending {
		cards.PendingWithdrawals = cards.PendingWithdrawals.Add(w.Amount)
	}

	if s.Cache != nil {
		if raw, err := json.Marshal(cards); err == nil {
			if err := s.Cache.Set(ctx, key, raw, StatsTTL); err != nil {
				utils.GetLogger().Warn("StatsCards: cache write failed", zap.Error(err))
			}
		}
	}
	return cards, nil
}

func (s *DefaultFinanceService) CustomerStats(ctx context.Context, userID string) (*CustomerStats, error) {
	rows, err := s.reconciled(ctx, userID, daterange.Range{})
	if err != nil {
		return nil, err
	}
	payments, err := s.Payments.List(ctx, paymentRepo.PaymentFilter{UserID: userID, Statuses: []string{models.PaymentCompleted}})
	if err != nil {
		return nil, fmt.Errorf("failed to load payments: %w", err)
	}

	counts := status.Summarize(rows)
	out := &CustomerStats{Documents: counts, InProgress: counts.InProgress(), TotalSpent: decimal.Zero, DraftValue: decimal.Zero}
	for _, p := range payments {
		out.TotalSpent = out.TotalSpent.Add(p.Amount)
	}
	for _, r := range rows {
		if r.Status == status.Draft {
			out.DraftValue = out.DraftValue.Add(r.Document.TotalCost)
		}
	}
	return out, nil
}

// Report aggregates the payments of r by day or month.
func (s *DefaultFinanceService) Report(ctx context.Context, r daterange.Range, groupBy string) (*Report, error) {
	if groupBy == "" {
		groupBy = GroupByDay
	}
	layout := "2006-01-02"
	switch groupBy {
	case GroupByDay:
	case GroupByMonth:
		layout = "2006-01"
	default:
		return nil, ErrInvalidGroupBy
	}

	payments, err := s.Payments.List(ctx, paymentRepo.PaymentFilter{From: r.Start, To: r.End})
	if err != nil {
		return nil, fmt.Errorf("failed to load payments: %w", err)
	}

	rep := &Report{
		Range:    r,
		GroupBy:  groupBy,
		Payments: payments,
		Totals:   Totals{Revenue: decimal.Zero, Refunded: decimal.Zero, Commission: decimal.Zero},
	}
	buckets := map[string]*Bucket{}
	for _, p := range payments {
		period := p.EffectiveTime().In(s.loc()).Format(layout)
		b, ok := buckets[period]
		if !ok {
			b = &Bucket{Period: period, Revenue: decimal.Zero, Refunded: decimal.Zero}
			buckets[period] = b
		}
		b.Payments++
		switch p.Status {
		case models.PaymentCompleted:
			b.Revenue = b.Revenue.Add(p.Amount)
			b.Completed++
			rep.Totals.Revenue = rep.Totals.Revenue.Add(p.Amount)
			rep.Totals.Commission = rep.Totals.Commission.Add(p.Commission)
			rep.Totals.Completed++
		case models.PaymentRefunded:
			b.Refunded = b.Refunded.Add(p.Amount)
			rep.Totals.Refunded = rep.Totals.Refunded.Add(p.Amount)
			rep.Totals.RefundedN++
		case models.PaymentPending:
			rep.Totals.Pending++
		case models.PaymentFailed:
			rep.Totals.Failed++
		}
	}

	rep.Buckets = make([]Bucket, 0, len(buckets))
	for _, b := range buckets {
		rep.Buckets = append(rep.Buckets, *b)
	}
	sort.Slice(rep.Buckets, func(i, j int) bool { return rep.Buckets[i].Period < rep.Buckets[j].Period })
	return rep, nil
}
