package finance

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"tradocs/database/repository/memory"
	"tradocs/models"
	"tradocs/services/daterange"

	"github.com/shopspring/decimal"
)

var (
	day1 = time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	day2 = time.Date(2024, 3, 20, 15, 30, 0, 0, time.UTC)
	day3 = time.Date(2024, 4, 2, 9, 0, 0, 0, time.UTC)
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func paid(id, user, amount, st string, at time.Time) models.Payment {
	t := at
	return models.Payment{ID: id, UserID: user, DocumentIDs: []string{"doc-" + id}, Amount: d(amount), Currency: "usd",
		Status: st, Commission: decimal.Zero, CreatedAt: at, PaidAt: &t}
}

type fixture struct {
	svc   *DefaultFinanceService
	cache *MemoryStatsCache
	docs  *memory.Documents
}

func newFixture() *fixture {
	docs := memory.NewDocuments(
		models.Document{ID: "d1", UserID: "u1", Filename: "a.pdf", Status: models.DocumentStatusDraft, TotalCost: d("30"), CreatedAt: day1},
		models.Document{ID: "d2", UserID: "u1", Filename: "b.pdf", Status: models.DocumentStatusPending, PaymentID: "p1", TotalCost: d("50"), CreatedAt: day1},
		models.Document{ID: "d3", UserID: "u2", Filename: "c.pdf", Status: models.DocumentStatusProcessing, PaymentID: "p2", TotalCost: d("70"), CreatedAt: day2},
		models.Document{ID: "d4", UserID: "u2", Filename: "e.pdf", Status: models.DocumentStatusProcessing, PaymentID: "p3", TotalCost: d("10"), CreatedAt: day3},
	)
	verifs := memory.NewVerifications(
		models.Verification{ID: "v1", DocumentID: "d3", UserID: "u2", Filename: "c.pdf", Status: models.VerificationPending, CreatedAt: day2},
	)
	trans := memory.NewTranslations(
		models.TranslatedDocument{ID: "t1", UserID: "u2", Filename: "E.PDF", CreatedAt: day3},
	)
	p1 := paid("p1", "u1", "50", models.PaymentCompleted, day1)
	p1.AffiliateCode = "AFF1"
	p1.Commission = d("5")
	payments := memory.NewPayments(
		p1,
		paid("p2", "u2", "70", models.PaymentCompleted, day2),
		paid("p3", "u2", "10", models.PaymentRefunded, day3),
		models.Payment{ID: "p4", UserID: "u1", Amount: d("30"), Currency: "usd", Status: models.PaymentPending, CreatedAt: day2},
	)
	withdrawals := memory.NewWithdrawals(
		models.WithdrawalRequest{ID: "w1", AffiliateID: "aff", Amount: d("25"), Status: models.WithdrawalPending, RequestedAt: day2},
		models.WithdrawalRequest{ID: "w2", AffiliateID: "aff", Amount: d("40"), Status: models.WithdrawalPaid, RequestedAt: day1},
	)
	cache := NewMemoryStatsCache()
	return &fixture{
		svc: &DefaultFinanceService{
			Docs:          docs,
			Verifications: verifs,
			Translations:  trans,
			Payments:      payments,
			Withdrawals:   withdrawals,
			Cache:         cache,
		},
		cache: cache,
		docs:  docs,
	}
}

func march() daterange.Range {
	return daterange.Range{Preset: daterange.Custom, Start: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), End: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)}
}

func all() daterange.Range {
	return daterange.Range{Preset: daterange.AllTime, End: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func TestStatsCards(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	cards, err := f.svc.StatsCards(ctx, all())
	if err != nil {
		t.Fatal(err)
	}
	if cards.Documents.Total != 4 || cards.Documents.Draft != 1 || cards.Documents.Pending != 1 ||
		cards.Documents.PendingVerification != 1 || cards.Documents.Completed != 1 {
		t.Fatalf("unexpected counts %+v", cards.Documents)
	}
	if cards.InProgress != 2 {
		t.Fatalf("in progress = %d", cards.InProgress)
	}
	if !cards.TotalRevenue.Equal(d("120")) || !cards.RefundedTotal.Equal(d("10")) || cards.CompletedPayments != 2 {
		t.Fatalf("unexpected revenue %+v", cards)
	}
	if !cards.AverageOrderValue.Equal(d("60")) || !cards.PendingWithdrawals.Equal(d("25")) || !cards.CommissionTotal.Equal(d("5")) {
		t.Fatalf("unexpected cards %+v", cards)
	}

	inMarch, err := f.svc.StatsCards(ctx, march())
	if err != nil {
		t.Fatal(err)
	}
	if inMarch.Documents.Total != 3 || !inMarch.TotalRevenue.Equal(d("120")) || !inMarch.RefundedTotal.IsZero() {
		t.Fatalf("unexpected march cards %+v", inMarch)
	}
}

func TestStatsCardsAreCached(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	first, err := f.svc.StatsCards(ctx, all())
	if err != nil {
		t.Fatal(err)
	}
	_ = f.docs.Create(ctx, &models.Document{ID: "d5", UserID: "u3", Status: models.DocumentStatusDraft, CreatedAt: day1})

	second, err := f.svc.StatsCards(ctx, all())
	if err != nil {
		t.Fatal(err)
	}
	if second.Documents.Total != first.Documents.Total || !second.GeneratedAt.Equal(first.GeneratedAt) {
		t.Fatalf("second call should be served from cache: %+v", second.Documents)
	}

	f.svc.Cache = nil
	fresh, _ := f.svc.StatsCards(ctx, all())
	if fresh.Documents.Total != 5 {
		t.Fatalf("uncached total = %d", fresh.Documents.Total)
	}
}

func TestCustomerStats(t *testing.T) {
	f := newFixture()
	stats, err := f.svc.CustomerStats(context.Background(), "u1")
	if err != nil {
		t.Fatal(err)
	}
	if stats.Documents.Total != 2 || stats.InProgress != 1 || !stats.TotalSpent.Equal(d("50")) || !stats.DraftValue.Equal(d("30")) {
		t.Fatalf("unexpected customer stats %+v", stats)
	}
}

func TestReport(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	if _, err := f.svc.Report(ctx, all(), "week"); !errors.Is(err, ErrInvalidGroupBy) {
		t.Fatalf("expected ErrInvalidGroupBy, got %v", err)
	}

	rep, err := f.svc.Report(ctx, all(), GroupByMonth)
	if err != nil {
		t.Fatal(err)
	}
	if len(rep.Buckets) != 2 || rep.Buckets[0].Period != "2024-03" || rep.Buckets[1].Period != "2024-04" {
		t.Fatalf("unexpected buckets %+v", rep.Buckets)
	}
	if rep.Buckets[0].Payments != 3 || rep.Buckets[0].Completed != 2 || !rep.Buckets[0].Revenue.Equal(d("120")) {
		t.Fatalf("unexpected march bucket %+v", rep.Buckets[0])
	}
	if !rep.Buckets[1].Refunded.Equal(d("10")) {
		t.Fatalf("unexpected april bucket %+v", rep.Buckets[1])
	}
	if rep.Totals.Completed != 2 || rep.Totals.Pending != 1 || rep.Totals.RefundedN != 1 || !rep.Totals.Commission.Equal(d("5")) {
		t.Fatalf("unexpected totals %+v", rep.Totals)
	}

	daily, _ := f.svc.Report(ctx, march(), "")
	if daily.GroupBy != GroupByDay || len(daily.Buckets) != 2 || daily.Buckets[0].Period != "2024-03-04" {
		t.Fatalf("unexpected daily buckets %+v", daily.Buckets)
	}
}

func TestExport(t *testing.T) {
	f := newFixture()
	rep, err := f.svc.Report(context.Background(), march(), GroupByDay)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := f.svc.Export(rep, "xlsx"); !errors.Is(err, ErrInvalidFormat) {
		t.Fatalf("expected ErrInvalidFormat, got %v", err)
	}

	out, err := f.svc.Export(rep, "CSV")
	if err != nil {
		t.Fatal(err)
	}
	if out.Filename != "finance-report-2024-03-01-2024-03-31.csv" || out.ContentType != "text/csv; charset=utf-8" {
		t.Fatalf("unexpected file %s %s", out.Filename, out.ContentType)
	}
	records, err := csv.NewReader(bytes.NewReader(out.Body)).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 4 || records[0][3] != "document_ids" {
		t.Fatalf("unexpected csv %v", records)
	}
	var p1 []string
	for _, r := range records[1:] {
		if r[0] == "p1" {
			p1 = r
		}
	}
	if p1 == nil || p1[1] != "2024-03-04 10:00:00" || p1[4] != "50.00" || p1[5] != "USD" || p1[7] != "AFF1" || p1[8] != "5.00" {
		t.Fatalf("unexpected p1 row %v", p1)
	}

	out, err = f.svc.Export(rep, FormatJSON)
	if err != nil {
		t.Fatal(err)
	}
	var decoded Report
	if err := json.Unmarshal(out.Body, &decoded); err != nil {
		t.Fatal(err)
	}
	if len(decoded.Payments) != 3 || !decoded.Totals.Revenue.Equal(d("120")) {
		t.Fatalf("unexpected json export %+v", decoded.Totals)
	}

	out, err = f.svc.Export(rep, FormatPDF)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(out.Body, []byte("%PDF")) || out.ContentType != "application/pdf" {
		t.Fatal("pdf export should produce a pdf document")
	}
}

func TestFilenameForAllTime(t *testing.T) {
	rep := &Report{Range: all()}
	if got := Filename(rep, FormatJSON); got != "finance-report-all-2024-12-31.json" {
		t.Fatalf("got %s", got)
	}
}
