package finance

import (
	"context"
	"errors"
	"time"

	documentRepo "tradocs/database/repository/document"
	paymentRepo "tradocs/database/repository/payment"
	translatedRepo "tradocs/database/repository/translated"
	verificationRepo "tradocs/database/repository/verification"
	withdrawalRepo "tradocs/database/repository/withdrawal"
	"tradocs/models"
	"tradocs/services/daterange"
	"tradocs/services/status"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidGroupBy = errors.New("groupBy must be day or month")
	ErrInvalidFormat  = errors.New("format must be csv, json or pdf")
)

const (
	GroupByDay   = "day"
	GroupByMonth = "month"

	FormatCSV  = "csv"
	FormatJSON = "json"
	FormatPDF  = "pdf"
)

// StatsTTL is how long dashboard cards are served from cache.
const StatsTTL = 60 * time.Second

type FinanceService interface {
	StatsCards(ctx context.Context, r daterange.Range) (*StatsCards, error)
	CustomerStats(ctx context.Context, userID string) (*CustomerStats, error)
	Report(ctx context.Context, r daterange.Range, groupBy string) (*Report, error)
	Export(report *Report, format string) (*ExportFile, error)
}

type DefaultFinanceService struct {
	Docs          documentRepo.DocumentRepository
	Verifications verificationRepo.VerificationRepository
	Translations  translatedRepo.TranslatedRepository
	Payments      paymentRepo.PaymentRepository
	Withdrawals   withdrawalRepo.WithdrawalRepository
	Cache         StatsCache
	// Location buckets report periods; nil means UTC.
	Location *time.Location
}

// StatsCards backs the finance and admin dashboards.
type StatsCards struct {
	Range              daterange.Range `json:"range"`
	Documents          status.Counts   `json:"documents"`
	InProgress         int             `json:"inProgress"`
	TotalRevenue       decimal.Decimal `json:"totalRevenue"`
	RefundedTotal      decimal.Decimal `json:"refundedTotal"`
	CompletedPayments  int             `json:"completedPayments"`
	AverageOrderValue  decimal.Decimal `json:"averageOrderValue"`
	CommissionTotal    decimal.Decimal `json:"commissionTotal"`
	PendingWithdrawals decimal.Decimal `json:"pendingWithdrawals"`
	GeneratedAt        time.Time       `json:"generatedAt"`
}

// CustomerStats backs the customer dashboard.
type CustomerStats struct {
	Documents  status.Counts   `json:"documents"`
	InProgress int             `json:"inProgress"`
	TotalSpent decimal.Decimal `json:"totalSpent"`
	DraftValue decimal.Decimal `json:"draftValue"`
}

// Bucket aggregates payments over one day or month.
type Bucket struct {
	Period    string          `json:"period"`
	Revenue   decimal.Decimal `json:"revenue"`
	Refunded  decimal.Decimal `json:"refunded"`
	Completed int             `json:"completed"`
	Payments  int             `json:"payments"`
}

type Totals struct {
	Revenue    decimal.Decimal `json:"revenue"`
	Refunded   decimal.Decimal `json:"refunded"`
	Commission decimal.Decimal `json:"commission"`
	Completed  int             `json:"completed"`
	Pending    int             `json:"pending"`
	Failed     int             `json:"failed"`
	RefundedN  int             `json:"refundedCount"`
}

// Report lists the payments of a range with per-period aggregates.
type Report struct {
	Range    daterange.Range  `json:"range"`
	GroupBy  string           `json:"groupBy"`
	Buckets  []Bucket         `json:"buckets"`
	Totals   Totals           `json:"totals"`
	Payments []models.Payment `json:"payments"`
}

// ExportFile is a rendered report ready to be sent as an attachment.
type ExportFile struct {
	Filename    string
	ContentType string
	Body        []byte
}
