package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/tandafin/lending-engine/internal/accrual"
	"github.com/tandafin/lending-engine/internal/config"
	"github.com/tandafin/lending-engine/internal/domain"
	"github.com/tandafin/lending-engine/internal/repository"
	customError "github.com/tandafin/lending-engine/pkg/errors"
)

// Cache keys are tenant-scoped so one tenant's cached entries can never be
// served to another.
func loanStatusKey(companyID, loanID uuid.UUID) string {
	return "loan:status:" + companyID.String() + ":" + loanID.String()
}

func collectionReportKey(companyID uuid.UUID) string {
	return "report:collections:" + companyID.String()
}

// ReportService serves the read-only consumers: the accrual view of a loan
// and the per-tenant collection aggregate. Results are cached in Redis and
// invalidated by the write paths; a cache failure falls through to the
// database rather than failing the read.
type ReportService struct {
	LoanRepo      repository.LoanRepository
	RepaymentRepo repository.RepaymentRepository
	redis         *redis.Client
	config        *config.Config
}

func NewReportService(
	loanRepo repository.LoanRepository,
	repaymentRepo repository.RepaymentRepository,
	redis *redis.Client,
	config *config.Config,
) *ReportService {
	return &ReportService{
		LoanRepo:      loanRepo,
		RepaymentRepo: repaymentRepo,
		redis:         redis,
		config:        config,
	}
}

// Loan returns a loan record with its deduction lines.
func (s *ReportService) Loan(ctx context.Context, companyID, loanID uuid.UUID) (*domain.LoanDetail, error) {
	loan, err := s.LoanRepo.GetByID(ctx, companyID, loanID)
	if err != nil {
		if repository.IsNoRows(err) {
			return nil, customError.WrapNotFound("loan", loanID.String())
		}
		return nil, customError.WrapDatabaseError(err)
	}

	deductions, err := s.LoanRepo.GetDeductions(ctx, loanID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	return &domain.LoanDetail{Loan: loan, Deductions: deductions}, nil
}

// LoanStatus computes the overdue view of a loan without writing anything.
func (s *ReportService) LoanStatus(ctx context.Context, companyID, loanID uuid.UUID) (*domain.LoanStatusResponse, error) {
	key := loanStatusKey(companyID, loanID)
	var cached domain.LoanStatusResponse
	if ok := s.getCached(ctx, key, &cached); ok {
		return &cached, nil
	}

	loan, err := s.LoanRepo.GetByID(ctx, companyID, loanID)
	if err != nil {
		if repository.IsNoRows(err) {
			return nil, customError.WrapNotFound("loan", loanID.String())
		}
		return nil, customError.WrapDatabaseError(err)
	}

	status := buildLoanStatus(loan, time.Now())
	s.setCached(ctx, key, status, s.config.Business.GetStatusCacheTTL())
	return status, nil
}

// CollectionTotals aggregates a tenant's collection figures for the
// dashboard.
func (s *ReportService) CollectionTotals(ctx context.Context, companyID uuid.UUID) (*domain.CollectionReport, error) {
	key := collectionReportKey(companyID)
	var cached domain.CollectionReport
	if ok := s.getCached(ctx, key, &cached); ok {
		return &cached, nil
	}

	report, err := s.RepaymentRepo.CollectionReport(ctx, companyID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	report.GeneratedAt = time.Now()

	s.setCached(ctx, key, report, s.config.Business.GetReportCacheTTL())
	return report, nil
}

// WarmOverdueCache recomputes and caches the status of every active daily
// loan. The nightly scan calls this; penalties themselves stay manual.
func (s *ReportService) WarmOverdueCache(ctx context.Context) (int, error) {
	loans, err := s.LoanRepo.ListActiveDaily(ctx)
	if err != nil {
		return 0, customError.WrapDatabaseError(err)
	}

	now := time.Now()
	warmed := 0
	for _, loan := range loans {
		status := buildLoanStatus(loan, now)
		s.setCached(ctx, loanStatusKey(loan.CompanyID, loan.ID), status, s.config.Business.GetStatusCacheTTL())
		warmed++
	}
	return warmed, nil
}

// buildLoanStatus is the pure part: periodic loans are never "overdue" in
// the daily-schedule sense, daily loans go through the accrual calculator.
func buildLoanStatus(loan *domain.Loan, now time.Time) *domain.LoanStatusResponse {
	status := &domain.LoanStatusResponse{
		LoanID:         loan.ID,
		Status:         loan.Status,
		AmountPaid:     loan.AmountPaid,
		PendingBalance: loan.PendingBalance,
	}

	if loan.Kind == domain.LoanKindDaily {
		daily := accrual.DailyLoanStatus(accrual.DailyTerms{
			StartDate:         loan.StartDate,
			InstallmentAmount: loan.InstallmentAmount,
			TotalInstallments: loan.TotalInstallments,
			PenaltyPerUnit:    loan.PenaltyPerUnit,
		}, now)
		status.ElapsedDays = daily.ElapsedDays
		status.Overdue = daily.Overdue
		status.OverdueCount = daily.OverdueCount
		status.SuggestedPenalty = daily.SuggestedPenalty
	}

	return status
}

func (s *ReportService) getCached(ctx context.Context, key string, dest interface{}) bool {
	payload, err := s.redis.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			log.Printf("cache read for %s failed: %v", key, err)
		}
		return false
	}
	if err := json.Unmarshal([]byte(payload), dest); err != nil {
		log.Printf("cache entry for %s is corrupt: %v", key, err)
		return false
	}
	return true
}

func (s *ReportService) setCached(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	payload, err := json.Marshal(value)
	if err != nil {
		log.Printf("cache marshal for %s failed: %v", key, err)
		return
	}
	if err := s.redis.Set(ctx, key, payload, ttl).Err(); err != nil {
		log.Printf("cache write for %s failed: %v", key, err)
	}
}
