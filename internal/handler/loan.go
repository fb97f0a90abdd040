package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/tandafin/lending-engine/internal/domain"
	"github.com/tandafin/lending-engine/internal/service"
	"github.com/tandafin/lending-engine/pkg/response"
)

type LoanHandler struct {
	origination *service.OriginationService
	collection  *service.CollectionService
	reports     *service.ReportService
	validator   *validator.Validate
}

func NewLoanHandler(
	origination *service.OriginationService,
	collection *service.CollectionService,
	reports *service.ReportService,
) *LoanHandler {
	return &LoanHandler{
		origination: origination,
		collection:  collection,
		reports:     reports,
		validator:   validator.New(),
	}
}

func (h *LoanHandler) Disburse(w http.ResponseWriter, r *http.Request) {
	companyID, ok := tenantID(r)
	if !ok {
		writeMissingTenant(w)
		return
	}

	var request domain.DisburseLoanRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		response.BadRequest(w, "malformed request body", err)
		return
	}
	if err := h.validator.Struct(&request); err != nil {
		response.BadRequest(w, "invalid loan request", err)
		return
	}

	result, err := h.origination.Disburse(r.Context(), companyID, &request)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.Created(w, result)
}

func (h *LoanHandler) Get(w http.ResponseWriter, r *http.Request) {
	companyID, loanID, ok := h.loanScope(w, r)
	if !ok {
		return
	}

	loan, err := h.reports.Loan(r.Context(), companyID, loanID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.Success(w, loan)
}

func (h *LoanHandler) Status(w http.ResponseWriter, r *http.Request) {
	companyID, loanID, ok := h.loanScope(w, r)
	if !ok {
		return
	}

	status, err := h.reports.LoanStatus(r.Context(), companyID, loanID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.Success(w, status)
}

func (h *LoanHandler) Collect(w http.ResponseWriter, r *http.Request) {
	companyID, loanID, ok := h.loanScope(w, r)
	if !ok {
		return
	}

	var request domain.CollectRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		response.BadRequest(w, "malformed request body", err)
		return
	}
	if err := h.validator.Struct(&request); err != nil {
		response.BadRequest(w, "invalid repayment request", err)
		return
	}

	result, err := h.collection.Collect(r.Context(), companyID, loanID, &request)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.Created(w, result)
}

func (h *LoanHandler) ListRepayments(w http.ResponseWriter, r *http.Request) {
	companyID, loanID, ok := h.loanScope(w, r)
	if !ok {
		return
	}

	repayments, err := h.collection.ListRepayments(r.Context(), companyID, loanID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.Success(w, repayments)
}

func (h *LoanHandler) ApplyPenalty(w http.ResponseWriter, r *http.Request) {
	companyID, loanID, ok := h.loanScope(w, r)
	if !ok {
		return
	}

	var request domain.PenaltyRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		response.BadRequest(w, "malformed request body", err)
		return
	}
	if err := h.validator.Struct(&request); err != nil {
		response.BadRequest(w, "invalid penalty request", err)
		return
	}

	penalty, err := h.collection.ApplyPenalty(r.Context(), companyID, loanID, &request)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.Created(w, penalty)
}

func (h *LoanHandler) WriteOff(w http.ResponseWriter, r *http.Request) {
	companyID, loanID, ok := h.loanScope(w, r)
	if !ok {
		return
	}

	var request domain.WriteOffRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		response.BadRequest(w, "malformed request body", err)
		return
	}
	if err := h.validator.Struct(&request); err != nil {
		response.BadRequest(w, "invalid write-off request", err)
		return
	}

	if err := h.collection.WriteOff(r.Context(), companyID, loanID, request.Reason); err != nil {
		writeServiceError(w, err)
		return
	}

	response.Success(w, map[string]string{"status": domain.LoanStatusBadDebt})
}

func (h *LoanHandler) CollectionReport(w http.ResponseWriter, r *http.Request) {
	companyID, ok := tenantID(r)
	if !ok {
		writeMissingTenant(w)
		return
	}

	report, err := h.reports.CollectionTotals(r.Context(), companyID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.Success(w, report)
}

func (h *LoanHandler) loanScope(w http.ResponseWriter, r *http.Request) (companyID, loanID uuid.UUID, ok bool) {
	companyID, ok = tenantID(r)
	if !ok {
		writeMissingTenant(w)
		return uuid.Nil, uuid.Nil, false
	}

	loanID, err := uuid.Parse(mux.Vars(r)["loanId"])
	if err != nil {
		response.BadRequest(w, "malformed loan ID", err)
		return uuid.Nil, uuid.Nil, false
	}

	return companyID, loanID, true
}
