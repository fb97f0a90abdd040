package handler

import (
	"net/http"

	"github.com/google/uuid"

	customError "github.com/tandafin/lending-engine/pkg/errors"
	"github.com/tandafin/lending-engine/pkg/response"
)

// companyHeader carries the tenant identifier resolved by the identity
// layer in front of this service.
const companyHeader = "X-Company-ID"

func tenantID(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.Header.Get(companyHeader))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func writeMissingTenant(w http.ResponseWriter) {
	response.Unauthorized(w, "missing or malformed "+companyHeader+" header")
}

// writeServiceError maps the business error taxonomy onto HTTP statuses.
// NOT_FOUND covers cross-tenant references too, so nothing leaks about
// other tenants' records.
func writeServiceError(w http.ResponseWriter, err error) {
	switch customError.CodeOf(err) {
	case customError.ErrCodeValidation, customError.ErrCodeWalletInactive:
		response.BadRequest(w, "invalid request", err)
	case customError.ErrCodeNotFound:
		response.NotFound(w, err.Error())
	case customError.ErrCodeInsufficientFunds:
		response.Error(w, http.StatusUnprocessableEntity, "insufficient funds", err)
	case customError.ErrCodeInvalidLoanState:
		response.Error(w, http.StatusConflict, "loan is not active", err)
	case customError.ErrCodeTransactionAborted:
		response.Error(w, http.StatusConflict, "concurrent conflict, retry the request", err)
	default:
		response.InternalServerError(w, "internal error", err)
	}
}
