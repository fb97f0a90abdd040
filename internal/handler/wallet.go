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

type WalletHandler struct {
	service   *service.WalletService
	validator *validator.Validate
}

func NewWalletHandler(service *service.WalletService) *WalletHandler {
	return &WalletHandler{
		service:   service,
		validator: validator.New(),
	}
}

func (h *WalletHandler) Create(w http.ResponseWriter, r *http.Request) {
	companyID, ok := tenantID(r)
	if !ok {
		writeMissingTenant(w)
		return
	}

	var request domain.CreateWalletRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		response.BadRequest(w, "malformed request body", err)
		return
	}
	if err := h.validator.Struct(&request); err != nil {
		response.BadRequest(w, "invalid wallet request", err)
		return
	}

	wallet, err := h.service.CreateWallet(r.Context(), companyID, &request)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.Created(w, wallet)
}

func (h *WalletHandler) List(w http.ResponseWriter, r *http.Request) {
	companyID, ok := tenantID(r)
	if !ok {
		writeMissingTenant(w)
		return
	}

	wallets, err := h.service.ListWallets(r.Context(), companyID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.Success(w, wallets)
}

func (h *WalletHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	companyID, walletID, ok := h.walletScope(w, r)
	if !ok {
		return
	}

	if err := h.service.Deactivate(r.Context(), companyID, walletID); err != nil {
		writeServiceError(w, err)
		return
	}

	response.Success(w, map[string]string{"status": "deactivated"})
}

func (h *WalletHandler) ApplyMovement(w http.ResponseWriter, r *http.Request) {
	companyID, walletID, ok := h.walletScope(w, r)
	if !ok {
		return
	}

	var request domain.ManualMovementRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		response.BadRequest(w, "malformed request body", err)
		return
	}
	if err := h.validator.Struct(&request); err != nil {
		response.BadRequest(w, "invalid movement request", err)
		return
	}

	movement, err := h.service.ApplyManualMovement(r.Context(), companyID, walletID, &request)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.Created(w, movement)
}

func (h *WalletHandler) Movements(w http.ResponseWriter, r *http.Request) {
	companyID, walletID, ok := h.walletScope(w, r)
	if !ok {
		return
	}

	history, err := h.service.Movements(r.Context(), companyID, walletID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.Success(w, history)
}

func (h *WalletHandler) walletScope(w http.ResponseWriter, r *http.Request) (companyID, walletID uuid.UUID, ok bool) {
	companyID, ok = tenantID(r)
	if !ok {
		writeMissingTenant(w)
		return uuid.Nil, uuid.Nil, false
	}

	walletID, err := uuid.Parse(mux.Vars(r)["walletId"])
	if err != nil {
		response.BadRequest(w, "malformed wallet ID", err)
		return uuid.Nil, uuid.Nil, false
	}

	return companyID, walletID, true
}
