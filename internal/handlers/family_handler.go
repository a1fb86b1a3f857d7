package handlers

import (
	"net/http"

	"familyledger/internal/models"
	"familyledger/internal/service"
)

// FamilyHandler handles family membership HTTP requests
type FamilyHandler struct {
	familyService *service.FamilyService
}

// NewFamilyHandler creates a new family handler
func NewFamilyHandler(familyService *service.FamilyService) *FamilyHandler {
	return &FamilyHandler{familyService: familyService}
}

type familyResponse struct {
	Family *models.Family `json:"family"`
	Member *models.Member `json:"member"`
}

// CreateFamily creates a family with the caller as its head.
func (h *FamilyHandler) CreateFamily(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		respondError(w, r, errUnauthenticated)
		return
	}

	var req struct {
		Name string `json:"name"`
		Role string `json:"role"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondBadRequest(w, r, err.Error())
		return
	}

	family, member, err := h.familyService.CreateFamily(r.Context(), userID, req.Name, req.Role)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondData(w, http.StatusCreated, familyResponse{Family: family, Member: member})
}

// JoinFamily adds the caller to the family matching the join code.
func (h *FamilyHandler) JoinFamily(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		respondError(w, r, errUnauthenticated)
		return
	}

	var req struct {
		FamilyCode string `json:"familyCode"`
		Role       string `json:"role"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondBadRequest(w, r, err.Error())
		return
	}

	family, member, err := h.familyService.JoinFamily(r.Context(), userID, req.FamilyCode, req.Role)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondData(w, http.StatusCreated, familyResponse{Family: family, Member: member})
}

// GrantPermissions updates another member's capability flags. Absent fields
// keep their current value.
func (h *FamilyHandler) GrantPermissions(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		respondError(w, r, errUnauthenticated)
		return
	}

	var req struct {
		MemberID            int64 `json:"memberId"`
		IsFamilyHead        *bool `json:"isFamilyHead"`
		CanAddIncome        *bool `json:"canAddIncome"`
		CanViewFamilyReport *bool `json:"canViewFamilyReport"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondBadRequest(w, r, err.Error())
		return
	}
	if req.MemberID == 0 {
		respondBadRequest(w, r, "memberId is required")
		return
	}

	member, err := h.familyService.GrantPermissions(r.Context(), userID, req.MemberID, service.PermissionGrant{
		IsFamilyHead:        req.IsFamilyHead,
		CanAddIncome:        req.CanAddIncome,
		CanViewFamilyReport: req.CanViewFamilyReport,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondData(w, http.StatusOK, member)
}

// GetMembers lists the caller's family members.
func (h *FamilyHandler) GetMembers(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		respondError(w, r, errUnauthenticated)
		return
	}

	members, err := h.familyService.GetFamilyMembers(r.Context(), userID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondData(w, http.StatusOK, members)
}

// GetFamily returns the caller's family including its join code.
func (h *FamilyHandler) GetFamily(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		respondError(w, r, errUnauthenticated)
		return
	}

	family, err := h.familyService.GetFamily(r.Context(), userID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondData(w, http.StatusOK, family)
}
