// Segmentus - Customer Segmentation and Cluster Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmentus

package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/tomtom215/segmentus/internal/auth"
	"github.com/tomtom215/segmentus/internal/models"
)

const (
	profilesDefaultLimit = 100
	profilesMaxLimit     = 1000
)

// profileList is the payload of GET /profiles.
type profileList struct {
	Profiles []models.CustomerProfile `json:"profiles"`
	Total    int64                    `json:"total"`
}

// Saved customer profiles are scoped to their owner. Another user's
// profile id answers 404 exactly like a missing one.

// CreateProfile saves a customer profile for the caller.
//
// Method: POST
// Path: /api/v1/profiles
func (h *Handler) CreateProfile(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetClaims(r.Context())

	var req models.ProfileRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	p := &models.CustomerProfile{
		UserID:            claims.UserID,
		Name:              strings.TrimSpace(req.Name),
		Sex:               req.Sex,
		Age:               req.Age,
		AnnualIncome:      req.AnnualIncome,
		SpendingScore:     req.SpendingScore,
		PurchaseFrequency: req.PurchaseFrequency,
		Notes:             req.Notes,
	}
	if err := h.db.CreateProfile(r.Context(), p); err != nil {
		respondDomainError(w, err)
		return
	}
	respondSuccess(w, http.StatusCreated, p, models.Metadata{})
}

// ListProfiles returns the caller's profiles, newest first.
//
// Method: GET
// Path: /api/v1/profiles?skip=0&limit=100
func (h *Handler) ListProfiles(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetClaims(r.Context())
	page, apiErr := parsePagination(r, profilesDefaultLimit, profilesMaxLimit)
	if apiErr != nil {
		respondAPIError(w, http.StatusBadRequest, apiErr)
		return
	}

	start := time.Now()
	profiles, err := h.db.ListProfiles(r.Context(), claims.UserID, page.Skip, page.Limit)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	total, err := h.db.CountProfiles(r.Context(), claims.UserID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	if profiles == nil {
		profiles = []models.CustomerProfile{}
	}
	respondSuccess(w, http.StatusOK, profileList{Profiles: profiles, Total: total},
		models.Metadata{QueryTimeMS: elapsedMS(start)})
}

// GetProfile returns one of the caller's profiles.
//
// Method: GET
// Path: /api/v1/profiles/{id}
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetClaims(r.Context())
	id, ok := pathID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, CodeValidation, "Invalid profile id", nil)
		return
	}

	p, err := h.db.GetProfile(r.Context(), claims.UserID, id)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, p, models.Metadata{})
}

// UpdateProfile applies a partial update to one of the caller's profiles.
//
// Method: PUT
// Path: /api/v1/profiles/{id}
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetClaims(r.Context())
	id, ok := pathID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, CodeValidation, "Invalid profile id", nil)
		return
	}

	var req models.CustomerProfileUpdate
	if !decodeAndValidate(w, r, &req) {
		return
	}
	if req.Name != nil {
		req.Name = trimmed(req.Name)
		if *req.Name == "" {
			respondError(w, http.StatusBadRequest, CodeValidation, "name must not be blank", nil)
			return
		}
	}

	p, err := h.db.UpdateProfile(r.Context(), claims.UserID, id, req)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, p, models.Metadata{})
}

// DeleteProfile removes one of the caller's profiles.
//
// Method: DELETE
// Path: /api/v1/profiles/{id}
func (h *Handler) DeleteProfile(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetClaims(r.Context())
	id, ok := pathID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, CodeValidation, "Invalid profile id", nil)
		return
	}

	if err := h.db.DeleteProfile(r.Context(), claims.UserID, id); err != nil {
		respondDomainError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, message{Message: "Profile deleted"}, models.Metadata{})
}
