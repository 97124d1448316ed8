package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/linkfolio/profile-service/internal/application"
)

func (h *Handler) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := bearerTokenFromHeader(r.Header.Get("Authorization"))
		if err != nil {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or missing credentials")
			return
		}
		claims, err := h.service.ValidateToken(r.Context(), raw)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or missing credentials")
			return
		}
		ctx := context.WithValue(r.Context(), ctxKeyClaims, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func callerID(r *http.Request) (uuid.UUID, bool) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		return uuid.Nil, false
	}
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return uuid.Nil, false
	}
	return userID, true
}

// checkResponse is the wire shape of the availability endpoint. Error is
// only present when the check could not complete.
type checkResponse struct {
	Available bool   `json:"available"`
	Username  string `json:"username"`
	Error     string `json:"error,omitempty"`
}

func (h *Handler) checkUsername(w http.ResponseWriter, r *http.Request) {
	if h.limiter != nil {
		allowed, err := h.limiter.Allow(r.Context(), "check:"+clientIP(r))
		if err == nil && !allowed {
			writeJSON(w, http.StatusTooManyRequests, checkResponse{
				Username: "", Error: "rate limit exceeded, try again later",
			})
			return
		}
	}
	var req application.CheckUsernameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, checkResponse{Error: "invalid json body"})
		return
	}
	resp, err := h.service.CheckUsername(r.Context(), req.Username)
	if err != nil {
		status, _, msg := mapDomainError(err)
		writeJSON(w, status, checkResponse{Username: req.Username, Error: msg})
		return
	}
	w.Header().Set("X-Cache", cacheHeader(resp.FromCache))
	writeJSON(w, http.StatusOK, checkResponse{Available: resp.Available, Username: resp.Username})
}

func cacheHeader(fromCache bool) string {
	if fromCache {
		return "HIT"
	}
	return "MISS"
}

func (h *Handler) claimUsername(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or missing credentials")
		return
	}
	var req application.ClaimUsernameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid json body")
		return
	}
	resp, err := h.service.ClaimUsername(r.Context(), userID, req.Username, r.Header.Get("Idempotency-Key"))
	if err != nil {
		status, code, msg := mapDomainError(err)
		writeError(w, status, code, msg)
		return
	}
	writeSuccess(w, http.StatusOK, resp)
}

func (h *Handler) getPublicProfile(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	resp, err := h.service.GetProfileBySlug(r.Context(), slug)
	if err != nil {
		status, code, msg := mapDomainError(err)
		writeError(w, status, code, msg)
		return
	}
	if resp.RedirectTo != "" {
		http.Redirect(w, r, "/v1/profiles/"+resp.RedirectTo, http.StatusMovedPermanently)
		return
	}
	w.Header().Set("X-Cache", cacheHeader(resp.FromCache))
	writeSuccess(w, http.StatusOK, resp.Profile)
}

func (h *Handler) getMyProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or missing credentials")
		return
	}
	resp, err := h.service.GetProfile(r.Context(), userID)
	if err != nil {
		status, code, msg := mapDomainError(err)
		writeError(w, status, code, msg)
		return
	}
	w.Header().Set("X-Cache", cacheHeader(resp.FromCache))
	writeSuccess(w, http.StatusOK, resp.Profile)
}

func (h *Handler) updateMyProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or missing credentials")
		return
	}
	var req application.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid json body")
		return
	}
	resp, err := h.service.UpdateProfile(r.Context(), userID, req, r.Header.Get("Idempotency-Key"))
	if err != nil {
		status, code, msg := mapDomainError(err)
		writeError(w, status, code, msg)
		return
	}
	writeSuccess(w, http.StatusOK, resp)
}

func (h *Handler) updateMySettings(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or missing credentials")
		return
	}
	var req application.UpdateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid json body")
		return
	}
	resp, err := h.service.UpdateSettings(r.Context(), userID, req, r.Header.Get("Idempotency-Key"))
	if err != nil {
		status, code, msg := mapDomainError(err)
		writeError(w, status, code, msg)
		return
	}
	writeSuccess(w, http.StatusOK, resp)
}

func (h *Handler) changeUsername(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or missing credentials")
		return
	}
	var req application.ChangeUsernameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid json body")
		return
	}
	resp, err := h.service.ChangeUsername(r.Context(), userID, req.Username, r.Header.Get("Idempotency-Key"))
	if err != nil {
		status, code, msg := mapDomainError(err)
		writeError(w, status, code, msg)
		return
	}
	writeSuccess(w, http.StatusOK, resp)
}

func (h *Handler) getUsernameHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or missing credentials")
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			limit = parsed
		}
	}
	entries, err := h.service.UsernameHistory(r.Context(), userID, limit)
	if err != nil {
		status, code, msg := mapDomainError(err)
		writeError(w, status, code, msg)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"history": entries})
}
