package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/alexedwards/scs/v2"
	"github.com/rs/zerolog/log"

	"github.com/yashfitness/backend/internal/auth"
	"github.com/yashfitness/backend/internal/store"
)

// Session keys.
const (
	sessionUserID = "userID"
	sessionEmail  = "email"
	sessionPlan   = "userPlan"
)

// ChatService is the slice of the chat core the HTTP layer needs.
type ChatService interface {
	Ask(ctx context.Context, userID int64, message string) (string, error)
	ClearHistory(ctx context.Context, userID int64) error
}

// Store covers the user and lead persistence the handlers use.
type Store interface {
	GetUserByEmail(ctx context.Context, email string) (*store.User, error)
	GetUserByID(ctx context.Context, id int64) (*store.User, error)
	CreateUser(ctx context.Context, email, passwordHash, plan string) (*store.User, error)
	UpdateUserPlan(ctx context.Context, id int64, plan string) error
	CreateLead(ctx context.Context, lead *store.Lead) error
	GetLeadByID(ctx context.Context, id string) (*store.Lead, error)
	MarkLeadConverted(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type APIHandler struct {
	chat     ChatService
	db       Store
	cache    Pinger
	sessions *scs.SessionManager
}

func NewAPIHandler(chat ChatService, db Store, cache Pinger, sessions *scs.SessionManager) *APIHandler {
	return &APIHandler{chat: chat, db: db, cache: cache, sessions: sessions}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// RequireLogin gates chat endpoints on a session identity.
func (h *APIHandler) RequireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !h.sessions.Exists(r.Context(), sessionUserID) {
			writeError(w, http.StatusUnauthorized, "Login required to chat with memory.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *APIHandler) startSession(ctx context.Context, user *store.User) {
	h.sessions.Put(ctx, sessionUserID, user.ID)
	h.sessions.Put(ctx, sessionEmail, user.Email)
	h.sessions.Put(ctx, sessionPlan, user.Plan)
}

// --- Auth ---

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userPayload struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Plan  string `json:"plan,omitempty"`
}

func (h *APIHandler) SignupHandler(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Email and password are required.")
		return
	}

	existing, err := h.db.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		log.Error().Err(err).Msg("signup: user lookup failed")
		writeError(w, http.StatusInternalServerError, "Internal server error.")
		return
	}
	if existing != nil {
		writeError(w, http.StatusConflict, "Email already registered.")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		log.Error().Err(err).Msg("signup: password hashing failed")
		writeError(w, http.StatusInternalServerError, "Internal server error.")
		return
	}

	user, err := h.db.CreateUser(r.Context(), req.Email, hash, "free")
	if err != nil {
		log.Error().Err(err).Msg("signup: user insert failed")
		writeError(w, http.StatusInternalServerError, "Internal server error.")
		return
	}

	if err := h.sessions.RenewToken(r.Context()); err != nil {
		log.Error().Err(err).Msg("signup: session renew failed")
	}
	h.startSession(r.Context(), user)
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Signup successful.",
		"user":    userPayload{ID: user.ID, Email: user.Email},
	})
}

func (h *APIHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Email and password are required.")
		return
	}

	user, err := h.db.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		log.Error().Err(err).Msg("login: user lookup failed")
		writeError(w, http.StatusInternalServerError, "Internal server error.")
		return
	}
	if user == nil || !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		writeError(w, http.StatusUnauthorized, "Invalid credentials.")
		return
	}

	if err := h.sessions.RenewToken(r.Context()); err != nil {
		log.Error().Err(err).Msg("login: session renew failed")
	}
	h.startSession(r.Context(), user)
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Login successful.",
		"user":    userPayload{ID: user.ID, Email: user.Email},
	})
}

func (h *APIHandler) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Destroy(r.Context()); err != nil {
		log.Error().Err(err).Msg("logout: session destroy failed")
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out."})
}

func (h *APIHandler) MeHandler(w http.ResponseWriter, r *http.Request) {
	if !h.sessions.Exists(r.Context(), sessionUserID) {
		writeJSON(w, http.StatusOK, map[string]any{"user": nil})
		return
	}
	userID := h.sessions.GetInt64(r.Context(), sessionUserID)

	user, err := h.db.GetUserByID(r.Context(), userID)
	if err != nil {
		log.Error().Err(err).Int64("user_id", userID).Msg("me: user lookup failed")
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}
	if user == nil {
		writeJSON(w, http.StatusOK, map[string]any{"user": nil})
		return
	}

	plan := user.Plan
	if plan == "" {
		plan = "free"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"user": userPayload{ID: user.ID, Email: user.Email, Plan: plan},
	})
}

// --- Leads and plans ---

type joinNowRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Plan    string `json:"plan"`
	Goal    string `json:"goal"`
	Details string `json:"details"`
}

func slugify(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), "_")
}

func normalizePhone(s string) string {
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '+' {
			b.WriteRune(r)
		}
	}
	phone := b.String()
	if len(phone) > 15 {
		phone = phone[:15]
	}
	return phone
}

func (h *APIHandler) JoinNowHandler(w http.ResponseWriter, r *http.Request) {
	var req joinNowRequest
	if r.Body != http.NoBody {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body.")
			return
		}
	}

	lead := &store.Lead{
		Name:    strings.TrimSpace(req.Name),
		Email:   strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:   normalizePhone(req.Phone),
		Plan:    slugify(req.Plan),
		Goal:    slugify(req.Goal),
		Details: strings.TrimSpace(req.Details),
		Source:  "join_now",
	}
	if lead.Plan == "" {
		lead.Plan = "free"
	}
	if lead.Name == "" || lead.Email == "" {
		writeError(w, http.StatusBadRequest, "Name and email are required.")
		return
	}

	// Link the lead to the member when one is logged in.
	if h.sessions.Exists(r.Context(), sessionUserID) {
		userID := h.sessions.GetInt64(r.Context(), sessionUserID)
		lead.UserID = &userID
	}

	if err := h.db.CreateLead(r.Context(), lead); err != nil {
		log.Error().Err(err).Msg("join-now: lead insert failed")
		writeError(w, http.StatusInternalServerError, "Internal server error.")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Thank you for submitting your details for the Free plan! A team member will be in touch.",
		"leadId":  lead.ID,
	})
}

type freeSignupRequest struct {
	Email string `json:"email"`
}

func (h *APIHandler) FreeSignupHandler(w http.ResponseWriter, r *http.Request) {
	var req freeSignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	if req.Email == "" {
		writeError(w, http.StatusBadRequest, "Email required")
		return
	}

	user, err := h.ensureUserWithPlan(r.Context(), req.Email, "free")
	if err != nil {
		log.Error().Err(err).Msg("signup-free failed")
		writeError(w, http.StatusInternalServerError, "Internal server error.")
		return
	}

	if err := h.sessions.RenewToken(r.Context()); err != nil {
		log.Error().Err(err).Msg("signup-free: session renew failed")
	}
	h.startSession(r.Context(), user)
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":       true,
		"redirect": "/platform.html",
		"message":  "Welcome to YashFitness Free Plan!",
	})
}

type paymentSuccessRequest struct {
	LeadID        string  `json:"leadId"`
	Plan          string  `json:"plan"`
	Amount        float64 `json:"amount"`
	TransactionID string  `json:"transactionId"`
}

// PaymentSuccessHandler records a verified payment: the lead converts, the
// paying member gets (or becomes) a user on the paid plan, and a session
// starts so the redirect lands them logged in.
func (h *APIHandler) PaymentSuccessHandler(w http.ResponseWriter, r *http.Request) {
	var req paymentSuccessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	if req.LeadID == "" {
		writeError(w, http.StatusBadRequest, "leadId required")
		return
	}
	plan := req.Plan
	if plan == "" {
		plan = "pro"
	}

	if err := h.db.MarkLeadConverted(r.Context(), req.LeadID); err != nil {
		log.Error().Err(err).Str("lead_id", req.LeadID).Msg("payment-success: lead update failed")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	lead, err := h.db.GetLeadByID(r.Context(), req.LeadID)
	if err != nil {
		log.Error().Err(err).Str("lead_id", req.LeadID).Msg("payment-success: lead lookup failed")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if lead == nil {
		writeError(w, http.StatusNotFound, "Lead not found")
		return
	}

	user, err := h.ensureUserWithPlan(r.Context(), lead.Email, plan)
	if err != nil {
		log.Error().Err(err).Str("lead_id", req.LeadID).Msg("payment-success: user upsert failed")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	if err := h.sessions.RenewToken(r.Context()); err != nil {
		log.Error().Err(err).Msg("payment-success: session renew failed")
	}
	h.startSession(r.Context(), user)
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":       true,
		"redirect": "/platform.html",
		"message":  "Payment successful! Redirecting to your dashboard...",
	})
}

// ensureUserWithPlan fetches the user by email and moves them to the plan, or
// creates them with a throwaway password when they are new.
func (h *APIHandler) ensureUserWithPlan(ctx context.Context, email, plan string) (*store.User, error) {
	user, err := h.db.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user != nil {
		if err := h.db.UpdateUserPlan(ctx, user.ID, plan); err != nil {
			return nil, err
		}
		user.Plan = plan
		return user, nil
	}

	hash, err := auth.HashPassword(auth.RandomPassword())
	if err != nil {
		return nil, err
	}
	return h.db.CreateUser(ctx, email, hash, plan)
}

// --- Chat ---

type askAIRequest struct {
	Message string `json:"message"`
}

func (h *APIHandler) AskAIHandler(w http.ResponseWriter, r *http.Request) {
	var req askAIRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	message := strings.TrimSpace(req.Message)
	if message == "" {
		writeError(w, http.StatusBadRequest, "No message provided.")
		return
	}

	userID := h.sessions.GetInt64(r.Context(), sessionUserID)
	aiMessage, err := h.chat.Ask(r.Context(), userID, message)
	if err != nil {
		// Upstream detail stays in the logs.
		log.Error().Err(err).Int64("user_id", userID).Msg("AI turn failed")
		writeError(w, http.StatusInternalServerError, "Failed to get response from AI.")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"aiMessage": aiMessage})
}

func (h *APIHandler) ClearChatHandler(w http.ResponseWriter, r *http.Request) {
	userID := h.sessions.GetInt64(r.Context(), sessionUserID)
	if err := h.chat.ClearHistory(r.Context(), userID); err != nil {
		log.Error().Err(err).Int64("user_id", userID).Msg("chat clear failed")
		writeError(w, http.StatusInternalServerError, "Failed to clear chat.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Chat cleared."})
}

// --- Health ---

func (h *APIHandler) DBHealthHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.db.Ping(r.Context()); err != nil {
		log.Error().Err(err).Msg("db health check failed")
		writeJSON(w, http.StatusInternalServerError, map[string]bool{"ok": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *APIHandler) RedisHealthHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.cache.Ping(r.Context()); err != nil {
		log.Error().Err(err).Msg("redis health check failed")
		writeJSON(w, http.StatusInternalServerError, map[string]bool{"ok": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
