package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/HenryEmmanuel06/dfsworldwide/internal/integrations/supabase"
	"github.com/HenryEmmanuel06/dfsworldwide/internal/models"
	"github.com/pkg/errors"
)

type signupRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	State       string `json:"state"`
	Country     string `json:"country"`
	Street      string `json:"street"`
	HouseNumber string `json:"house_number"`
	FullAddress string `json:"full_address"`
}

func (a *API) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	var missing []string
	if req.Email == "" {
		missing = append(missing, "email")
	}
	if req.Password == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":   "Missing required fields",
			"missing": missing,
		})
		return
	}

	data, err := a.auth.SignUp(r.Context(), req.Email, req.Password)
	if err != nil {
		var ae *supabase.AuthError
		if errors.As(err, &ae) {
			writeError(w, ae.StatusCode, ae.Message)
			return
		}
		slog.Error("signup failed", "err", err)
		writeError(w, http.StatusBadGateway, "Signup service unavailable")
		return
	}

	a.saveProfile(r, req, data)

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Account created",
		"data":    json.RawMessage(data),
	})
}

// saveProfile stores the extra signup-form fields. Best-effort: the account
// already exists upstream, so a failed insert is logged and the response is
// unaffected.
func (a *API) saveProfile(r *http.Request, req signupRequest, data json.RawMessage) {
	if a.profiles == nil {
		return
	}

	userID := signupUserID(data)
	if userID == "" {
		slog.Warn("signup response has no user id, profile not stored", "email", req.Email)
		return
	}

	p := models.UserProfile{
		UserID:      userID,
		Email:       req.Email,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		State:       req.State,
		Country:     req.Country,
		Street:      req.Street,
		HouseNumber: req.HouseNumber,
		FullAddress: req.FullAddress,
	}
	if err := a.profiles.CreateUserProfile(r.Context(), &p); err != nil {
		slog.Error("profile insert failed", "user_id", userID, "err", err)
	}
}

// signupUserID digs the account id out of the signup response, which nests it
// under user.id on some backend versions and carries it flat on others.
func signupUserID(data json.RawMessage) string {
	var doc map[string]any
	if json.Unmarshal(data, &doc) != nil {
		return ""
	}
	if user, ok := doc["user"].(map[string]any); ok {
		if id, ok := user["id"].(string); ok {
			return id
		}
	}
	if id, ok := doc["id"].(string); ok {
		return id
	}
	return ""
}

func (a *API) handleUser(w http.ResponseWriter, r *http.Request) {
	u, err := a.authenticate(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"email": u.Email})
}

func (a *API) authenticate(r *http.Request) (supabase.User, error) {
	h := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(h, "Bearer ")
	if !ok || token == "" {
		return supabase.User{}, errors.New("missing bearer token")
	}
	return a.auth.GetUser(r.Context(), token)
}
