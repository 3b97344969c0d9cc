package firebase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/nfrund/authtest/internal/identity"
)

const (
	identityToolkitURL = "https://identitytoolkit.googleapis.com"
	secureTokenURL     = "https://securetoken.googleapis.com"
)

// credentialsRequest is the body of accounts:signUp and accounts:signInWithPassword.
type credentialsRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

// credentialsResponse carries the session minted by sign-up or sign-in.
type credentialsResponse struct {
	LocalID      string `json:"localId"`
	Email        string `json:"email"`
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    string `json:"expiresIn"`
}

// refreshResponse is the securetoken refresh reply. It uses snake_case keys.
type refreshResponse struct {
	IDToken      string `json:"id_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    string `json:"expires_in"`
	UserID       string `json:"user_id"`
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// restAPI talks to the Identity Toolkit and Secure Token REST endpoints.
type restAPI struct {
	apiKey         string
	identityURL    string
	secureTokenURL string
	http           *http.Client
}

func (a *restAPI) signUp(ctx context.Context, email, password string) (*credentialsResponse, error) {
	var out credentialsResponse
	err := a.postJSON(ctx, a.identityURL+"/v1/accounts:signUp", credentialsRequest{
		Email: email, Password: password, ReturnSecureToken: true,
	}, &out)
	return &out, err
}

func (a *restAPI) signInWithPassword(ctx context.Context, email, password string) (*credentialsResponse, error) {
	var out credentialsResponse
	err := a.postJSON(ctx, a.identityURL+"/v1/accounts:signInWithPassword", credentialsRequest{
		Email: email, Password: password, ReturnSecureToken: true,
	}, &out)
	return &out, err
}

func (a *restAPI) refresh(ctx context.Context, refreshToken string) (*refreshResponse, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint(a.secureTokenURL+"/v1/token"), strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("%w: build refresh request: %v", identity.ErrProvider, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var out refreshResponse
	if err := a.do(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *restAPI) postJSON(ctx context.Context, rawURL string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("%w: encode request: %v", identity.ErrProvider, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint(rawURL), bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%w: build request: %v", identity.ErrProvider, err)
	}
	req.Header.Set("Content-Type", "application/json")
	return a.do(req, out)
}

func (a *restAPI) endpoint(rawURL string) string {
	return rawURL + "?key=" + url.QueryEscape(a.apiKey)
}

func (a *restAPI) do(req *http.Request, out any) error {
	resp, err := a.http.Do(req)
	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: %v", identity.ErrProvider, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read response: %v", identity.ErrProvider, err)
	}
	if resp.StatusCode != http.StatusOK {
		var apiErr errorResponse
		if err := json.Unmarshal(data, &apiErr); err != nil || apiErr.Error.Message == "" {
			return fmt.Errorf("%w: unexpected status %d", identity.ErrProvider, resp.StatusCode)
		}
		return mapError(apiErr.Error.Message)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: decode response: %v", identity.ErrProvider, err)
	}
	return nil
}

// mapError translates provider error codes such as "WEAK_PASSWORD : Password
// should be at least 6 characters" into identity sentinels.
func mapError(message string) error {
	code, _, _ := strings.Cut(message, " ")
	switch code {
	case "EMAIL_EXISTS":
		return identity.ErrEmailExists
	case "INVALID_LOGIN_CREDENTIALS", "EMAIL_NOT_FOUND", "INVALID_PASSWORD", "USER_DISABLED":
		return identity.ErrInvalidCredentials
	case "WEAK_PASSWORD":
		return identity.ErrWeakPassword
	case "INVALID_EMAIL", "MISSING_EMAIL":
		return identity.ErrInvalidEmail
	default:
		return fmt.Errorf("%w: %s", identity.ErrProvider, message)
	}
}

// parseExpiresIn reads the provider's seconds-as-string lifetime.
func parseExpiresIn(v string) (int, error) {
	secs, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid expiresIn %q", identity.ErrProvider, v)
	}
	return secs, nil
}
