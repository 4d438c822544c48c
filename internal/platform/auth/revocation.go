package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"
)

// RevocationChecker answers whether a token issued at the given time for the
// given subject has since been revoked by the identity provider.
type RevocationChecker interface {
	CheckRevoked(ctx context.Context, subjectID string, issuedAt time.Time) (bool, error)
}

// Credentials is the service credential file for the identity provider's
// account-lookup API.
type Credentials struct {
	ProjectID string `json:"project_id"`
	APIKey    string `json:"api_key"`
}

// LoadCredentials reads the credential file referenced by
// AUTH_CREDENTIALS_FILE.
func LoadCredentials(path string) (*Credentials, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read credentials file: %w", err)
	}
	var creds Credentials
	if err := json.Unmarshal(raw, &creds); err != nil {
		return nil, fmt.Errorf("parse credentials file: %w", err)
	}
	if creds.APIKey == "" {
		return nil, fmt.Errorf("credentials file %s has no api_key", path)
	}
	return &creds, nil
}

const defaultLookupURL = "https://identitytoolkit.googleapis.com/v1/accounts:lookup"

// providerRevocationChecker queries the identity provider's account-lookup
// endpoint and compares the token's issue time against the account's
// valid-since watermark. Tokens issued before the watermark were revoked.
type providerRevocationChecker struct {
	lookupURL string
	apiKey    string
	client    *http.Client
}

// NewRevocationChecker builds a provider-backed checker. lookupURL may be
// empty to use the provider default.
func NewRevocationChecker(creds *Credentials, lookupURL string) RevocationChecker {
	if lookupURL == "" {
		lookupURL = defaultLookupURL
	}
	return &providerRevocationChecker{
		lookupURL: lookupURL,
		apiKey:    creds.APIKey,
		client:    &http.Client{Timeout: 10 * time.Second},
	}
}

type lookupRequest struct {
	LocalID []string `json:"localId"`
}

type lookupResponse struct {
	Users []struct {
		LocalID    string `json:"localId"`
		ValidSince string `json:"validSince"` // unix seconds, as a string
		Disabled   bool   `json:"disabled"`
	} `json:"users"`
}

func (p *providerRevocationChecker) CheckRevoked(ctx context.Context, subjectID string, issuedAt time.Time) (bool, error) {
	body, err := json.Marshal(lookupRequest{LocalID: []string{subjectID}})
	if err != nil {
		return false, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.lookupURL+"?key="+p.apiKey, bytes.NewReader(body))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("account lookup: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("account lookup returned status %d", resp.StatusCode)
	}

	var lookup lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&lookup); err != nil {
		return false, fmt.Errorf("decoding account lookup response: %w", err)
	}

	// Unknown subject: the provider no longer has the account, treat the
	// token as revoked.
	if len(lookup.Users) == 0 {
		return true, nil
	}

	user := lookup.Users[0]
	if user.Disabled {
		return true, nil
	}
	if user.ValidSince != "" {
		validSince, err := strconv.ParseInt(user.ValidSince, 10, 64)
		if err != nil {
			return false, fmt.Errorf("parsing validSince %q: %w", user.ValidSince, err)
		}
		if issuedAt.Before(time.Unix(validSince, 0)) {
			return true, nil
		}
	}
	return false, nil
}
