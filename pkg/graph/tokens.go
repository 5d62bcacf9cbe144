package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/otherjamesbrown/recap-cli/pkg/errors"
)

// DefaultAuthorityURL is the token issuer base.
const DefaultAuthorityURL = "https://login.microsoftonline.com"

// DefaultScope requests all application permissions granted to the client.
const DefaultScope = "https://graph.microsoft.com/.default"

// tokenLeeway refreshes tokens before their actual expiry to absorb clock
// skew and request latency.
const tokenLeeway = 2 * time.Minute

// TokenSource supplies bearer tokens for API requests.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticTokenSource returns a fixed token. Useful for tests and short-lived
// tokens obtained out of band.
type StaticTokenSource string

func (s StaticTokenSource) Token(ctx context.Context) (string, error) {
	return string(s), nil
}

// appTokenSource issues application tokens via the client-credentials grant.
type appTokenSource struct {
	config *clientcredentials.Config
}

// NewAppTokenSource creates a TokenSource using the client-credentials grant.
// authorityURL may be empty for the default issuer.
func NewAppTokenSource(authorityURL, tenantID, clientID, clientSecret string) TokenSource {
	if authorityURL == "" {
		authorityURL = DefaultAuthorityURL
	}
	cfg := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     fmt.Sprintf("%s/%s/oauth2/v2.0/token", strings.TrimSuffix(authorityURL, "/"), tenantID),
		Scopes:       []string{DefaultScope},
	}
	return newCachedTokenSource(&appTokenSource{config: cfg})
}

func (a *appTokenSource) token(ctx context.Context) (string, time.Duration, error) {
	token, err := a.config.Token(ctx)
	if err != nil {
		return "", 0, fmt.Errorf("%w: client credentials grant failed: %v", errors.ErrUnauthorized, err)
	}
	var lifetime time.Duration
	if !token.Expiry.IsZero() {
		lifetime = time.Until(token.Expiry)
	}
	return token.AccessToken, lifetime, nil
}

// refreshTokenSource exchanges a long-lived refresh token for access tokens,
// acting on behalf of the signed-in user.
type refreshTokenSource struct {
	tokenURL     string
	clientID     string
	refreshToken string
	httpClient   *http.Client
}

// NewRefreshTokenSource creates a delegated TokenSource from a refresh token.
func NewRefreshTokenSource(authorityURL, tenantID, clientID, refreshToken string) TokenSource {
	if authorityURL == "" {
		authorityURL = DefaultAuthorityURL
	}
	return newCachedTokenSource(&refreshTokenSource{
		tokenURL:     fmt.Sprintf("%s/%s/oauth2/v2.0/token", strings.TrimSuffix(authorityURL, "/"), tenantID),
		clientID:     clientID,
		refreshToken: refreshToken,
		httpClient:   &http.Client{Timeout: DefaultRequestTimeout},
	})
}

func (r *refreshTokenSource) token(ctx context.Context) (string, time.Duration, error) {
	form := url.Values{
		"grant_type":    {"refresh_token"},
		"client_id":     {r.clientID},
		"refresh_token": {r.refreshToken},
		"scope":         {DefaultScope + " offline_access"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", 0, fmt.Errorf("failed to build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", 0, fmt.Errorf("failed to read token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", 0, fmt.Errorf("%w: token endpoint returned %d: %s", errors.ErrUnauthorized, resp.StatusCode, apiErrorMessage(body))
	}

	var payload struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", 0, fmt.Errorf("failed to decode token response: %w", err)
	}
	if payload.AccessToken == "" {
		return "", 0, fmt.Errorf("%w: token response contained no access token", errors.ErrUnauthorized)
	}

	return payload.AccessToken, time.Duration(payload.ExpiresIn) * time.Second, nil
}

// expiringTokenSource issues a token together with its remaining lifetime,
// zero when the issuer reported none.
type expiringTokenSource interface {
	token(ctx context.Context) (string, time.Duration, error)
}

// cachedTokenSource caches tokens until shortly before the expiry the issuer
// reported for them.
type cachedTokenSource struct {
	inner expiringTokenSource
	cache *gocache.Cache
}

const tokenCacheKey = "access_token"

// defaultTokenTTL covers issuers that omit an expiry; tokens from this issuer
// live about an hour.
const defaultTokenTTL = time.Hour - tokenLeeway

func newCachedTokenSource(inner expiringTokenSource) TokenSource {
	return &cachedTokenSource{
		inner: inner,
		cache: gocache.New(defaultTokenTTL, 10*time.Minute),
	}
}

// cacheTTL shortens the reported lifetime by the leeway. An unknown lifetime
// falls back to the default; a lifetime shorter than the leeway is kept as is
// so the cache never outlives the token.
func cacheTTL(lifetime time.Duration) time.Duration {
	if lifetime <= 0 {
		return defaultTokenTTL
	}
	if lifetime <= tokenLeeway {
		return lifetime
	}
	return lifetime - tokenLeeway
}

func (c *cachedTokenSource) Token(ctx context.Context) (string, error) {
	if token, ok := c.cache.Get(tokenCacheKey); ok {
		return token.(string), nil
	}

	token, lifetime, err := c.inner.token(ctx)
	if err != nil {
		return "", err
	}

	c.cache.Set(tokenCacheKey, token, cacheTTL(lifetime))
	return token, nil
}
