package auth

import (
	"fmt"
	"net/url"

	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"golang.org/x/oauth2"
)

// tokenUsername is sent with token credentials; hosting providers ignore it
// but some require it to be non-empty.
const tokenUsername = "token"

// HTTPSAuthProvider authenticates https:// remotes with basic credentials.
type HTTPSAuthProvider struct {
	auth *http.BasicAuth

	// AllowedHosts restricts authentication to matching hosts.
	// Supports patterns like "*.github.com" or "gitlab.*".
	AllowedHosts []string
}

// NewHTTPSAuthProvider creates a provider with a username and password.
// A password given without a username is sent as the username, which is how
// most providers accept personal access tokens.
func NewHTTPSAuthProvider(username, password string) *HTTPSAuthProvider {
	if username == "" && password != "" {
		username = password
		password = ""
	}

	return &HTTPSAuthProvider{
		auth: &http.BasicAuth{
			Username: username,
			Password: password,
		},
	}
}

// WithAllowedHosts restricts the provider to hosts matching the patterns.
func (p *HTTPSAuthProvider) WithAllowedHosts(hosts ...string) *HTTPSAuthProvider {
	p.AllowedHosts = hosts
	return p
}

// Method returns the basic credentials for https:// URLs on allowed hosts.
//
//nolint:ireturn // go-git requires returning transport.AuthMethod interface
func (p *HTTPSAuthProvider) Method(remoteURL string) (transport.AuthMethod, error) {
	host, err := httpsHost(remoteURL)
	if err != nil {
		return nil, err
	}

	if !hostAllowed(host, p.AllowedHosts) {
		return nil, nil
	}

	return p.auth, nil
}

// TokenSourceProvider authenticates https:// remotes with tokens drawn from an
// oauth2.TokenSource, so refreshed or rotated tokens are picked up per call.
type TokenSourceProvider struct {
	source oauth2.TokenSource

	// AllowedHosts restricts authentication to matching hosts.
	AllowedHosts []string
}

// NewTokenSourceProvider creates a provider backed by source.
func NewTokenSourceProvider(source oauth2.TokenSource) *TokenSourceProvider {
	return &TokenSourceProvider{source: source}
}

// NewStaticTokenProvider creates a provider for a fixed access token.
func NewStaticTokenProvider(token string) *TokenSourceProvider {
	return NewTokenSourceProvider(oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))
}

// WithAllowedHosts restricts the provider to hosts matching the patterns.
func (p *TokenSourceProvider) WithAllowedHosts(hosts ...string) *TokenSourceProvider {
	p.AllowedHosts = hosts
	return p
}

// Method fetches a current token and returns it as basic credentials.
//
//nolint:ireturn // go-git requires returning transport.AuthMethod interface
func (p *TokenSourceProvider) Method(remoteURL string) (transport.AuthMethod, error) {
	host, err := httpsHost(remoteURL)
	if err != nil {
		return nil, err
	}

	if !hostAllowed(host, p.AllowedHosts) {
		return nil, nil
	}

	tok, err := p.source.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to obtain token: %w", err)
	}
	if tok.AccessToken == "" {
		return nil, nil
	}

	return &http.BasicAuth{Username: tokenUsername, Password: tok.AccessToken}, nil
}

func httpsHost(remoteURL string) (string, error) {
	parsedURL, err := url.Parse(remoteURL)
	if err != nil {
		return "", fmt.Errorf("invalid URL: %w", err)
	}

	if parsedURL.Scheme != "https" {
		return "", fmt.Errorf("HTTPS auth provider only supports https:// URLs, got %s", parsedURL.Scheme)
	}

	return parsedURL.Host, nil
}
