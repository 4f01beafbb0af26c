package auth

import (
	"fmt"
	"net/url"

	"github.com/go-git/go-git/v5/plumbing/transport"
)

// ProviderConfig pairs a provider with the URL patterns it serves.
type ProviderConfig struct {
	Provider Provider

	// URLPatterns restrict the provider to matching URLs, e.g. "https://*.github.com"
	// or "ssh://". An empty list matches every URL.
	URLPatterns []string
}

// CompositeAuthProvider tries providers in order until one returns credentials.
type CompositeAuthProvider struct {
	Providers []ProviderConfig

	// ContinueOnError keeps trying later providers after one fails.
	ContinueOnError bool
}

// NewCompositeAuthProvider creates an empty composite that continues on errors.
func NewCompositeAuthProvider() *CompositeAuthProvider {
	return &CompositeAuthProvider{
		ContinueOnError: true,
	}
}

// AddProvider appends a provider restricted to urlPatterns.
func (c *CompositeAuthProvider) AddProvider(provider Provider, urlPatterns ...string) *CompositeAuthProvider {
	c.Providers = append(c.Providers, ProviderConfig{
		Provider:    provider,
		URLPatterns: urlPatterns,
	})
	return c
}

// SetContinueOnError configures error handling strategy.
func (c *CompositeAuthProvider) SetContinueOnError(continueOnError bool) *CompositeAuthProvider {
	c.ContinueOnError = continueOnError
	return c
}

// Method returns the first non-nil AuthMethod from a matching provider.
// Remote URLs may be in any form go-git accepts, including scp-like
// "git@host:path" addresses.
//
//nolint:ireturn // transport.AuthMethod is an interface required by go-git
func (c *CompositeAuthProvider) Method(remoteURL string) (transport.AuthMethod, error) {
	if len(c.Providers) == 0 {
		return nil, fmt.Errorf("no authentication providers configured")
	}

	ep, err := transport.NewEndpoint(remoteURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}

	var lastError error

	for i, config := range c.Providers {
		if !shouldTryProvider(ep, config.URLPatterns) {
			continue
		}

		method, err := config.Provider.Method(remoteURL)
		if err != nil {
			lastError = fmt.Errorf("provider %d failed: %w", i, err)
			if !c.ContinueOnError {
				return nil, lastError
			}
			continue
		}

		if method != nil {
			return method, nil
		}
	}

	if lastError != nil {
		return nil, lastError
	}

	return nil, nil
}

func shouldTryProvider(ep *transport.Endpoint, patterns []string) bool {
	if len(patterns) == 0 {
		return true
	}

	for _, pattern := range patterns {
		if matchesURLPattern(ep, pattern) {
			return true
		}
	}
	return false
}

// matchesURLPattern compares scheme and host of an endpoint against a pattern.
// Empty pattern components match anything.
func matchesURLPattern(ep *transport.Endpoint, pattern string) bool {
	patternURL, err := url.Parse(pattern)
	if err != nil {
		return false
	}

	if patternURL.Scheme != "" && patternURL.Scheme != ep.Protocol {
		return false
	}

	if patternURL.Host != "" && !matchesPattern(ep.Host, patternURL.Host) {
		return false
	}

	return true
}
