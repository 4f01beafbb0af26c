// Package auth resolves transport credentials for remote operations.
// Providers map a remote URL to a go-git transport.AuthMethod; a nil method
// means the provider declines the URL.
package auth

import (
	"fmt"

	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/ssh"
	gossh "golang.org/x/crypto/ssh"
	"golang.org/x/oauth2"
)

// Provider resolves the AuthMethod for a remote URL.
type Provider interface {
	// Method returns the AuthMethod for remoteURL, or nil when the provider
	// has no credentials for it.
	Method(remoteURL string) (transport.AuthMethod, error)
}

// Settings selects which providers New chains together.
type Settings struct {
	// Token, when set, authenticates HTTPS remotes with a bearer-style token.
	Token oauth2.TokenSource

	// Username and Password authenticate HTTPS remotes with basic credentials.
	// They are tried after Token.
	Username string
	Password string

	// SSHKeyPath is a private key file for SSH remotes.
	SSHKeyPath string

	// SSHKey holds private key bytes for SSH remotes, e.g. from a CI secret.
	SSHKey []byte

	// SSHKeyPassphrase decrypts SSHKeyPath or SSHKey.
	SSHKeyPassphrase string

	// SSHAgent authenticates SSH remotes through the running agent.
	SSHAgent bool

	// SSHUser overrides the "git" account used for SSH remotes.
	SSHUser string

	// KnownHosts lists known_hosts files SSH host keys are checked against.
	// Empty keeps go-git's default lookup.
	KnownHosts []string

	// Hosts restricts every provider to the given host patterns.
	Hosts []string

	// Strict fails on the first provider error instead of trying the next one.
	Strict bool
}

// New builds a composite provider from settings. It returns nil when settings
// configure no credentials, so callers can leave authentication unset.
//
//nolint:ireturn // callers store the Provider interface.
func New(s Settings) (Provider, error) {
	c := NewCompositeAuthProvider().SetContinueOnError(!s.Strict)

	if s.Token != nil {
		c.AddProvider(NewTokenSourceProvider(s.Token).WithAllowedHosts(s.Hosts...), "https://")
	}
	if s.Username != "" || s.Password != "" {
		c.AddProvider(NewHTTPSAuthProvider(s.Username, s.Password).WithAllowedHosts(s.Hosts...), "https://")
	}

	var hostKeys gossh.HostKeyCallback
	if len(s.KnownHosts) > 0 {
		cb, err := ssh.NewKnownHostsCallback(s.KnownHosts...)
		if err != nil {
			return nil, fmt.Errorf("failed to load known_hosts: %w", err)
		}
		hostKeys = cb
	}

	var sshProviders []*SSHAuthProvider
	if s.SSHKeyPath != "" {
		sshProviders = append(sshProviders, NewSSHKeyProvider(s.SSHKeyPath, s.SSHKeyPassphrase))
	}
	if len(s.SSHKey) > 0 {
		sshProviders = append(sshProviders, NewSSHKeyBytesProvider(s.SSHKey, s.SSHKeyPassphrase))
	}
	if s.SSHAgent {
		sshProviders = append(sshProviders, NewSSHAgentProvider())
	}
	for _, p := range sshProviders {
		if s.SSHUser != "" {
			p.WithUsername(s.SSHUser)
		}
		c.AddProvider(p.WithHostKeyCallback(hostKeys).WithAllowedHosts(s.Hosts...), "ssh://")
	}

	if len(c.Providers) == 0 {
		return nil, nil
	}
	return c, nil
}
