package auth

import (
	"fmt"
	"os"

	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/ssh"
	gossh "golang.org/x/crypto/ssh"
)

// defaultSSHUser is the account hosting providers expect for git over SSH.
const defaultSSHUser = "git"

// SSHAuthProvider authenticates SSH remotes with a key file, key bytes or the
// SSH agent.
type SSHAuthProvider struct {
	PrivateKeyPath string
	PrivateKey     []byte
	Passphrase     string

	// Username defaults to "git".
	Username string

	UseSSHAgent bool

	// HostKeyCallback verifies host keys. If nil, go-git's known_hosts
	// verification applies.
	HostKeyCallback gossh.HostKeyCallback

	// AllowedHosts restricts authentication to matching hosts.
	AllowedHosts []string
}

// NewSSHKeyProvider creates an SSH provider using a private key file.
func NewSSHKeyProvider(keyPath, passphrase string) *SSHAuthProvider {
	return &SSHAuthProvider{
		PrivateKeyPath: keyPath,
		Passphrase:     passphrase,
		Username:       defaultSSHUser,
	}
}

// NewSSHKeyBytesProvider creates an SSH provider using private key bytes.
func NewSSHKeyBytesProvider(keyBytes []byte, passphrase string) *SSHAuthProvider {
	return &SSHAuthProvider{
		PrivateKey: keyBytes,
		Passphrase: passphrase,
		Username:   defaultSSHUser,
	}
}

// NewSSHAgentProvider creates an SSH provider that uses the SSH agent.
func NewSSHAgentProvider() *SSHAuthProvider {
	return &SSHAuthProvider{
		UseSSHAgent: true,
		Username:    defaultSSHUser,
	}
}

// WithUsername sets the SSH username.
func (p *SSHAuthProvider) WithUsername(username string) *SSHAuthProvider {
	p.Username = username
	return p
}

// WithHostKeyCallback sets the host key verification callback.
func (p *SSHAuthProvider) WithHostKeyCallback(callback gossh.HostKeyCallback) *SSHAuthProvider {
	p.HostKeyCallback = callback
	return p
}

// WithAllowedHosts restricts the provider to hosts matching the patterns.
func (p *SSHAuthProvider) WithAllowedHosts(hosts ...string) *SSHAuthProvider {
	p.AllowedHosts = hosts
	return p
}

// Method returns SSH credentials for ssh:// and scp-like URLs on allowed hosts.
//
//nolint:ireturn // go-git requires returning transport.AuthMethod interface
func (p *SSHAuthProvider) Method(remoteURL string) (transport.AuthMethod, error) {
	ep, err := transport.NewEndpoint(remoteURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}

	if ep.Protocol != "ssh" {
		return nil, fmt.Errorf("SSH auth provider only supports SSH URLs, got %s", ep.Protocol)
	}

	if !hostAllowed(ep.Host, p.AllowedHosts) {
		return nil, nil
	}

	switch {
	case p.UseSSHAgent:
		return p.agentAuth()
	case p.PrivateKeyPath != "":
		return p.fileAuth()
	case len(p.PrivateKey) > 0:
		return p.bytesAuth()
	default:
		return nil, fmt.Errorf("no SSH credentials configured")
	}
}

//nolint:ireturn // go-git requires returning transport.AuthMethod interface
func (p *SSHAuthProvider) agentAuth() (transport.AuthMethod, error) {
	auth, err := ssh.NewSSHAgentAuth(p.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to create SSH agent auth: %w", err)
	}
	if p.HostKeyCallback != nil {
		auth.HostKeyCallback = p.HostKeyCallback
	}
	return auth, nil
}

//nolint:ireturn // go-git requires returning transport.AuthMethod interface
func (p *SSHAuthProvider) fileAuth() (transport.AuthMethod, error) {
	if _, err := os.Stat(p.PrivateKeyPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("SSH private key file does not exist: %s", p.PrivateKeyPath)
	}
	auth, err := ssh.NewPublicKeysFromFile(p.Username, p.PrivateKeyPath, p.Passphrase)
	if err != nil {
		return nil, fmt.Errorf("failed to load SSH key from file: %w", err)
	}
	if p.HostKeyCallback != nil {
		auth.HostKeyCallback = p.HostKeyCallback
	}
	return auth, nil
}

//nolint:ireturn // go-git requires returning transport.AuthMethod interface
func (p *SSHAuthProvider) bytesAuth() (transport.AuthMethod, error) {
	auth, err := ssh.NewPublicKeys(p.Username, p.PrivateKey, p.Passphrase)
	if err != nil {
		return nil, fmt.Errorf("failed to load SSH key from bytes: %w", err)
	}
	if p.HostKeyCallback != nil {
		auth.HostKeyCallback = p.HostKeyCallback
	}
	return auth, nil
}
