// Package sshexec provides SSH command execution for provisioning generic
// hosts, resolving connection settings from ~/.ssh/config.
package sshexec

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/caktus/paw/internal/errors"
	"github.com/caktus/paw/internal/logger"
	"github.com/kevinburke/ssh_config"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
	"golang.org/x/crypto/ssh/knownhosts"
	"golang.org/x/term"
)

// Settings holds resolved connection parameters for a host.
type Settings struct {
	User          string
	Hostname      string
	Port          string
	IdentityFiles []string
}

// Address returns the host:port dial address.
func (s Settings) Address() string {
	return net.JoinHostPort(s.Hostname, s.Port)
}

// Resolve determines connection settings for a host string, which can be an
// SSH config alias, a hostname, user@hostname, or hostname:port. Values not
// present in the host string are filled from ~/.ssh/config, then defaults.
func Resolve(host string) Settings {
	return ResolveWithConfig(host, filepath.Join(homeDir(), ".ssh", "config"))
}

// ResolveWithConfig resolves against a specific SSH config file.
func ResolveWithConfig(host, configPath string) Settings {
	s := Settings{Port: "22"}

	// user@host
	if at := strings.Index(host, "@"); at != -1 {
		s.User = host[:at]
		host = host[at+1:]
	}

	// host:port
	if colon := strings.LastIndex(host, ":"); colon != -1 {
		s.Port = host[colon+1:]
		host = host[:colon]
	}

	s.Hostname = host

	// Fill the rest from SSH config; the alias lookup uses the bare host.
	if cfg := loadConfig(configPath); cfg != nil {
		if hostname, _ := cfg.Get(host, "HostName"); hostname != "" {
			s.Hostname = hostname
		}
		if s.User == "" {
			s.User, _ = cfg.Get(host, "User")
		}
		if s.Port == "22" {
			if port, _ := cfg.Get(host, "Port"); port != "" {
				s.Port = port
			}
		}
		if identity, _ := cfg.Get(host, "IdentityFile"); identity != "" {
			s.IdentityFiles = append(s.IdentityFiles, expandTilde(identity))
		}
	}
	if s.User == "" {
		s.User = os.Getenv("USER")
	}
	for _, name := range []string{"id_ed25519", "id_rsa", "id_ecdsa"} {
		s.IdentityFiles = append(s.IdentityFiles, filepath.Join(homeDir(), ".ssh", name))
	}

	return s
}

// loadConfig parses an SSH config file. A missing or unparseable file just
// means no config values apply.
func loadConfig(path string) *ssh_config.Config {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	cfg, err := ssh_config.Decode(bytes.NewReader(content))
	if err != nil {
		return nil
	}
	return cfg
}

// Client wraps an SSH connection for command execution.
type Client struct {
	conn    *ssh.Client
	host    string
	address string
	log     logger.Logger
}

// Dial establishes an SSH connection to the specified host.
func Dial(host string, timeout time.Duration, log logger.Logger) (*Client, error) {
	if log == nil {
		log = logger.NewEnvLogger("[ssh]")
	}

	settings := Resolve(host)

	auth := authMethods(settings, log)
	if len(auth) == 0 {
		return nil, errors.New(errors.ErrSSH,
			fmt.Sprintf("No usable SSH keys for '%s'", host),
			"Load a key into your agent (ssh-add) or create one with ssh-keygen")
	}

	config := &ssh.ClientConfig{
		User:            settings.User,
		Auth:            auth,
		HostKeyCallback: hostKeyCallback(log),
		Timeout:         timeout,
	}

	address := settings.Address()
	conn, err := ssh.Dial("tcp", address, config)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrSSH,
			fmt.Sprintf("Can't connect to '%s' at %s", host, address),
			"Check the host is up and reachable: ssh "+host)
	}

	return &Client{conn: conn, host: host, address: address, log: log}, nil
}

// Close closes the SSH connection.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// Run executes a command on the remote host and returns the output.
// Exit code is -1 if the command couldn't be executed at all; a non-zero
// exit code with nil error means the command ran but failed.
func (c *Client) Run(cmd string) (stdout, stderr []byte, exitCode int, err error) {
	session, err := c.conn.NewSession()
	if err != nil {
		return nil, nil, -1, errors.WrapWithCode(err, errors.ErrSSH,
			"Failed to create SSH session",
			"Connection may have been closed. Try reconnecting.")
	}
	defer session.Close()

	var stdoutBuf, stderrBuf bytes.Buffer
	session.Stdout = &stdoutBuf
	session.Stderr = &stderrBuf

	exitCode = 0
	err = session.Run(cmd)
	if err != nil {
		var exitErr *ssh.ExitError
		if stderrors.As(err, &exitErr) {
			exitCode = exitErr.ExitStatus()
			err = nil // Command ran, just had non-zero exit
		} else {
			return nil, nil, -1, errors.WrapWithCode(err, errors.ErrSSH,
				fmt.Sprintf("Failed to execute command: %s", cmd),
				"Check if the command exists on the remote host.")
		}
	}

	return stdoutBuf.Bytes(), stderrBuf.Bytes(), exitCode, nil
}

// Describe identifies the runner in progress output.
func (c *Client) Describe() string {
	return "ssh:" + c.host
}

// authMethods builds the auth chain: agent first, then identity files.
func authMethods(settings Settings, log logger.Logger) []ssh.AuthMethod {
	var methods []ssh.AuthMethod

	if sock := os.Getenv("SSH_AUTH_SOCK"); sock != "" {
		if conn, err := net.Dial("unix", sock); err == nil {
			methods = append(methods, ssh.PublicKeysCallback(agent.NewClient(conn).Signers))
		}
	}

	for _, path := range settings.IdentityFiles {
		signer, err := loadKey(path)
		if err != nil {
			log.Debug("skipping key %s: %v", path, err)
			continue
		}
		methods = append(methods, ssh.PublicKeys(signer))
	}

	return methods
}

// loadKey reads and parses a private key, prompting for a passphrase on the
// terminal when the key is encrypted.
func loadKey(path string) (ssh.Signer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	signer, err := ssh.ParsePrivateKey(data)
	if err == nil {
		return signer, nil
	}

	var missingErr *ssh.PassphraseMissingError
	if !stderrors.As(err, &missingErr) {
		return nil, err
	}

	if !term.IsTerminal(int(syscall.Stdin)) {
		return nil, fmt.Errorf("key %s is encrypted and no terminal is available", path)
	}

	fmt.Fprintf(os.Stderr, "Enter passphrase for %s: ", path)
	passphrase, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return nil, err
	}

	return ssh.ParsePrivateKeyWithPassphrase(data, passphrase)
}

// hostKeyCallback verifies against known_hosts when present. Without one we
// accept and log, the same trade-off ssh -o StrictHostKeyChecking=accept-new
// makes.
func hostKeyCallback(log logger.Logger) ssh.HostKeyCallback {
	path := filepath.Join(homeDir(), ".ssh", "known_hosts")
	if callback, err := knownhosts.New(path); err == nil {
		return callback
	}

	log.Warn("no usable known_hosts file; skipping host key verification")
	return ssh.InsecureIgnoreHostKey()
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return home
}

func expandTilde(path string) string {
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(homeDir(), path[2:])
	}
	return path
}
