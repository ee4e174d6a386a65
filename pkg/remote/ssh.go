package remote

import (
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/conntest-lab/conntest/pkg/util"
)

const defaultDialTimeout = 10 * time.Second

// SSHConfig holds credentials for an SSH target.
type SSHConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port,omitempty"`
	User     string `yaml:"user"`
	Password string `yaml:"password,omitempty"`
}

// Addr returns host:port, defaulting the port to 22.
func (c SSHConfig) Addr() string {
	port := c.Port
	if port == 0 {
		port = 22
	}
	return fmt.Sprintf("%s:%d", c.Host, port)
}

// SSHRunner executes commands on a remote target over a shared SSH
// connection. Sessions are created per call (stateless).
type SSHRunner struct {
	host   string
	client *ssh.Client
	closed bool
}

// DialSSH connects to the target and returns a ready SSHRunner.
func DialSSH(cfg SSHConfig) (*SSHRunner, error) {
	config := &ssh.ClientConfig{
		User: cfg.User,
		Auth: []ssh.AuthMethod{
			ssh.Password(cfg.Password),
		},
		// Lab/test environment — production would verify host keys.
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         defaultDialTimeout,
	}

	client, err := ssh.Dial("tcp", cfg.Addr(), config)
	if err != nil {
		return nil, fmt.Errorf("SSH dial %s: %w", cfg.Addr(), err)
	}

	return &SSHRunner{host: cfg.Host, client: client}, nil
}

// Host returns the target address.
func (r *SSHRunner) Host() string {
	return r.host
}

// Close closes the underlying SSH connection. Any later Run returns
// util.ErrNotConnected.
func (r *SSHRunner) Close() error {
	r.closed = true
	return r.client.Close()
}

// Run executes cmd in a fresh SSH session and returns its output. With
// WithTimeout, the session is torn down when the deadline passes. A non-zero
// exit is an error unless IgnoreFailure is set.
func (r *SSHRunner) Run(cmd string, opts ...RunOption) (Result, error) {
	c := applyOptions(opts)

	if r.closed {
		return Result{}, util.ErrNotConnected
	}

	session, err := r.client.NewSession()
	if err != nil {
		return Result{}, util.NewTransportError(r.host, cmd, err)
	}
	defer session.Close()

	type output struct {
		stdout []byte
		err    error
	}
	done := make(chan output, 1)
	go func() {
		out, err := session.Output(cmd)
		done <- output{stdout: out, err: err}
	}()

	var out output
	if c.timeout > 0 {
		select {
		case out = <-done:
		case <-time.After(c.timeout):
			session.Close()
			return Result{}, util.NewTransportError(r.host, cmd,
				fmt.Errorf("timeout after %s", c.timeout))
		}
	} else {
		out = <-done
	}

	result := Result{Stdout: string(out.stdout)}
	if out.err == nil {
		return result, nil
	}

	var exitErr *ssh.ExitError
	if errors.As(out.err, &exitErr) {
		result.ExitStatus = exitErr.ExitStatus()
		result.Stderr = exitErr.Msg()
		if c.ignoreFailure {
			return result, nil
		}
	}
	return result, util.NewTransportError(r.host, cmd, out.err)
}
