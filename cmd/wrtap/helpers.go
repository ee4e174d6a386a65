package main

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/conntest-lab/conntest/pkg/openwrt"
	"github.com/conntest-lab/conntest/pkg/remote"
	"github.com/conntest-lab/conntest/pkg/settings"
	"github.com/conntest-lab/conntest/pkg/testbed"
)

// connectAP resolves the target AP and connects. Resolution order:
// explicit -H host flags, then the testbed file (-t flag > WRTAP_TESTBED
// env > settings default). The SSH password is prompted for when unset.
func connectAP() (*openwrt.AP, error) {
	cfg, err := resolveConfig()
	if err != nil {
		return nil, err
	}
	if cfg.SSH.Password == "" {
		cfg.SSH.Password, err = promptPassword(cfg.SSH.User, cfg.SSH.Host)
		if err != nil {
			return nil, err
		}
	}
	return openwrt.NewAP(cfg)
}

func resolveConfig() (openwrt.Config, error) {
	if host != "" {
		return openwrt.Config{
			SSH: remote.SSHConfig{
				Host:     host,
				Port:     port,
				User:     user,
				Password: password,
			},
		}, nil
	}

	path, err := requireTestbed()
	if err != nil {
		return openwrt.Config{}, err
	}
	tb, err := testbed.Load(path)
	if err != nil {
		return openwrt.Config{}, err
	}

	name := apName
	if name == "" {
		if s, err := settings.Load(); err == nil {
			name = s.DefaultAP
		}
	}
	ap, err := tb.AP(name)
	if err != nil {
		return openwrt.Config{}, err
	}
	cfg := ap.Config()
	if password != "" {
		cfg.SSH.Password = password
	}
	return cfg, nil
}

// requireTestbed resolves the testbed file from: -t flag > WRTAP_TESTBED env > settings > error.
func requireTestbed() (string, error) {
	if testbedPath != "" {
		return testbedPath, nil
	}
	if v := os.Getenv("WRTAP_TESTBED"); v != "" {
		return v, nil
	}
	if s, err := settings.Load(); err == nil && s.DefaultTestbed != "" {
		return s.DefaultTestbed, nil
	}
	return "", fmt.Errorf("target required: use -H <host>, -t <testbed>, set WRTAP_TESTBED, or run 'wrtap settings set testbed <path>'")
}

func promptPassword(user, host string) (string, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return "", fmt.Errorf("no password given and stdin is not a terminal: use -P or a testbed file")
	}
	fmt.Fprintf(os.Stderr, "password for %s@%s: ", user, host)
	pw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return strings.TrimSpace(string(pw)), nil
}

// withAP connects, runs fn, then drops the SSH connection. The AP
// controllers are left configured; only Close() resets them.
func withAP(fn func(*openwrt.AP) error) error {
	ap, err := connectAP()
	if err != nil {
		return err
	}
	defer ap.CloseSSH()
	return fn(ap)
}
