package remote

import (
	"errors"
	"testing"
	"time"

	"github.com/conntest-lab/conntest/pkg/util"
)

func TestSSHConfig_Addr(t *testing.T) {
	tests := []struct {
		name string
		cfg  SSHConfig
		want string
	}{
		{"default port", SSHConfig{Host: "192.168.1.1"}, "192.168.1.1:22"},
		{"explicit port", SSHConfig{Host: "10.0.0.5", Port: 2222}, "10.0.0.5:2222"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.Addr(); got != tt.want {
				t.Errorf("Addr() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestApplyOptions(t *testing.T) {
	c := applyOptions(nil)
	if c.timeout != 0 || c.ignoreFailure {
		t.Errorf("zero options: got %+v", c)
	}

	c = applyOptions([]RunOption{WithTimeout(30 * time.Second), IgnoreFailure()})
	if c.timeout != 30*time.Second {
		t.Errorf("timeout = %v, want 30s", c.timeout)
	}
	if !c.ignoreFailure {
		t.Error("ignoreFailure not set")
	}
}

func TestSSHRunnerRunAfterClose(t *testing.T) {
	r := &SSHRunner{host: "192.168.1.1", closed: true}
	_, err := r.Run("uci show network")
	if !errors.Is(err, util.ErrNotConnected) {
		t.Errorf("Run after Close: err = %v, want ErrNotConnected", err)
	}
}

func TestShellQuote(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/etc/dirty_configs", "'/etc/dirty_configs'"},
		{"~/.conntest/bin", "~/'.conntest/bin'"},
		{"it's", "'it'\\''s'"},
	}
	for _, tt := range tests {
		if got := ShellQuote(tt.in); got != tt.want {
			t.Errorf("ShellQuote(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
