package testbed

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/conntest-lab/conntest/pkg/util"
)

const testbedYAML = `
name: rack3
access_points:
  - name: ap-main
    ssh:
      host: 192.168.1.1
      user: root
      password: ${AP_PASSWORD}
    lan_ip: 192.168.1.1
  - name: ap-aux
    ssh:
      host: 192.168.2.1
      port: 2222
      user: root
android_devices:
  - serial: R5CR10XXXXX
params:
  open_networks:
    - 2g:
        SSID: lab-2g
        security: none
      5g:
        SSID: lab-5g
        security: none
`

func TestParse(t *testing.T) {
	t.Setenv("AP_PASSWORD", "secret-pw")

	tb, err := Parse([]byte(testbedYAML))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if tb.Name != "rack3" {
		t.Errorf("Name = %q, want rack3", tb.Name)
	}
	if len(tb.AccessPoints) != 2 {
		t.Fatalf("got %d access points, want 2", len(tb.AccessPoints))
	}
	if got := tb.AccessPoints[0].SSH.Password; got != "secret-pw" {
		t.Errorf("password = %q, want env-expanded secret", got)
	}
	if got := tb.AccessPoints[1].SSH.Addr(); got != "192.168.2.1:2222" {
		t.Errorf("Addr = %q, want 192.168.2.1:2222", got)
	}
	if len(tb.AndroidDevices) != 1 || tb.AndroidDevices[0].Serial != "R5CR10XXXXX" {
		t.Errorf("AndroidDevices = %+v", tb.AndroidDevices)
	}
}

func TestParseValidation(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"empty", ""},
		{"no name", "access_points: [{name: a, ssh: {host: h, user: u}}]"},
		{"no aps", "name: bench"},
		{"ap missing host", "name: b\naccess_points: [{name: a, ssh: {user: u}}]"},
		{"ap missing user", "name: b\naccess_points: [{name: a, ssh: {host: h}}]"},
		{"duplicate ap name", "name: b\naccess_points: [{name: a, ssh: {host: h, user: u}}, {name: a, ssh: {host: h2, user: u}}]"},
		{"device missing serial", "name: b\naccess_points: [{name: a, ssh: {host: h, user: u}}]\nandroid_devices: [{}]"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.yaml))
			if err == nil {
				t.Fatal("Parse succeeded, want validation error")
			}
			if !errors.Is(err, util.ErrInvalidConfig) {
				t.Errorf("err = %v, want ErrInvalidConfig in chain", err)
			}
		})
	}
}

func TestLoadWithEnvFile(t *testing.T) {
	tmpDir := t.TempDir()

	envContent := "AP_FILE_PASSWORD=from-dotenv\n"
	if err := os.WriteFile(filepath.Join(tmpDir, ".env"), []byte(envContent), 0600); err != nil {
		t.Fatalf("writing .env: %v", err)
	}

	tbContent := `
name: bench
access_points:
  - name: ap
    ssh:
      host: 10.0.0.1
      user: root
      password: ${AP_FILE_PASSWORD}
`
	path := filepath.Join(tmpDir, "testbed.yaml")
	if err := os.WriteFile(path, []byte(tbContent), 0600); err != nil {
		t.Fatalf("writing testbed: %v", err)
	}

	tb, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := tb.AccessPoints[0].SSH.Password; got != "from-dotenv" {
		t.Errorf("password = %q, want from-dotenv", got)
	}
}

func TestAPSelection(t *testing.T) {
	t.Setenv("AP_PASSWORD", "pw")
	tb, err := Parse([]byte(testbedYAML))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	ap, err := tb.AP("")
	if err != nil {
		t.Fatalf("AP(\"\"): %v", err)
	}
	if ap.Name != "ap-main" {
		t.Errorf("default AP = %q, want ap-main", ap.Name)
	}

	ap, err = tb.AP("ap-aux")
	if err != nil {
		t.Fatalf("AP(ap-aux): %v", err)
	}
	if ap.Name != "ap-aux" {
		t.Errorf("AP = %q, want ap-aux", ap.Name)
	}

	if _, err := tb.AP("nope"); !errors.Is(err, util.ErrNotFound) {
		t.Errorf("AP(nope) err = %v, want ErrNotFound", err)
	}
}

func TestWirelessNetworks(t *testing.T) {
	t.Setenv("AP_PASSWORD", "pw")
	tb, err := Parse([]byte(testbedYAML))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	networks := tb.WirelessNetworks("open_networks")
	if len(networks) != 1 {
		t.Fatalf("got %d networks, want 1", len(networks))
	}
	if got := networks[0]["2g"]["SSID"]; got != "lab-2g" {
		t.Errorf("2g SSID = %v, want lab-2g", got)
	}
	if got := networks[0]["5g"]["SSID"]; got != "lab-5g" {
		t.Errorf("5g SSID = %v, want lab-5g", got)
	}

	if networks := tb.WirelessNetworks("psk_networks"); networks != nil {
		t.Errorf("missing param should yield nil, got %v", networks)
	}
}
