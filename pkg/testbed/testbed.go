// Package testbed loads lab testbed definitions: the access points, Android
// devices, and free-form test parameters one physical bench provides.
package testbed

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/conntest-lab/conntest/pkg/openwrt"
	"github.com/conntest-lab/conntest/pkg/remote"
	"github.com/conntest-lab/conntest/pkg/util"
)

// AccessPoint is one OpenWrt AP entry in the testbed file.
type AccessPoint struct {
	Name  string           `yaml:"name"`
	SSH   remote.SSHConfig `yaml:"ssh"`
	LanIP string           `yaml:"lan_ip,omitempty"`
}

// Config converts the entry to the AP controller's config form.
func (a *AccessPoint) Config() openwrt.Config {
	return openwrt.Config{SSH: a.SSH, LanIP: a.LanIP}
}

// AndroidDevice identifies a device under test by adb serial.
type AndroidDevice struct {
	Serial string `yaml:"serial"`
}

// Testbed is a parsed testbed file.
type Testbed struct {
	Name           string          `yaml:"name"`
	AccessPoints   []AccessPoint   `yaml:"access_points"`
	AndroidDevices []AndroidDevice `yaml:"android_devices"`

	// Params carries free-form per-bench test parameters, e.g. the
	// network definitions consumed by GenerateWirelessConfigs.
	Params map[string]any `yaml:"params"`
}

// Load reads and validates a testbed file. Credentials in the file may
// reference environment variables as ${VAR}; a .env file next to the
// testbed file is loaded first when present.
func Load(path string) (*Testbed, error) {
	envPath := filepath.Join(filepath.Dir(path), ".env")
	if _, err := os.Stat(envPath); err == nil {
		if err := godotenv.Load(envPath); err != nil {
			return nil, fmt.Errorf("loading %s: %w", envPath, err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading testbed: %w", err)
	}
	return Parse(data)
}

// Parse parses testbed YAML after expanding ${VAR} references from the
// environment.
func Parse(data []byte) (*Testbed, error) {
	expanded := os.Expand(string(data), os.Getenv)

	tb := &Testbed{}
	if err := yaml.Unmarshal([]byte(expanded), tb); err != nil {
		return nil, fmt.Errorf("parsing testbed: %w", err)
	}
	if err := tb.validate(); err != nil {
		return nil, err
	}
	return tb, nil
}

func (t *Testbed) validate() error {
	v := &util.ValidationBuilder{}
	v.Add(t.Name != "", "testbed name is required")
	v.Add(len(t.AccessPoints) > 0, "at least one access point is required")

	seen := make(map[string]bool)
	for i := range t.AccessPoints {
		ap := &t.AccessPoints[i]
		if ap.Name == "" {
			v.AddErrorf("access point %d: name is required", i)
			continue
		}
		if seen[ap.Name] {
			v.AddErrorf("access point %q: duplicate name", ap.Name)
		}
		seen[ap.Name] = true
		if ap.SSH.Host == "" {
			v.AddErrorf("access point %q: ssh host is required", ap.Name)
		}
		if ap.SSH.User == "" {
			v.AddErrorf("access point %q: ssh user is required", ap.Name)
		}
	}

	for i, dev := range t.AndroidDevices {
		if dev.Serial == "" {
			v.AddErrorf("android device %d: serial is required", i)
		}
	}
	return v.Build()
}

// AP returns the access point with the given name. An empty name selects
// the first AP in the file.
func (t *Testbed) AP(name string) (*AccessPoint, error) {
	if name == "" {
		return &t.AccessPoints[0], nil
	}
	for i := range t.AccessPoints {
		if t.AccessPoints[i].Name == name {
			return &t.AccessPoints[i], nil
		}
	}
	return nil, fmt.Errorf("access point %q: %w", name, util.ErrNotFound)
}

// WirelessNetworks extracts the named network-list parameter (e.g.
// "open_networks", "owe_networks") in the shape GenerateWirelessConfigs
// consumes.
func (t *Testbed) WirelessNetworks(param string) []map[string]map[string]any {
	raw, ok := t.Params[param].([]any)
	if !ok {
		return nil
	}
	var networks []map[string]map[string]any
	for _, entry := range raw {
		bands, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		network := make(map[string]map[string]any)
		for band, params := range bands {
			if p, ok := params.(map[string]any); ok {
				network[band] = p
			}
		}
		if len(network) > 0 {
			networks = append(networks, network)
		}
	}
	return networks
}
