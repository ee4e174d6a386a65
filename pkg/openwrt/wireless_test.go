package openwrt

import (
	"testing"

	"github.com/conntest-lab/conntest/internal/testutil"
)

func TestWirelessApplyPSK(t *testing.T) {
	r := testutil.NewFakeRunner()
	w := NewWirelessSettingsApplier(r, []WirelessConfig{
		{Name: "wifi2g1", SSID: "lab-2g", Security: SecurityPSK, Band: Band2G, Password: "hunter22"},
	}, 6, 36)

	if err := w.Apply(); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	for _, cmd := range []string{
		"uci set wireless.radio1.channel='6'",
		"uci set wireless.radio0.channel='36'",
		"uci set wireless.wifi2g1=wifi-iface",
		"uci set wireless.wifi2g1.device='radio1'",
		"uci set wireless.wifi2g1.ssid='lab-2g'",
		"uci set wireless.wifi2g1.encryption='psk2'",
		"uci set wireless.wifi2g1.key='hunter22'",
		"uci commit wireless",
	} {
		if !r.Ran(cmd) {
			t.Errorf("command %q not run", cmd)
		}
	}
}

func TestWirelessIfaceCommandsPerSecurity(t *testing.T) {
	w := &WirelessSettingsApplier{}

	cases := []struct {
		name    string
		config  WirelessConfig
		want    []string
		notWant []string
	}{
		{
			name:   "open",
			config: WirelessConfig{Name: "s", SSID: "x", Security: SecurityOpen, Band: Band5G},
			want:   []string{"uci set wireless.s.encryption='none'"},
			notWant: []string{
				"uci set wireless.s.key",
			},
		},
		{
			name:   "wep",
			config: WirelessConfig{Name: "s", SSID: "x", Security: SecurityWEP, Band: Band5G, WEPKey: "abcde"},
			want: []string{
				"uci set wireless.s.encryption='wep-open'",
				"uci set wireless.s.key='1'",
				"uci set wireless.s.key1='abcde'",
			},
		},
		{
			name: "enterprise",
			config: WirelessConfig{
				Name: "s", SSID: "x", Security: SecurityEnt, Band: Band5G,
				RadiusServerIP: "10.0.0.9", RadiusServerPort: 1812, RadiusServerSecret: "radsec",
			},
			want: []string{
				"uci set wireless.s.encryption='wpa2'",
				"uci set wireless.s.auth_server='10.0.0.9'",
				"uci set wireless.s.auth_port='1812'",
				"uci set wireless.s.auth_secret='radsec'",
			},
		},
		{
			name: "sae with pmf",
			config: WirelessConfig{
				Name: "s", SSID: "x", Security: SecuritySAE, Band: Band5G,
				Password: "pw", IEEE80211w: PMFEnabled,
			},
			want: []string{
				"uci set wireless.s.encryption='sae'",
				"uci set wireless.s.key='pw'",
				"uci set wireless.s.ieee80211w='2'",
			},
		},
		{
			name:   "hidden",
			config: WirelessConfig{Name: "s", SSID: "x", Security: SecurityOpen, Band: Band5G, Hidden: true},
			want:   []string{"uci set wireless.s.hidden='1'"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cmds := w.ifaceCommands(&tc.config)
			has := func(want string) bool {
				for _, c := range cmds {
					if c == want {
						return true
					}
				}
				return false
			}
			for _, want := range tc.want {
				if !has(want) {
					t.Errorf("missing command %q in %v", want, cmds)
				}
			}
			for _, notWant := range tc.notWant {
				for _, c := range cmds {
					if len(c) >= len(notWant) && c[:len(notWant)] == notWant {
						t.Errorf("unexpected command %q", c)
					}
				}
			}
		})
	}
}

func TestWirelessCleanup(t *testing.T) {
	r := testutil.NewFakeRunner()
	w := NewWirelessSettingsApplier(r, []WirelessConfig{
		{Name: "wifi2g1", Band: Band2G},
		{Name: "wifi5g1", Band: Band5G},
	}, 1, 40)

	if err := w.Cleanup(); err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	for _, cmd := range []string{
		"uci delete wireless.wifi2g1",
		"uci delete wireless.wifi5g1",
		"uci set wireless.radio1.channel='6'",
		"uci set wireless.radio0.channel='36'",
		"uci commit wireless",
	} {
		if !r.Ran(cmd) {
			t.Errorf("command %q not run", cmd)
		}
	}
}

func TestGenerateWirelessConfigs(t *testing.T) {
	networks := []map[string]map[string]any{
		{
			Band2G: {"SSID": "lab-2g", "security": SecurityPSK, "password": "pw2g"},
			Band5G: {"SSID": "lab-5g", "security": SecuritySAE, "password": "pw5g"},
		},
		{
			Band2G: {"SSID": "guest", "security": SecurityOpen, "hiddenSSID": true},
		},
	}

	configs := GenerateWirelessConfigs(networks)
	if len(configs) != 3 {
		t.Fatalf("got %d configs, want 3", len(configs))
	}

	byName := make(map[string]WirelessConfig)
	for _, c := range configs {
		byName[c.Name] = c
	}

	psk, ok := byName["wifi2g1"]
	if !ok {
		t.Fatal("missing config wifi2g1")
	}
	if psk.SSID != "lab-2g" || psk.Security != SecurityPSK || psk.Password != "pw2g" {
		t.Errorf("wifi2g1 = %+v", psk)
	}

	sae, ok := byName["wifi5g1"]
	if !ok {
		t.Fatal("missing config wifi5g1")
	}
	if sae.Security != SecuritySAE || sae.IEEE80211w != PMFEnabled {
		t.Errorf("wifi5g1 = %+v, want sae with management frame protection", sae)
	}

	open, ok := byName["wifi2g2"]
	if !ok {
		t.Fatal("missing config wifi2g2")
	}
	if open.SSID != "guest" || !open.Hidden {
		t.Errorf("wifi2g2 = %+v, want hidden guest network", open)
	}
}
