package openwrt

import (
	"fmt"
	"strings"

	"github.com/conntest-lab/conntest/pkg/remote"
)

// Security modes understood by the AP's wireless config.
const (
	SecurityOpen = "none"
	SecurityPSK  = "psk2"
	SecurityWEP  = "wep"
	SecurityEnt  = "wpa2"
	SecurityOWE  = "owe"
	SecuritySAE  = "sae"
)

// Wireless bands.
const (
	Band2G = "2g"
	Band5G = "5g"
)

// PMFEnabled is the ieee80211w value requiring protected management frames.
const PMFEnabled = 2

// Radio assignment: radio0 drives 5 GHz, radio1 drives 2.4 GHz.
const (
	radio2G = "radio1"
	radio5G = "radio0"
)

// DefaultRadios lists the radios checked by status operations.
var DefaultRadios = []string{radio5G, radio2G}

// WirelessConfig describes one wifi network to bring up on the AP.
type WirelessConfig struct {
	Name       string // uci section name, e.g. "wifi2g1"
	SSID       string
	Security   string // one of the Security* constants
	Band       string // Band2G or Band5G
	Password   string // psk2 / sae
	WEPKey     string
	Hidden     bool
	IEEE80211w int // 0 = off, PMFEnabled = required

	// wpa2 enterprise
	RadiusServerIP     string
	RadiusServerPort   int
	RadiusServerSecret string
}

func (c *WirelessConfig) radio() string {
	if c.Band == Band2G {
		return radio2G
	}
	return radio5G
}

// WirelessSettingsApplier writes wireless UCI sections for a set of
// networks and can restore the default wireless configuration.
type WirelessSettingsApplier struct {
	runner    remote.Runner
	configs   []WirelessConfig
	channel2G int
	channel5G int
}

// NewWirelessSettingsApplier creates an applier for the given networks.
func NewWirelessSettingsApplier(runner remote.Runner, configs []WirelessConfig, channel2G, channel5G int) *WirelessSettingsApplier {
	return &WirelessSettingsApplier{
		runner:    runner,
		configs:   configs,
		channel2G: channel2G,
		channel5G: channel5G,
	}
}

// Configs returns the networks this applier manages.
func (w *WirelessSettingsApplier) Configs() []WirelessConfig {
	return w.configs
}

// Apply writes channel and per-network sections to /etc/config/wireless,
// enables both radios, and commits.
func (w *WirelessSettingsApplier) Apply() error {
	cmds := []string{
		fmt.Sprintf("uci set wireless.%s.channel='%d'", radio2G, w.channel2G),
		fmt.Sprintf("uci set wireless.%s.channel='%d'", radio5G, w.channel5G),
		fmt.Sprintf("uci set wireless.%s.disabled='0'", radio2G),
		fmt.Sprintf("uci set wireless.%s.disabled='0'", radio5G),
	}

	for i := range w.configs {
		cmds = append(cmds, w.ifaceCommands(&w.configs[i])...)
	}
	cmds = append(cmds, "uci commit wireless")

	for _, cmd := range cmds {
		if _, err := w.runner.Run(cmd); err != nil {
			return err
		}
	}
	return nil
}

// ifaceCommands builds the uci commands for one wifi-iface section.
func (w *WirelessSettingsApplier) ifaceCommands(c *WirelessConfig) []string {
	section := "wireless." + c.Name
	cmds := []string{
		fmt.Sprintf("uci set %s=wifi-iface", section),
		fmt.Sprintf("uci set %s.device='%s'", section, c.radio()),
		fmt.Sprintf("uci set %s.network='lan'", section),
		fmt.Sprintf("uci set %s.mode='ap'", section),
		fmt.Sprintf("uci set %s.ssid='%s'", section, c.SSID),
	}

	switch c.Security {
	case SecurityPSK, SecuritySAE:
		cmds = append(cmds,
			fmt.Sprintf("uci set %s.encryption='%s'", section, c.Security),
			fmt.Sprintf("uci set %s.key='%s'", section, c.Password))
	case SecurityWEP:
		cmds = append(cmds,
			fmt.Sprintf("uci set %s.encryption='wep-open'", section),
			fmt.Sprintf("uci set %s.key='1'", section),
			fmt.Sprintf("uci set %s.key1='%s'", section, c.WEPKey))
	case SecurityEnt:
		cmds = append(cmds,
			fmt.Sprintf("uci set %s.encryption='wpa2'", section),
			fmt.Sprintf("uci set %s.auth_server='%s'", section, c.RadiusServerIP),
			fmt.Sprintf("uci set %s.auth_port='%d'", section, c.RadiusServerPort),
			fmt.Sprintf("uci set %s.auth_secret='%s'", section, c.RadiusServerSecret))
	default:
		// open and owe carry no key material
		cmds = append(cmds,
			fmt.Sprintf("uci set %s.encryption='%s'", section, c.Security))
	}

	if c.Hidden {
		cmds = append(cmds, fmt.Sprintf("uci set %s.hidden='1'", section))
	}
	if c.IEEE80211w != 0 {
		cmds = append(cmds, fmt.Sprintf("uci set %s.ieee80211w='%d'", section, c.IEEE80211w))
	}
	return cmds
}

// Cleanup deletes the managed wifi-iface sections and restores default
// channels. Missing sections are ignored so cleanup is safe after a
// partial apply.
func (w *WirelessSettingsApplier) Cleanup() error {
	for i := range w.configs {
		_, err := w.runner.Run(fmt.Sprintf("uci delete wireless.%s", w.configs[i].Name),
			remote.IgnoreFailure())
		if err != nil {
			return err
		}
	}
	cmds := []string{
		fmt.Sprintf("uci set wireless.%s.channel='6'", radio2G),
		fmt.Sprintf("uci set wireless.%s.channel='36'", radio5G),
		"uci commit wireless",
	}
	for _, cmd := range cmds {
		if _, err := w.runner.Run(cmd); err != nil {
			return err
		}
	}
	return nil
}

// GenerateWirelessConfigs converts per-band network parameter maps (the
// form testbed params carry) into WirelessConfig values. Each element of
// networks maps a band to its settings; recognized keys: SSID, security,
// password, wepKey, hiddenSSID, radius_server_ip, radius_server_port,
// radius_server_secret.
func GenerateWirelessConfigs(networks []map[string]map[string]any) []WirelessConfig {
	var configs []WirelessConfig
	num := map[string]int{Band2G: 1, Band5G: 1}

	for _, network := range networks {
		for _, band := range []string{Band2G, Band5G} {
			params, ok := network[band]
			if !ok {
				continue
			}
			c := WirelessConfig{
				Name:     fmt.Sprintf("wifi%s%d", band, num[band]),
				Band:     band,
				SSID:     stringParam(params, "SSID"),
				Security: stringParam(params, "security"),
				Hidden:   boolParam(params, "hiddenSSID"),
			}
			switch c.Security {
			case SecurityPSK, SecuritySAE:
				c.Password = stringParam(params, "password")
			case SecurityWEP:
				c.WEPKey = stringParam(params, "wepKey")
			case SecurityEnt:
				c.RadiusServerIP = stringParam(params, "radius_server_ip")
				c.RadiusServerPort = intParam(params, "radius_server_port")
				c.RadiusServerSecret = stringParam(params, "radius_server_secret")
			}
			if c.Security == SecurityOWE || c.Security == SecuritySAE {
				c.IEEE80211w = PMFEnabled
			}
			num[band]++
			configs = append(configs, c)
		}
	}
	return configs
}

func stringParam(params map[string]any, key string) string {
	if v, ok := params[key].(string); ok {
		return v
	}
	return ""
}

func boolParam(params map[string]any, key string) bool {
	v, _ := params[key].(bool)
	return v
}

func intParam(params map[string]any, key string) int {
	switch v := params[key].(type) {
	case int:
		return v
	case string:
		var i int
		fmt.Sscanf(strings.TrimSpace(v), "%d", &i)
		return i
	}
	return 0
}
