package openwrt

import (
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/conntest-lab/conntest/pkg/remote"
	"github.com/conntest-lab/conntest/pkg/util"
)

// wifi up/down needs a settle period before the radios answer status.
const wifiSettleDelay = 9 * time.Second

// Config identifies one OpenWrt AP in a testbed.
type Config struct {
	SSH   remote.SSHConfig `yaml:"ssh"`
	LanIP string           `yaml:"lan_ip,omitempty"`
}

// AP is a controller for one OpenWrt access point. Constructing an AP
// reconciles any network settings a previous run left dirty on the device.
type AP struct {
	runner   remote.Runner
	closer   func() error
	log      *logrus.Entry
	Network  *NetworkSettings
	Wireless *WirelessSettingsApplier
	sleep    func(time.Duration)
}

// NewAP dials SSH to the AP and constructs its controllers.
func NewAP(cfg Config) (*AP, error) {
	runner, err := remote.DialSSH(cfg.SSH)
	if err != nil {
		return nil, err
	}
	ap, err := NewAPWithRunner(runner, cfg.lanIP())
	if err != nil {
		runner.Close()
		return nil, err
	}
	ap.closer = runner.Close
	return ap, nil
}

// NewAPWithRunner constructs an AP over an existing Runner. Used by tests
// and by callers that manage the connection themselves.
func NewAPWithRunner(runner remote.Runner, lanIP string) (*AP, error) {
	log := util.WithAP(runner.Host())
	network, err := NewNetworkSettings(runner, lanIP, log)
	if err != nil {
		return nil, err
	}
	return &AP{
		runner:  runner,
		log:     log,
		Network: network,
		sleep:   time.Sleep,
	}, nil
}

func (c Config) lanIP() string {
	if c.LanIP != "" {
		return c.LanIP
	}
	return c.SSH.Host
}

// ConfigureAP brings up the given wifi networks on the requested channels.
func (a *AP) ConfigureAP(configs []WirelessConfig, channel2G, channel5G int) error {
	a.Wireless = NewWirelessSettingsApplier(a.runner, configs, channel2G, channel5G)
	return a.Wireless.Apply()
}

// StartAP starts the radios with the settings in /etc/config/wireless.
func (a *AP) StartAP() error {
	if _, err := a.runner.Run("wifi up"); err != nil {
		return err
	}
	a.sleep(wifiSettleDelay)
	return nil
}

// StopAP stops the radios.
func (a *AP) StopAP() error {
	if _, err := a.runner.Run("wifi down"); err != nil {
		return err
	}
	a.sleep(wifiSettleDelay)
	return nil
}

// radioStatus is the decoded output of `wifi status <radio>`.
type radioStatus struct {
	Up         bool `yaml:"up" json:"up"`
	Interfaces []struct {
		Ifname string `yaml:"ifname" json:"ifname"`
		Config struct {
			SSID string `yaml:"ssid" json:"ssid"`
		} `yaml:"config" json:"config"`
	} `yaml:"interfaces" json:"interfaces"`
}

// wifiStatus parses the status block for one radio.
func (a *AP) wifiStatus(radio string) (*radioStatus, error) {
	res, err := a.runner.Run(fmt.Sprintf("wifi status %s", radio))
	if err != nil {
		return nil, err
	}
	var status map[string]radioStatus
	if err := yaml.Unmarshal([]byte(res.Stdout), &status); err != nil {
		return nil, fmt.Errorf("parsing wifi status for %s: %w", radio, err)
	}
	rs, ok := status[radio]
	if !ok {
		return nil, fmt.Errorf("wifi status output has no entry for %s", radio)
	}
	return &rs, nil
}

// WifiUp reports whether all given radios are up. With no radios given, the
// default 2G and 5G radios are checked.
func (a *AP) WifiUp(radios ...string) (bool, error) {
	if len(radios) == 0 {
		radios = DefaultRadios
	}
	for _, radio := range radios {
		status, err := a.wifiStatus(radio)
		if err != nil {
			return false, err
		}
		if !status.Up {
			return false, nil
		}
	}
	return true, nil
}

// VerifyWifiStatus polls until all radios are up or the timeout passes.
func (a *AP) VerifyWifiStatus(timeout time.Duration, radios ...string) (bool, error) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		up, err := a.WifiUp(radios...)
		if err != nil {
			return false, err
		}
		if up {
			return true, nil
		}
		a.sleep(time.Second)
	}
	return false, nil
}

// IfnamesForSSIDs maps each SSID on a radio to its interface name.
func (a *AP) IfnamesForSSIDs(radio string) (map[string]string, error) {
	status, err := a.wifiStatus(radio)
	if err != nil {
		return nil, err
	}
	ifnames := make(map[string]string)
	if status.Up {
		for _, iface := range status.Interfaces {
			ifnames[iface.Config.SSID] = iface.Ifname
		}
	}
	return ifnames, nil
}

// BSSID returns the MAC address of a wireless interface.
func (a *AP) BSSID(ifname string) (string, error) {
	res, err := a.runner.Run(fmt.Sprintf("ifconfig %s", ifname))
	if err != nil {
		return "", err
	}
	lines := strings.Split(res.Stdout, "\n")
	fields := strings.Fields(lines[0])
	if len(fields) == 0 {
		return "", fmt.Errorf("unexpected ifconfig output for %s: %q", ifname, res.Stdout)
	}
	return fields[len(fields)-1], nil
}

// BSSIDMap returns SSID to BSSID mappings for both bands.
func (a *AP) BSSIDMap() (map[string]map[string]string, error) {
	bssids := map[string]map[string]string{
		Band2G: {},
		Band5G: {},
	}
	for radio, band := range map[string]string{radio5G: Band5G, radio2G: Band2G} {
		ifnames, err := a.IfnamesForSSIDs(radio)
		if err != nil {
			return nil, err
		}
		for ssid, ifname := range ifnames {
			bssid, err := a.BSSID(ifname)
			if err != nil {
				return nil, err
			}
			bssids[band][ssid] = bssid
		}
	}
	return bssids, nil
}

// GetWifiNetwork returns the first configured network matching the given
// security and band. Empty selectors match anything.
func (a *AP) GetWifiNetwork(security, band string) (*WirelessConfig, error) {
	if a.Wireless == nil {
		return nil, util.ErrNotFound
	}
	for _, c := range a.Wireless.Configs() {
		if security != "" && c.Security != security {
			continue
		}
		if band != "" && c.Band != band {
			continue
		}
		match := c
		return &match, nil
	}
	return nil, util.ErrNotFound
}

// Close resets network and wireless settings to defaults. The SSH
// connection stays open; use CloseSSH to drop it.
func (a *AP) Close() error {
	if len(a.Network.Dirty()) > 0 {
		if err := a.Network.Reconcile(); err != nil {
			return err
		}
	}
	if a.Wireless != nil {
		if err := a.Wireless.Cleanup(); err != nil {
			return err
		}
		a.Wireless = nil
	}
	return nil
}

// CloseSSH closes the SSH connection to the AP.
func (a *AP) CloseSSH() error {
	if a.closer != nil {
		return a.closer()
	}
	return nil
}
