package openwrt

import (
	"fmt"
	"strings"

	"github.com/conntest-lab/conntest/pkg/remote"
)

// SetupDNSServer configures local DNS with the given domain name and starts
// a DNS-over-TLS stunnel in front of dnsmasq.
func (n *NetworkSettings) SetupDNSServer(domainName string) error {
	n.markDirty(ChangeDNSServer)
	n.log.Infof("Setup DNS server with domain name %s", domainName)
	if err := n.runAll(
		fmt.Sprintf("uci set dhcp.@dnsmasq[0].local='/%s/'", domainName),
		fmt.Sprintf("uci set dhcp.@dnsmasq[0].domain='%s'", domainName),
	); err != nil {
		return err
	}
	if err := n.addResourceRecord(domainName, n.ip); err != nil {
		return err
	}
	n.services.NeedRestart(ServiceDnsmasq)
	if err := n.commit(); err != nil {
		return err
	}

	// stunnel serves DoT on 853, so it replaces the stock service instance
	if err := n.PackageInstall(stunnelPackages); err != nil {
		return err
	}
	if err := n.services.Stop(ServiceStunnel); err != nil {
		return err
	}
	if err := n.services.Disable(ServiceStunnel); err != nil {
		return err
	}

	if err := n.createStunnelConfig(); err != nil {
		return err
	}
	_, err := n.runner.Run(fmt.Sprintf("stunnel %s", stunnelConfigPath))
	return err
}

// RemoveDNSServer restores the default local DNS configuration and stops
// the DoT stunnel.
func (n *NetworkSettings) RemoveDNSServer() error {
	running, err := n.FileExists("/var/run/stunnel.pid")
	if err != nil {
		return err
	}
	if running {
		if _, err := n.runner.Run("kill $(cat /var/run/stunnel.pid)"); err != nil {
			return err
		}
	}
	if err := n.runAll(
		"uci set dhcp.@dnsmasq[0].local='/lan/'",
		"uci set dhcp.@dnsmasq[0].domain='lan'",
	); err != nil {
		return err
	}
	if err := n.clearResourceRecords(); err != nil {
		return err
	}
	n.services.NeedRestart(ServiceDnsmasq)
	n.markClean(ChangeDNSServer)
	return n.commit()
}

// addResourceRecord adds a dnsmasq A record for domainName -> domainIP.
func (n *NetworkSettings) addResourceRecord(domainName, domainIP string) error {
	if err := n.runAll(
		"uci add dhcp domain",
		fmt.Sprintf("uci set dhcp.@domain[-1].name='%s'", domainName),
		fmt.Sprintf("uci set dhcp.@domain[-1].ip='%s'", domainIP),
	); err != nil {
		return err
	}
	n.services.NeedRestart(ServiceDnsmasq)
	return nil
}

// delResourceRecord deletes the last resource record.
func (n *NetworkSettings) delResourceRecord() error {
	if _, err := n.runner.Run("uci delete dhcp.@domain[-1]"); err != nil {
		return err
	}
	n.services.NeedRestart(ServiceDnsmasq)
	return nil
}

// clearResourceRecords deletes all resource records.
func (n *NetworkSettings) clearResourceRecords() error {
	res, err := n.runner.Run("uci show dhcp | grep =domain", remote.IgnoreFailure())
	if err != nil {
		return err
	}
	out := strings.TrimSpace(res.Stdout)
	if out != "" {
		for range strings.Split(out, "\n") {
			if err := n.delResourceRecord(); err != nil {
				return err
			}
		}
	}
	n.services.NeedRestart(ServiceDnsmasq)
	return nil
}

// createStunnelConfig writes the DoT stunnel configuration.
func (n *NetworkSettings) createStunnelConfig() error {
	config := []string{
		"pid = /var/run/stunnel.pid",
		"[dns]",
		"accept = 853",
		"connect = 127.0.0.1:53",
		"cert = /etc/stunnel/fullchain.pem",
		"key = /etc/stunnel/privkey.pem",
	}
	return n.createConfigFile(strings.Join(config, "\n"), stunnelConfigPath)
}
