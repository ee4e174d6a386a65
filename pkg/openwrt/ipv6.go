package openwrt

// DisableIPv6 turns off IPv6 on both LAN and WAN.
func (n *NetworkSettings) DisableIPv6() error {
	n.markDirty(ChangeDisableIPv6)
	if err := n.runAll(
		"uci set network.lan.ipv6=0",
		"uci set network.wan.ipv6=0",
	); err != nil {
		return err
	}
	if err := n.services.Disable(ServiceODHCPD); err != nil {
		return err
	}
	if err := n.services.Reload(ServiceNetwork); err != nil {
		return err
	}
	return n.commit()
}

// EnableIPv6 restores IPv6 on both LAN and WAN. This is the inverse of
// DisableIPv6.
func (n *NetworkSettings) EnableIPv6() error {
	if err := n.runAll(
		"uci set network.lan.ipv6=1",
		"uci set network.wan.ipv6=1",
	); err != nil {
		return err
	}
	if err := n.services.Enable(ServiceODHCPD); err != nil {
		return err
	}
	if err := n.services.Reload(ServiceNetwork); err != nil {
		return err
	}
	n.markClean(ChangeDisableIPv6)
	return n.commit()
}

// SetupIPv6Bridge relays DHCPv6/RA/NDP between WAN and LAN so clients get
// upstream IPv6 connectivity.
func (n *NetworkSettings) SetupIPv6Bridge() error {
	n.markDirty(ChangeIPv6Bridge)

	if err := n.runAll(
		"uci set dhcp.lan.dhcpv6=relay",
		"uci set dhcp.lan.ra=relay",
		"uci set dhcp.lan.ndp=relay",
		"uci set dhcp.wan6=dhcp",
		"uci set dhcp.wan6.dhcpv6=relay",
		"uci set dhcp.wan6.ra=relay",
		"uci set dhcp.wan6.ndp=relay",
		"uci set dhcp.wan6.master=1",
		"uci set dhcp.wan6.interface=wan6",
	); err != nil {
		return err
	}

	n.services.NeedRestart(ServiceODHCPD)
	return n.commit()
}

// RemoveIPv6Bridge restores the default DHCPv6 server configuration.
func (n *NetworkSettings) RemoveIPv6Bridge() error {
	n.markClean(ChangeIPv6Bridge)

	if err := n.runAll(
		"uci set dhcp.lan.dhcpv6=server",
		"uci set dhcp.lan.ra=server",
		"uci delete dhcp.lan.ndp",
		"uci delete dhcp.wan6",
	); err != nil {
		return err
	}

	n.services.NeedRestart(ServiceODHCPD)
	return n.commit()
}

// ipv6PreferOption is DHCP option 108 (IPv6-Only Preferred, RFC 8925) with
// a 1800 second hold time.
const ipv6PreferOption = "108,1800i"

// EnableIPv6PreferOption advertises the IPv6-only-preferred DHCP option to
// LAN clients.
func (n *NetworkSettings) EnableIPv6PreferOption() error {
	if err := n.addDHCPOption(ipv6PreferOption); err != nil {
		return err
	}
	n.markDirty(ChangeIPv6Prefer)
	n.services.NeedRestart(ServiceDnsmasq)
	return n.commit()
}

// RemoveIPv6PreferOption stops advertising the IPv6-only-preferred option.
func (n *NetworkSettings) RemoveIPv6PreferOption() error {
	if err := n.delDHCPOption(ipv6PreferOption); err != nil {
		return err
	}
	n.markClean(ChangeIPv6Prefer)
	n.services.NeedRestart(ServiceDnsmasq)
	return n.commit()
}

func (n *NetworkSettings) addDHCPOption(option string) error {
	_, err := n.runner.Run("uci add_list dhcp.lan.dhcp_option=\"" + option + "\"")
	return err
}

func (n *NetworkSettings) delDHCPOption(option string) error {
	_, err := n.runner.Run("uci del_list dhcp.lan.dhcp_option=\"" + option + "\"")
	return err
}
