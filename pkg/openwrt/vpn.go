package openwrt

import (
	"fmt"
	"strconv"
	"strings"
)

const l2tpIPRange = 20

// SetupVPNPPTPServer configures a PPTP VPN server on the AP.
func (n *NetworkSettings) SetupVPNPPTPServer(localIP, user, password string) error {
	if err := n.PackageInstall(pptpPackages); err != nil {
		return err
	}

	n.markDirty(ChangeVPNPPTPServer)
	if err := n.setupPPTPD(localIP, user, password, "8.8.8.8"); err != nil {
		return err
	}
	if err := n.setupFirewallRulesForPPTP(); err != nil {
		return err
	}
	if err := n.services.Enable(ServicePPTPD); err != nil {
		return err
	}
	n.services.NeedRestart(ServicePPTPD)
	n.services.NeedRestart(ServiceFirewall)
	return n.commit()
}

// RemoveVPNPPTPServer restores the AP to its pre-PPTP state.
func (n *NetworkSettings) RemoveVPNPPTPServer() error {
	if err := n.restorePPTPD(); err != nil {
		return err
	}
	if err := n.restoreFirewallRulesForPPTP(); err != nil {
		return err
	}
	if err := n.services.Disable(ServicePPTPD); err != nil {
		return err
	}
	n.services.NeedRestart(ServicePPTPD)
	n.services.NeedRestart(ServiceFirewall)
	n.markClean(ChangeVPNPPTPServer)
	if err := n.commit(); err != nil {
		return err
	}

	if err := n.PackageRemove(pptpPackages); err != nil {
		return err
	}
	return n.runAll(
		fmt.Sprintf("rm %s", pptpdOptionPath),
		"rm /etc/config/pptpd",
	)
}

// setupPPTPD configures /etc/config/pptpd and /etc/ppp/options.pptpd.
func (n *NetworkSettings) setupPPTPD(localIP, username, password, msDNS string) error {
	// Client pool starts one past the server address, e.g. local 10.10.10.9
	// gives remote 10.10.10.10-250.
	parts := strings.Split(localIP, ".")
	last, err := strconv.Atoi(parts[len(parts)-1])
	if err != nil {
		return fmt.Errorf("invalid pptp local ip %q: %w", localIP, err)
	}
	parts[len(parts)-1] = strconv.Itoa(last + 1)
	remoteIP := strings.Join(parts, ".")

	if err := n.runAll(
		"uci set pptpd.pptpd.enabled=1",
		fmt.Sprintf("uci set pptpd.pptpd.localip='%s'", localIP),
		fmt.Sprintf("uci set pptpd.pptpd.remoteip='%s-250'", remoteIP),
		fmt.Sprintf("uci set pptpd.@login[0].username='%s'", username),
		fmt.Sprintf("uci set pptpd.@login[0].password='%s'", password),
	); err != nil {
		return err
	}
	n.services.NeedRestart(ServicePPTPD)

	if err := n.replaceConfigOption(`#*ms-dns \d+.\d+.\d+.\d+`,
		fmt.Sprintf("ms-dns %s", msDNS), pptpdOptionPath); err != nil {
		return err
	}
	return n.replaceConfigOption("(#no)*proxyarp", "proxyarp", pptpdOptionPath)
}

// restorePPTPD disables pptpd and drops its chap-secrets entry.
func (n *NetworkSettings) restorePPTPD() error {
	if _, err := n.runner.Run("uci set pptpd.pptpd.enabled=0"); err != nil {
		return err
	}
	if _, err := n.removeConfigOption(`\S+ pptp-server \S+ \*`, pppChapSecretPath); err != nil {
		return err
	}
	n.services.NeedRestart(ServicePPTPD)
	return nil
}

// SetupVPNL2TPServer configures an L2TP/IPsec VPN server on the AP. The
// profile is retained on the controller while the feature is active; if any
// sub-step fails the half-applied state is recovered from the dirty record
// at the next Reconcile.
func (n *NetworkSettings) SetupVPNL2TPServer(hostname, address, username, password, pskSecret, serverName, country, org string) error {
	n.l2tp = &VpnL2TP{
		Name:      serverName,
		Hostname:  hostname,
		Address:   address,
		Username:  username,
		Password:  password,
		PSKSecret: pskSecret,
	}

	if err := n.PackageInstall(l2tpPackages); err != nil {
		return err
	}
	n.markDirty(ChangeVPNL2TPServer)

	if err := n.setupStrongswan("8.8.8.8"); err != nil {
		return err
	}
	if err := n.setupIPSec(); err != nil {
		return err
	}
	if err := n.setupXL2TPD(); err != nil {
		return err
	}
	if err := n.setupPPPSecret(); err != nil {
		return err
	}
	if err := n.setupFirewallRulesForL2TP(); err != nil {
		return err
	}
	if err := n.generateVPNCertKeys(country, org); err != nil {
		return err
	}
	n.services.NeedRestart(ServiceIPSec)
	n.services.NeedRestart(ServiceXL2TPD)
	n.services.NeedRestart(ServiceFirewall)
	return n.commit()
}

// RemoveVPNL2TPServer restores the AP to its pre-L2TP state and drops the
// retained profile. Safe to call when only a prefix of the setup ran.
func (n *NetworkSettings) RemoveVPNL2TPServer() error {
	n.markClean(ChangeVPNL2TPServer)
	if err := n.restoreFirewallRulesForL2TP(); err != nil {
		return err
	}
	n.services.NeedRestart(ServiceIPSec)
	n.services.NeedRestart(ServiceXL2TPD)
	n.services.NeedRestart(ServiceFirewall)
	if err := n.commit(); err != nil {
		return err
	}
	if err := n.PackageRemove(l2tpPackages); err != nil {
		return err
	}
	n.l2tp = nil
	return nil
}

// setupStrongswan writes /etc/strongswan.conf.
func (n *NetworkSettings) setupStrongswan(dns string) error {
	config := []string{
		"charon {",
		"   load_modular = yes",
		"   plugins {",
		"       include strongswan.d/charon/*.conf",
		"   }",
		fmt.Sprintf("   dns1=%s", dns),
		"}",
	}
	return n.createConfigFile(strings.Join(config, "\n"), "/etc/strongswan.conf")
}

// setupIPSec writes /etc/ipsec.conf and /etc/ipsec.secrets.
func (n *NetworkSettings) setupIPSec() error {
	var lines []string
	for _, group := range [][]ipsecSection{ipsecConf, ipsecL2TPPSK, ipsecL2TPRSA} {
		for _, section := range group {
			lines = append(lines, section.name)
			for _, opt := range section.options {
				lines = append(lines, fmt.Sprintf("\t %s=%s", opt[0], opt[1]))
			}
			lines = append(lines, "")
		}
	}
	if err := n.createConfigFile(strings.Join(lines, "\n"), "/etc/ipsec.conf"); err != nil {
		return err
	}

	secrets := []string{
		fmt.Sprintf(`: PSK \"%s\"`, n.l2tp.PSKSecret),
		`: RSA \"serverKey.der\"`,
	}
	return n.createConfigFile(strings.Join(secrets, "\n"), "/etc/ipsec.secrets")
}

// setupXL2TPD writes the xl2tpd config and its ppp options file.
func (n *NetworkSettings) setupXL2TPD() error {
	idx := strings.LastIndex(n.l2tp.Address, ".")
	netID, hostPart := n.l2tp.Address[:idx], n.l2tp.Address[idx+1:]
	hostID, err := strconv.Atoi(hostPart)
	if err != nil {
		return fmt.Errorf("invalid l2tp address %q: %w", n.l2tp.Address, err)
	}

	conf := append([]string{}, xl2tpdConfGlobal...)
	conf = append(conf, fmt.Sprintf("auth file = %s", pppChapSecretPath))
	conf = append(conf, xl2tpdConfLNS...)
	conf = append(conf,
		fmt.Sprintf("ip range = %s.%d-%s.%d", netID, hostID, netID, hostID+l2tpIPRange),
		fmt.Sprintf("local ip = %s", n.l2tp.Address),
		fmt.Sprintf("name = %s", n.l2tp.Name),
		fmt.Sprintf("pppoptfile = %s", xl2tpdOptionConfigPath),
	)
	if err := n.createConfigFile(strings.Join(conf, "\n"), xl2tpdConfigPath); err != nil {
		return err
	}

	options := append([]string{}, xl2tpdOptions...)
	options = append(options, fmt.Sprintf("name %s", n.l2tp.Name))
	return n.createConfigFile(strings.Join(options, "\n"), xl2tpdOptionConfigPath)
}

// setupPPPSecret registers the L2TP account in /etc/ppp/chap-secrets.
func (n *NetworkSettings) setupPPPSecret() error {
	return n.replaceConfigOption(
		fmt.Sprintf(`\S+ %s \S+ \*`, n.l2tp.Name),
		fmt.Sprintf("%s %s %s *", n.l2tp.Username, n.l2tp.Name, n.l2tp.Password),
		pppChapSecretPath)
}

// generateVPNCertKeys generates the CA, server, and client certificates for
// the RSA IPsec connection and publishes the client PKCS#12 bundle.
func (n *NetworkSettings) generateVPNCertKeys(country, org string) error {
	const (
		rsa      = "--type rsa"
		lifetime = "--lifetime 365"
		size     = "--size 4096"
	)

	if err := n.runAll(
		fmt.Sprintf("ipsec pki --gen %s %s --outform der > caKey.der", rsa, size),
		fmt.Sprintf("ipsec pki --self --ca %s --in caKey.der %s --dn \"C=%s, O=%s, CN=%s\" --outform der > caCert.der",
			lifetime, rsa, country, org, n.l2tp.Hostname),
		fmt.Sprintf("ipsec pki --gen %s %s --outform der > serverKey.der", size, rsa),
		fmt.Sprintf("ipsec pki --pub --in serverKey.der %s | ipsec pki --issue %s --cacert caCert.der --cakey caKey.der --dn \"C=%s, O=%s, CN=%s\" --san %s --flag serverAuth --flag ikeIntermediate --outform der > serverCert.der",
			rsa, lifetime, country, org, n.l2tp.Hostname, localhostAddr),
		fmt.Sprintf("ipsec pki --gen %s %s --outform der > clientKey.der", size, rsa),
		fmt.Sprintf("ipsec pki --pub --in clientKey.der %s | ipsec pki --issue %s --cacert caCert.der --cakey caKey.der --dn \"C=%s, O=%s, CN=%s@%s\" --outform der > clientCert.der",
			rsa, lifetime, country, org, n.l2tp.Username, n.l2tp.Hostname),
		"openssl rsa -inform DER -in clientKey.der -out clientKey.pem -outform PEM",
		"openssl x509 -inform DER -in clientCert.der -out clientCert.pem -outform PEM",
		"openssl x509 -inform DER -in caCert.der -out caCert.pem -outform PEM",
		"openssl pkcs12 -in clientCert.pem -inkey  clientKey.pem -certfile caCert.pem -export -out clientPkcs.p12 -passout pass:",
		"mv caCert.pem /etc/ipsec.d/cacerts/",
		"mv *Cert* /etc/ipsec.d/certs/",
		"mv *Key* /etc/ipsec.d/private/",
	); err != nil {
		return err
	}

	if !pathExists(n.runner, "/www/downloads/") {
		if _, err := n.runner.Run("mkdir /www/downloads/"); err != nil {
			return err
		}
	}
	return n.runAll(
		"mv clientPkcs.p12 /www/downloads/",
		"chmod 664 /www/downloads/clientPkcs.p12",
	)
}

// addNamedFirewallRule appends a named rule to /etc/config/firewall when no
// rule with that name exists yet. settings maps uci option names to values.
func (n *NetworkSettings) addNamedFirewallRule(name string, settings [][2]string) error {
	if n.firewallRuleIndex(name) >= 0 {
		return nil
	}
	cmds := []string{
		"uci add firewall rule",
		fmt.Sprintf("uci set firewall.@rule[-1].name='%s'", name),
	}
	for _, opt := range settings {
		cmds = append(cmds, fmt.Sprintf("uci set firewall.@rule[-1].%s='%s'", opt[0], opt[1]))
	}
	return n.runAll(cmds...)
}

// delNamedFirewallRule deletes the named rule when present. The cached rule
// list is refreshed first because deletions shift rule indices.
func (n *NetworkSettings) delNamedFirewallRule(name string) error {
	if err := n.updateFirewallRules(); err != nil {
		return err
	}
	idx := n.firewallRuleIndex(name)
	if idx < 0 {
		return nil
	}
	_, err := n.runner.Run(fmt.Sprintf("uci del firewall.@rule[%d]", idx))
	return err
}

// setupFirewallRulesForPPTP opens the PPTP control port and GRE protocol.
func (n *NetworkSettings) setupFirewallRulesForPPTP() error {
	if err := n.updateFirewallRules(); err != nil {
		return err
	}
	if err := n.addNamedFirewallRule("pptpd", [][2]string{
		{"target", "ACCEPT"},
		{"proto", "tcp"},
		{"dest_port", "1723"},
		{"family", "ipv4"},
		{"src", "wan"},
	}); err != nil {
		return err
	}
	if err := n.addNamedFirewallRule("GRP", [][2]string{
		{"target", "ACCEPT"},
		{"src", "wan"},
		{"proto", "47"},
	}); err != nil {
		return err
	}

	if err := n.addCustomFirewallRules(firewallRulesPPTP); err != nil {
		return err
	}
	n.services.NeedRestart(ServiceFirewall)
	return nil
}

// restoreFirewallRulesForPPTP removes the PPTP firewall rules.
func (n *NetworkSettings) restoreFirewallRulesForPPTP() error {
	for _, name := range []string{"pptpd", "GRP"} {
		if err := n.delNamedFirewallRule(name); err != nil {
			return err
		}
	}
	if err := n.removeCustomFirewallRules(); err != nil {
		return err
	}
	n.services.NeedRestart(ServiceFirewall)
	return nil
}

// setupFirewallRulesForL2TP opens ESP, NAT-T, and AH plus the iptables
// rules for the L2TP client subnet.
func (n *NetworkSettings) setupFirewallRulesForL2TP() error {
	if err := n.updateFirewallRules(); err != nil {
		return err
	}
	if err := n.addNamedFirewallRule("ipsec esp", [][2]string{
		{"target", "ACCEPT"},
		{"proto", "esp"},
		{"src", "wan"},
	}); err != nil {
		return err
	}
	if err := n.addNamedFirewallRule("ipsec nat-t", [][2]string{
		{"target", "ACCEPT"},
		{"src", "wan"},
		{"proto", "udp"},
		{"dest_port", "4500"},
	}); err != nil {
		return err
	}
	if err := n.addNamedFirewallRule("auth header", [][2]string{
		{"target", "ACCEPT"},
		{"src", "wan"},
		{"proto", "ah"},
	}); err != nil {
		return err
	}

	netID := n.l2tp.Address[:strings.LastIndex(n.l2tp.Address, ".")]
	rules := append([]string{}, firewallRulesL2TP...)
	rules = append(rules,
		fmt.Sprintf("iptables -A FORWARD -s %s.0/24  -j ACCEPT", netID),
		fmt.Sprintf("iptables -t nat -A POSTROUTING -s %s.0/24 -o eth0.2 -j MASQUERADE", netID),
	)
	if err := n.addCustomFirewallRules(rules); err != nil {
		return err
	}
	n.services.NeedRestart(ServiceFirewall)
	return nil
}

// restoreFirewallRulesForL2TP removes the L2TP firewall rules.
func (n *NetworkSettings) restoreFirewallRulesForL2TP() error {
	for _, name := range []string{"ipsec esp", "ipsec nat-t", "auth header"} {
		if err := n.delNamedFirewallRule(name); err != nil {
			return err
		}
	}
	if err := n.removeCustomFirewallRules(); err != nil {
		return err
	}
	n.services.NeedRestart(ServiceFirewall)
	return nil
}

// addCustomFirewallRules backs up /etc/firewall.user once and appends the
// given iptables rules to it.
func (n *NetworkSettings) addCustomFirewallRules(rules []string) error {
	backupPath := firewallCustomOptionPath + ".backup"
	backedUp, err := n.FileExists(backupPath)
	if err != nil {
		return err
	}
	if !backedUp {
		if _, err := n.runner.Run(fmt.Sprintf("mv %s %s", firewallCustomOptionPath, backupPath)); err != nil {
			return err
		}
	}
	for _, rule := range rules {
		if _, err := n.runner.Run(fmt.Sprintf("echo %s >> %s", rule, firewallCustomOptionPath)); err != nil {
			return err
		}
	}
	return nil
}

// removeCustomFirewallRules restores /etc/firewall.user from its backup,
// or truncates it when no backup exists.
func (n *NetworkSettings) removeCustomFirewallRules() error {
	backupPath := firewallCustomOptionPath + ".backup"
	backedUp, err := n.FileExists(backupPath)
	if err != nil {
		return err
	}
	if backedUp {
		_, err := n.runner.Run(fmt.Sprintf("mv %s %s", backupPath, firewallCustomOptionPath))
		return err
	}
	n.log.Debugf("No %s found, truncating %s", backupPath, firewallCustomOptionPath)
	_, err = n.runner.Run(fmt.Sprintf("echo  > %s", firewallCustomOptionPath))
	return err
}
