package openwrt

import (
	"strings"
	"testing"

	"github.com/conntest-lab/conntest/internal/testutil"
)

func TestSetupVPNPPTPServer(t *testing.T) {
	r := testutil.NewFakeRunner()
	r.Files[pptpdOptionPath] = "#ms-dns 10.0.0.1\n#noproxyarp"
	n := newTestSettings(t, r)

	if err := n.SetupVPNPPTPServer("10.10.10.9", "vpnuser", "pw"); err != nil {
		t.Fatalf("SetupVPNPPTPServer: %v", err)
	}

	if got := n.Dirty(); len(got) != 1 || got[0] != ChangeVPNPPTPServer {
		t.Errorf("Dirty() = %v, want [%s]", got, ChangeVPNPPTPServer)
	}
	if content := r.Files[dirtyRecordPath]; content != string(ChangeVPNPPTPServer) {
		t.Errorf("record content = %q, want %q", content, ChangeVPNPPTPServer)
	}

	for _, cmd := range []string{
		"opkg install pptpd",
		"uci set pptpd.pptpd.enabled=1",
		"uci set pptpd.pptpd.localip='10.10.10.9'",
		"uci set pptpd.pptpd.remoteip='10.10.10.10-250'",
		"uci set pptpd.@login[0].username='vpnuser'",
		"/etc/init.d/pptpd enable",
		"/etc/init.d/pptpd restart",
		"/etc/init.d/firewall restart",
	} {
		if !r.Ran(cmd) {
			t.Errorf("command %q not run", cmd)
		}
	}

	if got := r.Files[pptpdOptionPath]; got != "ms-dns 8.8.8.8\nproxyarp" {
		t.Errorf("options.pptpd = %q", got)
	}
	if !r.RanMatching("firewall.@rule[-1].name='pptpd'") {
		t.Error("pptpd firewall rule not added")
	}
	if !r.RanMatching("iptables -A input_rule -i ppp+ -j ACCEPT") {
		t.Error("ppp iptables rule not appended")
	}
}

func TestRemoveVPNPPTPServer(t *testing.T) {
	r := testutil.NewFakeRunner()
	r.Files[pptpdOptionPath] = "#ms-dns 10.0.0.1\n#noproxyarp"
	r.Files[pppChapSecretPath] = "vpnuser pptp-server pw *"
	r.Files["/etc/config/pptpd"] = "config service 'pptpd'"
	n := newTestSettings(t, r)

	if err := n.SetupVPNPPTPServer("10.10.10.9", "vpnuser", "pw"); err != nil {
		t.Fatalf("SetupVPNPPTPServer: %v", err)
	}
	if err := n.RemoveVPNPPTPServer(); err != nil {
		t.Fatalf("RemoveVPNPPTPServer: %v", err)
	}

	if got := n.Dirty(); len(got) != 0 {
		t.Errorf("Dirty() = %v, want empty", got)
	}
	if content := r.Files[dirtyRecordPath]; content != "" {
		t.Errorf("record content = %q, want empty", content)
	}
	if !r.Ran("uci set pptpd.pptpd.enabled=0") {
		t.Error("pptpd not disabled in uci")
	}
	if !r.Ran("/etc/init.d/pptpd disable") {
		t.Error("pptpd service not disabled")
	}
	if strings.Contains(r.Files[pppChapSecretPath], "pptp-server") {
		t.Errorf("chap-secrets entry not removed: %q", r.Files[pppChapSecretPath])
	}
	if _, ok := r.Files["/etc/config/pptpd"]; ok {
		t.Error("/etc/config/pptpd not removed")
	}
}

func TestSetupVPNL2TPServer(t *testing.T) {
	r := testutil.NewFakeRunner()
	r.Files[pppChapSecretPath] = ""
	n := newTestSettings(t, r)

	err := n.SetupVPNL2TPServer("vpn.example.com", "192.168.1.1", "vpnuser", "pw",
		"psksecret", "l2tp-server", "US", "conntest")
	if err != nil {
		t.Fatalf("SetupVPNL2TPServer: %v", err)
	}

	if got := n.Dirty(); len(got) != 1 || got[0] != ChangeVPNL2TPServer {
		t.Errorf("Dirty() = %v, want [%s]", got, ChangeVPNL2TPServer)
	}

	conf := r.Files[xl2tpdConfigPath]
	for _, want := range []string{
		"ip range = 192.168.1.1-192.168.1.21",
		"local ip = 192.168.1.1",
		"name = l2tp-server",
		"auth file = " + pppChapSecretPath,
	} {
		if !strings.Contains(conf, want) {
			t.Errorf("xl2tpd.conf missing %q:\n%s", want, conf)
		}
	}
	if !strings.Contains(r.Files[pppChapSecretPath], "vpnuser l2tp-server pw *") {
		t.Errorf("chap-secrets = %q", r.Files[pppChapSecretPath])
	}
	if !strings.Contains(r.Files["/etc/ipsec.secrets"], "psksecret") {
		t.Errorf("ipsec.secrets = %q", r.Files["/etc/ipsec.secrets"])
	}
	if !r.RanMatching("ipsec pki --gen") {
		t.Error("certificate generation not run")
	}
	if !r.Ran("chmod 664 /www/downloads/clientPkcs.p12") {
		t.Error("client PKCS#12 bundle not published")
	}
	for _, rule := range []string{"ipsec esp", "ipsec nat-t", "auth header"} {
		if !r.RanMatching("firewall.@rule[-1].name='" + rule + "'") {
			t.Errorf("firewall rule %q not added", rule)
		}
	}
}

func TestRemoveVPNL2TPServerAfterPartialSetup(t *testing.T) {
	r := testutil.NewFakeRunner()
	n := newTestSettings(t, r)

	// Only the dirty mark survived a failed setup; the profile is gone.
	n.markDirty(ChangeVPNL2TPServer)

	if err := n.RemoveVPNL2TPServer(); err != nil {
		t.Fatalf("RemoveVPNL2TPServer: %v", err)
	}
	if got := n.Dirty(); len(got) != 0 {
		t.Errorf("Dirty() = %v, want empty", got)
	}
}
