package openwrt

// Service names under /etc/init.d on the AP.
const (
	ServiceDnsmasq  = "dnsmasq"
	ServiceStunnel  = "stunnel"
	ServiceNetwork  = "network"
	ServicePPTPD    = "pptpd"
	ServiceFirewall = "firewall"
	ServiceIPSec    = "ipsec"
	ServiceXL2TPD   = "xl2tpd"
	ServiceODHCPD   = "odhcpd"
)

// opkg package sets per feature.
const (
	pptpPackages    = "pptpd kmod-nf-nathelper-extra"
	l2tpPackages    = "strongswan-full openssl-util xl2tpd"
	stunnelPackages = "stunnel"
)

// Well-known config paths on the AP.
const (
	stunnelConfigPath        = "/etc/stunnel/DoTServer.conf"
	dirtyRecordPath          = "/etc/dirty_configs"
	pptpdOptionPath          = "/etc/ppp/options.pptpd"
	xl2tpdConfigPath         = "/etc/xl2tpd/xl2tpd.conf"
	xl2tpdOptionConfigPath   = "/etc/ppp/options.xl2tpd"
	firewallCustomOptionPath = "/etc/firewall.user"
	pppChapSecretPath        = "/etc/ppp/chap-secrets"
)

const localhostAddr = "192.168.1.1"

// VpnL2TP holds the profile for an active L2TP VPN server. It is populated
// by SetupVPNL2TPServer and consumed by later sub-steps of the same setup
// (secrets file, cert generation) and by the matching remove operation.
type VpnL2TP struct {
	Name      string // server name registered on the AP
	Hostname  string // VPN server domain name
	Address   string // VPN server address
	Username  string
	Password  string
	PSKSecret string
}

// ipsecSection is one named block of /etc/ipsec.conf.
type ipsecSection struct {
	name    string
	options [][2]string
}

// ipsecConf mirrors the stock strongswan ipsec.conf used for L2TP testing.
// Option order within a section is preserved as written.
var ipsecConf = []ipsecSection{
	{
		name: "config setup",
		options: [][2]string{
			{"charondebug", `'chd 2,ike 2,knl 2,net 2,esp 2,dmn 2,mgr 2,lib 1,cfg 2,enc 1'`},
			{"uniqueids", "never"},
		},
	},
	{
		name: "conn %default",
		options: [][2]string{
			{"ike", "aes128-sha-modp1024"},
			{"esp", "aes128-sha1"},
		},
	},
}

var ipsecL2TPPSK = []ipsecSection{
	{
		name: "conn L2TP_PSK",
		options: [][2]string{
			{"keyexchange", "ikev1"},
			{"type", "transport"},
			{"left", localhostAddr},
			{"leftprotoport", "17/1701"},
			{"leftauth", "psk"},
			{"right", "%any"},
			{"rightprotoport", "17/%any"},
			{"rightsubnet", "0.0.0.0/0"},
			{"rightauth", "psk"},
			{"auto", "add"},
		},
	},
}

var ipsecL2TPRSA = []ipsecSection{
	{
		name: "conn L2TP_RSA",
		options: [][2]string{
			{"keyexchange", "ikev1"},
			{"type", "transport"},
			{"left", localhostAddr},
			{"leftprotoport", "17/1701"},
			{"leftauth", "pubkey"},
			{"leftcert", "serverCert.der"},
			{"right", "%any"},
			{"rightprotoport", "17/%any"},
			{"rightsubnet", "0.0.0.0/0"},
			{"rightauth", "pubkey"},
			{"auto", "add"},
		},
	},
}

var xl2tpdConfGlobal = []string{
	"[global]",
	"ipsec saref = no",
	"debug tunnel = no",
	"debug avp = no",
	"debug network = no",
	"debug state = no",
	"access control = no",
	"rand source = dev",
	"port = 1701",
}

var xl2tpdConfLNS = []string{
	"[lns default]",
	"require authentication = yes",
	"pass peer = yes",
	"ppp debug = no",
	"length bit = yes",
	"refuse pap = yes",
	"refuse chap = yes",
}

var xl2tpdOptions = []string{
	"require-mschap-v2",
	"refuse-mschap",
	"ms-dns 8.8.8.8",
	"ms-dns 8.8.4.4",
	"asyncmap 0",
	"auth",
	"crtscts",
	"idle 1800",
	"mtu 1410",
	"mru 1410",
	"connect-delay 5000",
	"lock",
	"hide-password",
	"local",
	"debug",
	"modem",
	"proxyarp",
	"lcp-echo-interval 30",
	"lcp-echo-failure 4",
	"nomppe",
}

// iptables rules appended to /etc/firewall.user for PPTP.
var firewallRulesPPTP = []string{
	"iptables -A input_rule -i ppp+ -j ACCEPT",
	"iptables -A output_rule -o ppp+ -j ACCEPT",
	"iptables -A forwarding_rule -i ppp+ -j ACCEPT",
}

// iptables rules appended to /etc/firewall.user for L2TP/IPsec.
var firewallRulesL2TP = []string{
	"iptables -I INPUT  -m policy --dir in --pol ipsec --proto esp -j ACCEPT",
	"iptables -I FORWARD  -m policy --dir in --pol ipsec --proto esp -j ACCEPT",
	"iptables -I FORWARD  -m policy --dir out --pol ipsec --proto esp -j ACCEPT",
	"iptables -I OUTPUT   -m policy --dir out --pol ipsec --proto esp -j ACCEPT",
	"iptables -t nat -I POSTROUTING -m policy --pol ipsec --dir out -j ACCEPT",
	"iptables -A FORWARD -m state --state RELATED,ESTABLISHED -j ACCEPT",
	"iptables -A INPUT -p esp -j ACCEPT",
	"iptables -A INPUT -i eth0.2 -p udp --dport 500 -j ACCEPT",
	"iptables -A INPUT -i eth0.2 -p tcp --dport 500 -j ACCEPT",
	"iptables -A INPUT -i eth0.2 -p udp --dport 4500 -j ACCEPT",
	"iptables -A INPUT -p udp --dport 500 -j ACCEPT",
	"iptables -A INPUT -p udp --dport 4500 -j ACCEPT",
	"iptables -A INPUT -p udp -m policy --dir in --pol ipsec -m udp --dport 1701 -j ACCEPT",
}
