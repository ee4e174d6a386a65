// Package openwrt controls OpenWrt access points used as lab equipment in
// connectivity testbeds: wireless settings, and network feature setups (DNS,
// VPN servers, IPv6 modes) with crash-recoverable cleanup tracking.
package openwrt

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/conntest-lab/conntest/pkg/remote"
	"github.com/conntest-lab/conntest/pkg/util"
)

const packageInstallTimeout = 200 * time.Second

// NetworkSettings manages network feature configuration on an OpenWrt AP.
//
// Every feature setup marks itself in a dirty set that is persisted to the
// AP before further side effects, so a crashed test run leaves behind a
// record of what must be undone. Construction always runs a full Reconcile:
// any dirty changes left by a previous run are rolled back before the new
// controller is used, regardless of which features the current run needs.
//
// A NetworkSettings instance is not safe for concurrent use. Independent
// test runs isolate by using separate instances against separate APs.
type NetworkSettings struct {
	runner   remote.Runner
	services *ServiceManager
	ip       string
	log      *logrus.Entry

	dirty   map[Change]struct{}
	cleanup map[Change]func() error
	record  *dirtyRecord

	firewallRules []string

	// l2tp is non-nil only while the L2TP feature is active.
	l2tp *VpnL2TP
}

// NewNetworkSettings creates the controller and immediately reconciles any
// dirty state a previous run left on the AP. The returned controller is
// always clean: its dirty set is empty and the AP is in default state.
func NewNetworkSettings(runner remote.Runner, ip string, log *logrus.Entry) (*NetworkSettings, error) {
	n := &NetworkSettings{
		runner:   runner,
		services: NewServiceManager(runner),
		ip:       ip,
		log:      log,
		dirty:    make(map[Change]struct{}),
		record:   &dirtyRecord{runner: runner, path: dirtyRecordPath},
	}

	// One inverse per change, fixed for the controller's lifetime. A change
	// may not enter the dirty set unless it has an entry here.
	n.cleanup = map[Change]func() error{
		ChangeDNSServer:     n.RemoveDNSServer,
		ChangeVPNPPTPServer: n.RemoveVPNPPTPServer,
		ChangeVPNL2TPServer: n.RemoveVPNL2TPServer,
		ChangeDisableIPv6:   n.EnableIPv6,
		ChangeIPv6Bridge:    n.RemoveIPv6Bridge,
		ChangeIPv6Prefer:    n.RemoveIPv6PreferOption,
	}

	if err := n.updateFirewallRules(); err != nil {
		return nil, err
	}
	if err := n.Reconcile(); err != nil {
		return nil, err
	}
	return n, nil
}

// Dirty returns the changes currently marked dirty, sorted by name.
func (n *NetworkSettings) Dirty() []Change {
	changes := make([]Change, 0, len(n.dirty))
	for c := range n.dirty {
		changes = append(changes, c)
	}
	sort.Slice(changes, func(i, j int) bool { return changes[i] < changes[j] })
	return changes
}

// Reconcile restores the AP to default state from the persisted dirty
// record. Each recorded change's inverse is invoked (order-independent by
// contract), the dirty set is cleared, and an emptied record is deleted.
// A recorded change without a registered inverse is a fatal configuration
// error. Failures are not retried here; the record stays in place so a
// later Reconcile can pick up where this one stopped.
func (n *NetworkSettings) Reconcile() error {
	persisted, err := n.record.load()
	if err != nil {
		return &util.ReconcileError{Err: err}
	}
	for change := range persisted {
		n.dirty[change] = struct{}{}
	}

	if len(n.dirty) > 0 {
		for _, change := range n.Dirty() {
			inverse, ok := n.cleanup[change]
			if !ok {
				return &util.CleanupError{Change: string(change)}
			}
			n.log.Infof("Reconciling dirty change %s", change)
			if err := inverse(); err != nil {
				return &util.ReconcileError{Change: string(change), Err: err}
			}
		}
		n.dirty = make(map[Change]struct{})
	}

	exists, err := n.record.exists()
	if err != nil {
		return &util.ReconcileError{Err: err}
	}
	if exists {
		empty, err := n.record.empty()
		if err != nil {
			return &util.ReconcileError{Err: err}
		}
		if empty {
			if err := n.record.remove(); err != nil {
				return &util.ReconcileError{Err: err}
			}
		}
	}
	return nil
}

// markDirty adds a change to the dirty set. Idempotent. Setup operations
// call this before remote side effects so an interrupted setup is still
// recoverable at the next Reconcile.
func (n *NetworkSettings) markDirty(change Change) {
	n.dirty[change] = struct{}{}
}

// markClean discards a change from the dirty set. Idempotent.
func (n *NetworkSettings) markClean(change Change) {
	delete(n.dirty, change)
}

// commit applies staged UCI changes, restarts pending services, and persists
// the dirty set to the AP. This is the crash-recovery checkpoint: after
// every durable step the AP carries a record of what a resumed cleanup must
// undo.
func (n *NetworkSettings) commit() error {
	if _, err := n.runner.Run("uci commit"); err != nil {
		return err
	}
	if err := n.services.RestartPending(); err != nil {
		return err
	}
	return n.record.persist(n.dirty)
}

// PackageInstall installs the space-separated packages via opkg, skipping
// ones already installed.
func (n *NetworkSettings) PackageInstall(packages string) error {
	if _, err := n.runner.Run("opkg update"); err != nil {
		return err
	}
	for _, pkg := range strings.Fields(packages) {
		installed, err := n.packageInstalled(pkg)
		if err != nil {
			return err
		}
		if installed {
			n.log.Infof("Package %s skipped (already installed)", pkg)
			continue
		}
		if _, err := n.runner.Run(fmt.Sprintf("opkg install %s", pkg),
			remote.WithTimeout(packageInstallTimeout)); err != nil {
			return err
		}
		n.log.Infof("Package %s installed", pkg)
	}
	return nil
}

// PackageRemove removes the space-separated packages via opkg, skipping
// ones not installed.
func (n *NetworkSettings) PackageRemove(packages string) error {
	for _, pkg := range strings.Fields(packages) {
		installed, err := n.packageInstalled(pkg)
		if err != nil {
			return err
		}
		if !installed {
			n.log.Infof("Package %s not installed, nothing to remove", pkg)
			continue
		}
		if _, err := n.runner.Run(fmt.Sprintf("opkg remove %s", pkg)); err != nil {
			return err
		}
		n.log.Infof("Package %s removed", pkg)
	}
	return nil
}

func (n *NetworkSettings) packageInstalled(pkg string) (bool, error) {
	res, err := n.runner.Run(fmt.Sprintf("opkg list-installed %s", pkg))
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(res.Stdout) != "", nil
}

// FileExists checks if a file exists on the AP.
func (n *NetworkSettings) FileExists(absPath string) (bool, error) {
	return fileExists(n.runner, absPath)
}

// count returns the number of entries matching =key in a uci config.
func (n *NetworkSettings) count(config, key string) (int, error) {
	res, err := n.runner.Run(fmt.Sprintf("uci show %s | grep =%s", config, key),
		remote.IgnoreFailure())
	if err != nil {
		return 0, err
	}
	out := strings.TrimSpace(res.Stdout)
	if out == "" {
		return 0, nil
	}
	return len(strings.Split(out, "\n")), nil
}

// createConfigFile writes content to a config file, overwriting any
// previous content.
func (n *NetworkSettings) createConfigFile(content, path string) error {
	_, err := n.runner.Run(fmt.Sprintf("echo -e \"%s\" > %s", content, path))
	return err
}

// replaceConfigOption replaces lines matching oldPattern with newOption in
// the given config file, appending newOption when nothing matches.
func (n *NetworkSettings) replaceConfigOption(oldPattern, newOption, path string) error {
	re, err := regexp.Compile(oldPattern)
	if err != nil {
		return err
	}
	res, err := n.runner.Run(fmt.Sprintf("cat %s", path))
	if err != nil {
		return err
	}
	content := res.Stdout
	if re.MatchString(content) {
		content = re.ReplaceAllString(content, newOption)
	} else {
		content = content + "\n" + newOption
	}
	return n.createConfigFile(content, path)
}

// removeConfigOption deletes the first line matching pattern from the
// config file. A miss is logged and treated as nothing to do: removals are
// best-effort against already-clean state.
func (n *NetworkSettings) removeConfigOption(pattern, path string) (bool, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return false, err
	}
	res, err := n.runner.Run(fmt.Sprintf("cat %s", path))
	if err != nil {
		return false, err
	}
	lines := strings.Split(res.Stdout, "\n")
	for i, line := range lines {
		if re.MatchString(line) {
			lines = append(lines[:i], lines[i+1:]...)
			return true, n.createConfigFile(strings.Join(lines, "\n"), path)
		}
	}
	n.log.Warnf("No option matching %q in %s to remove", pattern, path)
	return false, nil
}

// updateFirewallRules refreshes the cached list of named rules in
// /etc/config/firewall.
func (n *NetworkSettings) updateFirewallRules() error {
	total, err := n.count("firewall", "rule")
	if err != nil {
		return err
	}
	rules := make([]string, 0, total)
	for i := 0; i < total; i++ {
		res, err := n.runner.Run(fmt.Sprintf("uci get firewall.@rule[%d].name", i))
		if err != nil {
			return err
		}
		rules = append(rules, strings.TrimSpace(res.Stdout))
	}
	n.firewallRules = rules
	return nil
}

func (n *NetworkSettings) firewallRuleIndex(name string) int {
	for i, rule := range n.firewallRules {
		if rule == name {
			return i
		}
	}
	return -1
}

// runAll runs the commands in order, stopping at the first failure.
func (n *NetworkSettings) runAll(cmds ...string) error {
	for _, cmd := range cmds {
		if _, err := n.runner.Run(cmd); err != nil {
			return err
		}
	}
	return nil
}
