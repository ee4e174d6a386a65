package openwrt

import (
	"fmt"
	"sort"
	"strings"

	"github.com/conntest-lab/conntest/pkg/remote"
)

// Change identifies one tracked feature setup. The set of changes is closed:
// every Change has exactly one inverse operation registered in the tracker's
// cleanup map at construction time.
type Change string

const (
	ChangeDNSServer     Change = "setup_dns_server"
	ChangeVPNPPTPServer Change = "setup_vpn_pptp_server"
	ChangeVPNL2TPServer Change = "setup_vpn_l2tp_server"
	ChangeDisableIPv6   Change = "disable_ipv6"
	ChangeIPv6Bridge    Change = "setup_ipv6_bridge"
	ChangeIPv6Prefer    Change = "ipv6_prefer_option"
)

// dirtyRecord is the crash-recovery record for tracked configuration
// changes. The record lives on the AP itself so that a fresh controller
// constructed after a crashed run can read back what must be undone. Format:
// UTF-8 text, one change name per line.
type dirtyRecord struct {
	runner remote.Runner
	path   string
}

// load reads the persisted dirty set. A missing record yields an empty set.
func (d *dirtyRecord) load() (map[Change]struct{}, error) {
	set := make(map[Change]struct{})

	exists, err := d.exists()
	if err != nil {
		return nil, err
	}
	if !exists {
		return set, nil
	}

	res, err := d.runner.Run(fmt.Sprintf("cat %s", d.path))
	if err != nil {
		return nil, err
	}
	for _, line := range strings.Split(res.Stdout, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		set[Change(line)] = struct{}{}
	}
	return set, nil
}

// persist overwrites the record with the given set, one change per line.
// Entries are sorted so repeated commits of the same set are byte-identical.
func (d *dirtyRecord) persist(set map[Change]struct{}) error {
	names := make([]string, 0, len(set))
	for change := range set {
		names = append(names, string(change))
	}
	sort.Strings(names)

	_, err := d.runner.Run(fmt.Sprintf("echo -e \"%s\" > %s", strings.Join(names, "\n"), d.path))
	return err
}

// remove deletes the record file.
func (d *dirtyRecord) remove() error {
	_, err := d.runner.Run(fmt.Sprintf("rm %s", d.path))
	return err
}

// exists reports whether the record file is present on the AP.
func (d *dirtyRecord) exists() (bool, error) {
	return fileExists(d.runner, d.path)
}

// empty reports whether the record file has no content.
func (d *dirtyRecord) empty() (bool, error) {
	res, err := d.runner.Run(fmt.Sprintf("cat %s", d.path))
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(res.Stdout) == "", nil
}

// fileExists checks for a file via ls|grep, matching on the base name.
func fileExists(r remote.Runner, absPath string) (bool, error) {
	idx := strings.LastIndex(absPath, "/")
	dir, name := absPath[:idx], absPath[idx+1:]
	if dir == "" {
		dir = "/"
	}
	res, err := r.Run(fmt.Sprintf("ls %s | grep %s", dir, name), remote.IgnoreFailure())
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(res.Stdout) != "", nil
}

// pathExists checks for a directory.
func pathExists(r remote.Runner, absPath string) bool {
	_, err := r.Run(fmt.Sprintf("ls %s", absPath))
	return err == nil
}
