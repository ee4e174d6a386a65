package openwrt

import (
	"testing"

	"github.com/conntest-lab/conntest/internal/testutil"
)

func TestDirtyRecordLoadMissing(t *testing.T) {
	r := testutil.NewFakeRunner()
	rec := &dirtyRecord{runner: r, path: dirtyRecordPath}

	set, err := rec.load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(set) != 0 {
		t.Errorf("load of missing record = %v, want empty set", set)
	}
}

func TestDirtyRecordRoundTrip(t *testing.T) {
	r := testutil.NewFakeRunner()
	rec := &dirtyRecord{runner: r, path: dirtyRecordPath}

	in := map[Change]struct{}{
		ChangeIPv6Prefer:  {},
		ChangeDisableIPv6: {},
	}
	if err := rec.persist(in); err != nil {
		t.Fatalf("persist: %v", err)
	}

	want := string(ChangeDisableIPv6) + "\n" + string(ChangeIPv6Prefer)
	if got := r.Files[dirtyRecordPath]; got != want {
		t.Errorf("persisted content = %q, want %q", got, want)
	}

	out, err := rec.load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("load = %v, want %v", out, in)
	}
	for change := range in {
		if _, ok := out[change]; !ok {
			t.Errorf("load missing change %s", change)
		}
	}
}

func TestDirtyRecordLoadSkipsBlankLines(t *testing.T) {
	r := testutil.NewFakeRunner()
	r.Files[dirtyRecordPath] = "\ndisable_ipv6\n\n  \n"
	rec := &dirtyRecord{runner: r, path: dirtyRecordPath}

	set, err := rec.load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(set) != 1 {
		t.Fatalf("load = %v, want single entry", set)
	}
	if _, ok := set[ChangeDisableIPv6]; !ok {
		t.Errorf("load = %v, want %s", set, ChangeDisableIPv6)
	}
}

func TestDirtyRecordEmptyAndRemove(t *testing.T) {
	r := testutil.NewFakeRunner()
	rec := &dirtyRecord{runner: r, path: dirtyRecordPath}

	if err := rec.persist(map[Change]struct{}{}); err != nil {
		t.Fatalf("persist empty: %v", err)
	}
	empty, err := rec.empty()
	if err != nil {
		t.Fatalf("empty: %v", err)
	}
	if !empty {
		t.Error("empty = false for a record with no entries")
	}

	if err := rec.remove(); err != nil {
		t.Fatalf("remove: %v", err)
	}
	exists, err := rec.exists()
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	if exists {
		t.Error("exists = true after remove")
	}
}
