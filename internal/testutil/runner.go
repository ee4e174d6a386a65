// Package testutil provides test doubles shared by controller tests.
package testutil

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/conntest-lab/conntest/pkg/remote"
)

var (
	writeFileRe  = regexp.MustCompile(`(?s)^echo -e "(.*)" > (\S+)$`)
	appendFileRe = regexp.MustCompile(`(?s)^echo (.*) >> (\S+)$`)
	catFileRe    = regexp.MustCompile(`^cat (\S+)$`)
	rmFileRe     = regexp.MustCompile(`^rm (\S+)$`)
	lsGrepRe     = regexp.MustCompile(`^ls (\S+) \| grep (\S+)$`)
)

// FakeRunner is an in-memory remote.Runner. Exact-match responses and
// failures can be scripted per command, and a small virtual filesystem
// emulates the file-manipulation idioms the controllers use (echo-redirect
// writes, cat, rm, ls|grep existence checks) so crash/recovery flows can be
// exercised without hardware.
type FakeRunner struct {
	HostName  string
	Responses map[string]string // exact command -> stdout
	Failures  map[string]error  // exact command -> forced error
	Files     map[string]string // virtual remote files (nil disables emulation)
	Commands  []string          // every command run, in order
}

// NewFakeRunner returns a FakeRunner with file emulation enabled.
func NewFakeRunner() *FakeRunner {
	return &FakeRunner{
		HostName:  "192.168.1.1",
		Responses: make(map[string]string),
		Failures:  make(map[string]error),
		Files:     make(map[string]string),
	}
}

// Host implements remote.Runner.
func (f *FakeRunner) Host() string {
	return f.HostName
}

// Run implements remote.Runner.
func (f *FakeRunner) Run(cmd string, opts ...remote.RunOption) (remote.Result, error) {
	f.Commands = append(f.Commands, cmd)

	if err, ok := f.Failures[cmd]; ok {
		return remote.Result{ExitStatus: 1}, err
	}
	if out, ok := f.Responses[cmd]; ok {
		return remote.Result{Stdout: out}, nil
	}

	if f.Files != nil {
		if res, handled, err := f.runFileCommand(cmd); handled {
			return res, err
		}
	}

	// Unscripted commands succeed with no output.
	return remote.Result{}, nil
}

func (f *FakeRunner) runFileCommand(cmd string) (remote.Result, bool, error) {
	if m := writeFileRe.FindStringSubmatch(cmd); m != nil {
		f.Files[m[2]] = m[1]
		return remote.Result{}, true, nil
	}
	if m := appendFileRe.FindStringSubmatch(cmd); m != nil {
		f.Files[m[2]] += m[1] + "\n"
		return remote.Result{}, true, nil
	}
	if m := catFileRe.FindStringSubmatch(cmd); m != nil {
		content, ok := f.Files[m[1]]
		if !ok {
			return remote.Result{ExitStatus: 1}, true, fmt.Errorf("cat: can't open '%s': No such file or directory", m[1])
		}
		return remote.Result{Stdout: content}, true, nil
	}
	if m := rmFileRe.FindStringSubmatch(cmd); m != nil {
		if _, ok := f.Files[m[1]]; !ok {
			return remote.Result{ExitStatus: 1}, true, fmt.Errorf("rm: can't remove '%s': No such file or directory", m[1])
		}
		delete(f.Files, m[1])
		return remote.Result{}, true, nil
	}
	if m := lsGrepRe.FindStringSubmatch(cmd); m != nil {
		dir := strings.TrimSuffix(m[1], "/")
		for path := range f.Files {
			idx := strings.LastIndex(path, "/")
			if idx < 0 || path[:idx] != dir && !(dir == "" && idx == 0) {
				continue
			}
			name := path[idx+1:]
			if strings.Contains(name, m[2]) {
				return remote.Result{Stdout: name + "\n"}, true, nil
			}
		}
		// grep without a match exits 1; callers pass IgnoreFailure.
		return remote.Result{ExitStatus: 1}, true, nil
	}
	return remote.Result{}, false, nil
}

// Ran reports whether cmd was run at least once.
func (f *FakeRunner) Ran(cmd string) bool {
	return f.RunCount(cmd) > 0
}

// RunCount returns how many times cmd was run.
func (f *FakeRunner) RunCount(cmd string) int {
	count := 0
	for _, c := range f.Commands {
		if c == cmd {
			count++
		}
	}
	return count
}

// RanMatching reports whether any run command contains substr.
func (f *FakeRunner) RanMatching(substr string) bool {
	for _, c := range f.Commands {
		if strings.Contains(c, substr) {
			return true
		}
	}
	return false
}

// Reset clears the command log, keeping responses and files.
func (f *FakeRunner) Reset() {
	f.Commands = nil
}
