package openwrt

import (
	"fmt"
	"sort"

	"github.com/conntest-lab/conntest/pkg/remote"
)

// ServiceManager drives init.d services on the AP and batches restarts:
// feature setups mark services as needing a restart, and the tracker's
// commit restarts everything pending in one pass.
type ServiceManager struct {
	runner      remote.Runner
	needRestart map[string]struct{}
}

// NewServiceManager creates a ServiceManager for the given target.
func NewServiceManager(runner remote.Runner) *ServiceManager {
	return &ServiceManager{
		runner:      runner,
		needRestart: make(map[string]struct{}),
	}
}

// Enable turns on service auto start.
func (s *ServiceManager) Enable(service string) error {
	_, err := s.runner.Run(fmt.Sprintf("/etc/init.d/%s enable", service))
	return err
}

// Disable turns off service auto start.
func (s *ServiceManager) Disable(service string) error {
	_, err := s.runner.Run(fmt.Sprintf("/etc/init.d/%s disable", service))
	return err
}

// Start starts the service.
func (s *ServiceManager) Start(service string) error {
	_, err := s.runner.Run(fmt.Sprintf("/etc/init.d/%s start", service))
	return err
}

// Restart restarts the service now.
func (s *ServiceManager) Restart(service string) error {
	_, err := s.runner.Run(fmt.Sprintf("/etc/init.d/%s restart", service))
	return err
}

// Reload reloads the service configuration without a full restart.
func (s *ServiceManager) Reload(service string) error {
	_, err := s.runner.Run(fmt.Sprintf("/etc/init.d/%s reload", service))
	return err
}

// Stop stops the service.
func (s *ServiceManager) Stop(service string) error {
	_, err := s.runner.Run(fmt.Sprintf("/etc/init.d/%s stop", service))
	return err
}

// NeedRestart marks a service for restart at the next RestartPending call.
func (s *ServiceManager) NeedRestart(service string) {
	s.needRestart[service] = struct{}{}
}

// RestartPending restarts all marked services and clears the pending set.
// The network service gets a reload before its restart so interface-level
// changes are picked up.
func (s *ServiceManager) RestartPending() error {
	services := make([]string, 0, len(s.needRestart))
	for svc := range s.needRestart {
		services = append(services, svc)
	}
	sort.Strings(services)

	for _, svc := range services {
		if svc == ServiceNetwork {
			if err := s.Reload(svc); err != nil {
				return err
			}
		}
		if err := s.Restart(svc); err != nil {
			return err
		}
	}
	s.needRestart = make(map[string]struct{})
	return nil
}
