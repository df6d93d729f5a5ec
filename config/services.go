package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ServiceMode names one long-running component of the jobdesk process.
type ServiceMode string

const (
	// ServiceModeHTTP serves the job and admin APIs.
	ServiceModeHTTP ServiceMode = "http"
	// ServiceModeScopeAuditor periodically verifies that every scope is ranked 1..N.
	ServiceModeScopeAuditor ServiceMode = "scope-auditor"
)

// ValidServiceModes returns all valid service mode names.
func ValidServiceModes() []ServiceMode {
	return []ServiceMode{ServiceModeHTTP, ServiceModeScopeAuditor}
}

// Valid reports whether m is a known mode.
func (m ServiceMode) Valid() bool {
	return slices.Contains(ValidServiceModes(), m)
}

// ParseServices parses a comma-delimited SERVICES value such as "http, scope-auditor".
// Names are case-insensitive; blanks and repeats are ignored.
func ParseServices(servicesStr string) (map[ServiceMode]bool, error) {
	if strings.TrimSpace(servicesStr) == "" {
		return map[ServiceMode]bool{}, errors.New("at least one service must be specified")
	}

	services := make(map[ServiceMode]bool)
	for part := range strings.SplitSeq(servicesStr, ",") {
		name := strings.ToLower(strings.TrimSpace(part))
		if name == "" {
			continue
		}
		mode := ServiceMode(name)
		if !mode.Valid() {
			return nil, fmt.Errorf("invalid service name: %q (valid options: %s)", name, validModeList())
		}
		services[mode] = true
	}

	if len(services) == 0 {
		return nil, errors.New("at least one valid service must be specified")
	}
	return services, nil
}

func validModeList() string {
	modes := ValidServiceModes()
	names := make([]string, len(modes))
	for i, m := range modes {
		names[i] = string(m)
	}
	return strings.Join(names, ", ")
}
