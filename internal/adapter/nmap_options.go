package adapter

import (
	"time"

	"github.com/charmbracelet/log"
)

// NmapOption is a functional option for configuring NmapSource
type NmapOption func(*NmapSource)

// WithTimeout sets the timeout for scanning a single target
func WithTimeout(d time.Duration) NmapOption {
	return func(s *NmapSource) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithPortRange sets the ports to scan
// Format: "80,443,8080" or "1-1000" or "22,80-443,8080"
func WithPortRange(ports string) NmapOption {
	return func(s *NmapSource) {
		if validated, err := parsePorts(ports); err == nil {
			s.portRange = validated
		}
	}
}

// WithServiceDetection enables or disables service version detection (-sV)
func WithServiceDetection(enabled bool) NmapOption {
	return func(s *NmapSource) {
		s.serviceDetection = enabled
	}
}

// WithOSDetection enables or disables OS detection (-O)
// Note: OS detection requires root privileges
func WithOSDetection(enabled bool) NmapOption {
	return func(s *NmapSource) {
		s.osDetection = enabled
	}
}

// WithSkipHostDiscovery sets whether to skip ping and treat all hosts as online (-Pn)
// Useful for networks that block ICMP
func WithSkipHostDiscovery(skip bool) NmapOption {
	return func(s *NmapSource) {
		s.skipHostDiscovery = skip
	}
}

// WithFastScan enables fast scan mode (fewer ports, quicker results)
func WithFastScan() NmapOption {
	return func(s *NmapSource) {
		s.portRange = "22,80,443"
		s.serviceDetection = false
		s.timeout = 5 * time.Minute
	}
}

// WithNmapLogger sets the logger
func WithNmapLogger(l *log.Logger) NmapOption {
	return func(s *NmapSource) {
		if l != nil {
			s.logger = l.With("source", "nmap")
		}
	}
}
