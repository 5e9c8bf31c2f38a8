package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"math"
	"net"
	"strconv"
	"strings"
	"time"

	nmap "github.com/Ullaakut/nmap/v3"
	"github.com/charmbracelet/log"

	"topowatch/internal/domain"
)

// NmapSource scans network targets with nmap and synthesizes a snapshot.
// Every scanned target becomes an intermediate network record and every
// host that is up becomes a terminal record declaring that network as a
// neighbor.
type NmapSource struct {
	targets           []string
	timeout           time.Duration
	portRange         string
	serviceDetection  bool
	osDetection       bool
	skipHostDiscovery bool
	logger            *log.Logger

	// scan runs one target and localSubnets resolves TargetAuto;
	// both are replaced in tests
	scan         func(ctx context.Context, target string) (*nmap.Run, error)
	localSubnets func() ([]string, error)
}

// PortInfo describes one open port on a scanned host
type PortInfo struct {
	Port    int    `json:"port"`
	Service string `json:"service"`
	Banner  string `json:"banner,omitempty"`
}

var wellKnownPorts = map[int]string{
	22:   "ssh",
	25:   "smtp",
	53:   "dns",
	80:   "http",
	443:  "https",
	445:  "smb",
	3389: "rdp",
	5432: "postgres",
	5900: "vnc",
	6443: "kubernetes",
	8080: "http-alt",
	8443: "https-alt",
	9090: "prometheus",
	9100: "node-exporter",
}

// NewNmapSource creates a new nmap-based snapshot source
// targets: list of CIDR ranges or individual IPs to scan
// opts: optional configuration options
func NewNmapSource(targets []string, opts ...NmapOption) *NmapSource {
	s := &NmapSource{
		targets:          targets,
		timeout:          10 * time.Minute,
		portRange:        "22,25,53,80,443,445,3389,5432,5900,6443,8080,8443,9090,9100",
		serviceDetection: true,
		osDetection:      false, // Requires root
		logger:           log.Default(),
	}
	s.scan = s.runScanner
	s.localSubnets = LocalSubnets

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the source identifier
func (s *NmapSource) Name() string {
	return "nmap"
}

// Fetch scans every target. A failed target fails the whole fetch, since a
// partial snapshot would prune every host behind it.
func (s *NmapSource) Fetch(ctx context.Context) (*domain.Snapshot, error) {
	if len(s.targets) == 0 {
		return nil, fmt.Errorf("nmap: no targets configured")
	}

	resolved, err := resolveTargets(s.targets, s.localSubnets)
	if err != nil {
		return nil, fmt.Errorf("nmap: %w", err)
	}
	targets, err := expandTargets(resolved)
	if err != nil {
		return nil, err
	}

	s.logger.Info("starting scan", "targets", targets)
	b := newSnapshotBuilder(s.Name())

	for _, target := range targets {
		result, err := s.scan(ctx, target)
		if err != nil {
			return nil, fmt.Errorf("nmap: scan %s: %w", target, err)
		}
		if err := s.processResults(target, result, b); err != nil {
			return nil, fmt.Errorf("nmap: scan %s: %w", target, err)
		}
	}

	snap := b.snapshot()
	s.logger.Info("scan complete", "records", len(snap.Records))
	return snap, nil
}

// runScanner performs an nmap scan on a single target
func (s *NmapSource) runScanner(ctx context.Context, target string) (*nmap.Run, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	opts := []nmap.Option{
		nmap.WithTargets(target),
		nmap.WithPorts(s.portRange),
	}
	if s.serviceDetection {
		opts = append(opts, nmap.WithServiceInfo())
	}
	// OS detection requires root
	if s.osDetection {
		opts = append(opts, nmap.WithOSDetection())
	}
	if s.skipHostDiscovery {
		opts = append(opts, nmap.WithSkipHostDiscovery())
	}

	scanner, err := nmap.NewScanner(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create scanner: %w", err)
	}

	s.logger.Debug("scanning target", "target", target)
	result, warnings, err := scanner.Run()
	if err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}
	if warnings != nil && len(*warnings) > 0 {
		s.logger.Warn("scan warnings", "target", target, "warnings", *warnings)
	}
	return result, nil
}

// processResults adds the target network and its up hosts to b
func (s *NmapSource) processResults(target string, result *nmap.Run, b *snapshotBuilder) error {
	if result == nil {
		return fmt.Errorf("nil scan result")
	}

	netID := networkNID(target)
	b.network(netID, map[string]string{"name": target, "cidr": target, "source": "nmap"})

	for _, host := range result.Hosts {
		if len(host.Addresses) == 0 {
			continue
		}
		if host.Status.State != "up" {
			continue
		}

		ip := primaryIP(host)
		attrs := s.hostAttributes(host, ip)
		b.host(hostNID(ip), attrs, domain.Neighbor{N: netID, D: map[string]string{"ip": ip}})
		s.logger.Debug("processed host", "ip", ip, "ports", attrs["ports"])
	}

	return nil
}

// hostAttributes builds the display attributes for a scanned host
func (s *NmapSource) hostAttributes(host nmap.Host, ip string) map[string]string {
	d := map[string]string{
		"name":   ip,
		"ip":     ip,
		"role":   inferRole(host.Ports),
		"source": "nmap",
	}

	if len(host.Hostnames) > 0 {
		hostname := host.Hostnames[0].Name
		d["hostname"] = hostname
		d["name"] = hostname
		if idx := strings.Index(hostname, "."); idx > 0 {
			if short := hostname[:idx]; len(short) > 2 {
				d["name"] = short
			}
		}
	}

	for _, addr := range host.Addresses {
		if addr.AddrType == "mac" {
			d["mac"] = strings.ToUpper(addr.Addr)
			if addr.Vendor != "" {
				d["vendor"] = addr.Vendor
			}
		}
	}

	if ports := getOpenPorts(host.Ports); len(ports) > 0 {
		parts := make([]string, len(ports))
		for i, p := range ports {
			parts[i] = strconv.Itoa(p)
		}
		d["ports"] = strings.Join(parts, ",")
	}

	if details := createPortDetails(host.Ports); len(details) > 0 {
		services := make([]string, 0, len(details))
		for _, p := range details {
			svc := fmt.Sprintf("%d/%s", p.Port, p.Service)
			if p.Banner != "" {
				svc += " " + p.Banner
			}
			services = append(services, svc)
		}
		d["services"] = strings.Join(services, "; ")
	}

	for k, v := range extractOSInfo(host.OS) {
		d[k] = v
	}

	return d
}

func primaryIP(host nmap.Host) string {
	for _, addr := range host.Addresses {
		if addr.AddrType == "ipv4" {
			return addr.Addr
		}
	}
	return host.Addresses[0].Addr
}

// createPortDetails creates PortInfo structures from nmap ports
func createPortDetails(ports []nmap.Port) []PortInfo {
	var details []PortInfo

	for _, port := range ports {
		if port.State.State != "open" {
			continue
		}

		serviceName := port.Service.Name
		if serviceName == "" {
			serviceName = wellKnownPorts[int(port.ID)]
			if serviceName == "" {
				serviceName = fmt.Sprintf("unknown-%d", port.ID)
			}
		}

		info := PortInfo{
			Port:    int(port.ID),
			Service: serviceName,
		}

		if port.Service.Product != "" {
			banner := port.Service.Product
			if port.Service.Version != "" {
				banner += " " + port.Service.Version
			}
			if port.Service.ExtraInfo != "" {
				banner += " (" + port.Service.ExtraInfo + ")"
			}
			info.Banner = banner
		}

		details = append(details, info)
	}

	return details
}

// getOpenPorts extracts list of open port numbers
func getOpenPorts(ports []nmap.Port) []int {
	var openPorts []int
	for _, port := range ports {
		if port.State.State == "open" {
			openPorts = append(openPorts, int(port.ID))
		}
	}
	return openPorts
}

// extractOSInfo converts the best nmap OS match to display attributes
func extractOSInfo(os nmap.OS) map[string]string {
	if len(os.Matches) == 0 {
		return nil
	}

	match := os.Matches[0]
	info := map[string]string{
		"os":          match.Name,
		"os_accuracy": strconv.Itoa(match.Accuracy),
	}

	for _, class := range match.Classes {
		if class.Vendor != "" {
			info["os_vendor"] = class.Vendor
		}
		if class.Family != "" {
			info["os_family"] = class.Family
		}
	}

	return info
}

// inferRole guesses a host role from open ports
func inferRole(ports []nmap.Port) string {
	portSet := make(map[uint16]bool)
	for _, p := range ports {
		if p.State.State == "open" {
			portSet[p.ID] = true
		}
	}

	switch {
	case portSet[53] && (portSet[80] || portSet[443]):
		return "router"
	case portSet[6443] || portSet[10250]:
		return "kubernetes"
	case portSet[3389] || portSet[445]:
		return "windows"
	case portSet[22] || portSet[80] || portSet[443] || portSet[8080]:
		return "server"
	default:
		return "unknown"
	}
}

// hostNID derives a stable identity from an address
func hostNID(ip string) domain.NID {
	if parsed := net.ParseIP(ip); parsed != nil {
		ip = parsed.String()
	}
	return hashNID("host:" + ip)
}

// networkNID derives a stable identity from a scan target
func networkNID(target string) domain.NID {
	return hashNID("net:" + target)
}

// hashNID maps a key onto the non-negative identities, so it can never
// collide with the Unconnected sentinel
func hashNID(key string) domain.NID {
	h := fnv.New64a()
	h.Write([]byte(key))
	return domain.NID(h.Sum64() & math.MaxInt64)
}

// expandTargets validates and normalizes CIDR notation targets
func expandTargets(targets []string) ([]string, error) {
	var expanded []string
	for _, target := range targets {
		if strings.Contains(target, "/") {
			_, ipNet, err := net.ParseCIDR(target)
			if err != nil {
				return nil, fmt.Errorf("invalid CIDR %s: %w", target, err)
			}
			// nmap handles the expansion itself
			expanded = append(expanded, ipNet.String())
		} else {
			expanded = append(expanded, target)
		}
	}
	return expanded, nil
}

// parsePorts validates a port range string in nmap format
func parsePorts(portRange string) (string, error) {
	// Supported: "80,443,8080" or "1-1000" or "22,80-443,8080"
	parts := strings.Split(portRange, ",")
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if strings.Contains(part, "-") {
			rangeParts := strings.Split(part, "-")
			if len(rangeParts) != 2 {
				return "", fmt.Errorf("invalid port range: %s", part)
			}
			start, err := strconv.Atoi(strings.TrimSpace(rangeParts[0]))
			if err != nil || start < 1 || start > 65535 {
				return "", fmt.Errorf("invalid port number: %s", rangeParts[0])
			}
			end, err := strconv.Atoi(strings.TrimSpace(rangeParts[1]))
			if err != nil || end < 1 || end > 65535 || end < start {
				return "", fmt.Errorf("invalid port number: %s", rangeParts[1])
			}
		} else {
			port, err := strconv.Atoi(part)
			if err != nil || port < 1 || port > 65535 {
				return "", fmt.Errorf("invalid port number: %s", part)
			}
		}
	}
	return portRange, nil
}

// snapshotBuilder accumulates synthesized records, merging hosts that
// appear under more than one target
type snapshotBuilder struct {
	source    string
	records   []domain.Record
	index     map[domain.NID]int
	networks  map[domain.NID]bool
	endpoints map[domain.NID][]domain.NID
}

func newSnapshotBuilder(source string) *snapshotBuilder {
	return &snapshotBuilder{
		source:    source,
		index:     make(map[domain.NID]int),
		networks:  make(map[domain.NID]bool),
		endpoints: make(map[domain.NID][]domain.NID),
	}
}

func (b *snapshotBuilder) network(nid domain.NID, d map[string]string) {
	if _, ok := b.index[nid]; ok {
		return
	}
	b.networks[nid] = true
	rec := domain.NewRecord(nid)
	rec.SetD(d)
	b.index[nid] = len(b.records)
	b.records = append(b.records, rec)
}

func (b *snapshotBuilder) host(nid domain.NID, d map[string]string, nb domain.Neighbor) {
	b.endpoints[nb.N] = append(b.endpoints[nb.N], nid)

	if i, ok := b.index[nid]; ok {
		rec := &b.records[i]
		rec.SetEdges(append(rec.Edges, nb))
		for k, v := range d {
			rec.D[k] = v
		}
		return
	}

	rec := domain.NewRecord(nid)
	rec.SetEdges([]domain.Neighbor{nb})
	rec.SetD(d)
	b.index[nid] = len(b.records)
	b.records = append(b.records, rec)
}

// snapshot finalizes the records, attaching each network's endpoint list
func (b *snapshotBuilder) snapshot() *domain.Snapshot {
	snap := domain.NewSnapshot(b.source)
	for _, rec := range b.records {
		if b.networks[rec.NID] {
			eps := b.endpoints[rec.NID]
			if eps == nil {
				eps = []domain.NID{}
			}
			raw, _ := json.Marshal(eps)
			rec.SetExtra("Endpoints", raw)
		}
		snap.AddRecord(rec)
	}
	return snap
}
