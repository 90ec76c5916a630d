package report

import "time"

// Domain identifies one inspection domain.
type Domain string

const (
	DomainNetwork       Domain = "network"
	DomainProcesses     Domain = "processes"
	DomainFilesystem    Domain = "filesystem"
	DomainDependencies  Domain = "dependencies"
	DomainConfiguration Domain = "configuration"
	DomainContainers    Domain = "containers"
)

// Domains returns all domains in canonical order. This order is the
// hash-input order; completion order of scanners never affects it.
func Domains() []Domain {
	return []Domain{
		DomainNetwork,
		DomainProcesses,
		DomainFilesystem,
		DomainDependencies,
		DomainConfiguration,
		DomainContainers,
	}
}

// Finding is one discrete observation produced by a domain scanner.
// Immutable once produced.
type Finding struct {
	Subject  string            `json:"subject"`
	Issue    string            `json:"issue"`
	Severity Severity          `json:"severity"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// DomainResult is the typed output of one domain scanner. Each concrete
// result exposes its flattenable finding list and a degraded marker set
// by the orchestrator when the scanner failed or timed out.
type DomainResult interface {
	ResultDomain() Domain
	Findings() []Finding
	IsDegraded() bool
}

// NetworkResult holds open-port findings and the firewall state.
type NetworkResult struct {
	OpenPorts      []Finding `json:"open_ports"`
	FirewallActive bool      `json:"firewall_active"`
	Degraded       bool      `json:"degraded"`
}

func (r NetworkResult) ResultDomain() Domain { return DomainNetwork }
func (r NetworkResult) Findings() []Finding  { return r.OpenPorts }
func (r NetworkResult) IsDegraded() bool     { return r.Degraded }

// ProcessResult holds suspicious-process findings.
type ProcessResult struct {
	Suspicious []Finding `json:"suspicious"`
	Degraded   bool      `json:"degraded"`
}

func (r ProcessResult) ResultDomain() Domain { return DomainProcesses }
func (r ProcessResult) Findings() []Finding  { return r.Suspicious }
func (r ProcessResult) IsDegraded() bool     { return r.Degraded }

// FilesystemResult holds world-writable findings and the list of
// SUID/SGID binaries discovered.
type FilesystemResult struct {
	WorldWritable []Finding `json:"world_writable"`
	SetuidFiles   []string  `json:"setuid_files"`
	Degraded      bool      `json:"degraded"`
}

func (r FilesystemResult) ResultDomain() Domain { return DomainFilesystem }
func (r FilesystemResult) Findings() []Finding  { return r.WorldWritable }
func (r FilesystemResult) IsDegraded() bool     { return r.Degraded }

// VulnCounts are the dependency auditor's own severity buckets, carried
// verbatim into the summary.
type VulnCounts struct {
	Critical int `json:"critical"`
	High     int `json:"high"`
	Moderate int `json:"moderate"`
	Low      int `json:"low"`
}

// Total returns the sum of all buckets.
func (c VulnCounts) Total() int {
	return c.Critical + c.High + c.Moderate + c.Low
}

// DependencyResult holds vulnerability counts reported by the
// dependency auditor.
type DependencyResult struct {
	Counts   VulnCounts `json:"counts"`
	Degraded bool       `json:"degraded"`
}

func (r DependencyResult) ResultDomain() Domain { return DomainDependencies }
func (r DependencyResult) Findings() []Finding  { return nil }
func (r DependencyResult) IsDegraded() bool     { return r.Degraded }

// ConfigurationResult holds unsafe configuration directives and the
// names of environment variables that look like secrets. Values are
// never recorded.
type ConfigurationResult struct {
	UnsafeDirectives []Finding `json:"unsafe_directives"`
	EnvSecrets       []string  `json:"env_secrets"`
	KernelRelease    string    `json:"kernel_release,omitempty"`
	Degraded         bool      `json:"degraded"`
}

func (r ConfigurationResult) ResultDomain() Domain { return DomainConfiguration }
func (r ConfigurationResult) Findings() []Finding  { return r.UnsafeDirectives }
func (r ConfigurationResult) IsDegraded() bool     { return r.Degraded }

// ContainerResult holds findings about running containers.
type ContainerResult struct {
	RiskyContainers []Finding `json:"risky_containers"`
	Degraded        bool      `json:"degraded"`
}

func (r ContainerResult) ResultDomain() Domain { return DomainContainers }
func (r ContainerResult) Findings() []Finding  { return r.RiskyContainers }
func (r ContainerResult) IsDegraded() bool     { return r.Degraded }

// DegradedResult returns the empty, degraded result for a domain. The
// orchestrator substitutes it when a scanner fails or times out.
func DegradedResult(d Domain) DomainResult {
	switch d {
	case DomainNetwork:
		return NetworkResult{Degraded: true}
	case DomainProcesses:
		return ProcessResult{Degraded: true}
	case DomainFilesystem:
		return FilesystemResult{Degraded: true}
	case DomainDependencies:
		return DependencyResult{Degraded: true}
	case DomainConfiguration:
		return ConfigurationResult{Degraded: true}
	default:
		return ContainerResult{Degraded: true}
	}
}

// ResultSet carries the six domain results. It is a struct, not a map,
// so serialization order is fixed by declaration and can never depend
// on completion order or map iteration.
type ResultSet struct {
	Network       NetworkResult       `json:"network"`
	Processes     ProcessResult       `json:"processes"`
	Filesystem    FilesystemResult    `json:"filesystem"`
	Dependencies  DependencyResult    `json:"dependencies"`
	Configuration ConfigurationResult `json:"configuration"`
	Containers    ContainerResult     `json:"containers"`
}

// Set stores a domain result into its slot.
func (rs *ResultSet) Set(dr DomainResult) {
	switch v := dr.(type) {
	case NetworkResult:
		rs.Network = v
	case ProcessResult:
		rs.Processes = v
	case FilesystemResult:
		rs.Filesystem = v
	case DependencyResult:
		rs.Dependencies = v
	case ConfigurationResult:
		rs.Configuration = v
	case ContainerResult:
		rs.Containers = v
	}
}

// Get returns the result stored for a domain.
func (rs *ResultSet) Get(d Domain) DomainResult {
	switch d {
	case DomainNetwork:
		return rs.Network
	case DomainProcesses:
		return rs.Processes
	case DomainFilesystem:
		return rs.Filesystem
	case DomainDependencies:
		return rs.Dependencies
	case DomainConfiguration:
		return rs.Configuration
	default:
		return rs.Containers
	}
}

// Summary is derived from the result set and must always equal the
// deterministic function of it (see risk.Summarize).
type Summary struct {
	TotalIssues    int       `json:"total_issues"`
	CriticalIssues int       `json:"critical_issues"`
	HighIssues     int       `json:"high_issues"`
	MediumIssues   int       `json:"medium_issues"`
	LowIssues      int       `json:"low_issues"`
	RiskLevel      RiskLevel `json:"risk_level"`
}

// ScanReport is the unit that gets hashed and signed. It is never
// mutated after the summary is attached.
type ScanReport struct {
	Timestamp time.Time `json:"timestamp"`
	Hostname  string    `json:"hostname"`
	Results   ResultSet `json:"results"`
	Summary   Summary   `json:"summary"`
}

// SignedArtifact is the append-only evidence issued for a report.
type SignedArtifact struct {
	Report       ScanReport `json:"report"`
	Hash         string     `json:"hash"`
	Signature    string     `json:"signature"`
	PublicKeyRef string     `json:"public_key_ref"`
}
