// Posture Agent - Local Security Posture Audit
//
// Runs the six domain scanners (network, processes, filesystem,
// dependencies, configuration, containers) concurrently, aggregates a
// risk-scored report, and signs it so consumers can prove it has not
// been altered.
//
//	posture-agent -scan -out report.json
//	posture-agent -verify report.json
//	posture-agent -list
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/exploopio/posture/pkg/attest"
	"github.com/exploopio/posture/pkg/core"
	"github.com/exploopio/posture/pkg/health"
	"github.com/exploopio/posture/pkg/keys"
	"github.com/exploopio/posture/pkg/metrics"
	"github.com/exploopio/posture/pkg/orchestrator"
	"github.com/exploopio/posture/pkg/report"
	"github.com/exploopio/posture/pkg/scanners"
	"github.com/exploopio/posture/pkg/scanners/configuration"
	"github.com/exploopio/posture/pkg/scanners/dependency"
	"github.com/exploopio/posture/pkg/scanners/filesystem"
	"github.com/exploopio/posture/pkg/store"
)

const (
	appName    = "posture-agent"
	appVersion = "1.0.0"
)

// Config represents the agent configuration file.
type Config struct {
	Agent struct {
		Verbose        bool          `yaml:"verbose"`
		ScannerTimeout time.Duration `yaml:"scanner_timeout"`
	} `yaml:"agent"`

	KeysDir  string `yaml:"keys_dir"`
	Database string `yaml:"database"`

	Scanners struct {
		FilesystemRoots []string `yaml:"filesystem_roots"`
		DependencyDir   string   `yaml:"dependency_dir"`
		SSHDConfigPath  string   `yaml:"sshd_config_path"`
	} `yaml:"scanners"`
}

func loadConfig(path string) (*Config, error) {
	cfg := &Config{}
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

func defaultDatabase() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "posture.db"
	}
	return filepath.Join(home, ".posture", "posture.db")
}

func main() {
	var (
		scanMode      = flag.Bool("scan", false, "Run a full posture scan (default when no mode is given)")
		verifyPath    = flag.String("verify", "", "Verify a signed artifact file or a record ID from -list")
		listMode      = flag.Bool("list", false, "List previously issued artifacts")
		configPath    = flag.String("config", "", "YAML configuration file")
		outPath       = flag.String("out", "", "Write the signed artifact to this file (default: stdout)")
		keysDir       = flag.String("keys-dir", "", "Key directory (default: ~/.posture/keys)")
		pubKeyPath    = flag.String("pubkey", "", "Public key for verification (default: artifact's public_key_ref)")
		skipSign      = flag.Bool("skip-sign", false, "Produce an unsigned report (explicitly requested only)")
		timeout       = flag.Duration("timeout", orchestrator.DefaultScannerTimeout, "Per-scanner timeout")
		verbose       = flag.Bool("verbose", false, "Verbose logging")
		metricsListen = flag.String("metrics-listen", "", "Serve Prometheus metrics and /healthz on this address during the scan")
		showVersion   = flag.Bool("version", false, "Print version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s %s\n", appName, appVersion)
		return
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	if *verbose {
		cfg.Agent.Verbose = true
	}
	if cfg.Agent.ScannerTimeout == 0 {
		cfg.Agent.ScannerTimeout = *timeout
	}
	if *keysDir != "" {
		cfg.KeysDir = *keysDir
	}
	if cfg.Database == "" {
		cfg.Database = defaultDatabase()
	}

	logger := core.LoggerFromVerbose(appName, cfg.Agent.Verbose)

	switch {
	case *verifyPath != "":
		os.Exit(runVerify(cfg, *verifyPath, *pubKeyPath))
	case *listMode && !*scanMode:
		os.Exit(runList(cfg))
	default:
		os.Exit(runScan(cfg, *outPath, *skipSign, *metricsListen, logger))
	}
}

func runScan(cfg *Config, outPath string, skipSign bool, metricsListen string, logger core.Logger) int {
	ctx := context.Background()

	registry := scanners.NewDefaultRegistry(os.Environ())
	applyScannerConfig(cfg, registry)

	collector := metrics.NewCollector()
	if metricsListen != "" {
		checker := health.NewHandler(appVersion)
		if m, err := keys.NewManager(cfg.KeysDir); err == nil {
			checker.Register(&health.KeyCheck{Dir: m.Dir(), PrivateFile: keys.PrivateKeyFile})
		}
		checker.Register(&health.DiskCheck{Path: filepath.Dir(cfg.Database), MinFreePercent: 5})
		checker.Register(&health.StoreCheck{Ping: func(ctx context.Context) error {
			s, err := store.Open(cfg.Database)
			if err != nil {
				return err
			}
			defer s.Close()
			return s.Ping(ctx)
		}})

		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", collector.Handler())
			mux.Handle("/healthz", checker.HTTPHandler())
			if err := http.ListenAndServe(metricsListen, mux); err != nil {
				logger.Warn("diagnostics listener: %v", err)
			}
		}()
	}

	orch := orchestrator.New(registry,
		orchestrator.WithTimeout(cfg.Agent.ScannerTimeout),
		orchestrator.WithLogger(logger),
		orchestrator.WithMetrics(collector),
	)

	logger.Info("starting full scan (per-scanner timeout %s)", cfg.Agent.ScannerTimeout)
	rep, err := orch.RunFullScan(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: scan failed: %v\n", err)
		return 2
	}
	logger.Info("scan complete: %d issues, risk level %s", rep.Summary.TotalIssues, rep.Summary.RiskLevel)

	artifact := &report.SignedArtifact{Report: *rep}

	if !skipSign {
		manager, err := keys.NewManager(cfg.KeysDir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 2
		}
		pair, err := manager.EnsureKeyPair()
		if err != nil {
			// The system must not silently fall back to an unsigned
			// artifact; -skip-sign is the only way to get one.
			fmt.Fprintf(os.Stderr, "Error: cannot sign report: %v\n", err)
			return 2
		}
		att, err := attest.Sign(rep, pair.Private)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 2
		}
		artifact.Hash = att.Hash
		artifact.Signature = att.Signature
		artifact.PublicKeyRef = pair.PublicKeyPath

		if id, err := saveArtifact(ctx, cfg.Database, artifact); err != nil {
			logger.Warn("artifact history not updated: %v", err)
		} else {
			logger.Info("artifact recorded as %s", id)
		}
	}

	data, err := json.MarshalIndent(artifact, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: encode artifact: %v\n", err)
		return 2
	}
	data = append(data, '\n')

	if outPath == "" {
		os.Stdout.Write(data)
	} else if err := os.WriteFile(outPath, data, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Error: write artifact: %v\n", err)
		return 2
	}

	// A completed scan exits successfully even with degraded domains.
	return 0
}

func applyScannerConfig(cfg *Config, registry *scanners.Registry) {
	if len(cfg.Scanners.FilesystemRoots) > 0 {
		fs := filesystem.NewScanner()
		fs.Roots = cfg.Scanners.FilesystemRoots
		registry.Register(fs)
	}
	if cfg.Scanners.DependencyDir != "" {
		dep := dependency.NewScanner()
		dep.TargetDir = cfg.Scanners.DependencyDir
		registry.Register(dep)
	}
	if cfg.Scanners.SSHDConfigPath != "" {
		conf := configuration.NewScanner(os.Environ())
		conf.SSHDConfigPath = cfg.Scanners.SSHDConfigPath
		registry.Register(conf)
	}
}

func runVerify(cfg *Config, artifactRef, pubKeyPath string) int {
	artifact, err := loadArtifact(context.Background(), cfg.Database, artifactRef)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}

	keyPath := pubKeyPath
	if keyPath == "" {
		keyPath = artifact.PublicKeyRef
	}
	pub, err := keys.LoadPublicKey(keyPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}

	if attest.Verify(&artifact.Report, artifact.Hash, artifact.Signature, pub) {
		fmt.Println("VALID: report integrity and signature verified")
		return 0
	}
	fmt.Println("INVALID: report is tampered or invalid")
	return 1
}

// loadArtifact resolves a verification reference: an artifact file on
// disk, or the record ID of a scan in the artifact history.
func loadArtifact(ctx context.Context, dbPath, ref string) (*report.SignedArtifact, error) {
	data, err := os.ReadFile(ref)
	switch {
	case err == nil:
		var artifact report.SignedArtifact
		if err := json.Unmarshal(data, &artifact); err != nil {
			return nil, fmt.Errorf("parse artifact: %w", err)
		}
		return &artifact, nil
	case errors.Is(err, fs.ErrNotExist):
		s, err := store.Open(dbPath)
		if err != nil {
			return nil, err
		}
		defer s.Close()
		return s.GetArtifact(ctx, ref)
	default:
		return nil, fmt.Errorf("read artifact: %w", err)
	}
}

func runList(cfg *Config) int {
	s, err := store.Open(cfg.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}
	defer s.Close()

	records, err := s.ListArtifacts(context.Background(), 50)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}
	if len(records) == 0 {
		fmt.Println("No artifacts recorded.")
		return 0
	}

	for _, r := range records {
		fmt.Printf("%s  %s  %-8s  %s  %s\n",
			r.ID, r.CreatedAt.Format(time.RFC3339), r.RiskLevel, r.Hostname, r.Hash[:16])
	}
	return 0
}

func saveArtifact(ctx context.Context, dbPath string, artifact *report.SignedArtifact) (string, error) {
	s, err := store.Open(dbPath)
	if err != nil {
		return "", err
	}
	defer s.Close()
	return s.SaveArtifact(ctx, artifact)
}
