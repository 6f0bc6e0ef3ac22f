package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// OutputPaths lays out every file a run writes under its output directory
type OutputPaths struct {
	Root           string
	StatsDir       string
	VolatilityDir  string
	SpilloverDir   string
	RollingDir     string
	SensitivityDir string

	Workbook    string
	TraceFile   string
	MetricsFile string
}

// NewOutputPaths returns the layout rooted at dir
func NewOutputPaths(dir string) *OutputPaths {
	return &OutputPaths{
		Root:           dir,
		StatsDir:       filepath.Join(dir, "stats"),
		VolatilityDir:  filepath.Join(dir, "volatility"),
		SpilloverDir:   filepath.Join(dir, "spillover"),
		RollingDir:     filepath.Join(dir, "rolling"),
		SensitivityDir: filepath.Join(dir, "sensitivity"),
		Workbook:       filepath.Join(dir, "spillovers.xlsx"),
		TraceFile:      filepath.Join(dir, "trace.json"),
		MetricsFile:    filepath.Join(dir, "metrics.prom"),
	}
}

// EnsureDirectories creates all output directories if they don't exist
func (p *OutputPaths) EnsureDirectories() error {
	directories := []string{
		p.Root,
		p.StatsDir,
		p.VolatilityDir,
		p.SpilloverDir,
		p.RollingDir,
		p.SensitivityDir,
	}

	logger := slog.Default()
	for _, dir := range directories {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
		logger.Debug("Ensured directory exists", slog.String("directory", dir))
	}
	return nil
}

// Staging returns the layout a run writes its results into before they are
// published under p. It sits next to Root so Publish can rename across.
func (p *OutputPaths) Staging(runID string) *OutputPaths {
	return NewOutputPaths(filepath.Clean(p.Root) + ".partial-" + runID)
}

// results lists the result directories and the workbook of the layout.
// Telemetry files are not results.
func (p *OutputPaths) results() []string {
	return []string{
		p.StatsDir,
		p.VolatilityDir,
		p.SpilloverDir,
		p.RollingDir,
		p.SensitivityDir,
		p.Workbook,
	}
}

// Publish replaces every result under dst with the one staged under p, then
// removes p. Results of an earlier run under dst are removed even when p
// has no counterpart.
func (p *OutputPaths) Publish(dst *OutputPaths) error {
	if err := os.MkdirAll(dst.Root, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dst.Root, err)
	}
	src, to := p.results(), dst.results()
	for i := range src {
		if err := os.RemoveAll(to[i]); err != nil {
			return fmt.Errorf("failed to remove stale %s: %w", to[i], err)
		}
		if _, err := os.Stat(src[i]); os.IsNotExist(err) {
			continue
		}
		if err := os.Rename(src[i], to[i]); err != nil {
			return fmt.Errorf("failed to publish %s: %w", to[i], err)
		}
	}
	return p.Remove()
}

// Remove deletes the whole layout
func (p *OutputPaths) Remove() error {
	if err := os.RemoveAll(p.Root); err != nil {
		return fmt.Errorf("failed to remove %s: %w", p.Root, err)
	}
	return nil
}

// Stats returns the path of a descriptive statistics table
func (p *OutputPaths) Stats(name string) string {
	return filepath.Join(p.StatsDir, name+".csv")
}

// Volatility returns the path of a volatility panel table
func (p *OutputPaths) Volatility(name string) string {
	return filepath.Join(p.VolatilityDir, name+".csv")
}

// Spillover returns the path of a static spillover table
func (p *OutputPaths) Spillover(name string) string {
	return filepath.Join(p.SpilloverDir, name+".csv")
}

// Rolling returns the path of a rolling series table
func (p *OutputPaths) Rolling(name string) string {
	return filepath.Join(p.RollingDir, name+".csv")
}

// Sensitivity returns the path of a sensitivity envelope table
func (p *OutputPaths) Sensitivity(name string) string {
	return filepath.Join(p.SensitivityDir, name+".csv")
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
