package uflp

import (
	"fmt"
	"os"
	"time"

	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/host"
	"github.com/shirou/gopsutil/mem"
	"gopkg.in/yaml.v3"
)

// HostInfo saves the basic system information of the generating machine.
type HostInfo struct {
	Platform string `yaml:"platform"`
	CPU      string `yaml:"cpu"`
	RAM      string `yaml:"ram"`
}

// Manifest is the YAML sidecar written next to a dataset after a run.
type Manifest struct {
	RunID     string    `yaml:"run_id"`
	Started   time.Time `yaml:"started"`
	Finished  time.Time `yaml:"finished"`
	Config    Config    `yaml:"config"`
	Requested int       `yaml:"requested"`
	Written   int       `yaml:"written"`
	Skipped   int       `yaml:"skipped"`
	Failures  []string  `yaml:"failures,omitempty"`
	Error     string    `yaml:"error,omitempty"`
	Host      HostInfo  `yaml:"host"`
}

// CollectHostInfo is best effort: fields the platform cannot report stay
// empty.
func CollectHostInfo() HostInfo {
	var info HostInfo
	if hostStat, err := host.Info(); err == nil {
		info.Platform = hostStat.Platform
	}
	if cpuStat, err := cpu.Info(); err == nil && len(cpuStat) > 0 {
		info.CPU = cpuStat[0].ModelName
	}
	if vmStat, err := mem.VirtualMemory(); err == nil {
		info.RAM = fmt.Sprintf("%d GB", vmStat.Total/1024/1024/1024)
	}
	return info
}

func NewManifest(cfg Config, report *Report, runErr error) *Manifest {
	m := &Manifest{
		RunID:     report.RunID,
		Started:   report.Started,
		Finished:  report.Finished,
		Config:    cfg,
		Requested: report.Requested,
		Written:   report.Written,
		Skipped:   report.Skipped,
		Host:      CollectHostInfo(),
	}
	for _, err := range report.Failures {
		m.Failures = append(m.Failures, err.Error())
	}
	if runErr != nil {
		m.Error = runErr.Error()
	}
	return m
}

func WriteManifest(path string, m *Manifest) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ReadManifest loads a manifest written by WriteManifest.
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	m := new(Manifest)
	if err := yaml.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("manifest %s: %w", path, err)
	}
	return m, nil
}
