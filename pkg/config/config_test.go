package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/queueworks/station-sim/pkg/models"
)

const minimalYAML = `
model: mms
arrival_rate_per_hour: 30
mean_service_minutes: 4
servers: 3
operating_hours: 8
`

func TestParseYAMLMinimal(t *testing.T) {
	cfg, err := ParseYAMLString(minimalYAML)
	if err != nil {
		t.Fatalf("ParseYAMLString: %v", err)
	}
	if cfg.Model != models.ModelMMS {
		t.Errorf("Model = %s, want mms", cfg.Model)
	}
	if cfg.Servers != 3 {
		t.Errorf("Servers = %d, want 3", cfg.Servers)
	}
	// Defaults.
	if cfg.ArrivalDistribution != models.DistPoisson {
		t.Errorf("ArrivalDistribution = %s, want poisson default", cfg.ArrivalDistribution)
	}
	if cfg.ServiceDistribution != models.DistPoisson {
		t.Errorf("ServiceDistribution = %s, want poisson default", cfg.ServiceDistribution)
	}
	if cfg.SnapshotIntervalMinutes != 5 {
		t.Errorf("SnapshotIntervalMinutes = %f, want 5 default", cfg.SnapshotIntervalMinutes)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %s, want info default", cfg.LogLevel)
	}
	if cfg.DayMinutes() != 480 {
		t.Errorf("DayMinutes = %f, want 480", cfg.DayMinutes())
	}
}

func TestParseYAMLFullFeatureSet(t *testing.T) {
	yamlText := `
model: mmsk
arrival_rate_per_hour: 60
mean_service_minutes: 3
servers: 2
capacity: 10
arrival_distribution: erlang
arrival_erlang_k: 3
service_distribution: uniform
open_hour: 9
operating_hours: 10
impatience:
  balk_threshold: 5
  mean_patience_minutes: 8
retrial:
  mean_delay_minutes: 4
breakdowns:
  mtbf_minutes: 240
  mttr_minutes: 15
skills:
  routing: true
  ratios:
    BILLING: 0.3
    TECH: 0.2
topology:
  mode: dedicated
  jockeying: true
batch:
  max_batch_size: 4
  bulk_min: 1
  bulk_max: 3
  workload_multiplier_min: 0.8
  workload_multiplier_max: 1.4
panic:
  queue_threshold: 12
  rate_multiplier: 1.5
service_level:
  target_wait_minutes: 5
efficiency:
  tiers:
    - multiplier: 1.2
      seniority: senior
      weight: 1
    - multiplier: 0.9
      seniority: junior
      weight: 3
priority:
  vip_probability: 0.1
`
	cfg, err := ParseYAMLString(yamlText)
	if err != nil {
		t.Fatalf("ParseYAMLString: %v", err)
	}
	if !cfg.DedicatedQueues() {
		t.Error("expected dedicated topology")
	}
	if !cfg.SkillRouting() {
		t.Error("expected skill routing enabled")
	}
	if cfg.MaxBatchSize() != 4 {
		t.Errorf("MaxBatchSize = %d, want 4", cfg.MaxBatchSize())
	}
	if cfg.Skills.Ratios["BILLING"] != 0.3 {
		t.Errorf("BILLING ratio = %f, want 0.3", cfg.Skills.Ratios["BILLING"])
	}
	if len(cfg.Efficiency.Tiers) != 2 {
		t.Errorf("tiers = %d, want 2", len(cfg.Efficiency.Tiers))
	}
}

func TestParseYAMLRejectsInvalid(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"bad model", `
model: mmx
arrival_rate_per_hour: 10
mean_service_minutes: 1
servers: 1
`},
		{"mmsk without capacity", `
model: mmsk
arrival_rate_per_hour: 10
mean_service_minutes: 1
servers: 2
`},
		{"capacity below servers", `
model: mmsk
arrival_rate_per_hour: 10
mean_service_minutes: 1
servers: 4
capacity: 2
`},
		{"mmsn without population", `
model: mmsn
arrival_rate_per_hour: 10
mean_service_minutes: 1
servers: 2
`},
		{"bad distribution", `
model: mms
arrival_rate_per_hour: 10
mean_service_minutes: 1
servers: 1
arrival_distribution: weibull
`},
		{"service trace alone", `
model: mms
arrival_rate_per_hour: 10
mean_service_minutes: 1
servers: 1
service_distribution: trace
`},
		{"jockeying on common topology", `
model: mms
arrival_rate_per_hour: 10
mean_service_minutes: 1
servers: 2
topology:
  mode: common
  jockeying: true
`},
		{"short hourly schedule", `
model: mms
arrival_rate_per_hour: 10
mean_service_minutes: 1
servers: 1
schedule:
  hourly_arrival_rates: [1, 2, 3]
`},
		{"skill ratios above one", `
model: mms
arrival_rate_per_hour: 10
mean_service_minutes: 1
servers: 1
skills:
  ratios:
    A: 0.7
    B: 0.6
`},
		{"panic multiplier below one", `
model: mms
arrival_rate_per_hour: 10
mean_service_minutes: 1
servers: 1
panic:
  queue_threshold: 5
  rate_multiplier: 0.9
`},
		{"bulk min above max", `
model: mms
arrival_rate_per_hour: 10
mean_service_minutes: 1
servers: 1
batch:
  bulk_min: 5
  bulk_max: 2
`},
		{"zero-weight efficiency tier", `
model: mms
arrival_rate_per_hour: 10
mean_service_minutes: 1
servers: 1
efficiency:
  tiers:
    - multiplier: 1.0
      weight: 0
`},
		{"vip probability above one", `
model: mms
arrival_rate_per_hour: 10
mean_service_minutes: 1
servers: 1
priority:
  vip_probability: 1.5
`},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if _, err := ParseYAMLString(c.yaml); err == nil {
				t.Errorf("expected validation error")
			}
		})
	}
}

func TestParseYAMLMalformed(t *testing.T) {
	if _, err := ParseYAMLString("model: [not, a, scalar"); err == nil {
		t.Error("expected parse error for malformed yaml")
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "station.yaml")
	if err := os.WriteFile(path, []byte(minimalYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Model != models.ModelMMS {
		t.Errorf("Model = %s, want mms", cfg.Model)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig("/does/not/exist.yaml"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestMM1ForcesSingleServer(t *testing.T) {
	cfg, err := ParseYAMLString(`
model: mm1
arrival_rate_per_hour: 10
mean_service_minutes: 1
`)
	if err != nil {
		t.Fatalf("ParseYAMLString: %v", err)
	}
	if cfg.Servers != 1 {
		t.Errorf("Servers = %d, want 1", cfg.Servers)
	}
}
