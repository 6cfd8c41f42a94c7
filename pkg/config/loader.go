package config

import (
	"fmt"
	"os"

	"github.com/queueworks/station-sim/pkg/models"
)

// LoadConfig loads and parses a configuration file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	cfg, err := ParseYAML(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// applyDefaults fills omitted optional fields with their defaults.
func applyDefaults(cfg *Config) {
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.ArrivalDistribution == "" {
		cfg.ArrivalDistribution = models.DistPoisson
	}
	if cfg.ServiceDistribution == "" {
		cfg.ServiceDistribution = models.DistPoisson
	}
	if cfg.ArrivalErlangK == 0 {
		cfg.ArrivalErlangK = 2
	}
	if cfg.ServiceErlangK == 0 {
		cfg.ServiceErlangK = 2
	}
	if cfg.OperatingHours == 0 {
		cfg.OperatingHours = 8
	}
	if cfg.SnapshotIntervalMinutes == 0 {
		cfg.SnapshotIntervalMinutes = 5
	}
	if cfg.Model == models.ModelMM1 {
		cfg.Servers = 1
	}
	if cfg.Servers == 0 && cfg.Model != models.ModelMMInf {
		cfg.Servers = 1
	}
}

// validateConfig performs construction-time validation so feature blocks
// do not need ad-hoc checks at every call site.
func validateConfig(cfg *Config) error {
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[cfg.LogLevel] {
		return fmt.Errorf("invalid log_level: %s (must be debug, info, warn, or error)", cfg.LogLevel)
	}

	switch cfg.Model {
	case models.ModelMM1, models.ModelMMS, models.ModelMMInf, models.ModelMMSK, models.ModelMMSN:
	default:
		return fmt.Errorf("invalid model: %s (must be mm1, mms, mminf, mmsk, or mmsn)", cfg.Model)
	}

	validDists := map[models.Distribution]bool{
		models.DistPoisson:       true,
		models.DistDeterministic: true,
		models.DistUniform:       true,
		models.DistErlang:        true,
		models.DistTrace:         true,
	}
	if !validDists[cfg.ArrivalDistribution] {
		return fmt.Errorf("invalid arrival_distribution: %s", cfg.ArrivalDistribution)
	}
	if !validDists[cfg.ServiceDistribution] {
		return fmt.Errorf("invalid service_distribution: %s", cfg.ServiceDistribution)
	}
	if cfg.ServiceDistribution == models.DistTrace {
		return fmt.Errorf("service_distribution trace is only valid together with arrival_distribution trace")
	}

	if cfg.Model != models.ModelMMInf && cfg.Servers <= 0 {
		return fmt.Errorf("servers must be positive, got %d", cfg.Servers)
	}
	if cfg.Model == models.ModelMM1 && cfg.Servers != 1 {
		return fmt.Errorf("mm1 requires exactly one server, got %d", cfg.Servers)
	}
	if cfg.Model == models.ModelMMSK && cfg.Capacity <= 0 {
		return fmt.Errorf("mmsk requires a positive capacity, got %d", cfg.Capacity)
	}
	if cfg.Model == models.ModelMMSK && cfg.Capacity < cfg.Servers {
		return fmt.Errorf("capacity %d cannot be below server count %d", cfg.Capacity, cfg.Servers)
	}
	if cfg.Model == models.ModelMMSN && cfg.Population <= 0 {
		return fmt.Errorf("mmsn requires a positive population, got %d", cfg.Population)
	}

	if cfg.OpenHour < 0 || cfg.OpenHour > 23 {
		return fmt.Errorf("open_hour must be in [0,23], got %d", cfg.OpenHour)
	}
	if cfg.OperatingHours <= 0 {
		return fmt.Errorf("operating_hours must be positive, got %f", cfg.OperatingHours)
	}
	if cfg.SnapshotIntervalMinutes <= 0 {
		return fmt.Errorf("snapshot_interval_minutes must be positive, got %f", cfg.SnapshotIntervalMinutes)
	}

	if cfg.Schedule != nil {
		if err := validateSchedule(cfg.Schedule); err != nil {
			return fmt.Errorf("schedule validation failed: %w", err)
		}
	}
	if cfg.Impatience != nil {
		if err := validateImpatience(cfg.Impatience); err != nil {
			return fmt.Errorf("impatience validation failed: %w", err)
		}
	}
	if cfg.Retrial != nil && cfg.Retrial.MeanDelayMinutes <= 0 {
		return fmt.Errorf("retrial mean_delay_minutes must be positive, got %f", cfg.Retrial.MeanDelayMinutes)
	}
	if cfg.Breakdowns != nil {
		if cfg.Breakdowns.MTBFMinutes <= 0 {
			return fmt.Errorf("breakdowns mtbf_minutes must be positive, got %f", cfg.Breakdowns.MTBFMinutes)
		}
		if cfg.Breakdowns.MTTRMinutes <= 0 {
			return fmt.Errorf("breakdowns mttr_minutes must be positive, got %f", cfg.Breakdowns.MTTRMinutes)
		}
	}
	if cfg.Skills != nil {
		if err := validateSkills(cfg.Skills); err != nil {
			return fmt.Errorf("skills validation failed: %w", err)
		}
	}
	if cfg.Topology != nil {
		if cfg.Topology.Mode != models.TopologyCommon && cfg.Topology.Mode != models.TopologyDedicated {
			return fmt.Errorf("topology mode must be common or dedicated, got %s", cfg.Topology.Mode)
		}
		if cfg.Topology.Jockeying && cfg.Topology.Mode != models.TopologyDedicated {
			return fmt.Errorf("jockeying requires dedicated topology")
		}
	}
	if cfg.Batch != nil {
		if err := validateBatch(cfg.Batch); err != nil {
			return fmt.Errorf("batch validation failed: %w", err)
		}
	}
	if cfg.Panic != nil {
		if cfg.Panic.QueueThreshold <= 0 {
			return fmt.Errorf("panic queue_threshold must be positive, got %d", cfg.Panic.QueueThreshold)
		}
		if cfg.Panic.RateMultiplier <= 1 {
			return fmt.Errorf("panic rate_multiplier must exceed 1, got %f", cfg.Panic.RateMultiplier)
		}
	}
	if cfg.ServiceLevel != nil && cfg.ServiceLevel.TargetWaitMinutes <= 0 {
		return fmt.Errorf("service_level target_wait_minutes must be positive, got %f", cfg.ServiceLevel.TargetWaitMinutes)
	}
	if cfg.Efficiency != nil {
		if err := validateEfficiency(cfg.Efficiency); err != nil {
			return fmt.Errorf("efficiency validation failed: %w", err)
		}
	}
	if cfg.Priority != nil {
		if cfg.Priority.VIPProbability < 0 || cfg.Priority.VIPProbability > 1 {
			return fmt.Errorf("priority vip_probability must be in [0,1], got %f", cfg.Priority.VIPProbability)
		}
	}

	return nil
}

func validateSchedule(s *ScheduleConfig) error {
	if len(s.HourlyArrivalRates) == 0 && len(s.HourlyHeadcount) == 0 {
		return fmt.Errorf("schedule must define hourly_arrival_rates or hourly_headcount")
	}
	if n := len(s.HourlyArrivalRates); n != 0 && n != 24 {
		return fmt.Errorf("hourly_arrival_rates must have 24 entries, got %d", n)
	}
	if n := len(s.HourlyHeadcount); n != 0 && n != 24 {
		return fmt.Errorf("hourly_headcount must have 24 entries, got %d", n)
	}
	for i, r := range s.HourlyArrivalRates {
		if r < 0 {
			return fmt.Errorf("hourly_arrival_rates[%d] cannot be negative", i)
		}
	}
	for i, h := range s.HourlyHeadcount {
		if h < 0 {
			return fmt.Errorf("hourly_headcount[%d] cannot be negative", i)
		}
	}
	return nil
}

func validateImpatience(imp *ImpatienceConfig) error {
	if imp.BalkThreshold <= 0 {
		return fmt.Errorf("balk_threshold must be positive, got %d", imp.BalkThreshold)
	}
	if imp.MeanPatienceMinutes <= 0 {
		return fmt.Errorf("mean_patience_minutes must be positive, got %f", imp.MeanPatienceMinutes)
	}
	return nil
}

func validateSkills(s *SkillsConfig) error {
	if len(s.Ratios) == 0 {
		return fmt.Errorf("skills block requires at least one ratio")
	}
	total := 0.0
	for skill, ratio := range s.Ratios {
		if skill == "" {
			return fmt.Errorf("skill tag cannot be empty")
		}
		if ratio < 0 || ratio > 1 {
			return fmt.Errorf("skill %s: ratio must be in [0,1], got %f", skill, ratio)
		}
		total += ratio
	}
	if total > 1 {
		return fmt.Errorf("skill ratios sum to %f, must not exceed 1 (remainder is GENERAL)", total)
	}
	return nil
}

func validateBatch(b *BatchConfig) error {
	if b.MaxBatchSize < 0 {
		return fmt.Errorf("max_batch_size cannot be negative, got %d", b.MaxBatchSize)
	}
	if b.BulkMin < 0 || b.BulkMax < 0 {
		return fmt.Errorf("bulk bounds cannot be negative")
	}
	if b.BulkMax > 0 && b.BulkMin > b.BulkMax {
		return fmt.Errorf("bulk_min %d exceeds bulk_max %d", b.BulkMin, b.BulkMax)
	}
	if b.WorkloadMultiplierMin < 0 || b.WorkloadMultiplierMax < b.WorkloadMultiplierMin {
		return fmt.Errorf("workload multiplier range [%f,%f] is invalid", b.WorkloadMultiplierMin, b.WorkloadMultiplierMax)
	}
	return nil
}

func validateEfficiency(e *EfficiencyConfig) error {
	if len(e.Tiers) == 0 {
		return fmt.Errorf("efficiency block requires at least one tier")
	}
	for i, tier := range e.Tiers {
		if tier.Multiplier <= 0 {
			return fmt.Errorf("tier %d: multiplier must be positive, got %f", i, tier.Multiplier)
		}
		if tier.Weight <= 0 {
			return fmt.Errorf("tier %d: weight must be positive, got %f", i, tier.Weight)
		}
	}
	return nil
}
