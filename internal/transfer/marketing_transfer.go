package transfer

import "time"

// TopoffResult summarizes one top-off run for a tenant.
type TopoffResult struct {
	AccountsProcessed int       `json:"accounts_processed"`
	InstancesCreated  int       `json:"instances_created"`
	InstancesSkipped  int       `json:"instances_skipped"`
	WindowStart       time.Time `json:"window_start"`
	WindowEnd         time.Time `json:"window_end"`
}

// MixSummary reports one channel account's editorial mix for one ISO week.
type MixSummary struct {
	AccountID     int64          `json:"account_id"`
	AccountName   string         `json:"account_name"`
	ChannelKey    string         `json:"channel_key"`
	WeekStart     time.Time      `json:"week_start"`
	Counts        map[string]int `json:"counts"`
	Targets       map[string]int `json:"targets"`
	Warnings      []string       `json:"warnings"`
	OverallHealth string         `json:"overall_health"`
}

const (
	HealthGood     = "good"
	HealthWarning  = "warning"
	HealthCritical = "critical"
)
