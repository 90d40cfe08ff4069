package config

import "fmt"

// SweeperConfig configures the expiry sweep worker.
//
// Both schedules are standard 5-field cron specs evaluated in UTC. The
// defaults mirror the sweep contract: the daily pass runs at 00:01 and tears
// down rules dated yesterday, the monthly pass runs at 00:01 on the 1st and
// catches anything dated last month that the daily pass missed.
type SweeperConfig struct {
	DailySpec   string `envconfig:"DAILY_SPEC" default:"1 0 * * *"`
	MonthlySpec string `envconfig:"MONTHLY_SPEC" default:"1 0 1 * *"`
}

// Validate checks the sweeper configuration.
func (c *SweeperConfig) Validate() error {
	if c.DailySpec == "" {
		return fmt.Errorf("sweeper daily spec cannot be empty")
	}
	if c.MonthlySpec == "" {
		return fmt.Errorf("sweeper monthly spec cannot be empty")
	}
	return nil
}
