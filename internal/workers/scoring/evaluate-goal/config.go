// internal/workers/scoring/evaluate-goal/config.go
package evaluategoal

import "time"

type Config struct {
	Timeout time.Duration
	Now     func() time.Time
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 10 * time.Second,
		Now:     time.Now,
	}
}
