package tui

import "time"

type Config struct {
	Theme                string        `json:"theme"`
	ReplaceHomeWithTilde bool          `json:"replace_home_with_tilde"`
	ProgressUpdateFreq   time.Duration `json:"progress_update_freq"`
}

func (c Config) progressFreq() time.Duration {
	if c.ProgressUpdateFreq <= 0 {
		return 150 * time.Millisecond
	}
	return c.ProgressUpdateFreq
}
