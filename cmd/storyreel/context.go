package main

import (
	"strings"
	"sync"

	"storyreel/internal/config"
)

type commandContext struct {
	configFlag    *string
	outputDirFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag, outputDirFlag *string) *commandContext {
	return &commandContext{
		configFlag:    configFlag,
		outputDirFlag: outputDirFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if c.outputDirFlag != nil && strings.TrimSpace(*c.outputDirFlag) != "" {
			expanded, expandErr := config.ExpandPath(*c.outputDirFlag)
			if expandErr != nil {
				c.configErr = expandErr
				return
			}
			cfg.Paths.OutputDir = expanded
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}
