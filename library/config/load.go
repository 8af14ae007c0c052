package config

import (
	"os"
	"path/filepath"

	errors "github.com/Laisky/errors/v2"
	gconfig "github.com/Laisky/go-config/v2"
	"github.com/Laisky/zap"

	"github.com/Laisky/laisky-gallery-search/library/log"
)

// LoadFromFile merges the yaml file at cfgPath into the shared configuration.
//
// A missing file is not an error, every setting has a default.
func LoadFromFile(cfgPath string) error {
	if cfgPath == "" {
		return nil
	}

	if _, err := os.Stat(cfgPath); err != nil {
		if os.IsNotExist(err) {
			log.Logger.Debug("configuration file not found, use defaults",
				zap.String("config", cfgPath))
			return nil
		}
		return errors.Wrapf(err, "stat config `%s`", cfgPath)
	}

	gconfig.Shared.Set("cfg_dir", filepath.Dir(cfgPath))
	if err := gconfig.Shared.LoadFromFile(cfgPath); err != nil {
		return errors.Wrapf(err, "load configuration `%s`", cfgPath)
	}

	log.Logger.Info("load configuration",
		zap.String("config", cfgPath))
	return nil
}
