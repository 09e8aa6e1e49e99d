// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package utils

import (
	"errors"
	"strings"

	"github.com/LeeDigitalWorks/zapobj/pkg/logger"

	"github.com/spf13/viper"
)

var (
	ConfigurationFileDirectory string
)

// LoadConfiguration merges configFileName.{toml,yaml,json} from the usual
// search paths into viper and enables ZAPOBJ_* style env overrides. It
// reports whether a file was found.
func LoadConfiguration(configFileName string, required bool) bool {
	viper.SetConfigName(configFileName)
	if ConfigurationFileDirectory != "" {
		viper.AddConfigPath(ResolvePath(ConfigurationFileDirectory))
	}
	viper.AddConfigPath(".")
	viper.AddConfigPath("$HOME/.zapobj")
	viper.AddConfigPath("/usr/local/etc/zapobj/")
	viper.AddConfigPath("/etc/zapobj/")
	viper.SetEnvPrefix("zapobj")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.MergeInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			if required {
				logger.Fatal().Msgf("config file not found: %s", configFileName)
			}
			logger.Debug().Msgf("config file not found: %s", configFileName)
			return false
		}

		if required {
			logger.Fatal().Err(err).Msgf("failed to load required config file: %s", configFileName)
		}
		logger.Warn().Err(err).Msgf("failed to load config file: %s", configFileName)
		return false
	}
	logger.Info().Msgf("loaded config file: %s", viper.ConfigFileUsed())

	return true
}
