// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config is the top-level engine configuration. It is loaded once at
// process start and treated as immutable afterward.
type Config struct {
	Logging       LoggingConfig `yaml:"logging"`
	Debug         DebugConfig   `yaml:"debug"`
	Storage       StorageConfig `yaml:"storage"`
	CoinProfiles  []string      `yaml:"coinProfiles" envconfig:"COIN_PROFILES"`
	ListenAddress string        `yaml:"listenAddress" envconfig:"LISTEN_ADDRESS"`
	ListenPort    uint          `yaml:"port" envconfig:"PORT"`
}

type LoggingConfig struct {
	Level string `yaml:"level" envconfig:"LOGGING_LEVEL"`
}

type DebugConfig struct {
	ListenAddress string `yaml:"address" envconfig:"DEBUG_ADDRESS"`
	ListenPort    uint   `yaml:"port" envconfig:"DEBUG_PORT"`
}

type StorageConfig struct {
	Directory string `yaml:"dir" envconfig:"STORAGE_DIR"`
}

// Singleton config instance with default values
var globalConfig = &Config{
	CoinProfiles: []string{"bitcoin", "ripple"},
	ListenPort:   3000,
	Logging: LoggingConfig{
		Level: "info",
	},
	Debug: DebugConfig{
		ListenAddress: "localhost",
		ListenPort:    0,
	},
	Storage: StorageConfig{
		Directory: "./.multipay",
	},
}

// Load reads an optional YAML config file, overlays environment variables,
// and validates that every requested coin profile is registered.
func Load(configFile string) (*Config, error) {
	if configFile != "" {
		buf, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %s", err)
		}
		if err := yaml.Unmarshal(buf, globalConfig); err != nil {
			return nil, fmt.Errorf("error parsing config file: %s", err)
		}
	}
	// Load config values from environment variables
	// We use "dummy" as the app name here to (mostly) prevent picking up env
	// vars that we hadn't explicitly specified in annotations above
	if err := envconfig.Process("dummy", globalConfig); err != nil {
		return nil, fmt.Errorf("error processing environment: %s", err)
	}
	available := GetAvailableCoinProfiles()
	for _, name := range globalConfig.CoinProfiles {
		found := false
		for _, a := range available {
			if a == name {
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf(
				"unknown coin profile: %s: available profiles: %s",
				name,
				strings.Join(available, ","),
			)
		}
	}
	return globalConfig, nil
}

// GetConfig returns the global config instance.
func GetConfig() *Config {
	return globalConfig
}
