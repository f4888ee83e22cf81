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

package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"

	"github.com/coreledger/multipay/internal/config"
	"github.com/coreledger/multipay/internal/logging"
	"github.com/coreledger/multipay/internal/storage"
	"github.com/coreledger/multipay/internal/version"

	_ "go.uber.org/automaxprocs"
)

const (
	programName = "paymentengine"
)

var cmdlineFlags struct {
	configFile string
	version    bool
}

func main() {
	flag.StringVar(&cmdlineFlags.configFile, "config", "", "path to config file to load")
	flag.BoolVar(&cmdlineFlags.version, "version", false, "show version")
	flag.Parse()

	if cmdlineFlags.version {
		fmt.Printf("%s %s\n", programName, version.GetVersionString())
		os.Exit(0)
	}

	cfg, err := config.Load(cmdlineFlags.configFile)
	if err != nil {
		fmt.Printf("Failed to load config: %s\n", err)
		os.Exit(1)
	}

	logging.Configure()
	logger := logging.GetLogger()
	defer func() {
		if err := logger.Sync(); err != nil {
			return
		}
	}()

	if err := storage.GetStorage().Load(); err != nil {
		logger.Fatalf("failed to open storage: %s", err)
	}
	defer func() {
		if err := storage.GetStorage().Close(); err != nil {
			logger.Errorf("failed to close storage: %s", err)
		}
	}()

	if cfg.Debug.ListenPort > 0 {
		logger.Infof("starting debug listener on %s:%d", cfg.Debug.ListenAddress, cfg.Debug.ListenPort)
		go func() {
			err := http.ListenAndServe(fmt.Sprintf("%s:%d", cfg.Debug.ListenAddress, cfg.Debug.ListenPort), nil)
			if err != nil {
				logger.Fatalf("failed to start debug listener: %s", err)
			}
		}()
	}

	logger.Infof("payment engine configured for coin profiles: %v", cfg.CoinProfiles)

	// Wiring of coin-specific node facades into internal/payments is left
	// to the caller composing this process for a given deployment target;
	// this binary establishes the shared runtime (config, logging,
	// storage) every such composition depends on.
	select {}
}
