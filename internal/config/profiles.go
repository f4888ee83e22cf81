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

import "github.com/coreledger/multipay/internal/feepolicy"

// Family names the settlement model a coin profile belongs to. The two
// families drive which facade (UTXO selector vs. account-ledger scanner)
// the composition root wires up for a given profile.
type Family string

const (
	// FamilyUTXO covers Bitcoin-style chains with an unspent-output set.
	FamilyUTXO Family = "UTXO"

	// FamilyAccount covers ledger/account-model chains such as Ripple.
	FamilyAccount Family = "ACCOUNT"
)

// Configuration holds the per-coin tunables named in the recognized
// options list: decimals, fee floors, dust and change thresholds, and the
// target size of the UTXO pool the change splitter aims to maintain.
type Configuration struct {
	// Decimals is the conversion factor between main and base denominations.
	Decimals int32

	// MinTxFee, if set, floors every computed fee.
	MinTxFee *feepolicy.FeeRate

	// NetworkMinRelayFee is an absolute lower bound on fees, in base units.
	NetworkMinRelayFee int64

	// DustThreshold: outputs at or below this base-unit value are never
	// emitted.
	DustThreshold int64

	// TargetUtxoPoolSize is the number of spendable outputs the selector
	// aims to keep for the address: it adds as many change outputs as the
	// unselected UTXOs fall short of this size, and at least one; must be
	// >= 1.
	TargetUtxoPoolSize int

	// MinChange is a main-denomination value; change outputs at or below it
	// (once converted to base units) are dropped.
	MinChange string
}

// CoinProfile binds a Configuration to a named coin and its settlement
// family.
type CoinProfile struct {
	Name        string
	Family      Family
	AssetSymbol string
	Config      Configuration
}

// coinProfiles is the built-in registry of recognized coin profiles. A
// deployment selects from these by name via Config.CoinProfiles.
var coinProfiles = map[string]CoinProfile{
	"bitcoin": {
		Name:        "bitcoin",
		Family:      FamilyUTXO,
		AssetSymbol: "BTC",
		Config: Configuration{
			Decimals:           8,
			NetworkMinRelayFee: 1000,
			DustThreshold:      546,
			TargetUtxoPoolSize: 1,
			MinChange:          "0",
		},
	},
	"litecoin": {
		Name:        "litecoin",
		Family:      FamilyUTXO,
		AssetSymbol: "LTC",
		Config: Configuration{
			Decimals:           8,
			NetworkMinRelayFee: 1000,
			DustThreshold:      546,
			TargetUtxoPoolSize: 1,
			MinChange:          "0",
		},
	},
	"ripple": {
		Name:        "ripple",
		Family:      FamilyAccount,
		AssetSymbol: "XRP",
		Config: Configuration{
			Decimals:           6,
			NetworkMinRelayFee: 10,
			DustThreshold:      0,
			TargetUtxoPoolSize: 1,
			MinChange:          "0",
		},
	},
}

// GetCoinProfile looks up a registered profile by name.
func GetCoinProfile(name string) (CoinProfile, bool) {
	profile, ok := coinProfiles[name]
	return profile, ok
}

// GetAvailableCoinProfiles returns the names of all registered profiles.
func GetAvailableCoinProfiles() []string {
	names := make([]string, 0, len(coinProfiles))
	for name := range coinProfiles {
		names = append(names, name)
	}
	return names
}
