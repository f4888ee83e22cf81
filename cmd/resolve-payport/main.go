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
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/coreledger/multipay/internal/payport"
)

var cmdlineFlags struct {
	address  string
	index    uint
	extraID  string
	template string
}

func main() {
	flag.StringVar(&cmdlineFlags.address, "address", "", "raw address to resolve")
	flag.UintVar(&cmdlineFlags.index, "index", 0, "account index to derive an address from")
	flag.StringVar(&cmdlineFlags.extraID, "extra-id", "", "destination tag / memo to attach (record form)")
	flag.StringVar(&cmdlineFlags.template, "derive-template", "addr-%d", "printf template used to derive an address from -index")
	useIndex := flag.Bool("use-index", false, "resolve -index instead of -address")
	flag.Parse()

	var ref payport.Reference
	switch {
	case *useIndex:
		ref = payport.FromIndex(uint32(cmdlineFlags.index))
	case cmdlineFlags.extraID != "":
		if cmdlineFlags.address == "" {
			fmt.Printf("ERROR: -address is required with -extra-id\n")
			os.Exit(1)
		}
		ref = payport.FromRecord(cmdlineFlags.address, cmdlineFlags.extraID)
	case cmdlineFlags.address != "":
		ref = payport.FromAddress(cmdlineFlags.address)
	default:
		fmt.Printf("ERROR: specify one of -address or -use-index\n")
		os.Exit(1)
	}

	deriver := templateDeriver{template: cmdlineFlags.template}
	validator := nonEmptyValidator{}

	resolved, err := payport.Resolve(context.Background(), ref, deriver, validator)
	if err != nil {
		fmt.Printf("ERROR: failed to resolve payport: %s\n", err)
		os.Exit(1)
	}

	fmt.Printf("Address: %s\n", resolved.Address)
	fmt.Printf("ExtraID: %s\n", resolved.ExtraID)
}

// templateDeriver is a standin for a chain's HD-wallet deriver, producing a
// deterministic placeholder address from an account index via a
// caller-supplied printf template.
type templateDeriver struct {
	template string
}

func (d templateDeriver) DeriveAddress(ctx context.Context, index uint32) (string, error) {
	return fmt.Sprintf(d.template, index), nil
}

// nonEmptyValidator is a format-agnostic placeholder for a chain's real
// checksum/format validator: it rejects only the empty string.
type nonEmptyValidator struct{}

func (nonEmptyValidator) ValidateAddress(address string) bool {
	return address != ""
}
