// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2021 MfgLedger Project
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package addressing

import (
	"github.com/mfgledger/mfgledgerd/fault"
)

// ValidateGTIN - check that a batch business key is a well-formed GTIN
//
// digits only, one of the GS1 lengths, and a correct mod-10 check digit
// in the final position
//
// the merge engine accepts any key that fits the padding width; GTIN
// conformance is a handler concern applied before create/update
func ValidateGTIN(gtin string) error {
	switch len(gtin) {
	case 8, 12, 13, 14:
	default:
		return fault.ErrGTINLength
	}

	for _, c := range gtin {
		if c < '0' || c > '9' {
			return fault.ErrBatchIdNotNumeric
		}
	}

	// GS1 mod-10: weight 3 on alternate digits counted from the check digit
	sum := 0
	weight := 3
	for i := len(gtin) - 2; i >= 0; i -= 1 {
		sum += weight * int(gtin[i]-'0')
		weight = 4 - weight
	}
	check := (10 - sum%10) % 10
	if check != int(gtin[len(gtin)-1]-'0') {
		return fault.ErrGTINCheckDigit
	}

	return nil
}
