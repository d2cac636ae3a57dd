// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2021 MfgLedger Project
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package addressing

import (
	"fmt"

	"github.com/mfgledger/mfgledgerd/fault"
)

// AddressLength - number of characters in a ledger address
const AddressLength = 70

// address field widths
const (
	namespacePrefix = "cbefd0" // SHA-512("mfg_batch_ledger")[0:6]
	batchPrefix     = "01"     // entity kind: manufactured batch
	gs1Prefix       = "01"     // identifier scheme: GS1
	addressSuffix   = "00"

	// BatchIdPaddedLength - maximum business key width
	BatchIdPaddedLength = 14

	fillerLength = AddressLength -
		len(namespacePrefix) - len(batchPrefix) - len(gs1Prefix) -
		BatchIdPaddedLength - len(addressSuffix)
)

// Address - a fixed-width ledger state address
//
// held as its ASCII characters so the byte representation used as a
// key-value store key is identical on every node
type Address [AddressLength]byte

// BatchAddress - map a batch business key to its ledger address
//
// pure and deterministic; the only failure is a key that does not fit
// the padding width
func BatchAddress(batchId string) (Address, error) {
	var address Address

	if "" == batchId {
		return address, fault.ErrMissingBatchId
	}
	if len(batchId) > BatchIdPaddedLength {
		return address, fault.ErrBatchIdTooLong
	}

	n := copy(address[:], namespacePrefix)
	n += copy(address[n:], batchPrefix)
	n += copy(address[n:], gs1Prefix)
	for i := 0; i < fillerLength; i += 1 {
		address[n] = '0'
		n += 1
	}
	for i := 0; i < BatchIdPaddedLength-len(batchId); i += 1 {
		address[n] = '0'
		n += 1
	}
	n += copy(address[n:], batchId)
	copy(address[n:], addressSuffix)

	return address, nil
}

// String - the address as text
func (address Address) String() string {
	return string(address[:])
}

// GoString - for debugging
func (address Address) GoString() string {
	return fmt.Sprintf("<address:%s>", address[:])
}

// Bytes - the key bytes for the ledger key-value substrate
func (address Address) Bytes() []byte {
	return address[:]
}
