// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2021 MfgLedger Project
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package addressing - deterministic ledger addresses for batch records
//
// A business key maps to one fixed-width 70 character address:
//
//	cbefd0 ++ 01 ++ 01 ++ 44*'0' ++ batch id left-padded to 14 ++ 00
//
// cbefd0 is the first six hex characters of SHA-512("mfg_batch_ledger")
// and identifies this application's region of the ledger state. The two
// following pairs identify the batch entity kind and the GS1 identifier
// scheme. Identifier schemes are given disjoint prefix pairs here at
// compile time so that their address ranges can never overlap.
//
// Keys longer than the padding width are rejected, never truncated:
// truncation would map two distinct keys to one address and break the
// record list uniqueness invariant.
package addressing
