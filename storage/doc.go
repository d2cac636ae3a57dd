// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2021 MfgLedger Project
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package storage - maintain the on-disk ledger state store
//
// This maintains a LevelDB database split into a series of pools.
// Each pool is defined by a prefix byte that is obtained from the
// prefix tag in the struct defining the available pools.
//
// Notes:
// 1. each separate pool has a single byte prefix (to spread the keys in LevelDB)
// 2. ++            = concatenation of byte data
// 3. address       = 70 byte state address (ASCII hex digits)
// 4. commit number = big endian uint64 (8 bytes)
//
// Batches:
//
//	M ++ address        - current record list for the address
//	                      data: packed record list
//
// Journal:
//
//	J ++ commit number  - payload applied at that commit
//	                      data: packed payload
//
// Testing:
//
//	Z ++ key            - testing data
package storage
