// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2021 MfgLedger Project
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package batchstate - read-modify-write merge of batch records in
// ledger state
//
// One ledger address holds one serialized RecordList; several business
// keys can pad to the same address, so every write decodes the
// existing blob, merges one element by identity and re-encodes the
// canonical form.
//
// The engine performs no locking and no retries: the host ledger
// serializes concurrent writers to an address, and within one mutation
// this is a strict read-then-write sequence.
package batchstate
