// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2021 MfgLedger Project
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package batchrecord - manufactured batch records and their canonical
// binary form
//
// A BatchEntity is one logical ledger record; a RecordList is the
// decoded content of one ledger address and may hold several entities
// whose business keys pad to the same address.
//
// The packed form must be byte-identical on every node that applies
// the same mutation sequence, so records are serialized field by field
// with varint lengths and the record list keeps its elements sorted by
// batch id. General purpose serializers that permit field reordering
// or map iteration cannot satisfy this, hence the hand packed format.
package batchrecord
