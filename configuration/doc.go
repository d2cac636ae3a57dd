// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2021 MfgLedger Project
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package configuration - read Lua configuration files
//
// the configuration file is a Lua program whose final expression is a
// table; running a real language keeps conditional settings (per
// machine, per environment) out of the daemon itself
package configuration
