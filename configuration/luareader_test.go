// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2021 MfgLedger Project
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package configuration_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mfgledger/mfgledgerd/configuration"
	"github.com/mfgledger/mfgledgerd/fault"
)

type testDatabase struct {
	Directory string `gluamapper:"directory"`
	Name      string `gluamapper:"name"`
}

type testConfiguration struct {
	DataDirectory string            `gluamapper:"data_directory"`
	Nodes         int               `gluamapper:"nodes"`
	Database      testDatabase      `gluamapper:"database"`
	Levels        map[string]string `gluamapper:"levels"`
}

const sampleConfiguration = `
local M = {}

M.data_directory = arg[0]:match("(.*/)") or "."
M.nodes = 5

M.database = {
    directory = M.data_directory .. "/data",
    name = "ledger",
}

M.levels = {
    DEFAULT = "info",
}

return M
`

func TestParseConfigurationFile(t *testing.T) {

	dir := t.TempDir()
	fileName := filepath.Join(dir, "test.conf")
	err := os.WriteFile(fileName, []byte(sampleConfiguration), 0600)
	if nil != err {
		t.Fatalf("write sample: %s", err)
	}

	var config testConfiguration
	err = configuration.ParseConfigurationFile(fileName, &config)
	if nil != err {
		t.Fatalf("parse error: %s", err)
	}

	if 5 != config.Nodes {
		t.Errorf("nodes: %d  expected: %d", config.Nodes, 5)
	}
	if "ledger" != config.Database.Name {
		t.Errorf("database name: %q  expected: %q", config.Database.Name, "ledger")
	}
	if config.DataDirectory == "" {
		t.Errorf("data directory was not derived from arg[0]")
	}
	if "info" != config.Levels["DEFAULT"] {
		t.Errorf("levels: %v", config.Levels)
	}
}

func TestParseConfigurationFileRejectsNonPointer(t *testing.T) {

	var config testConfiguration
	err := configuration.ParseConfigurationFile("ignored.conf", config)
	if fault.ErrInvalidStructPointer != err {
		t.Fatalf("error: %v  expected: %v", err, fault.ErrInvalidStructPointer)
	}
}
