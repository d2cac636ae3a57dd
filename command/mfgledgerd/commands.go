// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2021 MfgLedger Project
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"strconv"

	"github.com/bitmark-inc/exitwithstatus"
	"github.com/bitmark-inc/logger"

	"github.com/mfgledger/mfgledgerd/batchrecord"
	"github.com/mfgledger/mfgledgerd/projection"
	"github.com/mfgledger/mfgledgerd/storage"
)

const configurationFilename = "mfgledgerd.conf"

// setup command handler
//
// commands that run before the configuration file is read; they
// cannot access any internal database or state
func processSetupCommand(program string, arguments []string) bool {

	command := "help"
	if len(arguments) > 0 {
		command = arguments[0]
		arguments = arguments[1:]
	}

	switch command {
	case "gen-config", "config":
		configurationFile := getFilenameWithDirectory(arguments, configurationFilename)

		if _, err := os.Stat(configurationFile); nil == err {
			fmt.Printf("generate configuration: %q error: file already exists\n", configurationFile)
			exitwithstatus.Exit(1)
		}

		if err := ioutil.WriteFile(configurationFile, []byte(sampleConfiguration), 0600); nil != err {
			fmt.Printf("generate configuration: %q error: %s\n", configurationFile, err)
			exitwithstatus.Exit(1)
		}

		fmt.Printf("generated configuration: %q\n", configurationFile)

	case "start", "run":
		return false // continue processing

	case "config-test", "cfg":
		return false // defer processing until configuration is read

	case "dump", "d", "checkpoint", "ckpt":
		return false // defer processing until databases are open

	case "version", "v":
		fmt.Printf("%s\n", version)
		return true

	default:
		switch command {
		case "help", "h", "?":
		case "", " ":
			fmt.Printf("error: missing command\n")
		default:
			fmt.Printf("error: no such command: %q\n", command)
		}
		fmt.Printf("usage: %s [--help] [--verbose] [--quiet] --config-file=FILE [[command|help] arguments...]\n\n", program)

		fmt.Printf("supported commands:\n\n")
		fmt.Printf("  help                  (h)      - display this message\n\n")
		fmt.Printf("  version               (v)      - display version string\n\n")

		fmt.Printf("  gen-config [DIR]      (config) - write a sample configuration to: %q\n", "DIR/"+configurationFilename)
		fmt.Printf("\n")

		fmt.Printf("  start                 (run)    - just run the program, same as no arguments\n")
		fmt.Printf("                                   for convenience when passing script arguments\n")
		fmt.Printf("\n")

		fmt.Printf("  config-test           (cfg)    - just check the configuration file\n")
		fmt.Printf("\n")

		fmt.Printf("  dump [COUNT]          (d)      - dump batch records as JSON to stdout\n")
		fmt.Printf("\n")

		fmt.Printf("  checkpoint [SERVICE]  (ckpt)   - display the projection checkpoint of a service\n")
		fmt.Printf("\n")

		exitwithstatus.Exit(1)
	}

	// indicate processing complete and perform normal exit from main
	return true
}

// configuration file enquiry commands
// have configuration file read and decoded, but nothing else
func processConfigCommand(arguments []string, options *Configuration) bool {

	command := "help"
	if len(arguments) > 0 {
		command = arguments[0]
	}

	switch command {
	case "config-test", "cfg":
		b, err := json.Marshal(options)
		if err != nil {
			exitwithstatus.Message("error: %s", err)
		}
		var out bytes.Buffer
		json.Indent(&out, b, "", "  ")
		out.WriteTo(os.Stdout)
		os.Stdout.WriteString("\n")

	default: // unknown commands fall through to data command
		return false
	}

	// indicate processing complete and perform normal exit from main
	return true
}

// data command handler
// the ledger state pools and the projection store are open so these
// commands can read them
func processDataCommand(log *logger.L, arguments []string, store *projection.Store, options *Configuration) bool {

	command := "help"
	if len(arguments) > 0 {
		command = arguments[0]
		arguments = arguments[1:]
	}

	switch command {

	case "start", "run":
		return false // continue processing

	case "dump", "d":
		maximum := uint64(0) // unlimited
		if len(arguments) > 0 {
			n, err := strconv.ParseUint(arguments[0], 10, 64)
			if nil != err {
				exitwithstatus.Message("error in maximum count: %s", err)
			}
			maximum = n
		}

		count := uint64(0)
		fmt.Printf("[\n")
		storage.Pool.Batches.Scan(func(key []byte, value []byte) bool {
			list, err := batchrecord.Packed(value).UnpackRecordList()
			if nil != err {
				exitwithstatus.Message("dump: address: %x  unpack error: %s", key, err)
			}
			for i := 0; i < len(list); i += 1 {
				s, err := json.MarshalIndent(&list[i], "  ", "  ")
				if nil != err {
					exitwithstatus.Message("dump: JSON error: %s", err)
				}
				fmt.Printf("  %s,\n", s)
				count += 1
				if 0 != maximum && count >= maximum {
					return false
				}
			}
			return true
		})
		fmt.Printf("{}]\n")

	case "checkpoint", "ckpt":
		serviceId := ""
		if len(arguments) > 0 {
			serviceId = arguments[0]
		}
		commitNum, err := store.Checkpoint(context.Background(), serviceId)
		if nil != err {
			exitwithstatus.Message("checkpoint error: %s", err)
		}
		fmt.Printf("service: %q  checkpoint: %d\n", serviceId, commitNum)

	default:
		exitwithstatus.Message("error: no such command: %s", command)

	}

	// indicate processing complete and perform normal exit from main
	return true
}

// get the working directory; if not set in the arguments
// it's set to the current directory
func getFilenameWithDirectory(arguments []string, name string) string {
	dir := "."
	if len(arguments) >= 1 {
		dir = arguments[0]
	}

	return filepath.Join(dir, name)
}
