// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2021 MfgLedger Project
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bitmark-inc/logger"

	"github.com/mfgledger/mfgledgerd/configuration"
	"github.com/mfgledger/mfgledgerd/projection"
	"github.com/mfgledger/mfgledgerd/registry"
	"github.com/mfgledger/mfgledgerd/util"
)

// basic defaults (directories and files are relative to the "DataDirectory" from the configuration file)
const (
	defaultDataDirectory = "" // this will error; use "." for the same directory as the config file

	defaultLevelDBDirectory = "data"
	defaultDatabase         = "mfgledger"

	defaultProjectionDialect = projection.DialectSQLite
	defaultProjectionDSN     = "projection.sqlite"

	defaultLogDirectory = "log"
	defaultLogFile      = "mfgledgerd.log"
	defaultLogCount     = 10          //  number of log files retained
	defaultLogSize      = 1024 * 1024 // rotate when <logfile> exceeds this size

	defaultSchemaCacheSeconds = 300
)

// to hold log levels
type LoglevelMap map[string]string

var defaultLogLevels = LoglevelMap{
	logger.DefaultTag: "critical",
}

type DatabaseType struct {
	Directory string `gluamapper:"directory" json:"directory"`
	Name      string `gluamapper:"name" json:"name"`
}

type ProjectionType struct {
	Dialect string `gluamapper:"dialect" json:"dialect"`
	DSN     string `gluamapper:"dsn" json:"dsn"`
}

type Configuration struct {
	DataDirectory      string                 `gluamapper:"data_directory" json:"data_directory"`
	PidFile            string                 `gluamapper:"pidfile" json:"pidfile"`
	SchemaCacheSeconds int64                  `gluamapper:"schema_cache_seconds" json:"schema_cache_seconds"`
	Database           DatabaseType           `gluamapper:"database" json:"database"`
	Projection         ProjectionType         `gluamapper:"projection" json:"projection"`
	Registry           registry.Configuration `gluamapper:"registry" json:"registry"`
	Logging            logger.Configuration   `gluamapper:"logging" json:"logging"`
}

// SchemaCacheExpiry - lifetime of cached schema lookups
func (configuration *Configuration) SchemaCacheExpiry() time.Duration {
	return time.Duration(configuration.SchemaCacheSeconds) * time.Second
}

// will read decode and verify the configuration
func getConfiguration(configurationFileName string) (*Configuration, error) {

	configurationFileName, err := filepath.Abs(filepath.Clean(configurationFileName))
	if nil != err {
		return nil, err
	}

	// absolute path to the main directory
	dataDirectory, _ := filepath.Split(configurationFileName)

	options := &Configuration{

		DataDirectory:      defaultDataDirectory,
		PidFile:            "", // no PidFile by default
		SchemaCacheSeconds: defaultSchemaCacheSeconds,

		Database: DatabaseType{
			Directory: defaultLevelDBDirectory,
			Name:      defaultDatabase,
		},

		Projection: ProjectionType{
			Dialect: defaultProjectionDialect,
			DSN:     defaultProjectionDSN,
		},

		Logging: logger.Configuration{
			Directory: defaultLogDirectory,
			File:      defaultLogFile,
			Size:      defaultLogSize,
			Count:     defaultLogCount,
			Levels:    defaultLogLevels,
		},
	}

	if err := configuration.ParseConfigurationFile(configurationFileName, options); err != nil {
		return nil, err
	}

	// ensure absolute data directory
	if "" == options.DataDirectory || "~" == options.DataDirectory {
		return nil, fmt.Errorf("path: %q is not a valid directory", options.DataDirectory)
	} else if "." == options.DataDirectory {
		options.DataDirectory = dataDirectory // same directory as the configuration file
	} else {
		options.DataDirectory = filepath.Clean(options.DataDirectory)
	}

	// this directory must exist - i.e. must be created prior to running
	if fileInfo, err := os.Stat(options.DataDirectory); nil != err {
		return nil, err
	} else if !fileInfo.IsDir() {
		return nil, fmt.Errorf("path: %q is not a directory", options.DataDirectory)
	}

	// force all relevant items to be absolute paths
	// if not, assign them to the data directory
	mustBeAbsolute := []*string{
		&options.Database.Directory,
		&options.Logging.Directory,
	}
	for _, f := range mustBeAbsolute {
		*f = util.EnsureAbsolute(options.DataDirectory, *f)
	}

	// optional absolute paths i.e. blank or an absolute path
	optionalAbsolute := []*string{
		&options.PidFile,
	}
	for _, f := range optionalAbsolute {
		if "" != *f {
			*f = util.EnsureAbsolute(options.DataDirectory, *f)
		}
	}

	// fail if any of these are not simple file names i.e. must
	// not contain a path separator, then add the correct directory
	// prefix, file item is first and corresponding directory is
	// second (or nil if no prefix can be added)
	mustNotBePaths := [][2]*string{
		{&options.Database.Name, &options.Database.Directory},
		{&options.Logging.File, nil},
	}
	for _, f := range mustNotBePaths {
		switch filepath.Dir(*f[0]) {
		case "", ".":
			if nil != f[1] {
				*f[0] = util.EnsureAbsolute(*f[1], *f[0])
			}
		default:
			return nil, fmt.Errorf("files: %q is not plain name", *f[0])
		}
	}

	// a sqlite projection lives inside the data directory unless an
	// absolute path or the in-memory DSN was given; a postgres DSN is
	// a URL and passes through untouched
	options.Projection.Dialect = strings.ToLower(options.Projection.Dialect)
	switch options.Projection.Dialect {
	case projection.DialectSQLite:
		if ":memory:" != options.Projection.DSN {
			options.Projection.DSN = util.EnsureAbsolute(options.Database.Directory, options.Projection.DSN)
		}
	case projection.DialectPostgres:
		// DSN used as-is
	default:
		return nil, fmt.Errorf("projection dialect: %q is not supported", options.Projection.Dialect)
	}

	// make absolute and create directories if they do not already exist
	for _, d := range []*string{
		&options.Database.Directory,
		&options.Logging.Directory,
	} {
		*d = util.EnsureAbsolute(options.DataDirectory, *d)
		if err := os.MkdirAll(*d, 0700); nil != err {
			return nil, err
		}
	}

	// done
	return options, nil
}
