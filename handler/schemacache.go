// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2021 MfgLedger Project
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package handler

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// DefaultSchemaExpiry - how long a fetched schema stays hot
//
// schemas change rarely but every mutation reads one, so a short TTL
// keeps registry traffic low without pinning stale definitions
const DefaultSchemaExpiry = 5 * time.Minute

// CachedSchemas - a SchemaGetter with an expiring read-through cache
type CachedSchemas struct {
	inner SchemaGetter
	cache *gocache.Cache
}

// NewCachedSchemas - wrap a schema registry
//
// expiry <= 0 selects DefaultSchemaExpiry
func NewCachedSchemas(inner SchemaGetter, expiry time.Duration) *CachedSchemas {
	if expiry <= 0 {
		expiry = DefaultSchemaExpiry
	}
	return &CachedSchemas{
		inner: inner,
		cache: gocache.New(expiry, 2*expiry),
	}
}

// GetSchema - cached lookup
//
// a nil result is not cached so a schema defined later is picked up
// on the next mutation
func (c *CachedSchemas) GetSchema(name string) (*Schema, error) {
	if cached, found := c.cache.Get(name); found {
		return cached.(*Schema), nil
	}

	schema, err := c.inner.GetSchema(name)
	if nil != err {
		return nil, err
	}
	if nil != schema {
		c.cache.Set(name, schema, gocache.DefaultExpiration)
	}
	return schema, nil
}
