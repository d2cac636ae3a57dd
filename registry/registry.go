// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2021 MfgLedger Project
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package registry - configuration-defined signer and schema registry
//
// a node that is not connected to an external organization registry
// still has to answer permission, organization and schema lookups, so
// these are loaded from the configuration file and held immutably in
// memory
package registry

import (
	"fmt"

	"github.com/mfgledger/mfgledgerd/batchrecord"
	"github.com/mfgledger/mfgledgerd/fault"
	"github.com/mfgledger/mfgledgerd/handler"
)

// OrganizationConfig - one organization entry
type OrganizationConfig struct {
	Id            string `gluamapper:"id" json:"id"`
	CompanyPrefix string `gluamapper:"company_prefix" json:"company_prefix"`
}

// PropertyConfig - one schema property entry
type PropertyConfig struct {
	Name     string `gluamapper:"name" json:"name"`
	DataType string `gluamapper:"data_type" json:"data_type"`
	Required bool   `gluamapper:"required" json:"required"`
}

// GrantConfig - one permission grant entry
type GrantConfig struct {
	Signer       string `gluamapper:"signer" json:"signer"`
	Permission   string `gluamapper:"permission" json:"permission"`
	Organization string `gluamapper:"organization" json:"organization"`
}

// Configuration - the registry section of the configuration file
type Configuration struct {
	Organizations []OrganizationConfig `gluamapper:"organizations" json:"organizations"`
	Schema        []PropertyConfig     `gluamapper:"schema" json:"schema"`
	Grants        []GrantConfig        `gluamapper:"grants" json:"grants"`
}

// Static - immutable registries resolved from configuration
type Static struct {
	grants        map[string]struct{}
	organizations map[string]*handler.Organization
	schema        *handler.Schema
}

// New - resolve a configuration into lookup tables
func New(configuration Configuration) (*Static, error) {

	static := &Static{
		grants:        make(map[string]struct{}),
		organizations: make(map[string]*handler.Organization),
	}

	for _, grant := range configuration.Grants {
		static.grants[grantKey(grant.Signer, grant.Permission, grant.Organization)] = struct{}{}
	}

	for _, organization := range configuration.Organizations {
		if "" == organization.Id {
			return nil, fault.InvalidError("organization id is required")
		}
		entry := &handler.Organization{Id: organization.Id}
		if "" != organization.CompanyPrefix {
			entry.AlternateIds = []handler.AlternateId{
				{IdType: handler.CompanyPrefixIdType, Id: organization.CompanyPrefix},
			}
		}
		static.organizations[organization.Id] = entry
	}

	if len(configuration.Schema) > 0 {
		schema := &handler.Schema{Name: handler.GS1SchemaName}
		for _, property := range configuration.Schema {
			if "" == property.Name {
				return nil, fault.ErrMissingPropertyName
			}
			dataType, err := batchrecord.DataTypeFromString(property.DataType)
			if nil != err {
				return nil, fault.InvalidError(fmt.Sprintf("schema property %q: unknown data type: %q", property.Name, property.DataType))
			}
			schema.Properties = append(schema.Properties, handler.PropertySchema{
				Name:     property.Name,
				DataType: dataType,
				Required: property.Required,
			})
		}
		static.schema = schema
	}

	return static, nil
}

// HasPermission - exact grant lookup
func (static *Static) HasPermission(signer string, permission string, recordOwner string) (bool, error) {
	_, ok := static.grants[grantKey(signer, permission, recordOwner)]
	return ok, nil
}

// GetOrganization - nil when not configured
func (static *Static) GetOrganization(id string) (*handler.Organization, error) {
	return static.organizations[id], nil
}

// GetSchema - nil unless the configured schema matches the name
func (static *Static) GetSchema(name string) (*handler.Schema, error) {
	if nil != static.schema && static.schema.Name == name {
		return static.schema, nil
	}
	return nil, nil
}

func grantKey(signer string, permission string, organization string) string {
	return signer + "\x00" + permission + "\x00" + organization
}
