// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package model

import "time"

// Credentials are the named secrets of one configured integration
type Credentials struct {
	IntegrationID string            `json:"integration_id"`
	Vendor        string            `json:"vendor"`
	Values        map[string]string `json:"values"`

	// OAuth2 tokens; written back when refreshed
	AccessToken  string    `json:"access_token,omitempty"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	Expiry       time.Time `json:"expiry,omitempty"`
}

// Value returns a named secret. The OAuth2 token names resolve to the token fields.
func (c *Credentials) Value(name string) string {
	if c == nil {
		return ""
	}
	switch name {
	case "access_token":
		if c.AccessToken != "" {
			return c.AccessToken
		}
	case "refresh_token":
		if c.RefreshToken != "" {
			return c.RefreshToken
		}
	}
	return c.Values[name]
}
