// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package model defines the domain models and entities for the subscriber sync service.
package model

import (
	"strings"
)

// Canonical standard field keys
const (
	FieldName      = "name"
	FieldFirstName = "first_name"
	FieldLastName  = "last_name"
	FieldPhone     = "phone"
	FieldCompany   = "company"
	FieldSite      = "site"
)

// StandardFields lists the canonical top-level keys in translation order.
var StandardFields = []string{
	FieldName,
	FieldFirstName,
	FieldLastName,
	FieldPhone,
	FieldCompany,
	FieldSite,
}

// IsStandardField reports whether key is one of the canonical top-level keys.
func IsStandardField(key string) bool {
	for _, f := range StandardFields {
		if strings.EqualFold(f, key) {
			return true
		}
	}
	return false
}

// Integration carries vendor-assigned identifiers. It round-trips with the
// subscriber but is never sent to a vendor as user data.
type Integration struct {
	ID    string   `json:"id,omitempty"`
	Lists []string `json:"lists,omitempty"`
	Tags  []string `json:"tags,omitempty"`
}

// Subscriber is the vendor-neutral contact record exchanged with every driver
type Subscriber struct {
	Name        string            `json:"name,omitempty"`
	FirstName   string            `json:"first_name,omitempty"`
	LastName    string            `json:"last_name,omitempty"`
	Phone       string            `json:"phone,omitempty"`
	Company     string            `json:"company,omitempty"`
	Site        string            `json:"site,omitempty"`
	Meta        map[string]string `json:"meta,omitempty"`
	Integration *Integration      `json:"$integration,omitempty"`
}

// DeriveName reconciles name with first/last name. Split fields are the
// source of truth: when either is present name is rebuilt from them,
// otherwise name is split on its first space. Applying it twice is a no-op.
func (s *Subscriber) DeriveName() {
	if s == nil {
		return
	}

	s.FirstName = strings.TrimSpace(s.FirstName)
	s.LastName = strings.TrimSpace(s.LastName)

	if s.FirstName != "" || s.LastName != "" {
		s.Name = strings.TrimSpace(s.FirstName + " " + s.LastName)
		return
	}

	name := strings.TrimSpace(s.Name)
	s.Name = name
	if name == "" {
		return
	}

	first, last, found := strings.Cut(name, " ")
	s.FirstName = first
	if found {
		s.LastName = strings.TrimSpace(last)
	}
}

// Standard returns the non-empty standard fields keyed by canonical key.
func (s *Subscriber) Standard() map[string]string {
	values := make(map[string]string)
	if s == nil {
		return values
	}

	for _, key := range StandardFields {
		if v := strings.TrimSpace(s.standardValue(key)); v != "" {
			values[key] = v
		}
	}
	return values
}

func (s *Subscriber) standardValue(key string) string {
	switch key {
	case FieldName:
		return s.Name
	case FieldFirstName:
		return s.FirstName
	case FieldLastName:
		return s.LastName
	case FieldPhone:
		return s.Phone
	case FieldCompany:
		return s.Company
	case FieldSite:
		return s.Site
	}
	return ""
}

// SetStandard assigns a standard field by canonical key (case-insensitive).
// It returns false when key is not a standard field.
func (s *Subscriber) SetStandard(key, value string) bool {
	switch strings.ToLower(key) {
	case FieldName:
		s.Name = value
	case FieldFirstName:
		s.FirstName = value
	case FieldLastName:
		s.LastName = value
	case FieldPhone:
		s.Phone = value
	case FieldCompany:
		s.Company = value
	case FieldSite:
		s.Site = value
	default:
		return false
	}
	return true
}

// SetMeta stores an extension field, dropping empty values.
func (s *Subscriber) SetMeta(key, value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	if s.Meta == nil {
		s.Meta = make(map[string]string)
	}
	s.Meta[key] = value
}

// IntegrationID returns the vendor contact id, if known.
func (s *Subscriber) IntegrationID() string {
	if s == nil || s.Integration == nil {
		return ""
	}
	return s.Integration.ID
}
