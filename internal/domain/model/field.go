// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package model

import (
	"errors"
	"strconv"
)

// AccountScope is the registry scope used by vendors whose custom fields are
// defined once per account rather than per list.
const AccountScope = "account"

var (
	// ErrFieldExists marks a create-field rejection because the tag is taken.
	ErrFieldExists = errors.New("field already exists")

	// ErrFieldQuotaExceeded marks a create-field rejection because the account
	// cannot hold more custom fields.
	ErrFieldQuotaExceeded = errors.New("field quota exceeded")
)

// FieldDefinition is a vendor-side custom field. Vendors use integer or
// string identifiers; both are stored as strings.
type FieldDefinition struct {
	ID    string `json:"id"`
	Tag   string `json:"tag"`
	Label string `json:"label"`
}

// Key returns the identifier the vendor expects in contact payloads.
func (f FieldDefinition) Key(byID bool) string {
	if byID && f.ID != "" {
		return f.ID
	}
	return f.Tag
}

// NormalizeID renders a vendor identifier as a string.
func NormalizeID(v any) string {
	switch id := v.(type) {
	case nil:
		return ""
	case string:
		return id
	case int:
		return strconv.Itoa(id)
	case int64:
		return strconv.FormatInt(id, 10)
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	default:
		return ""
	}
}
