// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package model

// CustomValue is one resolved custom field value in an outgoing payload
type CustomValue struct {
	Field FieldDefinition
	Value string
}

// VendorPayload is the vendor-facing form of a subscriber, built per call.
// Standard is keyed by vendor key, Custom by resolved field definition.
type VendorPayload struct {
	Email    string
	Standard map[string]string
	Custom   []CustomValue
}

// IsEmpty reports whether the payload carries no user data besides the email.
func (p *VendorPayload) IsEmpty() bool {
	return p == nil || (len(p.Standard) == 0 && len(p.Custom) == 0)
}

// VendorContact is a contact as parsed from a vendor response.
// Standard is keyed by vendor key; Custom is keyed by field id or tag,
// depending on how the vendor reports custom values.
type VendorContact struct {
	ID       string
	Email    string
	Standard map[string]string
	Custom   map[string]string
	Lists    []string
	Tags     []string
}

// MembershipRequest identifies the contact and the list or tag of a membership call
type MembershipRequest struct {
	Scope     string
	ContactID string
	Email     string
	List      string
	Tag       string
}
