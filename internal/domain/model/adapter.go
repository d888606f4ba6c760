// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package model

import (
	"fmt"
	"net/http"
	"regexp"
	"slices"
	"strings"
)

// Auth types understood by the vendor client
const (
	AuthTypeBasic  = "basic"
	AuthTypeBearer = "bearer"
	AuthTypeHeader = "header"
	AuthTypeOAuth2 = "oauth2"
	AuthTypeHMAC   = "hmac"
)

// Endpoint names
const (
	EndpointListFields    = "list_fields"
	EndpointCreateField   = "create_field"
	EndpointFindContact   = "find_contact"
	EndpointCreateContact = "create_contact"
	EndpointUpdateContact = "update_contact"
)

// Pagination styles for list endpoints
const (
	PaginateNone        = ""
	PaginateLimitOffset = "limit_offset"
	PaginateCountOffset = "count_offset"
)

// Field scopes
const (
	FieldScopeAccount = "account"
	FieldScopeList    = "list"
)

// Custom value layouts
const (
	CustomStyleObject = "object"
	CustomStyleArray  = "array"
	CustomKeyTag      = "tag"
	CustomKeyID       = "id"
)

// Tag case conventions
const (
	CaseUpper    = "upper"
	CaseLower    = "lower"
	CasePreserve = "preserve"
)

// DefaultMaxAttempts bounds tag collision resolution when the adapter does not
const DefaultMaxAttempts = 10

// VendorAdapter describes one vendor as data: its standard field table,
// tag naming rules, endpoints and response classifier.
type VendorAdapter struct {
	Name            string              `yaml:"name"`
	BaseURL         string              `yaml:"base_url"`
	Auth            AuthSpec            `yaml:"auth"`
	FieldScope      string              `yaml:"field_scope"`
	RequiresContact bool                `yaml:"requires_contact"`
	ImplicitFields  bool                `yaml:"implicit_fields"`
	StandardFields  map[string]string   `yaml:"standard_fields"`
	Actions         []Action            `yaml:"actions"`
	Naming          NamingRules         `yaml:"naming"`
	Custom          CustomLayout        `yaml:"custom"`
	Fields          FieldsLayout        `yaml:"fields"`
	Contact         ContactLayout       `yaml:"contact"`
	Endpoints       map[string]Endpoint `yaml:"endpoints"`
	Errors          ErrorRules          `yaml:"errors"`
}

// AuthSpec tells the client how to authenticate. Values may reference
// credentials as {cred:name}.
type AuthSpec struct {
	Type       string   `yaml:"type"`
	Header     string   `yaml:"header"`
	Credential string   `yaml:"credential"`
	Username   string   `yaml:"username"`
	Prefix     string   `yaml:"prefix"`
	TokenURL   string   `yaml:"token_url"`
	Scopes     []string `yaml:"scopes"`
}

// NamingRules constrain generated custom field tags
type NamingRules struct {
	MaxLength     int      `yaml:"max_length"`
	Charset       string   `yaml:"charset"`
	Case          string   `yaml:"case"`
	Reserved      []string `yaml:"reserved"`
	MaxAttempts   int      `yaml:"max_attempts"`
	LeadingLetter string   `yaml:"leading_letter"`
}

// CustomLayout describes how custom values are sent and reported
type CustomLayout struct {
	Style    string `yaml:"style"`
	Key      string `yaml:"key"`
	FieldKey string `yaml:"field_key"`
	ValueKey string `yaml:"value_key"`
}

// ByID reports whether custom values are keyed by field id instead of tag
func (c CustomLayout) ByID() bool {
	return c.Key == CustomKeyID
}

// FieldsLayout holds gjson paths into list-fields and create-field responses.
// Listed items where SkipPath is true are vendor-defined and not custom.
type FieldsLayout struct {
	ListPath  string `yaml:"list_path"`
	IDPath    string `yaml:"id_path"`
	TagPath   string `yaml:"tag_path"`
	LabelPath string `yaml:"label_path"`
	SkipPath  string `yaml:"skip_path"`
}

// ContactLayout holds gjson paths relative to the contact object. A path
// starting with ^ is evaluated against the response root instead.
type ContactLayout struct {
	IDPath       string   `yaml:"id_path"`
	EmailPath    string   `yaml:"email_path"`
	StandardPath string   `yaml:"standard_path"`
	CustomPath   string   `yaml:"custom_path"`
	ListsPath    string   `yaml:"lists_path"`
	TagsPath     string   `yaml:"tags_path"`
	IgnoreKeys   []string `yaml:"ignore_keys"`
}

// Endpoint is a request template. Path and Body may use placeholders
// such as {email}, {id}, {list}, {tag} and {cred:name}.
type Endpoint struct {
	Method         string `yaml:"method"`
	Path           string `yaml:"path"`
	Body           any    `yaml:"body"`
	Paginate       string `yaml:"paginate"`
	PageSize       int    `yaml:"page_size"`
	Result         string `yaml:"result"`
	NotFoundStatus []int  `yaml:"not_found_status"`
}

// IsNotFound reports whether status means "no such record" for this endpoint
func (e Endpoint) IsNotFound(status int) bool {
	return slices.Contains(e.NotFoundStatus, status)
}

// MatchRule matches an error response by status and body text
type MatchRule struct {
	Status       []int  `yaml:"status"`
	BodyContains string `yaml:"body_contains"`
}

// Matches reports whether the response matches the rule
func (m MatchRule) Matches(status int, body string) bool {
	if len(m.Status) == 0 || !slices.Contains(m.Status, status) {
		return false
	}
	if m.BodyContains == "" {
		return true
	}
	return strings.Contains(strings.ToLower(body), strings.ToLower(m.BodyContains))
}

// ErrorRules classify vendor error responses by status code
type ErrorRules struct {
	Auth          []int     `yaml:"auth"`
	Transient     []int     `yaml:"transient"`
	Param         []int     `yaml:"param"`
	Duplicate     []int     `yaml:"duplicate"`
	Data          []int     `yaml:"data"`
	FieldConflict MatchRule `yaml:"field_conflict"`
	FieldQuota    MatchRule `yaml:"field_quota"`
}

// ApplyDefaults fills unset optional values
func (a *VendorAdapter) ApplyDefaults() {
	if a.FieldScope == "" {
		a.FieldScope = FieldScopeAccount
	}
	if a.Naming.MaxAttempts <= 0 {
		a.Naming.MaxAttempts = DefaultMaxAttempts
	}
	if a.Naming.Case == "" {
		a.Naming.Case = CasePreserve
	}
	if a.Custom.Style == "" {
		a.Custom.Style = CustomStyleObject
	}
	if a.Custom.Key == "" {
		a.Custom.Key = CustomKeyTag
	}
	if len(a.Errors.Auth) == 0 {
		a.Errors.Auth = []int{http.StatusUnauthorized, http.StatusForbidden}
	}
	if len(a.Errors.Transient) == 0 {
		a.Errors.Transient = []int{http.StatusTooManyRequests, http.StatusLoopDetected}
	}
	if len(a.Errors.Param) == 0 {
		a.Errors.Param = []int{http.StatusNotFound}
	}
	if len(a.Errors.Duplicate) == 0 {
		a.Errors.Duplicate = []int{http.StatusConflict}
	}
	if len(a.Errors.Data) == 0 {
		a.Errors.Data = []int{http.StatusBadRequest, http.StatusUnprocessableEntity}
	}
	for name, ep := range a.Endpoints {
		if ep.Method == "" {
			ep.Method = http.MethodGet
		}
		ep.Method = strings.ToUpper(ep.Method)
		a.Endpoints[name] = ep
	}
}

// Supports reports whether the vendor implements action
func (a *VendorAdapter) Supports(action Action) bool {
	if action == ActionCreateOrUpdate {
		return true
	}
	return slices.Contains(a.Actions, action)
}

// VendorKey returns the vendor key mapped to a canonical standard field
func (a *VendorAdapter) VendorKey(canonical string) (string, bool) {
	key, ok := a.StandardFields[canonical]
	return key, ok && key != ""
}

// CanonicalKey returns the canonical field for a vendor standard key
func (a *VendorAdapter) CanonicalKey(vendorKey string) (string, bool) {
	for canonical, key := range a.StandardFields {
		if key == vendorKey {
			return canonical, true
		}
	}
	return "", false
}

// Validate checks the adapter is complete enough to drive a vendor
func (a *VendorAdapter) Validate() error {
	if a.Name == "" {
		return fmt.Errorf("adapter name is required")
	}
	if a.BaseURL == "" {
		return fmt.Errorf("adapter %s: base_url is required", a.Name)
	}

	switch a.Auth.Type {
	case AuthTypeBasic, AuthTypeBearer, AuthTypeOAuth2:
	case AuthTypeHeader, AuthTypeHMAC:
		if a.Auth.Header == "" {
			return fmt.Errorf("adapter %s: auth header is required for %s auth", a.Name, a.Auth.Type)
		}
	default:
		return fmt.Errorf("adapter %s: unsupported auth type %q", a.Name, a.Auth.Type)
	}

	switch a.FieldScope {
	case FieldScopeAccount, FieldScopeList:
	default:
		return fmt.Errorf("adapter %s: unsupported field_scope %q", a.Name, a.FieldScope)
	}

	for canonical := range a.StandardFields {
		if !IsStandardField(canonical) {
			return fmt.Errorf("adapter %s: %q is not a standard field", a.Name, canonical)
		}
	}

	if err := a.Naming.validate(); err != nil {
		return fmt.Errorf("adapter %s: %w", a.Name, err)
	}

	switch a.Custom.Style {
	case CustomStyleObject:
	case CustomStyleArray:
		if a.Custom.FieldKey == "" || a.Custom.ValueKey == "" {
			return fmt.Errorf("adapter %s: array custom layout needs field_key and value_key", a.Name)
		}
	default:
		return fmt.Errorf("adapter %s: unsupported custom style %q", a.Name, a.Custom.Style)
	}
	if a.Custom.Key != CustomKeyTag && a.Custom.Key != CustomKeyID {
		return fmt.Errorf("adapter %s: unsupported custom key %q", a.Name, a.Custom.Key)
	}

	required := []string{EndpointListFields, EndpointFindContact, EndpointCreateContact, EndpointUpdateContact}
	if !a.ImplicitFields {
		required = append(required, EndpointCreateField)
	}
	for _, action := range a.Actions {
		if action != ActionCreateOrUpdate {
			required = append(required, string(action))
		}
	}
	for _, name := range required {
		ep, ok := a.Endpoints[name]
		if !ok {
			return fmt.Errorf("adapter %s: endpoint %s is required", a.Name, name)
		}
		if ep.Path == "" {
			return fmt.Errorf("adapter %s: endpoint %s has no path", a.Name, name)
		}
		switch ep.Paginate {
		case PaginateNone, PaginateLimitOffset, PaginateCountOffset:
		default:
			return fmt.Errorf("adapter %s: endpoint %s: unsupported paginate %q", a.Name, name, ep.Paginate)
		}
	}

	if a.Fields.ListPath == "" || a.Fields.TagPath == "" {
		return fmt.Errorf("adapter %s: fields list_path and tag_path are required", a.Name)
	}
	if a.Contact.IDPath == "" {
		return fmt.Errorf("adapter %s: contact id_path is required", a.Name)
	}

	return nil
}

func (n NamingRules) validate() error {
	if n.MaxLength <= 0 {
		return fmt.Errorf("naming max_length must be positive")
	}
	if n.Charset == "" {
		return fmt.Errorf("naming charset is required")
	}
	if _, err := regexp.Compile("[^" + n.Charset + "]"); err != nil {
		return fmt.Errorf("invalid naming charset %q: %w", n.Charset, err)
	}
	switch n.Case {
	case CaseUpper, CaseLower, CasePreserve:
	default:
		return fmt.Errorf("unsupported naming case %q", n.Case)
	}
	if n.MaxAttempts <= 0 {
		return fmt.Errorf("naming max_attempts must be positive")
	}
	// room for at least one character plus the largest numeric suffix
	if n.MaxLength <= len(fmt.Sprint(n.MaxAttempts-1)) {
		return fmt.Errorf("naming max_length %d too short for %d attempts", n.MaxLength, n.MaxAttempts)
	}
	return nil
}
