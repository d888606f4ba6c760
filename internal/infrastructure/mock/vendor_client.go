// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package mock provides in-memory implementations of the domain ports for
// tests and local dry runs.
package mock

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/linuxfoundation/lfx-v2-subscriber-sync/internal/domain/model"
	"github.com/linuxfoundation/lfx-v2-subscriber-sync/internal/domain/port"
	"github.com/linuxfoundation/lfx-v2-subscriber-sync/internal/infrastructure/vendor"
	"github.com/linuxfoundation/lfx-v2-subscriber-sync/pkg/errors"
	"github.com/linuxfoundation/lfx-v2-subscriber-sync/pkg/redaction"
)

// Operation names used for call counting and error simulation
const (
	OpListFields    = "ListFields"
	OpCreateField   = "CreateField"
	OpFindContact   = "FindContact"
	OpCreateContact = "CreateContact"
	OpUpdateContact = "UpdateContact"
)

// MockVendorClient is an in-memory vendor keeping fields and contacts per scope
type MockVendorClient struct {
	adapter *model.VendorAdapter

	mu         sync.Mutex
	fields     map[string][]model.FieldDefinition
	contacts   map[string]map[string]*model.VendorContact // scope -> lower-cased email -> contact
	fieldQuota int
	nextID     int
	calls      map[string]int
	payloads   map[string][]model.VendorPayload

	// error simulation
	globalError     error
	operationErrors map[string]error
	hiddenFields    map[string]map[string]bool // scope -> tag
}

// Ensure MockVendorClient implements the VendorClient interface
var _ port.VendorClient = (*MockVendorClient)(nil)

// NewMockVendorClient creates an empty in-memory vendor for adapter
func NewMockVendorClient(adapter *model.VendorAdapter) *MockVendorClient {
	return &MockVendorClient{
		adapter:         adapter,
		fields:          make(map[string][]model.FieldDefinition),
		contacts:        make(map[string]map[string]*model.VendorContact),
		calls:           make(map[string]int),
		payloads:        make(map[string][]model.VendorPayload),
		operationErrors: make(map[string]error),
		hiddenFields:    make(map[string]map[string]bool),
	}
}

// Adapter returns the adapter the mock vendor behaves like
func (m *MockVendorClient) Adapter() *model.VendorAdapter {
	return m.adapter
}

// ListFields returns the fields of scope, minus hidden ones
func (m *MockVendorClient) ListFields(ctx context.Context, scope string) ([]model.FieldDefinition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.begin(OpListFields); err != nil {
		return nil, err
	}

	var out []model.FieldDefinition
	for _, f := range m.fields[scope] {
		if !m.hiddenFields[scope][f.Tag] {
			out = append(out, f)
		}
	}

	slog.DebugContext(ctx, "mock vendor listed fields", "scope", scope, "count", len(out))
	return out, nil
}

// CreateField adds a field; an existing tag is reported as ErrFieldExists
func (m *MockVendorClient) CreateField(ctx context.Context, scope, tag, label string) (*model.FieldDefinition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.begin(OpCreateField); err != nil {
		return nil, err
	}

	for _, f := range m.fields[scope] {
		if f.Tag == tag {
			return nil, errors.NewConflict("custom field already exists", model.ErrFieldExists)
		}
	}
	if m.fieldQuota > 0 && len(m.fields[scope]) >= m.fieldQuota {
		return nil, errors.NewConflict("custom field quota exceeded", model.ErrFieldQuotaExceeded)
	}

	m.nextID++
	field := model.FieldDefinition{ID: strconv.Itoa(m.nextID), Tag: tag, Label: label}
	m.fields[scope] = append(m.fields[scope], field)

	slog.DebugContext(ctx, "mock vendor created field", "scope", scope, "tag", tag)
	return &field, nil
}

// FindContact returns a copy of the stored contact or nil
func (m *MockVendorClient) FindContact(ctx context.Context, scope, email string, _ []string) (*model.VendorContact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.begin(OpFindContact); err != nil {
		return nil, err
	}

	contact, ok := m.contacts[scope][strings.ToLower(email)]
	if !ok {
		slog.DebugContext(ctx, "mock vendor contact not found", "email", redaction.RedactEmail(email))
		return nil, nil
	}
	return copyContact(contact), nil
}

// CreateContact stores a new contact; an existing email is a duplicate
func (m *MockVendorClient) CreateContact(ctx context.Context, scope string, payload *model.VendorPayload) (*model.VendorContact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.begin(OpCreateContact); err != nil {
		return nil, err
	}
	m.payloads[OpCreateContact] = append(m.payloads[OpCreateContact], copyPayload(payload))

	key := strings.ToLower(payload.Email)
	if _, exists := m.contacts[scope][key]; exists {
		return nil, errors.NewConflict("contact already exists")
	}

	m.nextID++
	contact := &model.VendorContact{
		ID:       fmt.Sprintf("contact-%d", m.nextID),
		Email:    payload.Email,
		Standard: make(map[string]string),
		Custom:   make(map[string]string),
	}
	m.apply(contact, payload)

	if m.contacts[scope] == nil {
		m.contacts[scope] = make(map[string]*model.VendorContact)
	}
	m.contacts[scope][key] = contact

	slog.DebugContext(ctx, "mock vendor created contact", "contact_id", contact.ID)
	return copyContact(contact), nil
}

// UpdateContact merges payload into the contact with id
func (m *MockVendorClient) UpdateContact(ctx context.Context, scope, id string, payload *model.VendorPayload) (*model.VendorContact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.begin(OpUpdateContact); err != nil {
		return nil, err
	}
	m.payloads[OpUpdateContact] = append(m.payloads[OpUpdateContact], copyPayload(payload))

	contact := m.byID(scope, id)
	if contact == nil {
		return nil, errors.NewNotFound(fmt.Sprintf("contact %s not found", id))
	}
	m.apply(contact, payload)

	slog.DebugContext(ctx, "mock vendor updated contact", "contact_id", id)
	return copyContact(contact), nil
}

// Membership applies a list or tag change to a stored contact
func (m *MockVendorClient) Membership(ctx context.Context, action model.Action, req model.MembershipRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.adapter.Supports(action) || action == model.ActionCreateOrUpdate {
		return errors.NewValidation(fmt.Sprintf("%s does not support %s", m.adapter.Name, action))
	}
	if err := m.begin(string(action)); err != nil {
		return err
	}

	contact := m.byID(req.Scope, req.ContactID)
	if contact == nil {
		contact = m.contacts[req.Scope][strings.ToLower(req.Email)]
	}
	if contact == nil {
		return errors.NewNotFound("contact not found")
	}

	switch action {
	case model.ActionAddToList:
		if !slices.Contains(contact.Lists, req.List) {
			contact.Lists = append(contact.Lists, req.List)
		}
	case model.ActionRemoveFromList:
		contact.Lists = slices.DeleteFunc(contact.Lists, func(l string) bool { return l == req.List })
	case model.ActionAddTag:
		if !slices.Contains(contact.Tags, req.Tag) {
			contact.Tags = append(contact.Tags, req.Tag)
		}
	case model.ActionRemoveTag:
		contact.Tags = slices.DeleteFunc(contact.Tags, func(t string) bool { return t == req.Tag })
	}

	slog.DebugContext(ctx, "mock vendor membership changed", "action", action, "contact_id", contact.ID)
	return nil
}

// begin counts the call and returns any simulated error. Callers hold mu.
func (m *MockVendorClient) begin(op string) error {
	m.calls[op]++
	if m.globalError != nil {
		return m.globalError
	}
	if err, ok := m.operationErrors[op]; ok {
		return err
	}
	return nil
}

func (m *MockVendorClient) byID(scope, id string) *model.VendorContact {
	if id == "" {
		return nil
	}
	for _, c := range m.contacts[scope] {
		if c.ID == id {
			return c
		}
	}
	return nil
}

func (m *MockVendorClient) apply(contact *model.VendorContact, payload *model.VendorPayload) {
	maps.Copy(contact.Standard, payload.Standard)
	for _, cv := range payload.Custom {
		contact.Custom[cv.Field.Key(m.adapter.Custom.ByID())] = cv.Value
	}
}

// AddField defines a field without counting a call
func (m *MockVendorClient) AddField(scope string, field model.FieldDefinition) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if field.ID == "" {
		m.nextID++
		field.ID = strconv.Itoa(m.nextID)
	}
	if field.Label == "" {
		field.Label = field.Tag
	}
	m.fields[scope] = append(m.fields[scope], field)
}

// HideField keeps a field out of ListFields while CreateField still sees it,
// like a field created concurrently by another worker
func (m *MockVendorClient) HideField(scope, tag string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.hiddenFields[scope] == nil {
		m.hiddenFields[scope] = make(map[string]bool)
	}
	m.hiddenFields[scope][tag] = true
}

// RevealFields makes hidden fields of scope visible again
func (m *MockVendorClient) RevealFields(scope string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.hiddenFields, scope)
}

// AddContact stores a contact without counting a call
func (m *MockVendorClient) AddContact(scope string, contact *model.VendorContact) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.contacts[scope] == nil {
		m.contacts[scope] = make(map[string]*model.VendorContact)
	}
	m.contacts[scope][strings.ToLower(contact.Email)] = copyContact(contact)
}

// Contact returns a copy of a stored contact
func (m *MockVendorClient) Contact(scope, email string) *model.VendorContact {
	m.mu.Lock()
	defer m.mu.Unlock()
	contact, ok := m.contacts[scope][strings.ToLower(email)]
	if !ok {
		return nil
	}
	return copyContact(contact)
}

// Fields returns the fields of scope including hidden ones
func (m *MockVendorClient) Fields(scope string) []model.FieldDefinition {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.fields[scope])
}

// SetFieldQuota limits the number of fields per scope; zero means unlimited
func (m *MockVendorClient) SetFieldQuota(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fieldQuota = n
}

// Calls returns how often op was called
func (m *MockVendorClient) Calls(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

// Payloads returns the payloads sent to op
func (m *MockVendorClient) Payloads(op string) []model.VendorPayload {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.payloads[op])
}

// SetGlobalError makes every operation fail with err
func (m *MockVendorClient) SetGlobalError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.globalError = err
}

// SetErrorForOperation makes op fail with err
func (m *MockVendorClient) SetErrorForOperation(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.operationErrors[op] = err
}

// ClearErrorSimulation removes every simulated error
func (m *MockVendorClient) ClearErrorSimulation() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.globalError = nil
	m.operationErrors = make(map[string]error)
}

func copyContact(c *model.VendorContact) *model.VendorContact {
	out := *c
	out.Standard = maps.Clone(c.Standard)
	out.Custom = maps.Clone(c.Custom)
	out.Lists = slices.Clone(c.Lists)
	out.Tags = slices.Clone(c.Tags)
	return &out
}

func copyPayload(p *model.VendorPayload) model.VendorPayload {
	out := *p
	out.Standard = maps.Clone(p.Standard)
	out.Custom = slices.Clone(p.Custom)
	return out
}

// MockVendorClientFactory hands out one in-memory vendor per adapter
type MockVendorClientFactory struct {
	mu      sync.Mutex
	clients map[string]*MockVendorClient
}

// Ensure MockVendorClientFactory implements the VendorClientFactory interface
var _ port.VendorClientFactory = (*MockVendorClientFactory)(nil)

// NewMockVendorClientFactory creates a factory over the given mock vendors
func NewMockVendorClientFactory(clients ...*MockVendorClient) *MockVendorClientFactory {
	f := &MockVendorClientFactory{clients: make(map[string]*MockVendorClient)}
	for _, c := range clients {
		f.clients[c.adapter.Name] = c
	}
	return f
}

// NewDryRunVendorClientFactory creates a mock vendor for every adapter of
// the vendor table, for running the service without vendor accounts
func NewDryRunVendorClientFactory(adapters map[string]*model.VendorAdapter) *MockVendorClientFactory {
	f := &MockVendorClientFactory{clients: make(map[string]*MockVendorClient)}
	for name, a := range adapters {
		f.clients[name] = NewMockVendorClient(a)
	}
	return f
}

// Adapters lists the adapters of the mock vendors ordered by name
func (f *MockVendorClientFactory) Adapters() []*model.VendorAdapter {
	f.mu.Lock()
	defer f.mu.Unlock()

	names := slices.Sorted(maps.Keys(f.clients))
	adapters := make([]*model.VendorAdapter, 0, len(names))
	for _, name := range names {
		adapters = append(adapters, f.clients[name].adapter)
	}
	return adapters
}

// NewVendorClient returns the mock vendor named in creds
func (f *MockVendorClientFactory) NewVendorClient(_ context.Context, creds *model.Credentials) (port.VendorClient, error) {
	if creds == nil {
		return nil, errors.NewValidation("credentials are required")
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	client, ok := f.clients[creds.Vendor]
	if !ok {
		return nil, errors.NewValidation(fmt.Sprintf("unsupported vendor %q", creds.Vendor))
	}
	return client, nil
}

// Client returns the mock vendor for name
func (f *MockVendorClientFactory) Client(name string) *MockVendorClient {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.clients[name]
}

// Adapter loads a named adapter from the embedded vendor table
func Adapter(name string) (*model.VendorAdapter, error) {
	adapters, err := vendor.LoadAdapters(vendor.DefaultConfig())
	if err != nil {
		return nil, err
	}
	adapter, ok := adapters[name]
	if !ok {
		return nil, errors.NewValidation(fmt.Sprintf("unknown vendor adapter %q", name))
	}
	return adapter, nil
}
