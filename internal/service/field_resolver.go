// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"unicode"

	"github.com/linuxfoundation/lfx-v2-subscriber-sync/internal/domain/model"
	"github.com/linuxfoundation/lfx-v2-subscriber-sync/internal/domain/port"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var repeatedUnderscores = regexp.MustCompile(`_+`)

// ResolveSession carries resolver state for one translation call
type ResolveSession struct {
	resolved  map[string]*model.FieldDefinition // scope + lower-cased name
	allocated map[string]map[string]struct{}    // scope -> tags taken in this call
	refreshed map[string]bool                   // scopes already force-refreshed
}

// NewResolveSession starts a translation call
func NewResolveSession() *ResolveSession {
	return &ResolveSession{
		resolved:  make(map[string]*model.FieldDefinition),
		allocated: make(map[string]map[string]struct{}),
		refreshed: make(map[string]bool),
	}
}

func (s *ResolveSession) memoKey(scope, name string) string {
	return scope + "\x00" + strings.ToLower(name)
}

func (s *ResolveSession) allocate(scope, tag string) {
	if s.allocated[scope] == nil {
		s.allocated[scope] = make(map[string]struct{})
	}
	s.allocated[scope][tag] = struct{}{}
}

// FieldResolver maps human-readable field names to vendor field
// definitions, creating missing fields under the adapter's naming rules
type FieldResolver struct {
	client   port.VendorClient
	registry *FieldRegistry
	naming   model.NamingRules
	invalid  *regexp.Regexp
	filler   string
}

// NewFieldResolver creates a resolver for the client's adapter
func NewFieldResolver(client port.VendorClient, registry *FieldRegistry) (*FieldResolver, error) {
	naming := client.Adapter().Naming

	invalid, err := regexp.Compile("[^" + naming.Charset + "]")
	if err != nil {
		return nil, fmt.Errorf("invalid tag charset %q: %w", naming.Charset, err)
	}

	filler := "_"
	if invalid.MatchString(filler) {
		filler = ""
	}

	return &FieldResolver{
		client:   client,
		registry: registry,
		naming:   naming,
		invalid:  invalid,
		filler:   filler,
	}, nil
}

// Resolve returns the field for name in scope. A nil definition with a nil
// error means the field is skipped: not found with create off, tag space
// exhausted, or vendor field quota reached.
func (r *FieldResolver) Resolve(ctx context.Context, session *ResolveSession, scope, name string, create bool) (*model.FieldDefinition, error) {
	key := session.memoKey(scope, name)
	if def, ok := session.resolved[key]; ok {
		return def, nil
	}

	def, err := r.resolve(ctx, session, scope, name, create)
	if err != nil {
		return nil, err
	}
	session.resolved[key] = def
	return def, nil
}

func (r *FieldResolver) resolve(ctx context.Context, session *ResolveSession, scope, name string, create bool) (*model.FieldDefinition, error) {
	// standard fields are referenced by their fixed key, never created
	if def, ok := r.standard(name); ok {
		return def, nil
	}

	found, err := r.lookup(ctx, session, scope, name)
	if err != nil || found != nil {
		return found, err
	}

	if !create {
		slog.DebugContext(ctx, "custom field not found and creation disabled", "field_name", name)
		return nil, nil
	}

	base := r.Normalize(name)
	if base == "" {
		slog.WarnContext(ctx, "custom field name has no usable characters, skipping", "field_name", name)
		return nil, nil
	}

	tag, ok := r.allocateTag(session, scope, base)
	if !ok {
		slog.WarnContext(ctx, "no free tag for custom field, skipping",
			"field_name", name,
			"base_tag", base,
			"max_attempts", r.naming.MaxAttempts,
		)
		return nil, nil
	}

	created, err := r.client.CreateField(ctx, scope, tag, name)
	switch {
	case err == nil:
	case stderrors.Is(err, model.ErrFieldExists):
		created, err = r.existing(ctx, session, scope, name, tag)
		if err != nil {
			return nil, err
		}
	case stderrors.Is(err, model.ErrFieldQuotaExceeded):
		slog.WarnContext(ctx, "custom field quota reached, skipping field",
			"field_name", name,
			"tag", tag,
		)
		return nil, nil
	default:
		return nil, err
	}

	r.registry.RegisterField(scope, *created)
	session.allocate(scope, created.Tag)

	slog.InfoContext(ctx, "custom field resolved",
		"field_name", name,
		"tag", created.Tag,
		"field_id", created.ID,
	)
	return created, nil
}

// standard returns the fixed definition for a standard field the adapter maps
func (r *FieldResolver) standard(name string) (*model.FieldDefinition, bool) {
	if !model.IsStandardField(name) {
		return nil, false
	}
	key, ok := r.client.Adapter().VendorKey(strings.ToLower(name))
	if !ok {
		return nil, false
	}
	return &model.FieldDefinition{ID: key, Tag: key, Label: name}, true
}

// lookup finds name among existing fields, forcing one refresh per scope
// per session on a miss
func (r *FieldResolver) lookup(ctx context.Context, session *ResolveSession, scope, name string) (*model.FieldDefinition, error) {
	fresh := !r.registry.Loaded(scope)
	if _, err := r.registry.GetFields(ctx, scope, false); err != nil {
		return nil, err
	}
	if fresh {
		session.refreshed[scope] = true
	}

	if def, ok := r.registry.FindByLabel(scope, name); ok {
		return &def, nil
	}
	if session.refreshed[scope] {
		return nil, nil
	}

	session.refreshed[scope] = true
	if _, err := r.registry.GetFields(ctx, scope, true); err != nil {
		return nil, err
	}
	if def, ok := r.registry.FindByLabel(scope, name); ok {
		return &def, nil
	}
	return nil, nil
}

// existing resolves a create conflict: another writer created the field
// between our list and create calls
func (r *FieldResolver) existing(ctx context.Context, session *ResolveSession, scope, name, tag string) (*model.FieldDefinition, error) {
	slog.InfoContext(ctx, "custom field already exists, refreshing",
		"field_name", name,
		"tag", tag,
	)

	session.refreshed[scope] = true
	if _, err := r.registry.GetFields(ctx, scope, true); err != nil {
		return nil, err
	}
	if def, ok := r.registry.FindByLabel(scope, name); ok {
		return &def, nil
	}
	if def, ok := r.registry.FindByKey(scope, tag); ok {
		return &def, nil
	}
	return &model.FieldDefinition{ID: tag, Tag: tag, Label: name}, nil
}

// allocateTag picks base or the first free base1..base{N-1}
func (r *FieldResolver) allocateTag(session *ResolveSession, scope, base string) (string, bool) {
	taken := r.registry.Tags(scope)
	blocked := func(tag string) bool {
		if _, ok := session.allocated[scope][tag]; ok {
			return true
		}
		eq := func(t string) bool { return strings.EqualFold(t, tag) }
		return slices.ContainsFunc(taken, eq) || slices.ContainsFunc(r.naming.Reserved, eq)
	}

	for i := 0; i < r.naming.MaxAttempts; i++ {
		candidate := base
		if i > 0 {
			suffix := strconv.Itoa(i)
			candidate = strings.TrimRight(truncate(base, r.naming.MaxLength-len(suffix)), "_") + suffix
		}
		if !blocked(candidate) {
			return candidate, true
		}
	}
	return "", false
}

// Normalize turns a display name into a tag base: accents stripped,
// characters outside the charset replaced, case applied, a leading letter
// added when required and the result truncated to the maximum length
func (r *FieldResolver) Normalize(name string) string {
	s := stripMarks(strings.TrimSpace(name))

	switch r.naming.Case {
	case model.CaseUpper:
		s = strings.ToUpper(s)
	case model.CaseLower:
		s = strings.ToLower(s)
	}

	s = r.invalid.ReplaceAllString(s, r.filler)
	s = repeatedUnderscores.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if s == "" {
		return ""
	}

	if lead := r.naming.LeadingLetter; lead != "" {
		first := []rune(s)[0]
		if !unicode.IsLetter(first) {
			s = lead + s
		}
	}

	return strings.TrimRight(truncate(s, r.naming.MaxLength), "_")
}

func stripMarks(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// truncate cuts s to at most n runes
func truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
