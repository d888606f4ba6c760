// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscriber_DeriveName(t *testing.T) {
	tests := []struct {
		name      string
		input     Subscriber
		wantName  string
		wantFirst string
		wantLast  string
	}{
		{
			name:      "full name splits on first space",
			input:     Subscriber{Name: "Jane Doe"},
			wantName:  "Jane Doe",
			wantFirst: "Jane",
			wantLast:  "Doe",
		},
		{
			name:      "single word name leaves last name unset",
			input:     Subscriber{Name: "Madonna"},
			wantName:  "Madonna",
			wantFirst: "Madonna",
		},
		{
			name:      "only the first space splits",
			input:     Subscriber{Name: "Mary Ann Lee"},
			wantName:  "Mary Ann Lee",
			wantFirst: "Mary",
			wantLast:  "Ann Lee",
		},
		{
			name:      "split fields win over a stale name",
			input:     Subscriber{Name: "Old Name", FirstName: "Ann", LastName: "Lee"},
			wantName:  "Ann Lee",
			wantFirst: "Ann",
			wantLast:  "Lee",
		},
		{
			name:      "first name only builds name",
			input:     Subscriber{FirstName: "Cher"},
			wantName:  "Cher",
			wantFirst: "Cher",
		},
		{
			name:     "last name only builds name",
			input:    Subscriber{LastName: "Smith"},
			wantName: "Smith",
			wantLast: "Smith",
		},
		{
			name:  "empty stays empty",
			input: Subscriber{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := tt.input
			sub.DeriveName()

			assert.Equal(t, tt.wantName, sub.Name)
			assert.Equal(t, tt.wantFirst, sub.FirstName)
			assert.Equal(t, tt.wantLast, sub.LastName)

			// idempotent
			again := sub
			again.DeriveName()
			assert.Equal(t, sub, again)
		})
	}
}

func TestSubscriber_DeriveName_Nil(t *testing.T) {
	var sub *Subscriber
	assert.NotPanics(t, func() { sub.DeriveName() })
}

func TestSubscriber_Standard(t *testing.T) {
	sub := &Subscriber{
		FirstName: "Ann",
		LastName:  "Lee",
		Phone:     "  ",
		Company:   "Acme",
	}

	assert.Equal(t, map[string]string{
		FieldFirstName: "Ann",
		FieldLastName:  "Lee",
		FieldCompany:   "Acme",
	}, sub.Standard())
}

func TestSubscriber_SetStandard(t *testing.T) {
	sub := &Subscriber{}

	assert.True(t, sub.SetStandard("Site", "https://example.com"))
	assert.True(t, sub.SetStandard(FieldPhone, "555-0100"))
	assert.False(t, sub.SetStandard("source", "homepage"))

	assert.Equal(t, "https://example.com", sub.Site)
	assert.Equal(t, "555-0100", sub.Phone)
}

func TestSubscriber_SetMeta(t *testing.T) {
	sub := &Subscriber{}

	sub.SetMeta("Source", "homepage")
	sub.SetMeta("Empty", "")
	sub.SetMeta("Blank", "   ")

	assert.Equal(t, map[string]string{"Source": "homepage"}, sub.Meta)
}

func TestSubscriber_JSONShape(t *testing.T) {
	raw := `{"name":"Ann Lee","meta":{"Source":"homepage"},"$integration":{"id":"42","lists":["l1"],"tags":["vip"]}}`

	var sub Subscriber
	require.NoError(t, json.Unmarshal([]byte(raw), &sub))

	assert.Equal(t, "Ann Lee", sub.Name)
	assert.Equal(t, "homepage", sub.Meta["Source"])
	require.NotNil(t, sub.Integration)
	assert.Equal(t, "42", sub.IntegrationID())
	assert.Equal(t, []string{"l1"}, sub.Integration.Lists)
	assert.Equal(t, []string{"vip"}, sub.Integration.Tags)

	out, err := json.Marshal(&Subscriber{FirstName: "Ann"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"first_name":"Ann"}`, string(out))
}

func TestIsStandardField(t *testing.T) {
	assert.True(t, IsStandardField("first_name"))
	assert.True(t, IsStandardField("Company"))
	assert.False(t, IsStandardField("source"))
}
