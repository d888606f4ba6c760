// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package redaction masks personal data before it reaches the logs.
package redaction

import "strings"

// RedactEmail keeps the first character of the local part and the domain:
// "jane.doe@example.com" becomes "j***@example.com".
// Values without an "@" are fully masked.
func RedactEmail(email string) string {
	email = strings.TrimSpace(email)
	if email == "" {
		return ""
	}

	local, domain, found := strings.Cut(email, "@")
	if !found || local == "" {
		return "***"
	}

	return local[:1] + "***@" + domain
}

// Redact masks a secret, keeping only its last four characters when it is long enough.
func Redact(secret string) string {
	if len(secret) <= 8 {
		return "***"
	}
	return "***" + secret[len(secret)-4:]
}
