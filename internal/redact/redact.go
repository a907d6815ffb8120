// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

// Package redact scrubs personally identifying and secret material from
// report text. It is applied to file output only; in-memory analysis always
// sees the raw values.
package redact

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
)

var (
	passwordRe   = regexp.MustCompile(`(?i)(password[:=]\s*)\S+`)
	pwdRe        = regexp.MustCompile(`(?i)(pwd[:=]\s*)\S+`)
	tokenRe      = regexp.MustCompile(`(?i)(token[:=]\s*)\S+`)
	bearerRe     = regexp.MustCompile(`(Bearer\s+)\S+`)
	secretRe     = regexp.MustCompile(`(?i)(secret[:=]\s*)\S+`)
	apiKeyRe     = regexp.MustCompile(`(?i)(api[_-]?key[:s]?\s*)([a-zA-Z0-9_-]{20,})`)
	emailRe      = regexp.MustCompile(`\b([a-zA-Z0-9._%+-]+)@([a-zA-Z0-9.-]+\.[a-zA-Z]{2,})\b`)
	macRe        = regexp.MustCompile(`\b(?:[0-9A-Fa-f]{2}[:-]){5}[0-9A-Fa-f]{2}\b`)
	ipRe         = regexp.MustCompile(`\b(\d{1,3}\.\d{1,3}\.\d{1,3})\.\d{1,3}\b`)
	productKeyRe = regexp.MustCompile(`\b(?:[A-Z0-9]{5}-){4}[A-Z0-9]{5}\b`)
	serialRe     = regexp.MustCompile(`\b[A-Z0-9]{10,}\b`)
	userPathRe   = regexp.MustCompile(`(?i)(C:\\Users\\|/Users/)([^/\\]+)([/\\])`)
)

// systemAccounts are profile directories that are not personal usernames.
var systemAccounts = map[string]bool{
	"public":       true,
	"default":      true,
	"all users":    true,
	"default user": true,
}

// Redactor rewrites sensitive substrings in free text. Username anonymization
// is cached so the same account maps to the same placeholder within a run.
type Redactor struct {
	usernames map[string]string
}

func New() *Redactor {
	return &Redactor{usernames: make(map[string]string)}
}

// Text applies every redaction rule to s. Rules are independent; the order
// only matters where patterns overlap (secrets before the generic serial
// sweep).
func (r *Redactor) Text(s string) string {
	if s == "" {
		return ""
	}
	s = passwordRe.ReplaceAllString(s, "${1}[REDACTED]")
	s = pwdRe.ReplaceAllString(s, "${1}[REDACTED]")
	s = tokenRe.ReplaceAllString(s, "${1}[REDACTED]")
	s = bearerRe.ReplaceAllString(s, "${1}[REDACTED]")
	s = secretRe.ReplaceAllString(s, "${1}[REDACTED]")
	s = apiKeyRe.ReplaceAllStringFunc(s, redactAPIKey)
	s = emailRe.ReplaceAllStringFunc(s, redactEmail)
	s = macRe.ReplaceAllStringFunc(s, redactMAC)
	s = ipRe.ReplaceAllString(s, "${1}.***")
	s = productKeyRe.ReplaceAllString(s, "[PRODUCT-KEY-REDACTED]")
	s = serialRe.ReplaceAllStringFunc(s, redactSerial)
	s = r.Path(s)
	return s
}

// Path replaces the username component of Windows and macOS style user paths
// with a stable anonymized placeholder.
func (r *Redactor) Path(s string) string {
	return userPathRe.ReplaceAllStringFunc(s, func(match string) string {
		groups := userPathRe.FindStringSubmatch(match)
		if groups == nil {
			return match
		}
		username := groups[2]
		if systemAccounts[strings.ToLower(username)] {
			return match
		}
		return groups[1] + r.AnonymizeUsername(username) + groups[3]
	})
}

// AnonymizeUsername maps a username to USER_<hash8>. The mapping is stable
// within one Redactor so repeated mentions stay correlated.
func (r *Redactor) AnonymizeUsername(username string) string {
	if anon, ok := r.usernames[username]; ok {
		return anon
	}
	sum := sha256.Sum256([]byte(username))
	anon := "USER_" + hex.EncodeToString(sum[:])[:8]
	r.usernames[username] = anon
	return anon
}

func redactAPIKey(match string) string {
	groups := apiKeyRe.FindStringSubmatch(match)
	if groups == nil {
		return match
	}
	prefix, key := groups[1], groups[2]
	if len(key) > 8 {
		return prefix + strings.Repeat("*", len(key)-4) + key[len(key)-4:]
	}
	return prefix + "[REDACTED]"
}

func redactEmail(match string) string {
	groups := emailRe.FindStringSubmatch(match)
	if groups == nil {
		return match
	}
	local, domain := groups[1], groups[2]
	if len(local) > 3 {
		return fmt.Sprintf("%s***@%s", local[:2], domain)
	}
	return "***@" + domain
}

func redactMAC(match string) string {
	parts := strings.FieldsFunc(match, func(r rune) bool { return r == ':' || r == '-' })
	if len(parts) != 6 {
		return "[MAC-REDACTED]"
	}
	return fmt.Sprintf("%s:%s:%s:**:**:**", parts[0], parts[1], parts[2])
}

func redactSerial(match string) string {
	if len(match) > 6 {
		return match[:2] + strings.Repeat("*", len(match)-4) + match[len(match)-2:]
	}
	return "[SERIAL-REDACTED]"
}
