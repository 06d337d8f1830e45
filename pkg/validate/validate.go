// Package validate checks caller-supplied identifiers and pagination
// parameters before any request is issued.
//
// Checks are pure and run in a fixed field order; the first violated
// constraint is reported as an apierr.CodeInvalidParameter error.
package validate

import (
	"regexp"
	"strings"

	"github.com/godeps/lineweb-go/pkg/apierr"
)

const (
	// ChatIDLength is the fixed length of web chat identifiers.
	ChatIDLength = 33
	// BotIDLength is the fixed length of web bot identifiers.
	BotIDLength = 33
	// UserIDLength is the fixed length of web user identifiers.
	UserIDLength = 33
	// BizIDLength is the length of a business-owner UUID.
	BizIDLength = 36
)

var (
	alphanumeric = regexp.MustCompile(`^[a-zA-Z0-9]+$`)
	digits       = regexp.MustCompile(`^[0-9]+$`)
	uuidShape    = regexp.MustCompile(`^[0-9a-fA-F-]{36}$`)
)

// Params is the set of parameters an operation declares. Nil fields are
// treated as absent and skipped.
//
// LimitPerPage is checked against the inclusive range LimitMin..LimitMax
// when LimitMax is positive.
type Params struct {
	ChatID        *string
	BotID         *string
	LimitPerPage  *int
	LimitMin      int
	LimitMax      int
	MaxPages      *int
	NextToken     *string
	BackwardToken *string
	UserIDs       []string
	BizIDs        []string
	TagIDs        []string
	MessageID     *string
	Timestamp     *string
}

// String returns a pointer to s for use in Params.
func String(s string) *string { return &s }

// Int returns a pointer to n for use in Params.
func Int(n int) *int { return &n }

// Optional returns nil for an empty string, otherwise a pointer to s.
func Optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Check validates p field by field and returns the first violation.
func Check(p Params) error {
	if p.ChatID != nil {
		if err := fixedID("webChatId", *p.ChatID, ChatIDLength); err != nil {
			return err
		}
	}
	if p.BotID != nil {
		if err := fixedID("webBotId", *p.BotID, BotIDLength); err != nil {
			return err
		}
	}
	if p.LimitPerPage != nil && p.LimitMax > 0 {
		if err := Limit(*p.LimitPerPage, p.LimitMin, p.LimitMax); err != nil {
			return err
		}
	}
	if p.MaxPages != nil && *p.MaxPages < 0 {
		return invalid("Invalid maxPages value (must be a non-negative integer). Received: %d", *p.MaxPages)
	}
	if p.NextToken != nil {
		if err := token("nextToken", *p.NextToken); err != nil {
			return err
		}
	}
	if p.BackwardToken != nil {
		if err := token("backwardToken", *p.BackwardToken); err != nil {
			return err
		}
	}
	for _, id := range p.UserIDs {
		if err := fixedID("webUserId", id, UserIDLength); err != nil {
			return err
		}
	}
	for _, id := range p.BizIDs {
		if err := bizID(id); err != nil {
			return err
		}
	}
	for _, id := range p.TagIDs {
		if err := tagID(id); err != nil {
			return err
		}
	}
	if p.MessageID != nil {
		if err := numeric("messageId", *p.MessageID); err != nil {
			return err
		}
	}
	if p.Timestamp != nil {
		if err := numeric("timestamp", *p.Timestamp); err != nil {
			return err
		}
	}
	return nil
}

// Limit enforces the inclusive page-size range of an endpoint.
func Limit(value, min, max int) error {
	if value < min || value > max {
		return invalid("Invalid limitPerPage value (must be between %d and %d). Received: %d", min, max, value)
	}
	return nil
}

// Exclusive fails when both named parameters are supplied.
func Exclusive(name string, set bool, other string, otherSet bool) error {
	if set && otherSet {
		return invalid("%s is not supported when %s is provided.", name, other)
	}
	return nil
}

// OneOf fails when value is not among allowed.
func OneOf(field, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return invalid("Invalid %s value (must be one of %s). Received: %q", field, strings.Join(allowed, ", "), value)
}

func fixedID(field, value string, length int) error {
	if strings.TrimSpace(value) == "" {
		return invalid("%s cannot be an empty string.", field)
	}
	if len(value) != length {
		return invalid("Invalid %s length (must be %d characters). Received: %d", field, length, len(value))
	}
	if !alphanumeric.MatchString(value) {
		return invalid("%s must contain only a-z, A-Z, 0-9 characters. Received: %q", field, value)
	}
	return nil
}

func bizID(value string) error {
	if strings.TrimSpace(value) == "" {
		return invalid("bizId cannot be an empty string.")
	}
	if len(value) != BizIDLength {
		return invalid("Invalid bizId length (must be %d characters for UUID). Received: %d", BizIDLength, len(value))
	}
	if !uuidShape.MatchString(value) {
		return invalid("bizId must be a valid UUID (36 characters, hex and dashes). Received: %q", value)
	}
	return nil
}

func tagID(value string) error {
	if strings.TrimSpace(value) == "" {
		return invalid("tagId cannot be an empty string.")
	}
	if !alphanumeric.MatchString(value) {
		return invalid("tagId must contain only a-z, A-Z, 0-9 characters. Received: %q", value)
	}
	return nil
}

func numeric(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return invalid("%s cannot be an empty string.", field)
	}
	if !digits.MatchString(value) {
		return invalid("%s must contain only digits (0-9). Received: %q", field, value)
	}
	return nil
}

func token(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return invalid("%s cannot be an empty string.", field)
	}
	return nil
}

func invalid(format string, args ...any) error {
	return apierr.Newf(apierr.CodeInvalidParameter, format, args...)
}
