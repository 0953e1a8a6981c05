package validation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"net/mail"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/hitoshi/catalog/internal/model"
)

func violation(field, format string, args ...any) []model.Violation {
	return []model.Violation{{Field: field, Message: fmt.Sprintf(format, args...)}}
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// stringValue はrawがJSON文字列の場合にその値を返す。
func stringValue(raw json.RawMessage) (string, bool) {
	if isNull(raw) {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// numberText はrawがJSON数値または数値文字列の場合に、その数値表現を返す。
func numberText(raw json.RawMessage) (string, bool) {
	if isNull(raw) {
		return "", false
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String(), true
	}
	if s, ok := stringValue(raw); ok {
		s = strings.TrimSpace(s)
		if s != "" {
			return s, true
		}
	}
	return "", false
}

// ParseNumber はJSON数値または数値文字列をfloat64として解釈する。
func ParseNumber(raw json.RawMessage) (float64, bool) {
	text, ok := numberText(raw)
	if !ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// ParseInteger はJSON整数または整数文字列をint64として解釈する。
func ParseInteger(raw json.RawMessage) (int64, bool) {
	text, ok := numberText(raw)
	if !ok {
		return 0, false
	}
	i, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return 0, false
	}
	return i, true
}

// NonEmpty は空白のみでない文字列であることを検証する。
func NonEmpty(field string, raw json.RawMessage) []model.Violation {
	s, ok := stringValue(raw)
	if !ok {
		return violation(field, "%s must be a string", field)
	}
	if strings.TrimSpace(s) == "" {
		return violation(field, "%s is required", field)
	}
	return nil
}

// Numeric は数値または数値文字列であることを検証する。
func Numeric(field string, raw json.RawMessage) []model.Violation {
	if _, ok := ParseNumber(raw); !ok {
		return violation(field, "%s must be a number", field)
	}
	return nil
}

// Integer は整数であることを検証する。
func Integer(field string, raw json.RawMessage) []model.Violation {
	if _, ok := ParseInteger(raw); !ok {
		return violation(field, "%s must be an integer", field)
	}
	return nil
}

// NonNegative は0以上の数値であることを検証する。
func NonNegative(field string, raw json.RawMessage) []model.Violation {
	f, ok := ParseNumber(raw)
	if !ok {
		return violation(field, "%s must be a number", field)
	}
	if f < 0 {
		return violation(field, "%s must not be negative", field)
	}
	return nil
}

// Email はメールアドレス形式の文字列であることを検証する。
// 表示名付きの形式（"Pen <pen@example.com>"）は受け付けない。
func Email(field string, raw json.RawMessage) []model.Violation {
	s, ok := stringValue(raw)
	if !ok {
		return violation(field, "%s is invalid", field)
	}
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s || !strings.Contains(addr.Address[strings.LastIndex(addr.Address, "@")+1:], ".") {
		return violation(field, "%s is invalid", field)
	}
	return nil
}

// MinLength は文字数がn以上の文字列であることを検証する。
func MinLength(n int) Check {
	return func(field string, raw json.RawMessage) []model.Violation {
		s, ok := stringValue(raw)
		if !ok || utf8.RuneCountInString(s) < n {
			return violation(field, "%s must be at least %d characters long", field, n)
		}
		return nil
	}
}

// ISODate はYYYY-MM-DD形式の日付文字列であることを検証する。
func ISODate(field string, raw json.RawMessage) []model.Violation {
	if _, ok := ParseDate(raw); !ok {
		return violation(field, "%s must be a date in YYYY-MM-DD format", field)
	}
	return nil
}

// ParseDate はYYYY-MM-DD形式の日付文字列を解釈する。
func ParseDate(raw json.RawMessage) (time.Time, bool) {
	s, ok := stringValue(raw)
	if !ok {
		return time.Time{}, false
	}
	d, err := time.Parse(model.DateLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

// Object はネストしたオブジェクトをrulesで検証する。
// 違反のフィールド名は "address.street" のように親フィールドを前置する。
func Object(rules RuleSet) Check {
	return func(field string, raw json.RawMessage) []model.Violation {
		var nested Body
		if err := json.Unmarshal(raw, &nested); err != nil || nested == nil {
			return violation(field, "%s must be an object", field)
		}
		return rules.validateAt(field, nested)
	}
}
