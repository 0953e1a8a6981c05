// Package validation はJSONリクエストボディのフィールド検証を提供する。
// すべてのフィールドを独立に検証し、違反をルール順に蓄積して返す。
package validation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/hitoshi/catalog/internal/model"
)

// maxBodyBytes はリクエストボディの上限サイズ。
const maxBodyBytes = 1 << 20

// BodyField は不正なボディ自体に対する違反のフィールド名。
const BodyField = "body"

// Body はデコード済みのリクエストボディ。値はフィールド単位で遅延デコードする。
type Body map[string]json.RawMessage

// Has はフィールドが指定されているかを返す。nullも指定ありとして扱う。
func (b Body) Has(field string) bool {
	_, ok := b[field]
	return ok
}

// Decode はリクエストボディをJSONオブジェクトとしてデコードする。
// 空ボディは空オブジェクトとして扱い、オブジェクト以外は違反を返す。
func Decode(r io.Reader) (Body, []model.Violation) {
	data, err := io.ReadAll(io.LimitReader(r, maxBodyBytes+1))
	if err != nil {
		return nil, []model.Violation{{Field: BodyField, Message: "Request body could not be read"}}
	}
	if len(data) > maxBodyBytes {
		return nil, []model.Violation{{Field: BodyField, Message: "Request body is too large"}}
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return Body{}, nil
	}

	var body Body
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, []model.Violation{{Field: BodyField, Message: "Request body must be a JSON object"}}
	}
	if body == nil {
		body = Body{}
	}
	return body, nil
}

// Check は1フィールドの値を検証し、違反があれば返す。
// fieldはネストした場合 "address.street" のようなパスになる。
type Check func(field string, raw json.RawMessage) []model.Violation

// Rule は1フィールドに対する検証ルール。
// Checksは先頭から評価し、最初の違反でそのフィールドの評価を打ち切る。
type Rule struct {
	Field    string
	Required bool
	Checks   []Check
}

// RuleSet はルール順に評価されるルールの集合。
type RuleSet []Rule

// Partial はすべてのルールを任意にしたコピーを返す。部分更新で使う。
// ネストしたObjectルールの内側は変更しない。
func (rs RuleSet) Partial() RuleSet {
	out := make(RuleSet, len(rs))
	for i, r := range rs {
		r.Required = false
		out[i] = r
	}
	return out
}

// Validate はbodyをルールセットで検証し、違反をすべて返す。
func (rs RuleSet) Validate(body Body) []model.Violation {
	return rs.validateAt("", body)
}

func (rs RuleSet) validateAt(prefix string, body Body) []model.Violation {
	var violations []model.Violation
	for _, rule := range rs {
		field := rule.Field
		if prefix != "" {
			field = prefix + "." + rule.Field
		}

		raw, ok := body[rule.Field]
		if !ok {
			if rule.Required {
				violations = append(violations, model.Violation{
					Field:   field,
					Message: fmt.Sprintf("%s is required", field),
				})
			}
			continue
		}

		for _, check := range rule.Checks {
			if vs := check(field, raw); len(vs) > 0 {
				violations = append(violations, vs...)
				break
			}
		}
	}
	return violations
}
