package user

import (
	"github.com/hitoshi/catalog/internal/model"
	"github.com/hitoshi/catalog/internal/validation"
)

// minPasswordLength はローカルパスワードの最小文字数。
const minPasswordLength = 6

// AddressRules は住所オブジェクトの検証ルール。
var AddressRules = validation.RuleSet{
	{Field: "street", Required: true, Checks: []validation.Check{validation.NonEmpty}},
	{Field: "city", Required: true, Checks: []validation.Check{validation.NonEmpty}},
	{Field: "state", Required: true, Checks: []validation.Check{validation.NonEmpty}},
	{Field: "zipCode", Required: true, Checks: []validation.Check{validation.NonEmpty}},
}

// CreateRules はユーザー作成時の検証ルール。
var CreateRules = validation.RuleSet{
	{Field: "firstName", Required: true, Checks: []validation.Check{validation.NonEmpty}},
	{Field: "lastName", Required: true, Checks: []validation.Check{validation.NonEmpty}},
	{Field: "email", Required: true, Checks: []validation.Check{validation.Email}},
	{Field: "password", Required: true, Checks: []validation.Check{validation.MinLength(minPasswordLength)}},
	{Field: "displayName", Checks: []validation.Check{validation.NonEmpty}},
	{Field: "dateOfBirth", Checks: []validation.Check{validation.ISODate}},
	{Field: "address", Checks: []validation.Check{validation.Object(AddressRules)}},
}

// UpdateRules は部分更新時の検証ルール。
// addressを指定する場合は住所全体を置き換えるため、内側のフィールドは必須のまま。
var UpdateRules = CreateRules.Partial()

// BindInput は検証済みのボディから入力値を組み立てる。
func BindInput(body validation.Body) model.UserInput {
	in := model.UserInput{
		FirstName:   validation.String(body, "firstName"),
		LastName:    validation.String(body, "lastName"),
		DisplayName: validation.String(body, "displayName"),
		Email:       validation.String(body, "email"),
		Password:    validation.String(body, "password"),
		DateOfBirth: validation.Date(body, "dateOfBirth"),
	}
	if addr, ok := validation.Nested(body, "address"); ok {
		in.Address = model.Some(model.Address{
			Street:  validation.String(addr, "street").Value,
			City:    validation.String(addr, "city").Value,
			State:   validation.String(addr, "state").Value,
			ZipCode: validation.String(addr, "zipCode").Value,
		})
	}
	return in
}
