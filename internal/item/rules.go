package item

import (
	"github.com/hitoshi/catalog/internal/model"
	"github.com/hitoshi/catalog/internal/validation"
)

// CreateRules は商品作成時の検証ルール。全フィールド必須。
var CreateRules = validation.RuleSet{
	{Field: "productName", Required: true, Checks: []validation.Check{validation.NonEmpty}},
	{Field: "description", Required: true, Checks: []validation.Check{validation.NonEmpty}},
	{Field: "price", Required: true, Checks: []validation.Check{validation.Numeric, validation.NonNegative}},
	{Field: "stock", Required: true, Checks: []validation.Check{validation.Integer, validation.NonNegative}},
	{Field: "category", Required: true, Checks: []validation.Check{validation.NonEmpty}},
}

// UpdateRules は部分更新時の検証ルール。指定されたフィールドのみ検証する。
var UpdateRules = CreateRules.Partial()

// BindInput は検証済みのボディから入力値を組み立てる。
func BindInput(body validation.Body) model.ItemInput {
	return model.ItemInput{
		ProductName: validation.String(body, "productName"),
		Description: validation.String(body, "description"),
		Price:       validation.Float(body, "price"),
		Stock:       validation.Int(body, "stock"),
		Category:    validation.String(body, "category"),
	}
}
