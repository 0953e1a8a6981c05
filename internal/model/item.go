package model

import "time"

// Item はカタログ上の商品を表す。
type Item struct {
	ID          string    `json:"id"`
	ProductName string    `json:"productName"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Stock       int64     `json:"stock"`
	Category    string    `json:"category"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ItemInput は商品作成・更新リクエストの入力値。
type ItemInput struct {
	ProductName Optional[string]
	Description Optional[string]
	Price       Optional[float64]
	Stock       Optional[int64]
	Category    Optional[string]
}

// ApplyTo は指定されたフィールドのみをitemに反映する。
// 0や空文字列であっても指定されていれば上書きする。
func (in ItemInput) ApplyTo(item *Item) {
	in.ProductName.Apply(&item.ProductName)
	in.Description.Apply(&item.Description)
	in.Price.Apply(&item.Price)
	in.Stock.Apply(&item.Stock)
	in.Category.Apply(&item.Category)
}
