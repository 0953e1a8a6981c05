package validation

import (
	"encoding/json"
	"time"

	"github.com/hitoshi/catalog/internal/model"
)

// 以下のバインド関数は検証済みのBodyから値を取り出す。
// 未指定または型が合わないフィールドはmodel.None()を返す。

// String は文字列フィールドを取り出す。
func String(b Body, field string) model.Optional[string] {
	raw, ok := b[field]
	if !ok {
		return model.None[string]()
	}
	s, ok := stringValue(raw)
	if !ok {
		return model.None[string]()
	}
	return model.Some(s)
}

// Float は数値フィールドを取り出す。数値文字列も受け付ける。
func Float(b Body, field string) model.Optional[float64] {
	raw, ok := b[field]
	if !ok {
		return model.None[float64]()
	}
	f, ok := ParseNumber(raw)
	if !ok {
		return model.None[float64]()
	}
	return model.Some(f)
}

// Int は整数フィールドを取り出す。
func Int(b Body, field string) model.Optional[int64] {
	raw, ok := b[field]
	if !ok {
		return model.None[int64]()
	}
	i, ok := ParseInteger(raw)
	if !ok {
		return model.None[int64]()
	}
	return model.Some(i)
}

// Date はYYYY-MM-DD形式の日付フィールドを取り出す。
func Date(b Body, field string) model.Optional[time.Time] {
	raw, ok := b[field]
	if !ok {
		return model.None[time.Time]()
	}
	d, ok := ParseDate(raw)
	if !ok {
		return model.None[time.Time]()
	}
	return model.Some(d)
}

// Nested はオブジェクトフィールドをBodyとして取り出す。
func Nested(b Body, field string) (Body, bool) {
	raw, ok := b[field]
	if !ok || isNull(raw) {
		return nil, false
	}
	var nested Body
	if err := json.Unmarshal(raw, &nested); err != nil || nested == nil {
		return nil, false
	}
	return nested, true
}
