package model

// Optional はリクエストで「指定されたかどうか」を値と共に保持するフィールド。
// 未指定（Set=false）と、ゼロ値が明示的に指定された状態（Set=true, Value=0）を区別する。
// 部分更新では Set のフィールドのみを反映する。
type Optional[T any] struct {
	Set   bool
	Value T
}

// Some は指定済みのOptionalを生成する。
func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: v}
}

// None は未指定のOptionalを生成する。
func None[T any]() Optional[T] {
	return Optional[T]{}
}

// Apply はフィールドが指定されている場合のみdstに値を書き込む。
// 書き込んだ場合はtrueを返す。
func (o Optional[T]) Apply(dst *T) bool {
	if !o.Set {
		return false
	}
	*dst = o.Value
	return true
}

// Or はフィールドが指定されていればその値を、未指定ならfallbackを返す。
func (o Optional[T]) Or(fallback T) T {
	if o.Set {
		return o.Value
	}
	return fallback
}
