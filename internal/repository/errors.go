package repository

import (
	"errors"

	"github.com/lib/pq"
)

var (
	// ErrNotFound は更新・削除対象のレコードが存在しないことを示す。
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate は一意制約違反を示す。
	ErrDuplicate = errors.New("duplicate record")
)

// PostgreSQLのエラーコード
const (
	pqUniqueViolation = pq.ErrorCode("23505")
)

// isUniqueViolation はerrがPostgreSQLの一意制約違反かを判定する。
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation
}
