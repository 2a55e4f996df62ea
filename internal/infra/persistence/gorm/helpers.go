// Package gormpersistence 提供 repository 接口的 GORM/MySQL 实现。
package gormpersistence

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// mysqlDuplicateEntry 是 MySQL 唯一约束冲突的错误码。
const mysqlDuplicateEntry = 1062

// isDuplicateEntryError 判断是否为唯一约束冲突错误。
func isDuplicateEntryError(err error) bool {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == mysqlDuplicateEntry
	}
	return false
}
