package apperr

import (
	"errors"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

// 领域错误分类。校验和授权错误在本地裁决并直接回给用户；
// "Already*"并非真正的失败，而是唯一键冲突映射出的提示性结果。
var (
	ErrUnauthenticated  = errors.New("authentication required")
	ErrForbidden        = errors.New("operation not permitted")
	ErrAlreadyMember    = errors.New("already a member of this group")
	ErrAlreadyRequested = errors.New("already requested to join this group")
	ErrValidation       = errors.New("validation failed")
	ErrNotFound         = errors.New("record not found")
	ErrTransient        = errors.New("transient store failure")
)

// 判断是否为数据库唯一键冲突(MySQL 1062)
func IsDuplicate(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1062
	}
	return false
}
