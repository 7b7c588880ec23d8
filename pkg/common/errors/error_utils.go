package errors

import (
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

var (
	ErrAttemptNotFound  = errors.New("registration attempt not found")
	ErrDuplicateEntry   = errors.New("duplicate attempt entry")
	ErrDatabaseInternal = errors.New("database internal error")
)

// WrapGormError 将底层数据库错误转变为业务可识别错误
func WrapGormError(rawErr error) error {
	if rawErr == nil {
		return nil
	}

	switch {
	case errors.Is(rawErr, gorm.ErrRecordNotFound):
		return ErrAttemptNotFound
	case errors.Is(rawErr, gorm.ErrDuplicatedKey):
		return ErrDuplicateEntry
	case errors.Is(rawErr, gorm.ErrInvalidDB), errors.Is(rawErr, gorm.ErrInvalidTransaction):
		return fmt.Errorf("%w: %v", ErrDatabaseInternal, rawErr)
	}

	// 处理MySQL驱动错误
	var mysqlErr *mysql.MySQLError
	if errors.As(rawErr, &mysqlErr) {
		switch mysqlErr.Number {
		case 1062: // 唯一性约束冲突
			return ErrDuplicateEntry
		case 1044, 1045, 1049, 1146: // 权限、连接、表不存在等错误
			return fmt.Errorf("%w: %s", ErrDatabaseInternal, mysqlErr.Message)
		}
	}

	return fmt.Errorf("%w: %v", ErrDatabaseInternal, rawErr)
}

// IsDuplicateError 判断是否为重复记录错误
func IsDuplicateError(err error) bool {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
		return true
	}
	return errors.Is(err, ErrDuplicateEntry) || errors.Is(err, gorm.ErrDuplicatedKey)
}
