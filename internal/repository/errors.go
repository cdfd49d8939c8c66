// Package repository holds the MySQL data access for users and messages.
// The sentinel values below let the service layer distinguish failure
// scenarios without inspecting driver errors: ErrNotFound for a missing
// row, ErrDuplicateUsername for the users primary key, ErrUnknownUser for a
// message referencing a user that does not exist, and ErrAlreadyRead when
// the read timestamp has already been set.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrDuplicateUsername = errors.New("username already exists")
	ErrUnknownUser       = errors.New("referenced user does not exist")
	ErrAlreadyRead       = errors.New("message already read")
)

// MySQL server error numbers.
const (
	errDupEntry           = 1062
	errNoReferencedRow    = 1452
	errNoReferencedRowOld = 1216
)

func isMySQLError(err error, codes ...uint16) bool {
	var me *mysql.MySQLError
	if !errors.As(err, &me) {
		return false
	}
	for _, c := range codes {
		if me.Number == c {
			return true
		}
	}
	return false
}
