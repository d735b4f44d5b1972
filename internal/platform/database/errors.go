package database

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"
)

// pgUniqueViolation 是PostgreSQL的 unique_violation SQLSTATE
const pgUniqueViolation = "23505"

// UniqueViolation 描述一次唯一约束冲突。
// Target 在PostgreSQL下是约束名，在SQLite下是 "表.列" 列表。
type UniqueViolation struct {
	Target string
}

// AsUniqueViolation 判断错误是否为唯一约束冲突，兼容pgx、sqlite3以及GORM翻译后的错误。
func AsUniqueViolation(err error) (UniqueViolation, bool) {
	if err == nil {
		return UniqueViolation{}, false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == pgUniqueViolation {
			return UniqueViolation{Target: pgErr.ConstraintName}, true
		}
		return UniqueViolation{}, false
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.ExtendedCode {
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			// 形如 "UNIQUE constraint failed: pokemon.pokedex_number"
			msg := sqliteErr.Error()
			if i := strings.Index(msg, ":"); i >= 0 {
				return UniqueViolation{Target: strings.TrimSpace(msg[i+1:])}, true
			}
			return UniqueViolation{Target: msg}, true
		}
		return UniqueViolation{}, false
	}

	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return UniqueViolation{}, true
	}
	return UniqueViolation{}, false
}

// IsUniqueViolation 是 AsUniqueViolation 的简写
func IsUniqueViolation(err error) bool {
	_, ok := AsUniqueViolation(err)
	return ok
}

// Touches 判断冲突是否涉及给定的列或约束名片段
func (u UniqueViolation) Touches(fragment string) bool {
	return fragment != "" && strings.Contains(u.Target, fragment)
}
