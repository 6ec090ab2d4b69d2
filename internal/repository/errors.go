package repository

import (
	"errors"
	"regexp"
	"strings"

	"github.com/crm-argus/argus-api/internal/domain"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"
)

// "UNIQUE constraint failed: quote_items.quote_id, quote_items.position"
var (
	sqliteConstraintPattern = regexp.MustCompile(`constraint failed: (.+)$`)
	sqliteColumnPattern     = regexp.MustCompile(`[a-z_]+\.([a-z_]+)`)
)

// translateError maps driver errors onto the domain error classes. Errors that
// are neither a missing row nor a constraint failure are returned unchanged.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return &domain.ConstraintViolationError{Kind: domain.ConstraintUnique, Err: err}
	}
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return &domain.ConstraintViolationError{Kind: domain.ConstraintForeignKey, Err: err}
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
		return &domain.ConstraintViolationError{
			Kind:   sqliteConstraintKind(sqliteErr.ExtendedCode, sqliteErr.Error()),
			Column: sqliteColumn(sqliteErr.Error()),
			Err:    err,
		}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && strings.HasPrefix(pgErr.Code, "23") {
		return &domain.ConstraintViolationError{
			Kind:   postgresConstraintKind(pgErr.Code),
			Column: postgresColumn(pgErr),
			Err:    err,
		}
	}

	return err
}

// ON DELETE RESTRICT fires as a trigger constraint with a "FOREIGN KEY constraint failed" message
func sqliteConstraintKind(code sqlite3.ErrNoExtended, msg string) domain.ConstraintKind {
	switch code {
	case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
		return domain.ConstraintUnique
	case sqlite3.ErrConstraintForeignKey:
		return domain.ConstraintForeignKey
	case sqlite3.ErrConstraintTrigger:
		if strings.Contains(msg, "FOREIGN KEY") {
			return domain.ConstraintForeignKey
		}
		return domain.ConstraintCheck
	case sqlite3.ErrConstraintNotNull:
		return domain.ConstraintNotNull
	default:
		return domain.ConstraintCheck
	}
}

func sqliteColumn(msg string) string {
	m := sqliteConstraintPattern.FindStringSubmatch(msg)
	if len(m) < 2 {
		return ""
	}
	var columns []string
	for _, c := range sqliteColumnPattern.FindAllStringSubmatch(m[1], -1) {
		columns = append(columns, c[1])
	}
	return strings.Join(columns, " and ")
}

func postgresConstraintKind(code string) domain.ConstraintKind {
	switch code {
	case "23505":
		return domain.ConstraintUnique
	case "23503":
		return domain.ConstraintForeignKey
	case "23502":
		return domain.ConstraintNotNull
	default:
		return domain.ConstraintCheck
	}
}

// postgresColumn extracts the column from the error or from a "<table>_<column>_key" constraint name
func postgresColumn(pgErr *pgconn.PgError) string {
	if pgErr.ColumnName != "" {
		return pgErr.ColumnName
	}
	if pgErr.Code == "23505" && pgErr.TableName != "" {
		name := strings.TrimPrefix(pgErr.ConstraintName, pgErr.TableName+"_")
		return strings.TrimSuffix(name, "_key")
	}
	return ""
}
