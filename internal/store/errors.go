package store

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"jobmirror/internal/domain"
)

const pqUniqueViolation = "23505"

// duplicateKey wraps unique-constraint violations from either driver as
// domain.ErrDuplicateKey. Other errors pass through.
func duplicateKey(err error, id string) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
		return fmt.Errorf("%w: %s: %v", domain.ErrDuplicateKey, id, err)
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE:
			return fmt.Errorf("%w: %s: %v", domain.ErrDuplicateKey, id, err)
		}
	}
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return fmt.Errorf("%w: %s: %v", domain.ErrDuplicateKey, id, err)
	}
	return err
}
