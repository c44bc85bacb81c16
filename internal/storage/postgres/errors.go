package postgres

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	"github.com/joshu-sajeev/jobstore/common"
	"gorm.io/gorm"
)

// wrapDBError prefixes err with op and tags it with the matching storage
// sentinel so callers can branch with errors.Is. The driver error stays in
// the chain.
func wrapDBError(op string, err error) error {
	var netErr net.Error

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s: %w", op, common.ErrNotFound)
	case errors.Is(err, driver.ErrBadConn),
		errors.Is(err, sql.ErrConnDone),
		errors.As(err, &netErr):
		return fmt.Errorf("%s: %w: %w", op, common.ErrStorageUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func notFound(op, format string, args ...any) error {
	return fmt.Errorf("%s: %w: %s", op, common.ErrNotFound, fmt.Sprintf(format, args...))
}
