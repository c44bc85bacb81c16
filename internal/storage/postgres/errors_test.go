package postgres

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"testing"

	"github.com/joshu-sajeev/jobstore/common"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestWrapDBError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantIs   []error
		wantText string
	}{
		{
			name:     "record not found",
			err:      gorm.ErrRecordNotFound,
			wantIs:   []error{common.ErrNotFound},
			wantText: "get job: not found",
		},
		{
			name:     "bad connection",
			err:      fmt.Errorf("exec: %w", driver.ErrBadConn),
			wantIs:   []error{common.ErrStorageUnavailable, driver.ErrBadConn},
			wantText: "get job: storage unavailable",
		},
		{
			name:     "already tagged not found",
			err:      fmt.Errorf("%w: job 3", common.ErrNotFound),
			wantIs:   []error{common.ErrNotFound},
			wantText: "get job: not found: job 3",
		},
		{
			name:     "other errors pass through",
			err:      errors.New("syntax error"),
			wantIs:   nil,
			wantText: "get job: syntax error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := wrapDBError("get job", tt.err)

			assert.Contains(t, err.Error(), tt.wantText)
			for _, target := range tt.wantIs {
				assert.ErrorIs(t, err, target)
			}
			if tt.wantIs == nil {
				assert.NotErrorIs(t, err, common.ErrNotFound)
				assert.NotErrorIs(t, err, common.ErrStorageUnavailable)
			}
		})
	}
}
