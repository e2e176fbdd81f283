package scheduler

import (
	"database/sql"
	"testing"

	bmstest "github.com/odsconseil/bms/internal/testing"
)

// createTestDB creates an in-memory test database.
func createTestDB(t *testing.T) *sql.DB {
	return bmstest.CreateTestDB(t)
}
