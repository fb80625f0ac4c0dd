package sessiondb

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "rudi.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpenRunsMigrations(t *testing.T) {
	db := testDB(t)

	var version int
	require.NoError(t, db.Get(&version, `SELECT MAX(version) FROM schema_version`))
	require.Equal(t, SchemaVersion, version)

	var pricingCount int
	require.NoError(t, db.Get(&pricingCount, `SELECT COUNT(*) FROM model_pricing`))
	require.Greater(t, pricingCount, 0)
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rudi.db")

	db1, err := Open(path)
	require.NoError(t, err)
	db1.Close()

	db2, err := Open(path)
	require.NoError(t, err)
	defer db2.Close()

	var version int
	require.NoError(t, db2.Get(&version, `SELECT MAX(version) FROM schema_version`))
	require.Equal(t, SchemaVersion, version)
}
