package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// DBTestSuite provides a test suite for key-value operations
type DBTestSuite struct {
	suite.Suite
	db *DB
}

// SetupTest runs before each test
func (suite *DBTestSuite) SetupTest() {
	db, err := NewDB(":memory:")
	require.NoError(suite.T(), err, "failed to create test database")
	suite.db = db
}

// TearDownTest runs after each test
func (suite *DBTestSuite) TearDownTest() {
	if suite.db != nil {
		suite.db.Close()
	}
}

func (suite *DBTestSuite) TestSetAndGet() {
	err := suite.db.Set("token", "abc")
	require.NoError(suite.T(), err)

	value, err := suite.db.Get("token")
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "abc", value)
}

func (suite *DBTestSuite) TestSetOverwrites() {
	require.NoError(suite.T(), suite.db.Set("token", "first"))
	require.NoError(suite.T(), suite.db.Set("token", "second"))

	value, err := suite.db.Get("token")
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "second", value)
}

func (suite *DBTestSuite) TestGetMissing() {
	_, err := suite.db.Get("nothing")
	assert.ErrorIs(suite.T(), err, ErrNotFound)
}

func (suite *DBTestSuite) TestSetMany() {
	err := suite.db.SetMany(map[string]string{
		"token":        "t1",
		"refreshToken": "r1",
		"user":         `{"id":"u1"}`,
	})
	require.NoError(suite.T(), err)

	keys, err := suite.db.Keys()
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), []string{"refreshToken", "token", "user"}, keys)
}

func (suite *DBTestSuite) TestDelete() {
	require.NoError(suite.T(), suite.db.SetMany(map[string]string{"a": "1", "b": "2", "c": "3"}))

	// Missing keys are ignored
	err := suite.db.Delete("a", "b", "missing")
	require.NoError(suite.T(), err)

	keys, err := suite.db.Keys()
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), []string{"c"}, keys)

	assert.NoError(suite.T(), suite.db.Delete())
}

func (suite *DBTestSuite) TestSchemaVersion() {
	version, err := suite.db.SchemaVersion()
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), uint(1), version)
}

func TestDBTestSuite(t *testing.T) {
	suite.Run(t, new(DBTestSuite))
}

func TestNewDBPersistsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.db")

	db, err := NewDB(path)
	require.NoError(t, err)
	require.NoError(t, db.Set("token", "persisted"))
	require.NoError(t, db.Close())

	// Reopening runs migrations again without error
	db, err = NewDB(path)
	require.NoError(t, err)
	defer db.Close()

	value, err := db.Get("token")
	require.NoError(t, err)
	assert.Equal(t, "persisted", value)
}

func TestNewDBSetsBusyTimeoutOnFiles(t *testing.T) {
	db, err := NewDB(filepath.Join(t.TempDir(), "session.db"))
	require.NoError(t, err)
	defer db.Close()

	var timeout int
	require.NoError(t, db.conn.QueryRow("PRAGMA busy_timeout").Scan(&timeout))
	assert.Equal(t, busyTimeoutMillis, timeout)
}

func TestDSN(t *testing.T) {
	assert.Equal(t, ":memory:", dsn(":memory:"))
	assert.Equal(t, "file::memory:?cache=shared", dsn("file::memory:?cache=shared"))
	assert.Equal(t, "/tmp/s.db?_pragma=busy_timeout(5000)", dsn("/tmp/s.db"))
	assert.Equal(t, "/tmp/s.db?mode=rwc&_pragma=busy_timeout(5000)", dsn("/tmp/s.db?mode=rwc"))
}
