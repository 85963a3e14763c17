package db

import (
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMySQLDSNForcesFoundRows(t *testing.T) {
	dsn, err := mysqlDSN("root:secret@tcp(localhost:3306)/kf_olx")
	require.NoError(t, err)

	cfg, err := mysql.ParseDSN(dsn)
	require.NoError(t, err)
	assert.True(t, cfg.ClientFoundRows)
	assert.True(t, cfg.ParseTime)
	assert.True(t, cfg.MultiStatements)
	assert.Equal(t, "kf_olx", cfg.DBName)
}

func TestMySQLDSNKeepsAddress(t *testing.T) {
	dsn, err := mysqlDSN("root@tcp(db:3306)/kf_olx?loc=Local")
	require.NoError(t, err)

	cfg, err := mysql.ParseDSN(dsn)
	require.NoError(t, err)
	assert.Equal(t, "db:3306", cfg.Addr)
	assert.Equal(t, "root", cfg.User)
}

func TestMySQLDSNRejectsGarbage(t *testing.T) {
	_, err := mysqlDSN("tcp(")
	require.Error(t, err)
}
