package migrations

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitStatements(t *testing.T) {
	script := `
-- ledger replica
CREATE TABLE a (x String DEFAULT 'a;b');
CREATE TABLE b (y String DEFAULT 'it''s; fine'); -- trailing comment
;
INSERT INTO a VALUES ('--not a comment')
`
	stmts, err := splitStatements(script)
	require.NoError(t, err)
	require.Len(t, stmts, 3)
	assert.Equal(t, "CREATE TABLE a (x String DEFAULT 'a;b')", stmts[0])
	assert.Equal(t, "CREATE TABLE b (y String DEFAULT 'it''s; fine')", stmts[1])
	assert.Equal(t, "INSERT INTO a VALUES ('--not a comment')", stmts[2])
}

func TestSplitStatements_Unterminated(t *testing.T) {
	_, err := splitStatements("SELECT 'oops;")
	assert.Error(t, err)
}

func TestDatabaseFromDSN(t *testing.T) {
	db, err := databaseFromDSN("clickhouse://default:pw@localhost:9000/ledger?dial_timeout=5s")
	require.NoError(t, err)
	assert.Equal(t, "ledger", db)

	for _, dsn := range []string{
		"clickhouse://localhost:9000",
		"clickhouse://localhost:9000/",
		"clickhouse://localhost:9000/ledger;DROP",
		"clickhouse://localhost:9000/1ledger",
	} {
		_, err := databaseFromDSN(dsn)
		assert.Error(t, err, dsn)
	}
}

func TestEmbeddedMigrations(t *testing.T) {
	pg, err := load(PostgresFS, "postgres")
	require.NoError(t, err)
	require.Len(t, pg, 2)
	assert.Equal(t, "001_asset_extended_info.sql", pg[0].name)
	assert.Equal(t, "002_ledger_mirror.sql", pg[1].name)

	ch, err := load(ClickhouseFS, "clickhouse")
	require.NoError(t, err)
	require.Len(t, ch, 1)

	stmts, err := splitStatements(ch[0].sql)
	require.NoError(t, err)
	for _, table := range []string{"blocks", "orders", "order_matches", "issuances", "credits", "debits"} {
		found := false
		for _, s := range stmts {
			if strings.HasPrefix(s, "CREATE TABLE IF NOT EXISTS "+table+" (") {
				found = true
			}
		}
		assert.True(t, found, "missing table %s", table)
	}
}
