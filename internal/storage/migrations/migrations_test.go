package migrations

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitStatements(t *testing.T) {
	sql := `
-- header comment
CREATE TABLE a (x Int32);

  -- indented comment
CREATE TABLE b (
    y String
);
`
	stmts := splitStatements(sql)
	require.Len(t, stmts, 2)
	assert.Equal(t, "CREATE TABLE a (x Int32)", stmts[0])
	assert.Contains(t, stmts[1], "CREATE TABLE b")
	assert.Contains(t, stmts[1], "y String")
}

func TestValidateNoSemicolonInStrings(t *testing.T) {
	assert.NoError(t, validateNoSemicolonInStrings(`SELECT 'a'; SELECT 'it''s';`))
	assert.Error(t, validateNoSemicolonInStrings(`SELECT 'a;b';`))
	assert.Error(t, validateNoSemicolonInStrings(`SELECT 'it''s;x';`))
}

func TestEmbeddedMigrations(t *testing.T) {
	pg, err := migrationFiles(PostgresFS, "postgres")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"001_sales_observations.sql",
		"002_sku_elasticity.sql",
		"003_run_summaries.sql",
	}, pg)

	ch, err := migrationFiles(ClickhouseFS, "clickhouse")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"001_revenue_simulation.sql",
		"002_sku_elasticity.sql",
	}, ch)

	for _, file := range ch {
		data, err := ClickhouseFS.ReadFile("clickhouse/" + file)
		require.NoError(t, err)
		assert.NoError(t, validateNoSemicolonInStrings(string(data)), file)
		assert.NotEmpty(t, splitStatements(string(data)), file)
	}
}
