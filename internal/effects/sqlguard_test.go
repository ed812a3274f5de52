// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package effects

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsWriteStatement_ReadOnly(t *testing.T) {
	t.Parallel()

	cases := []string{
		"SELECT * FROM t",
		"  select id, name from t where id = 1",
		"-- leading comment\nSELECT 1",
		"/* block comment */ SELECT 1",
		"SHOW TABLES IN SCHEMA a.b",
		"DESCRIBE TABLE a.b.c",
		"WITH recent AS (SELECT * FROM orders) SELECT * FROM recent",
		"WITH a AS (SELECT 1), b AS (SELECT 2) SELECT * FROM a JOIN b",
	}

	for _, sql := range cases {
		assert.False(t, IsWriteStatement(sql), sql)
	}
}

func TestIsWriteStatement_Writes(t *testing.T) {
	t.Parallel()

	cases := []string{
		"INSERT INTO t VALUES (1)",
		"UPDATE t SET x = 1",
		"DELETE FROM t",
		"MERGE INTO t USING s ON t.id = s.id WHEN MATCHED THEN UPDATE SET t.x = s.x",
		"CREATE TABLE t (id INT)",
		"DROP TABLE t",
		"ALTER TABLE t ADD COLUMN y INT",
		"TRUNCATE TABLE t",
		"GRANT SELECT ON t TO ROLE r",
		"REVOKE SELECT ON t FROM ROLE r",
		"COPY INTO t FROM @stage",
		"WITH a AS (SELECT 1) INSERT INTO t SELECT * FROM a",
	}

	for _, sql := range cases {
		assert.True(t, IsWriteStatement(sql), sql)
	}
}

func TestExecuteReadOnlyQuery_RejectsWrites(t *testing.T) {
	t.Parallel()

	r := &Runner{}
	_, err := r.ExecuteReadOnlyQuery(nil, "DELETE FROM t") //nolint:staticcheck // guard check returns before ctx is used
	assert.ErrorIs(t, err, ErrWriteStatement)
}
