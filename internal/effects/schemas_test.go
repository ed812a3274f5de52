// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package effects

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListSchemas_WithDatabase(t *testing.T) {
	t.Parallel()

	r, mock := newTestRunner(t)

	mock.ExpectQuery(`SHOW SCHEMAS IN DATABASE "db"`).
		WillReturnRows(sqlmock.NewRows([]string{"name", "database_name", "owner", "comment"}).
			AddRow("public", "db", "sysadmin", ""))

	schemas, err := r.ListSchemas(t.Context(), "db")
	require.NoError(t, err)
	require.Len(t, schemas, 1)
	assert.Equal(t, "public", schemas[0].Name)
}

func TestListSchemas_NoDatabaseUsesCurrentSession(t *testing.T) {
	t.Parallel()

	r, mock := newTestRunner(t)

	mock.ExpectQuery(`^SHOW SCHEMAS$`).
		WillReturnRows(sqlmock.NewRows([]string{"name", "database_name", "owner", "comment"}).
			AddRow("public", "db", "sysadmin", ""))

	schemas, err := r.ListSchemas(t.Context(), "")
	require.NoError(t, err)
	require.Len(t, schemas, 1)
}
