package main

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const regclassQuery = "SELECT to_regclass($1) IS NOT NULL"

func TestParseCommand(t *testing.T) {
	cmd, args := parseCommand(nil)
	assert.Equal(t, "up", cmd)
	assert.Empty(t, args)

	cmd, args = parseCommand([]string{"up-to", "2"})
	assert.Equal(t, "up-to", cmd)
	assert.Equal(t, []string{"2"}, args)
}

func TestRaisesSchema(t *testing.T) {
	assert.True(t, raisesSchema("up"))
	assert.True(t, raisesSchema("redo"))
	assert.False(t, raisesSchema("down"))
	assert.False(t, raisesSchema("status"))
}

func TestVerifySchema_AllTablesPresent(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	for _, table := range requiredTables {
		mock.ExpectQuery(regexp.QuoteMeta(regclassQuery)).
			WithArgs("public." + table).
			WillReturnRows(sqlmock.NewRows([]string{"found"}).AddRow(true))
	}

	require.NoError(t, verifySchema(context.Background(), db))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVerifySchema_ReportsMissingTables(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(regclassQuery)).WithArgs("public.credentials").
		WillReturnRows(sqlmock.NewRows([]string{"found"}).AddRow(true))
	mock.ExpectQuery(regexp.QuoteMeta(regclassQuery)).WithArgs("public.professionals").
		WillReturnRows(sqlmock.NewRows([]string{"found"}).AddRow(false))
	mock.ExpectQuery(regexp.QuoteMeta(regclassQuery)).WithArgs("public.clients").
		WillReturnRows(sqlmock.NewRows([]string{"found"}).AddRow(false))

	err = verifySchema(context.Background(), db)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "professionals, clients")
}

func TestVerifySchema_QueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(regclassQuery)).WillReturnError(errors.New("conn reset"))

	err = verifySchema(context.Background(), db)

	assert.ErrorContains(t, err, "credentials")
}
