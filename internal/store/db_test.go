package store

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*DB, sqlmock.Sqlmock) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	return &DB{Client: conn, sql: postgres}, mock
}

func TestDBMigrate(t *testing.T) {
	d, mock := newMockDB(t)
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS kv_store`).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, d.migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDBGet(t *testing.T) {
	ctx := context.Background()
	d, mock := newMockDB(t)

	mock.ExpectQuery(`SELECT value FROM kv_store WHERE key = \$1`).
		WithArgs(Students).
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow(`[{"id":"1","name":"Ani"}]`))
	mock.ExpectQuery(`SELECT value FROM kv_store WHERE key = \$1`).
		WithArgs(Teachers).
		WillReturnRows(sqlmock.NewRows([]string{"value"}))

	assert.Equal(t, []item{{ID: "1", Name: "Ani"}}, Load[item](ctx, d, Students))

	_, ok, err := d.Get(ctx, Teachers)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDBSetDelete(t *testing.T) {
	ctx := context.Background()
	d, mock := newMockDB(t)

	mock.ExpectExec(`INSERT INTO kv_store`).
		WithArgs(CurrentSession, `{"id":"s1","name":"Ani"}`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM kv_store WHERE key = \$1`).
		WithArgs(CurrentSession).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectClose()

	require.NoError(t, Save(ctx, d, CurrentSession, item{ID: "s1", Name: "Ani"}))
	require.NoError(t, Remove(ctx, d, CurrentSession))
	assert.True(t, d.Healthy(ctx))
	require.NoError(t, d.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}
