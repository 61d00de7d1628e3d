package definition

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/leapstack-labs/leaplineage/pkg/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockProvider(t *testing.T) (*SQLServerProvider, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewSQLServerProvider(sqlx.NewDb(db, "sqlserver")), mock
}

func TestSQLServerProvider_TryGetDefinition(t *testing.T) {
	tests := []struct {
		name      string
		setupMock func(mock sqlmock.Sqlmock)
		want      string
		wantFound bool
	}{
		{
			name: "found",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta(definitionQuery)).
					WithArgs("dbo.V").
					WillReturnRows(sqlmock.NewRows([]string{"definition"}).AddRow("CREATE VIEW dbo.V AS SELECT a FROM T"))
			},
			want:      "CREATE VIEW dbo.V AS SELECT a FROM T",
			wantFound: true,
		},
		{
			name: "not a module",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta(definitionQuery)).
					WithArgs("dbo.V").
					WillReturnRows(sqlmock.NewRows([]string{"definition"}).AddRow(nil))
			},
			wantFound: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, mock := newMockProvider(t)
			tt.setupMock(mock)

			got, ok := p.TryGetDefinition("dbo.V")
			assert.Equal(t, tt.wantFound, ok)
			assert.Equal(t, tt.want, got)

			// Cached: no second query.
			got, ok = p.TryGetDefinition("[dbo].[V]")
			assert.Equal(t, tt.wantFound, ok)
			assert.Equal(t, tt.want, got)

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestSQLServerProvider_QueryErrorIsNotCached(t *testing.T) {
	p, mock := newMockProvider(t)
	mock.ExpectQuery(regexp.QuoteMeta(definitionQuery)).WithArgs("dbo.V").WillReturnError(assert.AnError)
	mock.ExpectQuery(regexp.QuoteMeta(definitionQuery)).
		WithArgs("dbo.V").
		WillReturnRows(sqlmock.NewRows([]string{"definition"}).AddRow("CREATE VIEW dbo.V AS SELECT 1 AS one"))

	_, ok := p.TryGetDefinition("dbo.V")
	assert.False(t, ok)

	_, ok = p.TryGetDefinition("dbo.V")
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLServerProvider_LoadSchema(t *testing.T) {
	p, mock := newMockProvider(t)
	mock.ExpectQuery(regexp.QuoteMeta(columnsQuery)).
		WillReturnRows(sqlmock.NewRows([]string{"TABLE_SCHEMA", "TABLE_NAME", "COLUMN_NAME", "ORDINAL_POSITION"}).
			AddRow("dbo", "Orders", "id", 1).
			AddRow("dbo", "Orders", "amount", 2).
			AddRow("sales", "Targets", "region", 1))

	catalog, err := p.LoadSchema(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, catalog.Len())

	cols, ok := catalog.Lookup(&parser.ObjectName{Parts: []string{"dbo", "Orders"}})
	assert.True(t, ok)
	assert.Equal(t, []string{"id", "amount"}, cols)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLServerProvider_LoadSchemaError(t *testing.T) {
	p, mock := newMockProvider(t)
	mock.ExpectQuery(regexp.QuoteMeta(columnsQuery)).WillReturnError(assert.AnError)

	_, err := p.LoadSchema(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestSQLServerProvider_Close(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	mock.ExpectClose()

	p := NewSQLServerProvider(sqlx.NewDb(db, "sqlserver"))
	assert.NoError(t, p.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}
