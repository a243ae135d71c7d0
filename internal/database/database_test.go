package database

import (
	"regexp"
	"testing"

	"thoughtstream/internal/models"
	"thoughtstream/internal/observability"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupCallbackDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{})
	require.NoError(t, err)

	registerMetricsCallbacks(db)
	return db, mock
}

func TestMetricsCallbacks_ObserveQueryLatency(t *testing.T) {
	db, mock := setupCallbackDB(t)
	before := testutil.CollectAndCount(observability.DatabaseQueryLatency)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username"}).AddRow(1, "alice"))

	var users []models.User
	require.NoError(t, db.Find(&users).Error)

	// The select lands under its own operation/table label pair
	assert.Greater(t, testutil.CollectAndCount(observability.DatabaseQueryLatency), before)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMetricsCallbacks_ObserveWriteLatency(t *testing.T) {
	db, mock := setupCallbackDB(t)
	before := testutil.CollectAndCount(observability.DatabaseQueryLatency)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "posts"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	post := &models.Post{Title: "First", Content: "Hello", UserID: 1}
	require.NoError(t, db.Create(post).Error)

	assert.Greater(t, testutil.CollectAndCount(observability.DatabaseQueryLatency), before)
	assert.NoError(t, mock.ExpectationsWereMet())
}
