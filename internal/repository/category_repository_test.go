package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var categoryCols = []string{"id", "user_id", "name", "color", "is_default", "created_at"}

func TestListWithCounts(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCategoryRepo(db)
	now := time.Now().UTC()

	mock.ExpectQuery(`(?s)^SELECT c\.id.*COUNT\(t\.id\).*LEFT JOIN tasks t ON .*t\.is_completed = FALSE.*WHERE c\.user_id = \?.*ORDER BY c\.created_at ASC, c\.id ASC$`).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows(append(categoryCols, "count")).
			AddRow("c1", "u1", "Work", "bg-blue-500", true, now, 2).
			AddRow("c2", "u1", "Side", "bg-gray-500", false, now, 0))

	got, err := repo.ListWithCounts(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 2, got[0].TaskCount)
	assert.True(t, got[0].IsDefault)
	assert.Equal(t, "Side", got[1].Name)
}

func TestCategoryGetByID_ForeignIsNotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCategoryRepo(db)

	mock.ExpectQuery(`FROM categories WHERE id=\? AND user_id=\?`).WithArgs("c1", "intruder").
		WillReturnRows(sqlmock.NewRows(categoryCols))

	_, err := repo.GetByID(context.Background(), "intruder", "c1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCategoryUpdate_ChangesOnlyGivenFields(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCategoryRepo(db)
	now := time.Now().UTC()
	name := "Errands"

	mock.ExpectQuery(`FROM categories WHERE id=\? AND user_id=\?`).WithArgs("c2", "u1").
		WillReturnRows(sqlmock.NewRows(categoryCols).AddRow("c2", "u1", "Side", "bg-red-500", false, now))
	mock.ExpectExec(`^UPDATE categories SET name=\?, color=\? WHERE id=\? AND user_id=\?$`).
		WithArgs("Errands", "bg-red-500", "c2", "u1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	c, err := repo.Update(context.Background(), "u1", "c2", &name, nil)
	require.NoError(t, err)
	assert.Equal(t, "Errands", c.Name)
	assert.Equal(t, "bg-red-500", c.Color)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCategoryDelete_DefaultIsForbidden(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCategoryRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`^SELECT is_default FROM categories WHERE id=\? AND user_id=\? FOR UPDATE$`).
		WithArgs("work", "u1").
		WillReturnRows(sqlmock.NewRows([]string{"is_default"}).AddRow(true))
	mock.ExpectRollback()

	err := repo.Delete(context.Background(), "u1", "work")
	assert.ErrorIs(t, err, ErrForbidden)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCategoryDelete_DetachesTasks(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCategoryRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`^SELECT is_default FROM categories`).WithArgs("c2", "u1").
		WillReturnRows(sqlmock.NewRows([]string{"is_default"}).AddRow(false))
	mock.ExpectExec(`^UPDATE tasks SET category_id = NULL WHERE category_id=\? AND user_id=\?$`).
		WithArgs("c2", "u1").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(`^DELETE FROM categories WHERE id=\? AND user_id=\?$`).WithArgs("c2", "u1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Delete(context.Background(), "u1", "c2"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCategoryDelete_Unknown(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCategoryRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`^SELECT is_default FROM categories`).
		WillReturnRows(sqlmock.NewRows([]string{"is_default"}))
	mock.ExpectRollback()

	assert.ErrorIs(t, repo.Delete(context.Background(), "u1", "missing"), ErrNotFound)
}
