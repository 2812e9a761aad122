package repository

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      conn,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	return db, mock
}

func TestQuizRepositoryFindByID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewQuizRepository(db)

	rows := sqlmock.NewRows([]string{"id", "user_id", "title", "topic", "difficulty", "questions", "total_questions", "times_taken", "is_ai_generated", "created_at", "updated_at"}).
		AddRow("q-1", 7, "Fractions", "fractions", "easy", []byte(`[]`), 2, 0, true, time.Now(), time.Now())

	mock.ExpectQuery("SELECT \\* FROM `quizzes` WHERE id = \\? AND user_id = \\?").
		WithArgs("q-1", 7, 1).
		WillReturnRows(rows)

	quiz, err := repo.FindByID("q-1", 7)
	require.NoError(t, err)
	assert.Equal(t, "Fractions", quiz.Title)
	assert.Equal(t, uint(7), quiz.UserID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuizRepositoryFindByIDScopesToUser(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewQuizRepository(db)

	mock.ExpectQuery("SELECT \\* FROM `quizzes` WHERE id = \\? AND user_id = \\?").
		WithArgs("q-1", 99, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.FindByID("q-1", 99)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuizRepositoryIncrementTimesTaken(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewQuizRepository(db)

	// gorm.Expr 直接内联表达式，updated_at 由 gorm 自动补齐
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `quizzes` SET `times_taken`=times_taken \\+ 1,`updated_at`=\\? WHERE id = \\?").
		WithArgs(sqlmock.AnyArg(), "q-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.IncrementTimesTaken("q-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuizRepositoryFindResultsOrdered(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewQuizRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "user_id", "quiz_id", "answers", "score", "total_questions", "time_spent", "results", "completed_at", "created_at", "updated_at"}).
		AddRow("r-2", 7, "q-1", []byte(`[]`), 100, 2, 30, []byte(`[]`), now, now, now).
		AddRow("r-1", 7, "q-1", []byte(`[]`), 50, 2, 60, []byte(`[]`), now.Add(-time.Hour), now, now)

	mock.ExpectQuery("SELECT \\* FROM `quiz_results` WHERE user_id = \\? ORDER BY completed_at DESC").
		WithArgs(7).
		WillReturnRows(rows)

	results, err := repo.FindResultsByUser(7)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "r-2", results[0].ID)
	assert.Equal(t, 100, results[0].Score)
	assert.NoError(t, mock.ExpectationsWereMet())
}
