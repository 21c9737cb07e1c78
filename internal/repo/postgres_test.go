package repo

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/haasonsaas/brickwork/pkg/models"
)

func setupMockRepos(t *testing.T) (sqlmock.Sqlmock, *PostgresRepositories) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	r := &PostgresRepositories{db: db}
	mock.ExpectPrepare("INSERT INTO bricks")
	stmt, err := db.Prepare(`INSERT INTO bricks (id, user_id, title, description, category, priority, status, estimated_duration_minutes, target_date, deadline, created_at, updated_at) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`)
	require.NoError(t, err)
	r.stmtCreateBrick = stmt

	return mock, r
}

func TestPostgresRepositories_CreateBrick(t *testing.T) {
	mock, r := setupMockRepos(t)

	mock.ExpectExec("INSERT INTO bricks").
		WithArgs("brick-1", "u1", "Write report", "", models.CategoryWork, models.PriorityMedium, models.BrickStatus(""), 60, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	brick := &models.Brick{ID: "brick-1", UserID: "u1", Title: "Write report", Category: models.CategoryWork, Priority: models.PriorityMedium, EstimatedDurationMinutes: 60}
	err := r.Bricks().Create(context.Background(), brick)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepositories_GetBrickNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	r := &PostgresRepositories{db: db}
	mock.ExpectPrepare("SELECT (.+) FROM bricks WHERE id")
	stmt, err := db.Prepare(`SELECT id, user_id, title, description, category, priority, status, estimated_duration_minutes, target_date, deadline, created_at, updated_at FROM bricks WHERE id = $1 AND ($2 = '' OR user_id = $2)`)
	require.NoError(t, err)
	r.stmtGetBrick = stmt

	mock.ExpectQuery("SELECT (.+) FROM bricks WHERE id").
		WithArgs("missing", "u1").
		WillReturnError(sql.ErrNoRows)

	_, err = r.Bricks().Get(context.Background(), "u1", "missing")
	require.Error(t, err)
}

func TestPostgresRepositories_DeleteBrickCascade(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	r := &PostgresRepositories{db: db}

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM quantas WHERE brick_id").WithArgs("brick-1").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("DELETE FROM bricks WHERE id").WithArgs("brick-1", "u1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err = r.Bricks().Delete(context.Background(), "u1", "brick-1", true)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepositories_AppendMessage(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	r := &PostgresRepositories{db: db}
	mock.ExpectPrepare("INSERT INTO messages")
	stmt, err := db.Prepare(`INSERT INTO messages (id, conversation_id, user_id, role, content, tool_calls, tool_call_id, created_at) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`)
	require.NoError(t, err)
	r.stmtAppendMessage = stmt

	mock.ExpectExec("INSERT INTO messages").
		WithArgs("msg-1", "conv-1", "u1", models.RoleUser, "hello", sqlmock.AnyArg(), "", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	msg := &models.Message{ID: "msg-1", ConversationID: "conv-1", UserID: "u1", Role: models.RoleUser, Content: "hello", CreatedAt: time.Now()}
	err = r.Messages().Append(context.Background(), msg)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
