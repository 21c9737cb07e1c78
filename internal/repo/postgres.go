package repo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/haasonsaas/brickwork/internal/kinderr"
	"github.com/haasonsaas/brickwork/pkg/models"
)

// PostgresConfig holds connection parameters, grounded on the teacher's
// CockroachConfig.
type PostgresConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnectTimeout  time.Duration
}

// DefaultPostgresConfig returns sensible connection defaults.
func DefaultPostgresConfig() *PostgresConfig {
	return &PostgresConfig{
		Host: "localhost", Port: 5432, User: "postgres", Database: "brickwork",
		SSLMode: "disable", MaxOpenConns: 25, MaxIdleConns: 5,
		ConnMaxLifetime: 5 * time.Minute, ConnectTimeout: 10 * time.Second,
	}
}

// PostgresRepositories implements Repositories against a Postgres/CockroachDB
// database using prepared statements, grounded on the teacher's CockroachStore.
type PostgresRepositories struct {
	db *sql.DB

	stmtCreateBrick    *sql.Stmt
	stmtGetBrick       *sql.Stmt
	stmtUpdateBrick    *sql.Stmt
	stmtDeleteBrick    *sql.Stmt
	stmtListBricks     *sql.Stmt
	stmtCreateQuanta   *sql.Stmt
	stmtGetQuanta      *sql.Stmt
	stmtUpdateQuanta   *sql.Stmt
	stmtDeleteQuanta   *sql.Stmt
	stmtListQuantas    *sql.Stmt
	stmtDeleteByBrick  *sql.Stmt
	stmtAppendMessage  *sql.Stmt
	stmtMessageHistory *sql.Stmt
}

// NewPostgresRepositories opens a connection and prepares all statements.
func NewPostgresRepositories(config *PostgresConfig) (*PostgresRepositories, error) {
	if config == nil {
		config = DefaultPostgresConfig()
	}
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s connect_timeout=%d",
		config.Host, config.Port, config.User, config.Password, config.Database,
		config.SSLMode, int(config.ConnectTimeout.Seconds()),
	)
	return NewPostgresRepositoriesFromDSN(dsn, config)
}

// NewPostgresRepositoriesFromDSN opens a connection from a raw DSN/URL.
func NewPostgresRepositoriesFromDSN(dsn string, config *PostgresConfig) (*PostgresRepositories, error) {
	if dsn == "" {
		return nil, kinderr.New(kinderr.Validation, "dsn is required")
	}
	if config == nil {
		config = DefaultPostgresConfig()
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)
	db.SetConnMaxLifetime(config.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), config.ConnectTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	r := &PostgresRepositories{db: db}
	if err := r.prepareStatements(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}
	return r, nil
}

func (r *PostgresRepositories) prepareStatements() error {
	var err error

	if r.stmtCreateBrick, err = r.db.Prepare(`
		INSERT INTO bricks (id, user_id, title, description, category, priority, status, estimated_duration_minutes, target_date, deadline, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
	`); err != nil {
		return fmt.Errorf("prepare create brick: %w", err)
	}

	if r.stmtGetBrick, err = r.db.Prepare(`
		SELECT id, user_id, title, description, category, priority, status, estimated_duration_minutes, target_date, deadline, created_at, updated_at
		FROM bricks WHERE id = $1 AND ($2 = '' OR user_id = $2)
	`); err != nil {
		return fmt.Errorf("prepare get brick: %w", err)
	}

	if r.stmtUpdateBrick, err = r.db.Prepare(`
		UPDATE bricks SET title=$1, description=$2, category=$3, priority=$4, status=$5,
			estimated_duration_minutes=$6, target_date=$7, deadline=$8, updated_at=$9
		WHERE id = $10
	`); err != nil {
		return fmt.Errorf("prepare update brick: %w", err)
	}

	if r.stmtDeleteBrick, err = r.db.Prepare(`DELETE FROM bricks WHERE id = $1 AND ($2 = '' OR user_id = $2)`); err != nil {
		return fmt.Errorf("prepare delete brick: %w", err)
	}

	if r.stmtListBricks, err = r.db.Prepare(`
		SELECT id, user_id, title, description, category, priority, status, estimated_duration_minutes, target_date, deadline, created_at, updated_at
		FROM bricks WHERE ($1 = '' OR user_id = $1) AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC LIMIT $3 OFFSET $4
	`); err != nil {
		return fmt.Errorf("prepare list bricks: %w", err)
	}

	if r.stmtCreateQuanta, err = r.db.Prepare(`
		INSERT INTO quantas (id, brick_id, title, description, status, estimated_duration_minutes, order_index, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`); err != nil {
		return fmt.Errorf("prepare create quanta: %w", err)
	}

	if r.stmtGetQuanta, err = r.db.Prepare(`
		SELECT id, brick_id, title, description, status, estimated_duration_minutes, order_index, created_at, updated_at
		FROM quantas WHERE id = $1
	`); err != nil {
		return fmt.Errorf("prepare get quanta: %w", err)
	}

	if r.stmtUpdateQuanta, err = r.db.Prepare(`
		UPDATE quantas SET title=$1, description=$2, status=$3, estimated_duration_minutes=$4, order_index=$5, updated_at=$6
		WHERE id = $7
	`); err != nil {
		return fmt.Errorf("prepare update quanta: %w", err)
	}

	if r.stmtDeleteQuanta, err = r.db.Prepare(`DELETE FROM quantas WHERE id = $1`); err != nil {
		return fmt.Errorf("prepare delete quanta: %w", err)
	}

	if r.stmtListQuantas, err = r.db.Prepare(`
		SELECT id, brick_id, title, description, status, estimated_duration_minutes, order_index, created_at, updated_at
		FROM quantas WHERE brick_id = $1 ORDER BY order_index ASC
	`); err != nil {
		return fmt.Errorf("prepare list quantas: %w", err)
	}

	if r.stmtDeleteByBrick, err = r.db.Prepare(`DELETE FROM quantas WHERE brick_id = $1`); err != nil {
		return fmt.Errorf("prepare delete by brick: %w", err)
	}

	if r.stmtAppendMessage, err = r.db.Prepare(`
		INSERT INTO messages (id, conversation_id, user_id, role, content, tool_calls, tool_call_id, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`); err != nil {
		return fmt.Errorf("prepare append message: %w", err)
	}

	if r.stmtMessageHistory, err = r.db.Prepare(`
		SELECT id, conversation_id, user_id, role, content, tool_calls, tool_call_id, created_at
		FROM messages WHERE conversation_id = $1 ORDER BY created_at ASC LIMIT $2
	`); err != nil {
		return fmt.Errorf("prepare message history: %w", err)
	}

	return nil
}

// Close releases prepared statements and the underlying connection.
func (r *PostgresRepositories) Close() error {
	stmts := []*sql.Stmt{
		r.stmtCreateBrick, r.stmtGetBrick, r.stmtUpdateBrick, r.stmtDeleteBrick, r.stmtListBricks,
		r.stmtCreateQuanta, r.stmtGetQuanta, r.stmtUpdateQuanta, r.stmtDeleteQuanta, r.stmtListQuantas,
		r.stmtDeleteByBrick, r.stmtAppendMessage, r.stmtMessageHistory,
	}
	for _, s := range stmts {
		if s != nil {
			_ = s.Close()
		}
	}
	return r.db.Close()
}

// Bricks returns a BrickRepository view over r.
func (r *PostgresRepositories) Bricks() BrickRepository { return postgresBricks{r} }

// Quantas returns a QuantaRepository view over r.
func (r *PostgresRepositories) Quantas() QuantaRepository { return postgresQuantas{r} }

// Messages returns a MessageRepository view over r.
func (r *PostgresRepositories) Messages() MessageRepository { return postgresMessages{r} }

type postgresBricks struct{ r *PostgresRepositories }

func (b postgresBricks) Create(ctx context.Context, brick *models.Brick) error {
	if brick.ID == "" {
		brick.ID = models.NewID()
	}
	now := time.Now()
	brick.CreatedAt, brick.UpdatedAt = now, now
	_, err := b.r.stmtCreateBrick.ExecContext(ctx,
		brick.ID, brick.UserID, brick.Title, brick.Description, brick.Category, brick.Priority,
		brick.Status, brick.EstimatedDurationMinutes, brick.TargetDate, brick.Deadline, brick.CreatedAt, brick.UpdatedAt,
	)
	if err != nil {
		return kinderr.Wrap(kinderr.Internal, "failed to create brick", err)
	}
	return nil
}

func scanBrick(row interface{ Scan(...interface{}) error }) (*models.Brick, error) {
	var b models.Brick
	if err := row.Scan(&b.ID, &b.UserID, &b.Title, &b.Description, &b.Category, &b.Priority, &b.Status,
		&b.EstimatedDurationMinutes, &b.TargetDate, &b.Deadline, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	return &b, nil
}

func (b postgresBricks) Get(ctx context.Context, userID, id string) (*models.Brick, error) {
	row := b.r.stmtGetBrick.QueryRowContext(ctx, id, userID)
	brick, err := scanBrick(row)
	if err == sql.ErrNoRows {
		return nil, kinderr.New(kinderr.NotFound, "brick not found")
	}
	if err != nil {
		return nil, kinderr.Wrap(kinderr.Internal, "failed to get brick", err)
	}
	return brick, nil
}

func (b postgresBricks) Update(ctx context.Context, brick *models.Brick) error {
	brick.UpdatedAt = time.Now()
	res, err := b.r.stmtUpdateBrick.ExecContext(ctx,
		brick.Title, brick.Description, brick.Category, brick.Priority, brick.Status,
		brick.EstimatedDurationMinutes, brick.TargetDate, brick.Deadline, brick.UpdatedAt, brick.ID,
	)
	if err != nil {
		return kinderr.Wrap(kinderr.Internal, "failed to update brick", err)
	}
	return checkRowsAffected(res, "brick not found")
}

func (b postgresBricks) Delete(ctx context.Context, userID, id string, cascade bool) error {
	tx, err := b.r.db.BeginTx(ctx, nil)
	if err != nil {
		return kinderr.Wrap(kinderr.Internal, "failed to begin transaction", err)
	}
	defer tx.Rollback()

	if cascade {
		if _, err := tx.ExecContext(ctx, `DELETE FROM quantas WHERE brick_id = $1`, id); err != nil {
			return kinderr.Wrap(kinderr.Internal, "failed to cascade delete quantas", err)
		}
	} else {
		var count int
		if err := tx.QueryRowContext(ctx, `SELECT count(*) FROM quantas WHERE brick_id = $1`, id).Scan(&count); err != nil {
			return kinderr.Wrap(kinderr.Internal, "failed to check quantas", err)
		}
		if count > 0 {
			return kinderr.New(kinderr.Conflict, "brick has quantas; pass cascade=true to delete them")
		}
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM bricks WHERE id = $1 AND ($2 = '' OR user_id = $2)`, id, userID)
	if err != nil {
		return kinderr.Wrap(kinderr.Internal, "failed to delete brick", err)
	}
	if err := checkRowsAffected(res, "brick not found"); err != nil {
		return err
	}
	return tx.Commit()
}

func (b postgresBricks) List(ctx context.Context, userID string, opts ListOptions) ([]*models.Brick, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 100
	}
	rows, err := b.r.stmtListBricks.QueryContext(ctx, userID, opts.Status, limit, opts.Offset)
	if err != nil {
		return nil, kinderr.Wrap(kinderr.Internal, "failed to list bricks", err)
	}
	defer rows.Close()

	var out []*models.Brick
	for rows.Next() {
		brick, err := scanBrick(rows)
		if err != nil {
			return nil, kinderr.Wrap(kinderr.Internal, "failed to scan brick", err)
		}
		out = append(out, brick)
	}
	return out, rows.Err()
}

type postgresQuantas struct{ r *PostgresRepositories }

func (q postgresQuantas) Create(ctx context.Context, quanta *models.Quanta) error {
	if quanta.ID == "" {
		quanta.ID = models.NewID()
	}
	now := time.Now()
	quanta.CreatedAt, quanta.UpdatedAt = now, now
	_, err := q.r.stmtCreateQuanta.ExecContext(ctx,
		quanta.ID, quanta.BrickID, quanta.Title, quanta.Description, quanta.Status,
		quanta.EstimatedDurationMinutes, quanta.OrderIndex, quanta.CreatedAt, quanta.UpdatedAt,
	)
	if err != nil {
		return kinderr.Wrap(kinderr.Internal, "failed to create quanta", err)
	}
	return nil
}

func scanQuanta(row interface{ Scan(...interface{}) error }) (*models.Quanta, error) {
	var q models.Quanta
	if err := row.Scan(&q.ID, &q.BrickID, &q.Title, &q.Description, &q.Status,
		&q.EstimatedDurationMinutes, &q.OrderIndex, &q.CreatedAt, &q.UpdatedAt); err != nil {
		return nil, err
	}
	return &q, nil
}

func (q postgresQuantas) Get(ctx context.Context, id string) (*models.Quanta, error) {
	row := q.r.stmtGetQuanta.QueryRowContext(ctx, id)
	quanta, err := scanQuanta(row)
	if err == sql.ErrNoRows {
		return nil, kinderr.New(kinderr.NotFound, "quanta not found")
	}
	if err != nil {
		return nil, kinderr.Wrap(kinderr.Internal, "failed to get quanta", err)
	}
	return quanta, nil
}

func (q postgresQuantas) Update(ctx context.Context, quanta *models.Quanta) error {
	quanta.UpdatedAt = time.Now()
	res, err := q.r.stmtUpdateQuanta.ExecContext(ctx,
		quanta.Title, quanta.Description, quanta.Status, quanta.EstimatedDurationMinutes, quanta.OrderIndex, quanta.UpdatedAt, quanta.ID,
	)
	if err != nil {
		return kinderr.Wrap(kinderr.Internal, "failed to update quanta", err)
	}
	return checkRowsAffected(res, "quanta not found")
}

func (q postgresQuantas) Delete(ctx context.Context, id string) error {
	res, err := q.r.stmtDeleteQuanta.ExecContext(ctx, id)
	if err != nil {
		return kinderr.Wrap(kinderr.Internal, "failed to delete quanta", err)
	}
	return checkRowsAffected(res, "quanta not found")
}

func (q postgresQuantas) ListByBrick(ctx context.Context, brickID string) ([]*models.Quanta, error) {
	rows, err := q.r.stmtListQuantas.QueryContext(ctx, brickID)
	if err != nil {
		return nil, kinderr.Wrap(kinderr.Internal, "failed to list quantas", err)
	}
	defer rows.Close()

	var out []*models.Quanta
	for rows.Next() {
		quanta, err := scanQuanta(rows)
		if err != nil {
			return nil, kinderr.Wrap(kinderr.Internal, "failed to scan quanta", err)
		}
		out = append(out, quanta)
	}
	return out, rows.Err()
}

func (q postgresQuantas) DeleteByBrick(ctx context.Context, brickID string) error {
	_, err := q.r.stmtDeleteByBrick.ExecContext(ctx, brickID)
	if err != nil {
		return kinderr.Wrap(kinderr.Internal, "failed to delete quantas by brick", err)
	}
	return nil
}

type postgresMessages struct{ r *PostgresRepositories }

func (m postgresMessages) Append(ctx context.Context, msg *models.Message) error {
	if msg.ID == "" {
		msg.ID = models.NewID()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	toolCallsJSON, err := marshalToolCalls(msg.ToolCalls)
	if err != nil {
		return kinderr.Wrap(kinderr.Internal, "failed to marshal tool calls", err)
	}
	_, err = m.r.stmtAppendMessage.ExecContext(ctx,
		msg.ID, msg.ConversationID, msg.UserID, msg.Role, msg.Content, toolCallsJSON, msg.ToolCallID, msg.CreatedAt,
	)
	if err != nil {
		return kinderr.Wrap(kinderr.Internal, "failed to append message", err)
	}
	return nil
}

func (m postgresMessages) History(ctx context.Context, conversationID string, limit int) ([]*models.Message, error) {
	if limit <= 0 {
		limit = 200
	}
	rows, err := m.r.stmtMessageHistory.QueryContext(ctx, conversationID, limit)
	if err != nil {
		return nil, kinderr.Wrap(kinderr.Internal, "failed to load history", err)
	}
	defer rows.Close()

	var out []*models.Message
	for rows.Next() {
		var msg models.Message
		var toolCallsJSON []byte
		if err := rows.Scan(&msg.ID, &msg.ConversationID, &msg.UserID, &msg.Role, &msg.Content, &toolCallsJSON, &msg.ToolCallID, &msg.CreatedAt); err != nil {
			return nil, kinderr.Wrap(kinderr.Internal, "failed to scan message", err)
		}
		if msg.ToolCalls, err = unmarshalToolCalls(toolCallsJSON); err != nil {
			return nil, kinderr.Wrap(kinderr.Internal, "failed to unmarshal tool calls", err)
		}
		out = append(out, &msg)
	}
	return out, rows.Err()
}

func checkRowsAffected(res sql.Result, notFoundMsg string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return kinderr.Wrap(kinderr.Internal, "failed to read rows affected", err)
	}
	if n == 0 {
		return kinderr.New(kinderr.NotFound, notFoundMsg)
	}
	return nil
}
