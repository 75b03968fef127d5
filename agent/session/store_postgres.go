package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

type PostgresConfig struct {
	DSN     string        `envconfig:"DSN" split_words:"true" required:"true"`
	Timeout time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"10s"`
}

type transcriptRow struct {
	bun.BaseModel `bun:"table:transcripts"`

	ID               int64               `bun:"id,pk,autoincrement"`
	CustomerID       string              `bun:"customer_id,notnull"`
	CustomerName     string              `bun:"customer_name,notnull"`
	ConversationDate time.Time           `bun:"conversation_date,notnull"`
	RetentionDays    int                 `bun:"retention_days,notnull"`
	Messages         []TranscriptMessage `bun:"messages,type:jsonb"`
}

// PostgresStore persists transcripts in Postgres for deployments where the
// per-conversation JSON files of FileStore are not enough.
type PostgresStore struct {
	db      *bun.DB
	timeout time.Duration
}

var _ Store = (*PostgresStore)(nil)

func NewPostgresStore(cfg PostgresConfig) (*PostgresStore, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, errors.New("postgres dsn is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())

	return &PostgresStore{
		db:      db,
		timeout: timeout,
	}, nil
}

// EnsureSchema creates the transcripts table when it does not exist yet.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.db.NewCreateTable().
		Model((*transcriptRow)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("create transcripts table: %w", err)
	}
	return nil
}

func (s *PostgresStore) Save(ctx context.Context, t *Transcript) (string, error) {
	if t == nil {
		return "", errors.New("nil transcript")
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	row := &transcriptRow{
		CustomerID:       t.CustomerID,
		CustomerName:     t.CustomerName,
		ConversationDate: t.ConversationDate,
		RetentionDays:    t.RetentionDays,
		Messages:         t.Messages,
	}
	if _, err := s.db.NewInsert().Model(row).Exec(ctx); err != nil {
		return "", fmt.Errorf("insert transcript: %w", err)
	}
	return strconv.FormatInt(row.ID, 10), nil
}

func (s *PostgresStore) Load(ctx context.Context, ref string) (*Transcript, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(ref), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid transcript ref %q: %w", ref, err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	row := new(transcriptRow)
	if err := s.db.NewSelect().Model(row).Where("id = ?", id).Scan(ctx); err != nil {
		return nil, fmt.Errorf("select transcript: %w", err)
	}

	return &Transcript{
		CustomerID:       row.CustomerID,
		CustomerName:     row.CustomerName,
		ConversationDate: row.ConversationDate,
		RetentionDays:    row.RetentionDays,
		Messages:         row.Messages,
	}, nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
