package journal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"launchpad/core/events"
)

// ErrPathRequired is returned when no journal location is configured.
var ErrPathRequired = errors.New("journal: path must be configured")

// Record is one committed ledger event as persisted in the journal.
type Record struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	Seq        uint64    `gorm:"uniqueIndex;not null"`
	Type       string    `gorm:"size:64;index;not null"`
	Attributes string    `gorm:"type:text"`
	RecordedAt time.Time `gorm:"index"`
}

// TableName pins the table name independently of the struct name.
func (Record) TableName() string { return "ledger_events" }

// Decode returns the attribute map stored with the record.
func (r Record) Decode() (map[string]string, error) {
	out := make(map[string]string)
	if strings.TrimSpace(r.Attributes) == "" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(r.Attributes), &out); err != nil {
		return nil, fmt.Errorf("journal: decode attributes: %w", err)
	}
	return out, nil
}

// Journal appends committed events to a sqlite table so operators and
// indexers can replay ledger history. It satisfies events.Emitter.
type Journal struct {
	db     *gorm.DB
	logger *slog.Logger
	nowFn  func() time.Time

	mu  sync.Mutex
	seq uint64
}

// Open connects to the sqlite database at path and migrates the schema.
func Open(path string, log *slog.Logger) (*Journal, error) {
	dsn := strings.TrimSpace(path)
	if dsn == "" {
		return nil, ErrPathRequired
	}
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("journal: open database: %w", err)
	}
	return New(db, log)
}

// New wraps an existing gorm handle.
func New(db *gorm.DB, log *slog.Logger) (*Journal, error) {
	if db == nil {
		return nil, errors.New("journal: database handle required")
	}
	if log == nil {
		log = slog.Default()
	}
	if err := db.AutoMigrate(&Record{}); err != nil {
		return nil, fmt.Errorf("journal: migrate: %w", err)
	}
	var last struct{ Max uint64 }
	if err := db.Model(&Record{}).Select("COALESCE(MAX(seq), 0) AS max").Scan(&last).Error; err != nil {
		return nil, fmt.Errorf("journal: load sequence: %w", err)
	}
	return &Journal{db: db, logger: log, nowFn: time.Now, seq: last.Max}, nil
}

// Emit persists the event. Failures are logged and never propagated: the
// ledger state is already committed when events reach the journal.
func (j *Journal) Emit(e events.Event) {
	if j == nil || e == nil {
		return
	}
	if _, err := j.Append(context.Background(), e); err != nil {
		j.logger.Error("journal append failed",
			slog.String("type", e.EventType()),
			slog.Any("error", err))
	}
}

// Append writes e and returns the stored record.
func (j *Journal) Append(ctx context.Context, e events.Event) (*Record, error) {
	attrs, err := json.Marshal(e.Attributes())
	if err != nil {
		return nil, fmt.Errorf("journal: encode attributes: %w", err)
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	rec := &Record{
		ID:         uuid.New(),
		Seq:        j.seq + 1,
		Type:       e.EventType(),
		Attributes: string(attrs),
		RecordedAt: j.nowFn().UTC(),
	}
	if err := j.db.WithContext(ctx).Create(rec).Error; err != nil {
		return nil, fmt.Errorf("journal: insert: %w", err)
	}
	j.seq = rec.Seq
	return rec, nil
}

// Since returns up to limit records with a sequence greater than after, in
// order.
func (j *Journal) Since(ctx context.Context, after uint64, limit int) ([]Record, error) {
	var out []Record
	q := j.db.WithContext(ctx).Where("seq > ?", after).Order("seq ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("journal: query: %w", err)
	}
	return out, nil
}

// ByType returns the most recent records of one event type, newest first.
func (j *Journal) ByType(ctx context.Context, eventType string, limit int) ([]Record, error) {
	var out []Record
	q := j.db.WithContext(ctx).Where("type = ?", eventType).Order("seq DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("journal: query: %w", err)
	}
	return out, nil
}

// LastSeq reports the sequence of the newest record.
func (j *Journal) LastSeq() uint64 {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.seq
}

func (j *Journal) Close() error {
	if j == nil || j.db == nil {
		return nil
	}
	sqlDB, err := j.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
