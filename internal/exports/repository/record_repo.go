package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	recordKeyPrefix     = "export:rec:"     // Record data: export:rec:{export_id}
	projectSetKeyPrefix = "export:project:" // Set of export IDs per project: export:project:{project_id}
)

// ErrRecordNotFound is returned when an export record is absent or expired.
var ErrRecordNotFound = errors.New("export record not found")

// ExportRecord is the persisted metadata of one rendered artifact. The
// binary itself lives in blob storage; records expire with the artifact TTL.
type ExportRecord struct {
	ExportID    string    `json:"export_id"`
	ProjectID   string    `json:"project_id"`
	Format      string    `json:"format"`
	StorageKey  string    `json:"storage_key"`
	Width       float64   `json:"width"`
	Height      float64   `json:"height"`
	SizeBytes   int64     `json:"size_bytes"`
	DownloadURL string    `json:"download_url"`
	CreatedAt   time.Time `json:"created_at"`
}

// RecordRepository handles Redis operations for export records.
type RecordRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRecordRepository(client *redis.Client, ttl time.Duration) *RecordRepository {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &RecordRepository{client: client, ttl: ttl}
}

// Save stores a record and indexes it under its project.
func (r *RecordRepository) Save(ctx context.Context, rec *ExportRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal export record: %w", err)
	}

	recKey := recordKeyPrefix + rec.ExportID
	setKey := projectSetKeyPrefix + rec.ProjectID

	pipe := r.client.Pipeline()
	pipe.Set(ctx, recKey, data, r.ttl)
	pipe.SAdd(ctx, setKey, rec.ExportID)
	pipe.Expire(ctx, setKey, r.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save export record: %w", err)
	}
	return nil
}

// Get retrieves a record by export ID.
func (r *RecordRepository) Get(ctx context.Context, exportID string) (*ExportRecord, error) {
	data, err := r.client.Get(ctx, recordKeyPrefix+exportID).Result()
	if err == redis.Nil {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get export record: %w", err)
	}

	var rec ExportRecord
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return nil, fmt.Errorf("unmarshal export record: %w", err)
	}
	return &rec, nil
}

// ListByProject returns the live records for a project, pruning IDs whose
// record has already expired.
func (r *RecordRepository) ListByProject(ctx context.Context, projectID string) ([]ExportRecord, error) {
	setKey := projectSetKeyPrefix + projectID
	ids, err := r.client.SMembers(ctx, setKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list export records: %w", err)
	}

	out := make([]ExportRecord, 0, len(ids))
	for _, id := range ids {
		rec, err := r.Get(ctx, id)
		if errors.Is(err, ErrRecordNotFound) {
			r.client.SRem(ctx, setKey, id)
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, nil
}

// Delete removes a record and its project index entry.
func (r *RecordRepository) Delete(ctx context.Context, rec *ExportRecord) error {
	pipe := r.client.Pipeline()
	pipe.Del(ctx, recordKeyPrefix+rec.ExportID)
	pipe.SRem(ctx, projectSetKeyPrefix+rec.ProjectID, rec.ExportID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete export record: %w", err)
	}
	return nil
}
