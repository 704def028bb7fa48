package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"github.com/gdugdh24/mpit2026-networking/internal/domain"
	"github.com/gdugdh24/mpit2026-networking/internal/repository"
)

type embeddingRepository struct {
	db *sqlx.DB
}

func NewEmbeddingRepository(db *sqlx.DB) repository.EmbeddingRepository {
	return &embeddingRepository{db: db}
}

type embeddingRow struct {
	UserID     int             `db:"user_id"`
	FieldType  string          `db:"field_type"`
	Embedding  pgvector.Vector `db:"embedding"`
	SourceText string          `db:"source_text"`
	SourceHash string          `db:"source_hash"`
	Model      string          `db:"model"`
	UpdatedAt  time.Time       `db:"updated_at"`
}

func (r embeddingRow) toDomain() (*domain.Embedding, error) {
	field, err := domain.ParseFieldType(r.FieldType)
	if err != nil {
		return nil, err
	}
	return &domain.Embedding{
		UserID:     r.UserID,
		FieldType:  field,
		Vector:     r.Embedding.Slice(),
		SourceText: r.SourceText,
		SourceHash: r.SourceHash,
		Model:      r.Model,
		UpdatedAt:  r.UpdatedAt,
	}, nil
}

const embeddingColumns = `user_id, field_type, embedding, source_text, source_hash, model, updated_at`

func (r *embeddingRepository) GetByUser(ctx context.Context, userID int) (domain.EmbeddingSet, error) {
	sets, err := r.GetByUsers(ctx, []int{userID})
	if err != nil {
		return nil, err
	}
	if set, ok := sets[userID]; ok {
		return set, nil
	}
	return domain.EmbeddingSet{}, nil
}

func (r *embeddingRepository) GetByUsers(ctx context.Context, userIDs []int) (map[int]domain.EmbeddingSet, error) {
	out := make(map[int]domain.EmbeddingSet, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}

	var rows []embeddingRow
	query := `SELECT ` + embeddingColumns + ` FROM profile_embeddings WHERE user_id = ANY($1)`
	if err := r.db.SelectContext(ctx, &rows, query, pq.Array(userIDs)); err != nil {
		return nil, err
	}

	for _, row := range rows {
		emb, err := row.toDomain()
		if err != nil {
			return nil, fmt.Errorf("embedding of user %d: %w", row.UserID, err)
		}
		if out[row.UserID] == nil {
			out[row.UserID] = domain.EmbeddingSet{}
		}
		out[row.UserID][emb.FieldType] = emb
	}
	return out, nil
}

func (r *embeddingRepository) SaveProfileEmbeddings(ctx context.Context, write repository.ProfileEmbeddingWrite) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	upsert := `
		INSERT INTO profile_embeddings (user_id, field_type, embedding, source_text, source_hash, model, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, CURRENT_TIMESTAMP)
		ON CONFLICT (user_id, field_type) DO UPDATE
		SET embedding = EXCLUDED.embedding,
		    source_text = EXCLUDED.source_text,
		    source_hash = EXCLUDED.source_hash,
		    model = EXCLUDED.model,
		    updated_at = CURRENT_TIMESTAMP
	`
	for _, emb := range write.Upserts {
		_, err := tx.ExecContext(ctx, upsert,
			write.UserID, string(emb.FieldType), pgvector.NewVector(emb.Vector),
			emb.SourceText, emb.SourceHash, emb.Model,
		)
		if err != nil {
			return fmt.Errorf("upsert %s embedding: %w", emb.FieldType, err)
		}
	}

	if len(write.DeleteFields) > 0 {
		fields := make([]string, len(write.DeleteFields))
		for i, f := range write.DeleteFields {
			fields[i] = string(f)
		}
		_, err := tx.ExecContext(ctx,
			`DELETE FROM profile_embeddings WHERE user_id = $1 AND field_type = ANY($2)`,
			write.UserID, pq.Array(fields),
		)
		if err != nil {
			return fmt.Errorf("delete stale embeddings: %w", err)
		}
	}

	if write.MarkOnboarded {
		_, err := tx.ExecContext(ctx,
			`UPDATE users SET onboarding_completed = TRUE WHERE id = $1 AND onboarding_completed = FALSE`,
			write.UserID,
		)
		if err != nil {
			return fmt.Errorf("mark onboarding completed: %w", err)
		}
	}

	return tx.Commit()
}
