package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sync"

	"textembedder/internal/application/common/slogger"
	"textembedder/internal/domain/entity"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// hnswMaxDimensions is the largest vector pgvector can index with HNSW.
const hnswMaxDimensions = 2000

// searchVector is the full-text document of a row. The GIN index is built on
// this exact expression so Search can use it.
const searchVector = "to_tsvector('simple', text || ' ' || metadata::text)"

var identifierPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]{0,62}$`)

// ValidateIdentifier reports whether name is safe to use as an unquoted table name.
func ValidateIdentifier(name string) error {
	if !identifierPattern.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidIdentifier, name)
	}
	return nil
}

// PostgreSQLVectorIndex stores documents in a pgvector table named after the index.
type PostgreSQLVectorIndex struct {
	pool  *pgxpool.Pool
	tx    *TransactionManager
	table string

	mu        sync.RWMutex
	dimension int // 0 until read from the catalog
}

// NewPostgreSQLVectorIndex creates the index adapter for table name.
func NewPostgreSQLVectorIndex(pool *pgxpool.Pool, name string) (*PostgreSQLVectorIndex, error) {
	if err := ValidateIdentifier(name); err != nil {
		return nil, err
	}
	return &PostgreSQLVectorIndex{
		pool:  pool,
		tx:    NewTransactionManager(pool),
		table: name,
	}, nil
}

func (r *PostgreSQLVectorIndex) ident() string {
	return pgx.Identifier{r.table}.Sanitize()
}

// Exists reports whether the index table exists in the search path.
func (r *PostgreSQLVectorIndex) Exists(ctx context.Context) (bool, error) {
	var exists bool
	err := GetQueryInterface(ctx, r.pool).
		QueryRow(ctx, "SELECT to_regclass($1) IS NOT NULL", r.table).
		Scan(&exists)
	if err != nil {
		return false, WrapError(err, "check index exists")
	}
	return exists, nil
}

// EnsureIndex creates the table and its indexes when missing. An existing
// table is trusted as-is.
func (r *PostgreSQLVectorIndex) EnsureIndex(ctx context.Context, dimension int) (bool, error) {
	if dimension <= 0 {
		return false, fmt.Errorf("ensure index: invalid dimension %d", dimension)
	}

	exists, err := r.Exists(ctx)
	if err != nil {
		return false, err
	}
	if exists {
		slogger.Info(ctx, "Vector index already exists", slogger.Fields{"index": r.table})
		return false, nil
	}

	statements := []string{
		"CREATE EXTENSION IF NOT EXISTS vector",
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id          TEXT PRIMARY KEY,
			file_key    TEXT,
			page_num    INTEGER,
			text        TEXT NOT NULL,
			token_count INTEGER,
			metadata    JSONB NOT NULL DEFAULT '{}'::jsonb,
			embedding   vector(%d) NOT NULL,
			created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, r.ident(), dimension),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (file_key)",
			pgx.Identifier{r.table + "_file_key_idx"}.Sanitize(), r.ident()),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s USING gin ((%s))",
			pgx.Identifier{r.table + "_search_idx"}.Sanitize(), r.ident(), searchVector),
	}
	if dimension <= hnswMaxDimensions {
		statements = append(statements, fmt.Sprintf(
			"CREATE INDEX IF NOT EXISTS %s ON %s USING hnsw (embedding vector_cosine_ops)",
			pgx.Identifier{r.table + "_embedding_idx"}.Sanitize(), r.ident()))
	}

	created := true
	err = r.tx.WithAdvisoryLock(ctx, "textembedder:index:"+r.table, func(txCtx context.Context) error {
		q := GetQueryInterface(txCtx, r.pool)
		// Another worker may have won the lock and created the table first.
		var raced bool
		if scanErr := q.QueryRow(txCtx, "SELECT to_regclass($1) IS NOT NULL", r.table).Scan(&raced); scanErr != nil {
			return scanErr
		}
		if raced {
			created = false
			return nil
		}
		for _, stmt := range statements {
			if _, execErr := q.Exec(txCtx, stmt); execErr != nil {
				return execErr
			}
		}
		return nil
	})
	if err != nil {
		return false, WrapError(err, "create index")
	}

	if !created {
		slogger.Info(ctx, "Vector index created concurrently by another worker", slogger.Fields{"index": r.table})
		return false, nil
	}
	r.setDimension(dimension)
	slogger.Info(ctx, "Created vector index", slogger.Fields{"index": r.table, "dimension": dimension})
	return true, nil
}

func (r *PostgreSQLVectorIndex) setDimension(d int) {
	r.mu.Lock()
	r.dimension = d
	r.mu.Unlock()
}

// Dimension returns the declared width of the embedding column.
func (r *PostgreSQLVectorIndex) Dimension(ctx context.Context) (int, error) {
	r.mu.RLock()
	d := r.dimension
	r.mu.RUnlock()
	if d > 0 {
		return d, nil
	}

	// pgvector stores the declared dimension as the column's type modifier.
	err := GetQueryInterface(ctx, r.pool).QueryRow(ctx,
		`SELECT atttypmod FROM pg_attribute
		 WHERE attrelid = to_regclass($1) AND attname = 'embedding' AND NOT attisdropped`,
		r.table).Scan(&d)
	if err != nil {
		return 0, WrapError(err, "read index dimension")
	}
	if d > 0 {
		r.setDimension(d)
	}
	return d, nil
}

func (r *PostgreSQLVectorIndex) checkDimension(ctx context.Context, vector []float32) error {
	want, err := r.Dimension(ctx)
	if err != nil {
		return err
	}
	if want > 0 && len(vector) != want {
		return fmt.Errorf("%w: index %s expects %d, got %d", ErrDimensionMismatch, r.table, want, len(vector))
	}
	return nil
}

// Upsert writes doc, replacing any document with the same id.
func (r *PostgreSQLVectorIndex) Upsert(ctx context.Context, doc entity.IndexedDocument) error {
	if doc.ID == "" {
		return errors.New("upsert document: empty id")
	}
	if err := r.checkDimension(ctx, doc.Embedding); err != nil {
		return err
	}

	metadata, err := json.Marshal(orEmpty(doc.Metadata))
	if err != nil {
		return fmt.Errorf("upsert document: encode metadata: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, file_key, page_num, text, token_count, metadata, embedding)
		VALUES ($1, NULLIF($2, ''), $3, $4, $5, $6::jsonb, $7::vector)
		ON CONFLICT (id) DO UPDATE SET
			file_key    = EXCLUDED.file_key,
			page_num    = EXCLUDED.page_num,
			text        = EXCLUDED.text,
			token_count = EXCLUDED.token_count,
			metadata    = EXCLUDED.metadata,
			embedding   = EXCLUDED.embedding,
			updated_at  = now()`, r.ident())

	_, err = GetQueryInterface(ctx, r.pool).Exec(ctx, query,
		doc.ID, doc.FileKey, doc.PageNum, doc.Text, doc.TokenCount, string(metadata), pgvector.NewVector(doc.Embedding))
	if err != nil {
		return WrapError(err, "upsert document")
	}
	return nil
}

// Search ranks documents whose text or metadata matches query.
func (r *PostgreSQLVectorIndex) Search(ctx context.Context, query string, size int) ([]entity.SearchHit, error) {
	sql := fmt.Sprintf(`
		SELECT id, COALESCE(file_key, ''), page_num, text, token_count, metadata,
		       ts_rank(%[2]s, plainto_tsquery('simple', $1))::float8 AS score
		FROM %[1]s
		WHERE %[2]s @@ plainto_tsquery('simple', $1)
		ORDER BY score DESC
		LIMIT $2`, r.ident(), searchVector)

	rows, err := GetQueryInterface(ctx, r.pool).Query(ctx, sql, query, clampSize(size))
	if err != nil {
		return nil, WrapError(err, "search documents")
	}
	return collectHits(rows, "search documents")
}

// VectorSearch returns the k nearest documents by cosine distance.
func (r *PostgreSQLVectorIndex) VectorSearch(ctx context.Context, vector []float32, k int) ([]entity.SearchHit, error) {
	if err := r.checkDimension(ctx, vector); err != nil {
		return nil, err
	}

	sql := fmt.Sprintf(`
		SELECT id, COALESCE(file_key, ''), page_num, text, token_count, metadata,
		       (1 - (embedding <=> $1::vector))::float8 AS score
		FROM %s
		ORDER BY embedding <=> $1::vector
		LIMIT $2`, r.ident())

	rows, err := GetQueryInterface(ctx, r.pool).Query(ctx, sql, pgvector.NewVector(vector), clampSize(k))
	if err != nil {
		return nil, WrapError(err, "vector search")
	}
	return collectHits(rows, "vector search")
}

// Delete removes the document with id. A missing id is not an error.
func (r *PostgreSQLVectorIndex) Delete(ctx context.Context, id string) error {
	_, err := GetQueryInterface(ctx, r.pool).Exec(ctx,
		fmt.Sprintf("DELETE FROM %s WHERE id = $1", r.ident()), id)
	if err != nil {
		return WrapError(err, "delete document")
	}
	return nil
}

// Purge removes every document and keeps the table.
func (r *PostgreSQLVectorIndex) Purge(ctx context.Context) (int64, error) {
	tag, err := GetQueryInterface(ctx, r.pool).Exec(ctx, fmt.Sprintf("DELETE FROM %s", r.ident()))
	if err != nil {
		return 0, WrapError(err, "purge documents")
	}
	return tag.RowsAffected(), nil
}

func collectHits(rows pgx.Rows, operation string) ([]entity.SearchHit, error) {
	defer rows.Close()

	hits := []entity.SearchHit{}
	for rows.Next() {
		var (
			hit      entity.SearchHit
			metadata []byte
		)
		if err := rows.Scan(
			&hit.Document.ID,
			&hit.Document.FileKey,
			&hit.Document.PageNum,
			&hit.Document.Text,
			&hit.Document.TokenCount,
			&metadata,
			&hit.Score,
		); err != nil {
			return nil, WrapError(err, operation)
		}
		if err := json.Unmarshal(metadata, &hit.Document.Metadata); err != nil {
			return nil, fmt.Errorf("%s: decode metadata: %w", operation, err)
		}
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, WrapError(err, operation)
	}
	return hits, nil
}

func clampSize(n int) int {
	switch {
	case n <= 0:
		return 10
	case n > 1000:
		return 1000
	default:
		return n
	}
}

func orEmpty(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}

// EnsureVectorExtension installs pgvector in the connected database.
func EnsureVectorExtension(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := GetQueryInterface(ctx, pool).Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector")
	return WrapError(err, "create vector extension")
}
