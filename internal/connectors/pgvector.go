package connectors

import (
	"context"
	"fmt"
	"strings"

	"github.com/pgvector/pgvector-go"

	"github.com/JaimeStill/prfaq/pkg/database"
)

// Pgvector looks up and stores knowledge base chunks in a PostgreSQL table
// with a pgvector embedding column.
type Pgvector struct {
	db       database.System
	table    string
	embedder Embedder
}

// NewPgvector creates a pgvector-backed KnowledgeBase over table.
func NewPgvector(db database.System, table string, embedder Embedder) *Pgvector {
	return &Pgvector{db: db, table: table, embedder: embedder}
}

// Lookup returns the topK chunks nearest to question by cosine distance.
func (p *Pgvector) Lookup(ctx context.Context, question string, topK int) (string, error) {
	if !p.db.Ready() {
		return "", fmt.Errorf("%w: %w", ErrUnavailable, database.ErrNotReady)
	}

	vec, err := p.embedder.Embed(ctx, question)
	if err != nil {
		return "", fmt.Errorf("embed question: %w", err)
	}

	query := fmt.Sprintf("SELECT content FROM %s ORDER BY embedding <=> $1 LIMIT $2", p.table)
	rows, err := p.db.Connection().QueryContext(ctx, query, pgvector.NewVector(vec), topK)
	if err != nil {
		return "", fmt.Errorf("query %s: %w", p.table, err)
	}
	defer rows.Close()

	var chunks []string
	for rows.Next() {
		var content string
		if err := rows.Scan(&content); err != nil {
			return "", fmt.Errorf("scan %s: %w", p.table, err)
		}
		chunks = append(chunks, content)
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("iterate %s: %w", p.table, err)
	}

	return strings.Join(chunks, "\n\n"), nil
}

// Store replaces the rows of source with chunks in one transaction.
func (p *Pgvector) Store(ctx context.Context, source string, chunks []Chunk) error {
	if !p.db.Ready() {
		return fmt.Errorf("%w: %w", ErrUnavailable, database.ErrNotReady)
	}

	tx, err := p.db.Connection().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin %s: %w", p.table, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE source = $1", p.table), source); err != nil {
		return fmt.Errorf("delete %s from %s: %w", source, p.table, err)
	}

	stmt, err := tx.PrepareContext(ctx,
		fmt.Sprintf("INSERT INTO %s (source, content, embedding) VALUES ($1, $2, $3)", p.table),
	)
	if err != nil {
		return fmt.Errorf("prepare insert into %s: %w", p.table, err)
	}
	defer stmt.Close()

	for _, c := range chunks {
		if _, err := stmt.ExecContext(ctx, source, c.Content, pgvector.NewVector(c.Embedding)); err != nil {
			return fmt.Errorf("insert chunk %d of %s: %w", c.Index, source, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit %s: %w", p.table, err)
	}
	return nil
}
