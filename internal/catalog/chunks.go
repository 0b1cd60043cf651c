package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"
)

// ReplaceEpisodeChunks swaps an episode's chunk rows in one transaction, so
// re-ingesting an episode never leaves duplicates.
func (r *PostgresRepo) ReplaceEpisodeChunks(ctx context.Context, episodeID int64, chunks []StoredChunk) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM transcript_chunks WHERE episode_id = $1`, episodeID); err != nil {
		return fmt.Errorf("clear chunks: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO transcript_chunks (embedding_id, episode_id, speaker_id, kind, content, start_time, end_time) VALUES ($1, $2, $3, $4, $5, $6, $7)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, c := range chunks {
		if _, err = stmt.ExecContext(ctx, c.EmbeddingID, episodeID, nullInt64(c.SpeakerID), c.Kind, c.Content, c.StartTime, c.EndTime); err != nil {
			return fmt.Errorf("insert chunk: %w", err)
		}
	}

	return tx.Commit()
}

// DeleteEpisodeChunks removes an episode's chunk rows and returns the
// embedding ids they referenced.
func (r *PostgresRepo) DeleteEpisodeChunks(ctx context.Context, episodeID int64) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `DELETE FROM transcript_chunks WHERE episode_id = $1 RETURNING embedding_id`, episodeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// KeywordSearch finds chunks containing keyword, case-insensitively. An
// empty podcastIDs means every podcast.
func (r *PostgresRepo) KeywordSearch(ctx context.Context, keyword string, podcastIDs []int64, limit int) ([]KeywordHit, error) {
	if podcastIDs == nil {
		podcastIDs = []int64{}
	}
	query := `SELECT c.id, c.embedding_id, c.episode_id, e.podcast_id, c.speaker_id, c.content, c.start_time, c.end_time
		FROM transcript_chunks c
		JOIN episodes e ON e.id = c.episode_id
		WHERE c.content ILIKE $1 ESCAPE '\'
		AND (cardinality($2::bigint[]) = 0 OR e.podcast_id = ANY($2::bigint[]))
		ORDER BY c.episode_id, c.start_time
		LIMIT $3`

	rows, err := r.db.QueryContext(ctx, query, "%"+EscapeLike(keyword)+"%", pq.Array(podcastIDs), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hits []KeywordHit
	for rows.Next() {
		var h KeywordHit
		var speaker sql.NullInt64
		if err := rows.Scan(&h.ChunkID, &h.EmbeddingID, &h.EpisodeID, &h.PodcastID, &speaker, &h.Content, &h.StartTime, &h.EndTime); err != nil {
			return nil, err
		}
		if speaker.Valid {
			id := speaker.Int64
			h.SpeakerID = &id
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// EscapeLike quotes LIKE wildcards so s matches literally.
func EscapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}
