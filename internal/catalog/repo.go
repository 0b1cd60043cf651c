package catalog

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/lib/pq"
)

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func expectAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepo) CreatePodcast(ctx context.Context, p *Podcast) error {
	query := `INSERT INTO podcasts (name, description) VALUES ($1, $2) RETURNING id, created_at`
	return r.db.QueryRowContext(ctx, query, p.Name, p.Description).Scan(&p.ID, &p.CreatedAt)
}

func (r *PostgresRepo) GetPodcast(ctx context.Context, id int64) (*Podcast, error) {
	p := &Podcast{}
	query := `SELECT id, name, description, created_at FROM podcasts WHERE id = $1`
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&p.ID, &p.Name, &p.Description, &p.CreatedAt); err != nil {
		return nil, notFound(err)
	}
	return p, nil
}

func (r *PostgresRepo) ListPodcasts(ctx context.Context) ([]Podcast, error) {
	query := `SELECT id, name, description, created_at FROM podcasts ORDER BY name`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var podcasts []Podcast
	for rows.Next() {
		var p Podcast
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.CreatedAt); err != nil {
			return nil, err
		}
		podcasts = append(podcasts, p)
	}
	return podcasts, rows.Err()
}

// DeletePodcast cascades to episodes, chunks and speaker links.
func (r *PostgresRepo) DeletePodcast(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM podcasts WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

func (r *PostgresRepo) CreateEpisode(ctx context.Context, e *Episode) error {
	query := `INSERT INTO episodes (podcast_id, title, description, audio_url, published_at) VALUES ($1, $2, $3, $4, $5) RETURNING id, created_at`
	return r.db.QueryRowContext(ctx, query, e.PodcastID, e.Title, e.Description, e.AudioURL, e.PublishedAt).Scan(&e.ID, &e.CreatedAt)
}

func (r *PostgresRepo) GetEpisode(ctx context.Context, id int64) (*Episode, error) {
	e := &Episode{}
	var published sql.NullTime
	query := `SELECT id, podcast_id, title, description, audio_url, published_at, created_at FROM episodes WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&e.ID, &e.PodcastID, &e.Title, &e.Description, &e.AudioURL, &published, &e.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	if published.Valid {
		e.PublishedAt = &published.Time
	}
	return e, nil
}

func (r *PostgresRepo) ListEpisodes(ctx context.Context, podcastID int64) ([]Episode, error) {
	query := `SELECT id, podcast_id, title, description, audio_url, published_at, created_at FROM episodes WHERE podcast_id = $1 ORDER BY published_at DESC NULLS LAST, id DESC`
	rows, err := r.db.QueryContext(ctx, query, podcastID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var episodes []Episode
	for rows.Next() {
		var e Episode
		var published sql.NullTime
		if err := rows.Scan(&e.ID, &e.PodcastID, &e.Title, &e.Description, &e.AudioURL, &published, &e.CreatedAt); err != nil {
			return nil, err
		}
		if published.Valid {
			t := published.Time
			e.PublishedAt = &t
		}
		episodes = append(episodes, e)
	}
	return episodes, rows.Err()
}

func (r *PostgresRepo) DeleteEpisode(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM episodes WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

// UpsertSpeaker returns the id of the speaker with this name, creating it if
// needed. Names match case-insensitively.
func (r *PostgresRepo) UpsertSpeaker(ctx context.Context, name string) (int64, error) {
	var id int64
	query := `INSERT INTO speakers (name) VALUES ($1) ON CONFLICT ((LOWER(name))) DO UPDATE SET name = speakers.name RETURNING id`
	err := r.db.QueryRowContext(ctx, query, strings.TrimSpace(name)).Scan(&id)
	return id, err
}

func (r *PostgresRepo) GetSpeaker(ctx context.Context, id int64) (*Speaker, error) {
	s := &Speaker{}
	if err := r.db.QueryRowContext(ctx, `SELECT id, name FROM speakers WHERE id = $1`, id).Scan(&s.ID, &s.Name); err != nil {
		return nil, notFound(err)
	}
	return s, nil
}

func (r *PostgresRepo) ListSpeakers(ctx context.Context) ([]Speaker, error) {
	return r.querySpeakers(ctx, `SELECT id, name FROM speakers ORDER BY name`)
}

func (r *PostgresRepo) ListEpisodeSpeakers(ctx context.Context, episodeID int64) ([]Speaker, error) {
	query := `SELECT s.id, s.name FROM speakers s JOIN episode_speakers es ON es.speaker_id = s.id WHERE es.episode_id = $1 ORDER BY s.name`
	return r.querySpeakers(ctx, query, episodeID)
}

func (r *PostgresRepo) querySpeakers(ctx context.Context, query string, args ...interface{}) ([]Speaker, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var speakers []Speaker
	for rows.Next() {
		var s Speaker
		if err := rows.Scan(&s.ID, &s.Name); err != nil {
			return nil, err
		}
		speakers = append(speakers, s)
	}
	return speakers, rows.Err()
}

// SpeakerDirectory maps lower-cased speaker names to ids.
func (r *PostgresRepo) SpeakerDirectory(ctx context.Context) (map[string]int64, error) {
	speakers, err := r.ListSpeakers(ctx)
	if err != nil {
		return nil, err
	}
	dir := make(map[string]int64, len(speakers))
	for _, s := range speakers {
		dir[strings.ToLower(s.Name)] = s.ID
	}
	return dir, nil
}

func (r *PostgresRepo) LinkEpisodeSpeakers(ctx context.Context, episodeID int64, speakerIDs []int64) error {
	if len(speakerIDs) == 0 {
		return nil
	}
	query := `INSERT INTO episode_speakers (episode_id, speaker_id) SELECT $1, UNNEST($2::bigint[]) ON CONFLICT DO NOTHING`
	_, err := r.db.ExecContext(ctx, query, episodeID, pq.Array(speakerIDs))
	return err
}

func (r *PostgresRepo) Counts(ctx context.Context) (Counts, error) {
	var c Counts
	query := `SELECT (SELECT COUNT(*) FROM podcasts), (SELECT COUNT(*) FROM episodes), (SELECT COUNT(*) FROM speakers), (SELECT COUNT(*) FROM transcript_chunks)`
	err := r.db.QueryRowContext(ctx, query).Scan(&c.Podcasts, &c.Episodes, &c.Speakers, &c.Chunks)
	return c, err
}
