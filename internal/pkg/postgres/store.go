package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/airenas/podscript/internal/pkg/persistence"
	"github.com/airenas/podscript/internal/pkg/status"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	selectNormal = `SELECT e.id, e.feed_url, e.guid, e.audio_url, e.published_at, e.deleted_at FROM episodes e
	WHERE e.deleted_at IS NULL AND e.published_at >= $1
		AND NOT EXISTS (SELECT 1 FROM episode_transcripts t WHERE t.episode_id = e.id AND t.status = 'done')
	ORDER BY e.published_at DESC`
	selectOverride = `SELECT e.id, e.feed_url, e.guid, e.audio_url, e.published_at, e.deleted_at FROM episodes e
	WHERE e.deleted_at IS NULL
	ORDER BY e.published_at DESC
	LIMIT $1`
	upsertOutcome = `INSERT INTO episode_transcripts(episode_id, status, text, word_count, source, error_category,
	error_message, credits, asr_invoked, created, updated)
	VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
	ON CONFLICT (episode_id) DO UPDATE SET
	status = EXCLUDED.status,
	text = EXCLUDED.text,
	word_count = EXCLUDED.word_count,
	source = EXCLUDED.source,
	error_category = EXCLUDED.error_category,
	error_message = EXCLUDED.error_message,
	credits = EXCLUDED.credits,
	asr_invoked = EXCLUDED.asr_invoked,
	updated = EXCLUDED.updated`
)

// Store provides episode and transcript operations with postgresql
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates Store instance
func NewStore(pool *pgxpool.Pool) (*Store, error) {
	if pool == nil {
		return nil, fmt.Errorf("no pool")
	}
	return &Store{pool: pool}, nil
}

// FetchEligible loads run candidates.
// Normal mode selects not deleted episodes published in the lookback window and without a done transcript,
// override mode selects the most recent Count episodes.
func (db *Store) FetchEligible(ctx context.Context, sel *persistence.Selection) ([]*persistence.Episode, error) {
	var rows pgx.Rows
	var err error
	if sel.Override {
		goapp.Log.Info().Str("component", "store").Int("count", sel.Count).Msg("selecting recent episodes")
		rows, err = db.pool.Query(ctx, selectOverride, sel.Count)
	} else {
		from := time.Now().Add(-sel.Lookback)
		goapp.Log.Info().Str("component", "store").Time("from", from).Msg("selecting episodes")
		rows, err = db.pool.Query(ctx, selectNormal, from)
	}
	if err != nil {
		return nil, fmt.Errorf("can't select episodes: %w", err)
	}
	defer rows.Close()

	res := []*persistence.Episode{}
	for rows.Next() {
		var ep persistence.Episode
		var feedURL, guid, audioURL sql.NullString
		if err := rows.Scan(&ep.ID, &feedURL, &guid, &audioURL, &ep.PublishedAt, &ep.DeletedAt); err != nil {
			return nil, fmt.Errorf("can't scan episode: %w", err)
		}
		ep.FeedURL = fromNullStr(feedURL)
		ep.GUID = fromNullStr(guid)
		ep.AudioURL = fromNullStr(audioURL)
		res = append(res, &ep)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("can't read episodes: %w", err)
	}
	return res, nil
}

// UpsertOutcome inserts or overwrites one outcome per episode.
// Text or error message not relevant to the status is stored as NULL.
func (db *Store) UpsertOutcome(ctx context.Context, o *persistence.Outcome) error {
	text, errMsg := o.Text, o.ErrorMessage
	if o.Status == status.Done {
		errMsg = ""
	} else {
		text = ""
	}
	_, err := db.pool.Exec(ctx, upsertOutcome, o.EpisodeID, o.Status.String(), toNullStr(text), o.WordCount,
		toNullStr(o.Source), toNullStr(o.ErrCategory.String()), toNullStr(errMsg), o.Credits,
		o.ASRInvoked, time.Now())
	if err != nil {
		return fmt.Errorf("can't upsert outcome: %w", err)
	}
	return nil
}

// LoadOutcome loads stored outcome, returns nil if there is none
func (db *Store) LoadOutcome(ctx context.Context, episodeID string) (*persistence.Outcome, error) {
	var res persistence.Outcome
	var st string
	var text, source, ec, errMsg sql.NullString
	err := db.pool.QueryRow(ctx, `SELECT episode_id, status, text, word_count, source, error_category, error_message,
		credits, asr_invoked, updated FROM episode_transcripts
		WHERE episode_id = $1`, episodeID).Scan(&res.EpisodeID, &st, &text, &res.WordCount, &source, &ec, &errMsg,
		&res.Credits, &res.ASRInvoked, &res.Updated)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("can't load outcome: %w", err)
	}
	res.Status = status.From(st)
	res.Text = fromNullStr(text)
	res.Source = fromNullStr(source)
	res.ErrCategory = status.ECFrom(fromNullStr(ec))
	res.ErrorMessage = fromNullStr(errMsg)
	return &res, nil
}

// Live returns no error if db is reachable and initialized
func (db *Store) Live(ctx context.Context) error {
	var exists bool
	if err := db.pool.QueryRow(ctx, `SELECT EXISTS (SELECT FROM pg_tables WHERE tablename = 'episode_transcripts')`).Scan(&exists); err != nil {
		return fmt.Errorf("can't check table: %w", err)
	}
	if !exists {
		return fmt.Errorf("no migration done")
	}
	return nil
}
