package search

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// PgSearch implements Searcher over the snapshot tables in PostgreSQL,
// building tsvectors on the fly. It is the fallback when Meilisearch is
// unreachable.
type PgSearch struct {
	db *sql.DB
}

func NewPgSearch(db *sql.DB) *PgSearch {
	return &PgSearch{db: db}
}

// Healthy always returns true. If Postgres is down, the whole app is down.
func (p *PgSearch) Healthy() bool {
	return true
}

// Search runs a UNION ALL over draft_queues and sync_events using
// plainto_tsquery and ts_rank, with ts_headline for snippets.
func (p *PgSearch) Search(q Query) ([]Result, int, error) {
	if strings.TrimSpace(q.Text) == "" {
		return nil, 0, nil
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	tsQuery := "plainto_tsquery('english', $1)"
	args := []any{q.Text, q.UserID}
	argN := 3

	var subQueries []string

	if q.FilterType == "" || q.FilterType == ResultEntity {
		where := fmt.Sprintf("to_tsvector('english', dq.fields::text) @@ %s AND dq.user_id = $2", tsQuery)
		if q.FilterCollection != "" {
			where += fmt.Sprintf(" AND dq.collection = $%d", argN)
			args = append(args, q.FilterCollection)
			argN++
		}
		subQueries = append(subQueries, fmt.Sprintf(`
			SELECT 'entity'::text AS type,
				dq.user_id || '_' || dq.collection || '_' || dq.entity_id AS id,
				coalesce(dq.fields->>'room_type', dq.fields->>'name', dq.entity_id) AS title,
				ts_headline('english', dq.fields::text, %s, 'MaxFragments=1,MaxWords=30') AS snippet,
				dq.collection, dq.entity_id,
				CASE WHEN dq.entity_id LIKE 'tmp-%%' THEN 'draft' ELSE 'persisted' END AS state,
				ts_rank(to_tsvector('english', dq.fields::text), %s) AS rank
			FROM draft_queues dq
			WHERE %s`, tsQuery, tsQuery, where))
	}

	if q.FilterType == "" || q.FilterType == ResultEvent {
		where := fmt.Sprintf(
			"to_tsvector('english', se.action || ' ' || se.outcome || ' ' || coalesce(se.message, '')) @@ %s AND se.user_id = $2",
			tsQuery)
		if q.FilterCollection != "" {
			where += fmt.Sprintf(" AND se.collection = $%d", argN)
			args = append(args, q.FilterCollection)
			argN++
		}
		subQueries = append(subQueries, fmt.Sprintf(`
			SELECT 'event'::text AS type, se.id, se.action AS title,
				ts_headline('english', coalesce(se.message, ''), %s, 'MaxFragments=1,MaxWords=30') AS snippet,
				se.collection, se.entity_id,
				''::text AS state,
				ts_rank(to_tsvector('english', se.action || ' ' || se.outcome || ' ' || coalesce(se.message, '')), %s) AS rank
			FROM sync_events se
			WHERE %s`, tsQuery, tsQuery, where))
	}

	if len(subQueries) == 0 {
		return nil, 0, nil
	}

	countSQL := fmt.Sprintf("SELECT count(*) FROM (%s) sub",
		strings.Join(subQueries, " UNION ALL "))

	dataSQL := fmt.Sprintf(`SELECT type, id, title, snippet, collection, entity_id, state
		FROM (%s) sub
		ORDER BY rank DESC
		LIMIT %d OFFSET %d`,
		strings.Join(subQueries, " UNION ALL "),
		limit, offset)

	ctx := context.Background()

	var total int
	if err := p.db.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("pg search count: %w", err)
	}

	rows, err := p.db.QueryContext(ctx, dataSQL, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("pg search query: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		var typ string
		if err := rows.Scan(&typ, &r.ID, &r.Title, &r.Snippet, &r.Collection, &r.EntityID, &r.State); err != nil {
			return nil, 0, fmt.Errorf("pg search scan: %w", err)
		}
		r.Type = ResultType(typ)
		results = append(results, r)
	}

	return results, total, rows.Err()
}

// LoadAllRecords returns every indexable record for full reindexing.
func (p *PgSearch) LoadAllRecords(ctx context.Context) ([]EntityRecord, []EventRecord, error) {
	entityRows, err := p.db.QueryContext(ctx, `
		SELECT user_id, collection, entity_id,
			coalesce(fields->>'room_type', fields->>'name', entity_id),
			fields::text
		FROM draft_queues
	`)
	if err != nil {
		return nil, nil, fmt.Errorf("load queued entities: %w", err)
	}
	defer entityRows.Close()

	entities := make([]EntityRecord, 0)
	for entityRows.Next() {
		var e EntityRecord
		if err := entityRows.Scan(&e.UserID, &e.Collection, &e.EntityID, &e.Title, &e.Summary); err != nil {
			return nil, nil, fmt.Errorf("scan queued entity: %w", err)
		}
		e.ID = EntityKey(e.UserID, e.Collection, e.EntityID)
		if strings.HasPrefix(e.EntityID, "tmp-") {
			e.State = "draft"
		} else {
			e.State = "persisted"
		}
		entities = append(entities, e)
	}
	if err := entityRows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate queued entities: %w", err)
	}

	eventRows, err := p.db.QueryContext(ctx, `
		SELECT id, user_id, collection, entity_id, action, outcome, coalesce(message, '')
		FROM sync_events
	`)
	if err != nil {
		return nil, nil, fmt.Errorf("load sync events: %w", err)
	}
	defer eventRows.Close()

	events := make([]EventRecord, 0)
	for eventRows.Next() {
		var ev EventRecord
		if err := eventRows.Scan(&ev.ID, &ev.UserID, &ev.Collection, &ev.EntityID, &ev.Action, &ev.Outcome, &ev.Message); err != nil {
			return nil, nil, fmt.Errorf("scan sync event: %w", err)
		}
		events = append(events, ev)
	}
	if err := eventRows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate sync events: %w", err)
	}

	return entities, events, nil
}
