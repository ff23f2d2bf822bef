package db

import (
	"context"
)

const countNewsItems = `-- name: CountNewsItems :one
select count(*) from news_item
`

func (q *Queries) CountNewsItems(ctx context.Context) (int64, error) {
	row := q.db.QueryRowContext(ctx, countNewsItems)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const getNewsItems = `-- name: GetNewsItems :many
select id, secondary_id, title, category, domain, published_at, tag, unread, url, position from news_item
order by position, id
`

func (q *Queries) GetNewsItems(ctx context.Context) ([]NewsItem, error) {
	rows, err := q.db.QueryContext(ctx, getNewsItems)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []NewsItem
	for rows.Next() {
		var i NewsItem
		if err := rows.Scan(
			&i.ID,
			&i.SecondaryID,
			&i.Title,
			&i.Category,
			&i.Domain,
			&i.PublishedAt,
			&i.Tag,
			&i.Unread,
			&i.Url,
			&i.Position,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getReadNewsIds = `-- name: GetReadNewsIds :many
select id from news_item where unread = 0
`

func (q *Queries) GetReadNewsIds(ctx context.Context) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, getReadNewsIds)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		items = append(items, id)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const upsertNewsItem = `-- name: UpsertNewsItem :exec
insert into news_item (id, secondary_id, title, category, domain, published_at, tag, unread, url, position)
values (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
on conflict (id) do update set
    secondary_id = excluded.secondary_id,
    title = excluded.title,
    category = excluded.category,
    domain = excluded.domain,
    published_at = excluded.published_at,
    tag = excluded.tag,
    unread = min(news_item.unread, excluded.unread),
    url = excluded.url,
    position = excluded.position
`

type UpsertNewsItemParams struct {
	ID          string
	SecondaryID string
	Title       string
	Category    string
	Domain      string
	PublishedAt string
	Tag         string
	Unread      bool
	Url         string
	Position    int64
}

// UpsertNewsItem never turns a read item back to unread.
func (q *Queries) UpsertNewsItem(ctx context.Context, arg UpsertNewsItemParams) error {
	_, err := q.db.ExecContext(ctx, upsertNewsItem,
		arg.ID,
		arg.SecondaryID,
		arg.Title,
		arg.Category,
		arg.Domain,
		arg.PublishedAt,
		arg.Tag,
		arg.Unread,
		arg.Url,
		arg.Position,
	)
	return err
}

const deleteAllNewsItems = `-- name: DeleteAllNewsItems :exec
delete from news_item
`

func (q *Queries) DeleteAllNewsItems(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, deleteAllNewsItems)
	return err
}

const markNewsRead = `-- name: MarkNewsRead :execrows
update news_item set unread = 0 where id = ?
`

func (q *Queries) MarkNewsRead(ctx context.Context, id string) (int64, error) {
	result, err := q.db.ExecContext(ctx, markNewsRead, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
