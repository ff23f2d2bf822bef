package db

import (
	"context"
)

const getSecret = `-- name: GetSecret :one
select name, value, expires_at from keychain where name = ?
`

func (q *Queries) GetSecret(ctx context.Context, name string) (Keychain, error) {
	row := q.db.QueryRowContext(ctx, getSecret, name)
	var i Keychain
	err := row.Scan(&i.Name, &i.Value, &i.ExpiresAt)
	return i, err
}

const setSecret = `-- name: SetSecret :exec
insert into keychain (name, value, expires_at) values (?, ?, ?)
on conflict (name) do update set
    value = excluded.value,
    expires_at = excluded.expires_at
`

type SetSecretParams struct {
	Name      string
	Value     string
	ExpiresAt int64
}

func (q *Queries) SetSecret(ctx context.Context, arg SetSecretParams) error {
	_, err := q.db.ExecContext(ctx, setSecret, arg.Name, arg.Value, arg.ExpiresAt)
	return err
}

const deleteSecret = `-- name: DeleteSecret :exec
delete from keychain where name = ?
`

func (q *Queries) DeleteSecret(ctx context.Context, name string) error {
	_, err := q.db.ExecContext(ctx, deleteSecret, name)
	return err
}

const deleteExpiredSecrets = `-- name: DeleteExpiredSecrets :exec
delete from keychain where expires_at > 0 and expires_at <= ?
`

func (q *Queries) DeleteExpiredSecrets(ctx context.Context, now int64) error {
	_, err := q.db.ExecContext(ctx, deleteExpiredSecrets, now)
	return err
}
