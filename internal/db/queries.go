package db

import (
	"context"
)

const upsertTranscript = `
insert into transcripts(username, fetched_at, data) values (?, ?, ?)
on conflict (username) do update set
    fetched_at = excluded.fetched_at,
    data = excluded.data
`

type UpsertTranscriptParams struct {
	Username  string
	FetchedAt int64
	Data      string
}

func (q *Queries) UpsertTranscript(ctx context.Context, arg UpsertTranscriptParams) error {
	_, err := q.db.ExecContext(ctx, upsertTranscript, arg.Username, arg.FetchedAt, arg.Data)
	return err
}

const getTranscript = `
select username, fetched_at, data from transcripts
where username = ?
`

func (q *Queries) GetTranscript(ctx context.Context, username string) (Transcript, error) {
	row := q.db.QueryRowContext(ctx, getTranscript, username)
	var i Transcript
	err := row.Scan(&i.Username, &i.FetchedAt, &i.Data)
	return i, err
}

const createUserSection = `
insert into user_sections(username, section_id, section_name) values (?, ?, ?)
on conflict (username, section_id) do update set
    section_name = excluded.section_name
`

type CreateUserSectionParams struct {
	Username    string
	SectionID   string
	SectionName string
}

func (q *Queries) CreateUserSection(ctx context.Context, arg CreateUserSectionParams) error {
	_, err := q.db.ExecContext(ctx, createUserSection, arg.Username, arg.SectionID, arg.SectionName)
	return err
}

const getUserSectionId = `
select id from user_sections
where username = ? and section_id = ?
`

type GetUserSectionIdParams struct {
	Username  string
	SectionID string
}

func (q *Queries) GetUserSectionId(ctx context.Context, arg GetUserSectionIdParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, getUserSectionId, arg.Username, arg.SectionID)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const deleteGradeSnapshotsIn = `
delete from grade_snapshots
where time >= ? and time < ? and user_section_id in (
    select id from user_sections where username = ?
)
`

type DeleteGradeSnapshotsInParams struct {
	After    int64
	Before   int64
	Username string
}

func (q *Queries) DeleteGradeSnapshotsIn(ctx context.Context, arg DeleteGradeSnapshotsInParams) error {
	_, err := q.db.ExecContext(ctx, deleteGradeSnapshotsIn, arg.After, arg.Before, arg.Username)
	return err
}

const createGradeSnapshot = `
insert into grade_snapshots(user_section_id, term, time, value) values (?, ?, ?, ?)
`

type CreateGradeSnapshotParams struct {
	UserSectionID int64
	Term          string
	Time          int64
	Value         float64
}

func (q *Queries) CreateGradeSnapshot(ctx context.Context, arg CreateGradeSnapshotParams) error {
	_, err := q.db.ExecContext(ctx, createGradeSnapshot,
		arg.UserSectionID,
		arg.Term,
		arg.Time,
		arg.Value,
	)
	return err
}

const getGradeSnapshots = `
select user_sections.section_id, user_sections.section_name, grade_snapshots.term, grade_snapshots.time, grade_snapshots.value
from grade_snapshots
inner join user_sections on user_sections.id = grade_snapshots.user_section_id
where user_sections.username = ?
order by user_sections.section_id, grade_snapshots.term, grade_snapshots.time
`

type GetGradeSnapshotsRow struct {
	SectionID   string
	SectionName string
	Term        string
	Time        int64
	Value       float64
}

func (q *Queries) GetGradeSnapshots(ctx context.Context, username string) ([]GetGradeSnapshotsRow, error) {
	rows, err := q.db.QueryContext(ctx, getGradeSnapshots, username)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []GetGradeSnapshotsRow
	for rows.Next() {
		var i GetGradeSnapshotsRow
		if err := rows.Scan(
			&i.SectionID,
			&i.SectionName,
			&i.Term,
			&i.Time,
			&i.Value,
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
