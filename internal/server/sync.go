// Package server keeps the stored transcripts of a set of students up to
// date and serves them over http.
package server

import (
	"context"
	"fmt"

	"powerapi-backend/internal/components/assert"
	"powerapi-backend/internal/components/chrono"
	"powerapi-backend/internal/components/telemetry"
	"powerapi-backend/internal/powerapi"
	"powerapi-backend/internal/store"
)

const (
	report_sync_account = "sync.account"
	report_sync_synced  = "sync.synced"
)

type Syncer struct {
	sessions powerapi.SessionCache
	store    store.Store
	accounts []powerapi.Credentials
	tel      telemetry.API
}

func NewSyncer(
	sessions powerapi.SessionCache,
	st store.Store,
	accounts []powerapi.Credentials,
	tel telemetry.API,
) Syncer {
	assert.NotNil(tel)
	return Syncer{
		sessions: sessions,
		store:    st,
		accounts: accounts,
		tel:      telemetry.NewScopedAPI("server", tel),
	}
}

// SyncAccount fetches and stores the transcript of one student.
func (s Syncer) SyncAccount(ctx context.Context, creds powerapi.Credentials) error {
	session, err := s.sessions.Sync(ctx, creds)
	if err != nil {
		return fmt.Errorf("sync %s: %w", creds.Username, err)
	}
	transcript, fetchedAt, _ := session.Transcript()
	err = s.store.Push(ctx, store.PushRequest{
		Username:   creds.Username,
		Time:       fetchedAt,
		Transcript: transcript,
	})
	if err != nil {
		return fmt.Errorf("store %s: %w", creds.Username, err)
	}
	return nil
}

// SyncAll syncs every configured account one after another, a failing
// account does not stop the others. It returns how many succeeded.
func (s Syncer) SyncAll(ctx context.Context) int {
	synced := 0
	for _, creds := range s.accounts {
		if ctx.Err() != nil {
			break
		}
		err := s.SyncAccount(ctx, creds)
		if err != nil {
			s.tel.ReportBroken(report_sync_account, err)
			continue
		}
		synced++
	}
	s.tel.ReportCount(report_sync_synced, int64(synced))
	return synced
}

// Schedule runs SyncAll on every tick of the cron spec until ctx is done.
func (s Syncer) Schedule(ctx context.Context, cron chrono.CronAPI, spec string) error {
	return cron.Cron(spec, func() {
		s.SyncAll(ctx)
	})
}
