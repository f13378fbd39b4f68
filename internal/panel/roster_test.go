package panel

import (
	"context"
	"errors"
	"testing"

	"github.com/liliang-cn/webchat/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func staticList(sites ...domain.Site) func(context.Context, int) ([]domain.Site, error) {
	return func(context.Context, int) ([]domain.Site, error) {
		return sites, nil
	}
}

func TestRoster_FiltersSitesWithoutVectorDB(t *testing.T) {
	backend := &fakeBackend{listFn: staticList(
		site(1, "https://a.example", "aaa"),
		site(2, "https://b.example", ""),
		domain.Site{ID: domain.NumberID(3), URL: "https://c.example"},
		site(4, "https://d.example", "ddd"),
	)}
	roster := NewRoster(backend, RosterCallbacks{}, nil)
	assert.Equal(t, RosterLoading, roster.View().Status)

	require.NoError(t, roster.Load(context.Background()))

	view := roster.View()
	assert.Equal(t, RosterLoaded, view.Status)
	require.Len(t, view.Sites, 2)
	for _, s := range view.Sites {
		assert.True(t, s.HasVectorDB(), s.URL)
	}
	assert.Equal(t, "https://a.example", view.Sites[0].URL)
	assert.Equal(t, "https://d.example", view.Sites[1].URL)
}

func TestRoster_RenderStates(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		roster := NewRoster(&fakeBackend{listFn: staticList(site(1, "https://a.example", ""))}, RosterCallbacks{}, nil)
		require.NoError(t, roster.Load(context.Background()))
		view := roster.View()
		assert.Equal(t, RosterEmpty, view.Status)
		assert.Empty(t, view.Sites)
		assert.Empty(t, view.Err)
	})

	t.Run("error", func(t *testing.T) {
		backend := &fakeBackend{listFn: func(context.Context, int) ([]domain.Site, error) {
			return nil, &domain.APIError{Message: "connection refused"}
		}}
		roster := NewRoster(backend, RosterCallbacks{}, nil)
		assert.Error(t, roster.Load(context.Background()))
		view := roster.View()
		assert.Equal(t, RosterError, view.Status)
		assert.Equal(t, loadFailedMessage, view.Err)
		assert.Empty(t, view.Sites)
	})
}

func TestRoster_DropsOutOfOrderLoads(t *testing.T) {
	firstStarted := make(chan struct{})
	releaseFirst := make(chan struct{})
	backend := &fakeBackend{listFn: func(ctx context.Context, call int) ([]domain.Site, error) {
		if call == 1 {
			close(firstStarted)
			<-releaseFirst
			return []domain.Site{site(1, "https://old.example", "old")}, nil
		}
		return []domain.Site{site(2, "https://new.example", "new")}, nil
	}}
	roster := NewRoster(backend, RosterCallbacks{}, nil)

	firstDone := make(chan error, 1)
	go func() { firstDone <- roster.Load(context.Background()) }()
	<-firstStarted

	require.NoError(t, roster.Load(context.Background()))
	close(releaseFirst)
	assert.ErrorIs(t, <-firstDone, domain.ErrStale)

	view := roster.View()
	require.Len(t, view.Sites, 1)
	assert.Equal(t, "https://new.example", view.Sites[0].URL)
}

func TestRoster_Select(t *testing.T) {
	var selected []domain.Selection
	backend := &fakeBackend{listFn: staticList(site(1, "https://a.example", "aaa"), site(2, "https://b.example", "bbb"))}
	roster := NewRoster(backend, RosterCallbacks{OnSelect: func(s domain.Selection) { selected = append(selected, s) }}, nil)
	require.NoError(t, roster.Load(context.Background()))

	sel, err := roster.Select("2")
	require.NoError(t, err)
	assert.Equal(t, "https://b.example", sel.URL)
	assert.Equal(t, domain.StringID("bbb"), roster.View().Highlighted)

	sel, err = roster.Select("aaa")
	require.NoError(t, err)
	assert.Equal(t, domain.NumberID(1), sel.WebsiteID)

	_, err = roster.Select("9")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.Len(t, selected, 2)
	assert.Equal(t, domain.StringID("bbb"), selected[0].VectorDBID)
	assert.Equal(t, domain.StringID("aaa"), selected[1].VectorDBID)
}

func TestRoster_DeleteConfirmsAndReloads(t *testing.T) {
	sites := []domain.Site{site(1, "https://a.example", "aaa"), site(2, "https://b.example", "bbb")}
	var deleted []domain.ID
	backend := &fakeBackend{
		listFn: func(ctx context.Context, call int) ([]domain.Site, error) {
			if call == 1 {
				return sites, nil
			}
			return sites[1:], nil
		},
		deleteFn: func(ctx context.Context, id domain.ID) (*domain.DeleteResult, error) {
			return &domain.DeleteResult{DeletedVectorDBID: id}, nil
		},
	}
	roster := NewRoster(backend, RosterCallbacks{OnDeleted: func(id domain.ID) { deleted = append(deleted, id) }}, nil)
	require.NoError(t, roster.Load(context.Background()))

	var prompt string
	err := roster.Delete(context.Background(), "1", func(p string) bool {
		prompt = p
		return true
	})
	require.NoError(t, err)

	assert.Contains(t, prompt, "https://a.example")
	assert.Contains(t, prompt, "vector database")
	assert.Contains(t, prompt, "scraped data")
	assert.Contains(t, prompt, "chat history")

	assert.Equal(t, []domain.ID{domain.StringID("aaa")}, backend.deleteCalls)
	assert.Equal(t, []domain.ID{domain.StringID("aaa")}, deleted)

	_, _, _, lists, _ := backend.counts()
	assert.Equal(t, 2, lists, "delete must re-fetch the roster")

	view := roster.View()
	require.Len(t, view.Sites, 1)
	assert.Equal(t, "https://b.example", view.Sites[0].URL)
	assert.Equal(t, "Deleted https://a.example", view.Notice)
	assert.False(t, view.NoticeError)
}

func TestRoster_DeleteDeclined(t *testing.T) {
	backend := &fakeBackend{listFn: staticList(site(1, "https://a.example", "aaa"))}
	roster := NewRoster(backend, RosterCallbacks{}, nil)
	require.NoError(t, roster.Load(context.Background()))

	err := roster.Delete(context.Background(), "1", func(string) bool { return false })
	assert.ErrorIs(t, err, domain.ErrCancelled)
	_, _, deletes, _, _ := backend.counts()
	assert.Zero(t, deletes)
}

func TestRoster_DeleteFileLocked(t *testing.T) {
	backend := &fakeBackend{
		listFn: staticList(site(1, "https://a.example", "aaa")),
		deleteFn: func(ctx context.Context, id domain.ID) (*domain.DeleteResult, error) {
			return nil, &domain.APIError{StatusCode: 500, Message: "An error occurred while deleting: another process is using chroma.sqlite3"}
		},
	}
	deletedCalled := false
	roster := NewRoster(backend, RosterCallbacks{OnDeleted: func(domain.ID) { deletedCalled = true }}, nil)
	require.NoError(t, roster.Load(context.Background()))

	err := roster.Delete(context.Background(), "aaa", nil)
	require.Error(t, err)
	assert.True(t, domain.IsFileLocked(err))
	assert.False(t, deletedCalled)

	view := roster.View()
	assert.True(t, view.NoticeError)
	assert.Equal(t, domain.FileLockMessage, view.Notice)
	assert.Contains(t, view.Notice, "Restart the backend")
	assert.NotContains(t, view.Notice, "process is using")
	assert.Len(t, view.Sites, 1, "failed delete keeps the row")
	assert.Empty(t, view.Deleting)
}

func TestRoster_DeleteMarksOnlyThatRow(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	backend := &fakeBackend{
		listFn: staticList(site(1, "https://a.example", "aaa"), site(2, "https://b.example", "bbb")),
		deleteFn: func(ctx context.Context, id domain.ID) (*domain.DeleteResult, error) {
			if id == domain.StringID("aaa") {
				close(started)
				<-release
				return nil, errors.New("gone")
			}
			return &domain.DeleteResult{}, nil
		},
	}
	roster := NewRoster(backend, RosterCallbacks{}, nil)
	require.NoError(t, roster.Load(context.Background()))

	done := make(chan error, 1)
	go func() { done <- roster.Delete(context.Background(), "aaa", nil) }()
	<-started

	view := roster.View()
	assert.True(t, view.Deleting[domain.StringID("aaa")])
	assert.False(t, view.Deleting[domain.StringID("bbb")])

	assert.ErrorIs(t, roster.Delete(context.Background(), "aaa", nil), domain.ErrBusy)
	_, err := roster.Select("bbb")
	assert.NoError(t, err, "other rows stay usable")

	close(release)
	assert.Error(t, <-done)
}

func TestRoster_BeginDeleteMarksRowBeforeRequest(t *testing.T) {
	backend := &fakeBackend{
		listFn: staticList(site(1, "https://a.example", "aaa"), site(2, "https://b.example", "bbb")),
		deleteFn: func(ctx context.Context, id domain.ID) (*domain.DeleteResult, error) {
			return &domain.DeleteResult{DeletedVectorDBID: id}, nil
		},
	}
	roster := NewRoster(backend, RosterCallbacks{}, nil)
	require.NoError(t, roster.Load(context.Background()))

	target, err := roster.BeginDelete("1", nil)
	require.NoError(t, err)
	assert.Equal(t, "https://a.example", target.URL)

	view := roster.View()
	assert.True(t, view.Deleting[domain.StringID("aaa")])
	assert.False(t, view.Deleting[domain.StringID("bbb")])
	_, _, deletes, _, _ := backend.counts()
	assert.Zero(t, deletes)

	_, err = roster.BeginDelete("aaa", nil)
	assert.ErrorIs(t, err, domain.ErrBusy)

	require.NoError(t, roster.FinishDelete(context.Background(), target))
	assert.Empty(t, roster.View().Deleting)
	_, _, deletes, _, _ = backend.counts()
	assert.Equal(t, 1, deletes)
}
