package article

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"spotlight/internal/domain"
	"spotlight/internal/favorite"
	"spotlight/internal/service"
	"spotlight/internal/testutil"
)

// memStorage is an in-memory favorite.Storage that can be told to fail.
type memStorage struct {
	keys  map[string]bool
	fail  error
	pause time.Duration
}

func (m *memStorage) List(context.Context) ([]domain.Article, error) { return nil, nil }

func (m *memStorage) Toggle(_ context.Context, a domain.Article) (bool, error) {
	if m.pause > 0 {
		time.Sleep(m.pause)
	}
	if m.fail != nil {
		return false, m.fail
	}
	if m.keys[a.Key()] {
		delete(m.keys, a.Key())
		return false, nil
	}
	m.keys[a.Key()] = true
	return true, nil
}

type EntryTestSuite struct {
	suite.Suite
	ctx     context.Context
	storage *memStorage
	store   *favorite.Store
	hub     *favorite.Hub
	factory *Factory
}

func TestEntryTestSuite(t *testing.T) {
	suite.Run(t, new(EntryTestSuite))
}

func (s *EntryTestSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.ctx = context.Background()
	s.storage = &memStorage{keys: make(map[string]bool)}
	s.store = favorite.NewStore(s.storage, logger)
	s.hub = favorite.NewHub()
	svc := service.NewFavoriteService(s.store, s.hub, nil, nil, logger)
	s.factory = NewFactory(s.store, s.hub, svc, logger)
}

func (s *EntryTestSuite) TestNew_ReadsInitialStateFromStore() {
	a := domain.Article{Title: "A"}
	_, err := s.store.Update(s.ctx, a)
	s.Require().NoError(err)

	s.True(s.factory.New(a).IsFavorite())
	s.False(s.factory.New(domain.Article{Title: "B"}).IsFavorite())
}

func (s *EntryTestSuite) TestToggle_ConvergesAcrossLists() {
	a := domain.Article{Title: "A", URL: "https://search.example/a"}
	inSearch := s.factory.New(a)
	inHome := s.factory.New(domain.Article{Title: "A", URL: "https://home.example/a"})
	unrelated := s.factory.New(domain.Article{Title: "B"})

	var seen []bool
	inHome.OnFavoriteChange(func(v bool) { seen = append(seen, v) })

	s.Require().NoError(inSearch.ToggleFavorite(s.ctx))

	s.True(inSearch.IsFavorite())
	s.True(inHome.IsFavorite())
	s.False(unrelated.IsFavorite())
	s.True(s.store.IsAlreadyPersisted(a))
	s.Equal([]bool{true}, seen)
}

func (s *EntryTestSuite) TestToggle_TwiceRestoresState() {
	e := s.factory.New(domain.Article{Title: "A"})

	s.Require().NoError(e.ToggleFavorite(s.ctx))
	s.Require().NoError(e.ToggleFavorite(s.ctx))

	s.False(e.IsFavorite())
	s.False(s.store.IsAlreadyPersisted(e.Article()))
	s.Equal(0, s.store.Len())
}

func (s *EntryTestSuite) TestToggle_FailureLeavesStateUnchanged() {
	e := s.factory.New(domain.Article{Title: "A"})
	other := s.factory.New(domain.Article{Title: "A"})
	s.storage.fail = errors.New("database is locked")

	notified := false
	other.OnFavoriteChange(func(bool) { notified = true })

	err := e.ToggleFavorite(s.ctx)

	s.Error(err)
	s.True(errors.Is(err, domain.ErrPersistence))
	s.False(e.IsFavorite())
	s.False(other.IsFavorite())
	s.False(notified)
}

func (s *EntryTestSuite) TestOnFavoriteChange_Cancel() {
	e := s.factory.New(domain.Article{Title: "A"})

	calls := 0
	cancel := e.OnFavoriteChange(func(bool) { calls++ })
	s.Require().NoError(e.ToggleFavorite(s.ctx))
	cancel()
	s.Require().NoError(e.ToggleFavorite(s.ctx))

	s.Equal(1, calls)
}

func (s *EntryTestSuite) TestApplyFavoriteState_NotifiesOnlyOnChange() {
	e := s.factory.New(domain.Article{Title: "A"})

	calls := 0
	e.OnFavoriteChange(func(bool) { calls++ })
	e.ApplyFavoriteState(false)
	e.ApplyFavoriteState(true)
	e.ApplyFavoriteState(true)

	s.Equal(1, calls)
}

func (s *EntryTestSuite) TestToggle_ConcurrentTogglesConverge() {
	a := domain.Article{Title: "A"}
	first := s.factory.New(a)
	second := s.factory.New(a)
	s.storage.pause = 100 * time.Microsecond

	var (
		mu       sync.Mutex
		lastSeen bool
	)
	first.OnFavoriteChange(func(v bool) {
		mu.Lock()
		lastSeen = v
		mu.Unlock()
	})

	const rounds = 25
	var wg sync.WaitGroup
	for _, e := range []*Entry{first, second} {
		wg.Add(1)
		go func(e *Entry) {
			defer wg.Done()
			for i := 0; i < rounds; i++ {
				s.NoError(e.ToggleFavorite(s.ctx))
			}
		}(e)
	}
	wg.Wait()

	// an even number of toggles in total
	s.False(s.store.IsAlreadyPersisted(a))
	s.False(first.IsFavorite())
	s.False(second.IsFavorite())
	mu.Lock()
	s.False(lastSeen)
	mu.Unlock()
}

func (s *EntryTestSuite) TestToggle_OddNumberOfConcurrentToggles() {
	a := domain.Article{Title: "A"}
	entries := []*Entry{s.factory.New(a), s.factory.New(a), s.factory.New(a)}
	s.storage.pause = 100 * time.Microsecond

	var wg sync.WaitGroup
	for _, e := range entries {
		wg.Add(1)
		go func(e *Entry) {
			defer wg.Done()
			s.NoError(e.ToggleFavorite(s.ctx))
		}(e)
	}
	wg.Wait()

	s.True(s.store.IsAlreadyPersisted(a))
	for _, e := range entries {
		s.True(e.IsFavorite())
	}
}

func (s *EntryTestSuite) TestToggle_ReleasedEntryAppliesOwnState() {
	e := s.factory.New(domain.Article{Title: "A"})
	e.Release()

	s.Require().NoError(e.ToggleFavorite(s.ctx))

	s.True(e.IsFavorite())
	s.True(s.store.IsAlreadyPersisted(e.Article()))
}

func (s *EntryTestSuite) TestRelease_StopsUpdates() {
	a := domain.Article{Title: "A"}
	released := s.factory.New(a)
	live := s.factory.New(a)
	released.Release()
	released.Release()

	s.Require().NoError(live.ToggleFavorite(s.ctx))

	s.True(live.IsFavorite())
	s.False(released.IsFavorite())
	s.Equal(1, s.hub.Len())
	runtime.KeepAlive(live)
}

func (s *EntryTestSuite) TestUnreachableEntriesLeaveTheHub() {
	func() {
		for _, e := range s.factory.NewAll([]domain.Article{{Title: "A"}, {Title: "B"}}) {
			_ = e.IsFavorite()
		}
	}()

	s.Eventually(func() bool {
		runtime.GC()
		return s.hub.Len() == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func (s *EntryTestSuite) TestEqual() {
	a := s.factory.New(domain.Article{Title: "A", URL: "one"})
	b := s.factory.New(domain.Article{Title: "A", URL: "two"})
	c := s.factory.New(domain.Article{Title: "C"})

	s.True(a.Equal(b))
	s.False(a.Equal(c))
	s.False(a.Equal(nil))
}

func TestFormatDate(t *testing.T) {
	tests := []struct {
		name string
		in   *string
		want string
	}{
		{"nil", nil, ""},
		{"empty", testutil.Ptr(""), ""},
		{"rfc3339", testutil.Ptr("2024-03-05T10:20:30Z"), "Mar 5, 2024"},
		{"fractional seconds", testutil.Ptr("2023-12-31T23:59:59.123Z"), "Dec 31, 2023"},
		{"garbage", testutil.Ptr("not a date"), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatDate(tt.in))
		})
	}
}

func TestEntry_DisplayDate(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f := NewFactory(favorite.NewStore(&memStorage{keys: map[string]bool{}}, logger), favorite.NewHub(), nil, logger)

	e := f.New(domain.Article{Title: "A", PublishedAt: testutil.Ptr("2021-07-01T08:00:00Z")})
	require.NotNil(t, e)
	assert.Equal(t, "Jul 1, 2021", e.DisplayDate())
}
