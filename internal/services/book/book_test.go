package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/glanceread/internal/cache"
	"github.com/magabrotheeeer/glanceread/internal/entitlement"
	"github.com/magabrotheeeer/glanceread/internal/models"
)

type BookRepoMock struct{ mock.Mock }

func (m *BookRepoMock) ListBooks(ctx context.Context, filter models.BookFilter) ([]*models.Book, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Book), args.Error(1)
}

func (m *BookRepoMock) GetBook(ctx context.Context, id int64) (*models.Book, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Book), args.Error(1)
}

func (m *BookRepoMock) CreateBook(ctx context.Context, b *models.Book) error {
	args := m.Called(ctx, b)
	if args.Error(0) == nil {
		b.ID = 42
	}
	return args.Error(0)
}

func (m *BookRepoMock) UpdateBook(ctx context.Context, id int64, patch models.BookPatch) (*models.Book, error) {
	args := m.Called(ctx, id, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Book), args.Error(1)
}

func (m *BookRepoMock) DeleteBook(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

// fakeStore запоминает загрузки и возвращает предсказуемые URL.
type fakeStore struct {
	mu      sync.Mutex
	folders map[string]int
	failOn  string
}

func (f *fakeStore) Upload(_ context.Context, data []byte, filename, folder string) (string, error) {
	if filename == f.failOn {
		return "", errors.New("bucket unavailable")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.folders == nil {
		f.folders = map[string]int{}
	}
	f.folders[folder]++
	return "https://cdn.example.com/" + folder + "/" + filename, nil
}

type observerStub struct {
	access, tier string
	calls        int
}

func (o *observerStub) ObserveEntitlement(access, tier string) {
	o.access, o.tier = access, tier
	o.calls++
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

type fixture struct {
	repo     *BookRepoMock
	store    *fakeStore
	observer *observerStub
	redis    *miniredis.Miniredis
	svc      *BookService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	c := &cache.Cache{Db: redis.NewClient(&redis.Options{Addr: mr.Addr()})}
	t.Cleanup(func() { _ = c.Close() })

	f := &fixture{repo: new(BookRepoMock), store: &fakeStore{}, observer: &observerStub{}, redis: mr}
	f.svc = NewBookService(f.repo, c, f.store, f.observer, time.Hour, newNoopLogger())
	return f
}

func premiumBook() *models.Book {
	return &models.Book{
		ID: 7, Title: "Atomic Habits", IsPremium: true,
		InfographicImages: []string{"p1", "p2", "p3", "p4", "p5"},
	}
}

func TestBookService_GetUsesCache(t *testing.T) {
	f := newFixture(t)
	f.repo.On("GetBook", mock.Anything, int64(7)).Return(premiumBook(), nil).Once()

	first, err := f.svc.Get(context.Background(), 7)
	require.NoError(t, err)
	second, err := f.svc.Get(context.Background(), 7)
	require.NoError(t, err)

	assert.Equal(t, first.Title, second.Title)
	assert.Equal(t, first.InfographicImages, second.InfographicImages)
	assert.True(t, f.redis.Exists("book:7"))
	f.repo.AssertExpectations(t)
}

func TestBookService_GetNotFound(t *testing.T) {
	f := newFixture(t)
	f.repo.On("GetBook", mock.Anything, int64(9)).Return(nil, models.ErrNotFound).Once()

	_, err := f.svc.Get(context.Background(), 9)
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.False(t, f.redis.Exists("book:9"))
}

func TestBookService_View(t *testing.T) {
	tests := []struct {
		name       string
		viewer     *models.User
		wantAccess entitlement.Access
		wantPages  []string
		wantMarker bool
	}{
		{
			name:       "anonymous gets preview",
			wantAccess: entitlement.PreviewLocked,
			wantPages:  []string{"p1", "p2", "p3"},
			wantMarker: true,
		},
		{
			name:       "inactive gets preview",
			viewer:     &models.User{SubscriptionStatus: models.StatusInactive},
			wantAccess: entitlement.PreviewLocked,
			wantPages:  []string{"p1", "p2", "p3"},
			wantMarker: true,
		},
		{
			name:       "active gets everything",
			viewer:     &models.User{SubscriptionStatus: models.StatusActive},
			wantAccess: entitlement.FullAccess,
			wantPages:  []string{"p1", "p2", "p3", "p4", "p5"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.repo.On("GetBook", mock.Anything, int64(7)).Return(premiumBook(), nil).Once()

			v, err := f.svc.View(context.Background(), 7, tt.viewer)
			require.NoError(t, err)

			assert.Equal(t, tt.wantAccess, v.Access)
			assert.Equal(t, tt.wantPages, v.Book.InfographicImages)
			assert.Equal(t, 5, v.TotalPages)
			last := v.Pages[len(v.Pages)-1]
			assert.Equal(t, tt.wantMarker, last.Kind == entitlement.KindContinueReading)
			assert.Equal(t, string(tt.wantAccess), f.observer.access)
			assert.Equal(t, 1, f.observer.calls)
		})
	}
}

func TestBookService_ViewDoesNotLeakIntoCache(t *testing.T) {
	f := newFixture(t)
	f.repo.On("GetBook", mock.Anything, int64(7)).Return(premiumBook(), nil).Once()

	_, err := f.svc.View(context.Background(), 7, nil)
	require.NoError(t, err)

	full, err := f.svc.View(context.Background(), 7, &models.User{SubscriptionStatus: models.StatusActive})
	require.NoError(t, err)
	assert.Len(t, full.Book.InfographicImages, 5)
}

func TestBookService_ListShowsOnlyPreviewOfPremiumBooks(t *testing.T) {
	f := newFixture(t)
	free := &models.Book{ID: 8, IsFree: true, IsPremium: true, InfographicImages: []string{"f1", "f2", "f3", "f4"}}
	f.repo.On("ListBooks", mock.Anything, models.BookFilter{}).Return([]*models.Book{premiumBook(), free}, nil).Once()

	for i := 0; i < 2; i++ {
		books, err := f.svc.List(context.Background(), models.BookFilter{})
		require.NoError(t, err)
		require.Len(t, books, 2)
		assert.Equal(t, []string{"p1", "p2", "p3"}, books[0].InfographicImages)
		assert.Len(t, books[1].InfographicImages, 4)
	}

	// кеш хранит книгу целиком, подписчик в View получает все страницы
	f.repo.On("GetBook", mock.Anything, int64(7)).Return(premiumBook(), nil).Once()
	v, err := f.svc.View(context.Background(), 7, &models.User{SubscriptionStatus: models.StatusActive})
	require.NoError(t, err)
	assert.Len(t, v.Book.InfographicImages, 5)
	f.repo.AssertExpectations(t)
}

func TestBookService_ListCachedAndInvalidated(t *testing.T) {
	f := newFixture(t)
	filter := models.BookFilter{Search: "Habits", Category: "Self-help"}
	books := []*models.Book{premiumBook()}
	f.repo.On("ListBooks", mock.Anything, filter).Return(books, nil).Twice()
	f.repo.On("DeleteBook", mock.Anything, int64(7)).Return(nil).Once()

	_, err := f.svc.List(context.Background(), filter)
	require.NoError(t, err)
	_, err = f.svc.List(context.Background(), filter)
	require.NoError(t, err)
	assert.True(t, f.redis.Exists("books:list:habits|Self-help"))

	require.NoError(t, f.svc.Remove(context.Background(), 7))
	assert.False(t, f.redis.Exists("books:list:habits|Self-help"))

	_, err = f.svc.List(context.Background(), filter)
	require.NoError(t, err)
	f.repo.AssertExpectations(t)
}

func TestBookService_Create(t *testing.T) {
	link := "https://amzn.to/x"
	input := func(pages int) models.BookInput {
		in := models.BookInput{
			Title: "Deep Work", Author: "Cal Newport", Category: "Productivity",
			IsPremium: true, AffiliateLink: &link,
			Cover: models.File{Name: "cover.png", Data: []byte("cover")},
		}
		for i := 0; i < pages; i++ {
			in.Pages = append(in.Pages, models.File{Name: string(rune('a'+i)) + ".png", Data: []byte("page")})
		}
		return in
	}

	t.Run("uploads preserve page order", func(t *testing.T) {
		f := newFixture(t)
		f.redis.Set("books:list:|", "[]")
		f.repo.On("CreateBook", mock.Anything, mock.MatchedBy(func(b *models.Book) bool {
			return b.CoverImage == "https://cdn.example.com/covers/cover.png" &&
				len(b.InfographicImages) == 3 &&
				b.InfographicImages[0] == "https://cdn.example.com/infographics/a.png" &&
				b.InfographicImages[2] == "https://cdn.example.com/infographics/c.png"
		})).Return(nil).Once()

		book, err := f.svc.Create(context.Background(), input(3))
		require.NoError(t, err)
		assert.Equal(t, int64(42), book.ID)
		assert.Equal(t, 1, f.store.folders["covers"])
		assert.Equal(t, 3, f.store.folders["infographics"])
		assert.False(t, f.redis.Exists("books:list:|"))
		f.repo.AssertExpectations(t)
	})

	t.Run("page count bounds", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Create(context.Background(), input(0))
		assert.ErrorIs(t, err, models.ErrInvalidInput)
		_, err = f.svc.Create(context.Background(), input(MaxPages+1))
		assert.ErrorIs(t, err, models.ErrInvalidInput)
		f.repo.AssertNotCalled(t, "CreateBook", mock.Anything, mock.Anything)
	})

	t.Run("missing cover", func(t *testing.T) {
		f := newFixture(t)
		in := input(2)
		in.Cover = models.File{}
		_, err := f.svc.Create(context.Background(), in)
		assert.ErrorIs(t, err, models.ErrInvalidInput)
	})

	t.Run("upload failure fails request", func(t *testing.T) {
		f := newFixture(t)
		f.store.failOn = "b.png"
		_, err := f.svc.Create(context.Background(), input(3))
		assert.ErrorContains(t, err, "bucket unavailable")
		f.repo.AssertNotCalled(t, "CreateBook", mock.Anything, mock.Anything)
	})
}

func TestBookService_UpdateInvalidatesBook(t *testing.T) {
	f := newFixture(t)
	title := "New title"
	patch := models.BookPatch{Title: &title}
	updated := premiumBook()
	updated.Title = title

	f.repo.On("GetBook", mock.Anything, int64(7)).Return(premiumBook(), nil).Twice()
	f.repo.On("UpdateBook", mock.Anything, int64(7), patch).Return(updated, nil).Once()

	_, err := f.svc.Get(context.Background(), 7)
	require.NoError(t, err)

	got, err := f.svc.Update(context.Background(), 7, patch)
	require.NoError(t, err)
	assert.Equal(t, title, got.Title)
	assert.False(t, f.redis.Exists("book:7"))

	_, err = f.svc.Get(context.Background(), 7)
	require.NoError(t, err)
	f.repo.AssertExpectations(t)
}
