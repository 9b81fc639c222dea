package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/glanceread/internal/lib/password"
	"github.com/magabrotheeeer/glanceread/internal/models"
)

type UserRepoMock struct{ mock.Mock }

func (m *UserRepoMock) ListUsers(ctx context.Context) ([]*models.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.User), args.Error(1)
}

func (m *UserRepoMock) DeleteUser(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *UserRepoMock) UpsertProgress(ctx context.Context, p models.ReadingProgress) error {
	return m.Called(ctx, p).Error(0)
}

func (m *UserRepoMock) AddReadTime(ctx context.Context, id string, minutes float64) error {
	return m.Called(ctx, id, minutes).Error(0)
}

func (m *UserRepoMock) SubmitTransaction(ctx context.Context, id, transactionID string, screenshot *string) error {
	return m.Called(ctx, id, transactionID, screenshot).Error(0)
}

func (m *UserRepoMock) UpdateProfile(ctx context.Context, id string, username, passwordHash *string) (*models.User, error) {
	args := m.Called(ctx, id, username, passwordHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *UserRepoMock) SaveBook(ctx context.Context, userID string, bookID int64) error {
	return m.Called(ctx, userID, bookID).Error(0)
}

func (m *UserRepoMock) UnsaveBook(ctx context.Context, userID string, bookID int64) error {
	return m.Called(ctx, userID, bookID).Error(0)
}

type ImageStoreMock struct{ mock.Mock }

func (m *ImageStoreMock) Upload(ctx context.Context, data []byte, filename, folder string) (string, error) {
	args := m.Called(ctx, data, filename, folder)
	return args.String(0), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

var testNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func newService(repo *UserRepoMock, images *ImageStoreMock) *UserService {
	s := NewUserService(repo, password.NewHasher(4), images, newNoopLogger())
	s.now = func() time.Time { return testNow }
	return s
}

func TestUserService_UpdateProgress(t *testing.T) {
	tests := []struct {
		name      string
		input     ProgressInput
		setupMock func(r *UserRepoMock)
		wantErr   error
	}{
		{
			name:  "progress with session time",
			input: ProgressInput{BookID: 3, Progress: 60, SessionTime: 12.5},
			setupMock: func(r *UserRepoMock) {
				r.On("UpsertProgress", mock.Anything, models.ReadingProgress{
					UserID: "u-1", BookID: 3, Progress: 60, LastRead: testNow,
				}).Return(nil).Once()
				r.On("AddReadTime", mock.Anything, "u-1", 12.5).Return(nil).Once()
			},
		},
		{
			name:  "progress without session time",
			input: ProgressInput{BookID: 3, Progress: 100},
			setupMock: func(r *UserRepoMock) {
				r.On("UpsertProgress", mock.Anything, mock.Anything).Return(nil).Once()
			},
		},
		{
			name:      "progress over 100",
			input:     ProgressInput{BookID: 3, Progress: 101},
			setupMock: func(*UserRepoMock) {},
			wantErr:   models.ErrInvalidInput,
		},
		{
			name:      "negative session",
			input:     ProgressInput{BookID: 3, Progress: 10, SessionTime: -1},
			setupMock: func(*UserRepoMock) {},
			wantErr:   models.ErrInvalidInput,
		},
		{
			name:  "unknown book",
			input: ProgressInput{BookID: 99, Progress: 10},
			setupMock: func(r *UserRepoMock) {
				r.On("UpsertProgress", mock.Anything, mock.Anything).Return(models.ErrNotFound).Once()
			},
			wantErr: models.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(UserRepoMock)
			tt.setupMock(repo)

			err := newService(repo, new(ImageStoreMock)).UpdateProgress(context.Background(), "u-1", tt.input)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			repo.AssertExpectations(t)
			if tt.input.SessionTime <= 0 {
				repo.AssertNotCalled(t, "AddReadTime", mock.Anything, mock.Anything, mock.Anything)
			}
		})
	}
}

func TestUserService_SubmitTransaction(t *testing.T) {
	t.Run("with screenshot", func(t *testing.T) {
		repo, images := new(UserRepoMock), new(ImageStoreMock)
		url := "https://cdn.example.com/payments/shot.png"
		images.On("Upload", mock.Anything, []byte("png"), "shot.png", "payments").Return(url, nil).Once()
		repo.On("SubmitTransaction", mock.Anything, "u-1", "UPI123", &url).Return(nil).Once()

		err := newService(repo, images).SubmitTransaction(context.Background(), "u-1", " UPI123 ",
			&models.File{Name: "shot.png", Data: []byte("png")})
		require.NoError(t, err)
		repo.AssertExpectations(t)
		images.AssertExpectations(t)
	})

	t.Run("without screenshot", func(t *testing.T) {
		repo, images := new(UserRepoMock), new(ImageStoreMock)
		repo.On("SubmitTransaction", mock.Anything, "u-1", "UPI123", (*string)(nil)).Return(nil).Once()

		require.NoError(t, newService(repo, images).SubmitTransaction(context.Background(), "u-1", "UPI123", nil))
		images.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		repo.AssertExpectations(t)
	})

	t.Run("empty transaction id", func(t *testing.T) {
		err := newService(new(UserRepoMock), new(ImageStoreMock)).SubmitTransaction(context.Background(), "u-1", "  ", nil)
		assert.ErrorIs(t, err, models.ErrInvalidInput)
	})

	t.Run("upload failure", func(t *testing.T) {
		repo, images := new(UserRepoMock), new(ImageStoreMock)
		images.On("Upload", mock.Anything, mock.Anything, mock.Anything, "payments").Return("", errors.New("s3 down")).Once()

		err := newService(repo, images).SubmitTransaction(context.Background(), "u-1", "UPI123",
			&models.File{Name: "shot.png", Data: []byte("png")})
		assert.ErrorContains(t, err, "s3 down")
		repo.AssertNotCalled(t, "SubmitTransaction", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestUserService_UpdateProfile(t *testing.T) {
	hasher := password.NewHasher(4)

	t.Run("username and password", func(t *testing.T) {
		repo := new(UserRepoMock)
		name, pass := " newname ", "newsecret"
		repo.On("UpdateProfile", mock.Anything, "u-1",
			mock.MatchedBy(func(n *string) bool { return n != nil && *n == "newname" }),
			mock.MatchedBy(func(h *string) bool { return h != nil && hasher.Compare(*h, "newsecret") == nil }),
		).Return(&models.User{ID: "u-1", Username: "newname"}, nil).Once()

		u, err := newService(repo, nil).UpdateProfile(context.Background(), "u-1", &name, &pass)
		require.NoError(t, err)
		assert.Equal(t, "newname", u.Username)
		repo.AssertExpectations(t)
	})

	t.Run("empty values are ignored", func(t *testing.T) {
		repo := new(UserRepoMock)
		empty := ""
		repo.On("UpdateProfile", mock.Anything, "u-1", (*string)(nil), (*string)(nil)).
			Return(&models.User{ID: "u-1"}, nil).Once()

		_, err := newService(repo, nil).UpdateProfile(context.Background(), "u-1", &empty, nil)
		require.NoError(t, err)
		repo.AssertExpectations(t)
	})
}

func TestUserService_ListRemoveSaved(t *testing.T) {
	repo := new(UserRepoMock)
	svc := newService(repo, nil)
	users := []*models.User{{ID: "a"}, {ID: "b"}}

	repo.On("ListUsers", mock.Anything).Return(users, nil).Once()
	repo.On("DeleteUser", mock.Anything, "missing").Return(models.ErrNotFound).Once()
	repo.On("SaveBook", mock.Anything, "u-1", int64(3)).Return(nil).Once()
	repo.On("UnsaveBook", mock.Anything, "u-1", int64(3)).Return(nil).Once()

	got, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 2)

	assert.ErrorIs(t, svc.Remove(context.Background(), "missing"), models.ErrNotFound)
	require.NoError(t, svc.SaveBook(context.Background(), "u-1", 3))
	require.NoError(t, svc.UnsaveBook(context.Background(), "u-1", 3))
	repo.AssertExpectations(t)
}
