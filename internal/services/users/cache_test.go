package services

import (
	"context"
	"log/slog"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/magabrotheeeer/users-api/internal/cache"
	"github.com/magabrotheeeer/users-api/internal/config"
	"github.com/magabrotheeeer/users-api/internal/lib/password"
	"github.com/magabrotheeeer/users-api/internal/models"
	"github.com/magabrotheeeer/users-api/internal/storage/memory"
)

// slowReadRepo после взведения armed один раз выполняет beforeReturn между
// чтением пользователя и возвратом результата: так запись завершается во время чтения.
type slowReadRepo struct {
	*memory.Storage
	armed        atomic.Bool
	beforeReturn func()
}

func (r *slowReadRepo) GetUser(ctx context.Context, id string) (*models.User, error) {
	user, err := r.Storage.GetUser(ctx, id)
	if r.armed.CompareAndSwap(true, false) {
		r.beforeReturn()
	}
	return user, err
}

func newRedisFixture(t *testing.T, cacheTTL time.Duration) (*fixture, *slowReadRepo, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	viewCache, err := cache.InitServer(context.Background(), config.RedisConnection{AddressRedis: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = viewCache.Close() })

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	repo := memory.New()
	reads := &slowReadRepo{Storage: repo}
	passwords := password.NewManager(bcrypt.MinCost, password.DefaultValidator(8))
	fetcher := new(FetcherMock)
	t.Cleanup(func() { fetcher.AssertExpectations(t) })

	f := &fixture{
		svc:       NewUserService(logger, reads, repo, passwords, fetcher, viewCache, cacheTTL, nil),
		repo:      repo,
		passwords: passwords,
		fetcher:   fetcher,
	}
	return f, reads, mr
}

func TestUserService_Retrieve_UpdateDuringCacheFill(t *testing.T) {
	f, reads, mr := newRedisFixture(t, 10*time.Minute)
	staff := f.seed(t, "staff", true, false)
	user := f.seed(t, "plain", false, false)
	ctx := context.Background()

	var updateErr error
	reads.beforeReturn = func() {
		done := make(chan struct{})
		go func() {
			defer close(done)
			_, updateErr = f.svc.PartialUpdate(ctx, principal(staff), user.ID, UserInput{FirstName: ptr("Fresh")})
		}()
		<-done
	}
	reads.armed.Store(true)

	got, err := f.svc.Retrieve(ctx, principal(staff), user.ID)
	require.NoError(t, err)
	require.NoError(t, updateErr)
	// Чтение началось до изменения и видит прежнее имя.
	assert.Equal(t, "First", got.(models.DetailedUser).FirstName)

	got, err = f.svc.Retrieve(ctx, principal(staff), user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Fresh", got.(models.DetailedUser).FirstName)
	assert.Equal(t, 10*time.Minute, mr.TTL("user:"+user.ID))
}

func TestUserService_Retrieve_FillUsesShortTTL(t *testing.T) {
	tests := []struct {
		name     string
		cacheTTL time.Duration
		want     time.Duration
	}{
		{name: "long cache ttl", cacheTTL: 10 * time.Minute, want: viewFillTTL},
		{name: "short cache ttl", cacheTTL: 5 * time.Second, want: 5 * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, _, mr := newRedisFixture(t, tt.cacheTTL)
			staff := f.seed(t, "staff", true, false)
			user := f.seed(t, "plain", false, false)

			_, err := f.svc.Retrieve(context.Background(), principal(staff), user.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.want, mr.TTL("user:"+user.ID))
		})
	}
}

func TestUserService_Delete_DropsCachedView(t *testing.T) {
	f, _, mr := newRedisFixture(t, 10*time.Minute)
	staff := f.seed(t, "staff", true, false)
	user := f.seed(t, "plain", false, false)
	ctx := context.Background()

	_, err := f.svc.Retrieve(ctx, principal(staff), user.ID)
	require.NoError(t, err)
	require.True(t, mr.Exists("user:"+user.ID))

	require.NoError(t, f.svc.Delete(ctx, principal(staff), user.ID))
	assert.False(t, mr.Exists("user:"+user.ID))

	_, err = f.svc.Retrieve(ctx, principal(staff), user.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
