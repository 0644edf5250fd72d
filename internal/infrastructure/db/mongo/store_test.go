package mongo

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/99minutos/service-requests/internal/core/domain"
	"github.com/99minutos/service-requests/internal/core/ports"
)

// These tests need a running server, e.g.
// MONGO_TEST_URI=mongodb://localhost:27017 go test ./internal/infrastructure/db/mongo/
func setupTestStore(t *testing.T) *Store {
	t.Helper()
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set")
	}
	ctx := context.Background()
	dbName := fmt.Sprintf("requests_test_%d", time.Now().UnixNano())

	s, err := Open(ctx, Config{URI: uri, Database: dbName}, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = s.client.Database(dbName).Drop(context.Background())
		_ = s.Close()
	})
	return s
}

func TestStore_UsersAndRequests(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertUser(ctx, &domain.User{ID: 1, Handle: "ann"}))
	require.NoError(t, s.UpsertUser(ctx, &domain.User{ID: 1, Handle: "other"}))
	require.NoError(t, s.UpsertUser(ctx, &domain.User{ID: 9, Role: domain.RoleMaster}))

	u, err := s.GetUser(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "ann", u.Handle)
	assert.Equal(t, domain.RoleClient, u.Role)

	workers, err := s.ListUsersByRole(ctx, domain.RoleMaster)
	require.NoError(t, err)
	require.Len(t, workers, 1)

	a, err := s.CreateRequest(ctx, ports.NewRequest{ClientID: 1, ProblemText: "leaky faucet"})
	require.NoError(t, err)
	b, err := s.CreateRequest(ctx, ports.NewRequest{ClientID: 1, ProblemText: "door"})
	require.NoError(t, err)
	assert.Greater(t, b, a)

	_, err = s.CreateRequest(ctx, ports.NewRequest{ClientID: 2, ProblemText: "x"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, s.Assign(ctx, a, 9))
	mine, err := s.ListRequests(ctx, ports.ByWorker(9))
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, a, mine[0].ID)

	all, err := s.ListRequests(ctx, ports.ByClient(1))
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, b, all[0].ID)

	c, err := s.CreateRequest(ctx, ports.NewRequest{ClientID: 1, ProblemText: "window", PhotoBefore: "before.jpg"})
	require.NoError(t, err)
	byPhoto, err := s.ListRequests(ctx, ports.ByPhoto("before.jpg"))
	require.NoError(t, err)
	require.Len(t, byPhoto, 1)
	assert.Equal(t, c, byPhoto[0].ID)
}

func TestStore_TransitionRace(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.UpsertUser(ctx, &domain.User{ID: 1}))
	id, err := s.CreateRequest(ctx, ports.NewRequest{ClientID: 1, ProblemText: "x"})
	require.NoError(t, err)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(worker int64) {
			defer wg.Done()
			_, err := s.Transition(ctx, domain.Transition{
				RequestID: id, ClientID: 1, Action: domain.ActionAssign, ActorID: 5,
				From: domain.StatusNew, To: domain.StatusAssigned, AssignedTo: &worker, At: time.Now().UTC(),
			})
			if err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, domain.ErrStatusConflict)
		}(int64(10 + i))
	}
	wg.Wait()
	assert.Equal(t, 1, wins)

	history, err := s.History(ctx, id)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, domain.ActionAssign, history[1].Action)
}
