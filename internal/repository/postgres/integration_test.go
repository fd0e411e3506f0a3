//go:build integration

package postgres_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/abhijeet1275/image-matcher/internal/model"
	repo "github.com/abhijeet1275/image-matcher/internal/repository/postgres"
)

var dsn string

func TestMain(m *testing.M) {
	ctx := context.Background()
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "postgres:15-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "postgres",
				"POSTGRES_PASSWORD": "password",
				"POSTGRES_DB":       "matcher_test",
			},
			WaitingFor: wait.ForListeningPort("5432/tcp").WithStartupTimeout(2 * time.Minute),
		},
		Started: true,
	})
	if err != nil {
		panic(err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		panic(err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		panic(err)
	}
	dsn = fmt.Sprintf("postgres://postgres:password@%s:%s/matcher_test?sslmode=disable", host, port.Port())

	code := m.Run()
	_ = container.Terminate(ctx)
	os.Exit(code)
}

func TestUserRepository_CreateOrGet(t *testing.T) {
	ctx := context.Background()
	conn, err := repo.NewConnection(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	ur := repo.NewUserRepository(conn)

	created, err := ur.CreateOrGet(ctx, model.User{ID: uuid.New(), LoginID: "alice"})
	require.NoError(t, err)
	require.Equal(t, "alice", created.LoginID)
	require.False(t, created.CreatedAt.IsZero())

	// Second login with the same login ID resolves to the same user even
	// though a fresh candidate ID is supplied.
	again, err := ur.CreateOrGet(ctx, model.User{ID: uuid.New(), LoginID: "alice"})
	require.NoError(t, err)
	require.Equal(t, created.ID, again.ID)

	byLogin, err := ur.GetByLoginID(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, created.ID, byLogin.ID)

	byID, err := ur.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "alice", byID.LoginID)

	_, err = ur.GetByLoginID(ctx, "nobody")
	require.ErrorIs(t, err, model.ErrNotFound)

	_, err = ur.GetByID(ctx, uuid.New())
	require.ErrorIs(t, err, model.ErrNotFound)
}

func TestMatchRepository_CRUD(t *testing.T) {
	ctx := context.Background()
	conn, err := repo.NewConnection(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	ur := repo.NewUserRepository(conn)
	mr := repo.NewMatchRepository(conn)

	owner, err := ur.CreateOrGet(ctx, model.User{ID: uuid.New(), LoginID: "match-owner"})
	require.NoError(t, err)

	record := model.MatchRecord{
		ID:             uuid.New(),
		UserID:         owner.ID,
		Prompt:         "red car, blue sky",
		ImageFilename:  "car.png",
		StoredFilename: uuid.New().String() + ".png",
		FinalScore:     70.56,
		Explanation:    "Overall Match Score: 70.56% (Strong Match)",
		Features: []model.Feature{
			{Text: "red car", Category: model.CategoryGeneral, Similarity: 0.28, Status: model.FeatureStatusPartial},
			{Text: "blue sky", Category: model.CategoryGeneral, Similarity: 0.35, Status: model.FeatureStatusStrong},
		},
	}

	saved, err := mr.Create(ctx, record)
	require.NoError(t, err)
	require.Equal(t, record.ID, saved.ID)
	require.False(t, saved.CreatedAt.IsZero())

	got, err := mr.GetByID(ctx, record.ID)
	require.NoError(t, err)
	require.Equal(t, record.Prompt, got.Prompt)
	require.Equal(t, record.StoredFilename, got.StoredFilename)
	require.InDelta(t, record.FinalScore, got.FinalScore, 1e-9)
	require.Equal(t, record.Features, got.Features)

	_, err = mr.GetByID(ctx, uuid.New())
	require.ErrorIs(t, err, model.ErrNotFound)
}

func TestMatchRepository_HistoryOrdering(t *testing.T) {
	ctx := context.Background()
	conn, err := repo.NewConnection(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	ur := repo.NewUserRepository(conn)
	mr := repo.NewMatchRepository(conn)

	owner, err := ur.CreateOrGet(ctx, model.User{ID: uuid.New(), LoginID: "history-owner"})
	require.NoError(t, err)

	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		r := model.MatchRecord{
			ID:             uuid.New(),
			UserID:         owner.ID,
			Prompt:         fmt.Sprintf("prompt %d", i),
			ImageFilename:  fmt.Sprintf("img%d.png", i),
			StoredFilename: uuid.New().String() + ".png",
			FinalScore:     float64(i * 10),
			Explanation:    "e",
			Features:       []model.Feature{},
		}
		_, err := mr.Create(ctx, r)
		require.NoError(t, err)
		ids = append(ids, r.ID)
		time.Sleep(10 * time.Millisecond)
	}

	list, err := mr.GetByUserID(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, list, 3)

	// Most recent first.
	require.Equal(t, ids[2], list[0].ID)
	require.Equal(t, ids[1], list[1].ID)
	require.Equal(t, ids[0], list[2].ID)

	// A user with no history yields an empty list, not an error.
	other, err := ur.CreateOrGet(ctx, model.User{ID: uuid.New(), LoginID: "empty-owner"})
	require.NoError(t, err)
	empty, err := mr.GetByUserID(ctx, other.ID)
	require.NoError(t, err)
	require.Empty(t, empty)
}

func TestMatchRepository_Delete(t *testing.T) {
	ctx := context.Background()
	conn, err := repo.NewConnection(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	ur := repo.NewUserRepository(conn)
	mr := repo.NewMatchRepository(conn)

	owner, err := ur.CreateOrGet(ctx, model.User{ID: uuid.New(), LoginID: "delete-owner"})
	require.NoError(t, err)

	record := model.MatchRecord{
		ID:             uuid.New(),
		UserID:         owner.ID,
		Prompt:         "p",
		ImageFilename:  "i.png",
		StoredFilename: uuid.New().String() + ".png",
		Explanation:    "e",
		Features:       []model.Feature{},
	}
	_, err = mr.Create(ctx, record)
	require.NoError(t, err)

	require.NoError(t, mr.Delete(ctx, record.ID))

	_, err = mr.GetByID(ctx, record.ID)
	require.ErrorIs(t, err, model.ErrNotFound)

	// Deleting twice reports not found.
	require.ErrorIs(t, mr.Delete(ctx, record.ID), model.ErrNotFound)
}
