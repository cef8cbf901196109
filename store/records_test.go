package store

import (
	"context"
	"log/slog"
	"testing"

	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"floorlink/domain"
)

func newTestRepository(t *testing.T) *WorkItemRepository {
	t.Helper()
	req := require.New(t)

	// Reduced value log for testing (avoid gigabytes of preallocation)
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).
		WithLoggingLevel(badger.ERROR).
		WithValueLogFileSize(16 << 20))
	req.NoError(err)

	writer, err := bluge.OpenWriter(bluge.DefaultConfig(t.TempDir()))
	req.NoError(err)

	t.Cleanup(func() {
		req.NoError(writer.Close())
		req.NoError(db.Close())
	})
	return NewWorkItemRepository(db, writer, slog.Default())
}

func TestWorkItemRepository_PutAndFind(t *testing.T) {
	req := require.New(t)
	repo := newTestRepository(t)
	ctx := context.Background()

	// Given two records sharing an identifier and one unrelated record
	req.NoError(repo.Put(domain.WorkItemRecord{
		ID: "r1", Identifier: "WI-1042", Owner: "alice", ProblemType: "jam", Description: "feeder jam",
	}))
	req.NoError(repo.Put(domain.WorkItemRecord{
		ID: "r2", Identifier: "wi-1042", Owner: "bob", ProblemType: "wear",
	}))
	req.NoError(repo.Put(domain.WorkItemRecord{
		ID: "r3", Identifier: "WI-9999", Owner: "carol",
	}))

	// When searching with yet another casing of the identifier
	records, err := repo.FindOwnersByIdentifier(ctx, "Wi-1042")

	// Then both spellings are found via the normalized index
	req.NoError(err)
	req.Len(records, 2)
	owners := []domain.ParticipantID{records[0].Owner, records[1].Owner}
	req.ElementsMatch([]domain.ParticipantID{"alice", "bob"}, owners)
}

func TestWorkItemRepository_FindNothing(t *testing.T) {
	req := require.New(t)
	repo := newTestRepository(t)

	records, err := repo.FindOwnersByIdentifier(context.Background(), "WI-404")
	req.NoError(err)
	req.Empty(records)
}

func TestWorkItemRepository_FindEmptyIdentifier(t *testing.T) {
	req := require.New(t)
	repo := newTestRepository(t)

	// Whitespace normalizes to nothing; the index is never consulted
	records, err := repo.FindOwnersByIdentifier(context.Background(), "   ")
	req.NoError(err)
	req.Empty(records)
}

func TestWorkItemRepository_PutReindexesExistingRecord(t *testing.T) {
	req := require.New(t)
	repo := newTestRepository(t)
	ctx := context.Background()

	// Given a record later moved to another identifier
	req.NoError(repo.Put(domain.WorkItemRecord{ID: "r1", Identifier: "WI-1", Owner: "alice"}))
	req.NoError(repo.Put(domain.WorkItemRecord{ID: "r1", Identifier: "WI-2", Owner: "alice"}))

	// Then the old identifier no longer matches and the new one does
	records, err := repo.FindOwnersByIdentifier(ctx, "WI-1")
	req.NoError(err)
	req.Empty(records)

	records, err = repo.FindOwnersByIdentifier(ctx, "WI-2")
	req.NoError(err)
	req.Len(records, 1)
	req.Equal("WI-2", records[0].Identifier)
}

func TestWorkItemRepository_PutWithoutID(t *testing.T) {
	req := require.New(t)
	repo := newTestRepository(t)

	req.Error(repo.Put(domain.WorkItemRecord{Identifier: "WI-1", Owner: "alice"}))
}

func TestParticipantDirectory_RegisterAndGet(t *testing.T) {
	req := require.New(t)
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).
		WithLoggingLevel(badger.ERROR).
		WithValueLogFileSize(16 << 20))
	req.NoError(err)
	t.Cleanup(func() { req.NoError(db.Close()) })

	directory := NewParticipantDirectory(db)
	id := domain.ParticipantID(uuid.NewString())

	// When a participant is registered
	req.NoError(directory.Register(Participant{
		ID:          id,
		DisplayName: "Alice",
		Roles:       []string{"dispatcher"},
		PINHash:     "$argon2id$...",
	}))

	// Then the directory surface resolves name and roles
	p, err := directory.Get(id)
	req.NoError(err)
	req.Equal("Alice", p.DisplayName)
	req.False(p.CreatedAt.IsZero())

	ctx := context.Background()
	name, err := directory.GetDisplayName(ctx, id)
	req.NoError(err)
	req.Equal("Alice", name)

	roles, err := directory.GetRoles(ctx, id)
	req.NoError(err)
	req.Equal([]string{"dispatcher"}, roles)

	// And an unknown id is an error
	_, err = directory.Get("ghost")
	req.Error(err)

	// And an id is mandatory
	req.Error(directory.Register(Participant{DisplayName: "Nobody"}))
}
