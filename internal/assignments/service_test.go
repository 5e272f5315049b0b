package assignments

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type memoryAssignmentRepo struct {
	byClient map[string]Assignment
	failFor  map[string]bool
	nextID   int64
}

func newMemoryAssignmentRepo() *memoryAssignmentRepo {
	return &memoryAssignmentRepo{
		byClient: make(map[string]Assignment),
		failFor:  make(map[string]bool),
	}
}

func (m *memoryAssignmentRepo) ReplaceAssignment(_ context.Context, a Assignment) (*Assignment, error) {
	if m.failFor[a.ClientDocument] {
		return nil, errors.New("replace failed")
	}
	m.nextID++
	a.ID = m.nextID
	m.byClient[a.ClientDocument] = a
	return &a, nil
}

func (m *memoryAssignmentRepo) ListByCollector(_ context.Context, collectorID int64) ([]Assignment, error) {
	var out []Assignment
	for _, a := range m.byClient {
		if a.CollectorID == collectorID {
			out = append(out, a)
		}
	}
	return out, nil
}

func newTestService(repo *memoryAssignmentRepo) *Service {
	svc := NewService(repo, slog.New(slog.DiscardHandler))
	svc.now = func() time.Time { return time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC) }
	return svc
}

func TestReassignClientsMovesWholeBatch(t *testing.T) {
	repo := newMemoryAssignmentRepo()
	svc := newTestService(repo)

	outcome, err := svc.ReassignClients(context.Background(), 2, []string{"111", "222", "333"})
	require.NoError(t, err)
	require.Len(t, outcome.Assigned, 3)
	require.Empty(t, outcome.Failed)
	require.Equal(t, "3 succeeded, 0 failed", outcome.Message)
	require.EqualValues(t, 2, repo.byClient["111"].CollectorID)
}

func TestReassignClientsMovesClientBetweenCollectors(t *testing.T) {
	repo := newMemoryAssignmentRepo()
	svc := newTestService(repo)

	_, err := svc.ReassignClients(context.Background(), 1, []string{"111"})
	require.NoError(t, err)
	_, err = svc.ReassignClients(context.Background(), 2, []string{"111"})
	require.NoError(t, err)

	old, err := svc.Portfolio(context.Background(), 1)
	require.NoError(t, err)
	require.Empty(t, old)

	current, err := svc.Portfolio(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, current, 1)
	require.Equal(t, "111", current[0].ClientDocument)
}

func TestReassignClientsCountsFailuresAndContinues(t *testing.T) {
	repo := newMemoryAssignmentRepo()
	repo.failFor["222"] = true
	svc := newTestService(repo)

	outcome, err := svc.ReassignClients(context.Background(), 2, []string{"111", "222", "333"})
	require.NoError(t, err)
	require.Len(t, outcome.Assigned, 2)
	require.Equal(t, []string{"222"}, outcome.Failed)
	require.Equal(t, "2 succeeded, 1 failed", outcome.Message)
}

func TestReassignClientsRejectsEmptyList(t *testing.T) {
	svc := newTestService(newMemoryAssignmentRepo())

	_, err := svc.ReassignClients(context.Background(), 2, nil)
	require.ErrorIs(t, err, ErrNoClients)
}
