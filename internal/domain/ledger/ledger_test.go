package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/target/jobdesk-api/internal/domain/model"
	apperrors "github.com/target/jobdesk-api/internal/errors"
	"github.com/target/jobdesk-api/internal/mocks"
)

const scope = model.ScopeKey("technician:1")

func newMockLedger(t *testing.T) (*Ledger, *mocks.MockJobRepository) {
	t.Helper()
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockJobRepository(ctrl)
	l, err := New(Options{Store: repo})
	require.NoError(t, err)
	return l, repo
}

func openJob(id int64, s model.ScopeKey, priority int) *model.Job {
	return &model.Job{ID: id, ScopeKey: s, Status: model.JobStatusPending, Priority: priority}
}

func TestNew_RequiresStore(t *testing.T) {
	_, err := New(Options{})
	assert.ErrorIs(t, err, ErrStoreRequired)
}

func TestNextTailPriority(t *testing.T) {
	tests := []struct {
		name  string
		stats model.ScopeStats
		want  int
	}{
		{name: "empty scope", stats: model.ScopeStats{Scope: scope}, want: 1},
		{name: "dense scope", stats: model.ScopeStats{Scope: scope, OpenCount: 3, MaxPriority: 3}, want: 4},
		{name: "gap left by a close", stats: model.ScopeStats{Scope: scope, OpenCount: 2, MaxPriority: 3}, want: 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, repo := newMockLedger(t)
			gomock.InOrder(
				repo.EXPECT().LockScopes(gomock.Any(), gomock.Any(), scope).Return(nil),
				repo.EXPECT().ScopeStats(gomock.Any(), gomock.Any(), scope).Return(tt.stats, nil),
			)

			got, err := l.NextTailPriority(context.Background(), nil, scope)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNextTailPriority_Errors(t *testing.T) {
	t.Run("empty scope", func(t *testing.T) {
		l, _ := newMockLedger(t)
		_, err := l.NextTailPriority(context.Background(), nil, "")
		assert.True(t, apperrors.IsValidation(err))
	})

	t.Run("lock failure stops before the read", func(t *testing.T) {
		l, repo := newMockLedger(t)
		boom := errors.New("lock timeout")
		repo.EXPECT().LockScopes(gomock.Any(), gomock.Any(), scope).Return(boom)

		_, err := l.NextTailPriority(context.Background(), nil, scope)
		assert.ErrorIs(t, err, boom)
	})
}

func TestAdmit(t *testing.T) {
	l, repo := newMockLedger(t)
	other := model.ScopeKey("technician:2")
	repo.EXPECT().LockScopes(gomock.Any(), gomock.Any(), other).Return(nil)
	repo.EXPECT().ScopeStats(gomock.Any(), gomock.Any(), other).
		Return(model.ScopeStats{Scope: other, OpenCount: 4, MaxPriority: 4}, nil)

	job := openJob(9, scope, 2)
	require.NoError(t, l.Admit(context.Background(), nil, job, other))
	assert.Equal(t, other, job.ScopeKey)
	assert.Equal(t, 5, job.Priority)
}

func TestRelease_LocksCurrentScopeAndKeepsRank(t *testing.T) {
	l, repo := newMockLedger(t)
	repo.EXPECT().LockScopes(gomock.Any(), gomock.Any(), scope).Return(nil)

	job := openJob(9, scope, 2)
	require.NoError(t, l.Release(context.Background(), nil, job))
	assert.Equal(t, 2, job.Priority)
	assert.Equal(t, scope, job.ScopeKey)
}

func TestSwapPriorities_WritesThroughParkedRank(t *testing.T) {
	l, repo := newMockLedger(t)
	a := openJob(10, scope, 2)
	b := openJob(20, scope, 1)

	gomock.InOrder(
		repo.EXPECT().SetPriority(gomock.Any(), gomock.Any(), int64(10), -10).Return(nil),
		repo.EXPECT().SetPriority(gomock.Any(), gomock.Any(), int64(20), 2).Return(nil),
		repo.EXPECT().SetPriority(gomock.Any(), gomock.Any(), int64(10), 1).Return(nil),
	)

	require.NoError(t, l.SwapPriorities(context.Background(), nil, a, b))
	assert.Equal(t, 1, a.Priority)
	assert.Equal(t, 2, b.Priority)
}

func TestSwapPriorities_Rejects(t *testing.T) {
	closed := openJob(30, scope, 3)
	closed.Status = model.JobStatusCompleted

	tests := []struct {
		name  string
		a, b  *model.Job
		check func(error) bool
	}{
		{name: "different scopes", a: openJob(10, scope, 1), b: openJob(20, "technician:2", 1), check: apperrors.IsScopeMismatch},
		{name: "closed job", a: openJob(10, scope, 1), b: closed, check: apperrors.IsValidation},
		{name: "missing job", a: openJob(10, scope, 1), b: nil, check: apperrors.IsValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, _ := newMockLedger(t) // any store call fails the test
			err := l.SwapPriorities(context.Background(), nil, tt.a, tt.b)
			require.Error(t, err)
			assert.True(t, tt.check(err), "unexpected error kind: %v", err)
		})
	}
}

func TestSwapPriorities_SameJobIsNoop(t *testing.T) {
	l, _ := newMockLedger(t)
	a := openJob(10, scope, 2)
	require.NoError(t, l.SwapPriorities(context.Background(), nil, a, a))
	assert.Equal(t, 2, a.Priority)
}

func TestCompact_MovesOnlyChangedJobs(t *testing.T) {
	l, repo := newMockLedger(t)
	drifted := []model.JobRank{
		{ID: 1, Priority: 1},
		{ID: 4, Priority: 3},
		{ID: 7, Priority: 3},
		{ID: 2, Priority: 9},
	}

	gomock.InOrder(
		repo.EXPECT().OpenRanks(gomock.Any(), gomock.Any(), scope, true).Return(drifted, nil),
		repo.EXPECT().LockScopes(gomock.Any(), gomock.Any(), scope).Return(nil),
		repo.EXPECT().OpenRanks(gomock.Any(), gomock.Any(), scope, true).Return(drifted, nil),
		// Jobs 1 and 7 already sit at their target ranks and are left alone.
		repo.EXPECT().SetPriority(gomock.Any(), gomock.Any(), int64(4), -4).Return(nil),
		repo.EXPECT().SetPriority(gomock.Any(), gomock.Any(), int64(2), -2).Return(nil),
		repo.EXPECT().SetPriority(gomock.Any(), gomock.Any(), int64(4), 2).Return(nil),
		repo.EXPECT().SetPriority(gomock.Any(), gomock.Any(), int64(2), 4).Return(nil),
	)

	res, err := l.Compact(context.Background(), nil, scope)
	require.NoError(t, err)
	assert.Equal(t, model.CompactResult{Scope: scope, Open: 4, Changed: 2}, res)
}

func TestCompact_DenseScopeIsNoop(t *testing.T) {
	l, repo := newMockLedger(t)
	dense := []model.JobRank{{ID: 3, Priority: 1}, {ID: 1, Priority: 2}}
	repo.EXPECT().OpenRanks(gomock.Any(), gomock.Any(), scope, true).Return(dense, nil).Times(2)
	repo.EXPECT().LockScopes(gomock.Any(), gomock.Any(), scope).Return(nil)

	res, err := l.Compact(context.Background(), nil, scope)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Changed)
	assert.Equal(t, 2, res.Open)
}

func TestVerify(t *testing.T) {
	l, repo := newMockLedger(t)
	repo.EXPECT().OpenRanks(gomock.Any(), gomock.Any(), scope, false).
		Return([]model.JobRank{{ID: 1, Priority: 1}, {ID: 2, Priority: 1}, {ID: 3, Priority: 4}}, nil)

	h, err := l.Verify(context.Background(), nil, scope)
	require.NoError(t, err)
	assert.False(t, h.Consistent)
	assert.Equal(t, []int{1}, h.Duplicates)
	assert.Equal(t, []int{2, 3}, h.Gaps)
	assert.Equal(t, []int{4}, h.OutOfRange)
}
