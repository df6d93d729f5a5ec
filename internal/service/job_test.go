package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/target/jobdesk-api/internal/core"
	"github.com/target/jobdesk-api/internal/data"
	"github.com/target/jobdesk-api/internal/domain/model"
	apperrors "github.com/target/jobdesk-api/internal/errors"
	"github.com/target/jobdesk-api/internal/mocks"
	"github.com/target/jobdesk-api/internal/observability/statsd"
	"github.com/target/jobdesk-api/internal/testutil"
)

// expectTx makes the transactor run the unit of work once with a nil Tx.
func expectTx(tx *mocks.MockTransactor) *gomock.Call {
	return tx.EXPECT().WithTx(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, fn core.TxFunc) error {
			return fn(ctx, nil)
		})
}

type jobServiceMocks struct {
	tx      *mocks.MockTransactor
	repo    *mocks.MockJobRepository
	metrics *statsd.Recorder
}

func newTestJobService(t *testing.T, policy model.ScopePolicy) (*JobService, jobServiceMocks) {
	t.Helper()
	ctrl := gomock.NewController(t)
	m := jobServiceMocks{
		tx:      mocks.NewMockTransactor(ctrl),
		repo:    mocks.NewMockJobRepository(ctrl),
		metrics: &statsd.Recorder{},
	}
	svc := MustNewJobService(JobServiceOptions{
		Tx:      m.tx,
		Repo:    m.repo,
		ScopeBy: policy,
		Metrics: m.metrics,
		Clock:   testutil.TestTime,
	})
	return svc, m
}

func TestNewJobService_Validation(t *testing.T) {
	ctrl := gomock.NewController(t)

	_, err := NewJobService(JobServiceOptions{Repo: mocks.NewMockJobRepository(ctrl)})
	require.Error(t, err)

	_, err = NewJobService(JobServiceOptions{Tx: mocks.NewMockTransactor(ctrl)})
	require.Error(t, err)

	_, err = NewJobService(JobServiceOptions{
		Tx:      mocks.NewMockTransactor(ctrl),
		Repo:    mocks.NewMockJobRepository(ctrl),
		ScopeBy: "region",
	})
	require.Error(t, err)

	svc, err := NewJobService(JobServiceOptions{
		Tx:   mocks.NewMockTransactor(ctrl),
		Repo: mocks.NewMockJobRepository(ctrl),
	})
	require.NoError(t, err)
	assert.Equal(t, model.ScopeByTechnician, svc.ScopePolicy())

	assert.Panics(t, func() { MustNewJobService(JobServiceOptions{}) })
}

func TestJobService_CreateJob(t *testing.T) {
	t.Run("appends to the tail of the technician scope", func(t *testing.T) {
		svc, m := newTestJobService(t, model.ScopeByTechnician)
		scope := model.ScopeKey("technician:7")

		expectTx(m.tx)
		m.repo.EXPECT().LockScopes(gomock.Any(), gomock.Any(), scope).Return(nil)
		m.repo.EXPECT().ScopeStats(gomock.Any(), gomock.Any(), scope).
			Return(model.ScopeStats{Scope: scope, OpenCount: 2, MaxPriority: 2}, nil)
		m.repo.EXPECT().Insert(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, _ core.Tx, job *model.Job) (int64, error) {
				assert.Equal(t, scope, job.ScopeKey)
				assert.Equal(t, 3, job.Priority)
				assert.Equal(t, model.JobStatusPending, job.Status)
				assert.Equal(t, "Acme", job.Brand)
				return 42, nil
			})

		id, err := svc.CreateJob(context.Background(), testutil.NewJobRequest().WithOwner(7).Build())
		require.NoError(t, err)
		assert.Equal(t, int64(42), id)

		ops := m.metrics.Named("job.operation")
		require.Len(t, ops, 1)
		assert.Equal(t, "create", ops[0].Tags["op"])
		assert.Equal(t, "success", ops[0].Tags["result"])
	})

	t.Run("rejects invalid requests before touching the store", func(t *testing.T) {
		svc, _ := newTestJobService(t, model.ScopeByTechnician)

		_, err := svc.CreateJob(context.Background(), testutil.NewJobRequest().WithOwner(0).Build())
		require.Error(t, err)
		assert.True(t, apperrors.IsValidation(err))

		_, err = svc.CreateJob(context.Background(),
			testutil.NewJobRequest().WithStatus(model.JobStatusCompleted).Build())
		require.Error(t, err)
		assert.True(t, apperrors.IsValidation(err))

		_, err = svc.CreateJob(context.Background(), nil)
		assert.True(t, apperrors.IsValidation(err))
	})

	t.Run("store failure leaves nothing behind", func(t *testing.T) {
		svc, m := newTestJobService(t, model.ScopeByTechnician)

		expectTx(m.tx)
		m.repo.EXPECT().LockScopes(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
		m.repo.EXPECT().ScopeStats(gomock.Any(), gomock.Any(), gomock.Any()).Return(model.ScopeStats{}, nil)
		m.repo.EXPECT().Insert(gomock.Any(), gomock.Any(), gomock.Any()).Return(int64(0), errors.New("boom"))

		id, err := svc.CreateJob(context.Background(), testutil.NewJobRequest().Build())
		require.Error(t, err)
		assert.Zero(t, id)
		assert.True(t, apperrors.IsStoreFailure(err))

		ops := m.metrics.Named("job.operation")
		require.Len(t, ops, 1)
		assert.Equal(t, "error", ops[0].Tags["result"])
	})

	t.Run("status policy keys by initial status", func(t *testing.T) {
		svc, m := newTestJobService(t, model.ScopeByStatus)
		scope := model.ScopeKey("status:on_hold")

		expectTx(m.tx)
		m.repo.EXPECT().LockScopes(gomock.Any(), gomock.Any(), scope).Return(nil)
		m.repo.EXPECT().ScopeStats(gomock.Any(), gomock.Any(), scope).Return(model.ScopeStats{Scope: scope}, nil)
		m.repo.EXPECT().Insert(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, _ core.Tx, job *model.Job) (int64, error) {
				assert.Equal(t, scope, job.ScopeKey)
				assert.Equal(t, 1, job.Priority)
				return 1, nil
			})

		_, err := svc.CreateJob(context.Background(),
			testutil.NewJobRequest().WithStatus(model.JobStatusOnHold).Build())
		require.NoError(t, err)
	})
}

func openJob(id int64, scope model.ScopeKey, owner int64, priority int) *model.Job {
	j := testutil.NewOpenJob(scope, owner, priority)
	j.ID = id
	return j
}

func TestJobService_EditJobInfo(t *testing.T) {
	ctx := context.Background()

	t.Run("descriptive change keeps the rank", func(t *testing.T) {
		svc, m := newTestJobService(t, model.ScopeByTechnician)
		job := openJob(5, "technician:1", 1, 2)

		expectTx(m.tx)
		m.repo.EXPECT().LockByIDs(gomock.Any(), gomock.Any(), int64(5)).Return([]*model.Job{job}, nil)
		m.repo.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, _ core.Tx, j *model.Job) error {
				assert.Equal(t, "new description", j.Description)
				assert.Equal(t, 2, j.Priority)
				assert.Equal(t, model.ScopeKey("technician:1"), j.ScopeKey)
				return nil
			})

		err := svc.EditJobInfo(ctx, &model.EditJobRequest{ID: 5, Description: testutil.StringPtr("  new description ")})
		require.NoError(t, err)
	})

	t.Run("closing freezes the rank", func(t *testing.T) {
		svc, m := newTestJobService(t, model.ScopeByTechnician)
		job := openJob(5, "technician:1", 1, 2)
		closed := model.JobStatusCompleted

		expectTx(m.tx)
		m.repo.EXPECT().LockByIDs(gomock.Any(), gomock.Any(), int64(5)).Return([]*model.Job{job}, nil)
		m.repo.EXPECT().LockScopes(gomock.Any(), gomock.Any(), model.ScopeKey("technician:1")).Return(nil)
		m.repo.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, _ core.Tx, j *model.Job) error {
				assert.Equal(t, model.JobStatusCompleted, j.Status)
				assert.Equal(t, 2, j.Priority)
				assert.Equal(t, model.ScopeKey("technician:1"), j.ScopeKey)
				require.NotNil(t, j.ClosedAt)
				assert.True(t, j.ClosedAt.Equal(testutil.TestTime()))
				return nil
			})

		require.NoError(t, svc.EditJobInfo(ctx, &model.EditJobRequest{ID: 5, Status: &closed}))
	})

	t.Run("owner change moves the job to the tail of the new scope", func(t *testing.T) {
		svc, m := newTestJobService(t, model.ScopeByTechnician)
		job := openJob(5, "technician:1", 1, 3)
		from, to := model.ScopeKey("technician:1"), model.ScopeKey("technician:2")

		expectTx(m.tx)
		m.repo.EXPECT().LockByIDs(gomock.Any(), gomock.Any(), int64(5)).Return([]*model.Job{job}, nil)
		m.repo.EXPECT().LockScopes(gomock.Any(), gomock.Any(), from, to).Return(nil)
		m.repo.EXPECT().LockScopes(gomock.Any(), gomock.Any(), from).Return(nil)
		m.repo.EXPECT().LockScopes(gomock.Any(), gomock.Any(), to).Return(nil)
		m.repo.EXPECT().ScopeStats(gomock.Any(), gomock.Any(), to).
			Return(model.ScopeStats{Scope: to, OpenCount: 1, MaxPriority: 1}, nil)
		m.repo.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, _ core.Tx, j *model.Job) error {
				assert.Equal(t, to, j.ScopeKey)
				assert.Equal(t, 2, j.Priority)
				assert.Equal(t, int64(2), j.OwnerID)
				return nil
			})

		require.NoError(t, svc.EditJobInfo(ctx, &model.EditJobRequest{ID: 5, OwnerID: testutil.Int64Ptr(2)}))
	})

	t.Run("status change moves scopes under the status policy", func(t *testing.T) {
		svc, m := newTestJobService(t, model.ScopeByStatus)
		job := openJob(9, "status:pending", 1, 1)
		next := model.JobStatusInProgress
		to := model.ScopeKey("status:in_progress")

		expectTx(m.tx)
		m.repo.EXPECT().LockByIDs(gomock.Any(), gomock.Any(), int64(9)).Return([]*model.Job{job}, nil)
		m.repo.EXPECT().LockScopes(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).Times(3)
		m.repo.EXPECT().ScopeStats(gomock.Any(), gomock.Any(), to).Return(model.ScopeStats{Scope: to}, nil)
		m.repo.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, _ core.Tx, j *model.Job) error {
				assert.Equal(t, to, j.ScopeKey)
				assert.Equal(t, 1, j.Priority)
				return nil
			})

		require.NoError(t, svc.EditJobInfo(ctx, &model.EditJobRequest{ID: 9, Status: &next}))
	})

	t.Run("reopening through an edit admits at the tail", func(t *testing.T) {
		svc, m := newTestJobService(t, model.ScopeByTechnician)
		job := openJob(5, "technician:1", 1, 2)
		job.Status = model.JobStatusCancelled
		job.ClosedAt = testutil.TimePtr(testutil.TestTime().Add(-time.Hour))
		pending := model.JobStatusPending

		expectTx(m.tx)
		m.repo.EXPECT().LockByIDs(gomock.Any(), gomock.Any(), int64(5)).Return([]*model.Job{job}, nil)
		m.repo.EXPECT().LockScopes(gomock.Any(), gomock.Any(), model.ScopeKey("technician:1")).Return(nil)
		m.repo.EXPECT().ScopeStats(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(model.ScopeStats{OpenCount: 4, MaxPriority: 4}, nil)
		m.repo.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, _ core.Tx, j *model.Job) error {
				assert.Equal(t, 5, j.Priority)
				assert.Nil(t, j.ClosedAt)
				return nil
			})

		require.NoError(t, svc.EditJobInfo(ctx, &model.EditJobRequest{ID: 5, Status: &pending}))
	})

	t.Run("missing job", func(t *testing.T) {
		svc, m := newTestJobService(t, model.ScopeByTechnician)

		expectTx(m.tx)
		m.repo.EXPECT().LockByIDs(gomock.Any(), gomock.Any(), int64(404)).Return(nil, nil)

		err := svc.EditJobInfo(ctx, &model.EditJobRequest{ID: 404, Brand: testutil.StringPtr("x")})
		require.Error(t, err)
		assert.True(t, apperrors.IsNotFound(err))
	})

	t.Run("invalid request", func(t *testing.T) {
		svc, _ := newTestJobService(t, model.ScopeByTechnician)
		err := svc.EditJobInfo(ctx, &model.EditJobRequest{ID: 0})
		assert.True(t, apperrors.IsValidation(err))
	})
}

func TestJobService_ReopenJob(t *testing.T) {
	ctx := context.Background()

	t.Run("closed job goes to the new tail", func(t *testing.T) {
		svc, m := newTestJobService(t, model.ScopeByTechnician)
		job := openJob(3, "technician:1", 1, 1)
		job.Status = model.JobStatusCompleted
		job.ClosedAt = testutil.TimePtr(testutil.TestTime())

		expectTx(m.tx)
		m.repo.EXPECT().LockByIDs(gomock.Any(), gomock.Any(), int64(3)).Return([]*model.Job{job}, nil)
		m.repo.EXPECT().LockScopes(gomock.Any(), gomock.Any(), model.ScopeKey("technician:1")).Return(nil)
		m.repo.EXPECT().ScopeStats(gomock.Any(), gomock.Any(), model.ScopeKey("technician:1")).
			Return(model.ScopeStats{OpenCount: 5, MaxPriority: 5}, nil)
		m.repo.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, _ core.Tx, j *model.Job) error {
				assert.Equal(t, model.JobStatusReopened, j.Status)
				assert.Equal(t, 6, j.Priority)
				assert.Nil(t, j.ClosedAt)
				return nil
			})

		require.NoError(t, svc.ReopenJob(ctx, 3))
	})

	t.Run("open job is rejected", func(t *testing.T) {
		svc, m := newTestJobService(t, model.ScopeByTechnician)

		expectTx(m.tx)
		m.repo.EXPECT().LockByIDs(gomock.Any(), gomock.Any(), int64(3)).
			Return([]*model.Job{openJob(3, "technician:1", 1, 2)}, nil)

		err := svc.ReopenJob(ctx, 3)
		require.Error(t, err)
		assert.True(t, apperrors.IsAlreadyOpen(err))
	})

	t.Run("missing job", func(t *testing.T) {
		svc, m := newTestJobService(t, model.ScopeByTechnician)

		expectTx(m.tx)
		m.repo.EXPECT().LockByIDs(gomock.Any(), gomock.Any(), int64(8)).Return([]*model.Job{}, nil)

		assert.True(t, apperrors.IsNotFound(svc.ReopenJob(ctx, 8)))
	})

	t.Run("invalid id", func(t *testing.T) {
		svc, _ := newTestJobService(t, model.ScopeByTechnician)
		assert.True(t, apperrors.IsValidation(svc.ReopenJob(ctx, 0)))
	})
}

func TestJobService_GetListJobs(t *testing.T) {
	ctx := context.Background()

	t.Run("owner selector", func(t *testing.T) {
		svc, m := newTestJobService(t, model.ScopeByTechnician)
		m.repo.EXPECT().List(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, opts model.JobListOptions) ([]model.Job, error) {
				require.NotNil(t, opts.OwnerID)
				assert.Equal(t, int64(7), *opts.OwnerID)
				return []model.Job{*openJob(1, "technician:7", 7, 1)}, nil
			})

		list := svc.GetListJobs(ctx, model.JobListSelector{Type: "me", Identifier: "7"})
		require.Len(t, list.Jobs, 1)
		assert.Equal(t, int64(1), list.Jobs[0].ID)
	})

	t.Run("store failure degrades to an empty list", func(t *testing.T) {
		svc, m := newTestJobService(t, model.ScopeByTechnician)
		m.repo.EXPECT().List(gomock.Any(), gomock.Any()).Return(nil, errors.New("connection reset"))

		list := svc.GetListJobs(ctx, model.JobListSelector{Type: model.JobSelectorAll})
		raw, err := json.Marshal(list)
		require.NoError(t, err)
		assert.JSONEq(t, `{"jobs":[]}`, string(raw))
	})

	t.Run("unknown selector never reaches the store", func(t *testing.T) {
		svc, _ := newTestJobService(t, model.ScopeByTechnician)
		list := svc.GetListJobs(ctx, model.JobListSelector{Type: "REGION", Identifier: "north"})
		assert.Empty(t, list.Jobs)
		assert.NotNil(t, list.Jobs)
	})
}

func TestJobService_GetJob(t *testing.T) {
	ctx := context.Background()
	svc, m := newTestJobService(t, model.ScopeByTechnician)

	m.repo.EXPECT().GetByID(gomock.Any(), int64(1)).Return(openJob(1, "technician:1", 1, 1), nil)
	m.repo.EXPECT().GetByID(gomock.Any(), int64(2)).Return(nil, data.ErrJobNotFound)

	job, err := svc.GetJob(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), job.ID)

	_, err = svc.GetJob(ctx, 2)
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
	assert.ErrorIs(t, err, data.ErrJobNotFound)
}
