// Package mocks provides mock implementations for testing the jobdesk service.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for the core ports.
// The mocks are generated using go:generate directives and provide a fluent API for setting up test expectations.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	mockRepo := mocks.NewMockJobRepository(ctrl)
//	mockRepo.EXPECT().GetByID(gomock.Any(), int64(7)).Return(job, nil)
package mocks

// Generate mock for JobRepository interface from internal/core package.
// This creates MockJobRepository with methods for all JobRepository interface methods:
// Insert, LockByIDs, Update, SetPriority, LockScopes, ScopeStats, OpenRanks, GetByID, List, ListScopes
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=job_repository_mock.go github.com/target/jobdesk-api/internal/core JobRepository

// Generate mock for Transactor interface from internal/core package.
// This creates MockTransactor with methods for all Transactor interface methods:
// WithTx
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=transactor_mock.go github.com/target/jobdesk-api/internal/core Transactor

// Generate mock for LookupRepository interface from internal/core package.
// This creates MockLookupRepository with methods for all LookupRepository interface methods:
// ListValues, ListClients
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=lookup_repository_mock.go github.com/target/jobdesk-api/internal/core LookupRepository

// Generate mock for CacheRepository interface from internal/core package.
// This creates MockCacheRepository with methods for all CacheRepository interface methods:
// Set, Get, Delete
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=cache_repository_mock.go github.com/target/jobdesk-api/internal/core CacheRepository
