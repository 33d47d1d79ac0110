// Package mocks provides mock implementations for testing the ticketgen job system.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for our core interfaces.
// The mocks are generated using go:generate directives and provide a fluent API for setting up test expectations.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	defer ctrl.Finish()
//	mockJobs := mocks.NewMockJobStore(ctrl)
//	mockJobs.EXPECT().Create(gomock.Any(), gomock.Any()).Return(job, nil)
package mocks

// Generate mock for JobStore interface from internal/core package.
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=job_store_mock.go github.com/raffleworks/ticketgen/internal/core JobStore

// Generate mock for BreakerStore interface from internal/core package.
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=breaker_store_mock.go github.com/raffleworks/ticketgen/internal/core BreakerStore

// Generate mock for TicketWriter interface from internal/core package.
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=ticket_writer_mock.go github.com/raffleworks/ticketgen/internal/core TicketWriter

// Generate mock for CompletionNotifier interface from internal/core package.
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=completion_notifier_mock.go github.com/raffleworks/ticketgen/internal/core CompletionNotifier

// Generate mock for WorkerInvoker interface from internal/core package.
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=worker_invoker_mock.go github.com/raffleworks/ticketgen/internal/core WorkerInvoker

// Generate mock for CleanupStore interface from internal/core package.
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=cleanup_store_mock.go github.com/raffleworks/ticketgen/internal/core CleanupStore
