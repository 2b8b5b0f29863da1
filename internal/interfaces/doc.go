// Package interfaces documents the core abstractions used throughout the application.
//
// This package consolidates interface documentation and compile-time
// implementation checks.
//
// # Interface Categories
//
// The application uses several categories of interfaces:
//
// ## Data Access Interfaces
//
//   - BookStore: Catalog access (internal/http/books.go, internal/reader/session.go,
//     internal/importer/importer.go, internal/tasks/scan_book.go)
//   - CollectionStore: Collection memberships (internal/http/collections.go)
//   - PositionStore / PositionGetter: Reading positions (internal/reader/session.go,
//     internal/http/books.go)
//
// ## Content Interfaces
//
//   - content.Handle: One open book file, format-agnostic (internal/content/content.go)
//   - Opener: Opens book files at a fixed viewport (implemented by content.Opener)
//
// ## Background Work Interfaces
//
//   - ScanEnqueuer / Enqueuer / RescanEnqueuer: Queueing scan tasks
//     (implemented by tasks.Client)
//
// Each consumer declares the narrow interface it needs; the repositories and
// services implement them implicitly. The checks in checks.go keep the two
// sides from drifting apart.
package interfaces
