// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer pure and free
// from ORM concerns.
//
// Key Principles:
// 1. Domain entities should be free of GORM tags and infrastructure concerns
// 2. Persistence models contain all GORM annotations and table mappings
// 3. Mappers convert between domain entities and persistence models
// 4. Repositories use persistence models for database operations
//
// Structure:
// - base.go: Base persistence models (BaseModel, AggregateModel)
// - deal.go: Deal projection used by receipt and refund workflows
// - finance.go: Ledger entries, financial cards, credits, accounting entries
// - receipt.go / receipt_log.go: Fiscal document attempts and their logs
// - refund.go: Refund card workflow state
// - job.go: Deferred job queue
// - outbox.go: Outbox pattern model for loyalty intent delivery
// - rates: deal conversion rates live in deal.go alongside the projection
package models
