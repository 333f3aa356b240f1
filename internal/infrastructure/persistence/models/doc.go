// Package models contains GORM persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer free
// from ORM concerns.
//
// Structure:
//   - base.go: BaseModel and AggregateModel
//   - ledger.go: debtors, sales and sale items
//   - offline.go: version records kept per foreground client
package models
