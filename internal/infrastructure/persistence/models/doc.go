// Package models contains the GORM persistence models for the ledger tables.
// Domain types carry no ORM tags; each model converts with FromDomain and
// ToDomain, and ToDomain re-validates invariants that must hold for rows read
// back from the store.
package models
