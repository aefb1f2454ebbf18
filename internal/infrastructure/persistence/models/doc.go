// Package models contains the GORM persistence models of the production
// engine. Domain types carry no ORM tags; each model maps one table and
// converts to and from its domain type with ToDomain / FromDomain.
//
// Durations are stored as integer milliseconds.
package models
