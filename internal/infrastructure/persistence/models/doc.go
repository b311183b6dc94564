// Package models holds the GORM persistence models for the billing
// aggregates. Domain types carry no persistence tags; every model converts
// to and from its domain counterpart with ToDomain and FromDomain.
package models
