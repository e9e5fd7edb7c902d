// Package store defines the persistence interfaces and shared errors used by
// the service layer. Concrete implementations live under platform/postgres.
package store
