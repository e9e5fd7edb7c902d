// Package domain contains the core entities of the application: users, todos,
// and the notification ledger. Entities validate themselves and carry no
// persistence or transport concerns.
package domain
