// Package gae implements the user and session stores on Google Cloud
// Datastore, for App Engine deployments that have no relational database.
//
// Datastore has no unique constraints, so the email upsert here is a
// query-then-put like the original select-then-insert; the relational
// backend is the one that enforces the one-row-per-email invariant
// atomically. Prefer stores/gorm where concurrency matters.
package gae
