// Package alert defines the alert domain model for Stormwatch: candidates
// produced by detection, persistent records with workflow state, the Store
// interface (persistence), candidate-to-record matching, and read-only
// summary projections.
package alert
