// Package lifecycle owns persistent alert records. The Manager runs one
// evolution pass per scheduled run (detect results in, matched records
// blended, unmatched records decayed) and carries the admin override,
// export, and exclusivity annotation paths so that every write to the store
// goes through a single lock.
package lifecycle
