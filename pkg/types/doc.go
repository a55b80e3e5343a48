// Package types defines the RecordStore interface, the PartEntry entity,
// entry policies, configuration, and the standard errors shared by every
// stockparts backend.
package types
