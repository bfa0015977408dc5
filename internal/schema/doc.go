// Package schema owns the Meals table contract: the integrity probe, the
// create+seed migration and the query projection.
package schema
