// Package urlgen derives the ordered list of page URLs visited in pagination
// mode from a base URL and an inclusive numeric ID range.
package urlgen
