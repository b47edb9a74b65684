package store

import (
	"time"

	"github.com/jward/deploc/internal/deptree"
)

// Scan is one finished run.
type Scan struct {
	ID           int64
	Root         string
	Counter      string
	StartedAt    time.Time
	Duration     time.Duration
	Application  deptree.Aggregate
	Dependencies deptree.Aggregate

	// Packages is the number of stored packages; filled on read.
	Packages int
}

// Package is one node of a stored tree. Totals sums the node's own files
// across all languages.
type Package struct {
	ID       int64
	ScanID   int64
	ParentID *int64
	Name     string
	Version  string
	Path     string
	RealPath string
	Depth    int
	Totals   deptree.Aggregate
}
