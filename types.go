package deploc

import (
	"github.com/jward/deploc/internal/deptree"
	"github.com/jward/deploc/internal/linecount"
	"github.com/jward/deploc/internal/report"
	"github.com/jward/deploc/internal/store"
)

// Public aliases for internal types used in the Engine API.

type Node = deptree.Node
type Aggregate = deptree.Aggregate
type LanguageTotals = deptree.LanguageTotals
type FileCounts = deptree.FileCounts
type Report = report.Report
type Counter = linecount.Counter
type Scan = store.Scan
type Package = store.Package
