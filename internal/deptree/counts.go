package deptree

// FileCount is the line count the external counter reports for one file.
type FileCount struct {
	Language string `json:"language"`
	Blank    int    `json:"blank"`
	Comment  int    `json:"comment"`
	Code     int    `json:"code"`
}

// FileCounts maps a file path to its counts.
type FileCounts map[string]FileCount

// Aggregate sums the counts of a set of files.
type Aggregate struct {
	Blank    int `json:"blank"`
	Comment  int `json:"comment"`
	Code     int `json:"code"`
	NumFiles int `json:"numFiles"`
}

// Add folds o into a.
func (a *Aggregate) Add(o Aggregate) {
	a.Blank += o.Blank
	a.Comment += o.Comment
	a.Code += o.Code
	a.NumFiles += o.NumFiles
}

// LanguageTotals maps a language name to the aggregate of its files.
type LanguageTotals map[string]Aggregate

// Merge folds other into t.
func (t LanguageTotals) Merge(other LanguageTotals) {
	for lang, agg := range other {
		acc := t[lang]
		acc.Add(agg)
		t[lang] = acc
	}
}

// FoldLanguages groups per-file counts by language. Files without a
// language are skipped.
func FoldLanguages(counts FileCounts) LanguageTotals {
	totals := make(LanguageTotals)
	for _, fc := range counts {
		if fc.Language == "" {
			continue
		}
		acc := totals[fc.Language]
		acc.Blank += fc.Blank
		acc.Comment += fc.Comment
		acc.Code += fc.Code
		acc.NumFiles++
		totals[fc.Language] = acc
	}
	return totals
}
