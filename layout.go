package pdfreport

import "fmt"

// Layout is the pagination of a record set.
type Layout struct {
	RowsPerPage int
	PageCount   int
	Records     int
}

// ComputeLayout returns how many records fit on a page and how many pages
// recordCount records need. One row of the available height is held back
// as slack so the last row never touches the bottom margin. The quotient
// is truncated as computed, so a ratio that lands just under a whole
// number loses that row. Zero records yield zero pages and no error.
func ComputeLayout(recordCount int, g Geometry) (Layout, error) {
	if err := g.Validate(); err != nil {
		return Layout{}, err
	}
	if recordCount < 0 {
		return Layout{}, fmt.Errorf("%w: %d", ErrInvalidRecordCount, recordCount)
	}

	available := 1 - g.TitleMargin - g.BottomMargin
	rows := int(available/g.RowHeight) - 1
	if rows < 1 {
		return Layout{}, fmt.Errorf("%w: available height %.4f holds no rows of height %.4f",
			ErrInvalidGeometry, available, g.RowHeight)
	}

	pages := 0
	if recordCount > 0 {
		pages = (recordCount + rows - 1) / rows
	}

	return Layout{RowsPerPage: rows, PageCount: pages, Records: recordCount}, nil
}

// Bounds returns the half-open record range [start, end) of page i.
func (l Layout) Bounds(i int) (start, end int) {
	if i < 0 || i >= l.PageCount {
		return 0, 0
	}
	start = i * l.RowsPerPage
	end = min(start+l.RowsPerPage, l.Records)
	return start, end
}

// Chunks splits records into consecutive page chunks. The chunks share the
// backing array of records.
func (l Layout) Chunks(records []PurchaseRecord) [][]PurchaseRecord {
	chunks := make([][]PurchaseRecord, 0, l.PageCount)
	for i := range l.PageCount {
		start, end := l.Bounds(i)
		chunks = append(chunks, records[start:end:end])
	}
	return chunks
}
