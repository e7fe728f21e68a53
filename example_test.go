package pdfreport_test

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/alnah/go-pdfreport"
)

// Example renders a two-record report in memory with the fpdf renderer.
func Example() {
	a, err := pdfreport.NewAssembler(
		pdfreport.WithClock(func() time.Time { return time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC) }),
	)
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	defer a.Close()

	records := []pdfreport.PurchaseRecord{
		{ProductName: "Coffee", PurchasedAt: time.Date(2024, 3, 14, 10, 0, 0, 0, time.UTC), Price: decimal.RequireFromString("45.00")},
		{ProductName: "Tea", PurchasedAt: time.Date(2024, 3, 13, 9, 0, 0, 0, time.UTC), Price: decimal.RequireFromString("32.50")},
	}

	doc, err := a.Assemble(records)
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	var buf bytes.Buffer
	if err := doc.Render(context.Background(), &buf); err != nil {
		fmt.Println("error:", err)
		return
	}

	fmt.Println(doc.PageCount(), doc.ReportDate, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))
	// Output: 1 Report date: 2024-03-15 true
}

// ExampleComputeLayout shows the pagination of 33 records.
func ExampleComputeLayout() {
	layout, err := pdfreport.ComputeLayout(33, pdfreport.DefaultGeometry())
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Println(layout.RowsPerPage, layout.PageCount)
	// Output: 16 3
}

// ExampleBuildTable shows the price column formatting.
func ExampleBuildTable() {
	records := []pdfreport.PurchaseRecord{
		{ProductName: "Scone", PurchasedAt: time.Date(2024, 1, 2, 8, 15, 0, 0, time.UTC), Price: decimal.NewFromInt(12)},
	}
	table, err := pdfreport.BuildTable(records, pdfreport.DefaultColumns("DKK"))
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Println(table.Headers[2], table.Rows[0][2], table.Style(pdfreport.Cell{Row: 1, Col: 2}).Align)
	// Output: Price in DKK 12.00 right
}
