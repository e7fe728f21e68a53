// Package pdfreport renders purchase records as a paginated PDF report and
// stamps a logo onto every page of an existing PDF.
//
// # Quick Start
//
// Create an assembler, generate the report, and close when done:
//
//	a, err := pdfreport.NewAssembler()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer a.Close()
//
//	doc, err := a.Generate(ctx, records, "reports/purchases.pdf")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(doc.PageCount(), "pages")
//
// Records must be sorted newest first; internal/source loads them sorted
// from CSV, JSON or MongoDB.
//
// # Report Pipeline
//
// Generation follows these stages:
//
//  1. Layout: ComputeLayout derives rows per page from the geometry
//  2. Tables: BuildTable styles one page chunk (header, zebra rows)
//  3. Composition: Composer places the table, title and date stamp
//  4. Rendering: fpdf (default, pure Go) or headless Chrome (go-rod)
//
// Every page is drawn on a unit square mapped onto an A4 landscape page.
// The table hangs from the title margin, so tables line up across pages.
//
// # Configuration
//
// Use functional options to customize the assembler:
//
//	a, err := pdfreport.NewAssembler(
//	    pdfreport.WithTitle("Monthly purchases"),
//	    pdfreport.WithCurrency("EUR"),
//	    pdfreport.WithDateFormat("auto:[As of ]DD/MM/YYYY"),
//	    pdfreport.WithRendererName(pdfreport.RendererChrome),
//	)
//
// A Document is written once, with Render or WriteFile. WriteFile replaces
// the destination atomically.
//
// # Stamping
//
// Stamper imports each page of a finished PDF and draws a logo on top:
//
//	asset, err := pdfreport.LoadOverlayAsset("logo/company_logo.png",
//	    pdfreport.DefaultOverlayPlacement, pdfreport.White)
//	res, err := pdfreport.NewStamper().Stamp(ctx, "report.pdf", "stamped.pdf", asset)
//
// A missing logo file yields a nil asset, and Stamp then copies the source
// unchanged.
//
// # Browser Requirements
//
// Only the chrome renderer needs Chrome/Chromium. The go-rod library
// downloads a managed Chromium instance on first run (~/.cache/rod/browser/).
// Use ROD_BROWSER_BIN to specify a custom Chrome binary.
package pdfreport
