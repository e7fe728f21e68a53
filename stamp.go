package pdfreport

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"os"
	"strconv"

	"codeberg.org/go-pdf/fpdf"
	"github.com/tsawler/tabula/core"
	"github.com/tsawler/tabula/reader"
	"go.uber.org/zap"

	"github.com/alnah/go-pdfreport/internal/fileutil"
)

const (
	// overlayImageName registers the logo in the overlay document.
	overlayImageName = "pdfreport-logo"

	// stampXObjectName is the resource name the overlay form is drawn
	// under. A numeric suffix is added when a page already uses it.
	stampXObjectName = "PdfReportStamp"

	// maxPageTreeDepth bounds the page tree walk.
	maxPageTreeDepth = 64
)

// StamperOption configures a Stamper.
type StamperOption func(*Stamper)

// WithStampLogger sets the stamper logger. Nil keeps the no-op logger.
func WithStampLogger(l *zap.Logger) StamperOption {
	return func(s *Stamper) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStampCompression toggles compression of the overlay streams
// (enabled by default). Source streams are never re-encoded.
func WithStampCompression(on bool) StamperOption {
	return func(s *Stamper) {
		s.compress = on
	}
}

// Stamper overlays a logo onto every page of an existing PDF.
type Stamper struct {
	compress bool
	logger   *zap.Logger
}

// NewStamper creates a Stamper.
func NewStamper(opts ...StamperOption) *Stamper {
	s := &Stamper{compress: true, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StampResult reports what Stamp wrote.
type StampResult struct {
	Pages    int
	Overlaid bool
}

// pageSize is a page MediaBox size in points.
type pageSize struct {
	W, H float64
}

// pageBox is a normalized MediaBox: lower-left and upper-right corners.
type pageBox [4]float64

func (b pageBox) size() pageSize {
	return pageSize{W: b[2] - b[0], H: b[3] - b[1]}
}

// sourcePage is a leaf of a page tree with its inherited attributes.
type sourcePage struct {
	ref       core.IndirectRef
	dict      core.Dict
	resources core.Object
	box       pageBox
}

// Stamp writes dst: every page of src with asset drawn on top. A nil asset
// copies src byte for byte. The output is written atomically; src is
// never modified.
//
// The overlay is appended to src as an incremental update: the source
// bytes are a prefix of dst and each page gains one form XObject the size
// of its MediaBox, holding the backing rectangle and the logo at the
// asset placement. Output depends only on src and asset, so stamping the
// same inputs twice yields identical bytes.
// Recovers from internal panics to prevent crashes from propagating to callers.
func (s *Stamper) Stamp(ctx context.Context, src, dst string, asset *OverlayAsset) (res *StampResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			res, err = nil, fmt.Errorf("%w: internal error: %v", ErrPDFGeneration, r)
		}
	}()

	if fileutil.SamePath(src, dst) {
		return nil, fmt.Errorf("%w: %s", ErrSameDocument, dst)
	}

	data, err := os.ReadFile(src) // #nosec G304 -- user-provided path
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSourceDocumentMissing, src, err)
	}
	r, err := reader.Open(src)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSourceDocumentMissing, src, err)
	}
	defer func() { _ = r.Close() }()

	if r.Trailer().Has("Encrypt") {
		return nil, fmt.Errorf("%w: %s is encrypted", ErrSourceDocumentMissing, src)
	}
	pages, err := collectPages(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSourceDocumentMissing, src, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := data
	if asset != nil {
		out, err = s.stampPages(ctx, data, r, pages, asset)
		if err != nil {
			return nil, err
		}
	}
	if err := fileutil.WriteFileAtomic(dst, out); err != nil {
		return nil, fmt.Errorf("writing stamped document: %w", err)
	}

	if asset == nil {
		s.logger.Debug("no overlay, source copied", zap.String("src", src), zap.String("dst", dst))
		return &StampResult{Pages: len(pages)}, nil
	}
	return &StampResult{Pages: len(pages), Overlaid: true}, nil
}

// stampPages builds the incremental update that draws asset on pages.
func (s *Stamper) stampPages(ctx context.Context, data []byte, r *reader.Reader, pages []sourcePage, asset *OverlayAsset) ([]byte, error) {
	// Pages sharing a MediaBox share one overlay form.
	var boxes []pageBox
	formOf := make([]int, len(pages))
	seen := make(map[pageBox]int)
	for i, p := range pages {
		idx, ok := seen[p.box]
		if !ok {
			idx = len(boxes)
			seen[p.box] = idx
			boxes = append(boxes, p.box)
		}
		formOf[i] = idx
	}

	overlay, err := s.renderOverlay(asset, boxes)
	if err != nil {
		return nil, err
	}
	path, cleanup, err := fileutil.WriteTempFile(string(overlay), "pdf")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPDFGeneration, err)
	}
	defer cleanup()

	ov, err := reader.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading overlay: %v", ErrPDFGeneration, err)
	}
	defer func() { _ = ov.Close() }()
	overlayPages, err := collectPages(ov)
	if err != nil {
		return nil, fmt.Errorf("%w: reading overlay: %v", ErrPDFGeneration, err)
	}
	if len(overlayPages) != len(boxes) {
		return nil, fmt.Errorf("%w: overlay has %d pages, want %d", ErrPDFGeneration, len(overlayPages), len(boxes))
	}

	upd, err := newPDFUpdate(data, r.Trailer())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceDocumentMissing, err)
	}
	im := newImporter(ov, upd)

	forms := make([]core.IndirectRef, len(boxes))
	for i, box := range boxes {
		ref, err := overlayForm(im, overlayPages[i], box)
		if err != nil {
			return nil, fmt.Errorf("%w: overlay page %d: %v", ErrPDFGeneration, i+1, err)
		}
		forms[i] = ref
	}

	open := core.IndirectRef{Number: upd.alloc()}
	if err := upd.setStream(open.Number, core.Dict{}, []byte("q\n")); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPDFGeneration, err)
	}
	closers := make(map[string]core.IndirectRef)

	for i, p := range pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		xobjects, err := pageXObjects(r, p)
		if err != nil {
			return nil, fmt.Errorf("%w: page %d: %v", ErrSourceDocumentMissing, i+1, err)
		}
		name := uniqueResourceName(xobjects, stampXObjectName)
		xobjects[name] = forms[formOf[i]]

		closer, ok := closers[name]
		if !ok {
			closer = core.IndirectRef{Number: upd.alloc()}
			var content bytes.Buffer
			content.WriteString("\nQ\n")
			writePDFName(&content, name)
			content.WriteString(" Do\n")
			if err := upd.setStream(closer.Number, core.Dict{}, content.Bytes()); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrPDFGeneration, err)
			}
			closers[name] = closer
		}

		contents, err := pageContents(r, p)
		if err != nil {
			return nil, fmt.Errorf("%w: page %d: %v", ErrSourceDocumentMissing, i+1, err)
		}
		resources, err := resolveDict(r, p.resources)
		if err != nil {
			return nil, fmt.Errorf("%w: page %d: resources: %v", ErrSourceDocumentMissing, i+1, err)
		}

		page := shallowCopy(p.dict)
		res := shallowCopy(resources)
		res["XObject"] = xobjects
		page["Resources"] = res
		page["Contents"] = append(append(core.Array{open}, contents...), closer)
		if err := upd.set(p.ref.Number, p.ref.Generation, page); err != nil {
			return nil, fmt.Errorf("%w: page %d: %v", ErrPDFGeneration, i+1, err)
		}

		size := p.box.size()
		s.logger.Debug("page stamped", zap.Int("page", i+1), zap.Float64("width", size.W), zap.Float64("height", size.H))
	}

	out, err := upd.bytes()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPDFGeneration, err)
	}
	return out, nil
}

// renderOverlay draws one page per box: the opaque backing rectangle and
// the logo at the asset placement.
func (s *Stamper) renderOverlay(asset *OverlayAsset, boxes []pageBox) ([]byte, error) {
	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCompression(s.compress)
	pdf.SetCatalogSort(true)

	opts := fpdf.ImageOptions{ImageType: asset.ImageType}
	pdf.RegisterImageOptionsReader(overlayImageName, opts, bytes.NewReader(asset.Image))
	if pdf.Err() {
		return nil, fmt.Errorf("%w: %v", ErrLogoDecode, pdf.Error())
	}

	p, bg := asset.Placement, asset.Background
	for _, box := range boxes {
		size := box.size()
		pdf.AddPageFormat("P", fpdf.SizeType{Wd: size.W, Ht: size.H})
		pdf.SetFillColor(int(bg.R), int(bg.G), int(bg.B))
		pdf.Rect(p.X, p.Y, p.W, p.H, "F")
		pdf.ImageOptions(overlayImageName, p.X, p.Y, p.W, p.H, false, opts, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPDFGeneration, err)
	}
	return buf.Bytes(), nil
}

// overlayForm copies an overlay page into the update as a form XObject
// covering box.
func overlayForm(im *importer, page sourcePage, box pageBox) (core.IndirectRef, error) {
	obj, err := im.from.Resolve(page.dict.Get("Contents"))
	if err != nil {
		return core.IndirectRef{}, err
	}
	content, ok := obj.(*core.Stream)
	if !ok {
		return core.IndirectRef{}, fmt.Errorf("content is %T, want a single stream", obj)
	}

	size := box.size()
	form := core.Dict{
		"Type":    core.Name("XObject"),
		"Subtype": core.Name("Form"),
		"BBox":    core.Array{core.Int(0), core.Int(0), core.Real(size.W), core.Real(size.H)},
	}
	if box[0] != 0 || box[1] != 0 {
		form["Matrix"] = core.Array{core.Int(1), core.Int(0), core.Int(0), core.Int(1), core.Real(box[0]), core.Real(box[1])}
	}
	if page.resources != nil {
		res, err := im.copy(page.resources)
		if err != nil {
			return core.IndirectRef{}, fmt.Errorf("resources: %w", err)
		}
		form["Resources"] = res
	}
	for _, key := range []string{"Filter", "DecodeParms"} {
		if v := content.Dict.Get(key); v != nil {
			c, err := im.copy(v)
			if err != nil {
				return core.IndirectRef{}, fmt.Errorf("/%s: %w", key, err)
			}
			form[key] = c
		}
	}

	ref := core.IndirectRef{Number: im.to.alloc()}
	return ref, im.to.setStream(ref.Number, form, content.Data)
}

// collectPages walks the page tree in document order, carrying inherited
// resources and MediaBox down to each leaf.
func collectPages(r *reader.Reader) ([]sourcePage, error) {
	catalog, err := r.GetCatalog()
	if err != nil {
		return nil, err
	}
	root, ok := catalog.GetIndirectRef("Pages")
	if !ok {
		return nil, fmt.Errorf("catalog has no page tree")
	}

	var pages []sourcePage
	visited := make(map[int]bool)
	var walk func(ref core.IndirectRef, resources, box core.Object, depth int) error
	walk = func(ref core.IndirectRef, resources, box core.Object, depth int) error {
		if depth > maxPageTreeDepth {
			return fmt.Errorf("page tree deeper than %d levels", maxPageTreeDepth)
		}
		if visited[ref.Number] {
			return fmt.Errorf("page tree revisits object %d", ref.Number)
		}
		visited[ref.Number] = true

		obj, err := r.ResolveReference(ref)
		if err != nil {
			return err
		}
		node, ok := obj.(core.Dict)
		if !ok {
			return fmt.Errorf("page tree node %d is %T", ref.Number, obj)
		}
		if v := node.Get("Resources"); v != nil {
			resources = v
		}
		if v := node.Get("MediaBox"); v != nil {
			box = v
		}

		if typ, _ := node.GetName("Type"); typ == "Pages" || (typ != "Page" && node.Has("Kids")) {
			kids, err := resolveArray(r, node.Get("Kids"))
			if err != nil {
				return fmt.Errorf("page tree node %d: kids: %w", ref.Number, err)
			}
			for _, kid := range kids {
				kref, ok := kid.(core.IndirectRef)
				if !ok {
					return fmt.Errorf("page tree node %d has a direct kid", ref.Number)
				}
				if err := walk(kref, resources, box, depth+1); err != nil {
					return err
				}
			}
			return nil
		}

		mb, err := mediaBox(r, box)
		if err != nil {
			return fmt.Errorf("page %d: %w", len(pages)+1, err)
		}
		pages = append(pages, sourcePage{ref: ref, dict: node, resources: resources, box: mb})
		return nil
	}

	if err := walk(root, nil, nil, 0); err != nil {
		return nil, err
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("document has no pages")
	}
	return pages, nil
}

// mediaBox reads a MediaBox array and normalizes its corners.
func mediaBox(r *reader.Reader, obj core.Object) (pageBox, error) {
	if obj == nil {
		return pageBox{}, fmt.Errorf("no MediaBox")
	}
	arr, err := resolveArray(r, obj)
	if err != nil || len(arr) != 4 {
		return pageBox{}, fmt.Errorf("unusable MediaBox")
	}
	var v [4]float64
	for i, elem := range arr {
		e, err := r.Resolve(elem)
		if err != nil {
			return pageBox{}, err
		}
		switch n := e.(type) {
		case core.Int:
			v[i] = float64(n)
		case core.Real:
			v[i] = float64(n)
		default:
			return pageBox{}, fmt.Errorf("MediaBox entry is %T", e)
		}
	}
	box := pageBox{math.Min(v[0], v[2]), math.Min(v[1], v[3]), math.Max(v[0], v[2]), math.Max(v[1], v[3])}
	if size := box.size(); size.W <= 0 || size.H <= 0 {
		return pageBox{}, fmt.Errorf("empty MediaBox")
	}
	return box, nil
}

// pageContents returns the references making up a page's content, in
// drawing order.
func pageContents(r *reader.Reader, p sourcePage) (core.Array, error) {
	obj := p.dict.Get("Contents")
	switch v := obj.(type) {
	case nil:
		return nil, nil
	case core.Array:
		return v, nil
	case core.IndirectRef:
		target, err := r.ResolveReference(v)
		if err != nil {
			return nil, fmt.Errorf("contents: %w", err)
		}
		if arr, ok := target.(core.Array); ok {
			return arr, nil
		}
		return core.Array{v}, nil
	default:
		return nil, fmt.Errorf("contents is %T", obj)
	}
}

// pageXObjects returns a copy of the page's XObject resources that the
// stamped page can extend.
func pageXObjects(r *reader.Reader, p sourcePage) (core.Dict, error) {
	resources, err := resolveDict(r, p.resources)
	if err != nil {
		return nil, fmt.Errorf("resources: %w", err)
	}
	xobjects, err := resolveDict(r, resources.Get("XObject"))
	if err != nil {
		return nil, fmt.Errorf("xobjects: %w", err)
	}
	return shallowCopy(xobjects), nil
}

// uniqueResourceName returns base, or base followed by the smallest
// number not yet used in d.
func uniqueResourceName(d core.Dict, base string) string {
	if !d.Has(base) {
		return base
	}
	for i := 1; ; i++ {
		name := base + strconv.Itoa(i)
		if !d.Has(name) {
			return name
		}
	}
}

// resolveDict resolves obj to a dictionary. Nil is an empty dictionary.
func resolveDict(r *reader.Reader, obj core.Object) (core.Dict, error) {
	if obj == nil {
		return core.Dict{}, nil
	}
	v, err := r.Resolve(obj)
	if err != nil {
		return nil, err
	}
	switch d := v.(type) {
	case core.Dict:
		return d, nil
	case core.Null:
		return core.Dict{}, nil
	default:
		return nil, fmt.Errorf("got %T, want a dictionary", v)
	}
}

func resolveArray(r *reader.Reader, obj core.Object) (core.Array, error) {
	v, err := r.Resolve(obj)
	if err != nil {
		return nil, err
	}
	arr, ok := v.(core.Array)
	if !ok {
		return nil, fmt.Errorf("got %T, want an array", v)
	}
	return arr, nil
}

func shallowCopy(d core.Dict) core.Dict {
	out := make(core.Dict, len(d)+1)
	for k, v := range d {
		out[k] = v
	}
	return out
}
