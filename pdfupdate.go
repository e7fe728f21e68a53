package pdfreport

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"slices"
	"strconv"

	"github.com/tsawler/tabula/core"
	"github.com/tsawler/tabula/reader"
)

// xrefStreamKeys are trailer entries that only make sense on an xref
// stream dictionary.
var xrefStreamKeys = []string{"Type", "W", "Index", "Filter", "DecodeParms", "Length", "Prev", "XRefStm"}

// pdfUpdate collects objects appended to an existing PDF as an incremental
// update. The source bytes are kept unchanged; new and replaced objects,
// a cross-reference section and a trailer pointing back to the previous
// one follow them. Output depends only on the inputs: objects are written
// in number order and dictionary keys are sorted.
type pdfUpdate struct {
	src      []byte
	prevXref int64
	trailer  core.Dict
	next     int
	objects  map[int]updatedObject
}

type updatedObject struct {
	gen  int
	body []byte
}

// newPDFUpdate prepares an update of src. trailer is the newest trailer of
// the source; new objects are numbered from its /Size.
func newPDFUpdate(src []byte, trailer core.Dict) (*pdfUpdate, error) {
	prev, err := core.NewXRefParser(bytes.NewReader(src)).FindXRef()
	if err != nil {
		return nil, fmt.Errorf("locating cross-reference section: %w", err)
	}
	size, ok := trailer.GetInt("Size")
	if !ok || size <= 0 {
		return nil, fmt.Errorf("trailer has no usable /Size")
	}
	return &pdfUpdate{
		src:      src,
		prevXref: prev,
		trailer:  trailer,
		next:     int(size),
		objects:  make(map[int]updatedObject),
	}, nil
}

// alloc reserves a new object number.
func (u *pdfUpdate) alloc() int {
	n := u.next
	u.next++
	return n
}

// set writes obj as object num, replacing any earlier version.
func (u *pdfUpdate) set(num, gen int, obj core.Object) error {
	var b bytes.Buffer
	if err := writePDFObject(&b, obj); err != nil {
		return fmt.Errorf("object %d: %w", num, err)
	}
	u.objects[num] = updatedObject{gen: gen, body: b.Bytes()}
	return nil
}

// setStream writes a stream object. /Length is taken from data.
func (u *pdfUpdate) setStream(num int, dict core.Dict, data []byte) error {
	d := make(core.Dict, len(dict)+1)
	for k, v := range dict {
		d[k] = v
	}
	d["Length"] = core.Int(len(data))

	var b bytes.Buffer
	if err := writePDFObject(&b, d); err != nil {
		return fmt.Errorf("object %d: %w", num, err)
	}
	b.WriteString("\nstream\n")
	b.Write(data)
	b.WriteString("\nendstream")
	u.objects[num] = updatedObject{body: b.Bytes()}
	return nil
}

// importer copies objects from another document into the update,
// renumbering indirect objects as it goes. Dictionary keys are visited in
// sorted order so numbering depends only on the imported content.
type importer struct {
	from    *reader.Reader
	to      *pdfUpdate
	renamed map[int]int
}

func newImporter(from *reader.Reader, to *pdfUpdate) *importer {
	return &importer{from: from, to: to, renamed: make(map[int]int)}
}

// copy returns obj rewritten for the target document. Referenced objects
// are copied once, however often they are reached.
func (im *importer) copy(obj core.Object) (core.Object, error) {
	switch v := obj.(type) {
	case core.IndirectRef:
		if n, ok := im.renamed[v.Number]; ok {
			return core.IndirectRef{Number: n}, nil
		}
		n := im.to.alloc()
		im.renamed[v.Number] = n

		target, err := im.from.ResolveReference(v)
		if err != nil {
			return nil, fmt.Errorf("resolving %d %d R: %w", v.Number, v.Generation, err)
		}
		if s, ok := target.(*core.Stream); ok {
			dict := make(core.Dict, len(s.Dict))
			for k, val := range s.Dict {
				if k != "Length" {
					dict[k] = val
				}
			}
			d, err := im.copyDict(dict)
			if err != nil {
				return nil, err
			}
			return core.IndirectRef{Number: n}, im.to.setStream(n, d, s.Data)
		}
		c, err := im.copy(target)
		if err != nil {
			return nil, err
		}
		return core.IndirectRef{Number: n}, im.to.set(n, 0, c)
	case core.Dict:
		return im.copyDict(v)
	case core.Array:
		out := make(core.Array, len(v))
		for i, elem := range v {
			c, err := im.copy(elem)
			if err != nil {
				return nil, err
			}
			out[i] = c
		}
		return out, nil
	case *core.Stream:
		return nil, fmt.Errorf("stream outside an indirect object")
	default:
		return obj, nil
	}
}

func (im *importer) copyDict(d core.Dict) (core.Dict, error) {
	keys := d.Keys()
	slices.Sort(keys)
	out := make(core.Dict, len(d))
	for _, k := range keys {
		c, err := im.copy(d[k])
		if err != nil {
			return nil, fmt.Errorf("/%s: %w", k, err)
		}
		out[k] = c
	}
	return out, nil
}

// bytes returns the updated document.
func (u *pdfUpdate) bytes() ([]byte, error) {
	var out bytes.Buffer
	out.Grow(len(u.src) + 4096)
	out.Write(u.src)
	if len(u.src) > 0 && u.src[len(u.src)-1] != '\n' {
		out.WriteByte('\n')
	}

	nums := make([]int, 0, len(u.objects))
	for n := range u.objects {
		nums = append(nums, n)
	}
	slices.Sort(nums)

	offsets := make(map[int]int, len(nums))
	for _, n := range nums {
		obj := u.objects[n]
		offsets[n] = out.Len()
		fmt.Fprintf(&out, "%d %d obj\n", n, obj.gen)
		out.Write(obj.body)
		out.WriteString("\nendobj\n")
	}

	xref := out.Len()
	out.WriteString("xref\n")
	for start := 0; start < len(nums); {
		end := start + 1
		for end < len(nums) && nums[end] == nums[end-1]+1 {
			end++
		}
		fmt.Fprintf(&out, "%d %d\n", nums[start], end-start)
		for _, n := range nums[start:end] {
			fmt.Fprintf(&out, "%010d %05d n \n", offsets[n], u.objects[n].gen)
		}
		start = end
	}

	trailer := make(core.Dict, len(u.trailer)+2)
	for k, v := range u.trailer {
		if !slices.Contains(xrefStreamKeys, k) {
			trailer[k] = v
		}
	}
	size := u.next
	if len(nums) > 0 && nums[len(nums)-1]+1 > size {
		size = nums[len(nums)-1] + 1
	}
	trailer["Size"] = core.Int(size)
	trailer["Prev"] = core.Int(u.prevXref)

	// Kept on one line: readers scan the trailer up to the first ">>".
	out.WriteString("trailer\n")
	if err := writePDFObject(&out, trailer); err != nil {
		return nil, fmt.Errorf("trailer: %w", err)
	}
	fmt.Fprintf(&out, "\nstartxref\n%d\n%%%%EOF\n", xref)
	return out.Bytes(), nil
}

// writePDFObject serializes a direct object in PDF syntax. Strings are
// written in hex form and dictionary keys in sorted order.
func writePDFObject(b *bytes.Buffer, obj core.Object) error {
	switch v := obj.(type) {
	case nil, core.Null:
		b.WriteString("null")
	case core.Bool:
		b.WriteString(strconv.FormatBool(bool(v)))
	case core.Int:
		b.WriteString(strconv.FormatInt(int64(v), 10))
	case core.Real:
		b.WriteString(strconv.FormatFloat(float64(v), 'f', -1, 64))
	case core.String:
		b.WriteByte('<')
		b.WriteString(hex.EncodeToString([]byte(v)))
		b.WriteByte('>')
	case core.Name:
		writePDFName(b, string(v))
	case core.IndirectRef:
		fmt.Fprintf(b, "%d %d R", v.Number, v.Generation)
	case core.Array:
		b.WriteByte('[')
		for i, elem := range v {
			if i > 0 {
				b.WriteByte(' ')
			}
			if err := writePDFObject(b, elem); err != nil {
				return err
			}
		}
		b.WriteByte(']')
	case core.Dict:
		keys := v.Keys()
		slices.Sort(keys)
		b.WriteString("<<")
		for i, k := range keys {
			if i > 0 {
				b.WriteByte(' ')
			}
			writePDFName(b, k)
			b.WriteByte(' ')
			if err := writePDFObject(b, v[k]); err != nil {
				return err
			}
		}
		b.WriteString(">>")
	default:
		return fmt.Errorf("cannot write %T as a direct object", obj)
	}
	return nil
}

// writePDFName writes /name, escaping delimiters, whitespace, '#' and
// bytes outside the printable ASCII range as #xx.
func writePDFName(b *bytes.Buffer, name string) {
	b.WriteByte('/')
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c < '!' || c > '~', c == '#', bytes.IndexByte([]byte("()<>[]{}/%"), c) >= 0:
			fmt.Fprintf(b, "#%02X", c)
		default:
			b.WriteByte(c)
		}
	}
}
