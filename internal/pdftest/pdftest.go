// Package pdftest builds small PDF files in memory for tests. Object
// bodies are written as PDF source text, and offsets, /Length entries and
// cross-reference data are computed when the file is assembled.
package pdftest

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"sort"
	"strings"
)

type object struct {
	num    int
	body   string
	stream []byte
}

// Builder accumulates numbered objects and a trailer.
type Builder struct {
	Version string
	objects map[int]*object
	trailer string
	packed  map[int]bool
	crypt   *encryption
}

// New returns a builder for a PDF 1.7 file.
func New() *Builder {
	return &Builder{
		Version: "1.7",
		objects: make(map[int]*object),
		packed:  make(map[int]bool),
	}
}

// Add defines object num with a direct object body such as
// "<< /Type /Catalog /Pages 2 0 R >>".
func (b *Builder) Add(num int, body string) *Builder {
	b.objects[num] = &object{num: num, body: body}
	return b
}

// AddStream defines a stream object. dict is the dictionary source
// without the surrounding brackets and without /Length.
func (b *Builder) AddStream(num int, dict string, data []byte) *Builder {
	b.objects[num] = &object{num: num, body: dict, stream: data}
	return b
}

// AddFlateStream defines a stream compressed with FlateDecode.
func (b *Builder) AddFlateStream(num int, dict string, data []byte) *Builder {
	return b.AddStream(num, dict+" /Filter /FlateDecode", Deflate(data))
}

// Trailer sets extra trailer entries, for example "/Root 1 0 R".
func (b *Builder) Trailer(entries string) *Builder {
	b.trailer = entries
	return b
}

// Pack marks objects to be stored in an object stream when the file is
// written with XRefStreamBytes. Streams cannot be packed.
func (b *Builder) Pack(nums ...int) *Builder {
	for _, n := range nums {
		b.packed[n] = true
	}
	return b
}

func (b *Builder) sortedNums() []int {
	nums := make([]int, 0, len(b.objects))
	for n := range b.objects {
		nums = append(nums, n)
	}
	sort.Ints(nums)
	return nums
}

func (b *Builder) maxNum() int {
	max := 0
	for n := range b.objects {
		if n > max {
			max = n
		}
	}
	return max
}

func (b *Builder) header(buf *bytes.Buffer) {
	fmt.Fprintf(buf, "%%PDF-%s\n%%\xe2\xe3\xcf\xd3\n", b.Version)
}

func (b *Builder) writeObject(buf *bytes.Buffer, o *object) {
	body := plainStrings(o.body)
	if b.crypt != nil {
		body = b.crypt.encryptStrings(o.num, o.body)
	}
	if o.stream == nil {
		fmt.Fprintf(buf, "%d 0 obj\n%s\nendobj\n", o.num, body)
		return
	}
	data := o.stream
	if b.crypt != nil {
		data = b.crypt.encryptData(o.num, data)
	}
	fmt.Fprintf(buf, "%d 0 obj\n<< %s /Length %d >>\nstream\n", o.num, body, len(data))
	buf.Write(data)
	buf.WriteString("\nendstream\nendobj\n")
}

// Bytes assembles the file with a classic cross-reference table.
func (b *Builder) Bytes() []byte {
	var buf bytes.Buffer
	b.header(&buf)

	size := b.maxNum() + 1
	offsets := make([]int, size)
	for _, n := range b.sortedNums() {
		offsets[n] = buf.Len()
		b.writeObject(&buf, b.objects[n])
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", size)
	buf.WriteString("0000000000 65535 f \n")
	for n := 1; n < size; n++ {
		if _, ok := b.objects[n]; ok {
			fmt.Fprintf(&buf, "%010d 00000 n \n", offsets[n])
		} else {
			buf.WriteString("0000000000 00000 f \n")
		}
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d %s%s >>\nstartxref\n%d\n%%%%EOF\n",
		size, b.trailer, b.cryptTrailer(), xref)
	return buf.Bytes()
}

// XRefStreamBytes assembles the file with a compressed cross-reference
// stream. Objects marked with Pack go into one object stream.
func (b *Builder) XRefStreamBytes() []byte {
	var buf bytes.Buffer
	b.header(&buf)

	objStmNum := b.maxNum() + 1
	xrefNum := objStmNum + 1
	size := xrefNum + 1

	type entry struct {
		typ    byte
		f2, f3 int
	}
	entries := make([]entry, size)

	var packed []int
	for _, n := range b.sortedNums() {
		if b.packed[n] && b.objects[n].stream == nil {
			packed = append(packed, n)
			continue
		}
		entries[n] = entry{typ: 1, f2: buf.Len()}
		b.writeObject(&buf, b.objects[n])
	}

	if len(packed) > 0 {
		var head, body bytes.Buffer
		for i, n := range packed {
			fmt.Fprintf(&head, "%d %d ", n, body.Len())
			body.WriteString(b.objects[n].body)
			body.WriteString("\n")
			entries[n] = entry{typ: 2, f2: objStmNum, f3: i}
		}
		data := append(head.Bytes(), body.Bytes()...)
		entries[objStmNum] = entry{typ: 1, f2: buf.Len()}
		b.writeObject(&buf, &object{
			num:    objStmNum,
			body:   fmt.Sprintf("/Type /ObjStm /N %d /First %d /Filter /FlateDecode", len(packed), head.Len()),
			stream: Deflate(data),
		})
	}

	xref := buf.Len()
	entries[xrefNum] = entry{typ: 1, f2: xref}
	var rows bytes.Buffer
	for _, e := range entries {
		rows.WriteByte(e.typ)
		binary.Write(&rows, binary.BigEndian, uint32(e.f2))
		binary.Write(&rows, binary.BigEndian, uint16(e.f3))
	}
	data := Deflate(rows.Bytes())
	fmt.Fprintf(&buf, "%d 0 obj\n<< /Type /XRef /Size %d /W [1 4 2] /Filter /FlateDecode /Length %d %s >>\nstream\n",
		xrefNum, size, len(data), b.trailer)
	buf.Write(data)
	fmt.Fprintf(&buf, "\nendstream\nendobj\nstartxref\n%d\n%%%%EOF\n", xref)
	return buf.Bytes()
}

// Deflate compresses data with zlib.
func Deflate(data []byte) []byte {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	w.Write(data)
	w.Close()
	return buf.Bytes()
}

// Page describes one page for Document.
type Page struct {
	Content  string
	MediaBox string // defaults to "[0 0 612 792]"
	Extra    string // extra page dictionary entries
}

// Document builds a complete file with one page per entry. Every page
// gets the resource /F1, a Helvetica Type1 font with WinAnsiEncoding.
// Object numbers: 1 catalog, 2 page tree, 3 font, then a page and its
// content stream per page starting at 10.
func Document(pages ...Page) *Builder {
	b := New()
	kids := make([]string, len(pages))
	for i, p := range pages {
		pageNum := 10 + 2*i
		contentNum := pageNum + 1
		box := p.MediaBox
		if box == "" {
			box = "[0 0 612 792]"
		}
		kids[i] = fmt.Sprintf("%d 0 R", pageNum)
		b.Add(pageNum, fmt.Sprintf(
			"<< /Type /Page /Parent 2 0 R /MediaBox %s /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R %s >>",
			box, contentNum, p.Extra))
		b.AddStream(contentNum, "", []byte(p.Content))
	}
	b.Add(1, "<< /Type /Catalog /Pages 2 0 R >>")
	b.Add(2, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages)))
	b.Add(3, "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")
	b.Trailer("/Root 1 0 R")
	return b
}
