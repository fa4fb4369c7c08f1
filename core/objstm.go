package core

import (
	"bytes"
	"fmt"
)

// ObjectStream is a decoded /Type /ObjStm stream. It is immutable once
// created and safe for concurrent use.
type ObjectStream struct {
	n       int
	first   int
	extends *IndirectRef
	offsets []objectStreamOffset
	decoded []byte
}

// objectStreamOffset pairs an object number with its offset relative
// to /First.
type objectStreamOffset struct {
	ObjNum int
	Offset int
}

// NewObjectStream validates the stream dictionary, decodes the data and
// parses the header of object number and offset pairs.
func NewObjectStream(stream *Stream) (*ObjectStream, error) {
	if stream == nil {
		return nil, fmt.Errorf("stream is nil")
	}
	if typ, _ := stream.Dict.GetName("Type"); typ != "ObjStm" {
		return nil, fmt.Errorf("stream is not an object stream, got type %q", typ)
	}
	n, ok := stream.Dict.GetInt("N")
	if !ok || n < 0 {
		return nil, fmt.Errorf("object stream has invalid /N %v", stream.Dict.Get("N"))
	}
	first, ok := stream.Dict.GetInt("First")
	if !ok || first < 0 {
		return nil, fmt.Errorf("object stream has invalid /First %v", stream.Dict.Get("First"))
	}

	os := &ObjectStream{n: int(n), first: int(first)}
	if ref, ok := stream.Dict.GetIndirectRef("Extends"); ok {
		os.extends = &ref
	}

	decoded, err := stream.Decode()
	if err != nil {
		return nil, fmt.Errorf("failed to decode object stream: %w", err)
	}
	os.decoded = decoded
	if err := os.parseHeader(); err != nil {
		return nil, fmt.Errorf("failed to parse object stream header: %w", err)
	}
	return os, nil
}

// N returns the number of objects stored in the stream.
func (os *ObjectStream) N() int {
	return os.n
}

// First returns the offset of the first object in the decoded data.
func (os *ObjectStream) First() int {
	return os.first
}

// Extends returns the object stream this one extends, or nil.
func (os *ObjectStream) Extends() *IndirectRef {
	return os.extends
}

func (os *ObjectStream) parseHeader() error {
	if os.first > len(os.decoded) {
		return fmt.Errorf("/First %d exceeds decoded length %d", os.first, len(os.decoded))
	}
	p := NewParser(bytes.NewReader(os.decoded[:os.first]))
	os.offsets = make([]objectStreamOffset, 0, os.n)
	for i := 0; i < os.n; i++ {
		numObj, err := p.ParseObject()
		if err != nil {
			return fmt.Errorf("object number %d: %w", i, err)
		}
		offObj, err := p.ParseObject()
		if err != nil {
			return fmt.Errorf("offset %d: %w", i, err)
		}
		num, ok1 := numObj.(Int)
		off, ok2 := offObj.(Int)
		if !ok1 || !ok2 {
			return fmt.Errorf("header pair %d is not two integers", i)
		}
		os.offsets = append(os.offsets, objectStreamOffset{ObjNum: int(num), Offset: int(off)})
	}
	return nil
}

// GetObjectByIndex parses the object at position index in the header and
// returns it with its object number.
func (os *ObjectStream) GetObjectByIndex(index int) (Object, int, error) {
	if index < 0 || index >= len(os.offsets) {
		return nil, 0, fmt.Errorf("index %d out of range [0, %d)", index, len(os.offsets))
	}
	start := os.first + os.offsets[index].Offset
	if start < 0 || start >= len(os.decoded) {
		return nil, 0, fmt.Errorf("object offset %d exceeds decoded length %d", start, len(os.decoded))
	}
	end := len(os.decoded)
	if index+1 < len(os.offsets) {
		if next := os.first + os.offsets[index+1].Offset; next > start && next < end {
			end = next
		}
	}

	obj, err := NewParser(bytes.NewReader(os.decoded[start:end])).ParseObject()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to parse object at index %d: %w", index, err)
	}
	return obj, os.offsets[index].ObjNum, nil
}

// GetObjectByNumber finds an object by number and returns it with its
// index in the stream.
func (os *ObjectStream) GetObjectByNumber(objNum int) (Object, int, error) {
	for i, entry := range os.offsets {
		if entry.ObjNum == objNum {
			obj, _, err := os.GetObjectByIndex(i)
			return obj, i, err
		}
	}
	return nil, 0, fmt.Errorf("object %d not found in object stream", objNum)
}

// ObjectNumbers returns the numbers of all objects in the stream in
// header order.
func (os *ObjectStream) ObjectNumbers() []int {
	nums := make([]int, len(os.offsets))
	for i, entry := range os.offsets {
		nums[i] = entry.ObjNum
	}
	return nums
}
