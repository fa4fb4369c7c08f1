package core

import (
	"testing"

	"github.com/tsawler/folio/internal/pdftest"
)

func objStm(header, body string, n int) *Stream {
	data := []byte(header + body)
	return &Stream{
		Dict: Dict{
			"Type":   Name("ObjStm"),
			"N":      Int(n),
			"First":  Int(len(header)),
			"Filter": Name("FlateDecode"),
		},
		Data: pdftest.Deflate(data),
	}
}

func TestObjectStream(t *testing.T) {
	os, err := NewObjectStream(objStm("10 0 11 6 ", "(abc) << /A 1 >>", 2))
	if err != nil {
		t.Fatalf("NewObjectStream: %v", err)
	}
	if os.N() != 2 {
		t.Errorf("N = %d", os.N())
	}
	if nums := os.ObjectNumbers(); len(nums) != 2 || nums[0] != 10 || nums[1] != 11 {
		t.Errorf("ObjectNumbers = %v", nums)
	}

	obj, num, err := os.GetObjectByIndex(0)
	if err != nil || num != 10 || obj != String("abc") {
		t.Errorf("GetObjectByIndex(0) = %v, %d, %v", obj, num, err)
	}
	obj, idx, err := os.GetObjectByNumber(11)
	if err != nil || idx != 1 {
		t.Fatalf("GetObjectByNumber(11) = %v, %d, %v", obj, idx, err)
	}
	if d, ok := obj.(Dict); !ok || d.Get("A") != Int(1) {
		t.Errorf("object 11 = %v", obj)
	}
	if _, _, err := os.GetObjectByNumber(99); err == nil {
		t.Error("expected error for missing object")
	}
	if _, _, err := os.GetObjectByIndex(2); err == nil {
		t.Error("expected error for out of range index")
	}
}

func TestObjectStreamValidation(t *testing.T) {
	tests := []struct {
		name string
		s    *Stream
	}{
		{"nil", nil},
		{"wrong type", &Stream{Dict: Dict{"Type": Name("XRef"), "N": Int(0), "First": Int(0)}}},
		{"missing N", &Stream{Dict: Dict{"Type": Name("ObjStm"), "First": Int(0)}}},
		{"negative First", &Stream{Dict: Dict{"Type": Name("ObjStm"), "N": Int(0), "First": Int(-1)}}},
		{"short header", objStm("10 0 ", "(a)", 2)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewObjectStream(tt.s); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestObjectStreamExtends(t *testing.T) {
	s := objStm("1 0 ", "null", 1)
	s.Dict["Extends"] = IndirectRef{Number: 4}
	os, err := NewObjectStream(s)
	if err != nil {
		t.Fatalf("NewObjectStream: %v", err)
	}
	if os.Extends() == nil || os.Extends().Number != 4 {
		t.Errorf("Extends = %v", os.Extends())
	}
}
