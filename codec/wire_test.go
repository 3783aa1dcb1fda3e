package codec

import (
	"bytes"
	"math"
	"testing"
)

func TestZigzagRoundTrip(t *testing.T) {
	for _, v := range []int64{0, 1, -1, 42, -42, 1 << 40, -(1 << 40)} {
		got := zigzagDecode(zigzagEncode(v))
		if got != v {
			t.Errorf("zigzag round trip: got %d, want %d", got, v)
		}
	}
}

func TestPackedSint64RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	vals := []int64{0, -5, 17, -1000000}
	putPackedSint64(&buf, 1, vals)

	r := newWireReader(buf.Bytes())
	_, _, err := r.readTag()
	if err != nil {
		t.Fatalf("readTag: %v", err)
	}
	data, err := r.readLenDelimited()
	if err != nil {
		t.Fatalf("readLenDelimited: %v", err)
	}
	got, err := unpackSint64(data)
	if err != nil {
		t.Fatalf("unpackSint64: %v", err)
	}
	if len(got) != len(vals) {
		t.Fatalf("length mismatch: got %d want %d", len(got), len(vals))
	}
	for i := range vals {
		if got[i] != vals[i] {
			t.Errorf("index %d: got %d want %d", i, got[i], vals[i])
		}
	}
}

func TestDoubleFieldRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	putDoubleField(&buf, 3, 12.5)

	r := newWireReader(buf.Bytes())
	field, wt, err := r.readTag()
	if err != nil {
		t.Fatalf("readTag: %v", err)
	}
	if field != 3 || wt != wireFixed64 {
		t.Fatalf("unexpected tag: field=%d wt=%d", field, wt)
	}
	got, err := r.readFixed64()
	if err != nil {
		t.Fatalf("readFixed64: %v", err)
	}
	if got != 12.5 {
		t.Errorf("got %v, want 12.5", got)
	}
}

// TestUnknownFieldIsSkipped exercises the forward-compatibility contract:
// a reader built without knowledge of a field number must still be able to
// read every field after it.
func TestUnknownFieldIsSkipped(t *testing.T) {
	var buf bytes.Buffer
	putLenDelimited(&buf, 99, []byte("future-field"))
	putUint32Field(&buf, 1, 7)

	r := newWireReader(buf.Bytes())
	field, wt, err := r.readTag()
	if err != nil {
		t.Fatalf("readTag: %v", err)
	}
	if field != 99 {
		t.Fatalf("expected field 99 first, got %d", field)
	}
	if err := r.skip(wt); err != nil {
		t.Fatalf("skip: %v", err)
	}

	field, _, err = r.readTag()
	if err != nil {
		t.Fatalf("readTag after skip: %v", err)
	}
	if field != 1 {
		t.Fatalf("expected field 1 after skip, got %d", field)
	}
}

func TestTruncatedVarintIsMalformed(t *testing.T) {
	r := newWireReader([]byte{0x80}) // high bit set, no continuation byte
	if _, err := r.readUvarint(); err == nil {
		t.Error("expected error on truncated varint")
	}
}

// A length close to math.MaxInt64 is still a valid (positive) int, so a
// naive "pos + length > len(data)" bounds check overflows back to a
// negative number and wrongly passes. readLenDelimited must reject this
// without panicking on the subsequent slice expression.
func TestHugeLengthDelimitedFieldIsMalformedNotPanic(t *testing.T) {
	var buf bytes.Buffer
	putUvarint(&buf, uint64(math.MaxInt64)-2)
	buf.Write([]byte{1, 2, 3})
	r := newWireReader(buf.Bytes())
	if _, err := r.readLenDelimited(); err == nil {
		t.Error("expected error for a length running past the buffer")
	}
}
