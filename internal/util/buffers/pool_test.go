package buffers

import (
	"bytes"
	"strings"
	"testing"
)

func TestGetPut(t *testing.T) {
	buf := Get()
	if buf == nil || len(*buf) != CopyBufferSize {
		t.Fatalf("Get() returned %v bytes", len(*buf))
	}
	(*buf)[0] = 0xff
	Put(buf)

	again := Get()
	if (*again)[0] != 0 {
		t.Error("pooled buffer was not cleared")
	}
	Put(again)

	small := make([]byte, 10)
	Put(&small)
	Put(nil)
}

func TestCopy(t *testing.T) {
	src := strings.Repeat("media", CopyBufferSize/2)
	var dst bytes.Buffer
	n, err := Copy(&dst, strings.NewReader(src))
	if err != nil {
		t.Fatal(err)
	}
	if n != int64(len(src)) || dst.String() != src {
		t.Errorf("copied %d bytes, want %d", n, len(src))
	}
}

func TestPoolReuse(t *testing.T) {
	for i := 0; i < 50; i++ {
		Put(Get())
	}
	if Allocations() > 50 {
		t.Errorf("Allocations() = %d", Allocations())
	}
}
