package audio

import (
	"math"
	"testing"
)

func TestInt16ToFloat32_Empty(t *testing.T) {
	out := Int16ToFloat32(nil)
	if len(out) != 0 {
		t.Fatalf("expected empty slice, got length %d", len(out))
	}
}

func TestInt16ToFloat32_Range(t *testing.T) {
	out := Int16ToFloat32([]int16{0, math.MaxInt16})
	if out[0] != 0 {
		t.Fatalf("expected 0.0, got %f", out[0])
	}
	if out[1] != 1.0 {
		t.Fatalf("expected 1.0 for MaxInt16, got %f", out[1])
	}
}

func TestFloat32ToInt16_Clamp(t *testing.T) {
	out := Float32ToInt16([]float32{1.5, -1.5, 0})
	if out[0] != math.MaxInt16 {
		t.Fatalf("expected %d (clamped to 1.0), got %d", int16(math.MaxInt16), out[0])
	}
	if out[1] != -math.MaxInt16 {
		t.Fatalf("expected %d (clamped to -1.0), got %d", int16(-math.MaxInt16), out[1])
	}
	if out[2] != 0 {
		t.Fatalf("expected 0 for 0.0 input, got %d", out[2])
	}
}

func TestBytesInt16_RoundTrip(t *testing.T) {
	in := []int16{0x0102, -1, 0, math.MaxInt16, math.MinInt16}
	b := Int16ToBytes(in)
	out := BytesToInt16(b)
	if len(out) != len(in) {
		t.Fatalf("length mismatch: got %d, want %d", len(out), len(in))
	}
	for i := range in {
		if out[i] != in[i] {
			t.Errorf("sample %d: got %d, want %d", i, out[i], in[i])
		}
	}
}

func TestBytesToInt16_LittleEndian(t *testing.T) {
	// 0x0102 in little-endian is {0x02, 0x01}
	out := BytesToInt16([]byte{0x02, 0x01})
	if len(out) != 1 || out[0] != 0x0102 {
		t.Fatalf("expected 258 (0x0102), got %v", out)
	}
}

func TestStereoToMonoFloat32(t *testing.T) {
	// 左声道 1000，右声道 3000 → 单声道 2000/32768
	frame := Int16ToBytes([]int16{1000, 3000})
	out := StereoToMonoFloat32(frame)
	if len(out) != 1 {
		t.Fatalf("expected 1 mono sample, got %d", len(out))
	}
	want := float32(2000) / 32768.0
	if out[0] != want {
		t.Fatalf("expected %f, got %f", want, out[0])
	}
}

func TestStereoToMonoFloat32_TruncatesPartialFrame(t *testing.T) {
	out := StereoToMonoFloat32([]byte{0x01, 0x02, 0x03, 0x04, 0x05})
	if len(out) != 1 {
		t.Fatalf("expected partial frame to be dropped, got %d samples", len(out))
	}
}
