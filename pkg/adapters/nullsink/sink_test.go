package nullsink

import (
	"testing"

	"github.com/user/mediaplay/pkg/media"
)

func TestSink_Counts(t *testing.T) {
	s := New()
	f := &media.Frame{}
	for i := int64(0); i < 3; i++ {
		f.Timestamp = i * 40
		if err := s.OnFrame(f); err != nil {
			t.Fatalf("OnFrame failed: %v", err)
		}
	}
	if s.Frames() != 3 {
		t.Errorf("expected 3 frames, got %d", s.Frames())
	}
	if s.LastTimestamp() != 80 {
		t.Errorf("expected last timestamp 80, got %d", s.LastTimestamp())
	}
}
