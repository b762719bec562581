package backends

import "testing"

func TestNewRegistry(t *testing.T) {
	got := NewRegistry().List()
	want := []string{"assemblyai", "azure", "deepgram", "gemini", "openai", "whisper"}
	if len(got) != len(want) {
		t.Fatalf("List() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("List()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
