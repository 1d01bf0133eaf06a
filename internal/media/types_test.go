package media

import (
	"encoding/json"
	"testing"
)

func TestResultJSONSuccess(t *testing.T) {
	size := int64(4096)
	r := Succeeded("Artist - Song.mp3", &Track{Title: "Song", Artist: "Artist", Duration: 213}, &size)

	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}

	want := `{"success":true,"filename":"Artist - Song.mp3","title":"Song","artist":"Artist","duration":213,"file_size":4096}`
	if string(data) != want {
		t.Errorf("got %s, want %s", data, want)
	}
}

func TestResultJSONSuccessWithoutSize(t *testing.T) {
	r := Succeeded("a.mp3", Placeholder(), nil)

	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}

	want := `{"success":true,"filename":"a.mp3","title":"Unknown Title","artist":"Unknown Artist","duration":0}`
	if string(data) != want {
		t.Errorf("got %s, want %s", data, want)
	}
}

func TestResultJSONFailure(t *testing.T) {
	tests := []struct {
		name   string
		result Result
		want   string
	}{
		{"no trace", Failed("boom", ""), `{"success":false,"error":"boom"}`},
		{"with trace", Failed("boom", "line1\nline2"), `{"success":false,"error":"boom","traceback":"line1\nline2"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.result)
			if err != nil {
				t.Fatalf("Marshal() error: %v", err)
			}
			if string(data) != tt.want {
				t.Errorf("got %s, want %s", data, tt.want)
			}
		})
	}
}

func TestTrackNormalize(t *testing.T) {
	tr := &Track{Duration: -5}
	tr.Normalize()

	if tr.Title != UnknownTitle {
		t.Errorf("Title = %q, want %q", tr.Title, UnknownTitle)
	}
	if tr.Artist != UnknownArtist {
		t.Errorf("Artist = %q, want %q", tr.Artist, UnknownArtist)
	}
	if tr.Duration != 0 {
		t.Errorf("Duration = %d, want 0", tr.Duration)
	}
}
