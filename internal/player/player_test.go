package player

import (
	"bytes"
	"reflect"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	tests := map[string]string{
		"mpv":       "mpv",
		"vlc":       "vlc",
		"iina":      "iina",
		"celluloid": "celluloid",
		"unknown":   "mpv",
	}
	for name, want := range tests {
		if got := New(name).Name(); got != want {
			t.Errorf("New(%q).Name() = %q, want %q", name, got, want)
		}
	}
}

func TestArgsKeepPathLiteral(t *testing.T) {
	// A file name that looks like a flag must stay a positional argument.
	path := "/music/--script=evil.lua - Song.mp3"
	title := "Band - Song; rm -rf ~"

	mpv := (&MPV{}).args(path, title, "/tmp/sock", 0)
	want := []string{"--no-video", "--force-media-title=" + title, "--input-ipc-server=/tmp/sock", "--", path}
	if !reflect.DeepEqual(mpv, want) {
		t.Errorf("mpv args = %q, want %q", mpv, want)
	}

	vlc := (&VLC{}).args(path, title, 0)
	if vlc[len(vlc)-2] != "--" || vlc[len(vlc)-1] != path {
		t.Errorf("vlc args should end with -- <path>: %q", vlc)
	}

	generic := (&Generic{name: "iina"}).args(path, title, 0)
	if generic[len(generic)-2] != "--" || generic[len(generic)-1] != path {
		t.Errorf("generic args should end with -- <path>: %q", generic)
	}
}

func TestArgsStartPosition(t *testing.T) {
	path := "/music/Band - Song.mp3"

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"mpv", (&MPV{}).args(path, "t", "/tmp/sock", 90.4), "--start=+90"},
		{"vlc", (&VLC{}).args(path, "t", 90.4), "--start-time=90"},
		{"generic", (&Generic{name: "celluloid"}).args(path, "t", 90.4), "--start=+90"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := len(tt.args)
			if tt.args[n-3] != tt.want {
				t.Errorf("args = %q, want %q before -- <path>", tt.args, tt.want)
			}
			if tt.args[n-2] != "--" || tt.args[n-1] != path {
				t.Errorf("args should end with -- <path>: %q", tt.args)
			}
		})
	}
}

// fakeConn replays canned mpv IPC output and records what was written.
type fakeConn struct {
	in  *strings.Reader
	out bytes.Buffer
}

func (c *fakeConn) Read(p []byte) (int, error)  { return c.in.Read(p) }
func (c *fakeConn) Write(p []byte) (int, error) { return c.out.Write(p) }

func TestReadPosition(t *testing.T) {
	conn := &fakeConn{in: strings.NewReader(
		`{"request_id":100,"error":"success"}` + "\n" +
			`{"event":"property-change","id":1,"name":"time-pos","data":12.5}` + "\n" +
			"garbage\n" +
			`{"event":"property-change","id":1,"name":"time-pos","data":42.25}` + "\n" +
			`{"event":"property-change","id":1,"name":"time-pos","data":null}` + "\n",
	)}

	if got := readPosition(conn); got != 42.25 {
		t.Errorf("readPosition() = %v, want 42.25", got)
	}
	if !strings.Contains(conn.out.String(), `"observe_property"`) {
		t.Errorf("observe command not sent: %q", conn.out.String())
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		seconds float64
		want    string
	}{
		{0, "0:00"},
		{59.9, "0:59"},
		{213, "3:33"},
		{3661, "1:01:01"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.seconds); got != tt.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}
