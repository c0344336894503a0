package update

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/spf13/afero"

	"github.com/mzeryck/widgetsched/internal/exporter"
)

const marker = "// widgetsched launcher"

func serve(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newUpdater(fs afero.Fs, url string) *Updater {
	return &Updater{URL: url, Marker: marker, Dest: "/docs/Widget Schedule.js", Fs: fs}
}

func TestUpdateWritesLauncher(t *testing.T) {
	body := marker + "\n" + exporter.ScheduleMarker + "\nprint('hi')\n"
	srv := serve(t, http.StatusOK, body)
	fs := afero.NewMemMapFs()
	u := newUpdater(fs, srv.URL)
	u.Progress = io.Discard

	n, err := u.Update(context.Background())
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if n != int64(len(body)) {
		t.Errorf("n = %d, want %d", n, len(body))
	}
	got, err := afero.ReadFile(fs, u.Dest)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != body {
		t.Errorf("launcher = %q", got)
	}
}

func TestUpdateAddsScheduleMarker(t *testing.T) {
	srv := serve(t, http.StatusOK, marker+"\nprint('hi')\n")
	fs := afero.NewMemMapFs()
	u := newUpdater(fs, srv.URL)
	if _, err := u.Update(context.Background()); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, _ := afero.ReadFile(fs, u.Dest)
	if !bytes.Contains(got, []byte(exporter.ScheduleMarker)) {
		t.Errorf("launcher lacks schedule marker: %q", got)
	}
}

func TestUpdateFailuresLeaveLauncher(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"no marker", http.StatusOK, "print('evil')\n", ErrMarkerMissing},
		{"marker too late", http.StatusOK, strings.Repeat("x\n", MarkerLines+1) + marker, ErrMarkerMissing},
		{"not found", http.StatusNotFound, "", ErrUnexpectedResponse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := serve(t, tt.status, tt.body)
			fs := afero.NewMemMapFs()
			u := newUpdater(fs, srv.URL)
			afero.WriteFile(fs, u.Dest, []byte("old"), 0644)

			_, err := u.Update(context.Background())
			if !errors.Is(err, ErrUpdateFailed) || !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v wrapped in ErrUpdateFailed", err, tt.want)
			}
			got, _ := afero.ReadFile(fs, u.Dest)
			if string(got) != "old" {
				t.Errorf("launcher changed to %q", got)
			}
		})
	}
}

func TestUpdateRejectsOversizedBody(t *testing.T) {
	body := marker + "\n" + strings.Repeat("x", 256)
	handlers := map[string]http.HandlerFunc{
		"content length": func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, body)
		},
		"streamed": func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, body[:16])
			w.(http.Flusher).Flush()
			io.WriteString(w, body[16:])
		},
	}
	for name, h := range handlers {
		for _, progress := range []io.Writer{nil, io.Discard} {
			t.Run(name, func(t *testing.T) {
				srv := httptest.NewServer(h)
				defer srv.Close()
				fs := afero.NewMemMapFs()
				u := newUpdater(fs, srv.URL)
				u.MaxSize = 64
				u.Progress = progress
				afero.WriteFile(fs, u.Dest, []byte("old"), 0644)

				if _, err := u.Update(context.Background()); !errors.Is(err, ErrTooLarge) {
					t.Fatalf("err = %v, want ErrTooLarge", err)
				}
				got, _ := afero.ReadFile(fs, u.Dest)
				if string(got) != "old" {
					t.Errorf("launcher changed to %q", got)
				}
			})
		}
	}
}

func TestUpdateCancelled(t *testing.T) {
	srv := serve(t, http.StatusOK, marker)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newUpdater(afero.NewMemMapFs(), srv.URL).Update(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestHasMarker(t *testing.T) {
	tests := []struct {
		src  string
		want bool
	}{
		{marker + "\ncode", true},
		{"\n\n  " + marker + " v2\n", true},
		{"// other\n" + marker, true},
		{"code\n", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := HasMarker([]byte(tt.src), marker); got != tt.want {
			t.Errorf("HasMarker(%q) = %v, want %v", tt.src, got, tt.want)
		}
	}
	if !HasMarker(nil, "") {
		t.Error("empty marker should always match")
	}
}

func TestNewHTTPClient(t *testing.T) {
	for _, p := range []string{"", "http://127.0.0.1:8080", "socks5://user:pw@127.0.0.1:1080"} {
		if _, err := NewHTTPClient(p); err != nil {
			t.Errorf("NewHTTPClient(%q): %v", p, err)
		}
	}
	if _, err := NewHTTPClient("ftp://host"); !errors.Is(err, ErrUnsupportedProxy) {
		t.Errorf("ftp proxy err = %v", err)
	}
	if _, err := NewHTTPClient("not a url"); !errors.Is(err, ErrInvalidProxyURL) {
		t.Errorf("bad url err = %v", err)
	}
}

func TestLauncherIsHiddenFromWidgets(t *testing.T) {
	fs := afero.NewMemMapFs()
	afero.WriteFile(fs, "/docs/Widget Schedule.js", Launcher(marker, "Widget Schedule"), 0644)
	afero.WriteFile(fs, "/docs/Clock.js", []byte("return 1"), 0644)

	src := Launcher(marker, "Widget Schedule")
	if !HasMarker(src, marker) {
		t.Error("launcher lacks update marker")
	}
	ws, err := exporter.NewDirSources(fs, "/docs").List()
	if err != nil {
		t.Fatal(err)
	}
	if len(ws) != 1 || ws[0].Name != "Clock" {
		t.Errorf("widgets = %+v", ws)
	}
}
