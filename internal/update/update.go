// Package update replaces the local launcher script with the latest
// published copy.
package update

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	"golang.org/x/net/proxy"

	"github.com/mzeryck/widgetsched/internal/exporter"
	"github.com/mzeryck/widgetsched/pkg/logger"
)

const (
	// MarkerLines is how far into the download the marker must appear.
	MarkerLines = 5
	// DefaultMaxSize caps a launcher download when Updater.MaxSize is 0.
	DefaultMaxSize = 1 << 20
)

var (
	ErrUpdateFailed       = errors.New("update failed")
	ErrMarkerMissing      = errors.New("downloaded file is not a widgetsched launcher")
	ErrUnsupportedProxy   = errors.New("unsupported proxy scheme")
	ErrInvalidProxyURL    = errors.New("invalid proxy url")
	ErrUnexpectedResponse = errors.New("unexpected response")
	ErrTooLarge           = errors.New("download exceeds size limit")
)

type Updater struct {
	// URL serves the launcher source.
	URL string
	// Marker must appear within the first MarkerLines lines.
	Marker string
	// Dest is the launcher path inside Fs.
	Dest string
	Fs   afero.Fs
	// Client defaults to one built from Proxy.
	Client *http.Client
	Proxy  string
	// Progress receives the download bar. Nil disables it.
	Progress io.Writer
	// MaxSize bounds the download in bytes. Zero means DefaultMaxSize.
	MaxSize int64
	Timeout time.Duration
	Log     logger.Logger
}

// Update downloads URL and overwrites Dest. Every failure wraps
// ErrUpdateFailed and leaves Dest untouched.
func (u *Updater) Update(ctx context.Context) (int64, error) {
	n, err := u.update(ctx)
	if err != nil {
		u.log().Error("update from %s: %v", u.URL, err)
		return 0, fmt.Errorf("%w: %w", ErrUpdateFailed, err)
	}
	u.log().Info("updated %s (%d bytes)", u.Dest, n)
	return n, nil
}

func (u *Updater) log() logger.Logger {
	if u.Log == nil {
		return logger.NewNopLogger()
	}
	return u.Log
}

func (u *Updater) update(ctx context.Context) (int64, error) {
	if u.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, u.Timeout)
		defer cancel()
	}
	client := u.Client
	if client == nil {
		c, err := NewHTTPClient(u.Proxy)
		if err != nil {
			return 0, err
		}
		client = c
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.URL, nil)
	if err != nil {
		return 0, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("%w: %s", ErrUnexpectedResponse, resp.Status)
	}

	body, err := u.read(resp)
	if err != nil {
		return 0, err
	}
	if !HasMarker(body, u.Marker) {
		return 0, ErrMarkerMissing
	}
	if !bytes.Contains(body, []byte(exporter.ScheduleMarker)) {
		body = append(body, []byte("\n"+exporter.ScheduleMarker+"\n")...)
	}
	if err := u.Fs.MkdirAll(filepath.Dir(u.Dest), 0755); err != nil {
		return 0, err
	}
	if err := afero.WriteFile(u.Fs, u.Dest, body, 0644); err != nil {
		return 0, err
	}
	return int64(len(body)), nil
}

func (u *Updater) maxSize() int64 {
	if u.MaxSize > 0 {
		return u.MaxSize
	}
	return DefaultMaxSize
}

// read returns the response body, failing with ErrTooLarge once it grows
// past maxSize.
func (u *Updater) read(resp *http.Response) ([]byte, error) {
	limit := u.maxSize()
	if resp.ContentLength > limit {
		return nil, fmt.Errorf("%w: %d bytes", ErrTooLarge, resp.ContentLength)
	}
	b, err := u.readAll(resp, io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(b)) > limit {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, limit)
	}
	return b, nil
}

func (u *Updater) readAll(resp *http.Response, body io.Reader) ([]byte, error) {
	if u.Progress == nil {
		return io.ReadAll(body)
	}
	p := mpb.New(mpb.WithWidth(64), mpb.WithOutput(u.Progress))
	name := "Updating"
	bar := p.New(resp.ContentLength,
		mpb.BarStyle().Lbound("╢").Filler("█").Tip("█").Padding("░").Rbound("╟"),
		mpb.PrependDecorators(
			decor.Name(name, decor.WC{W: len(name) + 1, C: decor.DindentRight}),
			decor.OnComplete(decor.AverageETA(decor.ET_STYLE_GO, decor.WC{W: 4}), "Complete"),
		),
		mpb.AppendDecorators(
			decor.CountersKibiByte("% .2f / % .2f"),
		),
	)
	r := bar.ProxyReader(body)
	defer r.Close()
	b, err := io.ReadAll(r)
	if err != nil {
		bar.Abort(false)
	} else {
		// Content length may be unknown (-1).
		bar.SetTotal(-1, true)
	}
	p.Wait()
	return b, err
}

// HasMarker reports whether marker starts one of the first MarkerLines
// non-empty lines of src.
func HasMarker(src []byte, marker string) bool {
	if marker == "" {
		return true
	}
	sc := bufio.NewScanner(bytes.NewReader(src))
	for n := 0; n < MarkerLines && sc.Scan(); {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, marker) {
			return true
		}
		n++
	}
	return false
}

// NewHTTPClient returns a client using proxyURL, which may be empty or an
// http, https or socks5 URL.
func NewHTTPClient(proxyURL string) (*http.Client, error) {
	if proxyURL == "" {
		return &http.Client{}, nil
	}
	parsed, err := url.Parse(proxyURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, ErrInvalidProxyURL
	}
	transport := &http.Transport{}
	switch parsed.Scheme {
	case "http", "https":
		transport.Proxy = http.ProxyURL(parsed)
	case "socks5":
		var auth *proxy.Auth
		if parsed.User != nil {
			pass, _ := parsed.User.Password()
			auth = &proxy.Auth{User: parsed.User.Username(), Password: pass}
		}
		dialer, err := proxy.SOCKS5("tcp", parsed.Host, auth, proxy.Direct)
		if err != nil {
			return nil, err
		}
		cd, ok := dialer.(proxy.ContextDialer)
		if !ok {
			return nil, ErrUnsupportedProxy
		}
		transport.DialContext = cd.DialContext
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProxy, parsed.Scheme)
	}
	return &http.Client{Transport: transport}, nil
}
