// File: internal/capture/fakes_test.go
package capture

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/xkilldash9x/pagecap/api/schemas"
)

var fixedNow = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

var fakePNG = []byte("\x89PNG\r\n\x1a\nfake")

// fakePage records every call and fails the steps it is told to fail.
type fakePage struct {
	mu sync.Mutex

	navigateErr   error
	waitErr       error
	fillErr       map[string]error
	clickErr      error
	sleepErr      error
	screenshotErr error

	calls       []string
	deadlines   map[string]bool
	settle      time.Duration
	screenshots int
}

func newFakePage() *fakePage {
	return &fakePage{fillErr: map[string]error{}, deadlines: map[string]bool{}}
}

func (p *fakePage) note(ctx context.Context, call string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, call)
	_, has := ctx.Deadline()
	p.deadlines[call] = has
}

func (p *fakePage) ID() string { return "page-1" }

func (p *fakePage) Navigate(ctx context.Context, url string) error {
	p.note(ctx, "navigate "+url)
	if p.navigateErr != nil {
		return p.navigateErr
	}
	return ctx.Err()
}

func (p *fakePage) WaitForSelector(ctx context.Context, selector string) error {
	p.note(ctx, "wait "+selector)
	return p.waitErr
}

func (p *fakePage) Fill(ctx context.Context, selector, value string) error {
	p.note(ctx, "fill "+selector+"="+value)
	return p.fillErr[selector]
}

func (p *fakePage) ClickAndWaitForNavigation(ctx context.Context, selector string) error {
	p.note(ctx, "click "+selector)
	return p.clickErr
}

func (p *fakePage) Sleep(ctx context.Context, d time.Duration) error {
	p.note(ctx, "sleep")
	p.settle = d
	if p.sleepErr != nil {
		return p.sleepErr
	}
	return ctx.Err()
}

func (p *fakePage) FullScreenshot(ctx context.Context) ([]byte, error) {
	p.note(ctx, "screenshot")
	p.mu.Lock()
	p.screenshots++
	p.mu.Unlock()
	if p.screenshotErr != nil {
		return nil, p.screenshotErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return fakePNG, nil
}

// fakeSessions counts opens and closes.
type fakeSessions struct {
	page    *fakePage
	openErr error

	opens         int
	closes        int
	closeCtxErr   error
	closeDeadline bool
}

func (s *fakeSessions) Open(ctx context.Context) (schemas.Page, error) {
	s.opens++
	if s.openErr != nil {
		return nil, s.openErr
	}
	return s.page, nil
}

func (s *fakeSessions) Close(ctx context.Context, page schemas.Page) {
	s.closes++
	s.closeCtxErr = ctx.Err()
	_, s.closeDeadline = ctx.Deadline()
}

type putCall struct {
	Bucket      string
	Key         string
	Body        []byte
	ContentType string
}

// fakeStore records puts and fails keys matched by failKey.
type fakeStore struct {
	puts    []putCall
	failKey func(key string) error
}

func (s *fakeStore) Scheme() string { return "store" }

func (s *fakeStore) Put(ctx context.Context, bucket, key string, body []byte, contentType string) error {
	s.puts = append(s.puts, putCall{Bucket: bucket, Key: key, Body: body, ContentType: contentType})
	if s.failKey != nil {
		return s.failKey(key)
	}
	return nil
}

type fakeRecorder struct {
	records []schemas.CaptureRecord
	err     error
}

func (r *fakeRecorder) RecordCapture(ctx context.Context, rec schemas.CaptureRecord) error {
	r.records = append(r.records, rec)
	return r.err
}

func validRequest() *schemas.CaptureRequest {
	return &schemas.CaptureRequest{
		TargetURL:   "https://app.example.com/login",
		Credentials: schemas.Credentials{Username: "u", Password: "p"},
		Bucket:      "shots",
		Prefix:      "captures/",
		Timeouts:    schemas.DefaultTimeouts(),
	}
}

var errBoom = errors.New("boom")
