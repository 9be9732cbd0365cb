package memory

import (
	"context"
	"errors"
	"io"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/zoobzio/cubby"
)

func put(t *testing.T, p *Provider, key, body string) {
	t.Helper()
	err := p.Put(context.Background(), key, strings.NewReader(body), &cubby.ObjectInfo{
		ContentType: "text/plain",
		Size:        int64(len(body)),
	})
	if err != nil {
		t.Fatalf("Put %q failed: %v", key, err)
	}
}

func TestProvider_PutGetHead(t *testing.T) {
	p := New()
	ctx := context.Background()
	put(t, p, "a.txt", "hello")

	rc, info, err := p.Get(ctx, "a.txt")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	data, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(data) != "hello" {
		t.Errorf("unexpected body %q", string(data))
	}
	if info.Size != 5 || info.ContentType != "text/plain" || info.ETag != "5d41402abc4b2a76b9719d911017c592" {
		t.Errorf("unexpected info %+v", info)
	}

	head, err := p.Head(ctx, "a.txt")
	if err != nil {
		t.Fatalf("Head failed: %v", err)
	}
	if head.ETag != info.ETag {
		t.Errorf("etag mismatch %q vs %q", head.ETag, info.ETag)
	}

	if _, _, err := p.Get(ctx, "missing"); !errors.Is(err, cubby.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := p.Head(ctx, "missing"); !errors.Is(err, cubby.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestProvider_PutOversizedDeclaredSize(t *testing.T) {
	p := New()
	ctx := context.Background()
	err := p.Put(ctx, "big.bin", strings.NewReader("x"), &cubby.ObjectInfo{Size: 1 << 62})
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	info, err := p.Head(ctx, "big.bin")
	if err != nil {
		t.Fatalf("Head failed: %v", err)
	}
	if info.Size != 1 {
		t.Errorf("expected stored size 1, got %d", info.Size)
	}
}

func TestProvider_DeleteCopy(t *testing.T) {
	p := New()
	ctx := context.Background()
	put(t, p, "a.txt", "hello")

	if err := p.Copy(ctx, "a.txt", "b.txt"); err != nil {
		t.Fatalf("Copy failed: %v", err)
	}
	if !p.Has("a.txt") || !p.Has("b.txt") {
		t.Fatalf("unexpected keys %v", p.Keys())
	}
	info, _ := p.Head(ctx, "b.txt")
	if info.ContentType != "text/plain" {
		t.Errorf("content type not copied: %q", info.ContentType)
	}

	if err := p.Delete(ctx, "a.txt"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := p.Delete(ctx, "a.txt"); !errors.Is(err, cubby.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := p.Copy(ctx, "a.txt", "c.txt"); !errors.Is(err, cubby.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestProvider_ListDelimiter(t *testing.T) {
	p := New()
	ctx := context.Background()
	for _, k := range []string{"root.txt", "photos/", "photos/a.jpg", "photos/2024/b.jpg", "docs/c.txt"} {
		put(t, p, k, "x")
	}

	listing, err := p.List(ctx, "", "/")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if got := strings.Join(listing.CommonPrefixes, ","); got != "docs/,photos/" {
		t.Errorf("unexpected prefixes %q", got)
	}
	if len(listing.Objects) != 1 || listing.Objects[0].Key != "root.txt" {
		t.Errorf("unexpected objects %+v", listing.Objects)
	}

	listing, err = p.List(ctx, "photos/", "/")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if got := strings.Join(listing.CommonPrefixes, ","); got != "photos/2024/" {
		t.Errorf("unexpected prefixes %q", got)
	}
	if len(listing.Objects) != 2 || listing.Objects[0].Key != "photos/" || listing.Objects[1].Key != "photos/a.jpg" {
		t.Errorf("marker is listed as an object, got %+v", listing.Objects)
	}

	flat, err := p.List(ctx, "photos/", "")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(flat.Objects) != 3 || len(flat.CommonPrefixes) != 0 {
		t.Errorf("unexpected recursive listing %+v", flat)
	}
}

func TestProvider_FailOn(t *testing.T) {
	p := New()
	ctx := context.Background()
	put(t, p, "a.txt", "x")
	put(t, p, "b.txt", "x")

	boom := errors.New("boom")
	p.FailOn(OpDelete, "a.txt", boom)

	if err := p.Delete(ctx, "a.txt"); !errors.Is(err, boom) {
		t.Errorf("expected injected error, got %v", err)
	}
	if err := p.Delete(ctx, "b.txt"); err != nil {
		t.Errorf("other keys unaffected, got %v", err)
	}

	p.FailOn(OpHead, "", cubby.ErrTransient)
	if _, err := p.Head(ctx, "anything"); !errors.Is(err, cubby.ErrTransient) {
		t.Errorf("empty key should match all, got %v", err)
	}

	p.ClearFaults()
	if err := p.Delete(ctx, "a.txt"); err != nil {
		t.Errorf("faults should be cleared, got %v", err)
	}
}

func TestProvider_ContextCanceled(t *testing.T) {
	p := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := p.Put(ctx, "a", strings.NewReader("x"), nil); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if _, err := p.List(ctx, "", "/"); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestProvider_PresignVerify(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	p := New(
		WithSecret([]byte("secret")),
		WithBaseURL("https://files.example.com/"),
		WithClock(func() time.Time { return now }),
	)
	ctx := context.Background()

	raw, err := p.Presign(ctx, "docs/a b.txt", cubby.MethodPut, time.Minute)
	if err != nil {
		t.Fatalf("Presign failed: %v", err)
	}
	if !strings.HasPrefix(raw, "https://files.example.com/blob/docs/a%20b.txt?") {
		t.Errorf("unexpected url %q", raw)
	}

	u, _ := url.Parse(raw)
	q := u.Query()
	if err := p.Verify(cubby.MethodPut, "docs/a b.txt", q); err != nil {
		t.Errorf("expected valid, got %v", err)
	}
	if err := p.Verify(cubby.MethodGet, "docs/a b.txt", q); !errors.Is(err, ErrSignatureInvalid) {
		t.Errorf("method must be bound, got %v", err)
	}

	tampered := url.Values{}
	for k, v := range q {
		tampered[k] = v
	}
	tampered.Set(ParamExpires, "99999999999")
	if err := p.Verify(cubby.MethodPut, "docs/a b.txt", tampered); !errors.Is(err, ErrSignatureInvalid) {
		t.Errorf("expiry must be signed, got %v", err)
	}

	other := New(WithSecret([]byte("other")), WithClock(func() time.Time { return now }))
	if err := other.Verify(cubby.MethodPut, "docs/a b.txt", q); !errors.Is(err, ErrSignatureInvalid) {
		t.Errorf("secret must be bound, got %v", err)
	}

	now = now.Add(time.Minute)
	err = p.Verify(cubby.MethodPut, "docs/a b.txt", q)
	if !errors.Is(err, ErrURLExpired) || !errors.Is(err, cubby.ErrPermission) {
		t.Errorf("expected expiry wrapping ErrPermission, got %v", err)
	}
	if !IsVerifyError(err) {
		t.Error("IsVerifyError should recognise expiry")
	}

	if _, err := p.Presign(ctx, "k", "DELETE", time.Minute); !errors.Is(err, cubby.ErrUnsupportedMethod) {
		t.Errorf("expected ErrUnsupportedMethod, got %v", err)
	}
}

func TestProvider_URL(t *testing.T) {
	p := New()
	if got := p.URL("a/b c"); got != "http://localhost:8080/blob/a/b%20c" {
		t.Errorf("URL = %q", got)
	}
}
