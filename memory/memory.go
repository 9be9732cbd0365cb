// Package memory provides an in-process cubby BucketProvider.
// It mirrors S3 listing semantics, supports per-operation fault injection
// and issues HMAC-signed URLs that it can verify itself.
package memory

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/md5" //nolint:gosec // ETag parity with S3, not a security boundary
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/zoobzio/cubby"
)

// Op names a provider operation for fault injection.
type Op string

// Provider operations.
const (
	OpPut     Op = "put"
	OpGet     Op = "get"
	OpHead    Op = "head"
	OpDelete  Op = "delete"
	OpCopy    Op = "copy"
	OpList    Op = "list"
	OpPresign Op = "presign"
)

// Errors returned by Verify. Both wrap cubby.ErrPermission.
var (
	ErrSignatureInvalid = fmt.Errorf("%w: signature does not match", cubby.ErrPermission)
	ErrURLExpired       = fmt.Errorf("%w: url expired", cubby.ErrPermission)
)

// Query parameters carried by signed URLs.
const (
	ParamMethod    = "method"
	ParamExpires   = "expires"
	ParamSignature = "signature"
)

// BlobPath is the path under BaseURL that signed URLs point at.
const BlobPath = "/blob/"

const maxPrealloc = 1 << 20

type object struct {
	data         []byte
	contentType  string
	etag         string
	lastModified time.Time
	metadata     map[string]string
}

type fault struct {
	key string
	err error
}

// Provider implements cubby.BucketProvider in memory.
type Provider struct {
	objects map[string]*object
	faults  map[Op][]fault
	secret  []byte
	baseURL string
	now     func() time.Time
	mu      sync.RWMutex
}

// Option configures a Provider.
type Option func(*Provider)

// WithSecret sets the HMAC key used for signed URLs.
// A random key is generated when unset.
func WithSecret(secret []byte) Option {
	return func(p *Provider) {
		p.secret = secret
	}
}

// WithBaseURL sets the origin that signed and public URLs are built on.
func WithBaseURL(base string) Option {
	return func(p *Provider) {
		p.baseURL = strings.TrimSuffix(base, "/")
	}
}

// WithClock overrides the time source for LastModified and URL expiry.
func WithClock(now func() time.Time) Option {
	return func(p *Provider) {
		p.now = now
	}
}

// New creates an empty in-memory provider.
func New(opts ...Option) *Provider {
	p := &Provider{
		objects: make(map[string]*object),
		faults:  make(map[Op][]fault),
		baseURL: "http://localhost:8080",
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	if len(p.secret) == 0 {
		p.secret = make([]byte, 32)
		_, _ = rand.Read(p.secret)
	}
	return p
}

// FailOn makes op return err. An empty key matches every key; otherwise
// only calls addressing key fail (the source key for Copy).
func (p *Provider) FailOn(op Op, key string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.faults[op] = append(p.faults[op], fault{key: key, err: err})
}

// ClearFaults removes every injected fault.
func (p *Provider) ClearFaults() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.faults = make(map[Op][]fault)
}

// Keys returns every stored key in order.
func (p *Provider) Keys() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	keys := make([]string, 0, len(p.objects))
	for k := range p.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Has reports whether key is stored.
func (p *Provider) Has(key string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.objects[key]
	return ok
}

// faultFor must be called with p.mu held.
func (p *Provider) faultFor(op Op, key string) error {
	for _, f := range p.faults[op] {
		if f.key == "" || f.key == key {
			return f.err
		}
	}
	return nil
}

// Put stores body at key.
func (p *Provider) Put(ctx context.Context, key string, body io.Reader, info *cubby.ObjectInfo) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	// info.Size is caller-declared; only a bounded prefix is preallocated.
	var buf bytes.Buffer
	if info != nil && info.Size > 0 {
		buf.Grow(int(min(info.Size, maxPrealloc)))
	}
	if body != nil {
		if _, err := io.Copy(&buf, body); err != nil {
			return fmt.Errorf("read object body: %w", err)
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.faultFor(OpPut, key); err != nil {
		return err
	}

	obj := &object{
		data:         buf.Bytes(),
		lastModified: p.now(),
	}
	sum := md5.Sum(obj.data) //nolint:gosec // see import
	obj.etag = hex.EncodeToString(sum[:])
	if info != nil {
		obj.contentType = info.ContentType
		obj.metadata = copyMap(info.Metadata)
	}
	p.objects[key] = obj
	return nil
}

// Get returns a reader over a snapshot of the object at key.
func (p *Provider) Get(ctx context.Context, key string) (io.ReadCloser, *cubby.ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if err := p.faultFor(OpGet, key); err != nil {
		return nil, nil, err
	}
	obj, ok := p.objects[key]
	if !ok {
		return nil, nil, cubby.ErrNotFound
	}
	data := make([]byte, len(obj.data))
	copy(data, obj.data)
	info := obj.info(key)
	return io.NopCloser(bytes.NewReader(data)), &info, nil
}

// Head returns metadata for the object at key.
func (p *Provider) Head(ctx context.Context, key string) (*cubby.ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if err := p.faultFor(OpHead, key); err != nil {
		return nil, err
	}
	obj, ok := p.objects[key]
	if !ok {
		return nil, cubby.ErrNotFound
	}
	info := obj.info(key)
	return &info, nil
}

// Delete removes the object at key.
func (p *Provider) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.faultFor(OpDelete, key); err != nil {
		return err
	}
	if _, ok := p.objects[key]; !ok {
		return cubby.ErrNotFound
	}
	delete(p.objects, key)
	return nil
}

// Copy duplicates src to dst.
func (p *Provider) Copy(ctx context.Context, src, dst string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.faultFor(OpCopy, src); err != nil {
		return err
	}
	obj, ok := p.objects[src]
	if !ok {
		return cubby.ErrNotFound
	}
	data := make([]byte, len(obj.data))
	copy(data, obj.data)
	p.objects[dst] = &object{
		data:         data,
		contentType:  obj.contentType,
		etag:         obj.etag,
		lastModified: p.now(),
		metadata:     copyMap(obj.metadata),
	}
	return nil
}

// List groups keys under prefix at the first delimiter, as S3 does.
// A key equal to prefix is returned as an object.
func (p *Provider) List(ctx context.Context, prefix, delimiter string) (*cubby.Listing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if err := p.faultFor(OpList, prefix); err != nil {
		return nil, err
	}

	listing := &cubby.Listing{}
	prefixes := make(map[string]struct{})
	for key, obj := range p.objects {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		rest := key[len(prefix):]
		if delimiter != "" {
			if i := strings.Index(rest, delimiter); i >= 0 {
				prefixes[prefix+rest[:i+len(delimiter)]] = struct{}{}
				continue
			}
		}
		listing.Objects = append(listing.Objects, obj.info(key))
	}
	for cp := range prefixes {
		listing.CommonPrefixes = append(listing.CommonPrefixes, cp)
	}
	sort.Strings(listing.CommonPrefixes)
	sort.Slice(listing.Objects, func(i, j int) bool { return listing.Objects[i].Key < listing.Objects[j].Key })
	return listing, nil
}

// Presign returns a URL under BaseURL + BlobPath signed for method and key.
func (p *Provider) Presign(ctx context.Context, key, method string, expiry time.Duration) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if method != cubby.MethodGet && method != cubby.MethodPut {
		return "", fmt.Errorf("%w: %s", cubby.ErrUnsupportedMethod, method)
	}
	p.mu.RLock()
	err := p.faultFor(OpPresign, key)
	p.mu.RUnlock()
	if err != nil {
		return "", err
	}

	expires := p.now().Add(expiry).Unix()
	q := url.Values{}
	q.Set(ParamMethod, method)
	q.Set(ParamExpires, strconv.FormatInt(expires, 10))
	q.Set(ParamSignature, p.sign(method, key, expires))
	return p.baseURL + BlobPath + cubby.EscapeKey(key) + "?" + q.Encode(), nil
}

// Verify checks that query authorizes method on key at the current time.
func (p *Provider) Verify(method, key string, query url.Values) error {
	if query.Get(ParamMethod) != method {
		return ErrSignatureInvalid
	}
	expires, err := strconv.ParseInt(query.Get(ParamExpires), 10, 64)
	if err != nil {
		return ErrSignatureInvalid
	}
	want := p.sign(method, key, expires)
	if !hmac.Equal([]byte(want), []byte(query.Get(ParamSignature))) {
		return ErrSignatureInvalid
	}
	if !p.now().Before(time.Unix(expires, 0)) {
		return ErrURLExpired
	}
	return nil
}

// URL returns the unsigned blob URL for key.
func (p *Provider) URL(key string) string {
	return p.baseURL + BlobPath + cubby.EscapeKey(key)
}

func (p *Provider) sign(method, key string, expires int64) string {
	mac := hmac.New(sha256.New, p.secret)
	_, _ = io.WriteString(mac, method+"\n"+key+"\n"+strconv.FormatInt(expires, 10))
	return hex.EncodeToString(mac.Sum(nil))
}

func (o *object) info(key string) cubby.ObjectInfo {
	return cubby.ObjectInfo{
		Key:          key,
		ContentType:  o.contentType,
		Size:         int64(len(o.data)),
		ETag:         o.etag,
		LastModified: o.lastModified,
		Metadata:     copyMap(o.metadata),
	}
}

func copyMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// IsVerifyError reports whether err came from Verify.
func IsVerifyError(err error) bool {
	return errors.Is(err, ErrSignatureInvalid) || errors.Is(err, ErrURLExpired)
}

// Ensure Provider implements cubby.BucketProvider.
var _ cubby.BucketProvider = (*Provider)(nil)
