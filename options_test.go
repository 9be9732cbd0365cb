package cubby

import (
	"testing"
	"time"
)

func TestNew_Defaults(t *testing.T) {
	d := New(nil)

	if d.expiry != DefaultPresignExpiry {
		t.Errorf("expiry: got %v, want %v", d.expiry, DefaultPresignExpiry)
	}
	if d.permissiveRename || d.noClobber {
		t.Error("strict rename and overwrite are the defaults")
	}
	if d.now == nil {
		t.Error("expected a clock")
	}
}

func TestWithPresignExpiry(t *testing.T) {
	d := New(nil, WithPresignExpiry(10*time.Minute))
	if d.PresignExpiry() != 10*time.Minute {
		t.Errorf("got %v", d.PresignExpiry())
	}

	d = New(nil, WithPresignExpiry(0), WithPresignExpiry(-time.Second))
	if d.PresignExpiry() != DefaultPresignExpiry {
		t.Errorf("non-positive expiry should be ignored, got %v", d.PresignExpiry())
	}
}

func TestWithPublicBaseURL(t *testing.T) {
	d := New(nil, WithPublicBaseURL("https://files.example.com/"))
	if d.publicBase != "https://files.example.com" {
		t.Errorf("trailing separator not trimmed: %q", d.publicBase)
	}
	if got := d.URL("a/b c.txt"); got != "https://files.example.com/a/b%20c.txt" {
		t.Errorf("URL = %q", got)
	}
}

func TestWithFlags(t *testing.T) {
	d := New(nil, WithPermissiveRename(), WithNoClobber())
	if !d.permissiveRename {
		t.Error("expected permissive rename")
	}
	if !d.noClobber {
		t.Error("expected no clobber")
	}
}

func TestWithClock(t *testing.T) {
	fixed := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	d := New(nil, WithClock(func() time.Time { return fixed }))
	if !d.now().Equal(fixed) {
		t.Errorf("clock not applied")
	}

	d = New(nil, WithClock(nil))
	if d.now == nil {
		t.Error("nil clock should be ignored")
	}
}
