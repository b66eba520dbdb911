package httpapi

import (
	"testing"
	"time"
)

func TestSetMaxBodyBytes_DefaultWhenNonPositive(t *testing.T) {
	SetMaxBodyBytes(-1)
	if maxBodyBytes != 1<<20 {
		t.Fatalf("expected default 1MiB, got %d", maxBodyBytes)
	}
	SetMaxBodyBytes(0)
	if maxBodyBytes != 1<<20 {
		t.Fatalf("expected default 1MiB on zero, got %d", maxBodyBytes)
	}
}

func TestSetMaxBodyBytes_PositiveSetsValue(t *testing.T) {
	SetMaxBodyBytes(1234)
	defer SetMaxBodyBytes(0)
	if maxBodyBytes != 1234 {
		t.Fatalf("expected 1234, got %d", maxBodyBytes)
	}
}

func TestSetPredictTimeout_NormalizesNegativeToZero(t *testing.T) {
	SetPredictTimeout(-5 * time.Second)
	if predictTimeout != 0 {
		t.Fatalf("expected 0, got %s", predictTimeout)
	}
	SetPredictTimeout(3 * time.Second)
	defer SetPredictTimeout(0)
	if predictTimeout != 3*time.Second {
		t.Fatalf("expected 3s, got %s", predictTimeout)
	}
}

func TestCORSOptions_Defaults(t *testing.T) {
	SetCORSOptions(true, []string{"*"}, nil, nil)
	defer SetCORSOptions(false, nil, nil, nil)
	o := corsOptions()
	if len(o.AllowedMethods) != 4 || len(o.AllowedHeaders) == 0 {
		t.Fatalf("unexpected defaults: %+v", o)
	}
	SetCORSOptions(true, []string{"*"}, []string{"GET"}, []string{"X-Custom"})
	o = corsOptions()
	if len(o.AllowedMethods) != 1 || o.AllowedHeaders[0] != "X-Custom" {
		t.Fatalf("explicit options ignored: %+v", o)
	}
}
