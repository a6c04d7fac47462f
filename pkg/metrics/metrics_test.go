// Copyright 2025 Certen Protocol

package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
)

func TestObserveTxIncrementsLabeledCounter(t *testing.T) {
	r, reg := NewRegistry()
	r.ObserveTx(true)
	r.ObserveTx(false)
	r.ObserveTx(true)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	Handler(reg).ServeHTTP(rec, req)

	body := rec.Body.String()
	if !strings.Contains(body, `validatord_transactions_total{outcome="accepted"} 2`) {
		t.Fatalf("expected accepted counter of 2 in output, got:\n%s", body)
	}
	if !strings.Contains(body, `validatord_transactions_total{outcome="rejected"} 1`) {
		t.Fatalf("expected rejected counter of 1 in output, got:\n%s", body)
	}
}

func TestGaugesReportSetValues(t *testing.T) {
	r, reg := NewRegistry()
	r.Height.Set(42)
	r.Validators.Set(4)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	Handler(reg).ServeHTTP(rec, req)

	body := rec.Body.String()
	if !strings.Contains(body, "validatord_height 42") {
		t.Fatalf("expected height gauge of 42 in output, got:\n%s", body)
	}
	if !strings.Contains(body, "validatord_validators 4") {
		t.Fatalf("expected validators gauge of 4 in output, got:\n%s", body)
	}
}
