package observability

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/danmuck/simwire/internal/testutil/testlog"
)

func TestRegisterMetricsAndRecordersAreSafe(t *testing.T) {
	testlog.Start(t)

	RegisterMetrics()
	RegisterMetrics()

	RecordLifecycleHandled("entry")
	RecordLifecycleDropped(DropProtocolRange)
	RecordChannelConflict()
	RecordClockCorrection("bounded", -60)
}

func TestHandlerExposesCollectors(t *testing.T) {
	testlog.Start(t)

	RecordLifecycleDropped(DropDuplicate)
	RecordClockCorrection("full", 3)

	srv := httptest.NewServer(Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("scrape: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("scrape status=%d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	for _, want := range []string{
		`simwire_lifecycle_dropped_total{reason="duplicate"}`,
		`simwire_clock_corrections_total{mode="full"}`,
		`simwire_clock_delta_ticks_bucket`,
	} {
		if !strings.Contains(string(body), want) {
			t.Fatalf("scrape missing %q", want)
		}
	}
}

func TestRequestLoggerKeepsStatus(t *testing.T) {
	testlog.Start(t)

	h := RequestLogger(Component("test"), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/brew", nil))
	if rec.Code != http.StatusTeapot {
		t.Fatalf("status=%d", rec.Code)
	}
	if rec.Body.String() != "short and stout" {
		t.Fatalf("body=%q", rec.Body.String())
	}
}
