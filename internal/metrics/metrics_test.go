package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordAPIRequestLabels(t *testing.T) {
	before := testutil.ToFloat64(apiRequestsTotal.WithLabelValues("list_media", "200"))
	RecordAPIRequest("list_media", 200, 10*time.Millisecond)
	after := testutil.ToFloat64(apiRequestsTotal.WithLabelValues("list_media", "200"))
	if after-before != 1 {
		t.Errorf("list_media/200 delta = %v, want 1", after-before)
	}

	before = testutil.ToFloat64(apiRequestsTotal.WithLabelValues("list_media", "transport_error"))
	RecordAPIRequest("list_media", 0, time.Millisecond)
	after = testutil.ToFloat64(apiRequestsTotal.WithLabelValues("list_media", "transport_error"))
	if after-before != 1 {
		t.Errorf("transport_error delta = %v, want 1", after-before)
	}
}

func TestRecordUploadOnlyCountsBytesOnSuccess(t *testing.T) {
	before := testutil.ToFloat64(uploadBytes.WithLabelValues("test"))
	RecordUpload("test", 100, time.Second, false)
	RecordUpload("test", 250, time.Second, true)
	if got := testutil.ToFloat64(uploadBytes.WithLabelValues("test")) - before; got != 250 {
		t.Errorf("upload bytes delta = %v, want 250", got)
	}
}

func TestMiddlewareUsesRouteTemplate(t *testing.T) {
	r := mux.NewRouter()
	r.Use(Middleware)
	r.HandleFunc("/reports/members/{memberId}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	counter := httpRequestsTotal.WithLabelValues("GET", "/reports/members/{memberId}", "418")
	before := testutil.ToFloat64(counter)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/reports/members/abc123", nil))

	if rec.Code != http.StatusTeapot {
		t.Fatalf("status = %d, want 418", rec.Code)
	}
	if got := testutil.ToFloat64(counter) - before; got != 1 {
		t.Errorf("templated counter delta = %v, want 1", got)
	}
}

func TestHandlerServesMetrics(t *testing.T) {
	SetFolderTreeSize(7)
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "mediadesk_folder_tree_size 7") {
		t.Error("metrics output missing mediadesk_folder_tree_size")
	}
}
