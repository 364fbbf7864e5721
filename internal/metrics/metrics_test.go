package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordToggle(t *testing.T) {
	before := testutil.ToFloat64(ToggleOutcomes.WithLabelValues("like_video", "on"))
	RecordToggle("like_video", true)
	RecordToggle("like_video", false)

	if got := testutil.ToFloat64(ToggleOutcomes.WithLabelValues("like_video", "on")); got != before+1 {
		t.Fatalf("expected on counter %v, got %v", before+1, got)
	}
}

func TestRecordCascadeSkipsZeroCounts(t *testing.T) {
	RecordCascade("tweet", 0, 2, 0)

	if got := testutil.ToFloat64(CascadeRemovals.WithLabelValues("tweet", "like")); got < 2 {
		t.Fatalf("expected at least 2 likes recorded, got %v", got)
	}
	if got := testutil.ToFloat64(CascadeRemovals.WithLabelValues("tweet", "comment")); got != 0 {
		t.Fatalf("expected no comment removals for tweets, got %v", got)
	}
}

func TestRecordStorageOperation(t *testing.T) {
	before := testutil.ToFloat64(StorageOperations.WithLabelValues("release", "error"))
	RecordStorageOperation("release", 10*time.Millisecond, errors.New("boom"))

	if got := testutil.ToFloat64(StorageOperations.WithLabelValues("release", "error")); got != before+1 {
		t.Fatalf("expected error counter %v, got %v", before+1, got)
	}
}

func TestRecordHTTPRequest(t *testing.T) {
	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/api/v1/videos", "200"))
	RecordHTTPRequest("GET", "/api/v1/videos", 200, 5*time.Millisecond)

	if got := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/api/v1/videos", "200")); got != before+1 {
		t.Fatalf("expected request counter %v, got %v", before+1, got)
	}
}
