// Package testutil provides shared test utilities and fixtures.
//
// This package centralises common test helpers to reduce code duplication
// across test files and improve test maintainability.
package testutil

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/formsense/repcoach/internal/pose"
)

// AssertStatusCode checks that the response status code matches expected.
func AssertStatusCode(t *testing.T, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("status code = %d, want %d", got, want)
	}
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// NewTestRequest creates a test HTTP request.
func NewTestRequest(method, path string) *http.Request {
	return httptest.NewRequest(method, path, nil)
}

// NewTestRecorder creates a test response recorder.
func NewTestRecorder() *httptest.ResponseRecorder {
	return httptest.NewRecorder()
}

// NewPoseFrame builds a frame with all landmarks at the given visibility and
// zero coordinates. Tests mutate the joints they care about.
func NewPoseFrame(visibility float64, unixNanos int64) *pose.Frame {
	world := make([]pose.Landmark, pose.NumLandmarks)
	image := make([]pose.Landmark, pose.NumLandmarks)
	for i := range world {
		world[i].Visibility = visibility
		image[i].Visibility = visibility
	}
	return &pose.Frame{World: world, Image: image, UnixNanos: unixNanos}
}
