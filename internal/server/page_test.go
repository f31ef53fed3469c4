package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestInboxPageRendersForCode(testContext *testing.T) {
	router := newTestRouter(testContext)

	request := httptest.NewRequest(http.MethodGet, "/inbox/AB12", http.NoBody)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusOK {
		testContext.Fatalf("expected status %d, got %d", http.StatusOK, recorder.Code)
	}
	contentType := recorder.Header().Get("Content-Type")
	if !strings.HasPrefix(contentType, "text/html") {
		testContext.Fatalf("expected html content type, got %q", contentType)
	}
	body := recorder.Body.String()
	if !strings.Contains(body, "Doodle Inbox") {
		testContext.Fatalf("expected page heading in body")
	}
	if !strings.Contains(body, "/api/inbox/AB12") {
		testContext.Fatalf("expected inbox fetch URL in body")
	}
}

func TestInboxPageEscapesCode(testContext *testing.T) {
	router := newTestRouter(testContext)

	request := httptest.NewRequest(http.MethodGet, "/inbox/AB%2712%3Cb%3E", http.NoBody)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusOK {
		testContext.Fatalf("expected status %d, got %d", http.StatusOK, recorder.Code)
	}
	body := recorder.Body.String()
	if strings.Contains(body, "AB'12<b>") {
		testContext.Fatalf("expected code to be escaped before embedding, got raw value in body")
	}
	if !strings.Contains(body, "AB") {
		testContext.Fatalf("expected escaped code to still reference the safe prefix")
	}
}
