package static

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestAppRoutesServeIndex(t *testing.T) {
	for _, p := range []string{"/", "/admin", "/juego/ranking"} {
		w := httptest.NewRecorder()
		Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, p, nil))
		if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "Radiotrivia") {
			t.Fatalf("%s should serve index.html, got %d", p, w.Code)
		}
		if w.Header().Get("Cache-Control") != "no-cache" {
			t.Fatalf("index should not be cached")
		}
	}
}

func TestMissingAssetIs404(t *testing.T) {
	w := httptest.NewRecorder()
	Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/assets/app.js", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("missing asset should be 404, got %d", w.Code)
	}
}
