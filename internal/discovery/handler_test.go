package discovery

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

type recordingResolver struct {
	calls []string
}

func (r *recordingResolver) Resolve(ctx context.Context, ref string) string {
	r.calls = append(r.calls, ref)
	if strings.HasPrefix(ref, "data:image") {
		return "https://cdn.example/uploaded.png"
	}
	return ref
}

func newTestRouter(t *testing.T) (*gin.Engine, *recordingResolver) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	images := &recordingResolver{}
	h := NewHandler(newTestReconciler(NewGormBackend(openTestDB(t), nil)), images)

	router := gin.New()
	router.POST("/api/pokemon", h.Discover)
	router.POST("/api/pokemon/:id/reward", h.RetryReward)
	router.DELETE("/api/pokemon/:id", h.Release)
	return router, images
}

func discoverBody(t *testing.T, id string, dex int, trainer, image string) *bytes.Reader {
	t.Helper()
	req := discoverRequest{Candidate: candidate(id, dex, 5), TrainerName: trainer}
	req.ImageURL = ptr(image)
	raw, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return bytes.NewReader(raw)
}

func do(router *gin.Engine, method, path string, body *bytes.Reader) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	var req *http.Request
	if body == nil {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, body)
		req.Header.Set("Content-Type", "application/json")
	}
	router.ServeHTTP(w, req)
	return w
}

func TestDiscoverEndpoint(t *testing.T) {
	router, images := newTestRouter(t)

	w := do(router, http.MethodPost, "/api/pokemon", discoverBody(t, "c-1", 1, "Ash", "data:image/png;base64,AAAA"))
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var created struct {
		Status  string `json:"status"`
		Pokemon struct {
			ImageURL string `json:"image_url"`
		} `json:"pokemon"`
		Player struct {
			Points int `json:"points"`
		} `json:"player"`
		PointsAwarded int  `json:"pointsAwarded"`
		RewardApplied bool `json:"rewardApplied"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.Status != "new_discovery" || created.PointsAwarded != 200 || !created.RewardApplied || created.Player.Points != 200 {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
	if created.Pokemon.ImageURL != "https://cdn.example/uploaded.png" {
		t.Fatalf("image = %q, want the uploaded url", created.Pokemon.ImageURL)
	}
	if len(images.calls) != 1 {
		t.Fatalf("resolver calls = %d, want 1", len(images.calls))
	}

	w = do(router, http.MethodPost, "/api/pokemon", discoverBody(t, "c-2", 1, "Misty", "https://img.example/x.png"))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var dup map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &dup); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if dup["status"] != "already_discovered" || dup["discovered_by_trainer"] != "Ash" {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}

func TestDiscoverEndpointValidatesBeforeUpload(t *testing.T) {
	router, images := newTestRouter(t)

	body := `{"id":"c-1","name":"Pikachu","imageUrl":"data:image/png;base64,AAAA","trainerName":""}`
	w := do(router, http.MethodPost, "/api/pokemon", bytes.NewReader([]byte(body)))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	var resp struct {
		Missing []string `json:"missing"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Missing) == 0 || resp.Missing[len(resp.Missing)-1] != "trainerName" {
		t.Fatalf("missing = %v", resp.Missing)
	}
	if len(images.calls) != 0 {
		t.Fatal("image must not be uploaded for an invalid request")
	}

	w = do(router, http.MethodPost, "/api/pokemon", bytes.NewReader([]byte("not json")))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestRewardAndReleaseEndpoints(t *testing.T) {
	router, _ := newTestRouter(t)

	if w := do(router, http.MethodPost, "/api/pokemon", discoverBody(t, "c-1", 1, "Ash", "https://img.example/x.png")); w.Code != http.StatusCreated {
		t.Fatalf("discover status = %d", w.Code)
	}
	if w := do(router, http.MethodPost, "/api/pokemon/c-1/reward", nil); w.Code != http.StatusConflict {
		t.Fatalf("retry status = %d, want 409", w.Code)
	}
	if w := do(router, http.MethodPost, "/api/pokemon/missing/reward", nil); w.Code != http.StatusNotFound {
		t.Fatalf("retry unknown status = %d, want 404", w.Code)
	}
	if w := do(router, http.MethodDelete, "/api/pokemon/c-1", nil); w.Code != http.StatusOK {
		t.Fatalf("release status = %d", w.Code)
	}
	if w := do(router, http.MethodDelete, "/api/pokemon/c-1", nil); w.Code != http.StatusNotFound {
		t.Fatalf("second release status = %d, want 404", w.Code)
	}
}
