package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/TFMV/DupeFinder/internal/matcher"
)

func postCSV(t *testing.T, handler gin.HandlerFunc, csvBody string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/match/batch", handler)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "listings.csv")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fw.Write([]byte(csvBody)); err != nil {
		t.Fatal(err)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/match/batch", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

type batchEnvelope struct {
	Status string        `json:"status"`
	Data   BatchResponse `json:"data"`
}

func TestMatchBatchScoresEveryStagedListing(t *testing.T) {
	store := &fakeStore{
		pool: []matcher.PropertyRecord{
			{ID: "p1", Address: "12 Cowley Road, Oxford OX4 1UR", AdvertiserName: "John Smith Properties"},
		},
		staged: []matcher.MatchRequest{
			{Address: "12 Cowley Rd, Oxford OX4 1UR", AdvertiserName: "John Smith Properties"},
			{Address: "99 Somewhere Else, Leeds LS1 4AP"},
		},
	}
	deps := newTestDeps(t, store, nil)

	w := postCSV(t, MatchBatchHandler(deps, "listings_staging"),
		"address,advertiser_name\n12 Cowley Rd,John Smith Properties\n99 Somewhere Else,\n")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", w.Code, w.Body.String())
	}
	var resp batchEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Data.RunID != 7 {
		t.Errorf("run_id = %d, want 7", resp.Data.RunID)
	}
	if len(resp.Data.Results) != len(store.staged) {
		t.Fatalf("got %d results, want %d", len(resp.Data.Results), len(store.staged))
	}
	byAddress := make(map[string]BatchResult, len(resp.Data.Results))
	for _, r := range resp.Data.Results {
		byAddress[r.Address] = r
	}
	if got := byAddress["12 Cowley Rd, Oxford OX4 1UR"]; len(got.Candidates) != 1 {
		t.Errorf("cowley road candidates = %+v, want one", got.Candidates)
	}
}

func TestMatchBatchRequiresFile(t *testing.T) {
	deps := newTestDeps(t, &fakeStore{}, nil)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/match/batch", MatchBatchHandler(deps, "listings_staging"))

	req := httptest.NewRequest(http.MethodPost, "/match/batch", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 without an uploaded file", w.Code)
	}
}
