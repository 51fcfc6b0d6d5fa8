package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wilksmax/pokervision/configs"
	"github.com/wilksmax/pokervision/internal/ai"
	"github.com/wilksmax/pokervision/internal/common"
)

type stubProvider struct {
	looseResult *ai.CallResult
	looseErr    error
	recResult   *ai.CallResult
	recErr      error
}

func (s *stubProvider) ExtractStateStrict(ctx context.Context, img ai.Image, reqCtx *common.RequestContext) (*ai.CallResult, error) {
	return nil, &ai.ParseError{}
}

func (s *stubProvider) ExtractStateLoose(ctx context.Context, img ai.Image, reqCtx *common.RequestContext) (*ai.CallResult, error) {
	return s.looseResult, s.looseErr
}

func (s *stubProvider) SelfCheckState(ctx context.Context, stateJSON string, reqCtx *common.RequestContext) (*ai.CallResult, error) {
	return nil, &ai.ParseError{}
}

func (s *stubProvider) RecommendAction(ctx context.Context, stateJSON string, reqCtx *common.RequestContext) (*ai.CallResult, error) {
	return s.recResult, s.recErr
}

func (s *stubProvider) Name() string { return "stub" }

func callResultFor(t *testing.T, raw string) *ai.CallResult {
	t.Helper()
	obj, err := ai.ExtractJSONObject(raw)
	require.NoError(t, err)
	return &ai.CallResult{Object: obj, Raw: raw}
}

const testStateJSON = `{
	"table": {"game": "NLHE", "stakes": {"sb": 0.5, "bb": 1}, "pot": 12.5, "board": [], "street": "preflop"},
	"hero": {"seat": 3, "stack": 250, "hole": ["As","Ks"], "toAct": true},
	"players": [{"seat": 3, "inHand": true}],
	"actionHistory": []
}`

const testRecJSON = `{"street": "preflop", "options": [{"action": "raise", "frequency": 80, "size": "2.5bb"}, {"action": "fold", "frequency": 20}], "notes": "open"}`

func setupTest(t *testing.T, provider ai.Provider) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	prevUpload := configs.UPLOAD_DIR
	prevPrep := configs.ENABLE_IMAGE_PREPROCESSING
	prevStrict := configs.STRICT_EXTRACTION
	prevCheck := configs.ENABLE_SELF_CHECK
	prevExtTO := configs.EXTRACTION_TIMEOUT
	prevStrTO := configs.STRATEGY_TIMEOUT

	configs.UPLOAD_DIR = t.TempDir()
	configs.ENABLE_IMAGE_PREPROCESSING = false
	configs.STRICT_EXTRACTION = false
	configs.ENABLE_SELF_CHECK = false
	configs.EXTRACTION_TIMEOUT = 5
	configs.STRATEGY_TIMEOUT = 5

	t.Cleanup(func() {
		configs.UPLOAD_DIR = prevUpload
		configs.ENABLE_IMAGE_PREPROCESSING = prevPrep
		configs.STRICT_EXTRACTION = prevStrict
		configs.ENABLE_SELF_CHECK = prevCheck
		configs.EXTRACTION_TIMEOUT = prevExtTO
		configs.STRATEGY_TIMEOUT = prevStrTO
	})

	router := gin.New()
	router.POST("/api/analyze", NewServer(provider).AnalyzeTableHandler)
	return router
}

func uploadRequest(t *testing.T, fieldName string) *http.Request {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile(fieldName, "table.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("fake image bytes"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/analyze", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestAnalyzeTableHandler_Success(t *testing.T) {
	stub := &stubProvider{
		looseResult: callResultFor(t, testStateJSON),
		recResult:   callResultFor(t, testRecJSON),
	}
	router := setupTest(t, stub)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, uploadRequest(t, "image"))

	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp, "state")
	assert.Contains(t, resp, "recommendation")
	assert.Contains(t, resp, "metadata")

	rec := resp["recommendation"].(map[string]interface{})
	assert.Equal(t, "preflop", rec["street"])

	state := resp["state"].(map[string]interface{})
	table := state["table"].(map[string]interface{})
	assert.Equal(t, "preflop", table["street"])
}

func TestAnalyzeTableHandler_SelfCheckEnabledKeepsStepNames(t *testing.T) {
	stub := &stubProvider{
		looseResult: callResultFor(t, testStateJSON),
		recResult:   callResultFor(t, testRecJSON),
	}
	router := setupTest(t, stub)
	configs.ENABLE_SELF_CHECK = true // stub's check fails; must stay non-fatal

	w := httptest.NewRecorder()
	router.ServeHTTP(w, uploadRequest(t, "image"))

	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	metadata := resp["metadata"].(map[string]interface{})
	breakdown := metadata["step_breakdown"].(map[string]interface{})
	assert.Contains(t, breakdown, "extract_table_state")
	assert.NotContains(t, breakdown, "")
}

func TestAnalyzeTableHandler_NoImage(t *testing.T) {
	router := setupTest(t, &stubProvider{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, uploadRequest(t, "photo")) // wrong field name

	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "No image file provided", resp["error"])
}

func TestAnalyzeTableHandler_UnparseableExtraction(t *testing.T) {
	stub := &stubProvider{
		looseResult: &ai.CallResult{Raw: "total garbage"},
		looseErr:    &ai.ParseError{Raw: "total garbage"},
	}
	router := setupTest(t, stub)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, uploadRequest(t, "image"))

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "total garbage", resp["raw"])
}

func TestAnalyzeTableHandler_ProviderFailure(t *testing.T) {
	stub := &stubProvider{
		looseErr: &ai.ProviderError{Category: "server_error", StatusCode: 503, Message: "provider down"},
	}
	router := setupTest(t, stub)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, uploadRequest(t, "image"))

	require.Equal(t, http.StatusInternalServerError, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "server_error", resp["category"])
	assert.Equal(t, "provider down", resp["details"])
}

func TestAnalyzeTableHandler_IncompleteExtraction(t *testing.T) {
	stub := &stubProvider{
		looseResult: callResultFor(t, `{"something": "else"}`),
	}
	router := setupTest(t, stub)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, uploadRequest(t, "image"))

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp, "missing")
	assert.Contains(t, resp, "partial")
}

func TestAnalyzeTableHandler_StrategyFailure(t *testing.T) {
	stub := &stubProvider{
		looseResult: callResultFor(t, testStateJSON),
		recErr:      &ai.ParseError{Raw: "strategy garbage"},
	}
	router := setupTest(t, stub)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, uploadRequest(t, "image"))

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "strategy garbage", resp["raw"])
}

func TestHealthHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/health", HealthHandler)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}
