package api

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"datalens/adapters/llm"
	"datalens/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Port: "0"},
		AI:     config.AIConfig{OpenAIModel: "gpt-4o-mini", MaxTokens: 256},
		Profiling: config.ProfilingConfig{
			SampleSeed:    42,
			SampleSize:    500,
			MaxConcurrent: 2,
		},
	}
}

func newTestServer(t *testing.T, client *llm.MockLLMClient) *Server {
	t.Helper()
	if client == nil {
		client = &llm.MockLLMClient{Response: "ok"}
	}
	return NewServer(testConfig(), client, nil)
}

func uploadCSV(t *testing.T, s *Server, filename, content string) string {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/datasets", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.ID)
	return resp.ID
}

func doJSON(s *Server, method, path string, payload interface{}) *httptest.ResponseRecorder {
	var body bytes.Buffer
	if payload != nil {
		json.NewEncoder(&body).Encode(payload)
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestUploadAndOverview(t *testing.T) {
	s := newTestServer(t, nil)
	id := uploadCSV(t, s, "orders.csv", "amount,status\n10,open\n20,\n30,closed\n")

	rec := doJSON(s, http.MethodGet, "/api/datasets/"+id+"/overview", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Name         string `json:"name"`
		Rows         int    `json:"rows"`
		Columns      int    `json:"columns"`
		TotalNulls   int    `json:"total_nulls"`
		Profiled     bool   `json:"profiled"`
		ColumnDetail []struct {
			Name  string `json:"name"`
			DType string `json:"dtype"`
		} `json:"columns_detail"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "orders", resp.Name)
	assert.Equal(t, 3, resp.Rows)
	assert.Equal(t, 2, resp.Columns)
	assert.Equal(t, 1, resp.TotalNulls)
	assert.False(t, resp.Profiled)
}

func TestUploadMissingFile(t *testing.T) {
	s := newTestServer(t, nil)

	rec := doJSON(s, http.MethodPost, "/api/datasets", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProfileLifecycle(t *testing.T) {
	s := newTestServer(t, nil)
	id := uploadCSV(t, s, "orders.csv", "a,b\n1,3\n2,2\n3,1\n")

	// No profile before the run.
	rec := doJSON(s, http.MethodGet, "/api/datasets/"+id+"/profile", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(s, http.MethodPost, "/api/datasets/"+id+"/profile", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var prof struct {
		Shape struct {
			Rows    int `json:"rows"`
			Columns int `json:"columns"`
		} `json:"shape"`
		Columns      []json.RawMessage `json:"columns_overview"`
		Correlations *struct {
			Keys []string `json:"keys"`
		} `json:"correlations"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &prof))
	assert.Equal(t, 3, prof.Shape.Rows)
	assert.Equal(t, 2, prof.Shape.Columns)
	require.NotNil(t, prof.Correlations)
	assert.Equal(t, []string{"a", "b"}, prof.Correlations.Keys)

	// Profile is now retrievable and exportable.
	rec = doJSON(s, http.MethodGet, "/api/datasets/"+id+"/profile", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(s, http.MethodGet, "/api/datasets/"+id+"/profile/export", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")
}

func TestProfileUnknownDataset(t *testing.T) {
	s := newTestServer(t, nil)
	rec := doJSON(s, http.MethodPost, "/api/datasets/nope/profile", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestColumnRules(t *testing.T) {
	s := newTestServer(t, nil)
	id := uploadCSV(t, s, "codes.csv", "code\n12\n345\n6789\n")

	rec := doJSON(s, http.MethodGet, "/api/datasets/"+id+"/rules/code", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var rs struct {
		Column string   `json:"column"`
		Rules  []string `json:"rules"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rs))
	assert.Equal(t, "code", rs.Column)
	assert.Contains(t, rs.Rules, "Nulls are NOT allowed.")
	assert.Contains(t, rs.Rules, "Only numeric characters allowed.")

	rec = doJSON(s, http.MethodGet, "/api/datasets/"+id+"/rules/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReferenceRules(t *testing.T) {
	s := newTestServer(t, nil)
	targetID := uploadCSV(t, s, "target.csv", "grade\nA\nB\nC\n")
	refID := uploadCSV(t, s, "reference.csv", "grade\nA\nB\nC\nD\nE\n")

	rec := doJSON(s, http.MethodPost, "/api/datasets/"+targetID+"/reference-rules", map[string]interface{}{
		"reference_id": refID,
		"mapping":      map[string]string{"grade": "grade"},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		RuleSets []struct {
			Column string   `json:"column"`
			Rules  []string `json:"rules"`
		} `json:"rule_sets"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.RuleSets, 1)
	assert.Equal(t, "grade", resp.RuleSets[0].Column)
	assert.Contains(t, resp.RuleSets[0].Rules,
		"Allowed values derived from reference (enumeration of 5 values).")
}

func TestReferenceRulesValidation(t *testing.T) {
	s := newTestServer(t, nil)
	id := uploadCSV(t, s, "t.csv", "a\n1\n")

	rec := doJSON(s, http.MethodPost, "/api/datasets/"+id+"/reference-rules", map[string]interface{}{
		"mapping": map[string]string{"a": "a"},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(s, http.MethodPost, "/api/datasets/"+id+"/reference-rules", map[string]interface{}{
		"reference_id": "nope",
		"mapping":      map[string]string{"a": "a"},
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestChat(t *testing.T) {
	mock := &llm.MockLLMClient{Response: "The **mean** is 2."}
	s := newTestServer(t, mock)
	id := uploadCSV(t, s, "nums.csv", "value\n1\n2\n3\n")

	rec := doJSON(s, http.MethodPost, "/api/datasets/"+id+"/chat", map[string]string{
		"question": "what is the mean value?",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Answer     string `json:"answer"`
		AnswerHTML string `json:"answer_html"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "The **mean** is 2.", resp.Answer)
	assert.Contains(t, resp.AnswerHTML, "<strong>mean</strong>")
	assert.Contains(t, mock.LastPrompt, `Statistics for column "value"`)
}

func TestChatEmptyQuestion(t *testing.T) {
	s := newTestServer(t, nil)
	id := uploadCSV(t, s, "nums.csv", "value\n1\n")

	rec := doJSON(s, http.MethodPost, "/api/datasets/"+id+"/chat", map[string]string{"question": "  "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSQLImportWithoutDatabase(t *testing.T) {
	s := newTestServer(t, nil)

	rec := doJSON(s, http.MethodPost, "/api/datasets/sql", map[string]string{
		"query": "SELECT 1",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "DATABASE_URL"))
}
