package server

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/felixgeelhaar/secprops/internal/batch"
	"github.com/felixgeelhaar/secprops/internal/errors"
	"github.com/felixgeelhaar/secprops/internal/gateway"
	"github.com/felixgeelhaar/secprops/internal/keygen"
	"github.com/felixgeelhaar/secprops/internal/props"
)

// Headers carrying the parameters of a raw-text file request
const (
	HeaderMasterPassword = "X-Master-Password"
	HeaderJavaVersion    = "X-Java-Version"
)

// APIPrefix is the root of the JSON API
const APIPrefix = "/api/v1"

func (s *Server) registerAPI(mux *http.ServeMux) {
	routes := []struct {
		pattern string
		handler http.HandlerFunc
	}{
		{"GET /health", s.handleAPIHealth},
		{"GET /versions", s.handleVersions},
		{"POST /encrypt", s.handleEncrypt},
		{"POST /decrypt", s.handleDecrypt},
		{"POST /batch/encrypt", s.handleBatchEncrypt},
		{"POST /batch/decrypt", s.handleBatchDecrypt},
		{"POST /file/encrypt", s.handleFileEncrypt},
		{"POST /file/decrypt", s.handleFileDecrypt},
		{"POST /key/generate", s.handleKeyGenerate},
		{"GET /history", s.handleHistory},
		{"DELETE /history", s.handleClearHistory},
	}

	for _, r := range routes {
		method, path, _ := strings.Cut(r.pattern, " ")
		route := APIPrefix + path
		mux.HandleFunc(method+" "+route, s.instrument(route, r.handler))
	}
}

// errEmptyBody is returned by decodeJSON for a request without a body
var errEmptyBody = errors.NewInvalidRequestError("request body is empty")

// decodeJSON reads a JSON body into v within the body limit
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if stderrors.As(err, &maxErr) {
			return errors.NewInvalidRequestError("request body too large")
		}
		if stderrors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return errors.NewInvalidRequestError("invalid JSON body: " + err.Error())
	}
	return nil
}

// handleAPIHealth reports liveness with the supported versions.
// GET /api/v1/health
func (s *Server) handleAPIHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":            "ok",
		"timestamp":         time.Now().UTC(),
		"supportedVersions": s.gateway.Versions().Supported,
	})
}

// GET /api/v1/versions
func (s *Server) handleVersions(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.gateway.Versions())
}

// POST /api/v1/encrypt
func (s *Server) handleEncrypt(w http.ResponseWriter, r *http.Request) {
	var req gateway.EncryptRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeError(w, "Encryption failed", err)
		return
	}
	res, err := s.gateway.Encrypt(r.Context(), req)
	if err != nil {
		s.writeError(w, "Encryption failed", err)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

// POST /api/v1/decrypt
func (s *Server) handleDecrypt(w http.ResponseWriter, r *http.Request) {
	var req gateway.DecryptRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeError(w, "Decryption failed", err)
		return
	}
	res, err := s.gateway.Decrypt(r.Context(), req)
	if err != nil {
		s.writeError(w, "Decryption failed", err)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

// batchProperty accepts {key, value} for encryption and {key, encrypted}
// for decryption
type batchProperty struct {
	Key       string `json:"key"`
	Value     string `json:"value"`
	Encrypted string `json:"encrypted"`
}

type batchBody struct {
	Properties     []batchProperty `json:"properties"`
	MasterPassword string          `json:"masterPassword"`
	JavaVersion    string          `json:"javaVersion"`
}

func (b batchBody) request(decrypt bool) gateway.BatchRequest {
	var items []batch.Item
	for _, p := range b.Properties {
		value := p.Value
		if decrypt && p.Encrypted != "" {
			value = p.Encrypted
		}
		items = append(items, batch.Item{Key: p.Key, Value: value})
	}
	return gateway.BatchRequest{Items: items, MasterPassword: b.MasterPassword, JavaVersion: b.JavaVersion}
}

type batchEncryptResult struct {
	Key       string `json:"key"`
	Value     string `json:"value"`
	Encrypted string `json:"encrypted,omitempty"`
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
}

type batchDecryptResult struct {
	Key       string `json:"key"`
	Encrypted string `json:"encrypted"`
	Decrypted string `json:"decrypted,omitempty"`
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
}

type batchResponse[T any] struct {
	Results []T `json:"results"`
	Total   int `json:"total"`
	Success int `json:"success"`
	Failed  int `json:"failed"`
}

// POST /api/v1/batch/encrypt
func (s *Server) handleBatchEncrypt(w http.ResponseWriter, r *http.Request) {
	const title = "Batch encryption failed"
	var body batchBody
	if err := s.decodeJSON(w, r, &body); err != nil {
		s.writeError(w, title, err)
		return
	}
	report, err := s.gateway.BatchEncrypt(r.Context(), body.request(false))
	if err != nil {
		s.writeError(w, title, err)
		return
	}

	out := batchResponse[batchEncryptResult]{Total: report.Total, Success: report.Succeeded, Failed: report.Failed}
	for _, item := range report.Items {
		out.Results = append(out.Results, batchEncryptResult{
			Key: item.Key, Value: item.Original, Encrypted: item.Derived, Success: item.Success, Error: item.Error,
		})
	}
	s.writeJSON(w, http.StatusOK, out)
}

// POST /api/v1/batch/decrypt
func (s *Server) handleBatchDecrypt(w http.ResponseWriter, r *http.Request) {
	const title = "Batch decryption failed"
	var body batchBody
	if err := s.decodeJSON(w, r, &body); err != nil {
		s.writeError(w, title, err)
		return
	}
	report, err := s.gateway.BatchDecrypt(r.Context(), body.request(true))
	if err != nil {
		s.writeError(w, title, err)
		return
	}

	out := batchResponse[batchDecryptResult]{Total: report.Total, Success: report.Succeeded, Failed: report.Failed}
	for _, item := range report.Items {
		out.Results = append(out.Results, batchDecryptResult{
			Key: item.Key, Encrypted: item.Original, Decrypted: item.Derived, Success: item.Success, Error: item.Error,
		})
	}
	s.writeJSON(w, http.StatusOK, out)
}

// fileRequest reads a file request from a JSON body or from a raw text body
// with the password and version in headers
func (s *Server) fileRequest(w http.ResponseWriter, r *http.Request) (gateway.FileRequest, error) {
	var req gateway.FileRequest
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		err := s.decodeJSON(w, r, &req)
		return req, err
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxBodyBytes)
	content, err := io.ReadAll(r.Body)
	if err != nil {
		return req, errors.NewInvalidRequestError("failed to read file content: " + err.Error())
	}
	req.Content = string(content)
	req.MasterPassword = r.Header.Get(HeaderMasterPassword)
	req.JavaVersion = r.Header.Get(HeaderJavaVersion)
	if req.JavaVersion == "" {
		req.JavaVersion = r.URL.Query().Get("javaVersion")
	}
	return req, nil
}

type fileErrors = []gateway.KeyError

type fileEncryptResponse struct {
	OriginalCount    int           `json:"originalCount"`
	EncryptedCount   int           `json:"encryptedCount"`
	FailedCount      int           `json:"failedCount"`
	Results          string        `json:"results"`
	ResultsFormatted []props.Entry `json:"resultsFormatted"`
	Errors           fileErrors    `json:"errors"`
}

type fileDecryptResponse struct {
	OriginalCount    int           `json:"originalCount"`
	EncryptedCount   int           `json:"encryptedCount"`
	DecryptedCount   int           `json:"decryptedCount"`
	FailedCount      int           `json:"failedCount"`
	Results          string        `json:"results"`
	ResultsFormatted []props.Entry `json:"resultsFormatted"`
	Errors           fileErrors    `json:"errors"`
}

// POST /api/v1/file/encrypt
func (s *Server) handleFileEncrypt(w http.ResponseWriter, r *http.Request) {
	const title = "File encryption failed"
	req, err := s.fileRequest(w, r)
	if err != nil {
		s.writeError(w, title, err)
		return
	}
	res, err := s.gateway.EncryptFile(r.Context(), req)
	if err != nil {
		s.writeError(w, title, err)
		return
	}
	s.writeJSON(w, http.StatusOK, fileEncryptResponse{
		OriginalCount:    res.OriginalCount,
		EncryptedCount:   res.SucceededCount,
		FailedCount:      res.FailedCount,
		Results:          res.Content,
		ResultsFormatted: res.Entries,
		Errors:           res.Errors,
	})
}

// POST /api/v1/file/decrypt
func (s *Server) handleFileDecrypt(w http.ResponseWriter, r *http.Request) {
	const title = "File decryption failed"
	req, err := s.fileRequest(w, r)
	if err != nil {
		s.writeError(w, title, err)
		return
	}
	res, err := s.gateway.DecryptFile(r.Context(), req)
	if err != nil {
		s.writeError(w, title, err)
		return
	}
	s.writeJSON(w, http.StatusOK, fileDecryptResponse{
		OriginalCount:    res.OriginalCount,
		EncryptedCount:   res.TargetCount,
		DecryptedCount:   res.SucceededCount,
		FailedCount:      res.FailedCount,
		Results:          res.Content,
		ResultsFormatted: res.Entries,
		Errors:           res.Errors,
	})
}

type keyBody struct {
	Type    keygen.Type     `json:"type"`
	Length  int             `json:"length"`
	Options *keygen.Options `json:"options"`
}

// POST /api/v1/key/generate
func (s *Server) handleKeyGenerate(w http.ResponseWriter, r *http.Request) {
	const title = "Key generation failed"
	// every field is optional, so an empty body is allowed
	var body keyBody
	if err := s.decodeJSON(w, r, &body); err != nil && err != errEmptyBody {
		s.writeError(w, title, err)
		return
	}
	key, err := s.gateway.GenerateKey(keygen.Request{Type: body.Type, Length: body.Length, Options: body.Options})
	if err != nil {
		s.writeError(w, title, err)
		return
	}
	s.writeJSON(w, http.StatusOK, key)
}

// GET /api/v1/history?limit=N
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	const title = "Failed to get history"
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			s.writeError(w, title, errors.NewInvalidRequestError("limit must be a non-negative integer"))
			return
		}
		limit = n
	}
	page, err := s.gateway.History(limit)
	if err != nil {
		s.writeError(w, title, err)
		return
	}
	s.writeJSON(w, http.StatusOK, page)
}

// DELETE /api/v1/history
func (s *Server) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	if err := s.gateway.ClearHistory(); err != nil {
		s.writeError(w, "Failed to clear history", err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"message": "History cleared"})
}
