package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/student-console/internal/models"
	appErrors "github.com/noah-isme/student-console/pkg/errors"
	"github.com/noah-isme/student-console/pkg/middleware/requestid"
)

// Backend operation labels used for metrics and logs.
const (
	OpList   = "list"
	OpGet    = "get"
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
)

type requestObserver interface {
	ObserveBackendRequest(operation string, status int, duration time.Duration)
}

// StudentRepository reads and writes student records through the backend REST API.
type StudentRepository struct {
	endpoint string
	client   *http.Client
	metrics  requestObserver
	logger   *zap.Logger
}

// NewStudentRepository constructs a StudentRepository rooted at endpoint
// (base URL plus API prefix, e.g. http://localhost:8080/api/v1).
func NewStudentRepository(endpoint string, client *http.Client, metrics requestObserver, logger *zap.Logger) *StudentRepository {
	if client == nil {
		client = &http.Client{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentRepository{
		endpoint: strings.TrimRight(endpoint, "/"),
		client:   client,
		metrics:  metrics,
		logger:   logger,
	}
}

// List fetches the whole collection in backend order.
func (r *StudentRepository) List(ctx context.Context) ([]models.Student, error) {
	resp, err := r.do(ctx, OpList, http.MethodGet, "/students", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if !success(resp) {
		return nil, decodeBackendError(resp)
	}

	var students []models.Student
	if err := json.NewDecoder(resp.Body).Decode(&students); err != nil {
		return nil, appErrors.Decode(err)
	}
	if students == nil {
		students = []models.Student{}
	}
	return students, nil
}

// Get fetches a single record. A failure body is returned verbatim as the
// error message since the backend answers in plain text here.
func (r *StudentRepository) Get(ctx context.Context, id int) (*models.Student, error) {
	resp, err := r.do(ctx, OpGet, http.MethodGet, studentPath(id), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if !success(resp) {
		raw, _ := io.ReadAll(resp.Body)
		return nil, appErrors.Backend(resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var student models.Student
	if err := json.NewDecoder(resp.Body).Decode(&student); err != nil {
		return nil, appErrors.Decode(err)
	}
	return &student, nil
}

// Create posts a new record. Any success status is accepted and the body ignored.
func (r *StudentRepository) Create(ctx context.Context, payload models.StudentPayload) error {
	resp, err := r.do(ctx, OpCreate, http.MethodPost, "/students", payload)
	if err != nil {
		return err
	}
	defer drain(resp)

	if !success(resp) {
		return decodeBackendError(resp)
	}
	return nil
}

// Update replaces record id with payload.
func (r *StudentRepository) Update(ctx context.Context, id int, payload models.StudentPayload) error {
	resp, err := r.do(ctx, OpUpdate, http.MethodPut, studentPath(id), payload)
	if err != nil {
		return err
	}
	defer drain(resp)

	if !success(resp) {
		return decodeBackendError(resp)
	}
	return nil
}

// Delete removes record id. The failure body is not inspected.
func (r *StudentRepository) Delete(ctx context.Context, id int) error {
	resp, err := r.do(ctx, OpDelete, http.MethodDelete, studentPath(id), nil)
	if err != nil {
		return err
	}
	defer drain(resp)

	if !success(resp) {
		return appErrors.Backend(resp.StatusCode, "")
	}
	return nil
}

func (r *StudentRepository) do(ctx context.Context, op, method, path string, body interface{}) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode student payload")
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, r.endpoint+path, reader)
	if err != nil {
		return nil, appErrors.Transport(err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if id := requestid.FromContext(ctx); id != "" {
		req.Header.Set(requestid.HeaderKey, id)
	}

	start := time.Now()
	resp, err := r.client.Do(req)
	duration := time.Since(start)
	if err != nil {
		r.observe(op, 0, duration)
		r.logger.Debug("backend request failed", zap.String("operation", op), zap.String("url", req.URL.String()), zap.Error(err))
		return nil, appErrors.Transport(err)
	}
	r.observe(op, resp.StatusCode, duration)
	r.logger.Debug("backend request",
		zap.String("operation", op),
		zap.String("method", method),
		zap.String("url", req.URL.String()),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", duration),
	)
	return resp, nil
}

func (r *StudentRepository) observe(op string, status int, d time.Duration) {
	if r.metrics == nil {
		return
	}
	r.metrics.ObserveBackendRequest(op, status, d)
}

// decodeBackendError reads an {"error": "..."} body. A body that is not JSON
// yields a decode error carrying the decoder's reason.
func decodeBackendError(resp *http.Response) error {
	var body models.BackendError
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return appErrors.Decode(fmt.Errorf("status %d: %w", resp.StatusCode, err))
	}
	return appErrors.Backend(resp.StatusCode, body.Error)
}

func studentPath(id int) string {
	return fmt.Sprintf("/students/%d", id)
}

func success(resp *http.Response) bool {
	return resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}
