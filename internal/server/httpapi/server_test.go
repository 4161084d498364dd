package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dmitrijs2005/passcapture/internal/common"
	"github.com/dmitrijs2005/passcapture/internal/logging"
	"github.com/dmitrijs2005/passcapture/internal/scim"
)

// fakeService is a canned scim.Service for transport tests.
type fakeService struct {
	createOut *scim.User
	createErr error
	updateOut *scim.User
	updateErr error
	getOut    *scim.User
	getErr    error

	lastUpdateID string
}

func (f *fakeService) CreateUser(ctx context.Context, user *scim.User) (*scim.User, error) {
	return f.createOut, f.createErr
}

func (f *fakeService) UpdateUser(ctx context.Context, id string, user *scim.User) (*scim.User, error) {
	f.lastUpdateID = id
	return f.updateOut, f.updateErr
}

func (f *fakeService) GetUser(ctx context.Context, id string) (*scim.User, error) {
	return f.getOut, f.getErr
}

func (f *fakeService) ListUsers(ctx context.Context) ([]*scim.User, error) {
	return nil, fmt.Errorf("%w: filtered user queries", common.ErrUnsupported)
}

func (f *fakeService) CreateGroup(ctx context.Context, group *scim.Group) (*scim.Group, error) {
	return nil, fmt.Errorf("%w: group management", common.ErrUnsupported)
}

func (f *fakeService) GetGroup(ctx context.Context, id string) (*scim.Group, error) {
	return nil, fmt.Errorf("%w: group management", common.ErrUnsupported)
}

func (f *fakeService) ListGroups(ctx context.Context) ([]*scim.Group, error) {
	return nil, fmt.Errorf("%w: group management", common.ErrUnsupported)
}

func (f *fakeService) UpdateGroup(ctx context.Context, id string, group *scim.Group) (*scim.Group, error) {
	return nil, fmt.Errorf("%w: group management", common.ErrUnsupported)
}

func (f *fakeService) DeleteGroup(ctx context.Context, id string) error {
	return fmt.Errorf("%w: group management", common.ErrUnsupported)
}

func (f *fakeService) Capabilities() []scim.Capability {
	return scim.ImplementedCapabilities()
}

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func newTestServer(svc scim.Service, jwtSecret string) *Server {
	return New(":0", svc, jwtSecret, testLogger())
}

func doRequest(t *testing.T, s *Server, method, path, body string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var resp errorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return resp
}

func TestCreateUser_Created(t *testing.T) {
	svc := &fakeService{createOut: &scim.User{ID: "u-42", UserName: "ada@example.com", Active: true}}
	s := newTestServer(svc, "")

	rec := doRequest(t, s, http.MethodPost, "/Users", `{"userName":"ada@example.com","active":true}`, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201, body %s", rec.Code, rec.Body.String())
	}

	var got scim.User
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if got.ID != "u-42" {
		t.Fatalf("body not stamped with id: %+v", got)
	}
}

func TestCreateUser_MalformedBody(t *testing.T) {
	s := newTestServer(&fakeService{}, "")

	rec := doRequest(t, s, http.MethodPost, "/Users", `{not json`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if resp := decodeError(t, rec); resp.Code != "VALIDATION_FAILED" {
		t.Fatalf("code = %q, want VALIDATION_FAILED", resp.Code)
	}
}

func TestCreateUser_MissingIdentifier(t *testing.T) {
	svc := &fakeService{createErr: fmt.Errorf("%w: schema property absent", common.ErrMissingIdentifier)}
	s := newTestServer(svc, "")

	rec := doRequest(t, s, http.MethodPost, "/Users", `{"userName":"x"}`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if resp := decodeError(t, rec); resp.Code != "MISSING_IDENTIFIER" {
		t.Fatalf("code = %q, want MISSING_IDENTIFIER", resp.Code)
	}
}

func TestUpdateUser_PassesPathID(t *testing.T) {
	svc := &fakeService{updateOut: &scim.User{ID: "u-42"}}
	s := newTestServer(svc, "")

	rec := doRequest(t, s, http.MethodPut, "/Users/u-42", `{"userName":"x","active":true}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", rec.Code, rec.Body.String())
	}
	if svc.lastUpdateID != "u-42" {
		t.Fatalf("path id not forwarded, got %q", svc.lastUpdateID)
	}
}

func TestGetUser_NotFound(t *testing.T) {
	svc := &fakeService{getErr: fmt.Errorf("%w: user ghost", common.ErrNotFound)}
	s := newTestServer(svc, "")

	rec := doRequest(t, s, http.MethodGet, "/Users/ghost", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if resp := decodeError(t, rec); resp.Code != "NOT_FOUND" {
		t.Fatalf("code = %q, want NOT_FOUND", resp.Code)
	}
}

func TestGetUser_StorageFailure(t *testing.T) {
	svc := &fakeService{getErr: fmt.Errorf("%w: connection refused", common.ErrStorage)}
	s := newTestServer(svc, "")

	rec := doRequest(t, s, http.MethodGet, "/Users/u-42", "", nil)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if resp := decodeError(t, rec); resp.Code != "STORAGE_FAILURE" {
		t.Fatalf("code = %q, want STORAGE_FAILURE", resp.Code)
	}
}

func TestListUsers_NotImplemented(t *testing.T) {
	s := newTestServer(&fakeService{}, "")

	rec := doRequest(t, s, http.MethodGet, "/Users", "", nil)
	if rec.Code != http.StatusNotImplemented {
		t.Fatalf("status = %d, want 501", rec.Code)
	}
	if resp := decodeError(t, rec); resp.Code != "NOT_SUPPORTED" {
		t.Fatalf("code = %q, want NOT_SUPPORTED", resp.Code)
	}
}

func TestGroups_NotImplemented(t *testing.T) {
	s := newTestServer(&fakeService{}, "")

	cases := []struct {
		method string
		path   string
		body   string
	}{
		{http.MethodPost, "/Groups", `{"displayName":"g"}`},
		{http.MethodGet, "/Groups", ""},
		{http.MethodGet, "/Groups/g-1", ""},
		{http.MethodPut, "/Groups/g-1", `{"displayName":"g"}`},
		{http.MethodDelete, "/Groups/g-1", ""},
	}
	for _, tc := range cases {
		rec := doRequest(t, s, tc.method, tc.path, tc.body, nil)
		if rec.Code != http.StatusNotImplemented {
			t.Fatalf("%s %s: status = %d, want 501", tc.method, tc.path, rec.Code)
		}
	}
}

func TestServiceProviderConfig(t *testing.T) {
	s := newTestServer(&fakeService{}, "")

	rec := doRequest(t, s, http.MethodGet, "/ServiceProviderConfig", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp serviceProviderConfig
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(resp.Capabilities) != 2 {
		t.Fatalf("capabilities = %v, want exactly the two implemented", resp.Capabilities)
	}
}

func TestAuth_MissingToken(t *testing.T) {
	s := newTestServer(&fakeService{}, "super-secret")

	rec := doRequest(t, s, http.MethodGet, "/Users/u-42", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestAuth_ValidToken(t *testing.T) {
	secret := "super-secret"
	svc := &fakeService{getOut: &scim.User{ID: "u-42"}}
	s := newTestServer(svc, secret)

	token := issueTestToken(t, secret)
	rec := doRequest(t, s, http.MethodGet, "/Users/u-42", "", map[string]string{
		"Authorization": "Bearer " + token,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", rec.Code, rec.Body.String())
	}
}

func TestAuth_WrongSecret(t *testing.T) {
	s := newTestServer(&fakeService{}, "super-secret")

	token := issueTestToken(t, "other-secret")
	rec := doRequest(t, s, http.MethodGet, "/Users/u-42", "", map[string]string{
		"Authorization": "Bearer " + token,
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestAuth_HealthzStaysOpen(t *testing.T) {
	s := newTestServer(&fakeService{}, "super-secret")

	rec := doRequest(t, s, http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func issueTestToken(t *testing.T, secret string) string {
	t.Helper()
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   "platform",
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}
