package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/networth-app/networth/internal/app"
	"github.com/networth-app/networth/internal/common"
	"github.com/networth-app/networth/internal/interfaces"
	"github.com/networth-app/networth/internal/models"
)

var errNotFound = errors.New("not found")

type memInstitutionStore struct {
	byID map[string]*models.LinkedInstitution
}

func (m *memInstitutionStore) SaveInstitution(ctx context.Context, inst *models.LinkedInstitution) error {
	cp := *inst
	m.byID[inst.ID] = &cp
	return nil
}

func (m *memInstitutionStore) GetInstitution(ctx context.Context, id string) (*models.LinkedInstitution, error) {
	inst, ok := m.byID[id]
	if !ok {
		return nil, errNotFound
	}
	cp := *inst
	return &cp, nil
}

func (m *memInstitutionStore) GetInstitutionsByOwner(ctx context.Context, ownerID string) ([]*models.LinkedInstitution, error) {
	var out []*models.LinkedInstitution
	for _, inst := range m.byID {
		if inst.OwnerID == ownerID {
			cp := *inst
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memInstitutionStore) DeleteInstitution(ctx context.Context, id string) error {
	delete(m.byID, id)
	return nil
}

type memUserStore struct {
	byID map[string]*models.User
}

func (m *memUserStore) SaveUser(ctx context.Context, user *models.User) error {
	cp := *user
	m.byID[user.ID] = &cp
	return nil
}

func (m *memUserStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	u, ok := m.byID[id]
	if !ok {
		return nil, errNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUserStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range m.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, errNotFound
}

func (m *memUserStore) DeleteUser(ctx context.Context, id string) error {
	delete(m.byID, id)
	return nil
}

type memStorage struct {
	institutions *memInstitutionStore
	users        *memUserStore
}

func newMemStorage() *memStorage {
	return &memStorage{
		institutions: &memInstitutionStore{byID: map[string]*models.LinkedInstitution{}},
		users:        &memUserStore{byID: map[string]*models.User{}},
	}
}

func (m *memStorage) InstitutionStore() interfaces.InstitutionStore { return m.institutions }
func (m *memStorage) UserStore() interfaces.UserStore               { return m.users }
func (m *memStorage) Close() error                                  { return nil }

// stubOverviewService returns a canned overview.
type stubOverviewService struct {
	overview *models.PortfolioOverview
	err      error
	lastUser string
}

func (s *stubOverviewService) GetOverview(ctx context.Context, userID string) (*models.PortfolioOverview, error) {
	s.lastUser = userID
	if s.err != nil {
		return nil, s.err
	}
	return s.overview, nil
}

// stubLinkService operates directly on the test storage.
type stubLinkService struct {
	storage *memStorage
	err     error
}

func (s *stubLinkService) CreateLinkToken(ctx context.Context) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return "link-sandbox-token", nil
}

func (s *stubLinkService) LinkInstitution(ctx context.Context, ownerID, publicToken string) (*models.LinkedInstitution, error) {
	if s.err != nil {
		return nil, s.err
	}
	inst := &models.LinkedInstitution{
		ID:              uuid.New().String(),
		OwnerID:         ownerID,
		AccessSecret:    "access-" + publicToken,
		ItemID:          "item-" + publicToken,
		InstitutionName: "Test Bank",
		CreatedAt:       time.Now().UTC(),
	}
	if err := s.storage.institutions.SaveInstitution(ctx, inst); err != nil {
		return nil, err
	}
	return inst, nil
}

func (s *stubLinkService) RotateSecret(ctx context.Context, institutionID, publicToken string) (*models.LinkedInstitution, error) {
	if s.err != nil {
		return nil, s.err
	}
	inst, err := s.storage.institutions.GetInstitution(ctx, institutionID)
	if err != nil {
		return nil, err
	}
	inst.AccessSecret = "access-" + publicToken
	if err := s.storage.institutions.SaveInstitution(ctx, inst); err != nil {
		return nil, err
	}
	return inst, nil
}

func (s *stubLinkService) Unlink(ctx context.Context, institutionID string) error {
	if s.err != nil {
		return s.err
	}
	return s.storage.institutions.DeleteInstitution(ctx, institutionID)
}

type testHarness struct {
	server   *Server
	storage  *memStorage
	overview *stubOverviewService
	link     *stubLinkService
}

func newTestServer(t *testing.T) *testHarness {
	t.Helper()

	config := common.NewDefaultConfig()
	config.Auth.JWTSecret = "test-jwt-secret"

	storage := newMemStorage()
	overview := &stubOverviewService{
		overview: &models.PortfolioOverview{
			Institutions: []models.InstitutionOverview{},
			NetWorths:    []models.NetWorthPoint{},
		},
	}
	link := &stubLinkService{storage: storage}

	a := &app.App{
		Config:          config,
		Logger:          common.NewSilentLogger(),
		Storage:         storage,
		OverviewService: overview,
		LinkService:     link,
		StartupTime:     time.Now(),
	}

	return &testHarness{
		server:   NewServer(a),
		storage:  storage,
		overview: overview,
		link:     link,
	}
}

// createUser registers a user directly in storage and returns it with a
// valid bearer token.
func (h *testHarness) createUser(t *testing.T, email, role string) (*models.User, string) {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	user := &models.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    time.Now().UTC(),
	}
	if err := h.storage.users.SaveUser(context.Background(), user); err != nil {
		t.Fatal(err)
	}

	token, err := signAccessToken(user, h.server.app.Config)
	if err != nil {
		t.Fatal(err)
	}
	return user, token
}

// do runs a request through the full middleware chain.
func (h *testHarness) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	h.server.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
	}
}
