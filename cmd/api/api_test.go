package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"jewels/internal/auth"
	"jewels/internal/imageurl"
	"jewels/internal/store"
	"jewels/internal/uploads"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testAPIURL = "http://localhost:8080"

// productsStoreStub is an in-memory stand-in for the products store.
type productsStoreStub struct {
	products map[int64]*store.Product
	nextID   int64
	listErr  error
}

func newProductsStoreStub() *productsStoreStub {
	return &productsStoreStub{products: map[int64]*store.Product{}, nextID: 1}
}

func (s *productsStoreStub) add(p store.Product) *store.Product {
	if p.ID == 0 {
		p.ID = s.nextID
	}
	if p.ID >= s.nextID {
		s.nextID = p.ID + 1
	}
	if p.Images == nil {
		p.Images = []string{}
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	s.products[p.ID] = &p
	return &p
}

func (s *productsStoreStub) Create(_ context.Context, p *store.Product) error {
	p.ID = s.nextID
	s.nextID++
	p.CreatedAt = time.Now()
	clone := *p
	s.products[p.ID] = &clone
	return nil
}

func (s *productsStoreStub) GetByID(_ context.Context, id int64) (*store.Product, error) {
	p, ok := s.products[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	clone := *p
	return &clone, nil
}

func (s *productsStoreStub) List(_ context.Context) ([]store.Product, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := []store.Product{}
	for _, p := range s.products {
		out = append(out, *p)
	}
	return out, nil
}

func (s *productsStoreStub) Update(_ context.Context, p *store.Product) error {
	if _, ok := s.products[p.ID]; !ok {
		return store.ErrNotFound
	}
	clone := *p
	s.products[p.ID] = &clone
	return nil
}

func (s *productsStoreStub) DeleteMany(_ context.Context, ids []int64, remover store.FileRemover) (int64, error) {
	var deleted int64
	for _, id := range ids {
		p, ok := s.products[id]
		if !ok {
			continue
		}
		for _, img := range p.Images {
			_ = remover.Remove(imageurl.Filename(img))
		}
		delete(s.products, id)
		deleted++
	}
	return deleted, nil
}

// usersStoreStub holds the fixed admin account used by the auth tests.
type usersStoreStub struct {
	users map[int64]*store.User
}

func newUsersStoreStub(t *testing.T, username, passwordText string) *usersStoreStub {
	t.Helper()
	user := &store.User{ID: 1, Username: username, CreatedAt: time.Now()}
	require.NoError(t, user.Password.Set(passwordText))
	return &usersStoreStub{users: map[int64]*store.User{1: user}}
}

func (s *usersStoreStub) Create(_ context.Context, u *store.User) error {
	u.ID = int64(len(s.users) + 1)
	s.users[u.ID] = u
	return nil
}

func (s *usersStoreStub) GetByID(_ context.Context, id int64) (*store.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return u, nil
}

func (s *usersStoreStub) GetByUsername(_ context.Context, username string) (*store.User, error) {
	for _, u := range s.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, store.ErrNotFound
}

func newTestApplication(t *testing.T, products *productsStoreStub) *application {
	t.Helper()

	uploadStore, err := uploads.NewLocal(t.TempDir())
	require.NoError(t, err)

	return &application{
		config: config{
			env:      "test",
			apiURL:   testAPIURL,
			whatsapp: "971500000000",
		},
		store: store.Storage{
			Products: products,
			Users:    newUsersStoreStub(t, "admin", "adminpass"),
		},
		logger:  zap.NewNop().Sugar(),
		uploads: uploadStore,
		images:  imageurl.New(testAPIURL),
		authenticator: auth.NewJWTAuthenticator(
			"test-secret", "test-refresh-secret",
			"jewels", "jewels",
			time.Hour, 24*time.Hour,
		),
	}
}

func (app *application) testToken(t *testing.T) string {
	t.Helper()
	access, _, err := app.authenticator.GenerateTokens(1, "admin")
	require.NoError(t, err)
	return access
}

func executeRequest(req *http.Request, mux http.Handler) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	return rr
}

func TestHealthCheck(t *testing.T) {
	app := newTestApplication(t, newProductsStoreStub())
	mux := app.mount()

	req := httptest.NewRequest(http.MethodGet, "/v1/health", nil)
	rr := executeRequest(req, mux)

	require.Equal(t, http.StatusOK, rr.Code)
}
