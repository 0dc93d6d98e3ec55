package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"factorylink/internal/auth"
	"factorylink/internal/cache"
	"factorylink/internal/models"
	"factorylink/internal/records"
	"factorylink/internal/websocket"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var fixedNow = time.Date(2024, 5, 2, 9, 30, 0, 0, time.UTC)

func testAuthConfig() AuthConfig {
	return AuthConfig{
		AdminID:        "admin",
		AdminSecret:    "1234",
		PasswordScheme: auth.SchemeSHA256,
		TokenSecret:    "test-secret",
		TokenTTL:       time.Hour,
	}
}

func newTestStore(backend records.Backend) *records.Store {
	return records.NewStore(backend, records.Options{
		ReadRetries: 2,
		CacheTTL:    time.Minute,
		Cache:       cache.NewLocal(),
		Logger:      zap.NewNop(),
	})
}

type recordingPublisher struct {
	mu       sync.Mutex
	subjects []string
	err      error
}

func (p *recordingPublisher) Publish(_ context.Context, subject string, _ any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subjects = append(p.subjects, subject)
	return p.err
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent map[string][]websocket.Notification
}

func (n *recordingNotifier) Notify(accountID string, note websocket.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.sent == nil {
		n.sent = make(map[string][]websocket.Notification)
	}
	n.sent[accountID] = append(n.sent[accountID], note)
}

type fixture struct {
	backend   *records.MemoryBackend
	store     *records.Store
	auth      *AuthService
	listings  *ListingService
	requests  *RequestService
	admin     *AdminService
	publisher *recordingPublisher
	notifier  *recordingNotifier
	images    *stubImageStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	backend := records.NewMemoryBackend()
	store := newTestStore(backend)
	publisher := &recordingPublisher{}
	notifier := &recordingNotifier{}
	images := &stubImageStore{}
	cfg := testAuthConfig()

	f := &fixture{
		backend:   backend,
		store:     store,
		auth:      NewAuthService(store, auth.NewRevocations(cache.NewLocal()), cfg, zap.NewNop()),
		listings:  NewListingService(store, publisher, images, zap.NewNop()),
		requests:  NewRequestService(store, publisher, notifier, zap.NewNop()),
		admin:     NewAdminService(store, cfg, zap.NewNop()),
		publisher: publisher,
		notifier:  notifier,
		images:    images,
	}
	clock := func() time.Time { return fixedNow }
	f.auth.now = clock
	f.listings.now = clock
	f.requests.now = clock
	f.admin.now = clock
	return f
}

func (f *fixture) signup(t *testing.T, id, name string) auth.Session {
	t.Helper()
	_, err := f.auth.Signup(context.Background(), SignupInput{ID: id, Secret: "pw-" + id, Contact: "010-" + id, Name: name})
	require.NoError(t, err)
	session, _, err := f.auth.Login(context.Background(), id, "pw-"+id)
	require.NoError(t, err)
	return session
}

func (f *fixture) adminSession(t *testing.T) auth.Session {
	t.Helper()
	session, _, err := f.auth.Login(context.Background(), "admin", "1234")
	require.NoError(t, err)
	return session
}

func (f *fixture) createListing(t *testing.T, owner auth.Session, title string) models.Listing {
	t.Helper()
	listing, err := f.listings.Create(context.Background(), owner, CreateListingInput{
		Region:   "수도권",
		Complex:  "시화",
		Role:     models.RoleSell,
		Category: models.CategoryEquipment,
		Title:    title,
	})
	require.NoError(t, err)
	return listing
}

// failingBackend fails every read and write.
type failingBackend struct{}

var errBackendDown = errors.New("backend down")

func (failingBackend) ReadTable(context.Context, string) ([]string, [][]string, error) {
	return nil, nil, errBackendDown
}

func (failingBackend) WriteTable(context.Context, string, []string, [][]string) error {
	return errBackendDown
}
