package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"factorylink/internal/auth"
	"factorylink/internal/config"
	"factorylink/internal/models"
	"factorylink/internal/pagination"
	"factorylink/internal/search"
	"factorylink/internal/services"
	"factorylink/internal/websocket"

	"go.uber.org/zap"
)

type stubAuthService struct {
	signupFn         func(ctx context.Context, input services.SignupInput) (models.Account, error)
	loginFn          func(ctx context.Context, id, secret string) (auth.Session, string, error)
	authenticateFn   func(ctx context.Context, token string) (auth.Session, error)
	logoutFn         func(ctx context.Context, session auth.Session) error
	profileFn        func(ctx context.Context, session auth.Session) (models.Account, error)
	changePasswordFn func(ctx context.Context, session auth.Session, current, next string) error
}

func (s stubAuthService) Signup(ctx context.Context, input services.SignupInput) (models.Account, error) {
	if s.signupFn == nil {
		return models.Account{}, nil
	}
	return s.signupFn(ctx, input)
}

func (s stubAuthService) Login(ctx context.Context, id, secret string) (auth.Session, string, error) {
	if s.loginFn == nil {
		return auth.Session{}, "", nil
	}
	return s.loginFn(ctx, id, secret)
}

// Authenticate defaults to fixed tokens: "user-token" is acme, "admin-token"
// is the administrator.
func (s stubAuthService) Authenticate(ctx context.Context, token string) (auth.Session, error) {
	if s.authenticateFn != nil {
		return s.authenticateFn(ctx, token)
	}
	switch token {
	case "user-token":
		return auth.Session{AccountID: "acme", TokenID: "jti-user"}, nil
	case "admin-token":
		return auth.Session{AccountID: "admin", IsAdmin: true, TokenID: "jti-admin"}, nil
	}
	return auth.Session{}, auth.ErrInvalidToken
}

func (s stubAuthService) Logout(ctx context.Context, session auth.Session) error {
	if s.logoutFn == nil {
		return nil
	}
	return s.logoutFn(ctx, session)
}

func (s stubAuthService) Profile(ctx context.Context, session auth.Session) (models.Account, error) {
	if s.profileFn == nil {
		return models.Account{ID: session.AccountID}, nil
	}
	return s.profileFn(ctx, session)
}

func (s stubAuthService) ChangePassword(ctx context.Context, session auth.Session, current, next string) error {
	if s.changePasswordFn == nil {
		return nil
	}
	return s.changePasswordFn(ctx, session, current, next)
}

type stubListingService struct {
	createFn      func(ctx context.Context, session auth.Session, input services.CreateListingInput) (models.Listing, error)
	deleteFn      func(ctx context.Context, session auth.Session, id string) error
	searchFn      func(ctx context.Context, f search.Filter) ([]models.Listing, error)
	markersFn     func(ctx context.Context, f search.Filter) ([]search.Marker, error)
	getFn         func(ctx context.Context, id string) (models.Listing, error)
	mineFn        func(ctx context.Context, session auth.Session) ([]models.Listing, error)
	attachImageFn func(ctx context.Context, session auth.Session, id, filename string, data []byte) (models.Listing, error)
}

func (s stubListingService) Create(ctx context.Context, session auth.Session, input services.CreateListingInput) (models.Listing, error) {
	if s.createFn == nil {
		return models.Listing{}, nil
	}
	return s.createFn(ctx, session, input)
}

func (s stubListingService) Delete(ctx context.Context, session auth.Session, id string) error {
	if s.deleteFn == nil {
		return nil
	}
	return s.deleteFn(ctx, session, id)
}

func (s stubListingService) Search(ctx context.Context, f search.Filter) ([]models.Listing, error) {
	if s.searchFn == nil {
		return nil, nil
	}
	return s.searchFn(ctx, f)
}

func (s stubListingService) Markers(ctx context.Context, f search.Filter) ([]search.Marker, error) {
	if s.markersFn == nil {
		return nil, nil
	}
	return s.markersFn(ctx, f)
}

func (s stubListingService) Get(ctx context.Context, id string) (models.Listing, error) {
	if s.getFn == nil {
		return models.Listing{ID: id}, nil
	}
	return s.getFn(ctx, id)
}

func (s stubListingService) Mine(ctx context.Context, session auth.Session) ([]models.Listing, error) {
	if s.mineFn == nil {
		return nil, nil
	}
	return s.mineFn(ctx, session)
}

func (s stubListingService) AttachImage(ctx context.Context, session auth.Session, id, filename string, data []byte) (models.Listing, error) {
	if s.attachImageFn == nil {
		return models.Listing{}, nil
	}
	return s.attachImageFn(ctx, session, id, filename, data)
}

type stubRequestService struct {
	createFn    func(ctx context.Context, session auth.Session, listingID string) (models.ContactRequest, error)
	respondFn   func(ctx context.Context, session auth.Session, requestID string, decision models.RequestStatus) (models.ContactRequest, error)
	inboxFn     func(ctx context.Context, session auth.Session) ([]services.InboxItem, error)
	outboxFn    func(ctx context.Context, session auth.Session) ([]services.OutboxItem, error)
	statusForFn func(ctx context.Context, session auth.Session, listingID string) (models.RequestStatus, bool, error)
}

func (s stubRequestService) Create(ctx context.Context, session auth.Session, listingID string) (models.ContactRequest, error) {
	if s.createFn == nil {
		return models.ContactRequest{}, nil
	}
	return s.createFn(ctx, session, listingID)
}

func (s stubRequestService) Respond(ctx context.Context, session auth.Session, requestID string, decision models.RequestStatus) (models.ContactRequest, error) {
	if s.respondFn == nil {
		return models.ContactRequest{}, nil
	}
	return s.respondFn(ctx, session, requestID, decision)
}

func (s stubRequestService) Inbox(ctx context.Context, session auth.Session) ([]services.InboxItem, error) {
	if s.inboxFn == nil {
		return nil, nil
	}
	return s.inboxFn(ctx, session)
}

func (s stubRequestService) Outbox(ctx context.Context, session auth.Session) ([]services.OutboxItem, error) {
	if s.outboxFn == nil {
		return nil, nil
	}
	return s.outboxFn(ctx, session)
}

func (s stubRequestService) StatusFor(ctx context.Context, session auth.Session, listingID string) (models.RequestStatus, bool, error) {
	if s.statusForFn == nil {
		return "", false, nil
	}
	return s.statusForFn(ctx, session, listingID)
}

type stubAdminService struct {
	dashboardFn      func(ctx context.Context, session auth.Session) (services.Dashboard, error)
	accountsPageFn   func(ctx context.Context, session auth.Session, params pagination.Params) (services.AccountsPage, error)
	listingsPageFn   func(ctx context.Context, session auth.Session, params pagination.Params) (services.ListingsPage, error)
	deleteListingsFn func(ctx context.Context, session auth.Session, params pagination.Params, ids []string) (int, error)
	deleteAccountsFn func(ctx context.Context, session auth.Session, params pagination.Params, ids []string) (int, error)
	updateAccountsFn func(ctx context.Context, session auth.Session, revision string, edits []services.AccountEdit) (int, error)
	resetPasswordFn  func(ctx context.Context, session auth.Session, accountID string) error
}

func (s stubAdminService) Dashboard(ctx context.Context, session auth.Session) (services.Dashboard, error) {
	if s.dashboardFn == nil {
		return services.Dashboard{}, nil
	}
	return s.dashboardFn(ctx, session)
}

func (s stubAdminService) AccountsPage(ctx context.Context, session auth.Session, params pagination.Params) (services.AccountsPage, error) {
	if s.accountsPageFn == nil {
		return services.AccountsPage{}, nil
	}
	return s.accountsPageFn(ctx, session, params)
}

func (s stubAdminService) ListingsPage(ctx context.Context, session auth.Session, params pagination.Params) (services.ListingsPage, error) {
	if s.listingsPageFn == nil {
		return services.ListingsPage{}, nil
	}
	return s.listingsPageFn(ctx, session, params)
}

func (s stubAdminService) DeleteListings(ctx context.Context, session auth.Session, params pagination.Params, ids []string) (int, error) {
	if s.deleteListingsFn == nil {
		return 0, nil
	}
	return s.deleteListingsFn(ctx, session, params, ids)
}

func (s stubAdminService) DeleteAccounts(ctx context.Context, session auth.Session, params pagination.Params, ids []string) (int, error) {
	if s.deleteAccountsFn == nil {
		return 0, nil
	}
	return s.deleteAccountsFn(ctx, session, params, ids)
}

func (s stubAdminService) UpdateAccounts(ctx context.Context, session auth.Session, revision string, edits []services.AccountEdit) (int, error) {
	if s.updateAccountsFn == nil {
		return 0, nil
	}
	return s.updateAccountsFn(ctx, session, revision, edits)
}

func (s stubAdminService) ResetPassword(ctx context.Context, session auth.Session, accountID string) error {
	if s.resetPasswordFn == nil {
		return nil
	}
	return s.resetPasswordFn(ctx, session, accountID)
}

func newTestHandler(authSvc AuthService, listings ListingService, requests RequestService, admin AdminService) http.Handler {
	cfg := config.Config{AllowedOrigins: "*"}
	return New(cfg, authSvc, listings, requests, admin, websocket.NewHub(zap.NewNop()), zap.NewNop()).Routes()
}

func doRequest(t *testing.T, handler http.Handler, method, target, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, target, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, dest any) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), dest); err != nil {
		t.Fatalf("decode body %q: %v", rr.Body.String(), err)
	}
}
