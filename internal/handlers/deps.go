package handlers

import (
	"context"

	"factorylink/internal/auth"
	"factorylink/internal/models"
	"factorylink/internal/pagination"
	"factorylink/internal/search"
	"factorylink/internal/services"
)

type AuthService interface {
	Signup(ctx context.Context, input services.SignupInput) (models.Account, error)
	Login(ctx context.Context, id, secret string) (auth.Session, string, error)
	Authenticate(ctx context.Context, token string) (auth.Session, error)
	Logout(ctx context.Context, session auth.Session) error
	Profile(ctx context.Context, session auth.Session) (models.Account, error)
	ChangePassword(ctx context.Context, session auth.Session, current, next string) error
}

type ListingService interface {
	Create(ctx context.Context, session auth.Session, input services.CreateListingInput) (models.Listing, error)
	Delete(ctx context.Context, session auth.Session, id string) error
	Search(ctx context.Context, f search.Filter) ([]models.Listing, error)
	Markers(ctx context.Context, f search.Filter) ([]search.Marker, error)
	Get(ctx context.Context, id string) (models.Listing, error)
	Mine(ctx context.Context, session auth.Session) ([]models.Listing, error)
	AttachImage(ctx context.Context, session auth.Session, id, filename string, data []byte) (models.Listing, error)
}

type RequestService interface {
	Create(ctx context.Context, session auth.Session, listingID string) (models.ContactRequest, error)
	Respond(ctx context.Context, session auth.Session, requestID string, decision models.RequestStatus) (models.ContactRequest, error)
	Inbox(ctx context.Context, session auth.Session) ([]services.InboxItem, error)
	Outbox(ctx context.Context, session auth.Session) ([]services.OutboxItem, error)
	StatusFor(ctx context.Context, session auth.Session, listingID string) (models.RequestStatus, bool, error)
}

type AdminService interface {
	Dashboard(ctx context.Context, session auth.Session) (services.Dashboard, error)
	AccountsPage(ctx context.Context, session auth.Session, params pagination.Params) (services.AccountsPage, error)
	ListingsPage(ctx context.Context, session auth.Session, params pagination.Params) (services.ListingsPage, error)
	DeleteListings(ctx context.Context, session auth.Session, params pagination.Params, ids []string) (int, error)
	DeleteAccounts(ctx context.Context, session auth.Session, params pagination.Params, ids []string) (int, error)
	UpdateAccounts(ctx context.Context, session auth.Session, revision string, edits []services.AccountEdit) (int, error)
	ResetPassword(ctx context.Context, session auth.Session, accountID string) error
}
