package services

import (
	"context"
	"time"

	"factorylink/internal/auth"
	"factorylink/internal/events"
	"factorylink/internal/models"
	"factorylink/internal/records"
	"factorylink/internal/websocket"

	"go.uber.org/zap"
)

type RequestService struct {
	store     RecordStore
	publisher events.Publisher
	notifier  Notifier
	log       *zap.Logger
	now       func() time.Time
}

func NewRequestService(store RecordStore, publisher events.Publisher, notifier Notifier, log *zap.Logger) *RequestService {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &RequestService{
		store:     store,
		publisher: publisher,
		notifier:  notifier,
		log:       log,
		now:       time.Now,
	}
}

// Create records a request for the owner's contact on a listing. The
// duplicate check reads the current table without locking, so two
// simultaneous creations for one pair can both succeed.
func (s *RequestService) Create(ctx context.Context, session auth.Session, listingID string) (models.ContactRequest, error) {
	listings, err := s.store.LoadFresh(ctx, records.Listings)
	if err != nil {
		return models.ContactRequest{}, err
	}
	idx := findRow(listings, "id", listingID)
	if idx < 0 {
		return models.ContactRequest{}, ErrListingNotFound
	}
	listing := models.ListingFromRow(listings.Rows[idx])
	if listing.OwnerID == session.AccountID {
		return models.ContactRequest{}, ErrSelfRequest
	}

	requests, err := s.store.LoadFresh(ctx, records.Requests)
	if err != nil {
		return models.ContactRequest{}, err
	}
	for _, row := range requests.Rows {
		if row["from_id"] == session.AccountID && row["listing_id"] == listingID {
			return models.ContactRequest{}, ErrDuplicateRequest
		}
	}

	now := s.now()
	req := models.ContactRequest{
		ID:        nextID(now, columnSet(requests, "request_id")),
		FromID:    session.AccountID,
		ToID:      listing.OwnerID,
		ListingID: listingID,
		Status:    models.StatusRequested,
		Timestamp: now.Format(models.TimestampLayout),
	}
	if err := s.store.Append(ctx, records.Requests, req.Row()); err != nil {
		return models.ContactRequest{}, err
	}
	s.log.Info("contact requested",
		zap.String("request_id", req.ID),
		zap.String("from_id", req.FromID),
		zap.String("listing_id", req.ListingID))
	publish(ctx, s.log, s.publisher, events.SubjectContactRequested, events.ContactRequested{
		RequestID: req.ID,
		FromID:    req.FromID,
		ToID:      req.ToID,
		ListingID: req.ListingID,
	})
	s.notifier.Notify(req.ToID, websocket.Notification{
		Kind:      websocket.KindContactRequested,
		RequestID: req.ID,
		ListingID: req.ListingID,
		FromID:    req.FromID,
		Title:     listing.Title,
	})
	return req, nil
}

// Respond moves a request to a terminal state. Repeating the decision a
// request already carries succeeds without writing; changing a decided
// request fails with ErrInvalidTransition.
func (s *RequestService) Respond(ctx context.Context, session auth.Session, requestID string, decision models.RequestStatus) (models.ContactRequest, error) {
	if !decision.Terminal() {
		return models.ContactRequest{}, ErrInvalidDecision
	}
	requests, err := s.store.LoadFresh(ctx, records.Requests)
	if err != nil {
		return models.ContactRequest{}, err
	}
	idx := findRow(requests, "request_id", requestID)
	if idx < 0 {
		return models.ContactRequest{}, ErrRequestNotFound
	}
	req := models.RequestFromRow(requests.Rows[idx])
	if req.ToID != session.AccountID {
		return models.ContactRequest{}, ErrNotAuthorized
	}
	if req.Status == decision {
		return req, nil
	}
	if req.Status.Terminal() {
		return models.ContactRequest{}, ErrInvalidTransition
	}

	requests.Rows[idx]["status"] = string(decision)
	if err := s.store.Save(ctx, requests); err != nil {
		return models.ContactRequest{}, err
	}
	req.Status = decision
	s.log.Info("contact request decided",
		zap.String("request_id", req.ID),
		zap.String("status", string(decision)))
	publish(ctx, s.log, s.publisher, events.SubjectContactResponded, events.ContactResponded{
		RequestID: req.ID,
		FromID:    req.FromID,
		ToID:      req.ToID,
		ListingID: req.ListingID,
		Status:    string(decision),
	})
	s.notifier.Notify(req.FromID, websocket.Notification{
		Kind:      websocket.KindContactResponded,
		RequestID: req.ID,
		ListingID: req.ListingID,
		Status:    string(decision),
	})
	return req, nil
}

type InboxItem struct {
	models.ContactRequest
	RequesterName string `json:"requester_name"`
	ListingTitle  string `json:"listing_title"`
}

type OutboxItem struct {
	models.ContactRequest
	ListingTitle string `json:"listing_title"`
	Company      string `json:"company"`
	Contact      string `json:"contact,omitempty"`
}

type requestView struct {
	requests []models.ContactRequest
	listings map[string]models.Listing
	accounts map[string]models.Account
}

func (s *RequestService) view(ctx context.Context) (requestView, error) {
	requests, err := s.store.Load(ctx, records.Requests)
	if err != nil {
		return requestView{}, err
	}
	listings, err := s.store.Load(ctx, records.Listings)
	if err != nil {
		return requestView{}, err
	}
	accounts, err := s.store.Load(ctx, records.Accounts)
	if err != nil {
		return requestView{}, err
	}
	v := requestView{
		requests: make([]models.ContactRequest, 0, requests.Len()),
		listings: make(map[string]models.Listing, listings.Len()),
		accounts: make(map[string]models.Account, accounts.Len()),
	}
	for _, row := range requests.Rows {
		v.requests = append(v.requests, models.RequestFromRow(row))
	}
	for _, row := range listings.Rows {
		l := models.ListingFromRow(row)
		v.listings[l.ID] = l
	}
	for _, row := range accounts.Rows {
		a := models.AccountFromRow(row)
		v.accounts[a.ID] = a
	}
	return v, nil
}

// Inbox lists requests addressed to the caller.
func (s *RequestService) Inbox(ctx context.Context, session auth.Session) ([]InboxItem, error) {
	v, err := s.view(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]InboxItem, 0)
	for _, req := range v.requests {
		if req.ToID != session.AccountID {
			continue
		}
		item := InboxItem{ContactRequest: req, RequesterName: req.FromID, ListingTitle: DeletedPlaceholder}
		if a, ok := v.accounts[req.FromID]; ok && a.Name != "" {
			item.RequesterName = a.Name
		}
		if l, ok := v.listings[req.ListingID]; ok {
			item.ListingTitle = l.Title
		}
		out = append(out, item)
	}
	return out, nil
}

// Outbox lists requests the caller sent. The listing's contact is included
// only once the owner approved.
func (s *RequestService) Outbox(ctx context.Context, session auth.Session) ([]OutboxItem, error) {
	v, err := s.view(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]OutboxItem, 0)
	for _, req := range v.requests {
		if req.FromID != session.AccountID {
			continue
		}
		item := OutboxItem{ContactRequest: req, ListingTitle: DeletedPlaceholder}
		if l, ok := v.listings[req.ListingID]; ok {
			item.ListingTitle = l.Title
			item.Company = l.Company
			if req.Status == models.StatusApproved {
				item.Contact = l.Contact
			}
		}
		out = append(out, item)
	}
	return out, nil
}

// StatusFor returns the caller's request state for a listing, or false when
// none exists.
func (s *RequestService) StatusFor(ctx context.Context, session auth.Session, listingID string) (models.RequestStatus, bool, error) {
	requests, err := s.store.Load(ctx, records.Requests)
	if err != nil {
		return "", false, err
	}
	for _, row := range requests.Rows {
		if row["from_id"] == session.AccountID && row["listing_id"] == listingID {
			return models.RequestStatus(row["status"]), true, nil
		}
	}
	return "", false, nil
}
