package services

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"sync"
	"time"

	"factorylink/internal/auth"
	"factorylink/internal/events"
	"factorylink/internal/models"
	"factorylink/internal/records"
	"factorylink/internal/search"
	"factorylink/internal/storage"
	"factorylink/internal/validator"

	"go.uber.org/zap"
)

type ListingService struct {
	store     RecordStore
	publisher events.Publisher
	images    storage.ImageStore
	log       *zap.Logger
	now       func() time.Time

	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewListingService accepts a nil images store; AttachImage then reports
// ErrImagesDisabled.
func NewListingService(store RecordStore, publisher events.Publisher, images storage.ImageStore, log *zap.Logger) *ListingService {
	return &ListingService{
		store:     store,
		publisher: publisher,
		images:    images,
		log:       log,
		now:       time.Now,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

type CreateListingInput struct {
	Company      string
	Contact      string
	Region       string
	Complex      string
	Role         models.Role
	Category     models.Category
	Title        string
	Description  string
	ProcessNotes string
}

func (s *ListingService) Create(ctx context.Context, session auth.Session, input CreateListingInput) (models.Listing, error) {
	if err := validator.ValidateTitle(input.Title); err != nil {
		return models.Listing{}, listingFieldError(err)
	}
	if !input.Role.Valid() || !input.Category.Valid() {
		return models.Listing{}, ErrInvalidField
	}
	centroid, ok := models.LookupComplex(input.Region, input.Complex)
	if !ok {
		return models.Listing{}, ErrInvalidField
	}
	for _, v := range []string{input.Description, input.ProcessNotes} {
		if err := validator.ValidateLength(v); err != nil {
			return models.Listing{}, ErrInvalidField
		}
	}

	accounts, err := s.store.Load(ctx, records.Accounts)
	if err != nil {
		return models.Listing{}, err
	}
	var owner models.Account
	if idx := findRow(accounts, "id", session.AccountID); idx >= 0 {
		owner = models.AccountFromRow(accounts.Rows[idx])
	} else if !session.IsAdmin {
		return models.Listing{}, ErrAccountNotFound
	}
	company := strings.TrimSpace(input.Company)
	if company == "" {
		company = owner.Name
	}
	contact := strings.TrimSpace(input.Contact)
	if contact == "" {
		contact = owner.Contact
	}
	if err := validator.ValidateCompany(company); err != nil {
		return models.Listing{}, listingFieldError(err)
	}
	if err := validator.ValidateContact(contact); err != nil {
		return models.Listing{}, listingFieldError(err)
	}

	listings, err := s.store.LoadFresh(ctx, records.Listings)
	if err != nil {
		return models.Listing{}, err
	}
	now := s.now()
	lat, lon := s.jitter(centroid)
	listing := models.Listing{
		ID:           nextID(now, columnSet(listings, "id")),
		OwnerID:      session.AccountID,
		Date:         now.Format(models.DateLayout),
		Company:      company,
		Contact:      contact,
		Region:       input.Region,
		Complex:      input.Complex,
		Role:         input.Role,
		Category:     input.Category,
		Title:        strings.TrimSpace(input.Title),
		Lat:          lat,
		Lon:          lon,
		HasCoords:    true,
		Description:  input.Description,
		ProcessNotes: input.ProcessNotes,
		Verified:     session.IsAdmin || owner.Verified,
	}
	if err := s.store.Append(ctx, records.Listings, listing.Row()); err != nil {
		return models.Listing{}, err
	}
	s.log.Info("listing created",
		zap.String("listing_id", listing.ID),
		zap.String("owner_id", listing.OwnerID),
		zap.String("complex", listing.Complex))
	publish(ctx, s.log, s.publisher, events.SubjectListingCreated, events.ListingCreated{
		ListingID: listing.ID,
		OwnerID:   listing.OwnerID,
		Title:     listing.Title,
		Category:  string(listing.Category),
		Region:    listing.Region,
		Complex:   listing.Complex,
	})
	return listing, nil
}

func listingFieldError(err error) error {
	if errors.Is(err, validator.ErrFieldTooLong) {
		return ErrInvalidField
	}
	return missing(err)
}

func (s *ListingService) jitter(c models.Complex) (float64, float64) {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return search.Jitter(c.Lat, c.Lon, search.JitterBound, s.rng)
}

// Delete removes a listing. Only its owner or an administrator may do so.
// Requests that reference it are kept.
func (s *ListingService) Delete(ctx context.Context, session auth.Session, id string) error {
	listings, err := s.store.LoadFresh(ctx, records.Listings)
	if err != nil {
		return err
	}
	idx := findRow(listings, "id", id)
	if idx < 0 {
		return ErrListingNotFound
	}
	if listings.Rows[idx]["owner_id"] != session.AccountID && !session.IsAdmin {
		return ErrNotAuthorized
	}
	listings.Rows = append(listings.Rows[:idx], listings.Rows[idx+1:]...)
	if err := s.store.Save(ctx, listings); err != nil {
		return err
	}
	s.log.Info("listing deleted", zap.String("listing_id", id), zap.String("actor_id", session.AccountID))
	return nil
}

func (s *ListingService) all(ctx context.Context) ([]models.Listing, error) {
	table, err := s.store.Load(ctx, records.Listings)
	if err != nil {
		return nil, err
	}
	out := make([]models.Listing, 0, table.Len())
	for _, row := range table.Rows {
		out = append(out, models.ListingFromRow(row))
	}
	return out, nil
}

// Search keeps every matching listing, including ones without usable
// coordinates.
func (s *ListingService) Search(ctx context.Context, f search.Filter) ([]models.Listing, error) {
	listings, err := s.all(ctx)
	if err != nil {
		return nil, err
	}
	return search.Apply(listings, f), nil
}

func (s *ListingService) Markers(ctx context.Context, f search.Filter) ([]search.Marker, error) {
	listings, err := s.Search(ctx, f)
	if err != nil {
		return nil, err
	}
	return search.Markers(listings), nil
}

func (s *ListingService) Get(ctx context.Context, id string) (models.Listing, error) {
	table, err := s.store.Load(ctx, records.Listings)
	if err != nil {
		return models.Listing{}, err
	}
	idx := findRow(table, "id", id)
	if idx < 0 {
		return models.Listing{}, ErrListingNotFound
	}
	return models.ListingFromRow(table.Rows[idx]), nil
}

func (s *ListingService) Mine(ctx context.Context, session auth.Session) ([]models.Listing, error) {
	listings, err := s.all(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.Listing, 0)
	for _, l := range listings {
		if l.OwnerID == session.AccountID {
			out = append(out, l)
		}
	}
	return out, nil
}

// AttachImage uploads an image for a listing the caller owns and records
// its URL on the listing.
func (s *ListingService) AttachImage(ctx context.Context, session auth.Session, id, filename string, data []byte) (models.Listing, error) {
	if s.images == nil {
		return models.Listing{}, ErrImagesDisabled
	}
	if len(data) == 0 || len(data) > storage.MaxImageBytes {
		return models.Listing{}, ErrInvalidField
	}
	if _, err := storage.ImageExt(filename); err != nil {
		return models.Listing{}, ErrInvalidField
	}
	listing, err := s.Get(ctx, id)
	if err != nil {
		return models.Listing{}, err
	}
	if listing.OwnerID != session.AccountID {
		return models.Listing{}, ErrNotAuthorized
	}
	url, err := s.images.Upload(ctx, filename, data)
	if err != nil {
		return models.Listing{}, err
	}

	updated, err := s.recordImage(ctx, id, url)
	if err != nil {
		// The object stays in the bucket with nothing pointing at it.
		s.log.Warn("uploaded image left unreferenced",
			zap.String("listing_id", id),
			zap.String("url", url),
			zap.Error(err),
		)
		return models.Listing{}, err
	}
	return updated, nil
}

func (s *ListingService) recordImage(ctx context.Context, id, url string) (models.Listing, error) {
	listings, err := s.store.LoadFresh(ctx, records.Listings)
	if err != nil {
		return models.Listing{}, err
	}
	idx := findRow(listings, "id", id)
	if idx < 0 {
		return models.Listing{}, ErrListingNotFound
	}
	listings.Rows[idx]["image_path"] = url
	if err := s.store.Save(ctx, listings); err != nil {
		return models.Listing{}, err
	}
	return models.ListingFromRow(listings.Rows[idx]), nil
}
