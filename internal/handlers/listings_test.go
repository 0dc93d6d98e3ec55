package handlers

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"factorylink/internal/auth"
	"factorylink/internal/models"
	"factorylink/internal/records"
	"factorylink/internal/search"
	"factorylink/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListingsRequireToken(t *testing.T) {
	handler := newTestHandler(stubAuthService{}, stubListingService{}, stubRequestService{}, stubAdminService{})

	rr := doRequest(t, handler, http.MethodGet, "/listings", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	rr = doRequest(t, handler, http.MethodGet, "/listings", "expired-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestListingsAuthBackendFailure(t *testing.T) {
	handler := newTestHandler(stubAuthService{
		authenticateFn: func(context.Context, string) (auth.Session, error) {
			return auth.Session{}, fmt.Errorf("redis: connection refused")
		},
	}, stubListingService{}, stubRequestService{}, stubAdminService{})
	rr := doRequest(t, handler, http.MethodGet, "/listings", "user-token", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestSearchListingsPassesFilter(t *testing.T) {
	var got search.Filter
	handler := newTestHandler(stubAuthService{}, stubListingService{
		searchFn: func(_ context.Context, f search.Filter) ([]models.Listing, error) {
			got = f
			return []models.Listing{{ID: "1", Title: "500L 반응기", Contact: "010-1234-5678"}}, nil
		},
	}, stubRequestService{}, stubAdminService{})

	target := "/listings?q=%EB%B0%98%EC%9D%91%EA%B8%B0&region=%EC%88%98%EB%8F%84%EA%B6%8C&complex=%EC%8B%9C%ED%99%94,%EB%B0%98%EC%9B%94&all=1"
	rr := doRequest(t, handler, http.MethodGet, target, "user-token", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	assert.Equal(t, "반응기", got.Keyword)
	assert.Equal(t, []string{"수도권"}, got.Regions)
	assert.Equal(t, []string{"시화", "반월"}, got.Complexes)
	assert.True(t, got.AllColumns)
	assert.Empty(t, got.Categories)

	var body struct {
		Count    int              `json:"count"`
		Listings []map[string]any `json:"listings"`
	}
	decodeBody(t, rr, &body)
	assert.Equal(t, 1, body.Count)
	require.Len(t, body.Listings, 1)
	assert.NotContains(t, body.Listings[0], "contact", "contact stays hidden in search results")
}

func TestSearchListingsRepeatedRoleParams(t *testing.T) {
	var got search.Filter
	handler := newTestHandler(stubAuthService{}, stubListingService{
		searchFn: func(_ context.Context, f search.Filter) ([]models.Listing, error) {
			got = f
			return nil, nil
		},
	}, stubRequestService{}, stubAdminService{})

	req := httptest.NewRequest(http.MethodGet, "/listings", nil)
	q := req.URL.Query()
	q.Add("role", string(models.RoleSell))
	q.Add("role", string(models.RoleTransport))
	q.Add("category", string(models.CategoryByproduct))
	req.URL.RawQuery = q.Encode()
	req.Header.Set("Authorization", "Bearer user-token")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []models.Role{models.RoleSell, models.RoleTransport}, got.Roles)
	assert.Equal(t, []models.Category{models.CategoryByproduct}, got.Categories)
}

func TestSearchListingsStoreUnavailable(t *testing.T) {
	handler := newTestHandler(stubAuthService{}, stubListingService{
		searchFn: func(context.Context, search.Filter) ([]models.Listing, error) {
			return nil, fmt.Errorf("load listings: %w", records.ErrStoreUnavailable)
		},
	}, stubRequestService{}, stubAdminService{})
	rr := doRequest(t, handler, http.MethodGet, "/listings", "user-token", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestListingMarkers(t *testing.T) {
	handler := newTestHandler(stubAuthService{}, stubListingService{
		markersFn: func(context.Context, search.Filter) ([]search.Marker, error) {
			return []search.Marker{{ListingID: "1", Colour: search.ColourPurple}}, nil
		},
	}, stubRequestService{}, stubAdminService{})
	rr := doRequest(t, handler, http.MethodGet, "/listings/markers", "user-token", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var markers []search.Marker
	decodeBody(t, rr, &markers)
	require.Len(t, markers, 1)
	assert.Equal(t, search.ColourPurple, markers[0].Colour)
}

func TestGetListingNotFound(t *testing.T) {
	handler := newTestHandler(stubAuthService{}, stubListingService{
		getFn: func(_ context.Context, id string) (models.Listing, error) {
			return models.Listing{}, services.ErrListingNotFound
		},
	}, stubRequestService{}, stubAdminService{})
	rr := doRequest(t, handler, http.MethodGet, "/listings/404", "user-token", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestCreateListing(t *testing.T) {
	var owner string
	var input services.CreateListingInput
	handler := newTestHandler(stubAuthService{}, stubListingService{
		createFn: func(_ context.Context, session auth.Session, in services.CreateListingInput) (models.Listing, error) {
			owner = session.AccountID
			input = in
			return models.Listing{ID: "1714642200", OwnerID: session.AccountID, Title: in.Title}, nil
		},
	}, stubRequestService{}, stubAdminService{})

	rr := doRequest(t, handler, http.MethodPost, "/listings", "user-token", map[string]string{
		"region":   "수도권",
		"complex":  "시화",
		"role":     string(models.RoleSell),
		"category": string(models.CategoryEquipment),
		"title":    "500L 반응기",
	})
	require.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "acme", owner)
	assert.Equal(t, models.RoleSell, input.Role)
	assert.Equal(t, models.CategoryEquipment, input.Category)
	assert.Equal(t, "500L 반응기", input.Title)
}

func TestCreateListingValidationError(t *testing.T) {
	handler := newTestHandler(stubAuthService{}, stubListingService{
		createFn: func(context.Context, auth.Session, services.CreateListingInput) (models.Listing, error) {
			return models.Listing{}, fmt.Errorf("%w: title", services.ErrMissingField)
		},
	}, stubRequestService{}, stubAdminService{})
	rr := doRequest(t, handler, http.MethodPost, "/listings", "user-token", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestDeleteListing(t *testing.T) {
	handler := newTestHandler(stubAuthService{}, stubListingService{
		deleteFn: func(_ context.Context, session auth.Session, id string) error {
			if session.AccountID != "acme" {
				return services.ErrNotAuthorized
			}
			return nil
		},
	}, stubRequestService{}, stubAdminService{})
	rr := doRequest(t, handler, http.MethodDelete, "/listings/1", "user-token", nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	handler = newTestHandler(stubAuthService{}, stubListingService{
		deleteFn: func(context.Context, auth.Session, string) error { return services.ErrNotAuthorized },
	}, stubRequestService{}, stubAdminService{})
	rr = doRequest(t, handler, http.MethodDelete, "/listings/1", "user-token", nil)
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestMyListings(t *testing.T) {
	handler := newTestHandler(stubAuthService{}, stubListingService{
		mineFn: func(_ context.Context, session auth.Session) ([]models.Listing, error) {
			return []models.Listing{{ID: "1", OwnerID: session.AccountID}}, nil
		},
	}, stubRequestService{}, stubAdminService{})
	rr := doRequest(t, handler, http.MethodGet, "/me/listings", "user-token", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var listings []models.Listing
	decodeBody(t, rr, &listings)
	require.Len(t, listings, 1)
	assert.Equal(t, "acme", listings[0].OwnerID)
}

func TestUploadListingImage(t *testing.T) {
	var gotName string
	var gotData []byte
	handler := newTestHandler(stubAuthService{}, stubListingService{
		attachImageFn: func(_ context.Context, _ auth.Session, id, filename string, data []byte) (models.Listing, error) {
			gotName, gotData = filename, data
			return models.Listing{ID: id, ImagePath: "http://images.local/listings/x.png"}, nil
		},
	}, stubRequestService{}, stubAdminService{})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "reactor.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("png-bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/listings/7/image", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer user-token")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "reactor.png", gotName)
	assert.Equal(t, []byte("png-bytes"), gotData)
}

func TestUploadListingImageWithoutFile(t *testing.T) {
	handler := newTestHandler(stubAuthService{}, stubListingService{}, stubRequestService{}, stubAdminService{})
	rr := doRequest(t, handler, http.MethodPost, "/listings/7/image", "user-token", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestUploadListingImageDisabled(t *testing.T) {
	handler := newTestHandler(stubAuthService{}, stubListingService{
		attachImageFn: func(context.Context, auth.Session, string, string, []byte) (models.Listing, error) {
			return models.Listing{}, services.ErrImagesDisabled
		},
	}, stubRequestService{}, stubAdminService{})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "a.png")
	require.NoError(t, err)
	_, _ = part.Write([]byte("x"))
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/listings/7/image", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer user-token")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}
