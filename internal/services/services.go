package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"factorylink/internal/events"
	"factorylink/internal/records"
	"factorylink/internal/websocket"

	"go.uber.org/zap"
)

var (
	ErrDuplicateIdentifier = errors.New("identifier already exists")
	ErrMissingField        = errors.New("required field missing")
	ErrInvalidField        = errors.New("invalid field value")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrNotAuthorized       = errors.New("not authorized")
	ErrDuplicateRequest    = errors.New("contact already requested for this listing")
	ErrSelfRequest         = errors.New("cannot request contact on own listing")
	ErrListingNotFound     = errors.New("listing not found")
	ErrRequestNotFound     = errors.New("request not found")
	ErrAccountNotFound     = errors.New("account not found")
	ErrInvalidTransition   = errors.New("request already decided")
	ErrInvalidDecision     = errors.New("decision must be approved or rejected")
	ErrNotOnPage           = errors.New("selection not on current page")
	ErrProtectedAccount    = errors.New("administrative account cannot be deleted")
	ErrImagesDisabled      = errors.New("image storage not configured")
)

// DeletedPlaceholder stands in for the title of a listing that no longer
// exists.
const DeletedPlaceholder = "(deleted)"

// RecordStore is the subset of records.Store the services depend on.
type RecordStore interface {
	Load(ctx context.Context, kind records.Kind) (records.Table, error)
	LoadFresh(ctx context.Context, kind records.Kind) (records.Table, error)
	Save(ctx context.Context, table records.Table) error
	Append(ctx context.Context, kind records.Kind, row records.Row) error
	SaveIfUnchanged(ctx context.Context, table records.Table, revision string) error
}

type Notifier interface {
	Notify(accountID string, n websocket.Notification)
}

type nopNotifier struct{}

func (nopNotifier) Notify(string, websocket.Notification) {}

func missing(err error) error {
	return fmt.Errorf("%w: %w", ErrMissingField, err)
}

// nextID derives an identifier from the clock, bumped past any value
// already taken.
func nextID(now time.Time, taken map[string]bool) string {
	n := now.Unix()
	for taken[strconv.FormatInt(n, 10)] {
		n++
	}
	return strconv.FormatInt(n, 10)
}

func columnSet(table records.Table, column string) map[string]bool {
	set := make(map[string]bool, table.Len())
	for _, row := range table.Rows {
		set[row[column]] = true
	}
	return set
}

func findRow(table records.Table, column, value string) int {
	for i, row := range table.Rows {
		if row[column] == value {
			return i
		}
	}
	return -1
}

func publish(ctx context.Context, log *zap.Logger, pub events.Publisher, subject string, payload any) {
	if pub == nil {
		return
	}
	if err := pub.Publish(ctx, subject, payload); err != nil {
		log.Warn("event publish failed", zap.String("subject", subject), zap.Error(err))
	}
}
