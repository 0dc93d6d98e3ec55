package services

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"time"

	"factorylink/internal/auth"
	"factorylink/internal/models"
	"factorylink/internal/pagination"
	"factorylink/internal/records"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type AdminService struct {
	store RecordStore
	cfg   AuthConfig
	log   *zap.Logger
	now   func() time.Time
}

func NewAdminService(store RecordStore, cfg AuthConfig, log *zap.Logger) *AdminService {
	return &AdminService{store: store, cfg: cfg, log: log, now: time.Now}
}

type Dashboard struct {
	Accounts        int `json:"accounts"`
	Listings        int `json:"listings"`
	PendingRequests int `json:"pending_requests"`
}

func (s *AdminService) Dashboard(ctx context.Context, session auth.Session) (Dashboard, error) {
	if !session.IsAdmin {
		return Dashboard{}, ErrNotAuthorized
	}
	accounts, err := s.store.Load(ctx, records.Accounts)
	if err != nil {
		return Dashboard{}, err
	}
	listings, err := s.store.Load(ctx, records.Listings)
	if err != nil {
		return Dashboard{}, err
	}
	requests, err := s.store.Load(ctx, records.Requests)
	if err != nil {
		return Dashboard{}, err
	}
	d := Dashboard{Accounts: accounts.Len(), Listings: listings.Len()}
	for _, row := range requests.Rows {
		if models.RequestStatus(row["status"]) == models.StatusRequested {
			d.PendingRequests++
		}
	}
	return d, nil
}

type AccountsPage struct {
	Accounts []models.Account `json:"accounts"`
	Meta     pagination.Meta  `json:"meta"`
	Revision string           `json:"revision"`
}

type ListingsPage struct {
	Listings []models.Listing `json:"listings"`
	Meta     pagination.Meta  `json:"meta"`
	Revision string           `json:"revision"`
}

// AccountsPage reads past the cache so the revision matches what a
// following UpdateAccounts will compare against.
func (s *AdminService) AccountsPage(ctx context.Context, session auth.Session, params pagination.Params) (AccountsPage, error) {
	if !session.IsAdmin {
		return AccountsPage{}, ErrNotAuthorized
	}
	table, err := s.store.LoadFresh(ctx, records.Accounts)
	if err != nil {
		return AccountsPage{}, err
	}
	start, end := pagination.Bounds(params, table.Len())
	page := AccountsPage{
		Accounts: make([]models.Account, 0, end-start),
		Meta:     pagination.GetMeta(params, table.Len()),
		Revision: table.Revision(),
	}
	for _, row := range table.Rows[start:end] {
		page.Accounts = append(page.Accounts, models.AccountFromRow(row))
	}
	return page, nil
}

func (s *AdminService) ListingsPage(ctx context.Context, session auth.Session, params pagination.Params) (ListingsPage, error) {
	if !session.IsAdmin {
		return ListingsPage{}, ErrNotAuthorized
	}
	table, err := s.store.LoadFresh(ctx, records.Listings)
	if err != nil {
		return ListingsPage{}, err
	}
	start, end := pagination.Bounds(params, table.Len())
	page := ListingsPage{
		Listings: make([]models.Listing, 0, end-start),
		Meta:     pagination.GetMeta(params, table.Len()),
		Revision: table.Revision(),
	}
	for _, row := range table.Rows[start:end] {
		page.Listings = append(page.Listings, models.ListingFromRow(row))
	}
	return page, nil
}

// DeleteListings removes the selected listings. Every id must be on the
// given page.
func (s *AdminService) DeleteListings(ctx context.Context, session auth.Session, params pagination.Params, ids []string) (int, error) {
	if !session.IsAdmin {
		return 0, ErrNotAuthorized
	}
	return s.deleteOnPage(ctx, session, records.Listings, "id", params, ids, nil)
}

// DeleteAccounts removes the selected accounts. The administrative account
// is never deleted.
func (s *AdminService) DeleteAccounts(ctx context.Context, session auth.Session, params pagination.Params, ids []string) (int, error) {
	if !session.IsAdmin {
		return 0, ErrNotAuthorized
	}
	return s.deleteOnPage(ctx, session, records.Accounts, "id", params, ids, func(id string) error {
		if id == s.cfg.AdminID {
			return ErrProtectedAccount
		}
		return nil
	})
}

func (s *AdminService) deleteOnPage(ctx context.Context, session auth.Session, kind records.Kind, column string, params pagination.Params, ids []string, check func(string) error) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	table, err := s.store.LoadFresh(ctx, kind)
	if err != nil {
		return 0, err
	}
	start, end := pagination.Bounds(params, table.Len())
	onPage := make(map[string]bool, end-start)
	for _, row := range table.Rows[start:end] {
		onPage[row[column]] = true
	}
	selected := make(map[string]bool, len(ids))
	for _, id := range ids {
		if !onPage[id] {
			return 0, ErrNotOnPage
		}
		if check != nil {
			if err := check(id); err != nil {
				return 0, err
			}
		}
		selected[id] = true
	}

	kept := make([]records.Row, 0, table.Len())
	for _, row := range table.Rows {
		if !selected[row[column]] {
			kept = append(kept, row)
		}
	}
	removed := table.Len() - len(kept)
	table.Rows = kept
	if err := s.store.Save(ctx, table); err != nil {
		return 0, err
	}
	s.audit(ctx, session, "delete", kind, keys(selected))
	return removed, nil
}

// AccountEdit carries the editable columns of one account. Nil fields are
// left unchanged; id and join date cannot be edited.
type AccountEdit struct {
	ID         string           `json:"id"`
	Name       *string          `json:"name,omitempty"`
	Contact    *string          `json:"contact,omitempty"`
	BizNo      *string          `json:"biz_no,omitempty"`
	Verified   *bool            `json:"verified,omitempty"`
	DealCount  *int             `json:"deal_count,omitempty"`
	Reputation *decimal.Decimal `json:"reputation,omitempty"`
}

// UpdateAccounts applies edits and saves only when the accounts table still
// has the revision the caller loaded; otherwise records.ErrStaleTable.
func (s *AdminService) UpdateAccounts(ctx context.Context, session auth.Session, revision string, edits []AccountEdit) (int, error) {
	if !session.IsAdmin {
		return 0, ErrNotAuthorized
	}
	if len(edits) == 0 {
		return 0, nil
	}
	table, err := s.store.LoadFresh(ctx, records.Accounts)
	if err != nil {
		return 0, err
	}
	ids := make([]string, 0, len(edits))
	for _, edit := range edits {
		idx := findRow(table, "id", edit.ID)
		if idx < 0 {
			return 0, ErrAccountNotFound
		}
		if err := applyEdit(table.Rows[idx], edit); err != nil {
			return 0, err
		}
		ids = append(ids, edit.ID)
	}
	if err := s.store.SaveIfUnchanged(ctx, table, revision); err != nil {
		return 0, err
	}
	s.audit(ctx, session, "update", records.Accounts, ids)
	return len(ids), nil
}

func applyEdit(row records.Row, edit AccountEdit) error {
	if edit.Name != nil {
		row["name"] = strings.TrimSpace(*edit.Name)
	}
	if edit.Contact != nil {
		row["contact"] = strings.TrimSpace(*edit.Contact)
	}
	if edit.BizNo != nil {
		row["biz_no"] = strings.TrimSpace(*edit.BizNo)
	}
	if edit.Verified != nil {
		row["verified"] = models.FormatBool(*edit.Verified)
	}
	if edit.DealCount != nil {
		if *edit.DealCount < 0 {
			return ErrInvalidField
		}
		row["deal_count"] = strconv.Itoa(*edit.DealCount)
	}
	if edit.Reputation != nil {
		row["reputation"] = edit.Reputation.String()
	}
	return nil
}

// ResetPassword sets an account's secret back to the administrative default.
func (s *AdminService) ResetPassword(ctx context.Context, session auth.Session, accountID string) error {
	if !session.IsAdmin {
		return ErrNotAuthorized
	}
	table, err := s.store.LoadFresh(ctx, records.Accounts)
	if err != nil {
		return err
	}
	idx := findRow(table, "id", accountID)
	if idx < 0 {
		return ErrAccountNotFound
	}
	hash, err := auth.HashPassword(s.cfg.PasswordScheme, s.cfg.AdminSecret)
	if err != nil {
		return err
	}
	table.Rows[idx]["credential_hash"] = hash
	if err := s.store.Save(ctx, table); err != nil {
		return err
	}
	s.audit(ctx, session, "reset_password", records.Accounts, []string{accountID})
	return nil
}

// audit records a bulk write. The write already happened, so a failure here
// is only logged.
func (s *AdminService) audit(ctx context.Context, session auth.Session, action string, kind records.Kind, ids []string) {
	entry := models.AuditEntry{
		ID:        uuid.NewString(),
		ActorID:   session.AccountID,
		Action:    action,
		Entity:    string(kind),
		EntityIDs: ids,
		Timestamp: s.now().Format(models.TimestampLayout),
	}
	s.log.Info("admin bulk write",
		zap.String("actor_id", entry.ActorID),
		zap.String("action", action),
		zap.String("entity", entry.Entity),
		zap.Strings("entity_ids", ids))
	if err := s.store.Append(ctx, records.Audit, entry.Row()); err != nil {
		s.log.Error("audit append failed", zap.String("action", action), zap.Error(err))
	}
}

func keys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
