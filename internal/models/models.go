package models

import (
	"math"
	"strconv"
	"strings"

	"factorylink/internal/records"

	"github.com/shopspring/decimal"
)

const (
	DateLayout      = "2006-01-02"
	TimestampLayout = "2006-01-02 15:04"
)

type RequestStatus string

const (
	StatusRequested RequestStatus = "requested"
	StatusApproved  RequestStatus = "approved"
	StatusRejected  RequestStatus = "rejected"
)

func (s RequestStatus) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

type Account struct {
	ID             string          `json:"id"`
	CredentialHash string          `json:"-"`
	Name           string          `json:"name"`
	Contact        string          `json:"contact"`
	BizNo          string          `json:"biz_no"`
	Verified       bool            `json:"verified"`
	DealCount      int             `json:"deal_count"`
	Reputation     decimal.Decimal `json:"reputation"`
	JoinDate       string          `json:"join_date"`
}

type Listing struct {
	ID           string   `json:"id"`
	OwnerID      string   `json:"owner_id"`
	Date         string   `json:"date"`
	Company      string   `json:"company"`
	Contact      string   `json:"-"`
	Region       string   `json:"region"`
	Complex      string   `json:"complex"`
	Role         Role     `json:"role"`
	Category     Category `json:"category"`
	Title        string   `json:"title"`
	Lat          float64  `json:"lat"`
	Lon          float64  `json:"lon"`
	HasCoords    bool     `json:"has_coords"`
	Description  string   `json:"description"`
	ProcessNotes string   `json:"process_notes"`
	Verified     bool     `json:"verified"`
	ImagePath    string   `json:"image_path,omitempty"`
}

type ContactRequest struct {
	ID        string        `json:"request_id"`
	FromID    string        `json:"from_id"`
	ToID      string        `json:"to_id"`
	ListingID string        `json:"listing_id"`
	Status    RequestStatus `json:"status"`
	Timestamp string        `json:"timestamp"`
}

type AuditEntry struct {
	ID        string   `json:"id"`
	ActorID   string   `json:"actor_id"`
	Action    string   `json:"action"`
	Entity    string   `json:"entity"`
	EntityIDs []string `json:"entity_ids"`
	Timestamp string   `json:"timestamp"`
}

func AccountFromRow(row records.Row) Account {
	return Account{
		ID:             row["id"],
		CredentialHash: row["credential_hash"],
		Name:           row["name"],
		Contact:        row["contact"],
		BizNo:          row["biz_no"],
		Verified:       ParseBool(row["verified"]),
		DealCount:      parseInt(row["deal_count"]),
		Reputation:     parseDecimal(row["reputation"]),
		JoinDate:       row["join_date"],
	}
}

func (a Account) Row() records.Row {
	return records.Row{
		"id":              a.ID,
		"credential_hash": a.CredentialHash,
		"name":            a.Name,
		"contact":         a.Contact,
		"biz_no":          a.BizNo,
		"verified":        FormatBool(a.Verified),
		"deal_count":      strconv.Itoa(a.DealCount),
		"reputation":      a.Reputation.String(),
		"join_date":       a.JoinDate,
	}
}

func ListingFromRow(row records.Row) Listing {
	lat, latOK := parseCoord(row["lat"])
	lon, lonOK := parseCoord(row["lon"])
	hasCoords := latOK && lonOK
	if !hasCoords {
		lat, lon = 0, 0
	}
	return Listing{
		ID:           row["id"],
		OwnerID:      row["owner_id"],
		Date:         row["date"],
		Company:      row["company"],
		Contact:      row["contact"],
		Region:       row["region"],
		Complex:      row["complex"],
		Role:         Role(row["role"]),
		Category:     Category(row["category"]),
		Title:        row["title"],
		Lat:          lat,
		Lon:          lon,
		HasCoords:    hasCoords,
		Description:  row["description"],
		ProcessNotes: row["process_notes"],
		Verified:     ParseBool(row["verified"]),
		ImagePath:    row["image_path"],
	}
}

// parseCoord accepts finite decimal values only. ParseFloat also takes
// "nan" and "inf", which cannot be placed on a map or encoded as JSON.
func parseCoord(cell string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func (l Listing) Row() records.Row {
	lat, lon := "", ""
	if l.HasCoords {
		lat = strconv.FormatFloat(l.Lat, 'f', -1, 64)
		lon = strconv.FormatFloat(l.Lon, 'f', -1, 64)
	}
	return records.Row{
		"id":            l.ID,
		"owner_id":      l.OwnerID,
		"date":          l.Date,
		"company":       l.Company,
		"contact":       l.Contact,
		"region":        l.Region,
		"complex":       l.Complex,
		"role":          string(l.Role),
		"category":      string(l.Category),
		"title":         l.Title,
		"lat":           lat,
		"lon":           lon,
		"description":   l.Description,
		"process_notes": l.ProcessNotes,
		"verified":      FormatBool(l.Verified),
		"image_path":    l.ImagePath,
	}
}

func RequestFromRow(row records.Row) ContactRequest {
	return ContactRequest{
		ID:        row["request_id"],
		FromID:    row["from_id"],
		ToID:      row["to_id"],
		ListingID: row["listing_id"],
		Status:    RequestStatus(row["status"]),
		Timestamp: row["timestamp"],
	}
}

func (r ContactRequest) Row() records.Row {
	return records.Row{
		"request_id": r.ID,
		"from_id":    r.FromID,
		"to_id":      r.ToID,
		"listing_id": r.ListingID,
		"status":     string(r.Status),
		"timestamp":  r.Timestamp,
	}
}

func AuditFromRow(row records.Row) AuditEntry {
	var ids []string
	if raw := strings.TrimSpace(row["entity_ids"]); raw != "" {
		ids = strings.Split(raw, ",")
	}
	return AuditEntry{
		ID:        row["id"],
		ActorID:   row["actor_id"],
		Action:    row["action"],
		Entity:    row["entity"],
		EntityIDs: ids,
		Timestamp: row["timestamp"],
	}
}

func (e AuditEntry) Row() records.Row {
	return records.Row{
		"id":         e.ID,
		"actor_id":   e.ActorID,
		"action":     e.Action,
		"entity":     e.Entity,
		"entity_ids": strings.Join(e.EntityIDs, ","),
		"timestamp":  e.Timestamp,
	}
}

func FormatBool(v bool) string {
	if v {
		return "TRUE"
	}
	return "FALSE"
}

// ParseBool accepts the sheet's TRUE/FALSE in any case; anything else is false.
func ParseBool(raw string) bool {
	return strings.EqualFold(strings.TrimSpace(raw), "true")
}

// parseInt tolerates values a spreadsheet wrote back as floats ("3.0").
func parseInt(raw string) int {
	raw = strings.TrimSpace(raw)
	if n, err := strconv.Atoi(raw); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return int(f)
	}
	return 0
}

func parseDecimal(raw string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero
	}
	return d
}
