package redisstore

import (
	"fmt"
	"strconv"
	"time"

	"github.com/floroz/gavel-live/services/auction-service/internal/domain/auctions"
	"github.com/floroz/gavel-live/services/auction-service/internal/domain/users"
)

// Hash field names of auction:{id}
const (
	fieldID            = "id"
	fieldTitle         = "title"
	fieldOwnerID       = "owner_id"
	fieldStartingPrice = "starting_price"
	fieldCurrentBid    = "current_bid"
	fieldLeaderID      = "leader_id"
	fieldClosesAt      = "closes_at"
	fieldIsActive      = "is_active"
	fieldCreatedAt     = "created_at"
)

// Hash field names of user:{id}
const (
	fieldDisplayName = "display_name"
	fieldContact     = "contact"
)

func encodeAuction(a *auctions.Auction) map[string]any {
	return map[string]any{
		fieldID:            strconv.FormatInt(a.ID, 10),
		fieldTitle:         a.Title,
		fieldOwnerID:       strconv.FormatInt(a.OwnerID, 10),
		fieldStartingPrice: strconv.FormatInt(a.StartingPrice, 10),
		fieldCurrentBid:    strconv.FormatInt(a.CurrentBid, 10),
		fieldLeaderID:      strconv.FormatInt(a.LeaderID, 10),
		fieldClosesAt:      strconv.FormatInt(a.ClosesAt.UnixMilli(), 10),
		fieldIsActive:      encodeBool(a.IsActive),
		fieldCreatedAt:     strconv.FormatInt(a.CreatedAt.UnixMilli(), 10),
	}
}

func decodeAuction(fields map[string]string) (*auctions.Auction, error) {
	var (
		a   auctions.Auction
		err error
	)
	ints := []struct {
		name string
		dst  *int64
	}{
		{fieldID, &a.ID},
		{fieldOwnerID, &a.OwnerID},
		{fieldStartingPrice, &a.StartingPrice},
		{fieldCurrentBid, &a.CurrentBid},
		{fieldLeaderID, &a.LeaderID},
	}
	for _, f := range ints {
		if *f.dst, err = parseInt(fields, f.name); err != nil {
			return nil, err
		}
	}

	closesAt, err := parseInt(fields, fieldClosesAt)
	if err != nil {
		return nil, err
	}
	createdAt, err := parseInt(fields, fieldCreatedAt)
	if err != nil {
		return nil, err
	}

	a.Title = fields[fieldTitle]
	a.ClosesAt = time.UnixMilli(closesAt).UTC()
	a.CreatedAt = time.UnixMilli(createdAt).UTC()
	a.IsActive = fields[fieldIsActive] == "1"
	return &a, nil
}

func encodeUser(u *users.User) map[string]any {
	return map[string]any{
		fieldID:          strconv.FormatInt(u.ID, 10),
		fieldDisplayName: u.DisplayName,
		fieldContact:     u.Contact,
	}
}

func decodeUser(fields map[string]string) (*users.User, error) {
	id, err := parseInt(fields, fieldID)
	if err != nil {
		return nil, err
	}
	return &users.User{
		ID:          id,
		DisplayName: fields[fieldDisplayName],
		Contact:     fields[fieldContact],
	}, nil
}

func parseInt(fields map[string]string, name string) (int64, error) {
	raw, ok := fields[name]
	if !ok || raw == "" {
		return 0, fmt.Errorf("field %s missing", name)
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("field %s: %w", name, err)
	}
	return n, nil
}

func encodeBool(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
