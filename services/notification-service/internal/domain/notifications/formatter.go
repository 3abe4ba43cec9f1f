package notifications

import (
	"fmt"
	"strconv"

	"github.com/floroz/gavel-live/pkg/contracts"
)

// FormatClosed builds the announcement for a closed auction.
func FormatClosed(r *contracts.ClosedResult) Message {
	id := strconv.FormatInt(r.AuctionID, 10)
	msg := Message{
		AuctionID:  r.AuctionID,
		Outcome:    r.Outcome,
		Title:      "Final result of auction #" + id,
		OccurredAt: r.ClosedAt,
	}

	if r.Outcome == contracts.OutcomeSettled {
		msg.Headline = "🏆 AUCTION CLOSED: " + r.Title
		msg.Color = ColorSettled
		msg.Fields = []Field{
			{Name: "ID", Value: id, Inline: true},
			{Name: "Status", Value: r.Outcome.String(), Inline: true},
			{Name: "Final amount", Value: contracts.FormatAmount(r.FinalAmount), Inline: true},
			{Name: "Winner", Value: orNA(r.WinnerName), Inline: true},
			{Name: "Contact", Value: orNA(r.WinnerContact)},
		}
		return msg
	}

	msg.Headline = "❌ AUCTION CANCELLED: " + r.Title
	msg.Color = ColorVoid
	msg.Fields = []Field{
		{Name: "ID", Value: id, Inline: true},
		{Name: "Status", Value: r.Outcome.String(), Inline: true},
		{Name: "Starting price", Value: contracts.FormatAmount(r.FinalAmount), Inline: true},
	}
	return msg
}

// WinnerNotice is the mailbox entry for the winner of a settled auction.
func WinnerNotice(r *contracts.ClosedResult) string {
	return fmt.Sprintf("Congratulations! You won '%s' for %s.", r.Title, contracts.FormatAmount(r.FinalAmount))
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
