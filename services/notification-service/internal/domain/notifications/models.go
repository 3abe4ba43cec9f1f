package notifications

import (
	"fmt"
	"strings"
	"time"

	"github.com/floroz/gavel-live/pkg/contracts"
)

// Embed colours
const (
	ColorSettled = 3066993  // green
	ColorVoid    = 15158332 // red
)

// Field is one labelled value of a Message
type Field struct {
	Name   string
	Value  string
	Inline bool
}

// Message is a channel-neutral announcement of a closed auction.
type Message struct {
	AuctionID  int64
	Outcome    contracts.Outcome
	Headline   string
	Title      string
	Color      int
	Fields     []Field
	OccurredAt time.Time
}

// Text renders the message for plain text channels.
func (m Message) Text() string {
	var b strings.Builder
	b.WriteString(m.Headline)
	b.WriteString("\n")
	b.WriteString(m.Title)
	for _, f := range m.Fields {
		fmt.Fprintf(&b, "\n%s: %s", f.Name, f.Value)
	}
	return b.String()
}
