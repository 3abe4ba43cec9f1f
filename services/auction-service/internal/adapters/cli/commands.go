package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/floroz/gavel-live/pkg/contracts"
	"github.com/floroz/gavel-live/services/auction-service/internal/adapters/api"
)

type RegisterOptions struct {
	*RootOptions
	Contact string
}

func NewRegisterCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RegisterOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "register <display name>",
		Short: "Register a new user",
		Example: `  auctionctl register Ana Lima
  auctionctl register "Bob" --contact bob@example.com`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := opts.client().Register(cmd.Context(), strings.Join(args, " "), opts.Contact)
			if err != nil {
				return err
			}
			return opts.output(cmd).Render(user, func(w io.Writer) {
				fmt.Fprintf(w, "Registered %s with id %d (contact %s)\n", user.DisplayName, user.ID, user.Contact)
			})
		},
	}

	cmd.Flags().StringVar(&opts.Contact, "contact", "", "contact address (derived from the name when empty)")

	return cmd
}

type CreateOptions struct {
	*RootOptions
	Owner   int64
	Title   string
	Price   string
	Minutes int64
	Seconds int64
}

func NewCreateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CreateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:     "create",
		Short:   "Open a new auction",
		Example: `  auctionctl create --owner 1 --title "Vintage camera" --price 150.00 --minutes 10`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			price, err := parseAmount(opts.Price)
			if err != nil {
				return err
			}
			req := api.CreateAuctionRequest{
				OwnerID:       opts.Owner,
				Title:         opts.Title,
				StartingPrice: price,
			}
			if cmd.Flags().Changed("seconds") {
				req.DurationSeconds = &opts.Seconds
			} else if cmd.Flags().Changed("minutes") {
				req.DurationMinutes = &opts.Minutes
			}

			created, err := opts.client().CreateAuction(cmd.Context(), req)
			if err != nil {
				return err
			}
			return opts.output(cmd).Render(created, func(w io.Writer) {
				fmt.Fprintf(w, "Auction %d created, closes at %s\n", created.AuctionID, created.ClosesAt.Local().Format("15:04:05"))
			})
		},
	}

	cmd.Flags().Int64Var(&opts.Owner, "owner", 0, "id of the user selling the item")
	cmd.Flags().StringVar(&opts.Title, "title", "", "item title")
	cmd.Flags().StringVar(&opts.Price, "price", "0", "starting price, e.g. 150.00")
	cmd.Flags().Int64Var(&opts.Minutes, "minutes", 5, "auction duration in minutes")
	cmd.Flags().Int64Var(&opts.Seconds, "seconds", 0, "auction duration in seconds, overrides --minutes")
	_ = cmd.MarkFlagRequired("owner")
	_ = cmd.MarkFlagRequired("title")

	return cmd
}

type BidOptions struct {
	*RootOptions
	User int64
}

func NewBidCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BidOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:     "bid <auction-id> <amount>",
		Short:   "Place a bid",
		Example: `  auctionctl bid 3 175.50 --user 2`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			auctionID, err := parseID(args[0])
			if err != nil {
				return err
			}
			amount, err := parseAmount(args[1])
			if err != nil {
				return err
			}

			bid, err := opts.client().PlaceBid(cmd.Context(), api.PlaceBidRequest{
				AuctionID: auctionID,
				UserID:    opts.User,
				Amount:    amount,
			})
			if err != nil {
				return err
			}
			return opts.output(cmd).Render(bid, func(w io.Writer) {
				fmt.Fprintf(w, "Bid of %s accepted on auction %d, you are leading\n", bid.Display, bid.AuctionID)
			})
		},
	}

	cmd.Flags().Int64Var(&opts.User, "user", 0, "id of the bidding user")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

type StatusOptions struct {
	*RootOptions
	User int64
}

func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StatusOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "status",
		Short: "List active auctions",
		Long: `List active auctions with the current bid and time left.

Listing closes any auction whose deadline has passed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			active, err := opts.client().ActiveStatus(cmd.Context())
			if err != nil {
				return err
			}
			return opts.output(cmd).Render(active, func(w io.Writer) {
				if len(active) == 0 {
					fmt.Fprintln(w, "No active auctions.")
					return
				}
				for _, a := range active {
					tag := ""
					if opts.User != 0 && a.OwnerID == opts.User {
						tag = " (yours)"
					}
					leader := "no bids yet"
					if a.LeaderName != "" {
						leader = "by " + a.LeaderName
					}
					fmt.Fprintf(w, "ID: %d | %s%s\n", a.ID, a.Title, tag)
					fmt.Fprintf(w, "  > Current bid: %s %s\n", contracts.FormatAmount(a.CurrentBid), leader)
					fmt.Fprintf(w, "  > Time left: %s\n", a.RemainingText)
				}
			})
		},
	}

	cmd.Flags().Int64Var(&opts.User, "user", 0, "highlight auctions owned by this user")

	return cmd
}

func NewBidsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "bids <auction-id>",
		Short: "Show the bid history of an auction, highest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			auctionID, err := parseID(args[0])
			if err != nil {
				return err
			}
			bids, err := rootOpts.client().ListBids(cmd.Context(), auctionID)
			if err != nil {
				return err
			}
			return rootOpts.output(cmd).Render(bids, func(w io.Writer) {
				if len(bids) == 0 {
					fmt.Fprintln(w, "No bids yet.")
					return
				}
				for _, b := range bids {
					fmt.Fprintf(w, "%10s  %-20s %s\n", b.Display, b.UserName, b.Timestamp)
				}
			})
		},
	}
}

func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "Show every closed auction",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			history, err := rootOpts.client().History(cmd.Context())
			if err != nil {
				return err
			}
			return rootOpts.output(cmd).Render(history, func(w io.Writer) {
				if len(history) == 0 {
					fmt.Fprintln(w, "No closed auctions yet.")
					return
				}
				for _, h := range history {
					fmt.Fprintf(w, "  > #%d %s [%s] %s\n", h.AuctionID, h.Title, h.Outcome, h.Summary)
				}
			})
		},
	}
}

func NewInboxCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "inbox <user-id>",
		Short: "Read and clear a user's notifications",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := parseID(args[0])
			if err != nil {
				return err
			}
			messages, err := rootOpts.client().Notifications(cmd.Context(), userID)
			if err != nil {
				return err
			}
			return rootOpts.output(cmd).Render(messages, func(w io.Writer) {
				if len(messages) == 0 {
					fmt.Fprintln(w, "No new notifications.")
					return
				}
				for _, m := range messages {
					fmt.Fprintf(w, "🔔 %s\n", m)
				}
			})
		},
	}
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}
