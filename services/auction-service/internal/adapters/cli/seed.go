package cli

import (
	"fmt"
	"io"
	"math/rand/v2"

	"github.com/spf13/cobra"

	"github.com/floroz/gavel-live/services/auction-service/internal/adapters/api"
	"github.com/floroz/gavel-live/services/auction-service/internal/domain/users"
)

var seedItems = []string{
	"Gaming Laptop RGB X4000", "Foldable Smartphone Pro", "Noise-Cancelling Headphones",
	"Smartwatch Ultra 2", "Mirrorless Camera", "12\" Tablet",
	"Ergonomic Gaming Chair", "4K 144Hz Monitor", "Retro Handheld Console",
	"HD Camera Drone", "Robot Vacuum", "Premium Tool Kit",
	"Folding E-Bike", "Compact 1080p Projector", "Espresso Machine",
	"8TB External Drive", "Hobby 3D Printer", "Graphics Card",
	"Electro-Acoustic Guitar", "Limited Edition Brick Set",
}

var seedUsers = []string{"Alice B.", "Bob C.", "Charlie D.", "Diana E.", "Ethan F.", "Fiona G."}

type SeedOptions struct {
	*RootOptions
	Auctions int
	Seed     uint64
}

type SeedReport struct {
	Users    []*users.User `json:"users"`
	Auctions []int64       `json:"auctions"`
	Bids     int           `json:"bids"`
}

func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SeedOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Fill an empty deployment with demo users, auctions and bids",
		Long: `Fill an empty deployment with demo users, auctions and bids.

Everything goes through the public API, so seeded data obeys the same rules
as real traffic.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := seed(cmd, opts)
			if err != nil {
				return err
			}
			return opts.output(cmd).Render(report, func(w io.Writer) {
				fmt.Fprintf(w, "Seeded %d users, %d auctions and %d bids\n", len(report.Users), len(report.Auctions), report.Bids)
			})
		},
	}

	cmd.Flags().IntVar(&opts.Auctions, "auctions", 20, "number of auctions to open")
	cmd.Flags().Uint64Var(&opts.Seed, "seed", 0, "random seed (0 picks one)")

	return cmd
}

func seed(cmd *cobra.Command, opts *SeedOptions) (*SeedReport, error) {
	ctx := cmd.Context()
	client := opts.client()

	s := opts.Seed
	if s == 0 {
		s = rand.Uint64()
	}
	rng := rand.New(rand.NewPCG(s, s))

	report := &SeedReport{}
	for _, name := range seedUsers {
		user, err := client.Register(ctx, name, "")
		if err != nil {
			return nil, fmt.Errorf("register %s: %w", name, err)
		}
		report.Users = append(report.Users, user)
	}

	for range opts.Auctions {
		owner := report.Users[rng.IntN(len(report.Users))]
		minutes := int64(60 + rng.IntN(2880-60+1))
		price := int64(5000 + rng.IntN(195001))

		created, err := client.CreateAuction(ctx, api.CreateAuctionRequest{
			OwnerID:         owner.ID,
			Title:           seedItems[rng.IntN(len(seedItems))],
			StartingPrice:   price,
			DurationMinutes: &minutes,
		})
		if err != nil {
			return nil, fmt.Errorf("create auction: %w", err)
		}
		report.Auctions = append(report.Auctions, created.AuctionID)

		current, leader := price, owner.ID
		for range 2 + rng.IntN(9) {
			var candidates []*users.User
			for _, u := range report.Users {
				if u.ID != owner.ID && u.ID != leader {
					candidates = append(candidates, u)
				}
			}
			bidder := candidates[rng.IntN(len(candidates))]
			// 5% to 20% over the current bid
			amount := current + current*int64(5+rng.IntN(16))/100 + 1

			if _, err := client.PlaceBid(ctx, api.PlaceBidRequest{
				AuctionID: created.AuctionID,
				UserID:    bidder.ID,
				Amount:    amount,
			}); err != nil {
				return nil, fmt.Errorf("bid on auction %d: %w", created.AuctionID, err)
			}
			current, leader = amount, bidder.ID
			report.Bids++
		}
	}
	return report, nil
}
