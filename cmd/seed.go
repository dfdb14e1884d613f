package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/eventsphere/eventsphere/internal/cache"
	"github.com/eventsphere/eventsphere/internal/config"
	"github.com/eventsphere/eventsphere/internal/database"
	"github.com/eventsphere/eventsphere/internal/engine"
	"github.com/spf13/cobra"
)

var seedCmdFlags struct {
	Password string
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert sample data",
	Long: `Insert sample users, events, RSVPs, an announcement and a pending report for local development.

Users that already exist are reused, so running the command twice only adds events.`,
	RunE: seed,
}

func init() {
	seedCmd.Flags().StringVar(&seedCmdFlags.Password, "password", "password123", "Password of the sample users")
	rootCmd.AddCommand(seedCmd)
}

type sampleEvent struct {
	title       string
	description string
	location    string
	in          time.Duration
	capacity    int
	lat, lng    float64
}

var sampleEvents = []sampleEvent{
	{"Go Conference", "Talks about Go and cloud native development.", "Tech Hall", 14 * 24 * time.Hour, 100, 40.7128, -74.0060},
	{"Gopher Meetup", "Monthly meetup for Go enthusiasts.", "Community Center", 21 * 24 * time.Hour, 50, 34.0522, -118.2437},
	{"Startup Pitch Night", "Pitch your startup idea to investors.", "Innovation Hub", 35 * 24 * time.Hour, 2, 37.7749, -122.4194},
}

func seed(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(rootCmdPersistentFlags.ConfigFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close() //nolint: errcheck

	appCache, err := cache.New(cfg.Cache)
	if err != nil {
		return fmt.Errorf("failed to create cache: %w", err)
	}

	// no websocket clients exist outside of serve
	eng, err := engine.New(cfg, db, nil, appCache)
	if err != nil {
		return fmt.Errorf("failed to create engine: %w", err)
	}
	defer eng.Close() //nolint:errcheck

	ctx := cmd.Context()
	if err := eng.Init(ctx); err != nil {
		return fmt.Errorf("failed to initialize engine: %w", err)
	}

	names := []string{"Alice", "Bob", "Charlie", "Dana"}
	users := make([]*database.User, 0, len(names))
	for _, name := range names {
		user, err := seedUser(ctx, eng, db, name)
		if err != nil {
			return err
		}
		users = append(users, user)
	}
	alice, bob, charlie, dana := users[0], users[1], users[2], users[3]

	// Alice moderates the sample data
	if err := eng.SetUserRole(ctx, 0, alice.ID, true); err != nil {
		return fmt.Errorf("failed to promote %s: %w", alice.Name, err)
	}

	events := make([]*database.Event, 0, len(sampleEvents))
	for i, sample := range sampleEvents {
		creator := users[i%len(users)]
		lat, lng := sample.lat, sample.lng
		event, err := eng.CreateEvent(ctx, &engine.Viewer{UserID: creator.ID, IsAdmin: creator.ID == alice.ID}, engine.CreateEventInput{
			Title:       sample.title,
			Description: sample.description,
			Location:    sample.location,
			Date:        time.Now().Add(sample.in).Truncate(time.Hour),
			Capacity:    sample.capacity,
			Latitude:    &lat,
			Longitude:   &lng,
		})
		if err != nil {
			return fmt.Errorf("failed to create event %q: %w", sample.title, err)
		}
		events = append(events, event)
	}

	rsvps := []struct {
		event  *database.Event
		user   *database.User
		status database.RSVPStatus
	}{
		{events[0], alice, database.RSVPStatusAttending},
		{events[0], bob, database.RSVPStatusMaybe},
		{events[0], charlie, database.RSVPStatusAttending},
		{events[1], dana, database.RSVPStatusAttending},
		{events[2], charlie, database.RSVPStatusNotAttending},
		{events[2], bob, database.RSVPStatusAttending},
		{events[2], dana, database.RSVPStatusAttending},
		// the pitch night only has two seats
		{events[2], alice, database.RSVPStatusAttending},
	}
	for _, r := range rsvps {
		if _, err := eng.SubmitRSVP(ctx, r.event.ID, r.user.ID, r.status); err != nil {
			if errors.Is(err, engine.ErrCapacityExceeded) {
				log.Info("sample rsvp rejected, event is full", "event", r.event.Title, "user", r.user.Name)
				continue
			}
			return fmt.Errorf("failed to submit rsvp: %w", err)
		}
	}

	if _, err := eng.CreateAnnouncement(ctx, alice.ID, "Welcome!", "Welcome to EventSphere. Stay tuned for updates."); err != nil {
		return fmt.Errorf("failed to create announcement: %w", err)
	}
	if _, err := eng.ReportEvent(ctx, events[0].ID, bob.ID, "Spam content"); err != nil {
		return fmt.Errorf("failed to report event: %w", err)
	}

	log.Info("sample data inserted", "users", len(users), "events", len(events))
	return nil
}

func seedUser(ctx context.Context, eng *engine.Engine, db database.DB, name string) (*database.User, error) {
	email := fmt.Sprintf("%s@example.com", name)
	user, err := eng.Register(ctx, name, email, seedCmdFlags.Password)
	if err == nil {
		return user, nil
	}
	if !engine.IsValidationError(err) {
		return nil, fmt.Errorf("failed to create user %s: %w", name, err)
	}

	existing, lookupErr := db.GetUserByEmail(ctx, strings.ToLower(email))
	if lookupErr != nil {
		return nil, fmt.Errorf("failed to create user %s: %w", name, err)
	}
	log.Debug("sample user already exists", "name", name)
	return existing, nil
}
