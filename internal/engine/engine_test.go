package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/eventsphere/eventsphere/internal/cache"
	"github.com/eventsphere/eventsphere/internal/config"
	"github.com/eventsphere/eventsphere/internal/database"
	"github.com/eventsphere/eventsphere/internal/realtime"
	"github.com/samber/lo"
	"github.com/stretchr/testify/suite"
)

// recorder captures broadcast messages.
type recorder struct {
	mu       sync.Mutex
	messages []map[string]any
}

func (r *recorder) Broadcast(msg any, _ string) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	r.mu.Lock()
	r.messages = append(r.messages, decoded)
	r.mu.Unlock()
	return nil
}

func (r *recorder) ofType(t realtime.MessageType) []map[string]any {
	r.mu.Lock()
	defer r.mu.Unlock()
	return lo.Filter(r.messages, func(m map[string]any, _ int) bool {
		return m["type"] == string(t)
	})
}

type EngineTestSuite struct {
	suite.Suite
	ctx    context.Context
	db     *database.Client
	hub    *recorder
	engine *Engine
}

func (s *EngineTestSuite) SetupTest() {
	s.ctx = context.Background()

	db, err := database.New(filepath.Join(s.T().TempDir(), "eventsphere.db"))
	s.Require().NoError(err)
	s.db = db

	appCache, err := cache.New(&config.CacheConfig{Type: config.CacheTypeMemory})
	s.Require().NoError(err)

	s.hub = &recorder{}
	cfg := &config.Config{
		ServerURL: "http://localhost:5000",
		Auth:      &config.AuthConfig{},
		Jobs: &config.JobsConfig{
			AuditRetentionSchedule:        "0 3 * * *",
			NotificationRetentionSchedule: "30 3 * * *",
		},
	}
	s.engine, err = New(cfg, db, s.hub, appCache)
	s.Require().NoError(err)
	s.Require().NoError(s.engine.Init(s.ctx))
}

func (s *EngineTestSuite) TearDownTest() {
	s.NoError(s.engine.Close())
	s.NoError(s.db.Close())
}

func TestEngineTestSuite(t *testing.T) {
	suite.Run(t, new(EngineTestSuite))
}

func (s *EngineTestSuite) createUser(name string, isAdmin bool) *database.User {
	user := &database.User{
		Name:     name,
		Email:    name + "@example.com",
		Password: "hash",
		IsAdmin:  isAdmin,
		IsActive: true,
	}
	s.Require().NoError(s.db.CreateUser(s.ctx, user))
	return user
}

func (s *EngineTestSuite) createEvent(creator *database.User, capacity int) *database.Event {
	event, err := s.engine.CreateEvent(s.ctx, &Viewer{UserID: creator.ID}, CreateEventInput{
		Title:    "Board game night",
		Location: "Library, Room 2",
		Date:     time.Now().Add(48 * time.Hour),
		Capacity: capacity,
	})
	s.Require().NoError(err)
	return event
}

func (s *EngineTestSuite) submit(event *database.Event, user *database.User, status database.RSVPStatus) int {
	res, err := s.engine.SubmitRSVP(s.ctx, event.ID, user.ID, status)
	s.Require().NoError(err)
	return res.RemainingCapacity
}

func (s *EngineTestSuite) TestSubmitRSVP_SingleSeatScenario() {
	creator := s.createUser("creator", false)
	alice := s.createUser("alice", false)
	bob := s.createUser("bob", false)
	event := s.createEvent(creator, 1)

	s.Equal(0, s.submit(event, alice, database.RSVPStatusAttending))

	_, err := s.engine.SubmitRSVP(s.ctx, event.ID, bob.ID, database.RSVPStatusAttending)
	s.ErrorIs(err, ErrCapacityExceeded)

	s.Equal(1, s.submit(event, alice, database.RSVPStatusMaybe))
	s.Equal(0, s.submit(event, bob, database.RSVPStatusAttending))

	updates := s.hub.ofType(realtime.TypeRSVPUpdate)
	s.Require().Len(updates, 3, "rejected submissions are not broadcast")
	last := updates[2]
	s.EqualValues(event.ID, last["eventId"])
	s.EqualValues(bob.ID, last["userId"])
	s.Equal("attending", last["status"])
	s.EqualValues(0, last["remainingCapacity"])
}

func (s *EngineTestSuite) TestSubmitRSVP_IdempotentResubmission() {
	creator := s.createUser("creator", false)
	alice := s.createUser("alice", false)
	event := s.createEvent(creator, 5)

	first := s.submit(event, alice, database.RSVPStatusAttending)
	second := s.submit(event, alice, database.RSVPStatusAttending)
	s.Equal(4, first)
	s.Equal(first, second)
	s.Len(s.hub.ofType(realtime.TypeRSVPUpdate), 2, "re-submissions are still broadcast")
}

func (s *EngineTestSuite) TestSubmitRSVP_Transitions() {
	creator := s.createUser("creator", false)
	alice := s.createUser("alice", false)
	event := s.createEvent(creator, 3)

	s.Equal(3, s.submit(event, alice, database.RSVPStatusMaybe))
	s.Equal(3, s.submit(event, alice, database.RSVPStatusNotAttending))
	s.Equal(3, s.submit(event, alice, database.RSVPStatusMaybe))

	attending := s.submit(event, alice, database.RSVPStatusAttending)
	s.Equal(2, attending)
	s.Equal(attending+1, s.submit(event, alice, database.RSVPStatusNotAttending))
	s.Equal(attending, s.submit(event, alice, database.RSVPStatusAttending))

	status, err := s.engine.GetRSVPStatus(s.ctx, event.ID, alice.ID)
	s.Require().NoError(err)
	s.Require().NotNil(status)
	s.Equal(database.RSVPStatusAttending, *status)
}

func (s *EngineTestSuite) TestSubmitRSVP_Errors() {
	creator := s.createUser("creator", false)
	event := s.createEvent(creator, 3)

	_, err := s.engine.SubmitRSVP(s.ctx, event.ID, creator.ID, "going")
	s.True(IsValidationError(err))

	_, err = s.engine.SubmitRSVP(s.ctx, 4242, creator.ID, database.RSVPStatusAttending)
	s.ErrorIs(err, ErrEventNotFound)
	s.ErrorIs(err, ErrNotFound)

	status, err := s.engine.GetRSVPStatus(s.ctx, event.ID, creator.ID)
	s.NoError(err)
	s.Nil(status)
}

func (s *EngineTestSuite) TestSubmitRSVP_ConcurrentNeverExceedsCapacity() {
	creator := s.createUser("creator", false)
	event := s.createEvent(creator, 4)

	users := make([]*database.User, 16)
	for i := range users {
		users[i] = s.createUser(fmt.Sprintf("user%d", i), false)
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
		rejected int
	)
	for _, u := range users {
		wg.Add(1)
		go func(u *database.User) {
			defer wg.Done()
			res, err := s.engine.SubmitRSVP(s.ctx, event.ID, u.ID, database.RSVPStatusAttending)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				accepted++
				s.GreaterOrEqual(res.RemainingCapacity, 0)
			case errors.Is(err, ErrCapacityExceeded):
				rejected++
			default:
				s.Failf("unexpected error", "%v", err)
			}
		}(u)
	}
	wg.Wait()

	s.Equal(4, accepted)
	s.Equal(12, rejected)
	count, err := s.db.CountAttending(s.ctx, event.ID)
	s.Require().NoError(err)
	s.EqualValues(4, count)
}

func (s *EngineTestSuite) TestGetEvent_Visibility() {
	creator := s.createUser("creator", false)
	admin := s.createUser("admin", true)
	alice := s.createUser("alice", false)
	event := s.createEvent(creator, 3)
	s.submit(event, alice, database.RSVPStatusAttending)
	s.submit(event, creator, database.RSVPStatusMaybe)

	details, err := s.engine.GetEvent(s.ctx, event.ID, nil)
	s.Require().NoError(err)
	s.False(details.AdminHidden)
	s.Len(details.Attendees, 2)
	s.Equal(1, details.AttendeeCount)

	s.Require().NoError(s.engine.SetEventStatus(s.ctx, event.ID, database.EventStatusArchived))

	_, err = s.engine.GetEvent(s.ctx, event.ID, nil)
	s.ErrorIs(err, ErrEventHidden)
	_, err = s.engine.GetEvent(s.ctx, event.ID, &Viewer{UserID: alice.ID})
	s.ErrorIs(err, ErrEventHidden)

	details, err = s.engine.GetEvent(s.ctx, event.ID, &Viewer{UserID: admin.ID, IsAdmin: true})
	s.Require().NoError(err)
	s.True(details.AdminHidden)
	s.Len(details.Attendees, 2)
	s.Equal(1, details.AttendeeCount)

	_, err = s.engine.GetEvent(s.ctx, 999, nil)
	s.ErrorIs(err, ErrEventNotFound)
}

func (s *EngineTestSuite) TestCreateEvent() {
	creator := s.createUser("creator", false)
	admin := s.createUser("admin", true)

	_, err := s.engine.CreateEvent(s.ctx, &Viewer{UserID: creator.ID}, CreateEventInput{
		Title: "  ", Date: time.Now(), Capacity: 1,
	})
	s.True(IsValidationError(err))
	_, err = s.engine.CreateEvent(s.ctx, &Viewer{UserID: creator.ID}, CreateEventInput{
		Title: "Picnic", Date: time.Now(), Capacity: 0,
	})
	s.True(IsValidationError(err))
	_, err = s.engine.CreateEvent(s.ctx, &Viewer{UserID: creator.ID}, CreateEventInput{
		Title: "Picnic", Date: time.Now(), Capacity: 2, Latitude: lo.ToPtr(91.0),
	})
	s.True(IsValidationError(err))

	event := s.createEvent(creator, 2)
	s.Equal(database.EventStatusActive, event.Status)
	s.Equal(creator.ID, *event.CreatedBy)
	created := s.hub.ofType(realtime.TypeNewEvent)
	s.Require().Len(created, 1)
	s.EqualValues(event.ID, created[0]["eventId"])

	s.Require().NoError(s.engine.UpdateSettings(s.ctx, map[string]string{database.SettingEventCreation: "false"}))
	_, err = s.engine.CreateEvent(s.ctx, &Viewer{UserID: creator.ID}, CreateEventInput{
		Title: "Picnic", Date: time.Now(), Capacity: 2,
	})
	s.ErrorIs(err, ErrEventCreationDisabled)
	s.ErrorIs(err, ErrForbidden)

	_, err = s.engine.CreateEvent(s.ctx, &Viewer{UserID: admin.ID, IsAdmin: true}, CreateEventInput{
		Title: "Picnic", Date: time.Now(), Capacity: 2,
	})
	s.NoError(err, "admins ignore the event_creation setting")
}

func (s *EngineTestSuite) TestModerateReport_Scenario() {
	creator := s.createUser("creator", false)
	reporter := s.createUser("reporter", false)
	event := s.createEvent(creator, 10)

	report, err := s.engine.ReportEvent(s.ctx, event.ID, reporter.ID, "spam")
	s.Require().NoError(err)
	s.Equal(database.ReportStatusPending, report.Status)

	s.Require().NoError(s.engine.ModerateReport(s.ctx, report.ID, ModerationAction{
		HideEvent:     true,
		BanCreator:    true,
		ResolveStatus: database.ReportStatusResolved,
	}))

	gotEvent, err := s.db.GetEventByID(s.ctx, event.ID)
	s.Require().NoError(err)
	s.Equal(database.EventStatusArchived, gotEvent.Status)

	gotCreator, err := s.db.GetUserByID(s.ctx, creator.ID)
	s.Require().NoError(err)
	s.False(gotCreator.IsActive)

	gotReport, err := s.db.GetReportByID(s.ctx, report.ID)
	s.Require().NoError(err)
	s.Equal(database.ReportStatusResolved, gotReport.Status)

	hidden, err := s.db.ListHiddenEvents(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(hidden, 1)
	s.Equal(event.ID, hidden[0].ID)

	inbox, err := s.engine.ListNotifications(s.ctx, reporter.ID, 10)
	s.Require().NoError(err)
	s.Require().Len(inbox, 1)
	s.Equal(database.NotificationTypeReportResolved, inbox[0].Type)

	_, err = s.engine.Login(s.ctx, creator.Email, "whatever")
	s.ErrorIs(err, ErrAccountDisabled)
}

func (s *EngineTestSuite) TestModerateReport_PartialActions() {
	creator := s.createUser("creator", false)
	reporter := s.createUser("reporter", false)
	event := s.createEvent(creator, 10)
	report, err := s.engine.ReportEvent(s.ctx, event.ID, reporter.ID, "misleading title")
	s.Require().NoError(err)

	// unknown resolve statuses are ignored
	s.Require().NoError(s.engine.ModerateReport(s.ctx, report.ID, ModerationAction{ResolveStatus: "bogus"}))

	gotEvent, err := s.db.GetEventByID(s.ctx, event.ID)
	s.Require().NoError(err)
	s.Equal(database.EventStatusActive, gotEvent.Status)
	gotReport, err := s.db.GetReportByID(s.ctx, report.ID)
	s.Require().NoError(err)
	s.Equal(database.ReportStatusPending, gotReport.Status)

	s.ErrorIs(s.engine.ModerateReport(s.ctx, 999, ModerationAction{HideEvent: true}), ErrReportNotFound)

	s.Require().NoError(s.engine.DeleteEvent(s.ctx, event.ID))
	s.ErrorIs(s.engine.ModerateReport(s.ctx, report.ID, ModerationAction{HideEvent: true}), ErrEventNotFound)
}

func (s *EngineTestSuite) TestModerateReport_AdminCannotBanThemselves() {
	admin := s.createUser("admin", true)
	reporter := s.createUser("reporter", false)
	event := s.createEvent(admin, 10)
	report, err := s.engine.ReportEvent(s.ctx, event.ID, reporter.ID, "spam")
	s.Require().NoError(err)

	err = s.engine.ModerateReport(s.ctx, report.ID, ModerationAction{
		ActorID:       admin.ID,
		HideEvent:     true,
		BanCreator:    true,
		ResolveStatus: database.ReportStatusResolved,
	})
	s.ErrorIs(err, ErrSelfDeactivation)
	s.True(IsValidationError(err))

	// nothing was written
	gotAdmin, err := s.db.GetUserByID(s.ctx, admin.ID)
	s.Require().NoError(err)
	s.True(gotAdmin.IsActive)
	gotEvent, err := s.db.GetEventByID(s.ctx, event.ID)
	s.Require().NoError(err)
	s.Equal(database.EventStatusActive, gotEvent.Status)
	gotReport, err := s.db.GetReportByID(s.ctx, report.ID)
	s.Require().NoError(err)
	s.Equal(database.ReportStatusPending, gotReport.Status)

	// hiding their own event is fine
	s.NoError(s.engine.ModerateReport(s.ctx, report.ID, ModerationAction{ActorID: admin.ID, HideEvent: true}))
}

func (s *EngineTestSuite) TestSetUser_SelfProtection() {
	admin := s.createUser("admin", true)
	other := s.createUser("other", true)

	s.ErrorIs(s.engine.SetUserStatus(s.ctx, admin.ID, admin.ID, false), ErrSelfDeactivation)
	s.ErrorIs(s.engine.SetUserRole(s.ctx, admin.ID, admin.ID, false), ErrSelfDemotion)
	s.NoError(s.engine.SetUserStatus(s.ctx, admin.ID, admin.ID, true))
	s.NoError(s.engine.SetUserRole(s.ctx, admin.ID, admin.ID, true))

	s.NoError(s.engine.SetUserRole(s.ctx, admin.ID, other.ID, false))
	s.NoError(s.engine.SetUserStatus(s.ctx, admin.ID, other.ID, false))

	gotAdmin, err := s.db.GetUserByID(s.ctx, admin.ID)
	s.Require().NoError(err)
	s.True(gotAdmin.IsActive)
	s.True(gotAdmin.IsAdmin)
}

func (s *EngineTestSuite) TestReportEvent_Validation() {
	creator := s.createUser("creator", false)
	event := s.createEvent(creator, 10)

	_, err := s.engine.ReportEvent(s.ctx, event.ID, creator.ID, "  ab ")
	s.True(IsValidationError(err))

	// two characters, three bytes
	_, err = s.engine.ReportEvent(s.ctx, event.ID, creator.ID, "éa")
	s.True(IsValidationError(err))

	_, err = s.engine.ReportEvent(s.ctx, event.ID, creator.ID, "äöü")
	s.NoError(err)

	_, err = s.engine.ReportEvent(s.ctx, 999, creator.ID, "spam")
	s.ErrorIs(err, ErrEventNotFound)
}

func (s *EngineTestSuite) TestGetReportDetails_ToleratesMissingEvent() {
	creator := s.createUser("creator", false)
	reporter := s.createUser("reporter", false)
	event := s.createEvent(creator, 10)
	report, err := s.engine.ReportEvent(s.ctx, event.ID, reporter.ID, "spam")
	s.Require().NoError(err)

	details, err := s.engine.GetReportDetails(s.ctx, report.ID)
	s.Require().NoError(err)
	s.Require().NotNil(details.Event)
	s.Require().NotNil(details.Creator)
	s.Equal(creator.ID, details.Creator.ID)
	s.Equal(reporter.ID, details.Report.Reporter.ID)

	s.Require().NoError(s.engine.DeleteEvent(s.ctx, event.ID))

	details, err = s.engine.GetReportDetails(s.ctx, report.ID)
	s.Require().NoError(err)
	s.Nil(details.Event)
	s.Nil(details.Creator)

	_, err = s.engine.GetReportDetails(s.ctx, 999)
	s.ErrorIs(err, ErrReportNotFound)
}

func (s *EngineTestSuite) TestAccounts() {
	user, err := s.engine.Register(s.ctx, "dana", "Dana@Example.com", "correct horse")
	s.Require().NoError(err)
	s.True(user.IsActive)
	s.False(user.IsAdmin)
	s.NotEqual("correct horse", user.Password)

	_, err = s.engine.Register(s.ctx, "dana", "other@example.com", "correct horse")
	s.True(IsValidationError(err))
	_, err = s.engine.Register(s.ctx, "eve", "eve@example.com", "short")
	s.True(IsValidationError(err))
	_, err = s.engine.Register(s.ctx, "", "eve@example.com", "long enough")
	s.True(IsValidationError(err))

	logged, err := s.engine.Login(s.ctx, "dana@example.com", "correct horse")
	s.Require().NoError(err)
	s.Equal(user.ID, logged.ID)

	_, err = s.engine.Login(s.ctx, "dana@example.com", "wrong password")
	s.ErrorIs(err, ErrInvalidCredentials)
	_, err = s.engine.Login(s.ctx, "nobody@example.com", "correct horse")
	s.ErrorIs(err, ErrInvalidCredentials)

	s.Require().NoError(s.engine.SetUserStatus(s.ctx, 0, user.ID, false))
	_, err = s.engine.Login(s.ctx, "dana@example.com", "correct horse")
	s.ErrorIs(err, ErrAccountDisabled)

	s.ErrorIs(s.engine.SetUserRole(s.ctx, 0, 999, true), ErrUserNotFound)

	s.Require().NoError(s.engine.UpdateSettings(s.ctx, map[string]string{database.SettingUserRegistration: "false"}))
	_, err = s.engine.Register(s.ctx, "frank", "frank@example.com", "long enough")
	s.ErrorIs(err, ErrRegistrationDisabled)
}

func (s *EngineTestSuite) TestLoginOIDC() {
	user, err := s.engine.LoginOIDC(s.ctx, "Grace@Example.com", "grace", false)
	s.Require().NoError(err)
	s.Equal("grace@example.com", user.Email)
	s.False(user.IsAdmin)

	again, err := s.engine.LoginOIDC(s.ctx, "grace@example.com", "grace", true)
	s.Require().NoError(err)
	s.Equal(user.ID, again.ID)
	s.False(again.IsAdmin, "role is only synced when an admin group is configured")

	s.engine.cfg.Auth.OIDC = &config.OIDCConfig{AdminGroup: "admins"}
	again, err = s.engine.LoginOIDC(s.ctx, "grace@example.com", "grace", true)
	s.Require().NoError(err)
	s.True(again.IsAdmin)

	// display name already taken by another account
	other, err := s.engine.LoginOIDC(s.ctx, "other@example.com", "grace", false)
	s.Require().NoError(err)
	s.Equal("other@example.com", other.Name)
}

func (s *EngineTestSuite) TestVerifyEmail() {
	user := &database.User{
		Name:              "henry",
		Email:             "henry@example.com",
		Password:          "hash",
		IsActive:          true,
		VerificationToken: lo.ToPtr("token-123"),
	}
	s.Require().NoError(s.db.CreateUser(s.ctx, user))

	s.ErrorIs(s.engine.VerifyEmail(s.ctx, "nope"), ErrInvalidVerificationToken)
	s.Require().NoError(s.engine.VerifyEmail(s.ctx, "token-123"))

	got, err := s.db.GetUserByID(s.ctx, user.ID)
	s.Require().NoError(err)
	s.True(got.EmailVerified)
	s.Nil(got.VerificationToken)
}

func (s *EngineTestSuite) TestSettings() {
	settings, err := s.engine.Settings(s.ctx)
	s.Require().NoError(err)
	s.Equal("EventSphere", settings[database.SettingSiteName])

	limit, ok := s.engine.APIRateLimit(s.ctx)
	s.True(ok)
	s.Equal(1000, limit)

	s.True(IsValidationError(s.engine.UpdateSettings(s.ctx, map[string]string{"nope": "1"})))
	s.True(IsValidationError(s.engine.UpdateSettings(s.ctx, nil)))

	s.Require().NoError(s.engine.UpdateSettings(s.ctx, map[string]string{database.SettingAPIRateLimit: "25"}))
	limit, ok = s.engine.APIRateLimit(s.ctx)
	s.True(ok)
	s.Equal(25, limit, "the settings cache is invalidated on update")

	s.Require().NoError(s.engine.UpdateSettings(s.ctx, map[string]string{database.SettingAPIRateLimit: "lots"}))
	_, ok = s.engine.APIRateLimit(s.ctx)
	s.False(ok)
}

func (s *EngineTestSuite) TestCreateAnnouncement() {
	admin := s.createUser("admin", true)

	_, err := s.engine.CreateAnnouncement(s.ctx, admin.ID, "", "content")
	s.True(IsValidationError(err))

	announcement, err := s.engine.CreateAnnouncement(s.ctx, admin.ID, "Maintenance", "Down on Sunday")
	s.Require().NoError(err)

	msgs := s.hub.ofType(realtime.TypeNewAnnouncement)
	s.Require().Len(msgs, 1)
	s.EqualValues(announcement.ID, msgs[0]["announcementId"])
	s.Equal("Maintenance", msgs[0]["title"])
	s.Equal("Down on Sunday", msgs[0]["content"])

	list, err := s.engine.ListAnnouncements(s.ctx, 10)
	s.Require().NoError(err)
	s.Len(list, 1)
}

func (s *EngineTestSuite) TestNotificationsAndPushWithoutWebPush() {
	user := s.createUser("ivy", false)
	s.Require().NoError(s.db.CreateNotification(s.ctx, &database.Notification{
		UserID: user.ID, Type: database.NotificationTypeAccount, Message: "welcome",
	}))

	inbox, err := s.engine.ListNotifications(s.ctx, user.ID, 10)
	s.Require().NoError(err)
	s.Require().Len(inbox, 1)

	s.Require().NoError(s.engine.MarkNotificationRead(s.ctx, inbox[0].ID, user.ID))
	s.ErrorIs(s.engine.MarkNotificationRead(s.ctx, inbox[0].ID, user.ID+1), ErrNotificationNotFound)

	s.ErrorIs(s.engine.SubscribePush(s.ctx, user.ID, nil), ErrForbidden)
}

func (s *EngineTestSuite) TestRetentionJobs() {
	admin := s.createUser("admin", true)
	s.Require().NoError(s.db.CreateAuditLog(s.ctx, &database.AuditLog{
		UserID: admin.ID, ActionType: "delete_event", TargetType: "event", TargetID: "1",
		CreatedAt: time.Now().AddDate(0, 0, -120),
	}))
	s.Require().NoError(s.db.CreateAuditLog(s.ctx, &database.AuditLog{
		UserID: admin.ID, ActionType: "delete_event", TargetType: "event", TargetID: "2",
	}))

	s.Require().NoError(s.engine.runAuditRetention(s.ctx))
	logs, total, err := s.db.ListAuditLogs(s.ctx, database.Pagination{})
	s.Require().NoError(err)
	s.EqualValues(1, total)
	s.Equal("2", logs[0].TargetID)

	s.Require().NoError(s.engine.runNotificationRetention(s.ctx))

	jobs := s.engine.GetScheduler().GetJobs()
	s.Require().Len(jobs, 2)
	s.Equal(JobAuditRetention, jobs[0].ID)
	s.Equal(JobNotificationRetention, jobs[1].ID)
}
