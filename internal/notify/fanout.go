package notify

import (
	"context"
	"fmt"
	"log"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/pelongngoan/jobbuilder-server-sub000/internal/database"
	"github.com/pelongngoan/jobbuilder-server-sub000/internal/model"
)

// Store persists notification records. Kept as an interface so tests can
// inject a failing store and assert that transitions survive it.
type Store interface {
	Create(ctx context.Context, n *model.Notification) error
}

// Pusher delivers real-time events to connected sessions. Implemented by
// the realtime hub; delivery is best-effort.
type Pusher interface {
	EmitToUser(accountID string, event string, payload interface{})
	EmitToStaffBroadcast(event string, payload interface{})
}

type gormStore struct {
	db *database.DBinstanceStruct
}

func (s *gormStore) Create(ctx context.Context, n *model.Notification) error {
	return s.db.WithContext(ctx).Create(n).Error
}

// NewStore returns the gorm-backed notification store.
func NewStore(db *database.DBinstanceStruct) Store {
	return &gormStore{db: db}
}

// Fanout builds, persists and pushes notifications for lifecycle events.
// Every failure in here is logged and swallowed: the state transition that
// triggered the event is authoritative and must not be rolled back.
type Fanout struct {
	store  Store
	pusher Pusher
}

// NewFanout creates a new Fanout. pusher may be nil (no real-time channel).
func NewFanout(store Store, pusher Pusher) *Fanout {
	return &Fanout{store: store, pusher: pusher}
}

// BuildNotifications is the pure mapping from one event to zero or more
// notification records. No I/O.
func BuildNotifications(ev Event) []model.Notification {
	switch ev.Kind {
	case EventSubmitted:
		return []model.Notification{{
			AccountID:  ev.HRAccountID,
			Type:       model.NotificationTypeJobApplication,
			Title:      "New Application",
			Content:    fmt.Sprintf("A new application arrived for %q.", ev.JobTitle),
			RelatedRef: model.ApplicationRef(ev.Application.ID),
			ActionURL:  fmt.Sprintf("/applications/%d", ev.Application.ID),
		}}

	case EventStatusChanged:
		ref := model.ApplicationRef(ev.Application.ID)
		actionURL := fmt.Sprintf("/applications/%d", ev.Application.ID)

		var title, content string
		switch ev.NewStatus {
		case model.ApplicationStatusReviewed:
			title = "Application Reviewed"
			content = fmt.Sprintf("Your application for %q has been reviewed.", ev.JobTitle)
		case model.ApplicationStatusShortlisted:
			title = "Application Shortlisted"
			content = fmt.Sprintf("You have been shortlisted for %q.", ev.JobTitle)
		case model.ApplicationStatusInterview:
			title = "Interview Scheduled"
			content = fmt.Sprintf("An interview has been scheduled for your application to %q.", ev.JobTitle)
		case model.ApplicationStatusAccepted:
			title = "Application Accepted"
			content = fmt.Sprintf("Congratulations! Your application for %q has been accepted.", ev.JobTitle)
		case model.ApplicationStatusRejected:
			title = "Application Update"
			content = fmt.Sprintf("Thank you for your interest in %q. The company decided to move forward with other candidates.", ev.JobTitle)
		default:
			title = "Application Update"
			content = fmt.Sprintf("Your application for %q status updated to %s.", ev.JobTitle, ev.NewStatus)
		}

		out := []model.Notification{{
			AccountID:  ev.ApplicantAccountID,
			Type:       model.NotificationTypeApplicationUpdate,
			Title:      title,
			Content:    content,
			RelatedRef: ref,
			ActionURL:  actionURL,
		}}

		if ev.NewStatus == model.ApplicationStatusInterview && ev.InterviewerAssigned {
			out = append(out, model.Notification{
				AccountID:  ev.InterviewerAccountID,
				Type:       model.NotificationTypeInterviewAssignment,
				Title:      "Interview Assignment",
				Content:    fmt.Sprintf("You have been assigned to interview a candidate for %q.", ev.JobTitle),
				RelatedRef: ref,
				ActionURL:  actionURL,
			})
		}
		return out

	case EventChatMessage:
		return []model.Notification{{
			AccountID:  ev.RecipientAccountID,
			Type:       model.NotificationTypeChatMessage,
			Title:      "New Message",
			Content:    fmt.Sprintf("%s: %s", ev.SenderName, truncate(ev.ChatBody, 120)),
			RelatedRef: model.ChatRef(ev.ChatID),
			ActionURL:  fmt.Sprintf("/chats/%s", ev.ChatID),
		}}
	}

	return nil
}

// Dispatch persists each notification for the event, then pushes them to
// connected sessions. Safe to call from the request path: never returns an
// error to the caller.
func (f *Fanout) Dispatch(ctx context.Context, ev Event) {
	notifications := BuildNotifications(ev)

	persisted := notifications[:0]
	for i := range notifications {
		n := notifications[i]
		if err := f.store.Create(ctx, &n); err != nil {
			log.Printf("notify: failed to persist %s notification for %s: %v", n.Type, n.AccountID, err)
			continue
		}
		persisted = append(persisted, n)
	}

	if f.pusher == nil {
		return
	}

	g := new(errgroup.Group)
	g.SetLimit(4)
	for i := range persisted {
		n := persisted[i]
		g.Go(func() error {
			f.pusher.EmitToUser(n.AccountID.String(), pushEvent(ev.Kind), n)
			return nil
		})
	}
	if ev.Kind == EventSubmitted {
		g.Go(func() error {
			f.pusher.EmitToStaffBroadcast("new_application", map[string]interface{}{
				"application_id": ev.Application.ID,
				"job_title":      ev.JobTitle,
				"company_id":     ev.Application.CompanyID,
			})
			return nil
		})
	}
	_ = g.Wait()
}

func pushEvent(kind string) string {
	switch kind {
	case EventStatusChanged:
		return "application_update"
	case EventChatMessage:
		return "new_message"
	default:
		return "new_notification"
	}
}

// truncate cuts s to at most n bytes, backing up to a rune boundary so
// the stored preview stays valid UTF-8.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "…"
}

// ResolveAccountID looks an account id up from a profile table. Used by
// emitters to translate profile ids (how applications reference actors)
// into the account identity space notifications use.
func ResolveAccountID(ctx context.Context, db *database.DBinstanceStruct, profileModel interface{}, profileID interface{}) (uuid.UUID, error) {
	var accountIDs []uuid.UUID
	err := db.WithContext(ctx).Model(profileModel).
		Where("id = ?", profileID).
		Pluck("account_id", &accountIDs).Error
	if err != nil {
		return uuid.Nil, err
	}
	if len(accountIDs) == 0 {
		return uuid.Nil, gorm.ErrRecordNotFound
	}
	return accountIDs[0], nil
}
