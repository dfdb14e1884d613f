package realtime

// MessageType identifies a realtime message on the wire.
type MessageType string

const (
	TypeNewEvent        MessageType = "NEW_EVENT"
	TypeRSVPUpdate      MessageType = "RSVP_UPDATE"
	TypeNewAnnouncement MessageType = "NEW_ANNOUNCEMENT"
)

// Known reports whether t is one of the message types clients understand.
func (t MessageType) Known() bool {
	switch t {
	case TypeNewEvent, TypeRSVPUpdate, TypeNewAnnouncement:
		return true
	}
	return false
}

// NewEventMessage announces a newly created event.
type NewEventMessage struct {
	Type    MessageType `json:"type"`
	EventID uint        `json:"eventId"`
}

// RSVPUpdateMessage carries the outcome of an RSVP submission.
type RSVPUpdateMessage struct {
	Type              MessageType `json:"type"`
	EventID           uint        `json:"eventId"`
	UserID            uint        `json:"userId"`
	Status            string      `json:"status"`
	RemainingCapacity int         `json:"remainingCapacity"`
}

// NewAnnouncementMessage carries a freshly published announcement.
type NewAnnouncementMessage struct {
	Type           MessageType `json:"type"`
	AnnouncementID uint        `json:"announcementId"`
	Title          string      `json:"title"`
	Content        string      `json:"content"`
}

func NewEvent(eventID uint) NewEventMessage {
	return NewEventMessage{Type: TypeNewEvent, EventID: eventID}
}

func RSVPUpdate(eventID, userID uint, status string, remaining int) RSVPUpdateMessage {
	return RSVPUpdateMessage{
		Type:              TypeRSVPUpdate,
		EventID:           eventID,
		UserID:            userID,
		Status:            status,
		RemainingCapacity: remaining,
	}
}

func NewAnnouncement(id uint, title, content string) NewAnnouncementMessage {
	return NewAnnouncementMessage{
		Type:           TypeNewAnnouncement,
		AnnouncementID: id,
		Title:          title,
		Content:        content,
	}
}
