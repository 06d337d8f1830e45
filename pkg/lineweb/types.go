package lineweb

import (
	"encoding/json"
	"fmt"

	"github.com/godeps/lineweb-go/pkg/paginate"
)

// Me is the signed-in account profile. Its fields differ between personal
// and business accounts, so it is kept as a generic object.
type Me map[string]any

// Plan is the subscription plan of an official account.
type Plan struct {
	Code     string `json:"code"`
	PlanType string `json:"planType"`
}

// BotData is an official account as listed by the bots endpoint.
type BotData struct {
	BotID              string `json:"botId"`
	BasicSearchID      string `json:"basicSearchId"`
	Name               string `json:"name"`
	IconURL            string `json:"iconUrl"`
	IconHash           string `json:"iconHash"`
	Region             string `json:"region"`
	BrandType          string `json:"brandType"`
	UserPermissionType string `json:"userPermissionType"`
	ResponseMode       string `json:"responseMode"`
	DisabledCRM        bool   `json:"disabledCrm"`
	UnreadCount        int    `json:"unreadCount"`
	Plan               Plan   `json:"plan"`
	Offline            bool   `json:"offline"`
}

// Bot is a single official account fetched by ID.
type Bot struct {
	BotData
	HasChatRoom bool `json:"hasChatRoom"`
}

// BotList is a page-aggregated list of accounts; Next resumes the listing.
type BotList = paginate.Envelope[BotData]

// BotsKind tells which member of BotsResult is set.
type BotsKind int

const (
	BotsKindList BotsKind = iota
	BotsKindSingle
)

func (k BotsKind) String() string {
	switch k {
	case BotsKindList:
		return "list"
	case BotsKindSingle:
		return "single"
	default:
		return fmt.Sprintf("BotsKind(%d)", int(k))
	}
}

// BotsResult is either one Bot or a BotList, selected by whether a bot ID
// was requested.
type BotsResult struct {
	Kind BotsKind
	Bot  *Bot
	List *BotList
}

// Owner is a business account with access to an official account.
type Owner struct {
	BizID          string `json:"bizId"`
	Name           string `json:"name"`
	LinePictureURI string `json:"linePictureUri,omitempty"`
}

// OwnerList is the owners endpoint response.
type OwnerList struct {
	List []Owner `json:"list"`
}

// Tag is a chat label.
type Tag struct {
	TagID     string `json:"tagId"`
	Name      string `json:"name"`
	Count     int    `json:"count"`
	CreatedAt int64  `json:"createdAt"`
	UpdatedAt int64  `json:"updatedAt"`
}

// TagList is the tags endpoint response.
type TagList struct {
	List []Tag `json:"list"`
}

// ChatProfile describes the counterpart of a chat.
type ChatProfile struct {
	GroupID  string `json:"groupId,omitempty"`
	Name     string `json:"name"`
	Count    int    `json:"count,omitempty"`
	IconHash string `json:"iconHash"`
}

// EventSource identifies where an event happened. UserID is empty for
// chat-level events.
type EventSource struct {
	ChatID string `json:"chatId"`
	UserID string `json:"userId,omitempty"`
}

// ChatEvent is the latest event shown in the chat list.
type ChatEvent struct {
	Type      string          `json:"type"`
	Timestamp int64           `json:"timestamp"`
	Source    EventSource     `json:"source"`
	Message   json.RawMessage `json:"message,omitempty"`
}

// Chat types and statuses.
const (
	ChatTypeGroup = "GROUP"
	ChatTypeUser  = "USER"
	ChatTypeRoom  = "ROOM"

	ChatStatusActive  = "active"
	ChatStatusBlocked = "blocked"
)

// Chat is one conversation of an official account.
type Chat struct {
	ChatID            string      `json:"chatId"`
	UpdatedAt         int64       `json:"updatedAt"`
	TagIDs            []string    `json:"tagIds"`
	AutoTagIDs        []string    `json:"autoTagIds"`
	Read              bool        `json:"read"`
	ReadMentioned     bool        `json:"readMentioned"`
	Done              bool        `json:"done"`
	FollowedUp        bool        `json:"followedUp"`
	Spam              bool        `json:"spam"`
	MuteAtPC          bool        `json:"muteAtPc"`
	MuteAtApp         bool        `json:"muteAtApp"`
	AssignedBizID     string      `json:"assignedBizId"`
	Profile           ChatProfile `json:"profile"`
	LatestEvent       ChatEvent   `json:"latestEvent"`
	LastReadAt        int64       `json:"lastReadAt"`
	LastReceivedAt    int64       `json:"lastReceivedAt"`
	LastSentAt        int64       `json:"lastSentAt"`
	LastTalkedAt      int64       `json:"lastTalkedAt"`
	LastReadMessageID string      `json:"lastReadMessageId"`
	ChatType          string      `json:"chatType"`
	Status            string      `json:"status"`
}

// ChatList is a page-aggregated list of chats; Next resumes the listing.
type ChatList = paginate.Envelope[Chat]

// Message event types.
const (
	EventChatRead     = "chatRead"
	EventMessage      = "message"
	EventMessageSent  = "messageSent"
	EventUnsend       = "unsend"
	EventJoin         = "join"
	EventLeave        = "leave"
	EventMemberLeft   = "memberLeft"
	EventMemberJoined = "memberJoined"
)

// MessageEvent is one entry of a chat timeline. Only the fields relevant to
// Type are populated.
type MessageEvent struct {
	Type      string          `json:"type"`
	Timestamp int64           `json:"timestamp"`
	Source    EventSource     `json:"source"`
	Message   json.RawMessage `json:"message,omitempty"`
	Read      *ReadMark       `json:"read,omitempty"`
	Unsend    *UnsendInfo     `json:"unsend,omitempty"`
	Left      *MemberChange   `json:"left,omitempty"`
	SendID    string          `json:"sendId,omitempty"`
	BizID     string          `json:"bizId,omitempty"`
}

// ReadMark is the payload of a chatRead event.
type ReadMark struct {
	Watermark int64 `json:"watermark"`
}

// UnsendInfo is the payload of an unsend event.
type UnsendInfo struct {
	MessageID string `json:"messageId"`
}

// MemberChange lists the users of a memberJoined or memberLeft event.
type MemberChange struct {
	Members []struct {
		UserID string `json:"userId"`
	} `json:"members"`
}

// ContentProvider locates the binary content of a media message.
type ContentProvider struct {
	Type               string `json:"type"`
	ContentHash        string `json:"contentHash,omitempty"`
	Expired            bool   `json:"expired,omitempty"`
	ExpiredAt          int64  `json:"expiredAt,omitempty"`
	OriginalContentURL string `json:"originalContentUrl,omitempty"`
	PreviewImageURL    string `json:"previewImageUrl,omitempty"`
}

// MessageBody holds the fields shared by the message payload variants
// (text, sticker, image, video, audio, file, location, unsent).
type MessageBody struct {
	ID                  string           `json:"id"`
	Type                string           `json:"type"`
	Text                string           `json:"text,omitempty"`
	QuoteToken          string           `json:"quoteToken,omitempty"`
	QuotedMessageID     string           `json:"quotedMessageId,omitempty"`
	PackageID           string           `json:"packageId,omitempty"`
	StickerID           string           `json:"stickerId,omitempty"`
	StickerResourceType string           `json:"stickerResourceType,omitempty"`
	FileName            string           `json:"fileName,omitempty"`
	FileSize            int64            `json:"fileSize,omitempty"`
	Duration            int64            `json:"duration,omitempty"`
	Latitude            float64          `json:"latitude,omitempty"`
	Longitude           float64          `json:"longitude,omitempty"`
	Address             string           `json:"address,omitempty"`
	ContentHash         string           `json:"contentHash,omitempty"`
	ContentProvider     *ContentProvider `json:"contentProvider,omitempty"`
}

// Body decodes the message payload. It returns nil for events without one.
func (e MessageEvent) Body() (*MessageBody, error) {
	if len(e.Message) == 0 || string(e.Message) == "null" {
		return nil, nil
	}
	var body MessageBody
	if err := json.Unmarshal(e.Message, &body); err != nil {
		return nil, fmt.Errorf("lineweb: decode %s message body: %w", e.Type, err)
	}
	return &body, nil
}

// MessageList is a page-aggregated timeline; Backward resumes towards older
// events.
type MessageList = paginate.Envelope[MessageEvent]

// ContactProfile is either a user or a group profile.
type ContactProfile struct {
	UserID                string `json:"userId,omitempty"`
	GroupID               string `json:"groupId,omitempty"`
	Name                  string `json:"name"`
	Friend                bool   `json:"friend,omitempty"`
	LastActivityExpiresAt int64  `json:"lastActivityExpiresAt,omitempty"`
	Count                 int    `json:"count,omitempty"`
	IconHash              string `json:"iconHash"`
}

// IsGroup reports whether the profile describes a group.
func (p ContactProfile) IsGroup() bool { return p.GroupID != "" }

// Contact is an entry of the contact search.
type Contact struct {
	ContactID     string         `json:"contactId"`
	Profile       ContactProfile `json:"profile"`
	TagIDs        []string       `json:"tagIds"`
	AutoTagIDs    []string       `json:"autoTagIds"`
	Done          bool           `json:"done"`
	FollowedUp    bool           `json:"followedUp"`
	Spam          bool           `json:"spam"`
	Friend        *bool          `json:"friend,omitempty"`
	UseManualChat bool           `json:"useManualChat"`
	ChatAvailable bool           `json:"chatAvailable"`
	LastTalkedAt  int64          `json:"lastTalkedAt"`
	ChatExists    bool           `json:"chatExists"`
}

// ContactList is a page-aggregated contact search; Next resumes it.
type ContactList = paginate.Envelope[Contact]

// Member is a participant of a group chat.
type Member struct {
	UserID   string `json:"userId"`
	Name     string `json:"name"`
	IconHash string `json:"iconHash"`
}

// MemberList is a page-aggregated member list; Next resumes it.
type MemberList = paginate.Envelope[Member]
