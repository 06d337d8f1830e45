package lineweb

import "strings"

// Page sizes and page budgets applied when a parameter is left nil.
const (
	DefaultBotsLimit     = 1000
	DefaultChatsLimit    = 25
	DefaultContactsLimit = 20
	DefaultMembersLimit  = 100
	DefaultMaxPages      = 1

	maxBotsLimit     = 1000
	maxChatsLimit    = 25
	maxContactsLimit = 100
	maxMembersLimit  = 100
)

// AllPages as MaxPages follows cursors until the server stops returning one.
const AllPages = 0

// Int returns a pointer to n, for the optional numeric parameters.
func Int(n int) *int { return &n }

func valueOr(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}

func joinIDs(ids []string) string { return strings.Join(ids, ",") }

// BotsParams selects either one account (WebBotID set) or the account list.
type BotsParams struct {
	WebBotID     string
	LimitPerPage *int
	MaxPages     *int
	// NextToken resumes a previous listing. Not allowed with WebBotID.
	NextToken string
}

// OwnersParams filters the owners of an account. A nil BizIDs lists all.
type OwnersParams struct {
	WebBotID string
	BizIDs   []string
}

// TagsParams filters the tags of an account. A nil TagIDs lists all.
type TagsParams struct {
	WebBotID string
	TagIDs   []string
}

// ChatsParams lists the chats of an account.
type ChatsParams struct {
	WebBotID     string
	LimitPerPage *int
	MaxPages     *int
	NextToken    string
}

// MessagesParams reads a chat timeline from newest to oldest.
type MessagesParams struct {
	WebBotID  string
	WebChatID string
	MaxPages  *int
	// BackwardToken resumes towards older events.
	BackwardToken string
}

// FilterKey restricts a contact search.
type FilterKey string

const (
	FilterAll       FilterKey = "ALL"
	FilterFriend    FilterKey = "FRIEND"
	FilterNotFriend FilterKey = "NOT_FRIEND"
	FilterGroup     FilterKey = "GROUP"
	FilterSpam      FilterKey = "SPAM"
)

// SortKey orders a contact search.
type SortKey string

const (
	SortByDisplayName  SortKey = "DISPLAY_NAME"
	SortByLastTalkedAt SortKey = "LAST_TALKED_AT"
)

// SortOrder is the direction of a contact search.
type SortOrder string

const (
	Ascending  SortOrder = "ASC"
	Descending SortOrder = "DESC"
)

// ContactsParams searches contacts by display name. Empty enum fields take
// FilterAll, SortByDisplayName and Ascending.
type ContactsParams struct {
	WebBotID     string
	ChatName     string
	LimitPerPage *int
	MaxPages     *int
	NextToken    string
	FilterKey    FilterKey
	SortKey      SortKey
	SortOrder    SortOrder
}

// MembersParams lists the members of a group chat. WebUserIDs narrows the
// result to the given users.
type MembersParams struct {
	WebBotID     string
	WebChatID    string
	LimitPerPage *int
	WebUserIDs   []string
	NextToken    string
	MaxPages     *int
}

// FlexParams identifies a flex message. Timestamp is optional.
type FlexParams struct {
	WebBotID  string
	WebChatID string
	MessageID string
	Timestamp string
}
