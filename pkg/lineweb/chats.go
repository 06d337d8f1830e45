package lineweb

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/godeps/lineweb-go/pkg/paginate"
	"github.com/godeps/lineweb-go/pkg/transport"
	"github.com/godeps/lineweb-go/pkg/validate"
)

func chatPath(botID, chatID string) string {
	return "/bots/" + segment(botID) + "/chats/" + segment(chatID)
}

// GetChats lists the chats of an account, pinned chats first.
func (c *Client) GetChats(ctx context.Context, p ChatsParams) (ChatList, error) {
	limit := valueOr(p.LimitPerPage, DefaultChatsLimit)
	maxPages := valueOr(p.MaxPages, DefaultMaxPages)
	err := validate.Check(validate.Params{
		BotID:        validate.String(p.WebBotID),
		LimitPerPage: &limit,
		LimitMin:     1,
		LimitMax:     maxChatsLimit,
		MaxPages:     &maxPages,
		NextToken:    validate.Optional(p.NextToken),
	})
	if err != nil {
		return ChatList{}, err
	}

	return collect[Chat](ctx, c, c.Session(), "chats", paginate.Forward, p.NextToken, maxPages, "Failed to fetch chats",
		func(cursor string) string {
			q := newQuery().
				set("folderType", "ALL").
				set("tagIds", "").
				set("autoTagIds", "").
				set("limit", strconv.Itoa(limit)).
				set("prioritizePinnedChat", "true").
				setIf(cursor != "", paginate.Forward.Param(), cursor)
			return c.endpoint("/v2/bots/"+segment(p.WebBotID)+"/chats", q)
		})
}

// GetMessages reads a chat timeline, newest page first. The returned
// Backward cursor continues towards older events.
func (c *Client) GetMessages(ctx context.Context, p MessagesParams) (MessageList, error) {
	maxPages := valueOr(p.MaxPages, DefaultMaxPages)
	err := validate.Check(validate.Params{
		ChatID:        validate.String(p.WebChatID),
		BotID:         validate.String(p.WebBotID),
		MaxPages:      &maxPages,
		BackwardToken: validate.Optional(p.BackwardToken),
	})
	if err != nil {
		return MessageList{}, err
	}

	return collect[MessageEvent](ctx, c, c.Session(), "messages", paginate.Backward, p.BackwardToken, maxPages, "Failed to fetch messages",
		func(cursor string) string {
			q := newQuery().setIf(cursor != "", paginate.Backward.Param(), cursor)
			return c.endpoint("/v3"+chatPath(p.WebBotID, p.WebChatID)+"/messages", q)
		})
}

// GetChatMembers lists the members of a group chat.
func (c *Client) GetChatMembers(ctx context.Context, p MembersParams) (MemberList, error) {
	limit := valueOr(p.LimitPerPage, DefaultMembersLimit)
	maxPages := valueOr(p.MaxPages, DefaultMaxPages)
	err := validate.Check(validate.Params{
		ChatID:       validate.String(p.WebChatID),
		BotID:        validate.String(p.WebBotID),
		LimitPerPage: &limit,
		LimitMin:     1,
		LimitMax:     maxMembersLimit,
		MaxPages:     &maxPages,
		NextToken:    validate.Optional(p.NextToken),
		UserIDs:      p.WebUserIDs,
	})
	if err != nil {
		return MemberList{}, err
	}

	return collect[Member](ctx, c, c.Session(), "members", paginate.Forward, p.NextToken, maxPages, "Failed to fetch chat members",
		func(cursor string) string {
			q := newQuery().
				set("limit", strconv.Itoa(limit)).
				setIf(p.WebUserIDs != nil, "userIds", joinIDs(p.WebUserIDs)).
				setIf(cursor != "", paginate.Forward.Param(), cursor)
			return c.endpoint("/v1"+chatPath(p.WebBotID, p.WebChatID)+"/members", q)
		})
}

// GetFlexMessageContent returns the flex container JSON of a message.
func (c *Client) GetFlexMessageContent(ctx context.Context, p FlexParams) (json.RawMessage, error) {
	err := validate.Check(validate.Params{
		ChatID:    validate.String(p.WebChatID),
		BotID:     validate.String(p.WebBotID),
		MessageID: validate.String(p.MessageID),
		Timestamp: validate.Optional(p.Timestamp),
	})
	if err != nil {
		return nil, err
	}
	q := newQuery().
		set("messageId", p.MessageID).
		setIf(p.Timestamp != "", "timestamp", p.Timestamp)
	req := transport.Request{
		Operation: "flex",
		Method:    http.MethodGet,
		URL:       c.endpoint("/v1"+chatPath(p.WebBotID, p.WebChatID)+"/messages/flexJson", q),
	}
	return send[json.RawMessage](ctx, c, c.Session(), req, "Failed to fetch flex message content")
}
