package lineweb

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/godeps/lineweb-go/pkg/apierr"
	"github.com/godeps/lineweb-go/pkg/config"
	"github.com/godeps/lineweb-go/pkg/middleware"
	"github.com/godeps/lineweb-go/pkg/session"
	"github.com/godeps/lineweb-go/pkg/telemetry"
	"github.com/godeps/lineweb-go/pkg/transport"
)

const testCookies = `[
	{"name":"ses","value":"secret-session","domain":".line.biz"},
	{"name":"XSRF-TOKEN","value":"xsrf-value","domain":"chat.line.biz"},
	{"name":"NID","value":"tracker","domain":".google.com"}
]`

var (
	botID  = strings.Repeat("B", 33)
	chatID = strings.Repeat("C", 33)
	userID = strings.Repeat("U", 33)
)

// fakeAPI records every request it serves.
type fakeAPI struct {
	mu       sync.Mutex
	requests []*http.Request
	server   *httptest.Server
}

func newFakeAPI(t *testing.T, handler http.HandlerFunc) *fakeAPI {
	t.Helper()
	api := &fakeAPI{}
	api.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		api.mu.Lock()
		api.requests = append(api.requests, r.Clone(context.Background()))
		api.mu.Unlock()
		handler(w, r)
	}))
	t.Cleanup(api.server.Close)
	return api
}

func (a *fakeAPI) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.requests)
}

func (a *fakeAPI) request(i int) *http.Request {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.requests[i]
}

func (a *fakeAPI) client(t *testing.T, mutate ...func(*ClientConfig)) *Client {
	t.Helper()
	cfg := ClientConfig{
		BaseURL:      a.server.URL + "/api",
		HTTPClient:   a.server.Client(),
		CookieDomain: session.DefaultDomain,
	}
	for _, fn := range mutate {
		fn(&cfg)
	}
	c, err := New(testCookies, cfg)
	require.NoError(t, err)
	return c
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func chatPage(ids []string, next string) map[string]any {
	list := make([]map[string]any, len(ids))
	for i, id := range ids {
		list[i] = map[string]any{"chatId": id, "chatType": ChatTypeUser, "status": ChatStatusActive}
	}
	page := map[string]any{"list": list}
	if next != "" {
		page["next"] = next
	}
	return page
}

// threePageChats serves pages keyed by the next cursor: "" -> p2 -> p3 -> end.
func threePageChats(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Query().Get("next") {
	case "":
		writeJSON(w, http.StatusOK, chatPage([]string{"c1", "c2"}, "p2"))
	case "p2":
		writeJSON(w, http.StatusOK, chatPage([]string{"c3"}, "p3"))
	case "p3":
		writeJSON(w, http.StatusOK, chatPage([]string{"c4", "c5"}, ""))
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"code": "bad_cursor"})
	}
}

func chatIDs(list ChatList) []string {
	ids := make([]string, len(list.List))
	for i, c := range list.List {
		ids[i] = c.ChatID
	}
	return ids
}

func TestNewFiltersCookiesByDomain(t *testing.T) {
	c, err := New(testCookies, ClientConfig{})
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL, c.BaseURL())
	assert.Equal(t, "ses=secret-session; XSRF-TOKEN=xsrf-value", c.Session().String())
	assert.Equal(t, "line.biz", c.Session().Domain())
}

func TestNewRejectsMalformedCookies(t *testing.T) {
	_, err := New("ses=abc", ClientConfig{})
	require.ErrorIs(t, err, apierr.ErrInvalidCredentials)

	var apiErr *apierr.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Invalid cookies format. Expected JSON string.", apiErr.Message)
}

func TestNewRejectsBaseURLWithoutHost(t *testing.T) {
	_, err := New(testCookies, ClientConfig{BaseURL: "/relative/api"})
	require.ErrorIs(t, err, apierr.ErrInvalidParameter)
}

func TestSetCredentialsSwapsSession(t *testing.T) {
	api := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"name": "operator"})
	})
	c := api.client(t)

	require.NoError(t, c.SetCredentials(`[{"name":"ses","value":"rotated","domain":".line.biz"}]`))
	_, err := c.GetMe(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ses=rotated", api.request(0).Header.Get("Cookie"))

	require.ErrorIs(t, c.SetCredentials("{}"), apierr.ErrInvalidCredentials)
	assert.Equal(t, "ses=rotated", c.Session().String())
}

func TestCredentialSwapDuringPaginationKeepsSnapshot(t *testing.T) {
	var c *Client
	api := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("next") == "" {
			assert.NoError(t, c.SetCredentials(`[{"name":"ses","value":"rotated","domain":".line.biz"}]`))
		}
		threePageChats(w, r)
	})
	c = api.client(t)

	list, err := c.GetChats(context.Background(), ChatsParams{WebBotID: botID, MaxPages: Int(AllPages)})
	require.NoError(t, err)
	assert.Equal(t, []string{"c1", "c2", "c3", "c4", "c5"}, chatIDs(list))
	require.Equal(t, 3, api.count())
	for i := 0; i < 3; i++ {
		assert.Equal(t, "ses=secret-session; XSRF-TOKEN=xsrf-value", api.request(i).Header.Get("Cookie"), "request %d", i)
	}

	_, err = c.GetChats(context.Background(), ChatsParams{WebBotID: botID, NextToken: "p3"})
	require.NoError(t, err)
	assert.Equal(t, "ses=rotated", api.request(3).Header.Get("Cookie"))
}

func TestGetMeSendsIdentityHeaders(t *testing.T) {
	api := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"userId": "u1", "name": "operator"})
	})
	c := api.client(t, func(cfg *ClientConfig) {
		cfg.Headers = map[string]string{"Accept-Language": "th"}
	})

	me, err := c.GetMe(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "operator", me["name"])

	req := api.request(0)
	assert.Equal(t, http.MethodGet, req.Method)
	assert.Equal(t, "/api/v1/me", req.URL.Path)
	assert.Equal(t, transport.DefaultUserAgent, req.Header.Get("User-Agent"))
	assert.Equal(t, transport.DefaultClientVersion, req.Header.Get(transport.ClientVersionHeader))
	assert.Equal(t, "ses=secret-session; XSRF-TOKEN=xsrf-value", req.Header.Get("Cookie"))
	assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
	assert.Equal(t, "th", req.Header.Get("Accept-Language"))
}

func TestExpiredSessionKeepsStatus(t *testing.T) {
	api := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"code": "not_login"})
	})
	c := api.client(t)

	_, err := c.GetMe(context.Background())
	require.ErrorIs(t, err, apierr.ErrExpiredSession)
	assert.Equal(t, http.StatusUnauthorized, apierr.StatusOf(err))
	assert.Equal(t, "Cookies have expired or are not logged in.", err.(*apierr.Error).Message)
}

func TestInoperableBotIsNotFound(t *testing.T) {
	api := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"code": "not_found_operatable_bot"})
	})
	c := api.client(t)

	_, err := c.GetBots(context.Background(), BotsParams{WebBotID: botID})
	require.ErrorIs(t, err, apierr.ErrResourceNotFound)
	assert.Equal(t, http.StatusNotFound, apierr.StatusOf(err))
}

func TestGetBotsRejectsLimitOutOfRange(t *testing.T) {
	api := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"list": []any{}})
	})
	c := api.client(t)

	_, err := c.GetBots(context.Background(), BotsParams{LimitPerPage: Int(1500)})
	require.ErrorIs(t, err, apierr.ErrInvalidParameter)
	assert.Contains(t, err.Error(), "between 1 and 1000")
	assert.Zero(t, api.count())
}

func TestGetBotsRejectsCursorWithBotID(t *testing.T) {
	api := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{})
	})
	c := api.client(t)

	_, err := c.GetBots(context.Background(), BotsParams{WebBotID: botID, NextToken: "x"})
	require.ErrorIs(t, err, apierr.ErrInvalidParameter)
	assert.Contains(t, err.Error(), "nextToken is not supported when webBotId is provided")
	assert.Zero(t, api.count())
}

func TestGetBotsSingle(t *testing.T) {
	api := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"botId": botID, "name": "Shop", "hasChatRoom": true,
			"plan": map[string]string{"code": "free", "planType": "FREE"},
		})
	})
	c := api.client(t)

	res, err := c.GetBots(context.Background(), BotsParams{WebBotID: botID})
	require.NoError(t, err)
	require.Equal(t, BotsKindSingle, res.Kind)
	require.NotNil(t, res.Bot)
	assert.Nil(t, res.List)
	assert.Equal(t, "Shop", res.Bot.Name)
	assert.True(t, res.Bot.HasChatRoom)
	assert.Equal(t, "FREE", res.Bot.Plan.PlanType)

	req := api.request(0)
	assert.Equal(t, "/api/v1/bots/"+botID, req.URL.Path)
	assert.Equal(t, "true", req.URL.Query().Get("noFilter"))
}

func TestGetBotsListDefaultsToOnePage(t *testing.T) {
	api := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"list": []map[string]any{{"botId": "b1"}, {"botId": "b2"}},
			"next": "more",
		})
	})
	c := api.client(t)

	res, err := c.GetBots(context.Background(), BotsParams{})
	require.NoError(t, err)
	require.Equal(t, BotsKindList, res.Kind)
	require.NotNil(t, res.List)
	assert.Len(t, res.List.List, 2)
	assert.Equal(t, "more", res.List.Next)
	assert.Equal(t, 1, api.count())

	q := api.request(0).URL.Query()
	assert.Equal(t, "1000", q.Get("limit"))
	assert.Equal(t, "true", q.Get("noFilter"))
	assert.False(t, q.Has("next"))
}

func TestGetChatsFollowsEveryPage(t *testing.T) {
	api := newFakeAPI(t, threePageChats)
	c := api.client(t)

	list, err := c.GetChats(context.Background(), ChatsParams{WebBotID: botID, MaxPages: Int(AllPages)})
	require.NoError(t, err)
	assert.Equal(t, []string{"c1", "c2", "c3", "c4", "c5"}, chatIDs(list))
	assert.Empty(t, list.Next)
	require.Equal(t, 3, api.count())

	first := api.request(0)
	assert.Equal(t, "/api/v2/bots/"+botID+"/chats", first.URL.Path)
	q := first.URL.Query()
	assert.Equal(t, "ALL", q.Get("folderType"))
	assert.Equal(t, "25", q.Get("limit"))
	assert.Equal(t, "true", q.Get("prioritizePinnedChat"))
	assert.True(t, q.Has("tagIds"))
	assert.True(t, q.Has("autoTagIds"))
	assert.Equal(t, "p3", api.request(2).URL.Query().Get("next"))
}

func TestGetChatsResumeMatchesUnbounded(t *testing.T) {
	api := newFakeAPI(t, threePageChats)
	c := api.client(t)

	full, err := c.GetChats(context.Background(), ChatsParams{WebBotID: botID, MaxPages: Int(AllPages)})
	require.NoError(t, err)

	var stitched []string
	cursor := ""
	for {
		page, err := c.GetChats(context.Background(), ChatsParams{WebBotID: botID, NextToken: cursor})
		require.NoError(t, err)
		stitched = append(stitched, chatIDs(page)...)
		if page.Next == "" {
			break
		}
		cursor = page.Next
	}
	assert.Equal(t, chatIDs(full), stitched)
}

func TestGetChatsPageBudget(t *testing.T) {
	api := newFakeAPI(t, threePageChats)
	c := api.client(t)

	list, err := c.GetChats(context.Background(), ChatsParams{WebBotID: botID, MaxPages: Int(2)})
	require.NoError(t, err)
	assert.Equal(t, []string{"c1", "c2", "c3"}, chatIDs(list))
	assert.Equal(t, "p3", list.Next)
	assert.Equal(t, 2, api.count())
}

func TestGetChatsDiscardsPartialResultsOnFailure(t *testing.T) {
	api := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("next") == "p2" {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"code": "internal"})
			return
		}
		threePageChats(w, r)
	})
	c := api.client(t)

	list, err := c.GetChats(context.Background(), ChatsParams{WebBotID: botID, MaxPages: Int(AllPages)})
	require.ErrorIs(t, err, apierr.ErrTransport)
	assert.Equal(t, http.StatusInternalServerError, apierr.StatusOf(err))
	assert.Nil(t, list.List)
	assert.Empty(t, list.Next)
}

func TestGetChatsValidation(t *testing.T) {
	api := newFakeAPI(t, threePageChats)
	c := api.client(t)

	cases := []struct {
		name   string
		params ChatsParams
		want   string
	}{
		{"empty bot", ChatsParams{WebBotID: "  "}, "webBotId cannot be an empty string."},
		{"short bot", ChatsParams{WebBotID: "abc"}, "Invalid webBotId length (must be 33 characters). Received: 3"},
		{"limit", ChatsParams{WebBotID: botID, LimitPerPage: Int(26)}, "between 1 and 25"},
		{"zero limit", ChatsParams{WebBotID: botID, LimitPerPage: Int(0)}, "Received: 0"},
		{"negative pages", ChatsParams{WebBotID: botID, MaxPages: Int(-1)}, "Invalid maxPages value"},
		{"blank cursor", ChatsParams{WebBotID: botID, NextToken: " "}, "nextToken cannot be an empty string."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := c.GetChats(context.Background(), tc.params)
			require.ErrorIs(t, err, apierr.ErrInvalidParameter)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
	assert.Zero(t, api.count())
}

func TestGetMessagesFollowsBackwardCursor(t *testing.T) {
	api := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("backward") {
		case "":
			writeJSON(w, http.StatusOK, map[string]any{
				"list": []map[string]any{{
					"type": EventMessage, "timestamp": 200,
					"source":  map[string]string{"chatId": chatID, "userId": userID},
					"message": map[string]any{"id": "m2", "type": "text", "text": "hello"},
				}},
				"backward": "older",
			})
		default:
			writeJSON(w, http.StatusOK, map[string]any{
				"list": []map[string]any{{
					"type": EventChatRead, "timestamp": 100,
					"source": map[string]string{"chatId": chatID},
					"read":   map[string]int64{"watermark": 99},
				}},
			})
		}
	})
	c := api.client(t)

	list, err := c.GetMessages(context.Background(), MessagesParams{WebBotID: botID, WebChatID: chatID, MaxPages: Int(AllPages)})
	require.NoError(t, err)
	require.Len(t, list.List, 2)
	assert.Empty(t, list.Backward)
	assert.Empty(t, list.Next)

	body, err := list.List[0].Body()
	require.NoError(t, err)
	assert.Equal(t, "hello", body.Text)
	assert.Equal(t, userID, list.List[0].Source.UserID)

	read := list.List[1]
	require.NotNil(t, read.Read)
	assert.Equal(t, int64(99), read.Read.Watermark)
	none, err := read.Body()
	require.NoError(t, err)
	assert.Nil(t, none)

	assert.Equal(t, "/api/v3/bots/"+botID+"/chats/"+chatID+"/messages", api.request(0).URL.Path)
	assert.Empty(t, api.request(0).URL.RawQuery)
	assert.Equal(t, "older", api.request(1).URL.Query().Get("backward"))
}

func TestGetMessagesKeepsBackwardOnBudget(t *testing.T) {
	api := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"list": []any{}, "backward": "older"})
	})
	c := api.client(t)

	list, err := c.GetMessages(context.Background(), MessagesParams{WebBotID: botID, WebChatID: chatID, BackwardToken: "start"})
	require.NoError(t, err)
	assert.Equal(t, "older", list.Backward)
	assert.NotNil(t, list.List)
	assert.Equal(t, "start", api.request(0).URL.Query().Get("backward"))
}

func TestGetMessagesValidatesChatFirst(t *testing.T) {
	c, err := New(testCookies, ClientConfig{})
	require.NoError(t, err)

	_, err = c.GetMessages(context.Background(), MessagesParams{WebBotID: "bad", WebChatID: "bad-chat"})
	require.ErrorIs(t, err, apierr.ErrInvalidParameter)
	assert.Contains(t, err.Error(), "webChatId")
}

func TestGetContactsThreadsCursorAndEncodesQuery(t *testing.T) {
	api := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("next") == "" {
			writeJSON(w, http.StatusOK, map[string]any{
				"list": []map[string]any{{"contactId": "k1", "profile": map[string]any{"userId": userID, "name": "Ann", "friend": true}}},
				"next": "k-next",
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"list": []map[string]any{{"contactId": "k2", "profile": map[string]any{"groupId": "g1", "name": "Team", "count": 4}}},
		})
	})
	c := api.client(t)

	list, err := c.GetContacts(context.Background(), ContactsParams{
		WebBotID: botID,
		ChatName: "Ann & Co/สวัสดี",
		MaxPages: Int(AllPages),
		SortKey:  SortByLastTalkedAt,
	})
	require.NoError(t, err)
	require.Len(t, list.List, 2)
	assert.False(t, list.List[0].Profile.IsGroup())
	assert.True(t, list.List[1].Profile.IsGroup())
	assert.Equal(t, 4, list.List[1].Profile.Count)

	first := api.request(0)
	assert.Equal(t, "/api/v2/bots/"+botID+"/contacts", first.URL.Path)
	q := first.URL.Query()
	assert.Equal(t, "Ann & Co/สวัสดี", q.Get("query"))
	assert.Equal(t, "LAST_TALKED_AT", q.Get("sortKey"))
	assert.Equal(t, "ASC", q.Get("sortOrder"))
	assert.Equal(t, "ALL", q.Get("filterKey"))
	assert.Equal(t, "20", q.Get("limit"))
	assert.Equal(t, "k-next", api.request(1).URL.Query().Get("next"))
}

func TestGetContactsValidation(t *testing.T) {
	c, err := New(testCookies, ClientConfig{})
	require.NoError(t, err)

	_, err = c.GetContacts(context.Background(), ContactsParams{WebBotID: botID, LimitPerPage: Int(101)})
	require.ErrorIs(t, err, apierr.ErrInvalidParameter)
	assert.Contains(t, err.Error(), "between 1 and 100")

	_, err = c.GetContacts(context.Background(), ContactsParams{WebBotID: botID, FilterKey: "BLOCKED"})
	require.ErrorIs(t, err, apierr.ErrInvalidParameter)
	assert.Contains(t, err.Error(), "filterKey")

	_, err = c.GetContacts(context.Background(), ContactsParams{WebBotID: botID, SortOrder: "UP"})
	require.ErrorIs(t, err, apierr.ErrInvalidParameter)
	assert.Contains(t, err.Error(), "sortOrder")
}

func TestGetChatMembers(t *testing.T) {
	api := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"list": []map[string]string{{"userId": userID, "name": "Ann", "iconHash": "h"}},
		})
	})
	c := api.client(t)

	other := strings.Repeat("V", 33)
	list, err := c.GetChatMembers(context.Background(), MembersParams{
		WebBotID:   botID,
		WebChatID:  chatID,
		WebUserIDs: []string{userID, other},
		NextToken:  "m-start",
	})
	require.NoError(t, err)
	require.Len(t, list.List, 1)
	assert.Equal(t, "Ann", list.List[0].Name)

	req := api.request(0)
	assert.Equal(t, "/api/v1/bots/"+botID+"/chats/"+chatID+"/members", req.URL.Path)
	q := req.URL.Query()
	assert.Equal(t, "100", q.Get("limit"))
	assert.Equal(t, userID+","+other, q.Get("userIds"))
	assert.Equal(t, "m-start", q.Get("next"))

	_, err = c.GetChatMembers(context.Background(), MembersParams{WebBotID: botID, WebChatID: chatID, WebUserIDs: []string{"short"}})
	require.ErrorIs(t, err, apierr.ErrInvalidParameter)
	assert.Contains(t, err.Error(), "webUserId")
	assert.Equal(t, 1, api.count())
}

func TestGetOwnersAndTags(t *testing.T) {
	bizID := "0f8fad5b-d9cb-469f-a165-70867728950e"
	api := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/owners"):
			writeJSON(w, http.StatusOK, map[string]any{"list": []map[string]string{{"bizId": bizID, "name": "Owner"}}})
		case strings.HasSuffix(r.URL.Path, "/tags"):
			writeJSON(w, http.StatusOK, map[string]any{"list": []map[string]any{{"tagId": "t1", "name": "VIP", "count": 3}}})
		default:
			http.NotFound(w, r)
		}
	})
	c := api.client(t)

	owners, err := c.GetOwners(context.Background(), OwnersParams{WebBotID: botID, BizIDs: []string{bizID}})
	require.NoError(t, err)
	require.Len(t, owners.List, 1)
	assert.Equal(t, "Owner", owners.List[0].Name)
	assert.Equal(t, bizID, api.request(0).URL.Query().Get("bizIds"))

	tags, err := c.GetTags(context.Background(), TagsParams{WebBotID: botID})
	require.NoError(t, err)
	require.Len(t, tags.List, 1)
	assert.Equal(t, "VIP", tags.List[0].Name)
	assert.Empty(t, api.request(1).URL.RawQuery)

	_, err = c.GetOwners(context.Background(), OwnersParams{WebBotID: botID, BizIDs: []string{"not-a-uuid"}})
	require.ErrorIs(t, err, apierr.ErrInvalidParameter)
	_, err = c.GetTags(context.Background(), TagsParams{WebBotID: botID, TagIDs: []string{"bad tag"}})
	require.ErrorIs(t, err, apierr.ErrInvalidParameter)
	assert.Equal(t, 2, api.count())
}

func TestGetFlexMessageContent(t *testing.T) {
	flex := `{"type":"bubble","body":{"type":"box","layout":"vertical","contents":[]}}`
	api := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(flex))
	})
	c := api.client(t)

	raw, err := c.GetFlexMessageContent(context.Background(), FlexParams{
		WebBotID: botID, WebChatID: chatID, MessageID: "5012345678", Timestamp: "1700000000000",
	})
	require.NoError(t, err)
	assert.JSONEq(t, flex, string(raw))

	req := api.request(0)
	assert.Equal(t, "/api/v1/bots/"+botID+"/chats/"+chatID+"/messages/flexJson", req.URL.Path)
	assert.Equal(t, "5012345678", req.URL.Query().Get("messageId"))
	assert.Equal(t, "1700000000000", req.URL.Query().Get("timestamp"))

	_, err = c.GetFlexMessageContent(context.Background(), FlexParams{WebBotID: botID, WebChatID: chatID, MessageID: "12a"})
	require.ErrorIs(t, err, apierr.ErrInvalidParameter)
	assert.Contains(t, err.Error(), "messageId must contain only digits")

	_, err = c.GetFlexMessageContent(context.Background(), FlexParams{WebBotID: botID, WebChatID: chatID})
	require.ErrorIs(t, err, apierr.ErrInvalidParameter)
	assert.Contains(t, err.Error(), "messageId cannot be an empty string.")
}

func TestLogoutWithoutURIStopsAfterFirstRequest(t *testing.T) {
	cases := []struct {
		name string
		body map[string]any
	}{
		{"missing", map[string]any{}},
		{"empty", map[string]any{"logoutUri": ""}},
		{"blank", map[string]any{"logoutUri": "   "}},
		{"null", map[string]any{"logoutUri": nil}},
		{"number", map[string]any{"logoutUri": 5}},
		{"object", map[string]any{"logoutUri": map[string]string{"href": "/logout"}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			api := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusOK, tc.body)
			})
			c := api.client(t)

			err := c.Logout(context.Background())
			require.ErrorIs(t, err, apierr.ErrSignOutFailed)
			assert.Contains(t, err.Error(), "Logout URI not found in the response")
			assert.Equal(t, 1, api.count())

			req := api.request(0)
			assert.Equal(t, http.MethodPost, req.Method)
			assert.Equal(t, "/api/v1/logoutUri", req.URL.Path)
		})
	}
}

func TestLogoutFollowsReturnedURI(t *testing.T) {
	var body map[string]string
	var mu sync.Mutex
	api := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			mu.Lock()
			_ = json.NewDecoder(r.Body).Decode(&body)
			mu.Unlock()
			writeJSON(w, http.StatusOK, map[string]string{"logoutUri": "/account/logout?state=1"})
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
	c := api.client(t)

	require.NoError(t, c.Logout(context.Background()))
	require.Equal(t, 2, api.count())

	mu.Lock()
	assert.Equal(t, map[string]string{"redirectPath": "/"}, body)
	mu.Unlock()

	second := api.request(1)
	assert.Equal(t, http.MethodGet, second.Method)
	assert.Equal(t, "/account/logout", second.URL.Path)
	assert.Equal(t, "1", second.URL.Query().Get("state"))
	assert.Equal(t, "ses=secret-session; XSRF-TOKEN=xsrf-value", second.Header.Get("Cookie"))
}

func TestNetworkFailureIsUnknown(t *testing.T) {
	api := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {})
	c := api.client(t)
	api.server.Close()

	_, err := c.GetTags(context.Background(), TagsParams{WebBotID: botID})
	require.ErrorIs(t, err, apierr.ErrUnknown)
	assert.Equal(t, "Failed to fetch tags", err.(*apierr.Error).Message)
}

func TestLoggingMasksCookiesAndCursors(t *testing.T) {
	var buf bytes.Buffer
	var mu sync.Mutex
	logger := slog.New(slog.NewTextHandler(&lockedWriter{mu: &mu, w: &buf}, &slog.HandlerOptions{Level: slog.LevelDebug}))

	api := newFakeAPI(t, threePageChats)
	c := api.client(t, func(cfg *ClientConfig) { cfg.Logger = logger })

	_, err := c.GetChats(context.Background(), ChatsParams{WebBotID: botID, MaxPages: Int(AllPages)})
	require.NoError(t, err)

	mu.Lock()
	out := buf.String()
	mu.Unlock()
	assert.Equal(t, 3, strings.Count(out, "lineweb: request completed"))
	assert.Contains(t, out, "operation=chats")
	assert.NotContains(t, out, "secret-session")
	assert.NotContains(t, out, "next=p2")
}

func TestTelemetryRecordsSpansAndPages(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	exporter := tracetest.NewInMemoryExporter()
	mgr, err := telemetry.NewManager(telemetry.Config{
		MeterProvider:  sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)),
		TracerProvider: sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter)),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = mgr.Shutdown(context.Background()) })

	api := newFakeAPI(t, threePageChats)
	c := api.client(t, func(cfg *ClientConfig) { cfg.Telemetry = mgr })

	_, err = c.GetChats(context.Background(), ChatsParams{WebBotID: botID, MaxPages: Int(AllPages)})
	require.NoError(t, err)

	spans := exporter.GetSpans()
	require.Len(t, spans, 3)
	for _, span := range spans {
		assert.Equal(t, "lineweb.chats", span.Name)
	}

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	var pages int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "lineweb.pages.total" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, dp := range sum.DataPoints {
				pages += dp.Value
			}
		}
	}
	assert.Equal(t, int64(3), pages)
}

func TestExtraMiddlewareRuns(t *testing.T) {
	api := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{})
	})
	var ops []string
	spy := middleware.NewFunc("spy", 50, func(ctx context.Context, call *middleware.Call, next middleware.CallFunc) (*middleware.Result, error) {
		ops = append(ops, call.Operation)
		return next(ctx, call)
	})
	c := api.client(t, func(cfg *ClientConfig) { cfg.Middleware = []middleware.Middleware{spy, nil} })

	_, err := c.GetMe(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"me"}, ops)
}

func TestFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.BaseURL = "https://chat.example.test/api"
	cfg.Timeout = config.Duration(3 * time.Second)
	cfg.CookieDomain = "line.biz"
	cfg.Headers["X-Trace"] = "1"

	cc := FromConfig(cfg)
	assert.Equal(t, "https://chat.example.test/api", cc.BaseURL)
	assert.Equal(t, 3*time.Second, cc.HTTPClient.Timeout)
	assert.Equal(t, "line.biz", cc.CookieDomain)
	assert.Equal(t, "1", cc.Headers["X-Trace"])

	cc.Headers["X-Trace"] = "2"
	assert.Equal(t, "1", cfg.Headers["X-Trace"])

	assert.Equal(t, DefaultBaseURL, FromConfig(nil).BaseURL)
}

type lockedWriter struct {
	mu *sync.Mutex
	w  *bytes.Buffer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
