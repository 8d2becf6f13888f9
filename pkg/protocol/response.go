package protocol

import (
	"encoding/json"
	"fmt"
)

// Response is one decoded server response or event. The concrete type is
// selected by the "type" tag of the resp body; bodies with an unrecognized
// tag decode to *CRUnknown so no envelope is ever lost.
type Response interface {
	ResponseType() string
}

// CRActiveUser reports the active user profile.
type CRActiveUser struct {
	User User `json:"user"`
}

func (*CRActiveUser) ResponseType() string { return "activeUser" }

// CRUsersList lists all user profiles.
type CRUsersList struct {
	Users []UserInfo `json:"users"`
}

func (*CRUsersList) ResponseType() string { return "usersList" }

// CRChatStarted confirms the chat engine started.
type CRChatStarted struct{}

func (*CRChatStarted) ResponseType() string { return "chatStarted" }

// CRChatRunning reports the chat engine was already running.
type CRChatRunning struct{}

func (*CRChatRunning) ResponseType() string { return "chatRunning" }

// CRChatStopped confirms the chat engine stopped.
type CRChatStopped struct{}

func (*CRChatStopped) ResponseType() string { return "chatStopped" }

// CRCmdOk acknowledges a command with no other result.
type CRCmdOk struct {
	User *User `json:"user_,omitempty"`
}

func (*CRCmdOk) ResponseType() string { return "cmdOk" }

// CRApiChats carries a user's chat list.
type CRApiChats struct {
	User  User   `json:"user"`
	Chats []Chat `json:"chats"`
}

func (*CRApiChats) ResponseType() string { return "apiChats" }

// CRApiChat carries one chat with a page of items.
type CRApiChat struct {
	User User `json:"user"`
	Chat Chat `json:"chat"`
}

func (*CRApiChat) ResponseType() string { return "apiChat" }

// CRNewChatItems is the event for messages arriving in any chat.
type CRNewChatItems struct {
	User      User        `json:"user"`
	ChatItems []AChatItem `json:"chatItems"`
}

func (*CRNewChatItems) ResponseType() string { return "newChatItems" }

// CRChatItemUpdated is the event for an edited chat item.
type CRChatItemUpdated struct {
	User     User      `json:"user"`
	ChatItem AChatItem `json:"chatItem"`
}

func (*CRChatItemUpdated) ResponseType() string { return "chatItemUpdated" }

// CRChatItemDeleted is the event for a deleted chat item.
type CRChatItemDeleted struct {
	UserConfig      User       `json:"user"`
	DeletedChatItem AChatItem  `json:"deletedChatItem"`
	ToChatItem      *AChatItem `json:"toChatItem,omitempty"`
	ByUser          bool       `json:"byUser"`
}

func (*CRChatItemDeleted) ResponseType() string { return "chatItemDeleted" }

// CRContactConnected is the event for a contact finishing its handshake.
type CRContactConnected struct {
	User    User    `json:"user"`
	Contact Contact `json:"contact"`
}

func (*CRContactConnected) ResponseType() string { return "contactConnected" }

// CRReceivedContactRequest is the event for an incoming contact request.
type CRReceivedContactRequest struct {
	User           User           `json:"user"`
	ContactRequest map[string]any `json:"contactRequest"`
}

func (*CRReceivedContactRequest) ResponseType() string { return "receivedContactRequest" }

// CRAcceptingContactRequest confirms a contact request is being accepted.
type CRAcceptingContactRequest struct {
	User    User    `json:"user"`
	Contact Contact `json:"contact"`
}

func (*CRAcceptingContactRequest) ResponseType() string { return "acceptingContactRequest" }

// CRInvitation carries a one-time invitation link.
type CRInvitation struct {
	User              User   `json:"user"`
	ConnReqInvitation string `json:"connReqInvitation"`
}

func (*CRInvitation) ResponseType() string { return "invitation" }

// CRGroupCreated confirms group creation.
type CRGroupCreated struct {
	User      User      `json:"user"`
	GroupInfo GroupInfo `json:"groupInfo"`
}

func (*CRGroupCreated) ResponseType() string { return "groupCreated" }

// CRGroupMembers lists a group's members.
type CRGroupMembers struct {
	User  User `json:"user"`
	Group struct {
		GroupInfo GroupInfo     `json:"groupInfo"`
		Members   []GroupMember `json:"members"`
	} `json:"group"`
}

func (*CRGroupMembers) ResponseType() string { return "groupMembers" }

// CRSentGroupInvitation confirms a group invitation was sent.
type CRSentGroupInvitation struct {
	User      User        `json:"user"`
	GroupInfo GroupInfo   `json:"groupInfo"`
	Contact   Contact     `json:"contact"`
	Member    GroupMember `json:"member"`
}

func (*CRSentGroupInvitation) ResponseType() string { return "sentGroupInvitation" }

// CRUserJoinedGroup is the event for the user completing a group join.
type CRUserJoinedGroup struct {
	User      User      `json:"user"`
	GroupInfo GroupInfo `json:"groupInfo"`
}

func (*CRUserJoinedGroup) ResponseType() string { return "userJoinedGroup" }

// CRLeftMemberUser confirms the user left a group.
type CRLeftMemberUser struct {
	User      User      `json:"user"`
	GroupInfo GroupInfo `json:"groupInfo"`
}

func (*CRLeftMemberUser) ResponseType() string { return "leftMemberUser" }

// CRRcvFileComplete is the event for a finished file download.
type CRRcvFileComplete struct {
	User     User      `json:"user"`
	ChatItem AChatItem `json:"chatItem"`
}

func (*CRRcvFileComplete) ResponseType() string { return "rcvFileComplete" }

// CRRcvFileAccepted confirms a file transfer was accepted.
type CRRcvFileAccepted struct {
	User     User      `json:"user"`
	ChatItem AChatItem `json:"chatItem"`
}

func (*CRRcvFileAccepted) ResponseType() string { return "rcvFileAccepted" }

// CRUserContactLink carries the user's contact address.
type CRUserContactLink struct {
	User        User           `json:"user"`
	ContactLink map[string]any `json:"contactLink"`
}

func (*CRUserContactLink) ResponseType() string { return "userContactLink" }

// CRUserContactLinkCreated confirms contact address creation.
type CRUserContactLinkCreated struct {
	User           User   `json:"user"`
	ConnReqContact string `json:"connReqContact"`
}

func (*CRUserContactLinkCreated) ResponseType() string { return "userContactLinkCreated" }

// CRUserContactLinkDeleted confirms contact address deletion.
type CRUserContactLinkDeleted struct {
	User User `json:"user"`
}

func (*CRUserContactLinkDeleted) ResponseType() string { return "userContactLinkDeleted" }

// ChatErrorBody is the structured error carried by chatCmdError and
// chatError responses.
type ChatErrorBody struct {
	Type      string          `json:"type"`
	ErrorType json.RawMessage `json:"errorType,omitempty"`
}

// CRChatCmdError is the command-level failure response. It arrives as a
// normal correlation match; callers decide whether to treat it as an error.
// It implements error for that purpose.
type CRChatCmdError struct {
	User      *User         `json:"user_,omitempty"`
	ChatError ChatErrorBody `json:"chatError"`
}

func (*CRChatCmdError) ResponseType() string { return "chatCmdError" }

func (e *CRChatCmdError) Error() string {
	if len(e.ChatError.ErrorType) > 0 {
		return fmt.Sprintf("chat command error: %s %s", e.ChatError.Type, e.ChatError.ErrorType)
	}
	return fmt.Sprintf("chat command error: %s", e.ChatError.Type)
}

// CRChatError is the engine-level failure event.
type CRChatError struct {
	User      *User         `json:"user_,omitempty"`
	ChatError ChatErrorBody `json:"chatError"`
}

func (*CRChatError) ResponseType() string { return "chatError" }

// CRUnknown preserves a response whose type tag has no dedicated decoder.
type CRUnknown struct {
	Type string
	Raw  json.RawMessage
}

func (r *CRUnknown) ResponseType() string { return r.Type }

// DecodeResponse decodes one resp body into its tagged variant. The body
// must be a JSON object with a string "type" field; unrecognized types are
// preserved as *CRUnknown rather than rejected.
func DecodeResponse(raw json.RawMessage) (Response, error) {
	var tag struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &tag); err != nil {
		return nil, fmt.Errorf("failed to decode response type: %w", err)
	}
	if tag.Type == "" {
		return nil, fmt.Errorf("response has no type tag")
	}

	resp := newResponse(tag.Type)
	if resp == nil {
		return &CRUnknown{Type: tag.Type, Raw: raw}, nil
	}
	if err := json.Unmarshal(raw, resp); err != nil {
		return nil, fmt.Errorf("failed to decode %q response: %w", tag.Type, err)
	}
	return resp, nil
}

func newResponse(typ string) Response {
	switch typ {
	case "activeUser":
		return &CRActiveUser{}
	case "usersList":
		return &CRUsersList{}
	case "chatStarted":
		return &CRChatStarted{}
	case "chatRunning":
		return &CRChatRunning{}
	case "chatStopped":
		return &CRChatStopped{}
	case "cmdOk":
		return &CRCmdOk{}
	case "apiChats":
		return &CRApiChats{}
	case "apiChat":
		return &CRApiChat{}
	case "newChatItems":
		return &CRNewChatItems{}
	case "chatItemUpdated":
		return &CRChatItemUpdated{}
	case "chatItemDeleted":
		return &CRChatItemDeleted{}
	case "contactConnected":
		return &CRContactConnected{}
	case "receivedContactRequest":
		return &CRReceivedContactRequest{}
	case "acceptingContactRequest":
		return &CRAcceptingContactRequest{}
	case "invitation":
		return &CRInvitation{}
	case "groupCreated":
		return &CRGroupCreated{}
	case "groupMembers":
		return &CRGroupMembers{}
	case "sentGroupInvitation":
		return &CRSentGroupInvitation{}
	case "userJoinedGroup":
		return &CRUserJoinedGroup{}
	case "leftMemberUser":
		return &CRLeftMemberUser{}
	case "rcvFileAccepted":
		return &CRRcvFileAccepted{}
	case "rcvFileComplete":
		return &CRRcvFileComplete{}
	case "userContactLink":
		return &CRUserContactLink{}
	case "userContactLinkCreated":
		return &CRUserContactLinkCreated{}
	case "userContactLinkDeleted":
		return &CRUserContactLinkDeleted{}
	case "chatCmdError":
		return &CRChatCmdError{}
	case "chatError":
		return &CRChatError{}
	default:
		return nil
	}
}
