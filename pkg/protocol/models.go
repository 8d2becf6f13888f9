package protocol

// ChatType selects the sigil prefixing a chat ID in protocol strings.
type ChatType string

const (
	ChatTypeDirect         ChatType = "@"
	ChatTypeGroup          ChatType = "#"
	ChatTypeContactRequest ChatType = "<@"
)

// DeleteMode controls whether a chat item deletion is propagated to other
// participants or applied locally only.
type DeleteMode string

const (
	DeleteModeBroadcast DeleteMode = "broadcast"
	DeleteModeInternal  DeleteMode = "internal"
)

// GroupMemberRole is the role assigned to a group member.
type GroupMemberRole string

const (
	RoleMember GroupMemberRole = "member"
	RoleAdmin  GroupMemberRole = "admin"
	RoleOwner  GroupMemberRole = "owner"
)

// Profile is a user profile as sent to the server.
type Profile struct {
	DisplayName string `json:"displayName"`
	FullName    string `json:"fullName"`
	Image       string `json:"image,omitempty"`
	ContactLink string `json:"contactLink,omitempty"`
}

// LocalProfile is a stored user profile with its local ID.
type LocalProfile struct {
	ProfileID   int64  `json:"profileId"`
	DisplayName string `json:"displayName"`
	FullName    string `json:"fullName"`
	Image       string `json:"image,omitempty"`
	ContactLink string `json:"contactLink,omitempty"`
	LocalAlias  string `json:"localAlias,omitempty"`
}

// GroupProfile describes a group when creating or updating it.
type GroupProfile struct {
	DisplayName string `json:"displayName"`
	FullName    string `json:"fullName"`
	Image       string `json:"image,omitempty"`
}

// User is the active-user record returned by the server.
type User struct {
	UserID           int64        `json:"userId"`
	AgentUserID      string       `json:"agentUserId,omitempty"`
	UserContactID    int64        `json:"userContactId,omitempty"`
	LocalDisplayName string       `json:"localDisplayName"`
	Profile          LocalProfile `json:"profile"`
	ActiveUser       bool         `json:"activeUser"`
	ShowNtfs         bool         `json:"showNtfs,omitempty"`
}

// UserInfo pairs a user with its unread count, as in the users list.
type UserInfo struct {
	User        User `json:"user"`
	UnreadCount int  `json:"unreadCount"`
}

// Contact is a direct-chat peer.
type Contact struct {
	ContactID        int64        `json:"contactId"`
	LocalDisplayName string       `json:"localDisplayName"`
	Profile          LocalProfile `json:"profile"`
	ViaGroup         int64        `json:"viaGroup,omitempty"`
	CreatedAt        string       `json:"createdAt,omitempty"`
}

// GroupInfo describes a group chat.
type GroupInfo struct {
	GroupID          int64        `json:"groupId"`
	LocalDisplayName string       `json:"localDisplayName"`
	GroupProfile     GroupProfile `json:"groupProfile"`
	Membership       GroupMember  `json:"membership,omitzero"`
	CreatedAt        string       `json:"createdAt,omitempty"`
}

// GroupMember is one member of a group.
type GroupMember struct {
	GroupMemberID    int64           `json:"groupMemberId"`
	MemberID         string          `json:"memberId,omitempty"`
	MemberRole       GroupMemberRole `json:"memberRole,omitempty"`
	LocalDisplayName string          `json:"localDisplayName,omitempty"`
	MemberProfile    LocalProfile    `json:"memberProfile,omitzero"`
}

// ChatInfo identifies the chat a chat item belongs to. Exactly one of the
// optional fields is set, matching the type tag.
type ChatInfo struct {
	Type      string     `json:"type"`
	Contact   *Contact   `json:"contact,omitempty"`
	GroupInfo *GroupInfo `json:"groupInfo,omitempty"`
}

// ChatItem is one message or notice inside a chat.
type ChatItem struct {
	ChatDir map[string]any  `json:"chatDir,omitempty"`
	Meta    ChatItemMeta    `json:"meta,omitzero"`
	Content ChatItemContent `json:"content,omitzero"`
}

// ChatItemMeta carries the item's IDs and timestamps.
type ChatItemMeta struct {
	ItemID    int64  `json:"itemId"`
	ItemTs    string `json:"itemTs,omitempty"`
	ItemText  string `json:"itemText,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
}

// ChatItemContent is the tagged content of a chat item.
type ChatItemContent struct {
	Type       string      `json:"type"`
	MsgContent *MsgContent `json:"msgContent,omitempty"`
}

// AChatItem is a chat item together with the chat it belongs to.
type AChatItem struct {
	ChatInfo ChatInfo `json:"chatInfo"`
	ChatItem ChatItem `json:"chatItem"`
}

// Chat is one entry of the chat list: the chat plus its recent items.
type Chat struct {
	ChatInfo  ChatInfo   `json:"chatInfo"`
	ChatItems []ChatItem `json:"chatItems"`
}

// MsgContent is the tagged message body. Type is "text", "link", "image" or
// "file"; the remaining fields apply per type.
type MsgContent struct {
	Type     string `json:"type"`
	Text     string `json:"text"`
	Preview  string `json:"preview,omitempty"`
	Image    string `json:"image,omitempty"`
	FileName string `json:"fileName,omitempty"`
}

// TextMsgContent builds a plain text message body.
func TextMsgContent(text string) MsgContent {
	return MsgContent{Type: "text", Text: text}
}

// ComposedMessage is one message of an apiSendMessage batch.
type ComposedMessage struct {
	FilePath     string     `json:"filePath,omitempty"`
	QuotedItemID *int64     `json:"quotedItemId,omitempty"`
	MsgContent   MsgContent `json:"msgContent"`
}

// ChatPagination selects a window of chat items. After and Before are
// mutually exclusive; Count is always sent.
type ChatPagination struct {
	Count  int
	After  *int64
	Before *int64
}

// ItemRange bounds an apiChatRead call.
type ItemRange struct {
	FromItem int64
	ToItem   int64
}

// AutoAccept configures automatic acceptance of contact requests on a user
// address.
type AutoAccept struct {
	AcceptIncognito bool
	AutoReply       *MsgContent
}
