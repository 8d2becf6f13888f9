package server

import (
	"encoding/json"
	"strings"
	"sync"

	"github.com/simplexbot/simplexbot/pkg/protocol"
)

// DefaultHandler emulates a minimal chat engine: one active user "bot", a
// running chat, and canned-but-consistent replies for the common commands.
// Unhandled commands are acknowledged with cmdOk, matching the CLI's
// behavior for settings commands.
func DefaultHandler() Handler {
	var (
		mu          sync.Mutex
		started     bool
		nextItemID  int64
		nextGroupID int64
	)

	user := protocol.User{
		UserID:           1,
		LocalDisplayName: "bot",
		Profile: protocol.LocalProfile{
			ProfileID:   1,
			DisplayName: "bot",
			FullName:    "Mock Bot",
		},
		ActiveUser: true,
	}

	return func(cmd string) protocol.Response {
		mu.Lock()
		defer mu.Unlock()

		switch {
		case cmd == "/u":
			return &protocol.CRActiveUser{User: user}

		case cmd == "/users":
			return &protocol.CRUsersList{Users: []protocol.UserInfo{{User: user}}}

		case strings.HasPrefix(cmd, "/_start"):
			if started {
				return &protocol.CRChatRunning{}
			}
			started = true
			return &protocol.CRChatStarted{}

		case cmd == "/_stop":
			started = false
			return &protocol.CRChatStopped{}

		case strings.HasPrefix(cmd, "/_get chats"):
			return &protocol.CRApiChats{User: user}

		case strings.HasPrefix(cmd, "/_send "):
			nextItemID++
			return &protocol.CRNewChatItems{
				User:      user,
				ChatItems: []protocol.AChatItem{sentItem(cmd, nextItemID)},
			}

		case strings.HasPrefix(cmd, "/_group "):
			var gp protocol.GroupProfile
			if err := json.Unmarshal([]byte(strings.TrimPrefix(cmd, "/_group ")), &gp); err != nil {
				return commandError()
			}
			nextGroupID++
			return &protocol.CRGroupCreated{
				User: user,
				GroupInfo: protocol.GroupInfo{
					GroupID:          nextGroupID,
					LocalDisplayName: gp.DisplayName,
					GroupProfile:     gp,
				},
			}

		case strings.HasPrefix(cmd, "/_members "):
			return &protocol.CRGroupMembers{User: user}

		case cmd == "/connect":
			return &protocol.CRInvitation{
				User:              user,
				ConnReqInvitation: "https://simplex.chat/invitation#mock",
			}

		case cmd == "/address":
			return &protocol.CRUserContactLinkCreated{
				User:           user,
				ConnReqContact: "https://simplex.chat/contact#mock",
			}

		case cmd == "/delete_address":
			return &protocol.CRUserContactLinkDeleted{User: user}

		case strings.HasPrefix(cmd, "/unknown"):
			return commandError()

		default:
			return &protocol.CRCmdOk{}
		}
	}
}

// commandError is the chatCmdError reply for unparseable or unknown
// commands.
func commandError() protocol.Response {
	return &protocol.CRChatCmdError{
		ChatError: protocol.ChatErrorBody{
			Type:      "error",
			ErrorType: json.RawMessage(`{"type":"commandError"}`),
		},
	}
}

// sentItem builds the echoed chat item for a /_send command. The message
// text is recovered from the command's json payload when possible.
func sentItem(cmd string, itemID int64) protocol.AChatItem {
	text := ""
	if idx := strings.Index(cmd, " json "); idx >= 0 {
		var msgs []protocol.ComposedMessage
		if err := json.Unmarshal([]byte(cmd[idx+6:]), &msgs); err == nil && len(msgs) > 0 {
			text = msgs[0].MsgContent.Text
		}
	}
	return protocol.AChatItem{
		ChatInfo: protocol.ChatInfo{Type: "direct"},
		ChatItem: protocol.ChatItem{
			Meta: protocol.ChatItemMeta{ItemID: itemID, ItemText: text},
			Content: protocol.ChatItemContent{
				Type:       "sndMsgContent",
				MsgContent: &protocol.MsgContent{Type: "text", Text: text},
			},
		},
	}
}
