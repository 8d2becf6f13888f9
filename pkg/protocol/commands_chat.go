package protocol

import "fmt"

// StartChat starts the chat engine for the active user.
type StartChat struct {
	SubscribeConnections  bool
	EnableExpireChatItems bool
}

func (c StartChat) CmdString() string {
	return fmt.Sprintf("/_start subscribe=%s expire=%s",
		onOff(c.SubscribeConnections), onOff(c.EnableExpireChatItems))
}

// APIStopChat stops the chat engine.
type APIStopChat struct{}

func (APIStopChat) CmdString() string { return "/_stop" }

// SetTempFolder sets the folder for temporary files.
type SetTempFolder struct {
	TempFolder string
}

func (c SetTempFolder) CmdString() string { return "/_temp_folder " + c.TempFolder }

// SetFilesFolder sets the folder received files are written to.
type SetFilesFolder struct {
	FilePath string
}

func (c SetFilesFolder) CmdString() string { return "/_files_folder " + c.FilePath }

// APIGetChats fetches the chat list of a user.
type APIGetChats struct {
	PendingConnections bool
}

func (c APIGetChats) CmdString() string {
	return "/_get chats pcc=" + onOff(c.PendingConnections)
}

// APIGetChat fetches one chat with a page of its items.
type APIGetChat struct {
	ChatType   ChatType
	ChatID     int64
	Pagination ChatPagination
}

func (c APIGetChat) CmdString() string {
	return fmt.Sprintf("/_get chat %s%d%s", c.ChatType, c.ChatID, paginationString(c.Pagination))
}

// APISendMessage sends a batch of composed messages to a chat.
type APISendMessage struct {
	ChatType ChatType
	ChatID   int64
	Messages []ComposedMessage
}

func (c APISendMessage) CmdString() string {
	return fmt.Sprintf("/_send %s%d json %s", c.ChatType, c.ChatID, mustJSON(c.Messages))
}

// APIUpdateChatItem edits the content of an existing chat item.
type APIUpdateChatItem struct {
	ChatType   ChatType
	ChatID     int64
	ChatItemID int64
	MsgContent MsgContent
}

func (c APIUpdateChatItem) CmdString() string {
	return fmt.Sprintf("/_update item %s%d %d json %s",
		c.ChatType, c.ChatID, c.ChatItemID, mustJSON(c.MsgContent))
}

// APIDeleteChatItem deletes a chat item.
type APIDeleteChatItem struct {
	ChatType   ChatType
	ChatID     int64
	ChatItemID int64
	DeleteMode DeleteMode
}

func (c APIDeleteChatItem) CmdString() string {
	return fmt.Sprintf("/_delete item %s%d %d %s",
		c.ChatType, c.ChatID, c.ChatItemID, c.DeleteMode)
}

// APIChatRead marks a chat (or a range of its items) as read.
type APIChatRead struct {
	ChatType  ChatType
	ChatID    int64
	ItemRange *ItemRange
}

func (c APIChatRead) CmdString() string {
	s := fmt.Sprintf("/_read chat %s%d", c.ChatType, c.ChatID)
	if c.ItemRange != nil {
		s += fmt.Sprintf(" from=%d to=%d", c.ItemRange.FromItem, c.ItemRange.ToItem)
	}
	return s
}

// APIDeleteChat deletes a chat and its connection.
type APIDeleteChat struct {
	ChatType ChatType
	ChatID   int64
}

func (c APIDeleteChat) CmdString() string {
	return fmt.Sprintf("/_delete %s%d", c.ChatType, c.ChatID)
}

// APIClearChat removes all items of a chat.
type APIClearChat struct {
	ChatType ChatType
	ChatID   int64
}

func (c APIClearChat) CmdString() string {
	return fmt.Sprintf("/_clear chat %s%d", c.ChatType, c.ChatID)
}

// APIAcceptContact accepts a pending contact request.
type APIAcceptContact struct {
	ContactReqID int64
}

func (c APIAcceptContact) CmdString() string { return fmt.Sprintf("/_accept %d", c.ContactReqID) }

// APIRejectContact rejects a pending contact request.
type APIRejectContact struct {
	ContactReqID int64
}

func (c APIRejectContact) CmdString() string { return fmt.Sprintf("/_reject %d", c.ContactReqID) }

// APISetContactAlias sets the local alias of a contact.
type APISetContactAlias struct {
	ContactID  int64
	LocalAlias string
}

func (c APISetContactAlias) CmdString() string {
	return fmt.Sprintf("/_set alias @%d %s", c.ContactID, c.LocalAlias)
}

// ReceiveFile accepts an offered file transfer.
type ReceiveFile struct {
	FileID   int64
	FilePath string
}

func (c ReceiveFile) CmdString() string {
	s := fmt.Sprintf("/freceive %d", c.FileID)
	if c.FilePath != "" {
		s += " " + c.FilePath
	}
	return s
}

// CancelFile cancels a file transfer.
type CancelFile struct {
	FileID int64
}

func (c CancelFile) CmdString() string { return fmt.Sprintf("/fcancel %d", c.FileID) }

// FileStatus queries the progress of a file transfer.
type FileStatus struct {
	FileID int64
}

func (c FileStatus) CmdString() string { return fmt.Sprintf("/fstatus %d", c.FileID) }
