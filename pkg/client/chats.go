package client

import (
	"context"

	"github.com/simplexbot/simplexbot/pkg/protocol"
)

// StartChat starts the chat engine, subscribing to connection events. It is
// idempotent: a server that reports chatRunning is treated as success.
func (c *Client) StartChat(ctx context.Context) error {
	resp, err := c.sendTyped(ctx, protocol.StartChat{SubscribeConnections: true})
	if err != nil {
		return err
	}
	switch resp.(type) {
	case *protocol.CRChatStarted, *protocol.CRChatRunning:
		return nil
	default:
		return unexpectedResponse("chatStarted", resp)
	}
}

// StopChat stops the chat engine.
func (c *Client) StopChat(ctx context.Context) error {
	resp, err := c.sendTyped(ctx, protocol.APIStopChat{})
	if err != nil {
		return err
	}
	if _, ok := resp.(*protocol.CRChatStopped); !ok {
		return unexpectedResponse("chatStopped", resp)
	}
	return nil
}

// GetChats returns the active user's chat list.
func (c *Client) GetChats(ctx context.Context) ([]protocol.Chat, error) {
	resp, err := c.sendTyped(ctx, protocol.APIGetChats{})
	if err != nil {
		return nil, err
	}
	chats, ok := resp.(*protocol.CRApiChats)
	if !ok {
		return nil, unexpectedResponse("apiChats", resp)
	}
	return chats.Chats, nil
}

// GetChat returns one chat with a page of its items.
func (c *Client) GetChat(ctx context.Context, chatType protocol.ChatType, chatID int64, pagination protocol.ChatPagination) (*protocol.Chat, error) {
	resp, err := c.sendTyped(ctx, protocol.APIGetChat{ChatType: chatType, ChatID: chatID, Pagination: pagination})
	if err != nil {
		return nil, err
	}
	chat, ok := resp.(*protocol.CRApiChat)
	if !ok {
		return nil, unexpectedResponse("apiChat", resp)
	}
	return &chat.Chat, nil
}

// SendTextMessage sends a plain text message to a chat and returns the chat
// items created for it.
func (c *Client) SendTextMessage(ctx context.Context, chatType protocol.ChatType, chatID int64, text string) ([]protocol.AChatItem, error) {
	return c.SendMessages(ctx, chatType, chatID, []protocol.ComposedMessage{
		{MsgContent: protocol.TextMsgContent(text)},
	})
}

// SendMessages sends a batch of composed messages to a chat.
func (c *Client) SendMessages(ctx context.Context, chatType protocol.ChatType, chatID int64, msgs []protocol.ComposedMessage) ([]protocol.AChatItem, error) {
	resp, err := c.sendTyped(ctx, protocol.APISendMessage{ChatType: chatType, ChatID: chatID, Messages: msgs})
	if err != nil {
		return nil, err
	}
	items, ok := resp.(*protocol.CRNewChatItems)
	if !ok {
		return nil, unexpectedResponse("newChatItems", resp)
	}
	return items.ChatItems, nil
}

// ChatRead marks a chat as read.
func (c *Client) ChatRead(ctx context.Context, chatType protocol.ChatType, chatID int64) error {
	_, err := c.sendTyped(ctx, protocol.APIChatRead{ChatType: chatType, ChatID: chatID})
	return err
}

// DeleteChat deletes a chat and its connection.
func (c *Client) DeleteChat(ctx context.Context, chatType protocol.ChatType, chatID int64) error {
	_, err := c.sendTyped(ctx, protocol.APIDeleteChat{ChatType: chatType, ChatID: chatID})
	return err
}

// ClearChat removes all items of a chat.
func (c *Client) ClearChat(ctx context.Context, chatType protocol.ChatType, chatID int64) error {
	_, err := c.sendTyped(ctx, protocol.APIClearChat{ChatType: chatType, ChatID: chatID})
	return err
}

// AcceptContactRequest accepts a pending contact request and returns the new
// contact.
func (c *Client) AcceptContactRequest(ctx context.Context, contactReqID int64) (*protocol.Contact, error) {
	resp, err := c.sendTyped(ctx, protocol.APIAcceptContact{ContactReqID: contactReqID})
	if err != nil {
		return nil, err
	}
	acc, ok := resp.(*protocol.CRAcceptingContactRequest)
	if !ok {
		return nil, unexpectedResponse("acceptingContactRequest", resp)
	}
	return &acc.Contact, nil
}

// RejectContactRequest rejects a pending contact request.
func (c *Client) RejectContactRequest(ctx context.Context, contactReqID int64) error {
	_, err := c.sendTyped(ctx, protocol.APIRejectContact{ContactReqID: contactReqID})
	return err
}

// ReceiveFile accepts an offered file transfer. An empty path keeps the
// server's default files folder.
func (c *Client) ReceiveFile(ctx context.Context, fileID int64, path string) error {
	resp, err := c.sendTyped(ctx, protocol.ReceiveFile{FileID: fileID, FilePath: path})
	if err != nil {
		return err
	}
	if _, ok := resp.(*protocol.CRRcvFileAccepted); !ok {
		return unexpectedResponse("rcvFileAccepted", resp)
	}
	return nil
}

// CancelFile cancels a file transfer.
func (c *Client) CancelFile(ctx context.Context, fileID int64) error {
	_, err := c.sendTyped(ctx, protocol.CancelFile{FileID: fileID})
	return err
}
