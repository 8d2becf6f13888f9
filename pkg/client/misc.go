package client

import (
	"context"

	"github.com/simplexbot/simplexbot/pkg/protocol"
)

// CreateInvitation creates a one-time invitation link.
func (c *Client) CreateInvitation(ctx context.Context) (string, error) {
	resp, err := c.sendTyped(ctx, protocol.AddContact{})
	if err != nil {
		return "", err
	}
	inv, ok := resp.(*protocol.CRInvitation)
	if !ok {
		return "", unexpectedResponse("invitation", resp)
	}
	return inv.ConnReqInvitation, nil
}

// ConnectVia connects to a peer via an invitation or contact link.
func (c *Client) ConnectVia(ctx context.Context, connReq string) error {
	_, err := c.sendTyped(ctx, protocol.Connect{ConnReq: connReq})
	return err
}

// CreateAddress creates the user's long-term contact address and returns it.
func (c *Client) CreateAddress(ctx context.Context) (string, error) {
	resp, err := c.sendTyped(ctx, protocol.CreateMyAddress{})
	if err != nil {
		return "", err
	}
	created, ok := resp.(*protocol.CRUserContactLinkCreated)
	if !ok {
		return "", unexpectedResponse("userContactLinkCreated", resp)
	}
	return created.ConnReqContact, nil
}

// ShowAddress returns the user's contact address link.
func (c *Client) ShowAddress(ctx context.Context) (map[string]any, error) {
	resp, err := c.sendTyped(ctx, protocol.ShowMyAddress{})
	if err != nil {
		return nil, err
	}
	link, ok := resp.(*protocol.CRUserContactLink)
	if !ok {
		return nil, unexpectedResponse("userContactLink", resp)
	}
	return link.ContactLink, nil
}

// DeleteAddress deletes the user's contact address.
func (c *Client) DeleteAddress(ctx context.Context) error {
	_, err := c.sendTyped(ctx, protocol.DeleteMyAddress{})
	return err
}

// EnableAddressAutoAccept makes the address accept contact requests
// automatically, optionally with an auto-reply message.
func (c *Client) EnableAddressAutoAccept(ctx context.Context, autoReply *protocol.MsgContent) error {
	_, err := c.sendTyped(ctx, protocol.AddressAutoAccept{
		AutoAccept: &protocol.AutoAccept{AutoReply: autoReply},
	})
	return err
}

// DisableAddressAutoAccept turns automatic acceptance off.
func (c *Client) DisableAddressAutoAccept(ctx context.Context) error {
	_, err := c.sendTyped(ctx, protocol.AddressAutoAccept{})
	return err
}
