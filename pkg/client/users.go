package client

import (
	"context"
	"fmt"

	"github.com/simplexbot/simplexbot/pkg/protocol"
)

// ShowActiveUser returns the profile of the active user.
func (c *Client) ShowActiveUser(ctx context.Context) (*protocol.User, error) {
	resp, err := c.sendTyped(ctx, protocol.ShowActiveUser{})
	if err != nil {
		return nil, err
	}
	au, ok := resp.(*protocol.CRActiveUser)
	if !ok {
		return nil, unexpectedResponse("activeUser", resp)
	}
	return &au.User, nil
}

// CreateActiveUser creates a user with the given profile and makes it
// active.
func (c *Client) CreateActiveUser(ctx context.Context, profile protocol.Profile) (*protocol.User, error) {
	resp, err := c.sendTyped(ctx, protocol.CreateActiveUser{Profile: &profile, SameServers: true})
	if err != nil {
		return nil, err
	}
	au, ok := resp.(*protocol.CRActiveUser)
	if !ok {
		return nil, unexpectedResponse("activeUser", resp)
	}
	return &au.User, nil
}

// ListUsers lists all user profiles with their unread counts.
func (c *Client) ListUsers(ctx context.Context) ([]protocol.UserInfo, error) {
	resp, err := c.sendTyped(ctx, protocol.ListUsers{})
	if err != nil {
		return nil, err
	}
	list, ok := resp.(*protocol.CRUsersList)
	if !ok {
		return nil, unexpectedResponse("usersList", resp)
	}
	return list.Users, nil
}

// SetActiveUser switches the active user.
func (c *Client) SetActiveUser(ctx context.Context, userID int64) (*protocol.User, error) {
	resp, err := c.sendTyped(ctx, protocol.APISetActiveUser{UserID: userID})
	if err != nil {
		return nil, err
	}
	au, ok := resp.(*protocol.CRActiveUser)
	if !ok {
		return nil, unexpectedResponse("activeUser", resp)
	}
	return &au.User, nil
}

// UpdateProfile replaces the active user's profile.
func (c *Client) UpdateProfile(ctx context.Context, userID int64, profile protocol.Profile) error {
	_, err := c.sendTyped(ctx, protocol.APIUpdateProfile{UserID: userID, Profile: profile})
	return err
}

func unexpectedResponse(want string, got protocol.Response) error {
	return fmt.Errorf("client: expected %s response, got %s", want, got.ResponseType())
}
