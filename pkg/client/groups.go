package client

import (
	"context"

	"github.com/simplexbot/simplexbot/pkg/protocol"
)

// NewGroup creates a group and returns its info.
func (c *Client) NewGroup(ctx context.Context, profile protocol.GroupProfile) (*protocol.GroupInfo, error) {
	resp, err := c.sendTyped(ctx, protocol.NewGroup{GroupProfile: profile})
	if err != nil {
		return nil, err
	}
	created, ok := resp.(*protocol.CRGroupCreated)
	if !ok {
		return nil, unexpectedResponse("groupCreated", resp)
	}
	return &created.GroupInfo, nil
}

// AddGroupMember invites a contact into a group with the given role.
func (c *Client) AddGroupMember(ctx context.Context, groupID, contactID int64, role protocol.GroupMemberRole) error {
	resp, err := c.sendTyped(ctx, protocol.APIAddMember{GroupID: groupID, ContactID: contactID, MemberRole: role})
	if err != nil {
		return err
	}
	if _, ok := resp.(*protocol.CRSentGroupInvitation); !ok {
		return unexpectedResponse("sentGroupInvitation", resp)
	}
	return nil
}

// JoinGroup accepts a group invitation.
func (c *Client) JoinGroup(ctx context.Context, groupID int64) error {
	_, err := c.sendTyped(ctx, protocol.APIJoinGroup{GroupID: groupID})
	return err
}

// RemoveGroupMember removes a member from a group.
func (c *Client) RemoveGroupMember(ctx context.Context, groupID, memberID int64) error {
	_, err := c.sendTyped(ctx, protocol.APIRemoveMember{GroupID: groupID, MemberID: memberID})
	return err
}

// LeaveGroup leaves a group.
func (c *Client) LeaveGroup(ctx context.Context, groupID int64) error {
	_, err := c.sendTyped(ctx, protocol.APILeaveGroup{GroupID: groupID})
	return err
}

// ListGroupMembers lists the members of a group.
func (c *Client) ListGroupMembers(ctx context.Context, groupID int64) ([]protocol.GroupMember, error) {
	resp, err := c.sendTyped(ctx, protocol.APIListMembers{GroupID: groupID})
	if err != nil {
		return nil, err
	}
	members, ok := resp.(*protocol.CRGroupMembers)
	if !ok {
		return nil, unexpectedResponse("groupMembers", resp)
	}
	return members.Group.Members, nil
}

// CreateGroupLink creates a public join link for a group.
func (c *Client) CreateGroupLink(ctx context.Context, groupID int64, role protocol.GroupMemberRole) error {
	_, err := c.sendTyped(ctx, protocol.APICreateGroupLink{GroupID: groupID, MemberRole: role})
	return err
}

// DeleteGroupLink removes a group's join link.
func (c *Client) DeleteGroupLink(ctx context.Context, groupID int64) error {
	_, err := c.sendTyped(ctx, protocol.APIDeleteGroupLink{GroupID: groupID})
	return err
}
