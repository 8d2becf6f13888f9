package protocol

import "fmt"

// NewGroup creates a group with the given profile.
type NewGroup struct {
	GroupProfile GroupProfile
}

func (c NewGroup) CmdString() string { return "/_group " + mustJSON(c.GroupProfile) }

// APIAddMember invites a contact into a group.
type APIAddMember struct {
	GroupID    int64
	ContactID  int64
	MemberRole GroupMemberRole
}

func (c APIAddMember) CmdString() string {
	return fmt.Sprintf("/_add #%d %d %s", c.GroupID, c.ContactID, c.MemberRole)
}

// APIJoinGroup accepts a group invitation.
type APIJoinGroup struct {
	GroupID int64
}

func (c APIJoinGroup) CmdString() string { return fmt.Sprintf("/_join #%d", c.GroupID) }

// APIRemoveMember removes a member from a group.
type APIRemoveMember struct {
	GroupID  int64
	MemberID int64
}

func (c APIRemoveMember) CmdString() string {
	return fmt.Sprintf("/_remove #%d %d", c.GroupID, c.MemberID)
}

// APILeaveGroup leaves a group.
type APILeaveGroup struct {
	GroupID int64
}

func (c APILeaveGroup) CmdString() string { return fmt.Sprintf("/_leave #%d", c.GroupID) }

// APIListMembers lists the members of a group.
type APIListMembers struct {
	GroupID int64
}

func (c APIListMembers) CmdString() string { return fmt.Sprintf("/_members #%d", c.GroupID) }

// APIUpdateGroupProfile replaces a group's profile.
type APIUpdateGroupProfile struct {
	GroupID      int64
	GroupProfile GroupProfile
}

func (c APIUpdateGroupProfile) CmdString() string {
	return fmt.Sprintf("/_group_profile #%d %s", c.GroupID, mustJSON(c.GroupProfile))
}

// APICreateGroupLink creates a public join link for a group.
type APICreateGroupLink struct {
	GroupID    int64
	MemberRole GroupMemberRole
}

func (c APICreateGroupLink) CmdString() string {
	return fmt.Sprintf("/_create link #%d %s", c.GroupID, c.MemberRole)
}

// APIDeleteGroupLink removes a group's join link.
type APIDeleteGroupLink struct {
	GroupID int64
}

func (c APIDeleteGroupLink) CmdString() string { return fmt.Sprintf("/_delete link #%d", c.GroupID) }

// APIGetGroupLink fetches a group's join link.
type APIGetGroupLink struct {
	GroupID int64
}

func (c APIGetGroupLink) CmdString() string { return fmt.Sprintf("/_get link #%d", c.GroupID) }
