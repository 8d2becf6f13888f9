package protocol

import "fmt"

// ShowActiveUser requests the profile of the active user.
type ShowActiveUser struct{}

func (ShowActiveUser) CmdString() string { return "/u" }

// CreateActiveUser creates a new user profile.
type CreateActiveUser struct {
	Profile       *Profile
	SameServers   bool
	PastTimestamp bool
}

func (c CreateActiveUser) CmdString() string {
	user := map[string]any{
		"profile":       c.Profile,
		"sameServers":   c.SameServers,
		"pastTimestamp": c.PastTimestamp,
	}
	return "/_create user " + mustJSON(user)
}

// ListUsers lists all user profiles.
type ListUsers struct{}

func (ListUsers) CmdString() string { return "/users" }

// APISetActiveUser switches the active user.
type APISetActiveUser struct {
	UserID  int64
	ViewPwd *string
}

func (c APISetActiveUser) CmdString() string {
	s := fmt.Sprintf("/_user %d", c.UserID)
	if c.ViewPwd != nil {
		s += " json " + mustJSON(*c.ViewPwd)
	}
	return s
}

// APIHideUser hides a user profile behind a password.
type APIHideUser struct {
	UserID  int64
	ViewPwd string
}

func (c APIHideUser) CmdString() string {
	return fmt.Sprintf("/_hide user %d %s", c.UserID, mustJSON(c.ViewPwd))
}

// APIUnhideUser reveals a hidden user profile.
type APIUnhideUser struct {
	UserID  int64
	ViewPwd string
}

func (c APIUnhideUser) CmdString() string {
	return fmt.Sprintf("/_unhide user %d %s", c.UserID, mustJSON(c.ViewPwd))
}

// APIMuteUser silences notifications for a user.
type APIMuteUser struct {
	UserID int64
}

func (c APIMuteUser) CmdString() string { return fmt.Sprintf("/_mute user %d", c.UserID) }

// APIUnmuteUser re-enables notifications for a user.
type APIUnmuteUser struct {
	UserID int64
}

func (c APIUnmuteUser) CmdString() string { return fmt.Sprintf("/_unmute user %d", c.UserID) }

// APIDeleteUser removes a user profile.
type APIDeleteUser struct {
	UserID       int64
	DelSMPQueues bool
	ViewPwd      *string
}

func (c APIDeleteUser) CmdString() string {
	s := fmt.Sprintf("/_delete user %d del_smp=%s", c.UserID, onOff(c.DelSMPQueues))
	if c.ViewPwd != nil {
		s += " json " + mustJSON(*c.ViewPwd)
	}
	return s
}

// APIUpdateProfile replaces the user's profile.
type APIUpdateProfile struct {
	UserID  int64
	Profile Profile
}

func (c APIUpdateProfile) CmdString() string {
	return fmt.Sprintf("/_profile %d %s", c.UserID, mustJSON(c.Profile))
}

// SetIncognito toggles incognito mode for new connections.
type SetIncognito struct {
	Incognito bool
}

func (c SetIncognito) CmdString() string { return "/incognito " + onOff(c.Incognito) }
