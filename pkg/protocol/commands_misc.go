package protocol

// AddContact creates a one-time invitation link.
type AddContact struct{}

func (AddContact) CmdString() string { return "/connect" }

// Connect connects via an invitation or contact link.
type Connect struct {
	ConnReq string
}

func (c Connect) CmdString() string { return "/connect " + c.ConnReq }

// CreateMyAddress creates the user's long-term contact address.
type CreateMyAddress struct{}

func (CreateMyAddress) CmdString() string { return "/address" }

// DeleteMyAddress deletes the user's contact address.
type DeleteMyAddress struct{}

func (DeleteMyAddress) CmdString() string { return "/delete_address" }

// ShowMyAddress shows the user's contact address.
type ShowMyAddress struct{}

func (ShowMyAddress) CmdString() string { return "/show_address" }

// SetProfileAddress toggles publishing the address in the user's profile.
type SetProfileAddress struct {
	IncludeInProfile bool
}

func (c SetProfileAddress) CmdString() string {
	return "/profile_address " + onOff(c.IncludeInProfile)
}

// AddressAutoAccept configures automatic acceptance of requests arriving on
// the user's address. A nil AutoAccept turns it off.
type AddressAutoAccept struct {
	AutoAccept *AutoAccept
}

func (c AddressAutoAccept) CmdString() string {
	return "/auto_accept " + autoAcceptString(c.AutoAccept)
}
