package protocol

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ChatCommand is any command that can be sent to the chat server. CmdString
// renders the command in the CLI's line protocol, which is what the "cmd"
// field of the request envelope carries.
type ChatCommand interface {
	CmdString() string
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

// mustJSON renders v for embedding into a command string. Command payloads
// are plain structs and maps; a marshal failure is a programming error.
func mustJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("protocol: marshal command payload: %v", err))
	}
	return string(data)
}

// maybeJSON renders " json <v>" when v is set, otherwise nothing.
func maybeJSON(v any) string {
	if v == nil {
		return ""
	}
	return " json " + mustJSON(v)
}

func paginationString(p ChatPagination) string {
	var b strings.Builder
	if p.After != nil {
		fmt.Fprintf(&b, " after=%d", *p.After)
	} else if p.Before != nil {
		fmt.Fprintf(&b, " before=%d", *p.Before)
	}
	fmt.Fprintf(&b, " count=%d", p.Count)
	return b.String()
}

func autoAcceptString(aa *AutoAccept) string {
	if aa == nil {
		return "off"
	}
	s := "on"
	if aa.AcceptIncognito {
		s += " incognito=on"
	}
	if aa.AutoReply != nil {
		s += " json " + mustJSON(aa.AutoReply)
	}
	return s
}
