package services

import (
	"fmt"
	"net/url"
)

// InviteLinks is the share payload for a group invite: the app deep link
// plus an HTTPS fallback for contexts that cannot open custom schemes.
type InviteLinks struct {
	DeepLink string `json:"deep_link"`
	WebLink  string `json:"web_link"`
}

// BuildInviteLinks renders the hither:// deep link and its HTTPS fallback
// for an invite code. The group name is carried in the deep link only.
func BuildInviteLinks(code, groupName string) InviteLinks {
	return InviteLinks{
		DeepLink: fmt.Sprintf("hither://join?code=%s&name=%s", url.QueryEscape(code), url.QueryEscape(groupName)),
		WebLink:  fmt.Sprintf("https://hither.app/join?code=%s", url.QueryEscape(code)),
	}
}
