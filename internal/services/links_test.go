package services

import "testing"

func TestBuildInviteLinks(t *testing.T) {
	tests := []struct {
		name      string
		code      string
		groupName string
		wantDeep  string
		wantWeb   string
	}{
		{
			name:      "plain name",
			code:      "AB12CD",
			groupName: "Trip",
			wantDeep:  "hither://join?code=AB12CD&name=Trip",
			wantWeb:   "https://hither.app/join?code=AB12CD",
		},
		{
			name:      "name with spaces and unicode",
			code:      "ZZ99ZZ",
			groupName: "Kyoto Day Trip ⛩",
			wantDeep:  "hither://join?code=ZZ99ZZ&name=Kyoto+Day+Trip+%E2%9B%A9",
			wantWeb:   "https://hither.app/join?code=ZZ99ZZ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			links := BuildInviteLinks(tt.code, tt.groupName)
			if links.DeepLink != tt.wantDeep {
				t.Errorf("deep link = %q, want %q", links.DeepLink, tt.wantDeep)
			}
			if links.WebLink != tt.wantWeb {
				t.Errorf("web link = %q, want %q", links.WebLink, tt.wantWeb)
			}
		})
	}
}
