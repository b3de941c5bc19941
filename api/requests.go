package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"wagermatch/models"
	"wagermatch/service"
)

// flexInt accepts 3, "3" and team-size labels such as "2v2"
type flexInt int

func (f *flexInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = 0
		return nil
	}

	var raw string
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
	} else {
		raw = string(data)
	}

	raw = strings.TrimSpace(strings.ToLower(raw))
	if raw == "" {
		*f = 0
		return nil
	}
	if side, _, ok := strings.Cut(raw, "v"); ok {
		raw = side
	}

	n, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("invalid number %q", string(data))
	}
	*f = flexInt(n)
	return nil
}

type createMatchRequest struct {
	MatchType string           `json:"matchType"`
	GameMode  string           `json:"gameMode"`
	FirstTo   flexInt          `json:"firstTo"`
	Platform  string           `json:"platform"`
	Region    string           `json:"region"`
	TeamSize  flexInt          `json:"teamSize"`
	EntryFee  *decimal.Decimal `json:"entryFee"`
}

func (r *createMatchRequest) params() service.CreateMatchParams {
	params := service.CreateMatchParams{
		MatchType: models.MatchType(strings.ToLower(strings.TrimSpace(r.MatchType))),
		GameMode:  r.GameMode,
		FirstTo:   int(r.FirstTo),
		Platform:  r.Platform,
		Region:    r.Region,
		TeamSize:  int(r.TeamSize),
	}
	if r.EntryFee != nil {
		params.EntryFee = *r.EntryFee
	}
	return params
}

type submitResultRequest struct {
	Winner models.ResultVote `json:"winner"`
}

type readyRequest struct {
	Ready *bool `json:"ready"`
}

type linkAccountRequest struct {
	Provider       string         `json:"provider"`
	ProviderUserID string         `json:"provider_user_id"`
	Username       *string        `json:"username"`
	Email          *string        `json:"email"`
	ProfileData    map[string]any `json:"profile_data"`
}

type unlinkAccountRequest struct {
	Provider string `json:"provider"`
}
