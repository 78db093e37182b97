package models

import (
	"strings"
	"time"
)

type PrayerType string

const (
	PrayerTypeHealing      PrayerType = "healing"
	PrayerTypeGuidance     PrayerType = "guidance"
	PrayerTypeThanksgiving PrayerType = "thanksgiving"
	PrayerTypeOther        PrayerType = "other"
)

// PrayerTypes lists the closed set of request categories.
var PrayerTypes = []PrayerType{
	PrayerTypeHealing,
	PrayerTypeGuidance,
	PrayerTypeThanksgiving,
	PrayerTypeOther,
}

var prayerTypeColors = map[PrayerType]string{
	PrayerTypeHealing:      "#FFD700",
	PrayerTypeGuidance:     "#1E90FF",
	PrayerTypeThanksgiving: "#32CD32",
	PrayerTypeOther:        "#FF6347",
}

// PrayerTypeNames joins the closed set for messages.
func PrayerTypeNames() string {
	names := make([]string, len(PrayerTypes))
	for i, t := range PrayerTypes {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}

func (t PrayerType) Valid() bool {
	_, ok := prayerTypeColors[t]
	return ok
}

// Color is the badge colour shown next to the request.
func (t PrayerType) Color() string {
	return prayerTypeColors[t]
}

// ParsePrayerType normalizes user input; the bool is false for values
// outside the closed set.
func ParsePrayerType(s string) (PrayerType, bool) {
	t := PrayerType(strings.ToLower(strings.TrimSpace(s)))
	return t, t.Valid()
}

type Prayer struct {
	Prayer_ID        string     `json:"id" db:"prayer_id" goqu:"skipupdate"`
	Requester_ID     string     `json:"requesterId" db:"requester_id" goqu:"skipupdate"`
	Request_Text     string     `json:"requestText" db:"request_text"`
	Prayer_Type      PrayerType `json:"prayerType" db:"prayer_type"`
	Date_Created     time.Time  `json:"dateCreated" db:"date_created"`
	Prayed_For_Count int        `json:"prayedForCount" db:"prayed_for_count"`
	Date_Answered    *time.Time `json:"dateAnswered" db:"date_answered"`
	God_Answer       *string    `json:"godAnswer" db:"god_answer"`
}

// IsAnswered reports the answered state; a set answer date is the only trigger.
func (p Prayer) IsAnswered() bool {
	return p.Date_Answered != nil
}

// PrayerCreate is the draft submitted by the requester.
type PrayerCreate struct {
	Request_Text string `json:"requestText"`
	Prayer_Type  string `json:"prayerType"`
}

// PrayerAnswer is the optional body of the mark-answered action.
type PrayerAnswer struct {
	God_Answer *string `json:"godAnswer"`
}

// PrayerAnswerUpdate edits the answer of an answered prayer. Nil fields are
// left untouched.
type PrayerAnswerUpdate struct {
	God_Answer    *string `json:"godAnswer"`
	Date_Answered *string `json:"dateAnswered"`
}

type PrayerDateUpdate struct {
	Date_Created string `json:"dateCreated" binding:"required"`
}

// PrayerUpdate is the partial write applied at the store boundary. Only
// non-nil fields are written.
type PrayerUpdate struct {
	Date_Created  *time.Time
	Date_Answered *time.Time
	God_Answer    *string
}

func (u PrayerUpdate) IsEmpty() bool {
	return u.Date_Created == nil && u.Date_Answered == nil && u.God_Answer == nil
}

// PrayerFilter selects prayers; an empty filter matches every record.
type PrayerFilter struct {
	Requester_ID string
}
