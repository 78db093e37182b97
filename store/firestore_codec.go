package store

import (
	"math"

	"github.com/PrayerWall/dates"
	"github.com/PrayerWall/models"
)

// Earlier client builds wrote some fields under other names; readers fall
// back to them so old documents keep working.
var (
	userFieldFallbacks = map[string][]string{
		"googleDisplayName": {"googleUserName"},
		"homeLocation":      {"userLocation", "homeArea"},
	}
	prayerFieldFallbacks = map[string][]string{
		"requestText":  {"request"},
		"dateAnswered": {"answeredAt"},
	}
)

func lookup(data map[string]any, fallbacks map[string][]string, key string) (any, bool) {
	if v, ok := data[key]; ok && v != nil {
		return v, true
	}
	for _, alt := range fallbacks[key] {
		if v, ok := data[alt]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func stringField(data map[string]any, fallbacks map[string][]string, key string) string {
	v, _ := lookup(data, fallbacks, key)
	s, _ := v.(string)
	return s
}

func intField(data map[string]any, key string) (int, bool) {
	switch n := data[key].(type) {
	case int64:
		return int(n), true
	case int:
		return n, true
	case float64:
		if math.IsNaN(n) {
			return 0, false
		}
		return int(n), true
	}
	return 0, false
}

func encodeUser(p models.UserProfile) map[string]any {
	return map[string]any{
		"googleDisplayName": p.Google_Display_Name,
		"googlePhone":       p.Google_Phone,
		"displayName":       p.Display_Name,
		"whatsappNumber":    p.Whatsapp_Number,
		"homeLocation":      p.Home_Location,
		"detectedLocation":  p.Detected_Location,
		"email":             p.Email,
		"photoURL":          p.Photo_URL,
	}
}

func decodeUser(id string, data map[string]any) models.UserProfile {
	field := func(key string) string { return stringField(data, userFieldFallbacks, key) }

	return models.UserProfile{
		User_Profile_ID:     id,
		Google_Display_Name: field("googleDisplayName"),
		Google_Phone:        field("googlePhone"),
		Display_Name:        field("displayName"),
		Whatsapp_Number:     field("whatsappNumber"),
		Home_Location:       field("homeLocation"),
		Detected_Location:   field("detectedLocation"),
		Email:               field("email"),
		Photo_URL:           field("photoURL"),
	}
}

func encodePrayer(p models.Prayer) map[string]any {
	doc := map[string]any{
		"requesterId":    p.Requester_ID,
		"requestText":    p.Request_Text,
		"prayerType":     string(p.Prayer_Type),
		"dateCreated":    p.Date_Created.UTC(),
		"prayedForCount": p.Prayed_For_Count,
		"dateAnswered":   nil,
		"godAnswer":      nil,
	}
	if p.Date_Answered != nil {
		doc["dateAnswered"] = p.Date_Answered.UTC()
	}
	if p.God_Answer != nil {
		doc["godAnswer"] = *p.God_Answer
	}
	return doc
}

func decodePrayer(id string, data map[string]any) models.Prayer {
	prayer := models.Prayer{
		Prayer_ID:    id,
		Requester_ID: stringField(data, prayerFieldFallbacks, "requesterId"),
		Request_Text: stringField(data, prayerFieldFallbacks, "requestText"),
		Prayer_Type:  models.PrayerType(stringField(data, prayerFieldFallbacks, "prayerType")),
	}

	if count, ok := intField(data, "prayedForCount"); ok && count > 0 {
		prayer.Prayed_For_Count = count
	}

	if v, ok := lookup(data, prayerFieldFallbacks, "dateCreated"); ok {
		if t, ok := dates.FromStored(v); ok {
			prayer.Date_Created = t
		}
	}

	if v, ok := lookup(data, prayerFieldFallbacks, "dateAnswered"); ok {
		if t, ok := dates.FromStored(v); ok {
			prayer.Date_Answered = &t
		}
	}

	if v, ok := lookup(data, prayerFieldFallbacks, "godAnswer"); ok {
		if answer, ok := v.(string); ok {
			prayer.God_Answer = &answer
		}
	}

	return prayer
}

