package models

// UserProfile is keyed by the identity provider's user id. The google_*
// fields are captured once at first login and never overwritten.
type UserProfile struct {
	User_Profile_ID     string `json:"id" db:"user_profile_id" goqu:"skipupdate"`
	Google_Display_Name string `json:"googleDisplayName" db:"google_display_name" goqu:"skipupdate"`
	Google_Phone        string `json:"googlePhone" db:"google_phone" goqu:"skipupdate"`
	Display_Name        string `json:"displayName" db:"display_name"`
	Whatsapp_Number     string `json:"whatsappNumber" db:"whatsapp_number"`
	Home_Location       string `json:"homeLocation" db:"home_location"`
	Detected_Location   string `json:"detectedLocation" db:"detected_location"`
	Email               string `json:"email" db:"email" goqu:"skipupdate"`
	Photo_URL           string `json:"photoURL" db:"photo_url" goqu:"skipupdate"`
}

// UserProfileUpdate carries the editable fields only. Nil fields are left
// untouched. Detected_Location is written by location detection, not by
// clients.
type UserProfileUpdate struct {
	Display_Name      *string `json:"displayName"`
	Whatsapp_Number   *string `json:"whatsappNumber"`
	Home_Location     *string `json:"homeLocation"`
	Detected_Location *string `json:"-"`
}

func (u UserProfileUpdate) IsEmpty() bool {
	return u.Display_Name == nil && u.Whatsapp_Number == nil && u.Home_Location == nil && u.Detected_Location == nil
}

// Apply returns p with the non-nil fields of u written over it.
func (u UserProfileUpdate) Apply(p UserProfile) UserProfile {
	if u.Display_Name != nil {
		p.Display_Name = *u.Display_Name
	}
	if u.Whatsapp_Number != nil {
		p.Whatsapp_Number = *u.Whatsapp_Number
	}
	if u.Home_Location != nil {
		p.Home_Location = *u.Home_Location
	}
	if u.Detected_Location != nil {
		p.Detected_Location = *u.Detected_Location
	}
	return p
}
