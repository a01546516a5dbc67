package model

// Identity is the signed-in user and the profile fields the app shows.
type Identity struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	Name        string `json:"name"`
	WeddingDate *Date  `json:"wedding_date,omitempty"`
}

// DisplayName returns the profile name, falling back to the email.
func (i *Identity) DisplayName() string {
	if i.Name != "" {
		return i.Name
	}
	return i.Email
}

// Profile is one row of the profiles table.
type Profile struct {
	ID          string
	WeddingDate *Date
}
