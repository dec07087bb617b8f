package models

// Profile is the subset of the externally managed user profile the marketplace reads.
type Profile struct {
	ID        string  `bson:"_id" json:"id"`
	FullName  *string `bson:"full_name,omitempty" json:"full_name"`
	AvatarURL *string `bson:"avatar_url,omitempty" json:"avatar_url"`
	Email     string  `bson:"email,omitempty" json:"-"`
}

// Seller projects the profile onto the fields embedded in listings.
func (p *Profile) Seller() Seller {
	return Seller{ID: p.ID, FullName: p.FullName, AvatarURL: p.AvatarURL}
}
