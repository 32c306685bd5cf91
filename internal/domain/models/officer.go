package models

// Officer is a read-only directory entry managed by administrators.
// Officers carry no credentials and are keyed by an allocator-issued AGID.
type Officer struct {
	AGID       string `bson:"agid" json:"agid"`
	Name       string `bson:"name" json:"name"`
	Email      string `bson:"email,omitempty" json:"email,omitempty"`
	Mobile     string `bson:"mobile,omitempty" json:"mobile,omitempty"`
	Landline   string `bson:"landline,omitempty" json:"landline,omitempty"`
	Rank       string `bson:"rank,omitempty" json:"rank,omitempty"`
	Station    string `bson:"station,omitempty" json:"station,omitempty"`
	District   string `bson:"district,omitempty" json:"district,omitempty"`
	Unit       string `bson:"unit,omitempty" json:"unit,omitempty"`
	BloodGroup string `bson:"bloodGroup,omitempty" json:"bloodGroup,omitempty"`
	PhotoURL   string `bson:"photoUrl,omitempty" json:"photoUrl,omitempty"`
	IsHidden   bool   `bson:"isHidden,omitempty" json:"isHidden,omitempty"`

	SearchBlob string `bson:"searchBlob,omitempty" json:"-"`
}

// PrimaryPhone returns the mobile number, falling back to the landline.
func (o Officer) PrimaryPhone() string {
	if o.Mobile != "" {
		return o.Mobile
	}
	return o.Landline
}
