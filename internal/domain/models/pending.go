package models

import "time"

// Registration status values. Rejected is terminal; approved rows are
// promoted into the employees collection and removed from the pending set.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// PendingRegistration is an Employee-shaped draft awaiting admin review.
type PendingRegistration struct {
	KGID        string `bson:"kgid" json:"kgid"`
	DocID       string `bson:"-" json:"docId,omitempty"` // remote document id, may differ from KGID for legacy rows
	Name        string `bson:"name" json:"name"`
	Email       string `bson:"email" json:"email"`
	PIN         string `bson:"pin,omitempty" json:"-"`
	Mobile1     string `bson:"mobile1,omitempty" json:"mobile1,omitempty"`
	Mobile2     string `bson:"mobile2,omitempty" json:"mobile2,omitempty"`
	Rank        string `bson:"rank,omitempty" json:"rank,omitempty"`
	MetalNumber string `bson:"metalNumber,omitempty" json:"metalNumber,omitempty"`
	District    string `bson:"district,omitempty" json:"district,omitempty"`
	Station     string `bson:"station,omitempty" json:"station,omitempty"`
	Unit        string `bson:"unit,omitempty" json:"unit,omitempty"`
	BloodGroup  string `bson:"bloodGroup,omitempty" json:"bloodGroup,omitempty"`
	PhotoURL    string `bson:"photoUrl,omitempty" json:"photoUrl,omitempty"`
	ProviderUID string `bson:"firebaseUid,omitempty" json:"firebaseUid,omitempty"`

	Status          string    `bson:"status" json:"status"`
	RejectionReason string    `bson:"rejectionReason,omitempty" json:"rejectionReason,omitempty"`
	SubmittedAt     time.Time `bson:"submittedAt,omitempty" json:"submittedAt,omitempty"`
}

// ToEmployee builds the Employee record a registration becomes on approval.
func (p PendingRegistration) ToEmployee() Employee {
	return Employee{
		KGID:        p.KGID,
		Name:        p.Name,
		Email:       p.Email,
		PIN:         p.PIN,
		Mobile1:     p.Mobile1,
		Mobile2:     p.Mobile2,
		Rank:        p.Rank,
		MetalNumber: p.MetalNumber,
		District:    p.District,
		Station:     p.Station,
		Unit:        p.Unit,
		BloodGroup:  p.BloodGroup,
		PhotoURL:    p.PhotoURL,
		ProviderUID: p.ProviderUID,
		IsApproved:  true,
	}
}
