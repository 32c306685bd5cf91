package models

import "time"

// Terminology: Record Identifiers
//   - KGID: the natural key of a personnel record, the string a human types
//     and the remote document id for modern records
//   - Document ID: the remote store's own identifier; legacy documents may
//     carry a blank kgid field, in which case the document id is authoritative

// Employee is the central directory record. The remote store owns the
// authoritative value of every field; the local cache holds a denormalized
// copy keyed by KGID.
//
// Every string field is bson-omitempty so merge writes leave absent fields
// untouched. The boolean flags are always written; a caller updating a
// record must carry their current values.
type Employee struct {
	KGID        string `bson:"kgid,omitempty" json:"kgid"`
	Name        string `bson:"name,omitempty" json:"name"`
	Email       string `bson:"email,omitempty" json:"email"`
	PIN         string `bson:"pin,omitempty" json:"-"` // salted hash (hex(salt):hex(key)), never the raw PIN
	Mobile1     string `bson:"mobile1,omitempty" json:"mobile1,omitempty"`
	Mobile2     string `bson:"mobile2,omitempty" json:"mobile2,omitempty"`
	Rank        string `bson:"rank,omitempty" json:"rank,omitempty"`
	MetalNumber string `bson:"metalNumber,omitempty" json:"metalNumber,omitempty"`
	District    string `bson:"district,omitempty" json:"district,omitempty"`
	Station     string `bson:"station,omitempty" json:"station,omitempty"`
	BloodGroup  string `bson:"bloodGroup,omitempty" json:"bloodGroup,omitempty"`
	Unit        string `bson:"unit,omitempty" json:"unit,omitempty"`
	PhotoURL    string `bson:"photoUrl,omitempty" json:"photoUrl,omitempty"`
	GooglePhoto string `bson:"photoUrlFromGoogle,omitempty" json:"photoUrlFromGoogle,omitempty"`
	PushToken   string `bson:"fcmToken,omitempty" json:"fcmToken,omitempty"`
	ProviderUID string `bson:"firebaseUid,omitempty" json:"firebaseUid,omitempty"`

	IsAdmin    bool `bson:"isAdmin" json:"isAdmin"`
	IsApproved bool `bson:"isApproved" json:"isApproved"`
	IsHidden   bool `bson:"isHidden,omitempty" json:"isHidden,omitempty"`
	IsDeleted  bool `bson:"isDeleted,omitempty" json:"-"`

	CreatedAt time.Time `bson:"createdAt,omitempty" json:"createdAt,omitempty"`
	UpdatedAt time.Time `bson:"updatedAt,omitempty" json:"updatedAt,omitempty"`

	// SearchBlob is a normalized concatenation of the searchable fields,
	// precomputed at write time. Readers never recompute it.
	SearchBlob string `bson:"searchBlob,omitempty" json:"-"`
}

// DisplayRank renders the rank with the metal number appended when present.
func (e Employee) DisplayRank() string {
	if e.Rank == "" {
		return ""
	}
	if e.MetalNumber != "" {
		return e.Rank + " " + e.MetalNumber
	}
	return e.Rank
}
