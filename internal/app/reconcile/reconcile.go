// Package reconcile maps raw remote documents into domain records. It is the
// single authority for key resolution: a record whose kgid/agid field is
// blank takes the remote document id as its key, and that key is back-filled
// into the record before it reaches the cache.
package reconcile

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/dalemusser/rosterhub/internal/app/system/normalize"
	"github.com/dalemusser/rosterhub/internal/domain/models"
)

// Doc is a raw remote document: the store's own id plus the undecoded body.
// Stores return Docs so this package owns every decode decision.
type Doc struct {
	ID   string
	Data bson.M
}

// Field-name aliases, tried in order until one yields a non-blank value.
// The old names stay readable forever; legacy documents are never migrated
// in place.
var (
	metalAliases   = []string{"metalNumber", "metal"}
	mobile1Aliases = []string{"mobile1", "mobile"}
)

// Employee reconciles a remote employee document into a domain record.
// Typed decoding is attempted first; on shape mismatch each field is
// re-extracted by name with per-field defaults so one malformed field never
// drops the record.
func Employee(doc Doc) models.Employee {
	var e models.Employee
	if raw, err := bson.Marshal(doc.Data); err == nil {
		if err := bson.Unmarshal(raw, &e); err != nil {
			e = employeeByField(doc.Data)
		}
	} else {
		e = employeeByField(doc.Data)
	}

	if strings.TrimSpace(e.KGID) == "" {
		e.KGID = doc.ID
	}
	// Legacy rows predate the approval flag and were all approved.
	if _, ok := doc.Data["isApproved"]; !ok {
		e.IsApproved = true
	}
	if e.MetalNumber == "" {
		e.MetalNumber = str(doc.Data, metalAliases...)
	}
	if e.Mobile1 == "" {
		e.Mobile1 = str(doc.Data, mobile1Aliases...)
	}
	if e.SearchBlob == "" {
		e.SearchBlob = EmployeeBlob(e)
	}
	return e
}

// EmployeeBlob computes the precomputed search string for an employee.
// Write paths call this before persisting so readers never recompute it.
func EmployeeBlob(e models.Employee) string {
	return normalize.SearchBlob(
		e.Name, e.KGID, e.Mobile1, e.Mobile2,
		e.Rank, e.MetalNumber, e.District, e.Station, e.BloodGroup,
	)
}

func employeeByField(m bson.M) models.Employee {
	return models.Employee{
		KGID:        str(m, "kgid"),
		Name:        str(m, "name"),
		Email:       str(m, "email"),
		PIN:         str(m, "pin"),
		Mobile1:     str(m, mobile1Aliases...),
		Mobile2:     str(m, "mobile2"),
		Rank:        str(m, "rank"),
		MetalNumber: str(m, metalAliases...),
		District:    str(m, "district"),
		Station:     str(m, "station"),
		BloodGroup:  str(m, "bloodGroup"),
		Unit:        str(m, "unit"),
		PhotoURL:    str(m, "photoUrl"),
		GooglePhoto: str(m, "photoUrlFromGoogle"),
		PushToken:   str(m, "fcmToken"),
		ProviderUID: str(m, "firebaseUid"),
		IsAdmin:     flag(m, "isAdmin"),
		IsApproved:  flag(m, "isApproved"),
		IsHidden:    flag(m, "isHidden"),
		IsDeleted:   flag(m, "isDeleted"),
		CreatedAt:   when(m, "createdAt"),
		UpdatedAt:   when(m, "updatedAt"),
		SearchBlob:  str(m, "searchBlob"),
	}
}

// Officer reconciles a remote officer document, with the same key-resolution
// and defensive-decode rules as Employee.
func Officer(doc Doc) models.Officer {
	var o models.Officer
	if raw, err := bson.Marshal(doc.Data); err == nil {
		if err := bson.Unmarshal(raw, &o); err != nil {
			o = officerByField(doc.Data)
		}
	} else {
		o = officerByField(doc.Data)
	}

	if strings.TrimSpace(o.AGID) == "" {
		o.AGID = doc.ID
	}
	if o.SearchBlob == "" {
		o.SearchBlob = OfficerBlob(o)
	}
	return o
}

// OfficerBlob computes the precomputed search string for an officer.
func OfficerBlob(o models.Officer) string {
	return normalize.SearchBlob(
		o.Name, o.AGID, o.Mobile, o.Landline,
		o.Rank, o.District, o.Station,
	)
}

func officerByField(m bson.M) models.Officer {
	return models.Officer{
		AGID:       str(m, "agid"),
		Name:       str(m, "name"),
		Email:      str(m, "email"),
		Mobile:     str(m, "mobile"),
		Landline:   str(m, "landline"),
		Rank:       str(m, "rank"),
		Station:    str(m, "station"),
		District:   str(m, "district"),
		Unit:       str(m, "unit"),
		BloodGroup: str(m, "bloodGroup"),
		PhotoURL:   str(m, "photoUrl"),
		IsHidden:   flag(m, "isHidden"),
		SearchBlob: str(m, "searchBlob"),
	}
}

// str returns the first non-blank string found under the candidate keys.
func str(m bson.M, keys ...string) string {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
				return s
			}
		}
	}
	return ""
}

func flag(m bson.M, key string) bool {
	if v, ok := m[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return false
}

// when extracts a timestamp, accepting the shapes the driver and legacy
// writers produce. Missing or unreadable values default to the current time
// so cache rows always carry a plausible timestamp.
func when(m bson.M, key string) time.Time {
	v, ok := m[key]
	if !ok {
		return time.Now()
	}
	switch t := v.(type) {
	case time.Time:
		return t
	case primitive.DateTime:
		return t.Time()
	case int64:
		return time.UnixMilli(t)
	default:
		return time.Now()
	}
}
