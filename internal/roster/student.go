package roster

import "tagcheck/internal/store"

// Student is an identity record from the students collection. UID is the
// store-assigned document id; StudentID is the institution-issued business
// key; DeviceUUID identifies the physical device used to check in; Token is
// the optional push-notification target and may be empty.
type Student struct {
	UID        string
	Name       string
	StudentID  string
	DeviceUUID string
	Token      string
}

// StudentFromDoc maps a raw document to a Student. Missing fields map to
// empty values.
func StudentFromDoc(doc store.Document) Student {
	return Student{
		UID:        doc.ID,
		Name:       doc.Str("name"),
		StudentID:  doc.Str("student_id"),
		DeviceUUID: doc.Str("device_uuid"),
		Token:      doc.Str("token"),
	}
}
