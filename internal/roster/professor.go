package roster

import "tagcheck/internal/store"

// Professor identifies an instructor. UID is the store-assigned id that
// partitions the professor-facing history collection; ID is the business key
// subjects reference.
type Professor struct {
	UID  string
	ID   string
	Name string
}

// ProfessorFromDoc maps a raw document to a Professor.
func ProfessorFromDoc(doc store.Document) Professor {
	return Professor{
		UID:  doc.ID,
		ID:   doc.Str("id"),
		Name: doc.Str("name"),
	}
}
