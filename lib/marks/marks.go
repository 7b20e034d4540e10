package marks

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"slices"
	"strings"
)

// MarkRecord is one graded attempt at a subject, exactly as scraped
// off the portal. Mark may be a number rendered as text or a status
// token like "منقول", so it stays a string. Date is an ISO-like
// string and sorts correctly under plain string comparison.
//
// Records carry no server-side identity, two records with equal
// fields are the same mark.
type MarkRecord struct {
	Subject  string `json:"subject"`
	Session  string `json:"session"`
	Mark     string `json:"mark"`
	Status   string `json:"status"`
	Date     string `json:"date"`
	Semester string `json:"semester"`
}

// StudentInfo is the info card next to the result tables. Every field
// is optional, the card is missing entirely for some colleges.
type StudentInfo struct {
	Name        string `json:"name,omitempty"`
	FatherName  string `json:"father_name,omitempty"`
	CollegeName string `json:"college_name,omitempty"`
}

// CanonicalKey returns a deterministic serialization of the record.
// Marshalling a string map makes encoding/json emit the keys in
// sorted order, so two field-equal records always produce the same
// key no matter how they were built.
func CanonicalKey(m MarkRecord) string {
	serialized, err := json.Marshal(map[string]string{
		"subject":  m.Subject,
		"session":  m.Session,
		"mark":     m.Mark,
		"status":   m.Status,
		"date":     m.Date,
		"semester": m.Semester,
	})
	if err != nil {
		// a map of strings cannot fail to marshal
		panic(err)
	}
	return string(serialized)
}

// SortCanonical orders marks by (date, subject) ascending in place.
// This is the storage order every snapshot must be in before diffing
// or hashing, it is distinct from the newest-first display order.
func SortCanonical(records []MarkRecord) {
	slices.SortStableFunc(records, func(a, b MarkRecord) int {
		if c := strings.Compare(a.Date, b.Date); c != 0 {
			return c
		}
		return strings.Compare(a.Subject, b.Subject)
	})
}

// FindNewMarks returns the records of `fetched` that do not occur
// anywhere in `old` under full-field equality, preserving the order
// of `fetched`.
//
// There is no stable upstream mark id, so a corrected mark on an
// existing subject is indistinguishable from a brand new one and is
// reported as new. That is intended.
func FindNewMarks(old []MarkRecord, fetched []MarkRecord) []MarkRecord {
	oldKeys := make(map[string]struct{}, len(old))
	for _, m := range old {
		oldKeys[CanonicalKey(m)] = struct{}{}
	}

	var out []MarkRecord
	for _, m := range fetched {
		if _, ok := oldKeys[CanonicalKey(m)]; !ok {
			out = append(out, m)
		}
	}
	return out
}

// Hash fingerprints a mark list. Callers are expected to pass the
// list in canonical order, equal snapshots then hash identically.
func Hash(records []MarkRecord) string {
	h := sha256.New()
	for _, m := range records {
		h.Write([]byte(CanonicalKey(m)))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}
