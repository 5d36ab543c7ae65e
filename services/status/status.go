// Package status computes the status shown for a document by merging the
// documents collection with documents_to_be_verified and translated_documents.
//
// Side-table rows are linked to their document by id when the link exists and
// otherwise by owner plus filename. Every dashboard goes through this package so
// customers, staff and finance see the same answer for the same document.
package status

import (
	"strings"
	"time"

	"tradocs/models"
)

// DisplayStatus is the status a dashboard shows for a document.
type DisplayStatus string

const (
	Draft               DisplayStatus = "draft"
	Pending             DisplayStatus = "pending"
	Processing          DisplayStatus = "processing"
	PendingVerification DisplayStatus = "pending_verification"
	Completed           DisplayStatus = "completed"
	Rejected            DisplayStatus = "rejected"
	Cancelled           DisplayStatus = "cancelled"
)

// All lists every display status in dashboard order.
var All = []DisplayStatus{Draft, Pending, Processing, PendingVerification, Completed, Rejected, Cancelled}

// IsValid reports whether s names a display status.
func IsValid(s string) bool {
	for _, v := range All {
		if string(v) == s {
			return true
		}
	}
	return false
}

// MatchKind records how the deciding side-table row was linked.
type MatchKind string

const (
	MatchNone         MatchKind = "none"
	MatchID           MatchKind = "id"
	MatchUserFilename MatchKind = "user_filename"
)

// Reconciled is a document together with its computed display status.
type Reconciled struct {
	Document          models.Document            `json:"document"`
	Status            DisplayStatus              `json:"status"`
	TranslatedFileKey string                     `json:"-"`
	HasTranslation    bool                       `json:"hasTranslation"`
	Verification      *models.Verification       `json:"verification,omitempty"`
	Translation       *models.TranslatedDocument `json:"translation,omitempty"`
	MatchedBy         MatchKind                  `json:"matchedBy"`
}

// NormalizeFilename is the comparison form of a filename for fallback matching.
func NormalizeFilename(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Key is the fallback lookup key for a row owned by userID.
func Key(userID, filename string) string {
	return userID + "|" + NormalizeFilename(filename)
}

// Index holds side-table rows keyed for lookup.
type Index struct {
	verifByDoc map[string]*models.Verification
	verifByKey map[string]*models.Verification
	transByDoc map[string]*models.TranslatedDocument
	transByKey map[string]*models.TranslatedDocument
}

// NewIndex builds lookup maps. When several rows share a key the most recent one is kept.
// Only rows without a document id are fallback candidates, so a row linked to
// another document never hides an older unlinked one.
func NewIndex(verifications []models.Verification, translations []models.TranslatedDocument) *Index {
	idx := &Index{
		verifByDoc: make(map[string]*models.Verification),
		verifByKey: make(map[string]*models.Verification),
		transByDoc: make(map[string]*models.TranslatedDocument),
		transByKey: make(map[string]*models.TranslatedDocument),
	}
	for i := range verifications {
		v := &verifications[i]
		if v.DocumentID != "" {
			keepVerification(idx.verifByDoc, v.DocumentID, v)
			continue
		}
		keepVerification(idx.verifByKey, Key(v.UserID, v.Filename), v)
	}
	for i := range translations {
		t := &translations[i]
		if t.OriginalDocumentID != "" {
			keepTranslation(idx.transByDoc, t.OriginalDocumentID, t)
			continue
		}
		keepTranslation(idx.transByKey, Key(t.UserID, t.Filename), t)
	}
	return idx
}

func keepVerification(m map[string]*models.Verification, key string, v *models.Verification) {
	if cur, ok := m[key]; ok && !newer(v.LastActivity(), v.ID, cur.LastActivity(), cur.ID) {
		return
	}
	m[key] = v
}

func keepTranslation(m map[string]*models.TranslatedDocument, key string, t *models.TranslatedDocument) {
	if cur, ok := m[key]; ok && !newer(t.CreatedAt, t.ID, cur.CreatedAt, cur.ID) {
		return
	}
	m[key] = t
}

// newer breaks timestamp ties on id so the result does not depend on input order.
func newer(a time.Time, aID string, b time.Time, bID string) bool {
	if a.Equal(b) {
		return aID > bID
	}
	return a.After(b)
}

func (idx *Index) verification(doc models.Document) (*models.Verification, MatchKind) {
	if v, ok := idx.verifByDoc[doc.ID]; ok {
		return v, MatchID
	}
	if v, ok := idx.verifByKey[Key(doc.UserID, doc.Filename)]; ok {
		return v, MatchUserFilename
	}
	return nil, MatchNone
}

func (idx *Index) translation(doc models.Document) (*models.TranslatedDocument, MatchKind) {
	if t, ok := idx.transByDoc[doc.ID]; ok {
		return t, MatchID
	}
	if t, ok := idx.transByKey[Key(doc.UserID, doc.Filename)]; ok {
		return t, MatchUserFilename
	}
	return nil, MatchNone
}

// Reconcile applies the status rule to one document. The first matching rule wins:
//  1. cancelled documents stay cancelled
//  2. a translation row means completed
//  3. a verification row maps approved, rejected and pending
//  4. an unpaid draft or pending document is a draft
//  5. otherwise the document's own status
func (idx *Index) Reconcile(doc models.Document) Reconciled {
	out := Reconciled{Document: doc, MatchedBy: MatchNone}

	if doc.Status == models.DocumentStatusCancelled {
		out.Status = Cancelled
		return out
	}

	if t, how := idx.translation(doc); t != nil {
		out.Status = Completed
		out.Translation = t
		out.TranslatedFileKey = t.TranslatedFileKey
		out.HasTranslation = t.TranslatedFileKey != ""
		out.MatchedBy = how
		return out
	}

	if v, how := idx.verification(doc); v != nil {
		out.Verification = v
		out.MatchedBy = how
		switch v.Status {
		case models.VerificationApproved:
			out.Status = Completed
			out.TranslatedFileKey = v.TranslatedFileKey
			out.HasTranslation = v.TranslatedFileKey != ""
		case models.VerificationRejected:
			out.Status = Rejected
		default:
			out.Status = PendingVerification
		}
		return out
	}

	if doc.IsDraft() {
		out.Status = Draft
		return out
	}

	switch doc.Status {
	case models.DocumentStatusPending:
		out.Status = Pending
	case models.DocumentStatusProcessing:
		out.Status = Processing
	case models.DocumentStatusCompleted:
		out.Status = Completed
	default:
		out.Status = DisplayStatus(doc.Status)
	}
	return out
}

// ReconcileAll reconciles docs against the given side tables, preserving order.
func ReconcileAll(docs []models.Document, verifications []models.Verification, translations []models.TranslatedDocument) []Reconciled {
	idx := NewIndex(verifications, translations)
	out := make([]Reconciled, 0, len(docs))
	for _, d := range docs {
		out = append(out, idx.Reconcile(d))
	}
	return out
}

// Counts are per-status totals for dashboard cards.
type Counts struct {
	Total               int `json:"total"`
	Draft               int `json:"draft"`
	Pending             int `json:"pending"`
	Processing          int `json:"processing"`
	PendingVerification int `json:"pendingVerification"`
	Completed           int `json:"completed"`
	Rejected            int `json:"rejected"`
	Cancelled           int `json:"cancelled"`
}

// Add counts one document in status s.
func (c *Counts) Add(s DisplayStatus) {
	c.Total++
	switch s {
	case Draft:
		c.Draft++
	case Pending:
		c.Pending++
	case Processing:
		c.Processing++
	case PendingVerification:
		c.PendingVerification++
	case Completed:
		c.Completed++
	case Rejected:
		c.Rejected++
	case Cancelled:
		c.Cancelled++
	}
}

// InProgress is everything paid for and not yet finished.
func (c Counts) InProgress() int {
	return c.Pending + c.Processing + c.PendingVerification
}

func Summarize(rows []Reconciled) Counts {
	var c Counts
	for _, r := range rows {
		c.Add(r.Status)
	}
	return c
}

// Filter keeps the rows whose display status is one of statuses. No statuses keeps everything.
func Filter(rows []Reconciled, statuses ...DisplayStatus) []Reconciled {
	if len(statuses) == 0 {
		return rows
	}
	out := make([]Reconciled, 0, len(rows))
	for _, r := range rows {
		for _, s := range statuses {
			if r.Status == s {
				out = append(out, r)
				break
			}
		}
	}
	return out
}
