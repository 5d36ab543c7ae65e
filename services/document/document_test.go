package document

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"tradocs/database/repository/memory"
	"tradocs/models"
	"tradocs/services/daterange"
	"tradocs/services/notification"
	"tradocs/services/status"
	"tradocs/services/storage"

	"github.com/shopspring/decimal"
)

type fixture struct {
	svc           *DefaultDocumentService
	docs          *memory.Documents
	verifications *memory.Verifications
	translations  *memory.Translations
	folders       *memory.Folders
	store         *storage.MemoryStorage
	notes         *memory.Notifications
}

func newFixture(t *testing.T, profiles ...models.Profile) *fixture {
	t.Helper()
	f := &fixture{
		docs:          memory.NewDocuments(),
		verifications: memory.NewVerifications(),
		translations:  memory.NewTranslations(),
		folders:       memory.NewFolders(),
		store:         storage.NewMemoryStorage(),
		notes:         memory.NewNotifications(),
	}
	notifier, err := notification.NewDefaultNotificationService(f.notes, memory.NewProfiles(profiles...), nil, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	f.svc = &DefaultDocumentService{
		Docs:          f.docs,
		Verifications: f.verifications,
		Translations:  f.translations,
		Folders:       f.folders,
		Storage:       f.store,
		Notifier:      notifier,
		Pricing:       NewPricing(2500, "usd"),
	}
	return f
}

func meta(name, kind string, pages int) UploadMeta {
	return UploadMeta{Filename: name, ContentType: "application/pdf", Pages: pages, SourceLanguage: "es", TargetLanguage: "en", TranslationType: kind}
}

func (f *fixture) upload(t *testing.T, user, name, kind string) *models.Document {
	t.Helper()
	doc, err := f.svc.Upload(context.Background(), user, strings.NewReader("pdf"), meta(name, kind, 2))
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	return doc
}

func TestPricing(t *testing.T) {
	p := NewPricing(2500, "usd")
	if got := p.Cost(3, models.TranslationStandard); !got.Equal(decimal.RequireFromString("75")) {
		t.Fatalf("standard cost = %s", got)
	}
	if got := p.Cost(3, models.TranslationCertified); !got.Equal(decimal.RequireFromString("112.5")) {
		t.Fatalf("certified cost = %s", got)
	}
}

func TestUploadCreatesPricedDraft(t *testing.T) {
	f := newFixture(t)
	doc := f.upload(t, "u1", " contract.pdf ", models.TranslationCertified)

	if doc.Status != models.DocumentStatusDraft || doc.Filename != "contract.pdf" {
		t.Fatalf("unexpected document %+v", doc)
	}
	if !doc.TotalCost.Equal(decimal.NewFromInt(75)) {
		t.Fatalf("cost = %s, want 75", doc.TotalCost)
	}
	if !f.store.Has(doc.StorageKey) {
		t.Fatal("file not stored")
	}
	if n, _ := f.notes.CountUnread(context.Background(), "u1"); n != 1 {
		t.Fatalf("expected upload notification, got %d", n)
	}
}

func TestUploadValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cases := map[string]UploadMeta{
		"no file":        meta("", models.TranslationStandard, 1),
		"zero pages":     meta("a.pdf", models.TranslationStandard, 0),
		"same languages": {Filename: "a.pdf", Pages: 1, SourceLanguage: "en", TargetLanguage: "EN", TranslationType: models.TranslationStandard},
		"bad type":       meta("a.pdf", "express", 1),
	}
	for name, m := range cases {
		t.Run(name, func(t *testing.T) {
			var ve *ValidationError
			if _, err := f.svc.Upload(ctx, "u1", strings.NewReader("x"), m); !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
		})
	}
	m := meta("a.pdf", models.TranslationStandard, 1)
	m.FolderID = "missing"
	if _, err := f.svc.Upload(ctx, "u1", strings.NewReader("x"), m); !errors.Is(err, ErrFolderNotFound) {
		t.Fatalf("expected ErrFolderNotFound, got %v", err)
	}
}

func TestListReconcilesAndScopes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mine := f.upload(t, "u1", "a.pdf", models.TranslationStandard)
	paid := f.upload(t, "u1", "b.pdf", models.TranslationCertified)
	f.upload(t, "u2", "c.pdf", models.TranslationStandard)

	if err := f.svc.MarkPaid(ctx, []string{paid.ID}, "pay-1"); err != nil {
		t.Fatal(err)
	}
	// legacy verification row without a document id
	_ = f.verifications.Create(ctx, &models.Verification{ID: "v1", UserID: "u1", Filename: "B.PDF", Status: models.VerificationPending})

	rows, err := f.svc.List(ctx, Actor{UserID: "u1", Role: models.RoleCustomer}, ListQuery{UserID: "u2"})
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("customer should only see own documents, got %d", len(rows))
	}
	got := map[string]status.DisplayStatus{}
	for _, r := range rows {
		got[r.Document.ID] = r.Status
	}
	if got[mine.ID] != status.Draft || got[paid.ID] != status.PendingVerification {
		t.Fatalf("unexpected statuses %v", got)
	}

	drafts, _ := f.svc.List(ctx, Actor{UserID: "u1"}, ListQuery{Statuses: []status.DisplayStatus{status.Draft}})
	if len(drafts) != 1 {
		t.Fatalf("status filter returned %d rows", len(drafts))
	}

	all, _ := f.svc.List(ctx, Actor{UserID: "admin", Role: models.RoleAdmin}, ListQuery{})
	if len(all) != 3 {
		t.Fatalf("staff should see every document, got %d", len(all))
	}

	future, _ := daterange.Parse(daterange.Custom, "2999-01-01", "2999-01-02", time.Now(), time.UTC)
	none, _ := f.svc.List(ctx, Actor{UserID: "u1"}, ListQuery{Range: future})
	if len(none) != 0 {
		t.Fatalf("date filter returned %d rows", len(none))
	}

	found, _ := f.svc.List(ctx, Actor{UserID: "u1"}, ListQuery{Search: "A.P"})
	if len(found) != 1 || found[0].Document.ID != mine.ID {
		t.Fatalf("search returned %+v", found)
	}
}

func TestGetAndDeleteRespectOwnership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	doc := f.upload(t, "u1", "a.pdf", models.TranslationStandard)

	if _, err := f.svc.Get(ctx, Actor{UserID: "u2", Role: models.RoleCustomer}, doc.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("other customers must not see the document, got %v", err)
	}
	if _, err := f.svc.Get(ctx, Actor{UserID: "fin", Role: models.RoleFinance}, doc.ID); err != nil {
		t.Fatalf("staff should see the document: %v", err)
	}
	if err := f.svc.Delete(ctx, Actor{UserID: "u2"}, doc.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := f.svc.Delete(ctx, Actor{UserID: "u1"}, doc.ID); err != nil {
		t.Fatal(err)
	}
	if f.store.Has(doc.StorageKey) {
		t.Fatal("stored file should be removed with the draft")
	}

	paid := f.upload(t, "u1", "b.pdf", models.TranslationStandard)
	_ = f.svc.MarkPaid(ctx, []string{paid.ID}, "pay-1")
	if err := f.svc.Delete(ctx, Actor{UserID: "u1"}, paid.ID); !errors.Is(err, ErrNotDraft) {
		t.Fatalf("paid documents cannot be deleted, got %v", err)
	}
}

func TestMarkPaidIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	doc := f.upload(t, "u1", "a.pdf", models.TranslationStandard)

	for i := 0; i < 2; i++ {
		if err := f.svc.MarkPaid(ctx, []string{doc.ID}, "pay-1"); err != nil {
			t.Fatal(err)
		}
	}
	got, _ := f.docs.GetByID(ctx, doc.ID)
	if got.Status != models.DocumentStatusPending || got.PaymentID != "pay-1" {
		t.Fatalf("unexpected document %+v", got)
	}

	_ = f.svc.MarkPaid(ctx, []string{doc.ID}, "pay-2")
	got, _ = f.docs.GetByID(ctx, doc.ID)
	if got.PaymentID != "pay-1" {
		t.Fatal("a second payment must not take over a paid document")
	}

	if err := f.svc.CancelForPayment(ctx, []string{doc.ID}, "pay-1"); err != nil {
		t.Fatal(err)
	}
	got, _ = f.docs.GetByID(ctx, doc.ID)
	if got.Status != models.DocumentStatusCancelled {
		t.Fatalf("refund should cancel the document, got %s", got.Status)
	}
}

func TestUpdateStatusTransitions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	doc := f.upload(t, "u1", "a.pdf", models.TranslationStandard)

	if _, err := f.svc.UpdateStatus(ctx, "admin", doc.ID, models.DocumentStatusProcessing); !errors.Is(err, ErrNotPaid) {
		t.Fatalf("drafts cannot be processed, got %v", err)
	}
	_ = f.svc.MarkPaid(ctx, []string{doc.ID}, "pay-1")

	if _, err := f.svc.UpdateStatus(ctx, "admin", doc.ID, models.DocumentStatusCompleted); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("pending cannot jump to completed, got %v", err)
	}
	steps := []string{models.DocumentStatusProcessing, models.DocumentStatusCompleted}
	for _, st := range steps {
		if _, err := f.svc.UpdateStatus(ctx, "admin", doc.ID, st); err != nil {
			t.Fatalf("transition to %s failed: %v", st, err)
		}
	}
	if _, err := f.svc.UpdateStatus(ctx, "admin", doc.ID, models.DocumentStatusCancelled); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("completed documents cannot be cancelled, got %v", err)
	}
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to string
		want     bool
	}{
		{models.DocumentStatusPending, models.DocumentStatusProcessing, true},
		{models.DocumentStatusProcessing, models.DocumentStatusCompleted, true},
		{models.DocumentStatusDraft, models.DocumentStatusCancelled, true},
		{models.DocumentStatusProcessing, models.DocumentStatusCancelled, true},
		{models.DocumentStatusCompleted, models.DocumentStatusCancelled, false},
		{models.DocumentStatusCancelled, models.DocumentStatusCancelled, false},
		{models.DocumentStatusProcessing, models.DocumentStatusPending, false},
		{models.DocumentStatusDraft, models.DocumentStatusProcessing, false},
	}
	for _, tc := range tests {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestSubmitStandardTranslationDeliversDirectly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	doc := f.upload(t, "u1", "a.pdf", models.TranslationStandard)
	_ = f.svc.MarkPaid(ctx, []string{doc.ID}, "pay-1")

	r, err := f.svc.SubmitTranslation(ctx, "admin", doc.ID, strings.NewReader("translated"), "a-en.pdf")
	if err != nil {
		t.Fatal(err)
	}
	if r.Status != status.Completed || !r.HasTranslation {
		t.Fatalf("unexpected result %+v", r)
	}
	url, err := f.svc.DownloadURL(ctx, Actor{UserID: "u1"}, doc.ID, true)
	if err != nil || !strings.HasPrefix(url, "memory://translations/u1/") {
		t.Fatalf("translated download url = %q err=%v", url, err)
	}
}

func TestSubmitCertifiedTranslationQueuesVerification(t *testing.T) {
	f := newFixture(t, models.Profile{ID: "auth1", Role: models.RoleAuthenticator})
	ctx := context.Background()
	doc := f.upload(t, "u1", "a.pdf", models.TranslationCertified)

	if _, err := f.svc.SubmitTranslation(ctx, "admin", doc.ID, strings.NewReader("x"), "a-en.pdf"); !errors.Is(err, ErrNotPaid) {
		t.Fatalf("expected ErrNotPaid, got %v", err)
	}
	_ = f.svc.MarkPaid(ctx, []string{doc.ID}, "pay-1")

	r, err := f.svc.SubmitTranslation(ctx, "admin", doc.ID, strings.NewReader("x"), "a-en.pdf")
	if err != nil {
		t.Fatal(err)
	}
	if r.Status != status.PendingVerification || r.Verification == nil {
		t.Fatalf("unexpected result %+v", r)
	}
	if n, _ := f.notes.CountUnread(ctx, "auth1"); n != 1 {
		t.Fatalf("authenticators should be notified, got %d", n)
	}
	if _, err := f.svc.SubmitTranslation(ctx, "admin", doc.ID, strings.NewReader("x"), "a-en.pdf"); !errors.Is(err, ErrVerificationPending) {
		t.Fatalf("expected ErrVerificationPending, got %v", err)
	}

	if _, err := f.svc.DownloadURL(ctx, Actor{UserID: "u1"}, doc.ID, true); !errors.Is(err, ErrNoTranslation) {
		t.Fatalf("customers cannot fetch an unverified translation, got %v", err)
	}
	if _, err := f.svc.DownloadURL(ctx, Actor{UserID: "auth1", Role: models.RoleAuthenticator}, doc.ID, true); err != nil {
		t.Fatalf("staff should fetch the file under review: %v", err)
	}
}

func TestCompleteFromVerificationFallsBackToFilename(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	doc := f.upload(t, "u1", "Report.pdf", models.TranslationCertified)
	_ = f.svc.MarkPaid(ctx, []string{doc.ID}, "pay-1")

	got, err := f.svc.CompleteFromVerification(ctx, models.Verification{UserID: "u1", Filename: " report.PDF"})
	if err != nil || got == nil {
		t.Fatalf("expected resolution by filename, got %v err=%v", got, err)
	}
	if got.Status != models.DocumentStatusCompleted {
		t.Fatalf("status = %s", got.Status)
	}

	none, err := f.svc.CompleteFromVerification(ctx, models.Verification{UserID: "u1", Filename: "unknown.pdf"})
	if err != nil || none != nil {
		t.Fatalf("unresolvable rows should be ignored, got %v err=%v", none, err)
	}
}

func TestFolders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	parent, err := f.svc.CreateFolder(ctx, "u1", "Legal", "")
	if err != nil {
		t.Fatal(err)
	}
	child, err := f.svc.CreateFolder(ctx, "u1", "Contracts", parent.ID)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.CreateFolder(ctx, "u1", "Legal", ""); !errors.Is(err, ErrFolderExists) {
		t.Fatalf("expected ErrFolderExists, got %v", err)
	}
	if _, err := f.svc.CreateFolder(ctx, "u2", "Mine", parent.ID); !errors.Is(err, ErrFolderNotFound) {
		t.Fatalf("parents must belong to the same user, got %v", err)
	}

	// nesting a folder under its own child is a cycle
	if _, err := f.svc.UpdateFolder(ctx, "u1", parent.ID, FolderUpdate{ParentID: &child.ID}); !errors.Is(err, ErrFolderCycle) {
		t.Fatalf("expected ErrFolderCycle, got %v", err)
	}
	if _, err := f.svc.UpdateFolder(ctx, "u1", parent.ID, FolderUpdate{ParentID: &parent.ID}); !errors.Is(err, ErrFolderCycle) {
		t.Fatalf("expected ErrFolderCycle, got %v", err)
	}
	rename := "Legal 2024"
	if got, err := f.svc.UpdateFolder(ctx, "u1", parent.ID, FolderUpdate{Name: &rename}); err != nil || got.Name != rename {
		t.Fatalf("rename failed: %v", err)
	}

	doc := f.upload(t, "u1", "a.pdf", models.TranslationStandard)
	if _, err := f.svc.MoveDocument(ctx, "u1", doc.ID, parent.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.MoveDocument(ctx, "u2", doc.ID, ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("other users cannot move the document, got %v", err)
	}

	if err := f.svc.DeleteFolder(ctx, "u1", parent.ID); err != nil {
		t.Fatal(err)
	}
	got, _ := f.docs.GetByID(ctx, doc.ID)
	if got.FolderID != "" {
		t.Fatal("documents should move to the root when their folder is deleted")
	}
	c, _ := f.folders.GetByID(ctx, child.ID)
	if c.ParentID != "" {
		t.Fatal("subfolders should move up a level")
	}
	folders, _ := f.svc.ListFolders(ctx, "u1")
	if len(folders) != 1 {
		t.Fatalf("expected one folder left, got %d", len(folders))
	}
}
