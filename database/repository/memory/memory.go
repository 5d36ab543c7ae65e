// Package memory holds map-backed repository implementations for tests.
// Only _test.go files import it, so it is not linked into the server.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"tradocs/database/repository"
	documentRepo "tradocs/database/repository/document"
	folderRepo "tradocs/database/repository/folder"
	notificationRepo "tradocs/database/repository/notification"
	paymentRepo "tradocs/database/repository/payment"
	profileRepo "tradocs/database/repository/profile"
	translatedRepo "tradocs/database/repository/translated"
	verificationRepo "tradocs/database/repository/verification"
	withdrawalRepo "tradocs/database/repository/withdrawal"
	"tradocs/models"
)

// Profiles implements profileRepo.ProfileRepository.
type Profiles struct {
	mu   sync.RWMutex
	rows map[string]models.Profile
}

var _ profileRepo.ProfileRepository = (*Profiles)(nil)

func NewProfiles(seed ...models.Profile) *Profiles {
	r := &Profiles{rows: map[string]models.Profile{}}
	for _, p := range seed {
		r.rows[p.ID] = p
	}
	return r
}

func (r *Profiles) Create(_ context.Context, p *models.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.rows {
		if strings.EqualFold(existing.Email, p.Email) || existing.ID == p.ID {
			return repository.ErrDuplicate
		}
	}
	r.rows[p.ID] = *p
	return nil
}

func (r *Profiles) GetByID(_ context.Context, id string) (*models.Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (r *Profiles) GetByEmail(_ context.Context, email string) (*models.Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.rows {
		if strings.EqualFold(p.Email, email) {
			return &p, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *Profiles) GetByAffiliateCode(_ context.Context, code string) (*models.Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.rows {
		if code != "" && p.AffiliateCode == code {
			return &p, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *Profiles) Update(_ context.Context, p *models.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[p.ID]; !ok {
		return repository.ErrNotFound
	}
	for id, existing := range r.rows {
		if id != p.ID && p.AffiliateCode != "" && existing.AffiliateCode == p.AffiliateCode {
			return repository.ErrDuplicate
		}
	}
	r.rows[p.ID] = *p
	return nil
}

func (r *Profiles) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.rows, id)
	return nil
}

func (r *Profiles) List(_ context.Context, role string) ([]models.Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []models.Profile{}
	for _, p := range r.rows {
		if role == "" || p.Role == role {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *Profiles) CountReferrals(_ context.Context, code string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, p := range r.rows {
		if code != "" && p.ReferredBy == code {
			n++
		}
	}
	return n, nil
}

func (r *Profiles) CountByRole(_ context.Context) (map[string]int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := map[string]int64{}
	for _, p := range r.rows {
		out[p.Role]++
	}
	return out, nil
}

// Documents implements documentRepo.DocumentRepository.
type Documents struct {
	mu   sync.RWMutex
	rows map[string]models.Document
}

var _ documentRepo.DocumentRepository = (*Documents)(nil)

func NewDocuments(seed ...models.Document) *Documents {
	r := &Documents{rows: map[string]models.Document{}}
	for _, d := range seed {
		r.rows[d.ID] = d
	}
	return r
}

func (r *Documents) Create(_ context.Context, d *models.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[d.ID]; ok {
		return repository.ErrDuplicate
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now()
	}
	d.UpdatedAt = d.CreatedAt
	r.rows[d.ID] = *d
	return nil
}

func (r *Documents) GetByID(_ context.Context, id string) (*models.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &d, nil
}

func (r *Documents) Update(_ context.Context, d *models.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[d.ID]; !ok {
		return repository.ErrNotFound
	}
	d.UpdatedAt = time.Now()
	r.rows[d.ID] = *d
	return nil
}

func (r *Documents) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.rows, id)
	return nil
}

func (r *Documents) List(_ context.Context, f documentRepo.DocumentFilter) ([]models.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []models.Document{}
	for _, d := range r.rows {
		if f.Matches(d) {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if f.Limit > 0 && int64(len(out)) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r *Documents) ListStaleDrafts(_ context.Context, cutoff time.Time) ([]models.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []models.Document{}
	for _, d := range r.rows {
		if d.IsDraft() && d.CreatedAt.Before(cutoff) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (r *Documents) MoveFolderToRoot(_ context.Context, userID, folderID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, d := range r.rows {
		if d.UserID == userID && d.FolderID == folderID {
			d.FolderID = ""
			r.rows[id] = d
			n++
		}
	}
	return n, nil
}

// Verifications implements verificationRepo.VerificationRepository.
type Verifications struct {
	mu   sync.RWMutex
	rows map[string]models.Verification
}

var _ verificationRepo.VerificationRepository = (*Verifications)(nil)

func NewVerifications(seed ...models.Verification) *Verifications {
	r := &Verifications{rows: map[string]models.Verification{}}
	for _, v := range seed {
		r.rows[v.ID] = v
	}
	return r
}

func (r *Verifications) Create(_ context.Context, v *models.Verification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[v.ID]; ok {
		return repository.ErrDuplicate
	}
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now()
	}
	r.rows[v.ID] = *v
	return nil
}

func (r *Verifications) GetByID(_ context.Context, id string) (*models.Verification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &v, nil
}

func (r *Verifications) Update(_ context.Context, v *models.Verification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[v.ID]; !ok {
		return repository.ErrNotFound
	}
	r.rows[v.ID] = *v
	return nil
}

func (r *Verifications) List(_ context.Context, f verificationRepo.VerificationFilter) ([]models.Verification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []models.Verification{}
	for _, v := range r.rows {
		if f.Matches(v) {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *Verifications) DeleteByDocumentID(_ context.Context, documentID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, v := range r.rows {
		if documentID != "" && v.DocumentID == documentID {
			delete(r.rows, id)
			n++
		}
	}
	return n, nil
}

// Translations implements translatedRepo.TranslatedRepository.
type Translations struct {
	mu   sync.RWMutex
	rows map[string]models.TranslatedDocument
}

var _ translatedRepo.TranslatedRepository = (*Translations)(nil)

func NewTranslations(seed ...models.TranslatedDocument) *Translations {
	r := &Translations{rows: map[string]models.TranslatedDocument{}}
	for _, t := range seed {
		r.rows[t.ID] = t
	}
	return r
}

func (r *Translations) Create(_ context.Context, t *models.TranslatedDocument) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[t.ID]; ok {
		return repository.ErrDuplicate
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	r.rows[t.ID] = *t
	return nil
}

func (r *Translations) GetByID(_ context.Context, id string) (*models.TranslatedDocument, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &t, nil
}

func (r *Translations) ListByUser(_ context.Context, userID string) ([]models.TranslatedDocument, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []models.TranslatedDocument{}
	for _, t := range r.rows {
		if userID == "" || t.UserID == userID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *Translations) DeleteByDocumentID(_ context.Context, documentID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, t := range r.rows {
		if documentID != "" && t.OriginalDocumentID == documentID {
			delete(r.rows, id)
			n++
		}
	}
	return n, nil
}

// Payments implements paymentRepo.PaymentRepository.
type Payments struct {
	mu   sync.RWMutex
	rows map[string]models.Payment
}

var _ paymentRepo.PaymentRepository = (*Payments)(nil)

func NewPayments(seed ...models.Payment) *Payments {
	r := &Payments{rows: map[string]models.Payment{}}
	for _, p := range seed {
		r.rows[p.ID] = p
	}
	return r
}

func (r *Payments) Create(_ context.Context, p *models.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.rows {
		if existing.ID == p.ID || (p.StripeSessionID != "" && existing.StripeSessionID == p.StripeSessionID) {
			return repository.ErrDuplicate
		}
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	r.rows[p.ID] = *p
	return nil
}

func (r *Payments) find(match func(models.Payment) bool) (*models.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.rows {
		if match(p) {
			return &p, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *Payments) GetByID(_ context.Context, id string) (*models.Payment, error) {
	return r.find(func(p models.Payment) bool { return p.ID == id })
}

func (r *Payments) GetBySessionID(_ context.Context, sessionID string) (*models.Payment, error) {
	return r.find(func(p models.Payment) bool { return sessionID != "" && p.StripeSessionID == sessionID })
}

func (r *Payments) GetByPaymentIntentID(_ context.Context, intentID string) (*models.Payment, error) {
	return r.find(func(p models.Payment) bool { return intentID != "" && p.StripePaymentIntentID == intentID })
}

func (r *Payments) Update(_ context.Context, p *models.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[p.ID]; !ok {
		return repository.ErrNotFound
	}
	r.rows[p.ID] = *p
	return nil
}

func (r *Payments) List(_ context.Context, f paymentRepo.PaymentFilter) ([]models.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []models.Payment{}
	for _, p := range r.rows {
		if f.Matches(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *Payments) ListStalePending(_ context.Context, cutoff time.Time) ([]models.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []models.Payment{}
	for _, p := range r.rows {
		if p.Status == models.PaymentPending && p.CreatedAt.Before(cutoff) {
			out = append(out, p)
		}
	}
	return out, nil
}

// Notifications implements notificationRepo.NotificationRepository.
type Notifications struct {
	mu   sync.RWMutex
	rows map[string]models.Notification
}

var _ notificationRepo.NotificationRepository = (*Notifications)(nil)

func NewNotifications(seed ...models.Notification) *Notifications {
	r := &Notifications{rows: map[string]models.Notification{}}
	for _, n := range seed {
		r.rows[n.ID] = n
	}
	return r
}

func (r *Notifications) Create(_ context.Context, n *models.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	r.rows[n.ID] = *n
	return nil
}

func (r *Notifications) List(_ context.Context, userID string, unreadOnly bool, limit int64) ([]models.Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []models.Notification{}
	for _, n := range r.rows {
		if n.UserID == userID && (!unreadOnly || !n.Read) {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *Notifications) MarkRead(_ context.Context, userID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.rows[id]
	if !ok || n.UserID != userID {
		return repository.ErrNotFound
	}
	now := time.Now()
	n.Read, n.ReadAt = true, &now
	r.rows[id] = n
	return nil
}

func (r *Notifications) MarkAllRead(_ context.Context, userID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	var count int64
	for id, n := range r.rows {
		if n.UserID == userID && !n.Read {
			n.Read, n.ReadAt = true, &now
			r.rows[id] = n
			count++
		}
	}
	return count, nil
}

func (r *Notifications) CountUnread(_ context.Context, userID string) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var count int64
	for _, n := range r.rows {
		if n.UserID == userID && !n.Read {
			count++
		}
	}
	return count, nil
}

func (r *Notifications) Delete(_ context.Context, userID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.rows[id]
	if !ok || n.UserID != userID {
		return repository.ErrNotFound
	}
	delete(r.rows, id)
	return nil
}

func (r *Notifications) DeleteReadBefore(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for id, n := range r.rows {
		if n.Read && n.CreatedAt.Before(cutoff) {
			delete(r.rows, id)
			count++
		}
	}
	return count, nil
}

// Withdrawals implements withdrawalRepo.WithdrawalRepository.
type Withdrawals struct {
	mu   sync.RWMutex
	rows map[string]models.WithdrawalRequest
}

var _ withdrawalRepo.WithdrawalRepository = (*Withdrawals)(nil)

func NewWithdrawals(seed ...models.WithdrawalRequest) *Withdrawals {
	r := &Withdrawals{rows: map[string]models.WithdrawalRequest{}}
	for _, w := range seed {
		r.rows[w.ID] = w
	}
	return r
}

func (r *Withdrawals) Create(_ context.Context, w *models.WithdrawalRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[w.ID]; ok {
		return repository.ErrDuplicate
	}
	if w.RequestedAt.IsZero() {
		w.RequestedAt = time.Now()
	}
	r.rows[w.ID] = *w
	return nil
}

func (r *Withdrawals) GetByID(_ context.Context, id string) (*models.WithdrawalRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &w, nil
}

func (r *Withdrawals) Update(_ context.Context, w *models.WithdrawalRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[w.ID]; !ok {
		return repository.ErrNotFound
	}
	r.rows[w.ID] = *w
	return nil
}

func (r *Withdrawals) List(_ context.Context, f withdrawalRepo.WithdrawalFilter) ([]models.WithdrawalRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []models.WithdrawalRequest{}
	for _, w := range r.rows {
		if f.Matches(w) {
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RequestedAt.After(out[j].RequestedAt) })
	return out, nil
}

// Folders implements folderRepo.FolderRepository.
type Folders struct {
	mu   sync.RWMutex
	rows map[string]models.Folder
}

var _ folderRepo.FolderRepository = (*Folders)(nil)

func NewFolders(seed ...models.Folder) *Folders {
	r := &Folders{rows: map[string]models.Folder{}}
	for _, f := range seed {
		r.rows[f.ID] = f
	}
	return r
}

func (r *Folders) Create(_ context.Context, f *models.Folder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.rows {
		if existing.ID == f.ID || (existing.UserID == f.UserID && existing.ParentID == f.ParentID && existing.Name == f.Name) {
			return repository.ErrDuplicate
		}
	}
	now := time.Now()
	f.CreatedAt, f.UpdatedAt = now, now
	r.rows[f.ID] = *f
	return nil
}

func (r *Folders) GetByID(_ context.Context, id string) (*models.Folder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &f, nil
}

func (r *Folders) Update(_ context.Context, f *models.Folder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[f.ID]; !ok {
		return repository.ErrNotFound
	}
	for id, existing := range r.rows {
		if id != f.ID && existing.UserID == f.UserID && existing.ParentID == f.ParentID && existing.Name == f.Name {
			return repository.ErrDuplicate
		}
	}
	f.UpdatedAt = time.Now()
	r.rows[f.ID] = *f
	return nil
}

func (r *Folders) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.rows, id)
	return nil
}

func (r *Folders) ListByUser(_ context.Context, userID string) ([]models.Folder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []models.Folder{}
	for _, f := range r.rows {
		if f.UserID == userID {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
