// Package memstore is an in-memory implementation of the applicant and
// payment repositories. It honours the same version and status guards as
// the gorm store and is used by service tests and local tooling.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dhavalaMadhav/swaminarayan.foundation/internal/models"
	"github.com/dhavalaMadhav/swaminarayan.foundation/internal/repositories"

	"github.com/shopspring/decimal"
)

type Store struct {
	mu   sync.Mutex
	txMu sync.Mutex

	applicants map[uint]models.Applicant
	payments   map[uint]models.Payment
	// deleted holds soft-deleted applicants. Their application ids stay taken.
	deleted map[uint]models.Applicant

	nextApplicant uint
	nextPayment   uint
	nextNote      uint
}

func New() *Store {
	return &Store{
		applicants: make(map[uint]models.Applicant),
		payments:   make(map[uint]models.Payment),
		deleted:    make(map[uint]models.Applicant),
	}
}

func (s *Store) Applicants() repositories.ApplicantRepository { return applicantRepo{s} }
func (s *Store) Payments() repositories.PaymentRepository     { return paymentRepo{s} }

// Transaction runs fn and restores the previous contents if it fails.
// Transactions are serialized against each other.
func (s *Store) Transaction(ctx context.Context, fn func(repositories.ApplicantRepository, repositories.PaymentRepository) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	snap := s.snapshot()
	if err := fn(s.Applicants(), s.Payments()); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

type snapshot struct {
	applicants map[uint]models.Applicant
	payments   map[uint]models.Payment
	deleted    map[uint]models.Applicant
}

func (s *Store) snapshot() snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := snapshot{
		applicants: make(map[uint]models.Applicant, len(s.applicants)),
		payments:   make(map[uint]models.Payment, len(s.payments)),
		deleted:    make(map[uint]models.Applicant, len(s.deleted)),
	}
	for id, a := range s.applicants {
		snap.applicants[id] = copyApplicant(a)
	}
	for id, p := range s.payments {
		snap.payments[id] = p
	}
	for id, a := range s.deleted {
		snap.deleted[id] = a
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applicants = snap.applicants
	s.payments = snap.payments
	s.deleted = snap.deleted
}

func copyApplicant(a models.Applicant) models.Applicant {
	if a.Notes != nil {
		a.Notes = append([]models.AdminNote(nil), a.Notes...)
	}
	if a.ApplicationID != nil {
		id := *a.ApplicationID
		a.ApplicationID = &id
	}
	return a
}

type applicantRepo struct{ s *Store }

// idTaken reports whether another applicant already holds a's application id.
func (s *Store) idTaken(a *models.Applicant) bool {
	if a.ApplicationID == nil {
		return false
	}
	for _, rows := range []map[uint]models.Applicant{s.applicants, s.deleted} {
		for id, other := range rows {
			if id != a.ID && other.ApplicationID != nil && *other.ApplicationID == *a.ApplicationID {
				return true
			}
		}
	}
	return false
}

func (s *Store) stampNotes(a *models.Applicant, now time.Time) {
	for i := range a.Notes {
		if a.Notes[i].ID != 0 {
			continue
		}
		s.nextNote++
		a.Notes[i].ID = s.nextNote
		a.Notes[i].ApplicantID = a.ID
		if a.Notes[i].CreatedAt.IsZero() {
			a.Notes[i].CreatedAt = now
		}
	}
}

func (r applicantRepo) Create(_ context.Context, a *models.Applicant) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.idTaken(a) {
		return repositories.ErrDuplicateApplicationID
	}
	now := time.Now()
	s.nextApplicant++
	a.ID = s.nextApplicant
	a.Email = models.NormalizeEmail(a.Email)
	a.Version = 1
	a.CreatedAt, a.UpdatedAt = now, now
	s.stampNotes(a, now)
	s.applicants[a.ID] = copyApplicant(*a)
	return nil
}

func (r applicantRepo) Save(ctx context.Context, a *models.Applicant) error {
	if a.ID == 0 {
		return r.Create(ctx, a)
	}
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.applicants[a.ID]
	if !ok {
		return repositories.ErrApplicantNotFound
	}
	if stored.Version != a.Version {
		return repositories.ErrVersionConflict
	}
	if s.idTaken(a) {
		return repositories.ErrDuplicateApplicationID
	}
	now := time.Now()
	a.Version++
	a.CreatedAt = stored.CreatedAt
	a.UpdatedAt = now
	s.stampNotes(a, now)
	s.applicants[a.ID] = copyApplicant(*a)
	return nil
}

func (r applicantRepo) FindByID(_ context.Context, id uint) (*models.Applicant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.applicants[id]
	if !ok {
		return nil, repositories.ErrApplicantNotFound
	}
	out := copyApplicant(a)
	return &out, nil
}

// latest returns the most recently updated applicant matching keep.
func (r applicantRepo) latest(keep func(models.Applicant) bool) (*models.Applicant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var best *models.Applicant
	for _, a := range r.s.applicants {
		if !keep(a) {
			continue
		}
		if best == nil || a.UpdatedAt.After(best.UpdatedAt) || (a.UpdatedAt.Equal(best.UpdatedAt) && a.ID > best.ID) {
			c := copyApplicant(a)
			best = &c
		}
	}
	if best == nil {
		return nil, repositories.ErrApplicantNotFound
	}
	return best, nil
}

func (r applicantRepo) FindByApplicationID(_ context.Context, applicationID string) (*models.Applicant, error) {
	want := strings.ToUpper(strings.TrimSpace(applicationID))
	return r.latest(func(a models.Applicant) bool {
		return a.ApplicationID != nil && *a.ApplicationID == want
	})
}

func (r applicantRepo) LatestDraft(_ context.Context, email string) (*models.Applicant, error) {
	email = models.NormalizeEmail(email)
	return r.latest(func(a models.Applicant) bool { return a.Email == email && a.IsDraft })
}

func (r applicantRepo) LatestSubmitted(_ context.Context, email string) (*models.Applicant, error) {
	email = models.NormalizeEmail(email)
	return r.latest(func(a models.Applicant) bool { return a.Email == email && !a.IsDraft })
}

func (r applicantRepo) FindActive(_ context.Context, email string) (*models.Applicant, error) {
	email = models.NormalizeEmail(email)
	return r.latest(func(a models.Applicant) bool {
		if a.Email != email || a.IsDraft {
			return false
		}
		return a.PaymentStatus.Settled() || a.PaymentStatus == models.PaymentUnderVerification
	})
}

func matches(a models.Applicant, f models.ApplicantFilter) bool {
	if a.IsDraft {
		return false
	}
	if f.Status != "" && a.Status != f.Status {
		return false
	}
	if f.PaymentStatus != "" && a.PaymentStatus != f.PaymentStatus {
		return false
	}
	if f.ProgramType != "" && a.ProgramType != f.ProgramType {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Search)); q != "" {
		for _, v := range []string{a.FullName, a.Email, a.Phone, a.AppID()} {
			if strings.Contains(strings.ToLower(v), q) {
				return true
			}
		}
		return false
	}
	return true
}

func (r applicantRepo) nonDraftsNewestFirst(f models.ApplicantFilter) []models.Applicant {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var rows []models.Applicant
	for _, a := range r.s.applicants {
		if matches(a, f) {
			rows = append(rows, copyApplicant(a))
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].CreatedAt.Equal(rows[j].CreatedAt) {
			return rows[i].ID > rows[j].ID
		}
		return rows[i].CreatedAt.After(rows[j].CreatedAt)
	})
	return rows
}

func (r applicantRepo) Query(_ context.Context, f models.ApplicantFilter) ([]models.Applicant, int64, error) {
	rows := r.nonDraftsNewestFirst(f)
	total := int64(len(rows))
	if f.Limit > 0 {
		if f.Offset >= len(rows) {
			return []models.Applicant{}, total, nil
		}
		end := f.Offset + f.Limit
		if end > len(rows) {
			end = len(rows)
		}
		rows = rows[f.Offset:end]
	}
	return rows, total, nil
}

func (r applicantRepo) CountAssignedIDs(_ context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, rows := range []map[uint]models.Applicant{r.s.applicants, r.s.deleted} {
		for _, a := range rows {
			if a.ApplicationID != nil {
				n++
			}
		}
	}
	return n, nil
}

func (r applicantRepo) DeleteDrafts(_ context.Context, email string) ([]models.Applicant, error) {
	email = models.NormalizeEmail(email)
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var drafts []models.Applicant
	for id, a := range r.s.applicants {
		if a.Email == email && a.IsDraft {
			drafts = append(drafts, a)
			delete(r.s.applicants, id)
		}
	}
	return drafts, nil
}

func (r applicantRepo) Delete(_ context.Context, id uint) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.applicants[id]
	if !ok {
		return repositories.ErrApplicantNotFound
	}
	r.s.deleted[id] = a
	delete(r.s.applicants, id)
	return nil
}

func (r applicantRepo) Stats(_ context.Context) (models.DashboardStats, error) {
	rows := r.nonDraftsNewestFirst(models.ApplicantFilter{})
	stats := repositories.StatsOf(rows)
	if len(rows) > 5 {
		rows = rows[:5]
	}
	stats.RecentApplications = rows
	return stats, nil
}

type paymentRepo struct{ s *Store }

func (r paymentRepo) Create(_ context.Context, p *models.Payment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := time.Now()
	r.s.nextPayment++
	p.ID = r.s.nextPayment
	p.CreatedAt, p.UpdatedAt = now, now
	r.s.payments[p.ID] = *p
	return nil
}

func (r paymentRepo) FindByReference(_ context.Context, ref string) (*models.Payment, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, repositories.ErrPaymentNotFound
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var best *models.Payment
	for _, p := range r.s.payments {
		if p.OrderReference != ref && p.TransactionReference != ref && p.TransferReference != ref {
			continue
		}
		if best == nil || p.ID > best.ID {
			c := p
			best = &c
		}
	}
	if best == nil {
		return nil, repositories.ErrPaymentNotFound
	}
	return best, nil
}

func (r paymentRepo) FindByID(_ context.Context, id uint) (*models.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.payments[id]
	if !ok {
		return nil, repositories.ErrPaymentNotFound
	}
	return &p, nil
}

func (r paymentRepo) Update(_ context.Context, p *models.Payment, from models.PaymentStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.payments[p.ID]
	if !ok {
		return repositories.ErrPaymentNotFound
	}
	if stored.Status != from {
		return repositories.ErrPaymentStateChanged
	}
	p.CreatedAt = stored.CreatedAt
	p.UpdatedAt = time.Now()
	r.s.payments[p.ID] = *p
	return nil
}

func (r paymentRepo) list(keep func(models.Payment) bool) []models.Payment {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.Payment
	for _, p := range r.s.payments {
		if keep(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (r paymentRepo) ListByApplicant(_ context.Context, applicantID uint) ([]models.Payment, error) {
	return r.list(func(p models.Payment) bool { return p.ApplicantID == applicantID }), nil
}

func (r paymentRepo) ListByStatus(_ context.Context, status models.PaymentStatus) ([]models.Payment, error) {
	return r.list(func(p models.Payment) bool { return p.Status == status }), nil
}

func (r paymentRepo) SumRevenue(_ context.Context) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, p := range r.list(func(p models.Payment) bool {
		return p.Status == models.PaymentStatusPaid || p.Status == models.PaymentStatusVerified
	}) {
		total = total.Add(p.Amount)
	}
	return total, nil
}
