package penalty

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

type stubClock struct {
	now time.Time
}

func (s *stubClock) Now() time.Time {
	return s.now
}

type fakePenaltyRepo struct {
	penalties map[string]*Penalty
	order     []string
	sequence  int
	deleteErr error
}

func newFakePenaltyRepo() *fakePenaltyRepo {
	return &fakePenaltyRepo{penalties: make(map[string]*Penalty)}
}

func (r *fakePenaltyRepo) Create(_ context.Context, p *Penalty) (*Penalty, error) {
	r.sequence++
	clone := *p
	clone.ID = fmt.Sprintf("p-%d", r.sequence)
	r.penalties[clone.ID] = &clone
	r.order = append(r.order, clone.ID)
	out := clone
	return &out, nil
}

func (r *fakePenaltyRepo) Delete(_ context.Context, id string) error {
	if r.deleteErr != nil {
		return r.deleteErr
	}
	if _, ok := r.penalties[id]; !ok {
		return ErrPenaltyNotFound
	}
	delete(r.penalties, id)
	return nil
}

func (r *fakePenaltyRepo) List(_ context.Context, filter ListPenaltiesFilter) ([]*Penalty, error) {
	var out []*Penalty
	for _, id := range r.order {
		p, ok := r.penalties[id]
		if !ok || (filter.EmployeeID != "" && p.EmployeeID != filter.EmployeeID) {
			continue
		}
		clone := *p
		out = append(out, &clone)
	}
	return out, nil
}

func TestService_CreatePenalty_StampsCatalogEntry(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 5, 1, 8, 16, 0, 0, time.UTC)
	repo := newFakePenaltyRepo()
	svc := NewService(repo, &stubClock{now: now})

	created, err := svc.CreatePenalty(context.Background(), CreatePenaltyInput{
		CatalogEntryID: "late_small",
		EmployeeID:     "emp-42",
		Comment:        "",
	})
	if err != nil {
		t.Fatalf("CreatePenalty returned error: %v", err)
	}

	stored := repo.penalties[created.ID]
	if stored.Title != "Опоздание до 15 минут" {
		t.Fatalf("unexpected title %q", stored.Title)
	}
	if stored.Type != "Мелкое" {
		t.Fatalf("unexpected type %q", stored.Type)
	}
	if stored.EmployeeID != "emp-42" || stored.Comment != "" {
		t.Fatalf("unexpected penalty %+v", stored)
	}
	if !stored.CreatedAt.Equal(now) {
		t.Fatalf("expected clock timestamp, got %v", stored.CreatedAt)
	}
	if stored.Severity() != SeverityMinor {
		t.Fatalf("expected MINOR severity, got %s", stored.Severity())
	}
}

func TestService_CreatePenalty_TrimsComment(t *testing.T) {
	t.Parallel()

	svc := NewService(newFakePenaltyRepo(), nil)
	created, err := svc.CreatePenalty(context.Background(), CreatePenaltyInput{
		CatalogEntryID: "alcohol",
		EmployeeID:     "emp-1",
		Comment:        "  смена 12.05  ",
	})
	if err != nil {
		t.Fatalf("CreatePenalty returned error: %v", err)
	}
	if created.Comment != "смена 12.05" || created.Type != LabelSevere {
		t.Fatalf("unexpected penalty %+v", created)
	}
}

func TestService_CreatePenalty_Validation(t *testing.T) {
	t.Parallel()

	svc := NewService(newFakePenaltyRepo(), nil)

	if _, err := svc.CreatePenalty(context.Background(), CreatePenaltyInput{CatalogEntryID: "late_small"}); !errors.Is(err, ErrInvalidEmployeeID) {
		t.Fatalf("expected ErrInvalidEmployeeID, got %v", err)
	}
	if _, err := svc.CreatePenalty(context.Background(), CreatePenaltyInput{CatalogEntryID: "nope", EmployeeID: "emp-1"}); !errors.Is(err, ErrUnknownCatalogEntry) {
		t.Fatalf("expected ErrUnknownCatalogEntry, got %v", err)
	}
}

func TestService_DeletePenalty(t *testing.T) {
	t.Parallel()

	repo := newFakePenaltyRepo()
	svc := NewService(repo, nil)

	if err := svc.DeletePenalty(context.Background(), DeletePenaltyInput{ID: "gone"}); err != nil {
		t.Fatalf("expected missing penalty delete to succeed, got %v", err)
	}

	boom := errors.New("connection reset")
	repo.deleteErr = boom
	if err := svc.DeletePenalty(context.Background(), DeletePenaltyInput{ID: "p-1"}); !errors.Is(err, boom) {
		t.Fatalf("expected store error to surface, got %v", err)
	}
}

func TestCatalog(t *testing.T) {
	t.Parallel()

	entries := Catalog()
	if len(entries) != 7 {
		t.Fatalf("expected 7 catalog entries, got %d", len(entries))
	}
	entries[0].Label = "mutated"
	if first, _ := CatalogByID("late_small"); first.Label == "mutated" {
		t.Fatalf("Catalog must return a copy")
	}

	entry, ok := CatalogByID("safety_violation")
	if !ok || entry.Severity != SeveritySevere {
		t.Fatalf("unexpected entry %+v %t", entry, ok)
	}
	if _, ok := CatalogByID("missing"); ok {
		t.Fatalf("expected missing entry")
	}
}

func TestSeverityOf(t *testing.T) {
	t.Parallel()

	cases := map[string]Severity{
		"Мелкое":      SeverityMinor,
		"Среднее":     SeverityMedium,
		"Серьезное":   SeveritySevere,
		"Unknown":     SeverityUnknown,
		"Критическое": SeverityUnknown,
		"":            SeverityUnknown,
	}
	for label, want := range cases {
		if got := SeverityOf(label); got != want {
			t.Errorf("SeverityOf(%q) = %s, want %s", label, got, want)
		}
	}
}
