package patient

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/medisched/medisched/internal/platform/apperr"
	"github.com/medisched/medisched/internal/platform/auth"
)

type mockRepo struct {
	mu     sync.Mutex
	items  map[int64]*Patient
	nextID int64
}

func newMockRepo() *mockRepo {
	return &mockRepo{items: make(map[int64]*Patient)}
}

func (m *mockRepo) Create(_ context.Context, p *Patient) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.items {
		if existing.UserID == p.UserID {
			return ErrProfileExists
		}
	}
	m.nextID++
	p.ID = m.nextID
	p.CreatedAt = time.Now()
	stored := *p
	m.items[p.ID] = &stored
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id int64) (*Patient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *mockRepo) GetByUserID(_ context.Context, userID int64) (*Patient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.items {
		if p.UserID == userID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockRepo) List(_ context.Context, limit, offset int) ([]*Patient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := []*Patient{}
	for _, p := range m.items {
		all = append(all, p)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	if offset >= len(all) {
		return []*Patient{}, nil
	}
	all = all[offset:]
	if limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (m *mockRepo) Update(_ context.Context, p *Patient) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[p.ID]; !ok {
		return ErrNotFound
	}
	stored := *p
	m.items[p.ID] = &stored
	return nil
}

func ptr(s string) *string { return &s }

var (
	alice  = &auth.Principal{SubjectID: 1, DisplayName: "alice", Role: auth.RolePatient}
	bob    = &auth.Principal{SubjectID: 2, DisplayName: "bob", Role: auth.RolePatient}
	doctor = &auth.Principal{SubjectID: 3, DisplayName: "drsmith", Role: auth.RoleDoctor}
	admin  = &auth.Principal{SubjectID: 9, DisplayName: "root", Role: auth.RoleAdmin}
)

func aliceProfile() *ProfileInput {
	return &ProfileInput{FirstName: " Alice ", LastName: "Liddell", DateOfBirth: "1990-04-01", BloodType: ptr("O+")}
}

func TestCreate(t *testing.T) {
	svc := NewService(newMockRepo())
	ctx := context.Background()

	p, err := svc.Create(ctx, alice, aliceProfile())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if p.UserID != alice.SubjectID {
		t.Errorf("expected user_id %d, got %d", alice.SubjectID, p.UserID)
	}
	if p.FirstName != "Alice" {
		t.Errorf("expected trimmed first name, got %q", p.FirstName)
	}

	_, err = svc.Create(ctx, alice, aliceProfile())
	if !apperr.Is(err, apperr.AlreadyExists) {
		t.Errorf("expected AlreadyExists for a second profile, got %v", err)
	}
}

func TestCreate_Validation(t *testing.T) {
	svc := NewService(newMockRepo())

	tests := []struct {
		name string
		in   ProfileInput
	}{
		{"missing name", ProfileInput{LastName: "L", DateOfBirth: "1990-01-01"}},
		{"bad date", ProfileInput{FirstName: "A", LastName: "L", DateOfBirth: "01/01/1990"}},
		{"future date", ProfileInput{FirstName: "A", LastName: "L", DateOfBirth: time.Now().AddDate(1, 0, 0).Format(DateLayout)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), alice, &tt.in)
			if !apperr.Is(err, apperr.InvalidInput) {
				t.Errorf("expected InvalidInput, got %v", err)
			}
		})
	}
}

func TestGet_Authorization(t *testing.T) {
	svc := NewService(newMockRepo())
	ctx := context.Background()
	p, _ := svc.Create(ctx, alice, aliceProfile())

	for _, who := range []*auth.Principal{alice, doctor, admin} {
		if _, err := svc.Get(ctx, who, p.ID); err != nil {
			t.Errorf("%s: expected access, got %v", who.DisplayName, err)
		}
	}
	if _, err := svc.Get(ctx, bob, p.ID); !apperr.Is(err, apperr.Forbidden) {
		t.Errorf("bob: expected Forbidden, got %v", err)
	}
	if _, err := svc.Get(ctx, admin, 404); !apperr.Is(err, apperr.NotFound) {
		t.Errorf("expected NotFound, got %v", err)
	}
}

func TestMe(t *testing.T) {
	svc := NewService(newMockRepo())
	ctx := context.Background()

	if _, err := svc.Me(ctx, alice); !apperr.Is(err, apperr.NotFound) {
		t.Errorf("expected NotFound before a profile exists, got %v", err)
	}
	created, _ := svc.Create(ctx, alice, aliceProfile())
	me, err := svc.Me(ctx, alice)
	if err != nil {
		t.Fatalf("Me: %v", err)
	}
	if me.ID != created.ID {
		t.Errorf("expected profile %d, got %d", created.ID, me.ID)
	}
}

func TestList_StaffOnly(t *testing.T) {
	svc := NewService(newMockRepo())
	ctx := context.Background()
	svc.Create(ctx, alice, aliceProfile())
	svc.Create(ctx, bob, &ProfileInput{FirstName: "Bob", LastName: "B", DateOfBirth: "1985-12-31"})

	if _, err := svc.List(ctx, alice, 10, 0); !apperr.Is(err, apperr.Forbidden) {
		t.Errorf("patient: expected Forbidden, got %v", err)
	}
	items, err := svc.List(ctx, doctor, 10, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 2 {
		t.Errorf("expected 2 patients, got %d", len(items))
	}
}

func TestUpdate_OverwritesAllFields(t *testing.T) {
	svc := NewService(newMockRepo())
	ctx := context.Background()
	p, _ := svc.Create(ctx, alice, aliceProfile())

	if _, err := svc.Update(ctx, bob, p.ID, aliceProfile()); !apperr.Is(err, apperr.Forbidden) {
		t.Errorf("bob: expected Forbidden, got %v", err)
	}

	updated, err := svc.Update(ctx, alice, p.ID, &ProfileInput{
		FirstName: "Alice", LastName: "Pleasance", DateOfBirth: "1990-04-02", Phone: ptr("555-0100"),
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.LastName != "Pleasance" || updated.DateOfBirth != "1990-04-02" {
		t.Errorf("unexpected profile %+v", updated)
	}
	if updated.BloodType != nil {
		t.Errorf("expected blood_type cleared by the full overwrite, got %q", *updated.BloodType)
	}
	if updated.UserID != alice.SubjectID {
		t.Error("update must not change the owner")
	}
}
