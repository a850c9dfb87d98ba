package authpw

import (
	"context"
	"database/sql"
	"testing"

	"hotelops/api/internal/store"
)

type fakeUserStore struct {
	users map[string]store.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: map[string]store.User{}}
}

func (f *fakeUserStore) GetUserByEmail(_ context.Context, email string) (store.User, error) {
	if user, ok := f.users[email]; ok {
		return user, nil
	}
	return store.User{}, sql.ErrNoRows
}

func (f *fakeUserStore) GetUserByID(_ context.Context, id string) (store.User, error) {
	for _, user := range f.users {
		if user.ID == id {
			return user, nil
		}
	}
	return store.User{}, sql.ErrNoRows
}

func (f *fakeUserStore) CreateUser(_ context.Context, user store.User) error {
	f.users[user.Email] = user
	return nil
}

func TestSignUpAndSignIn(t *testing.T) {
	svc := NewService(newFakeUserStore())
	ctx := context.Background()

	user, err := svc.SignUp(ctx, SignUpRequest{
		Email:       "Manager@Example.com",
		Password:    "correct-horse",
		DisplayName: "Aline",
		Role:        "manager",
	})
	if err != nil {
		t.Fatalf("SignUp failed: %v", err)
	}
	if user.Email != "manager@example.com" {
		t.Fatalf("email should be lowercased, got %q", user.Email)
	}
	if user.Role != "manager" {
		t.Fatalf("expected manager role, got %q", user.Role)
	}
	if user.PasswordHash == "correct-horse" {
		t.Fatal("password must not be stored in the clear")
	}

	signedIn, err := svc.SignIn(ctx, SignInRequest{Email: "manager@example.com", Password: "correct-horse"})
	if err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}
	if signedIn.ID != user.ID {
		t.Fatalf("expected same user back, got %q", signedIn.ID)
	}
}

func TestSignUpRejectsShortPassword(t *testing.T) {
	svc := NewService(newFakeUserStore())
	_, err := svc.SignUp(context.Background(), SignUpRequest{
		Email: "a@b.c", Password: "short", DisplayName: "A",
	})
	if err == nil {
		t.Fatal("expected error for short password")
	}
}

func TestSignUpRejectsDuplicateEmail(t *testing.T) {
	svc := NewService(newFakeUserStore())
	ctx := context.Background()

	if _, err := svc.SignUp(ctx, SignUpRequest{Email: "a@b.c", Password: "long-enough", DisplayName: "A"}); err != nil {
		t.Fatalf("first SignUp failed: %v", err)
	}
	if _, err := svc.SignUp(ctx, SignUpRequest{Email: "A@B.C", Password: "long-enough", DisplayName: "A2"}); err == nil {
		t.Fatal("expected duplicate email to be rejected")
	}
}

func TestSignUpDefaultsUnknownRoleToWaiter(t *testing.T) {
	svc := NewService(newFakeUserStore())
	user, err := svc.SignUp(context.Background(), SignUpRequest{
		Email: "w@b.c", Password: "long-enough", DisplayName: "W", Role: "owner",
	})
	if err != nil {
		t.Fatalf("SignUp failed: %v", err)
	}
	if user.Role != "waiter" {
		t.Fatalf("unknown role should become waiter, got %q", user.Role)
	}
}

func TestSignInRejectsWrongPassword(t *testing.T) {
	svc := NewService(newFakeUserStore())
	ctx := context.Background()

	if _, err := svc.SignUp(ctx, SignUpRequest{Email: "a@b.c", Password: "long-enough", DisplayName: "A"}); err != nil {
		t.Fatalf("SignUp failed: %v", err)
	}
	if _, err := svc.SignIn(ctx, SignInRequest{Email: "a@b.c", Password: "wrong"}); err == nil {
		t.Fatal("expected wrong password to be rejected")
	}
}
