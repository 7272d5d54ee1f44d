package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vendaria/vendaria/internal/apperror"
	"github.com/vendaria/vendaria/internal/password"
	"github.com/vendaria/vendaria/internal/token"
)

// --- Mock Repository ---

// mockUserRepo implements UserRepository for testing.
type mockUserRepo struct {
	createFn            func(ctx context.Context, user *User) error
	findByIDFn          func(ctx context.Context, id int64) (*User, error)
	findByEmailFn       func(ctx context.Context, email string) (*User, error)
	emailExistsFn       func(ctx context.Context, email string) (bool, error)
	emailTakenByOtherFn func(ctx context.Context, email string, id int64) (bool, error)
	updateProfileFn     func(ctx context.Context, id int64, name, email, updatedAt string) error
	updatePasswordFn    func(ctx context.Context, id int64, passwordHash, updatedAt string) error
	deleteFn            func(ctx context.Context, id int64) error
}

func (m *mockUserRepo) Create(ctx context.Context, user *User) error {
	if m.createFn != nil {
		return m.createFn(ctx, user)
	}
	user.ID = 1
	return nil
}

func (m *mockUserRepo) FindByID(ctx context.Context, id int64) (*User, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, apperror.NewNotFound("user not found")
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*User, error) {
	if m.findByEmailFn != nil {
		return m.findByEmailFn(ctx, email)
	}
	return nil, apperror.NewNotFound("user not found")
}

func (m *mockUserRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	if m.emailExistsFn != nil {
		return m.emailExistsFn(ctx, email)
	}
	return false, nil
}

func (m *mockUserRepo) EmailTakenByOther(ctx context.Context, email string, id int64) (bool, error) {
	if m.emailTakenByOtherFn != nil {
		return m.emailTakenByOtherFn(ctx, email, id)
	}
	return false, nil
}

func (m *mockUserRepo) UpdateProfile(ctx context.Context, id int64, name, email, updatedAt string) error {
	if m.updateProfileFn != nil {
		return m.updateProfileFn(ctx, id, name, email, updatedAt)
	}
	return nil
}

func (m *mockUserRepo) UpdatePassword(ctx context.Context, id int64, passwordHash, updatedAt string) error {
	if m.updatePasswordFn != nil {
		return m.updatePasswordFn(ctx, id, passwordHash, updatedAt)
	}
	return nil
}

func (m *mockUserRepo) Delete(ctx context.Context, id int64) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

// --- Test Helpers ---

const testSecret = "unit-test-secret"

func newTestService(repo *mockUserRepo) AuthService {
	return NewService(repo, token.NewCodec(testSecret), time.Hour)
}

// assertAppError checks that err is an *apperror.AppError with the expected code.
func assertAppError(t *testing.T, err error, expectedCode int) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with code %d, got nil", expectedCode)
	}
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *apperror.AppError, got %T: %v", err, err)
	}
	if appErr.Code != expectedCode {
		t.Errorf("expected status %d, got %d (message: %s)", expectedCode, appErr.Code, appErr.Message)
	}
}

func storedUser(plain string) *User {
	return &User{
		ID:           7,
		Name:         "Ana Silva",
		Email:        "ana@x.com",
		PasswordHash: password.Hash(plain),
		Profile:      "client",
		CreatedAt:    "2026-01-02T15:04:05Z",
	}
}

// --- Register Tests ---

func TestRegister_Success(t *testing.T) {
	var created *User
	repo := &mockUserRepo{
		createFn: func(ctx context.Context, user *User) error {
			user.ID = 10
			created = user
			return nil
		},
	}
	svc := newTestService(repo)

	user, tok, err := svc.Register(context.Background(), RegisterRequest{
		Name:     "Ana Silva",
		Email:    "ana@x.com",
		Password: "Secreta123!",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	if user.ID != 10 || user.Email != "ana@x.com" || user.Profile != "client" {
		t.Errorf("unexpected user view: %+v", user)
	}
	if created.PasswordHash == "Secreta123!" || created.PasswordHash == "" {
		t.Error("password must be stored hashed")
	}
	if !password.Verify("Secreta123!", created.PasswordHash) {
		t.Error("stored hash does not verify the original password")
	}
	if created.CreatedAt == "" || created.UpdatedAt == "" {
		t.Error("timestamps must be set by the service")
	}

	// The returned token must verify and carry the fresh record's claims.
	claims, err := token.NewCodec(testSecret).Verify(tok)
	if err != nil {
		t.Fatalf("issued token does not verify: %v", err)
	}
	if claims.ID != 10 || claims.Email != "ana@x.com" {
		t.Errorf("unexpected claims: %+v", claims)
	}
}

func TestRegister_MissingFields(t *testing.T) {
	svc := newTestService(&mockUserRepo{})

	cases := []RegisterRequest{
		{Email: "a@b.co", Password: "longenough123"},
		{Name: "Ana", Password: "longenough123"},
		{Name: "Ana", Email: "a@b.co"},
	}
	for _, req := range cases {
		_, _, err := svc.Register(context.Background(), req)
		assertAppError(t, err, 400)
	}
}

func TestRegister_InvalidEmail(t *testing.T) {
	svc := newTestService(&mockUserRepo{})

	for _, email := range []string{"no-at-sign", "a@b", "a b@c.com", "@x.com"} {
		_, _, err := svc.Register(context.Background(), RegisterRequest{
			Name: "Ana", Email: email, Password: "longenough123",
		})
		assertAppError(t, err, 400)
	}
}

func TestRegister_ShortPassword_NoRecordCreated(t *testing.T) {
	createCalled := false
	repo := &mockUserRepo{
		createFn: func(ctx context.Context, user *User) error {
			createCalled = true
			return nil
		},
	}
	svc := newTestService(repo)

	_, _, err := svc.Register(context.Background(), RegisterRequest{
		Name: "Ana", Email: "ana@x.com", Password: "short",
	})
	assertAppError(t, err, 400)
	if createCalled {
		t.Error("no record must be created when validation fails")
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	repo := &mockUserRepo{
		emailExistsFn: func(ctx context.Context, email string) (bool, error) {
			return true, nil
		},
	}
	svc := newTestService(repo)

	_, _, err := svc.Register(context.Background(), RegisterRequest{
		Name: "Ana", Email: "ana@x.com", Password: "Secreta123!",
	})
	assertAppError(t, err, 409)
}

func TestRegister_ProfileDefaultsToClient(t *testing.T) {
	var created *User
	repo := &mockUserRepo{
		createFn: func(ctx context.Context, user *User) error {
			created = user
			return nil
		},
	}
	svc := newTestService(repo)

	if _, _, err := svc.Register(context.Background(), RegisterRequest{
		Name: "Ana", Email: "ana@x.com", Password: "Secreta123!",
	}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if created.Profile != "client" {
		t.Errorf("profile should default to client, got %q", created.Profile)
	}
}

// --- Login Tests ---

func TestLogin_Success(t *testing.T) {
	repo := &mockUserRepo{
		findByEmailFn: func(ctx context.Context, email string) (*User, error) {
			return storedUser("Secreta123!"), nil
		},
	}
	svc := newTestService(repo)

	user, tok, err := svc.Login(context.Background(), LoginRequest{
		Email: "ana@x.com", Password: "Secreta123!",
	})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if user.Email != "ana@x.com" || tok == "" {
		t.Errorf("unexpected result: user=%+v token=%q", user, tok)
	}
}

func TestLogin_UniformFailureMessage(t *testing.T) {
	// Unknown email and wrong password must be indistinguishable.
	unknownRepo := &mockUserRepo{} // FindByEmail defaults to not found.
	wrongPwRepo := &mockUserRepo{
		findByEmailFn: func(ctx context.Context, email string) (*User, error) {
			return storedUser("Secreta123!"), nil
		},
	}

	_, _, errUnknown := newTestService(unknownRepo).Login(context.Background(),
		LoginRequest{Email: "ghost@x.com", Password: "whatever123"})
	_, _, errWrongPw := newTestService(wrongPwRepo).Login(context.Background(),
		LoginRequest{Email: "ana@x.com", Password: "wrongpass123"})

	assertAppError(t, errUnknown, 401)
	assertAppError(t, errWrongPw, 401)

	if apperror.SafeMessage(errUnknown) != apperror.SafeMessage(errWrongPw) {
		t.Errorf("failure messages differ: %q vs %q",
			apperror.SafeMessage(errUnknown), apperror.SafeMessage(errWrongPw))
	}
}

func TestLogin_MissingFields(t *testing.T) {
	svc := newTestService(&mockUserRepo{})

	_, _, err := svc.Login(context.Background(), LoginRequest{Email: "ana@x.com"})
	assertAppError(t, err, 400)

	_, _, err = svc.Login(context.Background(), LoginRequest{Password: "Secreta123!"})
	assertAppError(t, err, 400)
}

// --- UpdateProfile Tests ---

func claimsFor(u *User) token.Claims {
	return token.Claims{ID: u.ID, Email: u.Email, Name: u.Name, Profile: u.Profile}
}

func TestUpdateProfile_Success(t *testing.T) {
	var gotName, gotEmail string
	repo := &mockUserRepo{
		updateProfileFn: func(ctx context.Context, id int64, name, email, updatedAt string) error {
			gotName, gotEmail = name, email
			return nil
		},
	}
	svc := newTestService(repo)

	user, err := svc.UpdateProfile(context.Background(), claimsFor(storedUser("x")),
		UpdateProfileRequest{Name: "Ana Souza", Email: "ana.souza@x.com"})
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if gotName != "Ana Souza" || gotEmail != "ana.souza@x.com" {
		t.Errorf("repo received %q/%q", gotName, gotEmail)
	}
	if user.Name != "Ana Souza" || user.Profile != "client" {
		t.Errorf("unexpected view: %+v", user)
	}
}

func TestUpdateProfile_EmailTakenByOther(t *testing.T) {
	repo := &mockUserRepo{
		emailTakenByOtherFn: func(ctx context.Context, email string, id int64) (bool, error) {
			return true, nil
		},
	}
	svc := newTestService(repo)

	_, err := svc.UpdateProfile(context.Background(), claimsFor(storedUser("x")),
		UpdateProfileRequest{Name: "Ana", Email: "taken@x.com"})
	assertAppError(t, err, 409)
}

func TestUpdateProfile_Validation(t *testing.T) {
	svc := newTestService(&mockUserRepo{})

	_, err := svc.UpdateProfile(context.Background(), claimsFor(storedUser("x")),
		UpdateProfileRequest{Name: "", Email: "a@b.co"})
	assertAppError(t, err, 400)

	_, err = svc.UpdateProfile(context.Background(), claimsFor(storedUser("x")),
		UpdateProfileRequest{Name: "Ana", Email: "bad-email"})
	assertAppError(t, err, 400)
}

// --- ChangePassword Tests ---

func TestChangePassword_Success(t *testing.T) {
	var newHash string
	repo := &mockUserRepo{
		findByIDFn: func(ctx context.Context, id int64) (*User, error) {
			return storedUser("OldSecret123!"), nil
		},
		updatePasswordFn: func(ctx context.Context, id int64, passwordHash, updatedAt string) error {
			newHash = passwordHash
			return nil
		},
	}
	svc := newTestService(repo)

	err := svc.ChangePassword(context.Background(), 7, ChangePasswordRequest{
		CurrentPassword: "OldSecret123!",
		NewPassword:     "NewSecret456!",
	})
	if err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}
	if !password.Verify("NewSecret456!", newHash) {
		t.Error("stored hash does not match the new password")
	}
}

func TestChangePassword_WrongCurrent_HashUnchanged(t *testing.T) {
	updateCalled := false
	repo := &mockUserRepo{
		findByIDFn: func(ctx context.Context, id int64) (*User, error) {
			return storedUser("OldSecret123!"), nil
		},
		updatePasswordFn: func(ctx context.Context, id int64, passwordHash, updatedAt string) error {
			updateCalled = true
			return nil
		},
	}
	svc := newTestService(repo)

	err := svc.ChangePassword(context.Background(), 7, ChangePasswordRequest{
		CurrentPassword: "guessed-wrong",
		NewPassword:     "NewSecret456!",
	})
	assertAppError(t, err, 401)
	if updateCalled {
		t.Error("stored hash must not change when current password is wrong")
	}
}

func TestChangePassword_ShortNewPassword(t *testing.T) {
	svc := newTestService(&mockUserRepo{
		findByIDFn: func(ctx context.Context, id int64) (*User, error) {
			return storedUser("OldSecret123!"), nil
		},
	})

	err := svc.ChangePassword(context.Background(), 7, ChangePasswordRequest{
		CurrentPassword: "OldSecret123!",
		NewPassword:     "short",
	})
	assertAppError(t, err, 400)
}

// --- DeleteAccount Tests ---

func TestDeleteAccount_Success(t *testing.T) {
	var deletedID int64
	repo := &mockUserRepo{
		deleteFn: func(ctx context.Context, id int64) error {
			deletedID = id
			return nil
		},
	}
	svc := newTestService(repo)

	if err := svc.DeleteAccount(context.Background(), 7); err != nil {
		t.Fatalf("DeleteAccount: %v", err)
	}
	if deletedID != 7 {
		t.Errorf("deleted id = %d, want 7", deletedID)
	}
}

// --- Logout ---

func TestServiceLogout_AlwaysSucceeds(t *testing.T) {
	svc := newTestService(&mockUserRepo{})
	if err := svc.Logout(context.Background()); err != nil {
		t.Errorf("Logout: %v", err)
	}
}
