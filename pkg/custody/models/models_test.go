package models

import "testing"

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("correct-horse")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	if hash == "correct-horse" {
		t.Error("hash must not equal plaintext")
	}

	if !VerifyPassword("correct-horse", hash) {
		t.Error("correct password should verify")
	}
	if VerifyPassword("wrong", hash) {
		t.Error("wrong password should not verify")
	}
}

func TestGetOrGenerateAdminPassword(t *testing.T) {
	t.Run("uses environment password", func(t *testing.T) {
		t.Setenv(EnvAdminInitialPassword, "from-env")
		password, err := GetOrGenerateAdminPassword()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if password != "from-env" {
			t.Errorf("expected env password, got %q", password)
		}
	})

	t.Run("generates when unset", func(t *testing.T) {
		t.Setenv(EnvAdminInitialPassword, "")
		password, err := GetOrGenerateAdminPassword()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(password) != 32 {
			t.Errorf("expected 32-char hex password, got %d chars", len(password))
		}
	})
}

func TestActionIsValid(t *testing.T) {
	if !ActionTransfer.IsValid() || !ActionRevoke.IsValid() {
		t.Error("custody actions should be valid")
	}
	if Action("delete").IsValid() {
		t.Error("unknown action should be invalid")
	}
}

func TestLedgerEntryInvolves(t *testing.T) {
	e := &LedgerEntry{FromUserID: "a", ToUserID: "b"}
	if !e.Involves("a") || !e.Involves("b") {
		t.Error("entry should involve both endpoints")
	}
	if e.Involves("c") {
		t.Error("entry should not involve a third party")
	}
}

func TestUserIsStaff(t *testing.T) {
	staff := &User{Role: string(RoleStaff)}
	if !staff.IsStaff() {
		t.Error("staff role should report staff")
	}
	user := &User{Role: string(RoleUser)}
	if user.IsStaff() {
		t.Error("user role should not report staff")
	}
}

func TestDefaultStaffUser(t *testing.T) {
	u := DefaultStaffUser("some-hash")
	if u.Username != AdminUsername {
		t.Errorf("expected username %q, got %q", AdminUsername, u.Username)
	}
	if !u.IsStaff() {
		t.Error("bootstrap user should be staff")
	}
	if !u.Enabled {
		t.Error("bootstrap user should be enabled")
	}
	if u.PasswordHash != "some-hash" {
		t.Errorf("unexpected password hash %q", u.PasswordHash)
	}
}
