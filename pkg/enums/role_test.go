package enums

import "testing"

func TestParseRoleNormalizesInput(t *testing.T) {
	role, err := ParseRole("  Producer ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if role != RoleProducer {
		t.Fatalf("expected producer got %s", role)
	}
	if _, err := ParseRole("owner"); err == nil {
		t.Fatal("expected unknown role to fail")
	}
}

func TestRolePtr(t *testing.T) {
	if RolePtr(nil) != nil {
		t.Fatal("nil input should yield nil role")
	}
	empty := ""
	if RolePtr(&empty) != nil {
		t.Fatal("empty role should yield nil")
	}
	admin := "admin"
	got := RolePtr(&admin)
	if got == nil || *got != RoleAdmin {
		t.Fatalf("expected admin role, got %v", got)
	}
}
