package resolver

import "testing"

func TestModuleNameIsValid(t *testing.T) {
	tests := []struct {
		name  ModuleName
		valid bool
	}{
		{"os", true},
		{"os.path", true},
		{"pkg.sub.mod", true},
		{"_private", true},
		{"mod2", true},
		{"a_b.c_d", true},
		{"", false},
		{".", false},
		{"os.", false},
		{".os", false},
		{"os..path", false},
		{"2fast", false},
		{"pkg.2fast", false},
		{"pkg-name", false},
		{"pkg/mod", false},
		{"pkg mod", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.name), func(t *testing.T) {
			if got := tt.name.IsValid(); got != tt.valid {
				t.Errorf("IsValid(%q) = %v, want %v", tt.name, got, tt.valid)
			}
		})
	}
}

func TestModuleNameParts(t *testing.T) {
	parts := ModuleName("pkg.sub.mod").Parts()
	want := []string{"pkg", "sub", "mod"}
	if len(parts) != len(want) {
		t.Fatalf("Parts = %v, want %v", parts, want)
	}
	for i := range want {
		if parts[i] != want[i] {
			t.Errorf("Parts[%d] = %q, want %q", i, parts[i], want[i])
		}
	}
}

func TestModuleNameRelPath(t *testing.T) {
	if got := ModuleName("os.path").RelPath(); got != "os/path" {
		t.Errorf("RelPath = %q, want os/path", got)
	}
	if got := ModuleName("sys").RelPath(); got != "sys" {
		t.Errorf("RelPath = %q, want sys", got)
	}
}

func TestModuleNameTop(t *testing.T) {
	if got := ModuleName("pkg.sub.mod").Top(); got != "pkg" {
		t.Errorf("Top = %q, want pkg", got)
	}
	if got := ModuleName("sys").Top(); got != "sys" {
		t.Errorf("Top = %q, want sys", got)
	}
}
