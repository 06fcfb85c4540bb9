package compiler

import "testing"

func TestDiff_Accessors(t *testing.T) {
	diff := NewDiff(DiffTypeModify, "file", "~/.config/hypr/hyprland.conf", "ab12", "cd34").
		WithDetail("-old\n+new\n")

	if diff.Type() != DiffTypeModify {
		t.Errorf("Type() = %v, want %v", diff.Type(), DiffTypeModify)
	}
	if diff.Resource() != "file" {
		t.Errorf("Resource() = %q, want %q", diff.Resource(), "file")
	}
	if diff.Name() != "~/.config/hypr/hyprland.conf" {
		t.Errorf("Name() = %q", diff.Name())
	}
	if diff.OldValue() != "ab12" || diff.NewValue() != "cd34" {
		t.Errorf("values = %q/%q", diff.OldValue(), diff.NewValue())
	}
	if diff.Detail() != "-old\n+new\n" {
		t.Errorf("Detail() = %q", diff.Detail())
	}
}

func TestDiff_Summary(t *testing.T) {
	tests := []struct {
		name string
		diff Diff
		want string
	}{
		{"add with value", NewDiff(DiffTypeAdd, "package", "docker", "", "docker docker-compose"), "+ package docker (docker docker-compose)"},
		{"add bare", NewDiff(DiffTypeAdd, "group", "docker", "", ""), "+ group docker"},
		{"modify bare", NewDiff(DiffTypeModify, "service", "docker.service", "", ""), "~ service docker.service"},
		{"modify with values", NewDiff(DiffTypeModify, "service", "cups.service", "disabled", "enabled"), "~ service cups.service (disabled → enabled)"},
		{"none", NewDiff(DiffTypeNone, "file", "/etc/hosts", "", ""), "  file /etc/hosts"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.diff.Summary(); got != tt.want {
				t.Errorf("Summary() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDiff_IsEmpty(t *testing.T) {
	if !(Diff{}).IsEmpty() {
		t.Error("zero Diff should be empty")
	}
	if NewDiff(DiffTypeNone, "file", "x", "", "").IsEmpty() {
		t.Error("Diff with a resource should not be empty")
	}
}
