package model_test

import (
	"testing"

	"github.com/jaekwang-park/todo-store/internal/model"
)

func TestPriority_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		priority model.Priority
		want     bool
	}{
		{"low", model.PriorityLow, true},
		{"medium", model.PriorityMedium, true},
		{"high", model.PriorityHigh, true},
		{"empty", model.Priority(""), false},
		{"urgent", model.Priority("urgent"), false},
		{"uppercase", model.Priority("HIGH"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.priority.IsValid(); got != tt.want {
				t.Errorf("Priority(%q).IsValid() = %v, want %v", tt.priority, got, tt.want)
			}
		})
	}
}

func TestPriority_OrDefault(t *testing.T) {
	tests := []struct {
		in   model.Priority
		want model.Priority
	}{
		{model.PriorityLow, model.PriorityLow},
		{model.PriorityHigh, model.PriorityHigh},
		{model.Priority("urgent"), model.PriorityMedium},
		{model.Priority(""), model.PriorityMedium},
	}

	for _, tt := range tests {
		if got := tt.in.OrDefault(); got != tt.want {
			t.Errorf("Priority(%q).OrDefault() = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTodoPatch_IsEmpty(t *testing.T) {
	done := true
	if !(model.TodoPatch{}).IsEmpty() {
		t.Error("zero patch should be empty")
	}
	if (model.TodoPatch{Completed: &done}).IsEmpty() {
		t.Error("patch with completed should not be empty")
	}
}
