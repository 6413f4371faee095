package app

import (
	"errors"
	"testing"
	"time"
)

func TestNewOperation(t *testing.T) {
	tests := []struct {
		name       string
		operation  string
		parameters string
	}{
		{
			name:       "with parameters",
			operation:  "Publish",
			parameters: "report.pdf",
		},
		{
			name:       "empty parameters",
			operation:  "ListNamespace",
			parameters: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op := NewOperation("20240115T103000Z", tt.operation, tt.parameters)

			if op.Name != tt.operation {
				t.Errorf("Name = %q, want %q", op.Name, tt.operation)
			}
			if op.Parameters != tt.parameters {
				t.Errorf("Parameters = %q, want %q", op.Parameters, tt.parameters)
			}
			if op.Status != "success" {
				t.Errorf("Status = %q, want %q", op.Status, "success")
			}
			if op.Failed() {
				t.Error("new operation reports Failed()")
			}
		})
	}
}

func TestOperation_Fail(t *testing.T) {
	op := NewOperation("id", "Decline", "")
	first := errors.New("first")

	op.Fail(first)
	op.Fail(errors.New("second"))

	if !op.Failed() || op.Status != "error" {
		t.Errorf("Status = %q, want error", op.Status)
	}
	if op.Err != first {
		t.Errorf("Err = %v, want the first error", op.Err)
	}
}

func TestOperation_Duration(t *testing.T) {
	start := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	op := &Operation{StartedAt: start}

	got := op.Duration(start.Add(1500*time.Millisecond + 400*time.Microsecond))
	if got != 1500*time.Millisecond {
		t.Errorf("Duration() = %v, want 1.5s", got)
	}
}
