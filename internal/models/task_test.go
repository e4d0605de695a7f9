package models

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestTaskPayloadJSON(t *testing.T) {
	tests := []struct {
		name    string
		details TaskDetails
	}{
		{name: "water", details: WaterDetails{VolumeLiters: 2, Note: "Morning light watering"}},
		{name: "fertilize", details: FertilizeDetails{Type: "Bokashi tea", Dilution: "1:500", Liters: 5}},
		{name: "em", details: EMDetails{Dilution: "1:1000", Liters: 4, Tip: "Apply to moist soil"}},
		{name: "prune", details: PruneDetails{Technique: "formative"}},
		{name: "hardening", details: HardeningDetails{ShadePercent: 60, DurationHours: 4}},
		{name: "transplant", details: TransplantDetails{Destination: "field", PotSizeGal: 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := json.Marshal(TaskPayload{Details: tt.details})
			if err != nil {
				t.Fatalf("Marshal() error = %v", err)
			}

			var fields map[string]interface{}
			if err := json.Unmarshal(raw, &fields); err != nil {
				t.Fatalf("payload is not an object: %s", raw)
			}
			if fields["category"] != string(tt.details.Category()) {
				t.Errorf("category = %v, want %v", fields["category"], tt.details.Category())
			}

			var back TaskPayload
			if err := json.Unmarshal(raw, &back); err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			if back.Details != tt.details {
				t.Errorf("decoded %#v, want %#v", back.Details, tt.details)
			}
		})
	}
}

func TestTaskPayloadUnknownCategory(t *testing.T) {
	var p TaskPayload
	err := json.Unmarshal([]byte(`{"category":"bonsai","wire":"copper"}`), &p)
	if !errors.Is(err, ErrUnknownCategory) {
		t.Errorf("Unmarshal() error = %v, want ErrUnknownCategory", err)
	}

	err = json.Unmarshal([]byte(`{"volume_liters":2}`), &p)
	if !errors.Is(err, ErrUnknownCategory) {
		t.Errorf("Unmarshal() without category error = %v, want ErrUnknownCategory", err)
	}
}

func TestTaskPayloadNull(t *testing.T) {
	raw, err := json.Marshal(TaskPayload{})
	if err != nil || string(raw) != "null" {
		t.Fatalf("Marshal(empty) = %s, %v", raw, err)
	}

	p := TaskPayload{Details: WaterDetails{VolumeLiters: 1}}
	if err := json.Unmarshal([]byte("null"), &p); err != nil {
		t.Fatalf("Unmarshal(null) error = %v", err)
	}
	if p.Details != nil {
		t.Errorf("Details = %#v, want nil", p.Details)
	}

	v, err := p.Value()
	if err != nil || v != nil {
		t.Errorf("Value() = %v, %v; want nil", v, err)
	}
}

func TestTaskPayloadScan(t *testing.T) {
	var p TaskPayload
	if err := p.Scan([]byte(`{"category":"em","dilution":"1:1000"}`)); err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	em, ok := p.Details.(EMDetails)
	if !ok || em.Dilution != "1:1000" {
		t.Errorf("Scan() = %#v", p.Details)
	}

	v, err := p.Value()
	if err != nil {
		t.Fatalf("Value() error = %v", err)
	}
	var again TaskPayload
	if err := again.Scan(v); err != nil || again.Details != p.Details {
		t.Errorf("Scan(Value()) = %#v, %v", again.Details, err)
	}

	if err := p.Scan(3.5); err == nil {
		t.Error("Scan(float) should fail")
	}
}

func TestTaskValidate(t *testing.T) {
	day := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name    string
		task    Task
		wantErr bool
	}{
		{
			name: "category inferred from details",
			task: Task{NurseryID: 1, Date: day, Details: TaskPayload{Details: WaterDetails{VolumeLiters: 2}}},
		},
		{
			name: "no details",
			task: Task{NurseryID: 1, Date: day, Category: CategoryPrune},
		},
		{
			name:    "mismatched details",
			task:    Task{NurseryID: 1, Date: day, Category: CategoryPrune, Details: TaskPayload{Details: WaterDetails{}}},
			wantErr: true,
		},
		{
			name:    "invalid details",
			task:    Task{NurseryID: 1, Date: day, Details: TaskPayload{Details: HardeningDetails{ShadePercent: 140}}},
			wantErr: true,
		},
		{
			name:    "unknown category",
			task:    Task{NurseryID: 1, Date: day, Category: "bonsai"},
			wantErr: true,
		},
		{
			name:    "unknown status",
			task:    Task{NurseryID: 1, Date: day, Category: CategoryWater, Status: "lost"},
			wantErr: true,
		},
		{
			name:    "missing date",
			task:    Task{NurseryID: 1, Category: CategoryWater},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := tt.task
			err := task.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && task.Status != TaskPending {
				t.Errorf("Status = %q, want pending", task.Status)
			}
		})
	}
}

func TestTaskApplyStatus(t *testing.T) {
	now := time.Date(2025, 6, 2, 8, 30, 0, 0, time.UTC)
	task := Task{Status: TaskPending}

	if err := task.ApplyStatus(TaskCompleted, now); err != nil {
		t.Fatalf("ApplyStatus(completed) error = %v", err)
	}
	if task.CompletedAt == nil || !task.CompletedAt.Equal(now) {
		t.Errorf("CompletedAt = %v, want %v", task.CompletedAt, now)
	}

	if err := task.ApplyStatus(TaskSkipped, now); err == nil {
		t.Error("completed -> skipped should be rejected")
	}

	if err := task.ApplyStatus(TaskPending, now); err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	if task.CompletedAt != nil {
		t.Errorf("CompletedAt = %v, want nil after reopen", task.CompletedAt)
	}

	if err := task.ApplyStatus("done", now); err == nil {
		t.Error("unknown status should be rejected")
	}
}
