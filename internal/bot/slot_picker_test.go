package bot

import (
	"testing"
	"time"

	"github.com/Payamsoltanzadeh/Telegram-Medical-bot/internal/models"
)

func slotAt(id int, day, hour, minute int) models.AvailableSlot {
	return models.AvailableSlot{
		ID:        id,
		DoctorID:  1,
		StartTime: time.Date(2026, 9, day, hour, minute, 0, 0, time.Local),
	}
}

func TestGroupSlotsByDay(t *testing.T) {
	tests := []struct {
		name      string
		slots     []models.AvailableSlot
		wantDays  int
		wantSizes []int
	}{
		{
			name:      "empty list",
			slots:     nil,
			wantDays:  0,
			wantSizes: nil,
		},
		{
			name:      "single day",
			slots:     []models.AvailableSlot{slotAt(1, 14, 9, 0), slotAt(2, 14, 9, 30), slotAt(3, 14, 10, 0)},
			wantDays:  1,
			wantSizes: []int{3},
		},
		{
			name: "three days",
			slots: []models.AvailableSlot{
				slotAt(1, 14, 9, 0), slotAt(2, 14, 16, 30),
				slotAt(3, 15, 11, 0),
				slotAt(4, 16, 9, 0), slotAt(5, 16, 9, 30), slotAt(6, 16, 10, 0),
			},
			wantDays:  3,
			wantSizes: []int{2, 1, 3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			days := groupSlotsByDay(tt.slots)
			if len(days) != tt.wantDays {
				t.Fatalf("groupSlotsByDay() returned %d days, want %d", len(days), tt.wantDays)
			}
			for i, d := range days {
				if len(d.Slots) != tt.wantSizes[i] {
					t.Errorf("day %d has %d slots, want %d", i, len(d.Slots), tt.wantSizes[i])
				}
				if d.Date.Hour() != 0 || d.Date.Minute() != 0 {
					t.Errorf("day %d date is %s, want midnight", i, d.Date.Format("15:04"))
				}
				for _, s := range d.Slots {
					if s.StartTime.Day() != d.Date.Day() {
						t.Errorf("slot %d on day %s grouped under %s",
							s.ID, s.StartTime.Format("02.01"), d.Date.Format("02.01"))
					}
				}
			}
		})
	}
}

func TestFindSlotDay(t *testing.T) {
	days := groupSlotsByDay([]models.AvailableSlot{
		slotAt(1, 14, 9, 0),
		slotAt(2, 15, 11, 0),
	})

	if d := findSlotDay(days, "20260915"); d == nil {
		t.Error("findSlotDay(20260915) = nil, want the second day")
	} else if d.Slots[0].ID != 2 {
		t.Errorf("findSlotDay(20260915) returned slot %d, want 2", d.Slots[0].ID)
	}

	if d := findSlotDay(days, "20261001"); d != nil {
		t.Errorf("findSlotDay(20261001) = %v, want nil", d.Date)
	}
}

func TestSlotTimeKeyboardLayout(t *testing.T) {
	day := groupSlotsByDay([]models.AvailableSlot{
		slotAt(1, 14, 9, 0), slotAt(2, 14, 9, 30), slotAt(3, 14, 10, 0),
		slotAt(4, 14, 10, 30), slotAt(5, 14, 11, 0),
	})[0]

	keyboard := slotTimeKeyboard(day, true)

	// Header + two slot rows (3+2) + back row
	if len(keyboard.InlineKeyboard) != 4 {
		t.Fatalf("keyboard has %d rows, want 4", len(keyboard.InlineKeyboard))
	}
	if got := len(keyboard.InlineKeyboard[1]); got != 3 {
		t.Errorf("first slot row has %d buttons, want 3", got)
	}
	if got := len(keyboard.InlineKeyboard[2]); got != 2 {
		t.Errorf("second slot row has %d buttons, want 2", got)
	}
	if data := *keyboard.InlineKeyboard[1][0].CallbackData; data != "slot_1" {
		t.Errorf("first slot button callback = %q, want %q", data, "slot_1")
	}

	noBack := slotTimeKeyboard(day, false)
	if len(noBack.InlineKeyboard) != 3 {
		t.Errorf("keyboard without back has %d rows, want 3", len(noBack.InlineKeyboard))
	}
}
