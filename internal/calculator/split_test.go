package calculator

import (
	"math"
	"testing"
)

func TestCalculateSplit(t *testing.T) {
	tests := []struct {
		name         string
		items        []Item
		total        float64
		subtotal     float64
		participants []string
		wantErr      bool
		want         map[string]float64
	}{
		{
			name: "shared and solo items with tax",
			items: []Item{
				{Description: "Pizza", Amount: 20.0, AssignedTo: []string{"alice", "bob"}},
				{Description: "Salad", Amount: 10.0, AssignedTo: []string{"alice"}},
			},
			total:        33.0,
			subtotal:     30.0,
			participants: []string{"alice", "bob"},
			// alice: (10 + 10) * 1.1 = 22, bob: 10 * 1.1 = 11
			want: map[string]float64{"alice": 22.0, "bob": 11.0},
		},
		{
			name:         "no items splits equally",
			total:        90.0,
			subtotal:     75.0,
			participants: []string{"alice", "bob", "carol"},
			want:         map[string]float64{"alice": 30.0, "bob": 30.0, "carol": 30.0},
		},
		{
			name:         "unassigned item is ignored",
			items:        []Item{{Description: "Tip jar", Amount: 5.0}, {Description: "Soup", Amount: 10.0, AssignedTo: []string{"bob"}}},
			total:        10.0,
			subtotal:     10.0,
			participants: []string{"alice", "bob"},
			want:         map[string]float64{"alice": 0, "bob": 10.0},
		},
		{
			name:         "zero subtotal",
			items:        []Item{{Description: "Item", Amount: 10.0, AssignedTo: []string{"alice"}}},
			total:        10.0,
			subtotal:     0.0,
			participants: []string{"alice"},
			wantErr:      true,
		},
		{
			name:         "no participants",
			total:        10.0,
			subtotal:     10.0,
			participants: []string{},
			wantErr:      true,
		},
		{
			name:         "total below subtotal",
			total:        9.0,
			subtotal:     10.0,
			participants: []string{"alice"},
			wantErr:      true,
		},
		{
			name:         "item assigned to stranger",
			items:        []Item{{Description: "Beer", Amount: 5.0, AssignedTo: []string{"mallory"}}},
			total:        5.0,
			subtotal:     5.0,
			participants: []string{"alice"},
			wantErr:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shares, err := CalculateSplit(tt.items, tt.total, tt.subtotal, tt.participants)
			if (err != nil) != tt.wantErr {
				t.Fatalf("CalculateSplit() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			for person, want := range tt.want {
				got, ok := shares[person]
				if !ok {
					t.Fatalf("missing share for %s", person)
				}
				if math.Abs(got.Total-want) > 0.01 {
					t.Errorf("%s total = %v, want %v", person, got.Total, want)
				}
				if math.Abs(got.Subtotal+got.Tax-got.Total) > 1e-9 {
					t.Errorf("%s subtotal+tax != total: %+v", person, got)
				}
			}
		})
	}
}
