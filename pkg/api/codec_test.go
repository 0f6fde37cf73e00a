package api

import (
	"strings"
	"testing"
)

func TestCodec_UsesSnakeCaseFields(t *testing.T) {
	data, err := Codec{}.Marshal(&AddIOURequest{GroupID: "g", Debtor: "a", Creditor: "b", Amount: 2.5})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	want := `{"group_id":"g","debtor":"a","creditor":"b","amount":2.5}`
	if string(data) != want {
		t.Errorf("expected %s, got %s", want, data)
	}
}

func TestCodec_Unmarshal(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		want    string
		wantErr bool
	}{
		{name: "empty body", data: "", want: ""},
		{name: "object", data: `{"proposal_id":"p-1"}`, want: "p-1"},
		{name: "unknown fields ignored", data: `{"proposal_id":"p-2","extra":1}`, want: "p-2"},
		{name: "malformed", data: `{"proposal_id":`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req GetProposalRequest
			err := Codec{}.Unmarshal([]byte(tt.data), &req)
			if tt.wantErr {
				if err == nil || !strings.Contains(err.Error(), "GetProposalRequest") {
					t.Errorf("expected decode error naming the message, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unmarshal failed: %v", err)
			}
			if req.ProposalID != tt.want {
				t.Errorf("expected %q, got %q", tt.want, req.ProposalID)
			}
		})
	}
}
