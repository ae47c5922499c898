package core

import "testing"

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		raw     string
		want    string
		wantErr bool
	}{
		{raw: "03001234567", want: "+923001234567"},
		{raw: "3001234567", want: "+923001234567"},
		{raw: "+923001234567", want: "+923001234567"},
		{raw: "00923001234567", want: "+923001234567"},
		{raw: " 0300-123 4567 ", want: "+923001234567"},
		{raw: "(0300) 1234567", want: "+923001234567"},
		{raw: "", wantErr: true},
		{raw: "0421234567", wantErr: true}, // landline
		{raw: "030012345678", wantErr: true},
		{raw: "+14155550100", wantErr: true},
		{raw: "0300abc4567", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := NormalizePhone(tt.raw, "92")
			if (err != nil) != tt.wantErr {
				t.Fatalf("NormalizePhone() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("NormalizePhone() = %q, want %q", got, tt.want)
			}
		})
	}
}
