package storage

import (
	"testing"

	"github.com/aluiziolira/go-crawl-nhl/models"
)

func TestNewKey(t *testing.T) {
	tests := []struct {
		name     string
		playerID string
		gameID   models.GameID
		want     string
		wantErr  bool
	}{
		{name: "integer", playerID: "8475683", gameID: "2019030042", want: "8475683/2019030042.csv"},
		{name: "integral float", playerID: "8475683.0", gameID: "2019030042", want: "8475683/2019030042.csv"},
		{name: "padded", playerID: " 8477493 ", gameID: "2019030016", want: "8477493/2019030016.csv"},
		{name: "fraction", playerID: "84.5", gameID: "1", wantErr: true},
		{name: "float beyond int64", playerID: "1e30", gameID: "1", wantErr: true},
		{name: "negative float beyond int64", playerID: "-9.3e18", gameID: "1", wantErr: true},
		{name: "exponent within range", playerID: "8.475683e6", gameID: "1", want: "8475683/1.csv"},
		{name: "not numeric", playerID: "ID8475683", gameID: "1", wantErr: true},
		{name: "empty player", playerID: "", gameID: "1", wantErr: true},
		{name: "empty game", playerID: "8475683", gameID: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, err := NewKey(tt.playerID, tt.gameID)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got key %s", key)
				}
				return
			}
			if err != nil {
				t.Fatalf("new key: %v", err)
			}
			if got := key.String(); got != tt.want {
				t.Fatalf("key = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestKeyRender(t *testing.T) {
	key := Key{PlayerID: 8476432, GameID: "2019030042"}
	if got := key.Render("json"); got != "8476432/2019030042.json" {
		t.Fatalf("render json = %q", got)
	}
	if got := key.Render(".csv"); got != "8476432/2019030042.csv" {
		t.Fatalf("render .csv = %q", got)
	}
}
