package models

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
)

var idNamespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("casino-engine"))

// GameID derives the game id from its owner and its server seed commitment,
// so a player cannot open two games on the same commitment.
func GameID(casinoID, player, serverSeedHash string) string {
	return uuid.NewSHA1(idNamespace, []byte("game:"+casinoID+":"+player+":"+serverSeedHash)).String()
}

func TournamentID(casinoID, authority string, startTime time.Time) string {
	seed := "tournament:" + casinoID + ":" + authority + ":" + strconv.FormatInt(startTime.Unix(), 10)
	return uuid.NewSHA1(idNamespace, []byte(seed)).String()
}

func GenerateTransferID() string {
	return fmt.Sprintf("tx_%s_%d",
		time.Now().Format("20060102"),
		uuid.New().ID())
}

// GenerateSeed returns n random bytes hex encoded.
func GenerateSeed(n int) (string, error) {
	bytes := make([]byte, n)
	_, err := rand.Read(bytes)
	if err != nil {
		return "", fmt.Errorf("failed to generate seed: %v", err)
	}
	return hex.EncodeToString(bytes), nil
}
