package client

import (
	"math/rand/v2"

	"distfs/internal/model"
)

// shuffledServers returns a copy of servers in a uniformly random order.
// The caller must iterate the returned slice, not the input — an earlier
// revision of this placement logic shuffled a copy but walked the
// original, silently defeating the shuffle and skewing placement toward
// whichever server happened to sort first.
func shuffledServers(servers []model.ServerRecord) []model.ServerRecord {
	shuffled := append([]model.ServerRecord(nil), servers...)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	return shuffled
}
