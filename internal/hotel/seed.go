package hotel

import (
	"fmt"
	"math/rand/v2"

	"github.com/SlpAus/hotelier-ranking-backend/internal/catalog"
)

// Seed 为每个城市的每个星级生成一家酒店，用于没有任何快照可加载的首次启动。
// 相同的 rng 种子生成相同的目录。酒店ID的高位是城市序号加1，低三位是全局生成序号。
func Seed(rng *rand.Rand) []Snapshot {
	addresses := catalog.Addresses()
	descriptions := catalog.Descriptions()
	features := catalog.Features()

	var out []Snapshot
	counter := 0
	for ord, city := range catalog.Cities() {
		for _, t := range catalog.Types() {
			counter++
			h := Hotel{
				ID:          int64(ord+1)*1000 + int64(counter),
				Name:        catalog.HotelName(city.Name, t),
				Address:     fmt.Sprintf("%s %d", addresses[rng.IntN(len(addresses))], rng.IntN(999)),
				City:        city.Name,
				Type:        t.Label(),
				Phone:       seedPhone(rng, city.Prefix),
				Description: descriptions[rng.IntN(len(descriptions))] + city.Name + ".",
				Features:    seedFeatures(rng, features),
			}
			out = append(out, Snapshot{Hotel: h})
		}
	}
	return out
}

// seedPhone 在区号后补足随机数字，使号码总共10位数字。
func seedPhone(rng *rand.Rand, prefix string) string {
	digits := 11 - len(prefix)
	limit := 1
	for i := 0; i < digits; i++ {
		limit *= 10
	}
	return fmt.Sprintf("%s%0*d", prefix, digits, rng.IntN(limit))
}

func seedFeatures(rng *rand.Rand, vocab []string) []string {
	size := rng.IntN(len(vocab))
	if size == 0 && rng.Float64() >= 0.5 {
		size = 1
	}
	picked := make([]string, 0, size)
	for _, i := range rng.Perm(len(vocab))[:size] {
		picked = append(picked, vocab[i])
	}
	return picked
}
