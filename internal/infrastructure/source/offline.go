package source

import (
	"math/rand"

	"newsposter/internal/domain"
)

// offlinePool lets a deployment complete a full pipeline run with zero
// network availability. Entries are hand-authored and deliberately generic.
var offlinePool = []domain.Article{
	{
		Title:   "Global markets steady as investors weigh central bank signals",
		URL:     "https://example.com/news/markets-steady",
		Content: "Equity markets held their ground this week while investors parsed a string of central bank statements for hints about the direction of interest rates. Analysts said trading volumes remained thin, with most participants waiting for the next round of inflation data before repositioning their portfolios.",
		Source:  "Offline",
	},
	{
		Title:   "Researchers report progress on low-cost desalination membranes",
		URL:     "https://example.com/news/desalination-membranes",
		Content: "A university team described a new class of polymer membranes that could cut the energy cost of turning seawater into drinking water. The materials survived months of continuous operation in laboratory tests, and the group is now working with an industrial partner on a pilot plant.",
		Source:  "Offline",
	},
	{
		Title:   "City council approves expansion of overnight bus network",
		URL:     "https://example.com/news/overnight-bus-expansion",
		Content: "The council voted to extend overnight bus service to three additional districts starting next quarter, citing steady ridership growth on existing late routes. Transit officials said the expansion will be reviewed after six months against ridership and on-time performance targets.",
		Source:  "Offline",
	},
}

func offlineArticle(rng *rand.Rand) *domain.Article {
	article := offlinePool[rng.Intn(len(offlinePool))]
	return &article
}
