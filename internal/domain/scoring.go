package domain

import "sort"

// FinalScore ranks one surviving player.
type FinalScore struct {
	PlayerID     int    `json:"player_id"`
	Name         string `json:"name"`
	Balance      int    `json:"balance"`
	VisibleCells int    `json:"visible_cells"`
	Total        int    `json:"total"`
}

// FinalScores scores every non-eliminated player: balance plus visible cells,
// highest total first, ties broken by balance.
func FinalScores(b *Board, players []Player) []FinalScore {
	scores := make([]FinalScore, 0, len(players))
	for _, p := range players {
		if p.Eliminated {
			continue
		}
		visible := b.CountOwned(p.ID)
		scores = append(scores, FinalScore{
			PlayerID:     p.ID,
			Name:         p.Name,
			Balance:      p.Balance,
			VisibleCells: visible,
			Total:        p.Balance + visible,
		})
	}
	sort.SliceStable(scores, func(i, j int) bool {
		if scores[i].Total != scores[j].Total {
			return scores[i].Total > scores[j].Total
		}
		return scores[i].Balance > scores[j].Balance
	})
	return scores
}

// Winner returns the top-ranked player, if any.
func Winner(scores []FinalScore) (int, bool) {
	if len(scores) == 0 {
		return 0, false
	}
	return scores[0].PlayerID, true
}
