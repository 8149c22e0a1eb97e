package engine

type Category string

const (
	CatOnes          Category = "ones"
	CatTwos          Category = "twos"
	CatThrees        Category = "threes"
	CatFours         Category = "fours"
	CatFives         Category = "fives"
	CatSixes         Category = "sixes"
	CatThreeKind     Category = "threeKind"
	CatFourKind      Category = "fourKind"
	CatFullHouse     Category = "fullHouse"
	CatSmallStraight Category = "smallStraight"
	CatLargeStraight Category = "largeStraight"
	CatChance        Category = "chance"
	CatYahtzee       Category = "yahtzee"
)

// Categories is in scorecard display order.
var Categories = []Category{
	CatOnes, CatTwos, CatThrees, CatFours, CatFives, CatSixes,
	CatThreeKind, CatFourKind, CatFullHouse,
	CatSmallStraight, CatLargeStraight,
	CatChance, CatYahtzee,
}

var upperFaces = map[Category]int{
	CatOnes: 1, CatTwos: 2, CatThrees: 3, CatFours: 4, CatFives: 5, CatSixes: 6,
}

const (
	UpperBonusThreshold = 63
	UpperBonus          = 35
	YahtzeeScore        = 50
	HanYahtzeeScore     = 100
	SmallStraightScore  = 30
	LargeStraightScore  = 40
)

func ParseCategory(s string) (Category, bool) {
	c := Category(s)
	return c, c.Valid()
}

func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

func (c Category) Upper() bool {
	_, ok := upperFaces[c]
	return ok
}

// Score is the value dice would record in cat. hanModeTurn doubles a yahtzee.
func Score(cat Category, dice [NumDice]int, hanModeTurn bool) int {
	var counts [7]int
	sum := 0
	for _, d := range dice {
		sum += d
		if d >= 1 && d <= 6 {
			counts[d]++
		}
	}

	if face, ok := upperFaces[cat]; ok {
		return counts[face] * face
	}

	switch cat {
	case CatThreeKind:
		if maxCount(counts) >= 3 {
			return sum
		}
	case CatFourKind:
		if maxCount(counts) >= 4 {
			return sum
		}
	case CatFullHouse:
		if hasCount(counts, 3) && hasCount(counts, 2) {
			return sum
		}
	case CatSmallStraight:
		if hasRun(counts, 1, 4) || hasRun(counts, 2, 5) || hasRun(counts, 3, 6) {
			return SmallStraightScore
		}
	case CatLargeStraight:
		if distinct(counts) == 5 && (hasRun(counts, 1, 5) || hasRun(counts, 2, 6)) {
			return LargeStraightScore
		}
	case CatChance:
		return sum
	case CatYahtzee:
		if hasCount(counts, 5) {
			if hanModeTurn {
				return HanYahtzeeScore
			}
			return YahtzeeScore
		}
	}
	return 0
}

func IsYahtzee(dice [NumDice]int) bool {
	for _, d := range dice[1:] {
		if d != dice[0] {
			return false
		}
	}
	return true
}

// RecomputeTotals refreshes the derived fields of p from its scores and penalty.
func RecomputeTotals(p *Player) {
	upper := 0
	all := 0
	for cat, v := range p.Scores {
		all += v
		if cat.Upper() {
			upper += v
		}
	}

	p.UpperSubtotal = upper
	p.Bonus = 0
	if upper >= UpperBonusThreshold {
		p.Bonus = UpperBonus
	}
	p.Total = all + p.Bonus + p.Penalty
}

func maxCount(counts [7]int) int {
	m := 0
	for _, c := range counts[1:] {
		m = max(m, c)
	}
	return m
}

func hasCount(counts [7]int, n int) bool {
	for _, c := range counts[1:] {
		if c == n {
			return true
		}
	}
	return false
}

func hasRun(counts [7]int, from, to int) bool {
	for f := from; f <= to; f++ {
		if counts[f] == 0 {
			return false
		}
	}
	return true
}

func distinct(counts [7]int) int {
	n := 0
	for _, c := range counts[1:] {
		if c > 0 {
			n++
		}
	}
	return n
}
