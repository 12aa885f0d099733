package category

// GrammaticalCase selects the declension of a level name when it is
// embedded into a message.
type GrammaticalCase int

const (
	CaseNominative GrammaticalCase = iota
	CaseGenitive
	CaseDative
	CaseAccusative
)

// Depth constants for the three meaningful levels of the program outline.
const (
	DepthStep    = 0
	DepthChapter = 1
	DepthPoint   = 2
)

// levelNames holds the localized level names per depth and case. Depth 0
// ("Шаг") is masculine, deeper levels are feminine; anything below the three
// known levels falls back to the generic row.
var levelNames = [4][4]string{
	{"Шаг", "Шага", "Шагу", "Шаг"},
	{"Глава", "Главы", "Главе", "Главу"},
	{"Точка", "Точки", "Точке", "Точку"},
	{"Категория", "Категории", "Категории", "Категорию"},
}

// LevelName returns the level name for the given depth in the requested
// grammatical case. Depths beyond Point use the generic "Категория" label.
func LevelName(depth int, c GrammaticalCase) string {
	row := 3
	if depth >= 0 && depth <= DepthPoint {
		row = depth
	}
	col := int(c)
	if col < 0 || col > 3 {
		col = 0
	}
	return levelNames[row][col]
}
