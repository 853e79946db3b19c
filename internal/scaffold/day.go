package scaffold

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Day is a development phase. Each day's scaffolding is a superset of the previous day's.
type Day int

const (
	DayAPISetup   Day = 1
	DayCoreAI     Day = 2
	DayUI         Day = 3
	DayAdvanced   Day = 4
	DayRefinement Day = 5

	FirstDay = DayAPISetup
	LastDay  = DayRefinement
)

// AutoDetect is the day selector that asks for detection instead of a fixed day
const AutoDetect = "auto"

var dayNames = map[Day]string{
	DayAPISetup:   "GitHub Models API setup",
	DayCoreAI:     "AI Assistant core features",
	DayUI:         "UI integration components",
	DayAdvanced:   "Advanced AI features",
	DayRefinement: "Testing and refinement",
}

// Valid reports whether d is within 1-5
func (d Day) Valid() bool {
	return d >= FirstDay && d <= LastDay
}

// Name returns the human description of the day's goal
func (d Day) Name() string {
	return dayNames[d]
}

// CommitMessage returns the fixed commit message the git helper uses for d
func (d Day) CommitMessage() string {
	return fmt.Sprintf("feat: Complete Day %d - %s", d, d.Name())
}

func (d Day) String() string {
	return strconv.Itoa(int(d))
}

// ParseDay parses "1"-"5". For "auto" (or an empty string) explicit is false
// and the caller should Detect the day.
func ParseDay(s string) (day Day, explicit bool, err error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, AutoDetect) {
		return 0, false, nil
	}

	n, err := strconv.Atoi(s)
	if err != nil || !Day(n).Valid() {
		return 0, false, fmt.Errorf("invalid day %q: must be %d-%d or %q", s, FirstDay, LastDay, AutoDetect)
	}
	return Day(n), true, nil
}

// Marker is a directory whose absence means the project is still on Day
type Marker struct {
	Path string // relative to the project root
	Day  Day
}

// Markers is the ordered decision list used by Detect. The first marker that
// is missing decides the day; when all exist the project is on LastDay.
var Markers = []Marker{
	{Path: filepath.Join("src", "config"), Day: DayAPISetup},
	{Path: filepath.Join("src", "components"), Day: DayCoreAI},
	{Path: filepath.Join("src", "assets", "styles"), Day: DayUI},
	{Path: filepath.Join("src", "tests"), Day: DayAdvanced},
}

// Detect infers the current day from the marker directories under root.
// A marker path that exists as a regular file counts as missing.
func Detect(root string) Day {
	for _, m := range Markers {
		info, err := os.Stat(filepath.Join(root, m.Path))
		// a plain file at a marker path counts as missing, not as a finished day
		if err != nil || !info.IsDir() {
			return m.Day
		}
	}
	return LastDay
}
